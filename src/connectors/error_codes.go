package connectors

import "fmt"

// GateErrorLabels maps Gate APIv4 error labels to human-readable messages.
var GateErrorLabels = map[string]string{
	"INVALID_PARAM_VALUE":    "Invalid parameter value",
	"MISSING_REQUIRED_PARAM": "Missing required parameter",
	"INVALID_REQUEST_BODY":   "Request body could not be parsed",
	"INVALID_KEY":            "API key is invalid",
	"INVALID_SIGNATURE":      "Request signature does not match",
	"REQUEST_EXPIRED":        "Request timestamp is too far from server time",
	"IP_FORBIDDEN":           "Source IP is not on the key whitelist",
	"READ_ONLY":              "API key is read only",
	"FORBIDDEN":              "Not allowed for this account",
	"ACCOUNT_LOCKED":         "Account is locked",

	"INVALID_CURRENCY":      "Currency does not exist",
	"INVALID_CURRENCY_PAIR": "Currency pair does not exist",
	"CONTRACT_NOT_FOUND":    "Contract does not exist",

	"BALANCE_NOT_ENOUGH":     "Not enough balance",
	"INSUFFICIENT_AVAILABLE": "Not enough available margin",
	"AMOUNT_TOO_LITTLE":      "Amount below the minimum",
	"AMOUNT_TOO_MUCH":        "Amount above the maximum",
	"REDUCE_EXCEEDED":        "Reduce-only order exceeds the position",
	"LEVERAGE_TOO_HIGH":      "Leverage above the risk limit",
	"POSITION_HOLDING":       "Position mode cannot change while positions are open",
	"ORDER_NOT_FOUND":        "Order does not exist",

	"TOO_MANY_REQUESTS": "Rate limit exceeded",
	"SERVER_ERROR":      "Gate internal error",
	"TOO_BUSY":          "Gate is overloaded",
}

// gateTransientLabels are retried even when Gate answers with a 4xx status.
var gateTransientLabels = map[string]bool{
	"TOO_MANY_REQUESTS": true,
	"SERVER_ERROR":      true,
	"TOO_BUSY":          true,
}

// GetErrorMsg returns a human-readable message for a Gate error label.
// If the label is unknown, returns a generic message including the label.
func GetErrorMsg(label string) string {
	if msg, ok := GateErrorLabels[label]; ok {
		return msg
	}
	return fmt.Sprintf("UNKNOWN_GATE_ERROR_%s", label)
}
