package notify

import (
	"fmt"

	"github.com/shopspring/decimal"

	"traderelay/src/model"
)

// Quantity field names.
const (
	FieldContract        = "contract"
	FieldContractCost    = "contract(cost)"
	FieldQuantity        = "quantity"
	FieldPercentQuantity = "percent(quantity)"
	FieldPercentContract = "percent(contract)"
	FieldPercent         = "percent"
	FieldCost            = "cost"
)

type marketKind int

const (
	marketSpot marketKind = iota
	marketFutures
)

type venueClass int

const (
	venueGeneric venueClass = iota
	// venueContractSettled reports futures fills as contracts with an average price.
	venueContractSettled
	// venueCostBased sizes spot market buys by spend.
	venueCostBased
	// venueEquities uses the fixed stock message layout.
	venueEquities
)

type ruleKey struct {
	market marketKind
	class  venueClass
}

// quantityRule picks the field name and display value of the traded quantity.
type quantityRule func(venue string, order *model.MarketOrder, result model.OrderResult) (field, display string)

var quantityRules = map[ruleKey]quantityRule{
	{marketFutures, venueContractSettled}: contractSettledRule,
	{marketFutures, venueGeneric}:         resultAmountRule,
	{marketSpot, venueCostBased}:          costRule,
	{marketSpot, venueEquities}:           equitiesRule,
	{marketSpot, venueGeneric}:            spotRule,
}

var contractSettledVenues = map[string]bool{
	model.ExchangeGateIO: true,
}

// costValueRules read the spend of a cost-based buy. Venues not listed use
// the cost the venue reported.
var costValueRules = map[string]func(order *model.MarketOrder, result model.OrderResult) string{
	model.ExchangeUpbit:  reportedCost,
	model.ExchangeBitget: amountTimesPrice,
	model.ExchangeBybit:  infoOrderQty,
}

func classify(venue string, order *model.MarketOrder) ruleKey {
	if order.IsFutures {
		if contractSettledVenues[venue] {
			return ruleKey{marketFutures, venueContractSettled}
		}
		return ruleKey{marketFutures, venueGeneric}
	}
	if order.IsBuy && model.IsCostBasedExchange(venue) {
		return ruleKey{marketSpot, venueCostBased}
	}
	if model.IsStockExchange(venue) {
		return ruleKey{marketSpot, venueEquities}
	}
	return ruleKey{marketSpot, venueGeneric}
}

func contractSettledRule(_ string, _ *model.MarketOrder, result model.OrderResult) (string, string) {
	if result.FilledQty != nil && result.AvgDealPrice != nil {
		return FieldContract, fmt.Sprintf("%s (평균 체결가: %s)", *result.FilledQty, *result.AvgDealPrice)
	}
	if result.Amount != nil {
		return FieldContract, formatNumber(*result.Amount)
	}
	return FieldContract, ""
}

// resultAmountRule labels the amount the venue reported by what drove the order.
func resultAmountRule(_ string, order *model.MarketOrder, result model.OrderResult) (string, string) {
	if result.Amount == nil {
		return "", ""
	}
	amount := formatNumber(*result.Amount)

	switch {
	case order.ContractSize != nil:
		if result.Cost != nil {
			return FieldContractCost, fmt.Sprintf("%s(%s)", amount, decimal.NewFromFloat(*result.Cost).StringFixed(2))
		}
		return FieldContract, amount
	case order.Amount != nil:
		return FieldQuantity, amount
	case order.Percent != nil:
		return percentField(order), fmt.Sprintf("%s%%(%s)", formatNumber(*order.Percent), amount)
	}
	return "", ""
}

func costRule(venue string, order *model.MarketOrder, result model.OrderResult) (string, string) {
	if order.Amount == nil {
		return FieldCost, ""
	}
	value, ok := costValueRules[venue]
	if !ok {
		value = reportedCost
	}
	return FieldCost, value(order, result)
}

// equitiesRule leaves the quantity empty; stock fills are reported before the
// quantity is known.
func equitiesRule(_ string, _ *model.MarketOrder, _ model.OrderResult) (string, string) {
	return FieldQuantity, ""
}

func spotRule(venue string, order *model.MarketOrder, result model.OrderResult) (string, string) {
	if result.Amount != nil {
		field, display := resultAmountRule(venue, order, result)
		if field == "" {
			field = FieldQuantity
		}
		return field, display
	}

	switch {
	case order.Amount != nil:
		return FieldQuantity, formatNumber(*order.Amount)
	case order.Percent != nil && order.AmountByPercent != nil:
		return percentField(order), fmt.Sprintf("%s%%(%s)", formatNumber(*order.Percent), formatNumber(*order.AmountByPercent))
	case order.Percent != nil:
		return FieldPercent, formatNumber(*order.Percent) + "%"
	}
	return FieldQuantity, ""
}

func percentField(order *model.MarketOrder) string {
	if order.IsContract {
		return FieldPercentContract
	}
	return FieldPercentQuantity
}

func reportedCost(_ *model.MarketOrder, result model.OrderResult) string {
	if result.Cost == nil {
		return ""
	}
	return formatNumber(*result.Cost)
}

func amountTimesPrice(order *model.MarketOrder, _ model.OrderResult) string {
	if order.Amount == nil || order.Price == nil {
		return ""
	}
	return formatNumber(*order.Amount * *order.Price)
}

func infoOrderQty(_ *model.MarketOrder, result model.OrderResult) string {
	v, _ := result.InfoString("orderQty")
	return v
}

// formatNumber renders the shortest decimal form: 2.5, 25, 5000.
func formatNumber(v float64) string {
	return decimal.NewFromFloat(v).String()
}
