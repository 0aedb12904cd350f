package notify

import (
	"fmt"
	"strings"
	"time"

	"traderelay/src/model"
	"traderelay/src/utils"
)

// Side labels.
const (
	SideLongEntry  = "long entry"
	SideShortEntry = "short entry"
	SideShortClose = "short close"
	SideLongClose  = "long close"
	SideBuy        = "buy"
	SideSell       = "sell"
)

const (
	ColorInfo  = 0x0000FF
	ColorError = 0xFF0000
)

// Fields is what the formatter derives from one execution.
type Fields struct {
	FieldName     string
	AmountDisplay string
	SideLabel     string
	SymbolDisplay string
}

// Format derives the display fields of an execution. It depends only on its
// arguments.
func Format(venue string, order *model.MarketOrder, result model.OrderResult) Fields {
	venue = strings.ToUpper(venue)

	field, display := quantityRules[classify(venue, order)](venue, order, result)

	return Fields{
		FieldName:     field,
		AmountDisplay: display,
		SideLabel:     sideLabel(order),
		SymbolDisplay: symbolDisplay(order),
	}
}

func sideLabel(order *model.MarketOrder) string {
	if order.IsFutures {
		switch {
		case order.IsEntry && order.IsBuy:
			return SideLongEntry
		case order.IsEntry && order.IsSell:
			return SideShortEntry
		case order.IsClose && order.IsBuy:
			return SideShortClose
		case order.IsClose && order.IsSell:
			return SideLongClose
		}
		return ""
	}
	switch {
	case order.IsBuy:
		return SideBuy
	case order.IsSell:
		return SideSell
	}
	return ""
}

func symbolDisplay(order *model.MarketOrder) string {
	quote := order.Quote
	if order.IsCrypto && order.IsFutures {
		quote += ".P"
	}
	return order.Base + "/" + quote
}

// BuildOrderMessage renders the confirmation of an execution.
func BuildOrderMessage(venue string, order *model.MarketOrder, result model.OrderResult, now time.Time) (Message, Fields) {
	venue = strings.ToUpper(venue)
	f := Format(venue, order, result)
	date := utils.FormatKST(now)

	if model.IsStockExchange(venue) {
		return buildEquitiesMessage(venue, order, date), f
	}

	content := fmt.Sprintf("date\n%s\n\nexchange\n%s\n\nsymbol\n%s\n\nside\n%s\n\n%s",
		date, venue, f.SymbolDisplay, result.Side, f.AmountDisplay)

	embed := &Embed{
		Title:       order.OrderName,
		Description: strings.TrimSpace(fmt.Sprintf("filled: %s %s %s %s", venue, f.SymbolDisplay, f.SideLabel, f.AmountDisplay)),
		Color:       ColorInfo,
	}
	embed.AddField("date", date)
	embed.AddField("exchange", venue)
	embed.AddField("symbol", f.SymbolDisplay)
	embed.AddField("side", f.SideLabel)
	if f.AmountDisplay != "" {
		embed.AddField(f.FieldName, f.AmountDisplay)
	}
	if order.Leverage != nil {
		embed.AddField("leverage", fmt.Sprintf("%dx", *order.Leverage))
	}
	if result.Price != nil && *result.Price != 0 {
		embed.AddField("fill price", formatNumber(*result.Price))
	}

	return Message{Content: content, Embed: embed}, f
}

// buildEquitiesMessage uses the stock layout. Side and quantity are sent
// empty because stock executions report before either is resolved.
func buildEquitiesMessage(venue string, order *model.MarketOrder, date string) Message {
	side, amount := "", ""

	content := fmt.Sprintf("date\n%s\n\nexchange\n%s\n\nticker\n%s\n\nside\n%s\n\n%s",
		date, venue, order.Base, side, amount)

	embed := &Embed{
		Title:       order.OrderName,
		Description: strings.TrimSpace(fmt.Sprintf("filled %s %s %s %s", venue, order.Base, side, amount)),
		Color:       ColorInfo,
	}
	embed.AddField("date", date)
	embed.AddField("exchange", venue)
	embed.AddField("ticker", order.Base)
	embed.AddField("side", side)
	embed.AddField("quantity", amount)
	account := 0
	if order.KisNumber != nil {
		account = *order.KisNumber
	}
	embed.AddField("account", fmt.Sprintf("%d번째 계좌", account))

	return Message{Content: content, Embed: embed}
}
