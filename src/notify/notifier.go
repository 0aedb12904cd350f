package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	logger "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"traderelay/src/model"
	"traderelay/src/utils"
)

// Notifier renders order outcomes and hands them to a Sender. Deliveries run in
// the background; Wait blocks until the pending ones are done.
type Notifier struct {
	sender      Sender
	maxInFlight int
	now         func() time.Time

	mu    sync.Mutex
	group *errgroup.Group
}

// NewNotifier returns a notifier delivering through sender. A nil sender
// writes every message to the log instead.
func NewNotifier(sender Sender, maxInFlight int) *Notifier {
	n := &Notifier{
		sender:      sender,
		maxInFlight: maxInFlight,
		now:         time.Now,
	}
	n.group = n.newGroup()
	return n
}

func (n *Notifier) newGroup() *errgroup.Group {
	g := &errgroup.Group{}
	if n.maxInFlight > 0 {
		g.SetLimit(n.maxInFlight)
	}
	return g
}

// LogOrderMessage reports a successful execution and returns the fields it
// derived.
func (n *Notifier) LogOrderMessage(ctx context.Context, venue string, result model.OrderResult, order *model.MarketOrder) Fields {
	msg, fields := BuildOrderMessage(venue, order, result, n.now())

	logger.WithFields(logger.Fields{
		"exchange": venue,
		"symbol":   fields.SymbolDisplay,
		"side":     fields.SideLabel,
		"field":    fields.FieldName,
		"amount":   fields.AmountDisplay,
	}).Info("order filled")

	n.dispatch(ctx, msg)
	return fields
}

func (n *Notifier) LogErrorMessage(ctx context.Context, err error, name string) {
	text := fmt.Sprintf("[%s error]\n%v", name, err)
	logger.WithError(err).Errorf("%s error", name)

	n.dispatch(ctx, Message{Embed: &Embed{
		Title:       name + " error",
		Description: text,
		Color:       ColorError,
	}})
}

// LogOrderErrorMessage reports a failed order. order may be nil when the
// failure happened before an order existed.
func (n *Notifier) LogOrderErrorMessage(ctx context.Context, err error, order *model.MarketOrder) {
	title := "error"
	text := fmt.Sprintf("[an error occurred]\n%v", err)
	if order != nil {
		title = order.OrderName
		text = fmt.Sprintf("[order error]\n%v", err)
	}
	logger.WithField("order", title).WithError(err).Error("order error")

	n.dispatch(ctx, Message{Embed: &Embed{
		Title:       title,
		Description: text,
		Color:       ColorError,
	}})
}

func (n *Notifier) LogValidationErrorMessage(ctx context.Context, msg string) {
	logger.WithField("reason", msg).Error("validation error")
	n.dispatch(ctx, Message{Content: msg})
}

// LogHedgeMessage reports a rebalance between a venue and UPBIT.
func (n *Notifier) LogHedgeMessage(ctx context.Context, exchange, base, quote string, exchangeAmount, upbitAmount float64, hedge bool) {
	hedgeType := "hedge"
	if !hedge {
		hedgeType = "hedge close"
	}
	amounts := fmt.Sprintf("%s:%s UPBIT:%s", exchange, formatNumber(exchangeAmount), formatNumber(upbitAmount))
	content := fmt.Sprintf("%s: %s ==> %s", hedgeType, base, amounts)

	embed := &Embed{Title: "hedge", Description: content, Color: ColorInfo}
	embed.AddField("date", utils.FormatKST(n.now()))
	embed.AddField("exchange", exchange+"-UPBIT")
	embed.AddField("symbol", fmt.Sprintf("%s/%s-%s/KRW", base, quote, base))
	embed.AddField("side", hedgeType)
	embed.AddField("quantity", amounts)

	logger.WithFields(logger.Fields{
		"exchange": exchange,
		"base":     base,
		"hedge":    hedge,
	}).Info(content)

	n.dispatch(ctx, Message{Content: content, Embed: embed})
}

// LogAlertMessage dumps the order as received, one field per set attribute.
func (n *Notifier) LogAlertMessage(ctx context.Context, order *model.MarketOrder, success bool) {
	embed := &Embed{
		Title:       order.OrderName,
		Description: "[webhook alert_message]",
		Color:       ColorError,
	}

	attrs := orderAttributes(order)
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		embed.AddField(k, fmt.Sprint(attrs[k]))
	}

	entry := logger.WithFields(logger.Fields(attrs))
	if success {
		entry.Info("order succeeded, alert message")
	} else {
		entry.Error("order failed, alert message")
	}

	n.dispatch(ctx, Message{Embed: embed})
}

func orderAttributes(order *model.MarketOrder) map[string]interface{} {
	attrs := map[string]interface{}{}
	b, err := json.Marshal(order)
	if err != nil {
		logger.WithError(err).Error("failed to encode order for alert")
		return attrs
	}
	if err := json.Unmarshal(b, &attrs); err != nil {
		logger.WithError(err).Error("failed to decode order attributes for alert")
	}
	return attrs
}

func (n *Notifier) dispatch(ctx context.Context, msg Message) {
	if n.sender == nil {
		logMessage(msg)
		return
	}

	ctx = context.WithoutCancel(ctx)
	n.mu.Lock()
	g := n.group
	n.mu.Unlock()

	g.Go(func() error {
		if err := n.sender.Send(ctx, msg); err != nil {
			logger.WithError(err).Error("notification delivery failed")
			logMessage(msg)
			return err
		}
		return nil
	})
}

// Wait blocks until every delivery started so far has finished and returns
// the first delivery error.
func (n *Notifier) Wait() error {
	n.mu.Lock()
	g := n.group
	n.group = n.newGroup()
	n.mu.Unlock()

	return g.Wait()
}

func logMessage(msg Message) {
	if msg.Embed == nil {
		logger.Info(msg.Content)
		return
	}
	fields := logger.Fields{}
	for _, f := range msg.Embed.Fields {
		fields[f.Name] = f.Value
	}
	logger.WithFields(fields).Info(msg.Embed.Title + ": " + msg.Embed.Description)
}
