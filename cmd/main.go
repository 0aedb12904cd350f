package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"
	"go.uber.org/multierr"
	"golang.org/x/crypto/bcrypt"

	"traderelay/cmd/relay"
	"traderelay/src/model"
	"traderelay/src/repository"
)

var Version string

func main() {
	app := cli.NewApp()
	app.Name = "traderelay"
	app.Usage = "The trade relay command line interface"
	app.Version = Version

	app.Commands = []cli.Command{
		serveCMD,
		orderCMD,
		positionModeCMD,
		positionsCMD,
		journalCMD,
		hedgeCMD,
		hashPasswordCMD,
	}

	if err := app.Run(os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var (
	exchangeFlag = cli.StringFlag{
		Name:  "exchange, e",
		Value: model.ExchangeGateIO,
		Usage: "venue name",
	}

	serveCMD = cli.Command{
		Name:        "serve",
		Usage:       "run the signal server",
		Action:      serveAction,
		ArgsUsage:   "",
		Flags:       []cli.Flag{},
		Description: `Serve POST /order, /position-mode, /positions and /journal`,
	}
	orderCMD = cli.Command{
		Name:      "order",
		Usage:     "submit one market order",
		Action:    orderAction,
		ArgsUsage: "",
		Flags: []cli.Flag{
			exchangeFlag,
			cli.StringFlag{Name: "base", Usage: "base asset, e.g. BTC"},
			cli.StringFlag{Name: "quote", Value: "USDT", Usage: "quote asset; suffix .P for perpetual futures"},
			cli.StringFlag{Name: "side", Usage: "buy, sell, entry/buy, entry/sell, close/buy or close/sell"},
			cli.Float64Flag{Name: "amount", Usage: "quantity to trade"},
			cli.Float64Flag{Name: "percent", Usage: "percent of the free balance to trade"},
			cli.IntFlag{Name: "leverage", Usage: "futures leverage"},
			cli.StringFlag{Name: "name", Value: "cli", Usage: "order name shown in notifications"},
		},
		Description: `Run one signal through the same pipeline the server uses`,
	}
	positionModeCMD = cli.Command{
		Name:      "position-mode",
		Usage:     "switch between one-way and hedge mode",
		Action:    positionModeAction,
		ArgsUsage: "<one-way|hedge>",
		Flags:     []cli.Flag{exchangeFlag},
	}
	positionsCMD = cli.Command{
		Name:   "positions",
		Usage:  "list open futures positions",
		Action: positionsAction,
		Flags: []cli.Flag{
			exchangeFlag,
			cli.StringFlag{Name: "symbol", Usage: "venue symbol, e.g. BTC_USDT; empty lists all"},
		},
	}
	journalCMD = cli.Command{
		Name:   "journal",
		Usage:  "print the latest trade journal entries",
		Action: journalAction,
		Flags: []cli.Flag{
			cli.StringFlag{Name: "exchange, e", Usage: "filter by venue"},
			cli.StringFlag{Name: "symbol", Usage: "filter by symbol"},
			cli.StringFlag{Name: "status", Usage: "filled or error"},
			cli.IntFlag{Name: "limit", Value: 20},
		},
	}
	hedgeCMD = cli.Command{
		Name:   "hedge",
		Usage:  "report a rebalance between a venue and UPBIT",
		Action: hedgeAction,
		Flags: []cli.Flag{
			exchangeFlag,
			cli.StringFlag{Name: "base", Usage: "base asset, e.g. ETH"},
			cli.StringFlag{Name: "quote", Value: "USDT", Usage: "quote asset on the venue"},
			cli.Float64Flag{Name: "amount", Usage: "quantity moved on the venue"},
			cli.Float64Flag{Name: "upbit-amount", Usage: "quantity moved on UPBIT"},
			cli.BoolFlag{Name: "close", Usage: "report a hedge close"},
		},
		Description: `Send the hedge notification for a manual rebalance`,
	}
	hashPasswordCMD = cli.Command{
		Name:        "hash-password",
		Usage:       "print the bcrypt hash for RELAY_PASSWORD_HASH",
		Action:      hashPasswordAction,
		ArgsUsage:   "<password>",
		Description: `Hash a signal password`,
	}
)

func serveAction(_ *cli.Context) error {
	logrus.Info("Starting relay server CMD")

	r, err := relay.Bootstrap()
	if err != nil {
		return err
	}
	r.Serve()
	return r.Close()
}

// orderRequestFromFlags leaves amount and percent nil unless the flag was given.
func orderRequestFromFlags(c *cli.Context) model.OrderRequest {
	req := model.OrderRequest{
		Exchange:  c.String("exchange"),
		Base:      c.String("base"),
		Quote:     c.String("quote"),
		Side:      c.String("side"),
		Type:      model.OrderTypeMarket,
		OrderName: c.String("name"),
	}
	if c.IsSet("amount") {
		req.Amount = model.Float64Ptr(c.Float64("amount"))
	}
	if c.IsSet("percent") {
		req.Percent = model.Float64Ptr(c.Float64("percent"))
	}
	if c.IsSet("leverage") {
		req.Leverage = model.IntPtr(c.Int("leverage"))
	}
	return req
}

func orderAction(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r, err := relay.Bootstrap()
	if err != nil {
		return err
	}

	result, err := r.Dispatcher.Submit(ctx, orderRequestFromFlags(c))
	if err == nil {
		err = printJSON(result)
	}
	return multierr.Append(err, r.Close())
}

func positionModeAction(c *cli.Context) error {
	mode := c.Args().First()
	if mode == "" {
		return errors.New("position mode is required: one-way or hedge")
	}

	r, err := relay.Bootstrap()
	if err != nil {
		return err
	}

	err = r.Dispatcher.SetPositionMode(context.Background(), c.String("exchange"), mode)
	return multierr.Append(err, r.Close())
}

func positionsAction(c *cli.Context) error {
	r, err := relay.Bootstrap()
	if err != nil {
		return err
	}

	report, err := r.Dispatcher.Positions(context.Background(), c.String("exchange"), c.String("symbol"))
	if err == nil {
		err = printJSON(report)
	}
	return multierr.Append(err, r.Close())
}

func journalAction(c *cli.Context) error {
	r, err := relay.Bootstrap()
	if err != nil {
		return err
	}
	if r.Journal == nil {
		return multierr.Append(errors.New("trade journal is disabled, set ENABLE_DB=true"), r.Close())
	}

	entries, err := r.Journal.Search(context.Background(), repository.TradeJournalSearchOptions{
		Exchange: strings.ToUpper(c.String("exchange")),
		Symbol:   c.String("symbol"),
		Status:   c.String("status"),
		Limit:    c.Int("limit"),
	})
	if err == nil {
		err = printJSON(entries)
	}
	return multierr.Append(err, r.Close())
}

type hedgeReporter interface {
	LogHedgeMessage(ctx context.Context, exchange, base, quote string, exchangeAmount, upbitAmount float64, hedge bool)
}

type hedgeReport struct {
	Exchange    string
	Base        string
	Quote       string
	Amount      float64
	UpbitAmount float64
	Close       bool
}

func reportHedge(ctx context.Context, reporter hedgeReporter, report hedgeReport) error {
	if report.Base == "" {
		return errors.New("base is required")
	}
	if report.Amount <= 0 && report.UpbitAmount <= 0 {
		return errors.New("amount or upbit-amount must be positive")
	}
	reporter.LogHedgeMessage(ctx,
		strings.ToUpper(report.Exchange),
		strings.ToUpper(report.Base),
		strings.ToUpper(report.Quote),
		report.Amount, report.UpbitAmount, !report.Close)
	return nil
}

func hedgeAction(c *cli.Context) error {
	r, err := relay.Bootstrap()
	if err != nil {
		return err
	}

	err = reportHedge(context.Background(), r.Notifier, hedgeReport{
		Exchange:    c.String("exchange"),
		Base:        c.String("base"),
		Quote:       c.String("quote"),
		Amount:      c.Float64("amount"),
		UpbitAmount: c.Float64("upbit-amount"),
		Close:       c.Bool("close"),
	})
	return multierr.Append(err, r.Close())
}

func hashPasswordAction(c *cli.Context) error {
	password := c.Args().First()
	if password == "" {
		return errors.New("password is required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	fmt.Println(string(hash))
	return nil
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
