package relay

import (
	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"

	"traderelay/src/connectors"
	"traderelay/src/controller"
	"traderelay/src/database"
	"traderelay/src/executors"
	"traderelay/src/logging"
	"traderelay/src/notify"
	"traderelay/src/repository"
	"traderelay/src/server"
)

// Relay holds the process wiring shared by the server and the CLI.
type Relay struct {
	Notifier   *notify.Notifier
	Dispatcher *executors.Dispatcher
	// Journal is nil when the database is disabled.
	Journal *repository.TradeJournalRepository

	sink *logging.Sink
}

// Bootstrap sets up logging, opens the journal database and builds the
// dispatcher from the environment.
func Bootstrap() (*Relay, error) {
	sink, err := logging.Setup(logging.GetConfig())
	if err != nil {
		return nil, err
	}

	if err := database.InitMainDB(); err != nil {
		logrus.WithError(err).Error("Failed to connect to database")
		return nil, multierr.Append(err, sink.Close())
	}

	notifier := notify.NewNotifierFromConfig(notify.GetConfig())
	r := &Relay{
		Notifier: notifier,
		Dispatcher: executors.NewDispatcher(
			notifier,
			executors.GetConfig(),
			connectors.GetConfig(),
			controller.GetConfig(),
		),
		sink: sink,
	}
	if database.MainDB != nil {
		r.Journal = repository.NewTradeJournalRepository()
	}
	return r, nil
}

// Serve runs the HTTP server until the process is signalled.
func (r *Relay) Serve() {
	config := server.GetConfig()
	if r.Journal == nil {
		server.StartServer(config, r.Dispatcher, r.Notifier, nil)
		return
	}
	server.StartServer(config, r.Dispatcher, r.Notifier, r.Journal)
}

// Close waits for pending notifications and releases the log file.
func (r *Relay) Close() error {
	return multierr.Append(r.Notifier.Wait(), r.sink.Close())
}
