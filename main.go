package main

import (
	"fmt"
	"os"
	"time"

	logger "github.com/sirupsen/logrus"

	"traderelay/cmd/relay"
)

var (
	APP_NAME = os.Getenv("APP_NAME")
)

func main() {
	defer handlePanic()

	r, err := relay.Bootstrap()
	if err != nil {
		logger.WithError(err).Fatal("Failed to start relay")
	}

	r.Serve()

	if err := r.Close(); err != nil {
		logger.WithError(err).Error("Relay shutdown finished with errors")
	}
}

func handlePanic() {
	if r := recover(); r != nil {
		logger.WithError(fmt.Errorf("%+v", r)).Error(fmt.Sprintf("Application %s panic", APP_NAME))
		//nolint
		time.Sleep(time.Second * 5)
	}
}
