package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/innowise/user-service/userservice"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfg, err := userservice.LoadConfig()
	if err != nil {
		logger.Error("loading config", "err", err)
		os.Exit(1)
	}

	app := userservice.NewApp(logger, cfg)
	if err := app.Start(); err != nil {
		logger.Error("starting app", "err", err)
		os.Exit(1)
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	<-done

	app.Shutdown()
}
