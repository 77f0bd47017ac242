// students is the terminal roster client.
//
//	students list
//	students add --first Ada --last Lovelace --school Analytic
//	students edit 1 --school Imperial
//	students delete 1
//
// The API base URL comes from LOCAL_API_URL / REMOTE_API_URL depending on
// API_HOST, or from --api.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/aanand-mishra/students-roster/internal/cli"
	"github.com/aanand-mishra/students-roster/internal/config"
	"github.com/aanand-mishra/students-roster/internal/logger"
)

func main() {
	log := logger.New(os.Stderr, "students", "cli", os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadClient()
	if err != nil {
		log.Error("failed to load client config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.Execute(ctx, cli.NewRootCommand(cfg, log)); err != nil {
		stop()
		os.Exit(1)
	}
}
