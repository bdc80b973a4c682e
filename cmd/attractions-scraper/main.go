// Command attractions-scraper collects TripAdvisor attraction records using
// one of several interchangeable acquisition strategies.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/xsolare/trip-scheduler-scraper/cmd/attractions-scraper/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := commands.Execute(ctx)
	stop()
	os.Exit(code)
}
