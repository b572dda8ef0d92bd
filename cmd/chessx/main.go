// Command chessx plays the shared board from a terminal.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/park285/chessx/internal/config"
	"github.com/park285/chessx/internal/msgcat"
	"github.com/park285/chessx/internal/pollclient"
)

func main() {
	_ = godotenv.Load()
	cfg := config.LoadClient()
	cat, err := msgcat.New(os.Getenv("MESSAGES_DIR"))
	if err != nil {
		cat = msgcat.Default()
	}
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, cat.Text("cli.usage", nil))
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli := &cli{
		client: pollclient.New(cfg.ServerURL, pollclient.WithTimeout(cfg.PollTimeout), pollclient.WithToken(cfg.Token)),
		cat:    cat,
		out:    os.Stdout,
	}
	if err := cli.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		switch {
		case errors.Is(err, errUsage):
			fmt.Fprintln(os.Stderr, cat.Text("cli.usage", nil))
			os.Exit(2)
		case pollclient.IsUnauthorized(err):
			fmt.Fprintln(os.Stderr, cat.Text("cli.unauthorized", nil))
		case errors.Is(err, context.Canceled):
			return
		default:
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
