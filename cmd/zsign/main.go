package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/piratenetwork/zsign/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.NewRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		if !errors.Is(err, cli.ErrSignFailed) {
			fmt.Fprintln(os.Stderr, "Error:", err.Error())
		}
		os.Exit(1)
	}
}
