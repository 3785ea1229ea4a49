package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Abraxas-365/doccraft/errx"
	"github.com/Abraxas-365/doccraft/internal/cli"
	"github.com/fatih/color"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.Execute(ctx); err != nil {
		color.New(color.FgRed).Fprintln(os.Stderr, errx.Print(err))
		stop()
		os.Exit(1)
	}
}
