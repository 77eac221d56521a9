package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/TimurManjosov/leadgrade/cmd/leadgrade/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := commands.Execute(ctx); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
