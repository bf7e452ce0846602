package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"marketbrowser/internal/commands"
)

func main() {
	// Create context with cancellation for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nReceived interrupt signal, shutting down...")
		cancel()
	}()

	// cobra already printed the error
	if err := commands.Execute(ctx); err != nil {
		cancel()
		os.Exit(1)
	}
}
