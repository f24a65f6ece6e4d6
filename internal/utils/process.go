package utils

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

// ListenForProcessInterruptOrKill blocks until it receives an interrupt (Ctrl+C)
// or termination signal (SIGTERM), then returns it. This keeps the program
// running until the user requests shutdown.
func ListenForProcessInterruptOrKill(logger *slog.Logger) os.Signal {
	// Listen for Ctrl+C or kill
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	logger.Info("press Ctrl+C to exit")

	sig := <-sigChan // block until signal arrives
	logger.Info("signal received", "signal", sig.String())

	return sig
}
