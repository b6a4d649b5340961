package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/yungbote/checkout-backend/internal/app"
)

func main() {
	w, err := app.NewWorker()
	if err != nil {
		fmt.Printf("Failed to init worker: %v\n", err)
		os.Exit(1)
	}
	defer w.Close()

	if err := w.Start(); err != nil {
		w.Log.Error("Worker failed to start", "error", err)
		os.Exit(1)
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	s := <-sig
	w.Log.Info("Shutting down worker", "signal", s.String())
}
