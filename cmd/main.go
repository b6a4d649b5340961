package main

import (
	"fmt"
	"os"

	"github.com/yungbote/checkout-backend/internal/app"
)

func main() {
	a, err := app.New()
	if err != nil {
		fmt.Printf("Failed to init gateway: %v\n", err)
		os.Exit(1)
	}
	defer a.Close()

	if err := a.Run(); err != nil {
		a.Log.Error("Gateway exited", "error", err)
		os.Exit(1)
	}
}
