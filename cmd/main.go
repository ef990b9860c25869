package main

import (
	"fmt"
	"os"

	"github.com/gradlink/gradlink-backend/internal/app"
	"github.com/gradlink/gradlink-backend/internal/platform/envutil"
)

func main() {
	application, err := app.New()
	if err != nil {
		fmt.Printf("failed to initialize app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	application.Start()

	addr := ":" + envutil.String("PORT", "8080")
	application.Log.Info("Starting server...", "addr", addr)
	if err := application.Run(addr); err != nil {
		application.Log.Error("Server exited", "error", err)
		os.Exit(1)
	}
}
