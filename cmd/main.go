package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/cinelake/cinelake-backend/internal/app"
)

func main() {
	// Missing .env is fine in containerized deployments.
	_ = godotenv.Load()

	application, err := app.New()
	if err != nil {
		fmt.Printf("Failed to initialize application: %v\n", err)
		os.Exit(1)
	}
	defer application.Stop()

	if err := application.Run(); err != nil {
		application.Log.Error("Server exited", "error", err)
		os.Exit(1)
	}
}
