package main

import (
	"fmt"
	"os"

	"banny-bridge/cmd"

	"github.com/joho/godotenv"
)

func main() {
	// .env is optional; config falls back to environment and yaml
	_ = godotenv.Load()

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
