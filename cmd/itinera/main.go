package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/ppiankov/itinera/internal/cli"
)

func main() {
	// A missing .env is fine; keys may come from the environment or config.
	_ = godotenv.Load()

	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
