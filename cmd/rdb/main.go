package main

import (
	"github.com/joho/godotenv"

	"rdb/internal/cli"
)

func main() {
	// API keys for embedding and refinement providers may live in a .env
	// file next to the binary. Missing files are fine.
	godotenv.Load()

	cli.Execute()
}
