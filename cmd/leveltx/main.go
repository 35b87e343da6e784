package main

import (
	"os"

	"leveltx-service/cmd/leveltx/command"

	"github.com/joho/godotenv"
)

func init() { _ = godotenv.Load() }

func main() {
	if err := command.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
