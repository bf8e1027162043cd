package main

import (
	"os"

	"github.com/jee-key/brain-blast-bot/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
