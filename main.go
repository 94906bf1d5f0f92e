package main

import (
	"os"

	"github.com/Dicklesworthstone/pomobar/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
