package main

import (
	"os"

	"github.com/Kamar-Folarin/github-insights/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
