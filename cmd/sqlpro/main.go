package main

import (
	"os"

	"github.com/sqlpro/sqlpro/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
