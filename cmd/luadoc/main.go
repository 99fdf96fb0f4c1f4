package main

import (
	"os"

	"github.com/luadoc-labs/luadoc/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
