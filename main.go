package main

import (
	"os"

	"github.com/dao-ai/builder/cli"
)

func main() {
	if err := cli.RootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
