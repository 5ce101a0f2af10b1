package main

import (
	"os"

	"github.com/batchkit/batchkit/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
