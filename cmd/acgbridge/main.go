package main

import (
	"os"

	"github.com/mhaslett/acgbridge/internal/exitcode"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitcode.UsageError)
	}
}
