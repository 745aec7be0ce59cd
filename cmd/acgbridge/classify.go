package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mhaslett/acgbridge/internal/classify"
	"github.com/mhaslett/acgbridge/internal/csvio"
	"github.com/mhaslett/acgbridge/internal/exitcode"
	"github.com/mhaslett/acgbridge/internal/logging"
)

var classifyCmd = &cobra.Command{
	Use:   "classify [extract files...]",
	Short: "Report which input type each file's columns identify it as",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runClassify,
}

func init() {
	rootCmd.AddCommand(classifyCmd)
}

func runClassify(cmd *cobra.Command, args []string) error {
	log := logging.Setup(logFormat)

	reg, err := loadRegistry()
	if err != nil {
		log.Error().Err(err).Msg("registry load failed")
		os.Exit(exitcode.ConfigError)
	}

	failed := false
	for _, path := range args {
		header, rows, err := csvio.Load(path)
		if err != nil {
			fmt.Printf("%-40s ERROR: %v\n", path, err)
			failed = true
			continue
		}
		key, merr := classify.Identify(path, header, reg)
		if merr != nil {
			fmt.Printf("%-40s UNRECOGNIZED: %v\n", path, merr)
			failed = true
			continue
		}
		fmt.Printf("%-40s %s (%d rows)\n", path, key, len(rows))
	}

	if failed {
		os.Exit(exitcode.ClassifyError)
	}
	return nil
}
