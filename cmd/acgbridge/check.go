package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mhaslett/acgbridge/internal/exitcode"
	"github.com/mhaslett/acgbridge/internal/logging"
	"github.com/mhaslett/acgbridge/internal/mapping"
	"github.com/mhaslett/acgbridge/internal/transform"
)

var checkMappingPath string

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Compile and validate a mapping file (no processing)",
	RunE:  runCheck,
}

func init() {
	checkCmd.Flags().StringVar(&checkMappingPath, "mapping", "", "Path to mapping.csv (required)")
	_ = checkCmd.MarkFlagRequired("mapping")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	log := logging.Setup(logFormat)

	reg, err := loadRegistry()
	if err != nil {
		log.Error().Err(err).Msg("registry load failed")
		os.Exit(exitcode.ConfigError)
	}

	rules, err := mapping.ParseFile(checkMappingPath)
	if err != nil {
		log.Error().Err(err).Msg("mapping parse failed")
		os.Exit(exitcode.ConfigError)
	}

	compiled, err := mapping.Compile(rules, reg, transform.Builtin())
	if err != nil {
		var ce *mapping.CompileError
		if errors.As(err, &ce) {
			fmt.Fprintf(os.Stderr, "mapping has %d problem(s):\n", len(ce.Findings))
			for _, f := range ce.Findings {
				fmt.Fprintf(os.Stderr, "  %s\n", f.Error())
			}
		} else {
			log.Error().Err(err).Msg("mapping compilation failed")
		}
		os.Exit(exitcode.ConfigError)
	}

	fmt.Printf("Mapping OK: %d rule(s) across %d input type(s)\n",
		len(compiled), len(mapping.RequiredInputs(compiled)))
	return nil
}
