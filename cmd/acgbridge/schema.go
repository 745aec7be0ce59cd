package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mhaslett/acgbridge/internal/exitcode"
	"github.com/mhaslett/acgbridge/internal/logging"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the expected input file types and their required columns",
	RunE:  runSchema,
}

func init() {
	rootCmd.AddCommand(schemaCmd)
}

func runSchema(cmd *cobra.Command, args []string) error {
	log := logging.Setup(logFormat)

	reg, err := loadRegistry()
	if err != nil {
		log.Error().Err(err).Msg("registry load failed")
		os.Exit(exitcode.ConfigError)
	}

	fmt.Println("Files are identified by their columns, not their filenames.")
	fmt.Printf("Every input must carry the merge key column %q.\n\n", reg.MergeKey)
	for _, d := range reg.Inputs {
		fmt.Printf("%s\n", d.Key)
		fmt.Printf("  columns: %s\n", strings.Join(d.Columns, ", "))
	}
	fmt.Println("\nOutput files:")
	for _, s := range reg.Outputs {
		fmt.Printf("  %-20s %s\n", s.Target, s.Filename)
	}
	return nil
}
