package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/mhaslett/acgbridge/internal/exitcode"
	"github.com/mhaslett/acgbridge/internal/logging"
	"github.com/mhaslett/acgbridge/internal/pipeline"
	"github.com/mhaslett/acgbridge/internal/transform"
)

var (
	mappingPath string
	outDir      string
)

var runCmd = &cobra.Command{
	Use:   "run [extract files...]",
	Short: "Transform extract files into the ACG output files",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runRun,
}

func init() {
	f := runCmd.Flags()
	f.StringVar(&mappingPath, "mapping", "", "Path to mapping.csv (required)")
	f.StringVar(&outDir, "out", "", "Destination directory for output files (required)")
	_ = runCmd.MarkFlagRequired("mapping")
	_ = runCmd.MarkFlagRequired("out")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	log := logging.Setup(logFormat)

	reg, err := loadRegistry()
	if err != nil {
		log.Error().Err(err).Msg("registry load failed")
		os.Exit(exitcode.ConfigError)
	}

	if stat, err := os.Stat(outDir); err != nil || !stat.IsDir() {
		log.Error().Str("dir", outDir).Msg("output directory does not exist")
		os.Exit(exitcode.UsageError)
	}

	// Ctrl-C cancels cooperatively: the run stops at the next row or file
	// boundary and never leaves a partial output file.
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	var runner pipeline.Runner
	events, result, err := runner.Start(ctx, log, reg, transform.Builtin(), pipeline.Options{
		MappingPath: mappingPath,
		InputPaths:  args,
		OutDir:      outDir,
	})
	if err != nil {
		log.Error().Err(err).Msg("could not start run")
		os.Exit(exitcode.UsageError)
	}

	for ev := range events {
		fmt.Fprintln(os.Stderr, ev.Line)
	}
	res := <-result
	if res.Err != nil {
		log.Error().Err(res.Err).Msg("run failed")
		os.Exit(exitCodeFor(res.Err))
	}

	fmt.Printf("Run complete: %d rows read, %d output file(s) written (%.1fs)\n",
		res.Summary.RowsRead, len(res.Summary.OutputFiles), res.Summary.DurationTotal.Seconds())
	for _, path := range res.Summary.OutputFiles {
		fmt.Printf("  %s\n", path)
	}
	return nil
}

// exitCodeFor maps the run's failure class onto a process exit code.
func exitCodeFor(err error) int {
	var pe *pipeline.PipelineError
	if errors.As(err, &pe) {
		switch pe.Phase {
		case "compile":
			return exitcode.ConfigError
		case "classify":
			return exitcode.ClassifyError
		case "inputs":
			return exitcode.MissingInput
		case "assemble":
			return exitcode.TransformError
		case "emit":
			return exitcode.IOError
		}
	}
	return exitcode.TransformError
}
