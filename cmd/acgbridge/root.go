package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mhaslett/acgbridge/internal/config"
)

var (
	logFormat    string
	registryPath string
)

var rootCmd = &cobra.Command{
	Use:   "acgbridge",
	Short: "EMIS clinical-extract → Johns Hopkins ACG file converter",
	Long: "Classifies EMIS Web CSV extracts by their column signatures and transforms them\n" +
		"into the ACG system's patient_data, medical_services and pharmacy_data files,\n" +
		"driven entirely by an external mapping table.",
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&logFormat, "log-format", "text", "Log format: text or json")
	pf.StringVar(&registryPath, "registry", "", "Path to a YAML schema registry (default: built-in EMIS registry)")
}

// loadRegistry resolves the schema registry: the --registry file if given,
// otherwise the built-in EMIS defaults.
func loadRegistry() (*config.Registry, error) {
	if registryPath == "" {
		reg := config.DefaultRegistry()
		if err := reg.Validate(); err != nil {
			return nil, fmt.Errorf("built-in registry invalid: %w", err)
		}
		return reg, nil
	}
	return config.LoadRegistry(registryPath)
}
