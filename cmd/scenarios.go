package cmd

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/energinet-labs/prosumer/config"
	"github.com/energinet-labs/prosumer/core/inputs"
)

var scenariosCmd = &cobra.Command{
	Use:   "scenarios",
	Short: "List the scenarios registered for the configured question",
	RunE:  listScenarios,
}

func init() {
	rootCmd.AddCommand(scenariosCmd)
}

func listScenarios(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	registry, err := inputs.LoadRegistry(filepath.Join(cfg.DataDir, cfg.Question))
	if err != nil {
		return err
	}
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		cmd.Printf("%s\t%s\n", name, registry[name])
	}
	return nil
}
