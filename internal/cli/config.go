package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

const defaultYAMLConfig = `extract:
    output: "-"
    format: json
    jobs: 4
    comment_prefix: "---"
    private_prefix: "_"
    legacy_params: false
    extensions:
        - lua
`

const defaultTOMLConfig = `[extract]
output = "-"
format = "json"
jobs = 4
comment_prefix = "---"
private_prefix = "_"
legacy_params = false
extensions = ["lua"]
`

func newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage luadoc configuration files",
	}
	cmd.AddCommand(newConfigInitCommand())
	return cmd
}

func newConfigInitCommand() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file populated with the default settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeDefaultConfig(path)
		},
	}

	cmd.Flags().StringVarP(&path, "output", "o", "luadoc.yml", "Destination path (.yml, .yaml or .toml)")

	return cmd
}

func writeDefaultConfig(path string) error {
	var content string
	switch ext := filepath.Ext(path); ext {
	case ".yml", ".yaml":
		content = defaultYAMLConfig
	case ".toml":
		content = defaultTOMLConfig
	default:
		return fmt.Errorf("unsupported config extension %q (want .yml, .yaml or .toml)", ext)
	}

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file %s already exists", path)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
