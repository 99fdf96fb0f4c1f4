package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/luadoc-labs/luadoc/internal/docmodel"
	"github.com/luadoc-labs/luadoc/internal/docparser"
	"github.com/luadoc-labs/luadoc/internal/printer"
	"github.com/luadoc-labs/luadoc/internal/processor"
)

// ExtractOptions holds the configuration for the extract command.
type ExtractOptions struct {
	Source        string
	OutputPath    string   `validate:"required"`
	Format        string   `validate:"oneof=json yaml pretty"`
	Jobs          int      `validate:"min=1"`
	CommentPrefix string   `validate:"required"`
	PrivatePrefix string
	LegacyParams  bool
	Extensions    []string `validate:"min=1"`
	ConfigPath    string
	Debug         bool
}

func defaultExtractOptions() ExtractOptions {
	return ExtractOptions{
		OutputPath:    "-",
		Format:        "json",
		Jobs:          4,
		CommentPrefix: "---",
		PrivatePrefix: "_",
		Extensions:    []string{"lua"},
	}
}

func newExtractCommand() *cobra.Command {
	opts := defaultExtractOptions()

	cmd := &cobra.Command{
		Use:   "extract [flags] file|directory...",
		Short: "Extract the documentation model from Lua sources",
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunExtract(cmd.Context(), &opts, args)
		},
	}

	cmd.Flags().StringVarP(&opts.Source, "source", "s", "", "Lua source passed as a string instead of files")
	cmd.Flags().StringVarP(&opts.OutputPath, "output", "o", opts.OutputPath, "Path to output file or '-' for stdout")
	cmd.Flags().StringVar(&opts.Format, "format", opts.Format, "Output format: json, yaml or pretty")
	cmd.Flags().IntVarP(&opts.Jobs, "jobs", "j", opts.Jobs, "Number of parallel jobs")
	cmd.Flags().StringVarP(&opts.CommentPrefix, "prefix", "p", opts.CommentPrefix, "Comment prefix marking documentation lines")
	cmd.Flags().StringVar(&opts.PrivatePrefix, "private-prefix", opts.PrivatePrefix, "Name prefix forcing private visibility")
	cmd.Flags().BoolVar(&opts.LegacyParams, "legacy-params", false, "Use the legacy two-field @param/@return grammar instead of EmmyLua types")
	cmd.Flags().StringSliceVar(&opts.Extensions, "type", opts.Extensions, "File extension to process (can be repeated)")
	cmd.Flags().StringVar(&opts.ConfigPath, "config", "", "Path to a luadoc.yml or luadoc.toml config file")
	cmd.Flags().BoolVarP(&opts.Debug, "debug", "d", false, "Enable debug logging")

	return cmd
}

// RunExtract runs the extraction pipeline for the given options and paths.
func RunExtract(ctx context.Context, opts *ExtractOptions, paths []string) error {
	if err := loadConfigFile(opts); err != nil {
		return err
	}
	if err := validator.New().Struct(opts); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}

	logger := newLogger(opts.Debug)
	if ctx == nil {
		ctx = context.Background()
	}

	parserOpts := docparser.Options{
		CommentPrefix: opts.CommentPrefix,
		EmmyLua:       !opts.LegacyParams,
		PrivatePrefix: opts.PrivatePrefix,
	}
	proc := processor.New(parserOpts, opts.Jobs, logger)

	var modules []*docmodel.Module

	switch {
	case opts.Source != "":
		mod, diags, err := proc.ProcessSource(ctx, "<source>", []byte(opts.Source))
		logDiagnostics(logger, diags)
		if err != nil {
			return err
		}
		modules = append(modules, mod)

	case len(paths) == 0:
		return fmt.Errorf("expected a file or directory argument")

	default:
		files, err := collectFiles(paths, opts.Extensions)
		if err != nil {
			return err
		}
		if len(files) == 0 {
			return fmt.Errorf("no matching files under %s", strings.Join(paths, ", "))
		}

		results := proc.Run(ctx, files)
		for _, r := range results {
			logDiagnostics(logger, r.Diagnostics)
		}
		// A single-unit invocation propagates the fatal error directly; a
		// batch continues past individual unit failures.
		if len(files) == 1 && results[0].Err != nil {
			return results[0].Err
		}
		for _, r := range results {
			if r.Err == nil {
				modules = append(modules, r.Module)
			}
		}
	}

	out, err := renderModules(modules, opts.Format)
	if err != nil {
		return err
	}
	return writeOutput(out, opts.OutputPath)
}

func newLogger(debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func logDiagnostics(logger *slog.Logger, diags []docparser.Diagnostic) {
	for _, d := range diags {
		logger.Warn("documentation issue", "unit", d.Unit, "line", d.Line, "message", d.Message)
	}
}

func collectFiles(paths, extensions []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		found, err := processor.DiscoverFiles(p, extensions)
		if err != nil {
			return nil, err
		}
		files = append(files, found...)
	}
	return files, nil
}

func renderModules(modules []*docmodel.Module, format string) ([]byte, error) {
	switch format {
	case "json":
		return printer.ToJSON(modules)
	case "yaml":
		return printer.ToYAML(modules)
	case "pretty":
		return printer.ToPretty(modules), nil
	}
	return nil, fmt.Errorf("unknown output format %q", format)
}

func writeOutput(data []byte, path string) error {
	if path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// fileConfig is the on-disk configuration, either YAML or TOML.
type fileConfig struct {
	Extract struct {
		Output        string   `yaml:"output" toml:"output"`
		Format        string   `yaml:"format" toml:"format"`
		Jobs          int      `yaml:"jobs" toml:"jobs"`
		CommentPrefix string   `yaml:"comment_prefix" toml:"comment_prefix"`
		PrivatePrefix string   `yaml:"private_prefix" toml:"private_prefix"`
		LegacyParams  bool     `yaml:"legacy_params" toml:"legacy_params"`
		Extensions    []string `yaml:"extensions" toml:"extensions"`
	} `yaml:"extract" toml:"extract"`
}

// loadConfigFile merges config-file values into opts. Values apply only
// where the corresponding flag was left at its default.
func loadConfigFile(opts *ExtractOptions) error {
	if opts.ConfigPath == "" {
		return nil
	}

	var cfg fileConfig
	switch ext := filepath.Ext(opts.ConfigPath); ext {
	case ".toml":
		if _, err := toml.DecodeFile(opts.ConfigPath, &cfg); err != nil {
			return fmt.Errorf("parse config: %w", err)
		}
	case ".yml", ".yaml":
		data, err := os.ReadFile(filepath.Clean(opts.ConfigPath))
		if err != nil {
			return fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return fmt.Errorf("parse config: %w", err)
		}
	default:
		return fmt.Errorf("unsupported config extension %q (want .yml, .yaml or .toml)", ext)
	}

	def := defaultExtractOptions()
	if opts.OutputPath == def.OutputPath && cfg.Extract.Output != "" {
		opts.OutputPath = cfg.Extract.Output
	}
	if opts.Format == def.Format && cfg.Extract.Format != "" {
		opts.Format = cfg.Extract.Format
	}
	if opts.Jobs == def.Jobs && cfg.Extract.Jobs != 0 {
		opts.Jobs = cfg.Extract.Jobs
	}
	if opts.CommentPrefix == def.CommentPrefix && cfg.Extract.CommentPrefix != "" {
		opts.CommentPrefix = cfg.Extract.CommentPrefix
	}
	if opts.PrivatePrefix == def.PrivatePrefix && cfg.Extract.PrivatePrefix != "" {
		opts.PrivatePrefix = cfg.Extract.PrivatePrefix
	}
	if !opts.LegacyParams && cfg.Extract.LegacyParams {
		opts.LegacyParams = true
	}
	if len(cfg.Extract.Extensions) > 0 && equalStrings(opts.Extensions, def.Extensions) {
		opts.Extensions = cfg.Extract.Extensions
	}
	return nil
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
