package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"composer-push/pkg/config"
	"composer-push/pkg/provider"
)

type ConfigCmdOpts struct {
	config.Options
	OutputFormat string
}

const (
	OutputFormatTable = "table"
	OutputFormatJSON  = "json"
	OutputFormatYAML  = "yaml"
)

const maskedValue = "******"

// secretKeys are masked when settings are printed.
var secretKeys = []string{config.KeyPassword, config.KeyAccessToken}

// ResolvedConfig is the effective configuration of a push, as printed by the
// 'config' command.
type ResolvedConfig struct {
	Package      string         `json:"package" yaml:"package"`
	Version      string         `json:"version,omitempty" yaml:"version,omitempty"`
	Type         string         `json:"type" yaml:"type"`
	Repository   string         `json:"repository,omitempty" yaml:"repository,omitempty"`
	UploadURL    string         `json:"uploadUrl,omitempty" yaml:"uploadUrl,omitempty"`
	VerifySSL    bool           `json:"verifySsl" yaml:"verifySsl"`
	KeepDotFiles bool           `json:"keepDotFiles" yaml:"keepDotFiles"`
	Subdirectory string         `json:"subdirectory,omitempty" yaml:"subdirectory,omitempty"`
	Ignores      []string       `json:"ignores" yaml:"ignores"`
	ExportIgnore []string       `json:"exportIgnore,omitempty" yaml:"exportIgnore,omitempty"`
	Settings     map[string]any `json:"settings,omitempty" yaml:"settings,omitempty"`
}

// NewConfigCmd creates the 'config' command
func NewConfigCmd() *cobra.Command {
	var opts ConfigCmdOpts
	opts.OutputFormat = OutputFormatTable

	cmd := &cobra.Command{
		Use:   "config [version]",
		Short: "Show the resolved push configuration",
		Long:  `Config resolves the push configuration from the command line, the project composer.json and the global composer.json, and prints it without archiving or uploading anything. Passwords and tokens are masked.`,
		Example: `  # Show the configuration used by 'push'
  composer-push config

  # Show the configuration of one of several repositories
  composer-push config --repository prod

  # Output in JSON format
  composer-push config 1.0.0 --output json

  # Output in YAML format
  composer-push config --output yaml`,

		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				opts.Version = args[0]
			}
			opts.WorkingDir = workingDir(cmd)
			return runConfig(cmd.OutOrStdout(), opts)
		},
	}

	flags := cmd.Flags()
	bindTargetFlags(flags, &opts.Options)
	flags.StringArrayVar(&opts.Ignore, "ignore", nil, "Directories and files to ignore when creating the zip")
	flags.BoolVar(&opts.IgnoreByGitAttributes, "ignore-by-git-attributes", false, "Ignore .gitattributes export-ignore directories when creating the zip")
	flags.BoolVar(&opts.IgnoreByComposer, "ignore-by-composer", false, "Ignore composer.json archive-exclude files and directories when creating the zip")
	flags.BoolVar(&opts.KeepVendor, "keep-vendor", false, "Keep vendor directory when creating zip")
	flags.BoolVar(&opts.KeepDotFiles, "keep-dot-files", false, "Keep dot files when creating zip")
	bindOptionalBool(flags, &opts.SSLVerify, "ssl-verify", "Enable (default) or disable the verification of the SSL certificate")
	flags.StringVarP(&opts.OutputFormat, "output", "o", OutputFormatTable, "Output format (table, json, yaml)")

	return cmd
}

func runConfig(out io.Writer, opts ConfigCmdOpts) error {
	logger := log.Logger

	cfg, err := loadConfiguration(opts.Options, logger)
	if err != nil {
		return newExitCodeError(ExitConfigError, err)
	}

	resolved := ResolvedConfig{
		Package:      cfg.PackageName(),
		Version:      cfg.Version(),
		Type:         cfg.Type(),
		Repository:   opts.Repository,
		VerifySSL:    cfg.VerifySSL(),
		KeepDotFiles: cfg.KeepDotFiles(),
		Subdirectory: cfg.Subdirectory(),
		Ignores:      cfg.Ignores(),
		ExportIgnore: cfg.ExportIgnorePatterns(),
		Settings:     maskSecrets(cfg.Settings()),
	}

	p, err := provider.New(cfg.Type(), provider.Deps{Config: cfg, Log: logger})
	if err != nil {
		logger.Error().Err(err).Msg("Invalid repository type")
		return newExitCodeError(ExitConfigError, err)
	}
	if url, err := p.URL(); err == nil {
		resolved.UploadURL = url
	} else {
		logger.Debug().Err(err).Msg("Upload URL not resolvable yet")
	}

	// Output the information in the requested format
	switch opts.OutputFormat {
	case OutputFormatJSON:
		return outputJSON(out, resolved)
	case OutputFormatYAML:
		return outputYAML(out, resolved)
	case OutputFormatTable:
		return outputTable(out, resolved)
	default:
		return outputTable(out, resolved)
	}
}

func maskSecrets(settings map[string]any) map[string]any {
	for _, key := range secretKeys {
		if v, ok := settings[key]; ok && v != nil && v != "" {
			settings[key] = maskedValue
		}
	}
	return settings
}

func outputJSON(out io.Writer, v any) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func outputYAML(out io.Writer, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal to YAML: %w", err)
	}
	_, err = out.Write(data)
	return err
}

func outputTable(out io.Writer, c ResolvedConfig) error {
	fmt.Fprintf(out, "Package: %s\n", c.Package)
	fmt.Fprintf(out, "Version: %s\n", c.Version)
	fmt.Fprintf(out, "Type: %s\n", c.Type)
	if c.Repository != "" {
		fmt.Fprintf(out, "Repository: %s\n", c.Repository)
	}
	fmt.Fprintf(out, "Upload URL: %s\n", c.UploadURL)
	fmt.Fprintf(out, "Verify SSL: %t\n", c.VerifySSL)
	fmt.Fprintf(out, "Keep Dot Files: %t\n", c.KeepDotFiles)
	if c.Subdirectory != "" {
		fmt.Fprintf(out, "Subdirectory: %s\n", c.Subdirectory)
	}

	if len(c.Ignores) > 0 {
		fmt.Fprintf(out, "Ignores:\n")
		for _, ignore := range c.Ignores {
			fmt.Fprintf(out, "  - %s\n", ignore)
		}
	}
	if len(c.ExportIgnore) > 0 {
		fmt.Fprintf(out, "Export Ignore Patterns:\n")
		for _, pattern := range c.ExportIgnore {
			fmt.Fprintf(out, "  - %s\n", pattern)
		}
	}

	if len(c.Settings) > 0 {
		keys := make([]string, 0, len(c.Settings))
		for key := range c.Settings {
			keys = append(keys, key)
		}
		slices.Sort(keys)

		fmt.Fprintf(out, "Settings:\n")
		for _, key := range keys {
			fmt.Fprintf(out, "  %s: %s\n", key, formatSetting(c.Settings[key]))
		}
	}

	return nil
}

func formatSetting(v any) string {
	switch val := v.(type) {
	case []string:
		return strings.Join(val, ", ")
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			parts = append(parts, fmt.Sprint(item))
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(val)
	}
}
