package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"composer-push/pkg/config"
)

// optionalBool is a boolean flag that remembers whether it was given at all.
// A bare --flag means true.
type optionalBool struct {
	value **bool
}

func newOptionalBool(target **bool) *optionalBool {
	return &optionalBool{value: target}
}

// String is used both by fmt.Print and by Cobra in help text
func (b *optionalBool) String() string {
	if *b.value == nil {
		return ""
	}
	return strconv.FormatBool(**b.value)
}

// Set must have pointer receiver so it doesn't change the value of a copy
func (b *optionalBool) Set(v string) error {
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("must be a boolean, got %q", v)
	}
	*b.value = &parsed
	return nil
}

// Type is only used in help text
func (b *optionalBool) Type() string {
	return "bool"
}

// bindOptionalBool registers a tri-state boolean flag.
func bindOptionalBool(flags *pflag.FlagSet, target **bool, name, usage string) {
	flag := flags.VarPF(newOptionalBool(target), name, "", usage)
	flag.NoOptDefVal = "true"
}

// bindTargetFlags registers the flags selecting the repository and package.
func bindTargetFlags(flags *pflag.FlagSet, opts *config.Options) {
	flags.StringVar(&opts.Name, "name", "", "Name of the package (if different from the composer.json file)")
	flags.StringVar(&opts.URL, "url", "", "URL to the distant repository")
	flags.StringVar(&opts.Type, "type", "", "Type of the distant repository (nexus or artifactory, default nexus)")
	flags.StringVar(&opts.Repository, "repository", "", "Which repository to push to, when several are configured")
}

// workingDir returns the --working-dir value, "." when not set.
func workingDir(cmd *cobra.Command) string {
	dir, err := cmd.Flags().GetString("working-dir")
	if err != nil || dir == "" {
		return "."
	}
	return dir
}
