package config

import (
	"fmt"
	"maps"
	"strings"

	"github.com/rs/zerolog"
)

// Configuration is the effective push configuration of one invocation. It is
// computed once by New from the command line options, the project descriptor
// and the global descriptor, and never changes afterwards.
type Configuration struct {
	opts     Options
	project  *Descriptor
	settings map[string]any

	verifySSL      bool
	ignores        []string
	exportPatterns []string
}

// New resolves the configuration. Configuration errors are logged and returned.
func New(opts Options, project, global *Descriptor, log zerolog.Logger) (*Configuration, error) {
	if project == nil {
		project = &Descriptor{}
	}
	if opts.WorkingDir == "" {
		opts.WorkingDir = "."
	}

	settings, err := resolveSettings(opts.Repository, project, global, log)
	if err != nil {
		log.Error().Err(err).Msg("Invalid push configuration")
		return nil, err
	}

	c := &Configuration{
		opts:     opts,
		project:  project,
		settings: settings,
	}
	c.verifySSL = c.resolveVerifySSL(log)
	c.ignores = c.resolveIgnores(log)

	return c, nil
}

func resolveSettings(selector string, project, global *Descriptor, log zerolog.Logger) (map[string]any, error) {
	selector = strings.TrimSpace(selector)
	projectScope := pushBlock("project", project, log)
	globalScope := pushBlock("global", global, log)

	if selector != "" && projectScope.block == nil && globalScope.block == nil {
		return nil, fmt.Errorf("%w: --repository %q given, but no push configuration exists",
			ErrAmbiguousRepositorySelector, selector)
	}

	projectSettings, err := projectScope.settings(selector)
	if err != nil {
		return nil, err
	}
	globalSettings, err := globalScope.settings(selector)
	if err != nil {
		return nil, err
	}

	return merge(projectSettings, globalSettings), nil
}

// Get returns the merged project/global value of a setting, or nil.
func (c *Configuration) Get(name string) any {
	return c.settings[name]
}

// String returns a setting as a string, "" when absent.
func (c *Configuration) String(name string) string {
	return stringValue(c.settings[name])
}

// Settings returns a copy of the merged push settings.
func (c *Configuration) Settings() map[string]any {
	return maps.Clone(c.settings)
}

// PackageName returns --name, else the name declared by the project.
func (c *Configuration) PackageName() string {
	if c.opts.Name != "" {
		return c.opts.Name
	}
	return c.project.Name
}

// URL returns --url, else the configured url.
func (c *Configuration) URL() (string, error) {
	if c.opts.URL != "" {
		return c.opts.URL, nil
	}
	if url := c.String(KeyURL); url != "" {
		return url, nil
	}
	return "", fmt.Errorf("%w: the option --url is required or has to be provided in extra.push of composer.json", ErrMissingConfig)
}

// Version returns the version argument, else the version declared by the project.
func (c *Configuration) Version() string {
	if c.opts.Version != "" {
		return c.opts.Version
	}
	return c.project.Version
}

// Type returns the repository type: --type, else the configured type, else nexus.
func (c *Configuration) Type() string {
	if c.opts.Type != "" {
		return c.opts.Type
	}
	if t := c.String(KeyType); t != "" {
		return t
	}
	return DefaultType
}

// VerifySSL reports whether TLS certificates are verified.
func (c *Configuration) VerifySSL() bool {
	return c.verifySSL
}

// Ignores returns the paths excluded from the archive, without duplicates.
// They match any relative path containing them.
func (c *Configuration) Ignores() []string {
	return append([]string(nil), c.ignores...)
}

// ExportIgnorePatterns returns the export-ignore globs of .gitattributes.
func (c *Configuration) ExportIgnorePatterns() []string {
	return append([]string(nil), c.exportPatterns...)
}

// KeepDotFiles reports whether dot-files are archived.
func (c *Configuration) KeepDotFiles() bool {
	return c.opts.KeepDotFiles || c.truthy(KeyKeepDotFiles)
}

// Subdirectory returns the directory the archive entries are rooted under.
func (c *Configuration) Subdirectory() string {
	return strings.Trim(c.String(KeySubdirectory), "/")
}

// WorkingDir returns the project root.
func (c *Configuration) WorkingDir() string {
	return c.opts.WorkingDir
}

func (c *Configuration) OptionUsername() string  { return c.opts.Username }
func (c *Configuration) OptionPassword() string  { return c.opts.Password }
func (c *Configuration) SourceType() string      { return c.opts.SourceType }
func (c *Configuration) SourceURL() string       { return c.opts.SourceURL }
func (c *Configuration) SourceReference() string { return c.opts.SourceRef }

// AccessToken returns --access-token, else the configured access-token.
func (c *Configuration) AccessToken() string {
	if c.opts.AccessToken != "" {
		return c.opts.AccessToken
	}
	return c.String(KeyAccessToken)
}

func (c *Configuration) resolveVerifySSL(log zerolog.Logger) bool {
	if c.opts.SSLVerify != nil {
		return *c.opts.SSLVerify
	}
	v, ok := c.settings[KeySSLVerify]
	if !ok {
		return true
	}
	verify, ok := parseBool(v)
	if !ok {
		log.Warn().Interface("value", v).Msg("Unrecognized ssl-verify value, certificate verification kept enabled")
		return true
	}
	return verify
}

func (c *Configuration) truthy(name string) bool {
	v, _ := parseBool(c.settings[name])
	return v
}

// ValidateSourceReference checks that --src-type, --src-url and --src-ref are
// given together or not at all.
func ValidateSourceReference(opts Options) error {
	given := 0
	for _, v := range []string{opts.SourceType, opts.SourceURL, opts.SourceRef} {
		if v != "" {
			given++
		}
	}
	if given != 0 && given != 3 {
		return fmt.Errorf("%w: --src-type, --src-url and --src-ref must be used together", ErrIncompleteSourceReference)
	}
	return nil
}
