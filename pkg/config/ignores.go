package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitattributes"
	"github.com/rs/zerolog"
)

const gitAttributesFile = ".gitattributes"

// resolveIgnores unions every ignore source in a stable order: deprecated
// ignore-dirs, configured ignore, --ignore, export-ignore attributes,
// archive.exclude and finally vendor/.
func (c *Configuration) resolveIgnores(log zerolog.Logger) []string {
	var sources [][]string

	sources = append(sources, c.deprecatedIgnores(log))
	sources = append(sources, stringList(c.settings[KeyIgnore]))
	sources = append(sources, c.opts.Ignore)

	if c.opts.IgnoreByGitAttributes || c.truthy(KeyIgnoreByGitAttributes) {
		var paths []string
		for _, p := range gitAttributesExportIgnores(c.opts.WorkingDir, log) {
			if isGlob(p) {
				c.exportPatterns = append(c.exportPatterns, p)
			} else {
				paths = append(paths, p)
			}
		}
		c.exportPatterns = unique(c.exportPatterns)
		sources = append(sources, paths)
	}
	if c.opts.IgnoreByComposer || c.truthy(KeyIgnoreByComposer) {
		sources = append(sources, archiveExcludeIgnores(c.project))
	}
	if !c.opts.KeepVendor {
		sources = append(sources, []string{VendorIgnore})
	}

	return unique(sources...)
}

func (c *Configuration) deprecatedIgnores(log zerolog.Logger) []string {
	configured := stringList(c.settings[KeyIgnoreDirs])
	if len(configured) > 0 {
		log.Warn().Msg("The ignore-dirs config option has been deprecated. Please use ignore instead")
	}
	if len(c.opts.IgnoreDirs) > 0 {
		log.Warn().Msg("The --ignore-dirs option has been deprecated. Please use --ignore instead")
	}
	return unique(configured, c.opts.IgnoreDirs)
}

// gitAttributesExportIgnores returns the paths marked export-ignore in the
// project's .gitattributes.
func gitAttributesExportIgnores(dir string, log zerolog.Logger) []string {
	f, err := os.Open(filepath.Join(dir, gitAttributesFile))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Warn().Err(err).Msg("Unable to read .gitattributes")
		}
		return nil
	}
	defer f.Close()

	attributes, err := gitattributes.ReadAttributes(f, nil, true)
	if err != nil {
		// Lines before the faulty one are still used.
		log.Warn().Err(err).Msg("Unable to parse .gitattributes completely")
	}

	var ignores []string
	for _, match := range attributes {
		if match.Pattern == nil {
			continue
		}
		for _, attr := range match.Attributes {
			if attr.Name() == "export-ignore" && attr.IsSet() {
				if p := strings.Trim(match.Name, "/"); p != "" {
					ignores = append(ignores, p)
				}
				break
			}
		}
	}
	return ignores
}

func isGlob(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[")
}

func archiveExcludeIgnores(d *Descriptor) []string {
	ignores := make([]string, 0, len(d.ArchiveExcludes))
	for _, exclude := range d.ArchiveExcludes {
		if p := strings.Trim(exclude, "/"); p != "" {
			ignores = append(ignores, p)
		}
	}
	return ignores
}

func unique(lists ...[]string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, list := range lists {
		for _, item := range list {
			if _, ok := seen[item]; ok {
				continue
			}
			seen[item] = struct{}{}
			out = append(out, item)
		}
	}
	return out
}
