package archive

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// vcsDirs are never archived.
var vcsDirs = map[string]struct{}{
	".git":         {},
	".svn":         {},
	".hg":          {},
	"CVS":          {},
	"_darcs":       {},
	".arch-params": {},
	".monotone":    {},
	".bzr":         {},
}

// filter decides which walked paths are excluded from the archive.
type filter struct {
	contains     []string
	globs        []string
	keepDotFiles bool
}

// newFilter matches ignores as plain substrings of the relative path, glob
// metacharacters included. Only export patterns are globs.
func newFilter(ignores, exportPatterns []string, keepDotFiles bool) *filter {
	f := &filter{keepDotFiles: keepDotFiles}
	for _, p := range ignores {
		if p = strings.TrimSpace(p); p != "" {
			f.contains = append(f.contains, p)
		}
	}
	for _, p := range exportPatterns {
		if p = strings.Trim(strings.TrimSpace(p), "/"); p != "" {
			f.globs = append(f.globs, p)
		}
	}
	return f
}

// excluded reports whether the entry at rel (forward slashes, relative to the
// source) is left out. For directories a true result prunes the subtree.
func (f *filter) excluded(rel, name string, dir bool) bool {
	if dir {
		if _, ok := vcsDirs[name]; ok {
			return true
		}
	}
	if !f.keepDotFiles && strings.HasPrefix(name, ".") {
		return true
	}
	for _, p := range f.contains {
		if strings.Contains(rel, p) || (dir && strings.Contains(rel+"/", p)) {
			return true
		}
	}
	for _, p := range f.globs {
		if matchExportPattern(p, rel, name) {
			return true
		}
	}
	return false
}

// matchExportPattern follows .gitattributes rules: a pattern without a slash
// matches the entry name at any depth, others match the whole relative path.
func matchExportPattern(pattern, rel, name string) bool {
	if !strings.Contains(pattern, "/") {
		ok, _ := doublestar.Match(pattern, name)
		return ok
	}
	ok, _ := doublestar.Match(pattern, rel)
	return ok
}
