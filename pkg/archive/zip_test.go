package archive

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/klauspost/compress/zip"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return dir
}

func typicalTree(t *testing.T) string {
	return writeTree(t, map[string]string{
		"README.md":                   "# readme",
		"src/myFile.php":              "<?php",
		"src/folder/myFileFolder.php": "<?php",
	})
}

func build(t *testing.T, spec Spec) (ocispec.Descriptor, map[string]string) {
	t.Helper()
	if spec.Destination == "" {
		spec.Destination = filepath.Join(t.TempDir(), "archive.zip")
	}
	desc, err := Directory(context.Background(), spec, zerolog.Nop())
	require.NoError(t, err)
	return desc, readArchive(t, spec.Destination)
}

func readArchive(t *testing.T, name string) map[string]string {
	t.Helper()
	zr, err := zip.OpenReader(name)
	require.NoError(t, err)
	defer zr.Close()

	entries := map[string]string{}
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		content, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		entries[f.Name] = string(content)
	}
	return entries
}

func names(entries map[string]string) []string {
	out := make([]string, 0, len(entries))
	for name := range entries {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func TestDirectory(t *testing.T) {
	desc, entries := build(t, Spec{Source: typicalTree(t), Version: "1.0.0"})

	assert.Equal(t, []string{"README.md", "src/folder/myFileFolder.php", "src/myFile.php"}, names(entries))
	assert.Equal(t, "# readme", entries["README.md"])
	assert.Equal(t, MediaType, desc.MediaType)
	assert.NoError(t, desc.Digest.Validate())
	assert.Positive(t, desc.Size)
	assert.Equal(t, "1.0.0", desc.Annotations[ocispec.AnnotationVersion])
}

func TestDirectorySubdirectory(t *testing.T) {
	_, entries := build(t, Spec{Source: typicalTree(t), Subdirectory: "typicalArchive"})

	assert.Equal(t, []string{
		"typicalArchive/README.md",
		"typicalArchive/src/folder/myFileFolder.php",
		"typicalArchive/src/myFile.php",
	}, names(entries))
}

func TestDirectoryIgnores(t *testing.T) {
	tests := []struct {
		name    string
		ignores []string
		want    []string
	}{
		{
			name:    "directory",
			ignores: []string{"src/folder"},
			want:    []string{"README.md", "src/myFile.php"},
		},
		{
			name:    "single file",
			ignores: []string{"src/myFile.php"},
			want:    []string{"README.md", "src/folder/myFileFolder.php"},
		},
		{
			name:    "directory with trailing slash",
			ignores: []string{"src/folder/"},
			want:    []string{"README.md", "src/myFile.php"},
		},
		{
			name:    "partial name",
			ignores: []string{"older"},
			want:    []string{"README.md", "src/myFile.php"},
		},
		{
			name:    "glob characters are literal",
			ignores: []string{"**/*.php", "src/*"},
			want:    []string{"README.md", "src/folder/myFileFolder.php", "src/myFile.php"},
		},
		{
			name:    "no match",
			ignores: []string{"unknown"},
			want:    []string{"README.md", "src/folder/myFileFolder.php", "src/myFile.php"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, entries := build(t, Spec{Source: typicalTree(t), Ignores: tt.ignores})
			assert.Equal(t, tt.want, names(entries))
		})
	}
}

func TestDirectoryIgnoresWithMetacharacters(t *testing.T) {
	source := writeTree(t, map[string]string{
		"README.md":      "# readme",
		"docs/guide.md":  "# guide",
		"{tmp}/keep.php": "<?php",
		"src/a.php":      "<?php",
	})

	_, entries := build(t, Spec{Source: source, Ignores: []string{"*.md", "{tmp}"}})
	assert.Equal(t, []string{"README.md", "docs/guide.md", "src/a.php"}, names(entries))
}

func TestDirectoryExportPatterns(t *testing.T) {
	source := writeTree(t, map[string]string{
		"README.md":          "# readme",
		"docs/guide.md":      "# guide",
		"src/a.php":          "<?php",
		"tests/unit/a.php":   "<?php",
		"tests/fixtures.txt": "data",
	})

	tests := []struct {
		name     string
		patterns []string
		want     []string
	}{
		{
			name:     "name pattern matches at any depth",
			patterns: []string{"*.md"},
			want:     []string{"src/a.php", "tests/fixtures.txt", "tests/unit/a.php"},
		},
		{
			name:     "path pattern is anchored",
			patterns: []string{"/tests/*.txt"},
			want:     []string{"README.md", "docs/guide.md", "src/a.php", "tests/unit/a.php"},
		},
		{
			name:     "directory pattern prunes the subtree",
			patterns: []string{"tests/u*"},
			want:     []string{"README.md", "docs/guide.md", "src/a.php", "tests/fixtures.txt"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, entries := build(t, Spec{Source: source, ExportPatterns: tt.patterns})
			assert.Equal(t, tt.want, names(entries))
		})
	}
}

func TestDirectoryRegistersRewriteTempFile(t *testing.T) {
	var registered []string
	previous := registerTemp
	registerTemp = func(name string) { registered = append(registered, name) }
	defer func() { registerTemp = previous }()

	source := writeTree(t, map[string]string{"composer.json": `{"name":"my/package"}`})
	destination := filepath.Join(t.TempDir(), "archive.zip")
	build(t, Spec{Source: source, Destination: destination, Version: "1.0.0"})

	require.Len(t, registered, 1)
	assert.Equal(t, filepath.Dir(destination), filepath.Dir(registered[0]))
	assert.NoFileExists(t, registered[0])
}

func TestDirectoryDotFilesAndVCS(t *testing.T) {
	source := writeTree(t, map[string]string{
		"README.md":      "readme",
		".env":           "SECRET=1",
		".github/ci.yml": "on: push",
		".git/HEAD":      "ref: refs/heads/main",
		"CVS/Entries":    "",
	})

	_, entries := build(t, Spec{Source: source})
	assert.Equal(t, []string{"README.md"}, names(entries))

	_, entries = build(t, Spec{Source: source, KeepDotFiles: true})
	assert.Equal(t, []string{".env", ".github/ci.yml", "README.md"}, names(entries))
}

func TestDirectoryStampsManifestVersion(t *testing.T) {
	manifest := `{"name":"my/package","version":"1.0.0","homepage":"https://example.com/my/package","require":{"php":">=8.1"}}`
	source := writeTree(t, map[string]string{
		"composer.json":  manifest,
		"src/myFile.php": "<?php",
	})

	for _, subdir := range []string{"", "typicalArchive"} {
		t.Run("subdirectory "+subdir, func(t *testing.T) {
			_, entries := build(t, Spec{Source: source, Version: "2.0.0", Subdirectory: subdir})

			entry := ManifestName
			if subdir != "" {
				entry = subdir + "/" + ManifestName
			}
			require.Contains(t, entries, entry)

			stamped := gjson.Parse(entries[entry])
			assert.Equal(t, "2.0.0", stamped.Get("version").String())
			assert.Equal(t, "my/package", stamped.Get("name").String())
			assert.Contains(t, entries[entry], `"https://example.com/my/package"`)
			assert.Len(t, entries, 2)
		})
	}
}

func TestDirectoryAddsMissingVersion(t *testing.T) {
	source := writeTree(t, map[string]string{"composer.json": `{"name":"my/package"}`})

	_, entries := build(t, Spec{Source: source, Version: "3.1.4"})

	assert.Equal(t, "3.1.4", gjson.Get(entries[ManifestName], "version").String())
}

func TestDirectoryInvalidManifest(t *testing.T) {
	for _, content := range []string{"null", "[1,2]", "{not json"} {
		source := writeTree(t, map[string]string{"composer.json": content})

		_, err := Directory(context.Background(), Spec{
			Source:      source,
			Destination: filepath.Join(t.TempDir(), "archive.zip"),
			Version:     "1.0.0",
		}, zerolog.Nop())

		assert.ErrorIs(t, err, ErrArchiveCreation, content)
	}
}

func TestDirectoryUnwritableDestination(t *testing.T) {
	_, err := Directory(context.Background(), Spec{
		Source:      typicalTree(t),
		Destination: filepath.Join(t.TempDir(), "missing", "archive.zip"),
	}, zerolog.Nop())

	assert.ErrorIs(t, err, ErrArchiveCreation)
}

func TestDirectoryCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Directory(ctx, Spec{
		Source:      typicalTree(t),
		Destination: filepath.Join(t.TempDir(), "archive.zip"),
	}, zerolog.Nop())

	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, ErrArchiveCreation)
}

func TestDirectorySkipsDestination(t *testing.T) {
	source := typicalTree(t)

	_, entries := build(t, Spec{Source: source, Destination: filepath.Join(source, "out.zip")})

	assert.NotContains(t, entries, "out.zip")
	assert.Len(t, entries, 3)
}
