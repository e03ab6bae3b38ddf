package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDescriptorJSON(t *testing.T) {
	path := writeFile(t, "composer.json", `{
		"name": "my/package",
		"version": "1.2.3",
		"archive": {"exclude": ["/tests", "docs/"]},
		"extra": {"push": {"url": "https://example.com", "ssl-verify": 0, "ignore": ["build"]}}
	}`)

	d, err := LoadDescriptor(path)
	require.NoError(t, err)

	assert.Equal(t, "my/package", d.Name)
	assert.Equal(t, "1.2.3", d.Version)
	assert.Equal(t, []string{"/tests", "docs/"}, d.ArchiveExcludes)

	c, err := New(Options{}, d, nil, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "https://example.com", c.String(KeyURL))
	assert.False(t, c.VerifySSL())
	assert.Contains(t, c.Ignores(), "build")
}

func TestLoadDescriptorYAML(t *testing.T) {
	path := writeFile(t, "composer.yaml", `
name: my/package
extra:
  push:
    - name: prod
      url: https://prod.example.com
      type: artifactory
    - name: staging
      url: https://staging.example.com
`)

	d, err := LoadDescriptor(path)
	require.NoError(t, err)

	c, err := New(Options{Repository: "prod", Version: "1.0.0"}, d, nil, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "https://prod.example.com", c.String(KeyURL))
	assert.Equal(t, "artifactory", c.Type())
}

func TestLoadDescriptorInvalid(t *testing.T) {
	for name, content := range map[string]string{
		"composer.json": `["not", "an", "object"]`,
		"broken.json":   `{"name": `,
		"broken.yaml":   "name: [",
	} {
		_, err := LoadDescriptor(writeFile(t, name, content))
		assert.ErrorIs(t, err, ErrInvalidConfig, name)
	}
}

func TestLoadOptionalDescriptor(t *testing.T) {
	d, err := LoadOptionalDescriptor(filepath.Join(t.TempDir(), "composer.json"))
	require.NoError(t, err)
	assert.Equal(t, &Descriptor{}, d)

	_, err = LoadDescriptor(filepath.Join(t.TempDir(), "composer.json"))
	assert.Error(t, err)
}
