package cmd

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestConfigCommandJSON(t *testing.T) {
	env := setupEnv(t)
	env.write(t, "composer.json", composerJSON(t, []any{
		map[string]any{
			"name":         "prod",
			"url":          "https://example.com/repository/php/",
			"username":     "push-username",
			"password":     "push-password",
			"access-token": "push-token",
			"ssl-verify":   false,
			"ignore":       []string{"tests"},
		},
	}))

	out, err := execute(t, "config", "2.0.0", "-d", env.project, "--repository", "prod", "--output", "json")
	require.NoError(t, err)

	var got ResolvedConfig
	require.NoError(t, json.Unmarshal([]byte(out), &got))

	assert.Equal(t, "my/package", got.Package)
	assert.Equal(t, "2.0.0", got.Version)
	assert.Equal(t, "nexus", got.Type)
	assert.Equal(t, "prod", got.Repository)
	assert.Equal(t, "https://example.com/repository/php/packages/upload/my/package/2.0.0", got.UploadURL)
	assert.False(t, got.VerifySSL)
	assert.ElementsMatch(t, []string{"tests", "vendor/"}, got.Ignores)
	assert.Equal(t, maskedValue, got.Settings["password"])
	assert.Equal(t, maskedValue, got.Settings["access-token"])
	assert.Equal(t, "push-username", got.Settings["username"])
	assert.NotContains(t, out, "push-password")
}

func TestConfigCommandYAML(t *testing.T) {
	env := setupEnv(t)
	env.write(t, "composer.json", composerJSON(t, map[string]any{"url": "https://example.com", "type": "jfrog"}))

	out, err := execute(t, "config", "-d", env.project, "-o", "yaml", "--ssl-verify")
	require.NoError(t, err)

	var got ResolvedConfig
	require.NoError(t, yaml.Unmarshal([]byte(out), &got))
	assert.Equal(t, "jfrog", got.Type)
	assert.Equal(t, "1.0.0", got.Version)
	assert.Equal(t, "https://example.com/my/package/package-1.0.0", got.UploadURL)
	assert.True(t, got.VerifySSL)
}

func TestConfigCommandTable(t *testing.T) {
	env := setupEnv(t)
	env.write(t, "composer.json", composerJSON(t, map[string]any{"url": "https://example.com", "subdirectory": "dist"}))

	out, err := execute(t, "config", "-d", env.project, "--keep-vendor")
	require.NoError(t, err)

	assert.Contains(t, out, "Package: my/package\n")
	assert.Contains(t, out, "Upload URL: https://example.com/packages/upload/my/package/1.0.0\n")
	assert.Contains(t, out, "Subdirectory: dist\n")
	assert.NotContains(t, out, "vendor/")
}

func TestConfigCommandInvalidSelector(t *testing.T) {
	env := setupEnv(t)
	env.write(t, "composer.json", composerJSON(t, map[string]any{"url": "https://example.com"}))

	_, err := execute(t, "config", "-d", env.project, "--repository", "prod")

	require.Error(t, err)
	assert.Equal(t, ExitConfigError, ExitCode(err))
}

func TestOptionalBool(t *testing.T) {
	var value *bool
	flag := newOptionalBool(&value)

	assert.Equal(t, "", flag.String())
	require.NoError(t, flag.Set("false"))
	require.NotNil(t, value)
	assert.False(t, *value)
	assert.Equal(t, "false", flag.String())
	assert.Error(t, flag.Set("maybe"))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, ExitOK, ExitCode(nil))
	assert.Equal(t, ExitFailure, ExitCode(assert.AnError))
	assert.Equal(t, ExitUploadError, ExitCode(newExitCodeError(ExitUploadError, assert.AnError)))
}
