package provider

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"oras.land/oras-go/v2/registry/remote/auth"
)

func TestComposerStore(t *testing.T) {
	store, err := NewComposerStore([]byte(`{
		"http-basic": {
			"repo.example.com": {"username": "user", "password": "secret"},
			"partial.example.com": {"username": "user"}
		},
		"bearer": {"token.example.com": "my-token"}
	}`))
	require.NoError(t, err)
	ctx := context.Background()

	cred, err := store.Get(ctx, "repo.example.com")
	require.NoError(t, err)
	assert.Equal(t, auth.Credential{Username: "user", Password: "secret"}, cred)

	cred, err = store.Get(ctx, "token.example.com")
	require.NoError(t, err)
	assert.Equal(t, auth.Credential{AccessToken: "my-token"}, cred)

	cred, err = store.Get(ctx, "partial.example.com")
	require.NoError(t, err)
	assert.Equal(t, auth.EmptyCredential, cred)

	cred, err = store.Get(ctx, "unknown.example.com")
	require.NoError(t, err)
	assert.Equal(t, auth.EmptyCredential, cred)

	assert.Error(t, store.Put(ctx, "repo.example.com", cred))
	assert.Error(t, store.Delete(ctx, "repo.example.com"))
}

func TestComposerStoreInvalid(t *testing.T) {
	_, err := NewComposerStore([]byte(`["not", "an", "object"]`))
	assert.Error(t, err)

	store, err := LoadComposerStore(filepath.Join(t.TempDir(), "missing.json"))
	require.NoError(t, err)
	cred, err := store.Get(context.Background(), "repo.example.com")
	require.NoError(t, err)
	assert.Equal(t, auth.EmptyCredential, cred)
}

func TestDefaultStorePrecedence(t *testing.T) {
	project := t.TempDir()
	home := t.TempDir()
	t.Setenv("COMPOSER_HOME", home)
	t.Setenv("DOCKER_CONFIG", t.TempDir())
	t.Setenv(AuthEnv, `{"http-basic": {"env.example.com": {"username": "env", "password": "env-pass"}}}`)

	require.NoError(t, os.WriteFile(filepath.Join(project, AuthFileName), []byte(`{
		"http-basic": {
			"env.example.com": {"username": "project", "password": "project-pass"},
			"project.example.com": {"username": "project", "password": "project-pass"}
		}
	}`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(home, AuthFileName), []byte(`{
		"http-basic": {
			"project.example.com": {"username": "home", "password": "home-pass"},
			"home.example.com": {"username": "home", "password": "home-pass"}
		}
	}`), 0o600))

	store := DefaultStore(project, zerolog.Nop())
	ctx := context.Background()

	tests := map[string]string{
		"env.example.com":     "env",
		"project.example.com": "project",
		"home.example.com":    "home",
	}
	for host, username := range tests {
		cred, err := store.Get(ctx, host)
		require.NoError(t, err, host)
		assert.Equal(t, username, cred.Username, host)
	}

	cred, err := store.Get(ctx, "unknown.example.com")
	require.NoError(t, err)
	assert.Equal(t, auth.EmptyCredential, cred)
}
