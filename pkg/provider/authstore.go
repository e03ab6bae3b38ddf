package provider

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/tidwall/gjson"
	"oras.land/oras-go/v2/registry/remote/auth"
	"oras.land/oras-go/v2/registry/remote/credentials"

	"composer-push/pkg/utils"
)

const (
	AuthFileName = "auth.json"
	AuthEnv      = "COMPOSER_AUTH"
)

var errReadOnlyStore = errors.New("composer auth store is read-only")

// ComposerStore serves the http-basic and bearer sections of a composer
// auth.json document, keyed by host.
type ComposerStore struct {
	basic  map[string]auth.Credential
	bearer map[string]string
}

var _ credentials.Store = (*ComposerStore)(nil)

// NewComposerStore parses an auth.json document. Empty input gives an empty
// store.
func NewComposerStore(data []byte) (*ComposerStore, error) {
	s := &ComposerStore{
		basic:  map[string]auth.Credential{},
		bearer: map[string]string{},
	}
	if len(data) == 0 {
		return s, nil
	}
	if !gjson.ValidBytes(data) || !gjson.ParseBytes(data).IsObject() {
		return nil, errors.New("auth data must be a JSON object")
	}

	doc := gjson.ParseBytes(data)
	doc.Get("http-basic").ForEach(func(host, value gjson.Result) bool {
		s.basic[host.String()] = auth.Credential{
			Username: value.Get("username").String(),
			Password: value.Get("password").String(),
		}
		return true
	})
	doc.Get("bearer").ForEach(func(host, value gjson.Result) bool {
		s.bearer[host.String()] = value.String()
		return true
	})
	return s, nil
}

// LoadComposerStore reads an auth.json file. A missing file gives an empty
// store.
func LoadComposerStore(path string) (*ComposerStore, error) {
	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	store, err := NewComposerStore(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return store, nil
}

// Get returns the credential of the host, auth.EmptyCredential if none.
func (s *ComposerStore) Get(_ context.Context, serverAddress string) (auth.Credential, error) {
	if cred, ok := s.basic[serverAddress]; ok && cred.Username != "" && cred.Password != "" {
		return cred, nil
	}
	if token := s.bearer[serverAddress]; token != "" {
		return auth.Credential{AccessToken: token}, nil
	}
	return auth.EmptyCredential, nil
}

func (s *ComposerStore) Put(context.Context, string, auth.Credential) error {
	return errReadOnlyStore
}

func (s *ComposerStore) Delete(context.Context, string) error {
	return errReadOnlyStore
}

// DefaultStore chains the stored credential sources by precedence: the
// COMPOSER_AUTH environment variable, the project auth.json, the user
// auth.json, then the Docker credential store. Unreadable sources are skipped.
func DefaultStore(workingDir string, log zerolog.Logger) credentials.Store {
	var stores []credentials.Store

	if env := os.Getenv(AuthEnv); env != "" {
		if store, err := NewComposerStore([]byte(env)); err != nil {
			log.Warn().Err(err).Msgf("Ignoring invalid %s", AuthEnv)
		} else {
			stores = append(stores, store)
		}
	}

	paths := []string{filepath.Join(workingDir, AuthFileName)}
	if home := utils.ComposerHome(); home != "" {
		paths = append(paths, filepath.Join(home, AuthFileName))
	}
	for _, path := range paths {
		store, err := LoadComposerStore(path)
		if err != nil {
			log.Warn().Err(err).Msg("Ignoring unreadable auth file")
			continue
		}
		stores = append(stores, store)
	}

	if docker, err := credentials.NewStoreFromDocker(credentials.StoreOptions{}); err != nil {
		log.Debug().Err(err).Msg("Docker credential store unavailable")
	} else {
		stores = append(stores, docker)
	}

	if len(stores) == 0 {
		empty, _ := NewComposerStore(nil)
		return empty
	}
	return credentials.NewStoreWithFallbacks(stores[0], stores[1:]...)
}
