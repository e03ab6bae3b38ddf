package provider

import (
	"context"
	_ "crypto/sha256"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/opencontainers/go-digest"
)

const defaultExtension = "zip"

// Artifactory uploads to an Artifactory composer repository.
type Artifactory struct {
	*uploader
	config Configuration
}

func NewArtifactory(deps Deps) *Artifactory {
	a := &Artifactory{config: deps.Config}
	a.uploader = newUploader(deps, a)
	return a
}

// URL returns {base}/{name}/{module}-{version}, module being the last segment
// of the package name.
func (a *Artifactory) URL() (string, error) {
	base, version, err := baseAndVersion(a.config)
	if err != nil {
		return "", err
	}
	name := a.config.PackageName()
	module := name[strings.LastIndex(name, "/")+1:]
	return fmt.Sprintf("%s/%s/%s-%s", base, name, module, version), nil
}

func (a *Artifactory) newRequest(ctx context.Context, path string, body *bodyFactory) (*http.Request, error) {
	base, err := a.URL()
	if err != nil {
		return nil, err
	}

	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		ext = defaultExtension
	}
	target := fmt.Sprintf("%s.%s?properties=composer.version=%s", base, ext, url.QueryEscape(a.config.Version()))

	checksum, err := sha256Of(path)
	if err != nil {
		return nil, err
	}

	rc, size, err := body.file(path)
	if err != nil {
		return nil, err
	}
	req, err := newPut(ctx, target, rc, size)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Checksum-Sha256", checksum.Encoded())
	return req, nil
}

func sha256Of(path string) (digest.Digest, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	return digest.SHA256.FromReader(f)
}
