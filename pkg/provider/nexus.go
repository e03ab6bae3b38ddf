package provider

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"

	"composer-push/pkg/archive"
	"composer-push/pkg/config"
)

// Nexus uploads to the Nexus composer repository API.
type Nexus struct {
	*uploader
	config Configuration
}

func NewNexus(deps Deps) *Nexus {
	n := &Nexus{config: deps.Config}
	n.uploader = newUploader(deps, n)
	return n
}

// URL returns {base}/packages/upload/{name}/{version}.
func (n *Nexus) URL() (string, error) {
	base, version, err := baseAndVersion(n.config)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/packages/upload/%s/%s", base, n.config.PackageName(), version), nil
}

func (n *Nexus) newRequest(ctx context.Context, path string, body *bodyFactory) (*http.Request, error) {
	url, err := n.URL()
	if err != nil {
		return nil, err
	}

	srcType, srcURL, srcRef := n.config.SourceType(), n.config.SourceURL(), n.config.SourceReference()
	if srcType == "" || srcURL == "" || srcRef == "" {
		rc, size, err := body.file(path)
		if err != nil {
			return nil, err
		}
		return newPut(ctx, url, rc, size)
	}

	buf, contentType, err := multipartBody(path, map[string]string{
		"src-type": srcType,
		"src-url":  srcURL,
		"src-ref":  srcRef,
	})
	if err != nil {
		return nil, err
	}
	rc, size := body.buffer(buf)
	req, err := newPut(ctx, url, rc, size)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	return req, nil
}

// multipartBody builds a form with the archive as the package part followed by
// the source reference fields.
func multipartBody(path string, fields map[string]string) (*bytes.Buffer, string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer file.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="package"; filename=%q`, filepath.Base(path)))
	header.Set("Content-Type", archive.MediaType)
	part, err := mw.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, "", err
	}

	for _, name := range []string{"src-type", "src-url", "src-ref"} {
		if err := mw.WriteField(name, fields[name]); err != nil {
			return nil, "", err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}

// baseAndVersion returns the base URL without its trailing slash and the
// package version, both required.
func baseAndVersion(cfg Configuration) (string, string, error) {
	base, err := cfg.URL()
	if err != nil {
		return "", "", fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	version := cfg.Version()
	if version == "" {
		return "", "", fmt.Errorf("%w: %w: the version argument is required", ErrInvalidArgument, config.ErrMissingConfig)
	}
	return strings.TrimSuffix(base, "/"), version, nil
}
