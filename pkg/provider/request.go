package provider

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"

	"oras.land/oras-go/v2/registry/remote/auth"
)

// authorize decorates the request with the credential: a bearer header for an
// access token, basic auth for a username/password pair, nothing otherwise.
func authorize(req *http.Request, cred auth.Credential) {
	switch {
	case cred.AccessToken != "":
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", cred.AccessToken))
	case cred.Username != "" && cred.Password != "":
		req.SetBasicAuth(cred.Username, cred.Password)
	}
}

// bodyFactory builds request bodies and reports their consumption to the
// optional progress reporter.
type bodyFactory struct {
	progress Progress
	started  bool
}

// file opens path as a request body.
func (b *bodyFactory) file(path string) (io.ReadCloser, int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, 0, err
	}
	return b.track(f, info.Size()), info.Size(), nil
}

// buffer wraps an in-memory body.
func (b *bodyFactory) buffer(buf *bytes.Buffer) (io.ReadCloser, int64) {
	size := int64(buf.Len())
	return b.track(io.NopCloser(buf), size), size
}

func (b *bodyFactory) track(rc io.ReadCloser, size int64) io.ReadCloser {
	if b.progress == nil || size == 0 {
		return rc
	}
	b.progress.Start(size)
	b.started = true
	return &progressReader{ReadCloser: rc, progress: b.progress}
}

func (b *bodyFactory) finish() {
	if b.started {
		b.progress.Finish()
		b.started = false
	}
}

type progressReader struct {
	io.ReadCloser
	progress Progress
}

func (r *progressReader) Read(p []byte) (int, error) {
	n, err := r.ReadCloser.Read(p)
	if n > 0 {
		r.progress.Add(n)
	}
	return n, err
}

// newPut builds a PUT request with a body of known size.
func newPut(ctx context.Context, url string, body io.ReadCloser, size int64) (*http.Request, error) {
	if size == 0 {
		body.Close()
		body = http.NoBody
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, body)
	if err != nil {
		body.Close()
		return nil, err
	}
	req.ContentLength = size
	return req, nil
}
