package provider

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog"
	"oras.land/oras-go/v2/registry/remote/auth"
	"oras.land/oras-go/v2/registry/remote/credentials"

	"composer-push/pkg/config"
	"composer-push/pkg/utils"
)

var (
	ErrUploadFailure   = errors.New("impossible to push to remote repository")
	ErrInvalidArgument = errors.New("invalid argument")
)

// Provider uploads a package archive to a remote repository.
type Provider interface {
	// URL returns the upload URL of the package.
	URL() (string, error)
	// SendFile uploads the archive at path, negotiating credentials.
	SendFile(ctx context.Context, path string) error
}

// Configuration is the part of the resolved configuration providers read.
type Configuration interface {
	URL() (string, error)
	PackageName() string
	Version() string
	VerifySSL() bool
	String(name string) string
	OptionUsername() string
	OptionPassword() string
	AccessToken() string
	SourceType() string
	SourceURL() string
	SourceReference() string
}

// Progress receives upload progress. It is purely observational.
type Progress interface {
	Start(total int64)
	Add(n int)
	Finish()
}

// Deps are the collaborators of a provider. Client, Store and Progress are
// optional.
type Deps struct {
	Config   Configuration
	Log      zerolog.Logger
	Client   *http.Client
	Store    credentials.Store
	Progress Progress
}

// Candidate is one set of credentials tried during an upload.
type Candidate struct {
	Label      string
	Credential auth.Credential
}

const (
	LabelConfigured  = "configured"
	LabelAccessToken = "access_token"
	LabelStoredAuth  = "stored_auth"
	LabelNone        = "none"
)

// Outcome classifies a single upload attempt.
type Outcome int

const (
	Success Outcome = iota
	HTTPStatus
	TransportError
)

// Result is the outcome of a single upload attempt.
type Result struct {
	Outcome    Outcome
	StatusCode int
	Err        error
}

// backend shapes the upload request of one repository flavour.
type backend interface {
	URL() (string, error)
	newRequest(ctx context.Context, path string, body *bodyFactory) (*http.Request, error)
}

// uploader holds the credential negotiation shared by every backend.
type uploader struct {
	deps    Deps
	backend backend
}

func newUploader(deps Deps, b backend) *uploader {
	return &uploader{deps: deps, backend: b}
}

func (u *uploader) client() *http.Client {
	if u.deps.Client == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		if !u.deps.Config.VerifySSL() {
			transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
		}
		u.deps.Client = &http.Client{Transport: transport}
	}
	return u.deps.Client
}

// SendFile uploads the file. Explicit command line credentials get a single
// attempt; otherwise every candidate is tried in order until one succeeds.
func (u *uploader) SendFile(ctx context.Context, path string) error {
	log := u.deps.Log
	cfg := u.deps.Config

	if _, err := u.backend.URL(); err != nil {
		return err
	}

	if username, password := cfg.OptionUsername(), cfg.OptionPassword(); username != "" && password != "" {
		log.Debug().Str("username", username).Msg("Use credentials given on the command line")
		res := u.attempt(ctx, path, auth.Credential{Username: username, Password: password})
		if res.Outcome != Success {
			return fmt.Errorf("%w: %w", ErrUploadFailure, res.Err)
		}
		return nil
	}

	candidates, err := u.candidates(ctx)
	if err != nil {
		return err
	}

	for _, c := range candidates {
		log.Debug().Str("credentials", c.Label).Msg("Trying credentials")

		res := u.attempt(ctx, path, c.Credential)
		switch {
		case res.Outcome == Success:
			return nil
		case res.Outcome == HTTPStatus && res.StatusCode == http.StatusUnauthorized:
			if c.Label == LabelNone {
				log.Debug().Msg("Unable to push on server (authentication required)")
			} else {
				log.Debug().Str("credentials", c.Label).Msg("Unable to authenticate on server")
			}
		default:
			log.Warn().Err(res.Err).Str("credentials", c.Label).
				Msg("A network error occurred while trying to upload to the server")
		}

		if ctx.Err() != nil {
			break
		}
	}

	return fmt.Errorf("%w, use -vv to have more details", ErrUploadFailure)
}

// candidates lists the credentials to try, strongest first. The anonymous
// candidate is always last.
func (u *uploader) candidates(ctx context.Context) ([]Candidate, error) {
	cfg := u.deps.Config
	var list []Candidate

	if username, password := cfg.String(config.KeyUsername), cfg.String(config.KeyPassword); username != "" && password != "" {
		list = append(list, Candidate{
			Label:      LabelConfigured,
			Credential: auth.Credential{Username: username, Password: password},
		})
	}

	if token := cfg.AccessToken(); token != "" {
		list = append(list, Candidate{
			Label:      LabelAccessToken,
			Credential: auth.Credential{AccessToken: token},
		})
	}

	if u.deps.Store != nil {
		url, err := u.backend.URL()
		if err != nil {
			return nil, err
		}
		host := utils.ExtractHost(url)
		cred, err := u.deps.Store.Get(ctx, host)
		switch {
		case err != nil:
			u.deps.Log.Debug().Err(err).Str("host", host).Msg("Unable to read stored credentials")
		case cred != auth.EmptyCredential:
			list = append(list, Candidate{Label: LabelStoredAuth, Credential: cred})
		}
	}

	return append(list, Candidate{Label: LabelNone}), nil
}

// attempt issues one upload request with the given credential.
func (u *uploader) attempt(ctx context.Context, path string, cred auth.Credential) Result {
	body := &bodyFactory{progress: u.deps.Progress}

	req, err := u.backend.newRequest(ctx, path, body)
	if err != nil {
		return Result{Outcome: TransportError, Err: err}
	}
	authorize(req, cred)

	u.deps.Log.Trace().Str("method", req.Method).Str("url", req.URL.Redacted()).Msg("Sending request")

	resp, err := u.client().Do(req)
	body.finish()
	if err != nil {
		return Result{Outcome: TransportError, Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusBadRequest {
		return Result{
			Outcome:    HTTPStatus,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("server responded with %s", resp.Status),
		}
	}
	return Result{Outcome: Success, StatusCode: resp.StatusCode}
}
