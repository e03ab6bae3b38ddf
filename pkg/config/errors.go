package config

import "errors"

var (
	ErrMissingConfig               = errors.New("missing configuration")
	ErrAmbiguousRepositorySelector = errors.New("repository selector given but no multi-repository push configuration exists")
	ErrMissingRepositorySelector   = errors.New("multi-repository push configuration requires a repository selector")
	ErrNoMatchingRepository        = errors.New("repository selector matches no push configuration")
	ErrInvalidConfig               = errors.New("invalid push configuration")
	ErrIncompleteSourceReference   = errors.New("incomplete source reference")
)
