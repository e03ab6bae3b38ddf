package provider

import (
	"fmt"
	"slices"
	"strings"

	"composer-push/pkg/config"
)

var constructors = map[string]func(Deps) Provider{
	"nexus":       func(d Deps) Provider { return NewNexus(d) },
	"artifactory": func(d Deps) Provider { return NewArtifactory(d) },
	"jfrog":       func(d Deps) Provider { return NewArtifactory(d) },
}

// Types returns the known repository types.
func Types() []string {
	types := make([]string, 0, len(constructors))
	for t := range constructors {
		types = append(types, t)
	}
	slices.Sort(types)
	return types
}

// New returns the provider for the repository type.
func New(typ string, deps Deps) (Provider, error) {
	constructor, ok := constructors[strings.ToLower(strings.TrimSpace(typ))]
	if !ok {
		return nil, fmt.Errorf("%w: unknown repository type %q, expected one of %s",
			config.ErrInvalidConfig, typ, strings.Join(Types(), ", "))
	}
	return constructor(deps), nil
}
