package config

import (
	"fmt"

	"github.com/rs/zerolog"
)

// scope is one source of push settings: the project or the global descriptor.
type scope struct {
	name  string
	block any
}

// pushBlock returns the push configuration of a descriptor. The legacy
// nexus-push key is only read when push is empty.
func pushBlock(scopeName string, d *Descriptor, log zerolog.Logger) scope {
	s := scope{name: scopeName}
	if d == nil {
		return s
	}
	if v := d.Extra[PushKey]; !isEmpty(v) {
		s.block = v
		return s
	}
	if v := d.Extra[LegacyPushKey]; !isEmpty(v) {
		log.Warn().Str("scope", scopeName).
			Msg("Configuration under extra.nexus-push is deprecated, please replace it by extra.push")
		s.block = v
	}
	return s
}

// settings selects the settings of the scope. A mapping is a single-target
// configuration and forbids a selector; a list is a multi-target configuration
// and requires one.
func (s scope) settings(selector string) (map[string]any, error) {
	switch block := s.block.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		if selector != "" {
			return nil, fmt.Errorf("%w: --repository %q given, but the %s push configuration targets a single repository",
				ErrAmbiguousRepositorySelector, selector, s.name)
		}
		return block, nil
	case []any:
		if selector == "" {
			return nil, fmt.Errorf("%w: the %s push configuration lists several repositories, use --repository",
				ErrMissingRepositorySelector, s.name)
		}
		entries := make([]map[string]any, 0, len(block))
		for i, item := range block {
			entry, ok := item.(map[string]any)
			if !ok || stringValue(entry[KeyName]) == "" {
				return nil, fmt.Errorf("%w: %s push configuration entry %d needs a value for key %q",
					ErrInvalidConfig, s.name, i, KeyName)
			}
			entries = append(entries, entry)
		}
		for _, entry := range entries {
			if stringValue(entry[KeyName]) == selector {
				return entry, nil
			}
		}
		return nil, fmt.Errorf("%w: no %s push configuration named %q", ErrNoMatchingRepository, s.name, selector)
	default:
		return nil, fmt.Errorf("%w: %s push configuration must be an object or a list of objects", ErrInvalidConfig, s.name)
	}
}

// merge combines project and global settings. Scalars from the project win,
// list settings are concatenated project first.
func merge(project, global map[string]any) map[string]any {
	out := make(map[string]any, len(project)+len(global))
	for k, v := range global {
		if v != nil {
			out[k] = v
		}
	}
	for k, v := range project {
		if v != nil {
			out[k] = v
		}
	}
	for _, k := range listKeys {
		var list []string
		list = append(list, stringList(project[k])...)
		list = append(list, stringList(global[k])...)
		if len(list) > 0 {
			out[k] = list
		} else {
			delete(out, k)
		}
	}
	return out
}
