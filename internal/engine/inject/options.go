package inject

import (
	"fmt"
	"sort"

	"autoinject/internal/core/errors"
)

// Callback observes each newly synthesized import together with every import
// created so far in the same file, in creation order.
type Callback func(imports []PendingImport, target Target)

// Options configures a Transformer.
type Options struct {
	Bindings   map[string]Target
	Include    []string
	Exclude    []string
	Root       string
	Extensions []string
	// SourceMap defaults to true when nil.
	SourceMap *bool
	Callback  Callback
}

func (o Options) sourceMapEnabled() bool {
	return o.SourceMap == nil || *o.SourceMap
}

var reservedOptionKeys = map[string]bool{
	"include":   true,
	"exclude":   true,
	"sourceMap": true,
	"callback":  true,
}

// ParseOptions reads the loosely typed option table used by configuration
// files and the HTTP API. Every key that is not reserved is a binding whose
// value is a module string or a [module, export] pair.
func ParseOptions(raw map[string]any) (Options, error) {
	opts := Options{Bindings: make(map[string]Target)}

	var err error
	if opts.Include, err = stringList(raw["include"]); err != nil {
		return Options{}, optionError("include", err)
	}
	if opts.Exclude, err = stringList(raw["exclude"]); err != nil {
		return Options{}, optionError("exclude", err)
	}
	if v, ok := raw["sourceMap"]; ok && v != nil {
		b, ok := v.(bool)
		if !ok {
			return Options{}, optionError("sourceMap", fmt.Errorf("expected bool, got %T", v))
		}
		opts.SourceMap = &b
	}
	if v, ok := raw["callback"]; ok && v != nil {
		cb, ok := v.(Callback)
		if !ok {
			fn, isFunc := v.(func([]PendingImport, Target))
			if !isFunc {
				return Options{}, optionError("callback", fmt.Errorf("expected callback, got %T", v))
			}
			cb = fn
		}
		opts.Callback = cb
	}

	keys := make([]string, 0, len(raw))
	for key := range raw {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if reservedOptionKeys[key] {
			continue
		}
		target, err := ParseTarget(raw[key])
		if err != nil {
			return Options{}, optionError(key, err)
		}
		opts.Bindings[key] = target
	}
	return opts, nil
}

// ParseTarget accepts "module" (default export) or [module, export].
func ParseTarget(v any) (Target, error) {
	switch t := v.(type) {
	case string:
		if t == "" {
			return Target{}, fmt.Errorf("empty module")
		}
		return Target{Module: t, Export: ExportDefault}, nil
	case Target:
		return t, nil
	case []string:
		return pairTarget(t)
	case []any:
		pair := make([]string, 0, len(t))
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				return Target{}, fmt.Errorf("expected string in target pair, got %T", item)
			}
			pair = append(pair, s)
		}
		return pairTarget(pair)
	}
	return Target{}, fmt.Errorf("expected module string or [module, export], got %T", v)
}

func pairTarget(pair []string) (Target, error) {
	if len(pair) != 2 {
		return Target{}, fmt.Errorf("expected [module, export], got %d elements", len(pair))
	}
	if pair[0] == "" || pair[1] == "" {
		return Target{}, fmt.Errorf("empty module or export in target pair")
	}
	return Target{Module: pair[0], Export: pair[1]}, nil
}

func stringList(v any) ([]string, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case string:
		return []string{t}, nil
	case []string:
		return append([]string(nil), t...), nil
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("expected string pattern, got %T", item)
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, fmt.Errorf("expected pattern or pattern list, got %T", v)
}

func optionError(key string, err error) error {
	return errors.AddContext(
		errors.Wrap(err, errors.CodeValidationError, "invalid inject option"),
		errors.CtxKey, key,
	)
}
