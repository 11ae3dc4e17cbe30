package repoconfig

import (
	"fmt"

	"deployer/internal/deployerr"
)

type fieldState int

const (
	fieldMissing fieldState = iota
	fieldWrongType
	fieldValue
)

// field is the outcome of looking up one key of a section.
type field[T any] struct {
	state fieldState
	value T
}

// table is a parsed TOML table.
type table = map[string]any

// lookup reads key from section as a T. Values are returned unmodified.
func lookup[T any](section table, key string) field[T] {
	raw, ok := section[key]
	if !ok {
		return field[T]{state: fieldMissing}
	}
	v, ok := raw.(T)
	if !ok {
		return field[T]{state: fieldWrongType}
	}
	return field[T]{state: fieldValue, value: v}
}

// keyRef names a key for error attribution.
type keyRef struct {
	// path is the fully qualified key, e.g. "branch.staging.task".
	path string
	// typeDesc describes a wrong-typed value of the key.
	typeDesc string
}

func defaultsKey(key string) keyRef {
	return keyRef{
		path:     "defaults." + key,
		typeDesc: fmt.Sprintf("could not read 'defaults.%s' as string", key),
	}
}

func branchKey(branch, key string) keyRef {
	return keyRef{
		path:     fmt.Sprintf("branch.%s.%s", branch, key),
		typeDesc: fmt.Sprintf("branch '%s' not a string", key),
	}
}

// lookupString looks up ref's key in section. ok is false when the key is
// absent; a present non-string value is a type error on ref.
func lookupString(section table, key string, ref keyRef) (value string, ok bool, err error) {
	f := lookup[string](section, key)
	switch f.state {
	case fieldMissing:
		return "", false, nil
	case fieldWrongType:
		return "", false, deployerr.New(deployerr.KindType, ref.typeDesc, ref.path)
	default:
		return f.value, true, nil
	}
}

// lookupMethod resolves the method key, using fallback when it is absent.
func lookupMethod(section table, ref keyRef, fallback DeployMethod) (DeployMethod, error) {
	s, ok, err := lookupString(section, "method", ref)
	if err != nil {
		return fallback, err
	}
	if !ok {
		return fallback, nil
	}
	method, valid := ParseDeployMethod(s)
	if !valid {
		return fallback, deployerr.New(deployerr.KindValue,
			"invalid type, valid values are 'ansible' and 'makefile'", ref.path)
	}
	return method, nil
}
