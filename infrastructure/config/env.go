package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	domainconfig "github.com/dokkiitech/LinkDeck-sub000/domain/config"
)

// envPattern matches ${VAR}, ${VAR:-default} and ${VAR:?message}.
// Bare $VAR is left alone so rego and shell snippets survive loading.
var envPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::([-?])([^}]*))?\}`)

// envExpander substitutes environment references in configuration text.
type envExpander struct {
	strict  bool
	lookup  func(string) (string, bool)
	missing []string
}

func newEnvExpander(strict bool) *envExpander {
	return &envExpander{strict: strict, lookup: os.LookupEnv}
}

// Expand replaces every reference in input.
//
// An unset ${VAR} expands to the empty string, or fails in strict mode.
// ${VAR:-default} falls back to default when VAR is unset or empty.
// ${VAR:?message} always fails when VAR is unset or empty.
func (e *envExpander) Expand(input string) (string, error) {
	e.missing = nil

	out := envPattern.ReplaceAllStringFunc(input, func(match string) string {
		m := envPattern.FindStringSubmatch(match)
		name, op, arg := m[1], m[2], m[3]
		value, ok := e.lookup(name)

		switch op {
		case "-":
			if !ok || value == "" {
				return arg
			}
		case "?":
			if !ok || value == "" {
				e.missing = append(e.missing, fmt.Sprintf("%s (%s)", name, arg))
				return match
			}
		default:
			if !ok {
				if e.strict {
					e.missing = append(e.missing, name)
				}
				return ""
			}
		}
		return value
	})

	if len(e.missing) > 0 {
		return "", fmt.Errorf("%w: %s", domainconfig.ErrMissingEnvVar, strings.Join(e.missing, ", "))
	}
	return out, nil
}

// ExpandEnv expands references leniently; unset variables become empty.
func ExpandEnv(input string) string {
	out, err := newEnvExpander(false).Expand(input)
	if err != nil {
		return input
	}
	return out
}

// ExpandEnvStrict expands references and reports every unset variable.
func ExpandEnvStrict(input string) (string, error) {
	return newEnvExpander(true).Expand(input)
}
