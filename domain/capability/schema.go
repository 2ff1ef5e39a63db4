package capability

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"sort"
	"strings"
	"unicode/utf8"
)

// Rule validates a single parameter value.
type Rule interface {
	// Name returns the rule name.
	Name() string

	// Validate validates a value against the rule.
	Validate(value any) error
}

// Schema is the parameter-validation schema of a tool.
// A nil *Schema accepts any parameters.
type Schema struct {
	rules map[string][]Rule
}

// NewSchema creates an empty schema.
func NewSchema() *Schema {
	return &Schema{rules: make(map[string][]Rule)}
}

// Field adds rules for a parameter.
func (s *Schema) Field(name string, rules ...Rule) *Schema {
	s.rules[name] = append(s.rules[name], rules...)
	return s
}

// Fields returns the parameter names with rules, sorted.
func (s *Schema) Fields() []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.rules))
	for name := range s.rules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks params against every rule.
func (s *Schema) Validate(params map[string]any) error {
	if s == nil {
		return nil
	}

	var errs []string
	for _, field := range s.Fields() {
		value, exists := params[field]
		for _, rule := range s.rules[field] {
			// Only the required rule applies to missing fields.
			if !exists {
				if _, ok := rule.(*requiredRule); ok {
					errs = append(errs, fmt.Sprintf("%s: %s", field, rule.Validate(nil)))
				}
				continue
			}
			if err := rule.Validate(value); err != nil {
				errs = append(errs, fmt.Sprintf("%s: %s", field, err))
			}
		}
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

type requiredRule struct{}

func (r *requiredRule) Name() string { return "required" }

func (r *requiredRule) Validate(value any) error {
	if value == nil {
		return errors.New("field is required")
	}
	if str, ok := value.(string); ok && str == "" {
		return errors.New("field cannot be empty")
	}
	return nil
}

// Required rejects missing, nil and empty-string values.
func Required() Rule {
	return &requiredRule{}
}

// Type names accepted by TypeOf.
const (
	TypeString  = "string"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
	TypeObject  = "object"
	TypeArray   = "array"
)

type typeRule struct {
	want string
}

func (r *typeRule) Name() string { return "type" }

func (r *typeRule) Validate(value any) error {
	var got string
	switch value.(type) {
	case string:
		got = TypeString
	case float64, float32, int, int64, int32:
		got = TypeNumber
	case bool:
		got = TypeBoolean
	case map[string]any:
		got = TypeObject
	case []any, []string:
		got = TypeArray
	default:
		got = fmt.Sprintf("%T", value)
	}
	if got != r.want {
		return fmt.Errorf("must be %s, got %s", r.want, got)
	}
	return nil
}

// TypeOf checks the JSON type of a value.
func TypeOf(t string) Rule {
	return &typeRule{want: t}
}

type maxLengthRule struct {
	max int
}

func (r *maxLengthRule) Name() string { return "max_length" }

func (r *maxLengthRule) Validate(value any) error {
	str, ok := value.(string)
	if !ok {
		return nil
	}
	if utf8.RuneCountInString(str) > r.max {
		return fmt.Errorf("exceeds maximum length of %d", r.max)
	}
	return nil
}

// MaxLength limits string length in runes.
func MaxLength(max int) Rule {
	return &maxLengthRule{max: max}
}

type patternRule struct {
	pattern *regexp.Regexp
}

func (r *patternRule) Name() string { return "pattern" }

func (r *patternRule) Validate(value any) error {
	str, ok := value.(string)
	if !ok {
		return nil
	}
	if !r.pattern.MatchString(str) {
		return fmt.Errorf("does not match pattern %s", r.pattern)
	}
	return nil
}

// Pattern requires strings to match a regular expression.
func Pattern(pattern string) Rule {
	return &patternRule{pattern: regexp.MustCompile(pattern)}
}

type oneOfRule struct {
	values []string
}

func (r *oneOfRule) Name() string { return "one_of" }

func (r *oneOfRule) Validate(value any) error {
	str, ok := value.(string)
	if !ok {
		return nil
	}
	if !slices.Contains(r.values, str) {
		return fmt.Errorf("must be one of: %s", strings.Join(r.values, ", "))
	}
	return nil
}

// OneOf restricts strings to an enumeration.
func OneOf(values ...string) Rule {
	return &oneOfRule{values: values}
}
