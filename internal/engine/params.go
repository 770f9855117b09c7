// params.go: statically declared parameter schemas for component types and
// the snapshot type components read their configuration through.
package engine

import (
	"fmt"
	"strings"

	"github.com/spf13/cast"

	"github.com/jlammi/framix/internal/errors"
)

// ParamKind is the declared type of a component parameter.
type ParamKind int

const (
	KindInt ParamKind = iota
	KindFloat
	KindBool
	KindString
	KindEnum
)

func (k ParamKind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindEnum:
		return "enum"
	default:
		return "unknown"
	}
}

// ParamSpec declares one parameter of a component type: its name, kind,
// default value and valid range or choices. Every parameter a component
// reads must be declared; undeclared names are configuration errors.
type ParamSpec struct {
	Name    string
	Kind    ParamKind
	Default any
	Min     float64 // inclusive lower bound when Bounded
	Max     float64 // inclusive upper bound when Bounded
	Bounded bool
	Choices []string // valid values for KindEnum
	Help    string
}

// Schema is the ordered parameter declaration list of a component type.
type Schema []ParamSpec

// IntParam declares an unbounded integer parameter.
func IntParam(name string, def int, help string) ParamSpec {
	return ParamSpec{Name: name, Kind: KindInt, Default: def, Help: help}
}

// IntRange declares an integer parameter with an inclusive valid range.
func IntRange(name string, def, minVal, maxVal int, help string) ParamSpec {
	return ParamSpec{
		Name: name, Kind: KindInt, Default: def,
		Min: float64(minVal), Max: float64(maxVal), Bounded: true,
		Help: help,
	}
}

// FloatParam declares an unbounded float parameter.
func FloatParam(name string, def float64, help string) ParamSpec {
	return ParamSpec{Name: name, Kind: KindFloat, Default: def, Help: help}
}

// FloatRange declares a float parameter with an inclusive valid range.
func FloatRange(name string, def, minVal, maxVal float64, help string) ParamSpec {
	return ParamSpec{
		Name: name, Kind: KindFloat, Default: def,
		Min: minVal, Max: maxVal, Bounded: true,
		Help: help,
	}
}

// BoolParam declares a boolean parameter.
func BoolParam(name string, def bool, help string) ParamSpec {
	return ParamSpec{Name: name, Kind: KindBool, Default: def, Help: help}
}

// StringParam declares a free-text parameter.
func StringParam(name, def, help string) ParamSpec {
	return ParamSpec{Name: name, Kind: KindString, Default: def, Help: help}
}

// EnumParam declares a parameter restricted to a fixed set of choices.
func EnumParam(name, def string, choices []string, help string) ParamSpec {
	return ParamSpec{Name: name, Kind: KindEnum, Default: def, Choices: choices, Help: help}
}

// Find returns the spec for name, or nil if undeclared.
func (s Schema) Find(name string) *ParamSpec {
	for i := range s {
		if s[i].Name == name {
			return &s[i]
		}
	}
	return nil
}

// Defaults returns a value map with every parameter at its default.
func (s Schema) Defaults() map[string]any {
	values := make(map[string]any, len(s))
	for i := range s {
		values[s[i].Name] = s[i].Default
	}
	return values
}

// Coerce converts value to the canonical Go type of the parameter and
// checks it against the declared range or choices. Canonical types are int,
// float64, bool and string, so Snapshot accessors are plain assertions.
func (p *ParamSpec) Coerce(value any) (any, error) {
	switch p.Kind {
	case KindInt:
		v, err := cast.ToIntE(value)
		if err != nil {
			return nil, paramError(p.Name, "not an integer: %v", value)
		}
		if p.Bounded && (float64(v) < p.Min || float64(v) > p.Max) {
			return nil, paramError(p.Name, "%d outside valid range [%g, %g]", v, p.Min, p.Max)
		}
		return v, nil
	case KindFloat:
		v, err := cast.ToFloat64E(value)
		if err != nil {
			return nil, paramError(p.Name, "not a number: %v", value)
		}
		if p.Bounded && (v < p.Min || v > p.Max) {
			return nil, paramError(p.Name, "%g outside valid range [%g, %g]", v, p.Min, p.Max)
		}
		return v, nil
	case KindBool:
		v, err := cast.ToBoolE(value)
		if err != nil {
			return nil, paramError(p.Name, "not a boolean: %v", value)
		}
		return v, nil
	case KindString:
		v, err := cast.ToStringE(value)
		if err != nil {
			return nil, paramError(p.Name, "not a string: %v", value)
		}
		return v, nil
	case KindEnum:
		v, err := cast.ToStringE(value)
		if err != nil {
			return nil, paramError(p.Name, "not a string: %v", value)
		}
		for _, choice := range p.Choices {
			if v == choice {
				return v, nil
			}
		}
		return nil, paramError(p.Name, "%q is not one of %s", v, strings.Join(p.Choices, ", "))
	default:
		return nil, paramError(p.Name, "unknown parameter kind %d", p.Kind)
	}
}

// CoerceAll validates and canonicalizes a value map against the schema,
// collecting every violation rather than stopping at the first. Undeclared
// names are violations.
func (s Schema) CoerceAll(values map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(values))
	var errs []error
	for name, value := range values {
		spec := s.Find(name)
		if spec == nil {
			errs = append(errs, paramError(name, "unknown parameter"))
			continue
		}
		coerced, err := spec.Coerce(value)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out[name] = coerced
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

func paramError(name, format string, args ...any) error {
	return errors.Newf("parameter %q: %s", name, fmt.Sprintf(format, args...)).
		Component("engine").
		Category(errors.CategoryConfiguration).
		Build()
}

// Snapshot is an immutable point-in-time view of a component's parameters.
// Values are canonicalized by the schema, so the typed accessors never fail
// for declared parameters.
type Snapshot map[string]any

// Int returns the integer parameter name, or 0 if absent.
func (s Snapshot) Int(name string) int {
	v, _ := s[name].(int)
	return v
}

// Float returns the float parameter name, or 0 if absent.
func (s Snapshot) Float(name string) float64 {
	v, _ := s[name].(float64)
	return v
}

// Bool returns the boolean parameter name, or false if absent.
func (s Snapshot) Bool(name string) bool {
	v, _ := s[name].(bool)
	return v
}

// String returns the string parameter name, or "" if absent.
func (s Snapshot) String(name string) string {
	v, _ := s[name].(string)
	return v
}
