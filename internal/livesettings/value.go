package livesettings

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

type Kind string

const (
	KindString          Kind = "string"
	KindLongString      Kind = "long_string"
	KindPassword        Kind = "password"
	KindInteger         Kind = "integer"
	KindPositiveInteger Kind = "positive_integer"
	KindDecimal         Kind = "decimal"
	KindBoolean         Kind = "boolean"
	KindMultipleString  Kind = "multiple_string"
	// KindModule selects one implementation, e.g. the tax processor.
	KindModule Kind = "module"
)

type Group struct {
	Key      string `json:"key"`
	Name     string `json:"name"`
	Ordering int    `json:"ordering"`
}

type Choice struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Requirement makes a value active only while another multiple-value
// setting contains Value.
type Requirement struct {
	Group string
	Key   string
	Value string
}

type Value struct {
	Group       string
	Key         string
	Kind        Kind
	Description string
	Help        string
	Default     any
	Choices     []Choice
	Hidden      bool
	Ordering    int
	Requires    *Requirement
	// OnUpdate runs after a successful Update with the coerced old and new values.
	OnUpdate func(old, new any)
}

func (v *Value) id() string {
	return v.Group + "." + v.Key
}

func (v *Value) hasChoice(choice string) bool {
	for _, c := range v.Choices {
		if c.Value == choice {
			return true
		}
	}
	return false
}

// coerce converts raw (a string from storage or a native value) to the Go type of the kind:
// string, int, bool, decimal.Decimal or []string.
func (v *Value) coerce(raw any) (any, error) {
	switch v.Kind {
	case KindString, KindLongString, KindPassword, KindModule:
		s, err := cast.ToStringE(raw)
		if err != nil {
			return nil, err
		}
		return s, nil
	case KindInteger:
		return cast.ToIntE(raw)
	case KindPositiveInteger:
		n, err := cast.ToIntE(raw)
		if err != nil {
			return nil, err
		}
		if n < 0 {
			return nil, fmt.Errorf("%d is negative", n)
		}
		return n, nil
	case KindBoolean:
		return cast.ToBoolE(raw)
	case KindDecimal:
		switch d := raw.(type) {
		case decimal.Decimal:
			return d, nil
		case float64:
			return decimal.NewFromFloat(d), nil
		}
		s, err := cast.ToStringE(raw)
		if err != nil {
			return nil, err
		}
		return decimal.NewFromString(strings.TrimSpace(s))
	case KindMultipleString:
		return toStrings(raw)
	default:
		return nil, fmt.Errorf("unknown kind %q", v.Kind)
	}
}

func toStrings(raw any) ([]string, error) {
	s, ok := raw.(string)
	if !ok {
		return cast.ToStringSliceE(raw)
	}

	s = strings.TrimSpace(s)
	if s == "" {
		return []string{}, nil
	}
	if strings.HasPrefix(s, "[") {
		var out []string
		if err := json.Unmarshal([]byte(s), &out); err != nil {
			return nil, err
		}
		return out, nil
	}

	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out, nil
}

func (v *Value) zero() any {
	switch v.Kind {
	case KindInteger, KindPositiveInteger:
		return 0
	case KindBoolean:
		return false
	case KindDecimal:
		return decimal.Zero
	case KindMultipleString:
		return []string{}
	default:
		return ""
	}
}

// serialize renders a coerced value for the settings table.
func serialize(value any) (string, error) {
	switch v := value.(type) {
	case []string:
		b, err := json.Marshal(v)
		return string(b), err
	case decimal.Decimal:
		return v.String(), nil
	default:
		return cast.ToStringE(v)
	}
}

// validate checks choices after coercion.
func (v *Value) validate(value any) error {
	if len(v.Choices) == 0 {
		return nil
	}
	switch val := value.(type) {
	case string:
		if !v.hasChoice(val) {
			return fmt.Errorf("%w: %q", ErrInvalidChoice, val)
		}
	case []string:
		for _, item := range val {
			if !v.hasChoice(item) {
				return fmt.Errorf("%w: %q", ErrInvalidChoice, item)
			}
		}
	}
	return nil
}
