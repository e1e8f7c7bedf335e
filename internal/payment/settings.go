package payment

import (
	"context"
	"fmt"
	"satchmo-store/internal/livesettings"
)

const Group = "PAYMENT"

// GroupFor is the settings group of a module, e.g. PAYMENT_DUMMY.
func GroupFor(key string) string {
	return Group + "_" + key
}

// RegisterSettings registers the PAYMENT group. Modules add themselves as choices of PAYMENT.MODULES.
func RegisterSettings(r *livesettings.Registry) error {
	r.RegisterGroup(livesettings.Group{Key: Group, Name: "Payment Settings", Ordering: 40})

	return r.Register(
		livesettings.Value{
			Group:       Group,
			Key:         "MODULES",
			Kind:        livesettings.KindMultipleString,
			Description: "Enabled payment modules",
			Default:     []string{},
		},
		livesettings.Value{
			Group:       Group,
			Key:         "MINIMUM_ORDER",
			Kind:        livesettings.KindDecimal,
			Description: "Minimum order total accepted at checkout",
			Default:     "0.00",
		},
		livesettings.Value{
			Group:       Group,
			Key:         "CCV_REQUIRED",
			Kind:        livesettings.KindBoolean,
			Description: "Require the card security code",
			Default:     true,
		},
	)
}

// RegisterModule adds a module group with the LIVE, CAPTURE, LABEL and EXTRA_LOGGING
// values shared by every module, followed by extra module specific values.
func RegisterModule(r *livesettings.Registry, key, label string, capture bool, extra ...livesettings.Value) error {
	group := GroupFor(key)
	r.RegisterGroup(livesettings.Group{Key: group, Name: label + " Payment Module Settings", Ordering: 50})

	if err := r.AddChoice(Group, "MODULES", livesettings.Choice{Value: key, Label: label}); err != nil {
		return fmt.Errorf("register payment module %s: %w", key, err)
	}

	requires := &livesettings.Requirement{Group: Group, Key: "MODULES", Value: key}
	values := []livesettings.Value{
		{
			Group:       group,
			Key:         "LIVE",
			Kind:        livesettings.KindBoolean,
			Description: "Accept real payments",
			Default:     false,
			Requires:    requires,
		},
		{
			Group:       group,
			Key:         "CAPTURE",
			Kind:        livesettings.KindBoolean,
			Description: "Capture payment immediately instead of authorizing",
			Default:     capture,
			Requires:    requires,
		},
		{
			Group:       group,
			Key:         "LABEL",
			Kind:        livesettings.KindString,
			Description: "English name for this group on the checkout screens",
			Default:     label,
			Requires:    requires,
		},
		{
			Group:       group,
			Key:         "EXTRA_LOGGING",
			Kind:        livesettings.KindBoolean,
			Description: "Log gateway requests and responses",
			Default:     false,
			Requires:    requires,
		},
	}
	for _, v := range extra {
		v.Group = group
		if v.Requires == nil {
			v.Requires = requires
		}
		values = append(values, v)
	}
	return r.Register(values...)
}

// Enabled reports whether key is listed in PAYMENT.MODULES.
func Enabled(ctx context.Context, r *livesettings.Registry, key string) (bool, error) {
	modules, err := r.Strings(ctx, Group, "MODULES")
	if err != nil {
		return false, err
	}
	for _, m := range modules {
		if m == key {
			return true, nil
		}
	}
	return false, nil
}
