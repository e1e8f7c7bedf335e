// Package livesettings holds store configuration that staff edit at runtime.
// Values are registered in code; edits are stored in the database and
// an optional settings file pins values so they cannot be edited.
package livesettings

import (
	"context"
	"errors"
	"fmt"
	"satchmo-store/internal/keyedcache"
	"satchmo-store/internal/repository"
	"sort"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrSettingNotSet  = errors.New("setting not registered")
	ErrSettingLocked  = errors.New("setting is pinned by the settings file")
	ErrInvalidChoice  = errors.New("invalid choice")
	ErrInvalidValue   = errors.New("invalid setting value")
	ErrDuplicateValue = errors.New("setting already registered")
)

const cacheNamespace = "setting"

type Registry struct {
	mu        sync.RWMutex
	groups    map[string]Group
	values    map[string]*Value
	overrides map[string]any

	repo   repository.SettingRepository
	cache  *keyedcache.Cache
	logger *zap.Logger
}

func NewRegistry(repo repository.SettingRepository, cache *keyedcache.Cache, logger *zap.Logger) *Registry {
	return &Registry{
		groups:    make(map[string]Group),
		values:    make(map[string]*Value),
		overrides: make(map[string]any),
		repo:      repo,
		cache:     cache,
		logger:    logger,
	}
}

func (r *Registry) RegisterGroup(group Group) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.groups[group.Key] = group
}

// Register adds values. Registering an existing group and key fails.
func (r *Registry) Register(values ...Value) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range values {
		v := values[i]
		if _, ok := r.groups[v.Group]; !ok {
			return fmt.Errorf("register %s: group %q: %w", v.id(), v.Group, ErrSettingNotSet)
		}
		if _, ok := r.values[v.id()]; ok {
			return fmt.Errorf("register %s: %w", v.id(), ErrDuplicateValue)
		}
		if v.Default != nil {
			def, err := v.coerce(v.Default)
			if err != nil {
				return fmt.Errorf("register %s: default: %w", v.id(), err)
			}
			v.Default = def
		}
		r.values[v.id()] = &v
	}
	return nil
}

// AddChoice appends a choice to a registered value, e.g. a payment module
// announcing itself in PAYMENT.MODULES.
func (r *Registry) AddChoice(group, key string, choice Choice) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.values[group+"."+key]
	if !ok {
		return fmt.Errorf("add choice %s.%s: %w", group, key, ErrSettingNotSet)
	}
	if !v.hasChoice(choice.Value) {
		v.Choices = append(v.Choices, choice)
	}
	return nil
}

func (r *Registry) Value(group, key string) (*Value, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	v, ok := r.values[group+"."+key]
	if !ok {
		return nil, fmt.Errorf("%s.%s: %w", group, key, ErrSettingNotSet)
	}
	return v, nil
}

func (r *Registry) override(v *Value) (any, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	raw, ok := r.overrides[v.id()]
	return raw, ok
}

type storedValue struct {
	Raw   string `json:"raw"`
	Found bool   `json:"found"`
}

func (r *Registry) stored(ctx context.Context, v *Value) (storedValue, error) {
	return keyedcache.Cached(ctx, r.cache, 0, func(ctx context.Context) (storedValue, error) {
		raw, found, err := r.repo.Get(ctx, v.Group, v.Key)
		if err != nil {
			return storedValue{}, err
		}
		return storedValue{Raw: raw, Found: found}, nil
	}, cacheNamespace, v.Group, v.Key)
}

// Get resolves a value: settings file, then database, then default.
func (r *Registry) Get(ctx context.Context, group, key string) (any, error) {
	v, err := r.Value(group, key)
	if err != nil {
		return nil, err
	}

	if raw, ok := r.override(v); ok {
		return v.coerce(raw)
	}

	stored, err := r.stored(ctx, v)
	if err != nil {
		return nil, fmt.Errorf("load setting %s: %w", v.id(), err)
	}
	if stored.Found {
		value, err := v.coerce(stored.Raw)
		if err == nil {
			return value, nil
		}
		r.logger.Warn("stored setting does not coerce, using default",
			zap.String("setting", v.id()),
			zap.Error(err))
	}

	if v.Default == nil {
		return v.zero(), nil
	}
	return v.Default, nil
}

func (r *Registry) String(ctx context.Context, group, key string) (string, error) {
	value, err := r.Get(ctx, group, key)
	if err != nil {
		return "", err
	}
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("%s.%s is not a string setting", group, key)
	}
	return s, nil
}

func (r *Registry) Int(ctx context.Context, group, key string) (int, error) {
	value, err := r.Get(ctx, group, key)
	if err != nil {
		return 0, err
	}
	n, ok := value.(int)
	if !ok {
		return 0, fmt.Errorf("%s.%s is not an integer setting", group, key)
	}
	return n, nil
}

func (r *Registry) Bool(ctx context.Context, group, key string) (bool, error) {
	value, err := r.Get(ctx, group, key)
	if err != nil {
		return false, err
	}
	b, ok := value.(bool)
	if !ok {
		return false, fmt.Errorf("%s.%s is not a boolean setting", group, key)
	}
	return b, nil
}

func (r *Registry) Decimal(ctx context.Context, group, key string) (decimal.Decimal, error) {
	value, err := r.Get(ctx, group, key)
	if err != nil {
		return decimal.Zero, err
	}
	d, ok := value.(decimal.Decimal)
	if !ok {
		return decimal.Zero, fmt.Errorf("%s.%s is not a decimal setting", group, key)
	}
	return d, nil
}

func (r *Registry) Strings(ctx context.Context, group, key string) ([]string, error) {
	value, err := r.Get(ctx, group, key)
	if err != nil {
		return nil, err
	}
	s, ok := value.([]string)
	if !ok {
		return nil, fmt.Errorf("%s.%s is not a multiple value setting", group, key)
	}
	return s, nil
}

// Update validates and stores raw, then invalidates the cached value.
func (r *Registry) Update(ctx context.Context, group, key string, raw any) error {
	v, err := r.Value(group, key)
	if err != nil {
		return err
	}
	if _, locked := r.override(v); locked {
		return fmt.Errorf("update %s: %w", v.id(), ErrSettingLocked)
	}

	value, err := v.coerce(raw)
	if err != nil {
		return fmt.Errorf("update %s: %w: %v", v.id(), ErrInvalidValue, err)
	}
	if err := v.validate(value); err != nil {
		return fmt.Errorf("update %s: %w", v.id(), err)
	}

	old, err := r.Get(ctx, group, key)
	if err != nil {
		return err
	}

	serialized, err := serialize(value)
	if err != nil {
		return fmt.Errorf("update %s: %w", v.id(), err)
	}
	if err := r.repo.Set(ctx, v.Group, v.Key, serialized); err != nil {
		return fmt.Errorf("store setting %s: %w", v.id(), err)
	}
	if _, err := r.cache.Delete(ctx, cacheNamespace, v.Group, v.Key); err != nil {
		r.logger.Warn("invalidate setting cache", zap.String("setting", v.id()), zap.Error(err))
	}

	r.logger.Info("setting updated", zap.String("setting", v.id()))
	if v.OnUpdate != nil {
		v.OnUpdate(old, value)
	}
	return nil
}

// Reset removes the stored value so the default applies again.
func (r *Registry) Reset(ctx context.Context, group, key string) error {
	v, err := r.Value(group, key)
	if err != nil {
		return err
	}
	if err := r.repo.Delete(ctx, v.Group, v.Key); err != nil {
		return fmt.Errorf("reset setting %s: %w", v.id(), err)
	}
	_, err = r.cache.Delete(ctx, cacheNamespace, v.Group, v.Key)
	return err
}

// Active reports whether the value's requirement, if any, is met.
func (r *Registry) Active(ctx context.Context, group, key string) (bool, error) {
	v, err := r.Value(group, key)
	if err != nil {
		return false, err
	}
	if v.Requires == nil {
		return true, nil
	}
	enabled, err := r.Strings(ctx, v.Requires.Group, v.Requires.Key)
	if err != nil {
		return false, err
	}
	for _, e := range enabled {
		if e == v.Requires.Value {
			return true, nil
		}
	}
	return false, nil
}

// ChoiceValues returns the selected choices of a multiple value setting with their labels.
func (r *Registry) ChoiceValues(ctx context.Context, group, key string) ([]Choice, error) {
	v, err := r.Value(group, key)
	if err != nil {
		return nil, err
	}
	selected, err := r.Strings(ctx, group, key)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Choice, 0, len(selected))
	for _, s := range selected {
		label := s
		for _, c := range v.Choices {
			if c.Value == s {
				label = c.Label
				break
			}
		}
		out = append(out, Choice{Value: s, Label: label})
	}
	return out, nil
}

func (r *Registry) Groups() []Group {
	r.mu.RLock()
	defer r.mu.RUnlock()

	groups := make([]Group, 0, len(r.groups))
	for _, g := range r.groups {
		groups = append(groups, g)
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Ordering != groups[j].Ordering {
			return groups[i].Ordering < groups[j].Ordering
		}
		return groups[i].Key < groups[j].Key
	})
	return groups
}

// Setting is the presentation of one value with its current state.
type Setting struct {
	Group       string   `json:"group"`
	Key         string   `json:"key"`
	Kind        Kind     `json:"kind"`
	Description string   `json:"description"`
	Help        string   `json:"help,omitempty"`
	Value       any      `json:"value"`
	Default     any      `json:"default,omitempty"`
	Choices     []Choice `json:"choices,omitempty"`
	Locked      bool     `json:"locked"`
	Active      bool     `json:"active"`
}

const maskedPassword = "********"

// GroupValues lists the visible values of a group in registration order.
func (r *Registry) GroupValues(ctx context.Context, group string) ([]Setting, error) {
	r.mu.RLock()
	if _, ok := r.groups[group]; !ok {
		r.mu.RUnlock()
		return nil, fmt.Errorf("group %s: %w", group, ErrSettingNotSet)
	}
	var values []*Value
	for _, v := range r.values {
		if v.Group == group && !v.Hidden {
			values = append(values, v)
		}
	}
	r.mu.RUnlock()

	sort.Slice(values, func(i, j int) bool {
		if values[i].Ordering != values[j].Ordering {
			return values[i].Ordering < values[j].Ordering
		}
		return values[i].Key < values[j].Key
	})

	out := make([]Setting, 0, len(values))
	for _, v := range values {
		current, err := r.Get(ctx, v.Group, v.Key)
		if err != nil {
			return nil, err
		}
		active, err := r.Active(ctx, v.Group, v.Key)
		if err != nil {
			return nil, err
		}
		_, locked := r.override(v)

		s := Setting{
			Group:       v.Group,
			Key:         v.Key,
			Kind:        v.Kind,
			Description: v.Description,
			Help:        v.Help,
			Value:       current,
			Default:     v.Default,
			Choices:     v.Choices,
			Locked:      locked,
			Active:      active,
		}
		if v.Kind == KindPassword {
			if str, _ := current.(string); str != "" {
				s.Value = maskedPassword
			}
			s.Default = nil
		}
		out = append(out, s)
	}
	return out, nil
}

func normalizeKey(key string) string {
	return strings.ToUpper(strings.TrimSpace(key))
}
