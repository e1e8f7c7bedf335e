package livesettings

import (
	"fmt"

	"github.com/spf13/cast"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// LoadOverrides reads a settings file (toml, yaml or json by extension) shaped as
// group -> key -> value. Group and key names are case-insensitive.
// Values named in the file win over stored values and cannot be updated.
func (r *Registry) LoadOverrides(path string) error {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read settings file %s: %w", path, err)
	}
	return r.applyOverrides(v.AllSettings())
}

func (r *Registry) applyOverrides(settings map[string]any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for groupKey, raw := range settings {
		values, err := cast.ToStringMapE(raw)
		if err != nil {
			return fmt.Errorf("settings group %s: %w", groupKey, err)
		}
		group := normalizeKey(groupKey)
		for key, value := range values {
			id := group + "." + normalizeKey(key)
			def, ok := r.values[id]
			if !ok {
				r.logger.Warn("settings file names unknown setting", zap.String("setting", id))
				continue
			}
			coerced, err := def.coerce(value)
			if err != nil {
				return fmt.Errorf("settings file %s: %w: %v", id, ErrInvalidValue, err)
			}
			if err := def.validate(coerced); err != nil {
				return fmt.Errorf("settings file %s: %w", id, err)
			}
			r.overrides[id] = coerced
		}
	}
	return nil
}
