package config

import (
	"reflect"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/c2h5oh/datasize"
	"github.com/glorpus-work/gccfetch/pkg/errors"
)

// SetValue sets a setting by its YAML key, parsing value for the setting's type.
// Durations use Go syntax ("30s"), sizes use datasize syntax ("250MB").
func (c *Config) SetValue(key, value string) error {
	field, ok := settingField(&c.Settings, key)
	if !ok {
		return errors.Wrapf(errors.ErrUnknownSetting, "%s", key)
	}

	invalid := func(err error) error {
		return errors.Wrapf(errors.ErrConfigValidation, "invalid value %q for %s: %v", value, key, err)
	}

	switch field.Interface().(type) {
	case string:
		field.SetString(value)
	case bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return invalid(err)
		}
		field.SetBool(b)
	case int:
		n, err := strconv.Atoi(value)
		if err != nil {
			return invalid(err)
		}
		field.SetInt(int64(n))
	case time.Duration:
		d, err := time.ParseDuration(value)
		if err != nil {
			return invalid(err)
		}
		field.SetInt(int64(d))
	case datasize.ByteSize:
		var size datasize.ByteSize
		if err := size.UnmarshalText([]byte(value)); err != nil {
			return invalid(err)
		}
		field.SetUint(uint64(size))
	}
	return validateSettings(c.Settings)
}

// GetValue returns a setting by its YAML key, formatted the way SetValue accepts it.
func (c *Config) GetValue(key string) (string, error) {
	field, ok := settingField(&c.Settings, key)
	if !ok {
		return "", errors.Wrapf(errors.ErrUnknownSetting, "%s", key)
	}
	return formatValue(field), nil
}

// Keys returns every setting key in sorted order.
func Keys() []string {
	t := reflect.TypeOf(Settings{})
	keys := make([]string, 0, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		keys = append(keys, yamlKey(t.Field(i)))
	}
	sort.Strings(keys)
	return keys
}

// ToMap returns every setting keyed by its YAML name. The token is masked.
func (c *Config) ToMap() map[string]string {
	result := make(map[string]string)

	settingsValue := reflect.ValueOf(c.Settings)
	settingsType := settingsValue.Type()
	for i := 0; i < settingsValue.NumField(); i++ {
		key := yamlKey(settingsType.Field(i))
		result[key] = formatValue(settingsValue.Field(i))
	}
	if result["github_token"] != "" {
		result["github_token"] = "********"
	}
	return result
}

func settingField(s *Settings, key string) (reflect.Value, bool) {
	v := reflect.ValueOf(s).Elem()
	t := v.Type()
	for i := 0; i < t.NumField(); i++ {
		if yamlKey(t.Field(i)) == key {
			return v.Field(i), true
		}
	}
	return reflect.Value{}, false
}

// yamlKey strips options such as omitempty from a field's yaml tag.
func yamlKey(field reflect.StructField) string {
	return strings.Split(field.Tag.Get("yaml"), ",")[0]
}

func formatValue(v reflect.Value) string {
	switch val := v.Interface().(type) {
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case time.Duration:
		return val.String()
	case datasize.ByteSize:
		return val.String()
	default:
		return ""
	}
}
