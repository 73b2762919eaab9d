package config

import (
	"errors"
	"fmt"
)

// Recognized run-setting keys.
const (
	KeyStartPage              = "startPage"
	KeyBatchSize              = "batchSize"
	KeyResolution             = "resolution"
	KeyCompressionQuality     = "compressionQuality"
	KeyAlphaBits              = "alphaBits"
	KeyDisableColorManagement = "disableColorManagement"
	KeyDisableFontEmbedding   = "disableFontEmbedding"
	KeyDisableAnnotations     = "disableAnnotations"
)

// ErrKeyNotFound is returned when neither the user layer nor the defaults
// define a setting. Absence is distinct from a zero or false value.
var ErrKeyNotFound = errors.New("setting not found")

// Settings resolves run settings from a per-run user layer over fixed
// defaults. The user layer never mutates the defaults; both maps are copied
// at construction.
type Settings struct {
	defaults map[string]any
	user     map[string]any
}

func defaultSettings() map[string]any {
	return map[string]any{
		KeyStartPage:              0,
		KeyBatchSize:              0,
		KeyResolution:             300,
		KeyCompressionQuality:     100,
		KeyAlphaBits:              4,
		KeyDisableColorManagement: true,
		KeyDisableFontEmbedding:   true,
		KeyDisableAnnotations:     true,
	}
}

// NewSettings builds a resolver over the standard defaults. The user map may
// be nil or partial; only keys present in it shadow defaults.
func NewSettings(user map[string]any) *Settings {
	u := make(map[string]any, len(user))
	for k, v := range user {
		u[k] = v
	}
	return &Settings{defaults: defaultSettings(), user: u}
}

// Set adds or replaces a value in the user layer.
func (s *Settings) Set(key string, value any) { s.user[key] = value }

// Resolve returns the user value for key if present, else the default value,
// else ErrKeyNotFound.
func (s *Settings) Resolve(key string) (any, error) {
	if v, ok := s.user[key]; ok {
		return v, nil
	}
	if v, ok := s.defaults[key]; ok {
		return v, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrKeyNotFound, key)
}

// Int resolves key as an integer setting.
func (s *Settings) Int(key string) (int, error) {
	v, err := s.Resolve(key)
	if err != nil {
		return 0, err
	}
	n, ok := v.(int)
	if !ok {
		return 0, fmt.Errorf("setting %s: expected int, got %T", key, v)
	}
	return n, nil
}

// Bool resolves key as a boolean setting.
func (s *Settings) Bool(key string) (bool, error) {
	v, err := s.Resolve(key)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("setting %s: expected bool, got %T", key, v)
	}
	return b, nil
}

// String resolves key as a string setting.
func (s *Settings) String(key string) (string, error) {
	v, err := s.Resolve(key)
	if err != nil {
		return "", err
	}
	str, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("setting %s: expected string, got %T", key, v)
	}
	return str, nil
}
