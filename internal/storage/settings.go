// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
)

// SettingVerifyJSON asks the server to validate structured tool output
// before replying. It is sent with every chat request.
const SettingVerifyJSON = "verify_json"

// Settings is the user settings blob stored under KeySettings.
type Settings map[string]string

// knownSettings lists the settings with typed semantics; other keys are
// kept verbatim so newer clients can share the same state file.
var knownSettings = map[string]func(string) error{
	SettingVerifyJSON: func(v string) error {
		_, err := strconv.ParseBool(v)
		return err
	},
}

// VerifyJSON reports the verify_json setting (false when unset or invalid).
func (s Settings) VerifyJSON() bool {
	b, _ := strconv.ParseBool(s[SettingVerifyJSON])
	return b
}

// Keys returns the setting names in sorted order.
func (s Settings) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ValidateSetting checks a value against the known setting types.
func ValidateSetting(key, value string) error {
	if key == "" {
		return errors.New("setting name cannot be empty")
	}
	if check, ok := knownSettings[key]; ok {
		if err := check(value); err != nil {
			return fmt.Errorf("invalid value %q for %s: %w", value, key, err)
		}
	}
	return nil
}

// LoadSettings reads the settings blob. A missing blob yields empty settings.
func (s *LocalStore) LoadSettings(ctx context.Context) (Settings, error) {
	raw, err := s.Get(ctx, KeySettings)
	if errors.Is(err, ErrNotFound) {
		return Settings{}, nil
	}
	if err != nil {
		return nil, err
	}

	settings := Settings{}
	if err := json.Unmarshal([]byte(raw), &settings); err != nil {
		return nil, fmt.Errorf("corrupt settings blob: %w", err)
	}
	return settings, nil
}

// SaveSettings replaces the settings blob.
func (s *LocalStore) SaveSettings(ctx context.Context, settings Settings) error {
	for k, v := range settings {
		if err := ValidateSetting(k, v); err != nil {
			return err
		}
	}
	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to encode settings: %w", err)
	}
	return s.Set(ctx, KeySettings, string(data))
}

// SetSetting updates one entry of the settings blob.
func (s *LocalStore) SetSetting(ctx context.Context, key, value string) error {
	if err := ValidateSetting(key, value); err != nil {
		return err
	}
	settings, err := s.LoadSettings(ctx)
	if err != nil {
		return err
	}
	settings[key] = value
	return s.SaveSettings(ctx, settings)
}
