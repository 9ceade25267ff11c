package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// PlatformList represents a PostgreSQL text[] column holding platform names.
type PlatformList []Platform

// Scan implements the sql.Scanner interface
func (l *PlatformList) Scan(value interface{}) error {
	if value == nil {
		*l = PlatformList{}
		return nil
	}

	switch v := value.(type) {
	case string:
		// Handle PostgreSQL array format: {value1,value2,value3}
		trimmed := strings.Trim(v, "{}")
		if trimmed == "" {
			*l = PlatformList{}
			return nil
		}

		parts := strings.Split(trimmed, ",")
		result := make([]Platform, len(parts))
		for i, part := range parts {
			result[i] = Platform(strings.Trim(strings.TrimSpace(part), "\""))
		}
		*l = result
		return nil
	case []byte:
		// Try to parse as JSON first
		var arr []Platform
		if err := json.Unmarshal(v, &arr); err == nil {
			*l = arr
			return nil
		}
		// Fallback to string parsing
		return l.Scan(string(v))
	default:
		return fmt.Errorf("cannot scan %T into PlatformList", value)
	}
}

// Value implements the driver.Valuer interface
func (l PlatformList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return "{}", nil
	}

	// Format as PostgreSQL array: {value1,value2,value3}
	quoted := make([]string, len(l))
	for i, p := range l {
		escaped := strings.ReplaceAll(string(p), "\"", "\\\"")
		quoted[i] = fmt.Sprintf("\"%s\"", escaped)
	}

	return fmt.Sprintf("{%s}", strings.Join(quoted, ",")), nil
}

// Contains reports whether the list includes the given platform.
func (l PlatformList) Contains(p Platform) bool {
	for _, item := range l {
		if item == p {
			return true
		}
	}
	return false
}

// PlatformSetting holds per-platform overrides. Only the caption override is
// meaningful today; the map form leaves room for more keys later.
type PlatformSetting struct {
	Caption string `json:"caption,omitempty"`
}

// SettingsMap represents a jsonb column mapping platform -> overrides.
type SettingsMap map[Platform]PlatformSetting

// Scan implements the sql.Scanner interface
func (m *SettingsMap) Scan(value interface{}) error {
	if value == nil {
		*m = SettingsMap{}
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case string:
		data = []byte(v)
	case []byte:
		data = v
	default:
		return fmt.Errorf("cannot scan %T into SettingsMap", value)
	}

	if len(data) == 0 {
		*m = SettingsMap{}
		return nil
	}

	return json.Unmarshal(data, m)
}

// Value implements the driver.Valuer interface
func (m SettingsMap) Value() (driver.Value, error) {
	if len(m) == 0 {
		return "{}", nil
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}
