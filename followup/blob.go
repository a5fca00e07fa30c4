// ABOUTME: Storage-boundary encoding for follow-up configs held as JSON string columns
// ABOUTME: Decodes, validates the schema version and normalizes; encodes complete versioned blobs
package followup

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/harperreed/engage/coerce"
)

// SchemaVersion is written into every encoded blob.
const SchemaVersion = 1

// ErrUnsupportedVersion is returned for blobs written by a newer schema.
var ErrUnsupportedVersion = errors.New("unsupported follow-up config version")

// DecodeConfig reads a stored blob. An empty blob yields the defaults.
// Blobs without a version field are treated as version 1.
func DecodeConfig(blob string) (Config, error) {
	return DecodeConfigOnto(DefaultConfig(), blob)
}

// DecodeConfigOnto decodes a blob using base for absent fields.
func DecodeConfigOnto(base Config, blob string) (Config, error) {
	if strings.TrimSpace(blob) == "" {
		return NormalizeConfigOnto(base, nil), nil
	}

	var m map[string]any
	if err := json.Unmarshal([]byte(blob), &m); err != nil {
		return nil, fmt.Errorf("failed to decode follow-up config: %w", err)
	}

	if v, ok := m["version"]; ok {
		version, ok := coerce.ToIntOK(v)
		if !ok || version < 1 {
			return nil, fmt.Errorf("failed to decode follow-up config: bad version %v", v)
		}
		if version > SchemaVersion {
			return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
		}
	}

	if rules, ok := m["rules"].(map[string]any); ok {
		m = rules
	}
	return NormalizeConfigOnto(base, m), nil
}

// EncodeConfig writes all five rules plus the schema version.
func EncodeConfig(cfg Config) (string, error) {
	normalized := NormalizeConfig(cfg)

	out := make(map[string]any, len(Keys)+1)
	out["version"] = SchemaVersion
	for _, k := range Keys {
		out[string(k)] = normalized[k]
	}

	data, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("failed to encode follow-up config: %w", err)
	}
	return string(data), nil
}

// MarshalJSON writes the config as a plain object keyed by scenario, always complete.
func (c Config) MarshalJSON() ([]byte, error) {
	out := make(map[string]Rule, len(Keys))
	for _, k := range Keys {
		if r, ok := c[k]; ok {
			out[string(k)] = r
		} else {
			out[string(k)] = DefaultRule(k)
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON normalizes whatever arrives: an object, or an object encoded as a JSON string.
func (c *Config) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*c = NormalizeConfig(v)
	return nil
}
