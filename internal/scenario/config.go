// Package scenario assembles CLI scenario configuration from JSON strings,
// key=value pairs, config files and environment variables, with typed value
// inference and later-source precedence.
package scenario

import (
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"strconv"
	"strings"
)

// ParseKV parses a key=value pair, attempting type inference for the value
func ParseKV(kvPair string) (string, any, error) {
	parts := strings.SplitN(kvPair, "=", 2)
	if len(parts) != 2 {
		return "", nil, fmt.Errorf("invalid format, expected key=value: %s", kvPair)
	}

	key := strings.TrimSpace(parts[0])
	if key == "" {
		return "", nil, fmt.Errorf("empty key in key=value pair")
	}

	valueStr := strings.TrimSpace(parts[1])

	// Try to parse as integer first (to avoid "1" being parsed as boolean true)
	if intVal, err := strconv.Atoi(valueStr); err == nil {
		return key, intVal, nil
	}

	// Try to parse as float
	if floatVal, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return key, floatVal, nil
	}

	// Try to parse as boolean (only for explicit "true"/"false" strings)
	if valueStr == "true" || valueStr == "false" {
		boolVal, _ := strconv.ParseBool(valueStr)
		return key, boolVal, nil
	}

	// Return as string
	return key, valueStr, nil
}

// ParseJSON parses a JSON string into a map or other structure
func ParseJSON(jsonStr string) (any, error) {
	var result any
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return result, nil
}

// ParseFile reads and parses JSON from a file
func ParseFile(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var result any
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("invalid JSON in file: %w", err)
	}
	return result, nil
}

// ParseEnvWithPrefix parses environment variables with the given prefix.
// The bare prefix may hold a JSON object; PREFIX_* variables hold single
// keys with type-inferred values.
func ParseEnvWithPrefix(prefix string) map[string]any {
	config := make(map[string]any)

	if jsonStr := os.Getenv(prefix); jsonStr != "" {
		if parsed, err := ParseJSON(jsonStr); err == nil {
			if m, ok := parsed.(map[string]any); ok {
				maps.Copy(config, m)
			}
		}
	}

	envPrefix := prefix + "_"
	environ := os.Environ()
	for _, env := range environ {
		if strings.HasPrefix(env, envPrefix) {
			parts := strings.SplitN(env, "=", 2)
			if len(parts) == 2 {
				key := strings.TrimPrefix(parts[0], envPrefix)
				key = strings.ToLower(key)
				// Apply type inference to env var values
				_, value, _ := ParseKV(key + "=" + parts[1])
				config[key] = value
			}
		}
	}

	if len(config) == 0 {
		return nil
	}
	return config
}

// Merge merges multiple config sources with proper precedence.
// Later sources override earlier ones.
func Merge(configs ...any) any {
	result := make(map[string]any)

	for _, cfg := range configs {
		if cfg == nil {
			continue
		}

		switch v := cfg.(type) {
		case map[string]any:
			maps.Copy(result, v)
		default:
			// Non-map sources pass through as-is when nothing has merged
			// yet (a scenario config can be a bare array or primitive)
			if len(result) == 0 {
				return v
			}
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}

// BuildWithPrefix builds a config map from all sources: environment
// variables (lowest priority), a config file, a JSON string, then key=value
// pairs (highest priority).
func BuildWithPrefix(envPrefix, jsonStr string, kvPairs []string, filePath string) (map[string]any, error) {
	var configs []any

	if envCfg := ParseEnvWithPrefix(envPrefix); envCfg != nil {
		configs = append(configs, envCfg)
	}

	if filePath != "" {
		fileCfg, err := ParseFile(filePath)
		if err != nil {
			return nil, err
		}
		configs = append(configs, fileCfg)
	}

	if jsonStr != "" {
		jsonCfg, err := ParseJSON(jsonStr)
		if err != nil {
			return nil, err
		}
		configs = append(configs, jsonCfg)
	}

	if len(kvPairs) > 0 {
		kvCfg := make(map[string]any)
		for _, kv := range kvPairs {
			key, value, err := ParseKV(kv)
			if err != nil {
				return nil, err
			}
			kvCfg[key] = value
		}
		configs = append(configs, kvCfg)
	}

	result := Merge(configs...)
	if result == nil {
		return make(map[string]any), nil
	}

	if m, ok := result.(map[string]any); ok {
		return m, nil
	}

	return nil, fmt.Errorf("config must be an object/map")
}
