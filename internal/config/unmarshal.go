package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// resolveEnvRefs walks the raw JSON document and replaces every
// {"$env": "VAR_NAME"} object with the value of that environment
// variable. Unset variables are an error so misconfigured deployments
// fail at startup rather than at the first login.
func resolveEnvRefs(data []byte) ([]byte, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	resolved, err := resolveValue(doc)
	if err != nil {
		return nil, err
	}

	return json.Marshal(resolved)
}

func resolveValue(v any) (any, error) {
	switch val := v.(type) {
	case map[string]any:
		if name, ok := envRefName(val); ok {
			value, exists := os.LookupEnv(name)
			if !exists {
				return nil, fmt.Errorf("environment variable %s is not set", name)
			}
			return value, nil
		}
		out := make(map[string]any, len(val))
		for k, child := range val {
			resolved, err := resolveValue(child)
			if err != nil {
				return nil, err
			}
			out[k] = resolved
		}
		return out, nil
	case []any:
		out := make([]any, len(val))
		for i, child := range val {
			resolved, err := resolveValue(child)
			if err != nil {
				return nil, err
			}
			out[i] = resolved
		}
		return out, nil
	default:
		return v, nil
	}
}

// envRefName reports whether a JSON object is an {"$env": "VAR"} reference
func envRefName(m map[string]any) (string, bool) {
	if len(m) != 1 {
		return "", false
	}
	name, ok := m["$env"].(string)
	return name, ok
}

// validateRawConfig checks secret hygiene before environment resolution:
// provider client secrets and the admin password must be env references,
// never inline strings.
func validateRawConfig(rawConfig map[string]any) error {
	gateway, ok := rawConfig["gateway"].(map[string]any)
	if !ok {
		return fmt.Errorf("gateway section is required")
	}

	if providers, ok := gateway["providers"].(map[string]any); ok {
		for name, raw := range providers {
			provider, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			if err := requireEnvRef(provider, "clientSecret", "providers."+name); err != nil {
				return err
			}
		}
	}

	if admin, ok := gateway["admin"].(map[string]any); ok {
		if enabled, _ := admin["enabled"].(bool); enabled {
			if err := requireEnvRef(admin, "password", "admin"); err != nil {
				return err
			}
		}
	}

	return nil
}

func requireEnvRef(section map[string]any, key, path string) error {
	value, exists := section[key]
	if !exists {
		return fmt.Errorf("%s.%s is required", path, key)
	}
	if _, isString := value.(string); isString {
		return fmt.Errorf("%s.%s must use an environment variable reference for security", path, key)
	}
	if refMap, isMap := value.(map[string]any); isMap {
		if _, ok := envRefName(refMap); !ok {
			return fmt.Errorf("%s.%s must use {\"$env\": \"VAR_NAME\"} format", path, key)
		}
	}
	return nil
}
