package reporters

import (
	"github.com/custodia-labs/mailsift-cli/internal/core/ports/driven"
)

// RegisterDefaults registers all built-in reporters with the registry.
// Call this during application initialisation to enable standard reporters.
// The catalog reporter is not registered here because it needs a live
// store; the application wires it directly.
func RegisterDefaults(r *Registry) {
	r.Register("csv", buildCSV)
}

// buildCSV creates a CSV reporter from generic config.
// Supported config keys:
//   - dir (string): Output directory (default: current directory)
//   - batch_size (int): Rows written between flushes (default: 20)
func buildCSV(cfg map[string]any) (driven.Reporter, error) {
	var opts []Option

	if cfg != nil {
		if dir := getStringFromConfig(cfg, "dir"); dir != "" {
			opts = append(opts, WithDirectory(dir))
		}
		if size := getIntFromConfig(cfg, "batch_size"); size > 0 {
			opts = append(opts, WithBatchSize(size))
		}
	}

	return NewCSV(opts...), nil
}

// getIntFromConfig safely extracts an int from generic config map.
// Handles int, int64, and float64 types that may come from TOML/JSON parsing.
func getIntFromConfig(cfg map[string]any, key string) int {
	val, ok := cfg[key]
	if !ok {
		return 0
	}

	switch v := val.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

// getStringFromConfig safely extracts a string from generic config map.
func getStringFromConfig(cfg map[string]any, key string) string {
	val, ok := cfg[key]
	if !ok {
		return ""
	}
	if s, ok := val.(string); ok {
		return s
	}
	return ""
}
