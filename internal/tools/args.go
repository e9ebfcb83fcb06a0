package tools

import "lanonasis-gateway/internal/registry"

// Argument extraction helpers. Arguments arrive as decoded JSON, so numbers
// are float64; the integer helpers also accept native ints for callers that
// build argument maps directly.

func stringArg(args map[string]interface{}, name, def string) string {
	if v, ok := args[name].(string); ok && v != "" {
		return v
	}
	return def
}

func intArg(args map[string]interface{}, name string, def int) int {
	switch v := args[name].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return def
}

func floatArg(args map[string]interface{}, name string, def float64) float64 {
	switch v := args[name].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return def
}

func stringsArg(args map[string]interface{}, name string) []string {
	raw, ok := args[name].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func mapArg(args map[string]interface{}, name string) map[string]interface{} {
	if v, ok := args[name].(map[string]interface{}); ok {
		return v
	}
	return nil
}

// Field constructors for the recurring schema shapes.

func stringField(name, desc string, required bool) registry.Field {
	return registry.Field{Name: name, Type: "string", Description: desc, Required: required}
}

func boundedStringField(name, desc string, required bool, minLen, maxLen int) registry.Field {
	return registry.Field{
		Name: name, Type: "string", Description: desc, Required: required,
		Schema: map[string]interface{}{"minLength": minLen, "maxLength": maxLen},
	}
}

func intField(name, desc string, min, max, def int) registry.Field {
	return registry.Field{
		Name: name, Type: "integer", Description: desc, Default: def,
		Schema: map[string]interface{}{"minimum": min, "maximum": max},
	}
}

func floatField(name, desc string, min, max, def float64) registry.Field {
	return registry.Field{
		Name: name, Type: "number", Description: desc, Default: def,
		Schema: map[string]interface{}{"minimum": min, "maximum": max},
	}
}

func enumField(name, desc string, values []string, def string) registry.Field {
	f := registry.Field{
		Name: name, Type: "string", Description: desc,
		Schema: map[string]interface{}{"enum": values},
	}
	if def != "" {
		f.Default = def
	}
	return f
}

func stringArrayField(name, desc string, maxItems int) registry.Field {
	return registry.Field{
		Name: name, Type: "array", Description: desc,
		Schema: map[string]interface{}{
			"items":    map[string]interface{}{"type": "string"},
			"maxItems": maxItems,
		},
	}
}

func enumArrayField(name, desc string, values []string) registry.Field {
	return registry.Field{
		Name: name, Type: "array", Description: desc,
		Schema: map[string]interface{}{
			"items": map[string]interface{}{"type": "string", "enum": values},
		},
	}
}

func objectField(name, desc string) registry.Field {
	return registry.Field{Name: name, Type: "object", Description: desc}
}
