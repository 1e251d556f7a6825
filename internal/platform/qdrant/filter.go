package qdrant

import (
	"fmt"
	"sort"

	"github.com/riyuc/cf-ai-Codebase-Onboarder/internal/platform/vector"
)

// translateFilter builds a qdrant filter scoped to the namespace. Keys are
// visited in sorted order so the request body is stable.
func translateFilter(qualifiedNS string, filter vector.Filter) (map[string]any, error) {
	must := []any{matchCondition(payloadNamespaceKey, qualifiedNS)}

	keys := make([]string, 0, len(filter))
	for k := range filter {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if k == "" {
			continue
		}
		switch v := filter[k].(type) {
		case string, bool, int, int64, float64:
			must = append(must, matchCondition(k, v))
		case []string:
			if len(v) == 0 {
				return nil, opErr("filter_translate", OperationErrorValidation, fmt.Sprintf("field %q: empty match list", k), nil)
			}
			must = append(must, map[string]any{"key": k, "match": map[string]any{"any": v}})
		default:
			return nil, opErr("filter_translate", OperationErrorUnsupportedFilter, fmt.Sprintf("field %q: unsupported value %T", k, v), nil)
		}
	}
	return map[string]any{"must": must}, nil
}

func matchCondition(key string, value any) map[string]any {
	return map[string]any{
		"key":   key,
		"match": map[string]any{"value": value},
	}
}
