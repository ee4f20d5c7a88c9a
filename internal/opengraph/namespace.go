package opengraph

import (
	"sort"
	"strings"
)

const (
	namespaceFacebook    = "fb"
	namespaceFacebookSDK = "fbsdk"
	namespaceOpenGraph   = "og"
	dataKey              = "data"
)

// SplitFieldName splits a property name such as "og:title" into its
// namespace and field name. The namespace is empty when the name has no
// colon or nothing follows the first colon.
func SplitFieldName(fullName string) (namespace, field string) {
	idx := strings.IndexByte(fullName, ':')
	if idx != -1 && len(fullName) > idx+1 {
		return fullName[:idx], fullName[idx+1:]
	}
	return "", fullName
}

// StripNamespaces returns a copy of obj with property namespaces removed.
//
// With requireNamespace false, "fb:" keys are kept verbatim and every other
// key loses its namespace. With requireNamespace true, "fbsdk:" keys are kept
// verbatim, "og:" and bare keys lose their namespace, and keys in any other
// namespace are moved under a "data" object. Nested objects and arrays are
// always processed with requireNamespace true.
//
// When several keys strip to the same field, a bare key wins over an "og:"
// key, which wins over any other namespace; ties go to the key that sorts
// last.
func StripNamespaces(obj map[string]any, requireNamespace bool) map[string]any {
	result := make(map[string]any, len(obj))
	data := make(map[string]any)

	for _, key := range precedenceOrder(obj) {
		value := stripValue(obj[key])

		namespace, field := SplitFieldName(key)
		switch {
		case requireNamespace && namespace == namespaceFacebookSDK:
			result[key] = value
		case requireNamespace && (namespace == "" || namespace == namespaceOpenGraph):
			result[field] = value
		case requireNamespace:
			data[field] = value
		case namespace == namespaceFacebook:
			result[key] = value
		default:
			result[field] = value
		}
	}

	if len(data) > 0 {
		result[dataKey] = data
	}
	return result
}

// precedenceOrder returns the keys of obj ordered so that later keys take
// precedence when their stripped field names collide.
func precedenceOrder(obj map[string]any) []string {
	keys := make([]string, 0, len(obj))
	for key := range obj {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		ri, rj := namespaceRank(keys[i]), namespaceRank(keys[j])
		if ri != rj {
			return ri < rj
		}
		return keys[i] < keys[j]
	})
	return keys
}

func namespaceRank(key string) int {
	switch namespace, _ := SplitFieldName(key); namespace {
	case "":
		return 2
	case namespaceOpenGraph:
		return 1
	default:
		return 0
	}
}

func stripArray(values []any) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = stripValue(v)
	}
	return out
}

func stripValue(value any) any {
	switch v := value.(type) {
	case map[string]any:
		return StripNamespaces(v, true)
	case []any:
		return stripArray(v)
	default:
		return value
	}
}
