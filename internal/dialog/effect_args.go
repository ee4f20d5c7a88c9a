package dialog

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"

	"github.com/example/share-dialog-service/internal/share"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// effectArgumentsJSON encodes camera effect arguments. Only string and string
// list values are supported; nil values are skipped.
func effectArgumentsJSON(args share.CameraEffectArguments) (string, error) {
	out := make(map[string]any, len(args))
	for k, v := range args {
		switch val := v.(type) {
		case nil:
			continue
		case string:
			out[k] = val
		case []string:
			out[k] = append([]string{}, val...)
		case []any:
			list := make([]string, 0, len(val))
			for i, item := range val {
				s, ok := item.(string)
				if !ok {
					return "", fmt.Errorf("unsupported type %T at %s[%d]", item, k, i)
				}
				list = append(list, s)
			}
			out[k] = list
		default:
			return "", fmt.Errorf("unsupported type %T for %s", v, k)
		}
	}
	b, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
