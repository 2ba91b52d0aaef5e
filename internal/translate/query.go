package translate

import (
	"errors"
	"fmt"

	"github.com/rkm/fedeo-stac-gateway/internal/federation"
	"github.com/rkm/fedeo-stac-gateway/internal/fields"
)

// cloudCoverField is the only property accepting a range operator in the
// query extension.
const cloudCoverField = "eo:cloud_cover"

// ParseQueryFilter translates the STAC query extension object into flat
// native constraints. Each entry maps a property name (optionally prefixed
// "properties.") to a single-entry operator object. Allowed operators are
// eq, in and lte; lte is only valid for cloud cover, and cloud cover only
// accepts lte.
func ParseQueryFilter(query map[string]any, registry *fields.Registry) (map[string]any, error) {
	if len(query) == 0 {
		return nil, nil
	}

	out := make(map[string]any, len(query))
	for prop, raw := range query {
		opMap, ok := raw.(map[string]any)
		if !ok {
			return nil, validationErrorf("query entry for property %q must be an operator object", prop)
		}
		if len(opMap) != 1 {
			return nil, validationErrorf("query entry for property %q must contain exactly one operator", prop)
		}

		var op string
		var value any
		for k, v := range opMap {
			op, value = k, v
		}

		name := stripPropertiesPrefix(prop)
		switch op {
		case "eq":
			if name == cloudCoverField {
				return nil, validationErrorf("operator %q is not supported for property %q", op, prop)
			}
		case "in":
			if name == cloudCoverField {
				return nil, validationErrorf("operator %q is not supported for property %q", op, prop)
			}
			if _, ok := value.([]any); !ok {
				return nil, validationErrorf("operator %q for property %q requires a list value", op, prop)
			}
		case "lte":
			if name != cloudCoverField {
				return nil, validationErrorf("operator %q is not supported for property %q", op, prop)
			}
		default:
			return nil, validationErrorf("operator %q is not supported for property %q", op, prop)
		}

		native, err := toNativeField(name, registry)
		if err != nil {
			return nil, err
		}
		out[native] = value
	}

	return out, nil
}

func stripPropertiesPrefix(name string) string {
	const prefix = "properties."
	if len(name) > len(prefix) && name[:len(prefix)] == prefix {
		return name[len(prefix):]
	}
	return name
}

func toNativeField(stacName string, registry *fields.Registry) (string, error) {
	native, err := registry.ToNative(stacName)
	if err != nil {
		if errors.Is(err, fields.ErrAmbiguousAlias) {
			return "", validationErrorf("filtering on property %q is not implemented", stacName)
		}
		return "", err
	}
	return native, nil
}

func validationErrorf(format string, args ...any) error {
	return federation.NewError(federation.KindValidation, fmt.Sprintf(format, args...))
}
