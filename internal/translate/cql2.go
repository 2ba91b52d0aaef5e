package translate

import (
	"strings"

	"github.com/rkm/fedeo-stac-gateway/internal/fields"
)

// TranslateCQL2Filter evaluates a CQL2-JSON filter expression into flat
// native constraints. The supported subset covers property comparisons that
// map to engine keyword arguments:
//
//	"="  : equality comparison
//	"<=" : upper bound (cloud cover only)
//	"in" : value in list
//	"and", "or" : logical combination, flattened into one constraint map
//
// The reserved keys "collections" and "ids" are refused; clients must use
// the singular top-level parameters instead.
func TranslateCQL2Filter(filter map[string]any, registry *fields.Registry) (map[string]any, error) {
	if filter == nil {
		return nil, nil
	}

	flat := make(map[string]any)
	if err := evalFilterExpression(filter, flat); err != nil {
		return nil, err
	}

	out := make(map[string]any, len(flat))
	for prop, value := range flat {
		switch prop {
		case "collections":
			return nil, validationErrorf(`"collections" is not supported in the filter. Use "collection" instead of "collections"`)
		case "ids":
			return nil, validationErrorf(`"ids" is not supported in the filter. Use "id" instead of "ids"`)
		}

		native, err := toNativeField(prop, registry)
		if err != nil {
			return nil, err
		}
		out[native] = value
	}

	return out, nil
}

// evalFilterExpression evaluates one CQL2 expression node into the flat
// property/value map.
func evalFilterExpression(expr map[string]any, flat map[string]any) error {
	opVal, ok := expr["op"]
	if !ok {
		return validationErrorf("invalid CQL2 filter: missing 'op' field")
	}
	op, ok := opVal.(string)
	if !ok {
		return validationErrorf("invalid CQL2 filter: 'op' must be a string")
	}

	argsVal, ok := expr["args"]
	if !ok {
		return validationErrorf("invalid CQL2 filter: missing 'args' field")
	}
	args, ok := argsVal.([]any)
	if !ok {
		return validationErrorf("invalid CQL2 filter: 'args' must be an array")
	}

	switch strings.ToLower(op) {
	case "=", "eq":
		return evalComparison(op, args, flat, nil)
	case "<=", "lte":
		return evalComparison(op, args, flat, func(prop string) error {
			if prop != cloudCoverField {
				return validationErrorf("operator %q is not supported for property %q", op, prop)
			}
			return nil
		})
	case "in":
		return evalInExpression(args, flat)
	case "and", "or":
		if len(args) == 0 {
			return validationErrorf("invalid CQL2 filter: %q requires at least one argument", op)
		}
		for _, arg := range args {
			argMap, ok := arg.(map[string]any)
			if !ok {
				return validationErrorf("invalid CQL2 filter: %q arguments must be filter expressions", op)
			}
			if err := evalFilterExpression(argMap, flat); err != nil {
				return err
			}
		}
		return nil
	default:
		return validationErrorf("invalid CQL2 filter: operator %q is not supported", op)
	}
}

func evalComparison(op string, args []any, flat map[string]any, check func(string) error) error {
	if len(args) != 2 {
		return validationErrorf("invalid CQL2 filter: %q requires exactly 2 arguments", op)
	}
	prop, err := extractPropertyName(args[0])
	if err != nil {
		return err
	}
	if check != nil {
		if err := check(prop); err != nil {
			return err
		}
	}
	flat[prop] = args[1]
	return nil
}

// evalInExpression handles the "in" operator. The member list is kept as a
// list value; the engine treats list constraints as alternatives.
func evalInExpression(args []any, flat map[string]any) error {
	if len(args) != 2 {
		return validationErrorf(`invalid CQL2 filter: "in" requires exactly 2 arguments`)
	}
	prop, err := extractPropertyName(args[0])
	if err != nil {
		return err
	}
	values, ok := args[1].([]any)
	if !ok {
		return validationErrorf(`invalid CQL2 filter: second argument of "in" must be an array`)
	}
	flat[prop] = values
	return nil
}

func extractPropertyName(arg any) (string, error) {
	propMap, ok := arg.(map[string]any)
	if !ok {
		return "", validationErrorf("invalid CQL2 filter: property reference must be an object")
	}
	propVal, ok := propMap["property"]
	if !ok {
		return "", validationErrorf("invalid CQL2 filter: missing 'property' field in property reference")
	}
	prop, ok := propVal.(string)
	if !ok {
		return "", validationErrorf("invalid CQL2 filter: 'property' must be a string")
	}
	return stripPropertiesPrefix(prop), nil
}
