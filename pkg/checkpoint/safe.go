package checkpoint

import (
	"fmt"
	"reflect"
	"sort"
)

// checkSafe returns an empty string when v only holds plain data, or the reason why it does not
func checkSafe(v interface{}) string {
	if v == nil {
		return ""
	}
	return checkSafeValue(reflect.ValueOf(v), "")
}

func checkSafeValue(v reflect.Value, at string) string {
	switch v.Kind() {
	case reflect.Invalid:
		return ""
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64,
		reflect.String:
		return ""
	case reflect.Interface:
		if v.IsNil() {
			return ""
		}
		return checkSafeValue(v.Elem(), at)
	case reflect.Slice, reflect.Array:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			return ""
		}
		for i := 0; i < v.Len(); i++ {
			if reason := checkSafeValue(v.Index(i), fmt.Sprintf("%s[%d]", at, i)); reason != "" {
				return reason
			}
		}
		return ""
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return fmt.Sprintf("%smap key must be a string, got %s", located(at), v.Type().Key())
		}
		keys := v.MapKeys()
		sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
		for _, k := range keys {
			if reason := checkSafeValue(v.MapIndex(k), fmt.Sprintf("%s[%q]", at, k.String())); reason != "" {
				return reason
			}
		}
		return ""
	default:
		return fmt.Sprintf("%sunsupported type %s", located(at), v.Type())
	}
}

func located(at string) string {
	if at == "" {
		return ""
	}
	return "at " + at + ": "
}

func typeName(v interface{}) string {
	if v == nil {
		return "nil"
	}
	return reflect.TypeOf(v).String()
}
