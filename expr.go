package main

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Field is one key of an Object, kept in declaration order.
type Field struct {
	Key   string
	Value any
}

// Object renders as an object literal with its fields in order.
type Object []Field

// RawExpr is emitted verbatim.
type RawExpr string

// renderExpr turns a Go value into the expression text evaluated by the map UI.
func renderExpr(v any) (string, error) {
	var sb strings.Builder
	if err := writeExpr(&sb, v); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func writeExpr(sb *strings.Builder, v any) error {
	switch x := v.(type) {
	case nil:
		sb.WriteString("null")
	case RawExpr:
		sb.WriteString(string(x))
	case LngLat:
		fmt.Fprintf(sb, "new AMap.LngLat(%s, %s)", formatFloat(x.Lng), formatFloat(x.Lat))
	case Bounds:
		sb.WriteString("new AMap.Bounds(")
		_ = writeExpr(sb, x.SouthWest)
		sb.WriteString(", ")
		_ = writeExpr(sb, x.NorthEast)
		sb.WriteString(")")
	case Object:
		if len(x) == 0 {
			sb.WriteString("{}")
			return nil
		}
		sb.WriteString("{")
		for i, f := range x {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(objectKey(f.Key))
			sb.WriteString(": ")
			if err := writeExpr(sb, f.Value); err != nil {
				return fmt.Errorf("field %q: %w", f.Key, err)
			}
		}
		sb.WriteString("}")
	case []any:
		sb.WriteString("[")
		for i, e := range x {
			if i > 0 {
				sb.WriteString(", ")
			}
			if err := writeExpr(sb, e); err != nil {
				return err
			}
		}
		sb.WriteString("]")
	case []LngLat:
		sb.WriteString("[")
		for i, p := range x {
			if i > 0 {
				sb.WriteString(", ")
			}
			_ = writeExpr(sb, p)
		}
		sb.WriteString("]")
	case string:
		sb.WriteString(quote(x))
	case bool:
		sb.WriteString(strconv.FormatBool(x))
	case int:
		sb.WriteString(strconv.Itoa(x))
	case int64:
		sb.WriteString(strconv.FormatInt(x, 10))
	case float64:
		sb.WriteString(formatFloat(x))
	default:
		return fmt.Errorf("unsupported argument type %T", v)
	}
	return nil
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func quote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", `\n`, "\r", `\r`)
	return "'" + r.Replace(s) + "'"
}

// objectKey leaves identifier-like keys bare and quotes the rest.
func objectKey(k string) string {
	if k == "" {
		return "''"
	}
	for i, c := range k {
		ok := c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') ||
			(i > 0 && c >= '0' && c <= '9')
		if !ok {
			return quote(k)
		}
	}
	return k
}
