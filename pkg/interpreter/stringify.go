package interpreter

import (
	"math"
	"strconv"
	"strings"

	"github.com/JetBrains/ideavim-sub001/pkg/runtime"
)

// formatFloat renders a Float the way :echo does: always with a decimal point,
// and "1.0e20" style exponents.
func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	mantissa, exponent, hasExp := strings.Cut(s, "e")
	if !strings.Contains(mantissa, ".") {
		mantissa += ".0"
	}
	if !hasExp {
		return mantissa
	}
	sign := ""
	if strings.HasPrefix(exponent, "-") {
		sign = "-"
	}
	exponent = strings.TrimLeft(exponent, "+-")
	exponent = strings.TrimLeft(exponent, "0")
	if exponent == "" {
		exponent = "0"
	}
	return mantissa + "e" + sign + exponent
}

// displayString is the text :echo shows: strings unquoted, everything else
// as string() renders it.
func displayString(v runtime.Value) string {
	if s, ok := v.(runtime.StringValue); ok {
		return s.Val
	}
	return stringify(v)
}

// stringify implements string().
func stringify(v runtime.Value) string {
	var b strings.Builder
	writeValue(&b, v, make(map[any]bool))
	return b.String()
}

func writeValue(b *strings.Builder, v runtime.Value, seen map[any]bool) {
	switch val := v.(type) {
	case nil:
		b.WriteString("0")
	case runtime.NumberValue:
		b.WriteString(strconv.FormatInt(val.Val, 10))
	case runtime.FloatValue:
		b.WriteString(formatFloat(val.Val))
	case runtime.StringValue:
		b.WriteString("'" + strings.ReplaceAll(val.Val, "'", "''") + "'")
	case runtime.BoolValue, runtime.SpecialValue:
		s, _ := toString(val)
		b.WriteString(s)
	case runtime.VoidValue:
		b.WriteString("0")
	case *runtime.ListValue:
		if seen[val] {
			b.WriteString("[...]")
			return
		}
		seen[val] = true
		b.WriteByte('[')
		for idx, elem := range val.Elements {
			if idx > 0 {
				b.WriteString(", ")
			}
			writeValue(b, elem, seen)
		}
		b.WriteByte(']')
		delete(seen, val)
	case *runtime.DictValue:
		if seen[val] {
			b.WriteString("{...}")
			return
		}
		seen[val] = true
		b.WriteByte('{')
		for idx, key := range val.Keys() {
			if idx > 0 {
				b.WriteString(", ")
			}
			elem, _ := val.Get(key)
			b.WriteString("'" + strings.ReplaceAll(key, "'", "''") + "': ")
			writeValue(b, elem, seen)
		}
		b.WriteByte('}')
		delete(seen, val)
	case *runtime.FuncrefValue:
		writeFuncref(b, val, seen)
	default:
		b.WriteString("<unknown>")
	}
}

func writeFuncref(b *strings.Builder, fn *runtime.FuncrefValue, seen map[any]bool) {
	b.WriteString("function('")
	b.WriteString(fn.Name())
	b.WriteString("'")
	if len(fn.Arguments) > 0 {
		b.WriteString(", ")
		writeValue(b, runtime.NewList(fn.Arguments), seen)
	}
	if fn.Self != nil && fn.Type == runtime.FuncrefPartial {
		b.WriteString(", ")
		writeValue(b, fn.Self, seen)
	}
	b.WriteString(")")
}
