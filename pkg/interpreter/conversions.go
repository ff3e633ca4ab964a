package interpreter

import (
	"math"
	"strconv"
	"strings"

	"github.com/JetBrains/ideavim-sub001/pkg/runtime"
)

const (
	maxNumber = math.MaxInt64
	minNumber = math.MinInt64
)

func numberValue(n int64) runtime.NumberValue {
	return runtime.NumberValue{Val: n}
}

func boolNumber(b bool) runtime.NumberValue {
	if b {
		return runtime.NumberValue{Val: 1}
	}
	return runtime.NumberValue{Val: 0}
}

func stringValue(s string) runtime.StringValue {
	return runtime.StringValue{Val: s}
}

// exprValue maps a call result into expression space, where a function that
// returned nothing reads as 0.
func exprValue(v runtime.Value) runtime.Value {
	if v == nil {
		return numberValue(0)
	}
	if _, ok := v.(runtime.VoidValue); ok {
		return numberValue(0)
	}
	return v
}

// isNone reports v:none, which selects a parameter's default value.
func isNone(v runtime.Value) bool {
	special, ok := v.(runtime.SpecialValue)
	return ok && special.Name == runtime.None.Name
}

// toNumber is Vim's tv_get_number: strings parse their leading number,
// containers and floats are errors.
func toNumber(v runtime.Value) (int64, error) {
	switch val := v.(type) {
	case runtime.NumberValue:
		return val.Val, nil
	case runtime.StringValue:
		return parseNumberPrefix(val.Val), nil
	case runtime.BoolValue:
		if val.Val {
			return 1, nil
		}
		return 0, nil
	case runtime.SpecialValue, runtime.VoidValue:
		return 0, nil
	case runtime.FloatValue:
		return 0, errFloatAsNumber()
	case *runtime.ListValue:
		return 0, errListAsNumber()
	case *runtime.DictValue:
		return 0, errDictAsNumber()
	case *runtime.FuncrefValue:
		return 0, errFuncrefAsNumber()
	}
	return 0, errInvalidExpression("unknown value")
}

// parseNumberPrefix reads the leading number of s the way string-to-number
// coercion does: decimal, 0x hex, 0b binary and leading-zero octal, with an
// optional sign. Anything unparsable yields 0.
func parseNumberPrefix(s string) int64 {
	neg := false
	rest := s
	if strings.HasPrefix(rest, "-") {
		neg = true
		rest = rest[1:]
	} else if strings.HasPrefix(rest, "+") {
		rest = rest[1:]
	}
	base := 10
	digits := rest
	switch {
	case len(rest) > 2 && (rest[:2] == "0x" || rest[:2] == "0X") && isDigitIn(rest[2], 16):
		base, digits = 16, rest[2:]
	case len(rest) > 2 && (rest[:2] == "0b" || rest[:2] == "0B") && isDigitIn(rest[2], 2):
		base, digits = 2, rest[2:]
	case len(rest) > 1 && rest[0] == '0' && isOctalRun(rest[1:]):
		base, digits = 8, rest[1:]
	}
	end := 0
	for end < len(digits) && isDigitIn(digits[end], base) {
		end++
	}
	if end == 0 {
		return 0
	}
	n, err := strconv.ParseUint(digits[:end], base, 64)
	if err != nil || n > maxNumber {
		if neg {
			return minNumber
		}
		return maxNumber
	}
	if neg {
		return -int64(n)
	}
	return int64(n)
}

// isOctalRun reports whether the digit run at the start of s is all octal.
func isOctalRun(s string) bool {
	seen := false
	for i := 0; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
		if s[i] > '7' {
			return false
		}
		seen = true
	}
	return seen
}

func isDigitIn(c byte, base int) bool {
	switch base {
	case 2:
		return c == '0' || c == '1'
	case 8:
		return c >= '0' && c <= '7'
	case 16:
		return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
	default:
		return c >= '0' && c <= '9'
	}
}

// toFloat converts numbers, strings and floats; used by arithmetic once one
// operand is a Float.
func toFloat(v runtime.Value) (float64, error) {
	switch val := v.(type) {
	case runtime.FloatValue:
		return val.Val, nil
	case runtime.NumberValue:
		return float64(val.Val), nil
	case runtime.StringValue:
		return float64(parseNumberPrefix(val.Val)), nil
	case runtime.BoolValue, runtime.SpecialValue, runtime.VoidValue:
		n, _ := toNumber(val)
		return float64(n), nil
	case *runtime.ListValue:
		return 0, errListAsFloat()
	case *runtime.DictValue:
		return 0, errDictAsFloat()
	case *runtime.FuncrefValue:
		return 0, errFuncrefAsFloat()
	}
	return 0, errInvalidExpression("unknown value")
}

// toString is Vim's tv_get_string: scalars convert, containers and floats are
// errors.
func toString(v runtime.Value) (string, error) {
	switch val := v.(type) {
	case runtime.StringValue:
		return val.Val, nil
	case runtime.NumberValue:
		return strconv.FormatInt(val.Val, 10), nil
	case runtime.BoolValue:
		if val.Val {
			return "v:true", nil
		}
		return "v:false", nil
	case runtime.SpecialValue:
		return "v:" + val.Name, nil
	case runtime.VoidValue:
		return "0", nil
	case runtime.FloatValue:
		return "", errFloatAsString()
	case *runtime.ListValue:
		return "", errListAsString()
	case *runtime.DictValue:
		return "", errDictAsString()
	case *runtime.FuncrefValue:
		return "", errFuncrefAsString()
	}
	return "", errInvalidExpression("unknown value")
}

// toKey converts a dictionary key; numbers are accepted and stringified.
func toKey(v runtime.Value) (string, error) {
	return toString(v)
}

// isTruthy is the condition test for :if, :while, && and friends.
func isTruthy(v runtime.Value) (bool, error) {
	n, err := toNumber(v)
	if err != nil {
		return false, err
	}
	return n != 0, nil
}

// isEmpty implements empty().
func isEmpty(v runtime.Value) bool {
	switch val := v.(type) {
	case runtime.NumberValue:
		return val.Val == 0
	case runtime.FloatValue:
		return val.Val == 0
	case runtime.StringValue:
		return val.Val == ""
	case runtime.BoolValue:
		return !val.Val
	case runtime.SpecialValue, runtime.VoidValue:
		return true
	case *runtime.ListValue:
		return len(val.Elements) == 0
	case *runtime.DictValue:
		return val.Len() == 0
	case *runtime.FuncrefValue:
		return val.Handler == nil
	}
	return true
}

// copyValue is copy() when deep is false and deepcopy() otherwise.
func copyValue(v runtime.Value, deep bool) runtime.Value {
	return copyValueSeen(v, deep, make(map[any]runtime.Value))
}

func copyValueSeen(v runtime.Value, deep bool, seen map[any]runtime.Value) runtime.Value {
	switch val := v.(type) {
	case *runtime.ListValue:
		if done, ok := seen[val]; ok {
			return done
		}
		out := runtime.NewList(make([]runtime.Value, len(val.Elements)))
		seen[val] = out
		for idx, elem := range val.Elements {
			if deep {
				elem = copyValueSeen(elem, deep, seen)
			}
			out.Elements[idx] = elem
		}
		return out
	case *runtime.DictValue:
		if done, ok := seen[val]; ok {
			return done
		}
		out := runtime.NewDict()
		seen[val] = out
		for _, k := range val.Keys() {
			elem, _ := val.Get(k)
			if deep {
				elem = copyValueSeen(elem, deep, seen)
			}
			out.Set(k, elem)
		}
		return out
	default:
		return v
	}
}

// normalizeIndex resolves a possibly negative index against length; ok is
// false when it falls outside.
func normalizeIndex(index int64, length int) (int, bool) {
	if index < 0 {
		index += int64(length)
	}
	if index < 0 || index >= int64(length) {
		return 0, false
	}
	return int(index), true
}
