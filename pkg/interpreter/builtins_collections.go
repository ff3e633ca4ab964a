package interpreter

import (
	"slices"
	"strconv"
	"strings"

	"github.com/JetBrains/ideavim-sub001/pkg/runtime"
)

func builtinHasKey(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	dict, ok := args[0].(*runtime.DictValue)
	if !ok {
		return nil, errDictRequired()
	}
	key, err := toKey(args[1])
	if err != nil {
		return nil, err
	}
	return boolNumber(dict.Has(key)), nil
}

func builtinKeys(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	dict, ok := args[0].(*runtime.DictValue)
	if !ok {
		return nil, errDictRequired()
	}
	keys := dict.Keys()
	out := make([]runtime.Value, len(keys))
	for idx, key := range keys {
		out[idx] = stringValue(key)
	}
	return runtime.NewList(out), nil
}

func builtinValues(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	dict, ok := args[0].(*runtime.DictValue)
	if !ok {
		return nil, errDictRequired()
	}
	out := make([]runtime.Value, 0, dict.Len())
	for _, key := range dict.Keys() {
		v, _ := dict.Get(key)
		out = append(out, v)
	}
	return runtime.NewList(out), nil
}

func builtinItems(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	dict, ok := args[0].(*runtime.DictValue)
	if !ok {
		return nil, errDictRequired()
	}
	out := make([]runtime.Value, 0, dict.Len())
	for _, key := range dict.Keys() {
		v, _ := dict.Get(key)
		out = append(out, runtime.NewList([]runtime.Value{stringValue(key), v}))
	}
	return runtime.NewList(out), nil
}

func builtinAdd(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	list, ok := args[0].(*runtime.ListValue)
	if !ok {
		return nil, errListOrBlobRequired()
	}
	list.Elements = append(list.Elements, args[1])
	return list, nil
}

func builtinInsert(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	list, ok := args[0].(*runtime.ListValue)
	if !ok {
		return nil, errListOrBlobRequired()
	}
	pos := 0
	if len(args) == 3 {
		idx, err := toNumber(args[2])
		if err != nil {
			return nil, err
		}
		// Inserting at len(list) appends.
		if idx == int64(len(list.Elements)) {
			pos = len(list.Elements)
		} else if p, ok := normalizeIndex(idx, len(list.Elements)); ok {
			pos = p
		} else {
			return nil, errListIndexOutOfRange(idx)
		}
	}
	list.Elements = slices.Insert(list.Elements, pos, args[1])
	return list, nil
}

// builtinRemove is remove(list, idx [, end]) and remove(dict, key).
func builtinRemove(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	switch c := args[0].(type) {
	case *runtime.DictValue:
		if len(args) == 3 {
			return nil, errTooManyArguments("remove")
		}
		key, err := toKey(args[1])
		if err != nil {
			return nil, err
		}
		v, ok := c.Get(key)
		if !ok {
			return nil, errKeyNotPresent(key)
		}
		c.Delete(key)
		return v, nil
	case *runtime.ListValue:
		idx, err := toNumber(args[1])
		if err != nil {
			return nil, err
		}
		start, ok := normalizeIndex(idx, len(c.Elements))
		if !ok {
			return nil, errListIndexOutOfRange(idx)
		}
		if len(args) == 2 {
			v := c.Elements[start]
			c.Elements = slices.Delete(c.Elements, start, start+1)
			return v, nil
		}
		endIdx, err := toNumber(args[2])
		if err != nil {
			return nil, err
		}
		end, ok := normalizeIndex(endIdx, len(c.Elements))
		if !ok {
			return nil, errListIndexOutOfRange(endIdx)
		}
		if end < start {
			return nil, errInvalidArgument(strconv.FormatInt(endIdx, 10))
		}
		removed := slices.Clone(c.Elements[start : end+1])
		c.Elements = slices.Delete(c.Elements, start, end+1)
		return runtime.NewList(removed), nil
	}
	return nil, errArgumentNotContainer("remove()")
}

// builtinExtend is extend(list, list [, idx]) and extend(dict, dict [, how]).
func builtinExtend(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	switch c := args[0].(type) {
	case *runtime.ListValue:
		extra, ok := args[1].(*runtime.ListValue)
		if !ok {
			return nil, errListRequired()
		}
		items := slices.Clone(extra.Elements)
		pos := len(c.Elements)
		if len(args) == 3 {
			idx, err := toNumber(args[2])
			if err != nil {
				return nil, err
			}
			if idx != int64(len(c.Elements)) {
				p, ok := normalizeIndex(idx, len(c.Elements))
				if !ok {
					return nil, errListIndexOutOfRange(idx)
				}
				pos = p
			}
		}
		c.Elements = slices.Insert(c.Elements, pos, items...)
		return c, nil
	case *runtime.DictValue:
		extra, ok := args[1].(*runtime.DictValue)
		if !ok {
			return nil, errDictRequired()
		}
		how := "force"
		if len(args) == 3 {
			var err error
			if how, err = toString(args[2]); err != nil {
				return nil, err
			}
		}
		for _, key := range extra.Keys() {
			v, _ := extra.Get(key)
			if c.Has(key) {
				switch how {
				case "keep":
					continue
				case "error":
					return nil, newScriptError("E737", "Key already exists: %s", key)
				case "force":
				default:
					return nil, errInvalidArgument(how)
				}
			}
			c.Set(key, v)
		}
		return c, nil
	}
	return nil, errArgumentNotContainer("extend()")
}

func builtinCopy(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	return copyValue(args[0], false), nil
}

func builtinDeepCopy(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	return copyValue(args[0], true), nil
}

// strictEqual is the comparison index() and count() use: no coercion
// between kinds.
func strictEqual(a, b runtime.Value, ignoreCase bool) bool {
	return a.Kind() == b.Kind() && valuesEqual(a, b, ignoreCase)
}

func builtinIndex(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	list, ok := args[0].(*runtime.ListValue)
	if !ok {
		return nil, errListOrBlobRequired()
	}
	start := 0
	if len(args) >= 3 {
		idx, err := toNumber(args[2])
		if err != nil {
			return nil, err
		}
		p, ok := normalizeIndex(idx, len(list.Elements))
		if !ok {
			return numberValue(-1), nil
		}
		start = p
	}
	ignoreCase := false
	if len(args) == 4 {
		var err error
		if ignoreCase, err = isTruthy(args[3]); err != nil {
			return nil, err
		}
	}
	for idx := start; idx < len(list.Elements); idx++ {
		if strictEqual(list.Elements[idx], args[1], ignoreCase) {
			return numberValue(int64(idx)), nil
		}
	}
	return numberValue(-1), nil
}

func builtinCount(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	ignoreCase := false
	if len(args) >= 3 {
		var err error
		if ignoreCase, err = isTruthy(args[2]); err != nil {
			return nil, err
		}
	}
	var items []runtime.Value
	switch c := args[0].(type) {
	case runtime.StringValue:
		needle, err := toString(args[1])
		if err != nil {
			return nil, err
		}
		if needle == "" {
			return numberValue(0), nil
		}
		haystack := c.Val
		if ignoreCase {
			haystack, needle = strings.ToLower(haystack), strings.ToLower(needle)
		}
		return numberValue(int64(strings.Count(haystack, needle))), nil
	case *runtime.ListValue:
		items = c.Elements
		if len(args) == 4 {
			idx, err := toNumber(args[3])
			if err != nil {
				return nil, err
			}
			p, ok := normalizeIndex(idx, len(items))
			if !ok {
				return nil, errListIndexOutOfRange(idx)
			}
			items = items[p:]
		}
	case *runtime.DictValue:
		for _, key := range c.Keys() {
			v, _ := c.Get(key)
			items = append(items, v)
		}
	default:
		return nil, errArgumentNotContainer("count()")
	}
	var n int64
	for _, item := range items {
		if strictEqual(item, args[1], ignoreCase) {
			n++
		}
	}
	return numberValue(n), nil
}

func builtinReverse(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	list, ok := args[0].(*runtime.ListValue)
	if !ok {
		return nil, errListOrBlobRequired()
	}
	slices.Reverse(list.Elements)
	return list, nil
}

// builtinSort sorts a list in place. how is "" (string order), 1 or "i"
// (ignore case), "n" (numbers first, numeric), "f" (floats) or a funcref
// comparator.
func builtinSort(c *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	list, ok := args[0].(*runtime.ListValue)
	if !ok {
		return nil, errArgumentNotList("sort()")
	}
	var how runtime.Value = stringValue("")
	if len(args) >= 2 {
		how = args[1]
	}
	var self *runtime.DictValue
	if len(args) == 3 {
		if self, ok = args[2].(*runtime.DictValue); !ok {
			return nil, errDictRequired()
		}
	}

	var cmp func(a, b runtime.Value) int
	var failure error
	switch h := how.(type) {
	case *runtime.FuncrefValue:
		ref := h
		if self != nil {
			ref = ref.Bind(self)
		}
		cmp = func(a, b runtime.Value) int {
			if failure != nil {
				return 0
			}
			result, err := c.Host.CallFuncref(ref, []runtime.Value{a, b})
			if err != nil {
				failure = err
				return 0
			}
			n, err := toNumber(result)
			if err != nil {
				failure = errSortCompare()
				return 0
			}
			return compareNumbers(n, 0)
		}
	default:
		mode, err := toString(how)
		if err != nil {
			return nil, err
		}
		switch mode {
		case "", "0":
			cmp = func(a, b runtime.Value) int { return strings.Compare(sortKey(a), sortKey(b)) }
		case "1", "i":
			cmp = func(a, b runtime.Value) int { return compareStrings(sortKey(a), sortKey(b), true) }
		case "n", "N":
			cmp = func(a, b runtime.Value) int {
				an, aErr := toNumber(a)
				bn, bErr := toNumber(b)
				if aErr != nil || bErr != nil {
					return compareNumbers(boolInt(aErr != nil), boolInt(bErr != nil))
				}
				return compareNumbers(an, bn)
			}
		case "f":
			cmp = func(a, b runtime.Value) int {
				af, _ := toFloat(a)
				bf, _ := toFloat(b)
				return compareFloats(af, bf)
			}
		default:
			handler, err := c.Host.ResolveFunction(mode)
			if err != nil {
				return nil, errUnknownFunctionName(mode)
			}
			return builtinSort(c, []runtime.Value{list, &runtime.FuncrefValue{Handler: handler, Type: runtime.FuncrefNamed}})
		}
	}
	sorted := slices.Clone(list.Elements)
	slices.SortStableFunc(sorted, cmp)
	if failure != nil {
		return nil, failure
	}
	copy(list.Elements, sorted)
	return list, nil
}

func sortKey(v runtime.Value) string {
	return displayString(v)
}

func boolInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// builtinMap replaces every item with fn(key, item). Only funcrefs are
// accepted; string expressions would need the parser.
func builtinMap(c *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	fn, ok := args[1].(*runtime.FuncrefValue)
	if !ok {
		return nil, errNotCallable(stringify(args[1]))
	}
	switch container := args[0].(type) {
	case *runtime.ListValue:
		for idx, item := range container.Elements {
			v, err := c.Host.CallFuncref(fn, []runtime.Value{numberValue(int64(idx)), item})
			if err != nil {
				return nil, err
			}
			container.Elements[idx] = v
		}
		return container, nil
	case *runtime.DictValue:
		for _, key := range container.Keys() {
			item, _ := container.Get(key)
			v, err := c.Host.CallFuncref(fn, []runtime.Value{stringValue(key), item})
			if err != nil {
				return nil, err
			}
			container.Set(key, v)
		}
		return container, nil
	}
	return nil, errArgumentNotContainer("map()")
}

// builtinFilter keeps the items for which fn(key, item) is truthy.
func builtinFilter(c *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	fn, ok := args[1].(*runtime.FuncrefValue)
	if !ok {
		return nil, errNotCallable(stringify(args[1]))
	}
	keep := func(key, item runtime.Value) (bool, error) {
		v, err := c.Host.CallFuncref(fn, []runtime.Value{key, item})
		if err != nil {
			return false, err
		}
		return isTruthy(v)
	}
	switch container := args[0].(type) {
	case *runtime.ListValue:
		kept := container.Elements[:0:0]
		for idx, item := range container.Elements {
			ok, err := keep(numberValue(int64(idx)), item)
			if err != nil {
				return nil, err
			}
			if ok {
				kept = append(kept, item)
			}
		}
		container.Elements = kept
		return container, nil
	case *runtime.DictValue:
		for _, key := range container.Keys() {
			item, _ := container.Get(key)
			ok, err := keep(stringValue(key), item)
			if err != nil {
				return nil, err
			}
			if !ok {
				container.Delete(key)
			}
		}
		return container, nil
	}
	return nil, errArgumentNotContainer("filter()")
}
