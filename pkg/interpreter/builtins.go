package interpreter

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/JetBrains/ideavim-sub001/pkg/ast"
	"github.com/JetBrains/ideavim-sub001/pkg/runtime"
)

const unbounded = -1

func (i *Interpreter) registerBuiltins() {
	for _, fn := range []*runtime.NativeFunction{
		{Name: "len", MinArgs: 1, MaxArgs: 1, Impl: builtinLen},
		{Name: "empty", MinArgs: 1, MaxArgs: 1, Impl: builtinEmpty},
		{Name: "type", MinArgs: 1, MaxArgs: 1, Impl: builtinType},
		{Name: "string", MinArgs: 1, MaxArgs: 1, Impl: builtinString},
		{Name: "function", MinArgs: 1, MaxArgs: 3, Impl: builtinFunction},
		{Name: "funcref", MinArgs: 1, MaxArgs: 3, Impl: builtinFunction},
		{Name: "call", MinArgs: 2, MaxArgs: 3, Impl: builtinCall},
		{Name: "exists", MinArgs: 1, MaxArgs: 1, Impl: builtinExists},
		{Name: "get", MinArgs: 2, MaxArgs: 3, Impl: builtinGet},
		{Name: "has_key", MinArgs: 2, MaxArgs: 2, Impl: builtinHasKey},
		{Name: "keys", MinArgs: 1, MaxArgs: 1, Impl: builtinKeys},
		{Name: "values", MinArgs: 1, MaxArgs: 1, Impl: builtinValues},
		{Name: "items", MinArgs: 1, MaxArgs: 1, Impl: builtinItems},
		{Name: "add", MinArgs: 2, MaxArgs: 2, Impl: builtinAdd},
		{Name: "insert", MinArgs: 2, MaxArgs: 3, Impl: builtinInsert},
		{Name: "remove", MinArgs: 2, MaxArgs: 3, Impl: builtinRemove},
		{Name: "extend", MinArgs: 2, MaxArgs: 3, Impl: builtinExtend},
		{Name: "copy", MinArgs: 1, MaxArgs: 1, Impl: builtinCopy},
		{Name: "deepcopy", MinArgs: 1, MaxArgs: 2, Impl: builtinDeepCopy},
		{Name: "join", MinArgs: 1, MaxArgs: 2, Impl: builtinJoin},
		{Name: "split", MinArgs: 1, MaxArgs: 3, Impl: i.builtinSplit},
		{Name: "toupper", MinArgs: 1, MaxArgs: 1, Impl: builtinToUpper},
		{Name: "tolower", MinArgs: 1, MaxArgs: 1, Impl: builtinToLower},
		{Name: "range", MinArgs: 1, MaxArgs: 3, Impl: builtinRange},
		{Name: "abs", MinArgs: 1, MaxArgs: 1, Impl: builtinAbs},
		{Name: "max", MinArgs: 1, MaxArgs: 1, Impl: builtinMax},
		{Name: "min", MinArgs: 1, MaxArgs: 1, Impl: builtinMin},
		{Name: "index", MinArgs: 2, MaxArgs: 4, Impl: builtinIndex},
		{Name: "count", MinArgs: 2, MaxArgs: 4, Impl: builtinCount},
		{Name: "reverse", MinArgs: 1, MaxArgs: 1, Impl: builtinReverse},
		{Name: "sort", MinArgs: 1, MaxArgs: 3, Impl: builtinSort},
		{Name: "map", MinArgs: 2, MaxArgs: 2, Impl: builtinMap},
		{Name: "filter", MinArgs: 2, MaxArgs: 2, Impl: builtinFilter},
		{Name: "printf", MinArgs: 1, MaxArgs: unbounded, Impl: builtinPrintf},
	} {
		i.natives.Register(fn)
	}
}

func builtinLen(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	switch v := args[0].(type) {
	case runtime.StringValue:
		return numberValue(int64(len(v.Val))), nil
	case runtime.NumberValue:
		s, _ := toString(v)
		return numberValue(int64(len(s))), nil
	case *runtime.ListValue:
		return numberValue(int64(len(v.Elements))), nil
	case *runtime.DictValue:
		return numberValue(int64(v.Len())), nil
	}
	return nil, errInvalidLenType()
}

func builtinEmpty(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	return boolNumber(isEmpty(args[0])), nil
}

func builtinType(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	return numberValue(int64(args[0].Kind())), nil
}

func builtinString(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	return stringValue(stringify(args[0])), nil
}

// builtinFunction backs function() and funcref(): function(name [, args] [, dict]).
func builtinFunction(c *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	var ref *runtime.FuncrefValue
	switch v := args[0].(type) {
	case *runtime.FuncrefValue:
		copied := *v
		ref = &copied
	case runtime.StringValue:
		handler, err := c.Host.ResolveFunction(v.Val)
		if err != nil {
			return nil, errUnknownFunctionName(v.Val)
		}
		ref = &runtime.FuncrefValue{Handler: handler, Type: runtime.FuncrefNamed}
	default:
		s, err := toString(v)
		if err != nil {
			return nil, err
		}
		return nil, errUnknownFunctionName(s)
	}
	for _, extra := range args[1:] {
		switch v := extra.(type) {
		case *runtime.ListValue:
			ref.Arguments = append(append([]runtime.Value(nil), ref.Arguments...), v.Elements...)
			ref.Type = runtime.FuncrefPartial
		case *runtime.DictValue:
			ref = ref.Bind(v)
			ref.Type = runtime.FuncrefPartial
		default:
			return nil, errArgumentNotContainer("function()")
		}
	}
	return ref, nil
}

func builtinCall(c *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	var ref *runtime.FuncrefValue
	switch v := args[0].(type) {
	case *runtime.FuncrefValue:
		ref = v
	case runtime.StringValue:
		handler, err := c.Host.ResolveFunction(v.Val)
		if err != nil {
			return nil, err
		}
		ref = &runtime.FuncrefValue{Handler: handler, Type: runtime.FuncrefNamed}
	default:
		return nil, errNotCallable(stringify(v))
	}
	list, ok := args[1].(*runtime.ListValue)
	if !ok {
		return nil, errListRequired()
	}
	if len(args) == 3 {
		self, ok := args[2].(*runtime.DictValue)
		if !ok {
			return nil, errDictRequired()
		}
		ref = ref.Bind(self)
	}
	return c.Host.CallFuncref(ref, list.Elements)
}

func builtinExists(c *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	name, err := toString(args[0])
	if err != nil {
		return nil, err
	}
	return boolNumber(c.Host.Exists(name)), nil
}

// exists implements exists(): "*Func", "&option", "$ENV" and variable names,
// optionally followed by dictionary keys ("g:d.key").
func (i *Interpreter) exists(expr string, editor any, frame *Frame) bool {
	if expr == "" {
		return false
	}
	switch expr[0] {
	case '*':
		_, err := i.resolveFunctionName(expr[1:], frame)
		return err == nil
	case '&', '+':
		_, err := i.opts.Options.GetOption(editor, ast.ScopeNone, expr[1:])
		return err == nil
	case '$':
		_, ok := os.LookupEnv(expr[1:])
		return ok
	case ':':
		return false
	}
	path := strings.Split(expr, ".")
	scope, name := ast.SplitScoped(path[0])
	if !scope.IsValid() {
		return false
	}
	value, err := i.lookupVariable(scope, name, editor, frame)
	if err != nil {
		return false
	}
	for _, key := range path[1:] {
		dict, ok := value.(*runtime.DictValue)
		if !ok {
			return false
		}
		if value, ok = dict.Get(key); !ok {
			return false
		}
	}
	return true
}

func builtinGet(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	var fallback runtime.Value = numberValue(0)
	if len(args) == 3 {
		fallback = args[2]
	}
	switch c := args[0].(type) {
	case *runtime.ListValue:
		idx, err := toNumber(args[1])
		if err != nil {
			return nil, err
		}
		if pos, ok := normalizeIndex(idx, len(c.Elements)); ok {
			return c.Elements[pos], nil
		}
		return fallback, nil
	case *runtime.DictValue:
		key, err := toKey(args[1])
		if err != nil {
			return nil, err
		}
		if v, ok := c.Get(key); ok {
			return v, nil
		}
		return fallback, nil
	case *runtime.FuncrefValue:
		what, err := toString(args[1])
		if err != nil {
			return nil, err
		}
		switch what {
		case "name":
			return stringValue(c.Name()), nil
		case "func":
			return &runtime.FuncrefValue{Handler: c.Handler, Type: runtime.FuncrefNamed}, nil
		case "dict":
			if c.Self != nil {
				return c.Self, nil
			}
			return fallback, nil
		case "args":
			return runtime.NewList(append([]runtime.Value(nil), c.Arguments...)), nil
		}
		return nil, errInvalidArgument(what)
	}
	return nil, errArgumentNotContainer("get()")
}

func builtinToUpper(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	s, err := toString(args[0])
	if err != nil {
		return nil, err
	}
	return stringValue(strings.ToUpper(s)), nil
}

func builtinToLower(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	s, err := toString(args[0])
	if err != nil {
		return nil, err
	}
	return stringValue(strings.ToLower(s)), nil
}

func builtinJoin(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	list, ok := args[0].(*runtime.ListValue)
	if !ok {
		return nil, errListRequired()
	}
	sep := " "
	if len(args) == 2 {
		var err error
		if sep, err = toString(args[1]); err != nil {
			return nil, err
		}
	}
	parts := make([]string, len(list.Elements))
	for idx, elem := range list.Elements {
		parts[idx] = displayString(elem)
	}
	return stringValue(strings.Join(parts, sep)), nil
}

var fallbackSplitter = NewRegexpMatcher()

// builtinSplit is split(str [, pattern [, keepempty]]). Empty first and last
// items are dropped unless keepempty is set.
func (i *Interpreter) builtinSplit(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	text, err := toString(args[0])
	if err != nil {
		return nil, err
	}
	pattern := `\s\+`
	if len(args) >= 2 {
		if pattern, err = toString(args[1]); err != nil {
			return nil, err
		}
		if pattern == "" {
			pattern = `\s\+`
		}
	}
	keepEmpty := false
	if len(args) == 3 {
		if keepEmpty, err = isTruthy(args[2]); err != nil {
			return nil, err
		}
	}
	splitter, ok := i.opts.Patterns.(Splitter)
	if !ok {
		splitter = fallbackSplitter
	}
	parts, err := splitter.Split(pattern, text)
	if err != nil {
		return nil, err
	}
	if !keepEmpty {
		if len(parts) > 0 && parts[0] == "" {
			parts = parts[1:]
		}
		if len(parts) > 0 && parts[len(parts)-1] == "" {
			parts = parts[:len(parts)-1]
		}
	}
	out := make([]runtime.Value, len(parts))
	for idx, part := range parts {
		out[idx] = stringValue(part)
	}
	return runtime.NewList(out), nil
}

func builtinRange(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	nums := make([]int64, len(args))
	for idx, arg := range args {
		n, err := toNumber(arg)
		if err != nil {
			return nil, err
		}
		nums[idx] = n
	}
	start, end, stride := int64(0), nums[0]-1, int64(1)
	if len(nums) >= 2 {
		start, end = nums[0], nums[1]
	}
	if len(nums) == 3 {
		stride = nums[2]
	}
	if stride == 0 {
		return nil, errStrideZero()
	}
	if (stride > 0 && end < start-1) || (stride < 0 && end > start+1) {
		return nil, errStartPastEnd()
	}
	var out []runtime.Value
	for n := start; (stride > 0 && n <= end) || (stride < 0 && n >= end); n += stride {
		out = append(out, numberValue(n))
	}
	return runtime.NewList(out), nil
}

func builtinAbs(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	if f, ok := args[0].(runtime.FloatValue); ok {
		return runtime.FloatValue{Val: math.Abs(f.Val)}, nil
	}
	n, err := toNumber(args[0])
	if err != nil {
		return nil, err
	}
	if n == math.MinInt64 {
		return numberValue(math.MaxInt64), nil
	}
	if n < 0 {
		n = -n
	}
	return numberValue(n), nil
}

func builtinMax(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	return extreme(args[0], "max()", func(a, b int64) bool { return a > b })
}

func builtinMin(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	return extreme(args[0], "min()", func(a, b int64) bool { return a < b })
}

func extreme(container runtime.Value, name string, better func(a, b int64) bool) (runtime.Value, error) {
	var items []runtime.Value
	switch c := container.(type) {
	case *runtime.ListValue:
		items = c.Elements
	case *runtime.DictValue:
		for _, key := range c.Keys() {
			v, _ := c.Get(key)
			items = append(items, v)
		}
	default:
		return nil, errArgumentNotContainer(name)
	}
	var best int64
	for idx, item := range items {
		n, err := toNumber(item)
		if err != nil {
			return nil, err
		}
		if idx == 0 || better(n, best) {
			best = n
		}
	}
	return numberValue(best), nil
}

// builtinPrintf supports the conversions scripts commonly use: %s %S %d %x
// %X %o %b %c %f %e %g and %%, with flags, width and precision.
func builtinPrintf(_ *runtime.NativeCallContext, args []runtime.Value) (runtime.Value, error) {
	format, err := toString(args[0])
	if err != nil {
		return nil, err
	}
	rest := args[1:]
	next := func() (runtime.Value, error) {
		if len(rest) == 0 {
			return nil, errPrintfTooFew()
		}
		v := rest[0]
		rest = rest[1:]
		return v, nil
	}
	var b strings.Builder
	for idx := 0; idx < len(format); idx++ {
		ch := format[idx]
		if ch != '%' {
			b.WriteByte(ch)
			continue
		}
		end := idx + 1
		for end < len(format) && strings.IndexByte("-+ #0123456789.*", format[end]) >= 0 {
			end++
		}
		if end >= len(format) {
			b.WriteString(format[idx:])
			break
		}
		spec := format[idx+1 : end]
		verb := format[end]
		idx = end
		if verb == '%' {
			b.WriteByte('%')
			continue
		}
		if strings.Contains(spec, "*") {
			var expanded strings.Builder
			for _, r := range spec {
				if r != '*' {
					expanded.WriteRune(r)
					continue
				}
				v, err := next()
				if err != nil {
					return nil, err
				}
				n, err := toNumber(v)
				if err != nil {
					return nil, err
				}
				expanded.WriteString(formatInt(n))
			}
			spec = expanded.String()
		}
		arg, err := next()
		if err != nil {
			return nil, err
		}
		if err := writePrintfArg(&b, spec, verb, arg); err != nil {
			return nil, err
		}
	}
	if len(rest) > 0 {
		return nil, errPrintfTooMany()
	}
	return stringValue(b.String()), nil
}

func formatInt(n int64) string {
	return strconv.FormatInt(n, 10)
}

func writePrintfArg(b *strings.Builder, spec string, verb byte, arg runtime.Value) error {
	switch verb {
	case 's', 'S':
		b.WriteString(fmt.Sprintf("%"+spec+"s", displayString(arg)))
	case 'd', 'i':
		n, err := toNumber(arg)
		if err != nil {
			return err
		}
		b.WriteString(fmt.Sprintf("%"+spec+"d", n))
	case 'x', 'X', 'o', 'b', 'B':
		n, err := toNumber(arg)
		if err != nil {
			return err
		}
		goVerb := string(verb)
		if verb == 'B' {
			goVerb = "b"
		}
		b.WriteString(fmt.Sprintf("%"+spec+goVerb, n))
	case 'c':
		n, err := toNumber(arg)
		if err != nil {
			return err
		}
		b.WriteString(fmt.Sprintf("%"+spec+"c", rune(n)))
	case 'f', 'F', 'e', 'E', 'g', 'G':
		f, err := toFloat(arg)
		if err != nil {
			return err
		}
		goVerb := string(verb)
		if verb == 'F' {
			goVerb = "f"
		}
		b.WriteString(fmt.Sprintf("%"+spec+goVerb, f))
	default:
		return errInvalidArgument("%" + spec + string(verb))
	}
	return nil
}
