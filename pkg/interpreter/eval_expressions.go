package interpreter

import (
	"fmt"
	"os"

	"github.com/JetBrains/ideavim-sub001/pkg/ast"
	"github.com/JetBrains/ideavim-sub001/pkg/runtime"
)

// Evaluate computes the value of expr in frame. Function results that carry no
// value read as the Number 0.
func (i *Interpreter) Evaluate(expr ast.Expression, editor, ctx any, frame *Frame) (runtime.Value, error) {
	if frame == nil {
		frame = CommandLineFrame()
	}
	switch n := expr.(type) {
	case nil:
		return nil, fmt.Errorf("interpreter: nil expression")
	case *ast.NumberLiteral:
		return numberValue(n.Value), nil
	case *ast.FloatLiteral:
		return runtime.FloatValue{Val: n.Value}, nil
	case *ast.StringLiteral:
		return stringValue(n.Value), nil
	case *ast.ListLiteral:
		elems, err := i.evaluateAll(n.Elements, editor, ctx, frame)
		if err != nil {
			return nil, err
		}
		return runtime.NewList(elems), nil
	case *ast.DictLiteral:
		return i.evaluateDictLiteral(n, editor, ctx, frame)
	case *ast.Variable:
		return i.lookupVariable(n.Scope, n.Name, editor, frame)
	case *ast.OptionExpression:
		return i.opts.Options.GetOption(editor, n.Scope, n.Name)
	case *ast.EnvVariable:
		return stringValue(os.Getenv(n.Name)), nil
	case *ast.IndexExpression:
		container, err := i.Evaluate(n.Target, editor, ctx, frame)
		if err != nil {
			return nil, err
		}
		return i.indexValue(container, n, editor, ctx, frame)
	case *ast.SliceExpression:
		return i.evaluateSlice(n, editor, ctx, frame)
	case *ast.FunctionCall, *ast.FuncrefCall:
		ref, args, err := i.prepareCall(n, editor, ctx, frame)
		if err != nil {
			return nil, err
		}
		v, err := i.callFunction(ref, args, editor, ctx, frame, nil)
		if err != nil {
			return nil, err
		}
		return exprValue(v), nil
	case *ast.BinaryExpression:
		return i.evaluateBinary(n, editor, ctx, frame)
	case *ast.UnaryExpression:
		operand, err := i.Evaluate(n.Operand, editor, ctx, frame)
		if err != nil {
			return nil, err
		}
		return applyUnary(n.Operator, operand)
	case *ast.TernaryExpression:
		cond, err := i.Evaluate(n.Condition, editor, ctx, frame)
		if err != nil {
			return nil, err
		}
		truthy, err := isTruthy(cond)
		if err != nil {
			return nil, err
		}
		if truthy {
			return i.Evaluate(n.Then, editor, ctx, frame)
		}
		return i.Evaluate(n.Else, editor, ctx, frame)
	case *ast.LambdaExpression:
		return i.makeLambda(n, frame), nil
	default:
		return nil, errInvalidExpression(ast.FormatExpression(expr))
	}
}

func (i *Interpreter) evaluateAll(exprs []ast.Expression, editor, ctx any, frame *Frame) ([]runtime.Value, error) {
	out := make([]runtime.Value, 0, len(exprs))
	for _, expr := range exprs {
		v, err := i.Evaluate(expr, editor, ctx, frame)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (i *Interpreter) evaluateDictLiteral(n *ast.DictLiteral, editor, ctx any, frame *Frame) (runtime.Value, error) {
	dict := runtime.NewDict()
	for _, entry := range n.Entries {
		keyVal, err := i.Evaluate(entry.Key, editor, ctx, frame)
		if err != nil {
			return nil, err
		}
		key, err := toKey(keyVal)
		if err != nil {
			return nil, err
		}
		value, err := i.Evaluate(entry.Value, editor, ctx, frame)
		if err != nil {
			return nil, err
		}
		dict.Set(key, value)
	}
	return dict, nil
}

// indexValue reads container[index] (or container.key) for an already
// evaluated container.
func (i *Interpreter) indexValue(container runtime.Value, n *ast.IndexExpression, editor, ctx any, frame *Frame) (runtime.Value, error) {
	if n.Dot {
		if _, ok := container.(*runtime.DictValue); !ok {
			return nil, errDotRequiresDict(ast.FormatExpression(n))
		}
	}
	indexVal, err := i.Evaluate(n.Index, editor, ctx, frame)
	if err != nil {
		return nil, err
	}
	switch c := container.(type) {
	case *runtime.ListValue:
		idx, err := toNumber(indexVal)
		if err != nil {
			return nil, err
		}
		pos, ok := normalizeIndex(idx, len(c.Elements))
		if !ok {
			return nil, errListIndexOutOfRange(idx)
		}
		return c.Elements[pos], nil
	case *runtime.DictValue:
		key, err := toKey(indexVal)
		if err != nil {
			return nil, err
		}
		v, ok := c.Get(key)
		if !ok {
			return nil, errKeyNotPresent(key)
		}
		return v, nil
	case runtime.StringValue, runtime.NumberValue:
		s, _ := toString(c)
		idx, err := toNumber(indexVal)
		if err != nil {
			return nil, err
		}
		if idx < 0 || idx >= int64(len(s)) {
			return stringValue(""), nil
		}
		return stringValue(s[idx : idx+1]), nil
	case runtime.FloatValue:
		return nil, errFloatAsString()
	case *runtime.FuncrefValue:
		return nil, errCannotIndexFuncref()
	case runtime.BoolValue, runtime.SpecialValue:
		return nil, errCannotIndexSpecial()
	}
	return nil, errIndexRequiresContainer()
}

func (i *Interpreter) evaluateSlice(n *ast.SliceExpression, editor, ctx any, frame *Frame) (runtime.Value, error) {
	container, err := i.Evaluate(n.Target, editor, ctx, frame)
	if err != nil {
		return nil, err
	}
	from, to, err := i.sliceBounds(n, editor, ctx, frame)
	if err != nil {
		return nil, err
	}
	switch c := container.(type) {
	case *runtime.ListValue:
		start, end := sliceRange(from, to, len(c.Elements))
		out := make([]runtime.Value, 0, end-start)
		out = append(out, c.Elements[start:end]...)
		return runtime.NewList(out), nil
	case runtime.StringValue, runtime.NumberValue:
		s, _ := toString(c)
		start, end := sliceRange(from, to, len(s))
		return stringValue(s[start:end]), nil
	case *runtime.DictValue:
		return nil, errCannotSliceDict()
	case runtime.FloatValue:
		return nil, errFloatAsString()
	case *runtime.FuncrefValue:
		return nil, errCannotIndexFuncref()
	}
	return nil, errIndexRequiresContainer()
}

// sliceBounds evaluates the optional bounds of a slice; a missing upper bound
// is reported as -1, which is "through the end".
func (i *Interpreter) sliceBounds(n *ast.SliceExpression, editor, ctx any, frame *Frame) (int64, int64, error) {
	var from, to int64 = 0, -1
	if n.From != nil {
		v, err := i.Evaluate(n.From, editor, ctx, frame)
		if err != nil {
			return 0, 0, err
		}
		if from, err = toNumber(v); err != nil {
			return 0, 0, err
		}
	}
	if n.To != nil {
		v, err := i.Evaluate(n.To, editor, ctx, frame)
		if err != nil {
			return 0, 0, err
		}
		if to, err = toNumber(v); err != nil {
			return 0, 0, err
		}
	}
	return from, to, nil
}

// sliceRange turns inclusive, possibly negative bounds into a half-open range
// clamped to length. An empty range comes back as start == end.
func sliceRange(from, to int64, length int) (int, int) {
	if from < 0 {
		from += int64(length)
		if from < 0 {
			from = 0
		}
	}
	if to < 0 {
		to += int64(length)
	}
	if to >= int64(length) {
		to = int64(length) - 1
	}
	if from >= int64(length) || to < from {
		return 0, 0
	}
	return int(from), int(to) + 1
}

// makeLambda builds `{params -> body}` as a closure named <lambda>N. The
// returned funcref owns the function; the registry only tracks it weakly.
func (i *Interpreter) makeLambda(n *ast.LambdaExpression, frame *Frame) runtime.Value {
	sig := &ast.FunctionSignature{
		Params: n.Params,
		Body:   []ast.Executable{ast.NewReturnStatement(n.Body)},
		Flags:  ast.FlagClosure,
	}
	fn := &runtime.UserFunction{
		Name:      "<lambda>" + i.nextAnonymousName(),
		Scope:     ast.ScopeGlobal,
		Signature: sig,
		Flags:     ast.FlagClosure,
		Script:    frame.script,
		Lambda:    true,
	}
	if frame.InFunction() {
		fn.Closure = frame.locals
		fn.ClosureArgs = frame.args
	}
	i.registerLambda(fn)
	return &runtime.FuncrefValue{Handler: fn, Type: runtime.FuncrefAnonymous}
}
