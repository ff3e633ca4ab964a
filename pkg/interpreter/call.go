package interpreter

import (
	"log/slog"
	"strconv"

	"github.com/JetBrains/ideavim-sub001/pkg/ast"
	"github.com/JetBrains/ideavim-sub001/pkg/runtime"
)

// callRange is the line range a function is called with.
type callRange struct {
	first int
	last  int
}

// ExecuteFunction calls handler from the command-line context. The result is
// runtime.VoidValue when a user function ends without :return.
func (i *Interpreter) ExecuteFunction(editor, ctx any, handler runtime.Handler, args []runtime.Value, self *runtime.DictValue) (runtime.Value, error) {
	ref := &runtime.FuncrefValue{Handler: handler, Self: self, Type: runtime.FuncrefNamed}
	return i.callFunction(ref, args, editor, ctx, CommandLineFrame(), nil)
}

// CallFunction invokes ref with args from the context of frame.
func (i *Interpreter) CallFunction(ref *runtime.FuncrefValue, args []runtime.Value, editor, ctx any, frame *Frame) (runtime.Value, error) {
	return i.callFunction(ref, args, editor, ctx, frame, nil)
}

func (i *Interpreter) callFunction(ref *runtime.FuncrefValue, args []runtime.Value, editor, ctx any, frame *Frame, rng *callRange) (runtime.Value, error) {
	if ref == nil || ref.Handler == nil {
		return nil, errUnknownFunction("")
	}
	all := args
	if len(ref.Arguments) > 0 {
		all = make([]runtime.Value, 0, len(ref.Arguments)+len(args))
		all = append(all, ref.Arguments...)
		all = append(all, args...)
	}
	switch handler := ref.Handler.(type) {
	case *runtime.NativeFunction:
		return i.callNative(handler, all, ref.Self, editor, ctx, frame)
	case *runtime.UserFunction:
		return i.callUser(handler, all, ref.Self, editor, ctx, frame, rng)
	}
	return nil, errUnknownFunction(ref.Name())
}

func (i *Interpreter) callNative(fn *runtime.NativeFunction, args []runtime.Value, self *runtime.DictValue, editor, ctx any, frame *Frame) (runtime.Value, error) {
	if len(args) < fn.MinArgs {
		return nil, errNotEnoughArguments(fn.Name)
	}
	if fn.MaxArgs >= 0 && len(args) > fn.MaxArgs {
		return nil, errTooManyArguments(fn.Name)
	}
	callCtx := &runtime.NativeCallContext{
		Editor:  editor,
		Context: ctx,
		Self:    self,
		Host:    &callHost{interp: i, editor: editor, ctx: ctx, frame: frame},
	}
	return fn.Impl(callCtx, args)
}

func (i *Interpreter) callUser(fn *runtime.UserFunction, args []runtime.Value, self *runtime.DictValue, editor, ctx any, frame *Frame, rng *callRange) (runtime.Value, error) {
	name := fn.HandlerName()
	if fn.Deleted() {
		return nil, errFunctionDeleted(name)
	}
	if frame.depth >= i.maxCallDepth(editor) {
		return nil, errCallDepth()
	}
	if fn.Flags.Has(ast.FlagDict) && self == nil {
		return nil, errDictWithoutSelf(name)
	}
	sig := fn.Signature
	required, optional := sig.Arity()
	if len(args) < required {
		return nil, errNotEnoughArguments(name)
	}
	if !sig.Variadic && len(args) > required+optional {
		return nil, errTooManyArguments(name)
	}

	argStore := runtime.NewStore(fn.ClosureArgs)
	locals := runtime.NewStore(fn.Closure)
	first, last := i.lineRange(editor, rng)
	callee := frame.functionFrame(fn, argStore, locals, first, last)

	for idx, param := range sig.Params {
		argStore.Define(param, args[idx])
		// Lambda bodies name their parameters without a:.
		if fn.Lambda {
			locals.Define(param, args[idx])
		}
	}
	// Defaults see the earlier arguments because they run in the callee frame.
	for j, def := range sig.Defaults {
		pos := required + j
		if pos < len(args) && !isNone(args[pos]) {
			argStore.Define(def.Name, args[pos])
			continue
		}
		value, err := i.Evaluate(def.Value, editor, ctx, callee)
		if err != nil {
			return nil, err
		}
		argStore.Define(def.Name, value)
	}
	if sig.Variadic {
		var rest []runtime.Value
		if len(args) > required+optional {
			rest = append(rest, args[required+optional:]...)
		}
		argStore.Define("000", runtime.NewList(rest))
		argStore.Define("0", numberValue(int64(len(rest))))
		for k, v := range rest {
			argStore.Define(strconv.Itoa(k+1), v)
		}
	}
	argStore.Define("firstline", numberValue(int64(first)))
	argStore.Define("lastline", numberValue(int64(last)))
	if fn.Flags.Has(ast.FlagDict) {
		locals.Define("self", self)
	}

	if debugEnabled(i.logger) {
		i.logger.Debug("call function", slog.String("name", name), slog.Int("depth", callee.depth), slog.Int("args", len(args)))
	}
	result, err := i.executeBody(sig.Body, editor, ctx, callee)
	if err != nil {
		if scriptErr, ok := asScriptError(err); ok && scriptErr.Throwpoint == "" {
			scriptErr.Throwpoint = "function " + name
		}
		return nil, err
	}
	switch result.Kind {
	case ResultReturn:
		if result.Value == nil {
			return runtime.VoidValue{}, nil
		}
		return result.Value, nil
	case ResultError:
		return nil, &ScriptError{Message: displayString(result.Value), Throwpoint: "function " + name, reported: true}
	case ResultFinish:
		return nil, errFinishOutsideSource()
	case ResultBreak:
		return nil, errBreakOutsideLoop()
	case ResultContinue:
		return nil, errContinueOutsideLoop()
	}
	return runtime.VoidValue{}, nil
}

// maxCallDepth reads &maxfuncdepth, falling back to Options.MaxCallDepth when
// the option store has no usable value.
func (i *Interpreter) maxCallDepth(editor any) int {
	v, err := i.opts.Options.GetOption(editor, ast.ScopeNone, "maxfuncdepth")
	if err != nil {
		return i.opts.MaxCallDepth
	}
	n, err := toNumber(v)
	if err != nil || n <= 0 {
		return i.opts.MaxCallDepth
	}
	return int(n)
}

// lineRange defaults to the editor's cursor line, or line 1 when the editor
// does not report one.
func (i *Interpreter) lineRange(editor any, rng *callRange) (int, int) {
	if rng != nil {
		return rng.first, rng.last
	}
	line := 1
	if lp, ok := editor.(LineProvider); ok {
		line = lp.CurrentLine()
	}
	return line, line
}

// prepareCall resolves the callee of a call expression and evaluates its
// arguments, callee first.
func (i *Interpreter) prepareCall(expr ast.Expression, editor, ctx any, frame *Frame) (*runtime.FuncrefValue, []runtime.Value, error) {
	var (
		ref      *runtime.FuncrefValue
		argExprs []ast.Expression
		err      error
	)
	switch call := expr.(type) {
	case *ast.FunctionCall:
		ref, err = i.resolveCallee(call.Scope, call.Name, editor, frame)
		argExprs = call.Arguments
	case *ast.FuncrefCall:
		ref, err = i.resolveFuncrefCallee(call.Callee, editor, ctx, frame)
		argExprs = call.Arguments
	default:
		return nil, nil, errInvalidExpression(ast.FormatExpression(expr))
	}
	if err != nil {
		return nil, nil, err
	}
	args, err := i.evaluateAll(argExprs, editor, ctx, frame)
	if err != nil {
		return nil, nil, err
	}
	return ref, args, nil
}

// resolveCallee finds the function a named call refers to. When no function
// matches, a variable of the same name holding a funcref is called instead.
func (i *Interpreter) resolveCallee(scope ast.Scope, name string, editor any, frame *Frame) (*runtime.FuncrefValue, error) {
	switch scope {
	case ast.ScopeNone, ast.ScopeGlobal, ast.ScopeScript:
		handler, err := i.LookupFunction(scope, name, frame)
		if err == nil {
			return &runtime.FuncrefValue{Handler: handler, Type: runtime.FuncrefNamed}, nil
		}
		if v, verr := i.lookupVariable(scope, name, editor, frame); verr == nil {
			if ref, ok := v.(*runtime.FuncrefValue); ok {
				return ref, nil
			}
		}
		return nil, err
	}
	v, err := i.lookupVariable(scope, name, editor, frame)
	if err != nil {
		return nil, errUnknownFunction(displayName(scope, name))
	}
	ref, ok := v.(*runtime.FuncrefValue)
	if !ok {
		return nil, errUnknownFunction(displayName(scope, name))
	}
	return ref, nil
}

// resolveFuncrefCallee evaluates the callee of `expr(...)`. Calling through a
// dictionary entry binds the dictionary as self unless the funcref is a
// partial with its own binding.
func (i *Interpreter) resolveFuncrefCallee(callee ast.Expression, editor, ctx any, frame *Frame) (*runtime.FuncrefValue, error) {
	if index, ok := callee.(*ast.IndexExpression); ok {
		container, err := i.Evaluate(index.Target, editor, ctx, frame)
		if err != nil {
			return nil, err
		}
		value, err := i.indexValue(container, index, editor, ctx, frame)
		if err != nil {
			return nil, err
		}
		ref, ok := value.(*runtime.FuncrefValue)
		if !ok {
			return nil, errNotCallable(ast.FormatExpression(callee))
		}
		if dict, ok := container.(*runtime.DictValue); ok && (ref.Self == nil || ref.Type != runtime.FuncrefPartial) {
			bound := *ref
			bound.Self = dict
			return &bound, nil
		}
		return ref, nil
	}
	value, err := i.Evaluate(callee, editor, ctx, frame)
	if err != nil {
		return nil, err
	}
	ref, ok := value.(*runtime.FuncrefValue)
	if !ok {
		return nil, errNotCallable(ast.FormatExpression(callee))
	}
	return ref, nil
}

// callHost lets built-ins call back into the interpreter from the frame they
// were invoked in.
type callHost struct {
	interp *Interpreter
	editor any
	ctx    any
	frame  *Frame
}

func (h *callHost) CallFuncref(fn *runtime.FuncrefValue, args []runtime.Value) (runtime.Value, error) {
	v, err := h.interp.callFunction(fn, args, h.editor, h.ctx, h.frame, nil)
	if err != nil {
		return nil, err
	}
	return exprValue(v), nil
}

func (h *callHost) ResolveFunction(name string) (runtime.Handler, error) {
	return h.interp.resolveFunctionName(name, h.frame)
}

func (h *callHost) Exists(expr string) bool {
	return h.interp.exists(expr, h.editor, h.frame)
}
