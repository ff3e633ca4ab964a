package interpreter

import (
	"log/slog"

	"github.com/JetBrains/ideavim-sub001/pkg/ast"
	"github.com/JetBrains/ideavim-sub001/pkg/runtime"
)

// declareAnonymous installs `function dict.key(...)`: a numbered dict function
// whose funcref is stored in the dictionary entry.
func (i *Interpreter) declareAnonymous(n *ast.AnonymousFunctionDeclaration, editor, ctx any, frame *Frame) error {
	target := n.Target
	if target == nil {
		return errInvalidArgument("function")
	}
	container, err := i.Evaluate(target.Target, editor, ctx, frame)
	if err != nil {
		return err
	}
	dict, ok := container.(*runtime.DictValue)
	if !ok {
		return errDotRequiresDict(ast.FormatExpression(target))
	}
	keyVal, err := i.Evaluate(target.Index, editor, ctx, frame)
	if err != nil {
		return err
	}
	key, err := toKey(keyVal)
	if err != nil {
		return err
	}

	var replaced *runtime.UserFunction
	if existing, ok := dict.Get(key); ok {
		ref, isRef := existing.(*runtime.FuncrefValue)
		if !isRef {
			return errFuncrefRequired()
		}
		if !n.Replace {
			return errEntryExists()
		}
		if fn, ok := ref.Handler.(*runtime.UserFunction); ok && ref.Type == runtime.FuncrefAnonymous {
			replaced = fn
		}
	}

	sig := n.FunctionSignature
	sig.Flags |= ast.FlagDict
	fn := &runtime.UserFunction{
		Name:      i.nextAnonymousName(),
		Scope:     ast.ScopeGlobal,
		Signature: &sig,
		Flags:     sig.Flags,
		Script:    frame.script,
	}
	if sig.Flags.Has(ast.FlagClosure) {
		if !frame.InFunction() {
			return errClosureAtTopLevel(ast.FormatExpression(target))
		}
		fn.Closure = frame.locals
		fn.ClosureArgs = frame.args
	}

	i.mu.Lock()
	if replaced != nil && i.globalFuncs[replaced.Name] == replaced {
		replaced.MarkDeleted()
		delete(i.globalFuncs, replaced.Name)
	}
	i.globalFuncs[fn.Name] = fn
	i.mu.Unlock()

	dict.Set(key, &runtime.FuncrefValue{Handler: fn, Self: dict, Type: runtime.FuncrefAnonymous})
	i.logger.Debug("declared dict function", slog.String("name", fn.Name), slog.String("key", key))
	return nil
}
