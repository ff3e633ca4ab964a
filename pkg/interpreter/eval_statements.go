package interpreter

import (
	"fmt"
	"strings"

	"github.com/JetBrains/ideavim-sub001/pkg/ast"
	"github.com/JetBrains/ideavim-sub001/pkg/runtime"
)

// Execute runs one executable in frame. Raised script errors come back on the
// error return; everything else, including :return and :finish, is a result.
func (i *Interpreter) Execute(stmt ast.Executable, editor, ctx any, frame *Frame) (ExecutionResult, error) {
	if frame == nil {
		frame = CommandLineFrame()
	}
	switch n := stmt.(type) {
	case nil:
		return success, nil
	case *ast.Sequence:
		return i.executeBody(n.Body, editor, ctx, frame)
	case *ast.IfStatement:
		return i.executeIf(n, editor, ctx, frame)
	case *ast.TryStatement:
		return i.executeTry(n, editor, ctx, frame)
	case *ast.ThrowStatement:
		return success, i.executeThrow(n, editor, ctx, frame)
	case *ast.ReturnStatement:
		return i.executeReturn(n, editor, ctx, frame)
	case *ast.FunctionDeclaration:
		if _, err := i.DeclareFunction(n, frame); err != nil {
			return success, err
		}
		return success, nil
	case *ast.AnonymousFunctionDeclaration:
		return success, i.declareAnonymous(n, editor, ctx, frame)
	case *ast.DelFunctionStatement:
		return success, i.executeDelFunction(n, frame)
	case *ast.LetStatement:
		return success, i.executeLet(n, editor, ctx, frame)
	case *ast.UnletStatement:
		return success, i.executeUnlet(n, editor, ctx, frame)
	case *ast.CallStatement:
		return success, i.executeCall(n, editor, ctx, frame)
	case *ast.EchoStatement:
		return i.executeEcho(n, editor, ctx, frame)
	case *ast.WhileStatement:
		return i.executeWhile(n, editor, ctx, frame)
	case *ast.ForStatement:
		return i.executeFor(n, editor, ctx, frame)
	case *ast.BreakStatement:
		if frame.loopDepth == 0 {
			return success, errBreakOutsideLoop()
		}
		return breakResult, nil
	case *ast.ContinueStatement:
		if frame.loopDepth == 0 {
			return success, errContinueOutsideLoop()
		}
		return continueResult, nil
	case *ast.FinishStatement:
		return finishResult, nil
	case *ast.UnsupportedStatement:
		return success, &NotSupportedError{Text: n.Text}
	default:
		return success, fmt.Errorf("interpreter: unsupported executable %s", stmt.NodeType())
	}
}

// executeBody runs stmts in order and stops at the first result that is not
// Success.
func (i *Interpreter) executeBody(stmts []ast.Executable, editor, ctx any, frame *Frame) (ExecutionResult, error) {
	for _, stmt := range stmts {
		result, err := i.Execute(stmt, editor, ctx, frame)
		if err != nil {
			return result, err
		}
		if !result.IsSuccess() {
			return result, nil
		}
	}
	return success, nil
}

func (i *Interpreter) executeIf(n *ast.IfStatement, editor, ctx any, frame *Frame) (ExecutionResult, error) {
	for _, branch := range n.Branches {
		cond, err := i.Evaluate(branch.Condition, editor, ctx, frame)
		if err != nil {
			return success, err
		}
		truthy, err := isTruthy(cond)
		if err != nil {
			return success, err
		}
		if truthy {
			return i.executeBody(branch.Body, editor, ctx, frame)
		}
	}
	if n.Else != nil {
		return i.executeBody(n.Else, editor, ctx, frame)
	}
	return success, nil
}

func (i *Interpreter) executeThrow(n *ast.ThrowStatement, editor, ctx any, frame *Frame) error {
	value, err := i.Evaluate(n.Expression, editor, ctx, frame)
	if err != nil {
		return err
	}
	message, err := toString(value)
	if err != nil {
		return err
	}
	if message == "" || hasVimPrefix(message) {
		return errThrowVimPrefix()
	}
	return newThrownError(message)
}

// hasVimPrefix matches the exception names Vim reserves for its own errors:
// "Vim", "Vim:..." and "Vim(...".
func hasVimPrefix(message string) bool {
	if !strings.HasPrefix(message, "Vim") {
		return false
	}
	rest := message[len("Vim"):]
	return rest == "" || rest[0] == ':' || rest[0] == '('
}

func (i *Interpreter) executeReturn(n *ast.ReturnStatement, editor, ctx any, frame *Frame) (ExecutionResult, error) {
	if !frame.InFunction() {
		return success, errReturnOutsideFunction()
	}
	if n.Argument == nil {
		return returnResult(nil), nil
	}
	value, err := i.Evaluate(n.Argument, editor, ctx, frame)
	if err != nil {
		return success, err
	}
	return returnResult(value), nil
}

func (i *Interpreter) executeDelFunction(n *ast.DelFunctionStatement, frame *Frame) error {
	err := i.DeleteFunction(n.Name, n.Scope, frame)
	if err == nil || !n.Bang {
		return err
	}
	if scriptErr, ok := asScriptError(err); ok && scriptErr.Code == "E130" {
		return nil
	}
	return err
}

// executeCall runs `:call`. With a range, a function without the range flag
// is called once per line with the cursor moved there when the editor is a
// LineMover; a:firstline and a:lastline always carry the whole range.
func (i *Interpreter) executeCall(n *ast.CallStatement, editor, ctx any, frame *Frame) error {
	ref, args, err := i.prepareCall(n.Call, editor, ctx, frame)
	if err != nil {
		return err
	}
	if n.Range == nil {
		_, err = i.callFunction(ref, args, editor, ctx, frame, nil)
		return err
	}
	rng, err := i.evaluateRange(n.Range, editor, ctx, frame)
	if err != nil {
		return err
	}
	fn, isUser := ref.Handler.(*runtime.UserFunction)
	if !isUser || fn.Flags.Has(ast.FlagRange) {
		_, err = i.callFunction(ref, args, editor, ctx, frame, rng)
		return err
	}
	mover, _ := editor.(LineMover)
	for line := rng.first; line <= rng.last; line++ {
		if mover != nil {
			mover.SetCurrentLine(line)
		}
		if _, err := i.callFunction(ref, args, editor, ctx, frame, rng); err != nil {
			return err
		}
	}
	return nil
}

func (i *Interpreter) evaluateRange(r *ast.LineRange, editor, ctx any, frame *Frame) (*callRange, error) {
	firstVal, err := i.Evaluate(r.First, editor, ctx, frame)
	if err != nil {
		return nil, err
	}
	first, err := toNumber(firstVal)
	if err != nil {
		return nil, err
	}
	last := first
	if r.Last != nil {
		lastVal, err := i.Evaluate(r.Last, editor, ctx, frame)
		if err != nil {
			return nil, err
		}
		if last, err = toNumber(lastVal); err != nil {
			return nil, err
		}
	}
	if last < first {
		return nil, errBackwardsRange()
	}
	return &callRange{first: int(first), last: int(last)}, nil
}

// executeEcho implements :echo, :echomsg and :echoerr. Inside a try, :echoerr
// raises "Vim(echoerr):<text>" like any other error; outside it shows the
// message and fails the statement.
func (i *Interpreter) executeEcho(n *ast.EchoStatement, editor, ctx any, frame *Frame) (ExecutionResult, error) {
	parts := make([]string, 0, len(n.Arguments))
	for _, arg := range n.Arguments {
		value, err := i.Evaluate(arg, editor, ctx, frame)
		if err != nil {
			return success, err
		}
		if n.Kind == ast.EchoKindPlain {
			parts = append(parts, displayString(value))
			continue
		}
		// :echomsg and :echoerr use string() for containers only.
		switch value.(type) {
		case *runtime.ListValue, *runtime.DictValue, *runtime.FuncrefValue, runtime.FloatValue:
			parts = append(parts, stringify(value))
		default:
			s, err := toString(value)
			if err != nil {
				return success, err
			}
			parts = append(parts, s)
		}
	}
	text := strings.Join(parts, " ")
	switch n.Kind {
	case ast.EchoKindErr:
		if frame.tryDepth > 0 {
			return success, newThrownError("Vim(echoerr):" + text)
		}
		i.opts.Messages.ShowErrorMessage(editor, text)
		return errorResult(text), nil
	default:
		i.opts.Messages.ShowMessage(editor, text)
		return success, nil
	}
}

func (i *Interpreter) executeWhile(n *ast.WhileStatement, editor, ctx any, frame *Frame) (ExecutionResult, error) {
	inner := frame.withLoop()
	for {
		cond, err := i.Evaluate(n.Condition, editor, ctx, frame)
		if err != nil {
			return success, err
		}
		truthy, err := isTruthy(cond)
		if err != nil {
			return success, err
		}
		if !truthy {
			return success, nil
		}
		result, err := i.executeBody(n.Body, editor, ctx, inner)
		if err != nil {
			return result, err
		}
		switch result.Kind {
		case ResultBreak:
			return success, nil
		case ResultSuccess, ResultContinue:
			continue
		default:
			return result, nil
		}
	}
}

// executeFor iterates a List (or the characters of a String). Items appended
// to the list during the loop are visited; the length is re-read each round.
func (i *Interpreter) executeFor(n *ast.ForStatement, editor, ctx any, frame *Frame) (ExecutionResult, error) {
	iterable, err := i.Evaluate(n.Iterable, editor, ctx, frame)
	if err != nil {
		return success, err
	}
	var items func(int) (runtime.Value, bool)
	switch it := iterable.(type) {
	case *runtime.ListValue:
		items = func(idx int) (runtime.Value, bool) {
			if idx >= len(it.Elements) {
				return nil, false
			}
			return it.Elements[idx], true
		}
	case runtime.StringValue:
		chars := []rune(it.Val)
		items = func(idx int) (runtime.Value, bool) {
			if idx >= len(chars) {
				return nil, false
			}
			return stringValue(string(chars[idx])), true
		}
	default:
		return success, errListRequired()
	}
	inner := frame.withLoop()
	for idx := 0; ; idx++ {
		item, ok := items(idx)
		if !ok {
			return success, nil
		}
		if err := i.bindForTargets(n.Targets, item, editor, frame); err != nil {
			return success, err
		}
		result, err := i.executeBody(n.Body, editor, ctx, inner)
		if err != nil {
			return result, err
		}
		switch result.Kind {
		case ResultBreak:
			return success, nil
		case ResultSuccess, ResultContinue:
			continue
		default:
			return result, nil
		}
	}
}

func (i *Interpreter) bindForTargets(targets []*ast.Variable, item runtime.Value, editor any, frame *Frame) error {
	if len(targets) == 1 {
		return i.assignVariable(targets[0].Scope, targets[0].Name, item, editor, frame)
	}
	list, ok := item.(*runtime.ListValue)
	if !ok {
		return errListRequired()
	}
	if len(list.Elements) > len(targets) {
		return errFewerTargets()
	}
	if len(list.Elements) < len(targets) {
		return errMoreTargets()
	}
	for idx, target := range targets {
		if err := i.assignVariable(target.Scope, target.Name, list.Elements[idx], editor, frame); err != nil {
			return err
		}
	}
	return nil
}
