package interpreter

import (
	"github.com/JetBrains/ideavim-sub001/pkg/ast"
	"github.com/JetBrains/ideavim-sub001/pkg/runtime"
)

// executeTry runs :try. Which exits reach the finally clause depends on
// Options.FinallyPolicy; see FinallyInherited and FinallyAlways.
func (i *Interpreter) executeTry(n *ast.TryStatement, editor, ctx any, frame *Frame) (ExecutionResult, error) {
	always := i.opts.FinallyPolicy == FinallyAlways
	result, err := i.executeBody(n.Body, editor, ctx, frame.withTry())

	var pending error
	switch {
	case err != nil:
		clause, matchErr := i.matchCatch(n.Catches, err)
		if matchErr != nil {
			pending = matchErr
			break
		}
		if clause == nil {
			pending = err
			break
		}
		scriptErr, _ := asScriptError(err)
		result, err = i.executeCatch(clause, scriptErr, editor, ctx, frame)
		if err != nil {
			if !always {
				return result, err
			}
			pending = err
		} else if !result.IsSuccess() && result.Kind != ResultFinish && !always {
			return result, nil
		}
	case !result.IsSuccess() && result.Kind != ResultFinish && !always:
		return result, nil
	}

	if n.Finally != nil {
		finalResult, finalErr := i.executeBody(n.Finally.Body, editor, ctx, frame)
		if finalErr != nil {
			return finalResult, finalErr
		}
		if !finalResult.IsSuccess() {
			if pending != nil && !always {
				return success, pending
			}
			return finalResult, nil
		}
	}
	if pending != nil {
		return success, pending
	}
	return result, nil
}

// matchCatch finds the first catch clause whose pattern matches the raised
// error. Errors that are not script errors are never caught.
func (i *Interpreter) matchCatch(catches []*ast.CatchClause, err error) (*ast.CatchClause, error) {
	if isNotSupported(err) {
		return nil, nil
	}
	scriptErr, ok := asScriptError(err)
	if !ok {
		return nil, nil
	}
	for _, clause := range catches {
		if clause.Pattern == "" {
			return clause, nil
		}
		// Catch patterns ignore 'ignorecase'.
		matched, matchErr := i.opts.Patterns.Matches(clause.Pattern, scriptErr.Message, false)
		if matchErr != nil {
			return nil, matchErr
		}
		if matched {
			return clause, nil
		}
	}
	return nil, nil
}

// executeCatch runs a catch body in a frame carrying the caught error, so
// v:exception and v:throwpoint are private to this execution.
func (i *Interpreter) executeCatch(clause *ast.CatchClause, caught *ScriptError, editor, ctx any, frame *Frame) (ExecutionResult, error) {
	return i.executeBody(clause.Body, editor, ctx, frame.withCaught(caught))
}

// caughtVariable resolves v:exception and v:throwpoint from the frame chain.
// Both are empty outside a catch body.
func caughtVariable(name string, frame *Frame) (runtime.Value, bool) {
	switch name {
	case "exception":
		if frame.caught == nil {
			return runtime.StringValue{}, true
		}
		return runtime.StringValue{Val: frame.caught.Message}, true
	case "throwpoint":
		if frame.caught == nil {
			return runtime.StringValue{}, true
		}
		return runtime.StringValue{Val: frame.caught.Throwpoint}, true
	}
	return nil, false
}
