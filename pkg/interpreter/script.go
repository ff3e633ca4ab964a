package interpreter

import (
	"errors"
	"log/slog"

	"github.com/JetBrains/ideavim-sub001/pkg/ast"
)

// ScriptResult summarises one ExecuteScript run. Failed is set when any unit
// ended in an error; Errors holds them in order.
type ScriptResult struct {
	Failed   bool
	Finished bool
	Errors   []error
}

// Err joins the unit errors, or returns nil for a clean run.
func (r ScriptResult) Err() error {
	return errors.Join(r.Errors...)
}

// ExecuteScript runs the units of script in order. A failing unit is reported
// and the next unit still runs; :finish stops the script without failing it.
func (i *Interpreter) ExecuteScript(script *ast.Script, editor, ctx any) ScriptResult {
	var res ScriptResult
	if script == nil {
		return res
	}
	frame := ScriptFrame(script)
	for idx, unit := range script.Units {
		if unit == nil || unit.Body == nil {
			continue
		}
		if !i.opts.SkipHistory && unit.Source != "" {
			i.opts.History.AddEntry(unit.Source)
		}
		result, err := i.Execute(unit.Body, editor, ctx, frame)
		if err != nil {
			if !isNotSupported(err) {
				res.Failed = true
				res.Errors = append(res.Errors, err)
			}
			i.logger.Debug("unit failed", slog.String("script", script.Name()), slog.Int("unit", idx), slog.String("error", err.Error()))
			i.reportError(editor, script, err)
			continue
		}
		switch result.Kind {
		case ResultFinish:
			res.Finished = true
			return res
		case ResultError:
			res.Failed = true
			res.Errors = append(res.Errors, &ScriptError{Message: displayString(result.Value), reported: true})
		}
	}
	return res
}

// ExecuteCommand runs a single executable typed on the command line. Errors
// are reported the same way script errors are, and returned.
func (i *Interpreter) ExecuteCommand(stmt ast.Executable, editor, ctx any) error {
	if !i.opts.SkipHistory {
		i.opts.History.AddEntry(ast.Format(stmt))
	}
	result, err := i.Execute(stmt, editor, ctx, CommandLineFrame())
	if err != nil {
		i.reportError(editor, nil, err)
		if isNotSupported(err) {
			return nil
		}
		return err
	}
	if result.Kind == ResultError {
		return &ScriptError{Message: displayString(result.Value), reported: true}
	}
	return nil
}

func (i *Interpreter) reportError(editor any, script *ast.Script, err error) {
	message := err.Error()
	if scriptErr, ok := asScriptError(err); ok {
		if scriptErr.Reported() {
			return
		}
		if scriptErr.Code == "" {
			message = "E605: Exception not caught: " + scriptErr.Message
		}
	}
	if i.opts.Silent {
		i.logger.Warn("script error", slog.String("script", script.Name()), slog.String("error", message))
		return
	}
	i.opts.Messages.ShowErrorMessage(editor, message)
}
