package interpreter

import "github.com/JetBrains/ideavim-sub001/pkg/runtime"

type ResultKind int

const (
	ResultSuccess ResultKind = iota
	ResultReturn
	ResultBreak
	ResultContinue
	// ResultError is a failure whose message was already shown (`:echoerr`
	// outside a try). Raised errors travel on the error return instead.
	ResultError
	// ResultFinish stops the current script without failing it.
	ResultFinish
)

func (k ResultKind) String() string {
	switch k {
	case ResultSuccess:
		return "success"
	case ResultReturn:
		return "return"
	case ResultBreak:
		return "break"
	case ResultContinue:
		return "continue"
	case ResultError:
		return "error"
	case ResultFinish:
		return "finish"
	default:
		return "unknown"
	}
}

// ExecutionResult is the outcome of running one executable. Value is set for
// ResultReturn, and holds the message for ResultError.
type ExecutionResult struct {
	Kind  ResultKind
	Value runtime.Value
}

var (
	success        = ExecutionResult{Kind: ResultSuccess}
	breakResult    = ExecutionResult{Kind: ResultBreak}
	continueResult = ExecutionResult{Kind: ResultContinue}
	finishResult   = ExecutionResult{Kind: ResultFinish}
)

func returnResult(value runtime.Value) ExecutionResult {
	return ExecutionResult{Kind: ResultReturn, Value: value}
}

func errorResult(message string) ExecutionResult {
	return ExecutionResult{Kind: ResultError, Value: runtime.StringValue{Val: message}}
}

func (r ExecutionResult) IsSuccess() bool {
	return r.Kind == ResultSuccess
}
