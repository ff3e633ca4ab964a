package ast

import "strings"

type Sequence struct {
	nodeImpl
	executableMarker

	Body []Executable `json:"body"`
}

func NewSequence(body []Executable) *Sequence {
	return &Sequence{nodeImpl: newNodeImpl(NodeSequence), Body: body}
}

// Conditionals

type IfBranch struct {
	Condition Expression   `json:"condition"`
	Body      []Executable `json:"body"`
}

// IfStatement holds the `if`/`elseif` branches in order. Else is nil when the
// statement has no else clause.
type IfStatement struct {
	nodeImpl
	executableMarker

	Branches []*IfBranch  `json:"branches"`
	Else     []Executable `json:"else,omitempty"`
}

func NewIfStatement(branches []*IfBranch, els []Executable) *IfStatement {
	return &IfStatement{nodeImpl: newNodeImpl(NodeIfStatement), Branches: branches, Else: els}
}

// Exceptions

// CatchClause guards Body with a pattern; an empty pattern catches everything.
type CatchClause struct {
	Pattern string       `json:"pattern,omitempty"`
	Body    []Executable `json:"body"`
}

type FinallyClause struct {
	Body []Executable `json:"body"`
}

type TryStatement struct {
	nodeImpl
	executableMarker

	Body    []Executable   `json:"body"`
	Catches []*CatchClause `json:"catches,omitempty"`
	Finally *FinallyClause `json:"finally,omitempty"`
}

func NewTryStatement(body []Executable, catches []*CatchClause, finally *FinallyClause) *TryStatement {
	return &TryStatement{nodeImpl: newNodeImpl(NodeTryStatement), Body: body, Catches: catches, Finally: finally}
}

type ThrowStatement struct {
	nodeImpl
	executableMarker

	Expression Expression `json:"expression"`
}

func NewThrowStatement(expr Expression) *ThrowStatement {
	return &ThrowStatement{nodeImpl: newNodeImpl(NodeThrowStatement), Expression: expr}
}

// ReturnStatement returns Argument, or nothing when Argument is nil.
type ReturnStatement struct {
	nodeImpl
	executableMarker

	Argument Expression `json:"argument,omitempty"`
}

func NewReturnStatement(argument Expression) *ReturnStatement {
	return &ReturnStatement{nodeImpl: newNodeImpl(NodeReturnStatement), Argument: argument}
}

// Functions

type FunctionFlags uint8

const (
	FlagRange FunctionFlags = 1 << iota
	FlagAbort
	FlagDict
	FlagClosure
)

func (f FunctionFlags) Has(flag FunctionFlags) bool { return f&flag != 0 }

func (f FunctionFlags) String() string {
	var parts []string
	if f.Has(FlagRange) {
		parts = append(parts, "range")
	}
	if f.Has(FlagAbort) {
		parts = append(parts, "abort")
	}
	if f.Has(FlagDict) {
		parts = append(parts, "dict")
	}
	if f.Has(FlagClosure) {
		parts = append(parts, "closure")
	}
	return strings.Join(parts, " ")
}

// ParseFunctionFlag maps a flag keyword to its bit; ok is false for unknown
// keywords.
func ParseFunctionFlag(name string) (FunctionFlags, bool) {
	switch name {
	case "range":
		return FlagRange, true
	case "abort":
		return FlagAbort, true
	case "dict":
		return FlagDict, true
	case "closure":
		return FlagClosure, true
	}
	return 0, false
}

type DefaultParameter struct {
	Name  string     `json:"name"`
	Value Expression `json:"value"`
}

// FunctionSignature is the part shared by named and anonymous declarations.
type FunctionSignature struct {
	Params   []string            `json:"params,omitempty"`
	Defaults []*DefaultParameter `json:"defaults,omitempty"`
	Variadic bool                `json:"variadic,omitempty"`
	Body     []Executable        `json:"body"`
	Flags    FunctionFlags       `json:"flags,omitempty"`
	Replace  bool                `json:"replace,omitempty"`
}

// Arity returns the number of required and optional named parameters.
func (s *FunctionSignature) Arity() (required, optional int) {
	return len(s.Params), len(s.Defaults)
}

type FunctionDeclaration struct {
	nodeImpl
	executableMarker
	FunctionSignature

	Scope Scope  `json:"scope,omitempty"`
	Name  string `json:"name"`
}

func NewFunctionDeclaration(scope Scope, name string, sig FunctionSignature) *FunctionDeclaration {
	return &FunctionDeclaration{nodeImpl: newNodeImpl(NodeFunctionDeclaration), FunctionSignature: sig, Scope: scope, Name: name}
}

// AnonymousFunctionDeclaration is `function dict.key(...)`: Target.Target is
// the container and Target.Index the literal key.
type AnonymousFunctionDeclaration struct {
	nodeImpl
	executableMarker
	FunctionSignature

	Target *IndexExpression `json:"target"`
}

func NewAnonymousFunctionDeclaration(target *IndexExpression, sig FunctionSignature) *AnonymousFunctionDeclaration {
	return &AnonymousFunctionDeclaration{nodeImpl: newNodeImpl(NodeAnonymousFunctionDeclaration), FunctionSignature: sig, Target: target}
}

type DelFunctionStatement struct {
	nodeImpl
	executableMarker

	Scope Scope  `json:"scope,omitempty"`
	Name  string `json:"name"`
	Bang  bool   `json:"bang,omitempty"`
}

func NewDelFunctionStatement(scope Scope, name string, bang bool) *DelFunctionStatement {
	return &DelFunctionStatement{nodeImpl: newNodeImpl(NodeDelFunctionStatement), Scope: scope, Name: name, Bang: bang}
}

// Variables

// LetStatement assigns Value to Target. Operator is "=" or a compound form
// such as "+=" or ".=".
type LetStatement struct {
	nodeImpl
	executableMarker

	Target   Expression `json:"target"`
	Operator string     `json:"operator"`
	Value    Expression `json:"value"`
}

func NewLetStatement(target Expression, operator string, value Expression) *LetStatement {
	if operator == "" {
		operator = "="
	}
	return &LetStatement{nodeImpl: newNodeImpl(NodeLetStatement), Target: target, Operator: operator, Value: value}
}

type UnletStatement struct {
	nodeImpl
	executableMarker

	Targets []Expression `json:"targets"`
	Bang    bool         `json:"bang,omitempty"`
}

func NewUnletStatement(targets []Expression, bang bool) *UnletStatement {
	return &UnletStatement{nodeImpl: newNodeImpl(NodeUnletStatement), Targets: targets, Bang: bang}
}

// Commands

// LineRange is the `:{first},{last}` prefix of a `:call`.
type LineRange struct {
	First Expression `json:"first"`
	Last  Expression `json:"last,omitempty"`
}

type CallStatement struct {
	nodeImpl
	executableMarker

	Call  Expression `json:"call"`
	Range *LineRange `json:"range,omitempty"`
}

func NewCallStatement(call Expression, lineRange *LineRange) *CallStatement {
	return &CallStatement{nodeImpl: newNodeImpl(NodeCallStatement), Call: call, Range: lineRange}
}

type EchoKind string

const (
	EchoKindPlain EchoKind = "echo"
	EchoKindMsg   EchoKind = "echomsg"
	EchoKindErr   EchoKind = "echoerr"
)

type EchoStatement struct {
	nodeImpl
	executableMarker

	Kind      EchoKind     `json:"kind"`
	Arguments []Expression `json:"arguments"`
}

func NewEchoStatement(kind EchoKind, args []Expression) *EchoStatement {
	if kind == "" {
		kind = EchoKindPlain
	}
	return &EchoStatement{nodeImpl: newNodeImpl(NodeEchoStatement), Kind: kind, Arguments: args}
}

// Loops

type WhileStatement struct {
	nodeImpl
	executableMarker

	Condition Expression   `json:"condition"`
	Body      []Executable `json:"body"`
}

func NewWhileStatement(condition Expression, body []Executable) *WhileStatement {
	return &WhileStatement{nodeImpl: newNodeImpl(NodeWhileStatement), Condition: condition, Body: body}
}

// ForStatement is `for x in iterable` or, with several targets, `for [a, b] in
// iterable`.
type ForStatement struct {
	nodeImpl
	executableMarker

	Targets  []*Variable  `json:"targets"`
	Iterable Expression   `json:"iterable"`
	Body     []Executable `json:"body"`
}

func NewForStatement(targets []*Variable, iterable Expression, body []Executable) *ForStatement {
	return &ForStatement{nodeImpl: newNodeImpl(NodeForStatement), Targets: targets, Iterable: iterable, Body: body}
}

type BreakStatement struct {
	nodeImpl
	executableMarker
}

func NewBreakStatement() *BreakStatement {
	return &BreakStatement{nodeImpl: newNodeImpl(NodeBreakStatement)}
}

type ContinueStatement struct {
	nodeImpl
	executableMarker
}

func NewContinueStatement() *ContinueStatement {
	return &ContinueStatement{nodeImpl: newNodeImpl(NodeContinueStatement)}
}

type FinishStatement struct {
	nodeImpl
	executableMarker
}

func NewFinishStatement() *FinishStatement {
	return &FinishStatement{nodeImpl: newNodeImpl(NodeFinishStatement)}
}

// UnsupportedStatement stands in for a command the engine cannot execute.
type UnsupportedStatement struct {
	nodeImpl
	executableMarker

	Text string `json:"text"`
}

func NewUnsupportedStatement(text string) *UnsupportedStatement {
	return &UnsupportedStatement{nodeImpl: newNodeImpl(NodeUnsupportedStatement), Text: text}
}
