package ast

import (
	"github.com/google/uuid"
)

type NodeType string

const (
	NodeNumberLiteral                NodeType = "NumberLiteral"
	NodeFloatLiteral                 NodeType = "FloatLiteral"
	NodeStringLiteral                NodeType = "StringLiteral"
	NodeListLiteral                  NodeType = "ListLiteral"
	NodeDictLiteral                  NodeType = "DictLiteral"
	NodeVariable                     NodeType = "Variable"
	NodeOptionExpression             NodeType = "OptionExpression"
	NodeEnvVariable                  NodeType = "EnvVariable"
	NodeIndexExpression              NodeType = "IndexExpression"
	NodeSliceExpression              NodeType = "SliceExpression"
	NodeFunctionCall                 NodeType = "FunctionCall"
	NodeFuncrefCall                  NodeType = "FuncrefCall"
	NodeBinaryExpression             NodeType = "BinaryExpression"
	NodeUnaryExpression              NodeType = "UnaryExpression"
	NodeTernaryExpression            NodeType = "TernaryExpression"
	NodeLambdaExpression             NodeType = "LambdaExpression"
	NodeSequence                     NodeType = "Sequence"
	NodeIfStatement                  NodeType = "IfStatement"
	NodeTryStatement                 NodeType = "TryStatement"
	NodeThrowStatement               NodeType = "ThrowStatement"
	NodeReturnStatement              NodeType = "ReturnStatement"
	NodeFunctionDeclaration          NodeType = "FunctionDeclaration"
	NodeAnonymousFunctionDeclaration NodeType = "AnonymousFunctionDeclaration"
	NodeLetStatement                 NodeType = "LetStatement"
	NodeUnletStatement               NodeType = "UnletStatement"
	NodeCallStatement                NodeType = "CallStatement"
	NodeEchoStatement                NodeType = "EchoStatement"
	NodeWhileStatement               NodeType = "WhileStatement"
	NodeForStatement                 NodeType = "ForStatement"
	NodeBreakStatement               NodeType = "BreakStatement"
	NodeContinueStatement            NodeType = "ContinueStatement"
	NodeFinishStatement              NodeType = "FinishStatement"
	NodeDelFunctionStatement         NodeType = "DelFunctionStatement"
	NodeUnsupportedStatement         NodeType = "UnsupportedStatement"
)

type Node interface {
	NodeType() NodeType
	isNode()
}

type nodeImpl struct {
	Type NodeType `json:"type" yaml:"type"`
}

func newNodeImpl(kind NodeType) nodeImpl {
	return nodeImpl{Type: kind}
}

func (n nodeImpl) NodeType() NodeType { return n.Type }
func (nodeImpl) isNode()              {}

// Marker interfaces.

type Expression interface {
	Node
	expressionNode()
}

type expressionMarker struct{}

func (expressionMarker) expressionNode() {}

// Executable is a statement node. Executables never hold a reference to the
// context they run in; the interpreter threads that through each call.
type Executable interface {
	Node
	executableNode()
}

type executableMarker struct{}

func (executableMarker) executableNode() {}

// Scope is the namespace prefix of a variable or function name ("g:", "s:", ...).
type Scope string

const (
	ScopeNone    Scope = ""
	ScopeGlobal  Scope = "g"
	ScopeScript  Scope = "s"
	ScopeLocal   Scope = "l"
	ScopeArgs    Scope = "a"
	ScopeBuffer  Scope = "b"
	ScopeWindow  Scope = "w"
	ScopeTabPage Scope = "t"
	ScopeVim     Scope = "v"
)

// Prefix renders the scope the way it is written in source ("g:").
func (s Scope) Prefix() string {
	if s == ScopeNone {
		return ""
	}
	return string(s) + ":"
}

// IsValid reports whether s names a known scope.
func (s Scope) IsValid() bool {
	switch s {
	case ScopeNone, ScopeGlobal, ScopeScript, ScopeLocal, ScopeArgs, ScopeBuffer, ScopeWindow, ScopeTabPage, ScopeVim:
		return true
	default:
		return false
	}
}

// Script is one parsed unit of source text. Its identity, not its path, keys
// the script-local variable store and function table.
type Script struct {
	ID    uuid.UUID
	Path  string
	Units []*Unit
}

// Unit is a top-level executable together with the source text it came from.
type Unit struct {
	Source string
	Body   Executable
}

// NewScript builds a script with a fresh identity.
func NewScript(path string, units []*Unit) *Script {
	return &Script{ID: uuid.New(), Path: path, Units: units}
}

// NewUnit wraps an executable, rendering its source when none is supplied.
func NewUnit(body Executable, source string) *Unit {
	if source == "" && body != nil {
		source = Format(body)
	}
	return &Unit{Source: source, Body: body}
}

// Name identifies the script in messages.
func (s *Script) Name() string {
	if s == nil {
		return ""
	}
	if s.Path != "" {
		return s.Path
	}
	return "<script " + s.ID.String()[:8] + ">"
}
