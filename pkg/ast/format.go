package ast

import (
	"fmt"
	"strconv"
	"strings"
)

// Format renders a node back to script-language text. The output is used for
// command history and error messages; it is not guaranteed to round-trip.
func Format(node Node) string {
	var b strings.Builder
	writeNode(&b, node, 0)
	return strings.TrimRight(b.String(), "\n")
}

func writeNode(b *strings.Builder, node Node, indent int) {
	switch n := node.(type) {
	case nil:
	case Expression:
		b.WriteString(FormatExpression(n))
	case Executable:
		writeExecutable(b, n, indent)
	}
}

// FormatExpression renders a single expression.
func FormatExpression(expr Expression) string {
	switch e := expr.(type) {
	case nil:
		return ""
	case *NumberLiteral:
		return strconv.FormatInt(e.Value, 10)
	case *FloatLiteral:
		s := strconv.FormatFloat(e.Value, 'f', -1, 64)
		if !strings.ContainsAny(s, ".eEnN") {
			s += ".0"
		}
		return s
	case *StringLiteral:
		return "'" + strings.ReplaceAll(e.Value, "'", "''") + "'"
	case *ListLiteral:
		return "[" + joinExpressions(e.Elements) + "]"
	case *DictLiteral:
		parts := make([]string, len(e.Entries))
		for i, entry := range e.Entries {
			parts[i] = FormatExpression(entry.Key) + ": " + FormatExpression(entry.Value)
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case *Variable:
		return e.Scope.Prefix() + e.Name
	case *OptionExpression:
		return "&" + e.Scope.Prefix() + e.Name
	case *EnvVariable:
		return "$" + e.Name
	case *IndexExpression:
		if e.Dot {
			if key, ok := e.Index.(*StringLiteral); ok {
				return FormatExpression(e.Target) + "." + key.Value
			}
		}
		return FormatExpression(e.Target) + "[" + FormatExpression(e.Index) + "]"
	case *SliceExpression:
		return FormatExpression(e.Target) + "[" + FormatExpression(e.From) + " : " + FormatExpression(e.To) + "]"
	case *FunctionCall:
		return e.Scope.Prefix() + e.Name + "(" + joinExpressions(e.Arguments) + ")"
	case *FuncrefCall:
		return FormatExpression(e.Callee) + "(" + joinExpressions(e.Arguments) + ")"
	case *BinaryExpression:
		return FormatExpression(e.Left) + " " + e.Operator + " " + FormatExpression(e.Right)
	case *UnaryExpression:
		return e.Operator + FormatExpression(e.Operand)
	case *TernaryExpression:
		return FormatExpression(e.Condition) + " ? " + FormatExpression(e.Then) + " : " + FormatExpression(e.Else)
	case *LambdaExpression:
		return "{" + strings.Join(e.Params, ", ") + " -> " + FormatExpression(e.Body) + "}"
	default:
		return fmt.Sprintf("<%s>", expr.NodeType())
	}
}

func joinExpressions(exprs []Expression) string {
	parts := make([]string, len(exprs))
	for i, expr := range exprs {
		parts[i] = FormatExpression(expr)
	}
	return strings.Join(parts, ", ")
}

func writeLine(b *strings.Builder, indent int, text string) {
	b.WriteString(strings.Repeat("  ", indent))
	b.WriteString(text)
	b.WriteByte('\n')
}

func writeBody(b *strings.Builder, body []Executable, indent int) {
	for _, stmt := range body {
		writeExecutable(b, stmt, indent)
	}
}

func writeExecutable(b *strings.Builder, stmt Executable, indent int) {
	switch s := stmt.(type) {
	case *Sequence:
		writeBody(b, s.Body, indent)
	case *IfStatement:
		for i, branch := range s.Branches {
			keyword := "if "
			if i > 0 {
				keyword = "elseif "
			}
			writeLine(b, indent, keyword+FormatExpression(branch.Condition))
			writeBody(b, branch.Body, indent+1)
		}
		if s.Else != nil {
			writeLine(b, indent, "else")
			writeBody(b, s.Else, indent+1)
		}
		writeLine(b, indent, "endif")
	case *TryStatement:
		writeLine(b, indent, "try")
		writeBody(b, s.Body, indent+1)
		for _, clause := range s.Catches {
			if clause.Pattern == "" {
				writeLine(b, indent, "catch")
			} else {
				writeLine(b, indent, "catch /"+clause.Pattern+"/")
			}
			writeBody(b, clause.Body, indent+1)
		}
		if s.Finally != nil {
			writeLine(b, indent, "finally")
			writeBody(b, s.Finally.Body, indent+1)
		}
		writeLine(b, indent, "endtry")
	case *ThrowStatement:
		writeLine(b, indent, "throw "+FormatExpression(s.Expression))
	case *ReturnStatement:
		if s.Argument == nil {
			writeLine(b, indent, "return")
		} else {
			writeLine(b, indent, "return "+FormatExpression(s.Argument))
		}
	case *FunctionDeclaration:
		writeFunction(b, s.Scope.Prefix()+s.Name, &s.FunctionSignature, indent)
	case *AnonymousFunctionDeclaration:
		writeFunction(b, FormatExpression(s.Target), &s.FunctionSignature, indent)
	case *DelFunctionStatement:
		keyword := "delfunction "
		if s.Bang {
			keyword = "delfunction! "
		}
		writeLine(b, indent, keyword+s.Scope.Prefix()+s.Name)
	case *LetStatement:
		writeLine(b, indent, "let "+FormatExpression(s.Target)+" "+s.Operator+" "+FormatExpression(s.Value))
	case *UnletStatement:
		keyword := "unlet "
		if s.Bang {
			keyword = "unlet! "
		}
		writeLine(b, indent, keyword+strings.ReplaceAll(joinExpressions(s.Targets), ", ", " "))
	case *CallStatement:
		prefix := ""
		if s.Range != nil {
			prefix = ":" + FormatExpression(s.Range.First)
			if s.Range.Last != nil {
				prefix += "," + FormatExpression(s.Range.Last)
			}
		}
		writeLine(b, indent, prefix+"call "+FormatExpression(s.Call))
	case *EchoStatement:
		writeLine(b, indent, string(s.Kind)+" "+strings.ReplaceAll(joinExpressions(s.Arguments), ", ", " "))
	case *WhileStatement:
		writeLine(b, indent, "while "+FormatExpression(s.Condition))
		writeBody(b, s.Body, indent+1)
		writeLine(b, indent, "endwhile")
	case *ForStatement:
		names := make([]string, len(s.Targets))
		for i, target := range s.Targets {
			names[i] = FormatExpression(target)
		}
		target := names[0]
		if len(names) != 1 {
			target = "[" + strings.Join(names, ", ") + "]"
		}
		writeLine(b, indent, "for "+target+" in "+FormatExpression(s.Iterable))
		writeBody(b, s.Body, indent+1)
		writeLine(b, indent, "endfor")
	case *BreakStatement:
		writeLine(b, indent, "break")
	case *ContinueStatement:
		writeLine(b, indent, "continue")
	case *FinishStatement:
		writeLine(b, indent, "finish")
	case *UnsupportedStatement:
		writeLine(b, indent, s.Text)
	default:
		writeLine(b, indent, fmt.Sprintf("\" <%s>", stmt.NodeType()))
	}
}

func writeFunction(b *strings.Builder, name string, sig *FunctionSignature, indent int) {
	params := append([]string{}, sig.Params...)
	for _, def := range sig.Defaults {
		params = append(params, def.Name+" = "+FormatExpression(def.Value))
	}
	if sig.Variadic {
		params = append(params, "...")
	}
	header := "function"
	if sig.Replace {
		header += "!"
	}
	header += " " + name + "(" + strings.Join(params, ", ") + ")"
	if flags := sig.Flags.String(); flags != "" {
		header += " " + flags
	}
	writeLine(b, indent, header)
	writeBody(b, sig.Body, indent+1)
	writeLine(b, indent, "endfunction")
}
