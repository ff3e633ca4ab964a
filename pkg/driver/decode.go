package driver

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/JetBrains/ideavim-sub001/pkg/ast"
)

// LoadScript reads a YAML (or JSON) AST document and builds a script from it.
// The document is either a mapping with a `units` list or a bare list; each
// unit is a statement node or a {source, body} pair.
func LoadScript(path string) (*ast.Script, error) {
	if path == "" {
		return nil, fmt.Errorf("script: empty path")
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("script: resolve %s: %w", path, err)
	}
	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("script: read %s: %w", absPath, err)
	}
	script, err := DecodeScript(data, absPath)
	if err != nil {
		return nil, fmt.Errorf("script: parse %s: %w", absPath, err)
	}
	return script, nil
}

// DecodeScript builds a script from an in-memory document; path only names it.
func DecodeScript(data []byte, path string) (*ast.Script, error) {
	var doc any
	dec := yaml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("document is empty")
		}
		return nil, err
	}
	var rawUnits []any
	switch v := doc.(type) {
	case []any:
		rawUnits = v
	case map[string]any:
		if typ, ok := v["type"].(string); ok && typ != "Script" {
			return nil, fmt.Errorf("expected a Script document, got %s", typ)
		}
		list, ok := v["units"].([]any)
		if !ok && v["units"] != nil {
			return nil, fmt.Errorf("units must be a list")
		}
		rawUnits = list
	default:
		return nil, fmt.Errorf("unexpected document %T", doc)
	}
	units := make([]*ast.Unit, 0, len(rawUnits))
	for idx, raw := range rawUnits {
		unit, err := decodeUnit(raw)
		if err != nil {
			return nil, fmt.Errorf("unit %d: %w", idx, err)
		}
		units = append(units, unit)
	}
	return ast.NewScript(path, units), nil
}

func decodeUnit(raw any) (*ast.Unit, error) {
	node, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("invalid unit %T", raw)
	}
	if _, typed := node["type"]; typed {
		body, err := decodeExecutable(node)
		if err != nil {
			return nil, err
		}
		return ast.NewUnit(body, ""), nil
	}
	source, err := stringField(node, "source", false)
	if err != nil {
		return nil, err
	}
	bodyNode, ok := node["body"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("unit missing body")
	}
	body, err := decodeExecutable(bodyNode)
	if err != nil {
		return nil, err
	}
	return ast.NewUnit(body, source), nil
}

// DecodeNode converts one decoded mapping into an AST node.
func DecodeNode(node map[string]any) (ast.Node, error) {
	typ, _ := node["type"].(string)
	switch typ {
	case "NumberLiteral":
		n, err := intField(node, "value")
		if err != nil {
			return nil, err
		}
		return ast.NewNumberLiteral(n), nil
	case "FloatLiteral":
		switch v := node["value"].(type) {
		case float64:
			return ast.NewFloatLiteral(v), nil
		case int:
			return ast.NewFloatLiteral(float64(v)), nil
		case string:
			switch strings.ToLower(v) {
			case "inf", "+inf", ".inf":
				return ast.NewFloatLiteral(math.Inf(1)), nil
			case "-inf", "-.inf":
				return ast.NewFloatLiteral(math.Inf(-1)), nil
			case "nan", ".nan":
				return ast.NewFloatLiteral(math.NaN()), nil
			}
		}
		return nil, fmt.Errorf("FloatLiteral: invalid value %v", node["value"])
	case "StringLiteral":
		s, err := stringField(node, "value", false)
		if err != nil {
			return nil, err
		}
		return ast.NewStringLiteral(s), nil
	case "ListLiteral":
		elements, err := decodeExpressions(node["elements"])
		if err != nil {
			return nil, err
		}
		return ast.NewListLiteral(elements), nil
	case "DictLiteral":
		rawEntries, _ := node["entries"].([]any)
		entries := make([]*ast.DictEntry, 0, len(rawEntries))
		for _, raw := range rawEntries {
			entryNode, ok := raw.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("invalid dict entry %T", raw)
			}
			key, err := requireExpression(entryNode, "key")
			if err != nil {
				return nil, err
			}
			value, err := requireExpression(entryNode, "value")
			if err != nil {
				return nil, err
			}
			entries = append(entries, &ast.DictEntry{Key: key, Value: value})
		}
		return ast.NewDictLiteral(entries), nil
	case "Variable":
		scope, name, err := scopedName(node)
		if err != nil {
			return nil, err
		}
		return ast.NewVariable(scope, name), nil
	case "OptionExpression":
		scope, name, err := scopedName(node)
		if err != nil {
			return nil, err
		}
		return ast.NewOptionExpression(scope, name), nil
	case "EnvVariable":
		name, err := stringField(node, "name", true)
		if err != nil {
			return nil, err
		}
		return ast.NewEnvVariable(name), nil
	case "IndexExpression":
		target, err := requireExpression(node, "target")
		if err != nil {
			return nil, err
		}
		dot, _ := node["dot"].(bool)
		var index ast.Expression
		if key, ok := node["index"].(string); ok && dot {
			index = ast.NewStringLiteral(key)
		} else if index, err = requireExpression(node, "index"); err != nil {
			return nil, err
		}
		return ast.NewIndexExpression(target, index, dot), nil
	case "SliceExpression":
		target, err := requireExpression(node, "target")
		if err != nil {
			return nil, err
		}
		from, err := optionalExpression(node, "from")
		if err != nil {
			return nil, err
		}
		to, err := optionalExpression(node, "to")
		if err != nil {
			return nil, err
		}
		return ast.NewSliceExpression(target, from, to), nil
	case "FunctionCall":
		scope, name, err := scopedName(node)
		if err != nil {
			return nil, err
		}
		args, err := decodeExpressions(node["arguments"])
		if err != nil {
			return nil, err
		}
		return ast.NewFunctionCall(scope, name, args), nil
	case "FuncrefCall":
		callee, err := requireExpression(node, "callee")
		if err != nil {
			return nil, err
		}
		args, err := decodeExpressions(node["arguments"])
		if err != nil {
			return nil, err
		}
		return ast.NewFuncrefCall(callee, args), nil
	case "BinaryExpression":
		op, err := stringField(node, "operator", true)
		if err != nil {
			return nil, err
		}
		left, err := requireExpression(node, "left")
		if err != nil {
			return nil, err
		}
		right, err := requireExpression(node, "right")
		if err != nil {
			return nil, err
		}
		return ast.NewBinaryExpression(op, left, right), nil
	case "UnaryExpression":
		op, err := stringField(node, "operator", true)
		if err != nil {
			return nil, err
		}
		operand, err := requireExpression(node, "operand")
		if err != nil {
			return nil, err
		}
		return ast.NewUnaryExpression(op, operand), nil
	case "TernaryExpression":
		cond, err := requireExpression(node, "condition")
		if err != nil {
			return nil, err
		}
		then, err := requireExpression(node, "then")
		if err != nil {
			return nil, err
		}
		els, err := requireExpression(node, "else")
		if err != nil {
			return nil, err
		}
		return ast.NewTernaryExpression(cond, then, els), nil
	case "LambdaExpression":
		params, err := stringList(node["params"])
		if err != nil {
			return nil, err
		}
		body, err := requireExpression(node, "body")
		if err != nil {
			return nil, err
		}
		return ast.NewLambdaExpression(params, body), nil
	case "Sequence":
		body, err := decodeBody(node["body"])
		if err != nil {
			return nil, err
		}
		return ast.NewSequence(body), nil
	case "IfStatement":
		rawBranches, _ := node["branches"].([]any)
		if len(rawBranches) == 0 {
			return nil, fmt.Errorf("IfStatement: missing branches")
		}
		branches := make([]*ast.IfBranch, 0, len(rawBranches))
		for _, raw := range rawBranches {
			branchNode, ok := raw.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("invalid if branch %T", raw)
			}
			cond, err := requireExpression(branchNode, "condition")
			if err != nil {
				return nil, err
			}
			body, err := decodeBody(branchNode["body"])
			if err != nil {
				return nil, err
			}
			branches = append(branches, &ast.IfBranch{Condition: cond, Body: body})
		}
		els, err := decodeBody(node["else"])
		if err != nil {
			return nil, err
		}
		return ast.NewIfStatement(branches, els), nil
	case "TryStatement":
		body, err := decodeBody(node["body"])
		if err != nil {
			return nil, err
		}
		rawCatches, _ := node["catches"].([]any)
		catches := make([]*ast.CatchClause, 0, len(rawCatches))
		for _, raw := range rawCatches {
			catchNode, ok := raw.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("invalid catch clause %T", raw)
			}
			pattern, err := stringField(catchNode, "pattern", false)
			if err != nil {
				return nil, err
			}
			catchBody, err := decodeBody(catchNode["body"])
			if err != nil {
				return nil, err
			}
			catches = append(catches, &ast.CatchClause{Pattern: pattern, Body: catchBody})
		}
		var finally *ast.FinallyClause
		switch raw := node["finally"].(type) {
		case nil:
		case map[string]any:
			finallyBody, err := decodeBody(raw["body"])
			if err != nil {
				return nil, err
			}
			finally = &ast.FinallyClause{Body: finallyBody}
		case []any:
			finallyBody, err := decodeBody(raw)
			if err != nil {
				return nil, err
			}
			finally = &ast.FinallyClause{Body: finallyBody}
		default:
			return nil, fmt.Errorf("invalid finally clause %T", raw)
		}
		return ast.NewTryStatement(body, catches, finally), nil
	case "ThrowStatement":
		expr, err := requireExpression(node, "expression")
		if err != nil {
			return nil, err
		}
		return ast.NewThrowStatement(expr), nil
	case "ReturnStatement":
		arg, err := optionalExpression(node, "argument")
		if err != nil {
			return nil, err
		}
		return ast.NewReturnStatement(arg), nil
	case "FunctionDeclaration":
		scope, name, err := scopedName(node)
		if err != nil {
			return nil, err
		}
		sig, err := decodeSignature(node)
		if err != nil {
			return nil, fmt.Errorf("function %s%s: %w", scope.Prefix(), name, err)
		}
		return ast.NewFunctionDeclaration(scope, name, sig), nil
	case "AnonymousFunctionDeclaration":
		target, err := requireExpression(node, "target")
		if err != nil {
			return nil, err
		}
		index, ok := target.(*ast.IndexExpression)
		if !ok {
			return nil, fmt.Errorf("AnonymousFunctionDeclaration: target must be an IndexExpression, got %s", target.NodeType())
		}
		sig, err := decodeSignature(node)
		if err != nil {
			return nil, err
		}
		return ast.NewAnonymousFunctionDeclaration(index, sig), nil
	case "DelFunctionStatement":
		scope, name, err := scopedName(node)
		if err != nil {
			return nil, err
		}
		bang, _ := node["bang"].(bool)
		return ast.NewDelFunctionStatement(scope, name, bang), nil
	case "LetStatement":
		target, err := requireExpression(node, "target")
		if err != nil {
			return nil, err
		}
		op, err := stringField(node, "operator", false)
		if err != nil {
			return nil, err
		}
		value, err := requireExpression(node, "value")
		if err != nil {
			return nil, err
		}
		return ast.NewLetStatement(target, op, value), nil
	case "UnletStatement":
		targets, err := decodeExpressions(node["targets"])
		if err != nil {
			return nil, err
		}
		if len(targets) == 0 {
			return nil, fmt.Errorf("UnletStatement: missing targets")
		}
		bang, _ := node["bang"].(bool)
		return ast.NewUnletStatement(targets, bang), nil
	case "CallStatement":
		call, err := requireExpression(node, "call")
		if err != nil {
			return nil, err
		}
		var lineRange *ast.LineRange
		if rangeNode, ok := node["range"].(map[string]any); ok {
			first, err := requireExpression(rangeNode, "first")
			if err != nil {
				return nil, err
			}
			last, err := optionalExpression(rangeNode, "last")
			if err != nil {
				return nil, err
			}
			lineRange = &ast.LineRange{First: first, Last: last}
		}
		return ast.NewCallStatement(call, lineRange), nil
	case "EchoStatement":
		kind, err := stringField(node, "kind", false)
		if err != nil {
			return nil, err
		}
		switch ast.EchoKind(kind) {
		case "", ast.EchoKindPlain, ast.EchoKindMsg, ast.EchoKindErr:
		default:
			return nil, fmt.Errorf("EchoStatement: unknown kind %q", kind)
		}
		args, err := decodeExpressions(node["arguments"])
		if err != nil {
			return nil, err
		}
		return ast.NewEchoStatement(ast.EchoKind(kind), args), nil
	case "WhileStatement":
		cond, err := requireExpression(node, "condition")
		if err != nil {
			return nil, err
		}
		body, err := decodeBody(node["body"])
		if err != nil {
			return nil, err
		}
		return ast.NewWhileStatement(cond, body), nil
	case "ForStatement":
		targets, err := decodeLoopTargets(node["targets"])
		if err != nil {
			return nil, err
		}
		iterable, err := requireExpression(node, "iterable")
		if err != nil {
			return nil, err
		}
		body, err := decodeBody(node["body"])
		if err != nil {
			return nil, err
		}
		return ast.NewForStatement(targets, iterable, body), nil
	case "BreakStatement":
		return ast.NewBreakStatement(), nil
	case "ContinueStatement":
		return ast.NewContinueStatement(), nil
	case "FinishStatement":
		return ast.NewFinishStatement(), nil
	case "UnsupportedStatement":
		text, err := stringField(node, "text", false)
		if err != nil {
			return nil, err
		}
		return ast.NewUnsupportedStatement(text), nil
	case "":
		return nil, fmt.Errorf("node missing type")
	default:
		return nil, fmt.Errorf("unsupported node type %q", typ)
	}
}

func decodeSignature(node map[string]any) (ast.FunctionSignature, error) {
	var sig ast.FunctionSignature
	params, err := stringList(node["params"])
	if err != nil {
		return sig, err
	}
	sig.Params = params
	rawDefaults, _ := node["defaults"].([]any)
	for _, raw := range rawDefaults {
		defNode, ok := raw.(map[string]any)
		if !ok {
			return sig, fmt.Errorf("invalid default parameter %T", raw)
		}
		name, err := stringField(defNode, "name", true)
		if err != nil {
			return sig, err
		}
		value, err := requireExpression(defNode, "value")
		if err != nil {
			return sig, err
		}
		sig.Defaults = append(sig.Defaults, &ast.DefaultParameter{Name: name, Value: value})
	}
	sig.Variadic, _ = node["variadic"].(bool)
	sig.Replace, _ = node["replace"].(bool)
	flags, err := decodeFlags(node["flags"])
	if err != nil {
		return sig, err
	}
	sig.Flags = flags
	body, err := decodeBody(node["body"])
	if err != nil {
		return sig, err
	}
	sig.Body = body
	return sig, nil
}

// decodeFlags accepts a keyword list, a space-separated string or the raw bits.
func decodeFlags(raw any) (ast.FunctionFlags, error) {
	var names []string
	switch v := raw.(type) {
	case nil:
		return 0, nil
	case int:
		if v < 0 || v > math.MaxUint8 {
			return 0, fmt.Errorf("invalid function flags %d", v)
		}
		return ast.FunctionFlags(v), nil
	case string:
		names = strings.Fields(v)
	case []any:
		list, err := stringList(v)
		if err != nil {
			return 0, err
		}
		names = list
	default:
		return 0, fmt.Errorf("invalid function flags %T", raw)
	}
	var flags ast.FunctionFlags
	for _, name := range names {
		flag, ok := ast.ParseFunctionFlag(name)
		if !ok {
			return 0, fmt.Errorf("unknown function flag %q", name)
		}
		flags |= flag
	}
	return flags, nil
}

func decodeLoopTargets(raw any) ([]*ast.Variable, error) {
	list, ok := raw.([]any)
	if !ok || len(list) == 0 {
		return nil, fmt.Errorf("ForStatement: missing targets")
	}
	targets := make([]*ast.Variable, 0, len(list))
	for _, item := range list {
		switch v := item.(type) {
		case string:
			scope, name := ast.SplitScoped(v)
			targets = append(targets, ast.NewVariable(scope, name))
		case map[string]any:
			node, err := DecodeNode(v)
			if err != nil {
				return nil, err
			}
			variable, ok := node.(*ast.Variable)
			if !ok {
				return nil, fmt.Errorf("ForStatement: target must be a Variable, got %s", node.NodeType())
			}
			targets = append(targets, variable)
		default:
			return nil, fmt.Errorf("invalid loop target %T", item)
		}
	}
	return targets, nil
}

func decodeExecutable(node map[string]any) (ast.Executable, error) {
	decoded, err := DecodeNode(node)
	if err != nil {
		return nil, err
	}
	stmt, ok := decoded.(ast.Executable)
	if !ok {
		return nil, fmt.Errorf("%s is not a statement", decoded.NodeType())
	}
	return stmt, nil
}

func decodeBody(raw any) ([]ast.Executable, error) {
	if raw == nil {
		return nil, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("body must be a list, got %T", raw)
	}
	body := make([]ast.Executable, 0, len(list))
	for _, item := range list {
		node, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("invalid statement %T", item)
		}
		stmt, err := decodeExecutable(node)
		if err != nil {
			return nil, err
		}
		body = append(body, stmt)
	}
	return body, nil
}

func decodeExpression(raw any) (ast.Expression, error) {
	node, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("invalid expression %T", raw)
	}
	decoded, err := DecodeNode(node)
	if err != nil {
		return nil, err
	}
	expr, ok := decoded.(ast.Expression)
	if !ok {
		return nil, fmt.Errorf("%s is not an expression", decoded.NodeType())
	}
	return expr, nil
}

func decodeExpressions(raw any) ([]ast.Expression, error) {
	if raw == nil {
		return nil, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("expected a list of expressions, got %T", raw)
	}
	exprs := make([]ast.Expression, 0, len(list))
	for _, item := range list {
		expr, err := decodeExpression(item)
		if err != nil {
			return nil, err
		}
		exprs = append(exprs, expr)
	}
	return exprs, nil
}

func requireExpression(node map[string]any, key string) (ast.Expression, error) {
	raw, ok := node[key]
	if !ok || raw == nil {
		typ, _ := node["type"].(string)
		return nil, fmt.Errorf("%s: missing %s", typ, key)
	}
	return decodeExpression(raw)
}

func optionalExpression(node map[string]any, key string) (ast.Expression, error) {
	raw, ok := node[key]
	if !ok || raw == nil {
		return nil, nil
	}
	return decodeExpression(raw)
}

// scopedName reads `name`, splitting a "g:" style prefix unless an explicit
// `scope` is given.
func scopedName(node map[string]any) (ast.Scope, string, error) {
	name, err := stringField(node, "name", false)
	if err != nil {
		return ast.ScopeNone, "", err
	}
	raw, explicit := node["scope"]
	if !explicit || raw == nil {
		scope, bare := ast.SplitScoped(name)
		return scope, bare, nil
	}
	s, ok := raw.(string)
	if !ok {
		return ast.ScopeNone, "", fmt.Errorf("invalid scope %T", raw)
	}
	scope := ast.Scope(strings.TrimSuffix(s, ":"))
	if !scope.IsValid() {
		return ast.ScopeNone, "", fmt.Errorf("unknown scope %q", s)
	}
	return scope, name, nil
}

func stringField(node map[string]any, key string, required bool) (string, error) {
	raw, ok := node[key]
	if !ok || raw == nil {
		if required {
			typ, _ := node["type"].(string)
			return "", fmt.Errorf("%s: missing %s", typ, key)
		}
		return "", nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("%s must be a string, got %T", key, raw)
	}
	return s, nil
}

func intField(node map[string]any, key string) (int64, error) {
	switch v := node[key].(type) {
	case int:
		return int64(v), nil
	case int64:
		return v, nil
	case uint64:
		if v > math.MaxInt64 {
			return 0, fmt.Errorf("%s out of range", key)
		}
		return int64(v), nil
	case float64:
		if v != math.Trunc(v) {
			return 0, fmt.Errorf("%s must be an integer, got %v", key, v)
		}
		return int64(v), nil
	default:
		return 0, fmt.Errorf("%s must be an integer, got %T", key, node[key])
	}
}

func stringList(raw any) ([]string, error) {
	if raw == nil {
		return nil, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("expected a list of strings, got %T", raw)
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %T", item)
		}
		out = append(out, s)
	}
	return out, nil
}
