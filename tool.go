package sympy

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"sort"
)

// ============================================================
// MCP Tool Interface
// ============================================================

type ToolRequest struct {
	Tool   string                 `json:"tool"`
	Params map[string]interface{} `json:"params"`
}

type ToolResponse struct {
	Result interface{} `json:"result,omitempty"`
	LaTeX  string      `json:"latex,omitempty"`
	String string      `json:"string,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// HandleToolCall runs one tool. Besides the kernel tools every registered
// function is a tool of its own name; it takes either "args" (an array of
// expressions) or "n" plus an optional second argument "x" or "m".
func HandleToolCall(req ToolRequest) ToolResponse {
	getExpr := func(key string) (Expr, error) {
		v, ok := req.Params[key]
		if !ok {
			return nil, fmt.Errorf("missing param: %s", key)
		}
		return paramExpr(key, v)
	}
	getString := func(key string) (string, error) {
		v, ok := req.Params[key]
		if !ok {
			return "", fmt.Errorf("missing param: %s", key)
		}
		s, ok := v.(string)
		if !ok {
			return "", fmt.Errorf("param %s must be a string", key)
		}
		return s, nil
	}
	getExprList := func(key string) ([]Expr, error) {
		v, ok := req.Params[key]
		if !ok {
			return nil, fmt.Errorf("missing param: %s", key)
		}
		raw, ok := v.([]interface{})
		if !ok {
			return nil, fmt.Errorf("param %s must be array", key)
		}
		result := make([]Expr, len(raw))
		for i, r := range raw {
			e, err := paramExpr(fmt.Sprintf("%s[%d]", key, i), r)
			if err != nil {
				return nil, err
			}
			result[i] = e
		}
		return result, nil
	}
	respond := func(e Expr) ToolResponse {
		return ToolResponse{Result: e.toJSON(), LaTeX: LaTeX(e), String: String(e)}
	}
	fail := func(err error) ToolResponse { return ToolResponse{Error: err.Error()} }

	switch req.Tool {
	case "simplify":
		e, err := getExpr("expr")
		if err != nil {
			return fail(err)
		}
		return respond(Simplify(e))

	case "expand":
		e, err := getExpr("expr")
		if err != nil {
			return fail(err)
		}
		return respond(Expand(e))

	case "sub":
		e, err := getExpr("expr")
		if err != nil {
			return fail(err)
		}
		v, err := getString("var")
		if err != nil {
			return fail(err)
		}
		val, err := getExpr("value")
		if err != nil {
			return fail(err)
		}
		return respond(Sub(e, v, val))

	case "free_symbols":
		e, err := getExpr("expr")
		if err != nil {
			return fail(err)
		}
		syms := FreeSymbols(e)
		names := make([]string, 0, len(syms))
		for name := range syms {
			names = append(names, name)
		}
		sort.Strings(names)
		return ToolResponse{Result: names}

	case "evalf":
		e, err := getExpr("expr")
		if err != nil {
			return fail(err)
		}
		prec := uint(DefaultPrec)
		if p, ok := req.Params["prec"]; ok {
			pf, ok := p.(float64)
			if !ok || pf < 1 || pf != math.Trunc(pf) {
				return ToolResponse{Error: "param prec must be a positive integer"}
			}
			prec = uint(pf)
		}
		x, err := Evalf(e, prec)
		if err != nil {
			return fail(err)
		}
		s := x.Text('g', DecimalDigits(prec))
		return ToolResponse{Result: s, String: s}

	case "call":
		name, err := getString("name")
		if err != nil {
			return fail(err)
		}
		args, err := getExprList("args")
		if err != nil {
			return fail(err)
		}
		e, err := Call(name, args...)
		if err != nil {
			return fail(err)
		}
		return respond(e)

	case "mcp_spec":
		return ToolResponse{Result: json.RawMessage(MCPToolSpec())}
	}

	if _, ok := Lookup(req.Tool); !ok {
		return ToolResponse{Error: "unknown tool: " + req.Tool}
	}
	var args []Expr
	if _, ok := req.Params["args"]; ok {
		list, err := getExprList("args")
		if err != nil {
			return fail(err)
		}
		args = list
	} else {
		n, err := getExpr("n")
		if err != nil {
			return fail(err)
		}
		args = append(args, n)
		for _, key := range []string{"x", "m"} {
			if _, ok := req.Params[key]; ok {
				e, err := getExpr(key)
				if err != nil {
					return fail(err)
				}
				args = append(args, e)
				break
			}
		}
	}
	e, err := Call(req.Tool, args...)
	if err != nil {
		return fail(err)
	}
	return respond(e)
}

// paramExpr accepts an expression object, an integral number, "oo", or a
// symbol name.
func paramExpr(key string, v interface{}) (Expr, error) {
	switch val := v.(type) {
	case map[string]interface{}:
		return FromJSON(val)
	case float64:
		if val != math.Trunc(val) || math.IsInf(val, 0) {
			return nil, fmt.Errorf("param %s must be an integer or an expression", key)
		}
		i, _ := big.NewFloat(val).Int(nil)
		return Int(i), nil
	case string:
		switch val {
		case "":
			return nil, fmt.Errorf("param %s must not be empty", key)
		case "oo":
			return Oo, nil
		}
		return S(val), nil
	}
	return nil, fmt.Errorf("invalid type for param %s", key)
}

// DecimalDigits is the number of significant digits prec bits carry.
func DecimalDigits(prec uint) int {
	return int(math.Ceil(float64(prec)*math.Log10(2))) + 1
}

// ============================================================
// MCP tool schema
// ============================================================

// MCPToolSpec describes every tool HandleToolCall accepts as MCP JSON.
func MCPToolSpec() string {
	tools := []map[string]interface{}{
		ts("simplify", "Simplify a symbolic expression", []string{"expr"}, map[string]string{"expr": "object"}),
		ts("expand", "Algebraically expand expression", []string{"expr"}, map[string]string{"expr": "object"}),
		ts("sub", "Substitute var with value and re-evaluate function calls", []string{"expr", "var", "value"}, map[string]string{"expr": "object", "var": "string", "value": "object"}),
		ts("free_symbols", "Return free symbol names", []string{"expr"}, map[string]string{"expr": "object"}),
		ts("evalf", "Evaluate to prec bits (default 53)", []string{"expr"}, map[string]string{"expr": "object", "prec": "integer"}),
		ts("call", "Call a registered function by name", []string{"name", "args"}, map[string]string{"name": "string", "args": "array"}),
	}
	for _, name := range Functions() {
		def, _ := Lookup(name)
		desc := def.Doc
		if desc == "" {
			desc = name
		}
		tools = append(tools, ts(name, desc, []string{}, map[string]string{"args": "array", "n": "integer", "x": "object", "m": "integer"}))
	}
	tools = append(tools, ts("mcp_spec", "Return this tool schema", []string{}, map[string]string{}))
	spec := map[string]interface{}{"tools": tools}
	b, _ := json.MarshalIndent(spec, "", "  ")
	return string(b)
}

func ts(name, description string, required []string, props map[string]string) map[string]interface{} {
	properties := map[string]interface{}{}
	for k, typ := range props {
		properties[k] = map[string]interface{}{"type": typ}
	}
	return map[string]interface{}{
		"name":        name,
		"description": description,
		"inputSchema": map[string]interface{}{
			"type":       "object",
			"properties": properties,
			"required":   required,
		},
	}
}
