package sympy_test

import (
	"encoding/json"
	"errors"
	"math/big"
	"strings"
	"testing"

	"github.com/gswirski/sympy"
)

var errNegative = errors.New("negative argument")

// square(n) evaluates for numbers, rejects negatives and stays symbolic
// otherwise.
func init() {
	sympy.Register(sympy.FuncDef{
		Name: "square", Doc: "square(n) = n^2", MinArgs: 1, MaxArgs: 1,
		Eval: func(args []sympy.Expr) (sympy.Expr, error) {
			n, ok := args[0].(*sympy.Num)
			if !ok {
				return nil, nil
			}
			if n.IsNegative() {
				return nil, errNegative
			}
			return sympy.MulOf(n, n), nil
		},
		TeX: func(args []string) string { return "\\operatorname{sq}\\left(" + args[0] + "\\right)" },
	})
}

func roundTrip(t *testing.T, e sympy.Expr) sympy.Expr {
	t.Helper()
	j, err := sympy.ToJSON(e)
	if err != nil {
		t.Fatalf("ToJSON error: %v", err)
	}
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(j), &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	rebuilt, err := sympy.FromJSON(m)
	if err != nil {
		t.Fatalf("FromJSON error: %v", err)
	}
	return rebuilt
}

func exprParam(t *testing.T, e sympy.Expr) map[string]interface{} {
	t.Helper()
	j, _ := sympy.ToJSON(e)
	var m map[string]interface{}
	json.Unmarshal([]byte(j), &m)
	return m
}

// ============================================================
// Num tests
// ============================================================

func TestNum_Integer(t *testing.T) {
	n := sympy.N(42)
	if n.String() != "42" {
		t.Errorf("want 42, got %s", n.String())
	}
}

func TestNum_Rational(t *testing.T) {
	n := sympy.F(2, 6)
	if n.String() != "1/3" {
		t.Errorf("want 1/3, got %s", n.String())
	}
}

func TestNum_LaTeX_Rational(t *testing.T) {
	if got := sympy.F(-2, 5).LaTeX(); got != `-\frac{2}{5}` {
		t.Errorf("want -\\frac{2}{5}, got %s", got)
	}
}

func TestNum_BigInt(t *testing.T) {
	i, _ := new(big.Int).SetString("123456789012345678901234567890", 10)
	n := sympy.Int(i)
	if n.String() != "123456789012345678901234567890" {
		t.Errorf("got %s", n)
	}
	if _, ok := n.Int64(); ok {
		t.Errorf("Int64 should fail for values beyond int64")
	}
	if _, ok := sympy.F(1, 2).BigInt(); ok {
		t.Errorf("BigInt should fail for 1/2")
	}
}

// ============================================================
// Sym tests
// ============================================================

func TestSym_Sub_Match(t *testing.T) {
	got := sympy.Sub(sympy.S("x"), "x", sympy.N(5))
	if got.String() != "5" {
		t.Errorf("want 5, got %s", got)
	}
}

func TestSym_Sub_NoMatch(t *testing.T) {
	got := sympy.Sub(sympy.S("y"), "x", sympy.N(5))
	if got.String() != "y" {
		t.Errorf("want y, got %s", got)
	}
}

// ============================================================
// Add tests
// ============================================================

func TestAdd_CollapseToZero(t *testing.T) {
	x := sympy.S("x")
	got := sympy.AddOf(x, sympy.MulOf(sympy.N(-1), x))
	if got.String() != "0" {
		t.Errorf("x - x should be 0, got %s", got)
	}
}

func TestAdd_LikeTerms(t *testing.T) {
	x := sympy.S("x")
	got := sympy.AddOf(x, x, x, sympy.N(2))
	if got.String() != "3*x + 2" {
		t.Errorf("want 3*x + 2, got %s", got)
	}
}

func TestAdd_OrderAndSigns(t *testing.T) {
	x := sympy.S("x")
	got := sympy.AddOf(sympy.N(4), sympy.MulOf(sympy.N(-4), x), sympy.PowOf(x, sympy.N(2)))
	if got.String() != "x^2 - 4*x + 4" {
		t.Errorf("want x^2 - 4*x + 4, got %s", got)
	}
	if got.LaTeX() != "x^{2} - 4 x + 4" {
		t.Errorf("LaTeX: got %s", got.LaTeX())
	}
}

func TestAdd_SingleTerm(t *testing.T) {
	x := sympy.S("x")
	if got := sympy.AddOf(x, sympy.N(0)); !got.Equal(x) {
		t.Errorf("x + 0 should be x, got %s", got)
	}
}

// ============================================================
// Mul tests
// ============================================================

func TestMul_ZeroCollapse(t *testing.T) {
	if got := sympy.MulOf(sympy.N(0), sympy.S("x")); got.String() != "0" {
		t.Errorf("want 0, got %s", got)
	}
}

func TestMul_MergesPowers(t *testing.T) {
	x := sympy.S("x")
	got := sympy.MulOf(x, sympy.PowOf(x, sympy.N(2)), sympy.N(3))
	if got.String() != "3*x^3" {
		t.Errorf("want 3*x^3, got %s", got)
	}
	if got := sympy.MulOf(x, sympy.PowOf(x, sympy.N(-1))); got.String() != "1" {
		t.Errorf("x * x^-1 should be 1, got %s", got)
	}
}

func TestMul_NegativeOne(t *testing.T) {
	got := sympy.MulOf(sympy.N(-1), sympy.S("y"))
	if got.String() != "-y" {
		t.Errorf("want -y, got %s", got)
	}
}

// ============================================================
// Pow tests
// ============================================================

func TestPow_Exact(t *testing.T) {
	if got := sympy.PowOf(sympy.F(2, 3), sympy.N(3)); got.String() != "8/27" {
		t.Errorf("want 8/27, got %s", got)
	}
	if got := sympy.PowOf(sympy.N(2), sympy.N(-2)); got.String() != "1/4" {
		t.Errorf("want 1/4, got %s", got)
	}
}

func TestPow_ZeroBase(t *testing.T) {
	zero := sympy.N(0)
	if got := sympy.PowOf(zero, sympy.N(3)); got.String() != "0" {
		t.Errorf("0^3 should be 0, got %s", got)
	}
	if got := sympy.PowOf(zero, sympy.N(-1)); got.String() != "0^-1" {
		t.Errorf("0^-1 should stay unevaluated, got %s", got)
	}
}

func TestPow_Nested(t *testing.T) {
	x := sympy.S("x")
	got := sympy.PowOf(sympy.PowOf(x, sympy.N(2)), sympy.N(3))
	if got.String() != "x^6" {
		t.Errorf("want x^6, got %s", got)
	}
	got = sympy.PowOf(sympy.MulOf(sympy.N(2), x), sympy.N(2))
	if got.String() != "4*x^2" {
		t.Errorf("want 4*x^2, got %s", got)
	}
}

func TestPow_LaTeX(t *testing.T) {
	x := sympy.S("x")
	got := sympy.PowOf(sympy.AddOf(x, sympy.N(1)), sympy.N(2)).LaTeX()
	if got != `\left(x + 1\right)^{2}` {
		t.Errorf("got %s", got)
	}
}

// ============================================================
// Expand tests
// ============================================================

func TestExpand_Distribution(t *testing.T) {
	x, y := sympy.S("x"), sympy.S("y")
	got := sympy.Expand(sympy.MulOf(x, sympy.AddOf(x, y)))
	if got.String() != "x^2 + x*y" {
		t.Errorf("want x^2 + x*y, got %s", got)
	}
}

func TestExpand_PowerOfSum(t *testing.T) {
	x := sympy.S("x")
	got := sympy.Expand(sympy.PowOf(sympy.AddOf(x, sympy.N(1)), sympy.N(3)))
	if got.String() != "x^3 + 3*x^2 + 3*x + 1" {
		t.Errorf("want x^3 + 3*x^2 + 3*x + 1, got %s", got)
	}
}

func TestDecimalDigits(t *testing.T) {
	for prec, want := range map[uint]int{53: 17, 64: 21, 100: 32} {
		if got := sympy.DecimalDigits(prec); got != want {
			t.Errorf("DecimalDigits(%d): want %d, got %d", prec, want, got)
		}
	}
}

func TestExpand_SquareOfSum(t *testing.T) {
	x := sympy.S("x")
	got := sympy.Expand(sympy.PowOf(sympy.AddOf(x, sympy.N(1)), sympy.N(2)))
	if got.String() != "x^2 + 2*x + 1" {
		t.Errorf("want x^2 + 2*x + 1, got %s", got)
	}
}

func TestExpand_ProductOfSums(t *testing.T) {
	x, y := sympy.S("x"), sympy.S("y")
	a := sympy.AddOf(x, sympy.N(1))
	b := sympy.AddOf(y, sympy.N(-1))
	got := sympy.Expand(sympy.MulOf(a, b, a))
	want := sympy.Expand(sympy.MulOf(sympy.PowOf(a, sympy.N(2)), b))
	if !got.Equal(want) {
		t.Errorf("want %s, got %s", want, got)
	}
	if _, ok := got.(*sympy.Add); !ok {
		t.Errorf("want a sum, got %s", got)
	}
	at := sympy.Sub(sympy.Sub(got, "x", sympy.N(2)), "y", sympy.N(3))
	if !at.Equal(sympy.N(18)) {
		t.Errorf("want 18 at x=2, y=3, got %s", at)
	}
}

func TestHandleToolCall_ExpandSquare(t *testing.T) {
	resp := sympy.HandleToolCall(sympy.ToolRequest{
		Tool: "expand",
		Params: map[string]interface{}{
			"expr": map[string]interface{}{
				"type": "pow",
				"base": map[string]interface{}{"type": "add", "terms": []interface{}{
					map[string]interface{}{"type": "sym", "name": "x"},
					map[string]interface{}{"type": "num", "value": "1"},
				}},
				"exp": map[string]interface{}{"type": "num", "value": "2"},
			},
		},
	})
	if resp.Error != "" {
		t.Fatalf("unexpected error: %s", resp.Error)
	}
	if resp.String != "x^2 + 2*x + 1" {
		t.Errorf("want x^2 + 2*x + 1, got %s", resp.String)
	}
}

// ============================================================
// Free symbols
// ============================================================

func TestFreeSymbols(t *testing.T) {
	x, y := sympy.S("x"), sympy.S("y")
	e := sympy.AddOf(x, sympy.Unevaluated("square", y))
	syms := sympy.FreeSymbols(e)
	if len(syms) != 2 {
		t.Fatalf("want 2 symbols, got %v", syms)
	}
	for _, name := range []string{"x", "y"} {
		if _, ok := syms[name]; !ok {
			t.Errorf("missing %s", name)
		}
	}
	if len(sympy.FreeSymbols(sympy.N(3))) != 0 {
		t.Errorf("constant should have no free symbols")
	}
}

// ============================================================
// Function registry
// ============================================================

func TestCall_Evaluates(t *testing.T) {
	got, err := sympy.Call("square", sympy.AddOf(sympy.N(2), sympy.N(1)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.String() != "9" {
		t.Errorf("want 9, got %s", got)
	}
}

func TestCall_StaysUnevaluated(t *testing.T) {
	got, err := sympy.Call("square", sympy.S("k"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f, ok := got.(*sympy.Func)
	if !ok {
		t.Fatalf("want *Func, got %T", got)
	}
	if f.FuncName() != "square" || len(f.Args()) != 1 {
		t.Errorf("unexpected call %s", f)
	}
	if got.LaTeX() != `\operatorname{sq}\left(k\right)` {
		t.Errorf("LaTeX: got %s", got.LaTeX())
	}
	if sub := sympy.Sub(got, "k", sympy.N(4)); sub.String() != "16" {
		t.Errorf("sub should collapse the call, got %s", sub)
	}
}

func TestCall_Errors(t *testing.T) {
	if _, err := sympy.Call("nope", sympy.N(1)); !errors.Is(err, sympy.ErrUnknownFunction) {
		t.Errorf("want ErrUnknownFunction, got %v", err)
	}
	if _, err := sympy.Call("square"); !errors.Is(err, sympy.ErrArity) {
		t.Errorf("want ErrArity, got %v", err)
	}
	if _, err := sympy.Call("square", sympy.N(-2)); !errors.Is(err, errNegative) {
		t.Errorf("want evaluator error, got %v", err)
	}
}

func TestSimplify_KeepsFailingCall(t *testing.T) {
	e := sympy.Unevaluated("square", sympy.N(-2))
	if got := sympy.Simplify(e); got.String() != "square(-2)" {
		t.Errorf("want square(-2), got %s", got)
	}
}

func TestRegister_Duplicate(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("registering square twice should panic")
		}
	}()
	sympy.Register(sympy.FuncDef{Name: "square", MinArgs: 1, MaxArgs: 1})
}

func TestFunctions_Sorted(t *testing.T) {
	names := sympy.Functions()
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Errorf("not sorted: %v", names)
		}
	}
	if _, ok := sympy.Lookup("zeta"); !ok {
		t.Errorf("zeta should be registered")
	}
}

func TestZetaOf(t *testing.T) {
	z := sympy.ZetaOf(sympy.N(2))
	if z.String() != "zeta(2)" || z.LaTeX() != `\zeta\left(2\right)` {
		t.Errorf("got %s / %s", z, z.LaTeX())
	}
}

// ============================================================
// Evalf
// ============================================================

func TestEvalf_Rational(t *testing.T) {
	x, err := sympy.Evalf(sympy.F(1, 4), 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if x.Prec() != sympy.DefaultPrec {
		t.Errorf("want default precision, got %d", x.Prec())
	}
	if f, _ := x.Float64(); f != 0.25 {
		t.Errorf("want 0.25, got %v", f)
	}
}

func TestEvalf_Call(t *testing.T) {
	e := sympy.AddOf(sympy.Unevaluated("square", sympy.N(3)), sympy.PowOf(sympy.N(2), sympy.N(-1)))
	x, err := sympy.Evalf(e, 64)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f, _ := x.Float64(); f != 9.5 {
		t.Errorf("want 9.5, got %v", f)
	}
}

func TestEvalf_NotNumeric(t *testing.T) {
	for _, e := range []sympy.Expr{sympy.S("x"), sympy.ZetaOf(sympy.N(3)), sympy.Oo} {
		if _, err := sympy.Evalf(e, 53); !errors.Is(err, sympy.ErrNotNumeric) {
			t.Errorf("%s: want ErrNotNumeric, got %v", e, err)
		}
	}
}

// ============================================================
// JSON Serialization tests
// ============================================================

func TestToJSON_Num(t *testing.T) {
	m := exprParam(t, sympy.N(3))
	if m["type"] != "num" || m["value"] != "3" {
		t.Errorf("unexpected JSON %v", m)
	}
}

func TestFromJSON_RoundTrip(t *testing.T) {
	x := sympy.S("x")
	exprs := []sympy.Expr{
		sympy.AddOf(sympy.MulOf(sympy.N(2), x), sympy.N(1)),
		sympy.PowOf(x, sympy.F(1, 2)),
		sympy.Oo,
		sympy.Unevaluated("square", x),
		sympy.Unevaluated("undefined", x, sympy.Oo),
	}
	for _, e := range exprs {
		if got := roundTrip(t, e); !got.Equal(e) {
			t.Errorf("round-trip mismatch: %s != %s", got, e)
		}
	}
}

func TestFromJSON_EvaluatesCalls(t *testing.T) {
	m := map[string]interface{}{
		"type": "func", "name": "square",
		"args": []interface{}{map[string]interface{}{"type": "num", "value": "5"}},
	}
	got, err := sympy.FromJSON(m)
	if err != nil {
		t.Fatalf("FromJSON error: %v", err)
	}
	if got.String() != "25" {
		t.Errorf("want 25, got %s", got)
	}
}

func TestFromJSON_Errors(t *testing.T) {
	bad := []map[string]interface{}{
		nil,
		{},
		{"type": "num", "value": "abc"},
		{"type": "pow", "base": map[string]interface{}{"type": "sym", "name": "x"}},
		{"type": "func", "name": "square", "args": "x"},
		{"type": "quaternion"},
	}
	for _, m := range bad {
		if _, err := sympy.FromJSON(m); err == nil {
			t.Errorf("expected error for %v", m)
		}
	}
}

// ============================================================
// MCP tool call tests
// ============================================================

func TestHandleToolCall_Simplify(t *testing.T) {
	x := sympy.S("x")
	resp := sympy.HandleToolCall(sympy.ToolRequest{
		Tool:   "simplify",
		Params: map[string]interface{}{"expr": exprParam(t, sympy.AddOf(x, x))},
	})
	if resp.Error != "" {
		t.Fatalf("unexpected error: %s", resp.Error)
	}
	if resp.String != "2*x" {
		t.Errorf("want 2*x, got %s", resp.String)
	}
}

func TestHandleToolCall_Sub(t *testing.T) {
	resp := sympy.HandleToolCall(sympy.ToolRequest{
		Tool: "sub",
		Params: map[string]interface{}{
			"expr":  exprParam(t, sympy.Unevaluated("square", sympy.S("k"))),
			"var":   "k",
			"value": float64(7),
		},
	})
	if resp.Error != "" {
		t.Fatalf("unexpected error: %s", resp.Error)
	}
	if resp.String != "49" {
		t.Errorf("want 49, got %s", resp.String)
	}
}

func TestHandleToolCall_FreeSymbols(t *testing.T) {
	e := sympy.AddOf(sympy.S("y"), sympy.S("x"))
	resp := sympy.HandleToolCall(sympy.ToolRequest{
		Tool:   "free_symbols",
		Params: map[string]interface{}{"expr": exprParam(t, e)},
	})
	names, ok := resp.Result.([]string)
	if !ok || len(names) != 2 || names[0] != "x" || names[1] != "y" {
		t.Errorf("want [x y], got %v", resp.Result)
	}
}

func TestHandleToolCall_Evalf(t *testing.T) {
	resp := sympy.HandleToolCall(sympy.ToolRequest{
		Tool:   "evalf",
		Params: map[string]interface{}{"expr": exprParam(t, sympy.F(1, 3)), "prec": float64(20)},
	})
	if resp.Error != "" {
		t.Fatalf("unexpected error: %s", resp.Error)
	}
	if !strings.HasPrefix(resp.String, "0.33333") {
		t.Errorf("want 0.33333..., got %s", resp.String)
	}

	resp = sympy.HandleToolCall(sympy.ToolRequest{
		Tool:   "evalf",
		Params: map[string]interface{}{"expr": exprParam(t, sympy.N(1)), "prec": 1.5},
	})
	if resp.Error == "" {
		t.Errorf("fractional prec should be rejected")
	}
}

func TestHandleToolCall_RegisteredFunction(t *testing.T) {
	resp := sympy.HandleToolCall(sympy.ToolRequest{
		Tool:   "square",
		Params: map[string]interface{}{"n": float64(12)},
	})
	if resp.Error != "" || resp.String != "144" {
		t.Errorf("want 144, got %q (error %q)", resp.String, resp.Error)
	}

	resp = sympy.HandleToolCall(sympy.ToolRequest{
		Tool:   "call",
		Params: map[string]interface{}{"name": "square", "args": []interface{}{"m"}},
	})
	if resp.String != "square(m)" {
		t.Errorf("want square(m), got %q", resp.String)
	}

	resp = sympy.HandleToolCall(sympy.ToolRequest{
		Tool:   "square",
		Params: map[string]interface{}{"n": float64(-1)},
	})
	if !strings.Contains(resp.Error, "negative") {
		t.Errorf("want evaluator error, got %q", resp.Error)
	}
}

func TestHandleToolCall_UnknownTool(t *testing.T) {
	resp := sympy.HandleToolCall(sympy.ToolRequest{Tool: "nonexistent"})
	if resp.Error == "" {
		t.Errorf("expected error for unknown tool")
	}
}

func TestMCPToolSpec(t *testing.T) {
	spec := sympy.MCPToolSpec()
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(spec), &m); err != nil {
		t.Fatalf("MCPToolSpec returned invalid JSON: %v", err)
	}
	tools, ok := m["tools"].([]interface{})
	if !ok || len(tools) == 0 {
		t.Fatalf("expected non-empty tools array")
	}
	if !strings.Contains(spec, `"square(n) = n^2"`) {
		t.Errorf("registered functions should appear with their doc")
	}
}

// ============================================================
// Equality & determinism
// ============================================================

func TestEqual_CrossType(t *testing.T) {
	if sympy.N(1).Equal(sympy.S("x")) {
		t.Errorf("Num should not equal Sym")
	}
	if !sympy.Oo.Equal(sympy.Oo) {
		t.Errorf("oo should equal itself")
	}
}

func TestDeterminism(t *testing.T) {
	x, y := sympy.S("x"), sympy.S("y")
	first := sympy.AddOf(y, x, sympy.MulOf(x, y), sympy.N(1)).String()
	for i := 0; i < 50; i++ {
		if got := sympy.AddOf(sympy.N(1), sympy.MulOf(y, x), x, y).String(); got != first {
			t.Fatalf("non-deterministic output: %s vs %s", got, first)
		}
	}
}
