package sympy

import (
	"errors"
	"fmt"
	"math/big"
	"sort"
	"strings"
	"sync"
)

var (
	// ErrUnknownFunction is returned by Call for names nobody registered.
	ErrUnknownFunction = errors.New("sympy: unknown function")
	// ErrArity is returned by Call when the argument count is out of range.
	ErrArity = errors.New("sympy: wrong number of arguments")
	// ErrNotNumeric is returned by Evalf for expressions without a numeric value.
	ErrNotNumeric = errors.New("sympy: expression is not numeric")
)

// Evaluator tries to evaluate a call at simplified arguments. It returns
// (nil, nil) when the call should stay unevaluated.
type Evaluator func(args []Expr) (Expr, error)

// NumericEvaluator evaluates a call to prec bits.
type NumericEvaluator func(args []Expr, prec uint) (*big.Float, error)

// FuncDef describes a named function known to the kernel.
type FuncDef struct {
	Name    string
	Doc     string // one line, shown in the MCP tool schema
	MinArgs int
	MaxArgs int

	Eval  Evaluator        // optional
	Evalf NumericEvaluator // optional
	TeX   func(args []string) string
}

var registry = struct {
	sync.RWMutex
	defs map[string]FuncDef
}{defs: map[string]FuncDef{}}

// Register makes a function available to Call, Simplify and FromJSON.
// It panics if the name is empty or already registered.
func Register(def FuncDef) {
	if def.Name == "" {
		panic("sympy: Register with empty name")
	}
	registry.Lock()
	defer registry.Unlock()
	if _, dup := registry.defs[def.Name]; dup {
		panic("sympy: Register called twice for function " + def.Name)
	}
	registry.defs[def.Name] = def
}

// Lookup returns the definition registered under name.
func Lookup(name string) (FuncDef, bool) {
	registry.RLock()
	defer registry.RUnlock()
	def, ok := registry.defs[name]
	return def, ok
}

// Functions lists the registered function names in sorted order.
func Functions() []string {
	registry.RLock()
	defer registry.RUnlock()
	names := make([]string, 0, len(registry.defs))
	for name := range registry.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func init() {
	Register(FuncDef{
		Name: "zeta", Doc: "Riemann zeta function zeta(s), kept unevaluated", MinArgs: 1, MaxArgs: 1,
		TeX: func(args []string) string { return "\\zeta\\left(" + args[0] + "\\right)" },
	})
}

// Call builds name(args...), evaluating it when the registered evaluator
// can. Domain errors from the evaluator are returned unchanged.
func Call(name string, args ...Expr) (Expr, error) {
	def, ok := Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFunction, name)
	}
	if len(args) < def.MinArgs || len(args) > def.MaxArgs {
		return nil, fmt.Errorf("%w: %s takes %s, got %d", ErrArity, name, arityString(def), len(args))
	}
	simplified := make([]Expr, len(args))
	for i, a := range args {
		simplified[i] = a.Simplify()
	}
	return evaluate(def, simplified)
}

func arityString(def FuncDef) string {
	if def.MinArgs == def.MaxArgs {
		return fmt.Sprintf("%d", def.MinArgs)
	}
	return fmt.Sprintf("%d to %d", def.MinArgs, def.MaxArgs)
}

func evaluate(def FuncDef, args []Expr) (Expr, error) {
	if def.Eval != nil {
		r, err := def.Eval(args)
		if err != nil {
			return nil, err
		}
		if r != nil {
			return r, nil
		}
	}
	return &Func{name: def.Name, args: args}, nil
}

// Unevaluated builds name(args...) without trying to evaluate it. The next
// Simplify or Sub gives the registered evaluator its chance.
func Unevaluated(name string, args ...Expr) *Func {
	cp := make([]Expr, len(args))
	copy(cp, args)
	return &Func{name: name, args: cp}
}

// ZetaOf returns the Riemann zeta node zeta(s).
func ZetaOf(s Expr) Expr { return &Func{name: "zeta", args: []Expr{s.Simplify()}} }

// ============================================================
// Func: named function applications
// ============================================================

type Func struct {
	name string
	args []Expr
}

// Simplify simplifies the arguments and re-runs the evaluator. A domain error
// at this point leaves the call unevaluated; use Call to observe it.
func (f *Func) Simplify() Expr {
	args := make([]Expr, len(f.args))
	for i, a := range f.args {
		args[i] = a.Simplify()
	}
	def, ok := Lookup(f.name)
	if !ok || len(args) < def.MinArgs || len(args) > def.MaxArgs {
		return &Func{name: f.name, args: args}
	}
	r, err := evaluate(def, args)
	if err != nil {
		return &Func{name: f.name, args: args}
	}
	return r
}

func (f *Func) String() string {
	parts := make([]string, len(f.args))
	for i, a := range f.args {
		parts[i] = a.String()
	}
	return f.name + "(" + strings.Join(parts, ", ") + ")"
}

func (f *Func) LaTeX() string {
	parts := make([]string, len(f.args))
	for i, a := range f.args {
		parts[i] = a.LaTeX()
	}
	if def, ok := Lookup(f.name); ok && def.TeX != nil && len(parts) >= def.MinArgs && len(parts) <= def.MaxArgs {
		return def.TeX(parts)
	}
	return "\\operatorname{" + f.name + "}\\left(" + strings.Join(parts, ", ") + "\\right)"
}

func (f *Func) Sub(varName string, value Expr) Expr {
	args := make([]Expr, len(f.args))
	for i, a := range f.args {
		args[i] = a.Sub(varName, value)
	}
	return (&Func{name: f.name, args: args}).Simplify()
}

func (f *Func) Equal(other Expr) bool {
	o, ok := other.(*Func)
	if !ok || f.name != o.name || len(f.args) != len(o.args) {
		return false
	}
	for i := range f.args {
		if !f.args[i].Equal(o.args[i]) {
			return false
		}
	}
	return true
}

func (f *Func) exprType() string { return "func" }
func (f *Func) toJSON() map[string]interface{} {
	as := make([]map[string]interface{}, len(f.args))
	for i, a := range f.args {
		as[i] = a.toJSON()
	}
	return map[string]interface{}{"type": "func", "name": f.name, "args": as}
}
func (f *Func) FuncName() string { return f.name }

// Args returns a copy of the call's arguments.
func (f *Func) Args() []Expr {
	cp := make([]Expr, len(f.args))
	copy(cp, f.args)
	return cp
}
