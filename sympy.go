// Package sympy provides a deterministic symbolic expression kernel for Go,
// with a registry of special functions that evaluate themselves when their
// arguments are concrete.
//
// Design goals:
//   - Exact rational arithmetic (math/big.Rat)
//   - Deterministic simplification and stable output
//   - Unevaluated function calls that collapse once substituted
//   - JSON, LaTeX and MCP-ready APIs
package sympy

import (
	"fmt"
	"math/big"
	"sort"
	"strings"
)

// ============================================================
// Core Interface
// ============================================================

type Expr interface {
	Simplify() Expr
	String() string
	LaTeX() string
	Sub(varName string, value Expr) Expr
	Equal(other Expr) bool
	exprType() string
	toJSON() map[string]interface{}
}

// ============================================================
// Num: exact rational number
// ============================================================

type Num struct{ val *big.Rat }

func N(n int64) *Num { return &Num{val: new(big.Rat).SetInt64(n)} }
func F(p, q int64) *Num {
	if q == 0 {
		panic("sympy: denominator is zero")
	}
	return &Num{val: new(big.Rat).SetFrac(big.NewInt(p), big.NewInt(q))}
}

// Int wraps a copy of i.
func Int(i *big.Int) *Num { return &Num{val: new(big.Rat).SetInt(i)} }

// Rat wraps a copy of r.
func Rat(r *big.Rat) *Num { return &Num{val: new(big.Rat).Set(r)} }

func (n *Num) Simplify() Expr        { return n }
func (n *Num) Sub(string, Expr) Expr { return n }
func (n *Num) Equal(other Expr) bool { o, ok := other.(*Num); return ok && n.val.Cmp(o.val) == 0 }
func (n *Num) exprType() string      { return "num" }
func (n *Num) Float64() float64      { f, _ := n.val.Float64(); return f }
func (n *Num) IsZero() bool          { return n.val.Sign() == 0 }
func (n *Num) IsOne() bool           { return n.val.IsInt() && n.val.Num().IsInt64() && n.val.Num().Int64() == 1 }
func (n *Num) IsNegOne() bool        { return n.val.IsInt() && n.val.Num().IsInt64() && n.val.Num().Int64() == -1 }
func (n *Num) IsInteger() bool       { return n.val.IsInt() }
func (n *Num) Rat() *big.Rat         { return new(big.Rat).Set(n.val) }
func (n *Num) IsPositive() bool      { return n.val.Sign() > 0 }
func (n *Num) IsNegative() bool      { return n.val.Sign() < 0 }
func (n *Num) Sign() int             { return n.val.Sign() }

// BigInt returns a copy of the value when it is an integer.
func (n *Num) BigInt() (*big.Int, bool) {
	if !n.val.IsInt() {
		return nil, false
	}
	return new(big.Int).Set(n.val.Num()), true
}

// Int64 returns the value when it is an integer that fits in an int64.
func (n *Num) Int64() (int64, bool) {
	if !n.val.IsInt() || !n.val.Num().IsInt64() {
		return 0, false
	}
	return n.val.Num().Int64(), true
}

func (n *Num) String() string {
	if n.val.IsInt() {
		return n.val.Num().String()
	}
	return n.val.RatString()
}

func (n *Num) LaTeX() string {
	if n.val.IsInt() {
		return n.val.Num().String()
	}
	sign := ""
	v := new(big.Rat).Set(n.val)
	if v.Sign() < 0 {
		sign = "-"
		v.Neg(v)
	}
	return fmt.Sprintf("%s\\frac{%s}{%s}", sign, v.Num().String(), v.Denom().String())
}

func (n *Num) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "num", "value": n.String()}
}

func numAdd(a, b *Num) *Num { return &Num{val: new(big.Rat).Add(a.val, b.val)} }
func numMul(a, b *Num) *Num { return &Num{val: new(big.Rat).Mul(a.val, b.val)} }
func numNeg(a *Num) *Num    { return &Num{val: new(big.Rat).Neg(a.val)} }

// maxExactExp bounds the integer exponents Pow folds into a single number.
const maxExactExp = 1 << 16

// numPow returns a^e exactly. a must be non-zero when e < 0.
func numPow(a *Num, e int64) *Num {
	abs := e
	if abs < 0 {
		abs = -abs
	}
	exp := big.NewInt(abs)
	num := new(big.Int).Exp(a.val.Num(), exp, nil)
	den := new(big.Int).Exp(a.val.Denom(), exp, nil)
	if e < 0 {
		num, den = den, num
	}
	return &Num{val: new(big.Rat).SetFrac(num, den)}
}

// ============================================================
// Sym: symbolic variable
// ============================================================

type Sym struct{ name string }

func S(name string) *Sym      { return &Sym{name: name} }
func (s *Sym) Simplify() Expr { return s }
func (s *Sym) String() string { return s.name }
func (s *Sym) LaTeX() string  { return s.name }

func (s *Sym) Equal(other Expr) bool { o, ok := other.(*Sym); return ok && s.name == o.name }
func (s *Sym) exprType() string      { return "sym" }
func (s *Sym) Name() string          { return s.name }
func (s *Sym) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "sym", "name": s.name}
}
func (s *Sym) Sub(varName string, value Expr) Expr {
	if s.name == varName {
		return value
	}
	return s
}

// ============================================================
// Infinity: positive infinity
// ============================================================

type Infinity struct{}

// Oo is positive infinity.
var Oo Expr = &Infinity{}

func (o *Infinity) Simplify() Expr        { return o }
func (o *Infinity) String() string        { return "oo" }
func (o *Infinity) LaTeX() string         { return "\\infty" }
func (o *Infinity) Sub(string, Expr) Expr { return o }
func (o *Infinity) Equal(other Expr) bool { _, ok := other.(*Infinity); return ok }
func (o *Infinity) exprType() string      { return "oo" }
func (o *Infinity) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "oo"}
}

// ============================================================
// Add: sum of terms
// ============================================================

type Add struct{ terms []Expr }

func AddOf(terms ...Expr) Expr { return (&Add{terms: terms}).Simplify() }

// Simplify flattens nested sums, folds constants and collects like terms.
// Terms are ordered by descending degree, then by their printed form, with
// the constant last.
func (a *Add) Simplify() Expr {
	flat := make([]Expr, 0, len(a.terms))
	for _, t := range a.terms {
		s := t.Simplify()
		if inner, ok := s.(*Add); ok {
			flat = append(flat, inner.terms...)
		} else {
			flat = append(flat, s)
		}
	}

	constant := N(0)
	coeffs := map[string]*Num{}
	rests := map[string]Expr{}
	keys := []string{}
	for _, t := range flat {
		if v, ok := t.(*Num); ok {
			constant = numAdd(constant, v)
			continue
		}
		c, rest := splitCoeff(t)
		k := rest.String()
		if _, seen := coeffs[k]; !seen {
			coeffs[k] = N(0)
			rests[k] = rest
			keys = append(keys, k)
		}
		coeffs[k] = numAdd(coeffs[k], c)
	}

	degrees := make(map[string]int, len(keys))
	for _, k := range keys {
		degrees[k] = degree(rests[k])
	}
	sort.Slice(keys, func(i, j int) bool {
		di, dj := degrees[keys[i]], degrees[keys[j]]
		if di != dj {
			return di > dj
		}
		if c := compareMonomials(rests[keys[i]], rests[keys[j]]); c != 0 {
			return c > 0
		}
		return keys[i] < keys[j]
	})

	result := make([]Expr, 0, len(keys)+1)
	for _, k := range keys {
		if c := coeffs[k]; !c.IsZero() {
			result = append(result, scale(c, rests[k]))
		}
	}
	if !constant.IsZero() {
		result = append(result, constant)
	}
	switch len(result) {
	case 0:
		return N(0)
	case 1:
		return result[0]
	}
	return &Add{terms: result}
}

// splitCoeff separates the numeric coefficient of a simplified term.
func splitCoeff(e Expr) (*Num, Expr) {
	m, ok := e.(*Mul)
	if !ok {
		return N(1), e
	}
	c, ok := m.factors[0].(*Num)
	if !ok {
		return N(1), e
	}
	if len(m.factors) == 2 {
		return c, m.factors[1]
	}
	return c, &Mul{factors: m.factors[1:]}
}

// scale rebuilds c*e for a coefficient-free simplified e.
func scale(c *Num, e Expr) Expr {
	if c.IsOne() {
		return e
	}
	if m, ok := e.(*Mul); ok {
		return &Mul{factors: append([]Expr{c}, m.factors...)}
	}
	return &Mul{factors: []Expr{c, e}}
}

// negated returns -e when e prints with a leading minus sign.
func negated(e Expr) (Expr, bool) {
	switch v := e.(type) {
	case *Num:
		if v.IsNegative() {
			return numNeg(v), true
		}
	case *Mul:
		c, rest := splitCoeff(v)
		if c.IsNegative() {
			return scale(numNeg(c), rest), true
		}
	}
	return nil, false
}

// degree is the total degree of a monomial in its symbols.
func degree(e Expr) int {
	switch v := e.(type) {
	case *Sym:
		return 1
	case *Pow:
		if _, ok := v.base.(*Sym); ok {
			if n, ok := v.exp.(*Num); ok {
				if d, ok := n.Int64(); ok {
					return int(d)
				}
			}
		}
	case *Mul:
		d := 0
		for _, f := range v.factors {
			d += degree(f)
		}
		return d
	}
	return 0
}

// exponents maps each symbol of a monomial to its integer power.
func exponents(e Expr, out map[string]int64) {
	switch v := e.(type) {
	case *Sym:
		out[v.name]++
	case *Pow:
		if s, ok := v.base.(*Sym); ok {
			if n, ok := v.exp.(*Num); ok {
				if d, ok := n.Int64(); ok {
					out[s.name] += d
				}
			}
		}
	case *Mul:
		for _, f := range v.factors {
			exponents(f, out)
		}
	}
}

// compareMonomials orders equal-degree monomials lexicographically: the one
// with the higher power of the alphabetically first symbol comes first.
func compareMonomials(a, b Expr) int {
	ea, eb := map[string]int64{}, map[string]int64{}
	exponents(a, ea)
	exponents(b, eb)
	names := make([]string, 0, len(ea)+len(eb))
	for k := range ea {
		names = append(names, k)
	}
	for k := range eb {
		if _, dup := ea[k]; !dup {
			names = append(names, k)
		}
	}
	sort.Strings(names)
	for _, k := range names {
		switch {
		case ea[k] > eb[k]:
			return 1
		case ea[k] < eb[k]:
			return -1
		}
	}
	return 0
}

func (a *Add) String() string {
	var sb strings.Builder
	for i, t := range a.terms {
		if i > 0 {
			if neg, ok := negated(t); ok {
				sb.WriteString(" - ")
				sb.WriteString(neg.String())
				continue
			}
			sb.WriteString(" + ")
		}
		sb.WriteString(t.String())
	}
	return sb.String()
}

func (a *Add) LaTeX() string {
	var sb strings.Builder
	for i, t := range a.terms {
		if i > 0 {
			if neg, ok := negated(t); ok {
				sb.WriteString(" - ")
				sb.WriteString(neg.LaTeX())
				continue
			}
			sb.WriteString(" + ")
		}
		sb.WriteString(t.LaTeX())
	}
	return sb.String()
}

func (a *Add) Sub(varName string, value Expr) Expr {
	newTerms := make([]Expr, len(a.terms))
	for i, t := range a.terms {
		newTerms[i] = t.Sub(varName, value)
	}
	return AddOf(newTerms...)
}

func (a *Add) Equal(other Expr) bool {
	o, ok := other.(*Add)
	if !ok || len(a.terms) != len(o.terms) {
		return false
	}
	for i := range a.terms {
		if !a.terms[i].Equal(o.terms[i]) {
			return false
		}
	}
	return true
}

func (a *Add) exprType() string { return "add" }
func (a *Add) toJSON() map[string]interface{} {
	ts := make([]map[string]interface{}, len(a.terms))
	for i, t := range a.terms {
		ts[i] = t.toJSON()
	}
	return map[string]interface{}{"type": "add", "terms": ts}
}
func (a *Add) Terms() []Expr { return a.terms }

// ============================================================
// Mul: product of factors
// ============================================================

type Mul struct{ factors []Expr }

func MulOf(factors ...Expr) Expr { return (&Mul{factors: factors}).Simplify() }

// Simplify flattens nested products, folds the numeric coefficient to the
// front and merges powers of a common base.
func (m *Mul) Simplify() Expr {
	flat := make([]Expr, 0, len(m.factors))
	for _, f := range m.factors {
		s := f.Simplify()
		if inner, ok := s.(*Mul); ok {
			flat = append(flat, inner.factors...)
		} else {
			flat = append(flat, s)
		}
	}

	coeff := N(1)
	bases := map[string]Expr{}
	exps := map[string]Expr{}
	keys := []string{}
	for _, f := range flat {
		if v, ok := f.(*Num); ok {
			coeff = numMul(coeff, v)
			continue
		}
		base, exp := f, Expr(N(1))
		if p, ok := f.(*Pow); ok {
			base, exp = p.base, p.exp
		}
		k := base.String()
		if _, seen := bases[k]; seen {
			exps[k] = AddOf(exps[k], exp)
			continue
		}
		bases[k] = base
		exps[k] = exp
		keys = append(keys, k)
	}
	if coeff.IsZero() {
		return N(0)
	}

	sort.Strings(keys)
	others := make([]Expr, 0, len(keys))
	for _, k := range keys {
		p := PowOf(bases[k], exps[k])
		if n, ok := p.(*Num); ok {
			coeff = numMul(coeff, n)
			continue
		}
		if inner, ok := p.(*Mul); ok {
			c, rest := splitCoeff(inner)
			coeff = numMul(coeff, c)
			if rm, ok := rest.(*Mul); ok {
				others = append(others, rm.factors...)
			} else {
				others = append(others, rest)
			}
			continue
		}
		others = append(others, p)
	}
	if coeff.IsZero() {
		return N(0)
	}

	switch {
	case len(others) == 0:
		return coeff
	case coeff.IsOne() && len(others) == 1:
		return others[0]
	case coeff.IsOne():
		return &Mul{factors: others}
	}
	return &Mul{factors: append([]Expr{coeff}, others...)}
}

func (m *Mul) String() string {
	parts := make([]string, 0, len(m.factors))
	prefix := ""
	for i, f := range m.factors {
		if i == 0 && len(m.factors) > 1 {
			if c, ok := f.(*Num); ok && c.IsNegOne() {
				prefix = "-"
				continue
			}
		}
		if _, isAdd := f.(*Add); isAdd {
			parts = append(parts, "("+f.String()+")")
		} else {
			parts = append(parts, f.String())
		}
	}
	return prefix + strings.Join(parts, "*")
}

func (m *Mul) LaTeX() string {
	parts := make([]string, 0, len(m.factors))
	prefix := ""
	for i, f := range m.factors {
		if i == 0 && len(m.factors) > 1 {
			if c, ok := f.(*Num); ok && c.IsNegOne() {
				prefix = "-"
				continue
			}
		}
		if _, isAdd := f.(*Add); isAdd {
			parts = append(parts, "\\left("+f.LaTeX()+"\\right)")
		} else {
			parts = append(parts, f.LaTeX())
		}
	}
	return prefix + strings.Join(parts, " ")
}

func (m *Mul) Sub(varName string, value Expr) Expr {
	newFactors := make([]Expr, len(m.factors))
	for i, f := range m.factors {
		newFactors[i] = f.Sub(varName, value)
	}
	return MulOf(newFactors...)
}

func (m *Mul) Equal(other Expr) bool {
	o, ok := other.(*Mul)
	if !ok || len(m.factors) != len(o.factors) {
		return false
	}
	for i := range m.factors {
		if !m.factors[i].Equal(o.factors[i]) {
			return false
		}
	}
	return true
}

func (m *Mul) exprType() string { return "mul" }
func (m *Mul) toJSON() map[string]interface{} {
	fs := make([]map[string]interface{}, len(m.factors))
	for i, f := range m.factors {
		fs[i] = f.toJSON()
	}
	return map[string]interface{}{"type": "mul", "factors": fs}
}
func (m *Mul) Factors() []Expr { return m.factors }

// ============================================================
// Pow: base^exponent
// ============================================================

type Pow struct{ base, exp Expr }

func PowOf(base, exp Expr) Expr { return (&Pow{base: base, exp: exp}).Simplify() }

func (p *Pow) Simplify() Expr {
	base := p.base.Simplify()
	exp := p.exp.Simplify()

	en, expIsNum := exp.(*Num)
	if expIsNum && en.IsZero() {
		return N(1)
	}
	if expIsNum && en.IsOne() {
		return base
	}

	if bn, ok := base.(*Num); ok {
		switch {
		case bn.IsZero():
			// 0^0 and 0^negative stay unevaluated.
			if expIsNum && !en.IsPositive() {
				return &Pow{base: base, exp: exp}
			}
			return N(0)
		case bn.IsOne():
			return N(1)
		}
		if expIsNum {
			if e, ok := en.Int64(); ok && e >= -maxExactExp && e <= maxExactExp {
				return numPow(bn, e)
			}
		}
	}

	if expIsNum && en.IsInteger() {
		switch b := base.(type) {
		case *Pow:
			return PowOf(b.base, MulOf(b.exp, exp))
		case *Mul:
			fs := make([]Expr, len(b.factors))
			for i, f := range b.factors {
				fs[i] = PowOf(f, exp)
			}
			return MulOf(fs...)
		}
	}
	return &Pow{base: base, exp: exp}
}

func (p *Pow) String() string {
	return wrapBase(p.base, p.base.String(), "(", ")") + "^" + wrapExp(p.exp, p.exp.String(), "(", ")")
}

func (p *Pow) LaTeX() string {
	return wrapBase(p.base, p.base.LaTeX(), "\\left(", "\\right)") + "^{" + p.exp.LaTeX() + "}"
}

func wrapBase(e Expr, s, open, close string) string {
	switch v := e.(type) {
	case *Add, *Mul, *Pow:
		return open + s + close
	case *Num:
		if v.IsNegative() || !v.IsInteger() {
			return open + s + close
		}
	}
	return s
}

func wrapExp(e Expr, s, open, close string) string {
	switch v := e.(type) {
	case *Add, *Mul:
		return open + s + close
	case *Num:
		if !v.IsInteger() {
			return open + s + close
		}
	}
	return s
}

func (p *Pow) Sub(varName string, value Expr) Expr {
	return PowOf(p.base.Sub(varName, value), p.exp.Sub(varName, value))
}

func (p *Pow) Equal(other Expr) bool {
	o, ok := other.(*Pow)
	return ok && p.base.Equal(o.base) && p.exp.Equal(o.exp)
}

func (p *Pow) exprType() string { return "pow" }
func (p *Pow) toJSON() map[string]interface{} {
	return map[string]interface{}{"type": "pow", "base": p.base.toJSON(), "exp": p.exp.toJSON()}
}
func (p *Pow) Base() Expr    { return p.base }
func (p *Pow) ExpExpr() Expr { return p.exp }

// ============================================================
// Top-level convenience functions
// ============================================================

func Simplify(e Expr) Expr { return e.Simplify() }
func String(e Expr) string { return e.String() }
func LaTeX(e Expr) string  { return e.LaTeX() }

func Sub(expr Expr, varName string, value Expr) Expr {
	return expr.Sub(varName, value).Simplify()
}

// Expand distributes products over sums and multiplies out non-negative
// integer powers of sums.
func Expand(e Expr) Expr { return expandExpr(e).Simplify() }

// maxExpandExp bounds the powers of sums Expand multiplies out.
const maxExpandExp = 64

func expandExpr(e Expr) Expr {
	switch v := e.(type) {
	case *Mul:
		result := Expr(N(1))
		for _, f := range v.factors {
			result = distribute(result, expandExpr(f))
		}
		return result
	case *Add:
		newTerms := make([]Expr, len(v.terms))
		for i, t := range v.terms {
			newTerms[i] = expandExpr(t)
		}
		return AddOf(newTerms...)
	case *Pow:
		base := expandExpr(v.base)
		if n, ok := v.exp.(*Num); ok {
			if exp, ok := n.Int64(); ok && exp >= 0 && exp <= maxExpandExp {
				if _, isAdd := base.(*Add); isAdd {
					result := Expr(N(1))
					for i := int64(0); i < exp; i++ {
						result = distribute(result, base)
					}
					return result
				}
			}
		}
		return PowOf(base, expandExpr(v.exp))
	}
	return e
}

// distribute multiplies two expanded expressions term by term. Sums are never
// handed to MulOf together, since Mul.Simplify would fold equal sums back
// into a power.
func distribute(a, b Expr) Expr {
	at, bt := addTerms(a), addTerms(b)
	if len(at) == 1 && len(bt) == 1 {
		return MulOf(a, b)
	}
	terms := make([]Expr, 0, len(at)*len(bt))
	for _, x := range at {
		for _, y := range bt {
			terms = append(terms, MulOf(x, y))
		}
	}
	return AddOf(terms...)
}

func addTerms(e Expr) []Expr {
	if a, ok := e.(*Add); ok {
		return a.terms
	}
	return []Expr{e}
}

// ============================================================
// Free Symbols
// ============================================================

func FreeSymbols(e Expr) map[string]struct{} {
	result := map[string]struct{}{}
	collectSymbols(e, result)
	return result
}

func collectSymbols(e Expr, out map[string]struct{}) {
	switch v := e.(type) {
	case *Sym:
		out[v.name] = struct{}{}
	case *Add:
		for _, t := range v.terms {
			collectSymbols(t, out)
		}
	case *Mul:
		for _, f := range v.factors {
			collectSymbols(f, out)
		}
	case *Pow:
		collectSymbols(v.base, out)
		collectSymbols(v.exp, out)
	case *Func:
		for _, a := range v.args {
			collectSymbols(a, out)
		}
	}
}
