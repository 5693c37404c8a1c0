package combinatorial

import (
	"fmt"
	"math"
	"math/big"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/gswirski/sympy"
	"github.com/gswirski/sympy/internal/memo"
)

// One partial-sum sequence per order, created on first use.
var harmonicOrders = struct {
	sync.Mutex
	seqs map[int64]*memo.Sequence[*big.Rat]
}{seqs: map[int64]*memo.Sequence[*big.Rat]{}}

func harmonicSequence(m int64) *memo.Sequence[*big.Rat] {
	harmonicOrders.Lock()
	defer harmonicOrders.Unlock()
	if s, ok := harmonicOrders.seqs[m]; ok {
		return s
	}
	log().Debug("harmonic sequence created", zap.Int64("order", m))
	exp := big.NewInt(m)
	if m < 0 {
		exp.Neg(exp)
	}
	s := memo.New([]*big.Rat{new(big.Rat)}, func(k int, prev []*big.Rat) *big.Rat {
		p := new(big.Int).Exp(big.NewInt(int64(k)), exp, nil)
		t := new(big.Rat).SetInt(p)
		if m > 0 {
			t.Inv(t)
		}
		return t.Add(t, prev[k-1])
	})
	harmonicOrders.seqs[m] = s
	return s
}

// HarmonicNumber returns H_{n,m} = Σ_{k=1}^{n} 1/k^m.
func HarmonicNumber(n int, m int64) (*big.Rat, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: harmonic(%d, %d): index must be non-negative", ErrDomain, n, m)
	}
	if n == 0 {
		return new(big.Rat), nil
	}
	h, err := harmonicSequence(m).Term(n)
	if err != nil {
		return nil, err
	}
	return new(big.Rat).Set(h), nil
}

// HarmonicOrders lists the orders that have a sequence cache, ascending.
func HarmonicOrders() []int64 {
	harmonicOrders.Lock()
	defer harmonicOrders.Unlock()
	orders := make([]int64, 0, len(harmonicOrders.seqs))
	for m := range harmonicOrders.seqs {
		orders = append(orders, m)
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i] < orders[j] })
	return orders
}

// Harmonic is sympy.Call("harmonic", n).
func Harmonic(n sympy.Expr) (sympy.Expr, error) { return sympy.Call("harmonic", n) }

func evalHarmonic(args []sympy.Expr) (sympy.Expr, error) {
	var order sympy.Expr = sympy.N(1)
	if len(args) == 2 {
		order = args[1]
	}
	if _, inf := args[0].(*sympy.Infinity); inf {
		return sympy.ZetaOf(order), nil
	}
	n, ok := integer(args[0])
	if !ok || n < 0 || n > math.MaxInt32 {
		return nil, nil
	}
	m, ok := integer(order)
	if !ok {
		return nil, nil
	}
	if n == 0 {
		return sympy.N(0), nil
	}
	h, err := HarmonicNumber(int(n), m)
	if err != nil {
		return nil, err
	}
	return sympy.Rat(h), nil
}
