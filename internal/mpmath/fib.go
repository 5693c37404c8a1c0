// Package mpmath holds the arbitrary-precision primitives the combinatorial
// functions delegate to: fast-doubling Fibonacci numbers, exact Bernoulli
// fractions for large indices, exact and floating Euler numbers, and π.
package mpmath

import (
	"math/big"
	"math/bits"

	"github.com/remyoudompheng/bigfft"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultParallelThreshold is the operand size in bits above which the
	// three products of a doubling step run concurrently.
	DefaultParallelThreshold = 4096

	// DefaultFFTThreshold is the operand size in bits above which products
	// switch from math/big's Karatsuba to FFT multiplication.
	DefaultFFTThreshold = 500_000
)

// Options tunes the multiplication strategy of Fibonacci computations.
type Options struct {
	ParallelThreshold int
	FFTThreshold      int
}

// DefaultOptions returns the thresholds Fib uses.
func DefaultOptions() Options {
	return Options{
		ParallelThreshold: DefaultParallelThreshold,
		FFTThreshold:      DefaultFFTThreshold,
	}
}

// Fib returns the n-th Fibonacci number.
func Fib(n uint64) *big.Int {
	return FibWithOptions(n, DefaultOptions())
}

// FibWithOptions returns the n-th Fibonacci number using the fast doubling
// identities
//
//	F(2k)   = F(k) * (2*F(k+1) - F(k))
//	F(2k+1) = F(k)^2 + F(k+1)^2
//
// walking the bits of n from the most significant one. O(log n) big
// multiplications.
func FibWithOptions(n uint64, opts Options) *big.Int {
	a := big.NewInt(0) // F(k)
	b := big.NewInt(1) // F(k+1)
	t := new(big.Int)
	p1, p2, p3 := new(big.Int), new(big.Int), new(big.Int)

	for i := bits.Len64(n) - 1; i >= 0; i-- {
		t.Lsh(b, 1)
		t.Sub(t, a)

		products(p1, p2, p3, a, b, t, opts)

		// p1 = F(2k), p2 + p3 = F(2k+1)
		p2.Add(p2, p3)
		if (n>>uint(i))&1 == 1 {
			a.Set(p2)
			b.Add(p1, p2)
		} else {
			a.Set(p1)
			b.Set(p2)
		}
	}
	return a
}

// products sets p1 = a*t, p2 = a*a and p3 = b*b.
func products(p1, p2, p3, a, b, t *big.Int, opts Options) {
	if b.BitLen() < opts.ParallelThreshold {
		mul(p1, a, t, opts)
		mul(p2, a, a, opts)
		mul(p3, b, b, opts)
		return
	}
	var g errgroup.Group
	g.Go(func() error { mul(p1, a, t, opts); return nil })
	g.Go(func() error { mul(p2, a, a, opts); return nil })
	g.Go(func() error { mul(p3, b, b, opts); return nil })
	_ = g.Wait()
}

// mul sets z = x*y, switching to FFT multiplication for large operands.
// z must not alias x or y.
func mul(z, x, y *big.Int, opts Options) *big.Int {
	if opts.FFTThreshold > 0 && x.BitLen() >= opts.FFTThreshold && y.BitLen() >= opts.FFTThreshold {
		return z.Set(bigfft.Mul(x, y))
	}
	return z.Mul(x, y)
}
