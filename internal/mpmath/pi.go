package mpmath

import (
	"math/big"
)

// Pi returns π rounded to prec bits, from Machin's formula
// π = 16·arccot(5) - 4·arccot(239) evaluated in fixed point.
func Pi(prec uint) *big.Float {
	guard := prec + 64
	unity := new(big.Int).Lsh(big.NewInt(1), guard)

	pi := arccot(5, unity)
	pi.Lsh(pi, 4)
	b := arccot(239, unity)
	b.Lsh(b, 2)
	pi.Sub(pi, b)

	f := new(big.Float).SetPrec(prec).SetInt(pi)
	return f.SetMantExp(f, -int(guard))
}

// arccot returns arccot(x) scaled by unity.
func arccot(x int64, unity *big.Int) *big.Int {
	sum := new(big.Int)
	xsq := big.NewInt(x * x)
	pow := new(big.Int).Quo(unity, big.NewInt(x))
	term := new(big.Int)
	div := new(big.Int)
	for k := int64(0); pow.Sign() != 0; k++ {
		term.Quo(pow, div.SetInt64(2*k+1))
		if k%2 == 0 {
			sum.Add(sum, term)
		} else {
			sum.Sub(sum, term)
		}
		pow.Quo(pow, xsq)
	}
	return sum
}

// PowFloat returns x^n at prec bits by binary exponentiation.
func PowFloat(x *big.Float, n uint64, prec uint) *big.Float {
	result := new(big.Float).SetPrec(prec).SetInt64(1)
	base := new(big.Float).SetPrec(prec).Set(x)
	for n > 0 {
		if n&1 == 1 {
			result.Mul(result, base)
		}
		n >>= 1
		if n > 0 {
			base.Mul(base, base)
		}
	}
	return result
}

// roundToInt rounds a finite x to the nearest integer, halves away from zero.
func roundToInt(x *big.Float) *big.Int {
	half := new(big.Float).SetPrec(x.Prec()).SetFloat64(0.5)
	y := new(big.Float).SetPrec(x.Prec() + 1)
	if x.Sign() < 0 {
		y.Sub(x, half)
	} else {
		y.Add(x, half)
	}
	z, _ := y.Int(nil)
	return z
}
