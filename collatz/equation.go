package collatz

import (
	"fmt"
	"math/big"
	"strings"
)

// pow returns base^exp.
func pow(base int64, exp int) *big.Int {
	return new(big.Int).Exp(big.NewInt(base), big.NewInt(int64(exp)), nil)
}

// Series returns the terms of the n series in symbolic form,
// "3^(k-1-i) * 2^(n[i])" for each odd step i.
func (r *Result) Series() []string {
	k := len(r.n)
	terms := make([]string, k)
	for i, e := range r.n {
		terms[i] = fmt.Sprintf("3^%d * 2^%d", k-1-i, e)
	}
	return terms
}

// SeriesSum evaluates the terms returned by Series.
func (r *Result) SeriesSum() *big.Int {
	k := len(r.n)
	sum := new(big.Int)
	for i, e := range r.n {
		term := pow(3, k-1-i)
		term.Lsh(term, uint(e))
		sum.Add(sum, term)
	}
	return sum
}

// NumericN returns 2^log2 - m*3^log3, the closed form of the n series.
func (r *Result) NumericN() *big.Int {
	mt := pow(3, r.log3)
	mt.Mul(mt, r.start())
	return new(big.Int).Sub(pow(2, r.log2), mt)
}

// FactoredEquation renders the equation with the n series spelled out.
//
//	[3^2 * x + (3^1 * 2^0 + 3^0 * 2^1)] / 2^5 - 1 = 0
func (r *Result) FactoredEquation() string {
	var b strings.Builder
	if r.log3 > 0 {
		fmt.Fprintf(&b, "[3^%d * x + (%s)]", r.log3, strings.Join(r.Series(), " + "))
	} else {
		b.WriteString("(3^0 * x)")
	}
	fmt.Fprintf(&b, " / 2^%d - 1 = 0", r.log2)
	return b.String()
}

// NumericEquation renders the equation with every coefficient evaluated.
//
//	(9 * x + 5) / 32 - 1 = 0
func (r *Result) NumericEquation() string {
	var b strings.Builder
	if r.log3 > 0 {
		fmt.Fprintf(&b, "(%s * x + %s)", pow(3, r.log3), r.NumericN())
	} else {
		b.WriteString("(x)")
	}
	if r.log2 > 0 {
		fmt.Fprintf(&b, " / %s", pow(2, r.log2))
	}
	b.WriteString(" - 1 = 0")
	return b.String()
}
