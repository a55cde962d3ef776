// Package collatz computes modified Collatz trajectories and the algebraic
// equations derived from them.
//
// The odd step is fused with the halving that always follows it, so a
// trajectory from m satisfies
//
//	(3^log3 * m + n) / 2^log2 = 1
//
// where n is a series built from the points at which odd steps happened.
package collatz

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
)

var (
	// ErrInvalidInput is returned when the starting value is not a positive integer.
	ErrInvalidInput = errors.New("starting value must be a positive integer")

	// ErrStepLimitExceeded is returned when a walk takes more steps than allowed.
	ErrStepLimitExceeded = errors.New("step limit exceeded")

	// ErrMalformedResult is returned by New when the data is not a valid trajectory.
	ErrMalformedResult = errors.New("malformed result")
)

var (
	one   = big.NewInt(1)
	three = big.NewInt(3)
)

// Result is the trajectory of a starting value m. It is immutable, every
// accessor returns a copy. Results come from Compute or New, the zero
// value has m = 0 and an empty cycle.
type Result struct {
	m     *big.Int
	log2  int
	log3  int
	n     []int
	cycle []*big.Int
}

// Compute walks the trajectory of m down to 1.
func Compute(m *big.Int) (*Result, error) {
	return ComputeLimit(m, 0)
}

// ComputeInt is Compute for a machine integer.
func ComputeInt(m int64) (*Result, error) {
	return Compute(big.NewInt(m))
}

// ComputeLimit is like Compute but gives up after maxSteps steps.
// maxSteps <= 0 means no limit.
func ComputeLimit(m *big.Int, maxSteps int) (*Result, error) {
	if m == nil || m.Cmp(one) < 0 {
		return nil, fmt.Errorf("%v: %w", m, ErrInvalidInput)
	}

	r := Result{
		m:     new(big.Int).Set(m),
		n:     []int{},
		cycle: []*big.Int{new(big.Int).Set(m)},
	}

	base := new(big.Int).Set(m)
	for base.Cmp(one) != 0 {
		if maxSteps > 0 && r.log2 >= maxSteps {
			return nil, fmt.Errorf("%v after %d steps: %w", m, maxSteps, ErrStepLimitExceeded)
		}

		odd := step(base)
		r.cycle = append(r.cycle, new(big.Int).Set(base))
		if odd {
			r.n = append(r.n, r.log2)
			r.log3++
		}
		r.log2++
	}

	return &r, nil
}

// step advances base in place and reports whether it was odd.
// Odd values go to (3x+1)/2, even ones to x/2.
func step(base *big.Int) bool {
	if base.Bit(0) == 0 {
		base.Rsh(base, 1)
		return false
	}

	base.Mul(base, three)
	base.Add(base, one)
	base.Rsh(base, 1)
	return true
}

// New builds a Result from precomputed trajectory data without walking it
// again. The data is checked against the invariants a computed result
// holds, including the equation identity.
func New(m *big.Int, log2, log3 int, n []int, cycle []*big.Int) (*Result, error) {
	r := Result{
		log2:  log2,
		log3:  log3,
		n:     append([]int{}, n...),
		cycle: make([]*big.Int, len(cycle)),
	}
	if m != nil {
		r.m = new(big.Int).Set(m)
	}
	for i, v := range cycle {
		if v == nil {
			return nil, fmt.Errorf("cycle[%d] is nil: %w", i, ErrMalformedResult)
		}
		r.cycle[i] = new(big.Int).Set(v)
	}

	if err := r.validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

func (r *Result) validate() error {
	switch {
	case r.m == nil || r.m.Sign() <= 0:
		return fmt.Errorf("m = %v: %w", r.m, ErrMalformedResult)
	case r.log2 < 0 || r.log3 < 0:
		return fmt.Errorf("negative exponent (log2 = %d, log3 = %d): %w", r.log2, r.log3, ErrMalformedResult)
	case len(r.n) != r.log3:
		return fmt.Errorf("len(n) = %d, log3 = %d: %w", len(r.n), r.log3, ErrMalformedResult)
	case r.log3 > r.log2:
		return fmt.Errorf("log3 = %d exceeds log2 = %d: %w", r.log3, r.log2, ErrMalformedResult)
	case len(r.cycle) != r.log2+1:
		return fmt.Errorf("len(cycle) = %d, want %d: %w", len(r.cycle), r.log2+1, ErrMalformedResult)
	case r.cycle[0].Cmp(r.m) != 0:
		return fmt.Errorf("cycle starts at %v, not %v: %w", r.cycle[0], r.m, ErrMalformedResult)
	case r.cycle[len(r.cycle)-1].Cmp(one) != 0:
		return fmt.Errorf("cycle ends at %v, not 1: %w", r.cycle[len(r.cycle)-1], ErrMalformedResult)
	}

	prev := -1
	for i, v := range r.n {
		if v <= prev || v >= r.log2 {
			return fmt.Errorf("n[%d] = %d out of order: %w", i, v, ErrMalformedResult)
		}
		prev = v
	}

	if r.NumericN().Cmp(r.SeriesSum()) != 0 {
		return fmt.Errorf("equation does not hold for m = %v: %w", r.m, ErrMalformedResult)
	}
	return nil
}

// M returns the starting value.
func (r *Result) M() *big.Int { return new(big.Int).Set(r.start()) }

func (r *Result) start() *big.Int {
	if r.m == nil {
		return new(big.Int)
	}
	return r.m
}

// Log2 returns the number of halvings, including the one fused into each
// odd step. Every step halves, so this is also the trajectory length.
func (r *Result) Log2() int { return r.log2 }

// Log3 returns the number of odd steps.
func (r *Result) Log3() int { return r.log3 }

// Steps returns the number of transitions from m to 1.
func (r *Result) Steps() int { return r.log2 }

// N returns the log2 value recorded at each odd step.
func (r *Result) N() []int { return append([]int{}, r.n...) }

// Cycle returns the trajectory from m to 1.
func (r *Result) Cycle() []*big.Int {
	out := make([]*big.Int, len(r.cycle))
	for i, v := range r.cycle {
		out[i] = new(big.Int).Set(v)
	}
	return out
}

// String renders the cycle as a slice literal, e.g. [3 5 8 4 2 1].
func (r *Result) String() string {
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range r.cycle {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(v.String())
	}
	b.WriteByte(']')
	return b.String()
}
