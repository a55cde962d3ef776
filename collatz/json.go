package collatz

import (
	"encoding/json"
	"fmt"
	"math/big"
)

// jsonResult is the wire form of a Result. Big integers travel as
// decimal strings so they survive JSON number precision limits.
type jsonResult struct {
	M     string   `json:"m"`
	Log2  int      `json:"log2"`
	Log3  int      `json:"log3"`
	N     []int    `json:"n"`
	Cycle []string `json:"cycle"`
}

// MarshalJSON implements json.Marshaler.
func (r *Result) MarshalJSON() ([]byte, error) {
	jr := jsonResult{
		M:     r.start().String(),
		Log2:  r.log2,
		Log3:  r.log3,
		N:     r.N(),
		Cycle: FormatInts(r.cycle),
	}
	return json.Marshal(jr)
}

// UnmarshalJSON implements json.Unmarshaler. The decoded data goes
// through New and is rejected if it is not a valid trajectory.
func (r *Result) UnmarshalJSON(data []byte) error {
	var jr jsonResult
	if err := json.Unmarshal(data, &jr); err != nil {
		return err
	}

	m, err := ParseInt(jr.M)
	if err != nil {
		return err
	}
	cycle, err := ParseInts(jr.Cycle)
	if err != nil {
		return err
	}

	nr, err := New(m, jr.Log2, jr.Log3, jr.N, cycle)
	if err != nil {
		return err
	}
	*r = *nr
	return nil
}

// ParseInt parses a base 10 integer.
func ParseInt(s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("%q: not an integer", s)
	}
	return v, nil
}

// ParseInts parses a slice of base 10 integers.
func ParseInts(strs []string) ([]*big.Int, error) {
	out := make([]*big.Int, len(strs))
	for i, s := range strs {
		v, err := ParseInt(s)
		if err != nil {
			return nil, fmt.Errorf("%d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

// FormatInts renders values as base 10 strings.
func FormatInts(vals []*big.Int) []string {
	out := make([]string, len(vals))
	for i, v := range vals {
		out[i] = v.String()
	}
	return out
}
