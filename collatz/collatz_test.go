package collatz_test

import (
	"context"
	"encoding/json"
	"math"
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ardanlabs/collatz/collatz"
)

func ints(vals ...int64) []*big.Int {
	out := make([]*big.Int, len(vals))
	for i, v := range vals {
		out[i] = big.NewInt(v)
	}
	return out
}

var computeCases = []struct {
	m     int64
	log2  int
	log3  int
	n     []int
	cycle []*big.Int
}{
	{1, 0, 0, []int{}, ints(1)},
	{2, 1, 0, []int{}, ints(2, 1)},
	{3, 5, 2, []int{0, 1}, ints(3, 5, 8, 4, 2, 1)},
	{6, 6, 2, []int{1, 2}, ints(6, 3, 5, 8, 4, 2, 1)},
	{7, 11, 5, []int{0, 1, 2, 4, 7}, ints(7, 11, 17, 26, 13, 20, 10, 5, 8, 4, 2, 1)},
	{8, 3, 0, []int{}, ints(8, 4, 2, 1)},
}

func TestCompute(t *testing.T) {
	for _, tc := range computeCases {
		t.Run(big.NewInt(tc.m).String(), func(t *testing.T) {
			require := require.New(t)

			r, err := collatz.ComputeInt(tc.m)
			require.NoError(err)
			require.Equal(big.NewInt(tc.m), r.M(), "m")
			require.Equal(tc.log2, r.Log2(), "log2")
			require.Equal(tc.log3, r.Log3(), "log3")
			require.Equal(tc.n, r.N(), "n")
			require.Equal(tc.cycle, r.Cycle(), "cycle")
		})
	}
}

func TestInvariants(t *testing.T) {
	require := require.New(t)

	for m := int64(1); m <= 1000; m++ {
		r, err := collatz.ComputeInt(m)
		require.NoError(err, m)

		cycle := r.Cycle()
		require.Equal(0, cycle[0].Cmp(big.NewInt(m)), "first %d", m)
		require.Equal(0, cycle[len(cycle)-1].Cmp(big.NewInt(1)), "last %d", m)
		require.Len(r.N(), r.Log3(), "len(n) %d", m)
		require.Len(cycle, r.Log2()+1, "len(cycle) %d", m)
		require.Equal(r.Log2(), r.Steps(), "steps %d", m)

		prev := -1
		for _, v := range r.N() {
			require.Greater(v, prev, "n order %d", m)
			require.Less(v, r.Log2(), "n bound %d", m)
			prev = v
		}

		require.Equal(0, r.NumericN().Cmp(r.SeriesSum()), "identity %d", m)
		require.GreaterOrEqual(r.NumericN().Sign(), 0, "numeric n sign %d", m)
	}
}

func TestDeterministic(t *testing.T) {
	require := require.New(t)

	r1, err := collatz.ComputeInt(27)
	require.NoError(err)
	r2, err := collatz.ComputeInt(27)
	require.NoError(err)
	require.Equal(r1, r2)
}

func TestComputeBig(t *testing.T) {
	require := require.New(t)

	// 2^100 - 1 climbs well past 64 bits before coming down
	m := new(big.Int).Lsh(big.NewInt(1), 100)
	m.Sub(m, big.NewInt(1))

	r, err := collatz.Compute(m)
	require.NoError(err)
	require.Equal(0, r.M().Cmp(m), "m")
	require.Equal(0, r.NumericN().Cmp(r.SeriesSum()), "identity")
	require.Equal(100, r.N()[99]+1, "first 100 steps are odd")
}

func TestComputeInvalid(t *testing.T) {
	require := require.New(t)

	for _, m := range []*big.Int{nil, big.NewInt(0), big.NewInt(-5)} {
		r, err := collatz.Compute(m)
		require.ErrorIs(err, collatz.ErrInvalidInput, "%v", m)
		require.Nil(r)
	}
}

func TestComputeLimit(t *testing.T) {
	require := require.New(t)

	r, err := collatz.ComputeLimit(big.NewInt(3), 5)
	require.NoError(err)
	require.Equal(5, r.Steps())

	r, err = collatz.ComputeLimit(big.NewInt(3), 4)
	require.ErrorIs(err, collatz.ErrStepLimitExceeded)
	require.Nil(r)

	r, err = collatz.ComputeLimit(big.NewInt(1), 1)
	require.NoError(err, "no steps needed")
	require.Equal(0, r.Steps())
}

func TestImmutable(t *testing.T) {
	require := require.New(t)

	m := big.NewInt(6)
	r, err := collatz.Compute(m)
	require.NoError(err)
	m.SetInt64(100)

	n := r.N()
	n[0] = 42
	cycle := r.Cycle()
	cycle[0].SetInt64(42)
	r.M().SetInt64(42)

	require.Equal([]int{1, 2}, r.N())
	require.Equal(ints(6, 3, 5, 8, 4, 2, 1), r.Cycle())
	require.Equal(big.NewInt(6), r.M())
}

func TestString(t *testing.T) {
	require := require.New(t)

	r, err := collatz.ComputeInt(3)
	require.NoError(err)
	require.Equal("[3 5 8 4 2 1]", r.String())

	r, err = collatz.ComputeInt(1)
	require.NoError(err)
	require.Equal("[1]", r.String())
}

func TestEquations(t *testing.T) {
	cases := []struct {
		m        int64
		factored string
		numeric  string
	}{
		{1, "(3^0 * x) / 2^0 - 1 = 0", "(x) - 1 = 0"},
		{2, "(3^0 * x) / 2^1 - 1 = 0", "(x) / 2 - 1 = 0"},
		{8, "(3^0 * x) / 2^3 - 1 = 0", "(x) / 8 - 1 = 0"},
		{3, "[3^2 * x + (3^1 * 2^0 + 3^0 * 2^1)] / 2^5 - 1 = 0", "(9 * x + 5) / 32 - 1 = 0"},
		{6, "[3^2 * x + (3^1 * 2^1 + 3^0 * 2^2)] / 2^6 - 1 = 0", "(9 * x + 10) / 64 - 1 = 0"},
		{5, "[3^1 * x + (3^0 * 2^0)] / 2^4 - 1 = 0", "(3 * x + 1) / 16 - 1 = 0"},
	}

	for _, tc := range cases {
		t.Run(tc.numeric, func(t *testing.T) {
			require := require.New(t)

			r, err := collatz.ComputeInt(tc.m)
			require.NoError(err)
			require.Equal(tc.factored, r.FactoredEquation(), "factored")
			require.Equal(tc.numeric, r.NumericEquation(), "numeric")
		})
	}
}

func TestSeries(t *testing.T) {
	require := require.New(t)

	r, err := collatz.ComputeInt(7)
	require.NoError(err)
	expected := []string{
		"3^4 * 2^0",
		"3^3 * 2^1",
		"3^2 * 2^2",
		"3^1 * 2^4",
		"3^0 * 2^7",
	}
	require.Equal(expected, r.Series())
	require.Equal(big.NewInt(347), r.NumericN())
	require.Equal(big.NewInt(347), r.SeriesSum())

	r, err = collatz.ComputeInt(16)
	require.NoError(err)
	require.Empty(r.Series())
	require.Equal(0, r.NumericN().Sign())
}

func TestNew(t *testing.T) {
	require := require.New(t)

	r, err := collatz.New(big.NewInt(3), 5, 2, []int{0, 1}, ints(3, 5, 8, 4, 2, 1))
	require.NoError(err)

	computed, err := collatz.ComputeInt(3)
	require.NoError(err)
	require.Equal(computed, r)
}

func TestNewMalformed(t *testing.T) {
	cases := []struct {
		name  string
		m     *big.Int
		log2  int
		log3  int
		n     []int
		cycle []*big.Int
	}{
		{"nil m", nil, 0, 0, nil, ints(1)},
		{"zero m", big.NewInt(0), 0, 0, nil, ints(0)},
		{"negative log2", big.NewInt(1), -1, 0, nil, ints(1)},
		{"n length", big.NewInt(3), 5, 2, []int{0}, ints(3, 5, 8, 4, 2, 1)},
		{"cycle length", big.NewInt(3), 5, 2, []int{0, 1}, ints(3, 5, 8, 4, 1)},
		{"empty cycle", big.NewInt(1), 0, 0, nil, nil},
		{"cycle start", big.NewInt(3), 5, 2, []int{0, 1}, ints(4, 5, 8, 4, 2, 1)},
		{"cycle end", big.NewInt(3), 5, 2, []int{0, 1}, ints(3, 5, 8, 4, 2, 2)},
		{"nil in cycle", big.NewInt(3), 5, 2, []int{0, 1}, []*big.Int{big.NewInt(3), nil, nil, nil, nil, big.NewInt(1)}},
		{"n order", big.NewInt(3), 5, 2, []int{1, 0}, ints(3, 5, 8, 4, 2, 1)},
		{"identity", big.NewInt(3), 5, 2, []int{0, 2}, ints(3, 5, 8, 4, 2, 1)},
		{"log3 too big", big.NewInt(1), 0, 1, []int{0}, ints(1)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require := require.New(t)

			r, err := collatz.New(tc.m, tc.log2, tc.log3, tc.n, tc.cycle)
			require.ErrorIs(err, collatz.ErrMalformedResult)
			require.Nil(r)
		})
	}
}

func TestJSON(t *testing.T) {
	require := require.New(t)

	r, err := collatz.ComputeInt(6)
	require.NoError(err)

	data, err := json.Marshal(r)
	require.NoError(err)
	require.JSONEq(`{"m":"6","log2":6,"log3":2,"n":[1,2],"cycle":["6","3","5","8","4","2","1"]}`, string(data))

	var out collatz.Result
	require.NoError(json.Unmarshal(data, &out))
	require.Equal(r, &out)

	bad := `{"m":"6","log2":6,"log3":2,"n":[1,3],"cycle":["6","3","5","8","4","2","1"]}`
	err = json.Unmarshal([]byte(bad), &out)
	require.ErrorIs(err, collatz.ErrMalformedResult)

	err = json.Unmarshal([]byte(`{"m":"six"}`), &out)
	require.Error(err, "bad m")
}

func TestComputeRange(t *testing.T) {
	require := require.New(t)

	results, err := collatz.ComputeRange(context.Background(), 1, 100, collatz.BatchOptions{Workers: 4})
	require.NoError(err)
	require.Len(results, 100)
	for i, r := range results {
		require.Equal(big.NewInt(int64(i+1)), r.M(), "order")
	}
}

func TestComputeRangeErrors(t *testing.T) {
	require := require.New(t)

	_, err := collatz.ComputeRange(context.Background(), 0, 10, collatz.BatchOptions{})
	require.ErrorIs(err, collatz.ErrInvalidInput, "from")

	_, err = collatz.ComputeRange(context.Background(), 10, 9, collatz.BatchOptions{})
	require.ErrorIs(err, collatz.ErrInvalidInput, "to")

	// 27 takes 70 steps
	_, err = collatz.ComputeRange(context.Background(), 20, 30, collatz.BatchOptions{StepLimit: 50})
	require.ErrorIs(err, collatz.ErrStepLimitExceeded, "limit")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = collatz.ComputeRange(ctx, 1, 10, collatz.BatchOptions{})
	require.ErrorIs(err, context.Canceled, "canceled")
}

func TestComputeRangeTooLarge(t *testing.T) {
	require := require.New(t)

	var err error
	require.NotPanics(func() {
		_, err = collatz.ComputeRange(context.Background(), 1, math.MaxInt64, collatz.BatchOptions{StepLimit: 1})
	})
	require.ErrorIs(err, collatz.ErrRangeTooLarge, "default max")

	_, err = collatz.ComputeRange(context.Background(), 1, 11, collatz.BatchOptions{MaxCount: 10})
	require.ErrorIs(err, collatz.ErrRangeTooLarge, "custom max")

	results, err := collatz.ComputeRange(context.Background(), 1, 10, collatz.BatchOptions{MaxCount: 10})
	require.NoError(err, "at max")
	require.Len(results, 10)
}

func TestZeroResult(t *testing.T) {
	require := require.New(t)

	var r collatz.Result
	require.NotPanics(func() {
		require.Equal(0, r.M().Sign(), "m")
		require.Equal(big.NewInt(1), r.NumericN(), "numeric n")
		require.Equal("[]", r.String())
		_ = r.FactoredEquation()
		_ = r.NumericEquation()
		_, err := json.Marshal(&r)
		require.NoError(err)
	})
}

func BenchmarkCompute(b *testing.B) {
	require := require.New(b)
	m := big.NewInt(837799)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, err := collatz.Compute(m)
		require.NoError(err)
	}
}

func BenchmarkComputeRange(b *testing.B) {
	require := require.New(b)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, err := collatz.ComputeRange(context.Background(), 1, 10_000, collatz.BatchOptions{})
		require.NoError(err)
	}
}
