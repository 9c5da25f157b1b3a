package check

import (
	"context"
	"slices"

	"github.com/gomlx/exceptions"
	"github.com/janpfeifer/must"

	"github.com/born-ml/ddtensor/internal/engine"
	"github.com/born-ml/ddtensor/internal/tensor"
)

// Scenarios panic through exceptions.Panicf and must on failure; comm.Run
// turns the panic into the rank's error.

func expectSum(ctx context.Context, e *engine.Engine, a *engine.Array, want float64, axes ...int) {
	s := must.M1(e.Sum(ctx, a, axes...))
	if got := must.M1(e.ToScalar(ctx, s)).Float64(); got != want {
		exceptions.Panicf("sum of %s is %v, want %v", a, got, want)
	}
}

func expectDense(ctx context.Context, e *engine.Engine, a *engine.Array, want []float64) {
	if got := must.M1(e.ToDense(ctx, a)).Float64s(); !slices.Equal(got, want) {
		exceptions.Panicf("%s holds %v, want %v", a, got, want)
	}
}

// All returns the built-in scenarios.
func All() []Scenario {
	return []Scenario{
		{"promotion", promotion},
		{"ones_sum", onesSum},
		{"shifted_views", shiftedViews},
		{"self_update", selfUpdate},
		{"typecast", typecast},
		{"reflected", reflected},
		{"bitwise_and", bitwiseAnd},
		{"broadcast_assign", broadcastAssign},
		{"power", power},
	}
}

func promotion(_ context.Context, _ *engine.Engine) error {
	for _, a := range tensor.DataTypes() {
		if got := must.M1(tensor.Promote(a, a)); got != a {
			exceptions.Panicf("promote(%s, %s) = %s", a, a, got)
		}
		for _, b := range tensor.DataTypes() {
			if must.M1(tensor.Promote(a, b)) != must.M1(tensor.Promote(b, a)) {
				exceptions.Panicf("promote(%s, %s) is not symmetric", a, b)
			}
		}
	}
	return nil
}

func onesSum(ctx context.Context, e *engine.Engine) error {
	for _, shape := range []tensor.Shape{{6, 6}, {16, 16}} {
		for _, dt := range tensor.DataTypes() {
			a := must.M1(e.Ones(shape, dt))
			expectSum(ctx, e, must.M1(e.Add(ctx, a, a)), float64(2*shape.NumElements()))
		}
	}
	return nil
}

func shiftedViews(ctx context.Context, e *engine.Engine) error {
	aa := must.M1(e.Arange(0, 64, 1, tensor.Int32))
	bb := must.M1(e.Arange(0, 64, 1, tensor.Int32))
	cases := []struct {
		a, b *engine.Array
		want float64
	}{
		{aa.MustSlice(tensor.Range(0, 8)), bb.MustSlice(tensor.Range(50, 58)), 464},
		{aa.MustSlice(tensor.Step(0, 16, 2)), bb.MustSlice(tensor.Step(40, 64, 3)), 468},
		{aa.MustSlice(tensor.Step(0, 16, 2)), aa.MustSlice(tensor.Step(30, 54, 3)), 388},
	}
	for _, c := range cases {
		sum := must.M1(e.Add(ctx, must.M1(e.Add(ctx, c.a, c.b)), tensor.Int(1)))
		expectSum(ctx, e, sum, c.want)
	}
	return nil
}

func selfUpdate(ctx context.Context, e *engine.Engine) error {
	const n = 16
	a := must.M1(e.FromFunction(tensor.Shape{n, n}, tensor.Int32, func(c []int) float64 { return float64(c[0]) }))
	c := must.M1(e.Add(ctx, a, must.M1(e.Ones(tensor.Shape{n, n}, tensor.Int32))))
	whole := []tensor.SliceSpec{tensor.All(), tensor.All()}
	must.M(e.Assign(ctx, a.MustSlice(whole...), must.M1(e.Add(ctx, a.MustSlice(whole...), c.MustSlice(whole...)))))
	expectSum(ctx, e, a, n*n*n, 0, 1)
	return nil
}

func typecast(ctx context.Context, e *engine.Engine) error {
	triples := [][3]tensor.DataType{
		{tensor.Int8, tensor.Int64, tensor.Int64},
		{tensor.Int64, tensor.Int8, tensor.Int64},
		{tensor.Int8, tensor.Float64, tensor.Float64},
		{tensor.Float64, tensor.Int8, tensor.Float64},
		{tensor.Float32, tensor.Float64, tensor.Float64},
		{tensor.Float32, tensor.Int64, tensor.Float64},
		{tensor.Int32, tensor.Uint32, tensor.Int64},
		{tensor.Int32, tensor.Uint64, tensor.Int64},
	}
	for _, tr := range triples {
		c := must.M1(e.Add(ctx, must.M1(e.Arange(0, 8, 1, tr[0])), must.M1(e.Ones(tensor.Shape{8}, tr[1]))))
		if c.DType() != tr[2] {
			exceptions.Panicf("%s + %s gave %s, want %s", tr[0], tr[1], c.DType(), tr[2])
		}
		expectDense(ctx, e, c, []float64{1, 2, 3, 4, 5, 6, 7, 8})
	}
	return nil
}

func reflected(ctx context.Context, e *engine.Engine) error {
	a := must.M1(e.Full(tensor.Shape{4}, tensor.Float(4), tensor.Float64))
	expectDense(ctx, e, must.M1(e.Sub(ctx, tensor.Float(10), a)), []float64{6, 6, 6, 6})
	b := must.M1(e.Full(tensor.Shape{4}, tensor.Float(2), tensor.Float64))
	expectDense(ctx, e, must.M1(e.Div(ctx, tensor.Float(10), b)), []float64{5, 5, 5, 5})
	return nil
}

func bitwiseAnd(ctx context.Context, e *engine.Engine) error {
	for _, dt := range tensor.DataTypes() {
		a := must.M1(e.Full(tensor.Shape{6, 6}, tensor.Int(3), dt))
		b := must.M1(e.Full(tensor.Shape{6, 6}, tensor.Int(2), dt))
		c, err := e.BitAnd(ctx, a, b)
		switch {
		case dt.IsFloat() && err == nil:
			exceptions.Panicf("bitwise and accepted %s", dt)
		case dt.IsFloat():
			continue
		case err != nil:
			return err
		}
		expectSum(ctx, e, c, 72)
	}
	ints := must.M1(e.Full(tensor.Shape{6}, tensor.Int(3), tensor.Int32))
	if _, err := e.BitAnd(ctx, ints, tensor.Float(2.5)); err == nil {
		exceptions.Panicf("bitwise and accepted a floating scalar")
	}
	return nil
}

func broadcastAssign(ctx context.Context, e *engine.Engine) error {
	a := must.M1(e.Zeros(tensor.Shape{16, 16}, tensor.Int32))
	b := must.M1(e.Arange(1, 16, 1, tensor.Int32))
	rhs := must.M1(e.Add(ctx, a.MustSlice(tensor.Range(0, 10), tensor.Range(1, 11)), b.MustSlice(tensor.At(0))))
	must.M(e.Assign(ctx, a.MustSlice(tensor.Range(3, 13), tensor.Range(3, 13)), rhs))
	expectSum(ctx, e, a, 100)
	return nil
}

func power(ctx context.Context, e *engine.Engine) error {
	for _, dt := range []tensor.DataType{tensor.Int32, tensor.Float32} {
		a := must.M1(e.Full(tensor.Shape{6, 6}, tensor.Int(3), dt))
		b := must.M1(e.Full(tensor.Shape{6, 6}, tensor.Int(2), dt))
		expectSum(ctx, e, must.M1(e.Pow(ctx, a, b)), 6*6*9, 0, 1)
	}
	return nil
}
