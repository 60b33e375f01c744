package pipeline

import (
	"gonum.org/v1/gonum/mat"
)

// columnFilter is a constant-velocity Kalman filter over one image column,
// stepped once per frame. State is [col, col/frame].
type columnFilter struct {
	x *mat.VecDense
	p *mat.Dense
	f *mat.Dense
	q *mat.Dense
	r float64

	initialized bool
}

// newColumnFilter takes the process noise scale and the measurement variance
// in pixels squared.
func newColumnFilter(q, r float64) *columnFilter {
	return &columnFilter{
		x: mat.NewVecDense(2, nil),
		p: mat.NewDense(2, 2, []float64{1000, 0, 0, 1000}),
		f: mat.NewDense(2, 2, []float64{1, 1, 0, 1}),
		q: mat.NewDense(2, 2, []float64{q / 4, q / 2, q / 2, q}),
		r: r,
	}
}

// Update folds in one measurement and returns the filtered column.
func (k *columnFilter) Update(z float64) float64 {
	if !k.initialized {
		k.x.SetVec(0, z)
		k.x.SetVec(1, 0)
		k.initialized = true
		return z
	}

	var xp mat.VecDense
	xp.MulVec(k.f, k.x)

	var fp, pp mat.Dense
	fp.Mul(k.f, k.p)
	pp.Mul(&fp, k.f.T())
	pp.Add(&pp, k.q)

	// H = [1 0], so S and K reduce to scalars.
	s := pp.At(0, 0) + k.r
	k0, k1 := pp.At(0, 0)/s, pp.At(1, 0)/s
	innovation := z - xp.AtVec(0)

	k.x.SetVec(0, xp.AtVec(0)+k0*innovation)
	k.x.SetVec(1, xp.AtVec(1)+k1*innovation)

	ikh := mat.NewDense(2, 2, []float64{1 - k0, 0, -k1, 1})
	k.p.Mul(ikh, &pp)

	return k.x.AtVec(0)
}

// Velocity returns the estimated drift in columns per frame.
func (k *columnFilter) Velocity() float64 {
	if !k.initialized {
		return 0
	}
	return k.x.AtVec(1)
}

func (k *columnFilter) Reset() {
	k.initialized = false
	k.x.Zero()
	k.p.Copy(mat.NewDense(2, 2, []float64{1000, 0, 0, 1000}))
}
