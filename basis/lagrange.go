// Package basis tabulates basis functions on the [-1,1] reference simplex
// and builds Gauss-Jacobi point sets.
package basis

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Derivative is a derivative multi-index, one order per reference direction
type Derivative [3]int

// Table maps a derivative multi-index to a [basis function × point] matrix
type Table map[Derivative]*mat.Dense

// Tabulator evaluates basis functions and their derivatives up to order at
// reference points
type Tabulator interface {
	Tabulate(order int, points [][]float64) (Table, error)
}

// LinearLagrange is the vertex-interpolating linear basis on the reference
// simplex of dimension Dim with vertices (-1,...,-1), (1,-1,...), ...
type LinearLagrange struct {
	Dim int
}

// Tabulate returns basis values (order 0) and first derivatives (order 1).
// Row i of each matrix is basis function i, column j is point j.
func (l LinearLagrange) Tabulate(order int, points [][]float64) (Table, error) {
	if l.Dim < 1 || l.Dim > 3 {
		return nil, fmt.Errorf("unsupported simplex dimension %d", l.Dim)
	}
	if order < 0 || order > 1 {
		return nil, fmt.Errorf("linear basis tabulation supports order 0 or 1, got %d", order)
	}
	nb, np := l.Dim+1, len(points)
	if np == 0 {
		return nil, fmt.Errorf("no points to tabulate")
	}

	values := mat.NewDense(nb, np, nil)
	for j, x := range points {
		if len(x) != l.Dim {
			return nil, fmt.Errorf("point %d has dimension %d, expected %d", j, len(x), l.Dim)
		}
		// Barycentric coordinates of x
		sum := 0.
		for i := 1; i < nb; i++ {
			lam := (1 + x[i-1]) / 2
			values.Set(i, j, lam)
			sum += lam
		}
		values.Set(0, j, 1-sum)
	}

	table := Table{Derivative{}: values}
	if order == 1 {
		for dir := 0; dir < l.Dim; dir++ {
			var d Derivative
			d[dir] = 1
			grad := mat.NewDense(nb, np, nil)
			for j := 0; j < np; j++ {
				grad.Set(0, j, -0.5)
				grad.Set(dir+1, j, 0.5)
			}
			table[d] = grad
		}
	}
	return table, nil
}

// ToReference maps points on the [0,1] reference simplex to [-1,1]
func ToReference(points [][]float64) [][]float64 {
	out := make([][]float64, len(points))
	for i, p := range points {
		out[i] = make([]float64, len(p))
		for k, x := range p {
			out[i][k] = 2*x - 1.0
		}
	}
	return out
}
