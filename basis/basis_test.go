package basis

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJacobiGQIntegratesPolynomials(t *testing.T) {
	tol := 1e-12
	for N := 0; N <= 5; N++ {
		t.Run(fmt.Sprintf("N=%d", N), func(t *testing.T) {
			X, W, err := JacobiGQ(0, 0, N)
			require.NoError(t, err)
			require.Len(t, X, N+1)
			// An N+1 point Gauss rule is exact up to degree 2N+1
			for p := 0; p <= 2*N+1; p++ {
				sum := 0.
				for i := range X {
					sum += W[i] * math.Pow(X[i], float64(p))
				}
				exact := 0.
				if p%2 == 0 {
					exact = 2. / float64(p+1)
				}
				assert.InDelta(t, exact, sum, tol, "degree %d", p)
			}
			for i := 1; i < len(X); i++ {
				assert.Less(t, X[i-1], X[i])
			}
		})
	}
}

func TestJacobiGQNegativeOrder(t *testing.T) {
	_, _, err := JacobiGQ(0, 0, -1)
	assert.Error(t, err)
}

func TestLinearLagrangeInterpolatesVertices(t *testing.T) {
	for dim := 1; dim <= 3; dim++ {
		verts := make([][]float64, dim+1)
		for v := range verts {
			verts[v] = make([]float64, dim)
			for k := range verts[v] {
				verts[v][k] = -1
			}
			if v > 0 {
				verts[v][v-1] = 1
			}
		}
		table, err := LinearLagrange{Dim: dim}.Tabulate(0, verts)
		require.NoError(t, err)
		values := table[Derivative{}]
		for i := 0; i <= dim; i++ {
			for j := 0; j <= dim; j++ {
				want := 0.
				if i == j {
					want = 1
				}
				assert.InDelta(t, want, values.At(i, j), 1e-14, "dim %d basis %d point %d", dim, i, j)
			}
		}
	}
}

func TestLinearLagrangePartitionOfUnity(t *testing.T) {
	points := [][]float64{{-0.3, 0.1}, {0, -1}, {-0.9, -0.05}}
	table, err := LinearLagrange{Dim: 2}.Tabulate(1, points)
	require.NoError(t, err)
	values := table[Derivative{}]
	for j := range points {
		sum := 0.
		for i := 0; i < 3; i++ {
			sum += values.At(i, j)
		}
		assert.InDelta(t, 1., sum, 1e-14)
	}
	dr := table[Derivative{1, 0, 0}]
	require.NotNil(t, dr)
	assert.Equal(t, -0.5, dr.At(0, 0))
	assert.Equal(t, 0.5, dr.At(1, 0))
	assert.Equal(t, 0., dr.At(2, 0))
}

func TestLinearLagrangeErrors(t *testing.T) {
	_, err := LinearLagrange{Dim: 2}.Tabulate(2, [][]float64{{0, 0}})
	assert.Error(t, err)
	_, err = LinearLagrange{Dim: 2}.Tabulate(0, [][]float64{{0}})
	assert.Error(t, err)
	_, err = LinearLagrange{Dim: 4}.Tabulate(0, [][]float64{{0, 0, 0, 0}})
	assert.Error(t, err)
}

func TestCollapsedGaussPointsInsideSimplex(t *testing.T) {
	for dim := 1; dim <= 3; dim++ {
		for n := 1; n <= 3; n++ {
			points, err := CollapsedGaussPoints(dim, n)
			require.NoError(t, err)
			require.Len(t, points, int(math.Pow(float64(n), float64(dim))))
			for _, p := range points {
				sum := 0.
				for _, x := range p {
					assert.Greater(t, x, 0.)
					sum += x
				}
				assert.Less(t, sum, 1.)
			}
		}
	}
	_, err := CollapsedGaussPoints(4, 1)
	assert.Error(t, err)
}

func TestPointsForDegree(t *testing.T) {
	assert.Equal(t, 1, PointsForDegree(0))
	assert.Equal(t, 1, PointsForDegree(1))
	assert.Equal(t, 2, PointsForDegree(2))
	assert.Equal(t, 2, PointsForDegree(3))
	assert.Equal(t, 3, PointsForDegree(4))
}

func TestToReference(t *testing.T) {
	assert.Equal(t, [][]float64{{-1, 0}, {1, -1}}, ToReference([][]float64{{0, 0.5}, {1, 0}}))
}
