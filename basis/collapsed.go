package basis

import "fmt"

// CollapsedGaussPoints returns n^dim Gauss-Jacobi points on the [0,1]
// reference simplex of dimension dim, built from a collapsed tensor product
// rule. The ordering is lexicographic in the collapsed coordinates.
func CollapsedGaussPoints(dim, n int) ([][]float64, error) {
	if n < 1 {
		return nil, fmt.Errorf("need at least one point per direction, got %d", n)
	}
	a, _, err := JacobiGQ(0, 0, n-1)
	if err != nil {
		return nil, err
	}
	var points [][]float64
	switch dim {
	case 1:
		for _, x := range a {
			points = append(points, []float64{(1 + x) / 2})
		}
	case 2:
		b, _, err := JacobiGQ(1, 0, n-1)
		if err != nil {
			return nil, err
		}
		for _, ai := range a {
			for _, bj := range b {
				r := (1+ai)*(1-bj)/2 - 1
				points = append(points, []float64{(1 + r) / 2, (1 + bj) / 2})
			}
		}
	case 3:
		b, _, err := JacobiGQ(1, 0, n-1)
		if err != nil {
			return nil, err
		}
		c, _, err := JacobiGQ(2, 0, n-1)
		if err != nil {
			return nil, err
		}
		for _, ai := range a {
			for _, bj := range b {
				for _, ck := range c {
					r := (1+ai)*(1-bj)*(1-ck)/4 - 1
					s := (1+bj)*(1-ck)/2 - 1
					points = append(points, []float64{(1 + r) / 2, (1 + s) / 2, (1 + ck) / 2})
				}
			}
		}
	default:
		return nil, fmt.Errorf("unsupported simplex dimension %d", dim)
	}
	return points, nil
}

// PointsForDegree returns the number of Gauss points per direction needed to
// integrate a polynomial of the given degree exactly
func PointsForDegree(degree int) int {
	return (degree + 2) / 2
}
