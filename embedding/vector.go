package embedding

import "math"

// Epsilon is added to every component of a zero vector before any cosine
// computation.
const Epsilon = 1e-10

// Vector is a fixed-dimension embedding.
type Vector []float64

// Zero returns a zero vector of dimension dim.
func Zero(dim int) Vector {
	return make(Vector, dim)
}

// Norm returns the L2 norm of v.
func Norm(v Vector) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

// HasNaN reports whether any component of v is NaN.
func HasNaN(v Vector) bool {
	for _, x := range v {
		if math.IsNaN(x) {
			return true
		}
	}
	return false
}

// HasInf reports whether any component of v is infinite.
func HasInf(v Vector) bool {
	for _, x := range v {
		if math.IsInf(x, 0) {
			return true
		}
	}
	return false
}

// Perturb returns v unchanged when its norm is non-zero, otherwise a copy
// with Epsilon added to every component.
func Perturb(v Vector) Vector {
	if Norm(v) != 0 {
		return v
	}
	out := make(Vector, len(v))
	for i := range out {
		out[i] = v[i] + Epsilon
	}
	return out
}

// CosineDistance returns 1 - cosine similarity. Zero vectors are perturbed
// first. Vectors of different or zero length yield NaN.
func CosineDistance(a, b Vector) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return math.NaN()
	}
	a, b = Perturb(a), Perturb(b)

	var dot, aNorm, bNorm float64
	for i := range a {
		dot += a[i] * b[i]
		aNorm += a[i] * a[i]
		bNorm += b[i] * b[i]
	}
	return 1 - dot/(math.Sqrt(aNorm)*math.Sqrt(bNorm))
}

// Mean returns the component-wise mean of vs, or nil for an empty input.
// All vectors must share the first vector's dimension.
func Mean(vs []Vector) Vector {
	if len(vs) == 0 {
		return nil
	}
	out := make(Vector, len(vs[0]))
	for _, v := range vs {
		for i := range out {
			out[i] += v[i]
		}
	}
	n := float64(len(vs))
	for i := range out {
		out[i] /= n
	}
	return out
}
