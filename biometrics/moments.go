package biometrics

import "math"

const momentFeatureLen = 2 + 7 + 7

// MomentFeatures captures the geometric intensity distribution: centroid,
// normalized central moments and the seven Hu invariants.
type MomentFeatures struct {
	Centroid [2]float64 // normalized to [0,1]
	Central  [7]float64 // eta11, eta20, eta02, eta21, eta12, eta30, eta03
	Hu       [7]float64
}

func (m *MomentFeatures) floats() []float64 {
	out := make([]float64, 0, momentFeatureLen)
	out = append(out, m.Centroid[:]...)
	out = append(out, m.Central[:]...)
	out = append(out, m.Hu[:]...)
	return out
}

func momentFeatures(f *frame) MomentFeatures {
	var mf MomentFeatures

	var m00, m10, m01 float64
	for y := range CanonicalSize {
		for x := range CanonicalSize {
			v := f.at(x, y)
			m00 += v
			m10 += float64(x) * v
			m01 += float64(y) * v
		}
	}
	if m00 == 0 {
		// blank frame: all moments degenerate to zero
		return mf
	}
	cx := m10 / m00
	cy := m01 / m00
	mf.Centroid[0] = cx / CanonicalSize
	mf.Centroid[1] = cy / CanonicalSize

	// central moments mu_pq
	var mu [4][4]float64
	for y := range CanonicalSize {
		for x := range CanonicalSize {
			v := f.at(x, y)
			dx := float64(x) - cx
			dy := float64(y) - cy
			dx2, dy2 := dx*dx, dy*dy
			mu[1][1] += dx * dy * v
			mu[2][0] += dx2 * v
			mu[0][2] += dy2 * v
			mu[2][1] += dx2 * dy * v
			mu[1][2] += dx * dy2 * v
			mu[3][0] += dx2 * dx * v
			mu[0][3] += dy2 * dy * v
		}
	}

	// scale-normalized moments eta_pq = mu_pq / m00^(1+(p+q)/2)
	eta := func(p, q int) float64 {
		return mu[p][q] / math.Pow(m00, 1+float64(p+q)/2)
	}
	n11, n20, n02 := eta(1, 1), eta(2, 0), eta(0, 2)
	n21, n12, n30, n03 := eta(2, 1), eta(1, 2), eta(3, 0), eta(0, 3)
	mf.Central = [7]float64{n11, n20, n02, n21, n12, n30, n03}

	// Hu invariant moments
	mf.Hu[0] = n20 + n02
	mf.Hu[1] = (n20-n02)*(n20-n02) + 4*n11*n11
	mf.Hu[2] = (n30-3*n12)*(n30-3*n12) + (3*n21-n03)*(3*n21-n03)
	mf.Hu[3] = (n30+n12)*(n30+n12) + (n21+n03)*(n21+n03)
	mf.Hu[4] = (n30-3*n12)*(n30+n12)*((n30+n12)*(n30+n12)-3*(n21+n03)*(n21+n03)) +
		(3*n21-n03)*(n21+n03)*(3*(n30+n12)*(n30+n12)-(n21+n03)*(n21+n03))
	mf.Hu[5] = (n20-n02)*((n30+n12)*(n30+n12)-(n21+n03)*(n21+n03)) +
		4*n11*(n30+n12)*(n21+n03)
	mf.Hu[6] = (3*n21-n03)*(n30+n12)*((n30+n12)*(n30+n12)-3*(n21+n03)*(n21+n03)) -
		(n30-3*n12)*(n21+n03)*(3*(n30+n12)*(n30+n12)-(n21+n03)*(n21+n03))
	return mf
}
