package verifier

import (
	"fmt"
	"math/big"
	"strings"

	curve "github.com/consensys/gnark-crypto/ecc/bn254"
	bn254fr "github.com/consensys/gnark-crypto/ecc/bn254/fr"
	groth16_bn254 "github.com/consensys/gnark/backend/groth16/bn254"
)

// parseCoord parses a single point coordinate, accepting both the decimal
// encoding snarkjs emits and 0x-prefixed hex.
func parseCoord(s string) (*big.Int, error) {
	if strings.HasPrefix(s, "0x") {
		bi, ok := new(big.Int).SetString(s[2:], 16)
		if !ok {
			return nil, fmt.Errorf("invalid hex coordinate %q", s)
		}
		return bi, nil
	}
	bi, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid decimal coordinate %q", s)
	}
	return bi, nil
}

// g1FromStrings builds a G1 point from a circom coordinate triple
// [x, y, z]. The projective z is only inspected to detect the point at
// infinity; affine coordinates are taken as-is.
func g1FromStrings(coords []string) (*curve.G1Affine, error) {
	if len(coords) < 2 {
		return nil, fmt.Errorf("G1 point needs 2 coordinates, got %d", len(coords))
	}
	if len(coords) >= 3 && coords[2] == "0" {
		return &curve.G1Affine{}, nil // point at infinity
	}
	x, err := parseCoord(coords[0])
	if err != nil {
		return nil, err
	}
	y, err := parseCoord(coords[1])
	if err != nil {
		return nil, err
	}
	p := new(curve.G1Affine)
	p.X.SetBigInt(x)
	p.Y.SetBigInt(y)
	if !p.IsOnCurve() {
		return nil, fmt.Errorf("G1 point (%s, %s) is not on the curve", coords[0], coords[1])
	}
	return p, nil
}

// g2FromStrings builds a G2 point from circom coordinate pairs
// [[x0, x1], [y0, y1], [z0, z1]], where each pair is an Fp2 element in
// (A0, A1) order.
func g2FromStrings(coords [][]string) (*curve.G2Affine, error) {
	if len(coords) < 2 || len(coords[0]) < 2 || len(coords[1]) < 2 {
		return nil, fmt.Errorf("G2 point needs 2 coordinate pairs")
	}
	if len(coords) >= 3 && len(coords[2]) >= 1 && coords[2][0] == "0" {
		return &curve.G2Affine{}, nil // point at infinity
	}
	p := new(curve.G2Affine)
	for i, target := range []*struct{ a0, a1 string }{
		{coords[0][0], coords[0][1]},
		{coords[1][0], coords[1][1]},
	} {
		a0, err := parseCoord(target.a0)
		if err != nil {
			return nil, err
		}
		a1, err := parseCoord(target.a1)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			p.X.A0.SetBigInt(a0)
			p.X.A1.SetBigInt(a1)
		} else {
			p.Y.A0.SetBigInt(a0)
			p.Y.A1.SetBigInt(a1)
		}
	}
	if !p.IsOnCurve() {
		return nil, fmt.Errorf("G2 point is not on the curve")
	}
	return p, nil
}

// convertProof maps a circom Groth16 proof onto the gnark bn254 proof
// structure so it can be checked with gnark's pairing implementation.
func convertProof(piA []string, piB [][]string, piC []string) (*groth16_bn254.Proof, error) {
	ar, err := g1FromStrings(piA)
	if err != nil {
		return nil, fmt.Errorf("pi_a: %v", err)
	}
	bs, err := g2FromStrings(piB)
	if err != nil {
		return nil, fmt.Errorf("pi_b: %v", err)
	}
	krs, err := g1FromStrings(piC)
	if err != nil {
		return nil, fmt.Errorf("pi_c: %v", err)
	}
	return &groth16_bn254.Proof{Ar: *ar, Bs: *bs, Krs: *krs}, nil
}

// convertVerificationKey maps a snarkjs verification key onto gnark's
// VerifyingKey and precomputes the pairing lines. The conversion is done
// once per verifier; the result is reused across all proofs.
func convertVerificationKey(alpha1 []string, beta2, gamma2, delta2 [][]string, ic [][]string) (*groth16_bn254.VerifyingKey, error) {
	alphaG1, err := g1FromStrings(alpha1)
	if err != nil {
		return nil, fmt.Errorf("vk_alpha_1: %v", err)
	}
	betaG2, err := g2FromStrings(beta2)
	if err != nil {
		return nil, fmt.Errorf("vk_beta_2: %v", err)
	}
	gammaG2, err := g2FromStrings(gamma2)
	if err != nil {
		return nil, fmt.Errorf("vk_gamma_2: %v", err)
	}
	deltaG2, err := g2FromStrings(delta2)
	if err != nil {
		return nil, fmt.Errorf("vk_delta_2: %v", err)
	}
	k := make([]curve.G1Affine, len(ic))
	for i, point := range ic {
		p, err := g1FromStrings(point)
		if err != nil {
			return nil, fmt.Errorf("IC[%d]: %v", i, err)
		}
		k[i] = *p
	}

	vk := &groth16_bn254.VerifyingKey{}
	vk.G1.Alpha = *alphaG1
	vk.G1.K = k
	vk.G2.Beta = *betaG2
	vk.G2.Gamma = *gammaG2
	vk.G2.Delta = *deltaG2
	if err := vk.Precompute(); err != nil {
		return nil, fmt.Errorf("precomputing pairing lines: %v", err)
	}
	return vk, nil
}

// convertPublicSignals parses the decimal public signal strings into field
// elements in the order the circuit exposes them.
func convertPublicSignals(signals []string) ([]bn254fr.Element, error) {
	elems := make([]bn254fr.Element, len(signals))
	for i, s := range signals {
		bi, err := parseCoord(s)
		if err != nil {
			return nil, fmt.Errorf("public signal %d: %v", i, err)
		}
		elems[i].SetBigInt(bi)
	}
	return elems, nil
}
