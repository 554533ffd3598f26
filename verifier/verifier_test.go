package verifier

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/humanproof/humanproof-node/circuits"
	"github.com/humanproof/humanproof-node/types"
)

// BN254 generator coordinates, decimal encoded the way snarkjs emits them.
var (
	g1Gen = []string{"1", "2", "1"}
	g2Gen = [][]string{
		{
			"10857046999023057135944570762232829481370756359578518086990519993285655852781",
			"11559732032986387107991004021392285783925812861821192530917403151452391805634",
		},
		{
			"8495653923123431417604973247489272438418190587263600148770280649306958101930",
			"4082367875863433681332203403145435568316851327593401208105741076214120093531",
		},
		{"1", "0"},
	}
)

func TestG1FromStrings(t *testing.T) {
	c := qt.New(t)

	p, err := g1FromStrings(g1Gen)
	c.Assert(err, qt.IsNil)
	c.Assert(p.IsOnCurve(), qt.IsTrue)

	// (1, 3) is not on the curve
	_, err = g1FromStrings([]string{"1", "3", "1"})
	c.Assert(err, qt.IsNotNil)

	// projective zero is the point at infinity
	p, err = g1FromStrings([]string{"0", "1", "0"})
	c.Assert(err, qt.IsNil)
	c.Assert(p.IsInfinity(), qt.IsTrue)

	_, err = g1FromStrings([]string{"1"})
	c.Assert(err, qt.IsNotNil)
	_, err = g1FromStrings([]string{"not-a-number", "2", "1"})
	c.Assert(err, qt.IsNotNil)
}

func TestG2FromStrings(t *testing.T) {
	c := qt.New(t)

	p, err := g2FromStrings(g2Gen)
	c.Assert(err, qt.IsNil)
	c.Assert(p.IsOnCurve(), qt.IsTrue)

	bad := [][]string{{"1", "2"}, {"3", "4"}, {"1", "0"}}
	_, err = g2FromStrings(bad)
	c.Assert(err, qt.IsNotNil)

	p, err = g2FromStrings([][]string{{"0", "0"}, {"1", "0"}, {"0", "0"}})
	c.Assert(err, qt.IsNil)
	c.Assert(p.IsInfinity(), qt.IsTrue)
}

// generatorVkeyJSON builds a structurally valid snarkjs verification key
// whose points are all generators. Proofs convert and precompute against
// it but never pass the pairing check.
func generatorVkeyJSON(nPublic int) []byte {
	g2 := fmt.Sprintf(`[[%q,%q],[%q,%q],["1","0"]]`,
		g2Gen[0][0], g2Gen[0][1], g2Gen[1][0], g2Gen[1][1])
	ic := `["1","2","1"]`
	for i := 0; i < nPublic; i++ {
		ic += `,["1","2","1"]`
	}
	return []byte(fmt.Sprintf(`{
		"protocol": "groth16",
		"curve": "bn128",
		"nPublic": %d,
		"vk_alpha_1": ["1","2","1"],
		"vk_beta_2": %s,
		"vk_gamma_2": %s,
		"vk_delta_2": %s,
		"IC": [%s]
	}`, nPublic, g2, g2, g2, ic))
}

func testVerifier(t *testing.T, vkey []byte) *Verifier {
	t.Helper()
	dir := t.TempDir()
	write := func(name string, data []byte) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, data, 0o600); err != nil {
			t.Fatal(err)
		}
		return path
	}
	artifacts := circuits.NewCircuitArtifacts(
		&circuits.Artifact{Name: "wasm", LocalPath: write("c.wasm", []byte("wasm"))},
		&circuits.Artifact{Name: "zkey", LocalPath: write("c.zkey", []byte("zkey"))},
		&circuits.Artifact{Name: "vkey", LocalPath: write("c.json", vkey)},
	)
	return New(artifacts)
}

func generatorProof(signals ...string) *types.ZKProof {
	return &types.ZKProof{
		Proof: &types.CircomProof{
			PiA:      g1Gen,
			PiB:      g2Gen,
			PiC:      g1Gen,
			Protocol: "groth16",
		},
		PubSignals: signals,
	}
}

func TestVerifyRejectsNonVerifyingProof(t *testing.T) {
	c := qt.New(t)
	v := testVerifier(t, generatorVkeyJSON(1))
	err := v.Verify(context.Background(), generatorProof("42"))
	c.Assert(err, qt.ErrorIs, ErrProofInvalid)
}

func TestVerifySignalArityMismatch(t *testing.T) {
	c := qt.New(t)
	v := testVerifier(t, generatorVkeyJSON(1))
	err := v.Verify(context.Background(), generatorProof("42", "43"))
	c.Assert(err, qt.ErrorIs, ErrProofInvalid)
}

func TestVerifyRejectsOffCurveProof(t *testing.T) {
	c := qt.New(t)
	v := testVerifier(t, generatorVkeyJSON(1))
	p := generatorProof("42")
	p.Proof.PiA = []string{"1", "3", "1"}
	err := v.Verify(context.Background(), p)
	c.Assert(err, qt.ErrorIs, ErrProofInvalid)
}

func TestVerifyRejectsMalformedShape(t *testing.T) {
	c := qt.New(t)
	v := testVerifier(t, generatorVkeyJSON(1))
	err := v.Verify(context.Background(), &types.ZKProof{
		Proof:      &types.CircomProof{PiA: []string{"1"}},
		PubSignals: []string{"42"},
	})
	c.Assert(err, qt.ErrorIs, ErrProofInvalid)
}

func TestVerifyUnavailableOnBadVkey(t *testing.T) {
	c := qt.New(t)
	v := testVerifier(t, []byte("not json"))
	err := v.Verify(context.Background(), generatorProof("42"))
	c.Assert(err, qt.ErrorIs, ErrVerifierUnavailable)

	// the failure is sticky
	err = v.Verify(context.Background(), generatorProof("42"))
	c.Assert(err, qt.ErrorIs, ErrVerifierUnavailable)
}

func TestVerifyUnavailableOnMissingArtifacts(t *testing.T) {
	c := qt.New(t)
	artifacts := circuits.NewCircuitArtifacts(
		&circuits.Artifact{Name: "wasm", LocalPath: "/does/not/exist"}, nil, nil)
	v := New(artifacts)
	err := v.Verify(context.Background(), generatorProof("42"))
	c.Assert(err, qt.ErrorIs, circuits.ErrCircuitUnavailable)
}
