package prover

import (
	"context"
	"errors"
	"math/big"
	"os"
	"path/filepath"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/humanproof/humanproof-node/circuits"
)

// stubBackend returns canned documents, optionally after a delay.
type stubBackend struct {
	proofJSON      string
	pubSignalsJSON string
	err            error
	delay          time.Duration
}

func (s *stubBackend) Prove(_ []byte) (string, string, error) {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	return s.proofJSON, s.pubSignalsJSON, s.err
}

const validProofJSON = `{
	"pi_a": ["11", "12", "1"],
	"pi_b": [["21", "22"], ["23", "24"], ["1", "0"]],
	"pi_c": ["31", "32", "1"],
	"protocol": "groth16"
}`

func testArtifacts(t *testing.T) *circuits.CircuitArtifacts {
	t.Helper()
	dir := t.TempDir()
	write := func(name string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(name+" content"), 0o600); err != nil {
			t.Fatal(err)
		}
		return path
	}
	return circuits.NewCircuitArtifacts(
		&circuits.Artifact{Name: "wasm", LocalPath: write("c.wasm")},
		&circuits.Artifact{Name: "zkey", LocalPath: write("c.zkey")},
		&circuits.Artifact{Name: "vkey", LocalPath: write("c.json")},
	)
}

func testInputs(t *testing.T) *circuits.CircuitInputs {
	t.Helper()
	ci, err := circuits.BuildInputs(circuits.V2FaceNonceAnchor,
		big.NewInt(111), big.NewInt(222), big.NewInt(333))
	if err != nil {
		t.Fatal(err)
	}
	return ci
}

func TestGenerateValidProof(t *testing.T) {
	c := qt.New(t)
	p := New(testArtifacts(t), &stubBackend{
		proofJSON:      validProofJSON,
		pubSignalsJSON: `["42"]`,
	})
	proof, err := p.Generate(context.Background(), testInputs(t))
	c.Assert(err, qt.IsNil)
	c.Assert(proof.ValidateShape(), qt.IsNil)
	n, err := proof.Nullifier()
	c.Assert(err, qt.IsNil)
	c.Assert(n.String(), qt.Equals, "42")
}

func TestGenerateTimeout(t *testing.T) {
	c := qt.New(t)
	p := New(testArtifacts(t), &stubBackend{
		proofJSON:      validProofJSON,
		pubSignalsJSON: `["42"]`,
		delay:          500 * time.Millisecond,
	}, WithTimeout(50*time.Millisecond))

	start := time.Now()
	proof, err := p.Generate(context.Background(), testInputs(t))
	c.Assert(err, qt.ErrorIs, ErrProofTimeout)
	c.Assert(proof, qt.IsNil)
	// the call returns at the timeout, not after the backend finishes
	c.Assert(time.Since(start) < 400*time.Millisecond, qt.IsTrue)
}

func TestGenerateCancellation(t *testing.T) {
	c := qt.New(t)
	p := New(testArtifacts(t), &stubBackend{
		proofJSON:      validProofJSON,
		pubSignalsJSON: `["42"]`,
		delay:          500 * time.Millisecond,
	})
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()
	_, err := p.Generate(ctx, testInputs(t))
	c.Assert(errors.Is(err, context.Canceled), qt.IsTrue)
}

func TestGenerateMalformedProof(t *testing.T) {
	c := qt.New(t)
	cases := map[string]*stubBackend{
		"bad proof json":   {proofJSON: `{`, pubSignalsJSON: `["42"]`},
		"bad signals json": {proofJSON: validProofJSON, pubSignalsJSON: `{`},
		"empty signals":    {proofJSON: validProofJSON, pubSignalsJSON: `[]`},
		"missing points":   {proofJSON: `{"pi_a":["1"]}`, pubSignalsJSON: `["42"]`},
		"non-numeric nullifier": {
			proofJSON:      validProofJSON,
			pubSignalsJSON: `["not-a-number"]`,
		},
	}
	for name, backend := range cases {
		p := New(testArtifacts(t), backend)
		proof, err := p.Generate(context.Background(), testInputs(t))
		c.Assert(err, qt.ErrorIs, ErrMalformedProof, qt.Commentf("case %s", name))
		c.Assert(proof, qt.IsNil, qt.Commentf("case %s", name))
	}
}

func TestGenerateBackendError(t *testing.T) {
	c := qt.New(t)
	p := New(testArtifacts(t), &stubBackend{err: ErrProofBackend})
	_, err := p.Generate(context.Background(), testInputs(t))
	c.Assert(err, qt.ErrorIs, ErrProofBackend)
}

func TestGenerateUnavailableArtifacts(t *testing.T) {
	c := qt.New(t)
	broken := circuits.NewCircuitArtifacts(
		&circuits.Artifact{Name: "wasm", LocalPath: "/does/not/exist"}, nil, nil)
	p := New(broken, &stubBackend{})
	_, err := p.Generate(context.Background(), testInputs(t))
	c.Assert(err, qt.ErrorIs, circuits.ErrCircuitUnavailable)
}
