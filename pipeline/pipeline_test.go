package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math/big"
	"os"
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/fxamacker/cbor/v2"
	"github.com/humanproof/humanproof-node/biometrics"
	"github.com/humanproof/humanproof-node/circuits"
	"github.com/humanproof/humanproof-node/prover"
	"github.com/humanproof/humanproof-node/verifier"
	"github.com/humanproof/humanproof-node/web3"
	"github.com/iden3/go-iden3-crypto/poseidon"
)

// poseidonBackend mimics the deployed circuit: it hashes the private
// inputs with Poseidon and exposes the digest as the only public signal.
// It records the inputs it saw so tests can recompute the expectation.
type poseidonBackend struct {
	seen []map[string]string
}

func (b *poseidonBackend) Prove(inputsJSON []byte) (string, string, error) {
	var inputs map[string]string
	if err := json.Unmarshal(inputsJSON, &inputs); err != nil {
		return "", "", err
	}
	b.seen = append(b.seen, inputs)

	elems := make([]*big.Int, 0, 3)
	for _, name := range []string{"faceHash", "nonce", "anchor"} {
		s, ok := inputs[name]
		if !ok {
			continue
		}
		bi, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return "", "", fmt.Errorf("input %s is not decimal", name)
		}
		elems = append(elems, bi)
	}
	nullifier, err := poseidon.Hash(elems)
	if err != nil {
		return "", "", err
	}

	proofJSON := `{
		"pi_a": ["1", "2", "1"],
		"pi_b": [["10857046999023057135944570762232829481370756359578518086990519993285655852781",
		          "11559732032986387107991004021392285783925812861821192530917403151452391805634"],
		         ["8495653923123431417604973247489272438418190587263600148770280649306958101930",
		          "4082367875863433681332203403145435568316851327593401208105741076214120093531"],
		         ["1", "0"]],
		"pi_c": ["1", "2", "1"],
		"protocol": "groth16"
	}`
	return proofJSON, fmt.Sprintf(`["%s"]`, nullifier), nil
}

// testImage renders a deterministic synthetic frame with enough structure
// for the extractor to produce a non-degenerate feature vector.
func testImage(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 256, 256))
	for y := 0; y < 256; y++ {
		for x := 0; x < 256; x++ {
			img.Set(x, y, color.RGBA{uint8(x), uint8(y), uint8((x + y) / 2), 255})
		}
	}
	for y := 96; y < 160; y++ {
		for x := 96; x < 160; x++ {
			img.Set(x, y, color.RGBA{220, 40, 40, 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func testPipeline(t *testing.T, version circuits.Version, backend prover.Backend) (*Pipeline, *web3.AnchorSource) {
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
		// not parseable as a verification key, so local verification
		// reports unavailable and the pipeline continues
		&circuits.Artifact{Name: "vkey", LocalPath: write("c.json", []byte("opaque"))},
	)
	anchors, err := web3.NewAnchorSource()
	if err != nil {
		t.Fatal(err)
	}
	return New(version, prover.New(artifacts, backend), verifier.New(artifacts), anchors), anchors
}

const testWallet = "0x742d35Cc6634C0532925a3b844Bc454e4438f44e"

func TestRunGoldenNullifier(t *testing.T) {
	c := qt.New(t)
	backend := &poseidonBackend{}
	pl, anchors := testPipeline(t, circuits.V2FaceNonceAnchor, backend)

	res, err := pl.Run(context.Background(), testImage(t), testWallet)
	c.Assert(err, qt.IsNil)
	c.Assert(backend.seen, qt.HasLen, 1)

	// the witness carries the anchor of the wallet
	anchor, err := anchors.Anchor(context.Background(), testWallet)
	c.Assert(err, qt.IsNil)
	c.Assert(backend.seen[0]["anchor"], qt.Equals, anchor.String())

	// the nullifier is exactly Poseidon over the witness inputs
	var elems []*big.Int
	for _, name := range []string{"faceHash", "nonce", "anchor"} {
		bi, ok := new(big.Int).SetString(backend.seen[0][name], 10)
		c.Assert(ok, qt.IsTrue)
		elems = append(elems, bi)
	}
	want, err := poseidon.Hash(elems)
	c.Assert(err, qt.IsNil)
	c.Assert(res.Nullifier.MathBigInt().Cmp(want), qt.Equals, 0)

	c.Assert(res.Calldata.Nullifier, qt.Equals, want.String())
	c.Assert(res.AttemptID, qt.Not(qt.Equals), "")
	c.Assert(res.Verified, qt.IsFalse)
}

func TestRunFreshNoncePerAttempt(t *testing.T) {
	c := qt.New(t)
	backend := &poseidonBackend{}
	pl, _ := testPipeline(t, circuits.V2FaceNonceAnchor, backend)
	img := testImage(t)

	res1, err := pl.Run(context.Background(), img, testWallet)
	c.Assert(err, qt.IsNil)
	res2, err := pl.Run(context.Background(), img, testWallet)
	c.Assert(err, qt.IsNil)

	// same face, same anchor, fresh nonce
	c.Assert(backend.seen[0]["faceHash"], qt.Equals, backend.seen[1]["faceHash"])
	c.Assert(backend.seen[0]["anchor"], qt.Equals, backend.seen[1]["anchor"])
	c.Assert(backend.seen[0]["nonce"], qt.Not(qt.Equals), backend.seen[1]["nonce"])
	c.Assert(res1.Nullifier.String(), qt.Not(qt.Equals), res2.Nullifier.String())
}

func TestMintArtifactsCBORRoundTrip(t *testing.T) {
	c := qt.New(t)
	pl, _ := testPipeline(t, circuits.V2FaceNonceAnchor, &poseidonBackend{})
	res, err := pl.Run(context.Background(), testImage(t), testWallet)
	c.Assert(err, qt.IsNil)

	// the archival CBOR form must survive a round trip intact
	data, err := cbor.Marshal(res)
	c.Assert(err, qt.IsNil)
	var decoded MintArtifacts
	c.Assert(cbor.Unmarshal(data, &decoded), qt.IsNil)
	c.Assert(decoded.Nullifier.Equal(res.Nullifier), qt.IsTrue)
	c.Assert(decoded.Calldata, qt.DeepEquals, res.Calldata)
	c.Assert(decoded.AttemptID, qt.Equals, res.AttemptID)
}

func TestRunTwoInputVersionIgnoresWallet(t *testing.T) {
	c := qt.New(t)
	backend := &poseidonBackend{}
	pl, _ := testPipeline(t, circuits.V1FaceNonce, backend)

	res, err := pl.Run(context.Background(), testImage(t), testWallet)
	c.Assert(err, qt.IsNil)
	c.Assert(res.Nullifier, qt.IsNotNil)
	_, hasAnchor := backend.seen[0]["anchor"]
	c.Assert(hasAnchor, qt.IsFalse)
}

func TestRunMissingAnchor(t *testing.T) {
	c := qt.New(t)
	pl, _ := testPipeline(t, circuits.V2FaceNonceAnchor, &poseidonBackend{})
	_, err := pl.Run(context.Background(), testImage(t), "")
	c.Assert(err, qt.ErrorIs, circuits.ErrMissingAnchor)
}

func TestRunInvalidWallet(t *testing.T) {
	c := qt.New(t)
	pl, _ := testPipeline(t, circuits.V2FaceNonceAnchor, &poseidonBackend{})
	_, err := pl.Run(context.Background(), testImage(t), "0xnot-a-wallet")
	c.Assert(err, qt.ErrorIs, web3.ErrInvalidAddress)
}

func TestRunRejectsBadImage(t *testing.T) {
	c := qt.New(t)
	pl, _ := testPipeline(t, circuits.V2FaceNonceAnchor, &poseidonBackend{})
	_, err := pl.Run(context.Background(), []byte("definitely not an image"), testWallet)
	c.Assert(err, qt.ErrorIs, biometrics.ErrImageDecode)
}

func TestRunCancelled(t *testing.T) {
	c := qt.New(t)
	pl, _ := testPipeline(t, circuits.V2FaceNonceAnchor, &poseidonBackend{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := pl.Run(ctx, testImage(t), testWallet)
	c.Assert(err, qt.IsNotNil)
}
