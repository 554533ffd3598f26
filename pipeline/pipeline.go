// Package pipeline wires the full proof-of-uniqueness flow: biometric
// feature extraction, fingerprint hashing, witness assembly, proof
// generation and local verification, ending in the calldata shape the
// minting contract takes.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/humanproof/humanproof-node/biometrics"
	"github.com/humanproof/humanproof-node/circuits"
	"github.com/humanproof/humanproof-node/log"
	"github.com/humanproof/humanproof-node/prover"
	"github.com/humanproof/humanproof-node/types"
	"github.com/humanproof/humanproof-node/verifier"
	"github.com/humanproof/humanproof-node/web3"
)

// Pipeline runs proof attempts against a fixed circuit version. All shared
// state (circuit artifacts, verification key, anchor cache) is immutable
// after first load, so a Pipeline is safe for concurrent attempts.
type Pipeline struct {
	version  circuits.Version
	prover   *prover.Prover
	verifier *verifier.Verifier
	anchors  *web3.AnchorSource
}

// MintArtifacts is everything a caller needs to submit the proof
// on-chain, plus the raw proof for auditing.
type MintArtifacts struct {
	AttemptID string                  `json:"attemptId"`
	Calldata  *types.SolidityCalldata `json:"calldata"`
	Proof     *types.ZKProof          `json:"proof"`
	Nullifier *types.BigInt           `json:"nullifier"`
	// Verified reports whether the proof passed the local pairing check.
	// False only when the local verifier was unavailable; an invalid
	// proof aborts the attempt instead.
	Verified bool `json:"verified"`
}

// New creates a Pipeline. The anchor source may be nil for 2-input
// circuit versions.
func New(version circuits.Version, p *prover.Prover, v *verifier.Verifier, anchors *web3.AnchorSource) *Pipeline {
	return &Pipeline{
		version:  version,
		prover:   p,
		verifier: v,
		anchors:  anchors,
	}
}

// Run executes one proof attempt over the captured image. For 3-input
// circuit versions walletAddress selects the anchor; for 2-input versions
// it is ignored. A fresh nonce is drawn for every attempt, so repeated
// runs over the same image yield distinct proofs with distinct
// nullifiers while the underlying faceHash stays identical.
func (pl *Pipeline) Run(ctx context.Context, image []byte, walletAddress string) (*MintArtifacts, error) {
	attemptID := uuid.New().String()
	start := time.Now()
	log.Infow("proof attempt started",
		"attempt", attemptID, "circuit", pl.version.Name, "imageBytes", len(image))

	features, landmarks, err := biometrics.Extract(image)
	if err != nil {
		return nil, fmt.Errorf("extracting features: %w", err)
	}
	faceHash, err := biometrics.Fingerprint(features, landmarks)
	if err != nil {
		return nil, fmt.Errorf("computing fingerprint: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var anchor *big.Int
	if pl.version.Arity == 3 && pl.anchors != nil && walletAddress != "" {
		if anchor, err = pl.anchors.Anchor(ctx, walletAddress); err != nil {
			return nil, fmt.Errorf("resolving anchor: %w", err)
		}
	}

	inputs, err := circuits.BuildInputs(pl.version, faceHash, nil, anchor)
	if err != nil {
		return nil, err
	}
	proof, err := pl.prover.Generate(ctx, inputs)
	if err != nil {
		return nil, err
	}

	verified := true
	switch err := pl.verifier.Verify(ctx, proof); {
	case err == nil:
	case errors.Is(err, verifier.ErrProofInvalid):
		return nil, fmt.Errorf("generated proof failed local verification: %w", err)
	default:
		// advisory check only; the on-chain verifier has the final word
		log.Warnw("local verification unavailable, continuing",
			"attempt", attemptID, "err", err)
		verified = false
	}

	calldata, err := types.SolidityCalldataFromProof(proof)
	if err != nil {
		return nil, err
	}
	nullifier, err := proof.Nullifier()
	if err != nil {
		return nil, err
	}
	log.Infow("proof attempt finished",
		"attempt", attemptID, "nullifier", nullifier.String(),
		"verified", verified, "took", time.Since(start).String())

	return &MintArtifacts{
		AttemptID: attemptID,
		Calldata:  calldata,
		Proof:     proof,
		Nullifier: new(types.BigInt).SetBigInt(nullifier),
		Verified:  verified,
	}, nil
}
