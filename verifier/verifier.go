// Package verifier checks generated proofs locally against the circuit's
// verification key before they are handed to a caller for on-chain
// submission. The circom proof is converted to gnark types and verified
// with gnark's bn254 Groth16 pairing check.
package verifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	groth16_bn254 "github.com/consensys/gnark/backend/groth16/bn254"
	"github.com/humanproof/humanproof-node/circuits"
	"github.com/humanproof/humanproof-node/log"
	"github.com/humanproof/humanproof-node/types"
)

var (
	// ErrProofInvalid reports a proof that is well-formed but does not
	// verify against the circuit's verification key, or whose points are
	// not valid curve elements.
	ErrProofInvalid = errors.New("proof does not verify")
	// ErrVerifierUnavailable reports that verification could not be
	// attempted at all: the verification key is missing or malformed, or
	// the check did not complete in time. It says nothing about proof
	// validity.
	ErrVerifierUnavailable = errors.New("verifier unavailable")
)

// DefaultTimeout bounds a single pairing check. Verification is orders of
// magnitude cheaper than proving; a check that runs this long is stuck.
const DefaultTimeout = 10 * time.Second

// Verifier verifies Groth16 proofs against a fixed verification key. The
// key is parsed and precomputed once; a Verifier is safe for concurrent
// use afterwards.
type Verifier struct {
	artifacts *circuits.CircuitArtifacts
	timeout   time.Duration

	vkOnce sync.Once
	vk     *groth16_bn254.VerifyingKey
	vkErr  error
}

// Option configures a Verifier.
type Option func(*Verifier)

// WithTimeout overrides the default verification timeout.
func WithTimeout(d time.Duration) Option {
	return func(v *Verifier) { v.timeout = d }
}

// New creates a Verifier bound to the given circuit artifacts.
func New(artifacts *circuits.CircuitArtifacts, opts ...Option) *Verifier {
	v := &Verifier{artifacts: artifacts, timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// verifyingKey parses and precomputes the verification key on first use.
// A failure is sticky, matching the artifact load semantics.
func (v *Verifier) verifyingKey(ctx context.Context) (*groth16_bn254.VerifyingKey, error) {
	v.vkOnce.Do(func() {
		if err := v.artifacts.LoadAll(ctx); err != nil {
			v.vkErr = err
			return
		}
		raw, err := v.artifacts.VerificationKey()
		if err != nil {
			v.vkErr = err
			return
		}
		circomVk := &types.CircomVerificationKey{}
		if err := json.Unmarshal(raw, circomVk); err != nil {
			v.vkErr = fmt.Errorf("%w: parsing verification key: %v", ErrVerifierUnavailable, err)
			return
		}
		vk, err := convertVerificationKey(circomVk.VkAlpha1, circomVk.VkBeta2,
			circomVk.VkGamma2, circomVk.VkDelta2, circomVk.IC)
		if err != nil {
			v.vkErr = fmt.Errorf("%w: %v", ErrVerifierUnavailable, err)
			return
		}
		v.vk = vk
		log.Debugw("verification key loaded", "publicInputs", len(circomVk.IC)-1)
	})
	return v.vk, v.vkErr
}

// Verify checks the proof against the circuit's verification key. It
// returns nil for a valid proof, ErrProofInvalid when the proof fails the
// check, and ErrVerifierUnavailable (or the underlying artifact error)
// when the check could not run.
func (v *Verifier) Verify(ctx context.Context, proof *types.ZKProof) error {
	if err := proof.ValidateShape(); err != nil {
		return fmt.Errorf("%w: %v", ErrProofInvalid, err)
	}
	vk, err := v.verifyingKey(ctx)
	if err != nil {
		return err
	}

	gnarkProof, err := convertProof(proof.Proof.PiA, proof.Proof.PiB, proof.Proof.PiC)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProofInvalid, err)
	}
	inputs, err := convertPublicSignals(proof.PubSignals)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProofInvalid, err)
	}
	if want := len(vk.G1.K) - 1; len(inputs) != want {
		return fmt.Errorf("%w: got %d public signals, circuit exposes %d",
			ErrProofInvalid, len(inputs), want)
	}

	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()
	errCh := make(chan error, 1)
	go func() {
		errCh <- groth16_bn254.Verify(gnarkProof, vk, inputs)
	}()
	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("%w: %v", ErrProofInvalid, err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", ErrVerifierUnavailable, ctx.Err())
	}
}
