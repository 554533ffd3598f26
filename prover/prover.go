// Package prover turns validated circuit inputs into a Groth16 proof by
// driving a proving backend under a hard timeout. The default backend is
// rapidsnark with a circom witness calculator; tests inject stubs through
// the same interface.
package prover

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/humanproof/humanproof-node/circuits"
	"github.com/humanproof/humanproof-node/log"
	"github.com/humanproof/humanproof-node/types"
)

var (
	// ErrInvalidWitness reports a witness-computation failure: malformed
	// or out-of-range circuit inputs. Distinct from a backend crash.
	ErrInvalidWitness = errors.New("witness computation failed")
	// ErrProofBackend reports a proving backend failure unrelated to the
	// inputs.
	ErrProofBackend = errors.New("proving backend failed")
	// ErrMalformedProof reports a backend result that fails the structural
	// shape check. A proof that cannot be shape-checked is never returned.
	ErrMalformedProof = errors.New("malformed proof")
	// ErrProofTimeout reports that proving exceeded the configured hard
	// timeout. No partial proof state is left behind.
	ErrProofTimeout = errors.New("proof generation timed out")
)

// DefaultTimeout bounds one proof generation end to end.
const DefaultTimeout = 30 * time.Second

// Backend computes a witness from the JSON-encoded circuit inputs and runs
// the Groth16 prover, returning the snarkjs-format proof and public signals
// JSON documents.
type Backend interface {
	Prove(inputsJSON []byte) (proofJSON, pubSignalsJSON string, err error)
}

// Prover generates proofs against one deployed circuit. It is safe for
// sequential reuse across attempts; the loaded artifacts are shared and
// immutable.
type Prover struct {
	artifacts *circuits.CircuitArtifacts
	backend   Backend
	timeout   time.Duration
}

// Option configures a Prover.
type Option func(*Prover)

// WithTimeout overrides the default proof generation timeout.
func WithTimeout(d time.Duration) Option {
	return func(p *Prover) { p.timeout = d }
}

// New creates a Prover for the given artifacts and backend. The backend is
// an explicit dependency; there is no ambient global proving handle.
func New(artifacts *circuits.CircuitArtifacts, backend Backend, opts ...Option) *Prover {
	p := &Prover{
		artifacts: artifacts,
		backend:   backend,
		timeout:   DefaultTimeout,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type proveResult struct {
	proof      string
	pubSignals string
	err        error
}

// Generate computes the witness and proof for the given inputs. It fails
// with ErrCircuitUnavailable before touching the backend when artifacts are
// missing, with ErrProofTimeout when the timeout elapses, and with
// ErrMalformedProof when the backend result does not shape-check. The
// context cancels an in-flight attempt; an abandoned computation cannot
// corrupt the shared artifacts, which are read-only after load.
func (p *Prover) Generate(ctx context.Context, inputs *circuits.CircuitInputs) (*types.ZKProof, error) {
	if err := p.artifacts.LoadAll(ctx); err != nil {
		return nil, err
	}

	inputsJSON, err := json.Marshal(inputs)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWitness, err)
	}

	attemptID := uuid.New().String()
	start := time.Now()
	log.Debugw("proof generation started",
		"attempt", attemptID, "circuit", inputs.Version.Name, "timeout", p.timeout.String())

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	// buffered so an abandoned attempt can still complete its send and be
	// garbage collected instead of leaking
	resCh := make(chan proveResult, 1)
	go func() {
		proof, pubSignals, err := p.backend.Prove(inputsJSON)
		resCh <- proveResult{proof, pubSignals, err}
	}()

	var res proveResult
	select {
	case res = <-resCh:
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			log.Warnw("proof generation timed out", "attempt", attemptID, "after", time.Since(start).String())
			return nil, fmt.Errorf("%w after %s", ErrProofTimeout, p.timeout)
		}
		return nil, ctx.Err()
	}
	if res.err != nil {
		return nil, res.err
	}

	proof, err := parseProof(res.proof, res.pubSignals)
	if err != nil {
		return nil, err
	}
	log.Infow("proof generated",
		"attempt", attemptID, "circuit", inputs.Version.Name, "took", time.Since(start).String())
	return proof, nil
}

// parseProof decodes the backend's proof and public signal documents and
// runs the structural shape check.
func parseProof(proofJSON, pubSignalsJSON string) (*types.ZKProof, error) {
	circomProof := &types.CircomProof{}
	if err := json.Unmarshal([]byte(proofJSON), circomProof); err != nil {
		return nil, fmt.Errorf("%w: proof document: %v", ErrMalformedProof, err)
	}
	var pubSignals []string
	if err := json.Unmarshal([]byte(pubSignalsJSON), &pubSignals); err != nil {
		return nil, fmt.Errorf("%w: public signals document: %v", ErrMalformedProof, err)
	}
	proof := &types.ZKProof{Proof: circomProof, PubSignals: pubSignals}
	if err := proof.ValidateShape(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedProof, err)
	}
	return proof, nil
}
