package prover

import (
	"fmt"
	"sync"

	"github.com/humanproof/humanproof-node/circuits"
	rapidsnark "github.com/iden3/go-rapidsnark/prover"
	"github.com/iden3/go-rapidsnark/witness"
)

// proverMu serializes calls to the rapidsnark Groth16 prover, which is not
// safe for concurrent use (CGO/native code can crash or corrupt state when
// run in parallel).
var proverMu sync.Mutex

// RapidsnarkBackend computes witnesses with the circom witness calculator
// and proofs with the rapidsnark Groth16 prover. The witness calculator
// (and its WASM runtime) is instantiated once and reused across proofs,
// which avoids the memory cost of repeated initialization.
type RapidsnarkBackend struct {
	artifacts *circuits.CircuitArtifacts

	calcOnce sync.Once
	calc     *witness.Circom2WitnessCalculator
	calcErr  error
}

// NewRapidsnarkBackend creates a backend bound to the given circuit
// artifacts. Artifacts must be loaded before the first Prove call.
func NewRapidsnarkBackend(artifacts *circuits.CircuitArtifacts) *RapidsnarkBackend {
	return &RapidsnarkBackend{artifacts: artifacts}
}

func (b *RapidsnarkBackend) calculator() (*witness.Circom2WitnessCalculator, error) {
	b.calcOnce.Do(func() {
		wasm, err := b.artifacts.CircuitWasm()
		if err != nil {
			b.calcErr = err
			return
		}
		b.calc, b.calcErr = witness.NewCircom2WitnessCalculator(wasm, true)
	})
	return b.calc, b.calcErr
}

// Prove implements Backend. Witness-computation failures surface as
// ErrInvalidWitness; prover failures as ErrProofBackend.
func (b *RapidsnarkBackend) Prove(inputsJSON []byte) (string, string, error) {
	calc, err := b.calculator()
	if err != nil {
		return "", "", fmt.Errorf("%w: witness calculator: %v", ErrProofBackend, err)
	}
	zkey, err := b.artifacts.ProvingKey()
	if err != nil {
		return "", "", err
	}

	finalInputs, err := witness.ParseInputs(inputsJSON)
	if err != nil {
		return "", "", fmt.Errorf("%w: parse inputs: %v", ErrInvalidWitness, err)
	}
	wtns, err := calc.CalculateWTNSBin(finalInputs, true)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrInvalidWitness, err)
	}

	proverMu.Lock()
	defer proverMu.Unlock()
	proof, pubSignals, err := rapidsnark.Groth16ProverRaw(zkey, wtns)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrProofBackend, err)
	}
	return proof, pubSignals, nil
}
