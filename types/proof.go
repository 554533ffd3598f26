package types

import (
	"fmt"
	"math/big"

	"github.com/humanproof/humanproof-node/crypto/ff"
)

// CircomProof represents the Groth16 proof structure output by SnarkJS and
// rapidsnark. Points are decimal-string encoded; G1 points carry a trailing
// projective coordinate and G2 points a trailing [1,0] pair, both of which
// are ignored by consumers.
type CircomProof struct {
	PiA      []string   `json:"pi_a"`
	PiB      [][]string `json:"pi_b"`
	PiC      []string   `json:"pi_c"`
	Protocol string     `json:"protocol"`
}

// CircomVerificationKey represents the verification key structure output by
// SnarkJS.
type CircomVerificationKey struct {
	Protocol string     `json:"protocol"`
	Curve    string     `json:"curve"`
	NPublic  int        `json:"nPublic"`
	VkAlpha1 []string   `json:"vk_alpha_1"`
	VkBeta2  [][]string `json:"vk_beta_2"`
	VkGamma2 [][]string `json:"vk_gamma_2"`
	VkDelta2 [][]string `json:"vk_delta_2"`
	IC       [][]string `json:"IC"`
}

// ZKProof bundles a Groth16 proof with its public signals. The first public
// signal is the nullifier, the only value the minting contract checks for
// prior existence.
type ZKProof struct {
	Proof      *CircomProof `json:"proof"`
	PubSignals []string     `json:"pubSignals"`
}

// Nullifier returns the first public signal as a field element. It fails if
// the signals list is empty or the first entry does not parse as a canonical
// field-range integer.
func (p *ZKProof) Nullifier() (*big.Int, error) {
	if p == nil || len(p.PubSignals) == 0 {
		return nil, fmt.Errorf("proof carries no public signals")
	}
	n, ok := new(big.Int).SetString(p.PubSignals[0], 10)
	if !ok {
		return nil, fmt.Errorf("public signal %q is not a decimal integer", p.PubSignals[0])
	}
	if !ff.InField(n) {
		return nil, fmt.Errorf("public signal %s is out of field range", n)
	}
	return n, nil
}

// ValidateShape performs the structural check every generated proof must
// pass: all three point groups present with the expected arity and a
// non-empty public signals list whose first element is a field-range
// integer.
func (p *ZKProof) ValidateShape() error {
	if p == nil || p.Proof == nil {
		return fmt.Errorf("nil proof")
	}
	if len(p.Proof.PiA) < 2 {
		return fmt.Errorf("pi_a has %d coordinates, need at least 2", len(p.Proof.PiA))
	}
	if len(p.Proof.PiB) < 2 || len(p.Proof.PiB[0]) < 2 || len(p.Proof.PiB[1]) < 2 {
		return fmt.Errorf("pi_b is not a 2x2 coordinate matrix")
	}
	if len(p.Proof.PiC) < 2 {
		return fmt.Errorf("pi_c has %d coordinates, need at least 2", len(p.Proof.PiC))
	}
	for _, coords := range [][]string{p.Proof.PiA[:2], p.Proof.PiB[0][:2], p.Proof.PiB[1][:2], p.Proof.PiC[:2]} {
		for _, c := range coords {
			if c == "" {
				return fmt.Errorf("empty proof coordinate")
			}
		}
	}
	if _, err := p.Nullifier(); err != nil {
		return err
	}
	return nil
}

// SolidityCalldata is the exact shape the on-chain verifier/mint function
// expects as transaction arguments.
type SolidityCalldata struct {
	PA        [2]string    `json:"pA"`
	PB        [2][2]string `json:"pB"`
	PC        [2]string    `json:"pC"`
	Nullifier string       `json:"nullifier"`
}

// SolidityCalldataFromProof maps a ZKProof to its on-chain submission shape.
// G2 coordinates are swapped inside each pair, matching the encoding the
// Solidity pairing precompile (and snarkjs exportSolidityCallData) expects.
func SolidityCalldataFromProof(p *ZKProof) (*SolidityCalldata, error) {
	if err := p.ValidateShape(); err != nil {
		return nil, err
	}
	nullifier, err := p.Nullifier()
	if err != nil {
		return nil, err
	}
	return &SolidityCalldata{
		PA: [2]string{p.Proof.PiA[0], p.Proof.PiA[1]},
		PB: [2][2]string{
			{p.Proof.PiB[0][1], p.Proof.PiB[0][0]},
			{p.Proof.PiB[1][1], p.Proof.PiB[1][0]},
		},
		PC:        [2]string{p.Proof.PiC[0], p.Proof.PiC[1]},
		Nullifier: nullifier.String(),
	}, nil
}
