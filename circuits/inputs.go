package circuits

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"

	"github.com/humanproof/humanproof-node/crypto/ff"
)

var (
	// ErrMissingAnchor reports a 3-input circuit invoked without the
	// wallet anchor.
	ErrMissingAnchor = errors.New("circuit requires an anchor input")
	// ErrArityMismatch reports inputs that do not match the configured
	// circuit version's arity or ordering.
	ErrArityMismatch = errors.New("circuit input arity mismatch")
)

// Version describes one deployed circuit variant: its input arity, the
// ordered input signal names and the bit bound the circuit packs inputs
// into. Exactly one version is active per configuration; arity mismatches
// fail loudly instead of guessing.
type Version struct {
	Name      string
	Arity     int
	InputBits uint
}

var (
	// V1FaceNonce is the retired 2-input variant {faceHash, nonce}, kept
	// for verifying pre-anchor proofs.
	V1FaceNonce = Version{Name: "v1-face-nonce", Arity: 2, InputBits: ff.CircuitInputBits}
	// V2FaceNonceAnchor is the production 3-input variant
	// {faceHash, nonce, anchor}.
	V2FaceNonceAnchor = Version{Name: "v2-face-nonce-anchor", Arity: 3, InputBits: ff.CircuitInputBits}
)

// CircuitInputs is the ordered private input tuple handed to the witness
// calculator. Anchor is nil for 2-input versions.
type CircuitInputs struct {
	Version  Version
	FaceHash *big.Int
	Nonce    *big.Int
	Anchor   *big.Int
}

// MarshalJSON emits the decimal-string input object the circom witness
// calculator expects, with exactly the signals of the configured version.
func (ci *CircuitInputs) MarshalJSON() ([]byte, error) {
	m := map[string]string{
		"faceHash": ci.FaceHash.String(),
		"nonce":    ci.Nonce.String(),
	}
	if ci.Version.Arity == 3 {
		if ci.Anchor == nil {
			return nil, ErrMissingAnchor
		}
		m["anchor"] = ci.Anchor.String()
	}
	return json.Marshal(m)
}

// NewNonce draws a fresh nonce uniformly from [0, Modulus) using the
// cryptographically secure random source. A nonce is never reused across
// proof attempts.
func NewNonce() (*big.Int, error) {
	n, err := rand.Int(rand.Reader, ff.Modulus)
	if err != nil {
		return nil, fmt.Errorf("nonce generation: %w", err)
	}
	return n, nil
}

// BuildInputs assembles and validates the circuit input tuple. A nil nonce
// is replaced with a freshly generated one. Every value is reduced into the
// field; values that reduce to zero are coerced to the fixed non-zero
// fallback because the circuit rejects zero private inputs as degenerate.
func BuildInputs(v Version, faceHash, nonce, anchor *big.Int) (*CircuitInputs, error) {
	if v.Arity != 2 && v.Arity != 3 {
		return nil, fmt.Errorf("%w: unsupported arity %d", ErrArityMismatch, v.Arity)
	}
	if faceHash == nil {
		return nil, fmt.Errorf("%w: face hash is required", ErrArityMismatch)
	}
	if v.Arity == 2 && anchor != nil {
		return nil, fmt.Errorf("%w: version %s takes no anchor", ErrArityMismatch, v.Name)
	}
	if v.Arity == 3 && anchor == nil {
		return nil, fmt.Errorf("%w: version %s", ErrMissingAnchor, v.Name)
	}

	if nonce == nil {
		var err error
		if nonce, err = NewNonce(); err != nil {
			return nil, err
		}
	}

	ci := &CircuitInputs{
		Version:  v,
		FaceHash: ff.NonZero(ff.Reduce(faceHash)),
		Nonce:    ff.NonZero(ff.Reduce(nonce)),
	}
	if v.Arity == 3 {
		ci.Anchor = ff.NonZero(ff.Reduce(anchor))
	}

	for name, val := range map[string]*big.Int{"faceHash": ci.FaceHash, "nonce": ci.Nonce} {
		if !ff.FitsBits(val, v.InputBits) {
			return nil, fmt.Errorf("%w: %s exceeds %d bits", ErrArityMismatch, name, v.InputBits)
		}
	}
	if ci.Anchor != nil && !ff.FitsBits(ci.Anchor, v.InputBits) {
		return nil, fmt.Errorf("%w: anchor exceeds %d bits", ErrArityMismatch, v.InputBits)
	}
	return ci, nil
}
