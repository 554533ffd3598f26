package circuits

import (
	"encoding/json"
	"math/big"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/humanproof/humanproof-node/crypto/ff"
)

func TestBuildInputsArity(t *testing.T) {
	c := qt.New(t)
	faceHash := big.NewInt(12345)
	anchor := big.NewInt(67890)

	// 3-input version requires an anchor
	_, err := BuildInputs(V2FaceNonceAnchor, faceHash, nil, nil)
	c.Assert(err, qt.ErrorIs, ErrMissingAnchor)

	// 2-input version rejects an anchor-bearing call
	_, err = BuildInputs(V1FaceNonce, faceHash, nil, anchor)
	c.Assert(err, qt.ErrorIs, ErrArityMismatch)

	// matching arities succeed
	ci, err := BuildInputs(V2FaceNonceAnchor, faceHash, nil, anchor)
	c.Assert(err, qt.IsNil)
	c.Assert(ci.Anchor, qt.IsNotNil)

	ci, err = BuildInputs(V1FaceNonce, faceHash, nil, nil)
	c.Assert(err, qt.IsNil)
	c.Assert(ci.Anchor, qt.IsNil)

	// unsupported arity fails loudly
	_, err = BuildInputs(Version{Name: "bogus", Arity: 4, InputBits: 254}, faceHash, nil, nil)
	c.Assert(err, qt.ErrorIs, ErrArityMismatch)
}

func TestBuildInputsReduction(t *testing.T) {
	c := qt.New(t)
	// values above the modulus must come back reduced into range
	over := new(big.Int).Add(ff.Modulus, big.NewInt(7))
	ci, err := BuildInputs(V1FaceNonce, over, big.NewInt(99), nil)
	c.Assert(err, qt.IsNil)
	c.Assert(ci.FaceHash.Cmp(big.NewInt(7)), qt.Equals, 0)

	// a value that reduces to zero is coerced to the fixed fallback
	ci, err = BuildInputs(V1FaceNonce, new(big.Int).Set(ff.Modulus), big.NewInt(99), nil)
	c.Assert(err, qt.IsNil)
	c.Assert(ci.FaceHash.Cmp(big.NewInt(1)), qt.Equals, 0)
}

func TestCircuitInputsJSON(t *testing.T) {
	c := qt.New(t)
	ci, err := BuildInputs(V2FaceNonceAnchor, big.NewInt(1), big.NewInt(2), big.NewInt(3))
	c.Assert(err, qt.IsNil)

	b, err := json.Marshal(ci)
	c.Assert(err, qt.IsNil)
	var m map[string]string
	c.Assert(json.Unmarshal(b, &m), qt.IsNil)
	c.Assert(m, qt.DeepEquals, map[string]string{
		"faceHash": "1",
		"nonce":    "2",
		"anchor":   "3",
	})

	ci, err = BuildInputs(V1FaceNonce, big.NewInt(1), big.NewInt(2), nil)
	c.Assert(err, qt.IsNil)
	b, err = json.Marshal(ci)
	c.Assert(err, qt.IsNil)
	m = nil
	c.Assert(json.Unmarshal(b, &m), qt.IsNil)
	_, hasAnchor := m["anchor"]
	c.Assert(hasAnchor, qt.IsFalse)
}

func TestNonceUniqueness(t *testing.T) {
	c := qt.New(t)
	seen := make(map[string]bool, 10000)
	for range 10000 {
		n, err := NewNonce()
		c.Assert(err, qt.IsNil)
		c.Assert(ff.InField(n), qt.IsTrue)
		s := n.String()
		c.Assert(seen[s], qt.IsFalse, qt.Commentf("duplicate nonce %s", s))
		seen[s] = true
	}
}
