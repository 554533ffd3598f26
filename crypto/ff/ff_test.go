package ff

import (
	"crypto/rand"
	"math/big"
	"testing"

	qt "github.com/frankban/quicktest"
)

func TestReduceBoundaries(t *testing.T) {
	c := qt.New(t)

	cases := []struct {
		name string
		in   *big.Int
		want *big.Int
	}{
		{"zero", big.NewInt(0), big.NewInt(0)},
		{"one", big.NewInt(1), big.NewInt(1)},
		{"modulus-1", new(big.Int).Sub(Modulus, big.NewInt(1)), new(big.Int).Sub(Modulus, big.NewInt(1))},
		{"modulus", new(big.Int).Set(Modulus), big.NewInt(0)},
		{"modulus+1", new(big.Int).Add(Modulus, big.NewInt(1)), big.NewInt(1)},
		{"2*modulus", new(big.Int).Lsh(Modulus, 1), big.NewInt(0)},
		{"negative", big.NewInt(-1), new(big.Int).Sub(Modulus, big.NewInt(1))},
	}
	for _, tc := range cases {
		got := Reduce(tc.in)
		c.Assert(got.Cmp(tc.want), qt.Equals, 0, qt.Commentf("case %s", tc.name))
		c.Assert(InField(got), qt.IsTrue, qt.Commentf("case %s", tc.name))
	}
}

func TestReduceDoesNotMutateInput(t *testing.T) {
	c := qt.New(t)
	in := new(big.Int).Add(Modulus, big.NewInt(42))
	orig := new(big.Int).Set(in)
	_ = Reduce(in)
	c.Assert(in.Cmp(orig), qt.Equals, 0)
}

func TestReduceRandomWideInputs(t *testing.T) {
	c := qt.New(t)
	max := new(big.Int).Lsh(big.NewInt(1), 512)
	for range 1000 {
		x, err := rand.Int(rand.Reader, max)
		c.Assert(err, qt.IsNil)
		got := Reduce(x)
		c.Assert(InField(got), qt.IsTrue)
	}
}

func TestReduceBytes(t *testing.T) {
	c := qt.New(t)
	// 32 bytes of 0xff is above the modulus and must wrap into range.
	buf := make([]byte, 32)
	for i := range buf {
		buf[i] = 0xff
	}
	got := ReduceBytes(buf)
	c.Assert(InField(got), qt.IsTrue)
	c.Assert(got.Sign() > 0, qt.IsTrue)
}

func TestNonZero(t *testing.T) {
	c := qt.New(t)
	c.Assert(NonZero(big.NewInt(0)).Cmp(big.NewInt(1)), qt.Equals, 0)
	c.Assert(NonZero(big.NewInt(7)).Cmp(big.NewInt(7)), qt.Equals, 0)
}

func TestFitsBits(t *testing.T) {
	c := qt.New(t)
	c.Assert(FitsBits(big.NewInt(255), 8), qt.IsTrue)
	c.Assert(FitsBits(big.NewInt(256), 8), qt.IsFalse)
	c.Assert(FitsBits(big.NewInt(-1), 8), qt.IsFalse)
	c.Assert(FitsBits(new(big.Int).Sub(Modulus, big.NewInt(1)), CircuitInputBits), qt.IsTrue)
}
