package biometrics

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math"
	"math/big"

	"github.com/humanproof/humanproof-node/crypto/ff"
)

// fingerprintSalt is the fixed domain-separation salt appended to the
// serialized feature buffer. Changing it is a breaking change that requires
// circuit/verifier coordination.
const fingerprintSalt = "POEP_BIOMETRIC_SALT_V2"

// fingerprintTruncateBytes keeps the digest safely below the 254-bit field
// before reduction: 31 bytes = 248 bits.
const fingerprintTruncateBytes = 31

// Fingerprint combines the feature vector and landmark set into a single
// field element, the private biometric secret consumed by the circuit. The
// same (features, landmarks) pair always yields the same value.
func Fingerprint(fv *FeatureVector, lm *LandmarkSet) (*big.Int, error) {
	if fv == nil || lm == nil {
		return nil, fmt.Errorf("fingerprint requires both features and landmarks")
	}
	h := sha256.New()
	buf := make([]byte, 8)
	for _, v := range fv.Floats() {
		binary.BigEndian.PutUint64(buf, math.Float64bits(v))
		h.Write(buf)
	}
	for _, v := range lm.Floats() {
		binary.BigEndian.PutUint64(buf, math.Float64bits(v))
		h.Write(buf)
	}
	h.Write([]byte(fingerprintSalt))
	digest := h.Sum(nil)
	// leading 31 bytes as a big-endian integer; reduction kept as a guard
	// even though 248 bits always fits the field
	return ff.ReduceBytes(digest[:fingerprintTruncateBytes]), nil
}
