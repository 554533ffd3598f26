// Package config pins the circuit artifact locations and hashes for every
// supported circuit version. The artifacts deployed here must match the
// verification key of the on-chain verifier contract; a version mismatch is
// a deployment concern the pipeline can only detect structurally.
package config

import "fmt"

const (
	// DefaultArtifactsBaseURL is the base URL for circuit artifacts storage
	DefaultArtifactsBaseURL = "https://artifacts.humanproof.cdn.net"
	// DefaultArtifactsRelease is the release version for circuit artifacts
	DefaultArtifactsRelease = "v2"
)

var (
	// UniquenessCircuitURL is the URL for the 3-input uniqueness circuit WASM file
	UniquenessCircuitURL = fmt.Sprintf("%s/%s/%s.wasm", DefaultArtifactsBaseURL, DefaultArtifactsRelease, UniquenessCircuitHash)
	// UniquenessCircuitHash is the hash of the uniqueness circuit
	UniquenessCircuitHash = "8a1c8ff5abdd35312f512b028b0a63e89414ef637e4a83e9659530c737b5d7c0"
	// UniquenessProvingKeyURL is the URL for the uniqueness proving key
	UniquenessProvingKeyURL = fmt.Sprintf("%s/%s/%s.zkey", DefaultArtifactsBaseURL, DefaultArtifactsRelease, UniquenessProvingKeyHash)
	// UniquenessProvingKeyHash is the hash of the uniqueness proving key
	UniquenessProvingKeyHash = "17a64a474dde6d5a14e4ab46c54ec87eee5b786a5e90d59a160a17ede6c39f92"
	// UniquenessVerificationKeyURL is the URL for the uniqueness verification key
	UniquenessVerificationKeyURL = fmt.Sprintf("%s/%s/%s.json", DefaultArtifactsBaseURL, DefaultArtifactsRelease, UniquenessVerificationKeyHash)
	// UniquenessVerificationKeyHash is the hash of the uniqueness verification key
	UniquenessVerificationKeyHash = "2533ab73ac0dbe7909ab524c8ad7b83cd90f0031e5ba117635475063ef4fba21"

	// LegacyCircuitURL is the URL for the retired 2-input circuit WASM file,
	// kept only for verifying proofs minted before the anchor rollout.
	LegacyCircuitURL = fmt.Sprintf("%s/v1/%s.wasm", DefaultArtifactsBaseURL, LegacyCircuitHash)
	// LegacyCircuitHash is the hash of the legacy circuit
	LegacyCircuitHash = "c73a9e9d7ce0d3375cd4affe0a610c71a7ad234bebca76d1305ccee8665d15d9"
	// LegacyProvingKeyURL is the URL for the legacy proving key
	LegacyProvingKeyURL = fmt.Sprintf("%s/v1/%s.zkey", DefaultArtifactsBaseURL, LegacyProvingKeyHash)
	// LegacyProvingKeyHash is the hash of the legacy proving key
	LegacyProvingKeyHash = "5d018ed0cd28a049a191e8091c8c387144102413ae2abf348e1ad426ed3892f6"
	// LegacyVerificationKeyURL is the URL for the legacy verification key
	LegacyVerificationKeyURL = fmt.Sprintf("%s/v1/%s.json", DefaultArtifactsBaseURL, LegacyVerificationKeyHash)
	// LegacyVerificationKeyHash is the hash of the legacy verification key
	LegacyVerificationKeyHash = "d94893b26ced183da4f95cc76b6d7230b2917f09c135e3fbcb686b23c8c4f5b2"
)
