// Package circuits manages the circom circuit artifacts (witness-calculator
// wasm, proving key, verification key) and the construction of circuit
// inputs from the biometric fingerprint.
package circuits

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/humanproof/humanproof-node/log"
	"github.com/humanproof/humanproof-node/types"
)

// ErrCircuitUnavailable reports that a circuit artifact is missing, empty or
// does not match its pinned hash. It is surfaced before any witness
// computation is attempted.
var ErrCircuitUnavailable = errors.New("circuit artifact unavailable")

// artifactDownloadTimeout bounds a single remote artifact fetch. It is
// independent of the proof generation timeout.
const artifactDownloadTimeout = 2 * time.Minute

// Artifact is a single circuit file, identified by its pinned SHA-256 hash.
// Content is immutable once loaded.
type Artifact struct {
	Name      string
	RemoteURL string
	LocalPath string
	Hash      types.HexBytes

	content []byte
}

// Load reads the artifact from LocalPath when set, otherwise downloads it
// from RemoteURL, then verifies the pinned hash. The content is cached in
// memory; subsequent calls are no-ops.
func (a *Artifact) Load(ctx context.Context) error {
	if len(a.content) > 0 {
		return nil
	}
	var data []byte
	var err error
	switch {
	case a.LocalPath != "":
		data, err = os.ReadFile(a.LocalPath)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrCircuitUnavailable, a.Name, err)
		}
	case a.RemoteURL != "":
		data, err = a.download(ctx)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrCircuitUnavailable, a.Name, err)
		}
	default:
		return fmt.Errorf("%w: %s: no local path or remote URL", ErrCircuitUnavailable, a.Name)
	}
	if len(data) == 0 {
		return fmt.Errorf("%w: %s is empty", ErrCircuitUnavailable, a.Name)
	}
	if len(a.Hash) > 0 {
		sum := sha256.Sum256(data)
		if !bytes.Equal(sum[:], a.Hash) {
			return fmt.Errorf("%w: %s hash mismatch: got %x, want %x",
				ErrCircuitUnavailable, a.Name, sum, []byte(a.Hash))
		}
	}
	a.content = data
	return nil
}

func (a *Artifact) download(ctx context.Context) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, artifactDownloadTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.RemoteURL, nil)
	if err != nil {
		return nil, err
	}
	log.Debugw("downloading circuit artifact", "name", a.Name, "url", a.RemoteURL)
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			log.Warnw("error closing artifact response body", "name", a.Name, "err", err)
		}
	}()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d fetching %s", res.StatusCode, a.RemoteURL)
	}
	return io.ReadAll(res.Body)
}

// Content returns the loaded artifact bytes, or nil if Load has not run.
func (a *Artifact) Content() []byte {
	return a.content
}

// CircuitArtifacts bundles the three artifacts of one deployed circuit.
// LoadAll runs exactly once; after that the contents are read-only and may
// be shared freely across proof attempts.
type CircuitArtifacts struct {
	circuit         *Artifact
	provingKey      *Artifact
	verificationKey *Artifact

	loadOnce sync.Once
	loadErr  error
}

// NewCircuitArtifacts creates a bundle from the circuit wasm, proving key
// and verification key artifacts.
func NewCircuitArtifacts(circuit, provingKey, verificationKey *Artifact) *CircuitArtifacts {
	return &CircuitArtifacts{
		circuit:         circuit,
		provingKey:      provingKey,
		verificationKey: verificationKey,
	}
}

// LoadAll loads every artifact of the bundle. It is safe for concurrent use
// and performs the work only on the first call.
func (ca *CircuitArtifacts) LoadAll(ctx context.Context) error {
	ca.loadOnce.Do(func() {
		for _, a := range []*Artifact{ca.circuit, ca.provingKey, ca.verificationKey} {
			if a == nil {
				continue
			}
			if err := a.Load(ctx); err != nil {
				ca.loadErr = err
				return
			}
			log.Debugw("circuit artifact loaded", "name", a.Name, "bytes", len(a.Content()))
		}
	})
	return ca.loadErr
}

// CircuitWasm returns the witness-calculator wasm bytes.
func (ca *CircuitArtifacts) CircuitWasm() ([]byte, error) {
	return ca.artifactContent(ca.circuit, "circuit wasm")
}

// ProvingKey returns the proving key bytes.
func (ca *CircuitArtifacts) ProvingKey() ([]byte, error) {
	return ca.artifactContent(ca.provingKey, "proving key")
}

// VerificationKey returns the verification key bytes.
func (ca *CircuitArtifacts) VerificationKey() ([]byte, error) {
	return ca.artifactContent(ca.verificationKey, "verification key")
}

func (ca *CircuitArtifacts) artifactContent(a *Artifact, what string) ([]byte, error) {
	if a == nil || len(a.Content()) == 0 {
		return nil, fmt.Errorf("%w: %s not loaded", ErrCircuitUnavailable, what)
	}
	return a.Content(), nil
}
