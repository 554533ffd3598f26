package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/fxamacker/cbor/v2"
	"github.com/humanproof/humanproof-node/circuits"
	"github.com/humanproof/humanproof-node/config"
	"github.com/humanproof/humanproof-node/log"
	"github.com/humanproof/humanproof-node/pipeline"
	"github.com/humanproof/humanproof-node/prover"
	"github.com/humanproof/humanproof-node/types"
	"github.com/humanproof/humanproof-node/verifier"
	"github.com/humanproof/humanproof-node/web3"
)

// circuitVersions maps the configurable version names to their circuit
// descriptors.
var circuitVersions = map[string]circuits.Version{
	circuits.V1FaceNonce.Name:       circuits.V1FaceNonce,
	circuits.V2FaceNonceAnchor.Name: circuits.V2FaceNonceAnchor,
}

func availableVersionNames() []string {
	names := make([]string, 0, len(circuitVersions))
	for name := range circuitVersions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func main() {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	log.Init(cfg.Log.Level, cfg.Log.Output)
	log.Infow("starting humanproof-prover", "version", Version)

	if err := validateConfig(cfg); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	version := circuitVersions[cfg.Circuit.Version]
	artifacts := circuitArtifacts(version, cfg.Datadir)

	var anchorOpts []web3.Option
	if cfg.Web3.Explorer != "" {
		anchorOpts = append(anchorOpts, web3.WithExplorer(cfg.Web3.Explorer, cfg.Web3.ExplorerKey))
	}
	anchors, err := web3.NewAnchorSource(anchorOpts...)
	if err != nil {
		log.Fatalf("Failed to initialize anchor source: %v", err)
	}

	pl := pipeline.New(version,
		prover.New(artifacts, prover.NewRapidsnarkBackend(artifacts), prover.WithTimeout(cfg.Prover.Timeout)),
		verifier.New(artifacts),
		anchors)

	image, err := os.ReadFile(cfg.Image)
	if err != nil {
		log.Fatalf("Failed to read image %s: %v", cfg.Image, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := pl.Run(ctx, image, cfg.Web3.Wallet)
	if err != nil {
		log.Fatalf("Proof attempt failed: %v", err)
	}
	if err := writeResult(cfg.Output, cfg.Format, res); err != nil {
		log.Fatalf("Failed to write result: %v", err)
	}
	log.Infow("mint calldata ready",
		"attempt", res.AttemptID, "nullifier", res.Nullifier.String(), "verified", res.Verified)
}

// circuitArtifacts builds the artifact bundle for the selected circuit
// version. Artifacts already present in the datadir (stored under their
// pinned hash) are used directly; anything missing is downloaded on first
// load and verified against the pin.
func circuitArtifacts(version circuits.Version, datadir string) *circuits.CircuitArtifacts {
	wasmURL, zkeyURL, vkeyURL := config.UniquenessCircuitURL, config.UniquenessProvingKeyURL, config.UniquenessVerificationKeyURL
	wasmHash, zkeyHash, vkeyHash := config.UniquenessCircuitHash, config.UniquenessProvingKeyHash, config.UniquenessVerificationKeyHash
	if version.Arity == 2 {
		wasmURL, zkeyURL, vkeyURL = config.LegacyCircuitURL, config.LegacyProvingKeyURL, config.LegacyVerificationKeyURL
		wasmHash, zkeyHash, vkeyHash = config.LegacyCircuitHash, config.LegacyProvingKeyHash, config.LegacyVerificationKeyHash
	}
	return circuits.NewCircuitArtifacts(
		artifact("circuit", wasmURL, wasmHash, datadir, ".wasm"),
		artifact("proving key", zkeyURL, zkeyHash, datadir, ".zkey"),
		artifact("verification key", vkeyURL, vkeyHash, datadir, ".json"),
	)
}

func artifact(name, url, hash, datadir, ext string) *circuits.Artifact {
	a := &circuits.Artifact{
		Name:      name,
		RemoteURL: url,
		Hash:      types.HexStringToHexBytesMustUnmarshal(hash),
	}
	local := filepath.Join(datadir, "artifacts", hash+ext)
	if _, err := os.Stat(local); err == nil {
		a.LocalPath = local
	}
	return a
}

// writeResult emits the submission calldata as indented JSON, or the full
// mint artifacts (proof, public signals, nullifier) as CBOR for archival.
func writeResult(output, format string, res *pipeline.MintArtifacts) error {
	var data []byte
	var err error
	switch format {
	case "cbor":
		data, err = cbor.Marshal(res)
	default:
		if data, err = json.MarshalIndent(res.Calldata, "", "  "); err == nil {
			data = append(data, '\n')
		}
	}
	if err != nil {
		return err
	}
	if output == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(output, data, 0o600)
}
