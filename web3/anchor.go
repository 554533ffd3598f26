// Package web3 provides wallet address validation and the per-wallet
// anchor value bound into three-input circuit witnesses. The anchor is
// the wallet's first transaction hash when an explorer endpoint is
// configured, with a deterministic digest fallback so proof generation
// never blocks on explorer availability.
package web3

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/humanproof/humanproof-node/crypto/ff"
	"github.com/humanproof/humanproof-node/log"
)

// ErrInvalidAddress reports a wallet address that is not a 20-byte hex
// Ethereum address. Malformed addresses are rejected, never coerced.
var ErrInvalidAddress = errors.New("invalid wallet address")

const (
	// anchorLookupTimeout bounds a single explorer request. It is
	// independent of the proof generation timeout.
	anchorLookupTimeout = 10 * time.Second
	// anchorCacheSize is the number of per-address anchors kept in
	// memory. The anchor of an address never changes, so entries are
	// valid forever.
	anchorCacheSize = 1024
)

// ValidateAddress checks that s is a well-formed 20-byte hex Ethereum
// address, with or without the 0x prefix.
func ValidateAddress(s string) error {
	if !common.IsHexAddress(s) {
		return fmt.Errorf("%w: %q", ErrInvalidAddress, s)
	}
	return nil
}

// AnchorSource resolves the anchor field element for a wallet address.
// It is safe for concurrent use.
type AnchorSource struct {
	explorerURL string
	apiKey      string
	client      *http.Client
	cache       *lru.Cache[string, *big.Int]
}

// Option configures an AnchorSource.
type Option func(*AnchorSource)

// WithExplorer enables first-transaction lookup against an
// Etherscan-compatible API endpoint. The apiKey may be empty.
func WithExplorer(apiURL, apiKey string) Option {
	return func(s *AnchorSource) {
		s.explorerURL = apiURL
		s.apiKey = apiKey
	}
}

// WithHTTPClient overrides the HTTP client used for explorer lookups.
func WithHTTPClient(c *http.Client) Option {
	return func(s *AnchorSource) { s.client = c }
}

// NewAnchorSource creates an AnchorSource. Without WithExplorer it always
// uses the deterministic fallback digest.
func NewAnchorSource(opts ...Option) (*AnchorSource, error) {
	cache, err := lru.New[string, *big.Int](anchorCacheSize)
	if err != nil {
		return nil, err
	}
	s := &AnchorSource{
		client: &http.Client{Timeout: anchorLookupTimeout},
		cache:  cache,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Anchor returns the anchor field element for the given wallet address:
// the wallet's first transaction hash reduced into the scalar field, or
// the Keccak-256 digest of the lowercased address when no explorer is
// configured or the lookup fails. The same address always yields the same
// anchor.
func (s *AnchorSource) Anchor(ctx context.Context, address string) (*big.Int, error) {
	if err := ValidateAddress(address); err != nil {
		return nil, err
	}
	key := strings.ToLower(address)
	if !strings.HasPrefix(key, "0x") {
		key = "0x" + key
	}
	if cached, ok := s.cache.Get(key); ok {
		return new(big.Int).Set(cached), nil
	}

	var digest []byte
	if s.explorerURL != "" {
		txHash, err := s.firstTxHash(ctx, key)
		switch {
		case err != nil:
			log.Warnw("first transaction lookup failed, using fallback anchor",
				"address", key, "err", err)
		case txHash == nil:
			log.Debugw("address has no transactions, using fallback anchor", "address", key)
		default:
			digest = txHash
		}
	}
	if digest == nil {
		digest = ethcrypto.Keccak256([]byte(key))
	}

	anchor := ff.ReduceBytes(digest)
	s.cache.Add(key, anchor)
	return new(big.Int).Set(anchor), nil
}

// explorerTxList is the Etherscan account/txlist response envelope.
type explorerTxList struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Result  []struct {
		Hash string `json:"hash"`
	} `json:"result"`
}

// firstTxHash fetches the hash of the oldest transaction sent from or to
// the address. A nil hash with nil error means the address has no
// transaction history yet.
func (s *AnchorSource) firstTxHash(ctx context.Context, address string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, anchorLookupTimeout)
	defer cancel()

	q := url.Values{}
	q.Set("module", "account")
	q.Set("action", "txlist")
	q.Set("address", address)
	q.Set("page", "1")
	q.Set("offset", "1")
	q.Set("sort", "asc")
	if s.apiKey != "" {
		q.Set("apikey", s.apiKey)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		s.explorerURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	res, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			log.Warnw("error closing explorer response body", "err", err)
		}
	}()
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected explorer status %d", res.StatusCode)
	}
	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}
	var list explorerTxList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("decoding explorer response: %w", err)
	}
	if len(list.Result) == 0 {
		return nil, nil
	}
	hash, err := hexutil.Decode(list.Result[0].Hash)
	if err != nil {
		return nil, fmt.Errorf("decoding transaction hash %q: %w", list.Result[0].Hash, err)
	}
	return hash, nil
}
