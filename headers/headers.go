// Package headers provides trusted block headers for proof verification.
package headers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/bsv-blockchain/go-sdk/block"
	"github.com/bsv-blockchain/go-sdk/chainhash"
	"github.com/bsv-blockchain/go-sdk/transaction/chaintracker"
)

// ErrHeaderNotFound is returned when a source has no header at a height.
var ErrHeaderNotFound = errors.New("header not found")

// Source hands out block headers by height. Implementations also satisfy
// chaintracker.ChainTracker so they can back root-only verification.
type Source interface {
	chaintracker.ChainTracker
	HeaderByHeight(ctx context.Context, height uint32) (*block.Header, error)
}

// Static is an in-memory Source, for headers obtained out of band.
type Static struct {
	mu       sync.RWMutex
	byHeight map[uint32]*block.Header
	tip      uint32
}

// NewStatic creates an empty Static source.
func NewStatic() *Static {
	return &Static{byHeight: make(map[uint32]*block.Header)}
}

// Add stores header at height, replacing any previous one.
func (s *Static) Add(height uint32, header *block.Header) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byHeight[height] = header
	if height > s.tip {
		s.tip = height
	}
}

// AddHex parses an 80-byte hex header and stores it at height.
func (s *Static) AddHex(height uint32, headerHex string) error {
	header, err := block.NewHeaderFromHex(headerHex)
	if err != nil {
		return fmt.Errorf("header at height %d: %w", height, err)
	}
	s.Add(height, header)
	return nil
}

func (s *Static) HeaderByHeight(_ context.Context, height uint32) (*block.Header, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	header, ok := s.byHeight[height]
	if !ok {
		return nil, fmt.Errorf("%w at height %d", ErrHeaderNotFound, height)
	}
	return header, nil
}

func (s *Static) IsValidRootForHeight(ctx context.Context, root *chainhash.Hash, height uint32) (bool, error) {
	header, err := s.HeaderByHeight(ctx, height)
	if err != nil {
		return false, err
	}
	return header.MerkleRoot.IsEqual(root), nil
}

func (s *Static) CurrentHeight(context.Context) (uint32, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.byHeight) == 0 {
		return 0, ErrHeaderNotFound
	}
	return s.tip, nil
}

// WhatsOnChain fetches headers from the WhatsOnChain API.
type WhatsOnChain struct {
	client *chaintracker.WhatsOnChain
}

// NewWhatsOnChain creates a source for network ("main" or "test").
func NewWhatsOnChain(network, apiKey string) *WhatsOnChain {
	return &WhatsOnChain{client: chaintracker.NewWhatsOnChain(chaintracker.Network(network), apiKey)}
}

func (w *WhatsOnChain) HeaderByHeight(ctx context.Context, height uint32) (*block.Header, error) {
	h, err := w.client.GetBlockHeader(ctx, height)
	if err != nil {
		return nil, fmt.Errorf("fetching header at height %d: %w", height, err)
	}
	if h == nil {
		return nil, fmt.Errorf("%w at height %d", ErrHeaderNotFound, height)
	}
	return FromChainTrackerHeader(h)
}

func (w *WhatsOnChain) IsValidRootForHeight(ctx context.Context, root *chainhash.Hash, height uint32) (bool, error) {
	header, err := w.HeaderByHeight(ctx, height)
	if err != nil {
		return false, err
	}
	return header.MerkleRoot.IsEqual(root), nil
}

func (w *WhatsOnChain) CurrentHeight(ctx context.Context) (uint32, error) {
	return w.client.CurrentHeight(ctx)
}

// FromChainTrackerHeader rebuilds the 80-byte header from the fields an API
// reports. When the API also reports the block hash, the rebuilt header must
// hash to it.
func FromChainTrackerHeader(h *chaintracker.BlockHeader) (*block.Header, error) {
	if h.MerkleRoot == nil {
		return nil, errors.New("header has no merkle root")
	}
	bits, err := strconv.ParseUint(h.Bits, 16, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid bits %q: %w", h.Bits, err)
	}

	header := &block.Header{
		// the version is signed on the wire; keep the bit pattern
		Version:    int32(h.Version),
		MerkleRoot: *h.MerkleRoot,
		Timestamp:  h.Time,
		Bits:       uint32(bits),
		Nonce:      h.Nonce,
	}
	if h.PrevHash != nil {
		header.PrevHash = *h.PrevHash
	}

	if h.Hash != nil {
		if got := header.Hash(); !got.IsEqual(h.Hash) {
			return nil, fmt.Errorf("rebuilt header hashes to %s, api reported %s", got, h.Hash)
		}
	}
	return header, nil
}
