package spv

import (
	"encoding/hex"
	"testing"

	"github.com/bsv-blockchain/go-sdk/block"
	"github.com/bsv-blockchain/go-sdk/chainhash"
	"github.com/bsv-blockchain/go-sdk/transaction"
	"github.com/stretchr/testify/require"
)

// Mainnet block 100000: four transactions.
const (
	block100000HeaderHex = "0100000050120119172a610421a6c3011dd330d9df07b63616c2cc1f1cd00200000000006657a9252aacd5c0b2940996ecff952228c3067cc38d4885efb5a4ac4247e9f337221b4d4c86041b0f2b5710"
	block100000Hash      = "000000000003ba27aa200b1cecaad478d2b00432346c3f1f3986da1afd33e506"
	block100000Root      = "f3e94742aca4b5ef85488dc37c06c3282295ffec960994b2c0d5ac2a25a95766"

	// hash of the first two leaves combined, internal byte order
	block100000Node01 = "15b88c5107195bf09eb9da89b83d95b3d070079a3c5c5d3d17d0dcd873fbdacc"

	// binary proof for the third transaction
	block100000Tx2ProofHex = "000000000003ba27aa200b1cecaad478d2b00432346c3f1f3986da1afd33e506" +
		"02" + "03" +
		"c46e239ab7d28e2c019b6d66ad8fae98a56ef1f21aeecb94d1b1718186f05963" +
		"1d0cb83721529a062d9675b98d6e5c587e4a770fc84ed00abc5a5de04568a6e9" +
		"15b88c5107195bf09eb9da89b83d95b3d070079a3c5c5d3d17d0dcd873fbdacc"
)

// txids of block 100000 in display order
var block100000TxIDs = []string{
	"8c14f0db3df150123e6f3dbbf30f8b955a8249b62ac1d1ff16284aefa3d06d87",
	"fff2525b8931402dd09222c50775608f75787bd2b87e56995a7bdd30f79702c4",
	"6359f0868171b1d194cbee1af2f16ea598ae8fad666d9b012c8ed2b79a236ec4",
	"e9a66845e05d5abc0ad04ec80f774a7e585c6e8db975962d069a522137b80c1d",
}

// Genesis block: a single coinbase transaction.
const (
	genesisHeaderHex = "0100000000000000000000000000000000000000000000000000000000000000000000003ba3edfd7a7b12b27ac72c3e67768f617fc81bc3888a51323a9fb8aa4b1e5e4a29ab5f49ffff001d1dac2b7c"
	genesisHash      = "000000000019d6689c085ae165831e934ff763ae46a2a6c172b3f1b60a8ce26f"
	genesisTxID      = "4a5e1e4baab89f3a32518a88c31bc87f618f76673e2cc77ab2127b7afdeda33b"
	genesisTxHex     = "01000000010000000000000000000000000000000000000000000000000000000000000000ffffffff4d04ffff001d0104455468652054696d65732030332f4a616e2f32303039204368616e63656c6c6f72206f6e206272696e6b206f66207365636f6e64206261696c6f757420666f722062616e6b73ffffffff0100f2052a01000000434104678afdb0fe5548271967f1a67130b7105cd6a828e03909a67962e0ea1f61deb649f6bc3f4cef38c4f35504e51ec112de5c384df7ba0b8d578a4c702b6bf11d5fac00000000"
)

// hashFromDisplay parses a txid style (byte reversed) hex string.
func hashFromDisplay(t *testing.T, s string) chainhash.Hash {
	t.Helper()
	h, err := chainhash.NewHashFromHex(s)
	require.NoError(t, err)
	return *h
}

// hashFromInternal parses plain hex of internal bytes.
func hashFromInternal(t *testing.T, s string) chainhash.Hash {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	h, err := chainhash.NewHash(b)
	require.NoError(t, err)
	return *h
}

func block100000Leaves(t *testing.T) []chainhash.Hash {
	t.Helper()
	leaves := make([]chainhash.Hash, 0, len(block100000TxIDs))
	for _, id := range block100000TxIDs {
		leaves = append(leaves, hashFromDisplay(t, id))
	}
	return leaves
}

func mustHeader(t *testing.T, s string) *block.Header {
	t.Helper()
	h, err := block.NewHeaderFromHex(s)
	require.NoError(t, err)
	return h
}

func genesisTx(t *testing.T) *transaction.Transaction {
	t.Helper()
	tx, err := transaction.NewTransactionFromHex(genesisTxHex)
	require.NoError(t, err)
	return tx
}

// flip returns a copy of h with one bit of byte i inverted.
func flip(h chainhash.Hash, i int) chainhash.Hash {
	h[i] ^= 0x01
	return h
}

// provenFixture builds a header whose tree holds tx at index 1 next to a
// made up sibling, and the matching proven transaction.
func provenFixture(t *testing.T) (*ProvenTransaction, *block.Header) {
	t.Helper()
	tx := genesisTx(t)
	leaves := []chainhash.Hash{
		chainhash.DoubleHashH([]byte("sibling")),
		*tx.TxID(),
		chainhash.DoubleHashH([]byte("third")),
	}
	root, err := ComputeMerkleRoot(leaves)
	require.NoError(t, err)

	header := &block.Header{
		Version:    1,
		PrevHash:   hashFromDisplay(t, genesisHash),
		MerkleRoot: root,
		Timestamp:  1231469665,
		Bits:       0x1d00ffff,
		Nonce:      2573394689,
	}
	proof, err := BuildMerkleProof(header.Hash(), leaves, 1)
	require.NoError(t, err)

	return NewProvenTransaction(tx, proof), header
}
