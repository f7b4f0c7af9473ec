package main

import (
	"testing"

	"github.com/go-softwarelab/common/pkg/slogx"
	"github.com/sirdeggen/gebunden-spv/headers"
	"github.com/stretchr/testify/require"
)

const (
	genesisHeaderHex = "0100000000000000000000000000000000000000000000000000000000000000000000003ba3edfd7a7b12b27ac72c3e67768f617fc81bc3888a51323a9fb8aa4b1e5e4a29ab5f49ffff001d1dac2b7c"
	genesisHash      = "000000000019d6689c085ae165831e934ff763ae46a2a6c172b3f1b60a8ce26f"
	genesisTxID      = "4a5e1e4baab89f3a32518a88c31bc87f618f76673e2cc77ab2127b7afdeda33b"
	genesisTxHex     = "01000000010000000000000000000000000000000000000000000000000000000000000000ffffffff4d04ffff001d0104455468652054696d65732030332f4a616e2f32303039204368616e63656c6c6f72206f6e206272696e6b206f66207365636f6e64206261696c6f757420666f722062616e6b73ffffffff0100f2052a01000000434104678afdb0fe5548271967f1a67130b7105cd6a828e03909a67962e0ea1f61deb649f6bc3f4cef38c4f35504e51ec112de5c384df7ba0b8d578a4c702b6bf11d5fac00000000"

	// genesis proof: block hash, index 0, one hash (the txid in internal order)
	genesisProofHex = genesisHash + "00" + "01" + "3ba3edfd7a7b12b27ac72c3e67768f617fc81bc3888a51323a9fb8aa4b1e5e4a"

	genesisProvenTxHex = genesisTxHex + "01" + genesisProofHex

	block100000HeaderHex = "0100000050120119172a610421a6c3011dd330d9df07b63616c2cc1f1cd00200000000006657a9252aacd5c0b2940996ecff952228c3067cc38d4885efb5a4ac4247e9f337221b4d4c86041b0f2b5710"
)

// txids of block 100000 and their root, display order
var (
	block100000TxIDs = []string{
		"8c14f0db3df150123e6f3dbbf30f8b955a8249b62ac1d1ff16284aefa3d06d87",
		"fff2525b8931402dd09222c50775608f75787bd2b87e56995a7bdd30f79702c4",
		"6359f0868171b1d194cbee1af2f16ea598ae8fad666d9b012c8ed2b79a236ec4",
		"e9a66845e05d5abc0ad04ec80f774a7e585c6e8db975962d069a522137b80c1d",
	}
	block100000Root = "f3e94742aca4b5ef85488dc37c06c3282295ffec960994b2c0d5ac2a25a95766"
)

// newTestService returns a service whose header source knows genesis at
// height 0 and block 100000.
func newTestService(t *testing.T) *VerifyService {
	t.Helper()
	src := headers.NewStatic()
	require.NoError(t, src.AddHex(0, genesisHeaderHex))
	require.NoError(t, src.AddHex(100000, block100000HeaderHex))
	return NewVerifyService(slogx.NewTestLogger(t), src)
}
