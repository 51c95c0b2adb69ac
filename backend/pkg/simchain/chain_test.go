package simchain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"pgregory.net/rapid"

	"github.com/rius2g/musicchain/backend/pkg/contracts"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func mustABI(t require.TestingT, name string) abi.ABI {
	parsed, err := contracts.ABI(name)
	require.NoError(t, err)
	return parsed
}

func signedTx(t require.TestingT, c *Chain, key *ecdsa.PrivateKey, nonce uint64, to *common.Address, value *big.Int, gas uint64, data []byte) *types.Transaction {
	var tx *types.Transaction
	if to == nil {
		tx = types.NewContractCreation(nonce, value, gas, DefaultGasPrice, data)
	} else {
		tx = types.NewTransaction(nonce, *to, value, gas, DefaultGasPrice, data)
	}
	signed, err := types.SignTx(tx, c.signer, key)
	require.NoError(t, err)
	return signed
}

// deployRegistry creates a MusicRegistry owned by key's address and returns
// its address.
func deployRegistry(t require.TestingT, c *Chain, key *ecdsa.PrivateKey) common.Address {
	ctx := context.Background()
	from := crypto.PubkeyToAddress(key.PublicKey)
	nonce, err := c.PendingNonceAt(ctx, from)
	require.NoError(t, err)

	args, err := mustABI(t, contracts.MusicRegistryName).Pack("", from)
	require.NoError(t, err)
	data := append(ProgramCode(contracts.MusicRegistryName), args...)

	tx := signedTx(t, c, key, nonce, nil, new(big.Int), 1_000_000, data)
	require.NoError(t, c.SendTransaction(ctx, tx))
	receipt, err := c.TransactionReceipt(ctx, tx.Hash())
	require.NoError(t, err)
	require.Equal(t, types.ReceiptStatusSuccessful, receipt.Status)
	require.Equal(t, crypto.CreateAddress(from, nonce), receipt.ContractAddress)
	return receipt.ContractAddress
}

func TestNew_FundsDevAccounts(t *testing.T) {
	c := New(WithAccounts(4))
	ctx := context.Background()

	signers := c.Signers()
	require.Len(t, signers, 4)
	for _, s := range signers {
		bal, err := c.BalanceAt(ctx, s.Address, nil)
		require.NoError(t, err)
		require.Zero(t, DefaultBalance.Cmp(bal))
	}

	again := New(WithAccounts(4)).Signers()
	require.Equal(t, signers[0].Address, again[0].Address, "dev accounts are deterministic")

	id, err := c.ChainID(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(DefaultChainID), id.Int64())
}

func TestSendTransaction_NonceChecks(t *testing.T) {
	c := New(WithAccounts(2))
	ctx := context.Background()
	key := c.keys[0]
	to := crypto.PubkeyToAddress(c.keys[1].PublicKey)

	err := c.SendTransaction(ctx, signedTx(t, c, key, 1, &to, big.NewInt(1), 21_000, nil))
	require.ErrorContains(t, err, "nonce too high")

	tx := signedTx(t, c, key, 0, &to, big.NewInt(1), 21_000, nil)
	require.NoError(t, c.SendTransaction(ctx, tx))

	err = c.SendTransaction(ctx, signedTx(t, c, key, 0, &to, big.NewInt(2), 21_000, nil))
	require.ErrorContains(t, err, "nonce too low")

	err = c.SendTransaction(ctx, tx)
	require.Error(t, err)

	block, err := c.BlockNumber(ctx)
	require.NoError(t, err)
	require.Equal(t, uint64(1), block)
}

func TestSendTransaction_IntrinsicGas(t *testing.T) {
	c := New(WithAccounts(2))
	to := crypto.PubkeyToAddress(c.keys[1].PublicKey)

	err := c.SendTransaction(context.Background(), signedTx(t, c, c.keys[0], 0, &to, big.NewInt(1), 20_000, nil))
	require.ErrorContains(t, err, "intrinsic gas too low")
}

func TestSendTransaction_RevertIsMinedAsFailure(t *testing.T) {
	c := New(WithAccounts(2))
	ctx := context.Background()
	owner, stranger := c.keys[0], c.keys[1]
	registry := deployRegistry(t, c, owner)

	strangerAddr := crypto.PubkeyToAddress(stranger.PublicKey)
	before, err := c.BalanceAt(ctx, strangerAddr, nil)
	require.NoError(t, err)

	data, err := mustABI(t, contracts.MusicRegistryName).Pack("registerMusic", "Song Title", "Artist Name", "hash123")
	require.NoError(t, err)
	tx := signedTx(t, c, stranger, 0, &registry, new(big.Int), 200_000, data)
	require.NoError(t, c.SendTransaction(ctx, tx))

	receipt, err := c.TransactionReceipt(ctx, tx.Hash())
	require.NoError(t, err)
	require.Equal(t, types.ReceiptStatusFailed, receipt.Status)

	nonce, err := c.PendingNonceAt(ctx, strangerAddr)
	require.NoError(t, err)
	require.Equal(t, uint64(1), nonce, "a reverted tx still consumes its nonce")

	after, err := c.BalanceAt(ctx, strangerAddr, nil)
	require.NoError(t, err)
	fee := new(big.Int).Mul(new(big.Int).SetUint64(receipt.GasUsed), DefaultGasPrice)
	require.Zero(t, new(big.Int).Sub(before, fee).Cmp(after))

	out, err := c.CallContract(ctx, ethereum.CallMsg{To: &registry, Data: mustPack(t, "musicCount")}, nil)
	require.NoError(t, err)
	require.Zero(t, new(big.Int).SetBytes(out).Sign())
}

func mustPack(t require.TestingT, method string, args ...any) []byte {
	data, err := mustABI(t, contracts.MusicRegistryName).Pack(method, args...)
	require.NoError(t, err)
	return data
}

func TestEstimateGas_RevertCarriesData(t *testing.T) {
	c := New(WithAccounts(2))
	registry := deployRegistry(t, c, c.keys[0])

	_, err := c.EstimateGas(context.Background(), ethereum.CallMsg{
		From: crypto.PubkeyToAddress(c.keys[1].PublicKey),
		To:   &registry,
		Data: mustPack(t, "registerMusic", "a", "b", "c"),
	})
	require.Error(t, err)

	var de rpc.DataError
	require.True(t, errors.As(err, &de))
	hexData, ok := de.ErrorData().(string)
	require.True(t, ok)

	data := common.FromHex(hexData)
	reason, err := abi.UnpackRevert(data)
	require.NoError(t, err)
	require.Equal(t, errNotOwner, reason)
}

func TestCreate_UnknownCodeReverts(t *testing.T) {
	c := New(WithAccounts(1))
	_, err := c.EstimateGas(context.Background(), ethereum.CallMsg{
		From: crypto.PubkeyToAddress(c.keys[0].PublicKey),
		Data: []byte{0x60, 0x80, 0x60, 0x40},
	})
	require.EqualError(t, err, "execution reverted")
}

func TestCallContract_NoCodeReturnsEmpty(t *testing.T) {
	c := New(WithAccounts(1))
	to := common.HexToAddress("0x1234")
	out, err := c.CallContract(context.Background(), ethereum.CallMsg{To: &to, Data: mustPack(t, "musicCount")}, nil)
	require.NoError(t, err)
	require.Empty(t, out)

	code, err := c.CodeAt(context.Background(), to, nil)
	require.NoError(t, err)
	require.Empty(t, code)
}

// TestRegistry_SequentialIDs checks that any number of registrations yields
// ids 1..n, one block per tx and a nonce equal to the number of txs sent.
func TestRegistry_SequentialIDs(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		c := New(WithAccounts(1))
		ctx := context.Background()
		key := c.keys[0]
		from := crypto.PubkeyToAddress(key.PublicKey)
		registry := deployRegistry(rt, c, key)

		n := rapid.IntRange(0, 12).Draw(rt, "registrations")
		titles := make([]string, n)
		for i := 0; i < n; i++ {
			titles[i] = rapid.StringMatching(`[A-Za-z ]{1,16}`).Draw(rt, "title")
			data := mustPack(rt, "registerMusic", titles[i], "artist", "hash")
			tx := signedTx(rt, c, key, uint64(i+1), &registry, new(big.Int), 200_000, data)
			require.NoError(rt, c.SendTransaction(ctx, tx))
		}

		nonce, err := c.PendingNonceAt(ctx, from)
		require.NoError(rt, err)
		require.Equal(rt, uint64(n+1), nonce)

		block, err := c.BlockNumber(ctx)
		require.NoError(rt, err)
		require.Equal(rt, uint64(n+1), block)

		registryABI := mustABI(rt, contracts.MusicRegistryName)
		for i, title := range titles {
			out, err := c.CallContract(ctx, ethereum.CallMsg{To: &registry, Data: mustPack(rt, "getMusic", big.NewInt(int64(i+1)))}, nil)
			require.NoError(rt, err)
			values, err := registryABI.Unpack("getMusic", out)
			require.NoError(rt, err)
			require.Equal(rt, int64(i+1), values[0].(*big.Int).Int64())
			require.Equal(rt, title, values[1].(string))
		}
	})
}
