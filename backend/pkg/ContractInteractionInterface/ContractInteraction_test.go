package ContractInteraction_test

import (
	"context"
	"errors"
	"math/big"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/params"
	"github.com/stretchr/testify/require"

	contract "github.com/rius2g/musicchain/backend/pkg/ContractInteractionInterface"
	"github.com/rius2g/musicchain/backend/pkg/contracts"
	"github.com/rius2g/musicchain/backend/pkg/simchain"
)

// flakyBackend wraps the simulated chain and can fail the next send or the
// gas price query.
type flakyBackend struct {
	*simchain.Chain
	failSends    atomic.Int32
	noGasPrice   bool
	highPrice    *big.Int
	lastGasPrice atomic.Pointer[big.Int]
}

func (f *flakyBackend) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	if f.failSends.Load() > 0 {
		f.failSends.Add(-1)
		return errors.New("replacement transaction underpriced")
	}
	f.lastGasPrice.Store(tx.GasPrice())
	return f.Chain.SendTransaction(ctx, tx)
}

func (f *flakyBackend) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	if f.noGasPrice {
		return nil, errors.New("method not found")
	}
	if f.highPrice != nil {
		return f.highPrice, nil
	}
	return f.Chain.SuggestGasPrice(ctx)
}

func newClient(t *testing.T, backend contract.Backend, opts contract.Options) *contract.ContractInteractionInterface {
	t.Helper()
	if opts.PollInterval == 0 {
		opts.PollInterval = time.Millisecond
	}
	c, err := contract.Init(context.Background(), backend, opts)
	require.NoError(t, err)
	return c
}

func registryArtifact(t *testing.T, chain *simchain.Chain) *contract.Artifact {
	t.Helper()
	art, err := chain.Artifacts().Artifact(contracts.MusicRegistryName)
	require.NoError(t, err)
	return art
}

func TestDeploy_ReturnsReceiptAndCountsTx(t *testing.T) {
	chain := simchain.New(simchain.WithAccounts(1))
	c := newClient(t, chain, contract.Options{})
	signer := chain.Signers()[0]

	require.Equal(t, int64(simchain.DefaultChainID), c.ChainID().Int64())

	deployed, err := c.Deploy(context.Background(), signer, registryArtifact(t, chain), signer.Address)
	require.NoError(t, err)
	require.NotEqual(t, common.Address{}, deployed.Address)
	require.Equal(t, types.ReceiptStatusSuccessful, deployed.Receipt.Status)
	require.Positive(t, deployed.Receipt.GasUsed)
	require.Zero(t, simchain.DefaultGasPrice.Cmp(deployed.GasPrice))
	require.Equal(t, int64(1), c.Sent())
	require.Equal(t, int64(1), c.Confirmed())

	code, err := chain.CodeAt(context.Background(), deployed.Address, nil)
	require.NoError(t, err)
	require.NotEmpty(t, code)
}

func TestDeploy_RejectsMissingBytecodeAndBadArgs(t *testing.T) {
	chain := simchain.New(simchain.WithAccounts(1))
	c := newClient(t, chain, contract.Options{})
	signer := chain.Signers()[0]

	art := *registryArtifact(t, chain)
	art.Bytecode = nil
	_, err := c.Deploy(context.Background(), signer, &art)
	require.ErrorIs(t, err, contract.ErrNoBytecode)

	_, err = c.Deploy(context.Background(), signer, registryArtifact(t, chain))
	require.ErrorContains(t, err, "failed to pack constructor args")
	require.Zero(t, c.Sent())
}

func TestSendFailure_ResyncsNonce(t *testing.T) {
	backend := &flakyBackend{Chain: simchain.New(simchain.WithAccounts(1))}
	c := newClient(t, backend, contract.Options{})
	signer := backend.Signers()[0]
	art := registryArtifact(t, backend.Chain)

	backend.failSends.Store(1)
	_, err := c.Deploy(context.Background(), signer, art, signer.Address)
	require.ErrorContains(t, err, "send transaction failed")

	// The failed send must not leave a gap in the nonce sequence.
	deployed, err := c.Deploy(context.Background(), signer, art, signer.Address)
	require.NoError(t, err)
	require.Equal(t, uint64(0), deployed.Tx.Nonce())
}

func TestGasPrice_FallbackAndCap(t *testing.T) {
	backend := &flakyBackend{Chain: simchain.New(simchain.WithAccounts(1)), noGasPrice: true}
	c := newClient(t, backend, contract.Options{})
	signer := backend.Signers()[0]
	art := registryArtifact(t, backend.Chain)

	_, err := c.Deploy(context.Background(), signer, art, signer.Address)
	require.NoError(t, err)
	require.Zero(t, big.NewInt(25*params.GWei).Cmp(backend.lastGasPrice.Load()))

	backend.noGasPrice = false
	backend.highPrice = big.NewInt(500 * params.GWei)
	capped := newClient(t, backend, contract.Options{GasPriceCap: big.NewInt(40 * params.GWei)})
	_, err = capped.Deploy(context.Background(), signer, art, signer.Address)
	require.NoError(t, err)
	require.Zero(t, big.NewInt(40*params.GWei).Cmp(backend.lastGasPrice.Load()))
}

func TestCall_NoCode(t *testing.T) {
	chain := simchain.New(simchain.WithAccounts(1))
	c := newClient(t, chain, contract.Options{})
	art := registryArtifact(t, chain)

	var out *big.Int
	err := c.Call(context.Background(), chain.Signers()[0].Address, art.ABI, &out, "musicCount")
	require.ErrorIs(t, err, contract.ErrNotDeployed)
}

func TestTransact_RevertSurfacesReason(t *testing.T) {
	chain := simchain.New(simchain.WithAccounts(2))
	c := newClient(t, chain, contract.Options{})
	owner, stranger := chain.Signers()[0], chain.Signers()[1]
	art := registryArtifact(t, chain)

	deployed, err := c.Deploy(context.Background(), owner, art, owner.Address)
	require.NoError(t, err)

	_, err = c.Transact(context.Background(), stranger, deployed.Address, art.ABI, nil, "registerMusic", "a", "b", "c")
	var revert *contract.RevertError
	require.True(t, errors.As(err, &revert))
	require.Equal(t, "Ownable: caller is not the owner", revert.Reason)
	require.Equal(t, int64(1), c.Sent(), "a call that fails estimation is never sent")
}
