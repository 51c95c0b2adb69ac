package ContractInteraction

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/params"
	"github.com/rs/zerolog"
)

const (
	DefaultConfirmTimeout = 2 * time.Minute
	DefaultPollInterval   = time.Second
)

var (
	fallbackGasPrice = big.NewInt(25 * params.GWei)
	defaultGasCap    = big.NewInt(100 * params.GWei)
)

// Options tunes the client. Zero values fall back to the defaults above.
type Options struct {
	ConfirmTimeout time.Duration
	PollInterval   time.Duration
	GasPriceCap    *big.Int
	Logger         zerolog.Logger
}

// Deployed describes a confirmed contract creation.
type Deployed struct {
	Address  common.Address
	Tx       *types.Transaction
	Receipt  *types.Receipt
	GasPrice *big.Int
}

type ContractInteractionInterface struct {
	backend Backend
	chainID *big.Int
	opts    Options
	logger  zerolog.Logger

	nonceManager *NonceManager
	txLock       sync.Mutex

	confirmed int64
	sent      int64
}

// Init binds a client to backend and caches the chain id.
func Init(ctx context.Context, backend Backend, opts Options) (*ContractInteractionInterface, error) {
	if opts.ConfirmTimeout <= 0 {
		opts.ConfirmTimeout = DefaultConfirmTimeout
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.GasPriceCap == nil || opts.GasPriceCap.Sign() <= 0 {
		opts.GasPriceCap = defaultGasCap
	}

	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	chainID, err := backend.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("chain id: %w", err)
	}

	c := &ContractInteractionInterface{
		backend: backend,
		chainID: chainID,
		opts:    opts,
		logger:  opts.Logger,
	}
	c.nonceManager = NewNonceManager(backend.PendingNonceAt)
	c.logger.Debug().Str("event", "client_ready").Str("chain_id", chainID.String()).Send()
	return c, nil
}

func (c *ContractInteractionInterface) ChainID() *big.Int {
	return new(big.Int).Set(c.chainID)
}

func (c *ContractInteractionInterface) Backend() Backend {
	return c.backend
}

func (c *ContractInteractionInterface) Confirmed() int64 {
	return atomic.LoadInt64(&c.confirmed)
}

func (c *ContractInteractionInterface) Sent() int64 {
	return atomic.LoadInt64(&c.sent)
}

// Deploy sends the creation transaction for art with packed constructor args
// and waits for it to be mined.
func (c *ContractInteractionInterface) Deploy(ctx context.Context, signer *Signer, art *Artifact, args ...any) (*Deployed, error) {
	if len(art.Bytecode) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoBytecode, art.Name)
	}
	packed, err := art.ABI.Pack("", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack constructor args: %w", err)
	}
	input := make([]byte, 0, len(art.Bytecode)+len(packed))
	input = append(input, art.Bytecode...)
	input = append(input, packed...)

	tx, receipt, err := c.send(ctx, signer, nil, nil, input)
	if err != nil {
		return nil, err
	}
	if receipt.ContractAddress == (common.Address{}) {
		return nil, fmt.Errorf("%w: %s", ErrNoContract, tx.Hash().Hex())
	}
	return &Deployed{
		Address:  receipt.ContractAddress,
		Tx:       tx,
		Receipt:  receipt,
		GasPrice: effectiveGasPrice(tx, receipt),
	}, nil
}

// Transact calls method on the contract at to, signed by signer, and waits for
// the receipt. value may be nil.
func (c *ContractInteractionInterface) Transact(ctx context.Context, signer *Signer, to common.Address, contractABI abi.ABI, value *big.Int, method string, args ...any) (*types.Receipt, error) {
	input, err := contractABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack input data: %w", err)
	}
	_, receipt, err := c.send(ctx, signer, &to, value, input)
	return receipt, err
}

// Call runs a read-only method and unpacks its outputs into out.
func (c *ContractInteractionInterface) Call(ctx context.Context, to common.Address, contractABI abi.ABI, out any, method string, args ...any) error {
	input, err := contractABI.Pack(method, args...)
	if err != nil {
		return fmt.Errorf("failed to pack input data: %w", err)
	}
	result, err := c.backend.CallContract(ctx, ethereum.CallMsg{To: &to, Data: input}, nil)
	if err != nil {
		return decodeRevert(err)
	}
	if len(result) == 0 {
		if code, cerr := c.backend.CodeAt(ctx, to, nil); cerr == nil && len(code) == 0 {
			return fmt.Errorf("%w: %s", ErrNotDeployed, to.Hex())
		}
	}
	if err := contractABI.UnpackIntoInterface(out, method, result); err != nil {
		return fmt.Errorf("failed to unpack return value: %w", err)
	}
	return nil
}

func (c *ContractInteractionInterface) BalanceAt(ctx context.Context, account common.Address) (*big.Int, error) {
	return c.backend.BalanceAt(ctx, account, nil)
}

func (c *ContractInteractionInterface) send(ctx context.Context, signer *Signer, to *common.Address, value *big.Int, input []byte) (*types.Transaction, *types.Receipt, error) {
	if value == nil {
		value = new(big.Int)
	}

	signedTx, err := c.signAndSend(ctx, signer, to, value, input)
	if err != nil {
		return nil, nil, err
	}

	receipt, err := c.waitMined(ctx, signedTx.Hash())
	if err != nil {
		return signedTx, nil, err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		c.logger.Warn().Str("event", "tx_failed").Str("tx", signedTx.Hash().Hex()).Send()
		return signedTx, receipt, fmt.Errorf("%w: %s", ErrTxFailed, signedTx.Hash().Hex())
	}

	total := atomic.AddInt64(&c.confirmed, 1)
	c.logger.Info().
		Str("event", "tx_confirmed").
		Str("tx", signedTx.Hash().Hex()).
		Uint64("gas_used", receipt.GasUsed).
		Int64("confirmed", total).
		Send()
	return signedTx, receipt, nil
}

func (c *ContractInteractionInterface) signAndSend(ctx context.Context, signer *Signer, to *common.Address, value *big.Int, input []byte) (*types.Transaction, error) {
	c.txLock.Lock()
	defer c.txLock.Unlock()

	gasPrice := c.gasPrice(ctx)

	gas, err := c.backend.EstimateGas(ctx, ethereum.CallMsg{
		From:     signer.Address,
		To:       to,
		GasPrice: gasPrice,
		Value:    value,
		Data:     input,
	})
	if err != nil {
		return nil, decodeRevert(err)
	}
	gasLimit := gas + gas/5

	nonce, err := c.nonceManager.GetNonce(ctx, signer.Address)
	if err != nil {
		return nil, fmt.Errorf("pending nonce: %w", err)
	}

	var tx *types.Transaction
	if to == nil {
		tx = types.NewContractCreation(nonce, value, gasLimit, gasPrice, input)
	} else {
		tx = types.NewTransaction(nonce, *to, value, gasLimit, gasPrice, input)
	}
	signedTx, err := types.SignTx(tx, types.NewEIP155Signer(c.chainID), signer.key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign tx: %w", err)
	}

	if err := c.backend.SendTransaction(ctx, signedTx); err != nil {
		if resyncErr := c.resyncNonce(ctx, signer.Address); resyncErr != nil {
			c.logger.Error().Err(resyncErr).Str("event", "nonce_resync_failed").Send()
		}
		return nil, fmt.Errorf("send transaction failed: %w", decodeRevert(err))
	}

	atomic.AddInt64(&c.sent, 1)
	logTx(c.logger, "tx_sent", signedTx).Send()
	return signedTx, nil
}

// gasPrice asks the node for a price, falling back to 25 gwei and capping at
// the configured ceiling.
func (c *ContractInteractionInterface) gasPrice(ctx context.Context) *big.Int {
	gasPriceCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	gasPrice, err := c.backend.SuggestGasPrice(gasPriceCtx)
	if err != nil {
		gasPrice = new(big.Int).Set(fallbackGasPrice)
		c.logger.Warn().Err(err).Str("event", "gas_price_fallback").Str("gas_price", gasPrice.String()).Send()
	}
	if gasPrice.Cmp(c.opts.GasPriceCap) > 0 {
		gasPrice = new(big.Int).Set(c.opts.GasPriceCap)
	}
	return gasPrice
}

// waitMined polls for the receipt of hash until it appears or the confirm
// timeout elapses.
func (c *ContractInteractionInterface) waitMined(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.ConfirmTimeout)
	defer cancel()

	ticker := time.NewTicker(c.opts.PollInterval)
	defer ticker.Stop()

	for {
		receipt, err := c.backend.TransactionReceipt(ctx, hash)
		if err == nil && receipt != nil {
			return receipt, nil
		}
		if err != nil && !errors.Is(err, ethereum.NotFound) {
			return nil, fmt.Errorf("receipt %s: %w", hash.Hex(), err)
		}
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("await %s: %w", hash.Hex(), ctx.Err())
		case <-ticker.C:
		}
	}
}

func (c *ContractInteractionInterface) resyncNonce(ctx context.Context, address common.Address) error {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	nonce, err := c.backend.PendingNonceAt(ctx, address)
	if err != nil {
		return err
	}

	c.nonceManager.ResetNonce(address, nonce)
	c.logger.Info().Str("event", "nonce_resynced").Str("address", address.Hex()).Uint64("nonce", nonce).Send()
	return nil
}

func effectiveGasPrice(tx *types.Transaction, receipt *types.Receipt) *big.Int {
	if receipt.EffectiveGasPrice != nil && receipt.EffectiveGasPrice.Sign() > 0 {
		return receipt.EffectiveGasPrice
	}
	return tx.GasPrice()
}
