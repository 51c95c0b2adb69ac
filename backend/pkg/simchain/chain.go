// Package simchain is an in-process, automining EVM-style chain for tests and
// dry-run deployments. It implements the same client surface as
// ethclient.Client: transactions are signed and nonce-checked the usual way,
// but contract code is a set of native Go programs selected by their creation
// code marker instead of EVM bytecode.
package simchain

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/params"
	"github.com/rs/zerolog"

	contract "github.com/rius2g/musicchain/backend/pkg/ContractInteractionInterface"
)

const (
	DefaultChainID  = 31337
	DefaultAccounts = 20

	txGas          = 21_000
	createGas      = 32_000
	callExecGas    = 30_000
	createExecGas  = 250_000
	zeroByteGas    = 4
	nonZeroByteGas = 16
)

var (
	DefaultBalance  = new(big.Int).Mul(big.NewInt(10_000), big.NewInt(params.Ether))
	DefaultGasPrice = big.NewInt(params.GWei)

	errOutOfGas = errors.New("out of gas")
)

type config struct {
	chainID  *big.Int
	accounts int
	balance  *big.Int
	gasPrice *big.Int
	logger   zerolog.Logger
}

type Option func(*config)

func WithChainID(id int64) Option {
	return func(c *config) { c.chainID = big.NewInt(id) }
}

// WithAccounts sets how many funded dev accounts are created.
func WithAccounts(n int) Option {
	return func(c *config) { c.accounts = n }
}

func WithBalance(wei *big.Int) Option {
	return func(c *config) { c.balance = new(big.Int).Set(wei) }
}

func WithGasPrice(wei *big.Int) Option {
	return func(c *config) { c.gasPrice = new(big.Int).Set(wei) }
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *config) { c.logger = logger }
}

// Chain mines every accepted transaction into its own block.
type Chain struct {
	mu sync.Mutex

	chainID  *big.Int
	signer   types.Signer
	gasPrice *big.Int
	logger   zerolog.Logger

	keys     []*ecdsa.PrivateKey
	programs []*Program

	state    *state
	block    uint64
	txs      map[common.Hash]*types.Transaction
	receipts map[common.Hash]*types.Receipt
}

// New creates a chain with deterministic, funded dev accounts and the five
// music contracts installed as native programs.
func New(opts ...Option) *Chain {
	cfg := config{
		chainID:  big.NewInt(DefaultChainID),
		accounts: DefaultAccounts,
		balance:  DefaultBalance,
		gasPrice: DefaultGasPrice,
		logger:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	c := &Chain{
		chainID:  cfg.chainID,
		signer:   types.LatestSignerForChainID(cfg.chainID),
		gasPrice: cfg.gasPrice,
		logger:   cfg.logger,
		programs: builtinPrograms(),
		state:    newState(),
		txs:      make(map[common.Hash]*types.Transaction),
		receipts: make(map[common.Hash]*types.Receipt),
	}
	c.keys = devKeys(cfg.accounts)
	for _, key := range c.keys {
		acct := c.state.account(crypto.PubkeyToAddress(key.PublicKey))
		acct.balance.Set(cfg.balance)
	}
	return c
}

// devKeys derives n deterministic keys so that simulated runs print stable
// addresses.
func devKeys(n int) []*ecdsa.PrivateKey {
	keys := make([]*ecdsa.PrivateKey, 0, n)
	for salt := 0; len(keys) < n; salt++ {
		seed := crypto.Keccak256([]byte(fmt.Sprintf("musicchain/dev/%d", salt)))
		key, err := crypto.ToECDSA(seed)
		if err != nil {
			continue
		}
		keys = append(keys, key)
	}
	return keys
}

// Signers returns the funded dev accounts, in a stable order.
func (c *Chain) Signers() []*contract.Signer {
	out := make([]*contract.Signer, len(c.keys))
	for i, key := range c.keys {
		out[i] = contract.SignerFromKey(key)
	}
	return out
}

// Artifacts returns constructor handles for the installed programs.
func (c *Chain) Artifacts() contract.ArtifactSource {
	src := make(contract.MapSource, len(c.programs))
	for _, p := range c.programs {
		src[p.Name] = &contract.Artifact{Name: p.Name, ABI: p.ABI, Bytecode: p.Code}
	}
	return src
}

func (c *Chain) ChainID(ctx context.Context) (*big.Int, error) {
	return new(big.Int).Set(c.chainID), nil
}

func (c *Chain) BlockNumber(ctx context.Context) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.block, nil
}

func (c *Chain) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.nonce(account), nil
}

func (c *Chain) BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.balance(account), nil
}

func (c *Chain) CodeAt(ctx context.Context, account common.Address, blockNumber *big.Int) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	inst, ok := c.state.contracts[account]
	if !ok {
		return nil, nil
	}
	return common.CopyBytes(inst.code), nil
}

func (c *Chain) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return new(big.Int).Set(c.gasPrice), nil
}

// EstimateGas executes msg against a throwaway copy of the state. A revert is
// reported the way a node reports it: an error carrying the revert data.
func (c *Chain) EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := c.state.copy()
	if _, _, err := c.execute(st, msg.From, msg.To, valueOf(msg.Value), msg.Data, st.nonce(msg.From)); err != nil {
		return 0, err
	}
	return gasFor(st, msg.To, msg.Data), nil
}

func (c *Chain) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	st := c.state.copy()
	ret, _, err := c.execute(st, msg.From, msg.To, valueOf(msg.Value), msg.Data, st.nonce(msg.From))
	return ret, err
}

// SendTransaction validates tx, applies it atomically and mines it. A tx that
// reverts during execution is still mined, with a failed receipt, and pays
// for its gas.
func (c *Chain) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	from, err := types.Sender(c.signer, tx)
	if err != nil {
		return fmt.Errorf("invalid sender: %w", err)
	}
	if _, known := c.txs[tx.Hash()]; known {
		return errors.New("already known")
	}

	acct := c.state.account(from)
	switch {
	case tx.Nonce() < acct.nonce:
		return fmt.Errorf("nonce too low: address %s, tx: %d state: %d", from.Hex(), tx.Nonce(), acct.nonce)
	case tx.Nonce() > acct.nonce:
		return fmt.Errorf("nonce too high: address %s, tx: %d state: %d", from.Hex(), tx.Nonce(), acct.nonce)
	}
	if acct.balance.Cmp(tx.Cost()) < 0 {
		return fmt.Errorf("insufficient funds for gas * price + value: address %s have %s want %s", from.Hex(), acct.balance, tx.Cost())
	}
	gasUsed := gasFor(c.state, tx.To(), tx.Data())
	if tx.Gas() < intrinsicGas(tx.To() == nil, tx.Data()) {
		return fmt.Errorf("intrinsic gas too low: have %d, want %d", tx.Gas(), intrinsicGas(tx.To() == nil, tx.Data()))
	}

	acct.nonce++
	snapshot := c.state.copy()

	status := types.ReceiptStatusSuccessful
	_, created, err := c.execute(c.state, from, tx.To(), tx.Value(), tx.Data(), tx.Nonce())
	if err == nil && tx.Gas() < gasUsed {
		err = errOutOfGas
	}
	if err != nil {
		c.state = snapshot
		status = types.ReceiptStatusFailed
		created = common.Address{}
		gasUsed = min(gasUsed, tx.Gas())
		c.logger.Debug().Str("event", "tx_reverted").Str("tx", tx.Hash().Hex()).Err(err).Send()
	}

	fee := new(big.Int).Mul(new(big.Int).SetUint64(gasUsed), tx.GasPrice())
	payer := c.state.account(from)
	payer.balance.Sub(payer.balance, fee)

	c.block++
	number := new(big.Int).SetUint64(c.block)
	receipt := &types.Receipt{
		Type:              tx.Type(),
		Status:            status,
		CumulativeGasUsed: gasUsed,
		TxHash:            tx.Hash(),
		ContractAddress:   created,
		GasUsed:           gasUsed,
		EffectiveGasPrice: tx.GasPrice(),
		BlockHash:         crypto.Keccak256Hash(number.Bytes()),
		BlockNumber:       number,
		Logs:              []*types.Log{},
	}
	c.txs[tx.Hash()] = tx
	c.receipts[tx.Hash()] = receipt

	c.logger.Debug().
		Str("event", "block_mined").
		Uint64("block", c.block).
		Str("tx", tx.Hash().Hex()).
		Uint64("status", status).
		Send()
	return nil
}

func (c *Chain) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	receipt, ok := c.receipts[txHash]
	if !ok {
		return nil, ethereum.NotFound
	}
	return receipt, nil
}

func valueOf(v *big.Int) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return v
}

func intrinsicGas(create bool, data []byte) uint64 {
	gas := uint64(txGas)
	if create {
		gas += createGas
	}
	for _, b := range data {
		if b == 0 {
			gas += zeroByteGas
		} else {
			gas += nonZeroByteGas
		}
	}
	return gas
}

// gasFor is a flat model: intrinsic cost plus a fixed execution charge for
// anything that runs contract code. Plain transfers cost only the intrinsic gas.
func gasFor(st *state, to *common.Address, data []byte) uint64 {
	if to == nil {
		return intrinsicGas(true, data) + createExecGas
	}
	if _, ok := st.contracts[*to]; !ok {
		return intrinsicGas(false, data)
	}
	return intrinsicGas(false, data) + callExecGas
}
