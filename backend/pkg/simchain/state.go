package simchain

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

type account struct {
	nonce   uint64
	balance *big.Int
}

type instance struct {
	program *Program
	code    []byte
	impl    Contract
}

// state is the whole world state. It is copied before every execution so a
// failed transaction can be discarded wholesale.
type state struct {
	accounts  map[common.Address]*account
	contracts map[common.Address]*instance
}

func newState() *state {
	return &state{
		accounts:  make(map[common.Address]*account),
		contracts: make(map[common.Address]*instance),
	}
}

func (s *state) copy() *state {
	cp := newState()
	for addr, acct := range s.accounts {
		cp.accounts[addr] = &account{nonce: acct.nonce, balance: new(big.Int).Set(acct.balance)}
	}
	for addr, inst := range s.contracts {
		cp.contracts[addr] = &instance{program: inst.program, code: inst.code, impl: inst.impl.Clone()}
	}
	return cp
}

func (s *state) account(addr common.Address) *account {
	acct, ok := s.accounts[addr]
	if !ok {
		acct = &account{balance: new(big.Int)}
		s.accounts[addr] = acct
	}
	return acct
}

func (s *state) nonce(addr common.Address) uint64 {
	if acct, ok := s.accounts[addr]; ok {
		return acct.nonce
	}
	return 0
}

func (s *state) balance(addr common.Address) *big.Int {
	if acct, ok := s.accounts[addr]; ok {
		return new(big.Int).Set(acct.balance)
	}
	return new(big.Int)
}

func (s *state) transfer(from, to common.Address, amount *big.Int) error {
	if amount.Sign() == 0 {
		return nil
	}
	src := s.account(from)
	if src.balance.Cmp(amount) < 0 {
		return fmt.Errorf("insufficient funds for transfer: address %s", from.Hex())
	}
	dst := s.account(to)
	src.balance.Sub(src.balance, amount)
	dst.balance.Add(dst.balance, amount)
	return nil
}

// execute runs a top-level message: a creation when to is nil, a call otherwise.
// nonce is the sender nonce the message was issued with, used for the
// creation address.
func (c *Chain) execute(st *state, from common.Address, to *common.Address, value *big.Int, data []byte, nonce uint64) ([]byte, common.Address, error) {
	if to == nil {
		addr := crypto.CreateAddress(from, nonce)
		err := c.create(st, from, addr, value, data)
		return nil, addr, err
	}

	inst, ok := st.contracts[*to]
	if !ok {
		return nil, common.Address{}, st.transfer(from, *to, value)
	}
	if len(data) < 4 {
		return nil, common.Address{}, Revert("")
	}
	method, err := inst.program.ABI.MethodById(data[:4])
	if err != nil {
		return nil, common.Address{}, Revert("")
	}
	if value.Sign() > 0 && !method.IsPayable() {
		return nil, common.Address{}, Revert("")
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, common.Address{}, Revert("")
	}
	if err := st.transfer(from, *to, value); err != nil {
		return nil, common.Address{}, err
	}

	env := &Env{state: st, Caller: from, Self: *to, Value: value}
	outs, err := inst.impl.Run(env, method.Name, args)
	if err != nil {
		return nil, common.Address{}, err
	}
	ret, err := method.Outputs.Pack(outs...)
	if err != nil {
		return nil, common.Address{}, fmt.Errorf("pack %s outputs: %w", method.Name, err)
	}
	return ret, common.Address{}, nil
}

func (c *Chain) create(st *state, from, addr common.Address, value *big.Int, data []byte) error {
	program := c.programFor(data)
	if program == nil {
		return Revert("")
	}
	if _, exists := st.contracts[addr]; exists {
		return fmt.Errorf("contract address collision: %s", addr.Hex())
	}
	args, err := program.ABI.Constructor.Inputs.Unpack(data[len(program.Code):])
	if err != nil {
		return Revert("")
	}
	if err := st.transfer(from, addr, value); err != nil {
		return err
	}

	env := &Env{state: st, Caller: from, Self: addr, Value: value}
	impl, err := program.New(env, args)
	if err != nil {
		return err
	}
	st.contracts[addr] = &instance{program: program, code: common.CopyBytes(program.Code), impl: impl}
	return nil
}
