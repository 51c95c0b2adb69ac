package simchain

import (
	"bytes"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/rius2g/musicchain/backend/pkg/contracts"
)

const maxCallDepth = 64

// Contract is the state of one deployed native program.
type Contract interface {
	// Run executes method with ABI-decoded args and returns the outputs in
	// ABI order. A returned error reverts the whole transaction.
	Run(env *Env, method string, args []any) ([]any, error)
	// Clone returns a deep copy used for transaction snapshots.
	Clone() Contract
}

// Program is a native contract implementation. Code is the creation code
// marker that selects it: 0xfe (INVALID) followed by keccak256 of the name.
type Program struct {
	Name string
	ABI  abi.ABI
	Code []byte
	New  func(env *Env, args []any) (Contract, error)
}

func NewProgram(name string, ctor func(env *Env, args []any) (Contract, error)) (*Program, error) {
	parsed, err := contracts.ABI(name)
	if err != nil {
		return nil, err
	}
	return &Program{
		Name: name,
		ABI:  parsed,
		Code: ProgramCode(name),
		New:  ctor,
	}, nil
}

// ProgramCode is the creation code marker of the named program.
func ProgramCode(name string) []byte {
	return append([]byte{0xfe}, crypto.Keccak256([]byte(name))...)
}

func builtinPrograms() []*Program {
	ctors := []struct {
		name string
		ctor func(env *Env, args []any) (Contract, error)
	}{
		{contracts.MusicRegistryName, newMusicRegistry},
		{contracts.MusicNFTName, newMusicNFT},
		{contracts.MarketplaceName, newMarketplace},
		{contracts.DisputeResolutionName, newDisputeResolution},
		{contracts.CopyrightName, newCopyright},
	}
	programs := make([]*Program, 0, len(ctors))
	for _, c := range ctors {
		p, err := NewProgram(c.name, c.ctor)
		if err != nil {
			// The ABIs are embedded; failing here means the build is broken.
			panic(err)
		}
		programs = append(programs, p)
	}
	return programs
}

func (c *Chain) programFor(data []byte) *Program {
	for _, p := range c.programs {
		if bytes.HasPrefix(data, p.Code) {
			return p
		}
	}
	return nil
}

// Env is the execution context of a native call.
type Env struct {
	state  *state
	depth  int
	Caller common.Address
	Self   common.Address
	Value  *big.Int
}

// Call invokes method on another contract with Self as the caller and no
// value. A revert in the callee is returned as is, so it bubbles up.
func (e *Env) Call(to common.Address, method string, args ...any) ([]any, error) {
	if e.depth+1 > maxCallDepth {
		return nil, Revert("")
	}
	inst, ok := e.state.contracts[to]
	if !ok {
		return nil, Revert("")
	}
	if _, ok := inst.program.ABI.Methods[method]; !ok {
		return nil, Revert("")
	}
	child := &Env{state: e.state, depth: e.depth + 1, Caller: e.Self, Self: to, Value: new(big.Int)}
	return inst.impl.Run(child, method, args)
}

// Transfer pays amount out of the running contract's balance.
func (e *Env) Transfer(to common.Address, amount *big.Int) error {
	return e.state.transfer(e.Self, to, amount)
}

// revertError mirrors the error a node returns for a reverted call: the
// message plus the ABI-encoded Error(string) payload as error data.
type revertError struct {
	reason string
	data   []byte
}

var errorSelector = crypto.Keccak256([]byte("Error(string)"))[:4]

// Revert aborts execution with reason. An empty reason reverts without data.
func Revert(reason string) error {
	if reason == "" {
		return &revertError{}
	}
	stringType, _ := abi.NewType("string", "", nil)
	packed, err := abi.Arguments{{Type: stringType}}.Pack(reason)
	if err != nil {
		return &revertError{reason: reason}
	}
	return &revertError{reason: reason, data: append(append([]byte{}, errorSelector...), packed...)}
}

func (e *revertError) Error() string {
	if e.reason == "" {
		return "execution reverted"
	}
	return "execution reverted: " + e.reason
}

func (e *revertError) ErrorCode() int { return 3 }

func (e *revertError) ErrorData() interface{} {
	if len(e.data) == 0 {
		return nil
	}
	return hexutil.Encode(e.data)
}
