package simchain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

const (
	errNotOwner  = "Ownable: caller is not the owner"
	errZeroOwner = "Ownable: new owner is the zero address"

	// Solidity reverts without data when no function matches the selector.
	errUnknownMethod = ""
)

// ownable is the single-owner access control shared by every program.
type ownable struct {
	owner common.Address
}

func newOwnable(initialOwner common.Address) (ownable, error) {
	if initialOwner == (common.Address{}) {
		return ownable{}, Revert(errZeroOwner)
	}
	return ownable{owner: initialOwner}, nil
}

func (o *ownable) onlyOwner(env *Env) error {
	if env.Caller != o.owner {
		return Revert(errNotOwner)
	}
	return nil
}

// runOwnable serves owner() and transferOwnership(address). handled is false
// for any other method.
func (o *ownable) runOwnable(env *Env, method string, args []any) (outs []any, handled bool, err error) {
	switch method {
	case "owner":
		return []any{o.owner}, true, nil
	case "transferOwnership":
		if err := o.onlyOwner(env); err != nil {
			return nil, true, err
		}
		newOwner := args[0].(common.Address)
		if newOwner == (common.Address{}) {
			return nil, true, Revert(errZeroOwner)
		}
		o.owner = newOwner
		return nil, true, nil
	}
	return nil, false, nil
}

// idKey maps a uint256 id onto a fixed-size map key.
func idKey(id *big.Int) common.Hash {
	return common.BigToHash(id)
}

func nextID(counter *big.Int) *big.Int {
	return counter.Add(counter, big.NewInt(1))
}
