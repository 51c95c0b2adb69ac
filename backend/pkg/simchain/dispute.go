package simchain

import (
	"maps"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	t "github.com/rius2g/musicchain/backend/pkg/types"
)

type disputeResolution struct {
	ownable
	count    *big.Int
	disputes map[common.Hash]t.Dispute
}

func newDisputeResolution(env *Env, args []any) (Contract, error) {
	o, err := newOwnable(args[0].(common.Address))
	if err != nil {
		return nil, err
	}
	return &disputeResolution{ownable: o, count: new(big.Int), disputes: make(map[common.Hash]t.Dispute)}, nil
}

func (d *disputeResolution) Clone() Contract {
	return &disputeResolution{ownable: d.ownable, count: new(big.Int).Set(d.count), disputes: maps.Clone(d.disputes)}
}

func (d *disputeResolution) Run(env *Env, method string, args []any) ([]any, error) {
	switch method {
	case "fileDispute":
		id := new(big.Int).Set(nextID(d.count))
		d.disputes[idKey(id)] = t.Dispute{
			ID:          id,
			MusicID:     args[0].(*big.Int),
			Complainant: env.Caller,
			Description: args[1].(string),
		}
		return []any{id}, nil
	case "disputes":
		// Public mapping getter: unknown ids read as zero values.
		dispute, ok := d.disputes[idKey(args[0].(*big.Int))]
		if !ok {
			return []any{new(big.Int), new(big.Int), common.Address{}, "", false}, nil
		}
		return []any{dispute.ID, dispute.MusicID, dispute.Complainant, dispute.Description, dispute.Resolved}, nil
	case "resolveDispute":
		if err := d.onlyOwner(env); err != nil {
			return nil, err
		}
		key := idKey(args[0].(*big.Int))
		dispute, ok := d.disputes[key]
		if !ok {
			return nil, Revert("DisputeResolution: dispute not found")
		}
		if dispute.Resolved {
			return nil, Revert("DisputeResolution: dispute already resolved")
		}
		dispute.Resolved = true
		d.disputes[key] = dispute
		return nil, nil
	case "disputeCount":
		return []any{new(big.Int).Set(d.count)}, nil
	}
	if outs, ok, err := d.runOwnable(env, method, args); ok {
		return outs, err
	}
	return nil, Revert(errUnknownMethod)
}
