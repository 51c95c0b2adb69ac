package contracts

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	contract "github.com/rius2g/musicchain/backend/pkg/ContractInteractionInterface"
	t "github.com/rius2g/musicchain/backend/pkg/types"
)

type DisputeResolution struct {
	bound
}

func NewDisputeResolution(address common.Address, client *contract.ContractInteractionInterface) (*DisputeResolution, error) {
	b, err := newBound(DisputeResolutionName, address, client)
	if err != nil {
		return nil, err
	}
	return &DisputeResolution{b}, nil
}

func DeployDisputeResolution(ctx context.Context, client *contract.ContractInteractionInterface, artifacts contract.ArtifactSource, signer *contract.Signer, owner common.Address) (*DisputeResolution, *contract.Deployed, error) {
	b, d, err := deploy(ctx, client, artifacts, signer, DisputeResolutionName, owner)
	if err != nil {
		return nil, nil, err
	}
	return &DisputeResolution{b}, d, nil
}

// FileDispute is open to any account. Dispute ids are assigned from 1.
func (d *DisputeResolution) FileDispute(ctx context.Context, signer *contract.Signer, musicID *big.Int, description string) (*types.Receipt, error) {
	return d.transact(ctx, signer, nil, "fileDispute", musicID, description)
}

// ResolveDispute is owner-restricted.
func (d *DisputeResolution) ResolveDispute(ctx context.Context, signer *contract.Signer, disputeID *big.Int) (*types.Receipt, error) {
	return d.transact(ctx, signer, nil, "resolveDispute", disputeID)
}

// Disputes reads the dispute record; unknown ids read as the zero record.
func (d *DisputeResolution) Disputes(ctx context.Context, disputeID *big.Int) (t.Dispute, error) {
	var out t.Dispute
	err := d.call(ctx, &out, "disputes", disputeID)
	return out, err
}

func (d *DisputeResolution) DisputeCount(ctx context.Context) (*big.Int, error) {
	var out *big.Int
	err := d.call(ctx, &out, "disputeCount")
	return out, err
}
