package contracts

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	contract "github.com/rius2g/musicchain/backend/pkg/ContractInteractionInterface"
	t "github.com/rius2g/musicchain/backend/pkg/types"
)

type Copyright struct {
	bound
}

func NewCopyright(address common.Address, client *contract.ContractInteractionInterface) (*Copyright, error) {
	b, err := newBound(CopyrightName, address, client)
	if err != nil {
		return nil, err
	}
	return &Copyright{b}, nil
}

func DeployCopyright(ctx context.Context, client *contract.ContractInteractionInterface, artifacts contract.ArtifactSource, signer *contract.Signer, owner common.Address) (*Copyright, *contract.Deployed, error) {
	b, d, err := deploy(ctx, client, artifacts, signer, CopyrightName, owner)
	if err != nil {
		return nil, nil, err
	}
	return &Copyright{b}, d, nil
}

// RegisterCopyright records the signer as holder of a new copyright.
func (c *Copyright) RegisterCopyright(ctx context.Context, signer *contract.Signer, title, artist, ipfsHash string) (*types.Receipt, error) {
	return c.transact(ctx, signer, nil, "registerCopyright", title, artist, ipfsHash)
}

func (c *Copyright) VerifyOwnership(ctx context.Context, copyrightID *big.Int) (t.CopyrightInfo, error) {
	var out t.CopyrightInfo
	err := c.call(ctx, &out, "verifyOwnership", copyrightID)
	return out, err
}

// TransferCopyright must be signed by the current holder.
func (c *Copyright) TransferCopyright(ctx context.Context, signer *contract.Signer, copyrightID *big.Int, newOwner common.Address) (*types.Receipt, error) {
	return c.transact(ctx, signer, nil, "transferCopyright", copyrightID, newOwner)
}

func (c *Copyright) CopyrightCount(ctx context.Context) (*big.Int, error) {
	var out *big.Int
	err := c.call(ctx, &out, "copyrightCount")
	return out, err
}
