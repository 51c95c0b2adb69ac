package ContractInteraction

import (
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/rs/zerolog"
)

// logTx emits a JSON event record for a transaction.
func logTx(logger zerolog.Logger, event string, tx *types.Transaction) *zerolog.Event {
	return logger.Info().
		Str("event", event).
		Str("tx", tx.Hash().Hex()).
		Uint64("nonce", tx.Nonce()).
		Uint64("gas", tx.Gas()).
		Str("gas_price", tx.GasPrice().String())
}
