package ContractInteraction

import (
	"errors"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
)

var (
	ErrReverted    = errors.New("execution reverted")
	ErrTxFailed    = errors.New("transaction failed")
	ErrNoArtifact  = errors.New("artifact not found")
	ErrNoBytecode  = errors.New("artifact has no bytecode")
	ErrNoContract  = errors.New("no contract address in receipt")
	ErrNotDeployed = errors.New("no code at address")
)

// RevertError is a call rejected by contract code. Reason holds the
// Error(string) message when the node returned one.
type RevertError struct {
	Reason string
	Data   []byte
	err    error
}

func (e *RevertError) Error() string {
	if e.Reason == "" {
		return ErrReverted.Error()
	}
	return ErrReverted.Error() + ": " + e.Reason
}

func (e *RevertError) Unwrap() error { return e.err }

func (e *RevertError) Is(target error) bool { return target == ErrReverted }

// decodeRevert turns a node error carrying revert data into a *RevertError.
// Other errors are returned unchanged.
func decodeRevert(err error) error {
	if err == nil {
		return nil
	}
	var de rpc.DataError
	if errors.As(err, &de) {
		if data, ok := revertData(de.ErrorData()); ok && len(data) > 0 {
			reason, uerr := abi.UnpackRevert(data)
			if uerr != nil {
				return &RevertError{Data: data, err: err}
			}
			return &RevertError{Reason: reason, Data: data, err: err}
		}
	}
	if strings.Contains(err.Error(), ErrReverted.Error()) {
		return &RevertError{err: err}
	}
	return err
}

func revertData(v any) ([]byte, bool) {
	switch d := v.(type) {
	case string:
		b, err := hexutil.Decode(d)
		return b, err == nil
	case []byte:
		return d, true
	}
	return nil, false
}
