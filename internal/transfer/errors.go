package transfer

import "fmt"

// TransferError reports an engine error flag observed while waiting on a
// transfer. There is no automatic retry; the transfer is failed.
type TransferError struct {
	ID      string // handle the error was observed on
	Message string // engine-reported error text
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("transfer %s failed: %s", e.ID, e.Message)
}
