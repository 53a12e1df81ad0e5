package provenance

import (
	"errors"
	"fmt"
)

// ErrLedgerUnavailable is returned when on-chain logging is not configured
// (missing RPC endpoint, contract address or signing key). It is raised
// before any network call, so it is distinguishable from a transient
// network failure.
var ErrLedgerUnavailable = errors.New("ledger not configured")

// UploadError reports a failed content-addressed upload, carrying the
// upstream HTTP status and response body for diagnostics.
type UploadError struct {
	Status int
	Body   string
	Err    error
}

func (e *UploadError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("pinning upload failed: status %d: %s", e.Status, e.Body)
	}
	return fmt.Sprintf("pinning upload failed: %v", e.Err)
}

func (e *UploadError) Unwrap() error { return e.Err }

// ConfirmationError reports a transaction that was submitted but did not
// confirm successfully on the ledger.
type ConfirmationError struct {
	TxHash string
	Err    error
}

func (e *ConfirmationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transaction %s not confirmed: %v", e.TxHash, e.Err)
	}
	return fmt.Sprintf("transaction %s failed to confirm", e.TxHash)
}

func (e *ConfirmationError) Unwrap() error { return e.Err }

// Pipeline steps named in DeployError.
const (
	StepUpload = "upload"
	StepLedger = "ledger"
)

// DeployError is returned by the deployer after a degraded commit: the
// convoy was persisted with sentinel markers, but the named provenance step
// failed and the caller must be told.
type DeployError struct {
	Step string
	Err  error
}

func (e *DeployError) Error() string {
	return fmt.Sprintf("deployment saved, but %s step failed: %v", e.Step, e.Err)
}

func (e *DeployError) Unwrap() error { return e.Err }
