package provenance

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deflogis/convoy/internal/model"
)

type stubPinner struct {
	cid   string
	err   error
	calls int
}

func (p *stubPinner) PinJSON(ctx context.Context, convoyID string, analysis *model.RouteAnalysis) (string, error) {
	p.calls++
	if p.err != nil {
		return "", p.err
	}
	return p.cid, nil
}

type stubLedger struct {
	txHash string
	err    error
	calls  int
	gotCID string
}

func (l *stubLedger) LogRoute(ctx context.Context, convoyID, ipfsCID, routeHash string) (string, error) {
	l.calls++
	l.gotCID = ipfsCID
	if l.err != nil {
		return "", l.err
	}
	return l.txHash, nil
}

type memConvoyStore struct {
	mu        sync.Mutex
	rows      []model.Convoy
	insertErr error
}

func (s *memConvoyStore) Insert(ctx context.Context, c *model.Convoy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return s.insertErr
	}
	s.rows = append(s.rows, *c)
	return nil
}

type memAuditStore struct {
	mu        sync.Mutex
	entries   []model.AuditEntry
	recordErr error
}

func (s *memAuditStore) Record(ctx context.Context, e *model.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.recordErr != nil {
		return s.recordErr
	}
	s.entries = append(s.entries, *e)
	return nil
}

func testConvoy() *model.Convoy {
	return &model.Convoy{
		ID:            "CONVOY-9",
		Name:          "Iron Mule",
		StartLocation: "Depot 2",
		Destination:   "Hill 60",
		Status:        "STAGING",
		VehicleCount:  8,
		Priority:      "HIGH",
		ETA:           "06:00",
		Distance:      "120 km",
	}
}

func newTestDeployer(pinner Pinner, ledger Ledger, convoys ConvoyStore, audit AuditStore) *Deployer {
	d := NewDeployer(pinner, ledger, convoys, audit, zerolog.Nop())
	d.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return d
}

func TestDeploy_HappyPath(t *testing.T) {
	pinner := &stubPinner{cid: "QmGenuineCid"}
	ledger := &stubLedger{txHash: "0xfeedface"}
	convoys := &memConvoyStore{}
	audit := &memAuditStore{}

	convoy := testConvoy()
	err := newTestDeployer(pinner, ledger, convoys, audit).Deploy(context.Background(), convoy, testAnalysis())
	require.NoError(t, err)

	require.Len(t, convoys.rows, 1)
	saved := convoys.rows[0]
	require.NotNil(t, saved.IpfsCID)
	require.NotNil(t, saved.TxHash)
	assert.Equal(t, "QmGenuineCid", *saved.IpfsCID)
	assert.Equal(t, "0xfeedface", *saved.TxHash)
	assert.True(t, saved.Deployed())
	require.NotNil(t, saved.Analysis)

	require.Len(t, audit.entries, 1)
	entry := audit.entries[0]
	assert.Equal(t, model.EventConvoyDeployed, entry.Event)
	assert.Equal(t, model.StatusSuccess, entry.Status)
	assert.Equal(t, "QmGenuineCid", ledger.gotCID)
}

func TestDeploy_UploadFailure(t *testing.T) {
	pinner := &stubPinner{err: &UploadError{Status: 502, Body: "bad gateway"}}
	ledger := &stubLedger{txHash: "0xfeedface"}
	convoys := &memConvoyStore{}
	audit := &memAuditStore{}

	convoy := testConvoy()
	err := newTestDeployer(pinner, ledger, convoys, audit).Deploy(context.Background(), convoy, testAnalysis())

	var deployErr *DeployError
	require.True(t, errors.As(err, &deployErr))
	assert.Equal(t, StepUpload, deployErr.Step)
	var uploadErr *UploadError
	assert.True(t, errors.As(err, &uploadErr))

	// Ledger step skipped entirely.
	assert.Zero(t, ledger.calls)

	// Fail-safe commit: both sentinels, exactly one row, one critical entry.
	require.Len(t, convoys.rows, 1)
	saved := convoys.rows[0]
	assert.Equal(t, model.FailedUpload, *saved.IpfsCID)
	assert.Equal(t, model.FailedTransaction, *saved.TxHash)
	assert.False(t, saved.Deployed())

	require.Len(t, audit.entries, 1)
	assert.Equal(t, model.EventLedgerFailure, audit.entries[0].Event)
	assert.Equal(t, model.StatusCritical, audit.entries[0].Status)
}

func TestDeploy_LedgerFailureKeepsGenuineCID(t *testing.T) {
	pinner := &stubPinner{cid: "QmGenuineCid"}
	ledger := &stubLedger{err: &ConfirmationError{TxHash: "0xdead"}}
	convoys := &memConvoyStore{}
	audit := &memAuditStore{}

	convoy := testConvoy()
	err := newTestDeployer(pinner, ledger, convoys, audit).Deploy(context.Background(), convoy, testAnalysis())

	var deployErr *DeployError
	require.True(t, errors.As(err, &deployErr))
	assert.Equal(t, StepLedger, deployErr.Step)

	require.Len(t, convoys.rows, 1)
	saved := convoys.rows[0]
	assert.Equal(t, "QmGenuineCid", *saved.IpfsCID, "successful upload CID is retained")
	assert.Equal(t, model.FailedTransaction, *saved.TxHash)

	require.Len(t, audit.entries, 1)
	assert.Equal(t, model.StatusCritical, audit.entries[0].Status)
}

func TestDeploy_LedgerUnavailable(t *testing.T) {
	pinner := &stubPinner{cid: "QmGenuineCid"}
	ledger := &stubLedger{err: ErrLedgerUnavailable}
	convoys := &memConvoyStore{}
	audit := &memAuditStore{}

	err := newTestDeployer(pinner, ledger, convoys, audit).Deploy(context.Background(), testConvoy(), testAnalysis())

	var deployErr *DeployError
	require.True(t, errors.As(err, &deployErr))
	assert.Equal(t, StepLedger, deployErr.Step)
	assert.ErrorIs(t, err, ErrLedgerUnavailable)
	require.Len(t, convoys.rows, 1)
}

func TestDeploy_PersistenceFailureIsFatal(t *testing.T) {
	pinner := &stubPinner{cid: "QmGenuineCid"}
	ledger := &stubLedger{txHash: "0xfeedface"}
	convoys := &memConvoyStore{insertErr: errors.New("connection reset")}
	audit := &memAuditStore{}

	err := newTestDeployer(pinner, ledger, convoys, audit).Deploy(context.Background(), testConvoy(), testAnalysis())
	require.Error(t, err)

	var deployErr *DeployError
	assert.False(t, errors.As(err, &deployErr), "persistence failure is not a degraded commit")
	assert.Contains(t, err.Error(), "persist convoy")
	assert.Empty(t, audit.entries, "no audit entry without a persisted convoy")
}

func TestDeploy_AuditFailureDoesNotMaskOutcome(t *testing.T) {
	pinner := &stubPinner{cid: "QmGenuineCid"}
	ledger := &stubLedger{txHash: "0xfeedface"}
	convoys := &memConvoyStore{}
	audit := &memAuditStore{recordErr: errors.New("audit sink down")}

	err := newTestDeployer(pinner, ledger, convoys, audit).Deploy(context.Background(), testConvoy(), testAnalysis())
	assert.NoError(t, err, "audit write failure must not fail the deployment")
	require.Len(t, convoys.rows, 1)
}

func TestDeploy_NoDeduplicationByConvoyID(t *testing.T) {
	pinner := &stubPinner{cid: "QmGenuineCid"}
	ledger := &stubLedger{txHash: "0xfeedface"}
	convoys := &memConvoyStore{}
	audit := &memAuditStore{}
	d := newTestDeployer(pinner, ledger, convoys, audit)

	require.NoError(t, d.Deploy(context.Background(), testConvoy(), testAnalysis()))
	require.NoError(t, d.Deploy(context.Background(), testConvoy(), testAnalysis()))

	assert.Len(t, convoys.rows, 2, "same convoy id deployed twice yields two rows")
	assert.Len(t, audit.entries, 2)
}
