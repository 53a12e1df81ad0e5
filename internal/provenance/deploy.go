package provenance

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"

	"github.com/deflogis/convoy/internal/model"
	"github.com/deflogis/convoy/internal/platform"
)

var deploymentsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "convoy_deployments_total",
		Help: "Total number of convoy deployment attempts by outcome",
	},
	[]string{"outcome"},
)

// Pinner uploads an analysis document to the content-addressed store.
type Pinner interface {
	PinJSON(ctx context.Context, convoyID string, analysis *model.RouteAnalysis) (string, error)
}

// Ledger records a (convoyId, ipfsCid, routeHash) triple on the ledger.
type Ledger interface {
	LogRoute(ctx context.Context, convoyID, ipfsCID, routeHash string) (string, error)
}

// ConvoyStore persists convoys. Insert is append-only: each deployment
// attempt writes a new row, even for a repeated convoy id.
type ConvoyStore interface {
	Insert(ctx context.Context, c *model.Convoy) error
}

// AuditStore appends audit entries.
type AuditStore interface {
	Record(ctx context.Context, e *model.AuditEntry) error
}

// Deployer drives the deployment pipeline: digest, content-addressed upload,
// ledger logging, then persistence and audit. Every invocation persists
// exactly one convoy and writes exactly one audit entry, whether the
// provenance steps succeed or not.
type Deployer struct {
	pinner  Pinner
	ledger  Ledger
	convoys ConvoyStore
	audit   AuditStore
	logger  zerolog.Logger
	now     func() time.Time
}

func NewDeployer(pinner Pinner, ledger Ledger, convoys ConvoyStore, audit AuditStore, logger zerolog.Logger) *Deployer {
	return &Deployer{
		pinner:  pinner,
		ledger:  ledger,
		convoys: convoys,
		audit:   audit,
		logger:  logger.With().Str("component", "deployer").Logger(),
		now:     time.Now,
	}
}

// Deploy runs the pipeline for one convoy. On success the convoy is
// persisted with its genuine content identifier and transaction hash. When
// the upload or ledger step fails the convoy is still persisted, with
// sentinel markers in place of the identifiers that could not be obtained,
// and a *DeployError naming the failed step is returned. A persistence
// failure aborts and is returned verbatim: there is no fail-safe below the
// store.
func (d *Deployer) Deploy(ctx context.Context, convoy *model.Convoy, analysis *model.RouteAnalysis) error {
	// Digest first: pure computation, fails only on unserializable input,
	// and must abort before any external side effect.
	routeHash, err := DigestAnalysis(analysis)
	if err != nil {
		return fmt.Errorf("digest analysis: %w", err)
	}

	cid, err := d.pinner.PinJSON(ctx, convoy.ID, analysis)
	if err != nil {
		d.logger.Error().Err(err).Str("convoy_id", convoy.ID).Msg("analysis upload failed")
		return d.commitDegraded(ctx, convoy, analysis, StepUpload, err)
	}
	convoy.IpfsCID = &cid

	txHash, err := d.ledger.LogRoute(ctx, convoy.ID, cid, routeHash)
	if err != nil {
		d.logger.Error().Err(err).Str("convoy_id", convoy.ID).Str("cid", cid).Msg("ledger logging failed")
		return d.commitDegraded(ctx, convoy, analysis, StepLedger, err)
	}
	convoy.TxHash = &txHash
	convoy.Analysis = analysis

	if err := d.convoys.Insert(ctx, convoy); err != nil {
		deploymentsTotal.WithLabelValues("persistence_error").Inc()
		return fmt.Errorf("persist convoy: %w", err)
	}

	d.recordAudit(ctx, &model.AuditEntry{
		ID:     platform.NewLogID("BC"),
		Time:   d.now(),
		Event:  model.EventConvoyDeployed,
		Actor:  "API_COMMANDER",
		Origin: "127.0.0.1",
		Status: model.StatusSuccess,
	})

	deploymentsTotal.WithLabelValues("success").Inc()
	d.logger.Info().Str("convoy_id", convoy.ID).Str("cid", cid).Str("tx", txHash).Msg("convoy deployed with provenance")
	return nil
}

// commitDegraded is the fail-safe path: the convoy is persisted with
// sentinel markers so the attempt is never silently dropped, a critical
// audit entry is written, and the original step failure is reported to the
// caller.
func (d *Deployer) commitDegraded(ctx context.Context, convoy *model.Convoy, analysis *model.RouteAnalysis, step string, cause error) error {
	if convoy.IpfsCID == nil {
		failedUpload := model.FailedUpload
		convoy.IpfsCID = &failedUpload
	}
	failedTx := model.FailedTransaction
	convoy.TxHash = &failedTx
	convoy.Analysis = analysis

	if err := d.convoys.Insert(ctx, convoy); err != nil {
		deploymentsTotal.WithLabelValues("persistence_error").Inc()
		return fmt.Errorf("persist convoy after %s failure (%v): %w", step, cause, err)
	}

	d.recordAudit(ctx, &model.AuditEntry{
		ID:     platform.NewLogID("FAIL"),
		Time:   d.now(),
		Event:  model.EventLedgerFailure,
		Actor:  "SYSTEM_BOT",
		Origin: "N/A",
		Status: model.StatusCritical,
	})

	deploymentsTotal.WithLabelValues(step + "_failed").Inc()
	return &DeployError{Step: step, Err: cause}
}

// recordAudit writes one audit entry. An audit write failure is logged but
// never replaces the pipeline outcome being audited.
func (d *Deployer) recordAudit(ctx context.Context, entry *model.AuditEntry) {
	if err := d.audit.Record(ctx, entry); err != nil {
		d.logger.Error().Err(err).Str("event", entry.Event).Msg("failed to write audit entry")
	}
}
