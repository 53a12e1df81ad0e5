package model

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Risk levels for a route analysis.
const (
	RiskLow    = "LOW"
	RiskMedium = "MEDIUM"
	RiskHigh   = "HIGH"
)

// Sentinel values written to a convoy when a provenance step fails. They are
// distinguishable from any genuine IPFS CID or transaction hash, and always
// appear as a pair: a convoy that reaches the store has either both genuine
// identifiers, both sentinels, or neither.
const (
	FailedUpload      = "FAILED_UPLOAD"
	FailedTransaction = "FAILED_TRANSACTION"
)

var validate = validator.New()

// RouteAnalysis is the analysis payload produced by the route planner.
// Immutable once produced; the deployment pipeline only reads it.
type RouteAnalysis struct {
	RouteID           string   `json:"routeId" validate:"required"`
	RiskLevel         string   `json:"riskLevel" validate:"required,oneof=LOW MEDIUM HIGH"`
	EstimatedDuration string   `json:"estimatedDuration" validate:"required"`
	Checkpoints       []string `json:"checkpoints" validate:"required"`
	TrafficCongestion int      `json:"trafficCongestion" validate:"gte=0,lte=100"`
	WeatherImpact     string   `json:"weatherImpact"`
	StrategicNote     string   `json:"strategicNote" validate:"required"`
}

// Validate checks the risk level enumeration and congestion bounds.
func (a *RouteAnalysis) Validate() error {
	if err := validate.Struct(a); err != nil {
		return fmt.Errorf("invalid route analysis: %w", err)
	}
	return nil
}

// Convoy is a planned movement record. IpfsCID and TxHash are set by the
// deployment pipeline; before deployment both are nil.
type Convoy struct {
	ID            string         `json:"id" validate:"required"`
	Name          string         `json:"name" validate:"required"`
	StartLocation string         `json:"startLocation" validate:"required"`
	Destination   string         `json:"destination" validate:"required"`
	Status        string         `json:"status" validate:"required"`
	Progress      int            `json:"progress" validate:"gte=0,lte=100"`
	VehicleCount  int            `json:"vehicleCount" validate:"gt=0"`
	Priority      string         `json:"priority"`
	ETA           string         `json:"eta"`
	Distance      string         `json:"distance"`
	IpfsCID       *string        `json:"ipfsCid,omitempty"`
	TxHash        *string        `json:"txHash,omitempty"`
	Analysis      *RouteAnalysis `json:"analysis,omitempty"`
}

func (c *Convoy) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid convoy: %w", err)
	}
	return nil
}

// Deployed reports whether both provenance identifiers carry genuine values.
func (c *Convoy) Deployed() bool {
	return c.IpfsCID != nil && c.TxHash != nil &&
		*c.IpfsCID != FailedUpload && *c.TxHash != FailedTransaction
}
