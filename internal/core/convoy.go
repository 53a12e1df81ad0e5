package core

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"

	"github.com/deflogis/convoy/internal/model"
	"github.com/deflogis/convoy/internal/platform"
)

type ConvoyService struct {
	db DB
}

func NewConvoyService(db DB) *ConvoyService {
	return &ConvoyService{db: db}
}

// Insert appends a convoy row. Rows are keyed by an internal uuid, so the
// same convoy id deployed twice produces two rows; the pipeline performs no
// deduplication.
func (s *ConvoyService) Insert(ctx context.Context, c *model.Convoy) error {
	var analysisJSON []byte
	if c.Analysis != nil {
		var err error
		analysisJSON, err = json.Marshal(c.Analysis)
		if err != nil {
			return fmt.Errorf("marshal analysis: %w", err)
		}
	}

	_, err := s.db.Exec(ctx,
		`INSERT INTO convoys (row_id, id, name, start_location, destination, status, progress,
		                      vehicle_count, priority, eta, distance, ipfs_cid, tx_hash, analysis)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		platform.NewID(), c.ID, c.Name, c.StartLocation, c.Destination, c.Status, c.Progress,
		c.VehicleCount, c.Priority, c.ETA, c.Distance, c.IpfsCID, c.TxHash, analysisJSON,
	)
	if err != nil {
		return fmt.Errorf("insert convoy: %w", err)
	}
	return nil
}

// List returns convoys, newest first. Convoys in MOVING status get a small
// simulated progress bump on each read, capped at 99, written back to the
// store.
func (s *ConvoyService) List(ctx context.Context, limit int) ([]model.Convoy, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}

	rows, err := s.db.Query(ctx,
		`SELECT id, name, start_location, destination, status, progress,
		        vehicle_count, priority, eta, distance, ipfs_cid, tx_hash, analysis
		 FROM convoys ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list convoys: %w", err)
	}
	defer rows.Close()

	var convoys []model.Convoy
	for rows.Next() {
		var c model.Convoy
		var analysisJSON []byte
		if err := rows.Scan(&c.ID, &c.Name, &c.StartLocation, &c.Destination, &c.Status,
			&c.Progress, &c.VehicleCount, &c.Priority, &c.ETA, &c.Distance,
			&c.IpfsCID, &c.TxHash, &analysisJSON); err != nil {
			return nil, fmt.Errorf("scan convoy: %w", err)
		}
		if len(analysisJSON) > 0 {
			var a model.RouteAnalysis
			if err := json.Unmarshal(analysisJSON, &a); err != nil {
				return nil, fmt.Errorf("decode analysis: %w", err)
			}
			c.Analysis = &a
		}
		convoys = append(convoys, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list convoys: %w", err)
	}

	for i := range convoys {
		if convoys[i].Status != "MOVING" {
			continue
		}
		bumped := convoys[i].Progress + 1 + rand.Intn(3)
		if bumped > 99 {
			bumped = 99
		}
		convoys[i].Progress = bumped
		if _, err := s.db.Exec(ctx,
			`UPDATE convoys SET progress = $1 WHERE id = $2`,
			bumped, convoys[i].ID); err != nil {
			return nil, fmt.Errorf("update convoy progress: %w", err)
		}
	}

	return convoys, nil
}
