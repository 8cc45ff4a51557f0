package repository

import (
	"context"
	"fmt"

	"github.com/senyabanana/loadboard-service/internal/models"
)

// GetLoadTracking возвращает отметки перевозки по грузу, новые первыми.
func (r queries) GetLoadTracking(ctx context.Context, loadId string, limit, offset int) ([]models.TrackingUpdate, error) {
	if !validId(loadId) {
		return []models.TrackingUpdate{}, nil
	}
	query := `SELECT id, load_id, trucker_id, status, address, coordinates, notes, estimated_arrival, created_at
		FROM load_tracking WHERE load_id = $1
		ORDER BY created_at DESC, id LIMIT $2 OFFSET $3`
	rows, err := r.q.Query(ctx, query, loadId, limitArg(limit), offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	updates := []models.TrackingUpdate{}
	for rows.Next() {
		var u models.TrackingUpdate
		if err := rows.Scan(
			&u.ID,
			&u.LoadId,
			&u.TruckerId,
			&u.Status,
			&u.Location.Address,
			&u.Location.Coordinates,
			&u.Notes,
			&u.EstimatedArrival,
			&u.CreatedAt); err != nil {
			return nil, err
		}
		updates = append(updates, u)
	}
	return updates, rows.Err()
}

// CreateTracking сохраняет отметку перевозки.
func (t *postgresTx) CreateTracking(ctx context.Context, update *models.TrackingUpdate) error {
	insertQuery := `INSERT INTO load_tracking (id, load_id, trucker_id, status, address, coordinates,
		notes, estimated_arrival, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := t.q.Exec(
		ctx,
		insertQuery,
		update.ID,
		update.LoadId,
		update.TruckerId,
		update.Status,
		update.Location.Address,
		orEmpty(update.Location.Coordinates),
		update.Notes,
		update.EstimatedArrival,
		update.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert tracking update: %w", err)
	}
	return nil
}
