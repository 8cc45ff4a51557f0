package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/senyabanana/loadboard-service/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/lib/pq"
	"github.com/samber/lo"
)

const loadColumns = `id, shipper_id, title, description,
	pickup_address, pickup_coordinates, delivery_address, delivery_coordinates,
	pickup_date, delivery_date, weight, length, width, height, load_type,
	special_requirements, budget, status, assigned_trucker, accepted_bid,
	bidding_deadline, version, created_at, updated_at`

func scanLoad(row pgx.Row) (*models.Load, error) {
	var load models.Load
	err := row.Scan(
		&load.ID,
		&load.ShipperId,
		&load.Title,
		&load.Description,
		&load.PickupLocation.Address,
		&load.PickupLocation.Coordinates,
		&load.DeliveryLocation.Address,
		&load.DeliveryLocation.Coordinates,
		&load.PickupDate,
		&load.DeliveryDate,
		&load.Weight,
		&load.Dimensions.Length,
		&load.Dimensions.Width,
		&load.Dimensions.Height,
		&load.LoadType,
		&load.SpecialRequirements,
		&load.Budget,
		&load.Status,
		&load.AssignedTrucker,
		&load.AcceptedBid,
		&load.BiddingDeadline,
		&load.Version,
		&load.CreatedAt,
		&load.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &load, nil
}

// GetLoadById возвращает груз по идентификатору.
func (r queries) GetLoadById(ctx context.Context, loadId string) (*models.Load, error) {
	if !validId(loadId) {
		return nil, ErrNotFound
	}
	query := `SELECT ` + loadColumns + ` FROM loads WHERE id = $1`
	return scanLoad(r.q.QueryRow(ctx, query, loadId))
}

// GetLoads возвращает список грузов по фильтру, новые первыми.
func (r queries) GetLoads(ctx context.Context, filter models.LoadFilter) ([]models.Load, error) {
	query := `SELECT ` + loadColumns + ` FROM loads`
	var filters []string
	var args []interface{}
	argIndex := 1

	if filter.ShipperId != "" {
		filters = append(filters, fmt.Sprintf("shipper_id = $%d", argIndex))
		args = append(args, filter.ShipperId)
		argIndex++
	}

	if len(filter.Statuses) > 0 {
		statuses := lo.Map(filter.Statuses, func(s models.LoadStatus, _ int) string { return string(s) })
		filters = append(filters, fmt.Sprintf("status = ANY($%d)", argIndex))
		args = append(args, pq.Array(statuses))
		argIndex++
	}

	if filter.LoadType != "" {
		filters = append(filters, fmt.Sprintf("load_type = $%d", argIndex))
		args = append(args, filter.LoadType)
		argIndex++
	}

	if filter.Unassigned {
		filters = append(filters, "assigned_trucker IS NULL")
	}

	if filter.DeadlineFrom != nil {
		filters = append(filters, fmt.Sprintf("bidding_deadline > $%d", argIndex))
		args = append(args, *filter.DeadlineFrom)
		argIndex++
	}

	if len(filters) > 0 {
		query += " WHERE " + strings.Join(filters, " AND ")
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d", argIndex, argIndex+1)
	args = append(args, limitArg(filter.Limit), filter.Offset)

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	loads := []models.Load{}
	for rows.Next() {
		load, err := scanLoad(rows)
		if err != nil {
			return nil, err
		}
		loads = append(loads, *load)
	}
	return loads, rows.Err()
}

// CountLoadsByStatus возвращает количество грузов в каждом статусе.
func (r queries) CountLoadsByStatus(ctx context.Context) (map[models.LoadStatus]int, error) {
	rows, err := r.q.Query(ctx, `SELECT status, COUNT(*) FROM loads GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[models.LoadStatus]int, len(models.LoadStatuses))
	for _, status := range models.LoadStatuses {
		counts[status] = 0
	}
	for rows.Next() {
		var status models.LoadStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

// GetLoadForUpdate возвращает груз и блокирует его строку до конца транзакции.
func (t *postgresTx) GetLoadForUpdate(ctx context.Context, loadId string) (*models.Load, error) {
	if !validId(loadId) {
		return nil, ErrNotFound
	}
	query := `SELECT ` + loadColumns + ` FROM loads WHERE id = $1 FOR UPDATE`
	return scanLoad(t.q.QueryRow(ctx, query, loadId))
}

// CreateLoad сохраняет новый груз.
func (t *postgresTx) CreateLoad(ctx context.Context, load *models.Load) error {
	insertQuery := `INSERT INTO loads (id, shipper_id, title, description,
		pickup_address, pickup_coordinates, delivery_address, delivery_coordinates,
		pickup_date, delivery_date, weight, length, width, height, load_type,
		special_requirements, budget, status, bidding_deadline, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)`
	_, err := t.q.Exec(
		ctx,
		insertQuery,
		load.ID,
		load.ShipperId,
		load.Title,
		load.Description,
		load.PickupLocation.Address,
		orEmpty(load.PickupLocation.Coordinates),
		load.DeliveryLocation.Address,
		orEmpty(load.DeliveryLocation.Coordinates),
		load.PickupDate,
		load.DeliveryDate,
		load.Weight,
		load.Dimensions.Length,
		load.Dimensions.Width,
		load.Dimensions.Height,
		load.LoadType,
		orEmpty(load.SpecialRequirements),
		load.Budget,
		load.Status,
		load.BiddingDeadline,
		load.Version,
		load.CreatedAt,
		load.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert load: %w", err)
	}
	return nil
}

// UpdateLoadDetails сохраняет изменяемые поля груза и его статус.
// Поля назначения этим методом не меняются.
func (t *postgresTx) UpdateLoadDetails(ctx context.Context, load *models.Load) error {
	updateQuery := `UPDATE loads SET title = $2, description = $3,
		pickup_address = $4, pickup_coordinates = $5, delivery_address = $6, delivery_coordinates = $7,
		pickup_date = $8, delivery_date = $9, weight = $10, length = $11, width = $12, height = $13,
		load_type = $14, special_requirements = $15, budget = $16, bidding_deadline = $17, status = $18,
		version = version + 1, updated_at = now()
		WHERE id = $1
		RETURNING version, updated_at`
	err := t.q.QueryRow(
		ctx,
		updateQuery,
		load.ID,
		load.Title,
		load.Description,
		load.PickupLocation.Address,
		orEmpty(load.PickupLocation.Coordinates),
		load.DeliveryLocation.Address,
		orEmpty(load.DeliveryLocation.Coordinates),
		load.PickupDate,
		load.DeliveryDate,
		load.Weight,
		load.Dimensions.Length,
		load.Dimensions.Width,
		load.Dimensions.Height,
		load.LoadType,
		orEmpty(load.SpecialRequirements),
		load.Budget,
		load.BiddingDeadline,
		load.Status).Scan(&load.Version, &load.UpdatedAt)
	return notFound(err)
}

// DeleteLoad удаляет груз вместе с его предложениями и отметками.
func (t *postgresTx) DeleteLoad(ctx context.Context, loadId string) error {
	if !validId(loadId) {
		return ErrNotFound
	}
	tag, err := t.q.Exec(ctx, `DELETE FROM loads WHERE id = $1`, loadId)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetLoadStatus меняет статус груза.
func (t *postgresTx) SetLoadStatus(ctx context.Context, loadId string, status models.LoadStatus) (*models.Load, error) {
	if !validId(loadId) {
		return nil, ErrNotFound
	}
	query := `UPDATE loads SET status = $2, version = version + 1, updated_at = now()
		WHERE id = $1 RETURNING ` + loadColumns
	return scanLoad(t.q.QueryRow(ctx, query, loadId, status))
}

// AssignLoad закрепляет груз за перевозчиком по принятому предложению.
// Уже назначенный груз повторно не назначается.
func (t *postgresTx) AssignLoad(ctx context.Context, loadId, truckerId, bidId string) (*models.Load, error) {
	if !validId(loadId) || !validId(bidId) {
		return nil, ErrNotFound
	}
	query := `UPDATE loads SET status = $2, assigned_trucker = $3, accepted_bid = $4,
		version = version + 1, updated_at = now()
		WHERE id = $1 AND assigned_trucker IS NULL
		RETURNING ` + loadColumns
	return scanLoad(t.q.QueryRow(ctx, query, loadId, models.AssignedLoad, truckerId, bidId))
}
