package repository

import (
	"context"

	"github.com/senyabanana/loadboard-service/internal/models"

	"github.com/jackc/pgx/v5"
)

const bidColumns = `id, load_id, trucker_id, amount, proposed_pickup_date, proposed_delivery_date,
	notes, status, version, created_at, updated_at`

func scanBid(row pgx.Row) (*models.Bid, error) {
	var bid models.Bid
	err := row.Scan(
		&bid.ID,
		&bid.LoadId,
		&bid.TruckerId,
		&bid.Amount,
		&bid.ProposedPickupDate,
		&bid.ProposedDeliveryDate,
		&bid.Notes,
		&bid.Status,
		&bid.Version,
		&bid.CreatedAt,
		&bid.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &bid, nil
}

func collectBids(rows pgx.Rows, err error) ([]models.Bid, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bids := []models.Bid{}
	for rows.Next() {
		bid, err := scanBid(rows)
		if err != nil {
			return nil, err
		}
		bids = append(bids, *bid)
	}
	return bids, rows.Err()
}

// GetBidById возвращает предложение по идентификатору.
func (r queries) GetBidById(ctx context.Context, bidId string) (*models.Bid, error) {
	if !validId(bidId) {
		return nil, ErrNotFound
	}
	query := `SELECT ` + bidColumns + ` FROM bids WHERE id = $1`
	return scanBid(r.q.QueryRow(ctx, query, bidId))
}

// GetLoadBids возвращает все предложения по грузу, самые дешёвые первыми.
func (r queries) GetLoadBids(ctx context.Context, loadId string) ([]models.Bid, error) {
	if !validId(loadId) {
		return []models.Bid{}, nil
	}
	query := `SELECT ` + bidColumns + ` FROM bids WHERE load_id = $1 ORDER BY amount, created_at`
	return collectBids(r.q.Query(ctx, query, loadId))
}

// GetTruckerBid возвращает предложение перевозчика по грузу.
func (r queries) GetTruckerBid(ctx context.Context, loadId, truckerId string) (*models.Bid, error) {
	if !validId(loadId) {
		return nil, ErrNotFound
	}
	query := `SELECT ` + bidColumns + ` FROM bids WHERE load_id = $1 AND trucker_id = $2`
	return scanBid(r.q.QueryRow(ctx, query, loadId, truckerId))
}

// GetTruckerBids возвращает предложения перевозчика, новые первыми.
func (r queries) GetTruckerBids(ctx context.Context, truckerId string, limit, offset int) ([]models.Bid, error) {
	query := `SELECT ` + bidColumns + ` FROM bids WHERE trucker_id = $1
		ORDER BY created_at DESC, id LIMIT $2 OFFSET $3`
	return collectBids(r.q.Query(ctx, query, truckerId, limitArg(limit), offset))
}

// GetBidForUpdate возвращает предложение и блокирует его строку до конца транзакции.
func (t *postgresTx) GetBidForUpdate(ctx context.Context, bidId string) (*models.Bid, error) {
	if !validId(bidId) {
		return nil, ErrNotFound
	}
	query := `SELECT ` + bidColumns + ` FROM bids WHERE id = $1 FOR UPDATE`
	return scanBid(t.q.QueryRow(ctx, query, bidId))
}

// CreateBid сохраняет новое предложение. Повторное предложение перевозчика по тому же
// грузу отклоняется ограничением уникальности и возвращает ErrDuplicateBid.
func (t *postgresTx) CreateBid(ctx context.Context, bid *models.Bid) error {
	insertQuery := `INSERT INTO bids (id, load_id, trucker_id, amount, proposed_pickup_date,
		proposed_delivery_date, notes, status, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := t.q.Exec(
		ctx,
		insertQuery,
		bid.ID,
		bid.LoadId,
		bid.TruckerId,
		bid.Amount,
		bid.ProposedPickupDate,
		bid.ProposedDeliveryDate,
		bid.Notes,
		bid.Status,
		bid.Version,
		bid.CreatedAt,
		bid.UpdatedAt)
	return translateBidError(err)
}

// UpdateBidTerms сохраняет сумму, предлагаемые даты и комментарий предложения.
func (t *postgresTx) UpdateBidTerms(ctx context.Context, bid *models.Bid) error {
	updateQuery := `UPDATE bids SET amount = $2, proposed_pickup_date = $3, proposed_delivery_date = $4,
		notes = $5, version = version + 1, updated_at = now()
		WHERE id = $1
		RETURNING version, updated_at`
	err := t.q.QueryRow(
		ctx,
		updateQuery,
		bid.ID,
		bid.Amount,
		bid.ProposedPickupDate,
		bid.ProposedDeliveryDate,
		bid.Notes).Scan(&bid.Version, &bid.UpdatedAt)
	return notFound(err)
}

// SetBidStatus меняет статус предложения.
func (t *postgresTx) SetBidStatus(ctx context.Context, bidId string, status models.BidStatus) (*models.Bid, error) {
	if !validId(bidId) {
		return nil, ErrNotFound
	}
	query := `UPDATE bids SET status = $2, version = version + 1, updated_at = now()
		WHERE id = $1 RETURNING ` + bidColumns
	bid, err := scanBid(t.q.QueryRow(ctx, query, bidId, status))
	if err != nil {
		return nil, translateBidError(err)
	}
	return bid, nil
}

// RejectLoadBids отклоняет предложения по грузу, кроме exceptBidId.
func (t *postgresTx) RejectLoadBids(ctx context.Context, loadId, exceptBidId string) ([]models.Bid, error) {
	if !validId(loadId) {
		return []models.Bid{}, nil
	}
	if exceptBidId == "" {
		query := `UPDATE bids SET status = $2, version = version + 1, updated_at = now()
			WHERE load_id = $1 AND status <> $2
			RETURNING ` + bidColumns
		return collectBids(t.q.Query(ctx, query, loadId, models.RejectedBid))
	}
	query := `UPDATE bids SET status = $2, version = version + 1, updated_at = now()
		WHERE load_id = $1 AND status <> $2 AND id <> $3
		RETURNING ` + bidColumns
	return collectBids(t.q.Query(ctx, query, loadId, models.RejectedBid, exceptBidId))
}
