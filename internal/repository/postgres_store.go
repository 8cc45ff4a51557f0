package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	uniqueViolation = "23505"

	bidLoadTruckerConstraint = "bids_load_trucker_key"
	bidOneAcceptedConstraint = "bids_one_accepted_per_load"
)

// querier - общая часть *pgxpool.Pool и pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// queries содержит запросы чтения, доступные и в пуле, и в транзакции.
type queries struct {
	q querier
}

// PostgresStore - реализация Store для PostgreSQL.
type PostgresStore struct {
	queries
	DB *pgxpool.Pool
}

// NewPostgresStore создает новый экземпляр PostgresStore.
func NewPostgresStore(db *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{queries: queries{q: db}, DB: db}
}

// WithinTx выполняет fn в транзакции с уровнем изоляции READ COMMITTED.
// Согласованность обеспечивается блокировками строк (SELECT ... FOR UPDATE).
func (s *PostgresStore) WithinTx(ctx context.Context, fn func(tx Tx) error) error {
	return pgx.BeginTxFunc(ctx, s.DB, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, func(tx pgx.Tx) error {
		return fn(&postgresTx{queries: queries{q: tx}})
	})
}

// postgresTx - реализация Tx поверх pgx.Tx.
type postgresTx struct {
	queries
}

// validId отсекает идентификаторы, которые не являются UUID: такие записи заведомо не существуют.
func validId(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

// notFound переводит pgx.ErrNoRows в ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// uniqueConstraint возвращает имя нарушенного ограничения уникальности.
func uniqueConstraint(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return pgErr.ConstraintName, true
	}
	return "", false
}

// translateBidError переводит нарушения ограничений таблицы bids в ошибки репозитория.
func translateBidError(err error) error {
	constraint, ok := uniqueConstraint(err)
	if !ok {
		return notFound(err)
	}
	switch constraint {
	case bidLoadTruckerConstraint:
		return ErrDuplicateBid
	case bidOneAcceptedConstraint:
		return ErrAcceptedBidExists
	default:
		return err
	}
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// limitArg возвращает NULL для limit <= 0: LIMIT NULL выборку не ограничивает.
func limitArg(limit int) any {
	if limit <= 0 {
		return nil
	}
	return limit
}
