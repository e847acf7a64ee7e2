package database

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/varoOP/ticketwatch/internal/domain"
)

// HistoryRepo implements domain.HistoryRepo
type HistoryRepo struct {
	log zerolog.Logger
	db  *DB
}

// NewHistoryRepo creates a new history repository
func NewHistoryRepo(log zerolog.Logger, db *DB) domain.HistoryRepo {
	return &HistoryRepo{
		log: log.With().Str("repo", "history").Logger(),
		db:  db,
	}
}

// Store records a check together with the status of every target date
func (r *HistoryRepo) Store(ctx context.Context, result domain.CheckResult) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	checkedAt := result.CheckedAt
	if checkedAt.IsZero() {
		checkedAt = time.Now()
	}

	month := ""
	if len(result.Dates) > 0 {
		month = domain.MonthOf(result.Dates[0]).String()
	}

	var errText sql.NullString
	if result.Failed() {
		errText = sql.NullString{String: result.Error, Valid: true}
	}

	query, args, err := r.db.squirrel.
		Insert("check_history").
		Columns("checked_at", "target_month", "dry_run", "notification_sent", "error").
		Values(checkedAt.UTC().Format(time.RFC3339), month, result.DryRun, result.NotificationSent, errText).
		ToSql()
	if err != nil {
		return errors.Wrap(err, "error building query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg("Store")

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return errors.Wrap(err, "error executing query")
	}

	checkID, err := res.LastInsertId()
	if err != nil {
		return errors.Wrap(err, "error reading check id")
	}

	statuses := make(map[string]domain.DateAvailability, len(result.Results))
	for _, a := range result.Results {
		statuses[a.Date.Format(domain.DateLayout)] = a
	}

	if len(result.Dates) > 0 {
		insert := r.db.squirrel.
			Replace("check_date").
			Columns("check_id", "date", "status", "has_link")

		for _, d := range result.Dates {
			key := d.Format(domain.DateLayout)
			a, ok := statuses[key]
			if !ok {
				a = domain.DateAvailability{Date: d, Status: domain.StatusUnknown}
			}
			insert = insert.Values(checkID, key, string(a.Status), a.HasLink)
		}

		query, args, err := insert.ToSql()
		if err != nil {
			return errors.Wrap(err, "error building query")
		}

		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return errors.Wrap(err, "error executing query")
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "error committing transaction")
	}

	r.log.Debug().Int64("id", checkID).Msg("Check recorded")
	return nil
}

// List returns up to limit checks, newest first
func (r *HistoryRepo) List(ctx context.Context, limit int) ([]*domain.HistoryEntry, error) {
	queryBuilder := r.db.squirrel.
		Select("id", "checked_at", "dry_run", "notification_sent", "error").
		From("check_history").
		OrderBy("id DESC")

	if limit > 0 {
		queryBuilder = queryBuilder.Limit(uint64(limit))
	}

	query, args, err := queryBuilder.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "error building query")
	}

	r.log.Trace().Str("query", query).Interface("args", args).Msg("List")

	rows, err := r.db.handler.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "error executing query")
	}
	defer rows.Close()

	var entries []*domain.HistoryEntry
	byID := make(map[int64]*domain.HistoryEntry)

	for rows.Next() {
		var (
			e         domain.HistoryEntry
			checkedAt string
			errText   sql.NullString
		)
		if err := rows.Scan(&e.ID, &checkedAt, &e.DryRun, &e.NotificationSent, &errText); err != nil {
			return nil, errors.Wrap(err, "error scanning row")
		}

		e.CheckedAt, err = time.Parse(time.RFC3339, checkedAt)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid checked_at %q", checkedAt)
		}
		e.Error = errText.String

		entries = append(entries, &e)
		byID[e.ID] = &e
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating rows")
	}

	if len(entries) == 0 {
		return entries, nil
	}

	if err := r.attachDates(ctx, byID); err != nil {
		return nil, err
	}

	return entries, nil
}

func (r *HistoryRepo) attachDates(ctx context.Context, byID map[int64]*domain.HistoryEntry) error {
	ids := make([]int64, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}

	query, args, err := r.db.squirrel.
		Select("check_id", "date", "status").
		From("check_date").
		Where(sq.Eq{"check_id": ids}).
		OrderBy("check_id", "date").
		ToSql()
	if err != nil {
		return errors.Wrap(err, "error building query")
	}

	rows, err := r.db.handler.QueryContext(ctx, query, args...)
	if err != nil {
		return errors.Wrap(err, "error executing query")
	}
	defer rows.Close()

	for rows.Next() {
		var (
			checkID      int64
			date, status string
		)
		if err := rows.Scan(&checkID, &date, &status); err != nil {
			return errors.Wrap(err, "error scanning row")
		}

		e := byID[checkID]
		e.Dates = append(e.Dates, date)
		if domain.TicketStatus(status).Notifiable() {
			e.AvailableDates = append(e.AvailableDates, date)
		}
	}

	return errors.Wrap(rows.Err(), "error iterating rows")
}
