package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"guest_reviews/internal/domain"
)

// Repo implements domain.StateStore on MySQL. Each Save replaces its table in
// a single transaction, so readers see either the old or the new set.
type Repo struct {
	db  *sql.DB
	now func() time.Time
}

func New(db *sql.DB) *Repo { return &Repo{db: db, now: time.Now} }

func (r *Repo) LoadDecisions(ctx context.Context) (domain.Decisions, error) {
	rows, err := r.db.QueryContext(ctx, selectDecisionsSQL)
	if err != nil {
		return nil, fmt.Errorf("%w: load decisions: %w", domain.ErrPersistence, err)
	}
	defer rows.Close()

	out := domain.Decisions{}
	for rows.Next() {
		var d domain.ModerationDecision
		if err := rows.Scan(&d.ReviewID, &d.IsApproved, &d.LastUpdated); err != nil {
			return nil, fmt.Errorf("%w: scan decision: %w", domain.ErrPersistence, err)
		}
		d.LastUpdated = d.LastUpdated.UTC()
		out[d.ReviewID] = d
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: load decisions: %w", domain.ErrPersistence, err)
	}
	return out, nil
}

func (r *Repo) SaveDecisions(ctx context.Context, ds domain.Decisions) error {
	ids := make([]int64, 0, len(ds))
	for id := range ds {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	return r.inTx(ctx, "decisions", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, deleteAllDecisionsSQL); err != nil {
			return err
		}
		for start := 0; start < len(ids); start += rowsPerInsert {
			end := min(start+rowsPerInsert, len(ids))
			values := make([]string, 0, end-start)
			args := make([]any, 0, (end-start)*3)
			for _, id := range ids[start:end] {
				d := ds[id]
				values = append(values, "(?,?,?)")
				args = append(args, id, d.IsApproved, d.LastUpdated.UTC())
			}
			q := upsertDecisionsPrefix + strings.Join(values, ",") + upsertDecisionsOnDup
			if _, err := tx.ExecContext(ctx, q, args...); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *Repo) LoadReviews(ctx context.Context) ([]domain.CanonicalReview, error) {
	rows, err := r.db.QueryContext(ctx, selectReviewsSQL)
	if err != nil {
		return nil, fmt.Errorf("%w: load reviews: %w", domain.ErrPersistence, err)
	}
	defer rows.Close()

	var out []domain.CanonicalReview
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("%w: scan review: %w", domain.ErrPersistence, err)
		}
		var rv domain.CanonicalReview
		if err := json.Unmarshal(payload, &rv); err != nil {
			return nil, fmt.Errorf("%w: decode review: %w", domain.ErrPersistence, err)
		}
		out = append(out, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: load reviews: %w", domain.ErrPersistence, err)
	}
	return out, nil
}

func (r *Repo) SaveReviews(ctx context.Context, rs []domain.CanonicalReview) error {
	return r.inTx(ctx, "reviews", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, deleteAllReviewsSQL); err != nil {
			return err
		}
		for start := 0; start < len(rs); start += rowsPerInsert {
			end := min(start+rowsPerInsert, len(rs))
			values := make([]string, 0, end-start)
			args := make([]any, 0, (end-start)*5)
			for i, rv := range rs[start:end] {
				payload, err := json.Marshal(rv)
				if err != nil {
					return err
				}
				values = append(values, "(?,?,?,?,?)")
				args = append(args, rv.ID, start+i, rv.PropertyID, string(rv.SourceChannel), string(payload))
			}
			if _, err := tx.ExecContext(ctx, insertReviewsPrefix+strings.Join(values, ","), args...); err != nil {
				return err
			}
		}
		return nil
	})
}

// inTx runs fn in a transaction and stamps sync_state for name on commit.
func (r *Repo) inTx(ctx context.Context, name string, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin %s: %w", domain.ErrPersistence, name, err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("%w: save %s: %w", domain.ErrPersistence, name, err)
	}
	if _, err := tx.ExecContext(ctx, touchSyncSQL, name, r.now().UTC()); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("%w: stamp %s: %w", domain.ErrPersistence, name, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit %s: %w", domain.ErrPersistence, name, err)
	}
	return nil
}
