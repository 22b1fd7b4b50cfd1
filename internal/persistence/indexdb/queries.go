package indexdb

import (
	"context"
	"strings"
)

type EventRow struct {
	Seq       int64   `db:"seq" json:"seq"`
	Time      int64   `db:"time" json:"time"`
	Event     string  `db:"event" json:"event"`
	ProfileID string  `db:"profile_id" json:"profile_id"`
	OfferID   string  `db:"offer_id" json:"offer_id"`
	Tpl       string  `db:"tpl" json:"tpl"`
	Amount    int     `db:"amount" json:"amount"`
	Roubles   float64 `db:"roubles" json:"roubles"`
	Fee       float64 `db:"fee" json:"fee"`
}

type EventFilter struct {
	Event     string
	Tpl       string
	ProfileID string
	Since     int64
	Limit     int
}

// Events returns the newest matching events first.
func (s *SQLiteIndex) Events(ctx context.Context, f EventFilter) ([]EventRow, error) {
	var (
		where []string
		args  []any
	)
	if f.Event != "" {
		where = append(where, "event = ?")
		args = append(args, f.Event)
	}
	if f.Tpl != "" {
		where = append(where, "tpl = ?")
		args = append(args, f.Tpl)
	}
	if f.ProfileID != "" {
		where = append(where, "profile_id = ?")
		args = append(args, f.ProfileID)
	}
	if f.Since > 0 {
		where = append(where, "time >= ?")
		args = append(args, f.Since)
	}
	limit := f.Limit
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	q := `SELECT seq,time,event,profile_id,offer_id,tpl,amount,roubles,fee FROM events`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY seq DESC LIMIT ?"
	args = append(args, limit)

	var rows []EventRow
	if err := s.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, err
	}
	return rows, nil
}

type EventTotal struct {
	Event   string  `db:"event" json:"event"`
	Count   int64   `db:"n" json:"count"`
	Amount  int64   `db:"amount" json:"amount"`
	Roubles float64 `db:"roubles" json:"roubles"`
	Fees    float64 `db:"fees" json:"fees"`
}

// Totals aggregates every recorded event by kind.
func (s *SQLiteIndex) Totals(ctx context.Context) ([]EventTotal, error) {
	var out []EventTotal
	err := s.db.SelectContext(ctx, &out, `SELECT event,
		COUNT(*) AS n,
		COALESCE(SUM(amount),0) AS amount,
		COALESCE(SUM(roubles),0) AS roubles,
		COALESCE(SUM(fee),0) AS fees
		FROM events GROUP BY event ORDER BY event`)
	return out, err
}

type SnapshotRow struct {
	CreatedAt int64  `db:"created_at" json:"created_at"`
	Path      string `db:"path" json:"path"`
	Offers    int    `db:"offers" json:"offers"`
	Profiles  int    `db:"profiles" json:"profiles"`
}

func (s *SQLiteIndex) Snapshots(ctx context.Context, limit int) ([]SnapshotRow, error) {
	if limit <= 0 {
		limit = 20
	}
	var out []SnapshotRow
	err := s.db.SelectContext(ctx, &out, `SELECT created_at,path,offers,profiles FROM snapshots ORDER BY created_at DESC LIMIT ?`, limit)
	return out, err
}

// CatalogDigest returns the stored digest for name, or "" when unknown.
func (s *SQLiteIndex) CatalogDigest(ctx context.Context, name string) (string, error) {
	var d []string
	if err := s.db.SelectContext(ctx, &d, `SELECT digest FROM catalogs WHERE name = ?`, name); err != nil {
		return "", err
	}
	if len(d) == 0 {
		return "", nil
	}
	return d[0], nil
}
