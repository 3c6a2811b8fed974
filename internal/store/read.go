package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/roach88/scenesync/internal/dispatch"
)

// Filter narrows ReadRecords. Zero fields match everything.
type Filter struct {
	ObjectID string
	Kind     string
	Outcome  dispatch.Outcome
	AfterSeq int64
	Limit    int
}

func (f Filter) where() (string, []any) {
	var (
		clauses []string
		args    []any
	)
	if f.ObjectID != "" {
		clauses = append(clauses, "object_id = ?")
		args = append(args, f.ObjectID)
	}
	if f.Kind != "" {
		clauses = append(clauses, "kind = ?")
		args = append(args, f.Kind)
	}
	if f.Outcome != "" {
		clauses = append(clauses, "outcome = ?")
		args = append(args, string(f.Outcome))
	}
	if f.AfterSeq > 0 {
		clauses = append(clauses, "seq > ?")
		args = append(args, f.AfterSeq)
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}

// ReadRecords returns matching records ordered by seq ASC, id ASC.
// Returns an empty slice, not nil, when nothing matches.
func (j *Journal) ReadRecords(ctx context.Context, f Filter) ([]dispatch.Record, error) {
	where, args := f.where()
	query := `
		SELECT seq, kind, object_id, object_type, translator, outcome, detail
		FROM dispatch_records
		` + where + `
		ORDER BY seq ASC, id COLLATE BINARY ASC`
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	records := []dispatch.Record{}
	for rows.Next() {
		var (
			rec     dispatch.Record
			outcome string
			detail  string
		)
		if err := rows.Scan(&rec.Seq, &rec.Kind, &rec.ObjectID, &rec.ObjectType, &rec.Translator, &outcome, &detail); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		rec.Outcome = dispatch.Outcome(outcome)
		if rec.Detail, err = unmarshalDetail(detail); err != nil {
			return nil, fmt.Errorf("record seq=%d: %w", rec.Seq, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return records, nil
}

// LastSeq returns the highest seq in the journal, or 0 when it is empty.
// A new run resumes its clock from here.
func (j *Journal) LastSeq(ctx context.Context) (int64, error) {
	var seq int64
	if err := j.db.QueryRowContext(ctx, "SELECT COALESCE(MAX(seq), 0) FROM dispatch_records").Scan(&seq); err != nil {
		return 0, fmt.Errorf("last seq: %w", err)
	}
	return seq, nil
}

// Count returns the number of records matching f. Limit is ignored.
func (j *Journal) Count(ctx context.Context, f Filter) (int, error) {
	where, args := f.where()
	var n int
	if err := j.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM dispatch_records "+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}
