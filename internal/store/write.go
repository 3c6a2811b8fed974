package store

import (
	"context"
	"fmt"

	"github.com/roach88/scenesync/internal/dispatch"
)

// WriteRecord appends rec to the journal.
// Uses ON CONFLICT(id) DO NOTHING: rewriting a record is silently ignored.
func (j *Journal) WriteRecord(ctx context.Context, rec dispatch.Record) error {
	id, err := rec.ID()
	if err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	detail, err := marshalDetail(rec.Detail)
	if err != nil {
		return fmt.Errorf("write record: %w", err)
	}

	_, err = j.db.ExecContext(ctx, `
		INSERT INTO dispatch_records
		(id, seq, kind, object_id, object_type, translator, outcome, detail)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		id,
		rec.Seq,
		rec.Kind,
		rec.ObjectID,
		rec.ObjectType,
		rec.Translator,
		string(rec.Outcome),
		detail,
	)
	if err != nil {
		return fmt.Errorf("write record seq=%d: %w", rec.Seq, err)
	}
	return nil
}
