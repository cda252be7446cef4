package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/rotisserie/eris"

	"github.com/xavierca1/ligue-callbridge/internal/entity"
)

// SQLiteLeadRepository stores leads in a local SQLite file.
type SQLiteLeadRepository struct {
	DB *sql.DB
}

func NewSQLiteLeadRepository(db *sql.DB) *SQLiteLeadRepository {
	return &SQLiteLeadRepository{DB: db}
}

func (r *SQLiteLeadRepository) Insert(ctx context.Context, lead *entity.LeadEntry) error {
	query := `
		INSERT INTO leads (
			id, conversation_id, full_name, email, company, use_case, budget, timeline,
			raw_transcript, call_duration_sec, call_status, called_at, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO NOTHING
	`

	_, err := r.DB.ExecContext(ctx, query,
		lead.ID,
		nullString(lead.ConversationID),
		lead.FullName,
		lead.Email,
		lead.Company,
		lead.UseCase,
		lead.Budget,
		lead.Timeline,
		lead.RawTranscript,
		lead.CallDurationSec,
		string(lead.CallStatus),
		lead.CalledAt.UTC(),
		lead.CreatedAt.UTC(),
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: insert lead")
	}
	return nil
}

func (r *SQLiteLeadRepository) CountByStatusSince(ctx context.Context, since time.Time) (map[entity.CallStatus]int, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT call_status, COUNT(*) FROM leads WHERE created_at >= ? GROUP BY call_status`,
		since.UTC(),
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: count leads by status")
	}
	defer rows.Close()

	counts := make(map[entity.CallStatus]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan lead count")
		}
		counts[entity.CallStatus(status)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "sqlite: iterate lead counts")
	}
	return counts, nil
}

// FindByID loads one lead; the API never reads leads back.
func (r *SQLiteLeadRepository) FindByID(ctx context.Context, id string) (*entity.LeadEntry, error) {
	var lead entity.LeadEntry
	var conversationID sql.NullString
	var status string

	err := r.DB.QueryRowContext(ctx, `
		SELECT id, conversation_id, full_name, email, company, use_case, budget, timeline,
		       raw_transcript, call_duration_sec, call_status, called_at, created_at
		FROM leads WHERE id = ?`, id,
	).Scan(
		&lead.ID,
		&conversationID,
		&lead.FullName,
		&lead.Email,
		&lead.Company,
		&lead.UseCase,
		&lead.Budget,
		&lead.Timeline,
		&lead.RawTranscript,
		&lead.CallDurationSec,
		&status,
		&lead.CalledAt,
		&lead.CreatedAt,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: find lead %s", id)
	}

	lead.ConversationID = conversationID.String
	lead.CallStatus = entity.CallStatus(status)
	return &lead, nil
}

func (r *SQLiteLeadRepository) Migrate(ctx context.Context) error {
	if _, err := r.DB.ExecContext(ctx, sqliteMigration); err != nil {
		return eris.Wrap(err, "sqlite: migrate")
	}
	return nil
}

func (r *SQLiteLeadRepository) Ping(ctx context.Context) error {
	return r.DB.PingContext(ctx)
}
