package database

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/xavierca1/ligue-callbridge/internal/entity"
)

// LeadRepository stores leads in Postgres.
type LeadRepository struct {
	pool Pool
}

func NewLeadRepository(pool Pool) *LeadRepository {
	return &LeadRepository{pool: pool}
}

// Insert is idempotent on the lead id, so a retry after an ambiguous failure
// does not create a second row.
func (r *LeadRepository) Insert(ctx context.Context, lead *entity.LeadEntry) error {
	query := `
		INSERT INTO leads (
			id, conversation_id, full_name, email, company, use_case, budget, timeline,
			raw_transcript, call_duration_sec, call_status, called_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO NOTHING
	`

	_, err := r.pool.Exec(ctx, query,
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
		lead.CalledAt,
		lead.CreatedAt,
	)
	if err != nil {
		return eris.Wrap(err, "postgres: insert lead")
	}
	return nil
}

// CountByStatusSince counts leads created at or after since, per call status.
func (r *LeadRepository) CountByStatusSince(ctx context.Context, since time.Time) (map[entity.CallStatus]int, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT call_status, COUNT(*) FROM leads WHERE created_at >= $1 GROUP BY call_status`,
		since,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: count leads by status")
	}
	defer rows.Close()

	counts := make(map[entity.CallStatus]int)
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, eris.Wrap(err, "postgres: scan lead count")
		}
		counts[entity.CallStatus(status)] = int(n)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "postgres: iterate lead counts")
	}
	return counts, nil
}

// Migrate creates the leads table if it does not exist.
func (r *LeadRepository) Migrate(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, postgresMigration); err != nil {
		return eris.Wrap(err, "postgres: migrate")
	}
	return nil
}

func (r *LeadRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
