package database

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	domainErrors "github.com/bwbexpress/leadflow-backend/internal/domain/errors"
	"github.com/bwbexpress/leadflow-backend/internal/domain/lead"
)

// MessageLog is the Postgres audit log of dispatched messages.
type MessageLog struct {
	pool *pgxpool.Pool
}

func NewMessageLog(pool *pgxpool.Pool) *MessageLog {
	return &MessageLog{pool: pool}
}

func (m *MessageLog) Append(ctx context.Context, msg lead.Message) error {
	query := `
		INSERT INTO messages (id, lead_id, channel, recipient, subject, body, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := m.pool.Exec(ctx, query,
		msg.ID, msg.LeadID, msg.Channel.String(), msg.To, msg.Subject, msg.Body, msg.Timestamp)
	if err != nil {
		return domainErrors.Wrap(err, "appending message")
	}
	return nil
}

func (m *MessageLog) List(ctx context.Context) ([]lead.Message, error) {
	query := `
		SELECT id, lead_id, channel, recipient, subject, body, sent_at
		FROM messages ORDER BY sent_at`

	rows, err := m.pool.Query(ctx, query)
	if err != nil {
		return nil, domainErrors.Wrap(err, "listing messages")
	}
	defer rows.Close()

	var out []lead.Message
	for rows.Next() {
		var (
			msg     lead.Message
			channel string
		)
		if err := rows.Scan(&msg.ID, &msg.LeadID, &channel, &msg.To, &msg.Subject, &msg.Body, &msg.Timestamp); err != nil {
			return nil, domainErrors.Wrap(err, "scanning message")
		}
		msg.Channel, _ = lead.ParseChannel(channel)
		out = append(out, msg)
	}
	return out, rows.Err()
}
