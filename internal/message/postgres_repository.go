package message

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kasirku/kasir/internal/access"
	"github.com/kasirku/kasir/internal/database"
)

var messageColumns = []string{"id", "tenant_id", "sender_id", "recipient_id", "body", "read_at", "created_at"}

// PostgresRepository implements Repository using pgxpool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new Repository backed by the given connection pool.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &PostgresRepository{pool: pool}
}

func tenantScope(scope *access.Scope) sq.Sqlizer {
	return access.Clause(scope, access.TenantOnly())
}

// Send inserts m if the recipient is an active user of m.TenantID.
func (r *PostgresRepository) Send(ctx context.Context, m *Message) error {
	query := `
		INSERT INTO messages (tenant_id, sender_id, recipient_id, body)
		SELECT $1, $2, u.id, $3
		FROM users u
		WHERE u.id = $4 AND u.tenant_id = $1 AND u.disabled_at IS NULL
		RETURNING id, created_at`

	err := r.pool.QueryRow(ctx, query, m.TenantID, m.SenderID, m.Body, m.RecipientID).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrRecipientNotFound
		}
		return fmt.Errorf("inserting message: %w", err)
	}
	return nil
}

// List returns one mailbox of filter.UserID, newest first, and the total count.
func (r *PostgresRepository) List(ctx context.Context, scope access.Scope, filter ListFilter) ([]Message, int, error) {
	_, limit, offset := database.NormalizePage(filter.Page, filter.Limit)

	conds := sq.And{tenantScope(&scope)}
	if filter.Box == Sent {
		conds = append(conds, sq.Eq{"sender_id": filter.UserID})
	} else {
		conds = append(conds, sq.Eq{"recipient_id": filter.UserID})
	}
	if filter.UnreadOnly {
		conds = append(conds, sq.Eq{"read_at": nil})
	}

	countQuery, countArgs, err := database.SQL.Select("COUNT(*)").From("messages").Where(conds).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("building message count: %w", err)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting messages: %w", err)
	}

	query, args, err := database.SQL.
		Select(messageColumns...).
		From("messages").
		Where(conds).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(limit)).
		Offset(offset).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("building message list: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing messages: %w", err)
	}
	defer rows.Close()

	messages := []Message{}
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scanning message row: %w", err)
		}
		messages = append(messages, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating message rows: %w", err)
	}

	return messages, total, nil
}

// MarkRead stamps read_at on a message addressed to recipientID. Marking an
// already read message keeps the first timestamp.
func (r *PostgresRepository) MarkRead(ctx context.Context, scope access.Scope, id, recipientID uuid.UUID) (*Message, error) {
	query, args, err := database.SQL.
		Update("messages").
		Set("read_at", sq.Expr("COALESCE(read_at, NOW())")).
		Where(sq.Eq{"id": id, "recipient_id": recipientID}).
		Where(tenantScope(&scope)).
		Suffix("RETURNING id, tenant_id, sender_id, recipient_id, body, read_at, created_at").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building message update: %w", err)
	}

	m, err := scanMessage(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMessageNotFound
		}
		return nil, fmt.Errorf("marking message read: %w", err)
	}
	return m, nil
}

func scanMessage(row pgx.Row) (*Message, error) {
	var m Message
	if err := row.Scan(&m.ID, &m.TenantID, &m.SenderID, &m.RecipientID, &m.Body, &m.ReadAt, &m.CreatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}
