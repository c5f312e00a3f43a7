package note

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kasirku/kasir/internal/access"
	"github.com/kasirku/kasir/internal/database"
)

var noteColumns = []string{"id", "tenant_id", "toko_id", "author_id", "title", "body", "created_at", "updated_at"}

// PostgresRepository implements Repository using pgxpool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new Repository backed by the given connection pool.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &PostgresRepository{pool: pool}
}

// Create inserts a new note.
func (r *PostgresRepository) Create(ctx context.Context, n *Note) error {
	query, args, err := database.SQL.
		Insert("notes").
		Columns("tenant_id", "toko_id", "author_id", "title", "body").
		Values(n.TenantID, n.TokoID, n.AuthorID, n.Title, n.Body).
		Suffix("RETURNING id, created_at, updated_at").
		ToSql()
	if err != nil {
		return fmt.Errorf("building note insert: %w", err)
	}

	if err := r.pool.QueryRow(ctx, query, args...).Scan(&n.ID, &n.CreatedAt, &n.UpdatedAt); err != nil {
		return fmt.Errorf("inserting note: %w", err)
	}
	return nil
}

// GetByID retrieves a single note visible to scope.
func (r *PostgresRepository) GetByID(ctx context.Context, scope access.Scope, id uuid.UUID) (*Note, error) {
	query, args, err := database.SQL.
		Select(noteColumns...).
		From("notes").
		Where(sq.Eq{"id": id}).
		Where(access.Clause(&scope)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building note query: %w", err)
	}
	return r.scanOne(ctx, query, args...)
}

// List returns notes visible to scope, newest first, and the total count.
func (r *PostgresRepository) List(ctx context.Context, scope access.Scope, filter ListFilter) ([]Note, int, error) {
	_, limit, offset := database.NormalizePage(filter.Page, filter.Limit)

	conds := sq.And{access.Clause(&scope)}
	if filter.Query != "" {
		pattern := "%" + filter.Query + "%"
		conds = append(conds, sq.Or{sq.ILike{"title": pattern}, sq.ILike{"body": pattern}})
	}

	countQuery, countArgs, err := database.SQL.Select("COUNT(*)").From("notes").Where(conds).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("building note count: %w", err)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("counting notes: %w", err)
	}

	query, args, err := database.SQL.
		Select(noteColumns...).
		From("notes").
		Where(conds).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(limit)).
		Offset(offset).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("building note list: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing notes: %w", err)
	}
	defer rows.Close()

	notes := []Note{}
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scanning note row: %w", err)
		}
		notes = append(notes, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterating note rows: %w", err)
	}

	return notes, total, nil
}

// Update applies upd to a note visible to scope and returns the new row.
func (r *PostgresRepository) Update(ctx context.Context, scope access.Scope, id uuid.UUID, upd Update) (*Note, error) {
	b := database.SQL.Update("notes").Set("updated_at", sq.Expr("NOW()"))
	if upd.Title != nil {
		b = b.Set("title", *upd.Title)
	}
	if upd.Body != nil {
		b = b.Set("body", *upd.Body)
	}

	query, args, err := b.
		Where(sq.Eq{"id": id}).
		Where(access.Clause(&scope)).
		Suffix("RETURNING " + strings.Join(noteColumns, ", ")).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("building note update: %w", err)
	}
	return r.scanOne(ctx, query, args...)
}

// Delete removes a note visible to scope.
func (r *PostgresRepository) Delete(ctx context.Context, scope access.Scope, id uuid.UUID) error {
	query, args, err := database.SQL.
		Delete("notes").
		Where(sq.Eq{"id": id}).
		Where(access.Clause(&scope)).
		ToSql()
	if err != nil {
		return fmt.Errorf("building note delete: %w", err)
	}

	result, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("deleting note: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNoteNotFound
	}
	return nil
}

func (r *PostgresRepository) scanOne(ctx context.Context, query string, args ...any) (*Note, error) {
	n, err := scanNote(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoteNotFound
		}
		return nil, fmt.Errorf("querying note: %w", err)
	}
	return n, nil
}

func scanNote(row pgx.Row) (*Note, error) {
	var n Note
	if err := row.Scan(&n.ID, &n.TenantID, &n.TokoID, &n.AuthorID, &n.Title, &n.Body, &n.CreatedAt, &n.UpdatedAt); err != nil {
		return nil, err
	}
	return &n, nil
}
