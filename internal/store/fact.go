package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Harshitk-cp/daybrief/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
)

type FactStore struct {
	db *pgxpool.Pool
}

func NewFactStore(db *pgxpool.Pool) *FactStore {
	return &FactStore{db: db}
}

func (s *FactStore) Create(ctx context.Context, f *domain.Fact) error {
	var embedding *pgvector.Vector
	if len(f.Embedding) > 0 {
		v := pgvector.NewVector(f.Embedding)
		embedding = &v
	}

	if f.Source == "" {
		f.Source = "manual"
	}

	return s.db.QueryRow(ctx,
		`INSERT INTO facts (type, content, embedding, source, enabled, metadata)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at, updated_at`,
		f.Type, f.Content, embedding, f.Source, f.Enabled, f.Metadata,
	).Scan(&f.ID, &f.CreatedAt, &f.UpdatedAt)
}

func (s *FactStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Fact, error) {
	f := &domain.Fact{}
	err := s.db.QueryRow(ctx,
		`SELECT id, type, content, source, enabled, metadata, created_at, updated_at
		 FROM facts WHERE id = $1`,
		id,
	).Scan(&f.ID, &f.Type, &f.Content, &f.Source, &f.Enabled, &f.Metadata, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return f, nil
}

func (s *FactStore) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]domain.Fact, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := s.db.Query(ctx,
		`SELECT id, type, content, source, enabled, metadata, created_at, updated_at
		 FROM facts WHERE id = ANY($1)
		 ORDER BY created_at ASC`,
		ids,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanFacts(rows)
}

func (s *FactStore) List(ctx context.Context, filter domain.ListFilter) ([]domain.Fact, error) {
	var conditions []string
	var args []any

	if filter.Type != nil {
		conditions = append(conditions, fmt.Sprintf("type = $%d", len(args)+1))
		args = append(args, string(*filter.Type))
	}
	if filter.EnabledOnly {
		conditions = append(conditions, "enabled = TRUE")
	}

	query := `SELECT id, type, content, source, enabled, metadata, created_at, updated_at FROM facts`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanFacts(rows)
}

func (s *FactStore) Search(ctx context.Context, embedding []float32, opts domain.SearchOpts) ([]domain.FactWithScore, error) {
	if opts.TopK <= 0 {
		opts.TopK = 10
	}

	vec := pgvector.NewVector(embedding)

	conditions := []string{"embedding IS NOT NULL"}
	var args []any

	if !opts.IncludeDisabled {
		conditions = append(conditions, "enabled = TRUE")
	}

	if opts.Type != nil {
		conditions = append(conditions, fmt.Sprintf("type = $%d", len(args)+1))
		args = append(args, string(*opts.Type))
	}

	embeddingParam := len(args) + 1
	args = append(args, vec)

	limitParam := len(args) + 1
	args = append(args, opts.TopK)

	query := fmt.Sprintf(
		`SELECT id, type, content, source, enabled, metadata, created_at, updated_at,
		        1 - (embedding <=> $%d) AS score
		 FROM facts
		 WHERE %s
		 ORDER BY embedding <=> $%d
		 LIMIT $%d`,
		embeddingParam,
		strings.Join(conditions, " AND "),
		embeddingParam,
		limitParam,
	)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search query: %w", err)
	}
	defer rows.Close()

	var results []domain.FactWithScore
	for rows.Next() {
		var fs domain.FactWithScore
		err := rows.Scan(
			&fs.ID, &fs.Type, &fs.Content, &fs.Source, &fs.Enabled,
			&fs.Metadata, &fs.CreatedAt, &fs.UpdatedAt,
			&fs.Score,
		)
		if err != nil {
			return nil, fmt.Errorf("scan search row: %w", err)
		}
		results = append(results, fs)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("search rows: %w", err)
	}

	return results, nil
}

func (s *FactStore) SetEnabled(ctx context.Context, id uuid.UUID, enabled bool) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE facts SET enabled = $2, updated_at = NOW() WHERE id = $1`,
		id, enabled,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *FactStore) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM facts WHERE id = $1`,
		id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanFacts(rows pgx.Rows) ([]domain.Fact, error) {
	var facts []domain.Fact
	for rows.Next() {
		var f domain.Fact
		if err := rows.Scan(&f.ID, &f.Type, &f.Content, &f.Source, &f.Enabled, &f.Metadata, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, err
		}
		facts = append(facts, f)
	}
	return facts, rows.Err()
}
