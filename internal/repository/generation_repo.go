package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/thu-intern/contract-generator/internal/models"
)

// ErrNotFound is returned when a generation record does not exist
var ErrNotFound = errors.New("generation not found")

// GenerationRepository handles contract generation history database operations
type GenerationRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewGenerationRepository creates a new generation repository
func NewGenerationRepository(db *sql.DB, logger *zap.Logger) *GenerationRepository {
	return &GenerationRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a generation record. Timestamps are stored in UTC.
func (r *GenerationRepository) Create(ctx context.Context, gen *models.Generation) error {
	query := `
		INSERT INTO contract_generations (
			id, company_name, student_name, contract_type, outcome,
			error_message, file_name, size_bytes, archive_path, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	if gen.CreatedAt.IsZero() {
		gen.CreatedAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx, query,
		gen.ID,
		gen.CompanyName,
		gen.StudentName,
		gen.ContractType,
		gen.Outcome,
		gen.ErrorMessage,
		gen.FileName,
		gen.SizeBytes,
		gen.ArchivePath,
		gen.CreatedAt.UTC(),
	)
	if err != nil {
		r.logger.Error("Failed to create generation record",
			zap.String("generation_id", gen.ID),
			zap.Error(err))
		return fmt.Errorf("failed to create generation: %w", err)
	}

	return nil
}

const selectGeneration = `
	SELECT id, company_name, student_name, contract_type, outcome,
		error_message, file_name, size_bytes, archive_path, created_at
	FROM contract_generations
`

// GetByID retrieves one generation record
func (r *GenerationRepository) GetByID(ctx context.Context, id string) (*models.Generation, error) {
	row := r.db.QueryRowContext(ctx, selectGeneration+" WHERE id = ?", id)

	gen, err := scanGeneration(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get generation: %w", err)
	}
	return gen, nil
}

// List returns generation records, newest first
func (r *GenerationRepository) List(ctx context.Context, limit, offset int) ([]*models.Generation, error) {
	query := selectGeneration + `
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?
	`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list generations", zap.Error(err))
		return nil, fmt.Errorf("failed to list generations: %w", err)
	}
	defer rows.Close()

	records := make([]*models.Generation, 0, limit)
	for rows.Next() {
		gen, err := scanGeneration(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan generation: %w", err)
		}
		records = append(records, gen)
	}

	return records, rows.Err()
}

// Count returns the total number of generation records
func (r *GenerationRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM contract_generations").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count generations: %w", err)
	}
	return count, nil
}

// CountByOutcome returns the number of records per outcome
func (r *GenerationRepository) CountByOutcome(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT outcome, COUNT(*)
		FROM contract_generations
		GROUP BY outcome
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to count generations by outcome: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var outcome string
		var count int
		if err := rows.Scan(&outcome, &count); err != nil {
			return nil, fmt.Errorf("failed to scan outcome count: %w", err)
		}
		counts[outcome] = count
	}

	return counts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGeneration(row rowScanner) (*models.Generation, error) {
	var gen models.Generation
	err := row.Scan(
		&gen.ID,
		&gen.CompanyName,
		&gen.StudentName,
		&gen.ContractType,
		&gen.Outcome,
		&gen.ErrorMessage,
		&gen.FileName,
		&gen.SizeBytes,
		&gen.ArchivePath,
		&gen.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &gen, nil
}
