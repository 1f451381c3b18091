package repository

import (
	"database/sql"

	"dailybrief/internal/model"
)

type DigestRepository struct {
	db *sql.DB
}

func NewDigestRepository(db *sql.DB) *DigestRepository {
	return &DigestRepository{db: db}
}

func (r *DigestRepository) Save(d *model.Digest) error {
	return r.db.QueryRow(`
		INSERT INTO digest(category, summary, markdown, analysis, fact_check, trends, quote_symbol, audio_file, status, error, stages)
		VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at
	`, d.Category, d.Summary, d.Markdown, d.Analysis, d.FactCheck, d.Trends, d.QuoteSymbol, d.AudioFile, d.Status, d.Error, d.Stages).Scan(&d.ID, &d.CreatedAt)
}

func (r *DigestRepository) GetByID(id int64) (*model.Digest, error) {
	var d model.Digest
	err := r.db.QueryRow(`
		SELECT id, category, summary, markdown, analysis, fact_check, trends, quote_symbol, audio_file, status, error, stages, created_at
		FROM digest
		WHERE id = $1
	`, id).Scan(&d.ID, &d.Category, &d.Summary, &d.Markdown, &d.Analysis, &d.FactCheck, &d.Trends, &d.QuoteSymbol, &d.AudioFile, &d.Status, &d.Error, &d.Stages, &d.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return &d, nil
}

// GetLatest returns the newest completed digest, optionally narrowed to a
// category. Nil when none exists.
func (r *DigestRepository) GetLatest(category string) (*model.Digest, error) {
	var d model.Digest
	err := r.db.QueryRow(`
		SELECT id, category, summary, markdown, analysis, fact_check, trends, quote_symbol, audio_file, status, error, stages, created_at
		FROM digest
		WHERE status = $1 AND ($2 = '' OR category = $2)
		ORDER BY created_at DESC
		LIMIT 1
	`, model.StatusCompleted, category).Scan(&d.ID, &d.Category, &d.Summary, &d.Markdown, &d.Analysis, &d.FactCheck, &d.Trends, &d.QuoteSymbol, &d.AudioFile, &d.Status, &d.Error, &d.Stages, &d.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	return &d, nil
}

func (r *DigestRepository) List(limit, offset int) ([]model.Digest, error) {
	rows, err := r.db.Query(`
		SELECT id, category, summary, markdown, analysis, fact_check, trends, quote_symbol, audio_file, status, error, stages, created_at
		FROM digest
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)

	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var digests []model.Digest
	for rows.Next() {
		var d model.Digest
		err := rows.Scan(&d.ID, &d.Category, &d.Summary, &d.Markdown, &d.Analysis, &d.FactCheck, &d.Trends, &d.QuoteSymbol, &d.AudioFile, &d.Status, &d.Error, &d.Stages, &d.CreatedAt)
		if err != nil {
			return nil, err
		}
		digests = append(digests, d)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return digests, nil
}

func (r *DigestRepository) Total() (int, error) {
	var total int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM digest`).Scan(&total)
	return total, err
}
