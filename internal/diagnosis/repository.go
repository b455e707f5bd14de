package diagnosis

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

type postgresRepo struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &postgresRepo{db: db}
}

func (r *postgresRepo) Save(ctx context.Context, rec *Record) error {
	tagsJSON, err := json.Marshal(rec.DetectedTags)
	if err != nil {
		return err
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO diagnoses (id, user_id, query, language, detected_tags, diagnosis_text, translated_text, audio_base64, disease_name, severity, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err = r.db.ExecContext(ctx, query,
		rec.ID, rec.UserID, rec.Query, rec.Language, tagsJSON,
		rec.DiagnosisText, rec.TranslatedText, rec.AudioBase64,
		rec.DiseaseName, rec.Severity, rec.CreatedAt)
	return err
}

func (r *postgresRepo) List(ctx context.Context, userID uuid.UUID, limit int) ([]Record, error) {
	query := `
		SELECT id, user_id, query, language, detected_tags, diagnosis_text, translated_text, audio_base64, disease_name, severity, created_at
		FROM diagnoses WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, err
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

func (r *postgresRepo) GetByID(ctx context.Context, userID, id uuid.UUID) (*Record, error) {
	query := `
		SELECT id, user_id, query, language, detected_tags, diagnosis_text, translated_text, audio_base64, disease_name, severity, created_at
		FROM diagnoses WHERE user_id = $1 AND id = $2
	`
	row := r.db.QueryRowContext(ctx, query, userID, id)
	rec, err := scanRecord(row.Scan)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return rec, err
}

func (r *postgresRepo) Delete(ctx context.Context, userID, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM diagnoses WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *postgresRepo) Stats(ctx context.Context, userID uuid.UUID) (*HistoryStats, error) {
	// The tag breakdown needs every record anyway, so aggregate in memory.
	records, err := r.List(ctx, userID, 1000)
	if err != nil {
		return nil, err
	}

	stats := &HistoryStats{
		TotalDiagnoses: len(records),
		LanguagesUsed:  map[string]int{},
	}
	tagCounts := map[string]int{}
	for _, rec := range records {
		stats.LanguagesUsed[rec.Language]++
		for _, tag := range rec.DetectedTags {
			tagCounts[tag]++
		}
	}
	for tag, n := range tagCounts {
		stats.TopTags = append(stats.TopTags, TagCount{Tag: tag, Count: n})
	}
	sort.Slice(stats.TopTags, func(i, j int) bool {
		if stats.TopTags[i].Count != stats.TopTags[j].Count {
			return stats.TopTags[i].Count > stats.TopTags[j].Count
		}
		return stats.TopTags[i].Tag < stats.TopTags[j].Tag
	})
	if len(stats.TopTags) > 10 {
		stats.TopTags = stats.TopTags[:10]
	}
	if len(records) > 0 {
		// List is newest-first.
		first := records[len(records)-1].CreatedAt
		last := records[0].CreatedAt
		stats.FirstDiagnosis = &first
		stats.LastDiagnosis = &last
	}
	return stats, nil
}

func scanRecord(scan func(dest ...any) error) (*Record, error) {
	var rec Record
	var tagsJSON []byte
	err := scan(
		&rec.ID,
		&rec.UserID,
		&rec.Query,
		&rec.Language,
		&tagsJSON,
		&rec.DiagnosisText,
		&rec.TranslatedText,
		&rec.AudioBase64,
		&rec.DiseaseName,
		&rec.Severity,
		&rec.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(tagsJSON) > 0 {
		if err := json.Unmarshal(tagsJSON, &rec.DetectedTags); err != nil {
			return nil, fmt.Errorf("failed to unmarshal tags: %w", err)
		}
	}
	return &rec, nil
}
