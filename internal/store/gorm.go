package store

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/hweber/particletrack/internal/domain"
)

// predictionRow is the relational shape of a PredictionRecord. The
// auto-increment sequence preserves append order so listing by seq DESC
// reproduces the gateway's most-recent-first contract.
type predictionRow struct {
	Seq            int64   `gorm:"primaryKey;autoIncrement"`
	RecordID       string  `gorm:"column:record_id;uniqueIndex"`
	FileName       string  `gorm:"column:file_name"`
	FileSize       int64   `gorm:"column:file_size"`
	ImageURL       string  `gorm:"column:image_url"`
	PredictedClass string  `gorm:"column:predicted_class;index"`
	Confidence     float64 `gorm:"column:confidence"`
	CreatedAt      int64   `gorm:"column:created_at"` // unix milliseconds
}

// TableName returns the database table name for predictionRow.
func (predictionRow) TableName() string {
	return "predictions"
}

func rowFromRecord(rec *domain.PredictionRecord) *predictionRow {
	return &predictionRow{
		RecordID:       rec.ID,
		FileName:       rec.FileName,
		FileSize:       rec.FileSize,
		ImageURL:       rec.ImageURL,
		PredictedClass: rec.PredictedClass,
		Confidence:     rec.Confidence,
		CreatedAt:      rec.CreatedAt,
	}
}

func (r *predictionRow) record() domain.PredictionRecord {
	return domain.PredictionRecord{
		ID:             r.RecordID,
		FileName:       r.FileName,
		FileSize:       r.FileSize,
		ImageURL:       r.ImageURL,
		PredictedClass: r.PredictedClass,
		Confidence:     r.Confidence,
		CreatedAt:      r.CreatedAt,
	}
}

// GormStore implements Gateway on a relational database (SQLite or
// PostgreSQL), one row per record.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore creates a database-backed gateway.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Append(ctx context.Context, rec *domain.PredictionRecord) error {
	if err := s.db.WithContext(ctx).Create(rowFromRecord(rec)).Error; err != nil {
		return fmt.Errorf("%w: insert: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

func (s *GormStore) ListAll(ctx context.Context) ([]domain.PredictionRecord, error) {
	var rows []predictionRow
	if err := s.db.WithContext(ctx).Order("seq DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("%w: select: %v", domain.ErrStoreUnavailable, err)
	}

	records := make([]domain.PredictionRecord, 0, len(rows))
	for i := range rows {
		records = append(records, rows[i].record())
	}
	return records, nil
}

func (s *GormStore) ClearAll(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Where("1 = 1").Delete(&predictionRow{})
	if res.Error != nil {
		return 0, fmt.Errorf("%w: delete: %v", domain.ErrStoreUnavailable, res.Error)
	}
	return res.RowsAffected, nil
}
