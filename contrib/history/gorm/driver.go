// Package gorm provides a GORM implementation of the bridgekit History
// interface: one row per adapter execution, queryable for diagnostics.
//
// Usage:
//
//	import (
//	    gormhistory "github.com/madcok-co/bridgekit/contrib/history/gorm"
//	    "gorm.io/driver/sqlite"
//	    gormpkg "gorm.io/gorm"
//	)
//
//	db, _ := gormpkg.Open(sqlite.Open("bridgekit.db"), &gormpkg.Config{})
//	history, _ := gormhistory.NewDriver(db)
//	a := adapter.New(cfg, adapter.WithHistory(history))
package gorm

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/madcok-co/bridgekit/pkg/contracts"
)

// ExecutionRecord is the persisted model.
type ExecutionRecord struct {
	ID                uint   `gorm:"primaryKey"`
	RequestID         string `gorm:"index"`
	Adapter           string `gorm:"index"`
	Method            string
	URL               string
	Success           bool
	StatusCode        int
	DurationMS        int64
	FieldsMapped      int
	FieldsTransformed int
	Error             string
	CreatedAt         time.Time `gorm:"index"`
}

// TableName keeps the table name stable across gorm naming strategies.
func (ExecutionRecord) TableName() string { return "execution_records" }

// Driver implements contracts.History using GORM.
type Driver struct {
	db *gorm.DB
}

// NewDriver creates the driver and migrates the schema.
func NewDriver(db *gorm.DB) (*Driver, error) {
	if err := db.AutoMigrate(&ExecutionRecord{}); err != nil {
		return nil, err
	}
	return &Driver{db: db}, nil
}

// DB returns the underlying GORM instance.
func (d *Driver) DB() *gorm.DB { return d.db }

// Record persists one execution entry.
func (d *Driver) Record(ctx context.Context, entry *contracts.ExecutionEntry) error {
	rec := ExecutionRecord{
		RequestID:         entry.RequestID,
		Adapter:           entry.Adapter,
		Method:            entry.Method,
		URL:               entry.URL,
		Success:           entry.Success,
		StatusCode:        entry.StatusCode,
		DurationMS:        entry.Duration.Milliseconds(),
		FieldsMapped:      entry.FieldsMapped,
		FieldsTransformed: entry.FieldsTransformed,
		Error:             entry.Error,
		CreatedAt:         entry.CreatedAt,
	}
	return d.db.WithContext(ctx).Create(&rec).Error
}

// Recent returns the latest entries, newest first.
func (d *Driver) Recent(ctx context.Context, limit int) ([]contracts.ExecutionEntry, error) {
	var recs []ExecutionRecord
	err := d.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&recs).Error
	if err != nil {
		return nil, err
	}

	out := make([]contracts.ExecutionEntry, 0, len(recs))
	for _, r := range recs {
		out = append(out, contracts.ExecutionEntry{
			RequestID:         r.RequestID,
			Adapter:           r.Adapter,
			Method:            r.Method,
			URL:               r.URL,
			Success:           r.Success,
			StatusCode:        r.StatusCode,
			Duration:          time.Duration(r.DurationMS) * time.Millisecond,
			FieldsMapped:      r.FieldsMapped,
			FieldsTransformed: r.FieldsTransformed,
			Error:             r.Error,
			CreatedAt:         r.CreatedAt,
		})
	}
	return out, nil
}
