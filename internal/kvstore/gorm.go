package kvstore

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// EntryModel is the GORM row for one stored key.
type EntryModel struct {
	Key       string    `gorm:"primaryKey"`
	Value     string    `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TableName pins the table name.
func (EntryModel) TableName() string { return "kv_entries" }

// Gorm implements KV over GORM + Postgres.
type Gorm struct {
	db *gorm.DB
}

// NewGorm opens the DB and runs auto-migrations.
func NewGorm(dsn string) (*Gorm, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.AutoMigrate(&EntryModel{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &Gorm{db: db}, nil
}

// Get returns the value stored for key.
func (g *Gorm) Get(ctx context.Context, key string) (string, bool, error) {
	var model EntryModel
	err := g.db.WithContext(ctx).First(&model, "key = ?", key).Error
	if err == gorm.ErrRecordNotFound {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return model.Value, true, nil
}

// Set stores or replaces the value for key.
func (g *Gorm) Set(ctx context.Context, key, value string) error {
	model := EntryModel{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	return g.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&model).Error
}

// Delete removes key.
func (g *Gorm) Delete(ctx context.Context, key string) error {
	return g.db.WithContext(ctx).Delete(&EntryModel{}, "key = ?", key).Error
}
