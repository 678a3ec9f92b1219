package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type kvRecord struct {
	Key       string `gorm:"primaryKey;size:191"`
	Value     []byte `gorm:"type:longblob;not null"`
	UpdatedAt time.Time
}

func (kvRecord) TableName() string { return "kv_records" }

type MySQL struct {
	db *gorm.DB
}

func NewMySQL(dsn string) (*MySQL, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect db: %w", err)
	}
	if err := db.AutoMigrate(&kvRecord{}); err != nil {
		return nil, fmt.Errorf("auto migrate failed: %w", err)
	}
	return &MySQL{db: db}, nil
}

func (m *MySQL) Get(ctx context.Context, key string) ([]byte, error) {
	var rec kvRecord
	err := m.db.WithContext(ctx).Where("`key` = ?", key).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read record %s: %w", key, err)
	}
	return rec.Value, nil
}

func (m *MySQL) Set(ctx context.Context, key string, value []byte) error {
	rec := kvRecord{Key: key, Value: value, UpdatedAt: time.Now()}
	err := m.db.WithContext(ctx).Clauses(clause.OnConflict{
		UpdateAll: true,
	}).Create(&rec).Error
	if err != nil {
		return fmt.Errorf("failed to write record %s: %w", key, err)
	}
	return nil
}

func (m *MySQL) Delete(ctx context.Context, key string) error {
	if err := m.db.WithContext(ctx).Where("`key` = ?", key).Delete(&kvRecord{}).Error; err != nil {
		return fmt.Errorf("failed to delete record %s: %w", key, err)
	}
	return nil
}

func (m *MySQL) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
