package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("keepfile not found")

type Keepfile struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:50;not null" json:"name"`
	Image     *string   `json:"image"`
	Desc      *string   `gorm:"column:desc;type:text" json:"desc"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&Keepfile{})
}

// KeepfileStore is the record store for keepfiles.
type KeepfileStore struct {
	db *gorm.DB
}

func NewKeepfileStore(db *gorm.DB) *KeepfileStore {
	return &KeepfileStore{db: db}
}

// List returns every keepfile, newest first.
func (s *KeepfileStore) List(ctx context.Context) ([]Keepfile, error) {
	var keepfiles []Keepfile
	err := s.db.WithContext(ctx).
		Order("created_at desc").
		Order("id desc").
		Find(&keepfiles).Error
	if err != nil {
		return nil, fmt.Errorf("list keepfiles: %w", err)
	}
	return keepfiles, nil
}

func (s *KeepfileStore) Find(ctx context.Context, id uint) (Keepfile, error) {
	var k Keepfile
	if err := s.db.WithContext(ctx).First(&k, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Keepfile{}, ErrNotFound
		}
		return Keepfile{}, fmt.Errorf("find keepfile %d: %w", id, err)
	}
	return k, nil
}

// Create inserts k and fills in its ID and timestamps.
func (s *KeepfileStore) Create(ctx context.Context, k *Keepfile) error {
	if err := s.db.WithContext(ctx).Create(k).Error; err != nil {
		return fmt.Errorf("create keepfile: %w", err)
	}
	return nil
}

// Update writes name, image and desc of k over the stored row with the same ID
// and returns the row as written. A vanished row is ErrNotFound, never an insert.
func (s *KeepfileStore) Update(ctx context.Context, k Keepfile) (Keepfile, error) {
	res := s.db.WithContext(ctx).
		Model(&k).
		Select("name", "image", "desc").
		Updates(&k)
	if res.Error != nil {
		return Keepfile{}, fmt.Errorf("update keepfile %d: %w", k.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		return Keepfile{}, ErrNotFound
	}
	return k, nil
}

func (s *KeepfileStore) Delete(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&Keepfile{}, id)
	if res.Error != nil {
		return fmt.Errorf("delete keepfile %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Ping checks that the underlying database answers.
func (s *KeepfileStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
