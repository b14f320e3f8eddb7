package clients

import (
	"errors"
	"fmt"
	"time"

	"wgward/internal/clients/types"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db: db,
	}
}

// Upsert inserts the client or overwrites the record with the same name,
// keeping the existing row ID.
func (r *Repository) Upsert(client *types.Client) error {
	if client == nil || client.Name == "" {
		return ErrInvalidClient
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		return upsert(tx, client)
	})
}

// Replace swaps the record named oldName for client in a single transaction.
func (r *Repository) Replace(oldName string, client *types.Client) error {
	if client == nil || client.Name == "" {
		return ErrInvalidClient
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&types.Client{}, "name = ?", oldName).Error; err != nil {
			return err
		}

		return upsert(tx, client)
	})
}

func upsert(tx *gorm.DB, client *types.Client) error {
	var existing types.Client

	err := tx.First(&existing, "name = ?", client.Name).Error

	switch {
	case err == nil:
		client.ID = existing.ID

		if client.CreatedAt.IsZero() {
			client.CreatedAt = existing.CreatedAt
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		// a renamed record must not collide with the row it was copied from
		client.ID = uuid.New().String()
	default:
		return err
	}

	if client.CreatedAt.IsZero() {
		client.CreatedAt = time.Now()
	}

	if client.Origin == "" {
		client.Origin = types.ClientOriginProvisioned
	}

	return tx.Save(client).Error
}

// Delete reports whether a record was removed.
func (r *Repository) Delete(name string) (bool, error) {
	result := r.db.Delete(&types.Client{}, "name = ?", name)

	if result.Error != nil {
		return false, result.Error
	}

	return result.RowsAffected > 0, nil
}

func (r *Repository) Get(name string) (*types.Client, error) {
	var client types.Client

	if err := r.db.First(&client, "name = ?", name).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrClientNotFound, name)
		}

		return nil, err
	}

	return &client, nil
}

func (r *Repository) List() ([]*types.Client, error) {
	var clients []*types.Client

	if err := r.db.Order("name").Find(&clients).Error; err != nil {
		return nil, err
	}

	return clients, nil
}

func (r *Repository) Exists(name string) (bool, error) {
	var count int64

	if err := r.db.Model(&types.Client{}).Where("name = ?", name).Count(&count).Error; err != nil {
		return false, err
	}

	return count > 0, nil
}

func (r *Repository) Count() int {
	var count int64

	if err := r.db.Model(&types.Client{}).Count(&count).Error; err != nil {
		return 0
	}

	return int(count)
}
