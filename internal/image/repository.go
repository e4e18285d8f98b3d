// Package image manages image records and their upload/list/delete lifecycle.
package image

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Image is an image record owned by a single user.
type Image struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"-"`
	StorageKey  string    `json:"-"`
	URL         string    `json:"url"`
	Name        string    `json:"name"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ErrNotFound is returned when an image does not exist or belongs to another
// owner. The two cases are deliberately indistinguishable.
var ErrNotFound = errors.New("image not found")

// Repository handles all image database operations.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository with the given connection pool.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create inserts a new image record and returns it with generated fields filled.
func (r *Repository) Create(ctx context.Context, img *Image) (*Image, error) {
	err := r.db.QueryRow(ctx,
		`INSERT INTO images (owner_id, storage_key, url, name, content_type, size)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at`,
		img.OwnerID, img.StorageKey, img.URL, img.Name, img.ContentType, img.Size,
	).Scan(&img.ID, &img.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create image: %w", err)
	}
	return img, nil
}

// ListByOwner returns all images belonging to ownerID, oldest first.
func (r *Repository) ListByOwner(ctx context.Context, ownerID string) ([]Image, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, owner_id, storage_key, url, name, content_type, size, created_at
		 FROM images
		 WHERE owner_id = $1
		 ORDER BY created_at`,
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	defer rows.Close()

	images := []Image{}
	for rows.Next() {
		var img Image
		if err := rows.Scan(&img.ID, &img.OwnerID, &img.StorageKey, &img.URL,
			&img.Name, &img.ContentType, &img.Size, &img.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan image: %w", err)
		}
		images = append(images, img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate images: %w", err)
	}
	return images, nil
}

// DeleteOwned removes the record only when both id and owner match, in a single
// conditional statement, and returns the storage key of the deleted record.
// Returns ErrNotFound when zero rows matched.
func (r *Repository) DeleteOwned(ctx context.Context, ownerID, imageID string) (string, error) {
	var storageKey string
	err := r.db.QueryRow(ctx,
		`DELETE FROM images
		 WHERE id = $1 AND owner_id = $2
		 RETURNING storage_key`,
		imageID, ownerID,
	).Scan(&storageKey)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("delete image: %w", err)
	}
	return storageKey, nil
}
