package image

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/picstash/service/internal/storage"
)

// ErrEmptyFile is returned when an upload carries no bytes. No collaborator
// call runs in that case.
var ErrEmptyFile = errors.New("empty file")

// ErrStorage is returned when the object store rejects an upload.
var ErrStorage = errors.New("object storage failure")

// Store is the persistence contract the service depends on.
// *Repository is the production implementation.
type Store interface {
	Create(ctx context.Context, img *Image) (*Image, error)
	ListByOwner(ctx context.Context, ownerID string) ([]Image, error)
	DeleteOwned(ctx context.Context, ownerID, imageID string) (string, error)
}

// Service orchestrates blob storage and the image registry.
type Service struct {
	store Store
	blobs storage.Storage
}

// NewService creates a new image Service.
func NewService(store Store, blobs storage.Storage) *Service {
	return &Service{store: store, blobs: blobs}
}

// Upload stores the bytes under an owner-scoped key, then records the image.
// The blob goes first: a registry row must never point at bytes that were not
// stored. If the registry insert fails afterwards, the blob is deleted again
// so no orphan survives the request.
func (s *Service) Upload(ctx context.Context, ownerID string, data []byte, name, declaredType string) (*Image, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFile
	}

	contentType := mimetype.Detect(data).String()
	if contentType == "application/octet-stream" && declaredType != "" {
		contentType = declaredType
	}

	key := objectKey(ownerID, name)
	if err := s.blobs.Upload(ctx, key, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		log.Printf("image: upload %q failed: %v", key, err)
		return nil, ErrStorage
	}

	img := &Image{
		OwnerID:     ownerID,
		StorageKey:  key,
		URL:         s.blobs.PublicURL(key),
		Name:        name,
		ContentType: contentType,
		Size:        int64(len(data)),
	}
	img, err := s.store.Create(ctx, img)
	if err != nil {
		// Compensate: the blob is already durable, take it back out.
		if delErr := s.blobs.Delete(ctx, key); delErr != nil {
			log.Printf("image: orphaned blob %q (insert failed: %v, cleanup failed: %v)", key, err, delErr)
		}
		return nil, fmt.Errorf("record image: %w", err)
	}
	return img, nil
}

// List returns all images owned by ownerID, oldest first.
func (s *Service) List(ctx context.Context, ownerID string) ([]Image, error) {
	return s.store.ListByOwner(ctx, ownerID)
}

// Delete removes the record for imageID if it belongs to ownerID, then removes
// the underlying blob. Blob removal is best-effort: once the row is gone the
// delete has succeeded, and a leftover blob is only logged.
func (s *Service) Delete(ctx context.Context, ownerID, imageID string) error {
	if _, err := uuid.Parse(imageID); err != nil {
		return ErrNotFound
	}

	key, err := s.store.DeleteOwned(ctx, ownerID, imageID)
	if err != nil {
		return err
	}

	if err := s.blobs.Delete(ctx, key); err != nil {
		log.Printf("image: blob %q not removed after delete: %v", key, err)
	}
	return nil
}

// objectKey builds a storage key unique per owner and upload:
// "<ownerID>/<unix-millis>_<uuid>_<sanitized name>". The uuid component keeps
// concurrent same-millisecond uploads from colliding.
func objectKey(ownerID, name string) string {
	return fmt.Sprintf("%s/%d_%s_%s", ownerID, time.Now().UnixMilli(), uuid.NewString(), sanitizeName(name))
}

// sanitizeName strips path separators and whitespace from a client filename.
func sanitizeName(name string) string {
	name = strings.Map(func(r rune) rune {
		switch {
		case r == '/' || r == '\\' || r == ' ':
			return '_'
		case r < 32:
			return -1
		}
		return r
	}, name)
	if name == "" {
		return "file"
	}
	return name
}
