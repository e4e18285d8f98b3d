package image

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pngBytes is a 10-byte payload starting with the PNG signature.
var pngBytes = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0x00, 0x00}

// fakeBlobStore is an in-memory storage.Storage.
type fakeBlobStore struct {
	objects    map[string][]byte
	uploadErr  error
	uploads    int
	deletions  []string
	publicBase string
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{objects: map[string][]byte{}, publicBase: "http://blobs.test"}
}

func (f *fakeBlobStore) Upload(_ context.Context, key string, reader io.Reader, _ int64, _ string) error {
	if f.uploadErr != nil {
		return f.uploadErr
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return err
	}
	f.objects[key] = data
	f.uploads++
	return nil
}

func (f *fakeBlobStore) Delete(_ context.Context, key string) error {
	f.deletions = append(f.deletions, key)
	delete(f.objects, key)
	return nil
}

func (f *fakeBlobStore) PublicURL(key string) string {
	return f.publicBase + "/" + key
}

// fakeImageStore is an in-memory Store.
type fakeImageStore struct {
	images    []Image
	createErr error
	creates   int
}

func (f *fakeImageStore) Create(_ context.Context, img *Image) (*Image, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	img.ID = uuid.NewString()
	img.CreatedAt = time.Now()
	f.images = append(f.images, *img)
	f.creates++
	return img, nil
}

func (f *fakeImageStore) ListByOwner(_ context.Context, ownerID string) ([]Image, error) {
	out := []Image{}
	for _, img := range f.images {
		if img.OwnerID == ownerID {
			out = append(out, img)
		}
	}
	return out, nil
}

func (f *fakeImageStore) DeleteOwned(_ context.Context, ownerID, imageID string) (string, error) {
	for i, img := range f.images {
		if img.ID == imageID && img.OwnerID == ownerID {
			f.images = append(f.images[:i], f.images[i+1:]...)
			return img.StorageKey, nil
		}
	}
	return "", ErrNotFound
}

func TestUpload(t *testing.T) {
	store := &fakeImageStore{}
	blobs := newFakeBlobStore()
	svc := NewService(store, blobs)
	ownerID := uuid.NewString()

	img, err := svc.Upload(context.Background(), ownerID, pngBytes, "cat.png", "")
	require.NoError(t, err)

	assert.NotEmpty(t, img.ID)
	assert.True(t, strings.HasPrefix(img.StorageKey, ownerID+"/"), "key %q must be owner-scoped", img.StorageKey)
	assert.Equal(t, "http://blobs.test/"+img.StorageKey, img.URL)
	assert.Equal(t, "cat.png", img.Name)
	assert.Equal(t, "image/png", img.ContentType)
	assert.Equal(t, int64(len(pngBytes)), img.Size)
	assert.Equal(t, pngBytes, blobs.objects[img.StorageKey])
}

func TestUpload_KeysNeverCollide(t *testing.T) {
	store := &fakeImageStore{}
	blobs := newFakeBlobStore()
	svc := NewService(store, blobs)
	ownerID := uuid.NewString()

	a, err := svc.Upload(context.Background(), ownerID, pngBytes, "cat.png", "")
	require.NoError(t, err)
	b, err := svc.Upload(context.Background(), ownerID, pngBytes, "cat.png", "")
	require.NoError(t, err)

	assert.NotEqual(t, a.StorageKey, b.StorageKey)
}

func TestUpload_SanitizesFilename(t *testing.T) {
	svc := NewService(&fakeImageStore{}, newFakeBlobStore())
	ownerID := uuid.NewString()

	img, err := svc.Upload(context.Background(), ownerID, pngBytes, "../etc/pass wd", "")
	require.NoError(t, err)

	key := strings.TrimPrefix(img.StorageKey, ownerID+"/")
	assert.NotContains(t, key, "/")
	assert.NotContains(t, key, " ")
}

func TestUpload_EmptyFile(t *testing.T) {
	store := &fakeImageStore{}
	blobs := newFakeBlobStore()
	svc := NewService(store, blobs)

	_, err := svc.Upload(context.Background(), uuid.NewString(), nil, "cat.png", "image/png")
	assert.ErrorIs(t, err, ErrEmptyFile)

	// No collaborator call may run for an empty payload.
	assert.Zero(t, blobs.uploads)
	assert.Zero(t, store.creates)
}

func TestUpload_StorageFailureWritesNoRow(t *testing.T) {
	store := &fakeImageStore{}
	blobs := newFakeBlobStore()
	blobs.uploadErr = errors.New("bucket on fire")
	svc := NewService(store, blobs)

	_, err := svc.Upload(context.Background(), uuid.NewString(), pngBytes, "cat.png", "")
	assert.ErrorIs(t, err, ErrStorage)
	assert.Zero(t, store.creates)
}

func TestUpload_InsertFailureCompensatesBlob(t *testing.T) {
	store := &fakeImageStore{createErr: errors.New("db down")}
	blobs := newFakeBlobStore()
	svc := NewService(store, blobs)

	_, err := svc.Upload(context.Background(), uuid.NewString(), pngBytes, "cat.png", "")
	require.Error(t, err)

	require.Len(t, blobs.deletions, 1)
	assert.Empty(t, blobs.objects, "blob must not survive a failed insert")
}

func TestList_OnlyOwnersImages(t *testing.T) {
	store := &fakeImageStore{}
	svc := NewService(store, newFakeBlobStore())
	ownerA := uuid.NewString()
	ownerB := uuid.NewString()

	a, err := svc.Upload(context.Background(), ownerA, pngBytes, "a.png", "")
	require.NoError(t, err)
	_, err = svc.Upload(context.Background(), ownerB, pngBytes, "b.png", "")
	require.NoError(t, err)

	images, err := svc.List(context.Background(), ownerA)
	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Equal(t, a.ID, images[0].ID)
}

func TestDelete(t *testing.T) {
	store := &fakeImageStore{}
	blobs := newFakeBlobStore()
	svc := NewService(store, blobs)
	ownerID := uuid.NewString()

	img, err := svc.Upload(context.Background(), ownerID, pngBytes, "cat.png", "")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), ownerID, img.ID))

	images, err := svc.List(context.Background(), ownerID)
	require.NoError(t, err)
	assert.Empty(t, images)
	assert.Empty(t, blobs.objects, "blob removed along with the record")

	// A second delete of the same id is indistinguishable from a missing id.
	assert.ErrorIs(t, svc.Delete(context.Background(), ownerID, img.ID), ErrNotFound)
}

func TestDelete_ForeignOwner(t *testing.T) {
	store := &fakeImageStore{}
	svc := NewService(store, newFakeBlobStore())
	ownerA := uuid.NewString()
	ownerB := uuid.NewString()

	img, err := svc.Upload(context.Background(), ownerA, pngBytes, "a.png", "")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(context.Background(), ownerB, img.ID), ErrNotFound)

	// Owner A still has the image.
	images, err := svc.List(context.Background(), ownerA)
	require.NoError(t, err)
	assert.Len(t, images, 1)
}

func TestDelete_MalformedID(t *testing.T) {
	svc := NewService(&fakeImageStore{}, newFakeBlobStore())

	assert.ErrorIs(t, svc.Delete(context.Background(), uuid.NewString(), "not-a-uuid"), ErrNotFound)
}
