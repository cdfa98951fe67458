package application

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/starfolio/starfolio-api/internal/domain/entity"
	"github.com/starfolio/starfolio-api/internal/domain/storage"
)

// memoryRepo is an in-memory document store. Documents round-trip through
// JSON on save/load so the tests exercise the same serialization the real
// repository relies on.
type memoryRepo struct {
	mu   sync.Mutex
	docs map[string][]byte
	hash map[string]string // id -> password hash (kept out of the document)
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{docs: map[string][]byte{}, hash: map[string]string{}}
}

func (r *memoryRepo) put(u *entity.User) error {
	b, err := json.Marshal(u)
	if err != nil {
		return err
	}
	r.docs[u.ID] = b
	r.hash[u.ID] = u.PasswordHash
	return nil
}

func (r *memoryRepo) get(id string) (*entity.User, error) {
	b, ok := r.docs[id]
	if !ok {
		return nil, nil
	}
	u := &entity.User{}
	if err := json.Unmarshal(b, u); err != nil {
		return nil, err
	}
	u.PasswordHash = r.hash[id]
	return u, nil
}

func (r *memoryRepo) Create(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.put(u)
}

func (r *memoryRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.get(id)
}

func (r *memoryRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id := range r.docs {
		u, err := r.get(id)
		if err != nil {
			return nil, err
		}
		if u.Email == email {
			return u, nil
		}
	}
	return nil, nil
}

func (r *memoryRepo) GetByGuestID(_ context.Context, guestID string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id := range r.docs {
		u, err := r.get(id)
		if err != nil {
			return nil, err
		}
		if u.GuestID == guestID {
			return u, nil
		}
	}
	return nil, nil
}

func (r *memoryRepo) Save(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[u.ID]; !ok {
		return fmt.Errorf("save: unknown document %s", u.ID)
	}
	return r.put(u)
}

func (r *memoryRepo) ListPublic(_ context.Context, excludeID string) ([]*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*entity.User{}
	for id := range r.docs {
		u, err := r.get(id)
		if err != nil {
			return nil, err
		}
		if u.IsGuest || u.ID == excludeID {
			continue
		}
		out = append(out, u)
	}
	return out, nil
}

// memoryBlobs records every put and delete for assertions.
type memoryBlobs struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
	putErr  error
}

func newMemoryBlobs() *memoryBlobs {
	return &memoryBlobs{objects: map[string][]byte{}}
}

func (b *memoryBlobs) Put(_ context.Context, r io.Reader, filename, _ string) (storage.StoredObject, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.putErr != nil {
		return storage.StoredObject{}, b.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return storage.StoredObject{}, err
	}
	b.objects[filename] = data
	return storage.StoredObject{Filename: filename, URL: "https://blobs.test/" + filename}, nil
}

func (b *memoryBlobs) Delete(_ context.Context, filename string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deleted = append(b.deleted, filename)
	delete(b.objects, filename)
	return nil
}

func (b *memoryBlobs) stored() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.objects)
}

func newTestService(repo *memoryRepo, blobs *memoryBlobs) *Service {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewService(repo, blobs, nil, nil, logger, nil, "", nil)
}

func upload(name, contentType string) MediaUpload {
	return MediaUpload{
		Reader:      bytes.NewReader([]byte("blobdata-" + name)),
		Filename:    name,
		ContentType: contentType,
	}
}
