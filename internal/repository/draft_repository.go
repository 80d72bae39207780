package repository

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/nightclub-reservation/internal/model"
)

// DraftRepo keeps wizard drafts in Redis as JSON under "draft:<id>".  Every
// save refreshes the TTL, so a draft only expires after the customer has
// been idle for the whole TTL.
type DraftRepo struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewDraftRepo returns a Redis-backed draft store.
func NewDraftRepo(rdb *redis.Client, ttl time.Duration) *DraftRepo {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &DraftRepo{rdb: rdb, ttl: ttl}
}

func draftKey(id string) string     { return "draft:" + id }
func draftLockKey(id string) string { return "draft:" + id + ":submit" }

// Get loads a draft or returns ErrNotFound when it expired or never existed.
func (r *DraftRepo) Get(ctx context.Context, id string) (*model.Draft, error) {
	bs, err := r.rdb.Get(ctx, draftKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var d model.Draft
	if err := json.Unmarshal(bs, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// Save writes the draft and resets its TTL.
func (r *DraftRepo) Save(ctx context.Context, d *model.Draft) error {
	bs, err := json.Marshal(d)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, draftKey(d.ID), bs, r.ttl).Err()
}

// Delete drops the draft.  Deleting a missing draft is not an error.
func (r *DraftRepo) Delete(ctx context.Context, id string) error {
	return r.rdb.Del(ctx, draftKey(id)).Err()
}

var releaseLockScript = redis.NewScript(`
	if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0
`)

// Lock takes the per-draft submit lock with SET NX.  It returns ErrLocked
// when another submission of the same draft is in flight.  The returned
// release func only deletes the lock if it still holds our token, so a
// lock that expired and was re-taken is left alone.
func (r *DraftRepo) Lock(ctx context.Context, id string, ttl time.Duration) (func(), error) {
	token := uuid.NewString()
	ok, err := r.rdb.SetNX(ctx, draftLockKey(id), token, ttl).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrLocked
	}
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = releaseLockScript.Run(ctx, r.rdb, []string{draftLockKey(id)}, token).Err()
	}, nil
}

// MemoryDraftRepo is the draft store used when Redis is unavailable.  It
// only works for a single server process.
type MemoryDraftRepo struct {
	mu     sync.Mutex
	ttl    time.Duration
	now    func() time.Time
	drafts map[string]memoryDraft
	locks  map[string]time.Time
}

type memoryDraft struct {
	data    []byte
	expires time.Time
}

// NewMemoryDraftRepo returns an in-process draft store.
func NewMemoryDraftRepo(ttl time.Duration) *MemoryDraftRepo {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return &MemoryDraftRepo{
		ttl:    ttl,
		now:    time.Now,
		drafts: map[string]memoryDraft{},
		locks:  map[string]time.Time{},
	}
}

// Get returns a copy of the stored draft.
func (r *MemoryDraftRepo) Get(_ context.Context, id string) (*model.Draft, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	md, ok := r.drafts[id]
	if !ok || r.now().After(md.expires) {
		delete(r.drafts, id)
		return nil, ErrNotFound
	}
	var d model.Draft
	if err := json.Unmarshal(md.data, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// Save stores a copy of the draft and resets its TTL.
func (r *MemoryDraftRepo) Save(_ context.Context, d *model.Draft) error {
	bs, err := json.Marshal(d)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.drafts[d.ID] = memoryDraft{data: bs, expires: r.now().Add(r.ttl)}
	return nil
}

// Delete drops the draft.
func (r *MemoryDraftRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.drafts, id)
	return nil
}

// Lock takes the per-draft submit lock.
func (r *MemoryDraftRepo) Lock(_ context.Context, id string, ttl time.Duration) (func(), error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if until, held := r.locks[id]; held && r.now().Before(until) {
		return nil, ErrLocked
	}
	until := r.now().Add(ttl)
	r.locks[id] = until
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.locks[id] == until {
			delete(r.locks, id)
		}
	}, nil
}
