package memory

import (
	"context"
	"sync"
	"time"

	"github.com/geocoder89/regportal/internal/wizard"
)

// DraftsRepo keeps drafts in process memory with a sliding TTL.
// Used in dev and tests, or when no redis is configured.
type DraftsRepo struct {
	mu  sync.RWMutex
	ttl time.Duration
	m   map[string]entry
	now func() time.Time
}

type entry struct {
	val wizard.Draft
	exp time.Time
}

func NewDraftsRepo(ttl time.Duration) *DraftsRepo {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}

	return &DraftsRepo{
		ttl: ttl,
		m:   make(map[string]entry),
		now: time.Now,
	}
}

func (r *DraftsRepo) Get(_ context.Context, key wizard.DraftKey) (wizard.Draft, error) {
	now := r.now()
	k := key.String()

	r.mu.RLock()
	e, ok := r.m[k]
	r.mu.RUnlock()
	if !ok {
		return wizard.Draft{}, wizard.ErrDraftNotFound
	}

	if now.After(e.exp) {
		r.mu.Lock()
		delete(r.m, k)
		r.mu.Unlock()
		return wizard.Draft{}, wizard.ErrDraftNotFound
	}

	return e.val, nil
}

func (r *DraftsRepo) Put(_ context.Context, key wizard.DraftKey, d wizard.Draft) error {
	r.mu.Lock()
	r.m[key.String()] = entry{val: d, exp: r.now().Add(r.ttl)}
	r.mu.Unlock()
	return nil
}

func (r *DraftsRepo) Delete(_ context.Context, key wizard.DraftKey) error {
	r.mu.Lock()
	delete(r.m, key.String())
	r.mu.Unlock()
	return nil
}

// Sweep drops expired drafts and reports how many were removed.
func (r *DraftsRepo) Sweep() int {
	now := r.now()
	n := 0

	r.mu.Lock()
	for k, e := range r.m {
		if now.After(e.exp) {
			delete(r.m, k)
			n++
		}
	}
	r.mu.Unlock()
	return n
}

func (r *DraftsRepo) Ping(context.Context) error { return nil }
