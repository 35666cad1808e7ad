package resolve

import (
	"context"
	"sync"

	"github.com/okian/formfill/internal/domain/model"
)

// Pass is the state of one autofill pass: page context, the lookup cache and
// the memoised profile. Create one per pass and drop it afterwards.
type Pass struct {
	ID  string
	Job model.JobContext

	mu      sync.Mutex
	lookups map[string]model.Lookup

	profileMu sync.Mutex
	profile   *model.Profile
	loaded    bool
}

// NewPass starts a pass.
func NewPass(id string, job model.JobContext) *Pass {
	return &Pass{ID: id, Job: job, lookups: make(map[string]model.Lookup)}
}

func (p *Pass) cached(key string) (model.Lookup, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	l, ok := p.lookups[key]
	return l, ok
}

// remember stores a lookup outcome; the last write wins.
func (p *Pass) remember(key string, l model.Lookup) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lookups[key] = l
}

// CacheSize returns how many questions were looked up this pass.
func (p *Pass) CacheSize() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.lookups)
}

// Profile fetches the profile once. Failures are not memoised.
func (p *Pass) Profile(ctx context.Context, provider ProfileProvider) (*model.Profile, error) {
	if provider == nil {
		return nil, nil
	}
	p.profileMu.Lock()
	defer p.profileMu.Unlock()
	if p.loaded {
		return p.profile, nil
	}
	prof, err := provider.Profile(ctx)
	if err != nil {
		return nil, err
	}
	p.profile, p.loaded = prof, true
	return prof, nil
}
