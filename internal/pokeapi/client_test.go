package pokeapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ericogr/pokearena/internal/game"
)

const pikachuJSON = `{
	"id": 25,
	"name": "pikachu",
	"types": [{"slot": 1, "type": {"name": "electric"}}],
	"stats": [
		{"base_stat": 35, "stat": {"name": "hp"}},
		{"base_stat": 55, "stat": {"name": "attack"}}
	],
	"moves": [
		{"move": {"name": "mega-punch"}},
		{"move": {"name": "pay-day"}},
		{"move": {"name": "thunder-punch"}},
		{"move": {"name": "slam"}},
		{"move": {"name": "mega-kick"}}
	],
	"sprites": {"front_default": "https://img/25.png", "other": {"official-artwork": {"front_default": "https://art/25.png"}}}
}`

const bulbasaurJSON = `{
	"id": 1,
	"name": "bulbasaur",
	"types": [{"slot": 2, "type": {"name": "poison"}}, {"slot": 1, "type": {"name": "grass"}}],
	"stats": [{"base_stat": 45, "stat": {"name": "hp"}}],
	"moves": [],
	"sprites": {"front_default": "https://img/1.png"}
}`

type memCache struct {
	mu   sync.Mutex
	rows map[string]*game.CachedCombatant
}

func newMemCache() *memCache { return &memCache{rows: map[string]*game.CachedCombatant{}} }

func (m *memCache) GetCached(key string) (*game.CachedCombatant, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rows[key], nil
}

func (m *memCache) SaveCached(key string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[key] = &game.CachedCombatant{CacheKey: key, Payload: payload, FetchedAt: time.Now()}
	return nil
}

func newServer(t *testing.T, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		switch {
		case r.URL.Path == "/pokemon/25" || r.URL.Path == "/pokemon/pikachu":
			fmt.Fprint(w, pikachuJSON)
		case r.URL.Path == "/pokemon/1":
			fmt.Fprint(w, bulbasaurJSON)
		case strings.HasPrefix(r.URL.Path, "/move/"):
			name := strings.TrimPrefix(r.URL.Path, "/move/")
			typ := "normal"
			if name == "thunder-punch" {
				typ = "electric"
			}
			fmt.Fprintf(w, `{"name":%q,"type":{"name":%q}}`, name, typ)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchCombatant(t *testing.T) {
	var hits int32
	srv := newServer(t, &hits)
	c := New(Options{BaseURL: srv.URL})

	cb, err := c.FetchCombatant(context.Background(), "25")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if cb.ID != "25" || cb.Name != "pikachu" || cb.DisplayName != "Pikachu" {
		t.Fatalf("unexpected identity: %+v", cb)
	}
	if len(cb.Types) != 1 || cb.PrimaryType() != "electric" {
		t.Fatalf("unexpected types: %v", cb.Types)
	}
	if cb.MaxHealth() != 70 {
		t.Fatalf("expected max health 70, got %d", cb.MaxHealth())
	}
	if len(cb.Actions) != game.MaxActions {
		t.Fatalf("expected %d actions, got %d", game.MaxActions, len(cb.Actions))
	}
	if cb.Actions[0].Name != "Mega Punch" || cb.Actions[0].Type != "electric" {
		t.Fatalf("moves default to the primary type: %+v", cb.Actions[0])
	}
	if cb.ImageURL != "https://art/25.png" {
		t.Fatalf("expected official artwork, got %q", cb.ImageURL)
	}
}

func TestFetchCombatant_TypesBySlotAndFallbackMove(t *testing.T) {
	var hits int32
	srv := newServer(t, &hits)
	c := New(Options{BaseURL: srv.URL})

	cb, err := c.FetchCombatant(context.Background(), "1")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(cb.Types) != 2 || cb.Types[0] != "grass" || cb.Types[1] != "poison" {
		t.Fatalf("types should follow slot order: %v", cb.Types)
	}
	if len(cb.Actions) != 1 || cb.Actions[0].Name != game.FallbackActionName {
		t.Fatalf("expected fallback action, got %+v", cb.Actions)
	}
	if cb.ImageURL != "https://img/1.png" {
		t.Fatalf("expected sprite fallback, got %q", cb.ImageURL)
	}
}

func TestFetchCombatant_ResolvesMoveTypes(t *testing.T) {
	var hits int32
	srv := newServer(t, &hits)
	c := New(Options{BaseURL: srv.URL, ResolveMoveTypes: true})

	cb, err := c.FetchCombatant(context.Background(), "pikachu")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if cb.Actions[0].Type != "normal" || cb.Actions[2].Type != "electric" {
		t.Fatalf("move types not resolved: %+v", cb.Actions)
	}
	// one pokemon request plus four moves
	if got := atomic.LoadInt32(&hits); got != 5 {
		t.Fatalf("expected 5 requests, got %d", got)
	}
}

func TestFetchCombatant_NotFound(t *testing.T) {
	var hits int32
	srv := newServer(t, &hits)
	c := New(Options{BaseURL: srv.URL})

	_, err := c.FetchCombatant(context.Background(), "9999")
	if !errors.Is(err, ErrFetchFailed) {
		t.Fatalf("expected ErrFetchFailed, got %v", err)
	}
	if _, err := c.FetchCombatant(context.Background(), "  "); !errors.Is(err, ErrFetchFailed) {
		t.Fatalf("expected ErrFetchFailed for empty id, got %v", err)
	}
}

func TestFetchCombatant_UsesCache(t *testing.T) {
	var hits int32
	srv := newServer(t, &hits)
	cache := newMemCache()
	c := New(Options{BaseURL: srv.URL, Cache: cache, CacheTTL: time.Hour})

	for i := 0; i < 3; i++ {
		if _, err := c.FetchCombatant(context.Background(), "25"); err != nil {
			t.Fatalf("fetch %d: %v", i, err)
		}
	}
	if got := atomic.LoadInt32(&hits); got != 1 {
		t.Fatalf("expected a single request, got %d", got)
	}

	// Expired rows are refetched.
	cache.rows["pokemon:25"].FetchedAt = time.Now().Add(-2 * time.Hour)
	if _, err := c.FetchCombatant(context.Background(), "25"); err != nil {
		t.Fatalf("refetch: %v", err)
	}
	if got := atomic.LoadInt32(&hits); got != 2 {
		t.Fatalf("expected a refetch after expiry, got %d requests", got)
	}
}

func TestFetchCombatant_ZeroTTLSkipsCache(t *testing.T) {
	var hits int32
	srv := newServer(t, &hits)
	cache := newMemCache()
	c := New(Options{BaseURL: srv.URL, Cache: cache})

	_, _ = c.FetchCombatant(context.Background(), "25")
	_, _ = c.FetchCombatant(context.Background(), "25")
	if got := atomic.LoadInt32(&hits); got != 2 {
		t.Fatalf("expected 2 requests, got %d", got)
	}
	if len(cache.rows) != 0 {
		t.Fatalf("cache should stay empty")
	}
}

func TestFetchCombatant_CallersGetIndependentCopies(t *testing.T) {
	var hits int32
	srv := newServer(t, &hits)
	c := New(Options{BaseURL: srv.URL, Cache: newMemCache(), CacheTTL: time.Hour})

	a, _ := c.FetchCombatant(context.Background(), "25")
	a.Actions[0].Name = "changed"
	b, err := c.FetchCombatant(context.Background(), "25")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if b.Actions[0].Name != "Mega Punch" {
		t.Fatalf("callers share state: %+v", b.Actions[0])
	}
}

func TestFetchCombatants_Order(t *testing.T) {
	var hits int32
	srv := newServer(t, &hits)
	c := New(Options{BaseURL: srv.URL})

	list, err := c.FetchCombatants(context.Background(), []int{25, 1})
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(list) != 2 || list[0].Name != "pikachu" || list[1].Name != "bulbasaur" {
		t.Fatalf("unexpected order: %+v", list)
	}
	if _, err := c.FetchCombatants(context.Background(), []int{25, 404}); !errors.Is(err, ErrFetchFailed) {
		t.Fatalf("expected ErrFetchFailed, got %v", err)
	}
}

func TestFetchRandomCombatant_Range(t *testing.T) {
	var hits int32
	srv := newServer(t, &hits)
	c := New(Options{BaseURL: srv.URL, RandomMaxID: 1})

	cb, err := c.FetchRandomCombatant(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if cb.ID != "1" {
		t.Fatalf("random id must be within [1, 1], got %s", cb.ID)
	}
}

func TestFetchCombatant_CancelledCallerDoesNotFailOthers(t *testing.T) {
	started := make(chan struct{}, 4)
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
		fmt.Fprint(w, pikachuJSON)
	}))
	t.Cleanup(srv.Close)
	c := New(Options{BaseURL: srv.URL, Timeout: 5 * time.Second})

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := c.FetchCombatant(ctxA, "25")
		errA <- err
	}()
	<-started

	type result struct {
		cb  *game.Combatant
		err error
	}
	resB := make(chan result, 1)
	go func() {
		cb, err := c.FetchCombatant(context.Background(), "25")
		resB <- result{cb, err}
	}()

	cancelA()
	if err := <-errA; !errors.Is(err, ErrFetchFailed) {
		t.Fatalf("cancelled caller should fail, got %v", err)
	}
	close(release)

	b := <-resB
	if b.err != nil {
		t.Fatalf("live caller failed because another caller cancelled: %v", b.err)
	}
	if b.cb.Name != "pikachu" {
		t.Fatalf("unexpected combatant: %+v", b.cb)
	}
}
