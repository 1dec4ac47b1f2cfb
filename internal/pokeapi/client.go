// Package pokeapi fetches creatures from the public PokeAPI and turns them
// into battle-ready combatants.
package pokeapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/ericogr/pokearena/internal/constants"
	"github.com/ericogr/pokearena/internal/dedupe"
	"github.com/ericogr/pokearena/internal/game"
	"github.com/ericogr/pokearena/internal/keys"
	"github.com/ericogr/pokearena/internal/logging"
	"github.com/ericogr/pokearena/internal/telemetry"
)

// ErrFetchFailed wraps every failure to obtain a combatant.
var ErrFetchFailed = errors.New("combatant fetch failed")

// maxBodyBytes caps a single response; pokemon payloads with full move
// lists are a few hundred kilobytes.
const maxBodyBytes = 8 << 20

// fetchConcurrency bounds parallel requests in FetchCombatants and move
// type resolution.
const fetchConcurrency = 4

// Cache persists fetched payloads. storage.Repository implements it.
type Cache interface {
	GetCached(key string) (*game.CachedCombatant, error)
	SaveCached(key string, payload []byte) error
}

// Options configures a Client. Zero values fall back to the defaults.
type Options struct {
	BaseURL     string
	Timeout     time.Duration
	RandomMaxID int
	// CacheTTL of 0 disables the cache.
	CacheTTL         time.Duration
	ResolveMoveTypes bool
	Cache            Cache
	HTTPClient       *http.Client
}

type Client struct {
	baseURL          string
	http             *http.Client
	timeout          time.Duration
	cache            Cache
	ttl              time.Duration
	maxID            int
	resolveMoveTypes bool
	tracer           trace.Tracer

	mu  sync.Mutex
	rng *rand.Rand
}

func New(opts Options) *Client {
	c := &Client{
		baseURL:          strings.TrimRight(opts.BaseURL, "/"),
		http:             opts.HTTPClient,
		cache:            opts.Cache,
		ttl:              opts.CacheTTL,
		maxID:            opts.RandomMaxID,
		resolveMoveTypes: opts.ResolveMoveTypes,
		timeout:          opts.Timeout,
		tracer:           telemetry.Tracer("pokeapi"),
		rng:              rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	if c.baseURL == "" {
		c.baseURL = constants.PokeAPIBaseURL
	}
	if c.timeout <= 0 {
		c.timeout = 10 * time.Second
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: c.timeout}
	}
	if c.maxID <= 0 {
		c.maxID = 151
	}
	return c
}

// FetchCombatant returns the combatant with the given PokeAPI id or name.
// Concurrent calls for the same id share one request. The shared request is
// bounded by the client timeout, not by any caller's context: a caller that
// gives up only stops waiting.
func (c *Client) FetchCombatant(ctx context.Context, id string) (*game.Combatant, error) {
	id = strings.ToLower(strings.TrimSpace(id))
	if id == "" {
		return nil, fmt.Errorf("%w: empty id", ErrFetchFailed)
	}
	key := keys.CombatantKey(id)

	ctx, span := c.tracer.Start(ctx, "pokeapi.fetch", trace.WithAttributes(attribute.String(constants.LogFieldKey, key)))
	defer span.End()

	ch := dedupe.CombatantGroup.DoChan(key, func() (interface{}, error) {
		lctx, cancel := c.detached(ctx)
		defer cancel()
		return c.loadCombatant(lctx, id, key)
	})
	var r singleflight.Result
	select {
	case r = <-ch:
	case <-ctx.Done():
		err := fmt.Errorf("%w: %s: %v", ErrFetchFailed, key, ctx.Err())
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Bool("shared", r.Shared))
	if r.Err != nil {
		span.RecordError(r.Err)
		span.SetStatus(codes.Error, r.Err.Error())
		return nil, r.Err
	}

	// Each caller decodes its own copy so sessions never share slices.
	var out game.Combatant
	if err := json.Unmarshal(r.Val.([]byte), &out); err != nil {
		return nil, fmt.Errorf("%w: decode cached %s: %v", ErrFetchFailed, key, err)
	}
	return &out, nil
}

// FetchRandomCombatant picks an id uniformly in [1, RandomMaxID].
func (c *Client) FetchRandomCombatant(ctx context.Context) (*game.Combatant, error) {
	c.mu.Lock()
	id := 1 + c.rng.Intn(c.maxID)
	c.mu.Unlock()
	return c.FetchCombatant(ctx, strconv.Itoa(id))
}

// FetchCombatants fetches ids in parallel and returns them in the same order.
// The first failure cancels the rest.
func (c *Client) FetchCombatants(ctx context.Context, ids []int) ([]game.Combatant, error) {
	out := make([]game.Combatant, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			cb, err := c.FetchCombatant(gctx, strconv.Itoa(id))
			if err != nil {
				return err
			}
			out[i] = *cb
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// loadCombatant returns the normalized combatant as JSON, from the cache
// when fresh.
func (c *Client) loadCombatant(ctx context.Context, id, key string) ([]byte, error) {
	if b, ok := c.cached(key); ok {
		return b, nil
	}

	body, err := c.get(ctx, constants.PokeAPIPokemonPath+id)
	if err != nil {
		return nil, err
	}
	var p pokemonPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("%w: decode pokemon %s: %v", ErrFetchFailed, id, err)
	}

	moveTypes := make([]string, len(p.moveNames()))
	if c.resolveMoveTypes {
		if moveTypes, err = c.moveTypes(ctx, p.moveNames()); err != nil {
			return nil, err
		}
	}
	cb, err := toCombatant(p, moveTypes)
	if err != nil {
		return nil, err
	}

	b, err := json.Marshal(cb)
	if err != nil {
		return nil, fmt.Errorf("%w: encode %s: %v", ErrFetchFailed, key, err)
	}
	c.store(key, b)
	logging.Info("combatant fetched", logging.WithTrace(ctx, logging.Fields{
		constants.LogFieldCombatantID: cb.ID,
		constants.LogFieldSource:      "pokeapi",
	}))
	return b, nil
}

// moveTypes looks up each move's type in parallel.
func (c *Client) moveTypes(ctx context.Context, names []string) ([]string, error) {
	out := make([]string, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			t, err := c.moveType(gctx, name)
			if err != nil {
				return err
			}
			out[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) moveType(ctx context.Context, name string) (string, error) {
	key := keys.MoveKey(name)
	ch := dedupe.MoveGroup.DoChan(key, func() (interface{}, error) {
		if b, ok := c.cached(key); ok {
			return string(b), nil
		}
		lctx, cancel := c.detached(ctx)
		defer cancel()
		body, err := c.get(lctx, constants.PokeAPIMovePath+name)
		if err != nil {
			return nil, err
		}
		var m movePayload
		if err := json.Unmarshal(body, &m); err != nil {
			return nil, fmt.Errorf("%w: decode move %s: %v", ErrFetchFailed, name, err)
		}
		c.store(key, []byte(m.Type.Name))
		return m.Type.Name, nil
	})
	select {
	case r := <-ch:
		if r.Err != nil {
			return "", r.Err
		}
		return r.Val.(string), nil
	case <-ctx.Done():
		return "", fmt.Errorf("%w: %s: %v", ErrFetchFailed, key, ctx.Err())
	}
}

// detached returns a context that keeps the caller's span but not its
// cancellation, bounded by the client timeout.
func (c *Client) detached(parent context.Context) (context.Context, context.CancelFunc) {
	ctx := trace.ContextWithSpan(context.Background(), trace.SpanFromContext(parent))
	return context.WithTimeout(ctx, c.timeout)
}

func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	url := c.baseURL + path
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	req.Header.Set(constants.HeaderAccept, constants.ContentTypeJSON)
	req.Header.Set(constants.HeaderUserAgent, constants.UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return nil, fmt.Errorf("%w: %s returned %d", ErrFetchFailed, url, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrFetchFailed, url, err)
	}
	return body, nil
}

func (c *Client) cached(key string) ([]byte, bool) {
	if c.cache == nil || c.ttl <= 0 {
		return nil, false
	}
	entry, err := c.cache.GetCached(key)
	if err != nil {
		logging.Warn("cache lookup failed", err, logging.Fields{constants.LogFieldKey: key})
		return nil, false
	}
	if entry == nil || time.Since(entry.FetchedAt) >= c.ttl {
		return nil, false
	}
	return entry.Payload, true
}

func (c *Client) store(key string, payload []byte) {
	if c.cache == nil || c.ttl <= 0 {
		return
	}
	if err := c.cache.SaveCached(key, payload); err != nil {
		logging.Warn("cache write failed", err, logging.Fields{constants.LogFieldKey: key})
	}
}
