package ds

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chainctl/actioneer/logger"
	"github.com/chainctl/actioneer/model"
	c "github.com/patrickmn/go-cache"
	"github.com/spaolacci/murmur3"
	"go.uber.org/zap"
)

const defaultStaleSeconds = 30
const maxPages = 100

// Fetcher executes data-source fetches against one network. Results are
// cached per leaf within its staleness window, keyed by the network identity,
// the ds key and the serialized caller context. Overlapping requests for the
// same key collapse to one logical request.
type Fetcher struct {
	network  *model.Network
	client   *http.Client
	cache    *c.Cache
	now      func() time.Time
	mu       sync.Mutex
	inflight map[string]*inflightCall
}

type inflightCall struct {
	done  chan struct{}
	value any
	err   error
}

type cacheEntry struct {
	value     any
	fetchedAt time.Time
}

func NewFetcher(network *model.Network) *Fetcher {
	return &Fetcher{
		network:  network,
		client:   &http.Client{Timeout: 15 * time.Second},
		cache:    c.New(c.NoExpiration, 1*time.Minute),
		now:      time.Now,
		inflight: make(map[string]*inflightCall),
	}
}

// CacheKey derives the stable cache key for a fetch.
func (f *Fetcher) CacheKey(key string, callerCtx map[string]any) string {
	data, _ := json.Marshal(callerCtx)
	h := murmur3.Sum64([]byte(f.network.Name + "|" + key + "|" + string(data)))
	return strconv.FormatUint(h, 16)
}

// Fetch resolves the leaf at key, executes it with callerCtx and returns the
// selected, normalized result. A result within the leaf's staleness window is
// served from cache without re-executing.
func (f *Fetcher) Fetch(ctx context.Context, key string, callerCtx map[string]any) (any, error) {
	leaf, err := Resolve(f.network, key)
	if err != nil {
		return nil, err
	}
	cacheKey := f.CacheKey(key, callerCtx)
	if cached, found := f.cache.Get(cacheKey); found {
		entry := cached.(*cacheEntry)
		// serve the cached value, refreshing in the background once the
		// leaf's refetch interval has elapsed
		if f.refetchDue(leaf, entry) {
			go f.refresh(context.Background(), leaf, cacheKey, callerCtx)
		}
		return entry.value, nil
	}

	f.mu.Lock()
	if pending, ok := f.inflight[cacheKey]; ok {
		f.mu.Unlock()
		select {
		case <-pending.done:
			return pending.value, pending.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	pending := &inflightCall{done: make(chan struct{})}
	f.inflight[cacheKey] = pending
	f.mu.Unlock()

	value, err := f.fetchLeaf(ctx, leaf, callerCtx)
	pending.value, pending.err = value, err
	close(pending.done)
	f.mu.Lock()
	delete(f.inflight, cacheKey)
	f.mu.Unlock()

	if err != nil {
		return nil, err
	}
	f.cache.Set(cacheKey, &cacheEntry{value: value, fetchedAt: f.now()}, f.staleness(leaf))
	return value, nil
}

func (f *Fetcher) refetchDue(leaf *model.DsLeaf, entry *cacheEntry) bool {
	if leaf.Cache == nil || leaf.Cache.RefetchSeconds <= 0 {
		return false
	}
	return f.now().Sub(entry.fetchedAt) >= time.Duration(leaf.Cache.RefetchSeconds)*time.Second
}

// refresh re-executes a leaf and replaces its cache entry. Collapses into an
// in-flight foreground fetch for the same key.
func (f *Fetcher) refresh(ctx context.Context, leaf *model.DsLeaf, cacheKey string, callerCtx map[string]any) {
	f.mu.Lock()
	if _, ok := f.inflight[cacheKey]; ok {
		f.mu.Unlock()
		return
	}
	pending := &inflightCall{done: make(chan struct{})}
	f.inflight[cacheKey] = pending
	f.mu.Unlock()

	value, err := f.fetchLeaf(ctx, leaf, callerCtx)
	pending.value, pending.err = value, err
	close(pending.done)
	f.mu.Lock()
	delete(f.inflight, cacheKey)
	f.mu.Unlock()

	if err != nil {
		logger.Debug("background refetch failed", zap.String("key", cacheKey), zap.Error(err))
		return
	}
	f.cache.Set(cacheKey, &cacheEntry{value: value, fetchedAt: f.now()}, f.staleness(leaf))
}

// FetchAll drives a paged leaf to exhaustion, concatenating the items of
// every page. Non-paged leaves behave like Fetch.
func (f *Fetcher) FetchAll(ctx context.Context, key string, callerCtx map[string]any) ([]any, error) {
	leaf, err := Resolve(f.network, key)
	if err != nil {
		return nil, err
	}
	if leaf.Paging == nil {
		value, err := f.Fetch(ctx, key, callerCtx)
		if err != nil {
			return nil, err
		}
		if list, ok := value.([]any); ok {
			return list, nil
		}
		return []any{value}, nil
	}

	paging := leaf.Paging
	var items []any
	page := 1
	cursor := ""
	for i := 0; i < maxPages; i++ {
		pageCtx := make(map[string]any, len(callerCtx)+2)
		for k, v := range callerCtx {
			pageCtx[k] = v
		}
		if paging.Strategy == model.PAGING_CURSOR {
			pageCtx[paramName(paging.CursorParam, "cursor")] = cursor
		} else {
			pageCtx[paramName(paging.PageParam, "page")] = page
			if paging.PageSize > 0 {
				pageCtx[paramName(paging.SizeParam, "limit")] = paging.PageSize
			}
		}

		raw, err := f.fetchLeaf(ctx, leaf, pageCtx)
		if err != nil {
			return nil, err
		}
		pageItems := extractItems(raw, paging)
		items = append(items, pageItems...)

		if paging.Strategy == model.PAGING_CURSOR {
			next, ok := NextCursorParam(paging, raw)
			if !ok {
				break
			}
			cursor = next
		} else {
			next, ok := NextPageParam(paging, page, len(pageItems), raw)
			if !ok {
				break
			}
			page = next
		}
	}
	return items, nil
}

func (f *Fetcher) fetchLeaf(ctx context.Context, leaf *model.DsLeaf, callerCtx map[string]any) (any, error) {
	call, err := BuildRequest(f.network, leaf, callerCtx)
	if err != nil {
		return nil, err
	}
	contentType, body, err := f.execute(ctx, call)
	if err != nil {
		// one retry on transport failure; an HTTP error status is the
		// upstream's answer and surfaces as-is
		if _, definitive := err.(TransportError); definitive {
			return nil, err
		}
		logger.Debug("retrying fetch", zap.String("url", call.URL), zap.Error(err))
		contentType, body, err = f.execute(ctx, call)
		if err != nil {
			return nil, err
		}
	}
	return ParseResponse(leaf, contentType, body)
}

func (f *Fetcher) execute(ctx context.Context, call *model.RemoteCall) (string, []byte, error) {
	var reader io.Reader
	if call.Body != "" {
		reader = strings.NewReader(call.Body)
	}
	req, err := http.NewRequestWithContext(ctx, call.Method, call.URL, reader)
	if err != nil {
		return "", nil, err
	}
	for k, v := range call.Headers {
		req.Header.Set(k, v)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("request to %s failed: %w", call.URL, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil, err
	}
	if resp.StatusCode >= 400 {
		return "", nil, TransportError{URL: call.URL, Status: resp.StatusCode}
	}
	return resp.Header.Get("Content-Type"), body, nil
}

func (f *Fetcher) staleness(leaf *model.DsLeaf) time.Duration {
	seconds := f.network.CacheStaleSeconds
	if leaf.Cache != nil && leaf.Cache.StaleSeconds > 0 {
		seconds = leaf.Cache.StaleSeconds
	}
	if seconds <= 0 {
		seconds = defaultStaleSeconds
	}
	return time.Duration(seconds) * time.Second
}

func extractItems(raw any, paging *model.PagingSpec) []any {
	value := raw
	if paging.ItemsField != "" {
		value = selectOne(raw, paging.ItemsField)
	}
	if list, ok := value.([]any); ok {
		return list
	}
	if value == nil {
		return nil
	}
	return []any{value}
}

func paramName(declared string, fallback string) string {
	if declared != "" {
		return declared
	}
	return fallback
}
