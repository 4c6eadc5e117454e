package ds

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/chainctl/actioneer/model"
	"github.com/stretchr/testify/require"
)

func testNetwork(rpc string) *model.Network {
	return &model.Network{
		Name:  "testnet",
		Rpc:   rpc,
		Admin: rpc + "/admin",
		Denom: model.DenomInfo{Base: "utest", Display: "TEST", Decimals: 6},
		Ds: map[string]any{
			"bank": map[string]any{
				"balances": map[string]any{
					"source": map[string]any{
						"path": "/balances",
						"body": map[string]any{
							"address": "{{account.address}}",
							"page":    "{{page}}",
						},
					},
					"selector": "results",
					"coerce": map[string]any{
						"body": map[string]any{"page": "int"},
					},
				},
			},
		},
		Metrics: map[string]any{
			"uptime": map[string]any{
				"source": map[string]any{"path": "/uptime"},
			},
		},
	}
}

func TestResolve(t *testing.T) {
	network := testNetwork("http://localhost")

	leaf, err := Resolve(network, "bank.balances")
	require.NoError(t, err)
	require.Equal(t, "/balances", leaf.Source.Path)
	require.Equal(t, "results", leaf.Selector)

	// metrics tree is the fallback
	leaf, err = Resolve(network, "uptime")
	require.NoError(t, err)
	require.Equal(t, "/uptime", leaf.Source.Path)

	_, err = Resolve(network, "bank.nope")
	require.Error(t, err)
	_, ok := err.(ResolutionError)
	require.True(t, ok)

	// intermediate nodes are not leaves
	_, err = Resolve(network, "bank")
	require.Error(t, err)
}

func TestBuildRequest(t *testing.T) {
	network := testNetwork("http://localhost")
	leaf, err := Resolve(network, "bank.balances")
	require.NoError(t, err)

	call, err := BuildRequest(network, leaf, map[string]any{
		"account": map[string]any{"address": "test1abc"},
		"page":    2,
	})
	require.NoError(t, err)
	// POST is the default when a body template is present
	require.Equal(t, http.MethodPost, call.Method)
	require.Equal(t, "http://localhost/balances", call.URL)
	require.Equal(t, "application/json", call.Headers["Content-Type"])
	require.Contains(t, call.Body, `"address":"test1abc"`)
	require.Contains(t, call.Body, `"page":2`)
}

func TestBuildRequestDefaultsToGet(t *testing.T) {
	network := testNetwork("http://localhost")
	leaf := &model.DsLeaf{Source: &model.DsSource{Path: "/status"}}
	call, err := BuildRequest(network, leaf, nil)
	require.NoError(t, err)
	require.Equal(t, http.MethodGet, call.Method)
	require.Empty(t, call.Body)
}

func TestBuildRequestEmptyHost(t *testing.T) {
	network := &model.Network{Name: "empty"}
	leaf := &model.DsLeaf{Source: &model.DsSource{Path: "/x"}}
	_, err := BuildRequest(network, leaf, nil)
	require.Error(t, err)
}

func TestParseResponse(t *testing.T) {
	for scenario, fn := range map[string]func(t *testing.T){
		"selector extracts list":       testSelectorList,
		"selector over list parent":    testSelectorPerElement,
		"double-encoded payload":       testReparse,
		"selectorEach over selection":  testSelectorEach,
		"plain text body passes":       testTextBody,
		"response coercion before sel": testResponseCoerce,
	} {
		t.Run(scenario, fn)
	}
}

func testSelectorList(t *testing.T) {
	leaf := &model.DsLeaf{Source: &model.DsSource{Path: "/x"}, Selector: "results"}
	out, err := ParseResponse(leaf, "application/json", []byte(`{"results":[1,2,3]}`))
	require.NoError(t, err)
	require.Equal(t, []any{float64(1), float64(2), float64(3)}, out)
}

func testSelectorPerElement(t *testing.T) {
	leaf := &model.DsLeaf{Source: &model.DsSource{Path: "/x"}, Selector: "name"}
	out, err := ParseResponse(leaf, "application/json", []byte(`[{"name":"a"},{"name":"b"}]`))
	require.NoError(t, err)
	require.Equal(t, []any{"a", "b"}, out)
}

func testReparse(t *testing.T) {
	leaf := &model.DsLeaf{Source: &model.DsSource{Path: "/x"}, Selector: "data.value"}
	out, err := ParseResponse(leaf, "application/json", []byte(`{"data":"{\"value\":42}"}`))
	require.NoError(t, err)
	require.Equal(t, float64(42), out)
}

func testSelectorEach(t *testing.T) {
	leaf := &model.DsLeaf{Source: &model.DsSource{Path: "/x"}, Selector: "items", SelectorEach: "id"}
	out, err := ParseResponse(leaf, "application/json", []byte(`{"items":[{"id":"x"},{"id":"y"}]}`))
	require.NoError(t, err)
	require.Equal(t, []any{"x", "y"}, out)
}

func testTextBody(t *testing.T) {
	leaf := &model.DsLeaf{Source: &model.DsSource{Path: "/x"}}
	out, err := ParseResponse(leaf, "text/plain", []byte("pong"))
	require.NoError(t, err)
	require.Equal(t, "pong", out)
}

func testResponseCoerce(t *testing.T) {
	leaf := &model.DsLeaf{
		Source:   &model.DsSource{Path: "/x"},
		Selector: "amount",
		Coerce:   &model.CoerceSpec{Response: map[string]string{"amount": "int"}},
	}
	out, err := ParseResponse(leaf, "application/json", []byte(`{"amount":"1,500"}`))
	require.NoError(t, err)
	require.Equal(t, int64(1500), out)
}

func TestNextPageParam(t *testing.T) {
	paging := &model.PagingSpec{Strategy: model.PAGING_PAGE, TotalPagesField: "totalPages", PageSize: 10}

	next, ok := NextPageParam(paging, 1, 10, map[string]any{"totalPages": float64(3)})
	require.True(t, ok)
	require.Equal(t, 2, next)

	_, ok = NextPageParam(paging, 3, 4, map[string]any{"totalPages": float64(3)})
	require.False(t, ok)

	// explicit next-page field wins
	withNext := &model.PagingSpec{Strategy: model.PAGING_PAGE, NextPageField: "nextPage"}
	next, ok = NextPageParam(withNext, 1, 0, map[string]any{"nextPage": float64(5)})
	require.True(t, ok)
	require.Equal(t, 5, next)

	// heuristic: a full page means there may be more
	bare := &model.PagingSpec{Strategy: model.PAGING_PAGE, PageSize: 10}
	next, ok = NextPageParam(bare, 2, 10, map[string]any{})
	require.True(t, ok)
	require.Equal(t, 3, next)
	_, ok = NextPageParam(bare, 2, 7, map[string]any{})
	require.False(t, ok)
}

func TestNextCursorParam(t *testing.T) {
	paging := &model.PagingSpec{Strategy: model.PAGING_CURSOR, NextCursorField: "paging.cursor"}

	cursor, ok := NextCursorParam(paging, map[string]any{"paging": map[string]any{"cursor": "abc"}})
	require.True(t, ok)
	require.Equal(t, "abc", cursor)

	// conventional fallbacks
	cursor, ok = NextCursorParam(&model.PagingSpec{}, map[string]any{"next": "n1"})
	require.True(t, ok)
	require.Equal(t, "n1", cursor)

	_, ok = NextCursorParam(&model.PagingSpec{}, map[string]any{})
	require.False(t, ok)
}

func TestFetcherCaching(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results":[1,2,3]}`))
	}))
	defer srv.Close()

	fetcher := NewFetcher(testNetwork(srv.URL))
	callerCtx := map[string]any{"account": map[string]any{"address": "test1abc"}, "page": 1}

	out, err := fetcher.Fetch(context.Background(), "bank.balances", callerCtx)
	require.NoError(t, err)
	require.Equal(t, []any{float64(1), float64(2), float64(3)}, out)

	// within the staleness window the second fetch is served from cache
	_, err = fetcher.Fetch(context.Background(), "bank.balances", callerCtx)
	require.NoError(t, err)
	require.Equal(t, int32(1), atomic.LoadInt32(&calls))

	// a different context is a different cache key
	_, err = fetcher.Fetch(context.Background(), "bank.balances", map[string]any{"page": 2})
	require.NoError(t, err)
	require.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestFetchAllPages(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		switch body["page"] {
		case "1":
			w.Write([]byte(`{"results":[1,2],"totalPages":3}`))
		case "2":
			w.Write([]byte(`{"results":[3,4],"totalPages":3}`))
		default:
			w.Write([]byte(`{"results":[5],"totalPages":3}`))
		}
	}))
	defer srv.Close()

	network := testNetwork(srv.URL)
	network.Ds["delegations"] = map[string]any{
		"source": map[string]any{
			"path": "/delegations",
			"body": map[string]any{"page": "{{page}}"},
		},
		"paging": map[string]any{
			"strategy":        "page",
			"itemsField":      "results",
			"totalPagesField": "totalPages",
			"pageSize":        float64(2),
		},
	}

	out, err := NewFetcher(network).FetchAll(context.Background(), "delegations", nil)
	require.NoError(t, err)
	require.Equal(t, []any{float64(1), float64(2), float64(3), float64(4), float64(5)}, out)
	require.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestFetchAllCursor(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		if body["cursor"] == "c2" {
			w.Write([]byte(`{"items":["c"]}`))
			return
		}
		w.Write([]byte(`{"items":["a","b"],"next":"c2"}`))
	}))
	defer srv.Close()

	network := testNetwork(srv.URL)
	network.Ds["history"] = map[string]any{
		"source": map[string]any{
			"path": "/history",
			"body": map[string]any{"cursor": "{{cursor}}"},
		},
		"paging": map[string]any{
			"strategy":        "cursor",
			"itemsField":      "items",
			"nextCursorField": "next",
		},
	}

	out, err := NewFetcher(network).FetchAll(context.Background(), "history", nil)
	require.NoError(t, err)
	require.Equal(t, []any{"a", "b", "c"}, out)
}

func TestFetcherBackgroundRefetch(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"height":100}`))
	}))
	defer srv.Close()

	network := testNetwork(srv.URL)
	network.Ds["status"] = map[string]any{
		"source": map[string]any{"path": "/status"},
		"cache":  map[string]any{"staleSeconds": float64(300), "refetchSeconds": float64(5)},
	}

	fetcher := NewFetcher(network)
	now := time.Unix(1000000, 0)
	fetcher.now = func() time.Time { return now }

	_, err := fetcher.Fetch(context.Background(), "status", nil)
	require.NoError(t, err)
	require.Equal(t, int32(1), atomic.LoadInt32(&calls))

	// inside the refetch interval the cache serves alone
	now = now.Add(2 * time.Second)
	_, err = fetcher.Fetch(context.Background(), "status", nil)
	require.NoError(t, err)
	require.Equal(t, int32(1), atomic.LoadInt32(&calls))

	// past the interval the cached value is served and refreshed behind it
	now = now.Add(4 * time.Second)
	_, err = fetcher.Fetch(context.Background(), "status", nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return atomic.LoadInt32(&calls) == 2 }, time.Second, 5*time.Millisecond)
}

func TestFetcherNoRetryOnStatus(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	network := testNetwork(srv.URL)
	network.Ds["broken"] = map[string]any{
		"source": map[string]any{"path": "/broken"},
	}

	_, err := NewFetcher(network).Fetch(context.Background(), "broken", nil)
	require.Error(t, err)
	te, ok := err.(TransportError)
	require.True(t, ok)
	require.Equal(t, http.StatusInternalServerError, te.Status)
	// a definitive status is not retried
	require.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestFetcherUnknownKey(t *testing.T) {
	fetcher := NewFetcher(testNetwork("http://localhost"))
	_, err := fetcher.Fetch(context.Background(), "no.such.key", nil)
	require.Error(t, err)
	_, ok := err.(ResolutionError)
	require.True(t, ok)
}
