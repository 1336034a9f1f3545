package assetcache

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/adityapw/fittrack/internal/telemetry/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeFetcher serves canned responses and can be switched to fail, as
// if the machine lost its network.
type fakeFetcher struct {
	mutex      sync.Mutex
	responses  map[string]*Response
	failing    bool
	fetchCount map[string]int
}

func newFakeFetcher() *fakeFetcher {
	f := &fakeFetcher{
		responses:  make(map[string]*Response),
		fetchCount: make(map[string]int),
	}
	for _, path := range PrecachePaths {
		f.responses[path] = okResponse("content of " + path)
	}
	return f
}

func okResponse(body string) *Response {
	return &Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": []string{"text/html"}},
		Body:       []byte(body),
	}
}

func (f *fakeFetcher) setFailing(failing bool) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.failing = failing
}

func (f *fakeFetcher) fetches(path string) int {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	return f.fetchCount[path]
}

func (f *fakeFetcher) Fetch(_ context.Context, path string) (*Response, error) {
	f.mutex.Lock()
	defer f.mutex.Unlock()
	f.fetchCount[path]++
	if f.failing {
		return nil, errors.New("network unreachable")
	}
	if resp, ok := f.responses[path]; ok {
		return resp, nil
	}
	return &Response{StatusCode: http.StatusNotFound, Header: make(http.Header)}, nil
}

func workerSetup(t *testing.T) (*Worker, *fakeFetcher, *Registry) {
	t.Helper()

	fetcher := newFakeFetcher()
	registry := NewRegistry()
	worker := NewWorker(NewWorkerParams{
		Version:  "fittrack-v6",
		Registry: registry,
		Fetcher:  fetcher,
		Metrics:  metrics.NewTestManager(),
	})
	return worker, fetcher, registry
}

func doRequest(worker *Worker, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	worker.ServeHTTP(rr, req)
	return rr
}

func TestWorker_InstallPrecachesAndActivates(t *testing.T) {
	worker, _, registry := workerSetup(t)

	// a stale region from a previous deploy
	registry.Open("fittrack-v5")

	assert.False(t, worker.Active())
	require.NoError(t, worker.Install(context.Background()))
	assert.True(t, worker.Active())

	// stale region swept, only the current one remains
	assert.Equal(t, []string{"fittrack-v6"}, registry.List())

	region, ok := registry.Get("fittrack-v6")
	require.True(t, ok)
	assert.Equal(t, int64(len(PrecachePaths)), region.EntryCount())
}

func TestWorker_Install_FetchFailure(t *testing.T) {
	worker, fetcher, _ := workerSetup(t)
	fetcher.setFailing(true)

	err := worker.Install(context.Background())
	require.Error(t, err)
	assert.False(t, worker.Active())
}

func TestWorker_NavigationServesCachedShell(t *testing.T) {
	worker, fetcher, _ := workerSetup(t)
	require.NoError(t, worker.Install(context.Background()))

	// network dies, navigation still gets the shell
	fetcher.setFailing(true)

	rr := doRequest(worker, "/workouts/some/route", map[string]string{"Sec-Fetch-Mode": "navigate"})
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "content of /index.html", rr.Body.String())

	// Accept header marks a navigation too
	rr = doRequest(worker, "/schedule", map[string]string{"Accept": "text/html,application/xhtml+xml"})
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "content of /index.html", rr.Body.String())
}

func TestWorker_AssetsAreCacheFirst(t *testing.T) {
	worker, fetcher, _ := workerSetup(t)
	fetcher.responses["/assets/app.12ab.js"] = okResponse("js bundle")
	require.NoError(t, worker.Install(context.Background()))

	rr := doRequest(worker, "/assets/app.12ab.js", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "js bundle", rr.Body.String())
	assert.Equal(t, 1, fetcher.fetches("/assets/app.12ab.js"))

	// second request comes from cache, no new fetch
	rr = doRequest(worker, "/assets/app.12ab.js", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "js bundle", rr.Body.String())
	assert.Equal(t, 1, fetcher.fetches("/assets/app.12ab.js"))

	// cached even when the network goes away
	fetcher.setFailing(true)
	rr = doRequest(worker, "/assets/app.12ab.js", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "js bundle", rr.Body.String())
}

func TestWorker_AssetFetchFailureYieldsEmptyResponse(t *testing.T) {
	worker, fetcher, _ := workerSetup(t)
	require.NoError(t, worker.Install(context.Background()))

	fetcher.setFailing(true)

	rr := doRequest(worker, "/assets/unknown.css", nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Empty(t, rr.Body.String())
}

func TestWorker_PrecachedPathsAreCacheOnly(t *testing.T) {
	worker, fetcher, _ := workerSetup(t)
	require.NoError(t, worker.Install(context.Background()))

	fetchesBefore := fetcher.fetches("/manifest.json")

	rr := doRequest(worker, "/manifest.json", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "content of /manifest.json", rr.Body.String())

	// cache-only: no network hit even though the fetcher works
	assert.Equal(t, fetchesBefore, fetcher.fetches("/manifest.json"))
}

func TestWorker_PrecachedPathMissIs404(t *testing.T) {
	worker, _, _ := workerSetup(t)
	// activate without installing, so the precache region is empty
	worker.Activate()

	rr := doRequest(worker, "/manifest.json", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestWorker_DefaultIsNetworkFirst(t *testing.T) {
	worker, fetcher, registry := workerSetup(t)
	fetcher.responses["/api-docs.json"] = okResponse("docs")
	require.NoError(t, worker.Install(context.Background()))

	rr := doRequest(worker, "/api-docs.json", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "docs", rr.Body.String())
	assert.Equal(t, 1, fetcher.fetches("/api-docs.json"))

	// network-first means the network is asked every time
	rr = doRequest(worker, "/api-docs.json", nil)
	assert.Equal(t, 2, fetcher.fetches("/api-docs.json"))

	// on failure the cached copy is the fallback
	region, ok := registry.Get("fittrack-v6")
	require.True(t, ok)
	require.NoError(t, region.Set("/api-docs.json", okResponse("docs")))
	fetcher.setFailing(true)

	rr = doRequest(worker, "/api-docs.json", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "docs", rr.Body.String())

	// no cached copy at all: unavailable
	rr = doRequest(worker, "/uncached.json", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestWorker_BeforeActivationGoesLive(t *testing.T) {
	worker, fetcher, _ := workerSetup(t)
	fetcher.responses["/assets/app.js"] = okResponse("bundle")

	rr := doRequest(worker, "/assets/app.js", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "bundle", rr.Body.String())
	assert.Equal(t, 1, fetcher.fetches("/assets/app.js"))

	// still not cached: the policy was not live yet
	rr = doRequest(worker, "/assets/app.js", nil)
	assert.Equal(t, 2, fetcher.fetches("/assets/app.js"))
}

func TestHandlerFetcher(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/index.html" {
			w.Header().Set("Content-Type", "text/html")
			_, _ = fmt.Fprint(w, "<html>shell</html>")
			return
		}
		http.Error(w, "not found", http.StatusNotFound)
	})

	fetcher := NewHandlerFetcher(handler)

	resp, err := fetcher.Fetch(context.Background(), "/index.html")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/html", resp.Header.Get("Content-Type"))
	assert.Equal(t, "<html>shell</html>", string(resp.Body))

	resp, err = fetcher.Fetch(context.Background(), "/nope")
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
