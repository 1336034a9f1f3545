package assetcache

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/adityapw/fittrack/internal/telemetry/metrics"

	log "github.com/sirupsen/logrus"
	"go.uber.org/multierr"
)

// assetsPrefix is where the built, content-hashed files live.
const assetsPrefix = "/assets/"

// shellPath is the single-page app document served for navigations.
const shellPath = "/index.html"

// PrecachePaths is the fixed manifest stored into the versioned region
// before the worker activates.
var PrecachePaths = []string{
	"/",
	"/index.html",
	"/manifest.json",
	"/icons/icon.png",
}

type workerState int32

const (
	stateInstalling workerState = iota
	stateActive
)

// Worker serves static asset requests with the app's offline caching
// policy: navigations get the cached shell, built assets are
// cache-first, precached root documents are cache-only and everything
// else is network-first. It goes installing -> active without draining,
// and activation immediately governs in-flight traffic.
type Worker struct {
	version  string
	registry *Registry
	region   *Region
	fetcher  Fetcher
	metrics  *metrics.Manager
	state    atomic.Int32
}

type NewWorkerParams struct {
	// Version names the cache region, e.g. "fittrack-v6".
	Version  string
	Registry *Registry
	Fetcher  Fetcher
	Metrics  *metrics.Manager
}

func NewWorker(params NewWorkerParams) *Worker {
	w := &Worker{
		version:  params.Version,
		registry: params.Registry,
		region:   params.Registry.Open(params.Version),
		fetcher:  params.Fetcher,
		metrics:  params.Metrics,
	}
	w.state.Store(int32(stateInstalling))
	return w
}

// Install precaches the manifest into the versioned region and
// force-activates, no waiting for anything to drain.
func (w *Worker) Install(ctx context.Context) error {
	var errs error
	for _, path := range PrecachePaths {
		resp, err := w.fetcher.Fetch(ctx, path)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("precache fetch [%s]: %w", path, err))
			continue
		}
		if resp.StatusCode != http.StatusOK {
			errs = multierr.Append(errs, fmt.Errorf("precache fetch [%s]: status %d", path, resp.StatusCode))
			continue
		}
		if err := w.region.Set(path, resp); err != nil {
			errs = multierr.Append(errs, err)
		}
	}
	if errs != nil {
		return errs
	}

	w.Activate()
	return nil
}

// Activate sweeps every region not in the current allow-list and makes
// the policy live.
func (w *Worker) Activate() {
	for _, name := range w.registry.List() {
		if name == w.version {
			continue
		}
		if w.registry.Delete(name) {
			log.Debugf("asset cache: swept stale region [%s]", name)
		}
	}

	w.state.Store(int32(stateActive))
	log.Debugf("asset cache: worker [%s] active, %d entries precached", w.version, w.region.EntryCount())
}

func (w *Worker) Active() bool {
	return workerState(w.state.Load()) == stateActive
}

func (w *Worker) ServeHTTP(respWriter http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	path := req.URL.Path

	// before activation everything goes straight to the origin
	if !w.Active() {
		w.serveLive(ctx, respWriter, path)
		return
	}

	switch {
	case isNavigation(req):
		w.serveShell(ctx, respWriter)
	case strings.HasPrefix(path, assetsPrefix):
		w.serveCacheFirst(ctx, respWriter, path)
	case w.isPrecached(path):
		w.serveCacheOnly(respWriter, path)
	default:
		w.serveNetworkFirst(ctx, respWriter, path)
	}
}

// isNavigation recognizes full-page navigations the way browsers mark
// them; the Accept fallback covers clients without fetch metadata.
func isNavigation(req *http.Request) bool {
	if req.Method != http.MethodGet {
		return false
	}
	if req.Header.Get("Sec-Fetch-Mode") == "navigate" {
		return true
	}
	return strings.Contains(req.Header.Get("Accept"), "text/html")
}

func (w *Worker) isPrecached(path string) bool {
	for _, p := range PrecachePaths {
		if p == path {
			return true
		}
	}
	return false
}

func (w *Worker) serveShell(ctx context.Context, respWriter http.ResponseWriter) {
	if resp, ok := w.region.Get(shellPath); ok {
		w.countHit()
		writeResponse(respWriter, resp)
		return
	}

	w.countMiss()
	resp, err := w.fetcher.Fetch(ctx, shellPath)
	if err != nil {
		log.Errorf("asset cache: live shell fetch: %s", err)
		http.Error(respWriter, "app shell unavailable", http.StatusServiceUnavailable)
		return
	}
	writeResponse(respWriter, resp)
}

// serveCacheFirst returns the cached asset, fetching and storing it on
// a miss. A failed fetch yields an empty response, not an error page.
func (w *Worker) serveCacheFirst(ctx context.Context, respWriter http.ResponseWriter, path string) {
	if resp, ok := w.region.Get(path); ok {
		w.countHit()
		writeResponse(respWriter, resp)
		return
	}

	w.countMiss()
	resp, err := w.fetcher.Fetch(ctx, path)
	if err != nil {
		log.Debugf("asset cache: fetch [%s]: %s", path, err)
		respWriter.WriteHeader(http.StatusNoContent)
		return
	}

	if resp.StatusCode == http.StatusOK {
		if err := w.region.Set(path, resp); err != nil {
			log.Errorf("asset cache: store [%s]: %s", path, err)
		}
	}
	writeResponse(respWriter, resp)
}

func (w *Worker) serveCacheOnly(respWriter http.ResponseWriter, path string) {
	resp, ok := w.region.Get(path)
	if !ok {
		w.countMiss()
		http.Error(respWriter, "not found", http.StatusNotFound)
		return
	}
	w.countHit()
	writeResponse(respWriter, resp)
}

func (w *Worker) serveNetworkFirst(ctx context.Context, respWriter http.ResponseWriter, path string) {
	resp, err := w.fetcher.Fetch(ctx, path)
	if err == nil {
		w.countMiss()
		writeResponse(respWriter, resp)
		return
	}

	if cached, ok := w.region.Get(path); ok {
		w.countHit()
		writeResponse(respWriter, cached)
		return
	}

	http.Error(respWriter, "service unavailable", http.StatusServiceUnavailable)
}

func (w *Worker) serveLive(ctx context.Context, respWriter http.ResponseWriter, path string) {
	resp, err := w.fetcher.Fetch(ctx, path)
	if err != nil {
		http.Error(respWriter, "service unavailable", http.StatusServiceUnavailable)
		return
	}
	writeResponse(respWriter, resp)
}

func (w *Worker) countHit() {
	if w.metrics != nil {
		w.metrics.CounterAssetCacheHits.Inc()
	}
}

func (w *Worker) countMiss() {
	if w.metrics != nil {
		w.metrics.CounterAssetCacheMisses.Inc()
	}
}

func writeResponse(respWriter http.ResponseWriter, resp *Response) {
	for key, values := range resp.Header {
		for _, value := range values {
			respWriter.Header().Add(key, value)
		}
	}
	respWriter.WriteHeader(resp.StatusCode)
	if _, err := respWriter.Write(resp.Body); err != nil {
		log.Errorf("asset cache: write response: %s", err)
	}
}
