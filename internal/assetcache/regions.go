package assetcache

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"sync"

	"github.com/coocood/freecache"
)

// regionCacheSize is generous for an app shell plus built assets.
const regionCacheSize = 32 * 1024 * 1024

// Response is a cached HTTP response, stored serialized in a region.
type Response struct {
	StatusCode int         `json:"statusCode"`
	Header     http.Header `json:"header"`
	Body       []byte      `json:"body"`
}

// Region is a named cache area holding responses keyed by request path.
// Region names are versioned, a new deploy opens a new region and the
// old one gets swept on activation.
type Region struct {
	name  string
	cache *freecache.Cache
}

func newRegion(name string) *Region {
	return &Region{
		name:  name,
		cache: freecache.NewCache(regionCacheSize),
	}
}

func (r *Region) Name() string {
	return r.name
}

func (r *Region) Get(path string) (*Response, bool) {
	respBytes, err := r.cache.Get([]byte(path))
	if err != nil {
		return nil, false
	}
	var resp Response
	if err := json.Unmarshal(respBytes, &resp); err != nil {
		return nil, false
	}
	return &resp, true
}

func (r *Region) Set(path string, resp *Response) error {
	respBytes, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("marshal cached response: %w", err)
	}
	// 0 expiry: entries live until the region is swept or evicted
	if err := r.cache.Set([]byte(path), respBytes, 0); err != nil {
		return fmt.Errorf("cache set [%s]: %w", path, err)
	}
	return nil
}

func (r *Region) EntryCount() int64 {
	return r.cache.EntryCount()
}

// Registry tracks all open cache regions by name.
type Registry struct {
	mutex   sync.RWMutex
	regions map[string]*Region
}

func NewRegistry() *Registry {
	return &Registry{
		regions: make(map[string]*Region),
	}
}

// Open returns the region with the given name, creating it if needed.
func (reg *Registry) Open(name string) *Region {
	reg.mutex.Lock()
	defer reg.mutex.Unlock()
	if region, ok := reg.regions[name]; ok {
		return region
	}
	region := newRegion(name)
	reg.regions[name] = region
	return region
}

func (reg *Registry) Get(name string) (*Region, bool) {
	reg.mutex.RLock()
	defer reg.mutex.RUnlock()
	region, ok := reg.regions[name]
	return region, ok
}

func (reg *Registry) Delete(name string) bool {
	reg.mutex.Lock()
	defer reg.mutex.Unlock()
	if _, ok := reg.regions[name]; !ok {
		return false
	}
	delete(reg.regions, name)
	return true
}

func (reg *Registry) List() []string {
	reg.mutex.RLock()
	defer reg.mutex.RUnlock()
	names := make([]string, 0, len(reg.regions))
	for name := range reg.regions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
