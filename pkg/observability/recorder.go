package observability

import (
	"context"
	"sync"
	"time"
)

// Recorder counts events in memory. It implements every hook interface and
// is safe for concurrent use.
type Recorder struct {
	mu sync.Mutex
	s  Snapshot
}

// Snapshot is a point-in-time copy of a Recorder's counters.
type Snapshot struct {
	Transforms      int            `json:"transforms"`
	TransformErrors int            `json:"transform_errors"`
	Blocks          int            `json:"blocks"`
	TransformTime   time.Duration  `json:"transform_time_ns"`
	Renders         int            `json:"renders"`
	RenderErrors    int            `json:"render_errors"`
	CacheHits       map[string]int `json:"cache_hits"`
	CacheMisses     map[string]int `json:"cache_misses"`
	CacheBytes      int            `json:"cache_bytes_written"`
	Requests        int            `json:"requests"`
	Responses       map[int]int    `json:"responses"`
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{s: Snapshot{
		CacheHits:   map[string]int{},
		CacheMisses: map[string]int{},
		Responses:   map[int]int{},
	}}
}

// Snapshot returns a copy of the current counters.
func (r *Recorder) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.s
	s.CacheHits = copyMap(r.s.CacheHits)
	s.CacheMisses = copyMap(r.s.CacheMisses)
	s.Responses = copyMap(r.s.Responses)
	return s
}

func copyMap[K comparable](m map[K]int) map[K]int {
	out := make(map[K]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (r *Recorder) OnTransformStart(context.Context, string, int) {}

func (r *Recorder) OnTransformComplete(_ context.Context, _ string, blocks int, d time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.s.Transforms++
	if err != nil {
		r.s.TransformErrors++
		return
	}
	r.s.Blocks += blocks
	r.s.TransformTime += d
}

func (r *Recorder) OnRenderStart(context.Context, []string) {}

func (r *Recorder) OnRenderComplete(_ context.Context, formats []string, _ time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.s.Renders += len(formats)
	if err != nil {
		r.s.RenderErrors++
	}
}

func (r *Recorder) OnCacheHit(_ context.Context, keyType string) {
	r.mu.Lock()
	r.s.CacheHits[keyType]++
	r.mu.Unlock()
}

func (r *Recorder) OnCacheMiss(_ context.Context, keyType string) {
	r.mu.Lock()
	r.s.CacheMisses[keyType]++
	r.mu.Unlock()
}

func (r *Recorder) OnCacheSet(_ context.Context, _ string, size int) {
	r.mu.Lock()
	r.s.CacheBytes += size
	r.mu.Unlock()
}

func (r *Recorder) OnRequest(context.Context, string, string) {
	r.mu.Lock()
	r.s.Requests++
	r.mu.Unlock()
}

func (r *Recorder) OnResponse(_ context.Context, _, _ string, status int, _ time.Duration) {
	r.mu.Lock()
	r.s.Responses[status]++
	r.mu.Unlock()
}

var (
	_ PipelineHooks = (*Recorder)(nil)
	_ CacheHooks    = (*Recorder)(nil)
	_ HTTPHooks     = (*Recorder)(nil)
)
