package observability

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	p := NoopPipelineHooks{}
	p.OnTransformStart(ctx, "symbolic", 16)
	p.OnTransformComplete(ctx, "symbolic", 64, time.Second, nil)
	p.OnRenderStart(ctx, []string{"svg"})
	p.OnRenderComplete(ctx, []string{"svg"}, time.Second, nil)

	c := NoopCacheHooks{}
	c.OnCacheHit(ctx, "grid")
	c.OnCacheMiss(ctx, "artifact")
	c.OnCacheSet(ctx, "artifact", 1024)

	h := NoopHTTPHooks{}
	h.OnRequest(ctx, "POST", "/v1/render")
	h.OnResponse(ctx, "POST", "/v1/render", 200, time.Second)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()

	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Pipeline() should return NoopPipelineHooks by default")
	}
	if _, ok := Cache().(NoopCacheHooks); !ok {
		t.Error("Cache() should return NoopCacheHooks by default")
	}
	if _, ok := HTTP().(NoopHTTPHooks); !ok {
		t.Error("HTTP() should return NoopHTTPHooks by default")
	}

	customPipeline := &testPipelineHooks{}
	SetPipelineHooks(customPipeline)
	if Pipeline() != customPipeline {
		t.Error("SetPipelineHooks should set custom hooks")
	}

	customCache := &testCacheHooks{}
	SetCacheHooks(customCache)
	if Cache() != customCache {
		t.Error("SetCacheHooks should set custom hooks")
	}

	customHTTP := &testHTTPHooks{}
	SetHTTPHooks(customHTTP)
	if HTTP() != customHTTP {
		t.Error("SetHTTPHooks should set custom hooks")
	}

	Reset()
	if _, ok := Pipeline().(NoopPipelineHooks); !ok {
		t.Error("Reset() should restore NoopPipelineHooks")
	}
}

func TestSetNilHooksIsIgnored(t *testing.T) {
	Reset()

	custom := &testPipelineHooks{}
	SetPipelineHooks(custom)

	SetPipelineHooks(nil)

	if Pipeline() != custom {
		t.Error("SetPipelineHooks(nil) should be ignored")
	}

	Reset()
}

func TestRecorder(t *testing.T) {
	ctx := context.Background()
	r := NewRecorder()

	r.OnTransformComplete(ctx, "symbolic", 4, time.Millisecond, nil)
	r.OnTransformComplete(ctx, "flatten", 9, time.Millisecond, nil)
	r.OnTransformComplete(ctx, "symbolic", 0, 0, errors.New("boom"))
	r.OnRenderComplete(ctx, []string{"svg", "png"}, time.Millisecond, nil)
	r.OnCacheHit(ctx, "grid")
	r.OnCacheMiss(ctx, "artifact")
	r.OnCacheMiss(ctx, "artifact")
	r.OnCacheSet(ctx, "artifact", 100)
	r.OnRequest(ctx, "GET", "/healthz")
	r.OnResponse(ctx, "GET", "/healthz", 200, time.Millisecond)

	s := r.Snapshot()
	if s.Transforms != 3 || s.TransformErrors != 1 || s.Blocks != 13 {
		t.Errorf("transform counters = %+v", s)
	}
	if s.TransformTime != 2*time.Millisecond {
		t.Errorf("TransformTime = %v", s.TransformTime)
	}
	if s.Renders != 2 {
		t.Errorf("Renders = %d, want 2", s.Renders)
	}
	if s.CacheHits["grid"] != 1 || s.CacheMisses["artifact"] != 2 || s.CacheBytes != 100 {
		t.Errorf("cache counters = %+v", s)
	}
	if s.Requests != 1 || s.Responses[200] != 1 {
		t.Errorf("http counters = %+v", s)
	}

	// Snapshots are copies.
	s.CacheHits["grid"] = 99
	if r.Snapshot().CacheHits["grid"] != 1 {
		t.Error("Snapshot shares map storage with the recorder")
	}
}

func TestRecorderConcurrent(t *testing.T) {
	ctx := context.Background()
	r := NewRecorder()
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				r.OnCacheHit(ctx, "grid")
				r.OnRequest(ctx, "GET", "/")
			}
		}()
	}
	wg.Wait()
	if s := r.Snapshot(); s.CacheHits["grid"] != 1000 || s.Requests != 1000 {
		t.Errorf("lost updates: %+v", s)
	}
}

// Test implementations
type testPipelineHooks struct{ NoopPipelineHooks }
type testCacheHooks struct{ NoopCacheHooks }
type testHTTPHooks struct{ NoopHTTPHooks }
