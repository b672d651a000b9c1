package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"modgraph/internal/gen"
	"modgraph/internal/graph"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryCache struct {
	mu      sync.Mutex
	entries map[string]*gen.Result
	gets    int
	sets    int
	failGet bool
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string]*gen.Result)}
}

func (slf *memoryCache) Get(_ context.Context, hash string) (*gen.Result, bool, error) {
	slf.mu.Lock()
	defer slf.mu.Unlock()
	slf.gets++
	if slf.failGet {
		return nil, false, errors.New("cache down")
	}
	r, ok := slf.entries[hash]
	return r, ok, nil
}

func (slf *memoryCache) Set(_ context.Context, hash string, result *gen.Result) error {
	slf.mu.Lock()
	defer slf.mu.Unlock()
	slf.sets++
	slf.entries[hash] = result
	return nil
}

type recordingPublisher struct {
	events []CompileEvent
	err    error
}

func (slf *recordingPublisher) Publish(_ context.Context, event CompileEvent) error {
	slf.events = append(slf.events, event)
	return slf.err
}

func printGraph(message string) *graph.Document {
	return &graph.Document{
		Version:  1,
		Metadata: graph.Metadata{Name: "Test Mod", ModID: "test_mod"},
		Nodes: []graph.Node{
			{
				ID: "srv", Type: "init-server", Category: "event",
				Outputs: []graph.Port{{ID: "out", Label: "out", Kind: graph.PortKindExec}},
			},
			{
				ID: "p", Type: "print",
				Inputs: []graph.Port{
					{ID: "in", Label: "in", Kind: graph.PortKindExec},
					{ID: "message", Label: "message", Kind: graph.PortKindData},
				},
				Outputs: []graph.Port{{ID: "out", Label: "out", Kind: graph.PortKindExec}},
				Data:    map[string]any{"message": message},
			},
		},
		Connections: []graph.Connection{
			{ID: "c1", From: graph.PortRef{NodeID: "srv", PortID: "out"}, To: graph.PortRef{NodeID: "p", PortID: "in"}},
		},
	}
}

func newTestService(cache CompileCache, pub EventPublisher) *CompileService {
	return NewCompileService(zerolog.Nop(), CompileServiceOptions{
		Cache:     cache,
		Publisher: pub,
		Origin:    "test-instance",
		MaxNodes:  10,
	})
}

func TestCompileService_CompileAndCache(t *testing.T) {
	cache := newMemoryCache()
	svc := newTestService(cache, nil)

	first, err := svc.Compile(context.Background(), printGraph("hi"))
	require.NoError(t, err)
	assert.False(t, first.Cached)
	assert.Contains(t, first.Source, `printt( "hi" )`)
	assert.Len(t, first.Hash, 64)
	assert.Equal(t, 1, cache.sets)

	second, err := svc.Compile(context.Background(), printGraph("hi"))
	require.NoError(t, err)
	assert.True(t, second.Cached)
	assert.Equal(t, first.Hash, second.Hash)
	assert.Equal(t, first.Source, second.Source)
	assert.Equal(t, 1, cache.sets)
}

func TestCompileService_MetadataDoesNotChangeHash(t *testing.T) {
	a := printGraph("hi")
	b := printGraph("hi")
	b.Metadata.Name = "Renamed"
	b.Metadata.Version = "2.0.0"

	types := gen.DefaultRegistry.Types()
	ha, err := HashDocument(a, types)
	require.NoError(t, err)
	hb, err := HashDocument(b, types)
	require.NoError(t, err)
	assert.Equal(t, ha, hb)

	hc, err := HashDocument(printGraph("other"), types)
	require.NoError(t, err)
	assert.NotEqual(t, ha, hc)
}

func TestCompileService_RegistryIsPartOfCacheKey(t *testing.T) {
	cache := newMemoryCache()
	stock := newTestService(cache, nil)

	custom := gen.DefaultRegistry.Clone()
	custom.Register("custom-noop", func(pc *gen.PassContext, node *graph.Node) (gen.EmitResult, error) {
		return gen.EmitResult{}, nil
	})
	extended := NewCompileService(zerolog.Nop(), CompileServiceOptions{Cache: cache, Registry: custom})

	first, err := stock.Compile(context.Background(), printGraph("hi"))
	require.NoError(t, err)
	second, err := extended.Compile(context.Background(), printGraph("hi"))
	require.NoError(t, err)

	assert.NotEqual(t, first.Hash, second.Hash)
	assert.False(t, second.Cached)
	assert.Equal(t, 2, cache.sets)
}

func TestCompileService_CacheFailureFallsBackToCompile(t *testing.T) {
	cache := newMemoryCache()
	cache.failGet = true
	svc := newTestService(cache, nil)

	out, err := svc.Compile(context.Background(), printGraph("hi"))
	require.NoError(t, err)
	assert.False(t, out.Cached)
	assert.Contains(t, out.Source, "void function ModServer_Init()")
}

func TestCompileService_ValidationError(t *testing.T) {
	svc := newTestService(nil, nil)
	doc := printGraph("hi")
	doc.Nodes[1].ID = "srv"

	_, err := svc.Compile(context.Background(), doc)
	var verr *graph.ValidationErrors
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, err.Error(), "duplicate id")
}

func TestCompileService_TooLarge(t *testing.T) {
	svc := NewCompileService(zerolog.Nop(), CompileServiceOptions{MaxNodes: 1})
	_, err := svc.Compile(context.Background(), printGraph("hi"))
	assert.ErrorIs(t, err, ErrGraphTooLarge)
}

func TestCompileService_CanceledContext(t *testing.T) {
	svc := newTestService(nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Compile(ctx, printGraph("hi"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCompileService_PublishesProjectEvents(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("nats down")}
	svc := newTestService(nil, pub)

	out, err := svc.CompileProject(context.Background(), "p-1", 9, printGraph("hi"))
	require.NoError(t, err, "publish failures are not compile failures")

	require.Len(t, pub.events, 1)
	ev := pub.events[0]
	assert.Equal(t, "p-1", ev.ProjectID)
	assert.Equal(t, uint(9), ev.UserID)
	assert.Equal(t, "test-instance", ev.Origin)
	assert.Equal(t, out.Hash, ev.Hash)
	assert.Equal(t, out.Source, ev.Source)
	assert.WithinDuration(t, time.Now(), ev.Timestamp, time.Minute)
}

func TestCompileService_ExportAndRecover(t *testing.T) {
	svc := newTestService(nil, nil)
	doc := printGraph("hi")

	script, out, err := svc.Export(context.Background(), doc)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(script, "// Mod: Test Mod\n"))
	assert.Contains(t, script, out.Source)

	recovered, err := svc.Recover(script)
	require.NoError(t, err)
	assert.Equal(t, doc.Metadata, recovered.Metadata)
	require.Len(t, recovered.Nodes, 2)
	assert.Equal(t, "print", recovered.Nodes[1].Type)
}

func TestCompileService_NodeTypes(t *testing.T) {
	svc := newTestService(nil, nil)
	types := svc.NodeTypes()
	assert.Contains(t, types, "print")
	assert.Contains(t, types, "thread")
	assert.IsIncreasing(t, types)
}

func TestLRUCache(t *testing.T) {
	cache := NewLRUCache(1, time.Minute)
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, "a", &gen.Result{Source: "a"}))
	require.NoError(t, cache.Set(ctx, "b", &gen.Result{Source: "b"}))

	_, ok, _ := cache.Get(ctx, "a")
	assert.False(t, ok)
	r, ok, _ := cache.Get(ctx, "b")
	require.True(t, ok)
	assert.Equal(t, "b", r.Source)
	assert.Equal(t, 1, cache.Len())
}

func TestTieredCache_BackFills(t *testing.T) {
	fast := newMemoryCache()
	slow := newMemoryCache()
	slow.entries["h"] = &gen.Result{Source: "cached"}
	tiered := TieredCache{fast, slow}

	r, ok, err := tiered.Get(context.Background(), "h")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "cached", r.Source)
	assert.Equal(t, "cached", fast.entries["h"].Source)

	_, ok, err = tiered.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.False(t, ok)
}
