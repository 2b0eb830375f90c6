package cache

import (
	"context"
	"strconv"

	"github.com/RishiKendai/shingle/internal/metrics"
	"github.com/RishiKendai/shingle/internal/plagiarism"
	"github.com/cespare/xxhash/v2"
)

// ResultCache stores comparison results by key.
type ResultCache interface {
	Get(ctx context.Context, key string) (*plagiarism.Result, bool)
	Set(ctx context.Context, key string, result *plagiarism.Result)
}

// Key derives a cache key from both texts and the engine options. Document
// order is significant.
func Key(text1, text2 string, opts plagiarism.Options) string {
	d := xxhash.New()
	_, _ = d.WriteString(string(opts.OffsetMode))
	_, _ = d.WriteString("|")
	_, _ = d.WriteString(strconv.Itoa(opts.MaxShingle))
	_, _ = d.WriteString("|")
	_, _ = d.WriteString(strconv.Itoa(len(text1)))
	_, _ = d.WriteString("|")
	_, _ = d.WriteString(text1)
	_, _ = d.WriteString(text2)
	return strconv.FormatUint(d.Sum64(), 16) + "-" + strconv.Itoa(len(text1)+len(text2))
}

type namedLayer struct {
	name  string
	cache ResultCache
}

// Tiered consults layers in order and back-fills faster layers on a hit.
type Tiered struct {
	layers  []namedLayer
	metrics *metrics.Recorder
}

// NewTiered returns an empty tiered cache. Add layers fastest first.
func NewTiered(rec *metrics.Recorder) *Tiered {
	return &Tiered{metrics: rec}
}

// Add appends a layer. Nil caches are ignored.
func (t *Tiered) Add(name string, c ResultCache) *Tiered {
	if c != nil {
		t.layers = append(t.layers, namedLayer{name: name, cache: c})
	}
	return t
}

func (t *Tiered) Get(ctx context.Context, key string) (*plagiarism.Result, bool) {
	for i, layer := range t.layers {
		result, ok := layer.cache.Get(ctx, key)
		if !ok {
			t.metrics.CacheRequest(layer.name, "miss")
			continue
		}
		t.metrics.CacheRequest(layer.name, "hit")
		for _, faster := range t.layers[:i] {
			faster.cache.Set(ctx, key, result)
		}
		return result, true
	}
	return nil, false
}

func (t *Tiered) Set(ctx context.Context, key string, result *plagiarism.Result) {
	for _, layer := range t.layers {
		layer.cache.Set(ctx, key, result)
	}
}
