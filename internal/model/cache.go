package model

import (
	"container/list"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/couchcryptid/rainfall-ews/internal/domain"
	"github.com/couchcryptid/rainfall-ews/internal/observability"
)

// CachedClassifier wraps a Classifier with an in-memory LRU cache keyed by the
// feature row.
type CachedClassifier struct {
	inner   domain.Classifier
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedClassifier creates a cache decorator around a classifier. It returns
// inner unchanged when maxEntries is not positive.
func NewCachedClassifier(inner domain.Classifier, maxEntries int, metrics *observability.Metrics) domain.Classifier {
	if maxEntries <= 0 {
		return inner
	}
	return &CachedClassifier{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

func (c *CachedClassifier) PredictProba(row []float64) ([]float64, error) {
	key := rowKey(row)
	if proba, ok := c.cache.get(key); ok {
		c.observe("hit")
		return slices.Clone(proba), nil
	}
	c.observe("miss")

	proba, err := c.inner.PredictProba(row)
	if err != nil {
		return nil, err
	}
	c.cache.put(key, slices.Clone(proba))
	return proba, nil
}

func (c *CachedClassifier) observe(result string) {
	if c.metrics != nil {
		c.metrics.ClassifierCache.WithLabelValues(result).Inc()
	}
}

func rowKey(row []float64) string {
	var b strings.Builder
	for i, v := range row {
		if i > 0 {
			b.WriteByte('|')
		}
		b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
	}
	return b.String()
}

// lruCache is a mutex-guarded LRU of probability pairs. The front of order is
// the most recently used row.
type lruCache struct {
	mu      sync.Mutex
	limit   int
	order   *list.List
	entries map[string]*list.Element
}

type cached struct {
	key   string
	proba []float64
}

func newLRUCache(limit int) *lruCache {
	return &lruCache{
		limit:   limit,
		order:   list.New(),
		entries: make(map[string]*list.Element, limit),
	}
}

func (c *lruCache) get(key string) ([]float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cached).proba, true
}

func (c *lruCache) put(key string, proba []float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		el.Value.(*cached).proba = proba
		c.order.MoveToFront(el)
		return
	}

	c.entries[key] = c.order.PushFront(&cached{key: key, proba: proba})
	for c.order.Len() > c.limit {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cached).key)
	}
}
