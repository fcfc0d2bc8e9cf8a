package cache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"ringtoned/model"
)

var (
	metadataHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ringtone_metadata_cache_hits_total",
		Help: "Sidecar metadata lookups served from memory.",
	})
	metadataMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ringtone_metadata_cache_misses_total",
		Help: "Sidecar metadata lookups that went to disk.",
	})
)

// MetadataCache keeps parsed sidecars keyed by their path so listing the
// library does not re-read every JSON file.
type MetadataCache struct {
	lru *expirable.LRU[string, *model.RingtoneMetadata]
}

// NewMetadataCache creates a cache holding at most size entries for ttl.
func NewMetadataCache(size int, ttl time.Duration) *MetadataCache {
	if size <= 0 {
		size = 512
	}
	return &MetadataCache{lru: expirable.NewLRU[string, *model.RingtoneMetadata](size, nil, ttl)}
}

func (c *MetadataCache) Get(path string) (*model.RingtoneMetadata, bool) {
	meta, ok := c.lru.Get(path)
	if ok {
		metadataHitsTotal.Inc()
		return meta, true
	}
	metadataMissesTotal.Inc()
	return nil, false
}

func (c *MetadataCache) Add(path string, meta *model.RingtoneMetadata) {
	c.lru.Add(path, meta)
}

// Remove drops an entry; called when the sidecar is rewritten or deleted.
func (c *MetadataCache) Remove(path string) {
	c.lru.Remove(path)
}

// Len is the number of live entries.
func (c *MetadataCache) Len() int {
	return c.lru.Len()
}
