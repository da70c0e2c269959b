// registry.go — реестр недавних скачиваний.
// Обёртка над hashicorp/golang-lru/v2/expirable: записи живут TTL,
// при переполнении вытесняются самые старые. Не переживает рестарт.
package service

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bigkaa/mediafetch/internal/domain/model"
)

// Prometheus-метрики реестра.
var (
	registryHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mf_registry_hits_total",
		Help: "Количество найденных записей в реестре скачиваний.",
	})
	registryMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mf_registry_misses_total",
		Help: "Количество запросов к отсутствующим записям реестра скачиваний.",
	})
)

// Registry — in-memory реестр DownloadRecord по download_id.
type Registry struct {
	cache *expirable.LRU[string, *model.DownloadRecord]
}

// NewRegistry создаёт реестр на maxSize записей с временем жизни ttl.
func NewRegistry(maxSize int, ttl time.Duration) *Registry {
	return &Registry{
		cache: expirable.NewLRU[string, *model.DownloadRecord](maxSize, nil, ttl),
	}
}

// Get возвращает копию записи по download_id.
func (r *Registry) Get(downloadID string) (*model.DownloadRecord, bool) {
	rec, ok := r.cache.Get(downloadID)
	if !ok {
		registryMissesTotal.Inc()
		return nil, false
	}
	registryHitsTotal.Inc()
	cp := *rec
	return &cp, true
}

// Put сохраняет копию записи.
func (r *Registry) Put(rec *model.DownloadRecord) {
	cp := *rec
	r.cache.Add(rec.DownloadID, &cp)
}

// Len возвращает число живых записей.
func (r *Registry) Len() int {
	return r.cache.Len()
}
