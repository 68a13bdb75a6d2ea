package cache

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"ldserver/api/models"
	"ldserver/api/services/engine"
	"ldserver/api/services/metrics"

	"github.com/go-co-op/gocron"
	"github.com/redis/go-redis/v9"
)

type pinger interface {
	Ping(ctx context.Context) *redis.StatusCmd
}

// CacheService tracks whether the segment cache is reachable. Requests made
// while it is down proceed without a cache rather than waiting on it.
type CacheService struct {
	Initialized bool

	enabled  bool
	address  string
	password string
	interval time.Duration

	client    pinger
	healthy   atomic.Bool
	scheduler *gocron.Scheduler
}

func NewCacheService(cfg *models.Config) *CacheService {
	cs := &CacheService{
		enabled:  cfg.Cache.Enabled,
		address:  cfg.Cache.RedisAddress,
		password: cfg.Cache.RedisPassword,
		interval: cfg.Cache.ProbeInterval,
	}
	if cs.enabled {
		cs.client = redis.NewClient(&redis.Options{
			Addr:        cs.address,
			Password:    cs.password,
			DialTimeout: 2 * time.Second,
			ReadTimeout: 2 * time.Second,
		})
	}

	cs.Init()

	return cs
}

func (cs *CacheService) Init() {
	if cs.Initialized || !cs.enabled {
		return
	}

	cs.Probe(context.Background())

	interval := cs.interval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	cs.scheduler = gocron.NewScheduler(time.UTC)
	cs.scheduler.Every(interval).Do(func() {
		cs.Probe(context.Background())
	})
	cs.scheduler.StartAsync()

	cs.Initialized = true
	fmt.Println("Cache Service Initialized ..")
}

// Probe pings the cache once and records the outcome.
func (cs *CacheService) Probe(ctx context.Context) bool {
	if !cs.enabled || cs.client == nil {
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	err := cs.client.Ping(ctx).Err()
	healthy := err == nil
	metrics.SetCacheAvailable(healthy)
	if cs.healthy.Swap(healthy) != healthy {
		if healthy {
			fmt.Printf("[%s] - Segment cache at %s is available\n", time.Now(), cs.address)
		} else {
			fmt.Printf("[%s] - Segment cache at %s is unavailable : %v\n", time.Now(), cs.address, err)
		}
	}
	return healthy
}

func (cs *CacheService) Healthy() bool {
	return cs.enabled && cs.healthy.Load()
}

// Target returns the cache endpoint to hand the engine, or nil when caching
// is disabled or the cache is down.
func (cs *CacheService) Target(key string) *engine.CacheTarget {
	if !cs.Healthy() {
		return nil
	}
	return &engine.CacheTarget{Address: cs.address, Password: cs.password, Key: key}
}

func (cs *CacheService) Stop() {
	if cs.scheduler != nil {
		cs.scheduler.Stop()
	}
}
