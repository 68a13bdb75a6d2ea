package cache

import (
	"context"
	"errors"
	"testing"

	"ldserver/api/models"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

type fakePinger struct {
	err error
}

func (f *fakePinger) Ping(ctx context.Context) *redis.StatusCmd {
	return redis.NewStatusResult("PONG", f.err)
}

func TestDisabledCacheHasNoTarget(t *testing.T) {
	cs := NewCacheService(&models.Config{})
	assert.False(t, cs.Initialized)
	assert.False(t, cs.Probe(context.Background()))
	assert.Nil(t, cs.Target("genotype:1"))
}

func TestProbeFlipsHealth(t *testing.T) {
	fake := &fakePinger{}
	cs := &CacheService{enabled: true, address: "cache:6379", client: fake}

	assert.True(t, cs.Probe(context.Background()))
	target := cs.Target("genotype:1")
	if assert.NotNil(t, target) {
		assert.Equal(t, "cache:6379", target.Address)
		assert.Equal(t, "genotype:1", target.Key)
	}

	fake.err = errors.New("connection refused")
	assert.False(t, cs.Probe(context.Background()))
	assert.Nil(t, cs.Target("genotype:1"))
}
