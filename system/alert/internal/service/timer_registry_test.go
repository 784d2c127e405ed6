package service

import (
	"testing"
	"time"

	"alerthub/pkg/clock"

	"github.com/stretchr/testify/assert"
)

func TestTimerRegistryFires(t *testing.T) {
	c := clock.NewFake(t0)
	r := NewTimerRegistry(c)

	var fired []uint64
	token := r.Schedule("A", time.Minute, func(tok uint64) {
		if r.Release("A", tok) {
			fired = append(fired, tok)
		}
	})
	assert.Equal(t, 1, r.Len())

	c.Advance(59 * time.Second)
	assert.Empty(t, fired)

	c.Advance(time.Second)
	assert.Equal(t, []uint64{token}, fired)
	assert.Equal(t, 0, r.Len())
}

func TestTimerRegistryReplace(t *testing.T) {
	c := clock.NewFake(t0)
	r := NewTimerRegistry(c)

	var fired []string
	r.Schedule("A", time.Minute, func(tok uint64) {
		if r.Release("A", tok) {
			fired = append(fired, "old")
		}
	})
	r.Schedule("A", 2*time.Minute, func(tok uint64) {
		if r.Release("A", tok) {
			fired = append(fired, "new")
		}
	})
	assert.Equal(t, 1, r.Len())

	c.Advance(5 * time.Minute)
	assert.Equal(t, []string{"new"}, fired)
}

func TestTimerRegistryCancel(t *testing.T) {
	c := clock.NewFake(t0)
	r := NewTimerRegistry(c)

	called := false
	r.Schedule("A", time.Minute, func(uint64) { called = true })

	assert.True(t, r.Cancel("A"))
	assert.False(t, r.Cancel("A"))
	assert.False(t, r.Has("A"))

	c.Advance(time.Hour)
	assert.False(t, called)
	assert.Equal(t, 0, c.Pending())
}

func TestTimerRegistryStaleRelease(t *testing.T) {
	r := NewTimerRegistry(clock.NewFake(t0))
	token := r.Schedule("A", time.Minute, func(uint64) {})

	assert.False(t, r.Release("A", token+1))
	assert.True(t, r.Has("A"))
	assert.True(t, r.Release("A", token))
	assert.False(t, r.Release("A", token))
}

func TestTimerRegistryCancelAll(t *testing.T) {
	c := clock.NewFake(t0)
	r := NewTimerRegistry(c)
	r.Schedule("A", time.Minute, func(uint64) {})
	r.Schedule("B", time.Minute, func(uint64) {})

	assert.Equal(t, 2, r.CancelAll())
	assert.Equal(t, 0, r.Len())
	assert.Equal(t, 0, c.Pending())
}
