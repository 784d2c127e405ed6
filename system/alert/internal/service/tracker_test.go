package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTrackerRetire(t *testing.T) {
	tracker := NewTracker()
	tracker.Track(testAlert("A", t0))
	tracker.Track(testAlert("B", t0))

	tracker.Retire("A", t0.Add(time.Minute))
	assert.Nil(t, tracker.Get("A"))
	assert.Equal(t, 1, tracker.Len())

	at, ok := tracker.RetiredAt("A")
	assert.True(t, ok)
	assert.True(t, t0.Add(time.Minute).Equal(at))
	_, ok = tracker.RetiredAt("B")
	assert.False(t, ok)

	assert.Equal(t, 0, tracker.PruneRetired(t0))
	assert.Equal(t, 1, tracker.PruneRetired(t0.Add(time.Hour)))
	_, ok = tracker.RetiredAt("A")
	assert.False(t, ok)
}

func TestTrackerTrackReturnsExisting(t *testing.T) {
	tracker := NewTracker()
	first, added := tracker.Track(testAlert("A", t0))
	assert.True(t, added)

	again, added := tracker.Track(testAlert("A", t0.Add(time.Minute)))
	assert.False(t, added)
	assert.Same(t, first, again)
	assert.True(t, t0.Equal(again.Snapshot().Timestamp))
}
