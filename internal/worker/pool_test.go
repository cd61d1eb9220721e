package worker

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/baharkarakas/campus-lostfound/internal/logger"
)

func TestPool_RunsEverySubmittedJob(t *testing.T) {
	p := NewPool(3, logger.Discard())

	var n atomic.Int64
	for i := 0; i < 100; i++ {
		assert.True(t, p.Submit(func() { n.Add(1) }))
	}
	p.Stop()

	assert.EqualValues(t, 100, n.Load())
}

func TestPool_RecoversPanics(t *testing.T) {
	p := NewPool(1, logger.Discard())

	var ran atomic.Bool
	p.Submit(func() { panic("boom") })
	p.Submit(func() { ran.Store(true) })
	p.Stop()

	assert.True(t, ran.Load(), "worker keeps going after a panic")
}

func TestPool_SubmitAfterStop(t *testing.T) {
	p := NewPool(0, logger.Discard())
	p.Stop()
	p.Stop()

	assert.False(t, p.Submit(func() {}))
}

func TestPool_FullQueueRefuses(t *testing.T) {
	p := NewPool(1, logger.Discard())
	block := make(chan struct{})
	started := make(chan struct{})
	p.Submit(func() { close(started); <-block })
	<-started

	accepted := 0
	for i := 0; i < queueSize+10; i++ {
		if p.Submit(func() {}) {
			accepted++
		}
	}
	close(block)
	p.Stop()

	assert.Equal(t, queueSize, accepted)
}
