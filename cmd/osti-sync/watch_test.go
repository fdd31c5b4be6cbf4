package main

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/pdiddy/osti-sync/internal/logging"
)

func TestSerialJobSkipsOverlappingRuns(t *testing.T) {
	var runs atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	job := serialJob(func() {
		runs.Add(1)
		close(started)
		<-release
	}, cronLogger{log: logging.Nop})

	done := make(chan struct{})
	go func() {
		job.Run()
		close(done)
	}()
	<-started

	job.Run()
	assert.Equal(t, int32(1), runs.Load(), "second run started while the first was running")

	close(release)
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("first run did not finish")
	}
	assert.Equal(t, int32(1), runs.Load())
}
