// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"context"
	"errors"
	"io"
	"math/rand"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// chunkReader returns one chunk per Read, then end (io.EOF when nil).
type chunkReader struct {
	chunks [][]byte
	end    error
	closed bool
}

func newChunkReader(end error, chunks ...string) *chunkReader {
	r := &chunkReader{end: end}
	for _, c := range chunks {
		r.chunks = append(r.chunks, []byte(c))
	}
	return r
}

func (r *chunkReader) Read(p []byte) (int, error) {
	if len(r.chunks) == 0 {
		if r.end != nil {
			return 0, r.end
		}
		return 0, io.EOF
	}
	n := copy(p, r.chunks[0])
	if n < len(r.chunks[0]) {
		r.chunks[0] = r.chunks[0][n:]
	} else {
		r.chunks = r.chunks[1:]
	}
	return n, nil
}

func (r *chunkReader) Close() error {
	r.closed = true
	return nil
}

// stepClock advances by step on every call.
type stepClock struct {
	mu   sync.Mutex
	t    time.Time
	step time.Duration
}

func newStepClock(step time.Duration) *stepClock {
	return &stepClock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), step: step}
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(c.step)
	return c.t
}

type timedSnapshot struct {
	Snapshot
	at time.Time
}

func collect(t *testing.T, c *Consumer) ([]Snapshot, error) {
	t.Helper()
	var snaps []Snapshot
	err := c.Process(context.Background(), func(s Snapshot) {
		snaps = append(snaps, s)
	})
	return snaps, err
}

func splitAt(s string, cuts []int) []string {
	var parts []string
	prev := 0
	for _, c := range cuts {
		parts = append(parts, s[prev:c])
		prev = c
	}
	return append(parts, s[prev:])
}

// =============================================================================
// COMPLETENESS
// =============================================================================

func TestConsumer_TerminalEqualsConcatenation_AnyChunking(t *testing.T) {
	const body = "Sure, here are candidates: Jürgen (Go, Berlin) – 5y; 李雷 – 3y 🚀\nDone."
	rng := rand.New(rand.NewSource(42))

	for trial := 0; trial < 200; trial++ {
		// Random byte offsets, deliberately ignoring rune boundaries.
		var cuts []int
		for i := 1; i < len(body); i++ {
			if rng.Intn(4) == 0 {
				cuts = append(cuts, i)
			}
		}
		chunks := splitAt(body, cuts)

		c := NewConsumer(newChunkReader(nil, chunks...), WithClock(newStepClock(time.Millisecond).Now))
		snaps, err := collect(t, c)
		require.NoError(t, err)
		require.NotEmpty(t, snaps)

		last := snaps[len(snaps)-1]
		require.True(t, last.Final, "trial %d: last snapshot must be terminal", trial)
		require.Equal(t, body, last.Text, "trial %d: chunks=%q", trial, chunks)

		for i, s := range snaps[:len(snaps)-1] {
			assert.False(t, s.Final, "only the last snapshot is terminal")
			assert.True(t, strings.HasPrefix(body, s.Text), "snapshot %d is not a prefix", i)
			assert.NotContains(t, s.Text, "�", "split rune leaked as replacement char")
		}
	}
}

func TestConsumer_SingleByteChunks(t *testing.T) {
	const body = "naïve café – ok"
	var chunks []string
	for i := 0; i < len(body); i++ {
		chunks = append(chunks, body[i:i+1])
	}

	c := NewConsumer(newChunkReader(nil, chunks...), WithClock(newStepClock(100*time.Millisecond).Now))
	snaps, err := collect(t, c)
	require.NoError(t, err)
	assert.Equal(t, body, snaps[len(snaps)-1].Text)
}

func TestConsumer_EmptyBody(t *testing.T) {
	c := NewConsumer(newChunkReader(nil))
	snaps, err := collect(t, c)
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, Snapshot{Text: "", Final: true, Seq: 1}, snaps[0])
}

func TestConsumer_InvalidBytesReplaced(t *testing.T) {
	c := NewConsumer(newChunkReader(nil, "ok\xff", "fine\xe2\x82"))
	snaps, err := collect(t, c)
	require.NoError(t, err)
	assert.Equal(t, "ok�fine�", snaps[len(snaps)-1].Text)
}

// =============================================================================
// THROTTLING
// =============================================================================

func TestConsumer_NonTerminalSnapshotsAreSpaced(t *testing.T) {
	chunks := make([]string, 100)
	for i := range chunks {
		chunks[i] = "token "
	}
	clock := newStepClock(7 * time.Millisecond)

	var snaps []timedSnapshot
	var lastAt time.Time
	c := NewConsumer(newChunkReader(nil, chunks...), WithClock(func() time.Time {
		lastAt = clock.Now()
		return lastAt
	}))
	err := c.Process(context.Background(), func(s Snapshot) {
		snaps = append(snaps, timedSnapshot{s, lastAt})
	})
	require.NoError(t, err)
	require.Greater(t, len(snaps), 2)

	var prev *timedSnapshot
	for i := range snaps {
		s := &snaps[i]
		if s.Final {
			continue
		}
		if prev != nil {
			gap := s.at.Sub(prev.at)
			assert.GreaterOrEqual(t, gap, DefaultInterval, "snapshots %d and %d too close", prev.Seq, s.Seq)
		}
		prev = s
	}
	assert.Equal(t, strings.Repeat("token ", 100), snaps[len(snaps)-1].Text)
}

func TestConsumer_TerminalNotThrottled(t *testing.T) {
	// Everything arrives within a single interval.
	c := NewConsumer(newChunkReader(nil, "a", "b", "c"), WithClock(newStepClock(time.Millisecond).Now))
	snaps, err := collect(t, c)
	require.NoError(t, err)

	require.Len(t, snaps, 2, "first pull is flushed immediately, the rest only at the end")
	assert.Equal(t, Snapshot{Text: "a", Seq: 1}, snaps[0])
	assert.Equal(t, Snapshot{Text: "abc", Final: true, Seq: 2}, snaps[1])
}

func TestConsumer_CustomInterval(t *testing.T) {
	clock := newStepClock(10 * time.Millisecond)
	c := NewConsumer(newChunkReader(nil, "a", "b", "c", "d"), WithInterval(15*time.Millisecond), WithClock(clock.Now))
	snaps, err := collect(t, c)
	require.NoError(t, err)

	// t=10 a (flush), t=20 b (held), t=30 c (flush), t=40 d (held), t=50 final.
	texts := make([]string, len(snaps))
	for i, s := range snaps {
		texts[i] = s.Text
	}
	assert.Equal(t, []string{"a", "abc", "abcd"}, texts)
}

func TestConsumer_BufferSizeBoundsEachRead(t *testing.T) {
	const body = "candidates: ana, ben, chi"
	c := NewConsumer(newChunkReader(nil, body), WithBufferSize(4), WithClock(newStepClock(time.Second).Now))
	snaps, err := collect(t, c)
	require.NoError(t, err)

	require.NotEmpty(t, snaps)
	assert.Equal(t, body, snaps[len(snaps)-1].Text)
	prev := 0
	for _, s := range snaps[:len(snaps)-1] {
		assert.LessOrEqual(t, len(s.Text)-prev, 4)
		prev = len(s.Text)
	}
	assert.Greater(t, len(snaps), len(body)/4)
}

func TestConsumer_LengthsMonotonic(t *testing.T) {
	c := NewConsumer(newChunkReader(nil, "one ", "two ", "three ", "four"), WithClock(newStepClock(60*time.Millisecond).Now))
	snaps, err := collect(t, c)
	require.NoError(t, err)
	for i := 1; i < len(snaps); i++ {
		assert.GreaterOrEqual(t, len(snaps[i].Text), len(snaps[i-1].Text))
		assert.Equal(t, snaps[i-1].Seq+1, snaps[i].Seq)
	}
}

// =============================================================================
// FAILURE
// =============================================================================

func TestConsumer_TruncatedAfterTenBytes(t *testing.T) {
	boom := errors.New("connection reset")
	c := NewConsumer(newChunkReader(boom, "Sure, here"), WithClock(newStepClock(time.Millisecond).Now))

	snaps, err := collect(t, c)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTruncated)
	assert.ErrorIs(t, err, boom)
	assert.True(t, IsTruncated(err))

	var te *TruncatedError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, 10, te.Received)

	for _, s := range snaps {
		assert.False(t, s.Final, "no terminal snapshot after a failure")
	}

	_, again := c.Next(context.Background())
	assert.Equal(t, err, again, "failure is sticky")
	assert.True(t, c.State().Terminated)
}

func TestConsumer_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewConsumer(newChunkReader(nil, "never"))
	err := c.Process(ctx, func(Snapshot) { t.Fatal("no snapshot expected") })
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, IsTruncated(err))
}

// =============================================================================
// LIFECYCLE
// =============================================================================

func TestConsumer_SingleUse(t *testing.T) {
	c := NewConsumer(newChunkReader(nil, "x"))
	_, err := collect(t, c)
	require.NoError(t, err)

	err = c.Process(context.Background(), func(Snapshot) {})
	assert.ErrorIs(t, err, ErrConsumed)

	_, err = c.Next(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestConsumer_AllIterator(t *testing.T) {
	c := NewConsumer(newChunkReader(nil, "hello ", "world"), WithClock(newStepClock(time.Second).Now))

	var texts []string
	for snap, err := range c.All(context.Background()) {
		require.NoError(t, err)
		texts = append(texts, snap.Text)
	}
	assert.Equal(t, []string{"hello ", "hello world", "hello world"}, texts)

	for _, err := range c.All(context.Background()) {
		assert.ErrorIs(t, err, ErrConsumed)
	}
}

func TestConsumer_StateAndClose(t *testing.T) {
	r := newChunkReader(nil, "abc")
	c := NewConsumer(r)
	_, err := collect(t, c)
	require.NoError(t, err)

	st := c.State()
	assert.Equal(t, "abc", st.Accumulated)
	assert.True(t, st.Terminated)
	assert.False(t, st.LastFlush.IsZero())

	require.NoError(t, c.Close())
	assert.True(t, r.closed)
}
