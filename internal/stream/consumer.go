// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"
	"sync"
	"time"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
	"golang.org/x/time/rate"
)

// DefaultInterval is the minimum spacing of non-terminal snapshots.
const DefaultInterval = 50 * time.Millisecond

const defaultBufferSize = 4096

// =============================================================================
// ERRORS
// =============================================================================

// ErrConsumed is returned when a consumer is driven a second time.
var ErrConsumed = errors.New("stream: consumer already used")

// TruncatedError reports a body that failed before completion.
type TruncatedError struct {
	// Received is the number of decoded bytes accumulated before the failure.
	Received int
	Cause    error
}

func (e *TruncatedError) Error() string {
	return fmt.Sprintf("stream truncated after %d bytes: %v", e.Received, e.Cause)
}

func (e *TruncatedError) Unwrap() error {
	return e.Cause
}

// ErrTruncated matches any *TruncatedError with errors.Is.
var ErrTruncated = &TruncatedError{}

// Is matches ErrTruncated.
func (e *TruncatedError) Is(target error) bool {
	return target == ErrTruncated
}

// IsTruncated reports whether err is a stream truncation.
func IsTruncated(err error) bool {
	var te *TruncatedError
	return errors.As(err, &te)
}

// =============================================================================
// SNAPSHOT
// =============================================================================

// Snapshot is the full text accumulated at one point in the stream.
type Snapshot struct {
	Text string
	// Final marks the terminal snapshot; its Text is the complete body.
	Final bool
	// Seq numbers snapshots from 1.
	Seq int
}

// State describes the consumer's progress.
type State struct {
	Accumulated string
	LastFlush   time.Time
	Snapshots   int
	Terminated  bool
}

// =============================================================================
// CONSUMER
// =============================================================================

// Option configures a Consumer.
type Option func(*Consumer)

// WithInterval sets the snapshot throttle interval.
func WithInterval(d time.Duration) Option {
	return func(c *Consumer) {
		if d > 0 {
			c.interval = d
		}
	}
}

// WithClock injects the time source used for throttling.
func WithClock(now func() time.Time) Option {
	return func(c *Consumer) {
		if now != nil {
			c.now = now
		}
	}
}

// WithBufferSize sets the read buffer size.
func WithBufferSize(n int) Option {
	return func(c *Consumer) {
		if n > 0 {
			c.bufSize = n
		}
	}
}

// Consumer reads one response body. It is single-use and not restartable.
type Consumer struct {
	src      io.Reader
	r        io.Reader
	buf      []byte
	bufSize  int
	interval time.Duration
	now      func() time.Time
	limiter  *rate.Limiter

	// readMu serialises Next; mu guards the fields below so State stays
	// available while a read is blocked.
	readMu sync.Mutex

	mu        sync.Mutex
	text      strings.Builder
	lastLen   int
	lastFlush time.Time
	seq       int
	started   bool
	done      bool
	err       error
}

// NewConsumer wraps body. The body is decoded incrementally as UTF-8;
// a multi-byte sequence split across reads is held until it completes.
func NewConsumer(body io.Reader, opts ...Option) *Consumer {
	c := &Consumer{
		src:      body,
		bufSize:  defaultBufferSize,
		interval: DefaultInterval,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.r = transform.NewReader(body, unicode.UTF8.NewDecoder())
	c.buf = make([]byte, c.bufSize)
	c.limiter = rate.NewLimiter(rate.Every(c.interval), 1)
	return c
}

// Next blocks until the next snapshot is due. After the terminal snapshot
// it returns io.EOF. A read failure is returned as a *TruncatedError, and a
// cancelled ctx as ctx.Err(); in both cases no terminal snapshot follows.
func (c *Consumer) Next(ctx context.Context) (Snapshot, error) {
	c.readMu.Lock()
	defer c.readMu.Unlock()

	c.mu.Lock()
	done, failed := c.done, c.err
	c.mu.Unlock()
	if done {
		return Snapshot{}, io.EOF
	}
	if failed != nil {
		return Snapshot{}, failed
	}

	for {
		if err := ctx.Err(); err != nil {
			return Snapshot{}, c.fail(err)
		}

		n, err := c.r.Read(c.buf)

		c.mu.Lock()
		if n > 0 {
			c.text.Write(c.buf[:n])
		}
		if err == io.EOF {
			c.done = true
			snap := c.emitLocked(c.now(), true)
			c.mu.Unlock()
			return snap, nil
		}
		if err == nil {
			now := c.now()
			if c.text.Len() > c.lastLen && c.limiter.AllowN(now, 1) {
				snap := c.emitLocked(now, false)
				c.mu.Unlock()
				return snap, nil
			}
		}
		received := c.text.Len()
		c.mu.Unlock()

		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return Snapshot{}, c.fail(ctxErr)
			}
			return Snapshot{}, c.fail(&TruncatedError{Received: received, Cause: err})
		}
	}
}

func (c *Consumer) fail(err error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
	return err
}

func (c *Consumer) emitLocked(now time.Time, final bool) Snapshot {
	c.seq++
	c.lastLen = c.text.Len()
	c.lastFlush = now
	return Snapshot{Text: c.text.String(), Final: final, Seq: c.seq}
}

// Process drives the consumer to completion, calling fn for every snapshot.
// It returns nil once the terminal snapshot has been delivered.
func (c *Consumer) Process(ctx context.Context, fn func(Snapshot)) error {
	if err := c.claim(); err != nil {
		return err
	}
	for {
		snap, err := c.Next(ctx)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		fn(snap)
	}
}

// All returns the snapshots as an iterator. Iteration stops after the
// terminal snapshot, or after yielding a non-nil error.
func (c *Consumer) All(ctx context.Context) iter.Seq2[Snapshot, error] {
	return func(yield func(Snapshot, error) bool) {
		if err := c.claim(); err != nil {
			yield(Snapshot{}, err)
			return
		}
		for {
			snap, err := c.Next(ctx)
			if err == io.EOF {
				return
			}
			if !yield(snap, err) || err != nil {
				return
			}
		}
	}
}

func (c *Consumer) claim() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return ErrConsumed
	}
	c.started = true
	return nil
}

// State returns a copy of the consumer's progress.
func (c *Consumer) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		Accumulated: c.text.String(),
		LastFlush:   c.lastFlush,
		Snapshots:   c.seq,
		Terminated:  c.done || c.err != nil,
	}
}

// Close closes the underlying body if it is an io.Closer.
func (c *Consumer) Close() error {
	if closer, ok := c.src.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
