package sensor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// #region source
// Source yields one Snapshot per detection cycle. Next returns io.EOF once
// the underlying stream is exhausted.
type Source interface {
	Next(ctx context.Context) (Snapshot, error)
}

// #endregion source

// #region line-source

// MaxFrameLen bounds one frame line. Longer lines are noise, e.g. from a
// baud rate mismatch, and are skipped as malformed.
const MaxFrameLen = 4096

// LineSource reads frames from any line-oriented stream: a serial port, a
// recorded capture file, or stdin in simulation mode.
type LineSource struct {
	r   io.Reader
	now func() time.Time

	once      sync.Once
	closeOnce sync.Once
	lines     chan frameLine
	errc      chan error
	done      chan struct{}
}

// frameLine is one line read from the stream. dropped is set instead of
// text when the line exceeded MaxFrameLen.
type frameLine struct {
	text    string
	dropped int
}

// NewLineSource wraps r. Blank lines and lines starting with '#' are skipped.
func NewLineSource(r io.Reader) *LineSource {
	return &LineSource{r: r, now: time.Now, done: make(chan struct{})}
}

// Next blocks until a frame arrives, the stream ends, or ctx is cancelled.
// A malformed or overlong line yields an ErrMalformedFrame error; the
// caller may keep calling Next to read past it.
func (s *LineSource) Next(ctx context.Context) (Snapshot, error) {
	s.once.Do(s.start)
	for {
		select {
		case <-ctx.Done():
			return Snapshot{}, ctx.Err()
		case fl, ok := <-s.lines:
			if !ok {
				select {
				case err := <-s.errc:
					return Snapshot{}, err
				default:
					return Snapshot{}, io.EOF
				}
			}
			if fl.dropped > 0 {
				return Snapshot{}, fmt.Errorf("%w: line of %d bytes exceeds %d", ErrMalformedFrame, fl.dropped, MaxFrameLen)
			}
			line := strings.TrimSpace(fl.text)
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			return ParseFrame(line, s.now())
		}
	}
}

// Close stops the reader goroutine once it next hands over a line. It does
// not close the underlying reader.
func (s *LineSource) Close() error {
	s.closeOnce.Do(func() { close(s.done) })
	return nil
}

// start launches the reader goroutine. The blocking read runs apart from
// Next so that cancellation never waits on the port.
func (s *LineSource) start() {
	s.lines = make(chan frameLine)
	s.errc = make(chan error, 1)
	go func() {
		defer close(s.lines)
		br := bufio.NewReaderSize(s.r, MaxFrameLen)
		for {
			fl, err := readLine(br)
			if err != nil {
				if !errors.Is(err, io.EOF) {
					s.errc <- err
				}
				return
			}
			select {
			case s.lines <- fl:
			case <-s.done:
				return
			}
		}
	}()
}

// readLine returns the next line without its terminator. A line that does
// not fit the buffer is consumed up to its newline and reported by size.
func readLine(br *bufio.Reader) (frameLine, error) {
	var fl frameLine
	for {
		chunk, err := br.ReadSlice('\n')
		if errors.Is(err, bufio.ErrBufferFull) {
			fl.dropped += len(chunk)
			continue
		}
		if err != nil && !errors.Is(err, io.EOF) {
			return fl, err
		}
		if err != nil && len(chunk) == 0 && fl.dropped == 0 {
			return fl, io.EOF
		}
		if fl.dropped > 0 {
			fl.dropped += len(chunk)
		} else {
			fl.text = strings.TrimRight(string(chunk), "\r\n")
		}
		return fl, nil
	}
}

// #endregion line-source

// #region slice-source

// SliceSource replays a fixed list of snapshots; used by simulations and tests.
type SliceSource struct {
	snaps []Snapshot
	pos   int
}

// NewSliceSource returns a Source over snaps.
func NewSliceSource(snaps ...Snapshot) *SliceSource {
	return &SliceSource{snaps: snaps}
}

func (s *SliceSource) Next(ctx context.Context) (Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return Snapshot{}, err
	}
	if s.pos >= len(s.snaps) {
		return Snapshot{}, io.EOF
	}
	snap := s.snaps[s.pos]
	s.pos++
	return snap, nil
}

// #endregion slice-source
