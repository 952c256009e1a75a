package report

import (
	"bufio"
	"encoding/json"
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"
	"go.uber.org/multierr"

	"ising-mc/internal/experiment"
)

// SnapshotWriter streams snapshots as zstd-compressed JSON lines.
type SnapshotWriter struct {
	mu     sync.Mutex
	dst    io.Writer
	enc    *zstd.Encoder
	w      *bufio.Writer
	count  int
	closed bool
}

// NewSnapshotWriter compresses onto dst. If dst is an io.Closer it is closed
// by Close.
func NewSnapshotWriter(dst io.Writer) (*SnapshotWriter, error) {
	enc, err := zstd.NewWriter(dst, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, err
	}
	return &SnapshotWriter{dst: dst, enc: enc, w: bufio.NewWriterSize(enc, 128*1024)}, nil
}

// Write appends one snapshot.
func (w *SnapshotWriter) Write(s experiment.Snapshot) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	w.count++
	return w.w.WriteByte('\n')
}

// WriteAll appends every snapshot in order.
func (w *SnapshotWriter) WriteAll(snaps []experiment.Snapshot) error {
	for _, s := range snaps {
		if err := w.Write(s); err != nil {
			return err
		}
	}
	return nil
}

// Count returns how many snapshots have been written.
func (w *SnapshotWriter) Count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.count
}

// Close flushes the stream and closes the destination when possible.
func (w *SnapshotWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	err := w.w.Flush()
	err = multierr.Append(err, w.enc.Close())
	if c, ok := w.dst.(io.Closer); ok {
		err = multierr.Append(err, c.Close())
	}
	return err
}

// ReadSnapshots decodes every snapshot from a stream produced by
// SnapshotWriter.
func ReadSnapshots(r io.Reader) ([]experiment.Snapshot, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	var out []experiment.Snapshot
	jd := json.NewDecoder(dec)
	for {
		var s experiment.Snapshot
		if err := jd.Decode(&s); err == io.EOF {
			return out, nil
		} else if err != nil {
			return out, err
		}
		out = append(out, s)
	}
}
