// Package replay records tracked-fingertip frames to a JSON-lines log and
// plays them back through a session. Because the judgment pipeline is
// deterministic, replaying a log reproduces the original run's grades
// exactly, which makes field recordings directly usable as regression
// fixtures.
package replay

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/ayusman/taala/internal/session"
	"github.com/ayusman/taala/internal/timeline"
	"github.com/ayusman/taala/internal/tracker"
)

// Frame is one recorded tick: the game-clock instant and the fingertips
// visible at it. Frames with no points are still recorded so playback
// advances the clock at the original cadence.
type Frame struct {
	NowMs  int64                  `json:"now_ms"`
	Points []tracker.TrackedPoint `json:"points,omitempty"`
}

// Writer appends frames to a JSON-lines log, one frame per line.
type Writer struct {
	w   *bufio.Writer
	enc *json.Encoder
}

// NewWriter creates a Writer over w.
func NewWriter(w io.Writer) *Writer {
	bw := bufio.NewWriter(w)
	return &Writer{w: bw, enc: json.NewEncoder(bw)}
}

// WriteFrame records one tick.
func (w *Writer) WriteFrame(nowMs int64, points []tracker.TrackedPoint) error {
	return w.enc.Encode(Frame{NowMs: nowMs, Points: points})
}

// Flush writes any buffered frames to the underlying writer.
func (w *Writer) Flush() error {
	return w.w.Flush()
}

// Reader iterates over the frames of a JSON-lines log.
type Reader struct {
	scanner *bufio.Scanner
	line    int
}

// NewReader creates a Reader over r.
func NewReader(r io.Reader) *Reader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &Reader{scanner: scanner}
}

// ReadFrame returns the next frame, or io.EOF when the log is exhausted.
// Blank lines are skipped.
func (r *Reader) ReadFrame() (Frame, error) {
	for r.scanner.Scan() {
		r.line++
		line := r.scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var f Frame
		if err := json.Unmarshal(line, &f); err != nil {
			return Frame{}, fmt.Errorf("replay line %d: %w", r.line, err)
		}
		return f, nil
	}
	if err := r.scanner.Err(); err != nil {
		return Frame{}, err
	}
	return Frame{}, io.EOF
}

// ReadAll returns every remaining frame in the log.
func (r *Reader) ReadAll() ([]Frame, error) {
	var frames []Frame
	for {
		f, err := r.ReadFrame()
		if err == io.EOF {
			return frames, nil
		}
		if err != nil {
			return nil, err
		}
		frames = append(frames, f)
	}
}

// Play drives a session with every frame in the log, in order, and returns
// the resolutions it produced. The session must not be running its own
// camera loop at the same time.
func Play(s *session.Session, r io.Reader) ([]timeline.Resolution, error) {
	reader := NewReader(r)
	var resolved []timeline.Resolution
	for {
		f, err := reader.ReadFrame()
		if err == io.EOF {
			return resolved, nil
		}
		if err != nil {
			return resolved, err
		}
		resolved = append(resolved, s.Tick(f.NowMs, f.Points)...)
	}
}

// PlayFile plays a recorded log from disk.
func PlayFile(s *session.Session, path string) ([]timeline.Resolution, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Play(s, f)
}

// Recorder tees frames into a log while a session runs. Wire its Record
// method in wherever the session's ticks originate.
type Recorder struct {
	w *Writer
	f *os.File
}

// NewRecorder creates a Recorder writing to the given path, truncating any
// existing log.
func NewRecorder(path string) (*Recorder, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	return &Recorder{w: NewWriter(f), f: f}, nil
}

// Record appends one tick to the log. Errors are returned but a failed
// record never blocks the run itself.
func (r *Recorder) Record(nowMs int64, points []tracker.TrackedPoint) error {
	return r.w.WriteFrame(nowMs, points)
}

// Close flushes and closes the log file.
func (r *Recorder) Close() error {
	if err := r.w.Flush(); err != nil {
		r.f.Close()
		return err
	}
	return r.f.Close()
}
