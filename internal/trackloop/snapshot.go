package trackloop

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync/atomic"

	"pupiltrack/internal/logger"
	"pupiltrack/internal/opencv/conversion"
	"pupiltrack/internal/opencv/memory"
	"pupiltrack/internal/opencv/safe"
	"pupiltrack/internal/pupil"

	"gocv.io/x/gocv"
)

// SnapshotWriter crops the detector's Haar box out of each detected frame,
// tracks the crop's lifetime through a memory.Manager, and writes a fixed-size
// PNG thumbnail per frame. It exists to exercise this codebase's safe.Mat /
// memory.Manager / conversion stack on a real per-frame path, since the
// detection core in internal/pupil deliberately stays on raw gocv.Mat.
type SnapshotWriter struct {
	dir       string
	thumbSide int
	mgr       *memory.Manager
	log       logger.Logger
	written   atomic.Int64
}

// NewSnapshotWriter creates the output directory and a memory.Manager to
// track the thumbnail pass's Mat allocations.
func NewSnapshotWriter(dir string, thumbSide int, log logger.Logger) (*SnapshotWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("trackloop: snapshot dir: %w", err)
	}
	if thumbSide < 1 {
		thumbSide = 1
	}
	return &SnapshotWriter{
		dir:       dir,
		thumbSide: thumbSide,
		mgr:       memory.NewManager(log),
		log:       log,
	}, nil
}

// Hook returns a frame hook suitable for Loop.SetFrameHook: it only writes a
// thumbnail when the frame produced a detection with a non-empty Haar box.
func (s *SnapshotWriter) Hook() func(frame gocv.Mat, state pupil.State) {
	return func(frame gocv.Mat, state pupil.State) {
		if !state.PupilDetected {
			return
		}
		box := state.HaarBox
		if box.Dx() <= 0 || box.Dy() <= 0 {
			return
		}
		if err := s.writeThumbnail(frame, box); err != nil {
			s.log.Warning("snapshot", "thumbnail write failed", map[string]interface{}{"error": err.Error()})
		}
	}
}

func (s *SnapshotWriter) writeThumbnail(frame gocv.Mat, box image.Rectangle) error {
	box = box.Intersect(image.Rect(0, 0, frame.Cols(), frame.Rows()))
	if box.Dx() <= 0 || box.Dy() <= 0 {
		return fmt.Errorf("trackloop: snapshot: empty intersect box")
	}

	tracked, err := safe.NewMatFromMatWithTracker(frame, s.mgr, "snapshot-source")
	if err != nil {
		return fmt.Errorf("trackloop: snapshot: wrap frame: %w", err)
	}
	defer tracked.Close()

	cropped, err := conversion.CropMat(tracked, box.Min.X, box.Min.Y, box.Dx(), box.Dy())
	if err != nil {
		return fmt.Errorf("trackloop: snapshot: crop: %w", err)
	}
	defer cropped.Close()

	thumb, err := conversion.ResizeMat(cropped, s.thumbSide, s.thumbSide, gocv.InterpolationLinear)
	if err != nil {
		return fmt.Errorf("trackloop: snapshot: resize: %w", err)
	}
	defer thumb.Close()

	props := conversion.GetMatProperties(thumb)
	if props.Empty {
		return fmt.Errorf("trackloop: snapshot: empty thumbnail")
	}

	img, err := conversion.MatToImage(thumb)
	if err != nil {
		return fmt.Errorf("trackloop: snapshot: to image: %w", err)
	}

	n := s.written.Add(1)
	path := filepath.Join(s.dir, fmt.Sprintf("pupil_%06d.png", n))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("trackloop: snapshot: create file: %w", err)
	}
	defer f.Close()

	return png.Encode(f, img)
}

// Close logs final allocation stats and shuts down the underlying memory
// manager.
func (s *SnapshotWriter) Close() {
	allocs, deallocs, used := s.mgr.GetStats()
	s.log.Info("snapshot", "closing", map[string]interface{}{
		"thumbnails_written": s.written.Load(),
		"mat_allocs":         allocs,
		"mat_deallocs":       deallocs,
		"mat_bytes_in_use":   used,
	})
	s.mgr.Shutdown()
}
