// Package trackloop adapts the video-frame loop pattern used throughout
// this codebase's pipeline coordinator to drive pupil.Detect once per
// frame. It is a thin worked-example companion, not part of the detection
// core: no pipeline algorithm logic lives here, only frame I/O and state
// threading.
package trackloop

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"pupiltrack/internal/logger"
	"pupiltrack/internal/pupil"

	"gocv.io/x/gocv"
)

// pupilLogAdapter narrows a component-tagged logger.Logger down to the
// detector's minimal Logger surface, so pupil stays decoupled from the
// logging package while the loop still gets structured events.
type pupilLogAdapter struct {
	log       logger.Logger
	component string
}

func (a pupilLogAdapter) Debug(msg string, fields map[string]interface{}) {
	a.log.Debug(a.component, msg, fields)
}

func (a pupilLogAdapter) Warning(msg string, fields map[string]interface{}) {
	a.log.Warning(a.component, msg, fields)
}

// Loop reads frames from a gocv.VideoCapture and runs pupil.Detect on each,
// carrying State across frames per §5's "caller owns V across frames".
type Loop struct {
	mu     sync.RWMutex
	cap    *gocv.VideoCapture
	cfg    pupil.Config
	state  pupil.State
	other  *pupil.OtherPrior
	logger logger.Logger

	frameCount atomic.Int64

	frameHook func(frame gocv.Mat, state pupil.State)
}

// SetFrameHook installs a callback invoked synchronously on every frame that
// Detect processes without error, before the frame's Mat is released. Callers that need pixel access
// alongside the detector's state (diagnostics, snapshotting) hook in here
// rather than re-reading the video source.
func (l *Loop) SetFrameHook(hook func(frame gocv.Mat, state pupil.State)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.frameHook = hook
}

// NewLoop opens a video source and seeds the initial prior from its frame
// dimensions.
func NewLoop(source string, cfg pupil.Config, log logger.Logger) (*Loop, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("trackloop: %w", err)
	}

	vc, err := gocv.OpenVideoCapture(source)
	if err != nil {
		return nil, fmt.Errorf("trackloop: open video source %q: %w", source, err)
	}

	w := int(vc.Get(gocv.VideoCaptureFrameWidth))
	h := int(vc.Get(gocv.VideoCaptureFrameHeight))
	if w <= 0 || h <= 0 {
		vc.Close()
		return nil, fmt.Errorf("trackloop: %w", pupil.ErrInputDimensions)
	}

	return &Loop{
		cap:    vc,
		cfg:    cfg,
		state:  pupil.NewState(cfg, w, h),
		logger: log,
	}, nil
}

// SetOtherPrior installs or clears the second-feature prior used to
// exclude its search disc from this loop's ROI (§4.1).
func (l *Loop) SetOtherPrior(other *pupil.OtherPrior) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.other = other
}

// State returns a snapshot of the current running prediction.
func (l *Loop) State() pupil.State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// Next reads and processes a single frame, returning the updated state. It
// returns (State{}, false, nil) when the video source is exhausted.
func (l *Loop) Next(ctx context.Context) (pupil.State, bool, error) {
	frame := gocv.NewMat()
	defer frame.Close()

	if ok := l.cap.Read(&frame); !ok {
		return pupil.State{}, false, nil
	}
	if frame.Empty() {
		return pupil.State{}, false, nil
	}

	start := time.Now()

	l.mu.Lock()
	prior := l.state
	other := l.other
	l.mu.Unlock()

	adapter := pupilLogAdapter{log: l.logger, component: "trackloop"}
	next, err := pupil.Detect(ctx, frame, l.cfg, prior, other, adapter)
	if err != nil {
		l.logger.Warning("trackloop", "frame detection error", map[string]interface{}{
			"error": err.Error(),
			"frame": l.frameCount.Add(1),
		})
		return next, true, err
	}

	l.mu.Lock()
	l.state = next
	hook := l.frameHook
	l.mu.Unlock()

	l.logger.Debug("trackloop", "frame processed", map[string]interface{}{
		"frame":          l.frameCount.Add(1),
		"pupil_detected": next.PupilDetected,
		"elapsed":        time.Since(start),
	})

	if hook != nil {
		hook(frame, next)
	}

	return next, true, nil
}

// Close releases the underlying video capture.
func (l *Loop) Close() error {
	return l.cap.Close()
}
