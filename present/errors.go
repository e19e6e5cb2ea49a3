package present

import (
	"errors"

	"github.com/gogpu/wgpu/hal"
)

// Sentinel errors returned by New.
var (
	// ErrNilDevice is returned when the target has no device, queue or surface.
	ErrNilDevice = errors.New("present: device, queue and surface are required")

	// ErrNilWindow is returned when the target has no window to size the surface.
	ErrNilWindow = errors.New("present: window provider is required")

	// ErrNilPipeline is returned when no pipeline is supplied.
	ErrNilPipeline = errors.New("present: pipeline is required")

	// ErrNilState is returned when the shared state or view is missing.
	ErrNilState = errors.New("present: state and view are required")
)

// outcome is what the frame loop does with a failed GPU call.
type outcome int

const (
	// outcomeRebuild: the swapchain is stale; reconstruct and retry.
	outcomeRebuild outcome = iota
	// outcomeSkip: no image this time; try again next iteration.
	outcomeSkip
	// outcomeLog: unexpected but local to this frame; log and continue.
	outcomeLog
	// outcomeFatal: the device cannot continue.
	outcomeFatal
)

// IsFatal reports whether err means the device is unusable.
func IsFatal(err error) bool {
	return errors.Is(err, hal.ErrDeviceLost) || errors.Is(err, hal.ErrDeviceOutOfMemory)
}

// IsStale reports whether err means the swapchain no longer matches the
// surface and must be reconfigured.
func IsStale(err error) bool {
	return errors.Is(err, hal.ErrSurfaceOutdated) || errors.Is(err, hal.ErrSurfaceLost)
}

func classify(err error) outcome {
	switch {
	case IsFatal(err):
		return outcomeFatal
	case IsStale(err):
		return outcomeRebuild
	case errors.Is(err, hal.ErrTimeout), errors.Is(err, hal.ErrNotReady):
		return outcomeSkip
	default:
		return outcomeLog
	}
}
