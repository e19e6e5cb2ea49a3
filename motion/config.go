package motion

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidConfig is returned when a Config fails validation.
var ErrInvalidConfig = errors.New("motion: invalid config")

// Config holds the camera integration parameters.
type Config struct {
	// Tick is the fixed update interval.
	Tick time.Duration

	// ZoomFactor is the per-tick zoom multiplier. Zooming in divides the
	// zoom by it, zooming out multiplies.
	ZoomFactor float32

	// PanStep is the per-tick pan distance as a fraction of the zoom.
	PanStep float32

	// MaxZoom bounds zooming out.
	MaxZoom float32

	// MinZoom bounds zooming in. It only guards against float underflow.
	MinZoom float32
}

// DefaultConfig returns the standard tuning: 200 Hz ticks, 10% zoom per
// tick, pan 5% of the view per tick, zoom out to 2.
func DefaultConfig() Config {
	return Config{
		Tick:       5 * time.Millisecond,
		ZoomFactor: 1.10,
		PanStep:    0.05,
		MaxZoom:    2.0,
		MinZoom:    1e-30,
	}
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	switch {
	case c.Tick <= 0:
		return fmt.Errorf("%w: tick %v must be positive", ErrInvalidConfig, c.Tick)
	case !(c.ZoomFactor > 1):
		return fmt.Errorf("%w: zoom factor %v must be greater than 1", ErrInvalidConfig, c.ZoomFactor)
	case !(c.PanStep >= 0):
		return fmt.Errorf("%w: pan step %v must not be negative", ErrInvalidConfig, c.PanStep)
	case !(c.MinZoom > 0):
		return fmt.Errorf("%w: min zoom %v must be positive", ErrInvalidConfig, c.MinZoom)
	case !(c.MaxZoom > c.MinZoom):
		return fmt.Errorf("%w: max zoom %v must exceed min zoom %v", ErrInvalidConfig, c.MaxZoom, c.MinZoom)
	}
	return nil
}
