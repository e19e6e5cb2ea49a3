package present

import (
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Option configures an Engine during creation.
//
// Example:
//
//	eng, err := present.New(target, pl, state, view,
//	    present.WithRingSize(4),
//	    present.WithClearColor(gputypes.Color{A: 1}),
//	)
type Option func(*options)

type options struct {
	ringSize    int
	clearColor  gputypes.Color
	presentMode hal.PresentMode
	alphaMode   hal.CompositeAlphaMode
	maxFrames   uint64
	deferDelay  time.Duration
}

func defaultOptions() options {
	return options{
		ringSize:    3,
		clearColor:  gputypes.Color{R: 0, G: 0, B: 0, A: 1},
		presentMode: hal.PresentModeFifo,
		alphaMode:   hal.CompositeAlphaModeOpaque,
		deferDelay:  16 * time.Millisecond,
	}
}

// WithRingSize sets the initial number of per-frame uniform slots. It
// should be at least the number of frames the backend keeps in flight;
// the ring grows if a frame finds every slot busy. Values below 1 are
// ignored.
func WithRingSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.ringSize = n
		}
	}
}

// WithClearColor sets the colour the render pass clears to.
func WithClearColor(c gputypes.Color) Option {
	return func(o *options) {
		o.clearColor = c
	}
}

// WithPresentMode sets the swapchain present mode. The default is FIFO.
func WithPresentMode(m hal.PresentMode) Option {
	return func(o *options) {
		o.presentMode = m
	}
}

// WithAlphaMode sets the swapchain composite alpha mode.
func WithAlphaMode(m hal.CompositeAlphaMode) Option {
	return func(o *options) {
		o.alphaMode = m
	}
}

// WithMaxFrames makes Run request exit after n presented frames.
// Zero means no limit.
func WithMaxFrames(n uint64) Option {
	return func(o *options) {
		o.maxFrames = n
	}
}

// WithDeferDelay sets how long Run waits before retrying a reconstruction
// deferred by a zero-area surface.
func WithDeferDelay(d time.Duration) Option {
	return func(o *options) {
		o.deferDelay = d
	}
}
