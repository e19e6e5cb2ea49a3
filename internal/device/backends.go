//go:build !nogpu

package device

import (
	// Register the native HAL backends for the current platform.
	_ "github.com/gogpu/wgpu/hal/allbackends"
)
