package render

import "errors"

var (
	// ErrDeviceInit is returned when the drawing context cannot be created
	ErrDeviceInit = errors.New("device initialization failed")

	// ErrBufferCreate is returned when a vertex or color buffer cannot be allocated
	ErrBufferCreate = errors.New("buffer creation failed")

	// ErrBufferSize is returned when an update does not match the buffer length
	ErrBufferSize = errors.New("buffer size mismatch")

	// ErrBufferReleased is returned when a released buffer is used
	ErrBufferReleased = errors.New("buffer released")

	// ErrPulseUnavailable is returned when the accelerated pulse cannot run
	ErrPulseUnavailable = errors.New("accelerated pulse unavailable")

	// ErrRendererClosed is returned when drawing after Close
	ErrRendererClosed = errors.New("renderer closed")
)
