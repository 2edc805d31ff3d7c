package factory

import "errors"

// Factory errors.
var (
	// ErrNilDevice is returned when creating a factory without a HAL device.
	ErrNilDevice = errors.New("factory: HAL device is nil")

	// ErrProviderNotHAL is returned when a device provider does not expose
	// HAL device and queue types.
	ErrProviderNotHAL = errors.New("factory: provider does not expose HAL device and queue")

	// ErrCreation wraps every device-level resource creation failure.
	// Use errors.Is to distinguish it; the device error is wrapped as well.
	ErrCreation = errors.New("factory: device resource creation failed")

	// ErrNilDescriptor is returned when a creation call receives a nil descriptor.
	ErrNilDescriptor = errors.New("factory: descriptor is nil")

	// ErrBufferRange is returned when a buffer upload does not fit the buffer
	// or cannot be addressed on this platform.
	ErrBufferRange = errors.New("factory: buffer range out of bounds")
)
