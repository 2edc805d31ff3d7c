package factory

import "log/slog"

// Option configures a Factory during creation.
//
// Example:
//
//	f, err := factory.New(device, queue,
//	    factory.WithLabelPrefix("scene"),
//	    factory.WithoutLayoutSharing(),
//	)
type Option func(*options)

// options holds optional configuration for Factory creation.
type options struct {
	labelPrefix  string
	shareLayouts bool
	logger       *slog.Logger
}

// defaultOptions returns the default factory options.
func defaultOptions() options {
	return options{
		shareLayouts: true,
		logger:       nil, // falls back to framegraph.Component("factory")
	}
}

// WithLabelPrefix prefixes every debug label the factory passes to the HAL.
func WithLabelPrefix(prefix string) Option {
	return func(o *options) {
		o.labelPrefix = prefix
	}
}

// WithoutLayoutSharing disables reuse of identical descriptor-set layouts.
// Every CreateDescriptorSetLayout call then creates a new device layout.
func WithoutLayoutSharing() Option {
	return func(o *options) {
		o.shareLayouts = false
	}
}

// WithLogger sets a factory-specific logger instead of the package-wide one.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}
