// Package upload publishes rendered diagnostic reports and suite summaries
// to external storage so operators can inspect them after a scenario run.
package upload

import (
	"context"
	"fmt"
	"io"
)

// Sink is a destination for rendered report artifacts.
type Sink interface {
	// Publish writes one artifact under the given remote name.
	Publish(ctx context.Context, reader io.Reader, remoteName string) error

	// Configure sets up the sink with the given configuration.
	Configure(config map[string]any) error

	// Name returns the sink name.
	Name() string
}

// SinkFactory creates a new sink instance.
type SinkFactory func() Sink

// Registry holds all available report sinks.
var Registry = make(map[string]SinkFactory)

// RegisterSink registers a new report sink.
func RegisterSink(name string, factory SinkFactory) {
	Registry[name] = factory
}

// NewSink creates a new sink instance by name.
func NewSink(name string) (Sink, error) {
	factory, ok := Registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown report sink: %s", name)
	}
	return factory(), nil
}

// init registers all built-in sinks
func init() {
	RegisterSink("minio", func() Sink {
		return NewMinioSink()
	})
}
