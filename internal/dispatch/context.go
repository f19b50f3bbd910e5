package dispatch

import (
	"context"

	"github.com/nerrad567/homenet/internal/device"
)

type sourceKey struct{}

// WithSource tags ctx with the origin of a request (device.SourceLine,
// device.SourceAPI, ...). It ends up in Change.Source.
func WithSource(ctx context.Context, source string) context.Context {
	return context.WithValue(ctx, sourceKey{}, source)
}

// SourceFrom returns the source set by WithSource, or device.SourceLine.
func SourceFrom(ctx context.Context) string {
	if s, ok := ctx.Value(sourceKey{}).(string); ok && s != "" {
		return s
	}
	return device.SourceLine
}
