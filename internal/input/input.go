// Package input feeds server events into the host: NMEA 0183 lines followed
// from log files, or events posted over HTTP.
package input

import (
	"context"

	"navplug.szuro.net/pkg/signalk"
)

// Publisher accepts events for routing to plugins.
type Publisher interface {
	Publish(ctx context.Context, e signalk.Event) error
}

type Inputer interface {
	Start(ctx context.Context) error
	Stop() error
}

type baseInput struct {
	publisher Publisher
}

func (bi *baseInput) publishSentence(ctx context.Context, line string, ts int64) error {
	return bi.publisher.Publish(ctx, signalk.NewTextEvent(signalk.EventNMEA0183, line, ts))
}
