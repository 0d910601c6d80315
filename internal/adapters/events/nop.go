package events

import (
	"context"

	"github.com/finvue/vkyc/internal/core"
)

// NopSink discards events; used when no brokers are configured.
type NopSink struct{}

func (NopSink) Publish(context.Context, core.Event) error { return nil }
func (NopSink) Close() error                              { return nil }
