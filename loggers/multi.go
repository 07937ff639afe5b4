package loggers

import (
	"context"

	"github.com/rickchristie/sqlagent"
)

type multiSink []sqlagent.TraceSink

func (m multiSink) OnEvent(ctx context.Context, event sqlagent.Event) {
	for _, s := range m {
		s.OnEvent(ctx, event)
	}
}

// Multi returns a sink that forwards every event to each non-nil sink in
// order.
func Multi(sinks ...sqlagent.TraceSink) sqlagent.TraceSink {
	var out multiSink
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	switch len(out) {
	case 0:
		return sqlagent.NopSink
	case 1:
		return out[0]
	default:
		return out
	}
}
