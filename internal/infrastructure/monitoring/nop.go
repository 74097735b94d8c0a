package monitoring

import (
	"time"

	"streamcast/internal/core/domain"
	"streamcast/internal/core/ports"
)

// NopRecorder discards all instrumentation. Used when Prometheus is disabled.
type NopRecorder struct{}

func NewNopRecorder() ports.MetricsRecorder { return NopRecorder{} }

func (NopRecorder) RecordPublishDecision(string)                  {}
func (NopRecorder) RecordStreamStarted(domain.StreamPath)         {}
func (NopRecorder) RecordStreamEnded(domain.StreamPath)           {}
func (NopRecorder) RecordViewerCount(domain.StreamPath, int)      {}
func (NopRecorder) RecordViewerConnected()                        {}
func (NopRecorder) RecordViewerDisconnected()                     {}
func (NopRecorder) RecordChatMessage()                            {}
func (NopRecorder) RecordEventDropped()                           {}
func (NopRecorder) ObserveAuthorizeDuration(time.Duration)        {}
