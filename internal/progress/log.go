package progress

import (
	"context"

	"go.uber.org/zap"
)

// LogSink mirrors progress events into the structured log at debug level,
// with run boundaries at info.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink builds a LogSink.
func NewLogSink(logger *zap.Logger) *LogSink {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogSink{logger: logger}
}

// Consume logs every event in the batch.
func (s *LogSink) Consume(_ context.Context, batch []Event) error {
	for _, evt := range batch {
		fields := []zap.Field{
			zap.String("run_id", evt.RunID.String()),
			zap.String("stage", string(evt.Stage)),
		}
		if evt.Key != "" {
			fields = append(fields, zap.String("key", evt.Key))
		}
		if evt.URL != "" {
			fields = append(fields, zap.String("url", evt.URL))
		}
		if evt.Reason != "" {
			fields = append(fields, zap.String("reason", string(evt.Reason)))
		}
		if evt.Bytes > 0 {
			fields = append(fields, zap.Int64("bytes", evt.Bytes))
		}
		if evt.Dur > 0 {
			fields = append(fields, zap.Duration("dur", evt.Dur))
		}
		if evt.Note != "" {
			fields = append(fields, zap.String("note", evt.Note))
		}
		switch evt.Stage {
		case StageRunStart, StageRunDone:
			s.logger.Info("progress", fields...)
		default:
			s.logger.Debug("progress", fields...)
		}
	}
	return nil
}

// Close implements Sink; the underlying logger is shared and not synced
// here.
func (s *LogSink) Close(context.Context) error {
	return nil
}
