package http

import (
	"fmt"

	"github.com/fivetwenty-io/content-sdk/pkg/content"
	"github.com/hashicorp/go-retryablehttp"
)

// leveledLogger bridges retryablehttp's key/value logging onto content.Logger.
// Per-attempt debug lines are dropped; the client logs requests itself.
type leveledLogger struct {
	logger content.Logger
}

var _ retryablehttp.LeveledLogger = (*leveledLogger)(nil)

func (l *leveledLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, fields(keysAndValues))
}

func (l *leveledLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Info(msg, fields(keysAndValues))
}

func (l *leveledLogger) Debug(string, ...interface{}) {}

func (l *leveledLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn(msg, fields(keysAndValues))
}

func fields(keysAndValues []interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(keysAndValues)/2)

	for i := 0; i+1 < len(keysAndValues); i += 2 {
		out[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}

	if len(keysAndValues)%2 == 1 {
		out["extra"] = keysAndValues[len(keysAndValues)-1]
	}

	return out
}
