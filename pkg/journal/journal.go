// Package journal appends interaction events to a JSON lines file.
// Each line starts with the UTC timestamp "ts" followed by the event "type".
package journal

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mpapenbr/pitstop-strategy-manager/log"
)

const DefaultFile = "logs/interactions.jsonl"

const tsLayout = "2006-01-02T15:04:05.000000Z"

type Journal struct {
	l      *zap.Logger
	closer io.Closer
}

// Open appends to the file at path. Missing directories are created.
func Open(path string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	//nolint:gosec // path is configured by the operator
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	j := New(f)
	j.closer = f
	return j, nil
}

func New(w io.Writer) *Journal {
	encCfg := zapcore.EncoderConfig{
		TimeKey:        "ts",
		MessageKey:     "type",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeTime:     utcTime,
		EncodeDuration: zapcore.StringDurationEncoder,
	}
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encCfg),
		zapcore.Lock(zapcore.AddSync(w)),
		zapcore.DebugLevel)
	return &Journal{l: zap.New(core)}
}

func utcTime(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.UTC().Format(tsLayout))
}

// Record writes one event. A nil journal discards the event.
func (j *Journal) Record(event string, fields ...log.Field) {
	if j == nil {
		return
	}
	j.l.Info(event, fields...)
}

func (j *Journal) Close() error {
	if j == nil {
		return nil
	}
	_ = j.l.Sync()
	if j.closer != nil {
		return j.closer.Close()
	}
	return nil
}
