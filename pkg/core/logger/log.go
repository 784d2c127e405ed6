package logger

import (
	"context"
	"encoding/json"
	"sync"

	"alerthub/pkg/core/consts"

	"github.com/openzipkin/zipkin-go"
	uuid "github.com/satori/go.uuid"
	"github.com/sirupsen/logrus"
)

type Log struct {
	*logrus.Entry
}

var (
	log *Log
	mu  sync.Mutex
)

func newLogrus(level logrus.Level) *logrus.Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	l.SetLevel(level)
	return l
}

func parseLevel(level string) logrus.Level {
	switch level {
	case "debug":
		return logrus.DebugLevel
	case "warn":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// InitLogger 初始化全局日志，重复调用会替换之前的实例
func InitLogger(level string) *Log {
	mu.Lock()
	defer mu.Unlock()

	log = &Log{Entry: logrus.NewEntry(newLogrus(parseLevel(level)))}
	return log
}

func GetLogger() *Log {
	mu.Lock()
	defer mu.Unlock()
	if log != nil {
		return log
	}
	return &Log{Entry: logrus.NewEntry(newLogrus(logrus.DebugLevel))}
}

func (l *Log) WithField(key string, value interface{}) *Log {
	return &Log{l.Entry.WithField(key, value)}
}

func (l *Log) GetLogger() *logrus.Entry {
	return l.Entry
}

func (l *Log) WithFields(arg interface{}) *Log {
	var jsonMap map[string]interface{}
	bytes, err := json.Marshal(arg)
	if err != nil {
		return l.WithField("arg", arg)
	}
	if err = json.Unmarshal(bytes, &jsonMap); err != nil {
		return l.WithField("arg", arg)
	}
	return &Log{l.Entry.WithFields(jsonMap)}
}

func (l *Log) WithEntryName(entryName string) *Log {
	return l.WithField("EntryName", entryName)
}

func (l *Log) WithErr(err error) *Log {
	if err == nil {
		return l
	}
	return l.WithField("Err", err.Error())
}

func (l *Log) WithTrace(ctx context.Context) *Log {
	var traceID string
	span := zipkin.SpanFromContext(ctx)
	if span == nil {
		var ok bool
		if traceID, ok = ctx.Value(consts.TraceKey).(string); !ok {
			traceID = uuid.NewV4().String()
		}
	} else {
		traceID = span.Context().TraceID.String()
	}
	return l.WithField("TraceId", traceID)
}

// WithAlert 附加告警ID，告警链路上的每条日志都应带上它
func (l *Log) WithAlert(alertID string) *Log {
	return l.WithField("AlertId", alertID)
}

func (l *Log) WithOp(op string) *Log {
	return l.WithField("Op", op)
}
