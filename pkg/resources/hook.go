package resources

import (
	"encoding/json"
	"fmt"
	"reflect"
	"time"

	"github.com/rs/zerolog"
	otelog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/global"
)

// ZerologHook forwards every zerolog record to the OTel logs API, so logs
// still go to stdout and are also exported to the collector.
type ZerologHook struct {
	logger         otelog.Logger
	serviceName    string
	serviceVersion string
}

func NewZerologHook(serviceName string, serviceVersion string) *ZerologHook {
	return &ZerologHook{
		logger:         global.GetLoggerProvider().Logger(serviceName),
		serviceName:    serviceName,
		serviceVersion: serviceVersion,
	}
}

func (h *ZerologHook) Run(e *zerolog.Event, level zerolog.Level, msg string) {
	if level == zerolog.Disabled || level == zerolog.NoLevel {
		return
	}

	fields := h.fields(e)

	var rec otelog.Record

	sev, sevText := severity(level)

	rec.SetTimestamp(timestampOf(fields))
	rec.SetObservedTimestamp(time.Now())
	rec.SetSeverity(sev)
	rec.SetSeverityText(sevText)
	rec.SetBody(otelog.StringValue(msg))

	rec.AddAttributes(
		otelog.String("service.name", h.serviceName),
		otelog.String("service.version", h.serviceVersion),
	)
	rec.AddAttributes(toAttributes(fields)...)

	h.logger.Emit(e.GetCtx(), rec)
}

// fields reads the already-encoded JSON of the event. zerolog has no public
// accessor for it, hence the reflection.
func (h *ZerologHook) fields(e *zerolog.Event) map[string]any {
	if e == nil {
		return nil
	}

	v := reflect.ValueOf(e).Elem()

	f := v.FieldByName("buf")
	if !f.IsValid() || f.Kind() != reflect.Slice || f.Type().Elem().Kind() != reflect.Uint8 {
		return nil
	}

	b := append([]byte(nil), f.Bytes()...)
	if len(b) == 0 {
		return nil
	}

	if b[len(b)-1] != '}' {
		b = append(b, '}')
	}

	var m map[string]any

	if json.Unmarshal(b, &m) != nil {
		return nil
	}

	return m
}

func severity(level zerolog.Level) (otelog.Severity, string) {
	switch level {
	case zerolog.TraceLevel:
		return otelog.SeverityTrace, "TRACE"
	case zerolog.DebugLevel:
		return otelog.SeverityDebug, "DEBUG"
	case zerolog.InfoLevel:
		return otelog.SeverityInfo, "INFO"
	case zerolog.WarnLevel:
		return otelog.SeverityWarn, "WARN"
	case zerolog.ErrorLevel:
		return otelog.SeverityError, "ERROR"
	case zerolog.FatalLevel:
		return otelog.SeverityFatal, "FATAL"
	case zerolog.PanicLevel:
		return otelog.SeverityFatal4, "FATAL"
	default:
		return otelog.SeverityInfo, "INFO"
	}
}

func toAttributes(m map[string]any) []otelog.KeyValue {
	kvs := make([]otelog.KeyValue, 0, len(m))

	for k, v := range m {
		if k == zerolog.TimestampFieldName || k == zerolog.LevelFieldName || k == zerolog.MessageFieldName {
			continue
		}

		switch x := v.(type) {
		case string:
			kvs = append(kvs, otelog.String(k, x))
		case bool:
			kvs = append(kvs, otelog.Bool(k, x))
		case float64: // json numbers
			if x == float64(int64(x)) {
				kvs = append(kvs, otelog.Int64(k, int64(x)))
			} else {
				kvs = append(kvs, otelog.Float64(k, x))
			}
		default:
			kvs = append(kvs, otelog.String(k, fmt.Sprintf("%v", x)))
		}
	}

	return kvs
}

func timestampOf(m map[string]any) time.Time {
	s, ok := m[zerolog.TimestampFieldName].(string)
	if !ok {
		return time.Now()
	}

	for _, layout := range []string{time.RFC3339Nano, time.RFC3339} {
		ts, err := time.Parse(layout, s)
		if err == nil {
			return ts
		}
	}

	return time.Now()
}
