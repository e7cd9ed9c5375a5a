package output

import (
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"layercrack/config"
	"layercrack/logger"

	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	otelLog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"
)

const redacted = "[redacted]"

type otelLogger struct {
	provider *sdklog.LoggerProvider
	logger   otelLog.Logger
	timeout  time.Duration
	endpoint string
	policy   otelPolicy
}

type otelPolicy struct {
	includePasswords bool
}

func newOtelLogger(cfg *config.Config) (*otelLogger, error) {
	if cfg == nil {
		return nil, nil
	}
	endpoint := resolveOtelEndpoint(cfg)
	if endpoint == "" {
		return nil, nil
	}
	if !strings.HasPrefix(endpoint, "http://") && !strings.HasPrefix(endpoint, "https://") {
		return nil, fmt.Errorf("otel endpoint must include scheme (http or https)")
	}

	opts := []otlploghttp.Option{otlploghttp.WithEndpointURL(endpoint)}
	if len(cfg.OtelHeaders) > 0 {
		opts = append(opts, otlploghttp.WithHeaders(cfg.OtelHeaders))
	}
	if cfg.OtelTimeout > 0 {
		opts = append(opts, otlploghttp.WithTimeout(cfg.OtelTimeout))
	}

	exp, err := otlploghttp.New(context.Background(), opts...)
	if err != nil {
		return nil, err
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceNameKey.String(cfg.OtelServiceName),
	)
	provider := sdklog.NewLoggerProvider(
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exp)),
		sdklog.WithResource(res),
	)

	return &otelLogger{
		provider: provider,
		logger:   provider.Logger("layercrack"),
		timeout:  cfg.OtelTimeout,
		endpoint: endpoint,
		policy:   otelPolicy{includePasswords: cfg.OtelExportPasswords},
	}, nil
}

func resolveOtelEndpoint(cfg *config.Config) string {
	if cfg == nil {
		return ""
	}
	if endpoint := strings.TrimSpace(cfg.OtelEndpoint); endpoint != "" {
		return endpoint
	}
	if !cfg.OtelFromEnv {
		return ""
	}
	if endpoint := strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_LOGS_ENDPOINT")); endpoint != "" {
		return endpoint
	}
	return strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"))
}

func (o *otelLogger) Endpoint() string {
	if o == nil {
		return ""
	}
	return o.endpoint
}

func (o *otelLogger) Emit(recordType string, payload interface{}) {
	if o == nil || o.logger == nil {
		return
	}
	data := sanitizePayload(recordType, payloadToMap(payload), o.policy)

	var record otelLog.Record
	now := time.Now()
	record.SetTimestamp(now)
	record.SetObservedTimestamp(now)
	record.SetEventName("layercrack.record")
	record.AddAttributes(
		otelLog.String("record_type", recordType),
		otelLog.String("schema_version", SchemaVersion),
	)
	if attrs := semanticAttributes(recordType, data); len(attrs) > 0 {
		record.AddAttributes(attrs...)
	}
	if data != nil {
		record.SetBody(toLogValue(data))
	}
	o.logger.Emit(context.Background(), record)
}

func (o *otelLogger) Shutdown() {
	if o == nil || o.provider == nil {
		return
	}
	timeout := o.timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := o.provider.Shutdown(ctx); err != nil {
		logger.Debugf("OTEL shutdown failed: %v", err)
	}
}

// sanitizePayload returns a copy of data with recovered passwords masked
// unless the policy allows them. Absolute paths of extracted files stay
// local; the relative path is kept.
func sanitizePayload(recordType string, data map[string]interface{}, policy otelPolicy) map[string]interface{} {
	if len(data) == 0 {
		return data
	}
	switch recordType {
	case "layer":
		sanitized := cloneMap(data)
		if !policy.includePasswords {
			if _, ok := sanitized["password"]; ok {
				sanitized["password"] = redacted
			}
		}
		return sanitized
	case "summary":
		sanitized := cloneMap(data)
		if !policy.includePasswords {
			if count, ok := valueCount(sanitized["passwords"]); ok {
				sanitized["passwords_count"] = count
			}
			delete(sanitized, "passwords")
		}
		return sanitized
	case "file":
		sanitized := cloneMap(data)
		delete(sanitized, "path")
		return sanitized
	default:
		return data
	}
}

func valueCount(value interface{}) (int, bool) {
	switch v := value.(type) {
	case []interface{}:
		return len(v), true
	case []string:
		return len(v), true
	case []map[string]interface{}:
		return len(v), true
	default:
		return 0, false
	}
}

func cloneMap(src map[string]interface{}) map[string]interface{} {
	dst := make(map[string]interface{}, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func toLogValue(value interface{}) otelLog.Value {
	switch v := value.(type) {
	case nil:
		return otelLog.Value{}
	case string:
		return otelLog.StringValue(v)
	case []byte:
		return otelLog.BytesValue(v)
	case bool:
		return otelLog.BoolValue(v)
	case int:
		return otelLog.IntValue(v)
	case int64:
		return otelLog.Int64Value(v)
	case float64:
		return otelLog.Float64Value(v)
	case map[string]interface{}:
		return otelLog.MapValue(toLogKeyValues(v)...)
	case map[string]string:
		kvs := make([]otelLog.KeyValue, 0, len(v))
		for _, k := range slices.Sorted(maps.Keys(v)) {
			kvs = append(kvs, otelLog.String(k, v[k]))
		}
		return otelLog.MapValue(kvs...)
	case []string:
		values := make([]otelLog.Value, 0, len(v))
		for _, item := range v {
			values = append(values, otelLog.StringValue(item))
		}
		return otelLog.SliceValue(values...)
	case []interface{}:
		values := make([]otelLog.Value, 0, len(v))
		for _, item := range v {
			values = append(values, toLogValue(item))
		}
		return otelLog.SliceValue(values...)
	default:
		return otelLog.Value{}
	}
}

func toLogKeyValues(values map[string]interface{}) []otelLog.KeyValue {
	kvs := make([]otelLog.KeyValue, 0, len(values))
	for _, key := range slices.Sorted(maps.Keys(values)) {
		kvs = append(kvs, otelLog.KeyValue{Key: key, Value: toLogValue(values[key])})
	}
	return kvs
}

func semanticAttributes(recordType string, data map[string]interface{}) []otelLog.KeyValue {
	if len(data) == 0 {
		return nil
	}
	switch recordType {
	case "session":
		return sessionSemanticAttributes(data)
	case "layer":
		return layerSemanticAttributes(data)
	case "file":
		return fileSemanticAttributes(data)
	case "hint":
		return hintSemanticAttributes(data)
	case "summary":
		return summarySemanticAttributes(data)
	default:
		return nil
	}
}

func sessionSemanticAttributes(data map[string]interface{}) []otelLog.KeyValue {
	var kvs []otelLog.KeyValue
	kvs = appendStringAttr(kvs, "layercrack.session.config_digest", getStringField(data, "config_digest"))
	if archive := getStringField(data, "archive"); archive != "" {
		kvs = append(kvs, otelLog.String("layercrack.session.archive", filepath.Base(archive)))
	}
	host, _ := data["host"].(map[string]interface{})
	if host == nil {
		return kvs
	}
	kvs = appendStringAttr(kvs, string(semconv.HostNameKey), getStringField(host, "hostname"))
	kvs = appendStringAttr(kvs, string(semconv.HostArchKey), getStringField(host, "arch"))
	kvs = appendStringAttr(kvs, string(semconv.OSDescriptionKey), getStringField(host, "platform"))
	kvs = appendStringAttr(kvs, string(semconv.OSVersionKey), getStringField(host, "platform_version"))
	if cpus, ok := getInt64Field(host, "logical_cpus"); ok {
		kvs = append(kvs, otelLog.Int64("layercrack.host.logical_cpus", cpus))
	}
	return kvs
}

func layerSemanticAttributes(data map[string]interface{}) []otelLog.KeyValue {
	var kvs []otelLog.KeyValue
	kvs = appendInt64Attr(kvs, "layercrack.layer.index", data, "layer")
	kvs = appendStringAttr(kvs, "layercrack.layer.strategy", getStringField(data, "strategy"))
	kvs = appendInt64Attr(kvs, "layercrack.layer.attempts", data, "attempts")
	kvs = appendInt64Attr(kvs, "layercrack.layer.skipped", data, "skipped")
	kvs = appendInt64Attr(kvs, "layercrack.layer.elapsed_ms", data, "elapsed_ms")
	kvs = appendInt64Attr(kvs, "layercrack.layer.files", data, "files")
	kvs = appendInt64Attr(kvs, "layercrack.layer.hints", data, "hints")
	if archive := getStringField(data, "archive"); archive != "" {
		kvs = append(kvs, otelLog.String("layercrack.layer.archive", filepath.Base(archive)))
	}
	if strength, ok := data["strength"].(map[string]interface{}); ok {
		kvs = appendStringAttr(kvs, "layercrack.layer.strength", getStringField(strength, "label"))
	}
	kvs = appendStringAttr(kvs, "layercrack.layer.password", getStringField(data, "password"))
	return kvs
}

func fileSemanticAttributes(data map[string]interface{}) []otelLog.KeyValue {
	var kvs []otelLog.KeyValue
	rel := getStringField(data, "rel_path")
	name := getStringField(data, "name")
	if name == "" && rel != "" {
		name = filepath.Base(rel)
	}
	if name != "" {
		kvs = append(kvs, otelLog.String(string(semconv.FileNameKey), name))
		if ext := strings.TrimPrefix(filepath.Ext(name), "."); ext != "" {
			kvs = append(kvs, otelLog.String(string(semconv.FileExtensionKey), ext))
		}
	}
	if size, ok := getInt64Field(data, "size"); ok {
		kvs = append(kvs, otelLog.Int64(string(semconv.FileSizeKey), size))
	}
	kvs = appendInt64Attr(kvs, "layercrack.file.layer", data, "layer")
	kvs = appendStringAttr(kvs, "layercrack.file.rel_path", rel)
	kvs = appendStringAttr(kvs, "layercrack.file.kind", getStringField(data, "kind"))
	kvs = appendStringAttr(kvs, "layercrack.file.mime_type", getStringField(data, "mime_type"))
	kvs = appendStringAttr(kvs, "layercrack.file.archive_format", getStringField(data, "archive_format"))

	hashes := getStringMapField(data, "hashes")
	for _, algo := range slices.Sorted(maps.Keys(hashes)) {
		kvs = appendStringAttr(kvs, fmt.Sprintf("layercrack.file.hash.%s", algo), hashes[algo])
	}
	fuzzy := getStringMapField(data, "fuzzy_hashes")
	for _, algo := range slices.Sorted(maps.Keys(fuzzy)) {
		kvs = appendStringAttr(kvs, fmt.Sprintf("layercrack.file.fuzzy_hash.%s", algo), fuzzy[algo])
	}
	return kvs
}

func hintSemanticAttributes(data map[string]interface{}) []otelLog.KeyValue {
	var kvs []otelLog.KeyValue
	kvs = appendStringAttr(kvs, "layercrack.hint.kind", getStringField(data, "kind"))
	kvs = appendInt64Attr(kvs, "layercrack.hint.layer", data, "layer")
	kvs = appendStringAttr(kvs, "layercrack.hint.source", getStringField(data, "source"))
	return kvs
}

func summarySemanticAttributes(data map[string]interface{}) []otelLog.KeyValue {
	var kvs []otelLog.KeyValue
	kvs = appendStringAttr(kvs, "layercrack.summary.status", getStringField(data, "status"))
	kvs = appendInt64Attr(kvs, "layercrack.summary.layers_cracked", data, "layers_cracked")
	kvs = appendInt64Attr(kvs, "layercrack.summary.failed_layer", data, "failed_layer")
	kvs = appendStringAttr(kvs, "layercrack.summary.reason", getStringField(data, "reason"))
	kvs = appendInt64Attr(kvs, "layercrack.summary.hints_collected", data, "hints_collected")
	kvs = appendInt64Attr(kvs, "layercrack.summary.elapsed_ms", data, "elapsed_ms")
	return kvs
}

func payloadToMap(payload interface{}) map[string]interface{} {
	switch v := payload.(type) {
	case nil:
		return nil
	case map[string]interface{}:
		return v
	default:
		data, err := json.Marshal(payload)
		if err != nil {
			return nil
		}
		var decoded map[string]interface{}
		if err := json.Unmarshal(data, &decoded); err != nil {
			return nil
		}
		return decoded
	}
}

func getStringField(values map[string]interface{}, key string) string {
	value, ok := values[key]
	if !ok || value == nil {
		return ""
	}
	if str, ok := value.(string); ok {
		return str
	}
	return fmt.Sprint(value)
}

func getInt64Field(values map[string]interface{}, key string) (int64, bool) {
	value, ok := values[key]
	if !ok || value == nil {
		return 0, false
	}
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int64:
		return v, true
	case float64:
		return int64(v), true
	case json.Number:
		if parsed, err := v.Int64(); err == nil {
			return parsed, true
		}
	}
	return 0, false
}

func getStringMapField(values map[string]interface{}, key string) map[string]string {
	value, ok := values[key]
	if !ok || value == nil {
		return nil
	}
	switch v := value.(type) {
	case map[string]string:
		return v
	case map[string]interface{}:
		out := make(map[string]string, len(v))
		for k, val := range v {
			if val == nil {
				continue
			}
			out[k] = fmt.Sprint(val)
		}
		return out
	default:
		return nil
	}
}

func appendStringAttr(kvs []otelLog.KeyValue, key, value string) []otelLog.KeyValue {
	if value == "" {
		return kvs
	}
	return append(kvs, otelLog.String(key, value))
}

func appendInt64Attr(kvs []otelLog.KeyValue, key string, data map[string]interface{}, field string) []otelLog.KeyValue {
	value, ok := getInt64Field(data, field)
	if !ok {
		return kvs
	}
	return append(kvs, otelLog.Int64(key, value))
}
