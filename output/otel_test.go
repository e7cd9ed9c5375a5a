package output

import (
	"testing"

	"layercrack/config"

	otelLog "go.opentelemetry.io/otel/log"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"
)

func findAttr(kvs []otelLog.KeyValue, key string) (otelLog.Value, bool) {
	for _, kv := range kvs {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return otelLog.Value{}, false
}

func findAttrIndex(kvs []otelLog.KeyValue, key string) int {
	for i, kv := range kvs {
		if kv.Key == key {
			return i
		}
	}
	return -1
}

func TestResolveOtelEndpoint(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_LOGS_ENDPOINT", "https://logs.example.test/v1/logs")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "https://fallback.example.test")

	cfg := &config.Config{OtelEndpoint: "  https://explicit.example.test  ", OtelFromEnv: true}
	if got := resolveOtelEndpoint(cfg); got != "https://explicit.example.test" {
		t.Fatalf("expected explicit endpoint, got %q", got)
	}

	cfg = &config.Config{OtelFromEnv: true}
	if got := resolveOtelEndpoint(cfg); got != "https://logs.example.test/v1/logs" {
		t.Fatalf("expected logs env endpoint, got %q", got)
	}

	t.Setenv("OTEL_EXPORTER_OTLP_LOGS_ENDPOINT", "")
	if got := resolveOtelEndpoint(cfg); got != "https://fallback.example.test" {
		t.Fatalf("expected fallback env endpoint, got %q", got)
	}

	cfg = &config.Config{OtelFromEnv: false}
	if got := resolveOtelEndpoint(cfg); got != "" {
		t.Fatalf("expected empty endpoint when env fallback disabled, got %q", got)
	}
}

func TestSanitizePayloadRedactsPasswords(t *testing.T) {
	layer := map[string]interface{}{"layer": 1, "password": "start123", "strategy": "static"}
	sanitized := sanitizePayload("layer", layer, otelPolicy{})
	if sanitized["password"] != redacted {
		t.Fatalf("expected redacted password, got %#v", sanitized["password"])
	}
	if layer["password"] != "start123" {
		t.Fatal("expected original payload to remain unchanged")
	}
	if got := sanitizePayload("layer", layer, otelPolicy{includePasswords: true}); got["password"] != "start123" {
		t.Fatalf("expected password when export allowed, got %#v", got["password"])
	}

	summary := map[string]interface{}{
		"status":    "complete",
		"passwords": []interface{}{map[string]interface{}{"layer": 1.0, "password": "start123"}},
	}
	sanitized = sanitizePayload("summary", summary, otelPolicy{})
	if _, ok := sanitized["passwords"]; ok {
		t.Fatal("expected password list to be stripped")
	}
	if got := sanitized["passwords_count"]; got != 1 {
		t.Fatalf("expected passwords_count=1, got %#v", got)
	}
}

func TestSanitizePayloadDropsAbsoluteFilePath(t *testing.T) {
	file := map[string]interface{}{"path": "/work/layer-01/readme.txt", "rel_path": "readme.txt"}
	sanitized := sanitizePayload("file", file, otelPolicy{includePasswords: true})
	if _, ok := sanitized["path"]; ok {
		t.Fatal("expected absolute path to be stripped")
	}
	if sanitized["rel_path"] != "readme.txt" {
		t.Fatalf("rel_path lost: %#v", sanitized)
	}
}

func TestSemanticAttributesFile(t *testing.T) {
	payload := map[string]interface{}{
		"rel_path": "deeper/report.txt",
		"size":     float64(42),
		"layer":    float64(2),
		"kind":     "text",
		"hashes":   map[string]interface{}{"sha256": "abc123"},
	}
	attrs := semanticAttributes("file", payload)
	if value, ok := findAttr(attrs, string(semconv.FileNameKey)); !ok || value.AsString() != "report.txt" {
		t.Fatalf("expected file name semantic attribute, got %#v", value)
	}
	if value, ok := findAttr(attrs, string(semconv.FileExtensionKey)); !ok || value.AsString() != "txt" {
		t.Fatalf("expected file extension semantic attribute, got %#v", value)
	}
	if value, ok := findAttr(attrs, string(semconv.FileSizeKey)); !ok || value.AsInt64() != 42 {
		t.Fatalf("expected file size semantic attribute, got %#v", value)
	}
	if value, ok := findAttr(attrs, "layercrack.file.layer"); !ok || value.AsInt64() != 2 {
		t.Fatalf("expected layer attribute, got %#v", value)
	}
	if _, ok := findAttr(attrs, "layercrack.file.hash.sha256"); !ok {
		t.Fatal("expected hash semantic attribute")
	}
}

func TestSemanticAttributesLayerAndSummary(t *testing.T) {
	layer := map[string]interface{}{
		"layer":      float64(3),
		"archive":    "/tmp/work/layer-02/layer3.zip",
		"strategy":   "knowledge(hint)",
		"attempts":   float64(17),
		"elapsed_ms": float64(250),
		"strength":   map[string]interface{}{"label": "strong"},
		"password":   redacted,
	}
	attrs := semanticAttributes("layer", layer)
	if value, ok := findAttr(attrs, "layercrack.layer.archive"); !ok || value.AsString() != "layer3.zip" {
		t.Fatalf("expected archive base name, got %#v", value)
	}
	if value, ok := findAttr(attrs, "layercrack.layer.attempts"); !ok || value.AsInt64() != 17 {
		t.Fatalf("expected attempts, got %#v", value)
	}
	if value, ok := findAttr(attrs, "layercrack.layer.strength"); !ok || value.AsString() != "strong" {
		t.Fatalf("expected strength label, got %#v", value)
	}

	summary := map[string]interface{}{"status": "failed", "failed_layer": float64(2), "reason": "candidate space exhausted"}
	attrs = semanticAttributes("summary", summary)
	if value, ok := findAttr(attrs, "layercrack.summary.reason"); !ok || value.AsString() != "candidate space exhausted" {
		t.Fatalf("expected reason, got %#v", value)
	}
	if value, ok := findAttr(attrs, "layercrack.summary.failed_layer"); !ok || value.AsInt64() != 2 {
		t.Fatalf("expected failed layer, got %#v", value)
	}
}

func TestSemanticAttributesSession(t *testing.T) {
	payload := payloadToMap(SessionInfo{
		Archive:      "/data/challenge.zip",
		ConfigDigest: "abc",
	})
	payload["host"] = map[string]interface{}{"hostname": "box", "arch": "amd64", "logical_cpus": float64(8)}
	attrs := semanticAttributes("session", payload)
	if value, ok := findAttr(attrs, string(semconv.HostNameKey)); !ok || value.AsString() != "box" {
		t.Fatalf("expected host name, got %#v", value)
	}
	if value, ok := findAttr(attrs, "layercrack.session.archive"); !ok || value.AsString() != "challenge.zip" {
		t.Fatalf("expected archive base name, got %#v", value)
	}
	if value, ok := findAttr(attrs, "layercrack.host.logical_cpus"); !ok || value.AsInt64() != 8 {
		t.Fatalf("expected cpu count, got %#v", value)
	}
}

func TestPayloadToMapFromStruct(t *testing.T) {
	data := payloadToMap(layerEntry{Layer: 2, Strategy: "static", Attempts: 7})
	if data == nil {
		t.Fatal("expected payloadToMap to decode struct payload")
	}
	if got := getStringField(data, "strategy"); got != "static" {
		t.Fatalf("expected strategy=static, got %q", got)
	}
	if got, ok := getInt64Field(data, "attempts"); !ok || got != 7 {
		t.Fatalf("expected attempts=7, got %d (ok=%v)", got, ok)
	}
	if payloadToMap(nil) != nil {
		t.Fatal("expected nil map for nil payload")
	}
}

func TestToLogValueCompositeTypes(t *testing.T) {
	mapValue := toLogValue(map[string]string{"a": "b"})
	if mapValue.Kind() != otelLog.KindMap {
		t.Fatalf("expected map kind, got %v", mapValue.Kind())
	}
	sliceValue := toLogValue([]interface{}{"x", 1.5, true})
	if sliceValue.Kind() != otelLog.KindSlice || len(sliceValue.AsSlice()) != 3 {
		t.Fatalf("expected slice kind/len, got kind=%v len=%d", sliceValue.Kind(), len(sliceValue.AsSlice()))
	}
	if empty := toLogValue(struct{}{}); empty.Kind() != otelLog.KindEmpty {
		t.Fatalf("expected empty kind for unsupported type, got %v", empty.Kind())
	}
}

func TestOtelLoggerEndpointAndValidation(t *testing.T) {
	var nilLogger *otelLogger
	if got := nilLogger.Endpoint(); got != "" {
		t.Fatalf("expected empty endpoint for nil logger, got %q", got)
	}
	nilLogger.Emit("layer", map[string]interface{}{"layer": 1})
	nilLogger.Shutdown()

	loggerNilCfg, err := newOtelLogger(nil)
	if err != nil || loggerNilCfg != nil {
		t.Fatalf("expected nil logger for nil config, got %v, %v", loggerNilCfg, err)
	}

	_, err = newOtelLogger(&config.Config{
		OtelEndpoint:    "localhost:4318",
		OtelServiceName: "layercrack",
		OtelTimeout:     1,
	})
	if err == nil {
		t.Fatal("expected validation error for endpoint without scheme")
	}
}

func TestToLogKeyValuesSortedOrder(t *testing.T) {
	kvs := toLogKeyValues(map[string]interface{}{"zeta": 1, "alpha": 2, "middle": 3})
	if len(kvs) != 3 {
		t.Fatalf("expected 3 key values, got %d", len(kvs))
	}
	if kvs[0].Key != "alpha" || kvs[1].Key != "middle" || kvs[2].Key != "zeta" {
		t.Fatalf("expected sorted keys, got order %q, %q, %q", kvs[0].Key, kvs[1].Key, kvs[2].Key)
	}
}

func TestFileSemanticAttributesHashOrderDeterministic(t *testing.T) {
	payload := map[string]interface{}{
		"rel_path":     "hash-order.txt",
		"hashes":       map[string]string{"sha256": "bbb", "blake3": "aaa"},
		"fuzzy_hashes": map[string]string{"tlsh": "ccc"},
	}
	attrs := fileSemanticAttributes(payload)
	blakeIdx := findAttrIndex(attrs, "layercrack.file.hash.blake3")
	shaIdx := findAttrIndex(attrs, "layercrack.file.hash.sha256")
	if blakeIdx == -1 || shaIdx == -1 || blakeIdx > shaIdx {
		t.Fatalf("expected blake3 before sha256, got blake3=%d sha256=%d", blakeIdx, shaIdx)
	}
	if findAttrIndex(attrs, "layercrack.file.fuzzy_hash.tlsh") == -1 {
		t.Fatalf("expected fuzzy hash attr, got %v", attrs)
	}
}
