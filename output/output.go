package output

import (
	"bufio"
	"encoding/csv"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"layercrack/candidate"
	"layercrack/config"
	"layercrack/logger"
	"layercrack/scanner"
	"layercrack/systeminfo"
	"layercrack/traversal"

	"lukechampine.com/blake3"
)

const SchemaVersion = "1.0"

// Record is one line of the report. Data is a session, layer, file, hint or
// summary payload depending on RecordType.
type Record struct {
	RecordType    string      `json:"record_type"`
	SchemaVersion string      `json:"schema_version"`
	Time          string      `json:"time"`
	Data          interface{} `json:"data"`
}

type SessionInfo struct {
	Archive      string               `json:"archive"`
	WorkDir      string               `json:"work_dir"`
	ConfigDigest string               `json:"config_digest"`
	StartTime    string               `json:"start_time"`
	Host         *systeminfo.HostInfo `json:"host,omitempty"`
}

type layerEntry struct {
	Layer         int              `json:"layer"`
	Archive       string           `json:"archive"`
	Strategy      string           `json:"strategy"`
	Password      string           `json:"password"`
	Strength      candidate.Rating `json:"strength"`
	Attempts      int              `json:"attempts"`
	Skipped       int              `json:"skipped,omitempty"`
	ElapsedMS     int64            `json:"elapsed_ms"`
	ExtractDir    string           `json:"extract_dir"`
	NestedArchive string           `json:"nested_archive,omitempty"`
	Files         int              `json:"files"`
	Hints         int              `json:"hints"`
}

type fileEntry struct {
	Layer int `json:"layer"`
	scanner.FileRecord
}

type summaryEntry struct {
	traversal.Summary
	ElapsedMS int64 `json:"elapsed_ms"`
}

// Writer streams report records to a file and, when configured, to an
// OTLP log endpoint. It satisfies traversal.Observer.
type Writer struct {
	mu     sync.Mutex
	file   *os.File
	buf    *bufio.Writer
	csvw   *csv.Writer
	cfg    *config.Config
	otel   *otelLogger
	format string
	counts map[string]int
	err    error
}

var _ traversal.Observer = (*Writer)(nil)

var csvHeader = []string{"record_type", "schema_version", "time", "layer", "name", "value", "data"}

func New(cfg *config.Config, host *systeminfo.HostInfo) (*Writer, error) {
	format := strings.ToLower(cfg.OutputFormat)
	if format == "" {
		format = "json"
	}
	f, err := os.OpenFile(cfg.OutputFileName, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, err
	}
	w := &Writer{
		file:   f,
		buf:    bufio.NewWriterSize(f, 256*1024),
		cfg:    cfg,
		format: format,
		counts: make(map[string]int),
	}
	if format == "csv" {
		w.csvw = csv.NewWriter(w.buf)
		if err := w.csvw.Write(csvHeader); err != nil {
			f.Close()
			return nil, err
		}
	}
	if otel, err := newOtelLogger(cfg); err != nil {
		logger.Warnf("OTEL export disabled: %v", err)
	} else {
		w.otel = otel
	}

	w.write("session", SessionInfo{
		Archive:      cfg.ArchivePath,
		WorkDir:      cfg.WorkDir,
		ConfigDigest: ConfigDigest(cfg),
		StartTime:    time.Now().UTC().Format(time.RFC3339),
		Host:         host,
	}, 0, "archive", cfg.ArchivePath)
	w.flush()
	return w, w.err
}

// ConfigDigest fingerprints the effective configuration. Per-run names
// (report file, work dir) are left out.
func ConfigDigest(cfg *config.Config) string {
	c := *cfg
	c.OutputFileName = ""
	c.WorkDir = ""
	data, err := jsonMarshal(&c)
	if err != nil {
		return ""
	}
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func (w *Writer) LayerStarted(layer int, archivePath, strategy string) {
	logger.Debugf("Report: layer %d started (%s)", layer, strategy)
}

// LayerCracked writes the layer record followed by one record per
// extracted file and per hint.
func (w *Writer) LayerCracked(rec traversal.LayerRecord) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.write("layer", layerEntry{
		Layer:         rec.Layer,
		Archive:       rec.ArchivePath,
		Strategy:      rec.Strategy,
		Password:      rec.Password,
		Strength:      rec.Strength,
		Attempts:      rec.Attempts,
		Skipped:       rec.Skipped,
		ElapsedMS:     rec.Elapsed.Milliseconds(),
		ExtractDir:    rec.ExtractDir,
		NestedArchive: rec.NestedArchive,
		Files:         len(rec.Files),
		Hints:         len(rec.Hints),
	}, rec.Layer, rec.ArchivePath, rec.Password)
	for _, f := range rec.Files {
		w.write("file", fileEntry{Layer: rec.Layer, FileRecord: f}, rec.Layer, f.RelPath, f.Hashes["sha256"])
	}
	for _, h := range rec.Hints {
		w.write("hint", h, rec.Layer, string(h.Kind), h.Payload())
	}
	w.flush()
}

func (w *Writer) WriteSummary(sum traversal.Summary) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.write("summary", summaryEntry{Summary: sum, ElapsedMS: sum.Elapsed.Milliseconds()}, sum.FailedLayer, string(sum.Status), sum.Reason)
	w.flush()
}

// Counts returns how many records of each type were written.
func (w *Writer) Counts() map[string]int {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make(map[string]int, len(w.counts))
	for k, v := range w.counts {
		out[k] = v
	}
	return out
}

func (w *Writer) Path() string {
	return w.file.Name()
}

// Close flushes the report and shuts the exporter down. It returns the
// first write error seen.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.flush()
	if err := w.file.Sync(); err != nil && w.err == nil {
		w.err = err
	}
	if err := w.file.Close(); err != nil && w.err == nil {
		w.err = err
	}
	w.otel.Shutdown()
	return w.err
}

func (w *Writer) write(recordType string, data interface{}, layer int, name, value string) {
	rec := Record{
		RecordType:    recordType,
		SchemaVersion: SchemaVersion,
		Time:          time.Now().UTC().Format(time.RFC3339Nano),
		Data:          data,
	}
	w.counts[recordType]++
	w.otel.Emit(recordType, data)

	var err error
	switch w.format {
	case "csv":
		layerField := ""
		if layer > 0 {
			layerField = strconv.Itoa(layer)
		}
		err = w.csvw.Write([]string{recordType, SchemaVersion, rec.Time, layerField, name, value, jsonString(data)})
	default:
		var line []byte
		line, err = jsonMarshal(rec)
		if err == nil {
			line = append(line, '\n')
			_, err = w.buf.Write(line)
		}
	}
	if err != nil && w.err == nil {
		w.err = fmt.Errorf("write %s record: %w", recordType, err)
		logger.Warnf("Report write failed: %v", err)
	}
}

func (w *Writer) flush() {
	if w.csvw != nil {
		w.csvw.Flush()
		if err := w.csvw.Error(); err != nil && w.err == nil {
			w.err = err
		}
	}
	if err := w.buf.Flush(); err != nil && w.err == nil {
		w.err = err
	}
}

func jsonString(value interface{}) string {
	if value == nil {
		return ""
	}
	bytes, err := jsonMarshal(value)
	if err != nil {
		return ""
	}
	return string(bytes)
}
