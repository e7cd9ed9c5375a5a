package config

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

// MaxKnowledgeLimit mirrors the generator's hard ceiling.
const MaxKnowledgeLimit = 10000

type Config struct {
	ArchivePath          string            `json:"archive" yaml:"archive"`
	WorkDir              string            `json:"work_dir" yaml:"work_dir"`
	MaxLayers            int               `json:"max_layers" yaml:"max_layers"`
	LayerTimeout         time.Duration     `json:"layer_timeout" yaml:"layer_timeout"`
	Workers              int               `json:"workers" yaml:"workers"`
	MaxAttemptsPerSecond int               `json:"max_attempts_per_second" yaml:"max_attempts_per_second"`
	ProgressEvery        int               `json:"progress_every" yaml:"progress_every"`
	ShowProgress         bool              `json:"show_progress" yaml:"show_progress"`
	Wordlist             string            `json:"wordlist" yaml:"wordlist"`
	StaticCandidates     []string          `json:"static_candidates" yaml:"static_candidates"`
	BaseWords            []string          `json:"base_words" yaml:"base_words"`
	NumericFallback      int               `json:"numeric_fallback" yaml:"numeric_fallback"`
	KnowledgeLimit       int               `json:"knowledge_limit" yaml:"knowledge_limit"`
	SeedHint             string            `json:"seed_hint" yaml:"seed_hint"`
	JournalDir           string            `json:"journal_dir" yaml:"journal_dir"`
	InspectOnly          bool              `json:"inspect_only" yaml:"inspect_only"`
	BuildChallenge       string            `json:"build_challenge" yaml:"build_challenge"`
	CollectSystemInfo    bool              `json:"collect_system_info" yaml:"collect_system_info"`
	OutputFormat         string            `json:"output_format" yaml:"output_format"`
	OutputFileName       string            `json:"output_file_name" yaml:"output_file_name"`
	HashAlgorithms       []string          `json:"hash_algorithms" yaml:"hash_algorithms"`
	FuzzyHash            bool              `json:"fuzzy_hash" yaml:"fuzzy_hash"`
	FuzzyAlgorithms      []string          `json:"fuzzy_algorithms" yaml:"fuzzy_algorithms"`
	FuzzyMinSize         int64             `json:"fuzzy_min_size" yaml:"fuzzy_min_size"`
	FuzzyMaxSize         int64             `json:"fuzzy_max_size" yaml:"fuzzy_max_size"`
	IncludePatterns      []string          `json:"include_patterns" yaml:"include_patterns"`
	ExcludePatterns      []string          `json:"exclude_patterns" yaml:"exclude_patterns"`
	MaxFileSize          int64             `json:"max_file_size" yaml:"max_file_size"`
	MetadataMaxBytes     int64             `json:"metadata_max_bytes" yaml:"metadata_max_bytes"`
	ContentReadMode      string            `json:"content_read_mode" yaml:"content_read_mode"`
	StreamChunkSize      int               `json:"stream_chunk_size" yaml:"stream_chunk_size"`
	MmapMinSize          int64             `json:"mmap_min_size" yaml:"mmap_min_size"`
	LogLevel             string            `json:"log_level" yaml:"log_level"`
	ConfigFile           string            `json:"config_file" yaml:"config_file"`
	DiagStallThreshold   time.Duration     `json:"diag_stall_threshold" yaml:"diag_stall_threshold"`
	DiagDir              string            `json:"diag_dir" yaml:"diag_dir"`
	DiagGoroutineLeak    bool              `json:"diag_goroutine_leak" yaml:"diag_goroutine_leak"`
	OtelEndpoint         string            `json:"otel_endpoint" yaml:"otel_endpoint"`
	OtelFromEnv          bool              `json:"otel_from_env" yaml:"otel_from_env"`
	OtelHeaders          map[string]string `json:"otel_headers" yaml:"otel_headers"`
	OtelServiceName      string            `json:"otel_service_name" yaml:"otel_service_name"`
	OtelTimeout          time.Duration     `json:"otel_timeout" yaml:"otel_timeout"`
	OtelExportPasswords  bool              `json:"otel_export_passwords" yaml:"otel_export_passwords"`
	TraceFlight          bool              `json:"trace_flight" yaml:"trace_flight"`
	TraceFlightFile      string            `json:"trace_flight_file" yaml:"trace_flight_file"`
	TraceFlightMaxBytes  uint64            `json:"trace_flight_max_bytes" yaml:"trace_flight_max_bytes"`
	TraceFlightMinAge    time.Duration     `json:"trace_flight_min_age" yaml:"trace_flight_min_age"`
}

func defaults() *Config {
	now := time.Now().UTC()
	timestamp := now.Format("20060102-150405")
	return &Config{
		WorkDir:              "layercrack-" + timestamp,
		MaxLayers:            64,
		Workers:              1,
		ProgressEvery:        1000,
		ShowProgress:         true,
		KnowledgeLimit:       MaxKnowledgeLimit,
		CollectSystemInfo:    true,
		OutputFormat:         "json",
		OutputFileName:       fmt.Sprintf("layercrack-%s-%d.ndjson", timestamp, now.Unix()),
		HashAlgorithms:       []string{"sha256", "blake3"},
		FuzzyMinSize:         256,
		FuzzyMaxSize:         20 * 1024 * 1024,
		MaxFileSize:          10 * 1024 * 1024,
		MetadataMaxBytes:     1 * 1024 * 1024,
		ContentReadMode:      "auto",
		StreamChunkSize:      256 * 1024,
		MmapMinSize:          128 * 1024,
		LogLevel:             "info",
		DiagDir:              ".",
		OtelHeaders:          map[string]string{},
		OtelServiceName:      "layercrack",
		OtelTimeout:          5 * time.Second,
		TraceFlightFile:      "trace-flight.out",
	}
}

func LoadConfig() (*Config, error) {
	cfg := defaults()

	archive := flag.String("archive", "", "Path to the outermost encrypted archive (or pass it as the first argument).")
	workDir := flag.String("work-dir", cfg.WorkDir, "Directory receiving one extraction directory per layer (default: layercrack-<timestamp>).")
	maxLayers := flag.Int("max-layers", cfg.MaxLayers, fmt.Sprintf("Stop after this many layers (default: %d).", cfg.MaxLayers))
	layerTimeout := flag.Duration("layer-timeout", cfg.LayerTimeout, "Wall-clock budget per layer, 0 for none (default: 0).")
	workers := flag.Int("workers", cfg.Workers, fmt.Sprintf("Candidates tried concurrently per layer, 0 sizes from CPUs and memory (default: %d).", cfg.Workers))
	maxAttempts := flag.Int("max-attempts-per-second", cfg.MaxAttemptsPerSecond, "Throttle password attempts per second, 0 for unlimited (default: 0).")
	progressEvery := flag.Int("progress-every", cfg.ProgressEvery, fmt.Sprintf("Log a debug line every N attempts, 0 to disable (default: %d).", cfg.ProgressEvery))
	showProgress := flag.Bool("progress", cfg.ShowProgress, fmt.Sprintf("Show a progress spinner while cracking (default: %t).", cfg.ShowProgress))
	wordlist := flag.String("wordlist", "", "File with one candidate per line appended to the first-layer list (default: none).")
	static := flag.String("candidates", "", "Comma-separated candidates appended to the first-layer list (default: none).")
	baseWords := flag.String("base-words", "", "Comma-separated words whose mutations are tried on every layer (default: none).")
	numericFallback := flag.Int("numeric-fallback", cfg.NumericFallback, "Append a numeric brute force up to this length on every layer, 0 to disable (default: 0).")
	knowledgeLimit := flag.Int("knowledge-limit", cfg.KnowledgeLimit, fmt.Sprintf("Cap on knowledge-derived candidates per strategy (default: %d).", cfg.KnowledgeLimit))
	seedHint := flag.String("seed-hint", "", "Hint text used for the first layer (default: none).")
	journalDir := flag.String("journal", "", "Directory of the resumable attempt journal (default: none).")
	inspect := flag.Bool("inspect", false, "List the archive entries and exit.")
	buildChallenge := flag.String("build-challenge", "", "Write the three-layer sample challenge into this directory and exit.")
	collectSystemInfo := flag.Bool("collect-system-info", cfg.CollectSystemInfo, fmt.Sprintf("Record host information in the report (default: %t).", cfg.CollectSystemInfo))
	format := flag.String("format", cfg.OutputFormat, fmt.Sprintf("Report format: json or csv (default: %s).", cfg.OutputFormat))
	output := flag.String("output", cfg.OutputFileName, "Report file name (default: layercrack-<timestamp>-<unix>.ndjson).")
	hashes := flag.String("hashes", strings.Join(cfg.HashAlgorithms, ","), fmt.Sprintf("Comma-separated hash algorithms for extracted files (default: %s).", strings.Join(cfg.HashAlgorithms, ",")))
	fuzzyHash := flag.Bool("fuzzy-hash", cfg.FuzzyHash, fmt.Sprintf("Enable fuzzy hashing of extracted files (default: %t).", cfg.FuzzyHash))
	fuzzyAlgorithms := flag.String("fuzzy-algorithms", "", "Comma-separated fuzzy hash algorithms (default: tlsh when fuzzy hashing enabled).")
	fuzzyMinSize := flag.Int64("fuzzy-min-size", cfg.FuzzyMinSize, fmt.Sprintf("Minimum file size in bytes for fuzzy hashing (default: %d).", cfg.FuzzyMinSize))
	fuzzyMaxSize := flag.Int64("fuzzy-max-size", cfg.FuzzyMaxSize, fmt.Sprintf("Maximum file size in bytes for fuzzy hashing (default: %d).", cfg.FuzzyMaxSize))
	includes := flag.String("include", "", "Comma-separated patterns of extracted files mined for hints (default: all).")
	excludes := flag.String("exclude", "", "Comma-separated patterns of extracted files skipped when mining hints (default: none).")
	maxFileSize := flag.Int64("max-file-size", cfg.MaxFileSize, fmt.Sprintf("Largest extracted file read for hints in bytes (default: %d).", cfg.MaxFileSize))
	metadataMaxBytes := flag.Int64("metadata-max-bytes", cfg.MetadataMaxBytes, fmt.Sprintf("Maximum bytes metadata parsers may read per file, 0 for unlimited (default: %d).", cfg.MetadataMaxBytes))
	contentReadMode := flag.String("content-read-mode", cfg.ContentReadMode, "Content read mode: auto, stream, or mmap (default: auto).")
	streamChunkSize := flag.Int("stream-chunk-size", cfg.StreamChunkSize, "Streaming chunk size in bytes (default: 262144).")
	mmapMinSize := flag.Int64("mmap-min-size", cfg.MmapMinSize, "Minimum file size in bytes for the mmap read path (default: 131072).")
	logLevel := flag.String("log-level", cfg.LogLevel, fmt.Sprintf("Log level: debug, info, warn, error, fatal, or panic (default: %s).", cfg.LogLevel))
	configFile := flag.String("config", "", "Path to a JSON or YAML configuration file (default: none).")
	diagStall := flag.Duration("diag-stall-threshold", cfg.DiagStallThreshold, "If positive, dump diagnostics when no attempt completes for this long (default: 0/off).")
	diagDir := flag.String("diag-dir", cfg.DiagDir, "Diagnostics output directory (default: current directory).")
	diagGoroutineLeak := flag.Bool("diag-goroutine-leak", cfg.DiagGoroutineLeak, "Write goroutine leak profile on shutdown (default: false).")
	otelEndpoint := flag.String("otel-endpoint", cfg.OtelEndpoint, "OTLP/HTTP logs endpoint (default: none).")
	otelFromEnv := flag.Bool("otel-from-env", cfg.OtelFromEnv, "Allow OTEL endpoint fallback from OTEL environment variables (default: false).")
	otelHeaders := flag.String("otel-headers", "", "Comma-separated OTEL headers (key=value) for export (default: none).")
	otelServiceName := flag.String("otel-service-name", cfg.OtelServiceName, "OTEL service name for export (default: layercrack).")
	otelTimeout := flag.Duration("otel-timeout", cfg.OtelTimeout, "OTEL export timeout (default: 5s).")
	otelExportPasswords := flag.Bool("otel-export-passwords", cfg.OtelExportPasswords, "Include recovered passwords in OTEL payloads (default: false).")
	traceFlight := flag.Bool("trace-flight", cfg.TraceFlight, fmt.Sprintf("Enable flight recorder tracing (default: %t).", cfg.TraceFlight))
	traceFlightFile := flag.String("trace-flight-file", cfg.TraceFlightFile, fmt.Sprintf("Flight recorder output file (default: %s).", cfg.TraceFlightFile))
	traceFlightMaxBytes := flag.Uint64("trace-flight-max-bytes", cfg.TraceFlightMaxBytes, "Max bytes for flight recorder buffer (default: 0 for runtime default).")
	traceFlightMinAge := flag.Duration("trace-flight-min-age", cfg.TraceFlightMinAge, "Minimum age of trace events to retain (default: 0).")
	flag.Usage = displayHelp
	flag.Parse()

	if *configFile != "" {
		cfg.ConfigFile = *configFile
		if err := cfg.loadFromFile(cfg.ConfigFile); err != nil {
			return nil, err
		}
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "archive":
			cfg.ArchivePath = *archive
		case "work-dir":
			cfg.WorkDir = *workDir
		case "max-layers":
			cfg.MaxLayers = *maxLayers
		case "layer-timeout":
			cfg.LayerTimeout = *layerTimeout
		case "workers":
			cfg.Workers = *workers
		case "max-attempts-per-second":
			cfg.MaxAttemptsPerSecond = *maxAttempts
		case "progress-every":
			cfg.ProgressEvery = *progressEvery
		case "progress":
			cfg.ShowProgress = *showProgress
		case "wordlist":
			cfg.Wordlist = *wordlist
		case "candidates":
			cfg.StaticCandidates = parseCommaSeparated(*static)
		case "base-words":
			cfg.BaseWords = parseCommaSeparated(*baseWords)
		case "numeric-fallback":
			cfg.NumericFallback = *numericFallback
		case "knowledge-limit":
			cfg.KnowledgeLimit = *knowledgeLimit
		case "seed-hint":
			cfg.SeedHint = *seedHint
		case "journal":
			cfg.JournalDir = *journalDir
		case "inspect":
			cfg.InspectOnly = *inspect
		case "build-challenge":
			cfg.BuildChallenge = *buildChallenge
		case "collect-system-info":
			cfg.CollectSystemInfo = *collectSystemInfo
		case "format":
			cfg.OutputFormat = *format
		case "output":
			cfg.OutputFileName = *output
		case "hashes":
			cfg.HashAlgorithms = parseCommaSeparated(*hashes)
		case "fuzzy-hash":
			cfg.FuzzyHash = *fuzzyHash
		case "fuzzy-algorithms":
			cfg.FuzzyAlgorithms = parseCommaSeparated(*fuzzyAlgorithms)
		case "fuzzy-min-size":
			cfg.FuzzyMinSize = *fuzzyMinSize
		case "fuzzy-max-size":
			cfg.FuzzyMaxSize = *fuzzyMaxSize
		case "include":
			cfg.IncludePatterns = parseCommaSeparated(*includes)
		case "exclude":
			cfg.ExcludePatterns = parseCommaSeparated(*excludes)
		case "max-file-size":
			cfg.MaxFileSize = *maxFileSize
		case "metadata-max-bytes":
			cfg.MetadataMaxBytes = *metadataMaxBytes
		case "content-read-mode":
			cfg.ContentReadMode = *contentReadMode
		case "stream-chunk-size":
			cfg.StreamChunkSize = *streamChunkSize
		case "mmap-min-size":
			cfg.MmapMinSize = *mmapMinSize
		case "log-level":
			cfg.LogLevel = *logLevel
		case "diag-stall-threshold":
			cfg.DiagStallThreshold = *diagStall
		case "diag-dir":
			cfg.DiagDir = strings.TrimSpace(*diagDir)
		case "diag-goroutine-leak":
			cfg.DiagGoroutineLeak = *diagGoroutineLeak
		case "otel-endpoint":
			cfg.OtelEndpoint = strings.TrimSpace(*otelEndpoint)
		case "otel-from-env":
			cfg.OtelFromEnv = *otelFromEnv
		case "otel-headers":
			cfg.OtelHeaders = parseHeaders(*otelHeaders)
		case "otel-service-name":
			cfg.OtelServiceName = strings.TrimSpace(*otelServiceName)
		case "otel-timeout":
			cfg.OtelTimeout = *otelTimeout
		case "otel-export-passwords":
			cfg.OtelExportPasswords = *otelExportPasswords
		case "trace-flight":
			cfg.TraceFlight = *traceFlight
		case "trace-flight-file":
			cfg.TraceFlightFile = *traceFlightFile
		case "trace-flight-max-bytes":
			cfg.TraceFlightMaxBytes = *traceFlightMaxBytes
		case "trace-flight-min-age":
			cfg.TraceFlightMinAge = *traceFlightMinAge
		}
	})
	if cfg.ArchivePath == "" && flag.NArg() > 0 {
		cfg.ArchivePath = flag.Arg(0)
	}

	cfg.normalize()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func displayHelp() {
	fmt.Println("layercrack - multi-layer encrypted archive cracker")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  layercrack [options] [archive]")
	fmt.Println()
	fmt.Println("Options:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  layercrack challenge.zip")
	fmt.Println("  layercrack --workers 4 --journal .layercrack-journal --archive challenge.zip")
	fmt.Println("  layercrack --inspect challenge.zip")
	fmt.Println("  layercrack --build-challenge ./sample")
}

// loadFromFile reads JSON, or YAML when the extension says so.
func (cfg *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("could not read config file: %v", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, cfg)
	default:
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return fmt.Errorf("invalid config file format: %v", err)
	}
	return nil
}

func (cfg *Config) normalize() {
	cfg.OutputFormat = strings.ToLower(strings.TrimSpace(cfg.OutputFormat))
	cfg.ContentReadMode = strings.ToLower(strings.TrimSpace(cfg.ContentReadMode))
	cfg.LogLevel = strings.ToLower(strings.TrimSpace(cfg.LogLevel))
	if cfg.ContentReadMode == "" {
		cfg.ContentReadMode = "auto"
	}
	if cfg.StreamChunkSize <= 0 {
		cfg.StreamChunkSize = 256 * 1024
	}
	if cfg.MmapMinSize <= 0 {
		cfg.MmapMinSize = 128 * 1024
	}
	if strings.TrimSpace(cfg.DiagDir) == "" {
		cfg.DiagDir = "."
	}
	if cfg.Workers > runtime.NumCPU()*4 {
		cfg.Workers = runtime.NumCPU() * 4
	}
	cfg.HashAlgorithms = normalizeAlgorithms(cfg.HashAlgorithms)
	cfg.FuzzyAlgorithms = normalizeAlgorithms(cfg.FuzzyAlgorithms)
	if cfg.FuzzyHash && len(cfg.FuzzyAlgorithms) == 0 {
		cfg.FuzzyAlgorithms = []string{"tlsh"}
	}
	if len(cfg.FuzzyAlgorithms) > 0 {
		cfg.FuzzyHash = true
	}
	if cfg.FuzzyMaxSize > 0 && cfg.FuzzyMaxSize < cfg.FuzzyMinSize {
		cfg.FuzzyMaxSize = cfg.FuzzyMinSize
	}
	if cfg.TraceFlight && cfg.TraceFlightFile == "" {
		cfg.TraceFlightFile = "trace-flight.out"
	}
}

func (cfg *Config) validate() error {
	if cfg.BuildChallenge == "" && strings.TrimSpace(cfg.ArchivePath) == "" {
		return fmt.Errorf("an archive path is required (use --archive or pass it as an argument)")
	}
	if cfg.OutputFormat != "json" && cfg.OutputFormat != "csv" {
		return fmt.Errorf("invalid output format: %s (json or csv)", cfg.OutputFormat)
	}
	if cfg.Workers < 0 {
		return fmt.Errorf("workers must be zero (auto) or positive")
	}
	if cfg.MaxLayers <= 0 {
		return fmt.Errorf("max-layers must be positive")
	}
	if cfg.LayerTimeout < 0 {
		return fmt.Errorf("layer-timeout must be zero or positive")
	}
	if cfg.MaxAttemptsPerSecond < 0 {
		return fmt.Errorf("max-attempts-per-second must be zero or positive")
	}
	if cfg.ProgressEvery < 0 {
		return fmt.Errorf("progress-every must be zero or positive")
	}
	if cfg.NumericFallback < 0 || cfg.NumericFallback > 12 {
		return fmt.Errorf("numeric-fallback must be between 0 and 12")
	}
	if cfg.KnowledgeLimit <= 0 || cfg.KnowledgeLimit > MaxKnowledgeLimit {
		return fmt.Errorf("knowledge-limit must be between 1 and %d", MaxKnowledgeLimit)
	}
	if cfg.Wordlist != "" {
		if _, err := os.Stat(cfg.Wordlist); err != nil {
			return fmt.Errorf("wordlist not readable: %v", err)
		}
	}
	if cfg.FuzzyMinSize < 0 || cfg.FuzzyMaxSize < 0 {
		return fmt.Errorf("fuzzy size limits must be zero or positive")
	}
	if cfg.MaxFileSize < 0 {
		return fmt.Errorf("max-file-size must be zero or positive")
	}
	if cfg.MetadataMaxBytes < 0 {
		return fmt.Errorf("metadata-max-bytes must be zero or positive")
	}
	if cfg.ContentReadMode != "stream" && cfg.ContentReadMode != "mmap" && cfg.ContentReadMode != "auto" {
		return fmt.Errorf("invalid content-read-mode value: %s", cfg.ContentReadMode)
	}
	if cfg.StreamChunkSize <= 0 {
		return fmt.Errorf("stream-chunk-size must be positive")
	}
	if cfg.MmapMinSize < 0 {
		return fmt.Errorf("mmap-min-size must be zero or positive")
	}
	if cfg.DiagStallThreshold < 0 {
		return fmt.Errorf("diag-stall-threshold must be zero or positive")
	}
	if cfg.TraceFlightMinAge < 0 {
		return fmt.Errorf("trace-flight-min-age must be zero or positive")
	}
	if cfg.OtelTimeout < 0 {
		return fmt.Errorf("otel-timeout must be zero or positive")
	}
	if cfg.OtelEndpoint != "" {
		if !strings.HasPrefix(cfg.OtelEndpoint, "http://") && !strings.HasPrefix(cfg.OtelEndpoint, "https://") {
			return fmt.Errorf("otel-endpoint must include scheme (http or https)")
		}
	}
	if cfg.LogLevel != "debug" && cfg.LogLevel != "info" && cfg.LogLevel != "warn" &&
		cfg.LogLevel != "error" && cfg.LogLevel != "fatal" && cfg.LogLevel != "panic" {
		return fmt.Errorf("invalid log level: %s", cfg.LogLevel)
	}
	return nil
}

// StaticList returns the configured first-layer list: inline
// candidates, then wordlist lines, skipping blanks and # comments.
func (cfg *Config) StaticList() ([]string, error) {
	out := append([]string(nil), cfg.StaticCandidates...)
	if cfg.Wordlist == "" {
		return out, nil
	}
	data, err := os.ReadFile(cfg.Wordlist)
	if err != nil {
		return nil, err
	}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out, nil
}

func parseCommaSeparated(input string) []string {
	if input == "" {
		return []string{}
	}
	items := strings.Split(input, ",")
	for i, item := range items {
		items[i] = strings.TrimSpace(item)
	}
	return items
}

func parseHeaders(input string) map[string]string {
	headers := make(map[string]string)
	if input == "" {
		return headers
	}
	for _, item := range strings.Split(input, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		key, value, ok := strings.Cut(item, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		headers[key] = strings.TrimSpace(value)
	}
	return headers
}

func normalizeAlgorithms(items []string) []string {
	normalized := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.ToLower(strings.TrimSpace(item))
		if item == "" {
			continue
		}
		normalized = append(normalized, item)
	}
	return normalized
}
