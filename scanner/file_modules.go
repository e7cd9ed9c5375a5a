package scanner

import (
	"context"
	"os"
	"time"

	"layercrack/config"
	"layercrack/fuzzy"
	"layercrack/hasher"
	"layercrack/logger"
	"layercrack/metadata"
	"layercrack/utils"
)

// FileModule fills one aspect of a FileRecord.
type FileModule interface {
	Name() string
	Enabled(cfg *config.Config) bool
	Collect(ctx context.Context, fc *FileContext, rec *FileRecord) error
}

// FileContext caches reads shared by modules working on the same file.
type FileContext struct {
	Path    string
	RelPath string
	Info    os.FileInfo
	Cfg     *config.Config

	matcher *utils.PatternMatcher

	head       []byte
	headLoaded bool
	mime       string
	content    []byte
	contentErr error
	loaded     bool
}

func (fc *FileContext) Head() []byte {
	if !fc.headLoaded {
		fc.head, _ = readFileSample(fc.Path, sniffBytes)
		fc.headLoaded = true
	}
	return fc.head
}

func (fc *FileContext) MimeType() string {
	if fc.mime == "" {
		fc.mime = mimeFromHead(fc.Head())
	}
	return fc.mime
}

// Content reads the file once, bounded by MaxFileSize.
func (fc *FileContext) Content() ([]byte, error) {
	if !fc.loaded {
		fc.content, fc.contentErr = readContent(fc.Path, fc.Cfg.MaxFileSize, fc.Cfg.ContentReadMode, fc.Cfg.MmapMinSize, fc.Cfg.StreamChunkSize)
		fc.loaded = true
	}
	return fc.content, fc.contentErr
}

func buildFileModules(cfg *config.Config) []FileModule {
	return []FileModule{
		baseModule{},
		classifyModule{},
		hashModule{},
		metadataModule{},
		textModule{},
		fuzzyModule{hashers: buildFuzzyHashers(cfg)},
	}
}

type baseModule struct{}

func (baseModule) Name() string { return "base" }
func (baseModule) Enabled(*config.Config) bool { return true }

func (baseModule) Collect(ctx context.Context, fc *FileContext, rec *FileRecord) error {
	rec.Name = fc.Info.Name()
	rec.Size = fc.Info.Size()
	rec.ModTime = fc.Info.ModTime().UTC().Format(time.RFC3339)
	rec.Permissions = fc.Info.Mode().Perm().String()
	rec.Attributes = getFileAttributes(fc.Info)
	ft, err := fileTimes(fc.Path)
	if err != nil {
		return err
	}
	rec.CreationTime = ft.CreationTime
	rec.AccessTime = ft.AccessTime
	rec.ChangeTime = ft.ChangeTime
	return nil
}

type classifyModule struct{}

func (classifyModule) Name() string { return "classify" }
func (classifyModule) Enabled(*config.Config) bool { return true }

func (classifyModule) Collect(ctx context.Context, fc *FileContext, rec *FileRecord) error {
	rec.MimeType = fc.MimeType()
	rec.Kind, rec.ArchiveFormat, rec.Openable = classify(fc.Head(), rec.MimeType, fc.Path)
	return nil
}

type hashModule struct{}

func (hashModule) Name() string { return "hashes" }
func (hashModule) Enabled(cfg *config.Config) bool { return len(cfg.HashAlgorithms) > 0 }

func (hashModule) Collect(ctx context.Context, fc *FileContext, rec *FileRecord) error {
	hashes, err := hasher.ComputeHashes(fc.Path, fc.Cfg.HashAlgorithms)
	if len(hashes) > 0 {
		rec.Hashes = hashes
	}
	return err
}

type metadataModule struct{}

func (metadataModule) Name() string { return "metadata" }
func (metadataModule) Enabled(*config.Config) bool { return true }

func (metadataModule) Collect(ctx context.Context, fc *FileContext, rec *FileRecord) error {
	if rec.Kind != KindDocument && rec.Kind != KindImage {
		return nil
	}
	if !metadata.Supported(rec.MimeType) || !fc.matcher.ShouldInclude(fc.RelPath) {
		return nil
	}
	if meta := metadata.ExtractMetadata(fc.Path, rec.MimeType, fc.Cfg.MetadataMaxBytes); len(meta) > 0 {
		rec.Metadata = meta
	}
	return nil
}

// textModule keeps the content of text files for hint mining.
type textModule struct{}

func (textModule) Name() string { return "text" }
func (textModule) Enabled(*config.Config) bool { return true }

func (textModule) Collect(ctx context.Context, fc *FileContext, rec *FileRecord) error {
	if rec.Kind != KindText || !fc.matcher.ShouldInclude(fc.RelPath) {
		return nil
	}
	content, err := fc.Content()
	if err != nil {
		return err
	}
	if content == nil && rec.Size > 0 {
		logger.Debugf("Skipping text of large file %s", fc.Path)
		return nil
	}
	if !looksLikeText(content) {
		rec.Kind = KindBinary
		return nil
	}
	rec.Text = string(content)
	return nil
}

type fuzzyModule struct {
	hashers []fuzzy.Hasher
}

func (m fuzzyModule) Name() string { return "fuzzy" }

func (m fuzzyModule) Enabled(cfg *config.Config) bool { return cfg.FuzzyHash && len(m.hashers) > 0 }

func (m fuzzyModule) Collect(ctx context.Context, fc *FileContext, rec *FileRecord) error {
	size := fc.Info.Size()
	if size < fc.Cfg.FuzzyMinSize {
		return nil
	}
	if fc.Cfg.FuzzyMaxSize > 0 && size > fc.Cfg.FuzzyMaxSize {
		return nil
	}
	results := make(map[string]string)
	for _, h := range m.hashers {
		var (
			digest string
			err    error
		)
		if rec.Text != "" {
			digest, err = h.HashBytes([]byte(rec.Text))
		} else {
			digest, err = h.HashFile(fc.Path)
		}
		if err != nil {
			logger.Debugf("Fuzzy hash %s failed for %s: %v", h.Name(), fc.Path, err)
			continue
		}
		if digest != "" {
			results[h.Name()] = digest
		}
	}
	if len(results) > 0 {
		rec.FuzzyHashes = results
	}
	return nil
}

func buildFuzzyHashers(cfg *config.Config) []fuzzy.Hasher {
	if !cfg.FuzzyHash {
		return nil
	}
	names := cfg.FuzzyAlgorithms
	if len(names) == 0 {
		names = []string{"tlsh"}
	}
	hashers := make([]fuzzy.Hasher, 0, len(names))
	for _, name := range names {
		h, ok := fuzzy.Lookup(name)
		if !ok {
			logger.Warnf("Unsupported fuzzy hash algorithm: %s", name)
			continue
		}
		hashers = append(hashers, h)
	}
	return hashers
}
