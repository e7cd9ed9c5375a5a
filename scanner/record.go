package scanner

// Kind classifies an extracted file by what the traversal does with it.
type Kind string

const (
	KindText     Kind = "text"
	KindArchive  Kind = "archive"
	KindDocument Kind = "document"
	KindImage    Kind = "image"
	KindBinary   Kind = "binary"
)

// FileRecord describes one file extracted from a layer.
type FileRecord struct {
	Path          string                 `json:"path"`
	RelPath       string                 `json:"rel_path"`
	Name          string                 `json:"name,omitempty"`
	Size          int64                  `json:"size"`
	ModTime       string                 `json:"mod_time,omitempty"`
	CreationTime  string                 `json:"creation_time,omitempty"`
	AccessTime    string                 `json:"access_time,omitempty"`
	ChangeTime    string                 `json:"change_time,omitempty"`
	Attributes    []string               `json:"attributes,omitempty"`
	Permissions   string                 `json:"permissions,omitempty"`
	MimeType      string                 `json:"mime_type,omitempty"`
	Kind          Kind                   `json:"kind"`
	ArchiveFormat string                 `json:"archive_format,omitempty"`
	Openable      bool                   `json:"openable,omitempty"`
	Hashes        map[string]string      `json:"hashes,omitempty"`
	FuzzyHashes   map[string]string      `json:"fuzzy_hashes,omitempty"`
	Metadata      map[string]interface{} `json:"metadata,omitempty"`
	// Text is the decoded content of text files; it never leaves the process.
	Text string `json:"-"`
}

// IsNestedArchive reports whether the record is an archive a registered
// codec can open.
func (r *FileRecord) IsNestedArchive() bool {
	return r != nil && r.Kind == KindArchive && r.Openable
}
