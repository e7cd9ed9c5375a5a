// Package metadata reads descriptive fields out of documents and images
// found inside cracked layers. Authors hide hints there as often as in
// plain text.
package metadata

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"maps"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/rwcarlsen/goexif/exif"
)

const docxMIME = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

// Supported reports whether ExtractMetadata understands mimeType.
func Supported(mimeType string) bool {
	switch mimeType {
	case "image/jpeg", "image/png", "image/tiff", "application/pdf", docxMIME:
		return true
	}
	return false
}

func ExtractMetadata(path string, mimeType string, maxBytes int64) map[string]interface{} {
	metadata := make(map[string]interface{})

	switch mimeType {
	case "image/jpeg", "image/png", "image/tiff":
		maps.Copy(metadata, extractImageMetadata(path, maxBytes))
	case "application/pdf":
		maps.Copy(metadata, extractPDFMetadata(path, maxBytes))
	case docxMIME:
		maps.Copy(metadata, extractDOCXMetadata(path, maxBytes))
	}

	return metadata
}

// Text flattens string fields into "key: value" lines sorted by key, the
// form hint scanning consumes.
func Text(meta map[string]interface{}) string {
	keys := make([]string, 0, len(meta))
	for k := range meta {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		v, ok := meta[k].(string)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		fmt.Fprintf(&b, "%s: %s\n", k, v)
	}
	return b.String()
}

func extractImageMetadata(path string, maxBytes int64) map[string]interface{} {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var reader io.Reader = f
	if maxBytes > 0 {
		reader = io.LimitReader(f, maxBytes)
	}
	x, err := exif.Decode(reader)
	if err != nil {
		return nil
	}

	meta := make(map[string]interface{})
	if tm, err := x.DateTime(); err == nil {
		meta["datetime"] = tm.Format(time.RFC3339)
	}
	fields := map[string]exif.FieldName{
		"make":        exif.Make,
		"model":       exif.Model,
		"description": exif.ImageDescription,
		"artist":      exif.Artist,
		"copyright":   exif.Copyright,
		"comment":     exif.UserComment,
	}
	for key, field := range fields {
		tag, err := x.Get(field)
		if err != nil {
			continue
		}
		if s, err := tag.StringVal(); err == nil {
			meta[key] = strings.TrimRight(s, "\x00 ")
		} else {
			meta[key] = tag.String()
		}
	}
	if lat, lon, err := x.LatLong(); err == nil {
		meta["gps"] = fmt.Sprintf("%.4f, %.4f", lat, lon)
	}
	return meta
}

func extractPDFMetadata(path string, maxBytes int64) map[string]interface{} {
	if maxBytes > 0 {
		info, err := os.Stat(path)
		if err != nil || info.Size() > maxBytes {
			return nil
		}
	}
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	info, err := api.PDFInfo(f, path, nil, false, nil)
	if err != nil {
		return nil
	}

	meta := make(map[string]interface{})
	for key, value := range map[string]string{
		"title":    info.Title,
		"author":   info.Author,
		"subject":  info.Subject,
		"creator":  info.Creator,
		"producer": info.Producer,
	} {
		if value != "" {
			meta[key] = value
		}
	}
	return meta
}

type coreProperties struct {
	Title       string `xml:"title"`
	Subject     string `xml:"subject"`
	Creator     string `xml:"creator"`
	Keywords    string `xml:"keywords"`
	Description string `xml:"description"`
}

func extractDOCXMetadata(path string, maxBytes int64) map[string]interface{} {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil
	}
	defer r.Close()

	var core *zip.File
	for _, f := range r.File {
		if f.Name == "docProps/core.xml" {
			core = f
			break
		}
	}
	if core == nil || (maxBytes > 0 && core.UncompressedSize64 > uint64(maxBytes)) {
		return nil
	}

	rc, err := core.Open()
	if err != nil {
		return nil
	}
	defer rc.Close()

	var reader io.Reader = rc
	if maxBytes > 0 {
		reader = io.LimitReader(rc, maxBytes)
	}
	var props coreProperties
	if err := xml.NewDecoder(reader).Decode(&props); err != nil {
		return nil
	}

	meta := make(map[string]interface{})
	for key, value := range map[string]string{
		"title":       props.Title,
		"subject":     props.Subject,
		"creator":     props.Creator,
		"keywords":    props.Keywords,
		"description": props.Description,
	} {
		if value != "" {
			meta[key] = value
		}
	}
	return meta
}
