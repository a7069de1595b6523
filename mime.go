package fileref

import (
	"mime"
	"path"
	"strings"
)

// MIME types selections report most often
const (
	MIMETypeTextPlain       = "text/plain"
	MIMETypeTextCSV         = "text/csv"
	MIMETypeTextHTML        = "text/html"
	MIMETypeApplicationJSON = "application/json"
	MIMETypeApplicationPDF  = "application/pdf"
	MIMETypeImageJPEG       = "image/jpeg"
	MIMETypeImagePNG        = "image/png"
)

// selectionTypes lists, per type, the extensions whose type must not depend
// on the machine's mime.types files. Anything else falls back to package mime.
var selectionTypes = map[string][]string{
	MIMETypeTextPlain:           {".txt", ".text", ".log"},
	MIMETypeTextCSV:             {".csv"},
	"text/tab-separated-values": {".tsv"},
	"text/markdown":             {".md", ".markdown"},
	MIMETypeTextHTML:            {".html", ".htm"},
	MIMETypeApplicationJSON:     {".json"},
	MIMETypeApplicationPDF:      {".pdf"},
	MIMETypeImageJPEG:           {".jpg", ".jpeg"},
	MIMETypeImagePNG:            {".png"},
	"image/gif":                 {".gif"},
	"image/webp":                {".webp"},
	"image/heic":                {".heic"},
	"application/zip":           {".zip"},
	"application/gzip":          {".gz"},
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":       {".xlsx"},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {".docx"},
}

var typeByExt = func() map[string]string {
	m := make(map[string]string)
	for contentType, exts := range selectionTypes {
		for _, ext := range exts {
			m[ext] = contentType
		}
	}
	return m
}()

// TypeByExtension returns the MIME type for name's extension, without
// parameters, or "" if unknown. File content is never inspected.
func TypeByExtension(name string) string {
	ext := strings.ToLower(path.Ext(name))
	if ext == "" {
		return ""
	}
	if contentType, ok := typeByExt[ext]; ok {
		return contentType
	}

	mediaType, _, err := mime.ParseMediaType(mime.TypeByExtension(ext))
	if err != nil {
		return ""
	}
	return mediaType
}

// baseName returns the last element of a slash-separated key.
func baseName(key string) string {
	return path.Base(strings.TrimSuffix(key, "/"))
}
