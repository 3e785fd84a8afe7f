package constants

import "strings"

// SourceFormat classifies what the pipeline was handed.
type SourceFormat string

const (
	FormatPDF   SourceFormat = "PDF"
	FormatImage SourceFormat = "IMAGE"
	FormatText  SourceFormat = "TEXT"
)

// SourceFormats holds the allowed values for the source_format column.
var SourceFormats = []string{string(FormatPDF), string(FormatImage), string(FormatText)}

// AllowedExtensions holds the file extensions accepted by batch ingestion.
var AllowedExtensions = map[string]struct{}{
	"pdf":  {},
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"gif":  {},
	"heic": {},
	"heif": {},
	"txt":  {},
}

// SupportedMIMETypes maps sniffed content types to the format that handles them.
var SupportedMIMETypes = map[string]SourceFormat{
	"application/pdf": FormatPDF,
	"image/jpeg":      FormatImage,
	"image/png":       FormatImage,
	"image/gif":       FormatImage,
	"image/heic":      FormatImage,
	"image/heif":      FormatImage,
	"text/plain":      FormatText,
}

// FormatForMIME strips parameters (e.g. "; charset=utf-8") before lookup.
func FormatForMIME(mime string) (SourceFormat, bool) {
	base := strings.ToLower(strings.TrimSpace(strings.SplitN(mime, ";", 2)[0]))
	f, ok := SupportedMIMETypes[base]
	return f, ok
}

// NormalizeExt lowercases and trims the dot from a file extension.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
