package pipeline

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/joseph-ayodele/invoice-extractor/constants"
	"github.com/joseph-ayodele/invoice-extractor/internal/common"
)

// Input is one document handed to the pipeline. Exactly one of Data,
// Base64 or Text is expected. Base64 may carry a data URL prefix.
type Input struct {
	Data      []byte
	Base64    string
	Text      string
	Filename  string
	MimeType  string
	FileSize  int64
	VendorKey string
}

func (in Input) hasBytes() bool {
	return len(in.Data) > 0 || strings.TrimSpace(in.Base64) != ""
}

// document is the decoded, sniffed input.
type document struct {
	data   []byte
	mime   string
	format constants.SourceFormat
	sha256 string
}

// decodeBase64 strips an optional "data:<mime>;base64," prefix and returns
// the payload and any MIME type the prefix declared.
func decodeBase64(s string) ([]byte, string, error) {
	s = strings.TrimSpace(s)
	declared := ""
	if strings.HasPrefix(s, "data:") {
		comma := strings.IndexByte(s, ',')
		if comma < 0 {
			return nil, "", fmt.Errorf("malformed data url")
		}
		meta := strings.TrimPrefix(s[:comma], "data:")
		if !strings.HasSuffix(meta, ";base64") {
			return nil, "", fmt.Errorf("data url is not base64 encoded")
		}
		declared = strings.TrimSuffix(meta, ";base64")
		s = s[comma+1:]
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		if raw, rerr := base64.RawStdEncoding.DecodeString(s); rerr == nil {
			return raw, declared, nil
		}
		return nil, declared, err
	}
	return data, declared, nil
}

// loadDocument decodes and classifies the input bytes. The sniffed content
// type wins over the caller's declaration.
func loadDocument(in Input, limits Limits) (document, error) {
	data := in.Data
	if len(data) == 0 {
		var err error
		data, _, err = decodeBase64(in.Base64)
		if err != nil {
			return document{}, common.NewAppError("INVALID_ENCODING", "cannot decode base64 payload", fmt.Errorf("%w: %w", common.ErrUnsupportedFormat, err))
		}
	}

	n := int64(len(data))
	if n < limits.MinInputBytes {
		return document{}, common.NewAppError("INPUT_TOO_SMALL", fmt.Sprintf("input is %d bytes, minimum is %d", n, limits.MinInputBytes), common.ErrUnsupportedFormat)
	}
	if limits.MaxInputBytes > 0 && n > limits.MaxInputBytes {
		return document{}, common.NewAppError("INPUT_TOO_LARGE", fmt.Sprintf("input is %d bytes, maximum is %d", n, limits.MaxInputBytes), common.ErrUnsupportedFormat)
	}

	mime := mimetype.Detect(data).String()
	format, ok := constants.FormatForMIME(mime)
	if !ok {
		return document{}, common.NewAppError("UNSUPPORTED_FORMAT", fmt.Sprintf("content type %s is not supported", mime), common.ErrUnsupportedFormat)
	}
	sum := sha256.Sum256(data)
	return document{
		data:   data,
		mime:   strings.SplitN(mime, ";", 2)[0],
		format: format,
		sha256: hex.EncodeToString(sum[:]),
	}, nil
}
