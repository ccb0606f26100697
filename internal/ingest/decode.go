package ingest

import (
	"bytes"
	"mime"
	"unicode/utf8"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// charsetFromContentType returns the charset parameter of a Content-Type
// header, or "" when absent or unparseable.
func charsetFromContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	return params["charset"]
}

// decodeText converts raw document bytes to a UTF-8 string. When label names
// a charset it is decoded through htmlindex. Without a label, valid UTF-8
// passes through (minus any BOM); anything else is treated as Windows-1252,
// the usual encoding of scanned Spanish legal text.
func decodeText(data []byte, label string) (string, error) {
	if label != "" {
		enc, err := htmlindex.Get(label)
		if err != nil {
			return "", eris.Wrapf(err, "ingest: unsupported charset %q", label)
		}
		decoded, err := enc.NewDecoder().Bytes(data)
		if err != nil {
			return "", eris.Wrapf(err, "ingest: decode %s", label)
		}
		return string(bytes.TrimPrefix(decoded, utf8BOM)), nil
	}

	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return string(data), nil
	}

	decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return "", eris.Wrap(err, "ingest: decode windows-1252")
	}
	return string(decoded), nil
}
