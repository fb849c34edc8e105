package scanner

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"github.com/akolanti/extractview/pkg/logger_i"
	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding/htmlindex"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// chardet names that the WHATWG index spells differently
var charsetAliases = map[string]string{
	"GB-18030": "gb18030",
}

// DecodeText returns data as UTF-8. Valid UTF-8 (and so ASCII) passes
// through; anything else is detected and transcoded. When the detected
// encoding cannot be honoured the bytes are read as UTF-8 with invalid
// sequences replaced, and the fallback is logged.
func DecodeText(data []byte, log *logger_i.Logger) string {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return string(data)
	}

	result, err := chardet.NewTextDetector().DetectBest(data)
	if err != nil {
		log.Warn("encoding detection failed, falling back to utf-8", "error", err)
		return fallbackUTF8(data)
	}
	charset := result.Charset
	if alias, ok := charsetAliases[charset]; ok {
		charset = alias
	}
	if strings.EqualFold(charset, "UTF-8") || strings.EqualFold(charset, "US-ASCII") {
		return fallbackUTF8(data)
	}

	enc, err := htmlindex.Get(charset)
	if err != nil {
		log.Warn("unsupported encoding, falling back to utf-8", "charset", result.Charset, "confidence", result.Confidence)
		return fallbackUTF8(data)
	}
	decoded, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		log.Warn("decoding failed, falling back to utf-8", "charset", charset, "error", err)
		return fallbackUTF8(data)
	}
	log.Debug("transcoded text", "charset", charset, "confidence", result.Confidence)
	return string(decoded)
}

func fallbackUTF8(data []byte) string {
	return strings.ToValidUTF8(string(data), "\uFFFD")
}
