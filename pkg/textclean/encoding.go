package textclean

import (
	"errors"
	"fmt"
	"os"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// ErrUndecodable marks content whose bytes no known encoding could decode.
var ErrUndecodable = errors.New("undecodable content")

// fallbackEncodings are tried in order when content is not valid UTF-8.
// PDF text dumps most often carry latin-1 or windows-1252 bytes; mac-roman
// shows up in documents produced on older toolchains.
var fallbackEncodings = []struct {
	name string
	cm   *charmap.Charmap
}{
	{"latin-1", charmap.ISO8859_1},
	{"windows-1252", charmap.Windows1252},
	{"mac-roman", charmap.Macintosh},
}

// DecodeFallback interprets raw bytes as UTF-8 when valid, otherwise
// through the fallback encodings in order. It returns the decoded text and
// the name of the encoding that produced it.
func DecodeFallback(data []byte) (string, string, error) {
	if utf8.Valid(data) {
		return string(data), "utf-8", nil
	}
	for _, fe := range fallbackEncodings {
		decoded, err := fe.cm.NewDecoder().Bytes(data)
		if err != nil {
			continue
		}
		return string(decoded), fe.name, nil
	}
	return "", "", ErrUndecodable
}

// ReadFileFallback reads path and decodes it through DecodeFallback.
func ReadFileFallback(path string) (string, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("read %s: %w", path, err)
	}
	content, encName, err := DecodeFallback(data)
	if err != nil {
		return "", "", fmt.Errorf("%w: %s", err, path)
	}
	return content, encName, nil
}
