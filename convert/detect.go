package convert

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
	"golang.org/x/text/transform"
)

type srcEncoding int

const (
	encUnknown srcEncoding = iota
	encUTF8
	encUTF16BigEndian
	encUTF16LittleEndian
	encUTF32BigEndian
	encUTF32LittleEndian
)

func (e srcEncoding) String() string {
	switch e {
	case encUnknown:
		return "unknown"
	case encUTF8:
		return "utf8"
	case encUTF16BigEndian:
		return "utf16be"
	case encUTF16LittleEndian:
		return "utf16le"
	case encUTF32BigEndian:
		return "utf32be"
	case encUTF32LittleEndian:
		return "utf32le"
	default:
		return fmt.Sprintf("srcEncoding(%d)", int(e))
	}
}

// enough for zip signature
const headerSize = 262

func isArchiveFile(path string) (bool, error) {
	if !strings.EqualFold(filepath.Ext(path), ".zip") {
		return false, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	header := make([]byte, headerSize)
	n, err := io.ReadFull(f, header)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return false, err
	}
	return filetype.Is(header[:n], "zip"), nil
}

func isUTF8BOM3(buf []byte) bool {
	return len(buf) >= 3 && buf[0] == 0xEF && buf[1] == 0xBB && buf[2] == 0xBF
}

func isUTF16BigEndianBOM2(buf []byte) bool {
	return len(buf) >= 2 && buf[0] == 0xFE && buf[1] == 0xFF
}

func isUTF16LittleEndianBOM2(buf []byte) bool {
	return len(buf) >= 2 && buf[0] == 0xFF && buf[1] == 0xFE
}

func isUTF32BigEndianBOM4(buf []byte) bool {
	return len(buf) >= 4 && buf[0] == 0x00 && buf[1] == 0x00 && buf[2] == 0xFE && buf[3] == 0xFF
}

func isUTF32LittleEndianBOM4(buf []byte) bool {
	return len(buf) >= 4 && buf[0] == 0xFF && buf[1] == 0xFE && buf[2] == 0x00 && buf[3] == 0x00
}

// detectUTF looks at byte order mark. UTF-32 LE has to be checked before
// UTF-16 LE as they share the first two bytes.
func detectUTF(buf []byte) srcEncoding {
	switch {
	case isUTF8BOM3(buf):
		return encUTF8
	case isUTF32LittleEndianBOM4(buf):
		return encUTF32LittleEndian
	case isUTF32BigEndianBOM4(buf):
		return encUTF32BigEndian
	case isUTF16BigEndianBOM2(buf):
		return encUTF16BigEndian
	case isUTF16LittleEndianBOM2(buf):
		return encUTF16LittleEndian
	default:
		return encUnknown
	}
}

// selectReader returns reader which produces UTF-8 without byte order mark.
func selectReader(r io.Reader, enc srcEncoding) io.Reader {
	switch enc {
	case encUnknown:
		return r
	case encUTF8:
		return transform.NewReader(r, unicode.UTF8BOM.NewDecoder())
	case encUTF16BigEndian:
		return transform.NewReader(r, unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder())
	case encUTF16LittleEndian:
		return transform.NewReader(r, unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder())
	case encUTF32BigEndian:
		return transform.NewReader(r, utf32.UTF32(utf32.BigEndian, utf32.ExpectBOM).NewDecoder())
	case encUTF32LittleEndian:
		return transform.NewReader(r, utf32.UTF32(utf32.LittleEndian, utf32.ExpectBOM).NewDecoder())
	default:
		// this should never happen
		panic(fmt.Sprintf("unsupported encoding %s", enc))
	}
}

var (
	charsetPrefix = []byte(`@charset "`)
	charsetSuffix = []byte(`";`)
)

// charsetRule returns label of leading @charset rule and the rule length or
// zero when stylesheet does not start with one.
func charsetRule(data []byte) (string, int) {
	if !bytes.HasPrefix(data, charsetPrefix) {
		return "", 0
	}
	end := bytes.Index(data[len(charsetPrefix):], charsetSuffix)
	if end < 0 {
		return "", 0
	}
	label := string(data[len(charsetPrefix) : len(charsetPrefix)+end])
	return label, len(charsetPrefix) + end + len(charsetSuffix)
}

// decodeStylesheet reads stylesheet converting it to UTF-8. Byte order mark
// has priority, otherwise leading @charset rule is honored and rewritten to
// declare UTF-8. Returned name is the detected source encoding.
func decodeStylesheet(r io.Reader) ([]byte, string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, "", err
	}

	if enc := detectUTF(data); enc != encUnknown {
		decoded, err := io.ReadAll(selectReader(bytes.NewReader(data), enc))
		if err != nil {
			return nil, "", fmt.Errorf("unable to decode %s stylesheet: %w", enc, err)
		}
		return decoded, enc.String(), nil
	}

	label, size := charsetRule(data)
	if size == 0 {
		return data, "", nil
	}
	e, name := charset.Lookup(label)
	if e == nil {
		return nil, "", fmt.Errorf("unknown stylesheet charset %q", label)
	}
	if name == "utf-8" {
		return data, name, nil
	}

	decoded, err := e.NewDecoder().Bytes(data[size:])
	if err != nil {
		return nil, "", fmt.Errorf("unable to decode %s stylesheet: %w", name, err)
	}
	out := make([]byte, 0, len(decoded)+size)
	out = append(out, `@charset "UTF-8";`...)
	out = append(out, decoded...)
	return out, name, nil
}
