package convert

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/matchers"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
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

// sniffLen is how much of the file is examined to decide its type.
const sniffLen = 512

var markdownExts = map[string]bool{
	".md":       true,
	".markdown": true,
	".mdown":    true,
	".mkd":      true,
	".mkdn":     true,
}

func isUTF8BOM3(buf []byte) bool {
	return buf[0] == 0xEF && buf[1] == 0xBB && buf[2] == 0xBF
}

func isUTF16BigEndianBOM2(buf []byte) bool {
	return buf[0] == 0xFE && buf[1] == 0xFF
}

func isUTF16LittleEndianBOM2(buf []byte) bool {
	return buf[0] == 0xFF && buf[1] == 0xFE
}

func isUTF32BigEndianBOM4(buf []byte) bool {
	return buf[0] == 0x00 && buf[1] == 0x00 && buf[2] == 0xFE && buf[3] == 0xFF
}

func isUTF32LittleEndianBOM4(buf []byte) bool {
	return buf[0] == 0xFF && buf[1] == 0xFE && buf[2] == 0x00 && buf[3] == 0x00
}

// detectUTF looks for byte order mark. UTF-32LE must be checked before
// UTF-16LE, its mark starts with the same two bytes.
func detectUTF(buf []byte) srcEncoding {
	switch {
	case len(buf) >= 4 && isUTF32LittleEndianBOM4(buf):
		return encUTF32LittleEndian
	case len(buf) >= 4 && isUTF32BigEndianBOM4(buf):
		return encUTF32BigEndian
	case len(buf) >= 3 && isUTF8BOM3(buf):
		return encUTF8
	case len(buf) >= 2 && isUTF16LittleEndianBOM2(buf):
		return encUTF16LittleEndian
	case len(buf) >= 2 && isUTF16BigEndianBOM2(buf):
		return encUTF16BigEndian
	}
	return encUnknown
}

// looksLikeText rejects content with known binary signatures or, when there
// is no wide character BOM, zero bytes.
func looksLikeText(buf []byte, enc srcEncoding) bool {
	if kind, err := filetype.Match(buf); err == nil && kind != filetype.Unknown {
		return false
	}
	switch enc {
	case encUTF16BigEndian, encUTF16LittleEndian, encUTF32BigEndian, encUTF32LittleEndian:
		return true
	}
	return bytes.IndexByte(buf, 0) < 0
}

func isMarkdownName(name string) bool {
	return markdownExts[strings.ToLower(filepath.Ext(name))]
}

func sniff(r io.Reader) ([]byte, error) {
	buf := make([]byte, sniffLen)
	n, err := io.ReadFull(r, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, err
	}
	return buf[:n], nil
}

func isArchiveFile(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	if !strings.EqualFold(filepath.Ext(path), ".zip") {
		return false, nil
	}
	buf, err := sniff(f)
	if err != nil {
		return false, err
	}
	return filetype.IsType(buf, matchers.TypeZip), nil
}

// isMarkdownFile checks file extension and that file content is text.
func isMarkdownFile(path string) (bool, srcEncoding, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, encUnknown, err
	}
	defer f.Close()

	if !isMarkdownName(path) {
		return false, encUnknown, nil
	}
	buf, err := sniff(f)
	if err != nil {
		return false, encUnknown, err
	}
	enc := detectUTF(buf)
	return looksLikeText(buf, enc), enc, nil
}

func isMarkdownInArchive(f *zip.File) (bool, srcEncoding, error) {
	if !isMarkdownName(f.FileHeader.Name) {
		return false, encUnknown, nil
	}
	r, err := f.Open()
	if err != nil {
		return false, encUnknown, err
	}
	defer r.Close()

	buf, err := sniff(r)
	if err != nil {
		return false, encUnknown, err
	}
	enc := detectUTF(buf)
	return looksLikeText(buf, enc), enc, nil
}

// selectReader returns reader producing UTF-8 without BOM. Without BOM
// encoding is guessed from content.
func selectReader(r io.Reader, enc srcEncoding) io.Reader {
	switch enc {
	case encUnknown:
		if cr, err := charset.NewReader(r, "text/plain"); err == nil {
			return cr
		}
		return r
	case encUTF8:
		return unicode.UTF8BOM.NewDecoder().Reader(r)
	case encUTF16BigEndian:
		return unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM).NewDecoder().Reader(r)
	case encUTF16LittleEndian:
		return unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM).NewDecoder().Reader(r)
	case encUTF32BigEndian:
		return utf32.UTF32(utf32.BigEndian, utf32.ExpectBOM).NewDecoder().Reader(r)
	case encUTF32LittleEndian:
		return utf32.UTF32(utf32.LittleEndian, utf32.ExpectBOM).NewDecoder().Reader(r)
	}
	// this should never happen
	panic("unexpected encoding")
}
