package convert

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestIsArchiveFile tests archive file detection
func TestIsArchiveFile(t *testing.T) {
	tmpDir := t.TempDir()

	// Test non-zip extension
	t.Run("non-zip extension", func(t *testing.T) {
		filePath := filepath.Join(tmpDir, "test.txt")
		if err := os.WriteFile(filePath, []byte("not a zip"), 0644); err != nil {
			t.Fatalf("Failed to create test file: %v", err)
		}
		got, err := isArchiveFile(filePath)
		if err != nil {
			t.Errorf("isArchiveFile() error = %v", err)
		}
		if got != false {
			t.Errorf("isArchiveFile() = %v, want false", got)
		}
	})

	// Test zip extension but invalid content
	t.Run("zip extension but invalid content", func(t *testing.T) {
		filePath := filepath.Join(tmpDir, "test.zip")
		if err := os.WriteFile(filePath, []byte("not a real zip file"), 0644); err != nil {
			t.Fatalf("Failed to create test file: %v", err)
		}
		got, err := isArchiveFile(filePath)
		if err != nil {
			t.Errorf("isArchiveFile() error = %v", err)
		}
		if got != false {
			t.Errorf("isArchiveFile() = %v, want false", got)
		}
	})

	// Test valid zip file - using actual zip creation
	t.Run("valid zip file via zip package", func(t *testing.T) {
		filePath := filepath.Join(tmpDir, "test2.zip")
		zipFile, err := os.Create(filePath)
		if err != nil {
			t.Fatalf("Failed to create zip file: %v", err)
		}
		w := zip.NewWriter(zipFile)
		f, err := w.Create("test.txt")
		if err != nil {
			t.Fatalf("Failed to create file in zip: %v", err)
		}
		content := make([]byte, 300)
		f.Write(content)
		w.Close()
		zipFile.Close()

		got, err := isArchiveFile(filePath)
		if err != nil {
			t.Errorf("isArchiveFile() error = %v", err)
		}
		if !got {
			t.Error("isArchiveFile() = false, want true")
		}
	})
}

// TestIsArchiveFile_NonExistent tests with non-existent file
func TestIsArchiveFile_NonExistent(t *testing.T) {
	_, err := isArchiveFile("/nonexistent/file.zip")
	if err == nil {
		t.Error("Expected error for non-existent file, got nil")
	}
}

// TestDetectUTF tests UTF encoding detection
func TestDetectUTF(t *testing.T) {
	tests := []struct {
		name string
		buf  []byte
		want srcEncoding
	}{
		{
			name: "UTF-8 BOM",
			buf:  []byte{0xEF, 0xBB, 0xBF, 0x00},
			want: encUTF8,
		},
		{
			name: "UTF-16 Big Endian BOM",
			buf:  []byte{0xFE, 0xFF, 0x00, 0x00},
			want: encUTF16BigEndian,
		},
		{
			name: "UTF-16 Little Endian BOM",
			buf:  []byte{0xFF, 0xFE, 0x01, 0x00}, // Different from UTF-32LE
			want: encUTF16LittleEndian,
		},
		{
			name: "UTF-32 Big Endian BOM",
			buf:  []byte{0x00, 0x00, 0xFE, 0xFF},
			want: encUTF32BigEndian,
		},
		{
			name: "UTF-32 Little Endian BOM",
			buf:  []byte{0xFF, 0xFE, 0x00, 0x00},
			want: encUTF32LittleEndian,
		},
		{
			name: "No BOM",
			buf:  []byte{0x00, 0x01, 0x02, 0x03},
			want: encUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := detectUTF(tt.buf)
			if got != tt.want {
				t.Errorf("detectUTF() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestBOMDetectionFunctions tests individual BOM detection functions
func TestBOMDetectionFunctions(t *testing.T) {
	t.Run("isUTF8BOM3", func(t *testing.T) {
		if !isUTF8BOM3([]byte{0xEF, 0xBB, 0xBF}) {
			t.Error("Expected true for UTF-8 BOM")
		}
		if isUTF8BOM3([]byte{0x00, 0x00, 0x00}) {
			t.Error("Expected false for non-BOM")
		}
	})

	t.Run("isUTF16BigEndianBOM2", func(t *testing.T) {
		if !isUTF16BigEndianBOM2([]byte{0xFE, 0xFF}) {
			t.Error("Expected true for UTF-16 BE BOM")
		}
		if isUTF16BigEndianBOM2([]byte{0xFF, 0xFE}) {
			t.Error("Expected false for UTF-16 LE BOM")
		}
	})

	t.Run("isUTF16LittleEndianBOM2", func(t *testing.T) {
		if !isUTF16LittleEndianBOM2([]byte{0xFF, 0xFE}) {
			t.Error("Expected true for UTF-16 LE BOM")
		}
		if isUTF16LittleEndianBOM2([]byte{0xFE, 0xFF}) {
			t.Error("Expected false for UTF-16 BE BOM")
		}
	})

	t.Run("isUTF32BigEndianBOM4", func(t *testing.T) {
		if !isUTF32BigEndianBOM4([]byte{0x00, 0x00, 0xFE, 0xFF}) {
			t.Error("Expected true for UTF-32 BE BOM")
		}
		if isUTF32BigEndianBOM4([]byte{0xFF, 0xFE, 0x00, 0x00}) {
			t.Error("Expected false for UTF-32 LE BOM")
		}
	})

	t.Run("isUTF32LittleEndianBOM4", func(t *testing.T) {
		if !isUTF32LittleEndianBOM4([]byte{0xFF, 0xFE, 0x00, 0x00}) {
			t.Error("Expected true for UTF-32 LE BOM")
		}
		if isUTF32LittleEndianBOM4([]byte{0x00, 0x00, 0xFE, 0xFF}) {
			t.Error("Expected false for UTF-32 BE BOM")
		}
	})
}

// TestIsMarkdownFile tests markdown file detection
func TestIsMarkdownFile(t *testing.T) {
	tmpDir := t.TempDir()

	mdContent := []byte("# Title\n\nSome *text* here.\n")
	pngContent := []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00, 0x00, 0x0D, 0x49, 0x48, 0x44, 0x52}

	tests := []struct {
		name     string
		filename string
		content  []byte
		wantMD   bool
		wantEnc  srcEncoding
	}{
		{
			name:     "plain markdown",
			filename: "note.md",
			content:  mdContent,
			wantMD:   true,
			wantEnc:  encUnknown,
		},
		{
			name:     "markdown with UTF-8 BOM",
			filename: "note-bom.md",
			content:  append([]byte{0xEF, 0xBB, 0xBF}, mdContent...),
			wantMD:   true,
			wantEnc:  encUTF8,
		},
		{
			name:     "UTF-16 LE markdown",
			filename: "note16.markdown",
			content:  []byte{0xFF, 0xFE, '#', 0x00, ' ', 0x00, 'T', 0x00},
			wantMD:   true,
			wantEnc:  encUTF16LittleEndian,
		},
		{
			name:     "other extension",
			filename: "note.txt",
			content:  mdContent,
			wantMD:   false,
			wantEnc:  encUnknown,
		},
		{
			name:     "uppercase extension",
			filename: "NOTE.MKD",
			content:  mdContent,
			wantMD:   true,
			wantEnc:  encUnknown,
		},
		{
			name:     "binary content",
			filename: "image.md",
			content:  pngContent,
			wantMD:   false,
			wantEnc:  encUnknown,
		},
		{
			name:     "zero bytes without BOM",
			filename: "zeros.md",
			content:  []byte{'a', 0x00, 'b'},
			wantMD:   false,
			wantEnc:  encUnknown,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filePath := filepath.Join(tmpDir, tt.filename)
			if err := os.WriteFile(filePath, tt.content, 0644); err != nil {
				t.Fatalf("Failed to create test file: %v", err)
			}

			gotMD, gotEnc, err := isMarkdownFile(filePath)
			if err != nil {
				t.Fatalf("isMarkdownFile() error = %v", err)
			}
			if gotMD != tt.wantMD {
				t.Errorf("isMarkdownFile() markdown = %v, want %v", gotMD, tt.wantMD)
			}
			if gotEnc != tt.wantEnc {
				t.Errorf("isMarkdownFile() encoding = %v, want %v", gotEnc, tt.wantEnc)
			}
		})
	}
}

// TestIsMarkdownFile_NonExistent tests with non-existent file
func TestIsMarkdownFile_NonExistent(t *testing.T) {
	_, _, err := isMarkdownFile("/nonexistent/file.md")
	if err == nil {
		t.Error("Expected error for non-existent file, got nil")
	}
}

// TestIsMarkdownInArchive tests markdown detection in archive
func TestIsMarkdownInArchive(t *testing.T) {
	tmpDir := t.TempDir()
	zipPath := filepath.Join(tmpDir, "test.zip")

	mdContent := []byte("# Notes\n\n" + strings.Repeat("Line of text.\n", 50))

	zipFile, err := os.Create(zipPath)
	if err != nil {
		t.Fatalf("Failed to create zip file: %v", err)
	}
	w := zip.NewWriter(zipFile)
	entries := []struct {
		name string
		data []byte
	}{
		{"notes.md", mdContent},
		{"readme.txt", []byte("not markdown")},
		{"notes-bom.markdown", append([]byte{0xEF, 0xBB, 0xBF}, mdContent...)},
	}
	for _, e := range entries {
		f, err := w.CreateHeader(&zip.FileHeader{Name: e.name, Method: zip.Deflate})
		if err != nil {
			t.Fatalf("Failed to create file in zip: %v", err)
		}
		if _, err := f.Write(e.data); err != nil {
			t.Fatalf("Failed to write to zip: %v", err)
		}
	}
	w.Close()
	zipFile.Close()

	r, err := zip.OpenReader(zipPath)
	if err != nil {
		t.Fatalf("Failed to open zip: %v", err)
	}
	defer r.Close()

	tests := []struct {
		name    string
		fileIdx int
		wantMD  bool
		wantEnc srcEncoding
	}{
		{"markdown in archive", 0, true, encUnknown},
		{"text file in archive", 1, false, encUnknown},
		{"markdown with BOM in archive", 2, true, encUTF8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotMD, gotEnc, err := isMarkdownInArchive(r.File[tt.fileIdx])
			if err != nil {
				t.Fatalf("isMarkdownInArchive() error = %v", err)
			}
			if gotMD != tt.wantMD {
				t.Errorf("isMarkdownInArchive() markdown = %v, want %v", gotMD, tt.wantMD)
			}
			if gotEnc != tt.wantEnc {
				t.Errorf("isMarkdownInArchive() encoding = %v, want %v", gotEnc, tt.wantEnc)
			}
		})
	}
}

// TestSelectReaderDecodes checks that every reader yields plain UTF-8
func TestSelectReaderDecodes(t *testing.T) {
	tests := []struct {
		name string
		enc  srcEncoding
		data []byte
	}{
		{"unknown", encUnknown, []byte("# Über")},
		{"utf8 bom", encUTF8, append([]byte{0xEF, 0xBB, 0xBF}, "# Über"...)},
		{"utf16 be", encUTF16BigEndian, []byte{0xFE, 0xFF, 0x00, '#', 0x00, ' ', 0x00, 0xDC, 0x00, 'b', 0x00, 'e', 0x00, 'r'}},
		{"utf16 le", encUTF16LittleEndian, []byte{0xFF, 0xFE, '#', 0x00, ' ', 0x00, 0xDC, 0x00, 'b', 0x00, 'e', 0x00, 'r', 0x00}},
		{"utf32 le", encUTF32LittleEndian, []byte{
			0xFF, 0xFE, 0x00, 0x00,
			'#', 0, 0, 0, ' ', 0, 0, 0, 0xDC, 0, 0, 0, 'b', 0, 0, 0, 'e', 0, 0, 0, 'r', 0, 0, 0,
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := io.ReadAll(selectReader(bytes.NewReader(tt.data), tt.enc))
			if err != nil {
				t.Fatalf("read: %v", err)
			}
			if string(got) != "# Über" {
				t.Errorf("decoded %q, want %q", got, "# Über")
			}
		})
	}
}

// TestSelectReader tests reader selection for different encodings
func TestSelectReader(t *testing.T) {
	testData := []byte("test data")
	r := bytes.NewReader(testData)

	tests := []srcEncoding{
		encUnknown,
		encUTF8,
		encUTF16BigEndian,
		encUTF16LittleEndian,
		encUTF32BigEndian,
		encUTF32LittleEndian,
	}

	for i, enc := range tests {
		t.Run(string(rune('0'+i)), func(t *testing.T) {
			result := selectReader(r, enc)
			if result == nil {
				t.Error("selectReader() returned nil")
			}
		})
	}
}

// TestSelectReader_Panic tests that invalid encoding causes panic
func TestSelectReader_Panic(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Expected panic for invalid encoding, but didn't panic")
		}
	}()

	r := bytes.NewReader([]byte("test"))
	// Use an invalid encoding value
	selectReader(r, srcEncoding(999))
}

// TestSrcEncoding tests srcEncoding constants
func TestSrcEncoding(t *testing.T) {
	// Verify encoding constants are distinct
	encodings := map[srcEncoding]string{
		encUnknown:           "unknown",
		encUTF8:              "utf8",
		encUTF16BigEndian:    "utf16be",
		encUTF16LittleEndian: "utf16le",
		encUTF32BigEndian:    "utf32be",
		encUTF32LittleEndian: "utf32le",
	}

	seen := make(map[srcEncoding]bool)
	for enc := range encodings {
		if seen[enc] {
			t.Errorf("Duplicate encoding value: %v", enc)
		}
		seen[enc] = true
	}

	if len(seen) != 6 {
		t.Errorf("Expected 6 unique encodings, got %d", len(seen))
	}
}
