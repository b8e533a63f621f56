package convert

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/beevik/etree"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
	"golang.org/x/text/transform"

	"onemd/common"
	"onemd/config"
	"onemd/state"
	"onemd/utils/images"
)

const sampleMarkdown = "# Weekly notes\n\nSome **bold** text.\n\n- one\n- two\n"

// setupTestEnv creates a test environment with proper context and logger
func setupTestEnv(t *testing.T) (context.Context, *state.LocalEnv, *zap.Logger) {
	t.Helper()
	logger := zaptest.NewLogger(t, zaptest.WrapOptions(zap.AddCaller(), zap.AddCallerSkip(1)))
	cfg, err := config.LoadConfiguration("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	cfg.Document.Images.AllowRemote = false
	ctx := state.ContextWithEnv(context.Background())
	env := state.EnvFromContext(ctx)
	env.Log = logger
	env.Cfg = cfg
	env.Format = common.OutputFmtPage
	return ctx, env, logger
}

func readerForEncoding(t *testing.T, data []byte, enc srcEncoding) *bytes.Reader {
	t.Helper()
	var encoded []byte
	switch enc {
	case encUnknown:
		encoded = data
	case encUTF8:
		encoded = append([]byte{0xEF, 0xBB, 0xBF}, data...)
	case encUTF16BigEndian:
		encoded = encodeWithTransformer(t, data, unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewEncoder())
	case encUTF16LittleEndian:
		encoded = encodeWithTransformer(t, data, unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder())
	case encUTF32BigEndian:
		encoded = encodeWithTransformer(t, data, utf32.UTF32(utf32.BigEndian, utf32.UseBOM).NewEncoder())
	case encUTF32LittleEndian:
		encoded = encodeWithTransformer(t, data, utf32.UTF32(utf32.LittleEndian, utf32.UseBOM).NewEncoder())
	default:
		t.Fatalf("unsupported encoding: %v", enc)
	}
	return bytes.NewReader(encoded)
}

func encodeWithTransformer(t *testing.T, data []byte, encoder transform.Transformer) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := transform.NewWriter(&buf, encoder)
	if _, err := w.Write(data); err != nil {
		t.Fatalf("encode sample: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("finalize encoded sample: %v", err)
	}
	return buf.Bytes()
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := range w {
		for y := range h {
			img.Set(x, y, color.RGBA{R: uint8(x * 10), G: uint8(y * 10), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

type zipEntry struct {
	name string
	data []byte
}

func writeZip(t *testing.T, path string, entries []zipEntry) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create zip: %v", err)
	}
	w := zip.NewWriter(f)
	for _, e := range entries {
		fw, err := w.Create(e.name)
		if err != nil {
			t.Fatalf("create %s in zip: %v", e.name, err)
		}
		if _, err := fw.Write(e.data); err != nil {
			t.Fatalf("write %s to zip: %v", e.name, err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
	f.Close()
}

func readOutput(t *testing.T, path string) *etree.Element {
	t.Helper()
	doc := etree.NewDocument()
	if err := doc.ReadFromFile(path); err != nil {
		t.Fatalf("read output %s: %v", path, err)
	}
	return doc.Root()
}

func TestProcess_NonExistentPath(t *testing.T) {
	ctx, env, logger := setupTestEnv(t)

	err := process(ctx, "/nonexistent/path/file.md", t.TempDir(), newSession(env, logger), logger)
	if err == nil {
		t.Fatal("Expected error for non-existent path, got nil")
	}
	if !strings.Contains(err.Error(), "input source was not found") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestProcess_CancelledContext(t *testing.T) {
	ctx, env, logger := setupTestEnv(t)
	cancelCtx, cancel := context.WithCancel(ctx)
	cancel()

	tmpDir := t.TempDir()
	if err := process(cancelCtx, tmpDir, tmpDir, newSession(env, logger), logger); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled error, got %v", err)
	}
}

func TestProcess_SingleFile(t *testing.T) {
	ctx, env, logger := setupTestEnv(t)
	srcDir, dstDir := t.TempDir(), t.TempDir()
	src := filepath.Join(srcDir, "notes.md")
	writeFile(t, src, []byte(sampleMarkdown))

	if err := process(ctx, src, dstDir, newSession(env, logger), logger); err != nil {
		t.Fatalf("process() error = %v", err)
	}

	page := readOutput(t, filepath.Join(dstDir, "notes.xml"))
	if page.FullTag() != "one:Page" {
		t.Fatalf("root = %s, want one:Page", page.FullTag())
	}
	if got := page.SelectAttrValue("name", ""); got != "Weekly notes" {
		t.Errorf("page name = %q", got)
	}
	if page.SelectElement("one:Outline") == nil {
		t.Error("page has no outline")
	}
}

func TestProcess_OutlineFormat(t *testing.T) {
	ctx, env, logger := setupTestEnv(t)
	env.Format = common.OutputFmtOutline
	srcDir, dstDir := t.TempDir(), t.TempDir()
	src := filepath.Join(srcDir, "notes.md")
	writeFile(t, src, []byte(sampleMarkdown))

	if err := process(ctx, src, dstDir, newSession(env, logger), logger); err != nil {
		t.Fatalf("process() error = %v", err)
	}
	outline := readOutput(t, filepath.Join(dstDir, "notes.outline.xml"))
	if outline.FullTag() != "one:Outline" {
		t.Fatalf("root = %s, want one:Outline", outline.FullTag())
	}
}

func TestProcess_NotMarkdown(t *testing.T) {
	ctx, env, logger := setupTestEnv(t)
	src := filepath.Join(t.TempDir(), "notes.txt")
	writeFile(t, src, []byte(sampleMarkdown))

	err := process(ctx, src, t.TempDir(), newSession(env, logger), logger)
	if err == nil || !strings.Contains(err.Error(), "not recognized as markdown") {
		t.Errorf("process() error = %v", err)
	}
}

func TestProcess_FileWithTail(t *testing.T) {
	ctx, env, logger := setupTestEnv(t)
	src := filepath.Join(t.TempDir(), "notes.md")
	writeFile(t, src, []byte(sampleMarkdown))

	if err := process(ctx, filepath.Join(src, "inner.md"), t.TempDir(), newSession(env, logger), logger); err == nil {
		t.Error("Expected error for file path with tail")
	}
}

func TestProcess_Directory(t *testing.T) {
	tests := []struct {
		name   string
		noDirs bool
		want   []string
	}{
		{"keep structure", false, []string{"top.xml", filepath.Join("work", "plan.xml"), filepath.Join("work", "deep", "idea.xml")}},
		{"flat", true, []string{"top.xml", "plan.xml", "idea.xml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, env, logger := setupTestEnv(t)
			env.NoDirs = tt.noDirs
			srcDir, dstDir := t.TempDir(), t.TempDir()
			writeFile(t, filepath.Join(srcDir, "top.md"), []byte("# Top\n"))
			writeFile(t, filepath.Join(srcDir, "work", "plan.md"), []byte("plan"))
			writeFile(t, filepath.Join(srcDir, "work", "deep", "idea.markdown"), []byte("- idea"))
			writeFile(t, filepath.Join(srcDir, "work", "readme.txt"), []byte("skip me"))

			if err := process(ctx, srcDir, dstDir, newSession(env, logger), logger); err != nil {
				t.Fatalf("process() error = %v", err)
			}
			for _, name := range tt.want {
				if _, err := os.Stat(filepath.Join(dstDir, name)); err != nil {
					t.Errorf("missing output %s: %v", name, err)
				}
			}
			if _, err := os.Stat(filepath.Join(dstDir, "work", "readme.xml")); err == nil {
				t.Error("text file was converted")
			}
		})
	}
}

func TestProcess_DirectoryWithTail(t *testing.T) {
	ctx, env, logger := setupTestEnv(t)
	srcDir := t.TempDir()

	err := process(ctx, filepath.Join(srcDir, "missing", "notes.md"), t.TempDir(), newSession(env, logger), logger)
	if err == nil || !strings.Contains(err.Error(), "input source was not found") {
		t.Errorf("process() error = %v", err)
	}
}

func TestProcess_EmptyDirectory(t *testing.T) {
	ctx, env, logger := setupTestEnv(t)
	if err := process(ctx, t.TempDir(), t.TempDir(), newSession(env, logger), logger); err != nil {
		t.Errorf("process() error = %v", err)
	}
}

func TestProcess_Archive(t *testing.T) {
	ctx, env, logger := setupTestEnv(t)
	srcDir, dstDir := t.TempDir(), t.TempDir()
	zipPath := filepath.Join(srcDir, "notes.zip")
	writeZip(t, zipPath, []zipEntry{
		{"notes/day1.md", []byte("# Day one\n\n![chart](img/chart.png)\n")},
		{"notes/img/chart.png", pngBytes(t, 8, 4)},
		{"notes/day2.md", []byte("# Day two\n")},
		{"other/skip.txt", []byte("skip")},
	})

	if err := process(ctx, zipPath, dstDir, newSession(env, logger), logger); err != nil {
		t.Fatalf("process() error = %v", err)
	}

	page := readOutput(t, filepath.Join(dstDir, "notes", "day1.xml"))
	img := page.FindElement("//one:Image")
	if img == nil {
		t.Fatal("image from archive was not embedded")
	}
	if img.SelectAttrValue("format", "") != "png" || img.SelectElement("one:Data") == nil {
		t.Errorf("unexpected image element: format=%q", img.SelectAttrValue("format", ""))
	}
	if _, err := os.Stat(filepath.Join(dstDir, "notes", "day2.xml")); err != nil {
		t.Errorf("second document missing: %v", err)
	}
}

func TestProcess_ArchiveWithPath(t *testing.T) {
	ctx, env, logger := setupTestEnv(t)
	srcDir, dstDir := t.TempDir(), t.TempDir()
	zipPath := filepath.Join(srcDir, "notes.zip")
	writeZip(t, zipPath, []zipEntry{
		{"notes/day1.md", []byte("one")},
		{"notes/day2.md", []byte("two")},
	})

	if err := process(ctx, filepath.Join(zipPath, "notes", "day2.md"), dstDir, newSession(env, logger), logger); err != nil {
		t.Fatalf("process() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dstDir, "notes", "day2.xml")); err != nil {
		t.Errorf("selected document missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dstDir, "notes", "day1.xml")); err == nil {
		t.Error("document outside of requested path was converted")
	}
}

func TestWalkNatural(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"note10.md", "note2.md", "note1.md", filepath.Join("b", "x.md"), filepath.Join("a10", "y.md"), filepath.Join("a2", "z.md")} {
		writeFile(t, filepath.Join(dir, name), []byte("x"))
	}

	var visited []string
	err := walkNatural(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			rel, _ := filepath.Rel(dir, path)
			visited = append(visited, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walkNatural() error = %v", err)
	}
	want := []string{"a2/z.md", "a10/y.md", "b/x.md", "note1.md", "note2.md", "note10.md"}
	if !slices.Equal(visited, want) {
		t.Errorf("visited %q, want %q", visited, want)
	}
}

func TestWalkNatural_SkipDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "skip", "a.md"), []byte("x"))
	writeFile(t, filepath.Join(dir, "keep", "b.md"), []byte("x"))

	var visited []string
	err := walkNatural(dir, func(path string, d fs.DirEntry, err error) error {
		if d.IsDir() && d.Name() == "skip" {
			return filepath.SkipDir
		}
		if !d.IsDir() {
			visited = append(visited, d.Name())
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walkNatural() error = %v", err)
	}
	if !slices.Equal(visited, []string{"b.md"}) {
		t.Errorf("visited %q", visited)
	}
}

func TestProcessDocument_Encodings(t *testing.T) {
	encodings := map[string]srcEncoding{
		"unknown": encUnknown,
		"utf8":    encUTF8,
		"utf16be": encUTF16BigEndian,
		"utf16le": encUTF16LittleEndian,
		"utf32be": encUTF32BigEndian,
		"utf32le": encUTF32LittleEndian,
	}
	sample := []byte("# Über notes\n\ntext\n")

	for name, enc := range encodings {
		t.Run(name, func(t *testing.T) {
			ctx, env, logger := setupTestEnv(t)
			s := newSession(env, logger)
			dst := t.TempDir()

			r := selectReader(readerForEncoding(t, sample, enc), enc)
			if err := processDocument(ctx, r, "notes.md", dst, s.fileImages("", logger), s, logger); err != nil {
				t.Fatalf("processDocument() error = %v", err)
			}
			page := readOutput(t, filepath.Join(dst, "notes.xml"))
			if got := page.SelectAttrValue("name", ""); got != "Über notes" {
				t.Errorf("page name = %q", got)
			}
		})
	}
}

func TestProcessDocument_TitleFallback(t *testing.T) {
	ctx, env, logger := setupTestEnv(t)
	s := newSession(env, logger)
	dst := t.TempDir()

	if err := processDocument(ctx, strings.NewReader("no headings here"), "plain.md", dst, s.fileImages("", logger), s, logger); err != nil {
		t.Fatalf("processDocument() error = %v", err)
	}
	if got := readOutput(t, filepath.Join(dst, "plain.xml")).SelectAttrValue("name", ""); got != "plain" {
		t.Errorf("page name = %q, want plain", got)
	}
}

func TestProcessDocument_Exists(t *testing.T) {
	ctx, env, logger := setupTestEnv(t)
	s := newSession(env, logger)
	dst := t.TempDir()
	existing := filepath.Join(dst, "notes.xml")
	writeFile(t, existing, []byte("old"))

	err := processDocument(ctx, strings.NewReader(sampleMarkdown), "notes.md", dst, s.fileImages("", logger), s, logger)
	if err == nil || !strings.Contains(err.Error(), "already exists") {
		t.Fatalf("processDocument() error = %v", err)
	}
	if data, _ := os.ReadFile(existing); string(data) != "old" {
		t.Error("existing file was modified")
	}

	env.Overwrite = true
	if err := processDocument(ctx, strings.NewReader(sampleMarkdown), "notes.md", dst, s.fileImages("", logger), s, logger); err != nil {
		t.Fatalf("processDocument() with overwrite error = %v", err)
	}
	if readOutput(t, existing).FullTag() != "one:Page" {
		t.Error("file was not overwritten")
	}
}

type panickyImages struct{}

func (panickyImages) Load(context.Context, string) (*images.Image, error) {
	panic("decoder exploded")
}

func TestProcessDocument_Panic(t *testing.T) {
	ctx, env, logger := setupTestEnv(t)
	s := newSession(env, logger)

	err := processDocument(ctx, strings.NewReader("![x](x.png)\n"), "boom.md", t.TempDir(), panickyImages{}, s, logger)
	if err == nil || !strings.Contains(err.Error(), "conversion panic") {
		t.Errorf("processDocument() error = %v", err)
	}
}
