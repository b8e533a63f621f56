package convert

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime/debug"
	"slices"
	"strings"
	"time"

	"github.com/beevik/etree"
	"github.com/google/uuid"
	"github.com/maruel/natural"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/ianaindex"

	"onemd/archive"
	"onemd/common"
	"onemd/convert/onenote"
	"onemd/highlight"
	"onemd/markup"
	"onemd/mathml"
	"onemd/state"
	"onemd/utils/images"
)

func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("convert")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input source has been specified")
	}
	src, err = filepath.Abs(src)
	if err != nil {
		return err
	}

	dst := cmd.Args().Get(1)
	if len(dst) == 0 {
		if dst, err = os.Getwd(); err != nil {
			return fmt.Errorf("unable to get working directory: %w", err)
		}
	}
	if dst, err = filepath.Abs(dst); err != nil {
		return err
	}
	if cmd.Args().Len() > 2 {
		log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	env.Format = env.Cfg.Output.Format
	if to := cmd.String("to"); len(to) > 0 {
		if env.Format, err = common.ParseOutputFmt(to); err != nil {
			log.Warn("Unknown output format requested, using configured one", zap.Error(err), zap.Stringer("format", env.Cfg.Output.Format))
			env.Format = env.Cfg.Output.Format
		}
	}

	env.NoDirs, env.Overwrite = cmd.Bool("nodirs"), cmd.Bool("overwrite")

	// Since zip "standard" does not define file name encoding we may need to
	// force archaic code page for old archives
	cp := cmd.String("force-zip-cp")
	if len(cp) > 0 {
		env.CodePage, err = ianaindex.IANA.Encoding(cp)
		if err != nil || env.CodePage == nil {
			log.Warn("Unknown character set specification. Ignoring...", zap.String("charset", cp), zap.Error(err))
			env.CodePage = nil
		} else {
			n, _ := ianaindex.IANA.Name(env.CodePage)
			log.Debug("Forcefully converting all non UTF-8 file names in archives", zap.String("charset", n))
		}
	}

	log.Info("Processing starting", zap.String("source", src), zap.String("destination", dst), zap.Stringer("format", env.Format))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	return process(ctx, src, dst, newSession(env, log), log)
}

// session keeps collaborators shared by all documents processed during
// single run. Image loaders depend on document location and are created per
// document.
type session struct {
	env    *state.LocalEnv
	format common.OutputFmt
	math   onenote.MathService
	hl     onenote.Highlighter
}

func newSession(env *state.LocalEnv, log *zap.Logger) *session {
	s := &session{
		env:    env,
		format: env.Format,
		math:   mathml.New(&env.Cfg.Document.Math, log),
	}
	if env.Cfg.Document.Code.Highlight {
		s.hl = highlight.New(env.Cfg.Document.Code.Style, log)
	}
	return s
}

func (s *session) converter(imgs onenote.ImageLoader, log *zap.Logger) (*onenote.Converter, error) {
	opts := []onenote.Option{onenote.WithMath(s.math), onenote.WithImageLoader(imgs)}
	if s.hl != nil {
		opts = append(opts, onenote.WithHighlighter(s.hl))
	}
	return onenote.New(&s.env.Cfg.Document, log, opts...)
}

func (s *session) fileImages(dir string, log *zap.Logger) *images.Loader {
	return images.NewLoader(&s.env.Cfg.Document.Images, dir, log)
}

// process handles the core conversion logic independently of CLI framework. It
// determines the input type (directory, archive, or single file) and processes
// accordingly.
func process(ctx context.Context, src, dst string, s *session, log *zap.Logger) error {
	var head, tail string
	for head = src; len(head) != 0; head, tail = filepath.Split(head) {
		if err := ctx.Err(); err != nil {
			return err
		}

		head = strings.TrimSuffix(head, string(filepath.Separator))

		fi, err := os.Stat(head)
		if err != nil {
			// does not exists - probably path in archive
			continue
		}

		if fi.Mode().IsDir() {
			if len(tail) != 0 {
				// directory cannot have tail - it would be simple file
				return fmt.Errorf("input source was not found (%s) => (%s)", head, strings.TrimPrefix(src, head))
			}
			if err := processDir(ctx, head, dst, s, log); err != nil {
				return fmt.Errorf("unable to process directory: %w", err)
			}
			break
		}

		if !fi.Mode().IsRegular() {
			return fmt.Errorf("unexpected path mode for (%s) => (%s)", head, strings.TrimPrefix(src, head))
		}

		isArchive, err := isArchiveFile(head)
		if err != nil {
			// checking format - but cannot open target file
			return fmt.Errorf("unable to check archive type: %w", err)
		}
		if isArchive {
			// we need to look inside to see if path makes sense
			tail = filepath.ToSlash(strings.TrimPrefix(strings.TrimPrefix(src, head), string(filepath.Separator)))
			if err := processArchive(ctx, head, tail, "", dst, s, log); err != nil {
				return fmt.Errorf("unable to process archive: %w", err)
			}
			break
		}

		md, enc, err := isMarkdownFile(head)
		if err != nil {
			// checking format - but cannot open target file
			return fmt.Errorf("unable to check file type: %w", err)
		}
		if md && len(tail) == 0 {
			if err := processFile(ctx, head, filepath.Base(head), enc, dst, s, log); err != nil {
				log.Error("Unable to process file", zap.String("file", head), zap.Error(err))
			}
			break
		}
		return fmt.Errorf("input was not recognized as markdown document (%s)", head)
	}
	if len(head) == 0 {
		return fmt.Errorf("input source was not found (%s)", src)
	}
	return nil
}

func processFile(ctx context.Context, path, src string, enc srcEncoding, dst string, s *session, log *zap.Logger) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return processDocument(ctx, selectReader(file, enc), src, dst, s.fileImages(filepath.Dir(path), log), s, log)
}

// processDir walks directory tree finding markdown files and archives and
// processes them. Entries of every directory are visited in natural sort
// order.
func processDir(ctx context.Context, dir, dst string, s *session, log *zap.Logger) (err error) {
	count := 0
	defer func() {
		if err == nil && count == 0 {
			log.Debug("Nothing to process", zap.String("dir", dir))
		}
	}()

	return walkNatural(dir, func(path string, d fs.DirEntry, err error) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err != nil {
			log.Warn("Skipping path", zap.String("path", path), zap.Error(err))
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		isArchive, err := isArchiveFile(path)
		if err != nil {
			// checking format - but cannot open target file
			log.Warn("Skipping file", zap.String("file", path), zap.Error(err))
			return nil
		}
		if isArchive {
			count++
			if err := processArchive(ctx, path, "", filepath.Dir(strings.TrimPrefix(path, dir)), dst, s, log); err != nil {
				log.Error("Unable to process archive", zap.String("file", path), zap.Error(err))
			}
			return nil
		}

		md, enc, err := isMarkdownFile(path)
		if err != nil {
			log.Warn("Skipping file", zap.String("file", path), zap.Error(err))
			return nil
		}
		if !md {
			log.Debug("Skipping file, not recognized as markdown or archive", zap.String("file", path))
			return nil
		}

		count++

		src := strings.TrimPrefix(strings.TrimPrefix(path, dir), string(filepath.Separator))
		if err := processFile(ctx, path, src, enc, dst, s, log); err != nil {
			log.Error("Unable to process file", zap.String("file", path), zap.Error(err))
		}
		return nil
	})
}

// walkNatural is filepath.WalkDir with directory entries sorted in natural
// order, so "note2.md" comes before "note10.md". Symbolic links are not
// followed.
func walkNatural(root string, fn fs.WalkDirFunc) error {
	info, err := os.Lstat(root)
	if err != nil {
		return fn(root, nil, err)
	}
	err = walkDirNatural(root, fs.FileInfoToDirEntry(info), fn)
	if errors.Is(err, filepath.SkipDir) || errors.Is(err, filepath.SkipAll) {
		return nil
	}
	return err
}

func walkDirNatural(path string, d fs.DirEntry, fn fs.WalkDirFunc) error {
	if err := fn(path, d, nil); err != nil || !d.IsDir() {
		if err == filepath.SkipDir && d.IsDir() {
			err = nil
		}
		return err
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		if err = fn(path, d, err); err != nil {
			if err == filepath.SkipDir {
				err = nil
			}
			return err
		}
	}
	slices.SortFunc(entries, func(a, b fs.DirEntry) int {
		switch {
		case natural.Less(a.Name(), b.Name()):
			return -1
		case natural.Less(b.Name(), a.Name()):
			return 1
		}
		return 0
	})

	for _, e := range entries {
		if err := walkDirNatural(filepath.Join(path, e.Name()), e, fn); err != nil {
			if err == filepath.SkipDir {
				break
			}
			return err
		}
	}
	return nil
}

// processArchive walks all files inside archive, finds markdown files under
// "pathIn" and processes them.
func processArchive(ctx context.Context, path, pathIn, pathOut, dst string, s *session, log *zap.Logger) (err error) {
	count := 0
	defer func() {
		if err == nil && count == 0 {
			log.Debug("Nothing to process", zap.String("archive", path))
		}
	}()

	cp := s.env.CodePage

	return archive.Walk(path, pathIn, func(a *archive.Archive, f *zip.File) error {
		if err := ctx.Err(); err != nil {
			return err
		}

		md, enc, err := isMarkdownInArchive(f)
		if err != nil {
			log.Warn("Skipping file in archive",
				zap.String("archive", a.Path), zap.String("path", f.FileHeader.Name), zap.Error(err))
			return nil
		}
		if !md {
			log.Debug("Skipping file, not recognized as markdown", zap.String("archive", a.Path), zap.String("file", f.FileHeader.Name))
			return nil
		}

		count++

		r, err := f.Open()
		if err != nil {
			log.Error("Unable to process file in archive",
				zap.String("archive", a.Path), zap.String("file", f.FileHeader.Name), zap.Error(err))
			return nil
		}
		defer r.Close()

		pathInArchive := f.FileHeader.Name
		if cp != nil && f.FileHeader.NonUTF8 {
			// forcing zip file name encoding
			if n, err := cp.NewDecoder().String(pathInArchive); err == nil {
				pathInArchive = n
			} else {
				n, _ = ianaindex.IANA.Name(cp)
				log.Warn("Unable to convert archive name from specified encoding",
					zap.String("charset", n), zap.String("path", pathInArchive), zap.Error(err))
			}
		}

		imgs := newArchiveImages(a, f.FileHeader.Name, s.env.Cfg.Document.Images.MaxSize, s.fileImages("", log))
		if err := processDocument(ctx, selectReader(r, enc), filepath.Join(pathOut, filepath.FromSlash(pathInArchive)), dst, imgs, s, log); err != nil {
			log.Error("Unable to process file in archive",
				zap.String("archive", a.Path), zap.String("file", f.FileHeader.Name), zap.Error(err))
		}
		return nil
	})
}

// processDocument converts single markdown document. "src" is part of the
// source path (always including file name) relative to the original path.
// When actual file was specified it will be just base file name without a
// path. When looking inside archive or directory it will be relative path
// inside archive or directory (including base file name). "dst" is the
// destination directory where the converted file should be written.
func processDocument(ctx context.Context, r io.Reader, src, dst string, imgs onenote.ImageLoader, s *session, log *zap.Logger) (rerr error) {
	env := s.env
	d := &document{src: src, id: uuid.NewString(), format: s.format, date: time.Now()}
	log = log.With(zap.String("doc_id", d.id))

	var outputName string

	log.Info("Conversion starting", zap.String("from", src))
	defer func(start time.Time) {
		// NOTE: image decoding libraries are not mature enough, if multiple
		// documents are being processed we do not want to stop.
		if r := recover(); r != nil {
			log.Error("Conversion ended with panic",
				zap.Any("panic", r), zap.Duration("elapsed", time.Since(start)), zap.String("to", outputName), zap.ByteString("stack", debug.Stack()))
			rerr = fmt.Errorf("conversion panic: %v", r)
		} else if rerr == nil {
			log.Info("Conversion completed", zap.Duration("elapsed", time.Since(start)), zap.String("to", outputName))
		}
	}(time.Now())

	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("unable to read markdown source (%s): %w", src, err)
	}
	md := string(data)

	conv, err := s.converter(imgs, log)
	if err != nil {
		return fmt.Errorf("unable to prepare converter: %w", err)
	}

	d.title = conv.Title(md)
	if d.title == "" {
		d.title = strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	}

	outline, err := conv.Convert(ctx, md)
	if err != nil {
		return fmt.Errorf("unable to convert markdown source (%s): %w", src, err)
	}

	// Determine output file name and path based on input and configuration.
	outputName = buildOutputPath(d, dst, env)

	// Check if output file already exists
	if _, err := os.Stat(outputName); err == nil {
		if !env.Overwrite {
			return fmt.Errorf("output file already exists: %s", outputName)
		}
		log.Warn("Overwriting existing file", zap.String("file", outputName))
		if err = os.Remove(outputName); err != nil {
			return err
		}
	} else if !os.IsNotExist(err) {
		return err
	} else if err := os.MkdirAll(filepath.Dir(outputName), 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}

	var doc *etree.Document
	switch d.format {
	case common.OutputFmtPage:
		doc = conv.Page(outline, d.title)
	default:
		doc = etree.NewDocument()
		doc.CreateProcInst("xml", `version="1.0" encoding="utf-8"`)
		doc.SetRoot(outline)
	}
	if env.Cfg.Output.Indent > 0 {
		doc.Indent(env.Cfg.Output.Indent)
	}
	if err := doc.WriteToFile(outputName); err != nil {
		return fmt.Errorf("unable to write output: %w", err)
	}

	// Store conversion details for debugging
	if env.Rpt != nil {
		env.Rpt.StoreData(fmt.Sprintf("source-%s%s", d.id, filepath.Ext(src)), data)
		env.Rpt.StoreData(fmt.Sprintf("blocks-%s.txt", d.id), []byte(markup.Dump(conv.Parse(md))))
		env.Rpt.Store(fmt.Sprintf("result-%s%s", d.id, d.format.Ext()), outputName)
	}
	return nil
}
