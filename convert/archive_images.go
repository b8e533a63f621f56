package convert

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"strings"

	"onemd/archive"
	"onemd/utils/images"
)

// archiveImages resolves relative image references of a document stored in
// zip archive against archive content. Everything else goes to regular
// loader.
type archiveImages struct {
	arc     *archive.Archive
	dir     string
	maxSize int64
	loader  *images.Loader
}

func newArchiveImages(arc *archive.Archive, docName string, maxSize int64, loader *images.Loader) *archiveImages {
	return &archiveImages{arc: arc, dir: path.Dir(docName), maxSize: maxSize, loader: loader}
}

func (ai *archiveImages) Load(ctx context.Context, src string) (*images.Image, error) {
	if hasScheme(src) || path.IsAbs(src) {
		return ai.loader.Load(ctx, src)
	}
	name := src
	if n, err := url.PathUnescape(src); err == nil {
		name = n
	}

	f := ai.arc.Find(path.Join(ai.dir, name))
	if f == nil {
		return nil, fmt.Errorf("image %q in archive %s: %w", src, ai.arc.Path, os.ErrNotExist)
	}
	if f.UncompressedSize64 > uint64(ai.maxSize) {
		return nil, fmt.Errorf("%w: %s is %d bytes", images.ErrTooLarge, f.Name, f.UncompressedSize64)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("unable to open image %q in archive: %w", src, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, ai.maxSize+1))
	if err != nil {
		return nil, fmt.Errorf("unable to read image %q from archive: %w", src, err)
	}
	if int64(len(data)) > ai.maxSize {
		return nil, fmt.Errorf("%w: %s", images.ErrTooLarge, f.Name)
	}
	img, err := ai.loader.Prepare(data)
	if err != nil {
		return nil, fmt.Errorf("unable to prepare image %q: %w", src, err)
	}
	return img, nil
}

func hasScheme(src string) bool {
	for _, p := range []string{"data:", "http://", "https://", "file://"} {
		if strings.HasPrefix(src, p) {
			return true
		}
	}
	return false
}
