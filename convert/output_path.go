package convert

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"onemd/common"
	"onemd/config"
	"onemd/state"
)

// buildOutputPath returns output file path for converted document. It uses
// either source base name or user-defined template and takes into account
// whether to preserve source directory structure on the output. Path is
// cleaned and, if requested, transliterated.
func buildOutputPath(d *document, dst string, env *state.LocalEnv) string {
	outDir := makeOutputDir(d.src, dst, env)
	defaultFile := makeDefaultFileName(d.src, d.format, env)

	if env.Cfg.Output.NameTemplate == "" {
		return filepath.Join(outDir, defaultFile)
	}

	expandedName := expandOutputNameTemplate(d, env)
	if expandedName == "" {
		// fallback to default name if template expansion failed
		return filepath.Join(outDir, defaultFile)
	}
	return makeFullPath(outDir, expandedName, d.format, env)
}

func makeOutputDir(src, dst string, env *state.LocalEnv) string {
	if env.NoDirs {
		return dst
	}
	return filepath.Join(dst, filepath.Dir(src))
}

func makeDefaultFileName(src string, format common.OutputFmt, env *state.LocalEnv) string {
	return cleanPathSegment(strings.TrimSuffix(filepath.Base(src), filepath.Ext(src)), env) + format.Ext()
}

func expandOutputNameTemplate(d *document, env *state.LocalEnv) string {
	expandedName, err := expandTemplate(d, config.OutputNameTemplateFieldName, env.Cfg.Output.NameTemplate)
	if err != nil {
		env.Log.Warn("Unable to prepare output filename", zap.Error(err))
		return ""
	}
	if strings.TrimSpace(expandedName) == "" {
		env.Log.Warn("Output filename template expanded to nothing", zap.String("template", env.Cfg.Output.NameTemplate))
		return ""
	}
	return filepath.FromSlash(expandedName)
}

// makeFullPath takes expanded template name, which may contain path
// separators for subdirectories, and assembles it into a full output path
// cleaning and transliterating segments as needed.
func makeFullPath(outDir, expandedName string, format common.OutputFmt, env *state.LocalEnv) string {
	pathSegments := splitPathSegments(expandedName)
	if len(pathSegments) == 0 {
		return outDir
	}

	parts := make([]string, 0, len(pathSegments)+1)
	parts = append(parts, outDir)
	for _, segment := range pathSegments[:len(pathSegments)-1] {
		parts = append(parts, cleanPathSegment(segment, env))
	}
	parts = append(parts, cleanPathSegment(pathSegments[len(pathSegments)-1], env)+format.Ext())
	return filepath.Join(parts...)
}

func splitPathSegments(path string) []string {
	path = strings.TrimSuffix(path, string(os.PathSeparator))
	segments := make([]string, 0, 8)

	for head, tail := filepath.Split(path); tail != ""; head, tail = filepath.Split(head) {
		segments = slices.Insert(segments, 0, tail)
		head = strings.TrimSuffix(head, string(os.PathSeparator))
		if head == "" {
			break
		}
	}
	return segments
}

func cleanPathSegment(segment string, env *state.LocalEnv) string {
	if env.Cfg.Output.FileNameTransliterate {
		segment = slug.Make(segment)
	}
	return config.CleanFileName(segment)
}
