package build

import (
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"svcdeck/config"
	"svcdeck/plan"
	"svcdeck/state"
)

const deckExt = ".pptx"

// buildOutputPath returns output file path for plan. source is plan file base
// name without extension or store id. Name comes from configured template
// (which may contain sub directories) or defaults to "<date>_<source>".
func buildOutputPath(p *plan.ServicePlan, source, dst string, env *state.LocalEnv) string {
	defaultFile := cleanPathSegment(dateStamp(env.ServiceDate)+"_"+source, env) + deckExt

	if env.Cfg.Document.OutputNameTemplate == "" {
		return filepath.Join(dst, defaultFile)
	}

	expanded, err := expandTemplate(p, config.OutputNameTemplateFieldName, env.Cfg.Document.OutputNameTemplate, source, env.ServiceDate)
	if err != nil {
		env.Log.Warn("Unable to prepare output filename", zap.Error(err))
		return filepath.Join(dst, defaultFile)
	}
	expanded = strings.TrimSpace(filepath.FromSlash(expanded))
	if expanded == "" {
		return filepath.Join(dst, defaultFile)
	}
	return assemblePathWithSubdirs(dst, expanded, env)
}

// assemblePathWithSubdirs takes an expanded template name (which may contain
// path separators for subdirectories) and assembles it into a full output path,
// cleaning and transliterating segments as needed
func assemblePathWithSubdirs(outDir, expandedName string, env *state.LocalEnv) string {
	pathSegments := splitPath(expandedName)
	if len(pathSegments) == 0 {
		return outDir
	}

	dirParts := make([]string, 0, len(pathSegments)+1)
	dirParts = append(dirParts, outDir)
	for _, segment := range pathSegments[:len(pathSegments)-1] {
		dirParts = append(dirParts, cleanPathSegment(segment, env))
	}
	dirParts = append(dirParts, cleanPathSegment(pathSegments[len(pathSegments)-1], env)+deckExt)
	return filepath.Join(dirParts...)
}

// splitPath breaks path into segments dropping empty, "." and ".." ones, so
// expanded name never escapes destination.
func splitPath(path string) []string {
	path = strings.TrimSuffix(path, string(os.PathSeparator))
	segments := make([]string, 0, 8)

	for head, tail := filepath.Split(path); ; head, tail = filepath.Split(head) {
		if tail != "" && tail != "." && tail != ".." {
			segments = slices.Insert(segments, 0, tail)
		}
		head = strings.TrimSuffix(head, string(os.PathSeparator))
		if head == "" || head == path {
			break
		}
		path = head
	}
	return segments
}

func cleanPathSegment(segment string, env *state.LocalEnv) string {
	if env.Cfg.Document.FileNameTransliterate {
		segment = slug.Make(segment)
	}
	return config.CleanFileName(segment)
}
