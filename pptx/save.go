package pptx

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	fixzip "github.com/hidez8891/zip"
	"go.uber.org/zap"

	"svcdeck/archive"
	"svcdeck/deck"
)

// Save writes package to outputPath. Archive is assembled in workDir first so
// failed run never leaves partial presentation behind. With fixZip data
// descriptors are removed from the result, some viewers refuse archives
// having them.
func Save(pkg *archive.Package, outputPath, workDir string, fixZip bool) error {
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("unable to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(workDir, "deck-*.pptx")
	if err != nil {
		return fmt.Errorf("unable to create output file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)
	defer tmp.Close()

	zw := zip.NewWriter(tmp)
	if err := pkg.Store(zw); err != nil {
		return fmt.Errorf("unable to write presentation: %w", err)
	}
	// make sure buffers are flushed before continuing
	if err := zw.Close(); err != nil {
		return fmt.Errorf("unable to close output archive: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("unable to finalize output file: %w", err)
	}

	if fixZip {
		return copyZipWithoutDataDescriptors(tmpName, outputPath)
	}
	return copyFile(tmpName, outputPath)
}

func copyZipWithoutDataDescriptors(from, to string) error {
	out, err := os.Create(to)
	if err != nil {
		return fmt.Errorf("unable to create target file (%s): %w", to, err)
	}
	defer out.Close()

	r, err := fixzip.OpenReader(from)
	if err != nil {
		return fmt.Errorf("unable to read archive file (%s): %w", from, err)
	}
	defer r.Close()

	w := fixzip.NewWriter(out)
	for _, file := range r.File {
		file.Flags &= ^fixzip.FlagDataDescriptor
		if err := w.CopyFile(file); err != nil {
			w.Close()
			return fmt.Errorf("unable to write target file (%s): %w", to, err)
		}
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("unable to finalize target file (%s): %w", to, err)
	}
	return out.Close()
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create destination file: %w", err)
	}
	defer out.Close()

	if _, err = io.Copy(out, in); err != nil {
		return fmt.Errorf("failed to copy file contents: %w", err)
	}
	return out.Close()
}

// Write renders slides and saves presentation to outputPath.
func (t *Template) Write(ctx context.Context, slides []deck.SlideSpec, outputPath, workDir string, fixZip bool) error {
	pkg, err := t.Render(ctx, slides)
	if err != nil {
		return err
	}
	if err := Save(pkg, outputPath, workDir, fixZip); err != nil {
		return err
	}
	t.log.Debug("Presentation written", zap.String("output", outputPath), zap.Int("slides", len(slides)))
	return nil
}
