// Package archive builds Walk and Load abstractions on top of "archive/zip"
// for Office Open XML packages.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"path"
	"strings"
)

// WalkFunc is called for each file in archive visited by Walk. The archive
// argument contains path to archive passed to Walk. If an error is returned,
// processing stops.
type WalkFunc func(archive string, file *zip.File) error

// Walk walks all files in the archive with names starting with prefix, in
// archive order. Archives with absolute or path traversing entry names are
// rejected as a whole.
func Walk(archive, prefix string, walkFn WalkFunc) error {
	r, err := zip.OpenReader(archive)
	if err != nil {
		return err
	}
	defer r.Close()

	for _, f := range r.File {
		name := f.FileHeader.Name
		if !isSafePath(name) {
			return fmt.Errorf("zip entry %q: unsafe path (absolute or contains path traversal)", name)
		}
		if f.FileInfo().IsDir() || !strings.HasPrefix(name, prefix) {
			continue
		}
		if err := walkFn(archive, f); err != nil {
			return err
		}
	}
	return nil
}

// Part is a single file of a package.
type Part struct {
	Name string
	Data []byte
}

// Package keeps all parts of an archive in memory, preserving their order.
type Package struct {
	parts []Part
	index map[string]int
}

// Load reads every file of archive into memory.
func Load(archive string) (*Package, error) {
	pkg := &Package{index: make(map[string]int)}
	err := Walk(archive, "", func(_ string, f *zip.File) error {
		rc, err := f.Open()
		if err != nil {
			return fmt.Errorf("unable to open %s: %w", f.Name, err)
		}
		defer rc.Close()

		data, err := io.ReadAll(rc)
		if err != nil {
			return fmt.Errorf("unable to read %s: %w", f.Name, err)
		}
		pkg.Put(f.Name, data)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pkg, nil
}

// Get returns part content by name.
func (p *Package) Get(name string) ([]byte, bool) {
	i, ok := p.index[name]
	if !ok {
		return nil, false
	}
	return p.parts[i].Data, true
}

// Put replaces part content or appends new part.
func (p *Package) Put(name string, data []byte) {
	if p.index == nil {
		p.index = make(map[string]int)
	}
	if i, ok := p.index[name]; ok {
		p.parts[i].Data = data
		return
	}
	p.index[name] = len(p.parts)
	p.parts = append(p.parts, Part{Name: name, Data: data})
}

// Remove drops every part for which drop returns true.
func (p *Package) Remove(drop func(name string) bool) int {
	kept := p.parts[:0]
	removed := 0
	for _, part := range p.parts {
		if drop(part.Name) {
			removed++
			continue
		}
		kept = append(kept, part)
	}
	p.parts = kept
	p.index = make(map[string]int, len(kept))
	for i, part := range kept {
		p.index[part.Name] = i
	}
	return removed
}

// Parts returns all parts in order.
func (p *Package) Parts() []Part {
	return p.parts
}

// Clone returns independent copy of the package part list. Part data is
// shared, Put replaces data instead of modifying it.
func (p *Package) Clone() *Package {
	c := &Package{
		parts: make([]Part, len(p.parts)),
		index: make(map[string]int, len(p.index)),
	}
	copy(c.parts, p.parts)
	for k, v := range p.index {
		c.index[k] = v
	}
	return c
}

// Store writes all parts into zip writer in order.
func (p *Package) Store(zw *zip.Writer) error {
	for _, part := range p.parts {
		w, err := zw.Create(part.Name)
		if err != nil {
			return err
		}
		if _, err := w.Write(part.Data); err != nil {
			return err
		}
	}
	return nil
}

// isSafePath returns false for paths that could escape the extraction
// directory: absolute paths and those containing ".." components.
func isSafePath(name string) bool {
	if path.IsAbs(name) || strings.HasPrefix(name, "/") || strings.HasPrefix(name, `\`) {
		return false
	}
	for part := range strings.SplitSeq(name, "/") {
		if part == ".." {
			return false
		}
	}
	return true
}
