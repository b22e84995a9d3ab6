// Package pptx renders slide specifications into a presentation built on top
// of a template file. Template carries slide masters and their layouts, every
// slide of the template itself is dropped.
package pptx

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/h2non/filetype"
	"go.uber.org/zap"

	"svcdeck/archive"
)

var (
	ErrNotPresentation = errors.New("not a presentation file")
	ErrLayoutMissing   = errors.New("layout is missing from template")
)

// Template is a parsed presentation template. It is never modified, every
// Render works on its own copy, so single Template may be shared between
// goroutines.
type Template struct {
	path    string
	pkg     *archive.Package
	pres    string     // presentation part name
	layouts [][]string // master index -> layout index -> layout part name
	log     *zap.Logger
}

// Open loads template and resolves its master/layout tree.
func Open(path string, log *zap.Logger) (*Template, error) {
	if err := checkFileType(path); err != nil {
		return nil, err
	}

	pkg, err := archive.Load(path)
	if err != nil {
		return nil, fmt.Errorf("unable to load template %s: %w", path, err)
	}

	t := &Template{path: path, pkg: pkg, log: log.Named("pptx")}
	if err := t.resolve(); err != nil {
		return nil, fmt.Errorf("template %s: %w", path, err)
	}

	t.log.Debug("Template loaded", zap.String("path", path), zap.Int("parts", len(pkg.Parts())), zap.Int("masters", len(t.layouts)))
	return t, nil
}

// Masters returns number of slide masters in the template.
func (t *Template) Masters() int {
	return len(t.layouts)
}

// Layouts returns number of layouts of master or 0 when master does not exist.
func (t *Template) Layouts(master int) int {
	if master < 0 || master >= len(t.layouts) {
		return 0
	}
	return len(t.layouts[master])
}

// LayoutPart returns package part name of layout addressed by master and
// layout indexes.
func (t *Template) LayoutPart(master, layout int) (string, error) {
	if master < 0 || master >= len(t.layouts) {
		return "", fmt.Errorf("%w: master %d (template has %d)", ErrLayoutMissing, master, len(t.layouts))
	}
	if layout < 0 || layout >= len(t.layouts[master]) {
		return "", fmt.Errorf("%w: master %d layout %d (master has %d)", ErrLayoutMissing, master, layout, len(t.layouts[master]))
	}
	return t.layouts[master][layout], nil
}

func checkFileType(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("unable to open template: %w", err)
	}
	defer f.Close()

	head := make([]byte, 8192)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return fmt.Errorf("unable to read template: %w", err)
	}

	kind, err := filetype.Match(head[:n])
	if err != nil {
		return fmt.Errorf("unable to detect template type: %w", err)
	}
	switch kind.Extension {
	case "pptx", "zip":
		return nil
	}
	return fmt.Errorf("%w: %s (%s)", ErrNotPresentation, path, kind.MIME.Value)
}

// resolve walks presentation -> masters -> layouts following relationship
// ids in document order, the order PowerPoint numbers them in.
func (t *Template) resolve() error {
	pres, err := officeDocument(t.pkg)
	if err != nil {
		return err
	}
	t.pres = pres

	presDoc, presRels, err := partWithRels(t.pkg, pres)
	if err != nil {
		return err
	}

	masterList := descend(presDoc.Root(), "sldMasterIdLst")
	if masterList == nil {
		return errors.New("presentation has no slide masters")
	}
	for _, m := range children(masterList, "sldMasterId") {
		masterPart, ok := presRels.part(relID(m))
		if !ok {
			return fmt.Errorf("dangling slide master relationship %q", relID(m))
		}
		masterDoc, masterRels, err := partWithRels(t.pkg, masterPart)
		if err != nil {
			return err
		}

		var layouts []string
		if list := descend(masterDoc.Root(), "sldLayoutIdLst"); list != nil {
			for _, l := range children(list, "sldLayoutId") {
				layoutPart, ok := masterRels.part(relID(l))
				if !ok {
					return fmt.Errorf("%s: dangling slide layout relationship %q", masterPart, relID(l))
				}
				if _, ok := t.pkg.Get(layoutPart); !ok {
					return fmt.Errorf("%s: layout part %s is missing", masterPart, layoutPart)
				}
				layouts = append(layouts, layoutPart)
			}
		}
		t.layouts = append(t.layouts, layouts)
	}
	return nil
}
