package pptx

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"svcdeck/archive"
	"svcdeck/deck"
)

// firstSlideID is the lowest id PowerPoint accepts in sldIdLst.
const firstSlideID = 256

// Render produces presentation package containing exactly one slide per spec,
// in order. Template slides are removed.
func (t *Template) Render(ctx context.Context, slides []deck.SlideSpec) (*archive.Package, error) {
	pkg := t.pkg.Clone()

	presDoc, presRels, err := partWithRels(pkg, t.pres)
	if err != nil {
		return nil, err
	}
	ct, err := readPart(pkg, contentTypesPart)
	if err != nil {
		return nil, err
	}

	dropped := presRels.removeType(relSlide)
	removed := pkg.Remove(func(name string) bool {
		return inDir(name, slidesDir) || inDir(name, notesSlidesDir)
	})
	for _, o := range children(ct.Root(), "Override") {
		name := strings.TrimPrefix(o.SelectAttrValue("PartName", ""), "/")
		if inDir(name, slidesDir) || inDir(name, notesSlidesDir) {
			ct.Root().RemoveChild(o)
		}
	}
	if len(dropped) > 0 || removed > 0 {
		t.log.Debug("Template slides removed", zap.Int("slides", len(dropped)), zap.Int("parts", removed))
	}

	idList, err := resetSlideList(presDoc.Root())
	if err != nil {
		return nil, err
	}

	layouts := make(map[string]*etree.Document)
	for i, spec := range slides {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		layoutPart, err := t.LayoutPart(spec.Layout.Master, spec.Layout.Layout)
		if err != nil {
			return nil, fmt.Errorf("slide %d (%s): %w", i+1, spec.Kind, err)
		}
		layoutDoc, ok := layouts[layoutPart]
		if !ok {
			if layoutDoc, err = readPart(pkg, layoutPart); err != nil {
				return nil, err
			}
			layouts[layoutPart] = layoutDoc
		}

		slideDoc, err := buildSlide(layoutDoc, spec)
		if err != nil {
			return nil, fmt.Errorf("slide %d (%s): %w", i+1, spec.Kind, err)
		}

		name := slidesDir + "/slide" + strconv.Itoa(i+1) + ".xml"
		if err := writePart(pkg, name, slideDoc); err != nil {
			return nil, err
		}
		slideRels, _ := loadRelationships(name, nil)
		slideRels.add(relSlideLayout, layoutPart)
		if err := writePart(pkg, relsPartName(name), slideRels.doc); err != nil {
			return nil, err
		}

		rid := presRels.add(relSlide, name)
		id := idList.CreateElement(qualify(idList.Space, "sldId"))
		id.CreateAttr("id", strconv.Itoa(firstSlideID+i))
		id.CreateAttr(qualify(relPrefix(presDoc.Root()), "id"), rid)

		o := ct.Root().CreateElement("Override")
		o.CreateAttr("PartName", "/"+name)
		o.CreateAttr("ContentType", ctSlide)
	}

	if err := writePart(pkg, t.pres, presDoc); err != nil {
		return nil, err
	}
	if err := writePart(pkg, relsPartName(t.pres), presRels.doc); err != nil {
		return nil, err
	}
	if err := writePart(pkg, contentTypesPart, ct); err != nil {
		return nil, err
	}

	t.log.Debug("Slides rendered", zap.Int("slides", len(slides)), zap.Int("layouts", len(layouts)))
	return pkg, nil
}

// relPrefix returns prefix of relationships namespace declaring it on root
// when necessary.
func relPrefix(root *etree.Element) string {
	if prefix, ok := nsPrefix(root, nsRelationships); ok {
		return prefix
	}
	root.CreateAttr("xmlns:r", nsRelationships)
	return "r"
}

// resetSlideList empties (creating when absent) presentation slide list. The
// list has fixed position in schema: after master lists and before slide size.
func resetSlideList(root *etree.Element) (*etree.Element, error) {
	if list := child(root, "sldIdLst"); list != nil {
		for _, c := range list.ChildElements() {
			list.RemoveChild(c)
		}
		return list, nil
	}

	var after *etree.Element
	for _, tag := range []string{"sldMasterIdLst", "notesMasterIdLst", "handoutMasterIdLst"} {
		if e := child(root, tag); e != nil {
			after = e
		}
	}
	if after == nil {
		return nil, fmt.Errorf("presentation has no slide masters")
	}

	list := etree.NewElement(qualify(root.Space, "sldIdLst"))
	root.InsertChildAt(after.Index()+1, list)
	return list, nil
}
