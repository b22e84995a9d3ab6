package pptx

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"svcdeck/archive"
)

// SlideInfo is what a produced slide carries: its layout and placeholder
// texts keyed by placeholder idx.
type SlideInfo struct {
	Part   string
	Layout string
	Texts  map[int]string
}

// Inspect reads presentation file and lists its slides in presentation order.
func Inspect(path string) ([]SlideInfo, error) {
	pkg, err := archive.Load(path)
	if err != nil {
		return nil, err
	}
	return InspectPackage(pkg)
}

// InspectPackage lists slides of in-memory presentation.
func InspectPackage(pkg *archive.Package) ([]SlideInfo, error) {
	pres, err := officeDocument(pkg)
	if err != nil {
		return nil, err
	}
	presDoc, presRels, err := partWithRels(pkg, pres)
	if err != nil {
		return nil, err
	}

	list := child(presDoc.Root(), "sldIdLst")
	if list == nil {
		return nil, nil
	}

	var out []SlideInfo
	for _, id := range children(list, "sldId") {
		part, ok := presRels.part(relID(id))
		if !ok {
			return nil, fmt.Errorf("dangling slide relationship %q", relID(id))
		}
		doc, rels, err := partWithRels(pkg, part)
		if err != nil {
			return nil, err
		}

		info := SlideInfo{Part: part, Texts: make(map[int]string)}
		if l := rels.byType(relSlideLayout); len(l) > 0 {
			info.Layout = resolveTarget(part, l[0].Target)
		}
		if tree := descend(doc.Root(), "cSld", "spTree"); tree != nil {
			for _, sp := range children(tree, "sp") {
				ph := descend(sp, "nvSpPr", "nvPr", "ph")
				if ph == nil {
					continue
				}
				idx, _ := strconv.Atoi(ph.SelectAttrValue("idx", "0"))
				info.Texts[idx] = bodyText(child(sp, "txBody"))
			}
		}
		out = append(out, info)
	}
	return out, nil
}

// bodyText joins paragraphs of text body with new lines.
func bodyText(body *etree.Element) string {
	if body == nil {
		return ""
	}
	var lines []string
	for _, p := range children(body, "p") {
		var b strings.Builder
		for _, r := range children(p, "r") {
			if t := child(r, "t"); t != nil {
				b.WriteString(t.Text())
			}
		}
		lines = append(lines, b.String())
	}
	return strings.Join(lines, "\n")
}
