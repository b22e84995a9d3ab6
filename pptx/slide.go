package pptx

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"svcdeck/deck"
)

// placeholder describes layout placeholder copied onto new slide.
type placeholder struct {
	name   string
	typ    string
	orient string
	sz     string
	idx    int
}

// Placeholder types the slide never inherits from layout.
var skippedPlaceholders = map[string]bool{
	"dt":     true,
	"ftr":    true,
	"sldNum": true,
}

func layoutPlaceholders(layout *etree.Document) []placeholder {
	tree := descend(layout.Root(), "cSld", "spTree")
	if tree == nil {
		return nil
	}

	var out []placeholder
	for _, sp := range children(tree, "sp") {
		ph := descend(sp, "nvSpPr", "nvPr", "ph")
		if ph == nil {
			continue
		}
		p := placeholder{
			typ:    ph.SelectAttrValue("type", ""),
			orient: ph.SelectAttrValue("orient", ""),
			sz:     ph.SelectAttrValue("sz", ""),
		}
		if skippedPlaceholders[p.typ] {
			continue
		}
		if v := ph.SelectAttrValue("idx", ""); len(v) > 0 {
			n, err := strconv.ParseUint(v, 10, 32)
			if err != nil {
				continue
			}
			p.idx = int(n)
		}
		if c := descend(sp, "nvSpPr", "cNvPr"); c != nil {
			p.name = c.SelectAttrValue("name", "")
		}
		out = append(out, p)
	}
	return out
}

// buildSlide creates slide inheriting placeholders of layout and fills them
// with spec texts, one paragraph per line.
func buildSlide(layout *etree.Document, spec deck.SlideSpec) (*etree.Document, error) {
	doc := newXMLDocument()
	sld := doc.CreateElement("p:sld")
	sld.CreateAttr("xmlns:a", nsDrawing)
	sld.CreateAttr("xmlns:r", nsRelationships)
	sld.CreateAttr("xmlns:p", nsPresentation)

	tree := sld.CreateElement("p:cSld").CreateElement("p:spTree")
	group := tree.CreateElement("p:nvGrpSpPr")
	cNvPr := group.CreateElement("p:cNvPr")
	cNvPr.CreateAttr("id", "1")
	cNvPr.CreateAttr("name", "")
	group.CreateElement("p:cNvGrpSpPr")
	group.CreateElement("p:nvPr")
	tree.CreateElement("p:grpSpPr")

	filled := make(map[int]bool, len(spec.Texts))
	for i, ph := range layoutPlaceholders(layout) {
		text, ok := spec.Text(ph.idx)
		if ok {
			filled[ph.idx] = true
		}
		addPlaceholder(tree, i+2, ph, text)
	}

	for _, t := range spec.Texts {
		if !filled[t.Slot] {
			return nil, fmt.Errorf("layout has no placeholder with idx %d", t.Slot)
		}
	}

	sld.CreateElement("p:clrMapOvr").CreateElement("a:masterClrMapping")
	return doc, nil
}

func addPlaceholder(tree *etree.Element, id int, ph placeholder, text string) {
	sp := tree.CreateElement("p:sp")

	nv := sp.CreateElement("p:nvSpPr")
	cNvPr := nv.CreateElement("p:cNvPr")
	cNvPr.CreateAttr("id", strconv.Itoa(id))
	name := ph.name
	if len(name) == 0 {
		name = "Placeholder " + strconv.Itoa(id-1)
	}
	cNvPr.CreateAttr("name", name)
	nv.CreateElement("p:cNvSpPr").CreateElement("a:spLocks").CreateAttr("noGrp", "1")

	phe := nv.CreateElement("p:nvPr").CreateElement("p:ph")
	if len(ph.typ) > 0 {
		phe.CreateAttr("type", ph.typ)
	}
	if len(ph.orient) > 0 {
		phe.CreateAttr("orient", ph.orient)
	}
	if len(ph.sz) > 0 {
		phe.CreateAttr("sz", ph.sz)
	}
	if ph.idx > 0 {
		phe.CreateAttr("idx", strconv.Itoa(ph.idx))
	}

	sp.CreateElement("p:spPr")

	body := sp.CreateElement("p:txBody")
	body.CreateElement("a:bodyPr")
	body.CreateElement("a:lstStyle")
	for line := range strings.SplitSeq(text, "\n") {
		p := body.CreateElement("a:p")
		if len(line) == 0 {
			continue
		}
		r := p.CreateElement("a:r")
		rPr := r.CreateElement("a:rPr")
		rPr.CreateAttr("lang", "ko-KR")
		rPr.CreateAttr("altLang", "en-US")
		r.CreateElement("a:t").SetText(line)
	}
}
