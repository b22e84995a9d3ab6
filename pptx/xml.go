package pptx

import (
	"bytes"
	"errors"
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"golang.org/x/net/html/charset"

	"svcdeck/archive"
)

const (
	nsPresentation  = "http://schemas.openxmlformats.org/presentationml/2006/main"
	nsDrawing       = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsRelationships = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"
	nsPackageRels   = "http://schemas.openxmlformats.org/package/2006/relationships"

	relOfficeDocument = nsRelationships + "/officeDocument"
	relSlideMaster    = nsRelationships + "/slideMaster"
	relSlideLayout    = nsRelationships + "/slideLayout"
	relSlide          = nsRelationships + "/slide"
	relNotesSlide     = nsRelationships + "/notesSlide"

	ctSlide = "application/vnd.openxmlformats-officedocument.presentationml.slide+xml"

	contentTypesPart = "[Content_Types].xml"
	slidesDir        = "ppt/slides"
	notesSlidesDir   = "ppt/notesSlides"
)

func parseXML(name string, data []byte) (*etree.Document, error) {
	doc := etree.NewDocument()
	doc.ReadSettings = etree.ReadSettings{
		CharsetReader: charset.NewReaderLabel,
		Permissive:    true,
	}
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("unable to parse %s: %w", name, err)
	}
	if doc.Root() == nil {
		return nil, fmt.Errorf("unable to parse %s: no root element", name)
	}
	return doc, nil
}

func serializeXML(doc *etree.Document) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := doc.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func newXMLDocument() *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8" standalone="yes"`)
	return doc
}

// children returns direct child elements with local name tag regardless of
// namespace prefix.
func children(e *etree.Element, tag string) []*etree.Element {
	var out []*etree.Element
	for _, c := range e.ChildElements() {
		if c.Tag == tag {
			out = append(out, c)
		}
	}
	return out
}

func child(e *etree.Element, tag string) *etree.Element {
	for _, c := range e.ChildElements() {
		if c.Tag == tag {
			return c
		}
	}
	return nil
}

// descend follows chain of local names from e.
func descend(e *etree.Element, tags ...string) *etree.Element {
	for _, t := range tags {
		if e == nil {
			return nil
		}
		e = child(e, t)
	}
	return e
}

// relID returns value of namespaced "id" attribute (r:id) of element.
func relID(e *etree.Element) string {
	for _, a := range e.Attr {
		if a.Key == "id" && len(a.Space) > 0 && a.Space != "xmlns" {
			return a.Value
		}
	}
	return ""
}

// relsPartName returns name of relationships part for part.
func relsPartName(part string) string {
	dir, file := path.Split(part)
	return dir + "_rels/" + file + ".rels"
}

// resolveTarget converts relationship target to package part name.
func resolveTarget(source, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(path.Clean(target), "/")
	}
	return path.Clean(path.Join(path.Dir(source), target))
}

// relativeTarget converts part name to target relative to source part.
func relativeTarget(source, part string) string {
	var from []string
	if dir := path.Dir(source); dir != "." {
		from = strings.Split(dir, "/")
	}
	to := strings.Split(part, "/")

	common := 0
	for common < len(from) && common < len(to)-1 && from[common] == to[common] {
		common++
	}
	var b strings.Builder
	for range len(from) - common {
		b.WriteString("../")
	}
	b.WriteString(strings.Join(to[common:], "/"))
	return b.String()
}

type relationship struct {
	ID     string
	Type   string
	Target string
	el     *etree.Element
}

// relationships is parsed relationships part.
type relationships struct {
	source string
	doc    *etree.Document
	items  []relationship
}

func loadRelationships(source string, data []byte) (*relationships, error) {
	rels := &relationships{source: source}
	if data == nil {
		rels.doc = newXMLDocument()
		root := rels.doc.CreateElement("Relationships")
		root.CreateAttr("xmlns", nsPackageRels)
		return rels, nil
	}
	doc, err := parseXML(relsPartName(source), data)
	if err != nil {
		return nil, err
	}
	rels.doc = doc
	for _, e := range children(doc.Root(), "Relationship") {
		rels.items = append(rels.items, relationship{
			ID:     e.SelectAttrValue("Id", ""),
			Type:   e.SelectAttrValue("Type", ""),
			Target: e.SelectAttrValue("Target", ""),
			el:     e,
		})
	}
	return rels, nil
}

// part returns package part name for relationship id.
func (r *relationships) part(id string) (string, bool) {
	for _, it := range r.items {
		if it.ID == id {
			return resolveTarget(r.source, it.Target), true
		}
	}
	return "", false
}

func (r *relationships) byType(typ string) []relationship {
	var out []relationship
	for _, it := range r.items {
		if it.Type == typ {
			out = append(out, it)
		}
	}
	return out
}

// removeType drops all relationships of type and returns their ids.
func (r *relationships) removeType(typ string) []string {
	var ids []string
	kept := r.items[:0]
	for _, it := range r.items {
		if it.Type == typ {
			ids = append(ids, it.ID)
			r.doc.Root().RemoveChild(it.el)
			continue
		}
		kept = append(kept, it)
	}
	r.items = kept
	return ids
}

// add appends relationship with the next free "rIdN" id.
func (r *relationships) add(typ, part string) string {
	next := 0
	for _, it := range r.items {
		if n, err := strconv.Atoi(strings.TrimPrefix(it.ID, "rId")); err == nil && n > next {
			next = n
		}
	}
	id := "rId" + strconv.Itoa(next+1)
	target := relativeTarget(r.source, part)

	e := r.doc.Root().CreateElement("Relationship")
	e.CreateAttr("Id", id)
	e.CreateAttr("Type", typ)
	e.CreateAttr("Target", target)
	r.items = append(r.items, relationship{ID: id, Type: typ, Target: target, el: e})
	return id
}

func readPart(pkg *archive.Package, name string) (*etree.Document, error) {
	data, ok := pkg.Get(name)
	if !ok {
		return nil, fmt.Errorf("part %s is missing", name)
	}
	return parseXML(name, data)
}

// readRels returns relationships of source part, empty set when part has none.
func readRels(pkg *archive.Package, source string) (*relationships, error) {
	data, _ := pkg.Get(relsPartName(source))
	return loadRelationships(source, data)
}

func partWithRels(pkg *archive.Package, name string) (*etree.Document, *relationships, error) {
	doc, err := readPart(pkg, name)
	if err != nil {
		return nil, nil, err
	}
	rels, err := readRels(pkg, name)
	if err != nil {
		return nil, nil, err
	}
	return doc, rels, nil
}

func writePart(pkg *archive.Package, name string, doc *etree.Document) error {
	data, err := serializeXML(doc)
	if err != nil {
		return fmt.Errorf("unable to serialize %s: %w", name, err)
	}
	pkg.Put(name, data)
	return nil
}

// officeDocument finds main presentation part from package relationships.
func officeDocument(pkg *archive.Package) (string, error) {
	data, ok := pkg.Get("_rels/.rels")
	if !ok {
		return "", errors.New("package relationships are missing")
	}
	rels, err := loadRelationships("", data)
	if err != nil {
		return "", err
	}
	docs := rels.byType(relOfficeDocument)
	if len(docs) == 0 {
		return "", errors.New("package has no office document")
	}
	return resolveTarget("", docs[0].Target), nil
}

// nsPrefix returns prefix root element declares for namespace uri.
func nsPrefix(root *etree.Element, uri string) (string, bool) {
	for _, a := range root.Attr {
		if a.Space == "xmlns" && a.Value == uri {
			return a.Key, true
		}
	}
	return "", false
}

// qualify returns tag with prefix, or bare tag for default namespace.
func qualify(prefix, tag string) string {
	if len(prefix) == 0 {
		return tag
	}
	return prefix + ":" + tag
}

func inDir(name, dir string) bool {
	return strings.HasPrefix(name, dir+"/")
}
