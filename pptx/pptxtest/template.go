// Package pptxtest builds minimal presentation templates for tests.
package pptxtest

import (
	"archive/zip"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// DefaultLayouts mirrors service template: two masters with 13 and 10 layouts.
var DefaultLayouts = []int{13, 10}

const (
	nsDecl = `xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" ` +
		`xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" ` +
		`xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"`
	relsDecl = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n" +
		`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">`
	relBase = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/"
)

// Write creates template in dir and returns its path. layouts holds number of
// layouts per master. Template contains one slide with notes which rendering
// must drop. Every layout has title placeholder, body placeholders 10, 11, 12
// and date placeholder 13.
func Write(t testing.TB, dir string, layouts ...int) string {
	t.Helper()
	if len(layouts) == 0 {
		layouts = DefaultLayouts
	}

	name := filepath.Join(dir, "template.pptx")
	f, err := os.Create(name)
	if err != nil {
		t.Fatalf("unable to create template: %v", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	for _, p := range Parts(layouts...) {
		w, err := zw.Create(p[0])
		if err != nil {
			t.Fatalf("unable to create template part: %v", err)
		}
		if _, err := w.Write([]byte(p[1])); err != nil {
			t.Fatalf("unable to write template part: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("unable to close template: %v", err)
	}
	return name
}

// LayoutPart returns part name of layout in template produced by Write.
func LayoutPart(master, layout int, layouts ...int) string {
	if len(layouts) == 0 {
		layouts = DefaultLayouts
	}
	n := 1
	for m := range master {
		n += layouts[m]
	}
	return fmt.Sprintf("ppt/slideLayouts/slideLayout%d.xml", n+layout)
}

// Parts returns name/content pairs of template package in archive order.
func Parts(layouts ...int) [][2]string {
	var (
		parts     [][2]string
		overrides strings.Builder
		masterIDs strings.Builder
		presRels  strings.Builder
	)

	layoutNo := 0
	for m, count := range layouts {
		master := fmt.Sprintf("ppt/slideMasters/slideMaster%d.xml", m+1)
		fmt.Fprintf(&overrides, `<Override PartName="/%s" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideMaster+xml"/>`, master)
		fmt.Fprintf(&masterIDs, `<p:sldMasterId id="%d" r:id="rId%d"/>`, 2147483648+m*100, m+1)
		fmt.Fprintf(&presRels, `<Relationship Id="rId%d" Type="%sslideMaster" Target="slideMasters/slideMaster%d.xml"/>`, m+1, relBase, m+1)

		var layoutIDs, masterRels strings.Builder
		for l := range count {
			layoutNo++
			part := fmt.Sprintf("ppt/slideLayouts/slideLayout%d.xml", layoutNo)
			fmt.Fprintf(&overrides, `<Override PartName="/%s" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideLayout+xml"/>`, part)
			fmt.Fprintf(&layoutIDs, `<p:sldLayoutId id="%d" r:id="rId%d"/>`, 2147483649+m*100+l, l+1)
			fmt.Fprintf(&masterRels, `<Relationship Id="rId%d" Type="%sslideLayout" Target="../slideLayouts/slideLayout%d.xml"/>`, l+1, relBase, layoutNo)

			parts = append(parts,
				[2]string{part, layoutXML(fmt.Sprintf("Layout %d.%d", m, l))},
				[2]string{fmt.Sprintf("ppt/slideLayouts/_rels/slideLayout%d.xml.rels", layoutNo),
					relsDecl + fmt.Sprintf(`<Relationship Id="rId1" Type="%sslideMaster" Target="../slideMasters/slideMaster%d.xml"/>`, relBase, m+1) + `</Relationships>`},
			)
		}
		parts = append(parts,
			[2]string{master, `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n" +
				`<p:sldMaster ` + nsDecl + `><p:cSld><p:spTree/></p:cSld><p:clrMap bg1="lt1" tx1="dk1" bg2="lt2" tx2="dk2" accent1="accent1" accent2="accent2" accent3="accent3" accent4="accent4" accent5="accent5" accent6="accent6" hlink="hlink" folHlink="folHlink"/>` +
				`<p:sldLayoutIdLst>` + layoutIDs.String() + `</p:sldLayoutIdLst></p:sldMaster>`},
			[2]string{fmt.Sprintf("ppt/slideMasters/_rels/slideMaster%d.xml.rels", m+1), relsDecl + masterRels.String() + `</Relationships>`},
		)
	}

	slideRel := len(layouts) + 1
	fmt.Fprintf(&presRels, `<Relationship Id="rId%d" Type="%sslide" Target="slides/slide1.xml"/>`, slideRel, relBase)

	head := [][2]string{
		{"[Content_Types].xml", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n" +
			`<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">` +
			`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>` +
			`<Default Extension="xml" ContentType="application/xml"/>` +
			`<Override PartName="/ppt/presentation.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml"/>` +
			overrides.String() +
			`<Override PartName="/ppt/slides/slide1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slide+xml"/>` +
			`<Override PartName="/ppt/notesSlides/notesSlide1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.notesSlide+xml"/>` +
			`</Types>`},
		{"_rels/.rels", relsDecl +
			`<Relationship Id="rId1" Type="` + relBase + `officeDocument" Target="ppt/presentation.xml"/></Relationships>`},
		{"ppt/presentation.xml", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n" +
			`<p:presentation ` + nsDecl + `><p:sldMasterIdLst>` + masterIDs.String() + `</p:sldMasterIdLst>` +
			fmt.Sprintf(`<p:sldIdLst><p:sldId id="256" r:id="rId%d"/></p:sldIdLst>`, slideRel) +
			`<p:sldSz cx="12192000" cy="6858000"/><p:notesSz cx="6858000" cy="9144000"/></p:presentation>`},
		{"ppt/_rels/presentation.xml.rels", relsDecl + presRels.String() + `</Relationships>`},
	}

	tail := [][2]string{
		{"ppt/slides/slide1.xml", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n" +
			`<p:sld ` + nsDecl + `><p:cSld><p:spTree/></p:cSld></p:sld>`},
		{"ppt/slides/_rels/slide1.xml.rels", relsDecl +
			`<Relationship Id="rId1" Type="` + relBase + `slideLayout" Target="../slideLayouts/slideLayout1.xml"/>` +
			`<Relationship Id="rId2" Type="` + relBase + `notesSlide" Target="../notesSlides/notesSlide1.xml"/></Relationships>`},
		{"ppt/notesSlides/notesSlide1.xml", `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n" +
			`<p:notes ` + nsDecl + `><p:cSld><p:spTree/></p:cSld></p:notes>`},
	}

	out := append(head, parts...)
	return append(out, tail...)
}

func layoutXML(name string) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n")
	b.WriteString(`<p:sldLayout ` + nsDecl + `><p:cSld name="` + name + `"><p:spTree>`)
	b.WriteString(`<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/>`)
	b.WriteString(shape(2, "Title 1", `type="title"`))
	b.WriteString(shape(3, "Text Placeholder 2", `type="body" idx="10"`))
	b.WriteString(shape(4, "Text Placeholder 3", `type="body" idx="11"`))
	b.WriteString(shape(5, "Text Placeholder 4", `type="body" idx="12"`))
	b.WriteString(shape(6, "Date Placeholder 5", `type="dt" sz="half" idx="13"`))
	b.WriteString(`</p:spTree></p:cSld></p:sldLayout>`)
	return b.String()
}

func shape(id int, name, ph string) string {
	return fmt.Sprintf(`<p:sp><p:nvSpPr><p:cNvPr id="%d" name="%s"/><p:cNvSpPr><a:spLocks noGrp="1"/></p:cNvSpPr><p:nvPr><p:ph %s/></p:nvPr></p:nvSpPr><p:spPr/><p:txBody><a:bodyPr/><a:lstStyle/><a:p><a:r><a:rPr lang="en-US"/><a:t>%s</a:t></a:r></a:p></p:txBody></p:sp>`, id, name, ph, name)
}
