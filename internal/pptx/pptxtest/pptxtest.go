// Package pptxtest builds small presentation packages for tests. They carry
// only the parts the inverter reads, not masters or layouts.
package pptxtest

import (
	"bytes"
	"fmt"
	"html"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"
)

type Shape struct {
	Name string
	// Text makes a text box with one run per entry.
	Text []string
	// Image makes a picture when set.
	Image []byte
	Ext   string
	X, Y  int64
	CX    int64
	CY    int64
}

type Slide struct {
	Shapes []Shape
	// RawBackground is inserted verbatim as the p:bg element.
	RawBackground string
}

func TextBox(name string, runs ...string) Shape {
	return Shape{Name: name, Text: runs, X: 914400, Y: 914400, CX: 3657600, CY: 914400}
}

func Picture(name string, data []byte, ext string) Shape {
	return Shape{Name: name, Image: data, Ext: ext, X: 1828800, Y: 1828800, CX: 914400, CY: 914400}
}

const (
	nsP = "http://schemas.openxmlformats.org/presentationml/2006/main"
	nsA = "http://schemas.openxmlformats.org/drawingml/2006/main"
	nsR = "http://schemas.openxmlformats.org/officeDocument/2006/relationships"

	relSlide  = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide"
	relImage  = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/image"
	relOffice = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument"

	xmlHeader = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>` + "\n"
)

var mimes = map[string]string{
	"png":  "image/png",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
}

// Build returns the bytes of a .pptx package holding slides in order.
func Build(t testing.TB, slides ...Slide) []byte {
	t.Helper()

	b, err := build(slides)
	if err != nil {
		t.Fatalf("failed to build presentation: %v", err)
	}

	return b
}

// BuildWithExtra adds arbitrary parts, e.g. to plant orphaned media.
func BuildWithExtra(t testing.TB, extra map[string][]byte, slides ...Slide) []byte {
	t.Helper()

	b, err := build(slides, extra)
	if err != nil {
		t.Fatalf("failed to build presentation: %v", err)
	}

	return b
}

type part struct {
	name string
	data []byte
}

func build(slides []Slide, extra ...map[string][]byte) ([]byte, error) {
	parts := []part{}
	exts := map[string]bool{}
	media := 0

	presRels := strings.Builder{}
	sldIDs := strings.Builder{}

	for i, s := range slides {
		n := i + 1
		slideRels := strings.Builder{}
		tree := strings.Builder{}
		rel := 0

		for j, sh := range s.Shapes {
			id := j + 2
			if sh.Image != nil {
				media++
				rel++
				exts[sh.Ext] = true
				mediaName := fmt.Sprintf("image%d.%s", media, sh.Ext)
				parts = append(parts, part{"ppt/media/" + mediaName, sh.Image})
				fmt.Fprintf(&slideRels, `<Relationship Id="rId%d" Type="%s" Target="../media/%s"/>`, rel, relImage, mediaName)
				fmt.Fprintf(&tree, `<p:pic><p:nvPicPr><p:cNvPr id="%d" name="%s"/><p:cNvPicPr/><p:nvPr/></p:nvPicPr>`+
					`<p:blipFill><a:blip r:embed="rId%d"/><a:stretch><a:fillRect/></a:stretch></p:blipFill>`+
					`<p:spPr><a:xfrm><a:off x="%d" y="%d"/><a:ext cx="%d" cy="%d"/></a:xfrm><a:prstGeom prst="rect"><a:avLst/></a:prstGeom></p:spPr></p:pic>`,
					id, html.EscapeString(sh.Name), rel, sh.X, sh.Y, sh.CX, sh.CY)
				continue
			}

			runs := strings.Builder{}
			for _, r := range sh.Text {
				fmt.Fprintf(&runs, `<a:r><a:rPr lang="en-US" dirty="0"><a:solidFill><a:srgbClr val="123456"/></a:solidFill></a:rPr><a:t>%s</a:t></a:r>`, html.EscapeString(r))
			}
			fmt.Fprintf(&tree, `<p:sp><p:nvSpPr><p:cNvPr id="%d" name="%s"/><p:cNvSpPr txBox="1"/><p:nvPr/></p:nvSpPr>`+
				`<p:spPr><a:xfrm><a:off x="%d" y="%d"/><a:ext cx="%d" cy="%d"/></a:xfrm><a:prstGeom prst="rect"><a:avLst/></a:prstGeom></p:spPr>`+
				`<p:txBody><a:bodyPr/><a:lstStyle/><a:p>%s</a:p></p:txBody></p:sp>`,
				id, html.EscapeString(sh.Name), sh.X, sh.Y, sh.CX, sh.CY, runs.String())
		}

		body := fmt.Sprintf(`%s<p:sld xmlns:a="%s" xmlns:r="%s" xmlns:p="%s"><p:cSld>%s<p:spTree>`+
			`<p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/>%s</p:spTree></p:cSld></p:sld>`,
			xmlHeader, nsA, nsR, nsP, s.RawBackground, tree.String())

		parts = append(parts,
			part{fmt.Sprintf("ppt/slides/slide%d.xml", n), []byte(body)},
			part{fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", n), []byte(relsDoc(slideRels.String()))},
		)

		fmt.Fprintf(&presRels, `<Relationship Id="rId%d" Type="%s" Target="slides/slide%d.xml"/>`, n, relSlide, n)
		fmt.Fprintf(&sldIDs, `<p:sldId id="%d" r:id="rId%d"/>`, 255+n, n)
	}

	sldIDLst := ""
	if len(slides) > 0 {
		sldIDLst = "<p:sldIdLst>" + sldIDs.String() + "</p:sldIdLst>"
	}

	presentation := fmt.Sprintf(`%s<p:presentation xmlns:a="%s" xmlns:r="%s" xmlns:p="%s">%s`+
		`<p:sldSz cx="9144000" cy="6858000"/><p:notesSz cx="6858000" cy="9144000"/></p:presentation>`,
		xmlHeader, nsA, nsR, nsP, sldIDLst)

	types := strings.Builder{}
	types.WriteString(xmlHeader + `<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">`)
	types.WriteString(`<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>`)
	types.WriteString(`<Default Extension="xml" ContentType="application/xml"/>`)
	for ext := range exts {
		fmt.Fprintf(&types, `<Default Extension="%s" ContentType="%s"/>`, ext, mimes[ext])
	}
	types.WriteString(`<Override PartName="/ppt/presentation.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml"/>`)
	for i := range slides {
		fmt.Fprintf(&types, `<Override PartName="/ppt/slides/slide%d.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slide+xml"/>`, i+1)
	}
	types.WriteString(`</Types>`)

	head := []part{
		{"[Content_Types].xml", []byte(types.String())},
		{"_rels/.rels", []byte(relsDoc(fmt.Sprintf(`<Relationship Id="rId1" Type="%s" Target="ppt/presentation.xml"/>`, relOffice)))},
		{"ppt/presentation.xml", []byte(presentation)},
		{"ppt/_rels/presentation.xml.rels", []byte(relsDoc(presRels.String()))},
	}
	parts = append(head, parts...)

	for _, m := range extra {
		for name, data := range m {
			parts = append(parts, part{name, data})
		}
	}

	buf := bytes.NewBuffer(nil)
	zw := zip.NewWriter(buf)
	for _, p := range parts {
		w, err := zw.Create(p.name)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(p.data); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func relsDoc(body string) string {
	return xmlHeader + `<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` + body + `</Relationships>`
}
