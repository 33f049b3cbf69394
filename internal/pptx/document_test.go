package pptx

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/seventv/slide-inverter/colors"
	"github.com/seventv/slide-inverter/container"
	"github.com/seventv/slide-inverter/internal/archive"
	"github.com/seventv/slide-inverter/internal/pptx/pptxtest"
	"github.com/seventv/slide-inverter/internal/slide"
	"github.com/seventv/slide-inverter/internal/testutil"
	"github.com/seventv/slide-inverter/task"
)

func pngBytes(t *testing.T, c color.RGBA) []byte {
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	for i := 0; i < 4; i++ {
		img.SetRGBA(i%2, i/2, c)
	}

	buf := bytes.NewBuffer(nil)
	testutil.IsNil(t, png.Encode(buf, img), "png encodes")

	return buf.Bytes()
}

func reopen(t *testing.T, d *Document) *Document {
	t.Helper()

	out, err := d.Save()
	testutil.IsNil(t, err, "save")

	again, err := Open(out)
	testutil.IsNil(t, err, "reopen")

	return again
}

func TestOpenResolvesSlides(t *testing.T) {
	data := pptxtest.Build(t,
		pptxtest.Slide{Shapes: []pptxtest.Shape{pptxtest.TextBox("Title", "Hello")}},
		pptxtest.Slide{Shapes: []pptxtest.Shape{pptxtest.Picture("Logo", pngBytes(t, color.RGBA{1, 2, 3, 255}), "png")}},
	)
	testutil.True(t, container.IsPresentation(data), "builder output sniffs as pptx")

	d, err := Open(data)
	testutil.IsNil(t, err, "open")
	testutil.Assert(t, 2, len(d.slides), "two slides")
	testutil.Assert(t, "ppt/slides/slide1.xml", d.slides[0].Name(), "slide order")

	shapes, err := d.slides[0].Shapes()
	testutil.IsNil(t, err, "shapes")
	testutil.Assert(t, 1, len(shapes), "group properties are not shapes")
	testutil.Assert(t, slide.KindText, shapes[0].Kind(), "text box")
	testutil.Assert(t, "Title", shapes[0].Name(), "name")

	shapes, err = d.slides[1].Shapes()
	testutil.IsNil(t, err, "shapes")
	testutil.Assert(t, slide.KindPicture, shapes[0].Kind(), "picture")

	blob, err := shapes[0].Image()
	testutil.IsNil(t, err, "image blob")
	testutil.Assert(t, pngBytes(t, color.RGBA{1, 2, 3, 255}), blob, "blob resolved through rels")

	g, err := shapes[0].Geometry()
	testutil.IsNil(t, err, "geometry")
	testutil.Assert(t, slide.Geometry{Left: 1828800, Top: 1828800, Width: 914400, Height: 914400}, g, "geometry")
}

func TestOpenRejectsGarbage(t *testing.T) {
	_, err := Open([]byte("this is not a zip"))

	var decodeErr *task.DecodeError
	testutil.True(t, errors.As(err, &decodeErr), "decode error")
}

func TestOpenBoundsPartSizes(t *testing.T) {
	data := pptxtest.Build(t, pptxtest.Slide{Shapes: []pptxtest.Shape{
		pptxtest.Picture("Logo", pngBytes(t, color.RGBA{1, 2, 3, 255}), "png"),
	}})

	_, err := readPackageLimit(data, archive.Limits{Entry: 64, Total: 1 << 20})
	testutil.True(t, errors.Is(err, archive.ErrEntryTooLarge), "part over the entry limit")

	_, err = readPackageLimit(data, archive.Limits{Entry: 1 << 20, Total: 256})
	testutil.True(t, errors.Is(err, archive.ErrEntryTooLarge), "parts over the total limit")

	p, err := readPackageLimit(data, archive.DefaultLimits)
	testutil.IsNil(t, err, "default limits")
	testutil.NotNil(t, p, "package")
}

func TestEmptyPresentation(t *testing.T) {
	d, err := Open(pptxtest.Build(t))
	testutil.IsNil(t, err, "open")

	slides, err := d.Slides()
	testutil.IsNil(t, err, "slides")
	testutil.Assert(t, 0, len(slides), "no slides")
}

func TestSetBackgroundAndRunColor(t *testing.T) {
	data := pptxtest.Build(t, pptxtest.Slide{
		RawBackground: `<p:bg><p:bgRef idx="1001"><a:schemeClr val="bg1"/></p:bgRef></p:bg>`,
		Shapes:        []pptxtest.Shape{pptxtest.TextBox("Body", "Hello", "World")},
	})

	d, err := Open(data)
	testutil.IsNil(t, err, "open")

	navy := colors.MustParseHex("#000080")
	testutil.IsNil(t, d.slides[0].SetBackground(navy), "set background")

	shapes, _ := d.slides[0].Shapes()
	runs, err := shapes[0].Runs()
	testutil.IsNil(t, err, "runs")
	testutil.Assert(t, 2, len(runs), "two runs")
	for _, r := range runs {
		testutil.IsNil(t, r.SetColor(colors.White), "set color")
	}

	d = reopen(t, d)

	bg, ok := d.slides[0].Background()
	testutil.True(t, ok, "background present")
	testutil.Assert(t, navy, bg, "background color")

	cSld, _ := d.slides[0].cSld()
	testutil.Assert(t, 1, len(cSld.SelectElements("p:bg")), "old background replaced")
	testutil.Assert(t, "bg", cSld.ChildElements()[0].Tag, "background leads cSld")

	shapes, _ = d.slides[0].Shapes()
	runs, _ = shapes[0].Runs()
	for _, r := range runs {
		c, ok := r.(*Run).Color()
		testutil.True(t, ok, "run has a solid fill")
		testutil.Assert(t, colors.White, c, "run color")

		rPr := r.(*Run).el.SelectElement("a:rPr")
		testutil.Assert(t, 1, len(rPr.SelectElements("a:solidFill")), "previous fill removed")
	}
	testutil.Assert(t, "World", runs[1].(*Run).Text(), "text untouched")
}

func TestRunWithoutProperties(t *testing.T) {
	d, err := Open(pptxtest.Build(t, pptxtest.Slide{Shapes: []pptxtest.Shape{pptxtest.TextBox("Body", "x")}}))
	testutil.IsNil(t, err, "open")

	shapes, _ := d.slides[0].Shapes()
	runs, _ := shapes[0].Runs()
	r := runs[0].(*Run)
	r.el.RemoveChild(r.el.SelectElement("a:rPr"))

	testutil.IsNil(t, r.SetColor(colors.MustParseHex("#ABCDEF")), "set color")
	testutil.Assert(t, "rPr", r.el.ChildElements()[0].Tag, "rPr created ahead of the text")

	c, ok := r.Color()
	testutil.True(t, ok, "color readable")
	testutil.Assert(t, "ABCDEF", c.Hex(), "color")
}

func TestReplacePicture(t *testing.T) {
	original := pngBytes(t, color.RGBA{255, 255, 255, 255})
	data := pptxtest.Build(t, pptxtest.Slide{Shapes: []pptxtest.Shape{
		pptxtest.Picture("First", original, "png"),
		pptxtest.TextBox("Caption", "c"),
	}})

	d, err := Open(data)
	testutil.IsNil(t, err, "open")

	s := d.slides[0]
	shapes, _ := s.Shapes()
	g, _ := shapes[0].Geometry()

	replacement := []byte{0xff, 0xd8, 0xff, 0xe0, 'j', 'p', 'g'}
	testutil.IsNil(t, s.ReplacePicture(shapes[0], replacement, "jpg", g), "replace")

	d = reopen(t, d)
	s = d.slides[0]

	shapes, _ = s.Shapes()
	testutil.Assert(t, 2, len(shapes), "shape count unchanged")
	testutil.Assert(t, slide.KindPicture, shapes[0].Kind(), "replacement keeps its place below the caption")
	testutil.Assert(t, slide.KindText, shapes[1].Kind(), "caption stays on top")
	testutil.Assert(t, "Picture 3", shapes[0].Name(), "new shape id follows the highest")

	blob, err := shapes[0].Image()
	testutil.IsNil(t, err, "image")
	testutil.Assert(t, replacement, blob, "replacement blob")

	g2, err := shapes[0].Geometry()
	testutil.IsNil(t, err, "geometry")
	testutil.Assert(t, g, g2, "same placement")

	_, ok := d.Part("ppt/media/image1.png")
	testutil.Assert(t, false, ok, "orphaned original media pruned")
	testutil.Assert(t, 1, len(s.rels.all()), "stale image relationship pruned")

	types, _ := d.Part(contentTypesPart)
	testutil.True(t, strings.Contains(string(types), `Extension="jpg"`), "jpg content type registered")
}

func TestForeignShapeRejected(t *testing.T) {
	data := pptxtest.Build(t,
		pptxtest.Slide{Shapes: []pptxtest.Shape{pptxtest.TextBox("a", "a")}},
		pptxtest.Slide{Shapes: []pptxtest.Shape{pptxtest.TextBox("b", "b")}},
	)

	d, err := Open(data)
	testutil.IsNil(t, err, "open")

	other, _ := d.slides[1].Shapes()
	testutil.Assert(t, ErrForeign, d.slides[0].ReplacePicture(other[0], []byte("x"), "png", slide.Geometry{}), "shape from another slide")
}

func TestReplacePictureFailureKeepsOriginal(t *testing.T) {
	original := pngBytes(t, color.RGBA{10, 20, 30, 255})
	d, err := Open(pptxtest.Build(t, pptxtest.Slide{Shapes: []pptxtest.Shape{
		pptxtest.Picture("Photo", original, "png"),
	}}))
	testutil.IsNil(t, err, "open")

	s := d.slides[0]
	shapes, _ := s.Shapes()
	g, _ := shapes[0].Geometry()

	testutil.NotNil(t, s.ReplacePicture(shapes[0], []byte("x"), "xcf", g), "unsupported extension")

	d = reopen(t, d)
	shapes, _ = d.slides[0].Shapes()
	testutil.Assert(t, 1, len(shapes), "nothing added")
	testutil.Assert(t, "Photo", shapes[0].Name(), "original kept")

	blob, err := shapes[0].Image()
	testutil.IsNil(t, err, "image")
	testutil.Assert(t, original, blob, "original blob")
}

func TestPictureWithoutPosition(t *testing.T) {
	d, err := Open(pptxtest.Build(t, pptxtest.Slide{Shapes: []pptxtest.Shape{
		pptxtest.Picture("p", pngBytes(t, color.RGBA{0, 0, 0, 255}), "png"),
	}}))
	testutil.IsNil(t, err, "open")

	shapes, _ := d.slides[0].Shapes()
	pic := shapes[0].(*Shape)
	spPr := pic.el.SelectElement("p:spPr")
	spPr.RemoveChild(spPr.SelectElement("a:xfrm"))

	_, err = pic.Geometry()
	testutil.Assert(t, ErrNoPosition, err, "missing xfrm")
}

func TestUnrelatedMediaKept(t *testing.T) {
	logo := pngBytes(t, color.RGBA{9, 9, 9, 255})
	data := pptxtest.BuildWithExtra(t, map[string][]byte{
		"ppt/media/image99.png": []byte("orphan"),
	}, pptxtest.Slide{Shapes: []pptxtest.Shape{pptxtest.Picture("Logo", logo, "png")}})

	d, err := Open(data)
	testutil.IsNil(t, err, "open")

	d = reopen(t, d)

	_, ok := d.Part("ppt/media/image1.png")
	testutil.True(t, ok, "referenced media kept")
	_, ok = d.Part("ppt/media/image99.png")
	testutil.Assert(t, false, ok, "unreferenced media dropped")
}

func TestTargets(t *testing.T) {
	testutil.Assert(t, "ppt/media/image1.png", resolveTarget("ppt/slides/slide1.xml", "../media/image1.png"), "relative")
	testutil.Assert(t, "ppt/slides/slide1.xml", resolveTarget("ppt/presentation.xml", "slides/slide1.xml"), "sibling folder")
	testutil.Assert(t, "ppt/presentation.xml", resolveTarget("", "ppt/presentation.xml"), "package root")
	testutil.Assert(t, "ppt/media/a.png", resolveTarget("ppt/slides/slide1.xml", "/ppt/media/a.png"), "absolute")
	testutil.Assert(t, "../media/image2.png", relativeTarget("ppt/slides/slide1.xml", "ppt/media/image2.png"), "inverse")
	testutil.Assert(t, "ppt/slides/_rels/slide1.xml.rels", relsName("ppt/slides/slide1.xml"), "rels name")
	testutil.Assert(t, "ppt/slides/slide1.xml", sourceOfRels("ppt/slides/_rels/slide1.xml.rels"), "rels source")
}
