package pptx

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/beevik/etree"
	"github.com/seventv/slide-inverter/colors"
	"github.com/seventv/slide-inverter/container"
	"github.com/seventv/slide-inverter/internal/slide"
)

var (
	ErrNoShapeTree = errors.New("slide has no shape tree")
	ErrNoPosition  = errors.New("picture has no position")
	ErrNoImage     = errors.New("picture has no embedded image")
	ErrForeign     = errors.New("shape belongs to another slide")
	ErrDetached    = errors.New("shape is not in the shape tree")
)

var fillTags = map[string]bool{
	"noFill":    true,
	"solidFill": true,
	"gradFill":  true,
	"blipFill":  true,
	"pattFill":  true,
	"grpFill":   true,
}

type Slide struct {
	pkg  *pkg
	name string
	doc  *etree.Document
	rels *relationships
}

func openSlide(p *pkg, name string) (*Slide, error) {
	doc, err := p.document(name)
	if err != nil {
		return nil, err
	}

	rels, err := p.rels(name)
	if err != nil {
		return nil, err
	}

	return &Slide{pkg: p, name: name, doc: doc, rels: rels}, nil
}

func (s *Slide) Name() string {
	return s.name
}

func (s *Slide) cSld() (*etree.Element, error) {
	el := s.doc.Root().SelectElement("p:cSld")
	if el == nil {
		return nil, errors.New("slide has no common slide data")
	}

	return el, nil
}

func (s *Slide) spTree() (*etree.Element, error) {
	cSld, err := s.cSld()
	if err != nil {
		return nil, err
	}

	tree := cSld.SelectElement("p:spTree")
	if tree == nil {
		return nil, ErrNoShapeTree
	}

	return tree, nil
}

// SetBackground replaces any background with a solid fill.
func (s *Slide) SetBackground(c colors.RGB) error {
	cSld, err := s.cSld()
	if err != nil {
		return err
	}

	if old := cSld.SelectElement("p:bg"); old != nil {
		cSld.RemoveChild(old)
	}

	bg := etree.NewElement("p:bg")
	bgPr := bg.CreateElement("p:bgPr")
	bgPr.AddChild(solidFill(c))
	bgPr.CreateElement("a:effectLst")

	cSld.InsertChildAt(0, bg)

	return nil
}

func (s *Slide) Shapes() ([]slide.Shape, error) {
	tree, err := s.spTree()
	if err != nil {
		return nil, err
	}

	out := []slide.Shape{}
	for _, el := range tree.ChildElements() {
		switch el.Tag {
		case "nvGrpSpPr", "grpSpPr", "extLst":
			continue
		}
		out = append(out, &Shape{slide: s, el: el})
	}

	return out, nil
}

// ReplacePicture stores blob as a new media part and inserts a picture shape
// directly in front of old before dropping old. The shape tree is untouched
// on error.
func (s *Slide) ReplacePicture(old slide.Shape, blob []byte, ext string, g slide.Geometry) error {
	sh, ok := old.(*Shape)
	if !ok || sh.slide != s {
		return ErrForeign
	}

	tree, err := s.spTree()
	if err != nil {
		return err
	}

	if sh.el.Parent() != tree {
		return ErrDetached
	}

	contentType, ok := container.MimeByExtension[ext]
	if !ok {
		return fmt.Errorf("unsupported picture extension %q", ext)
	}

	if err := s.pkg.ensureDefault(ext, contentType); err != nil {
		return err
	}

	part := s.pkg.nextMediaName(ext)
	s.pkg.put(part, blob)

	rID := s.rels.add(relTypeImage, part)

	if s.doc.Root().SelectAttr("xmlns:r") == nil {
		s.doc.Root().CreateAttr("xmlns:r", nsRelationships)
	}

	id := s.nextShapeID()
	tree.InsertChildAt(sh.el.Index(), newPicture(id, fmt.Sprintf("Picture %d", id-1), rID, g))
	tree.RemoveChild(sh.el)

	return nil
}

func (s *Slide) nextShapeID() int {
	max := 0
	for _, el := range s.doc.Root().FindElements(".//p:cNvPr") {
		if n, err := strconv.Atoi(el.SelectAttrValue("id", "")); err == nil && n > max {
			max = n
		}
	}

	return max + 1
}

// pruneRels removes image relationships no element of the slide refers to.
func (s *Slide) pruneRels() {
	used := map[string]bool{}
	for _, el := range s.doc.Root().FindElements(".//*") {
		for _, a := range el.Attr {
			if a.Space == "r" {
				used[a.Value] = true
			}
		}
	}

	for _, rel := range s.rels.all() {
		id := rel.SelectAttrValue("Id", "")
		if rel.SelectAttrValue("Type", "") == relTypeImage && !used[id] {
			s.rels.removeID(id)
		}
	}
}

func (p *pkg) nextMediaName(ext string) string {
	for i := 1; ; i++ {
		name := "ppt/media/image" + strconv.Itoa(i) + "." + ext
		if !p.has(name) {
			return name
		}
	}
}

func solidFill(c colors.RGB) *etree.Element {
	fill := etree.NewElement("a:solidFill")
	clr := fill.CreateElement("a:srgbClr")
	clr.CreateAttr("val", c.Hex())

	return fill
}

func newPicture(id int, name, rID string, g slide.Geometry) *etree.Element {
	pic := etree.NewElement("p:pic")

	nv := pic.CreateElement("p:nvPicPr")
	cNvPr := nv.CreateElement("p:cNvPr")
	cNvPr.CreateAttr("id", strconv.Itoa(id))
	cNvPr.CreateAttr("name", name)
	nv.CreateElement("p:cNvPicPr").CreateElement("a:picLocks").CreateAttr("noChangeAspect", "1")
	nv.CreateElement("p:nvPr")

	blipFill := pic.CreateElement("p:blipFill")
	blipFill.CreateElement("a:blip").CreateAttr("r:embed", rID)
	blipFill.CreateElement("a:stretch").CreateElement("a:fillRect")

	spPr := pic.CreateElement("p:spPr")
	xfrm := spPr.CreateElement("a:xfrm")
	off := xfrm.CreateElement("a:off")
	off.CreateAttr("x", strconv.FormatInt(g.Left, 10))
	off.CreateAttr("y", strconv.FormatInt(g.Top, 10))
	ext := xfrm.CreateElement("a:ext")
	ext.CreateAttr("cx", strconv.FormatInt(g.Width, 10))
	ext.CreateAttr("cy", strconv.FormatInt(g.Height, 10))
	spPr.CreateElement("a:prstGeom").CreateAttr("prst", "rect")
	spPr.SelectElement("a:prstGeom").CreateElement("a:avLst")

	return pic
}

// Background reports the slide's solid background color, if it has one.
func (s *Slide) Background() (colors.RGB, bool) {
	cSld, err := s.cSld()
	if err != nil {
		return colors.RGB{}, false
	}

	clr := cSld.FindElement("p:bg/p:bgPr/a:solidFill/a:srgbClr")
	if clr == nil {
		return colors.RGB{}, false
	}

	c, err := colors.ParseHex(clr.SelectAttrValue("val", ""))
	if err != nil {
		return colors.RGB{}, false
	}

	return c, true
}
