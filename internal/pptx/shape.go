package pptx

import (
	"strconv"

	"github.com/beevik/etree"
	"github.com/seventv/slide-inverter/colors"
	"github.com/seventv/slide-inverter/internal/slide"
)

// Shape is a top level element of a slide's shape tree.
type Shape struct {
	slide *Slide
	el    *etree.Element
}

func (s *Shape) Kind() slide.ShapeKind {
	switch s.el.Tag {
	case "sp":
		if s.el.SelectElement("p:txBody") != nil {
			return slide.KindText
		}
	case "pic":
		return slide.KindPicture
	}

	return slide.KindOther
}

func (s *Shape) Name() string {
	if el := s.el.FindElement("./*/p:cNvPr"); el != nil {
		return el.SelectAttrValue("name", "")
	}

	return s.el.Tag
}

func (s *Shape) Runs() ([]slide.Run, error) {
	body := s.el.SelectElement("p:txBody")
	if body == nil {
		return nil, nil
	}

	out := []slide.Run{}
	for _, p := range body.SelectElements("a:p") {
		for _, r := range p.SelectElements("a:r") {
			out = append(out, &Run{el: r})
		}
	}

	return out, nil
}

func (s *Shape) Image() ([]byte, error) {
	blip := s.el.FindElement("p:blipFill/a:blip")
	if blip == nil {
		return nil, ErrNoImage
	}

	id := blip.SelectAttrValue("r:embed", "")
	if id == "" {
		return nil, ErrNoImage
	}

	part, err := s.slide.rels.target(id)
	if err != nil {
		return nil, err
	}

	data, ok := s.slide.pkg.parts[part]
	if !ok {
		return nil, ErrNoImage
	}

	return data, nil
}

func (s *Shape) Geometry() (slide.Geometry, error) {
	xfrm := s.el.FindElement("p:spPr/a:xfrm")
	if xfrm == nil {
		return slide.Geometry{}, ErrNoPosition
	}

	off, ext := xfrm.SelectElement("a:off"), xfrm.SelectElement("a:ext")
	if off == nil || ext == nil {
		return slide.Geometry{}, ErrNoPosition
	}

	var (
		g   slide.Geometry
		err error
	)
	for _, v := range []struct {
		el   *etree.Element
		attr string
		dst  *int64
	}{
		{off, "x", &g.Left},
		{off, "y", &g.Top},
		{ext, "cx", &g.Width},
		{ext, "cy", &g.Height},
	} {
		*v.dst, err = strconv.ParseInt(v.el.SelectAttrValue(v.attr, "0"), 10, 64)
		if err != nil {
			return slide.Geometry{}, err
		}
	}

	return g, nil
}

// Run is one a:r text run.
type Run struct {
	el *etree.Element
}

// SetColor overwrites whatever fill the run had with a solid color.
func (r *Run) SetColor(c colors.RGB) error {
	rPr := r.el.SelectElement("a:rPr")
	if rPr == nil {
		rPr = etree.NewElement("a:rPr")
		r.el.InsertChildAt(0, rPr)
	}

	for _, child := range rPr.ChildElements() {
		if child.Space == "a" && fillTags[child.Tag] {
			rPr.RemoveChild(child)
		}
	}

	// the fill follows a:ln when present
	idx := 0
	if ln := rPr.SelectElement("a:ln"); ln != nil {
		idx = ln.Index() + 1
	}
	rPr.InsertChildAt(idx, solidFill(c))

	return nil
}

// Color reports the run's solid fill, if any.
func (r *Run) Color() (colors.RGB, bool) {
	clr := r.el.FindElement("a:rPr/a:solidFill/a:srgbClr")
	if clr == nil {
		return colors.RGB{}, false
	}

	c, err := colors.ParseHex(clr.SelectAttrValue("val", ""))
	if err != nil {
		return colors.RGB{}, false
	}

	return c, true
}

// Text is the run's literal text.
func (r *Run) Text() string {
	if t := r.el.SelectElement("a:t"); t != nil {
		return t.Text()
	}

	return ""
}
