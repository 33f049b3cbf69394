package pptx

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/seventv/slide-inverter/internal/slide"
	"github.com/seventv/slide-inverter/task"
	"go.uber.org/multierr"
)

var ErrNotPresentation = errors.New("package has no presentation part")

// Document is one opened presentation. It is not safe for concurrent use.
type Document struct {
	pkg          *pkg
	presentation string
	slides       []*Slide
}

// Open reads a .pptx package and resolves its slides in presentation order.
func Open(data []byte) (*Document, error) {
	p, err := readPackage(data)
	if err != nil {
		return nil, &task.DecodeError{Subject: "presentation", Err: err}
	}

	d := &Document{pkg: p}
	if err := d.load(); err != nil {
		return nil, &task.DecodeError{Subject: "presentation", Err: err}
	}

	return d, nil
}

func (d *Document) load() error {
	root, err := d.pkg.rels("")
	if err != nil {
		return err
	}

	presentation, ok := root.firstOfType(relTypeOfficeDocument)
	if !ok {
		return ErrNotPresentation
	}
	d.presentation = presentation

	doc, err := d.pkg.document(presentation)
	if err != nil {
		return err
	}

	rels, err := d.pkg.rels(presentation)
	if err != nil {
		return err
	}

	list := doc.Root().SelectElement("p:sldIdLst")
	if list == nil {
		return nil
	}

	for _, el := range list.SelectElements("p:sldId") {
		id := el.SelectAttrValue("r:id", "")

		name, err := rels.target(id)
		if err != nil {
			return err
		}

		s, err := openSlide(d.pkg, name)
		if err != nil {
			return multierr.Append(fmt.Errorf("failed to open slide %s", name), err)
		}

		d.slides = append(d.slides, s)
	}

	return nil
}

func (d *Document) Slides() ([]slide.Slide, error) {
	out := make([]slide.Slide, len(d.slides))
	for i, s := range d.slides {
		out[i] = s
	}

	return out, nil
}

// Save drops relationships and media left behind by replaced pictures and
// writes the package.
func (d *Document) Save() ([]byte, error) {
	for _, s := range d.slides {
		s.pruneRels()
	}

	if err := d.pkg.pruneMedia(); err != nil {
		return nil, err
	}

	buf := bytes.NewBuffer(nil)
	if err := d.pkg.write(buf); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Part returns the raw bytes of a part as last saved or read.
func (d *Document) Part(name string) ([]byte, bool) {
	b, ok := d.pkg.parts[name]
	return b, ok
}

// Codec opens presentations for the slide applier.
type Codec struct{}

func (Codec) Open(data []byte) (slide.Document, error) {
	return Open(data)
}
