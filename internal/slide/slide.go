package slide

import "github.com/seventv/slide-inverter/colors"

type ShapeKind int

const (
	KindOther ShapeKind = iota
	KindText
	KindPicture
)

func (k ShapeKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindPicture:
		return "picture"
	}

	return "other"
}

// Geometry is a shape's placement in EMU.
type Geometry struct {
	Left   int64 `json:"left"`
	Top    int64 `json:"top"`
	Width  int64 `json:"width"`
	Height int64 `json:"height"`
}

type Run interface {
	SetColor(c colors.RGB) error
}

// Shape is the subset of a slide shape the applier needs. Runs is only
// meaningful for KindText and Image for KindPicture.
type Shape interface {
	Kind() ShapeKind
	Name() string
	Runs() ([]Run, error)
	Image() ([]byte, error)
	Geometry() (Geometry, error)
}

type Slide interface {
	SetBackground(c colors.RGB) error
	Shapes() ([]Shape, error)
	// ReplacePicture embeds blob as a new picture at old's place in the
	// z-order. old is only removed once the replacement is in the tree.
	ReplacePicture(old Shape, blob []byte, ext string, g Geometry) error
}

type Document interface {
	Slides() ([]Slide, error)
	Save() ([]byte, error)
}

// Codec opens raw document bytes. Every call returns an independent document.
type Codec interface {
	Open(data []byte) (Document, error)
}

// ImageConverter remaps an embedded image blob and reports the extension the
// result should be stored under.
type ImageConverter interface {
	Convert(data []byte, pair colors.Pair) ([]byte, string, error)
}
