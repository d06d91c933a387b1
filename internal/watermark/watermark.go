// Package watermark stamps a visible ownership mark onto every page of a PDF
// before it is released to a customer.
//
// The transform is pure: it holds no per-call state, and for identical input
// and text it produces the same document apart from the creation and
// modification dates and file ID the writer stamps into every output. It never
// returns unstamped bytes; an unreadable source fails with ErrCorruptSource.
package watermark

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/ledongthuc/pdf"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// ErrCorruptSource is returned when the input cannot be parsed as a document.
var ErrCorruptSource = errors.New("watermark: source is not a readable pdf")

// Style describes the overlay. Zero fields fall back to DefaultStyle.
type Style struct {
	Opacity  float64 // 0..1
	Rotation float64 // degrees
	Points   int     // font size
	Gray     float64 // fill color, 0 black .. 1 white
	Font     string
}

// DefaultStyle is the mid-gray diagonal overlay applied to notes.
var DefaultStyle = Style{
	Opacity:  0.2,
	Rotation: 45,
	Points:   50,
	Gray:     0.5,
	Font:     "Helvetica",
}

var disableConfigDir sync.Once

// Transformer applies a fixed text overlay.
type Transformer struct {
	text string
	desc string
}

// New builds a Transformer for text. The description is validated eagerly so
// a bad style fails at startup rather than on the first download.
func New(text string, st Style) (*Transformer, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, errors.New("watermark: text is required")
	}
	disableConfigDir.Do(api.DisableConfigDir)

	st = st.withDefaults()
	t := &Transformer{
		text: text,
		desc: fmt.Sprintf(
			"fontname:%s, points:%d, rotation:%g, opacity:%g, fillcolor:%g %g %g, scalefactor:1 abs, position:c, offset:0 0",
			st.Font, st.Points, st.Rotation, st.Opacity, st.Gray, st.Gray, st.Gray,
		),
	}
	if _, err := t.watermark(); err != nil {
		return nil, fmt.Errorf("watermark: invalid style: %w", err)
	}
	return t, nil
}

func (s Style) withDefaults() Style {
	if s.Opacity <= 0 || s.Opacity > 1 {
		s.Opacity = DefaultStyle.Opacity
	}
	if s.Rotation == 0 {
		s.Rotation = DefaultStyle.Rotation
	}
	if s.Points <= 0 {
		s.Points = DefaultStyle.Points
	}
	if s.Gray <= 0 || s.Gray > 1 {
		s.Gray = DefaultStyle.Gray
	}
	if s.Font == "" {
		s.Font = DefaultStyle.Font
	}
	return s
}

func (t *Transformer) watermark() (*model.Watermark, error) {
	// onTop=true stamps over page content; update=false adds a new mark.
	return api.TextWatermark(t.text, t.desc, true, false, types.POINTS)
}

// Apply returns src with the overlay stamped on every page.
func (t *Transformer) Apply(src []byte) ([]byte, error) {
	if _, err := PageCount(src); err != nil {
		return nil, err
	}

	wm, err := t.watermark()
	if err != nil {
		return nil, fmt.Errorf("watermark: build overlay: %w", err)
	}
	conf := newConfig()

	var out bytes.Buffer
	if err := api.AddWatermarks(bytes.NewReader(src), &out, nil, wm, conf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSource, err)
	}
	return out.Bytes(), nil
}

// newConfig writes a plain cross-reference table so the trailer and info
// dictionary stay uncompressed.
func newConfig() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	conf.WriteObjectStream = false
	conf.WriteXRefStream = false
	return conf
}

// PageCount parses the page tree of src. Any parse failure, including a
// document with no pages, is reported as ErrCorruptSource.
func PageCount(src []byte) (n int, err error) {
	if len(src) == 0 {
		return 0, ErrCorruptSource
	}
	// The reader panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			n, err = 0, fmt.Errorf("%w: %v", ErrCorruptSource, r)
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(src), int64(len(src)))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrCorruptSource, err)
	}
	n = r.NumPage()
	if n == 0 {
		return 0, ErrCorruptSource
	}
	return n, nil
}
