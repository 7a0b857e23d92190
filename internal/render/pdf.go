package render

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"

	"student-form-backend/internal/apperrors"
	"student-form-backend/internal/model"
	"student-form-backend/internal/parse"
)

const (
	// Title is printed in the header of every page.
	Title = "Fișa Studentului"
	// TimestampLayout formats the submission time as dd/MM/yyyy HH:mm.
	TimestampLayout = "02/01/2006 15:04"

	fontFamily = "gofont"
	marginMM   = 20.0
	// blockGapMM approximates the 20pt spacer between the sections.
	blockGapMM = 7.0
)

// Block names identify the part of the form a laid-out line belongs to.
const (
	BlockFirstName       = "nume"
	BlockLastName        = "prenume"
	BlockFaculty         = "facultate"
	BlockMotivationLabel = "motivatie_label"
	BlockMotivation      = "motivatie"
	BlockSubmittedAt     = "dataSubmisiei"
)

var labels = map[string]string{
	BlockFirstName:       "Nume: ",
	BlockLastName:        "Prenume: ",
	BlockFaculty:         "Facultate: ",
	BlockMotivationLabel: "Motivație:",
	BlockSubmittedAt:     "Data Submisiei: ",
}

// Renderer turns a student form into a PDF document.
type Renderer struct {
	loc *time.Location
}

// New creates a Renderer that prints timestamps in loc (UTC when nil).
func New(loc *time.Location) *Renderer {
	if loc == nil {
		loc = time.UTC
	}
	return &Renderer{loc: loc}
}

// Filename is the download name of the document for form.
func Filename(form model.StudentForm) string {
	return fmt.Sprintf("fisa-student-%s-%s.pdf", parse.Filename(form.FirstName), parse.Filename(form.LastName))
}

// ContentDisposition is the attachment header for the document of form.
// Names outside ASCII are also sent RFC 5987 encoded.
func ContentDisposition(form model.StudentForm) string {
	name := Filename(form)
	fallback := parse.ASCII(name)
	if fallback == name {
		return fmt.Sprintf(`attachment; filename="%s"`, name)
	}
	return fmt.Sprintf(`attachment; filename="%s"; filename*=UTF-8''%s`, fallback, extValue(name))
}

// extValue percent-encodes every byte of s outside the RFC 5987 attr-char set.
func extValue(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isAttrChar(c) {
			b.WriteByte(c)
			continue
		}
		fmt.Fprintf(&b, "%%%02X", c)
	}
	return b.String()
}

func isAttrChar(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("!#$&+-.^_`|~", c) >= 0
}

// FormatTimestamp formats t in the renderer's time zone.
func (r *Renderer) FormatTimestamp(t time.Time) string {
	return t.In(r.loc).Format(TimestampLayout)
}

// Render produces the PDF bytes for form.
func (r *Renderer) Render(form model.StudentForm) ([]byte, error) {
	pdf, _, err := r.build(form)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("%w: output pdf for form %d: %v", apperrors.ErrRendering, form.ID, err)
	}
	return buf.Bytes(), nil
}

// Layout returns the lines Render draws for form.
func (r *Renderer) Layout(form model.StudentForm) (Layout, error) {
	_, layout, err := r.build(form)
	return layout, err
}

func (r *Renderer) build(form model.StudentForm) (*fpdf.Fpdf, Layout, error) {
	pdf := newDocument()
	layout := r.layout(pdf, form)

	pdf.AddPage()
	for _, line := range layout {
		if line.SpaceBefore > 0 {
			pdf.Ln(line.SpaceBefore)
		}
		pdf.SetFont(fontFamily, line.style(), line.Size)
		pdf.CellFormat(0, lineHeight(line.Size), line.Text, "", 1, "L", false, 0, "")
	}

	if pdf.Err() {
		return nil, nil, fmt.Errorf("%w: form %d: %v", apperrors.ErrRendering, form.ID, pdf.Error())
	}
	return pdf, layout, nil
}

func newDocument() *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.AddUTF8FontFromBytes(fontFamily, "", goregular.TTF)
	pdf.AddUTF8FontFromBytes(fontFamily, "B", gobold.TTF)
	pdf.SetTitle(Title, true)
	pdf.SetMargins(marginMM, marginMM, marginMM)
	pdf.SetAutoPageBreak(true, marginMM)
	pdf.AliasNbPages("")

	pdf.SetHeaderFunc(func() {
		pdf.SetFont(fontFamily, "B", 20)
		pdf.CellFormat(0, lineHeight(20), Title, "", 1, "L", false, 0, "")
		pdf.Ln(10)
	})
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont(fontFamily, "", 9)
		pdf.CellFormat(0, 10, fmt.Sprintf("Pagina %d din {nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	return pdf
}

func (r *Renderer) layout(pdf *fpdf.Fpdf, form model.StudentForm) Layout {
	width := contentWidth(pdf)
	var out Layout

	add := func(block, text string, size float64, bold bool, spaceBefore float64) {
		line := Line{Block: block, Size: size, Bold: bold}
		pdf.SetFont(fontFamily, line.style(), size)

		for pi, para := range strings.Split(text, "\n") {
			for si, seg := range wrap(para, width, pdf.GetStringWidth) {
				l := line
				l.Text, l.Tail = seg.text, seg.tail
				l.NewParagraph = si == 0
				if pi == 0 && si == 0 {
					l.SpaceBefore = spaceBefore
				}
				out = append(out, l)
			}
		}
	}

	add(BlockFirstName, labels[BlockFirstName]+form.FirstName, 14, false, 0)
	add(BlockLastName, labels[BlockLastName]+form.LastName, 14, false, 0)
	add(BlockFaculty, labels[BlockFaculty]+form.Faculty, 14, false, 0)
	add(BlockMotivationLabel, labels[BlockMotivationLabel], 14, true, blockGapMM)
	add(BlockMotivation, form.Motivation, 12, false, 0)
	add(BlockSubmittedAt, labels[BlockSubmittedAt]+r.FormatTimestamp(form.SubmittedAt), 12, false, blockGapMM)
	return out
}

func contentWidth(pdf *fpdf.Fpdf) float64 {
	pageW, _ := pdf.GetPageSize()
	left, _, right, _ := pdf.GetMargins()
	return pageW - left - right - 2*pdf.GetCellMargin()
}

// lineHeight converts a font size in points to a line height in mm.
func lineHeight(size float64) float64 {
	return size * 0.3528 * 1.4
}
