package certificate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-pdf/fpdf"

	"github.com/JonMunkholm/certbatch/internal/course"
)

var (
	// ErrUnknownCourse is returned when rendering a value outside the catalog.
	ErrUnknownCourse = errors.New("unknown course")

	// ErrMissingName is returned when the candidate name is blank.
	ErrMissingName = errors.New("candidate name is required")
)

// Asset file names looked up in the assets directory.
const (
	HeaderFile    = "header.png"
	BadgeFile     = "badge.png"
	SignatureFile = "sign.png"
)

// Assets holds optional certificate artwork as encoded PNG or JPEG bytes.
type Assets struct {
	Header    []byte
	Badge     []byte
	Signature []byte
}

// LoadAssets reads the artwork files from dir. Unreadable or absent files
// are left empty.
func LoadAssets(dir string) Assets {
	if dir == "" {
		return Assets{}
	}
	read := func(name string) []byte {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil
		}
		return data
	}
	return Assets{
		Header:    read(HeaderFile),
		Badge:     read(BadgeFile),
		Signature: read(SignatureFile),
	}
}

type embeddedImage struct {
	data []byte
	typ  string
}

// Renderer draws certificates. It is safe for concurrent use: every Render
// call builds its own document.
type Renderer struct {
	tpl    Template
	images map[string]embeddedImage
	logger *slog.Logger
}

// NewRenderer checks every asset once and keeps the ones that can be
// embedded. Rejected assets are logged and replaced by drawn fallbacks.
func NewRenderer(tpl Template, assets Assets, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Renderer{tpl: tpl, images: make(map[string]embeddedImage, 3), logger: logger}

	for name, data := range map[string][]byte{
		HeaderFile:    assets.Header,
		BadgeFile:     assets.Badge,
		SignatureFile: assets.Signature,
	} {
		if len(data) == 0 {
			logger.Debug("certificate asset not provided, using fallback", "asset", name)
			continue
		}
		typ, err := probeImage(data)
		if err != nil {
			logger.Warn("certificate asset unusable, using fallback", "asset", name, "error", err)
			continue
		}
		r.images[name] = embeddedImage{data: data, typ: typ}
	}
	return r
}

// HasAsset reports whether the named asset will be embedded.
func (r *Renderer) HasAsset(name string) bool {
	_, ok := r.images[name]
	return ok
}

// Template returns the wording the renderer prints.
func (r *Renderer) Template() Template {
	return r.tpl
}

// probeImage returns the fpdf image type for data, after confirming fpdf
// can actually embed it.
func probeImage(data []byte) (string, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}

	var typ string
	switch format {
	case "png":
		typ = "PNG"
	case "jpeg":
		typ = "JPG"
	default:
		return "", fmt.Errorf("unsupported image format %q", format)
	}

	probe := fpdf.New("L", "mm", "A4", "")
	probe.RegisterImageOptionsReader("probe", fpdf.ImageOptions{ImageType: typ}, bytes.NewReader(data))
	if err := probe.Error(); err != nil {
		return "", err
	}
	return typ, nil
}

// Page layout in millimetres.
const (
	headerHeight = 70.0
	stripeTop    = 55.0
	stripeHeight = 15.0
	margin       = 20.0
	textWidth    = 120.0
)

var (
	green = [3]int{22, 163, 74}
	red   = [3]int{220, 38, 38}
	gold  = [3]int{251, 191, 36}
	black = [3]int{0, 0, 0}
	white = [3]int{255, 255, 255}
)

// Render returns the PDF certificate for a candidate and course.
func (r *Renderer) Render(ctx context.Context, candidateName string, c course.Course) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCourse, int(c))
	}
	if strings.TrimSpace(candidateName) == "" {
		return nil, ErrMissingName
	}

	content := r.tpl.Content(candidateName, c)

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(content.Name+" - "+c.String(), true)
	pdf.SetAuthor(r.tpl.Organisation, true)
	pdf.SetCreator("certbatch", true)
	pdf.AddPage()

	d := &drawer{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
	d.pageW, d.pageH = pdf.GetPageSize()

	if !r.image(pdf, HeaderFile, 0, 0, d.pageW, headerHeight) {
		d.headerFallback(content)
	}

	d.fill(white)
	pdf.Rect(0, headerHeight, d.pageW, d.pageH-headerHeight, "F")

	if !r.image(pdf, BadgeFile, margin, 100, 40, 40) {
		d.fill(gold)
		pdf.Circle(40, 120, 20, "F")
	}

	d.color(black)
	pdf.SetFont("Helvetica", "", 18)
	d.centered(100, content.Preamble)

	d.color(green)
	pdf.SetFont("Helvetica", "B", 32)
	d.centered(125, content.Name)

	d.color(black)
	pdf.SetFont("Helvetica", "", 14)
	d.centered(145, content.CourseLine)
	d.wrapped(155, 10, content.Conducted)

	if !r.image(pdf, SignatureFile, d.pageW/2-30, 175, 60, 20) {
		pdf.SetDrawColor(black[0], black[1], black[2])
		pdf.SetLineWidth(0.5)
		pdf.Line(d.pageW/2-30, 185, d.pageW/2+30, 185)
		pdf.SetFont("Helvetica", "I", 16)
		d.centered(195, content.Signatory)
	}

	d.color(black)
	pdf.SetFont("Helvetica", "", 10)
	d.wrapped(200, 7, content.SignatoryTitle)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render certificate: %w", err)
	}
	return buf.Bytes(), nil
}

// image embeds a checked asset and reports whether it was drawn.
func (r *Renderer) image(pdf *fpdf.Fpdf, name string, x, y, w, h float64) bool {
	img, ok := r.images[name]
	if !ok {
		return false
	}
	opts := fpdf.ImageOptions{ImageType: img.typ}
	pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(img.data))
	pdf.ImageOptions(name, x, y, w, h, false, opts, 0, "")
	return pdf.Ok()
}

type drawer struct {
	pdf          *fpdf.Fpdf
	tr           func(string) string
	pageW, pageH float64
}

func (d *drawer) fill(c [3]int)  { d.pdf.SetFillColor(c[0], c[1], c[2]) }
func (d *drawer) color(c [3]int) { d.pdf.SetTextColor(c[0], c[1], c[2]) }

func (d *drawer) centered(y float64, s string) {
	s = d.tr(s)
	d.pdf.Text((d.pageW-d.pdf.GetStringWidth(s))/2, y, s)
}

func (d *drawer) right(y float64, s string) {
	s = d.tr(s)
	d.pdf.Text(d.pageW-margin-d.pdf.GetStringWidth(s), y, s)
}

// wrapped centres s on as many lines as it needs, starting at y.
func (d *drawer) wrapped(y, lineHeight float64, s string) {
	for i, line := range d.lines(d.tr(s)) {
		d.pdf.Text((d.pageW-d.pdf.GetStringWidth(line))/2, y+float64(i)*lineHeight, line)
	}
}

// lines breaks already translated text on spaces so that no line is wider
// than textWidth, unless a single word is.
func (d *drawer) lines(s string) []string {
	var out []string
	cur := ""
	for _, word := range strings.Fields(s) {
		next := word
		if cur != "" {
			next = cur + " " + word
		}
		if cur != "" && d.pdf.GetStringWidth(next) > textWidth {
			out = append(out, cur)
			next = word
		}
		cur = next
	}
	if cur != "" {
		out = append(out, cur)
	}
	return out
}

func (d *drawer) headerFallback(content Content) {
	pdf := d.pdf

	d.fill(green)
	pdf.Rect(0, 0, d.pageW, headerHeight, "F")
	d.fill(red)
	pdf.Rect(0, stripeTop, d.pageW, stripeHeight, "F")

	d.color(white)
	pdf.SetFont("Helvetica", "B", 36)
	pdf.Text(margin, 35, d.tr(content.Title))
	pdf.SetFont("Helvetica", "", 16)
	pdf.Text(margin, 50, d.tr(content.Subtitle))

	pdf.SetFont("Helvetica", "B", 16)
	d.right(35, content.ShortName)
	pdf.SetFont("Helvetica", "", 8)
	d.right(45, content.Organisation)
}
