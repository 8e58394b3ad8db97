// Package embed places signature images on PDF pages.
//
// Callers supply coordinates in a top-left-origin space, as produced by a
// browser signature pad. The embedder converts them to PDF page space, whose
// origin is the bottom-left corner of the media box, and draws the image at
// half of its decoded pixel size.
package embed

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"github.com/wudi/pdfkit/builder"
	"github.com/wudi/pdfkit/ir"
	"github.com/wudi/pdfkit/ir/semantic"
	"github.com/wudi/pdfkit/writer"
	_ "golang.org/x/image/webp"

	dErrors "notaria/pkg/domain-errors"
)

// Scale is the fixed factor applied to the image's pixel dimensions.
const Scale = 0.5

// MaxImageDimension bounds the declared width and height of a signature
// image before it is decoded.
const MaxImageDimension = 4096

const xobjectPrefix = "NotariaSig"

// Rect is a placement in PDF page space.
type Rect struct {
	X, Y          float64
	Width, Height float64
}

// Placement converts a top-left-origin point into the PDF rectangle the
// scaled image occupies on a page with the given media box.
func Placement(box semantic.Rectangle, x, y float64, pixelWidth, pixelHeight int) Rect {
	w := float64(pixelWidth) * Scale
	h := float64(pixelHeight) * Scale
	pageHeight := box.URY - box.LLY
	return Rect{
		X:      box.LLX + x,
		Y:      box.LLY + pageHeight - y - h,
		Width:  w,
		Height: h,
	}
}

// Embedder draws images onto existing PDFs. It holds no state between calls
// and is safe for concurrent use.
type Embedder struct {
	cfg writer.Config
}

func New() *Embedder {
	return &Embedder{cfg: writer.Config{Deterministic: true}}
}

// EmbedImage returns a new PDF with img drawn on page pageIndex at (x, y).
// pdf and img are never modified.
func (e *Embedder) EmbedImage(ctx context.Context, pdf, img []byte, x, y float64, pageIndex int) (out []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, embedFailed(fmt.Sprintf("malformed PDF: %v", r))
		}
	}()

	cfg, _, err := image.DecodeConfig(bytes.NewReader(img))
	if err != nil {
		return nil, embedFailed("unsupported or corrupt image: " + err.Error())
	}
	if cfg.Width > MaxImageDimension || cfg.Height > MaxImageDimension {
		return nil, embedFailed(fmt.Sprintf("image is %dx%d, limit is %dx%d",
			cfg.Width, cfg.Height, MaxImageDimension, MaxImageDimension))
	}

	decoded, _, err := image.Decode(bytes.NewReader(img))
	if err != nil {
		return nil, embedFailed("unsupported or corrupt image: " + err.Error())
	}
	bounds := decoded.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, embedFailed("image has no pixels")
	}

	doc, err := ir.NewDefault().Parse(ctx, bytes.NewReader(pdf))
	if err != nil {
		return nil, embedFailed("unreadable PDF: " + err.Error())
	}
	if pageIndex < 0 || pageIndex >= len(doc.Pages) {
		return nil, InvalidPage(pageIndex, len(doc.Pages))
	}

	page := doc.Pages[pageIndex]
	rect := Placement(page.MediaBox, x, y, bounds.Dx(), bounds.Dy())
	drawImage(page, builder.FromImage(decoded), rect)

	var buf bytes.Buffer
	if err := writer.NewWriter().Write(ctx, doc, &buf, e.cfg); err != nil {
		return nil, embedFailed("failed to write PDF: " + err.Error())
	}
	return buf.Bytes(), nil
}

// drawImage registers img as a page XObject and appends the drawing
// operations. Existing content is wrapped in q/Q so its graphics state cannot
// leak into the placement.
func drawImage(page *semantic.Page, img *semantic.Image, rect Rect) {
	if page.Resources == nil {
		page.Resources = &semantic.Resources{}
	}
	if page.Resources.XObjects == nil {
		page.Resources.XObjects = make(map[string]semantic.XObject)
	}
	name := freeName(page.Resources.XObjects)
	xo := semantic.XObject(*img)
	xo.Subtype = "Image"
	page.Resources.XObjects[name] = xo

	contents := make([]semantic.ContentStream, 0, len(page.Contents)+3)
	contents = append(contents, semantic.ContentStream{Operations: []semantic.Operation{{Operator: "q"}}})
	contents = append(contents, page.Contents...)
	// Raw streams need not end in whitespace.
	contents = append(contents, semantic.ContentStream{RawBytes: []byte("\n")})
	contents = append(contents, semantic.ContentStream{Operations: []semantic.Operation{
		{Operator: "Q"},
		{Operator: "q"},
		{Operator: "cm", Operands: []semantic.Operand{
			semantic.NumberOperand{Value: rect.Width},
			semantic.NumberOperand{Value: 0},
			semantic.NumberOperand{Value: 0},
			semantic.NumberOperand{Value: rect.Height},
			semantic.NumberOperand{Value: rect.X},
			semantic.NumberOperand{Value: rect.Y},
		}},
		{Operator: "Do", Operands: []semantic.Operand{semantic.NameOperand{Value: name}}},
		{Operator: "Q"},
	}})
	page.Contents = contents
	page.Dirty = true
}

func freeName(existing map[string]semantic.XObject) string {
	for i := 1; ; i++ {
		name := fmt.Sprintf("%s%d", xobjectPrefix, i)
		if _, taken := existing[name]; !taken {
			return name
		}
	}
}

// InvalidPage reports a page index outside the document.
func InvalidPage(requested, available int) error {
	return dErrors.Newf(dErrors.CodeInvalidPage,
		"page index %d out of range: document has %d page(s)", requested, available)
}

func embedFailed(reason string) error {
	return dErrors.New(dErrors.CodeEmbedFailed, reason)
}
