package embed

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wudi/pdfkit/builder"
	"github.com/wudi/pdfkit/ir"
	"github.com/wudi/pdfkit/ir/semantic"
	"github.com/wudi/pdfkit/writer"

	dErrors "notaria/pkg/domain-errors"
	"notaria/pkg/testutil"
)

func buildPDF(t *testing.T, pages int) []byte {
	t.Helper()
	b := builder.NewBuilder()
	for i := 0; i < pages; i++ {
		b.NewPage(600, 800).
			DrawText("Contrato de compraventa", 50, 700, builder.TextOptions{FontSize: 12}).
			Finish()
	}
	doc, err := b.Build()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, writer.NewWriter().Write(context.Background(), doc, &buf, writer.Config{Deterministic: true}))
	return buf.Bytes()
}

func signaturePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, h/2, color.NRGBA{A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func signatureJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func parse(t *testing.T, pdf []byte) *semantic.Document {
	t.Helper()
	doc, err := ir.NewDefault().Parse(context.Background(), bytes.NewReader(pdf))
	require.NoError(t, err)
	return doc
}

func pageContent(page *semantic.Page) string {
	var sb strings.Builder
	for _, cs := range page.Contents {
		sb.Write(cs.RawBytes)
	}
	return sb.String()
}

func TestPlacement(t *testing.T) {
	testutil.Given(t, "a page 800 units high", func(t *testing.T) {
		box := semantic.Rectangle{LLX: 0, LLY: 0, URX: 600, URY: 800}

		testutil.Then(t, "the image is flipped into bottom-left space at half size", func(t *testing.T) {
			r := Placement(box, 100, 50, 40, 20)
			assert.Equal(t, Rect{X: 100, Y: 800 - 50 - 10, Width: 20, Height: 10}, r)
		})
	})

	testutil.Given(t, "a media box with a non-zero origin", func(t *testing.T) {
		box := semantic.Rectangle{LLX: 10, LLY: 20, URX: 610, URY: 820}

		testutil.Then(t, "coordinates are offset by the box origin", func(t *testing.T) {
			r := Placement(box, 0, 0, 100, 60)
			assert.Equal(t, Rect{X: 10, Y: 20 + 800 - 30, Width: 50, Height: 30}, r)
		})
	})
}

// Scenario E: x=100, y=50 on an 800-high page lands at y = 800 - 50 - imageHeight.
func TestEmbedImagePlacesScaledImage(t *testing.T) {
	pdf := buildPDF(t, 1)

	out, err := New().EmbedImage(context.Background(), pdf, signaturePNG(t, 40, 20), 100, 50, 0)
	require.NoError(t, err)

	doc := parse(t, out)
	require.Len(t, doc.Pages, 1)
	page := doc.Pages[0]

	content := pageContent(page)
	assert.Contains(t, content, "20 0 0 10 100 740 cm")
	assert.Contains(t, content, "/NotariaSig1 Do")
	assert.Contains(t, content, "BT")

	xo, ok := page.Resources.XObjects["NotariaSig1"]
	require.True(t, ok, "signature XObject missing")
	assert.Equal(t, 40, xo.Width)
	assert.Equal(t, 20, xo.Height)
}

func TestEmbedImageIsNonDestructive(t *testing.T) {
	pdf := buildPDF(t, 1)
	original := bytes.Clone(pdf)
	img := signaturePNG(t, 30, 30)
	e := New()

	first, err := e.EmbedImage(context.Background(), pdf, img, 10, 10, 0)
	require.NoError(t, err)
	second, err := e.EmbedImage(context.Background(), pdf, img, 10, 10, 0)
	require.NoError(t, err)

	assert.Equal(t, original, pdf, "input buffer changed")
	assert.Equal(t, first, second, "output is not deterministic")
	assert.NotEqual(t, pdf, first)
}

func TestEmbedImageTargetsRequestedPage(t *testing.T) {
	pdf := buildPDF(t, 2)

	out, err := New().EmbedImage(context.Background(), pdf, signatureJPEG(t, 16, 8), 0, 0, 1)
	require.NoError(t, err)

	doc := parse(t, out)
	require.Len(t, doc.Pages, 2)
	assert.NotContains(t, pageContent(doc.Pages[0]), "NotariaSig")
	assert.Contains(t, pageContent(doc.Pages[1]), "8 0 0 4 0 796 cm")
}

func TestEmbedImageErrors(t *testing.T) {
	pdf := buildPDF(t, 1)
	img := signaturePNG(t, 10, 10)
	e := New()
	ctx := context.Background()

	tests := []struct {
		name    string
		pdf     []byte
		img     []byte
		page    int
		code    dErrors.Code
		message string
	}{
		{name: "page past the end", pdf: pdf, img: img, page: 1, code: dErrors.CodeInvalidPage, message: "page index 1 out of range: document has 1 page(s)"},
		{name: "negative page", pdf: pdf, img: img, page: -1, code: dErrors.CodeInvalidPage, message: "page index -1"},
		{name: "document without pages", pdf: buildPDF(t, 0), img: img, page: 0, code: dErrors.CodeInvalidPage, message: "page index 0 out of range: document has 0 page(s)"},
		{name: "image too large", pdf: pdf, img: signaturePNG(t, MaxImageDimension+1, 1), page: 0, code: dErrors.CodeEmbedFailed, message: "limit is 4096x4096"},
		{name: "corrupt pdf", pdf: []byte("%PDF-1.7 garbage"), img: img, page: 0, code: dErrors.CodeEmbedFailed},
		{name: "not a pdf", pdf: []byte("hello"), img: img, page: 0, code: dErrors.CodeEmbedFailed},
		{name: "unsupported image", pdf: pdf, img: []byte("not an image"), page: 0, code: dErrors.CodeEmbedFailed, message: "unsupported or corrupt image"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := e.EmbedImage(ctx, tt.pdf, tt.img, 0, 0, tt.page)
			require.Error(t, err)
			assert.Nil(t, out)
			assert.True(t, dErrors.HasCode(err, tt.code), "got %v", err)
			if tt.message != "" {
				assert.Contains(t, err.Error(), tt.message)
			}
		})
	}
}
