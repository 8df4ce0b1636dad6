package radar

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edgeslab/edges-backend/internal/domain/evaluation"
)

func sampleConcepts() []*evaluation.Concept {
	a := concept("Ad A", 8, 6, 7, 9, 5)
	a.Color = "#3B82F6"
	b := concept("Ad B", 3, 4, 5, 6, 7)
	b.Color = "#EF4444"
	return []*evaluation.Concept{a, b}
}

func TestRenderHTMLContainsAxesAndSeries(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderHTML(&buf, sampleConcepts(), RenderOptions{Title: "Q3 concepts"}))

	html := buf.String()
	for _, cr := range evaluation.Criteria {
		assert.Contains(t, html, cr.Label())
	}
	assert.Contains(t, html, "Ad A")
	assert.Contains(t, html, "Ad B")
	assert.Contains(t, html, "Q3 concepts")
}

func TestRenderPNGDimensions(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderPNG(&buf, sampleConcepts(), RenderOptions{Width: 640, Height: 480}))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 640, img.Bounds().Dx())
	assert.Equal(t, 480, img.Bounds().Dy())
}

func TestRenderPNGEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderPNG(&buf, nil, RenderOptions{}))
	assert.NotZero(t, buf.Len())
}

func TestRenderPNGMissingFont(t *testing.T) {
	var buf bytes.Buffer
	err := RenderPNG(&buf, sampleConcepts(), RenderOptions{FontPath: "/nonexistent/font.ttf"})
	assert.ErrorContains(t, err, "read chart font")
}

func TestParseHexRGB(t *testing.T) {
	r, g, b := parseHexRGB("#10B981")
	assert.Equal(t, []uint8{0x10, 0xB9, 0x81}, []uint8{r, g, b})

	r, g, b = parseHexRGB("teal")
	assert.Equal(t, []uint8{0, 0, 0}, []uint8{r, g, b})
}
