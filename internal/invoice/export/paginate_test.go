package export

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPaginateSinglePage(t *testing.T) {
	layout, err := Paginate(1588, 1200, A4)
	require.NoError(t, err)

	assert.Equal(t, 1, layout.Pages())
	assert.Equal(t, []float64{0}, layout.Offsets)
	assert.InDelta(t, 210.0, layout.ImageWidth, 1e-9)
	assert.InDelta(t, 1200*210.0/1588, layout.ImageHeight, 1e-9)
}

func TestPaginateExactFitStaysOnePage(t *testing.T) {
	layout, err := Paginate(210, 297, A4)
	require.NoError(t, err)
	assert.Equal(t, 1, layout.Pages())

	layout, err = Paginate(210, 594, A4)
	require.NoError(t, err)
	assert.Equal(t, 2, layout.Pages())
}

func TestPaginateShiftsEachPageByOnePageHeight(t *testing.T) {
	layout, err := Paginate(100, 400, A4)
	require.NoError(t, err)

	require.Equal(t, 3, layout.Pages())
	assert.InDelta(t, 840.0, layout.ImageHeight, 1e-9)
	assert.InDelta(t, 0, layout.Offsets[0], 1e-9)
	assert.InDelta(t, -297, layout.Offsets[1], 1e-9)
	assert.InDelta(t, -594, layout.Offsets[2], 1e-9)
}

func TestPaginatePageCountIsCeilOfContentOverPage(t *testing.T) {
	for height := 1; height <= 6000; height += 137 {
		layout, err := Paginate(1588, height, A4)
		require.NoError(t, err)
		imgH := float64(height) * A4.Width / 1588
		want := int(math.Ceil(imgH / A4.Height))
		assert.Equal(t, want, layout.Pages(), "height %d", height)
	}
}

func TestPaginateRejectsEmptyBitmap(t *testing.T) {
	_, err := Paginate(0, 100, A4)
	assert.ErrorIs(t, err, ErrEmptyCapture)

	_, err = Paginate(100, 0, A4)
	assert.ErrorIs(t, err, ErrEmptyCapture)
}
