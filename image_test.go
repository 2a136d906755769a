package nvd

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestQueryImageFormats_CapabilityFiltering(t *testing.T) {
	d := openTestDriver(t, newFakeDecodeAPI())
	formats, err := d.QueryImageFormats()
	require.NoError(t, err)
	require.Len(t, formats, 6)

	cfg := testDriverConfig(newFakeDecodeAPI())
	cfg.Supports16BitSurface = false
	cfg.Supports444Surface = false
	d2, err := Open(cfg)
	require.NoError(t, err)
	defer func() { require.NoError(t, d2.Terminate()) }()

	formats, err = d2.QueryImageFormats()
	require.NoError(t, err)
	require.Len(t, formats, 1)
	require.Equal(t, FourCCNV12, formats[0].FourCC)
	require.Equal(t, 12, formats[0].BitsPerPixel)
}

func TestCreateImage_Sizing(t *testing.T) {
	tests := []struct {
		name     string
		fourcc   uint32
		width    int
		height   int
		dataSize int
		offsets  []int
	}{
		{"nv12", FourCCNV12, 64, 48, 64*48 + 64*48/2, []int{0, 64 * 48}},
		{"p010", FourCCP010, 64, 48, 2 * (64*48 + 64*48/2), []int{0, 2 * 64 * 48}},
		{"444p", FourCC444P, 64, 48, 3 * 64 * 48, []int{0, 64 * 48, 2 * 64 * 48}},
		{"q416", FourCCQ416, 64, 48, 6 * 64 * 48, []int{0, 2 * 64 * 48, 4 * 64 * 48}},
	}

	d := openTestDriver(t, newFakeDecodeAPI())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			desc, err := d.CreateImage(tt.fourcc, tt.width, tt.height)
			require.NoError(t, err)
			require.Equal(t, tt.dataSize, desc.DataSize)
			require.Equal(t, tt.offsets, desc.Offsets)
			require.Len(t, desc.Pitches, len(tt.offsets))

			data, err := d.MapBuffer(desc.Buffer)
			require.NoError(t, err)
			require.Len(t, data, tt.dataSize)
			require.NoError(t, d.DestroyImage(desc.ID))
		})
	}
}

func TestCreateImage_Invalid(t *testing.T) {
	d := openTestDriver(t, newFakeDecodeAPI())
	_, err := d.CreateImage(0xdeadbeef, 64, 48)
	require.ErrorIs(t, err, ErrInvalidParameter)
	_, err = d.CreateImage(FourCCNV12, -1, 48)
	require.ErrorIs(t, err, ErrInvalidParameter)
}

func TestDestroyImage_FreesPixelBuffer(t *testing.T) {
	d := openTestDriver(t, newFakeDecodeAPI())
	desc, err := d.CreateImage(FourCCNV12, 64, 48)
	require.NoError(t, err)
	require.NoError(t, d.DestroyImage(desc.ID))

	_, err = d.MapBuffer(desc.Buffer)
	require.ErrorIs(t, err, ErrInvalidHandle)
	require.ErrorIs(t, d.DestroyImage(desc.ID), ErrInvalidHandle)
}

func TestGetImage_Readback(t *testing.T) {
	api := newFakeDecodeAPI()
	d := openTestDriver(t, api)
	ctxID, surfaces := newDecodeSession(t, d, ProfileH264Main, 1)
	defer func() { require.NoError(t, d.DestroyContext(ctxID)) }()

	require.NoError(t, d.BeginPicture(ctxID, surfaces[0]))
	require.NoError(t, d.EndPicture(ctxID))

	desc, err := d.CreateImage(FourCCNV12, 640, 480)
	require.NoError(t, err)

	require.NoError(t, d.GetImage(surfaces[0], desc.ID, 640, 480))

	// the fake fills each source row with its row number; the luma plane
	// starts at source row 0, chroma at row 480
	data, err := d.MapBuffer(desc.Buffer)
	require.NoError(t, err)
	require.Equal(t, byte(0), data[0])
	require.Equal(t, byte(1), data[640])
	lumaSize := 640 * 480
	chromaRow := 480
	require.Equal(t, byte(chromaRow), data[lumaSize])
	require.Equal(t, byte(chromaRow+1), data[lumaSize+640])
}

func TestGetImage_OversizedRequest(t *testing.T) {
	d := openTestDriver(t, newFakeDecodeAPI())
	ctxID, surfaces := newDecodeSession(t, d, ProfileH264Main, 1)
	defer func() { require.NoError(t, d.DestroyContext(ctxID)) }()

	require.NoError(t, d.BeginPicture(ctxID, surfaces[0]))
	require.NoError(t, d.EndPicture(ctxID))

	desc, err := d.CreateImage(FourCCNV12, 1280, 960)
	require.NoError(t, err)

	// the read exceeds the 640x480 backing planes
	err = d.GetImage(surfaces[0], desc.ID, 1280, 960)
	require.ErrorIs(t, err, ErrOperationFailed)
	require.NotErrorIs(t, err, ErrDecoding)
}

func TestGetImage_RequiresDecodedSurface(t *testing.T) {
	d := openTestDriver(t, newFakeDecodeAPI())
	surfaces, err := d.CreateSurfaces2(RTFormatYUV420, 640, 480, 1)
	require.NoError(t, err)
	desc, err := d.CreateImage(FourCCNV12, 640, 480)
	require.NoError(t, err)

	require.ErrorIs(t, d.GetImage(surfaces[0], desc.ID, 640, 480), ErrInvalidHandle)
}
