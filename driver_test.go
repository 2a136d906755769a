package nvd

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestOpen_InstanceLimit(t *testing.T) {
	cfg := testDriverConfig(newFakeDecodeAPI())
	cfg.MaxInstances = 2

	d1, err := Open(cfg)
	require.NoError(t, err)
	d2, err := Open(cfg)
	require.NoError(t, err)

	_, err = Open(cfg)
	require.ErrorIs(t, err, ErrHardwareBusy)

	require.NoError(t, d1.Terminate())
	d3, err := Open(cfg)
	require.NoError(t, err)

	require.NoError(t, d2.Terminate())
	require.NoError(t, d3.Terminate())
}

func TestOpen_UnknownBackend(t *testing.T) {
	cfg := testDriverConfig(newFakeDecodeAPI())
	cfg.BackendName = "bogus"
	_, err := Open(cfg)
	require.ErrorIs(t, err, ErrInvalidParameter)

	// the failed open must release its admission slot
	cfg.BackendName = "direct"
	cfg.MaxInstances = 1
	d, err := Open(cfg)
	require.NoError(t, err)
	require.NoError(t, d.Terminate())
}

func TestCreateConfig_UnsupportedProfile(t *testing.T) {
	d := openTestDriver(t, newFakeDecodeAPI())
	_, err := d.CreateConfig(ProfileH264StereoHigh, EntrypointVLD, 0)
	require.ErrorIs(t, err, ErrUnsupportedProfile)
}

func TestCreateConfig_UnsupportedEntrypoint(t *testing.T) {
	d := openTestDriver(t, newFakeDecodeAPI())
	_, err := d.CreateConfig(ProfileH264Main, EntrypointNone, 0)
	require.ErrorIs(t, err, ErrUnsupportedEntrypoint)
}

func TestCreateConfig_SurfaceNegotiation(t *testing.T) {
	tests := []struct {
		name        string
		profile     Profile
		requestedRT RTFormat
		format      SurfaceFormat
		chroma      ChromaFormat
		bitDepth    int
	}{
		{"h264 defaults", ProfileH264Main, 0, SurfaceNV12, Chroma420, 8},
		{"hevc main10", ProfileHEVCMain10, 0, SurfaceP016, Chroma420, 10},
		{"hevc main12", ProfileHEVCMain12, 0, SurfaceP016, Chroma420, 12},
		{"vp9 profile2 no hint", ProfileVP9Profile2, 0, SurfaceP016, Chroma420, 10},
		{"av1 profile0 10bit hint", ProfileAV1Profile0, RTFormatYUV420_10, SurfaceP016, Chroma420, 10},
		{"av1 profile0 12bit hint", ProfileAV1Profile0, RTFormatYUV420_12, SurfaceP016, Chroma420, 12},
		{"hevc 444", ProfileHEVCMain444, 0, SurfaceYUV444, Chroma444, 8},
		{"hevc 444 10", ProfileHEVCMain444_10, 0, SurfaceYUV444_16, Chroma444, 10},
		{"vp9 profile3 no hint", ProfileVP9Profile3, 0, SurfaceYUV444_16, Chroma444, 10},
		{"vp9 profile3 444 hint", ProfileVP9Profile3, RTFormatYUV444, SurfaceYUV444, Chroma444, 8},
	}

	d := openTestDriver(t, newFakeDecodeAPI())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := d.CreateConfig(tt.profile, EntrypointVLD, tt.requestedRT)
			require.NoError(t, err)
			cfg, err := d.configByID(id)
			require.NoError(t, err)
			require.Equal(t, tt.format, cfg.surfaceFormat)
			require.Equal(t, tt.chroma, cfg.chromaFormat)
			require.Equal(t, tt.bitDepth, cfg.bitDepth)
			require.NoError(t, d.DestroyConfig(id))
		})
	}
}

func TestGetConfigAttributes_RTFormats(t *testing.T) {
	d := openTestDriver(t, newFakeDecodeAPI())

	attrs, err := d.GetConfigAttributes(ProfileH264Main, EntrypointVLD)
	require.NoError(t, err)
	require.Equal(t, RTFormatYUV420, attrs.RTFormats)
	require.Equal(t, 8192, attrs.MaxPictureWidth)

	attrs, err = d.GetConfigAttributes(ProfileHEVCMain10, EntrypointVLD)
	require.NoError(t, err)
	require.Equal(t, RTFormatYUV420|RTFormatYUV420_10, attrs.RTFormats)

	attrs, err = d.GetConfigAttributes(ProfileHEVCMain444_12, EntrypointVLD)
	require.NoError(t, err)
	for _, f := range []RTFormat{RTFormatYUV444_12, RTFormatYUV420_12, RTFormatYUV444_10, RTFormatYUV420_10, RTFormatYUV444, RTFormatYUV420} {
		require.NotZero(t, attrs.RTFormats&f, "missing format %#x", f)
	}
}

func TestGetConfigAttributes_CapabilityMasking(t *testing.T) {
	cfg := testDriverConfig(newFakeDecodeAPI())
	cfg.Supports16BitSurface = false
	cfg.Supports444Surface = false
	d, err := Open(cfg)
	require.NoError(t, err)
	defer func() { require.NoError(t, d.Terminate()) }()

	attrs, err := d.GetConfigAttributes(ProfileHEVCMain444_12, EntrypointVLD)
	require.NoError(t, err)
	require.Equal(t, RTFormatYUV420, attrs.RTFormats)
}

func TestQueryConfigProfiles_FiltersUnregistered(t *testing.T) {
	d := openTestDriver(t, newFakeDecodeAPI())
	profiles, err := d.QueryConfigProfiles()
	require.NoError(t, err)

	require.Contains(t, profiles, ProfileH264Main)
	require.Contains(t, profiles, ProfileHEVCMain10)
	require.Contains(t, profiles, ProfileAV1Profile0)
	// hardware reports support for these but no codec registers them
	require.NotContains(t, profiles, ProfileH264StereoHigh)
	require.NotContains(t, profiles, ProfileH264MultiviewHigh)
}

func TestQueryConfigProfiles_HardwareGates(t *testing.T) {
	api := newFakeDecodeAPI()
	api.unsupported = map[HardwareCodec]bool{CodecAV1: true}
	cfg := testDriverConfig(api)
	cfg.Supports16BitSurface = false
	d, err := Open(cfg)
	require.NoError(t, err)
	defer func() { require.NoError(t, d.Terminate()) }()

	profiles, err := d.QueryConfigProfiles()
	require.NoError(t, err)
	require.NotContains(t, profiles, ProfileAV1Profile0)
	require.NotContains(t, profiles, ProfileHEVCMain10, "16-bit probe must be skipped")
	require.Contains(t, profiles, ProfileHEVCMain)
}

func TestQueryConfigEntrypoints(t *testing.T) {
	d := openTestDriver(t, newFakeDecodeAPI())
	eps, err := d.QueryConfigEntrypoints(ProfileH264Main)
	require.NoError(t, err)
	require.Equal(t, []Entrypoint{EntrypointVLD}, eps)
}

func TestQueryConfigAttributes(t *testing.T) {
	d := openTestDriver(t, newFakeDecodeAPI())
	id, err := d.CreateConfig(ProfileVP9Profile2, EntrypointVLD, 0)
	require.NoError(t, err)

	profile, entrypoint, formats, err := d.QueryConfigAttributes(id)
	require.NoError(t, err)
	require.Equal(t, ProfileVP9Profile2, profile)
	require.Equal(t, EntrypointVLD, entrypoint)
	require.NotZero(t, formats&RTFormatYUV420_12)

	_, _, _, err = d.QueryConfigAttributes(ConfigID(9999))
	require.ErrorIs(t, err, ErrInvalidHandle)
}

func TestQuerySurfaceAttributes(t *testing.T) {
	d := openTestDriver(t, newFakeDecodeAPI())

	id, err := d.CreateConfig(ProfileH264Main, EntrypointVLD, 0)
	require.NoError(t, err)
	attrs, err := d.QuerySurfaceAttributes(id)
	require.NoError(t, err)
	require.Equal(t, 48, attrs.MinWidth)
	require.Equal(t, 8192, attrs.MaxHeight)
	require.Contains(t, attrs.PixelFormats, FourCCNV12)
	require.Contains(t, attrs.PixelFormats, FourCCP016)

	id444, err := d.CreateConfig(ProfileHEVCMain444, EntrypointVLD, 0)
	require.NoError(t, err)
	attrs, err = d.QuerySurfaceAttributes(id444)
	require.NoError(t, err)
	require.Equal(t, []uint32{FourCC444P, FourCCQ416}, attrs.PixelFormats)
}

func TestExportSurfaceHandle(t *testing.T) {
	d := openTestDriver(t, newFakeDecodeAPI())
	surfaces, err := d.CreateSurfaces2(RTFormatYUV420, 64, 64, 1)
	require.NoError(t, err)

	_, err = d.ExportSurfaceHandle(surfaces[0], MemoryType(42), true)
	require.ErrorIs(t, err, ErrUnsupportedMemoryType)

	_, err = d.ExportSurfaceHandle(surfaces[0], MemoryDRMPrime2, false)
	require.ErrorIs(t, err, ErrInvalidParameter)

	desc, err := d.ExportSurfaceHandle(surfaces[0], MemoryDRMPrime2, true)
	require.NoError(t, err)
	require.Equal(t, FourCCNV12, desc.FourCC)
	require.Equal(t, 64, desc.Width)
	require.Equal(t, 2, desc.NumLayers)
	require.Equal(t, []int{0, 64 * 64}, desc.Offsets)
}

func TestStubs(t *testing.T) {
	d := openTestDriver(t, newFakeDecodeAPI())
	require.ErrorIs(t, d.BufferSetNumElements(BufferID(1), 2), ErrUnimplemented)
	require.ErrorIs(t, d.QuerySurfaceStatus(SurfaceID(1)), ErrUnimplemented)
	require.ErrorIs(t, d.PutSurface(SurfaceID(1)), ErrUnimplemented)
	_, err := d.DeriveImage(SurfaceID(1))
	require.ErrorIs(t, err, ErrOperationFailed)

	// probed by clients and accepted as empty or no-op
	require.NoError(t, d.PutImage(SurfaceID(1), ImageID(1)))
	formats, err := d.QuerySubpictureFormats()
	require.NoError(t, err)
	require.Empty(t, formats)
	attrs, err := d.QueryDisplayAttributes()
	require.NoError(t, err)
	require.Empty(t, attrs)
}

func TestVendor(t *testing.T) {
	d := openTestDriver(t, newFakeDecodeAPI())
	require.Equal(t, "NVDEC decode driver [direct backend]", d.Vendor())
}
