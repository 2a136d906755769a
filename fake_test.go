package nvd

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeDecodeAPI is an in-memory DecodeAPI. Copy2D writes a recognisable
// pattern (each destination row is filled with the source row number) so
// readback tests can verify plane geometry.
type fakeDecodeAPI struct {
	mu sync.Mutex

	unsupported map[HardwareCodec]bool
	capsErr     error
	createErr   error
	decodeErr   error
	mapErr      error

	// mapGate, when non-nil, blocks MapFrame until closed.
	mapGate chan struct{}

	decoded   []PictureParams
	mapped    []int
	unmapped  int
	copies    int
	decoders  int
	destroyed int
}

func newFakeDecodeAPI() *fakeDecodeAPI {
	return &fakeDecodeAPI{}
}

func (f *fakeDecodeAPI) Init() error { return nil }

func (f *fakeDecodeAPI) CreateDeviceContext(int) (DeviceContext, error) {
	return DeviceContext(1), nil
}

func (f *fakeDecodeAPI) DestroyDeviceContext(DeviceContext) error { return nil }

func (f *fakeDecodeAPI) GetDecoderCaps(codec HardwareCodec, _ ChromaFormat, _ int) (DecoderCaps, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.capsErr != nil {
		return DecoderCaps{}, f.capsErr
	}
	if f.unsupported[codec] {
		return DecoderCaps{}, nil
	}
	return DecoderCaps{Supported: true, MinWidth: 48, MinHeight: 16, MaxWidth: 8192, MaxHeight: 8192}, nil
}

func (f *fakeDecodeAPI) CreateDecoder(DecoderCreateInfo) (DecoderHandle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return 0, f.createErr
	}
	f.decoders++
	return DecoderHandle(f.decoders), nil
}

func (f *fakeDecodeAPI) DestroyDecoder(DecoderHandle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.destroyed++
	return nil
}

func (f *fakeDecodeAPI) DecodePicture(_ DecoderHandle, pic *PictureParams) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *pic
	cp.Bitstream = append([]byte(nil), pic.Bitstream...)
	cp.SliceOffsets = append([]uint32(nil), pic.SliceOffsets...)
	cp.CodecData = append([]byte(nil), pic.CodecData...)
	f.decoded = append(f.decoded, cp)
	return f.decodeErr
}

func (f *fakeDecodeAPI) MapFrame(_ DecoderHandle, pictureIdx int, _ FrameProcParams) (FrameMapping, error) {
	f.mu.Lock()
	gate := f.mapGate
	err := f.mapErr
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	if err != nil {
		return FrameMapping{}, err
	}
	f.mu.Lock()
	f.mapped = append(f.mapped, pictureIdx)
	f.mu.Unlock()
	return FrameMapping{DevicePtr: 0x1000, Pitch: 4096}, nil
}

func (f *fakeDecodeAPI) UnmapFrame(DecoderHandle, FrameMapping) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unmapped++
	return nil
}

func (f *fakeDecodeAPI) Copy2D(p Copy2DParams) error {
	f.mu.Lock()
	f.copies++
	f.mu.Unlock()
	for row := 0; row < p.Height; row++ {
		off := row * p.DstPitch
		for i := 0; i < p.WidthInBytes; i++ {
			p.Dst[off+i] = byte(p.SrcYStart + row)
		}
	}
	return nil
}

func (f *fakeDecodeAPI) mappedIndices() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.mapped...)
}

func (f *fakeDecodeAPI) decodedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.decoded)
}

func (f *fakeDecodeAPI) lastDecoded() PictureParams {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.decoded[len(f.decoded)-1]
}

func (f *fakeDecodeAPI) setDecodeErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.decodeErr = err
}

var errFakeHardware = errors.New("fake hardware failure")

func testDriverConfig(api DecodeAPI) DriverConfig {
	return DriverConfig{
		GPU:                  -1,
		BackendName:          "direct",
		Supports16BitSurface: true,
		Supports444Surface:   true,
		API:                  api,
	}
}

func openTestDriver(t *testing.T, api DecodeAPI) *Driver {
	t.Helper()
	d, err := Open(testDriverConfig(api))
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Terminate() })
	return d
}

// newDecodeSession creates a config, surfaces and a context for the given
// profile, returning the context and its render targets.
func newDecodeSession(t *testing.T, d *Driver, profile Profile, surfaceCount int) (ContextID, []SurfaceID) {
	t.Helper()
	cfgID, err := d.CreateConfig(profile, EntrypointVLD, 0)
	require.NoError(t, err)
	surfaces, err := d.CreateSurfaces2(RTFormatYUV420, 640, 480, surfaceCount)
	require.NoError(t, err)
	ctxID, err := d.CreateContext(cfgID, 640, 480, surfaces)
	require.NoError(t, err)
	return ctxID, surfaces
}
