package nvd

// DecoderHandle is an opaque reference to one hardware decoder instance.
type DecoderHandle uintptr

// DeviceContext is an opaque reference to the hardware device context a
// driver instance holds for its lifetime.
type DeviceContext uintptr

// DecoderCaps is the result of a hardware capability probe for one
// codec/chroma/bit-depth combination.
type DecoderCaps struct {
	Supported bool
	MinWidth  int
	MinHeight int
	MaxWidth  int
	MaxHeight int
}

// DecoderCreateInfo describes the decoder instance a context needs.
type DecoderCreateInfo struct {
	Codec          HardwareCodec
	ChromaFormat   ChromaFormat
	OutputFormat   SurfaceFormat
	BitDepth       int
	Width          int
	Height         int
	DisplayWidth   int
	DisplayHeight  int
	DecodeSurfaces int // size of the hardware decode-surface pool
	OutputSurfaces int
}

// PictureParams is the hardware picture-parameter structure accumulated
// between BeginPicture and EndPicture. Codec handlers populate CodecData and
// the slice accounting; the context owns the bitstream and offset buffers
// and attaches them at submission.
type PictureParams struct {
	CurrPicIdx      int
	IntraPicFlag    bool
	RefPicFlag      bool
	BottomFieldFlag bool
	SecondField     bool

	// CodecData carries the codec-specific parameter block built by the
	// registered picture-parameter handler. Opaque to the session layer.
	CodecData []byte
	IQMatrix  []byte

	NumSlices    int
	SliceOffsets []uint32
	Bitstream    []byte
}

// FrameProcParams carries the interlace metadata for mapping one decoded
// frame.
type FrameProcParams struct {
	ProgressiveFrame bool
	TopFieldFirst    bool
	SecondField      bool
}

// FrameMapping is a mapped decoded frame: device memory plus its row pitch.
type FrameMapping struct {
	DevicePtr uintptr
	Pitch     int
}

// Copy2DParams describes one device-to-host 2D copy.
type Copy2DParams struct {
	Src          uintptr
	SrcPitch     int
	SrcYStart    int // row offset into the source allocation
	Dst          []byte
	DstPitch     int
	WidthInBytes int
	Height       int
}

// DecodeAPI is the proprietary decode acceleration interface the driver
// translates into. The production implementation binds libnvcuvid/libcuda at
// runtime; tests substitute a fake.
type DecodeAPI interface {
	// Init initialises the hardware layer once per process.
	Init() error

	// CreateDeviceContext acquires the device context for the given GPU
	// ordinal (-1 selects the default device).
	CreateDeviceContext(gpu int) (DeviceContext, error)
	DestroyDeviceContext(DeviceContext) error

	// GetDecoderCaps probes decode support for a codec family at the given
	// bit depth and chroma format.
	GetDecoderCaps(codec HardwareCodec, chroma ChromaFormat, bitDepth int) (DecoderCaps, error)

	CreateDecoder(DecoderCreateInfo) (DecoderHandle, error)
	DestroyDecoder(DecoderHandle) error

	// DecodePicture submits one picture synchronously. It may block on
	// hardware queue depth.
	DecodePicture(DecoderHandle, *PictureParams) error

	// MapFrame makes a finished decode available as device memory.
	MapFrame(dec DecoderHandle, pictureIdx int, proc FrameProcParams) (FrameMapping, error)
	UnmapFrame(DecoderHandle, FrameMapping) error

	// Copy2D copies a plane of decoded device memory into host memory.
	Copy2D(Copy2DParams) error
}
