//go:build linux

// Runtime bindings to libcuda/libnvcuvid using purego. Nothing here links at
// build time; the libraries are resolved once on first driver open.

package nvd

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
)

var (
	cuvidOnce    sync.Once
	cuvidInitErr error
)

// libcuda function pointers
var (
	cuInit           func(flags uint32) int32
	cuDeviceGet      func(device uintptr, ordinal int32) int32
	cuCtxCreate      func(ctx uintptr, flags uint32, device uintptr) int32
	cuCtxDestroy     func(ctx uintptr) int32
	cuCtxPushCurrent func(ctx uintptr) int32
	cuCtxPopCurrent  func(ctx uintptr) int32
	cuMemcpy2D       func(cpy uintptr) int32
)

// libnvcuvid function pointers
var (
	cuvidGetDecoderCaps    func(caps uintptr) int32
	cuvidCreateDecoder     func(decoder uintptr, info uintptr) int32
	cuvidDestroyDecoder    func(decoder uintptr) int32
	cuvidDecodePicture     func(decoder uintptr, params uintptr) int32
	cuvidMapVideoFrame64   func(decoder uintptr, picIdx int32, devPtr uintptr, pitch uintptr, proc uintptr) int32
	cuvidUnmapVideoFrame64 func(decoder uintptr, devPtr uint64) int32
)

const cudaSuccess = 0

// cudaVideoCodec values from the hardware SDK.
var hardwareCodecIDs = map[HardwareCodec]int32{
	CodecMPEG2:   1,
	CodecMPEG4:   2,
	CodecVC1:     3,
	CodecH264:    4,
	CodecJPEG:    5,
	CodecH264SVC: 6,
	CodecH264MVC: 7,
	CodecHEVC:    8,
	CodecVP8:     9,
	CodecVP9:     10,
	CodecAV1:     11,
}

func chromaID(c ChromaFormat) int32 {
	switch c {
	case ChromaMonochrome:
		return 0
	case Chroma422:
		return 2
	case Chroma444:
		return 3
	default:
		return 1
	}
}

func surfaceFormatID(f SurfaceFormat) int32 {
	switch f {
	case SurfaceP016:
		return 1
	case SurfaceYUV444:
		return 2
	case SurfaceYUV444_16:
		return 3
	default:
		return 0
	}
}

func loadCuvid() error {
	cuvidOnce.Do(func() {
		cuvidInitErr = loadCuvidLibs()
	})
	return cuvidInitErr
}

func loadCuvidLibs() error {
	cudaPaths := []string{"libcuda.so.1", "libcuda.so", "/usr/lib/x86_64-linux-gnu/libcuda.so.1"}
	if p := os.Getenv("NVD_CUDA_LIB_PATH"); p != "" {
		cudaPaths = append([]string{p}, cudaPaths...)
	}
	cudaHandle, err := dlopenFirst(cudaPaths)
	if err != nil {
		return fmt.Errorf("failed to load libcuda: %w", err)
	}

	cuvidPaths := []string{"libnvcuvid.so.1", "libnvcuvid.so", "/usr/lib/x86_64-linux-gnu/libnvcuvid.so.1"}
	if p := os.Getenv("NVD_CUVID_LIB_PATH"); p != "" {
		cuvidPaths = append([]string{p}, cuvidPaths...)
	}
	cuvidHandle, err := dlopenFirst(cuvidPaths)
	if err != nil {
		purego.Dlclose(cudaHandle)
		return fmt.Errorf("failed to load libnvcuvid: %w", err)
	}

	purego.RegisterLibFunc(&cuInit, cudaHandle, "cuInit")
	purego.RegisterLibFunc(&cuDeviceGet, cudaHandle, "cuDeviceGet")
	purego.RegisterLibFunc(&cuCtxCreate, cudaHandle, "cuCtxCreate_v2")
	purego.RegisterLibFunc(&cuCtxDestroy, cudaHandle, "cuCtxDestroy_v2")
	purego.RegisterLibFunc(&cuCtxPushCurrent, cudaHandle, "cuCtxPushCurrent_v2")
	purego.RegisterLibFunc(&cuCtxPopCurrent, cudaHandle, "cuCtxPopCurrent_v2")
	purego.RegisterLibFunc(&cuMemcpy2D, cudaHandle, "cuMemcpy2D_v2")

	purego.RegisterLibFunc(&cuvidGetDecoderCaps, cuvidHandle, "cuvidGetDecoderCaps")
	purego.RegisterLibFunc(&cuvidCreateDecoder, cuvidHandle, "cuvidCreateDecoder")
	purego.RegisterLibFunc(&cuvidDestroyDecoder, cuvidHandle, "cuvidDestroyDecoder")
	purego.RegisterLibFunc(&cuvidDecodePicture, cuvidHandle, "cuvidDecodePicture")
	purego.RegisterLibFunc(&cuvidMapVideoFrame64, cuvidHandle, "cuvidMapVideoFrame64")
	purego.RegisterLibFunc(&cuvidUnmapVideoFrame64, cuvidHandle, "cuvidUnmapVideoFrame64")
	return nil
}

func dlopenFirst(paths []string) (uintptr, error) {
	var lastErr error
	for _, path := range paths {
		handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err == nil {
			return handle, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = errors.New("no candidate paths")
	}
	return 0, lastErr
}

// Wire structs mirroring the SDK layouts. All of these must be
// heap-allocated when passed as out-parameters; stack variables can move
// under the C call on arm64.

type cuvidDecodeCaps struct {
	codecType          int32
	chromaFormat       int32
	bitDepthMinus8     uint32
	reserved1          [3]uint32
	isSupported        uint8
	numNVDECs          uint8
	outputFormatMask   uint16
	maxWidth           uint32
	maxHeight          uint32
	maxMBCount         uint32
	minWidth           uint16
	minHeight          uint16
	histogramSupported uint8
	counterBitDepth    uint8
	histogramBinCount  uint16
	reserved3          [10]uint32
}

type cuvidRect struct {
	left, top, right, bottom int16
}

type cuvidDecodeCreateInfo struct {
	width             uint64
	height            uint64
	numDecodeSurfaces uint64
	codecType         int32
	chromaFormat      int32
	creationFlags     uint64
	bitDepthMinus8    uint64
	intraDecodeOnly   uint64
	maxWidth          uint64
	maxHeight         uint64
	reserved1         uint64
	displayArea       cuvidRect
	outputFormat      int32
	deinterlaceMode   int32
	targetWidth       uint64
	targetHeight      uint64
	numOutputSurfaces uint64
	vidLock           uintptr
	targetRect        cuvidRect
	enableHistogram   uint64
	reserved2         [4]uint64
}

const cuvidCreatePreferCUVID = 0x04

type cuvidPicParamsWire struct {
	picWidthInMbs    int32
	frameHeightInMbs int32
	currPicIdx       int32
	fieldPicFlag     int32
	bottomFieldFlag  int32
	secondField      int32
	bitstreamDataLen uint32
	_                uint32
	bitstreamData    uintptr
	numSlices        uint32
	_                uint32
	sliceDataOffsets uintptr
	refPicFlag       int32
	intraPicFlag     int32
	reserved         [30]uint32
	_                uint32
	codecSpecific    [1024]byte
}

type cuvidProcParamsWire struct {
	progressiveFrame int32
	secondField      int32
	topFieldFirst    int32
	unpairedField    int32
	reserved         [60]uint32
	outputStream     uintptr
	reserved2        [46]uint64
}

const (
	cuMemoryTypeHost   = 1
	cuMemoryTypeDevice = 2
)

type cudaMemcpy2DWire struct {
	srcXInBytes   uint64
	srcY          uint64
	srcMemoryType int32
	_             int32
	srcHost       uintptr
	srcDevice     uint64
	srcArray      uintptr
	srcPitch      uint64

	dstXInBytes   uint64
	dstY          uint64
	dstMemoryType int32
	_             int32
	dstHost       uintptr
	dstDevice     uint64
	dstArray      uintptr
	dstPitch      uint64

	widthInBytes uint64
	height       uint64
}

// nativeDecodeAPI implements DecodeAPI over the loaded libraries. Every call
// that needs device state pushes the CUDA context and pops it on the way
// out; the resolver and entry points run on arbitrary goroutines.
type nativeDecodeAPI struct {
	ctx uintptr
	mu  sync.Mutex
}

func newNativeDecodeAPI() (DecodeAPI, error) {
	if err := loadCuvid(); err != nil {
		return nil, err
	}
	return &nativeDecodeAPI{}, nil
}

func cuErr(op string, code int32) error {
	return fmt.Errorf("%s failed: CUDA error %d", op, code)
}

func (n *nativeDecodeAPI) Init() error {
	if r := cuInit(0); r != cudaSuccess {
		return cuErr("cuInit", r)
	}
	return nil
}

func (n *nativeDecodeAPI) CreateDeviceContext(gpu int) (DeviceContext, error) {
	ordinal := int32(gpu)
	if ordinal < 0 {
		ordinal = 0
	}
	dev := new(uintptr)
	if r := cuDeviceGet(uintptr(unsafe.Pointer(dev)), ordinal); r != cudaSuccess {
		return 0, cuErr("cuDeviceGet", r)
	}
	ctx := new(uintptr)
	if r := cuCtxCreate(uintptr(unsafe.Pointer(ctx)), 0, *dev); r != cudaSuccess {
		return 0, cuErr("cuCtxCreate", r)
	}
	n.ctx = *ctx
	// The creating thread holds the context current; release it so any
	// goroutine can push it.
	out := new(uintptr)
	if r := cuCtxPopCurrent(uintptr(unsafe.Pointer(out))); r != cudaSuccess {
		return 0, cuErr("cuCtxPopCurrent", r)
	}
	runtime.KeepAlive(dev)
	return DeviceContext(*ctx), nil
}

func (n *nativeDecodeAPI) DestroyDeviceContext(ctx DeviceContext) error {
	if r := cuCtxDestroy(uintptr(ctx)); r != cudaSuccess {
		return cuErr("cuCtxDestroy", r)
	}
	n.ctx = 0
	return nil
}

// withContext serialises hardware calls under the pushed CUDA context. The
// driver context is not thread-bound but push/pop pairs must not interleave.
func (n *nativeDecodeAPI) withContext(fn func() error) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if r := cuCtxPushCurrent(n.ctx); r != cudaSuccess {
		return cuErr("cuCtxPushCurrent", r)
	}
	err := fn()
	out := new(uintptr)
	if r := cuCtxPopCurrent(uintptr(unsafe.Pointer(out))); r != cudaSuccess && err == nil {
		err = cuErr("cuCtxPopCurrent", r)
	}
	return err
}

func (n *nativeDecodeAPI) GetDecoderCaps(codec HardwareCodec, chroma ChromaFormat, bitDepth int) (DecoderCaps, error) {
	id, ok := hardwareCodecIDs[codec]
	if !ok {
		return DecoderCaps{}, fmt.Errorf("no hardware id for codec %s", codec)
	}
	caps := &cuvidDecodeCaps{
		codecType:      id,
		chromaFormat:   chromaID(chroma),
		bitDepthMinus8: uint32(bitDepth - 8),
	}
	err := n.withContext(func() error {
		if r := cuvidGetDecoderCaps(uintptr(unsafe.Pointer(caps))); r != cudaSuccess {
			return cuErr("cuvidGetDecoderCaps", r)
		}
		return nil
	})
	if err != nil {
		return DecoderCaps{}, err
	}
	out := DecoderCaps{
		Supported: caps.isSupported != 0,
		MinWidth:  int(caps.minWidth),
		MinHeight: int(caps.minHeight),
		MaxWidth:  int(caps.maxWidth),
		MaxHeight: int(caps.maxHeight),
	}
	runtime.KeepAlive(caps)
	return out, nil
}

func (n *nativeDecodeAPI) CreateDecoder(info DecoderCreateInfo) (DecoderHandle, error) {
	id, ok := hardwareCodecIDs[info.Codec]
	if !ok {
		return 0, fmt.Errorf("no hardware id for codec %s", info.Codec)
	}
	ci := &cuvidDecodeCreateInfo{
		width:             uint64(info.Width),
		height:            uint64(info.Height),
		numDecodeSurfaces: uint64(info.DecodeSurfaces),
		codecType:         id,
		chromaFormat:      chromaID(info.ChromaFormat),
		creationFlags:     cuvidCreatePreferCUVID,
		bitDepthMinus8:    uint64(info.BitDepth - 8),
		maxWidth:          uint64(info.Width),
		maxHeight:         uint64(info.Height),
		displayArea: cuvidRect{
			right:  int16(info.DisplayWidth),
			bottom: int16(info.DisplayHeight),
		},
		outputFormat:      surfaceFormatID(info.OutputFormat),
		deinterlaceMode:   1, // weave
		targetWidth:       uint64(info.Width),
		targetHeight:      uint64(info.Height),
		numOutputSurfaces: uint64(info.OutputSurfaces),
	}
	dec := new(uintptr)
	err := n.withContext(func() error {
		if r := cuvidCreateDecoder(uintptr(unsafe.Pointer(dec)), uintptr(unsafe.Pointer(ci))); r != cudaSuccess {
			return cuErr("cuvidCreateDecoder", r)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	runtime.KeepAlive(ci)
	return DecoderHandle(*dec), nil
}

func (n *nativeDecodeAPI) DestroyDecoder(dec DecoderHandle) error {
	return n.withContext(func() error {
		if r := cuvidDestroyDecoder(uintptr(dec)); r != cudaSuccess {
			return cuErr("cuvidDestroyDecoder", r)
		}
		return nil
	})
}

func (n *nativeDecodeAPI) DecodePicture(dec DecoderHandle, pic *PictureParams) error {
	wire := &cuvidPicParamsWire{
		currPicIdx:       int32(pic.CurrPicIdx),
		numSlices:        uint32(pic.NumSlices),
		bitstreamDataLen: uint32(len(pic.Bitstream)),
	}
	if pic.BottomFieldFlag {
		wire.bottomFieldFlag = 1
	}
	if pic.SecondField {
		wire.secondField = 1
	}
	if pic.RefPicFlag {
		wire.refPicFlag = 1
	}
	if pic.IntraPicFlag {
		wire.intraPicFlag = 1
	}
	if len(pic.Bitstream) > 0 {
		wire.bitstreamData = uintptr(unsafe.Pointer(&pic.Bitstream[0]))
	}
	if len(pic.SliceOffsets) > 0 {
		wire.sliceDataOffsets = uintptr(unsafe.Pointer(&pic.SliceOffsets[0]))
	}
	copy(wire.codecSpecific[:], pic.CodecData)

	err := n.withContext(func() error {
		if r := cuvidDecodePicture(uintptr(dec), uintptr(unsafe.Pointer(wire))); r != cudaSuccess {
			return cuErr("cuvidDecodePicture", r)
		}
		return nil
	})
	runtime.KeepAlive(wire)
	runtime.KeepAlive(pic.Bitstream)
	runtime.KeepAlive(pic.SliceOffsets)
	return err
}

func (n *nativeDecodeAPI) MapFrame(dec DecoderHandle, pictureIdx int, proc FrameProcParams) (FrameMapping, error) {
	wire := &cuvidProcParamsWire{}
	if proc.ProgressiveFrame {
		wire.progressiveFrame = 1
	}
	if proc.TopFieldFirst {
		wire.topFieldFirst = 1
	}
	if proc.SecondField {
		wire.secondField = 1
	}
	devPtr := new(uint64)
	pitch := new(uint32)
	err := n.withContext(func() error {
		r := cuvidMapVideoFrame64(uintptr(dec), int32(pictureIdx),
			uintptr(unsafe.Pointer(devPtr)), uintptr(unsafe.Pointer(pitch)),
			uintptr(unsafe.Pointer(wire)))
		if r != cudaSuccess {
			return cuErr("cuvidMapVideoFrame64", r)
		}
		return nil
	})
	if err != nil {
		return FrameMapping{}, err
	}
	m := FrameMapping{DevicePtr: uintptr(*devPtr), Pitch: int(*pitch)}
	runtime.KeepAlive(wire)
	return m, nil
}

func (n *nativeDecodeAPI) UnmapFrame(dec DecoderHandle, frame FrameMapping) error {
	return n.withContext(func() error {
		if r := cuvidUnmapVideoFrame64(uintptr(dec), uint64(frame.DevicePtr)); r != cudaSuccess {
			return cuErr("cuvidUnmapVideoFrame64", r)
		}
		return nil
	})
}

func (n *nativeDecodeAPI) Copy2D(p Copy2DParams) error {
	if len(p.Dst) == 0 {
		return errors.New("copy2d: empty destination")
	}
	wire := &cudaMemcpy2DWire{
		srcY:          uint64(p.SrcYStart),
		srcMemoryType: cuMemoryTypeDevice,
		srcDevice:     uint64(p.Src),
		srcPitch:      uint64(p.SrcPitch),
		dstMemoryType: cuMemoryTypeHost,
		dstHost:       uintptr(unsafe.Pointer(&p.Dst[0])),
		dstPitch:      uint64(p.DstPitch),
		widthInBytes:  uint64(p.WidthInBytes),
		height:        uint64(p.Height),
	}
	err := n.withContext(func() error {
		if r := cuMemcpy2D(uintptr(unsafe.Pointer(wire))); r != cudaSuccess {
			return cuErr("cuMemcpy2D", r)
		}
		return nil
	})
	runtime.KeepAlive(wire)
	runtime.KeepAlive(p.Dst)
	return err
}
