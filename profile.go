package nvd

// Profile identifies a client-visible codec profile.
type Profile int

const (
	ProfileNone Profile = iota
	ProfileMPEG2Simple
	ProfileMPEG2Main
	ProfileMPEG4Simple
	ProfileMPEG4AdvancedSimple
	ProfileMPEG4Main
	ProfileH264ConstrainedBaseline
	ProfileH264Main
	ProfileH264High
	ProfileH264StereoHigh
	ProfileH264MultiviewHigh
	ProfileVC1Simple
	ProfileVC1Main
	ProfileVC1Advanced
	ProfileJPEGBaseline
	ProfileHEVCMain
	ProfileHEVCMain10
	ProfileHEVCMain12
	ProfileHEVCMain444
	ProfileHEVCMain444_10
	ProfileHEVCMain444_12
	ProfileVP8
	ProfileVP9Profile0
	ProfileVP9Profile1
	ProfileVP9Profile2
	ProfileVP9Profile3
	ProfileAV1Profile0
	ProfileAV1Profile1
)

func (p Profile) String() string {
	switch p {
	case ProfileMPEG2Simple:
		return "MPEG2Simple"
	case ProfileMPEG2Main:
		return "MPEG2Main"
	case ProfileMPEG4Simple:
		return "MPEG4Simple"
	case ProfileMPEG4AdvancedSimple:
		return "MPEG4AdvancedSimple"
	case ProfileMPEG4Main:
		return "MPEG4Main"
	case ProfileH264ConstrainedBaseline:
		return "H264ConstrainedBaseline"
	case ProfileH264Main:
		return "H264Main"
	case ProfileH264High:
		return "H264High"
	case ProfileH264StereoHigh:
		return "H264StereoHigh"
	case ProfileH264MultiviewHigh:
		return "H264MultiviewHigh"
	case ProfileVC1Simple:
		return "VC1Simple"
	case ProfileVC1Main:
		return "VC1Main"
	case ProfileVC1Advanced:
		return "VC1Advanced"
	case ProfileJPEGBaseline:
		return "JPEGBaseline"
	case ProfileHEVCMain:
		return "HEVCMain"
	case ProfileHEVCMain10:
		return "HEVCMain10"
	case ProfileHEVCMain12:
		return "HEVCMain12"
	case ProfileHEVCMain444:
		return "HEVCMain444"
	case ProfileHEVCMain444_10:
		return "HEVCMain444_10"
	case ProfileHEVCMain444_12:
		return "HEVCMain444_12"
	case ProfileVP8:
		return "VP8"
	case ProfileVP9Profile0:
		return "VP9Profile0"
	case ProfileVP9Profile1:
		return "VP9Profile1"
	case ProfileVP9Profile2:
		return "VP9Profile2"
	case ProfileVP9Profile3:
		return "VP9Profile3"
	case ProfileAV1Profile0:
		return "AV1Profile0"
	case ProfileAV1Profile1:
		return "AV1Profile1"
	default:
		return "None"
	}
}

// Entrypoint identifies how a profile is exercised. Only slice-level decode
// is supported.
type Entrypoint int

const (
	EntrypointNone Entrypoint = iota
	EntrypointVLD             // slice-level variable length decode
)

func (e Entrypoint) String() string {
	if e == EntrypointVLD {
		return "VLD"
	}
	return "None"
}

// HardwareCodec identifies a hardware decoder family.
type HardwareCodec int

const (
	CodecNone HardwareCodec = iota
	CodecMPEG1
	CodecMPEG2
	CodecMPEG4
	CodecVC1
	CodecH264
	CodecJPEG
	CodecH264SVC
	CodecH264MVC
	CodecHEVC
	CodecVP8
	CodecVP9
	CodecAV1
)

func (c HardwareCodec) String() string {
	switch c {
	case CodecMPEG1:
		return "MPEG1"
	case CodecMPEG2:
		return "MPEG2"
	case CodecMPEG4:
		return "MPEG4"
	case CodecVC1:
		return "VC1"
	case CodecH264:
		return "H264"
	case CodecJPEG:
		return "JPEG"
	case CodecH264SVC:
		return "H264_SVC"
	case CodecH264MVC:
		return "H264_MVC"
	case CodecHEVC:
		return "HEVC"
	case CodecVP8:
		return "VP8"
	case CodecVP9:
		return "VP9"
	case CodecAV1:
		return "AV1"
	default:
		return "None"
	}
}

// ChromaFormat is the chroma subsampling of a decode surface.
type ChromaFormat int

const (
	ChromaMonochrome ChromaFormat = iota
	Chroma420
	Chroma422
	Chroma444
)

func (c ChromaFormat) String() string {
	switch c {
	case ChromaMonochrome:
		return "Monochrome"
	case Chroma420:
		return "4:2:0"
	case Chroma422:
		return "4:2:2"
	case Chroma444:
		return "4:4:4"
	default:
		return "Unknown"
	}
}

// SurfaceFormat is the pixel layout the hardware decoder writes.
type SurfaceFormat int

const (
	SurfaceNV12      SurfaceFormat = iota // 8-bit semi-planar 4:2:0
	SurfaceP016                           // 10/12/16-bit semi-planar 4:2:0
	SurfaceYUV444                         // 8-bit planar 4:4:4
	SurfaceYUV444_16                      // 10/12/16-bit planar 4:4:4
)

func (s SurfaceFormat) String() string {
	switch s {
	case SurfaceNV12:
		return "NV12"
	case SurfaceP016:
		return "P016"
	case SurfaceYUV444:
		return "YUV444"
	case SurfaceYUV444_16:
		return "YUV444_16Bit"
	default:
		return "Unknown"
	}
}

// RTFormat is a bitmask of render target formats a profile can decode to.
type RTFormat uint32

const (
	RTFormatYUV420    RTFormat = 0x0000001
	RTFormatYUV422    RTFormat = 0x0000002
	RTFormatYUV444    RTFormat = 0x0000004
	RTFormatYUV420_10 RTFormat = 0x0000100
	RTFormatYUV444_10 RTFormat = 0x0000400
	RTFormatYUV420_12 RTFormat = 0x0001000
	RTFormatYUV444_12 RTFormat = 0x0004000
)

// BufferType tags the payload submitted through CreateBuffer.
type BufferType int

const (
	BufferPictureParameter BufferType = iota
	BufferIQMatrix
	BufferBitPlane
	BufferSliceGroupMap
	BufferSliceParameter
	BufferSliceData
	BufferMacroblockParameter
	BufferResidualData
	BufferDeblockingParameter
	BufferImage
	BufferProtectedSliceData

	bufferTypeCount
)

func (b BufferType) String() string {
	switch b {
	case BufferPictureParameter:
		return "PictureParameter"
	case BufferIQMatrix:
		return "IQMatrix"
	case BufferBitPlane:
		return "BitPlane"
	case BufferSliceGroupMap:
		return "SliceGroupMap"
	case BufferSliceParameter:
		return "SliceParameter"
	case BufferSliceData:
		return "SliceData"
	case BufferMacroblockParameter:
		return "MacroblockParameter"
	case BufferResidualData:
		return "ResidualData"
	case BufferDeblockingParameter:
		return "DeblockingParameter"
	case BufferImage:
		return "Image"
	case BufferProtectedSliceData:
		return "ProtectedSliceData"
	default:
		return "Unknown"
	}
}
