package nvd

import "sync"

// HandlerFunc translates one submitted buffer into the in-progress hardware
// picture-parameter structure. Handlers may also append to the context's
// bitstream and slice-offset accumulation buffers.
type HandlerFunc func(ctx *Context, buf *Buffer, pic *PictureParams)

// codecDescriptor is one registered codec: the client profiles it claims,
// the profile to hardware codec mapping, and the buffer-type-indexed handler
// table used by RenderPicture.
type codecDescriptor struct {
	name         string
	profiles     []Profile
	computeCodec func(Profile) HardwareCodec
	handlers     [bufferTypeCount]HandlerFunc
}

func (c *codecDescriptor) claims(p Profile) bool {
	for _, sp := range c.profiles {
		if sp == p {
			return true
		}
	}
	return false
}

var (
	codecRegistryMu sync.RWMutex
	codecRegistry   []*codecDescriptor
)

// registerCodec adds a codec descriptor. Profile sets must be disjoint
// across codecs by construction; lookup is first match wins.
func registerCodec(c *codecDescriptor) {
	codecRegistryMu.Lock()
	defer codecRegistryMu.Unlock()
	codecRegistry = append(codecRegistry, c)
}

// codecForProfile finds the registered codec claiming the given profile.
func codecForProfile(p Profile) *codecDescriptor {
	codecRegistryMu.RLock()
	defer codecRegistryMu.RUnlock()
	for _, c := range codecRegistry {
		if c.claims(p) {
			return c
		}
	}
	return nil
}

// profileToHardwareCodec resolves a profile through every registered codec.
// CodecNone signals "unsupported profile" to all call sites.
func profileToHardwareCodec(p Profile) HardwareCodec {
	codecRegistryMu.RLock()
	defer codecRegistryMu.RUnlock()
	for _, c := range codecRegistry {
		if hc := c.computeCodec(p); hc != CodecNone {
			return hc
		}
	}
	return CodecNone
}

// Shared handler building blocks. Most codecs accumulate parameters the same
// way; descriptors that need codec quirks wrap these.

func handleCodecData(_ *Context, buf *Buffer, pic *PictureParams) {
	pic.CodecData = append(pic.CodecData[:0], buf.data...)
}

func handleIQMatrix(_ *Context, buf *Buffer, pic *PictureParams) {
	pic.IQMatrix = append(pic.IQMatrix[:0], buf.data...)
}

func handleSliceParameter(_ *Context, buf *Buffer, pic *PictureParams) {
	pic.NumSlices += buf.elements
}

// handleSliceData appends the slice payload to the context's bitstream
// accumulator and records its offset. Ordering is the client's
// responsibility; parameter buffers must precede their slice data.
func handleSliceData(ctx *Context, buf *Buffer, _ *PictureParams) {
	ctx.sliceOffsets = append(ctx.sliceOffsets, uint32(len(ctx.bitstream)))
	ctx.bitstream = append(ctx.bitstream, buf.data[buf.offset:]...)
}

// genericHandlers is the baseline handler table shared by codecs without
// buffer-level quirks.
func genericHandlers() [bufferTypeCount]HandlerFunc {
	var h [bufferTypeCount]HandlerFunc
	h[BufferPictureParameter] = handleCodecData
	h[BufferIQMatrix] = handleIQMatrix
	h[BufferSliceParameter] = handleSliceParameter
	h[BufferSliceData] = handleSliceData
	return h
}

// singleProfileMapper returns a computeCodec function for codecs whose
// profiles all map to one hardware family.
func singleProfileMapper(codec HardwareCodec, profiles ...Profile) func(Profile) HardwareCodec {
	return func(p Profile) HardwareCodec {
		for _, sp := range profiles {
			if sp == p {
				return codec
			}
		}
		return CodecNone
	}
}
