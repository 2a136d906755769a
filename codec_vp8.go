package nvd

// VP8 decode support. The hardware consumes the frame header bytes ahead of
// the partition start, so the slice-data handler must include the leading
// bytes recorded in the buffer's offset field rather than skipping them.

func vp8SliceData(ctx *Context, buf *Buffer, _ *PictureParams) {
	ctx.sliceOffsets = append(ctx.sliceOffsets, uint32(len(ctx.bitstream)))
	ctx.bitstream = append(ctx.bitstream, buf.data...)
}

func init() {
	h := genericHandlers()
	h[BufferSliceData] = vp8SliceData
	registerCodec(&codecDescriptor{
		name:         "vp8",
		profiles:     []Profile{ProfileVP8},
		computeCodec: singleProfileMapper(CodecVP8, ProfileVP8),
		handlers:     h,
	})
}
