package nvd

// Legacy codec families: MPEG-2, MPEG-4 part 2, VC-1 and baseline JPEG.
// All are 8-bit 4:2:0 only and share the generic handler set.

func init() {
	registerCodec(&codecDescriptor{
		name:     "mpeg2",
		profiles: []Profile{ProfileMPEG2Simple, ProfileMPEG2Main},
		computeCodec: singleProfileMapper(CodecMPEG2,
			ProfileMPEG2Simple,
			ProfileMPEG2Main,
		),
		handlers: genericHandlers(),
	})

	registerCodec(&codecDescriptor{
		name: "mpeg4",
		profiles: []Profile{
			ProfileMPEG4Simple,
			ProfileMPEG4AdvancedSimple,
			ProfileMPEG4Main,
		},
		computeCodec: singleProfileMapper(CodecMPEG4,
			ProfileMPEG4Simple,
			ProfileMPEG4AdvancedSimple,
			ProfileMPEG4Main,
		),
		handlers: genericHandlers(),
	})

	registerCodec(&codecDescriptor{
		name:     "vc1",
		profiles: []Profile{ProfileVC1Simple, ProfileVC1Main, ProfileVC1Advanced},
		computeCodec: singleProfileMapper(CodecVC1,
			ProfileVC1Simple,
			ProfileVC1Main,
			ProfileVC1Advanced,
		),
		handlers: genericHandlers(),
	})

	registerCodec(&codecDescriptor{
		name:         "jpeg",
		profiles:     []Profile{ProfileJPEGBaseline},
		computeCodec: singleProfileMapper(CodecJPEG, ProfileJPEGBaseline),
		handlers:     genericHandlers(),
	})
}
