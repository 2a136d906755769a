package nvd

// HEVC decode support, covering the 8/10/12-bit and 4:2:0/4:4:4 profile
// ladder. Which of these are actually usable is decided by the capability
// query against the hardware, not here.

var hevcProfiles = []Profile{
	ProfileHEVCMain,
	ProfileHEVCMain10,
	ProfileHEVCMain12,
	ProfileHEVCMain444,
	ProfileHEVCMain444_10,
	ProfileHEVCMain444_12,
}

func init() {
	registerCodec(&codecDescriptor{
		name:         "hevc",
		profiles:     hevcProfiles,
		computeCodec: singleProfileMapper(CodecHEVC, hevcProfiles...),
		handlers:     genericHandlers(),
	})
}
