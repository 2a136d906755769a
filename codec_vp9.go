package nvd

var vp9Profiles = []Profile{
	ProfileVP9Profile0,
	ProfileVP9Profile1,
	ProfileVP9Profile2,
	ProfileVP9Profile3,
}

func init() {
	registerCodec(&codecDescriptor{
		name:         "vp9",
		profiles:     vp9Profiles,
		computeCodec: singleProfileMapper(CodecVP9, vp9Profiles...),
		handlers:     genericHandlers(),
	})
}
