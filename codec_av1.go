package nvd

func init() {
	registerCodec(&codecDescriptor{
		name:     "av1",
		profiles: []Profile{ProfileAV1Profile0, ProfileAV1Profile1},
		computeCodec: singleProfileMapper(CodecAV1,
			ProfileAV1Profile0,
			ProfileAV1Profile1,
		),
		handlers: genericHandlers(),
	})
}
