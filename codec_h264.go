package nvd

// H.264 decode support. Constrained Baseline decodes on the same hardware
// path as Main, so all three profiles map to the H264 family. Stereo and
// multiview profiles are probed by the capability query but have no
// registered descriptor, so they are filtered from the profile list.

func init() {
	registerCodec(&codecDescriptor{
		name: "h264",
		profiles: []Profile{
			ProfileH264ConstrainedBaseline,
			ProfileH264Main,
			ProfileH264High,
		},
		computeCodec: singleProfileMapper(CodecH264,
			ProfileH264ConstrainedBaseline,
			ProfileH264Main,
			ProfileH264High,
		),
		handlers: genericHandlers(),
	})
}
