package nvd

// Capability negotiation: maps profile/entrypoint/chroma/bit-depth
// combinations onto hardware decoder capability probes.

// supportsCodec asks the hardware whether a codec family decodes at the
// given bit depth and chroma format. A failed probe is fatal to the calling
// operation.
func (d *Driver) supportsCodec(codec HardwareCodec, bitDepth int, chroma ChromaFormat) (DecoderCaps, error) {
	caps, err := d.api.GetDecoderCaps(codec, chroma, bitDepth)
	if err != nil {
		return DecoderCaps{}, opFailed("decoder capability query", err)
	}
	return caps, nil
}

// profileProbe pairs a hardware probe with the client profiles it unlocks.
type profileProbe struct {
	codec    HardwareCodec
	bitDepth int
	chroma   ChromaFormat
	profiles []Profile
	need16   bool
	need444  bool
}

// baseline 8-bit 4:2:0 probes, in the family order clients expect the
// profile list in.
var profileProbes = []profileProbe{
	{codec: CodecMPEG2, bitDepth: 8, chroma: Chroma420, profiles: []Profile{ProfileMPEG2Simple, ProfileMPEG2Main}},
	{codec: CodecMPEG4, bitDepth: 8, chroma: Chroma420, profiles: []Profile{ProfileMPEG4Simple, ProfileMPEG4AdvancedSimple, ProfileMPEG4Main}},
	{codec: CodecVC1, bitDepth: 8, chroma: Chroma420, profiles: []Profile{ProfileVC1Simple, ProfileVC1Main, ProfileVC1Advanced}},
	{codec: CodecH264, bitDepth: 8, chroma: Chroma420, profiles: []Profile{ProfileH264Main, ProfileH264High, ProfileH264ConstrainedBaseline}},
	{codec: CodecJPEG, bitDepth: 8, chroma: Chroma420, profiles: []Profile{ProfileJPEGBaseline}},
	{codec: CodecH264SVC, bitDepth: 8, chroma: Chroma420, profiles: []Profile{ProfileH264StereoHigh}},
	{codec: CodecH264MVC, bitDepth: 8, chroma: Chroma420, profiles: []Profile{ProfileH264MultiviewHigh}},
	{codec: CodecHEVC, bitDepth: 8, chroma: Chroma420, profiles: []Profile{ProfileHEVCMain}},
	{codec: CodecVP8, bitDepth: 8, chroma: Chroma420, profiles: []Profile{ProfileVP8}},
	{codec: CodecVP9, bitDepth: 8, chroma: Chroma420, profiles: []Profile{ProfileVP9Profile0}},
	{codec: CodecAV1, bitDepth: 8, chroma: Chroma420, profiles: []Profile{ProfileAV1Profile0}},

	{codec: CodecHEVC, bitDepth: 10, chroma: Chroma420, profiles: []Profile{ProfileHEVCMain10}, need16: true},
	{codec: CodecHEVC, bitDepth: 12, chroma: Chroma420, profiles: []Profile{ProfileHEVCMain12}, need16: true},
	{codec: CodecVP9, bitDepth: 10, chroma: Chroma420, profiles: []Profile{ProfileVP9Profile2}, need16: true},

	{codec: CodecHEVC, bitDepth: 8, chroma: Chroma444, profiles: []Profile{ProfileHEVCMain444}, need444: true},
	{codec: CodecVP9, bitDepth: 8, chroma: Chroma444, profiles: []Profile{ProfileVP9Profile1}, need444: true},
	{codec: CodecAV1, bitDepth: 8, chroma: Chroma444, profiles: []Profile{ProfileAV1Profile1}, need444: true},

	{codec: CodecHEVC, bitDepth: 10, chroma: Chroma444, profiles: []Profile{ProfileHEVCMain444_10}, need16: true, need444: true},
	{codec: CodecHEVC, bitDepth: 12, chroma: Chroma444, profiles: []Profile{ProfileHEVCMain444_12}, need16: true, need444: true},
	{codec: CodecVP9, bitDepth: 10, chroma: Chroma444, profiles: []Profile{ProfileVP9Profile3}, need16: true, need444: true},
}

// QueryConfigProfiles enumerates the client profiles the hardware can
// decode. Each entry is double-checked: the hardware must report support AND
// a registered codec must claim the profile. Profiles that pass the hardware
// probe but miss the registry are dropped; unregisteredProfileDiagnostic
// reports those once at first enumeration, since a silently missing codec
// usually means it was compiled out.
func (d *Driver) QueryConfigProfiles() ([]Profile, error) {
	var profiles []Profile
	for _, probe := range profileProbes {
		if probe.need16 && !d.cfg.Supports16BitSurface {
			continue
		}
		if probe.need444 && !d.cfg.Supports444Surface {
			continue
		}
		caps, err := d.supportsCodec(probe.codec, probe.bitDepth, probe.chroma)
		if err != nil {
			return nil, err
		}
		if caps.Supported {
			profiles = append(profiles, probe.profiles...)
		}
	}

	filtered := profiles[:0]
	for _, p := range profiles {
		if profileToHardwareCodec(p) == CodecNone {
			d.unregisteredProfileDiagnostic(p)
			continue
		}
		filtered = append(filtered, p)
	}
	return filtered, nil
}

func (d *Driver) unregisteredProfileDiagnostic(p Profile) {
	d.diagMu.Lock()
	defer d.diagMu.Unlock()
	if d.diagnosed == nil {
		d.diagnosed = make(map[Profile]bool)
	}
	if d.diagnosed[p] {
		return
	}
	d.diagnosed[p] = true
	d.log.Warn().
		Stringer("profile", p).
		Msg("hardware reports decode support but no codec is registered; profile hidden")
}

// QueryConfigEntrypoints lists the entrypoints available for a profile.
// Decode is the only supported path.
func (d *Driver) QueryConfigEntrypoints(_ Profile) ([]Entrypoint, error) {
	return []Entrypoint{EntrypointVLD}, nil
}
