package nvd

import (
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// instanceCount tracks live driver instances process-wide for admission
// control.
var instanceCount atomic.Int32

// Config is a negotiated decode configuration: the profile plus the surface
// shape decoding into it will produce. CreateContext refines the surface
// fields from the first render target.
type Config struct {
	id            ConfigID
	profile       Profile
	entrypoint    Entrypoint
	surfaceFormat SurfaceFormat
	chromaFormat  ChromaFormat
	bitDepth      int
}

// Driver is one loaded driver instance. All entry points hang off it; it is
// safe for concurrent use by multiple goroutines.
type Driver struct {
	cfg     DriverConfig
	api     DecodeAPI
	backend Backend
	device  DeviceContext
	objects *objectTable
	log     zerolog.Logger

	diagMu    sync.Mutex
	diagnosed map[Profile]bool
}

// Open initialises a driver instance. Failure at any stage unwinds the
// stages already completed, including the instance-count reservation.
func Open(cfg DriverConfig) (*Driver, error) {
	// Admission first: the count is the cheap gate in front of hardware
	// init. CAS so two racing opens cannot both take the last slot.
	for {
		n := instanceCount.Load()
		if cfg.MaxInstances > 0 && int(n) >= cfg.MaxInstances {
			return nil, ErrHardwareBusy
		}
		if instanceCount.CompareAndSwap(n, n+1) {
			break
		}
	}

	d := &Driver{
		cfg:     cfg,
		objects: newObjectTable(),
		log:     componentLogger("driver"),
	}
	d.log.Info().
		Int32("instances", instanceCount.Load()).
		Int("max", cfg.MaxInstances).
		Msg("initialising driver")

	fail := func(err error) (*Driver, error) {
		if d.device != 0 {
			_ = d.api.DestroyDeviceContext(d.device)
		}
		instanceCount.Add(-1)
		return nil, err
	}

	d.api = cfg.API
	if d.api == nil {
		api, err := newNativeDecodeAPI()
		if err != nil {
			return fail(err)
		}
		d.api = api
	}
	if err := d.api.Init(); err != nil {
		return fail(opFailed("hardware init", err))
	}

	device, err := d.api.CreateDeviceContext(cfg.GPU)
	if err != nil {
		return fail(opFailed("create device context", err))
	}
	d.device = device

	d.backend = cfg.Backend
	if d.backend == nil {
		b, err := backendFor(cfg.BackendName)
		if err != nil {
			return fail(err)
		}
		d.backend = b
	}
	if err := d.backend.InitExporter(d); err != nil {
		return fail(opFailed("init exporter", err))
	}

	d.log.Info().Str("backend", d.backend.Name()).Msg("driver ready")
	return d, nil
}

// Vendor identifies the driver and its selected backend.
func (d *Driver) Vendor() string {
	return "NVDEC decode driver [" + d.backend.Name() + " backend]"
}

// Terminate tears the instance down: backing images, then every live
// context (bounded resolver joins), then the exporter and device context.
// Always decrements the instance count.
func (d *Driver) Terminate() error {
	d.log.Info().Msg("terminating")
	d.backend.DestroyAllBackingImages(d)

	var firstErr error
	for _, o := range d.objects.snapshot() {
		if o.typ != objectContext {
			continue
		}
		if err := o.payload.(*Context).shutdown(); err != nil && firstErr == nil {
			firstErr = err
		}
		d.objects.delete(o.id)
	}
	for _, o := range d.objects.snapshot() {
		d.objects.delete(o.id)
	}

	d.backend.ReleaseExporter(d)
	if d.device != 0 {
		if err := d.api.DestroyDeviceContext(d.device); err != nil && firstErr == nil {
			firstErr = opFailed("destroy device context", err)
		}
		d.device = 0
	}
	n := instanceCount.Add(-1)
	d.log.Info().Int32("instances", n).Msg("terminated")
	return firstErr
}

// rtFormatsForProfile is the render-target format set a profile can decode
// to, before capability masking. High bit depths imply the lower ones in the
// same chroma family.
func rtFormatsForProfile(p Profile) RTFormat {
	f := RTFormatYUV420
	switch p {
	case ProfileHEVCMain12, ProfileVP9Profile2:
		f |= RTFormatYUV420_12 | RTFormatYUV420_10
	case ProfileHEVCMain10, ProfileAV1Profile0:
		f |= RTFormatYUV420_10
	case ProfileHEVCMain444_12, ProfileVP9Profile3:
		f |= RTFormatYUV444_12 | RTFormatYUV420_12 |
			RTFormatYUV444_10 | RTFormatYUV420_10 | RTFormatYUV444
	case ProfileHEVCMain444_10, ProfileAV1Profile1:
		f |= RTFormatYUV444_10 | RTFormatYUV420_10 | RTFormatYUV444
	case ProfileHEVCMain444, ProfileVP9Profile1:
		f |= RTFormatYUV444
	}
	return f
}

func (d *Driver) maskRTFormats(f RTFormat) RTFormat {
	if !d.cfg.Supports16BitSurface {
		f &^= RTFormatYUV420_10 | RTFormatYUV420_12 | RTFormatYUV444_10 | RTFormatYUV444_12
	}
	if !d.cfg.Supports444Surface {
		f &^= RTFormatYUV444 | RTFormatYUV444_10 | RTFormatYUV444_12
	}
	return f
}

// ConfigAttributes describes what a profile/entrypoint pair can do before a
// config exists.
type ConfigAttributes struct {
	RTFormats        RTFormat
	MaxPictureWidth  int
	MaxPictureHeight int
}

// GetConfigAttributes reports the render-target formats and picture size
// limits for a profile/entrypoint pair.
func (d *Driver) GetConfigAttributes(profile Profile, entrypoint Entrypoint) (ConfigAttributes, error) {
	codec := profileToHardwareCodec(profile)
	if codec == CodecNone {
		return ConfigAttributes{}, ErrUnsupportedProfile
	}
	if entrypoint != EntrypointVLD {
		return ConfigAttributes{}, ErrUnsupportedEntrypoint
	}
	caps, err := d.supportsCodec(codec, 8, Chroma420)
	if err != nil {
		return ConfigAttributes{}, err
	}
	return ConfigAttributes{
		RTFormats:        d.maskRTFormats(rtFormatsForProfile(profile)),
		MaxPictureWidth:  caps.MaxWidth,
		MaxPictureHeight: caps.MaxHeight,
	}, nil
}

// CreateConfig negotiates a decode configuration. requestedRT narrows the
// surface format choice for profiles that span several bit depths; zero
// means unspecified. The surface fields chosen here are provisional until
// CreateContext sees real render targets.
func (d *Driver) CreateConfig(profile Profile, entrypoint Entrypoint, requestedRT RTFormat) (ConfigID, error) {
	if profileToHardwareCodec(profile) == CodecNone {
		d.log.Warn().Stringer("profile", profile).Msg("profile not supported")
		return 0, ErrUnsupportedProfile
	}
	if entrypoint != EntrypointVLD {
		d.log.Warn().Stringer("entrypoint", entrypoint).Msg("entrypoint not supported")
		return 0, ErrUnsupportedEntrypoint
	}

	cfg := &Config{
		profile:       profile,
		entrypoint:    entrypoint,
		surfaceFormat: SurfaceNV12,
		chromaFormat:  Chroma420,
		bitDepth:      8,
	}

	if d.cfg.Supports16BitSurface {
		switch profile {
		case ProfileHEVCMain10:
			cfg.surfaceFormat, cfg.bitDepth = SurfaceP016, 10
		case ProfileHEVCMain12:
			cfg.surfaceFormat, cfg.bitDepth = SurfaceP016, 12
		case ProfileVP9Profile2, ProfileAV1Profile0:
			switch requestedRT {
			case RTFormatYUV420_12:
				cfg.surfaceFormat, cfg.bitDepth = SurfaceP016, 12
			case RTFormatYUV420_10:
				cfg.surfaceFormat, cfg.bitDepth = SurfaceP016, 10
			case 0:
				if profile == ProfileVP9Profile2 {
					cfg.surfaceFormat, cfg.bitDepth = SurfaceP016, 10
				} else {
					d.log.Warn().Msg("no render target format requested, surface type for VP9/AV1 undetermined")
				}
			}
		}
	}
	if d.cfg.Supports444Surface {
		switch profile {
		case ProfileHEVCMain444, ProfileVP9Profile1, ProfileAV1Profile1:
			cfg.surfaceFormat, cfg.chromaFormat, cfg.bitDepth = SurfaceYUV444, Chroma444, 8
		}
	}
	if d.cfg.Supports444Surface && d.cfg.Supports16BitSurface {
		switch profile {
		case ProfileHEVCMain444_10:
			cfg.surfaceFormat, cfg.chromaFormat, cfg.bitDepth = SurfaceYUV444_16, Chroma444, 10
		case ProfileHEVCMain444_12:
			cfg.surfaceFormat, cfg.chromaFormat, cfg.bitDepth = SurfaceYUV444_16, Chroma444, 12
		case ProfileVP9Profile3, ProfileAV1Profile1:
			switch requestedRT {
			case RTFormatYUV444_12:
				cfg.surfaceFormat, cfg.chromaFormat, cfg.bitDepth = SurfaceYUV444_16, Chroma444, 12
			case RTFormatYUV444_10:
				cfg.surfaceFormat, cfg.chromaFormat, cfg.bitDepth = SurfaceYUV444_16, Chroma444, 10
			case RTFormatYUV444:
				cfg.surfaceFormat, cfg.chromaFormat, cfg.bitDepth = SurfaceYUV444, Chroma444, 8
			case 0:
				if profile == ProfileVP9Profile3 {
					cfg.surfaceFormat, cfg.chromaFormat, cfg.bitDepth = SurfaceYUV444_16, Chroma444, 10
				}
			}
		}
	}

	obj := d.objects.allocate(objectConfig, cfg)
	cfg.id = ConfigID(obj.id)
	return cfg.id, nil
}

// DestroyConfig frees a config. Contexts created from it are unaffected.
func (d *Driver) DestroyConfig(id ConfigID) error {
	if _, err := d.configByID(id); err != nil {
		return err
	}
	d.objects.delete(GenericID(id))
	return nil
}

// QueryConfigAttributes reports a config's negotiated profile, entrypoint
// and render-target format set.
func (d *Driver) QueryConfigAttributes(id ConfigID) (Profile, Entrypoint, RTFormat, error) {
	cfg, err := d.configByID(id)
	if err != nil {
		return ProfileNone, EntrypointNone, 0, err
	}
	return cfg.profile, cfg.entrypoint, d.maskRTFormats(rtFormatsForProfile(cfg.profile)), nil
}

// SurfaceAttributes are the constraints surfaces for a config must satisfy.
type SurfaceAttributes struct {
	MinWidth     int
	MinHeight    int
	MaxWidth     int
	MaxHeight    int
	PixelFormats []uint32
}

// QuerySurfaceAttributes reports size constraints from a live hardware probe
// plus the pixel formats the config's chroma family can take.
func (d *Driver) QuerySurfaceAttributes(id ConfigID) (SurfaceAttributes, error) {
	cfg, err := d.configByID(id)
	if err != nil {
		return SurfaceAttributes{}, err
	}
	if cfg.chromaFormat != Chroma420 && cfg.chromaFormat != Chroma444 {
		return SurfaceAttributes{}, ErrInvalidParameter
	}
	if (cfg.chromaFormat == Chroma444 || cfg.surfaceFormat == SurfaceYUV444_16) && !d.cfg.Supports444Surface {
		return SurfaceAttributes{}, ErrInvalidParameter
	}
	if cfg.surfaceFormat == SurfaceP016 && !d.cfg.Supports16BitSurface {
		return SurfaceAttributes{}, ErrInvalidParameter
	}

	caps, err := d.supportsCodec(profileToHardwareCodec(cfg.profile), cfg.bitDepth, cfg.chromaFormat)
	if err != nil {
		return SurfaceAttributes{}, err
	}
	attrs := SurfaceAttributes{
		MinWidth:  caps.MinWidth,
		MinHeight: caps.MinHeight,
		MaxWidth:  caps.MaxWidth,
		MaxHeight: caps.MaxHeight,
	}
	if cfg.chromaFormat == Chroma444 {
		attrs.PixelFormats = []uint32{FourCC444P, FourCCQ416}
	} else {
		attrs.PixelFormats = []uint32{FourCCNV12}
		if d.cfg.Supports16BitSurface {
			attrs.PixelFormats = append(attrs.PixelFormats, FourCCP010, FourCCP012, FourCCP016)
		}
	}
	return attrs, nil
}

// ExportSurfaceHandle fills a DRM PRIME 2 descriptor for the surface,
// realising its backing image first if needed. Only separate-layer export is
// supported.
func (d *Driver) ExportSurfaceHandle(id SurfaceID, memType MemoryType, separateLayers bool) (ExportDescriptor, error) {
	if memType != MemoryDRMPrime2 {
		return ExportDescriptor{}, ErrUnsupportedMemoryType
	}
	if !separateLayers {
		return ExportDescriptor{}, ErrInvalidParameter
	}
	s, err := d.surfaceByID(id)
	if err != nil {
		return ExportDescriptor{}, err
	}
	if err := d.backend.RealiseSurface(d, s); err != nil {
		d.log.Warn().Err(err).Uint32("surface", uint32(id)).Msg("unable to export surface")
		return ExportDescriptor{}, ErrAllocationFailed
	}
	var desc ExportDescriptor
	if err := d.backend.FillExportDescriptor(d, s, &desc); err != nil {
		return ExportDescriptor{}, err
	}
	return desc, nil
}

func (d *Driver) configByID(id ConfigID) (*Config, error) {
	p := d.objects.payload(GenericID(id), objectConfig)
	if p == nil {
		return nil, ErrInvalidHandle
	}
	return p.(*Config), nil
}
