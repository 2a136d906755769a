package nvd

import "fmt"

// MemoryType selects the export representation of a surface.
type MemoryType int

const (
	// MemoryDRMPrime2 is the only export memory type the driver produces.
	MemoryDRMPrime2 MemoryType = iota + 1
)

// BackingImage is the realized, consumable form of a surface's decoded
// pixels. The direct backend fills Planes with host copies; a zero-copy
// backend would leave Planes nil and populate the descriptor fields instead.
type BackingImage struct {
	Width    int
	Height   int
	Format   SurfaceFormat
	FourCC   uint32
	Planes   [][]byte
	Pitches  []int
	Offsets  []int
	Modifier uint64
}

// ExportDescriptor describes a surface for handoff to another API, in the
// shape of a DRM PRIME 2 descriptor.
type ExportDescriptor struct {
	FourCC    uint32
	Width     int
	Height    int
	NumLayers int
	Pitches   []int
	Offsets   []int
	Modifier  uint64
}

// Backend is the pluggable backing-store strategy. The resolver hands every
// successfully mapped frame to ExportFrame; readback and surface export go
// through RealiseSurface and FillExportDescriptor lazily.
type Backend interface {
	Name() string

	// InitExporter prepares the backend for the driver instance. An error
	// fails Open.
	InitExporter(d *Driver) error
	ReleaseExporter(d *Driver)

	// ExportFrame consumes one mapped decoded frame while the mapping is
	// live. Implementations must not retain the device pointer past return.
	ExportFrame(d *Driver, s *Surface, frame FrameMapping) error

	// RealiseSurface materializes the surface's backing image if it is not
	// already attached.
	RealiseSurface(d *Driver, s *Surface) error

	DetachBackingImage(d *Driver, s *Surface)
	DestroyAllBackingImages(d *Driver)

	FillExportDescriptor(d *Driver, s *Surface, desc *ExportDescriptor) error
}

// backendFor resolves a backend name. The egl zero-copy path is selectable
// for compatibility but not built into this driver.
func backendFor(name string) (Backend, error) {
	switch name {
	case "", "direct":
		return &directBackend{}, nil
	case "egl":
		return nil, fmt.Errorf("backend %q not available: %w", name, ErrUnimplemented)
	default:
		return nil, fmt.Errorf("backend %q: %w", name, ErrInvalidParameter)
	}
}

// directBackend realizes surfaces as host memory. Each mapped frame is
// copied plane by plane through the hardware 2D copy engine, so readback and
// export never touch device memory after the resolver returns.
type directBackend struct{}

func (b *directBackend) Name() string { return "direct" }

func (b *directBackend) InitExporter(_ *Driver) error { return nil }

func (b *directBackend) ReleaseExporter(_ *Driver) {}

// ExportFrame copies the mapped frame into the surface's backing image. The
// hardware lays frames out as luma rows followed by chroma rows at the same
// pitch, with 4:2:0 chroma at half height.
func (b *directBackend) ExportFrame(d *Driver, s *Surface, frame FrameMapping) error {
	info := s.formatInfo()
	img := s.ensureBackingImage(info)

	srcY := 0
	for i, pl := range info.planes {
		planeHeight := s.height >> pl.ssY
		rowBytes := (s.width >> pl.ssX) * info.bppc * pl.channels
		err := d.api.Copy2D(Copy2DParams{
			Src:          frame.DevicePtr,
			SrcPitch:     frame.Pitch,
			SrcYStart:    srcY,
			Dst:          img.Planes[i],
			DstPitch:     rowBytes,
			WidthInBytes: rowBytes,
			Height:       planeHeight,
		})
		if err != nil {
			return opFailed("frame plane copy", err)
		}
		srcY += planeHeight
	}
	return nil
}

// RealiseSurface is satisfied by the copies ExportFrame already made. A
// surface that was never decoded into realizes as zeroed planes so readback
// of an untouched surface stays well defined.
func (b *directBackend) RealiseSurface(_ *Driver, s *Surface) error {
	s.ensureBackingImage(s.formatInfo())
	return nil
}

func (b *directBackend) DetachBackingImage(_ *Driver, s *Surface) {
	s.backingImage = nil
}

func (b *directBackend) DestroyAllBackingImages(d *Driver) {
	for _, o := range d.objects.snapshot() {
		if o.typ != objectSurface {
			continue
		}
		o.payload.(*Surface).backingImage = nil
	}
}

func (b *directBackend) FillExportDescriptor(_ *Driver, s *Surface, desc *ExportDescriptor) error {
	img := s.backingImage
	if img == nil {
		return ErrOperationFailed
	}
	desc.FourCC = img.FourCC
	desc.Width = img.Width
	desc.Height = img.Height
	desc.NumLayers = len(img.Planes)
	desc.Pitches = append(desc.Pitches[:0], img.Pitches...)
	desc.Offsets = append(desc.Offsets[:0], img.Offsets...)
	desc.Modifier = img.Modifier
	return nil
}
