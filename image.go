package nvd

// FourCC codes for the client-visible image formats.
const (
	FourCCNV12 uint32 = 0x3231564e // "NV12"
	FourCCP010 uint32 = 0x30313050 // "P010"
	FourCCP012 uint32 = 0x32313050 // "P012"
	FourCCP016 uint32 = 0x36313050 // "P016"
	FourCC444P uint32 = 0x50343434 // "444P"
	FourCCQ416 uint32 = 0x36313451 // "Q416"
)

type planeInfo struct {
	channels int
	ssX      int // log2 horizontal subsampling
	ssY      int // log2 vertical subsampling
}

// formatInfo describes one image format: bytes per channel, the plane
// layout, and the capability gates that hide it from clients on hardware
// without 16-bit or 4:4:4 surface support.
type formatInfo struct {
	fourcc       uint32
	bppc         int
	bitsPerPixel int
	is16         bool
	is444        bool
	planes       []planeInfo
}

var imageFormats = []*formatInfo{
	{fourcc: FourCCNV12, bppc: 1, bitsPerPixel: 12, planes: []planeInfo{{channels: 1}, {channels: 2, ssX: 1, ssY: 1}}},
	{fourcc: FourCCP010, bppc: 2, bitsPerPixel: 24, is16: true, planes: []planeInfo{{channels: 1}, {channels: 2, ssX: 1, ssY: 1}}},
	{fourcc: FourCCP012, bppc: 2, bitsPerPixel: 24, is16: true, planes: []planeInfo{{channels: 1}, {channels: 2, ssX: 1, ssY: 1}}},
	{fourcc: FourCCP016, bppc: 2, bitsPerPixel: 24, is16: true, planes: []planeInfo{{channels: 1}, {channels: 2, ssX: 1, ssY: 1}}},
	{fourcc: FourCC444P, bppc: 1, bitsPerPixel: 24, is444: true, planes: []planeInfo{{channels: 1}, {channels: 1}, {channels: 1}}},
	{fourcc: FourCCQ416, bppc: 2, bitsPerPixel: 48, is16: true, is444: true, planes: []planeInfo{{channels: 1}, {channels: 1}, {channels: 1}}},
}

func formatByFourCC(fourcc uint32) *formatInfo {
	for _, f := range imageFormats {
		if f.fourcc == fourcc {
			return f
		}
	}
	return nil
}

// formatInfo resolves the surface's natural image format from its surface
// format and bit depth.
func (s *Surface) formatInfo() *formatInfo {
	switch s.format {
	case SurfaceP016:
		switch s.bitDepth {
		case 10:
			return formatByFourCC(FourCCP010)
		case 12:
			return formatByFourCC(FourCCP012)
		default:
			return formatByFourCC(FourCCP016)
		}
	case SurfaceYUV444:
		return formatByFourCC(FourCC444P)
	case SurfaceYUV444_16:
		return formatByFourCC(FourCCQ416)
	default:
		return formatByFourCC(FourCCNV12)
	}
}

// planeSize is the byte size of one plane of a width x height image.
func (f *formatInfo) planeSize(width, height int, p planeInfo) int {
	return ((width * height) >> (p.ssX + p.ssY)) * f.bppc * p.channels
}

// ImageFormat is the client-facing description of a supported readback
// format.
type ImageFormat struct {
	FourCC       uint32
	BitsPerPixel int
}

// QueryImageFormats lists the image formats readback supports, filtered by
// the driver's surface capability flags.
func (d *Driver) QueryImageFormats() ([]ImageFormat, error) {
	var out []ImageFormat
	for _, f := range imageFormats {
		if f.is16 && !d.cfg.Supports16BitSurface {
			continue
		}
		if f.is444 && !d.cfg.Supports444Surface {
			continue
		}
		out = append(out, ImageFormat{FourCC: f.fourcc, BitsPerPixel: f.bitsPerPixel})
	}
	return out, nil
}

// Image is a host-resident destination for surface readback. The pixel
// buffer is a regular driver buffer so clients map it with MapBuffer.
type Image struct {
	id     ImageID
	width  int
	height int
	info   *formatInfo
	buffer *Buffer
}

// ImageDescriptor is the client view of a created image.
type ImageDescriptor struct {
	ID        ImageID
	Buffer    BufferID
	FourCC    uint32
	Width     int
	Height    int
	DataSize  int
	NumPlanes int
	Pitches   []int
	Offsets   []int
}

// CreateImage allocates an image and its pixel buffer. The buffer holds the
// planes packed back to back; every plane shares the luma pitch.
func (d *Driver) CreateImage(fourcc uint32, width, height int) (ImageDescriptor, error) {
	info := formatByFourCC(fourcc)
	if info == nil {
		return ImageDescriptor{}, ErrInvalidParameter
	}
	if width <= 0 || height <= 0 {
		return ImageDescriptor{}, ErrInvalidParameter
	}

	size := 0
	for _, p := range info.planes {
		size += info.planeSize(width, height, p)
	}

	buf := &Buffer{
		bufferType: BufferImage,
		elements:   1,
		size:       size,
		data:       make([]byte, size),
	}
	bufObj := d.objects.allocate(objectBuffer, buf)
	buf.id = BufferID(bufObj.id)

	img := &Image{width: width, height: height, info: info, buffer: buf}
	imgObj := d.objects.allocate(objectImage, img)
	img.id = ImageID(imgObj.id)
	d.log.Debug().Uint32("image", uint32(img.id)).Msg("created image")

	desc := ImageDescriptor{
		ID:        img.id,
		Buffer:    buf.id,
		FourCC:    fourcc,
		Width:     width,
		Height:    height,
		DataSize:  size,
		NumPlanes: len(info.planes),
	}
	offset := 0
	for _, p := range info.planes {
		desc.Pitches = append(desc.Pitches, width*info.bppc)
		desc.Offsets = append(desc.Offsets, offset)
		offset += info.planeSize(width, height, p)
	}
	return desc, nil
}

// DestroyImage frees an image and its pixel buffer.
func (d *Driver) DestroyImage(id ImageID) error {
	img, err := d.imageByID(id)
	if err != nil {
		return err
	}
	if o := d.objects.lookupByPayload(img.buffer); o != nil {
		d.objects.delete(o.id)
	}
	d.objects.delete(GenericID(id))
	return nil
}

// GetImage reads the surface's decoded pixels into the image's buffer. The
// surface must have been decoded into by a live context. Blocks until the
// surface's pending decode resolves.
func (d *Driver) GetImage(surfaceID SurfaceID, imageID ImageID, width, height int) error {
	s, err := d.surfaceByID(surfaceID)
	if err != nil {
		return err
	}
	img, err := d.imageByID(imageID)
	if err != nil {
		return err
	}
	if s.context == nil {
		return ErrInvalidHandle
	}
	if err := d.SyncSurface(surfaceID); err != nil {
		return err
	}
	if err := d.backend.RealiseSurface(d, s); err != nil {
		return err
	}

	backing := s.backingImage
	if backing == nil || len(backing.Planes) < len(img.info.planes) {
		return ErrOperationFailed
	}

	offset := 0
	for i, p := range img.info.planes {
		rowBytes := (width >> p.ssX) * img.info.bppc * p.channels
		rows := height >> p.ssY
		dstPitch := width * img.info.bppc
		src := backing.Planes[i]
		srcPitch := backing.Pitches[i]
		for row := 0; row < rows; row++ {
			srcOff := row * srcPitch
			dstOff := offset + row*dstPitch
			if srcOff+rowBytes > len(src) || dstOff+rowBytes > len(img.buffer.data) {
				return ErrOperationFailed
			}
			copy(img.buffer.data[dstOff:dstOff+rowBytes], src[srcOff:srcOff+rowBytes])
		}
		offset += img.info.planeSize(width, height, p)
	}
	return nil
}

func (d *Driver) imageByID(id ImageID) (*Image, error) {
	p := d.objects.payload(GenericID(id), objectImage)
	if p == nil {
		return nil, ErrInvalidHandle
	}
	return p.(*Image), nil
}
