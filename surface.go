package nvd

import "sync"

// Surface is one decode target. The resolving flag plus mu/cond form the
// decode-completion handshake between EndPicture, the resolver and
// SyncSurface; mu is never a general surface lock.
type Surface struct {
	id       SurfaceID
	width    int
	height   int
	format   SurfaceFormat
	chroma   ChromaFormat
	bitDepth int

	// pictureIdx is the hardware decode-surface index, -1 until
	// BeginPicture binds the surface to a context. Valid only while
	// context is the owning context.
	pictureIdx int
	context    *Context

	backingImage *BackingImage

	mu           sync.Mutex
	cond         *sync.Cond
	resolving    bool
	decodeFailed bool
}

func roundUp2(v int) int { return (v + 1) &^ 1 }

// CreateSurfaces2 allocates count decode surfaces of the given render
// target format. 4:2:0 dimensions round up to even; the hardware cannot
// address odd chroma.
func (d *Driver) CreateSurfaces2(format RTFormat, width, height, count int) ([]SurfaceID, error) {
	if width <= 0 || height <= 0 || count <= 0 {
		return nil, ErrInvalidParameter
	}

	var (
		sf       SurfaceFormat
		chroma   ChromaFormat
		bitDepth int
	)
	switch format {
	case RTFormatYUV420:
		sf, chroma, bitDepth = SurfaceNV12, Chroma420, 8
	case RTFormatYUV420_10:
		sf, chroma, bitDepth = SurfaceP016, Chroma420, 10
	case RTFormatYUV420_12:
		sf, chroma, bitDepth = SurfaceP016, Chroma420, 12
	case RTFormatYUV444:
		sf, chroma, bitDepth = SurfaceYUV444, Chroma444, 8
	case RTFormatYUV444_10:
		sf, chroma, bitDepth = SurfaceYUV444_16, Chroma444, 10
	case RTFormatYUV444_12:
		sf, chroma, bitDepth = SurfaceYUV444_16, Chroma444, 12
	default:
		d.log.Warn().Uint32("format", uint32(format)).Msg("unknown render target format")
		return nil, ErrUnsupportedRTFormat
	}

	switch chroma {
	case Chroma422:
		width = roundUp2(width)
	case Chroma420:
		width = roundUp2(width)
		height = roundUp2(height)
	}

	ids := make([]SurfaceID, count)
	for i := range ids {
		s := &Surface{
			width:      width,
			height:     height,
			format:     sf,
			chroma:     chroma,
			bitDepth:   bitDepth,
			pictureIdx: -1,
		}
		s.cond = sync.NewCond(&s.mu)
		obj := d.objects.allocate(objectSurface, s)
		s.id = SurfaceID(obj.id)
		ids[i] = s.id
		d.log.Debug().
			Uint32("surface", uint32(s.id)).
			Int("width", width).
			Int("height", height).
			Stringer("format", sf).
			Msg("created surface")
	}
	return ids, nil
}

// CreateSurfaces is the legacy entry point without surface attributes.
func (d *Driver) CreateSurfaces(width, height int, format RTFormat, count int) ([]SurfaceID, error) {
	return d.CreateSurfaces2(format, width, height, count)
}

// DestroySurfaces frees each surface, detaching its backing image first.
// Destroying a surface still queued for resolution is a client error; the
// resolver holds its own pointer so the worst case is wasted work.
func (d *Driver) DestroySurfaces(ids []SurfaceID) error {
	for _, id := range ids {
		s, err := d.surfaceByID(id)
		if err != nil {
			return err
		}
		d.backend.DetachBackingImage(d, s)
		d.objects.delete(GenericID(id))
	}
	return nil
}

// SyncSurface blocks until the surface's most recent decode has resolved.
// Returns ErrDecoding if that decode failed; the surface stays usable.
func (d *Driver) SyncSurface(id SurfaceID) error {
	s, err := d.surfaceByID(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	for s.resolving {
		s.cond.Wait()
	}
	failed := s.decodeFailed
	s.mu.Unlock()
	if failed {
		return ErrDecoding
	}
	return nil
}

// markResolving flags a freshly submitted decode. Called by BeginPicture
// before the picture can possibly complete.
func (s *Surface) markResolving() {
	s.mu.Lock()
	s.resolving = true
	s.decodeFailed = false
	s.mu.Unlock()
}

// finishResolve clears the handshake and wakes every SyncSurface waiter.
// Runs for failed decodes too, so a waiter never hangs on a bad frame.
func (s *Surface) finishResolve() {
	s.mu.Lock()
	s.resolving = false
	s.cond.Broadcast()
	s.mu.Unlock()
}

// ensureBackingImage attaches a host backing image sized for the surface if
// none is present.
func (s *Surface) ensureBackingImage(info *formatInfo) *BackingImage {
	if s.backingImage != nil {
		return s.backingImage
	}
	img := &BackingImage{
		Width:  s.width,
		Height: s.height,
		Format: s.format,
		FourCC: info.fourcc,
	}
	offset := 0
	for _, pl := range info.planes {
		rowBytes := (s.width >> pl.ssX) * info.bppc * pl.channels
		size := rowBytes * (s.height >> pl.ssY)
		img.Planes = append(img.Planes, make([]byte, size))
		img.Pitches = append(img.Pitches, rowBytes)
		img.Offsets = append(img.Offsets, offset)
		offset += size
	}
	s.backingImage = img
	return img
}

func (d *Driver) surfaceByID(id SurfaceID) (*Surface, error) {
	p := d.objects.payload(GenericID(id), objectSurface)
	if p == nil {
		return nil, ErrInvalidHandle
	}
	return p.(*Surface), nil
}
