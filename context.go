package nvd

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	// defaultDecodeSurfaces is the decode-surface pool size when the client
	// gives no render targets, and the hard ceiling either way.
	defaultDecodeSurfaces = 32

	// resolveQueueDepth bounds the per-context resolve backlog.
	resolveQueueDepth = 64
)

// resolverJoinTimeout bounds how long DestroyContext waits for the resolver
// goroutine. A resolver stuck inside a hardware call must not wedge
// teardown.
var resolverJoinTimeout = 5 * time.Second

// Context is one decode session: a hardware decoder, the codec translating
// client buffers for it, and the resolver goroutine making finished frames
// consumable.
type Context struct {
	id  ContextID
	drv *Driver
	log zerolog.Logger

	decoder    DecoderHandle
	codec      *codecDescriptor
	profile    Profile
	entrypoint Entrypoint
	width      int
	height     int

	// poolSize is the hardware decode-surface pool; currentPictureID hands
	// out indices monotonically under surfaceMu.
	poolSize         int
	surfaceMu        sync.Mutex
	currentPictureID int

	// picture-in-progress state between BeginPicture and EndPicture.
	// bitstream and sliceOffsets are reused across pictures; handlers
	// append, EndPicture attaches and resets.
	renderTarget *Surface
	picParams    PictureParams
	bitstream    []byte
	sliceOffsets []uint32

	resolveQueue chan resolveRequest
	quit         chan struct{}
	done         chan struct{}
	destroyOnce  sync.Once
}

// CreateContext builds a decode session for the given config. When render
// targets are supplied the first one refines the config's surface format,
// chroma and bit depth, and their count sizes the decode-surface pool
// (clamped to 32, the hardware maximum).
func (d *Driver) CreateContext(configID ConfigID, width, height int, renderTargets []SurfaceID) (ContextID, error) {
	cfg, err := d.configByID(configID)
	if err != nil {
		return 0, err
	}
	codec := codecForProfile(cfg.profile)
	if codec == nil {
		d.log.Warn().Stringer("profile", cfg.profile).Msg("no codec for profile")
		return 0, ErrUnsupportedProfile
	}

	if len(renderTargets) > 0 {
		s, err := d.surfaceByID(renderTargets[0])
		if err != nil {
			return 0, ErrInvalidParameter
		}
		cfg.surfaceFormat = s.format
		cfg.chromaFormat = s.chroma
		cfg.bitDepth = s.bitDepth
	}

	poolSize := len(renderTargets)
	if poolSize == 0 {
		poolSize = defaultDecodeSurfaces
	}
	if poolSize > defaultDecodeSurfaces {
		d.log.Warn().
			Int("requested", poolSize).
			Int("limit", defaultDecodeSurfaces).
			Msg("limiting decode surface pool, this may cause issues")
		poolSize = defaultDecodeSurfaces
	}

	displayWidth, displayHeight := width, height
	switch cfg.chromaFormat {
	case Chroma422:
		displayWidth = roundUp2(displayWidth)
	case Chroma420:
		displayWidth = roundUp2(displayWidth)
		displayHeight = roundUp2(displayHeight)
	}

	decoder, err := d.api.CreateDecoder(DecoderCreateInfo{
		Codec:          profileToHardwareCodec(cfg.profile),
		ChromaFormat:   cfg.chromaFormat,
		OutputFormat:   cfg.surfaceFormat,
		BitDepth:       cfg.bitDepth,
		Width:          width,
		Height:         height,
		DisplayWidth:   displayWidth,
		DisplayHeight:  displayHeight,
		DecodeSurfaces: poolSize,
		OutputSurfaces: 1,
	})
	if err != nil {
		return 0, opFailed("create decoder", err)
	}

	c := &Context{
		drv:          d,
		decoder:      decoder,
		codec:        codec,
		profile:      cfg.profile,
		entrypoint:   cfg.entrypoint,
		width:        width,
		height:       height,
		poolSize:     poolSize,
		resolveQueue: make(chan resolveRequest, resolveQueueDepth),
		quit:         make(chan struct{}),
		done:         make(chan struct{}),
	}
	obj := d.objects.allocate(objectContext, c)
	c.id = ContextID(obj.id)
	c.log = d.log.With().Uint32("context", uint32(c.id)).Logger()

	go c.resolveLoop()
	c.log.Debug().
		Stringer("profile", cfg.profile).
		Int("width", width).
		Int("height", height).
		Int("pool", poolSize).
		Msg("created context")
	return c.id, nil
}

// BeginPicture starts a decode into the given surface. A surface last owned
// by a different context is rebound: its backing image is detached and a
// fresh decode-surface index assigned from this context's pool.
func (d *Driver) BeginPicture(ctxID ContextID, surfaceID SurfaceID) error {
	c, err := d.contextByID(ctxID)
	if err != nil {
		return err
	}
	s, err := d.surfaceByID(surfaceID)
	if err != nil {
		return err
	}

	if s.context != nil && s.context != c {
		if s.backingImage != nil {
			d.backend.DetachBackingImage(d, s)
		}
		s.pictureIdx = -1
	}
	if s.pictureIdx == -1 {
		c.surfaceMu.Lock()
		if c.currentPictureID == c.poolSize {
			c.surfaceMu.Unlock()
			return ErrMaxSurfacesExceeded
		}
		s.pictureIdx = c.currentPictureID
		c.currentPictureID++
		c.surfaceMu.Unlock()
	}

	s.markResolving()
	c.picParams = PictureParams{CurrPicIdx: s.pictureIdx}
	c.renderTarget = s
	return nil
}

// RenderPicture feeds parameter and data buffers to the in-progress picture
// through the codec's handler table. Unknown buffer types are logged and
// skipped, not failed; clients routinely submit types a codec ignores.
func (d *Driver) RenderPicture(ctxID ContextID, buffers []BufferID) error {
	c, err := d.contextByID(ctxID)
	if err != nil {
		return err
	}
	for _, id := range buffers {
		buf, err := d.bufferByID(id)
		if err != nil {
			d.log.Warn().Uint32("buffer", uint32(id)).Msg("invalid buffer, skipping")
			continue
		}
		h := c.codec.handlers[buf.bufferType]
		if h == nil {
			c.log.Warn().Stringer("type", buf.bufferType).Msg("unhandled buffer type")
			continue
		}
		h(c, buf, &c.picParams)
	}
	return nil
}

// EndPicture submits the accumulated picture to the hardware and queues the
// target surface for resolution. The decode itself is synchronous; frame
// mapping happens on the resolver. A hardware decode failure is recorded on
// the surface and reported, the context stays usable.
func (d *Driver) EndPicture(ctxID ContextID) error {
	c, err := d.contextByID(ctxID)
	if err != nil {
		return err
	}
	s := c.renderTarget
	if s == nil {
		return ErrInvalidParameter
	}

	c.picParams.Bitstream = c.bitstream
	c.picParams.SliceOffsets = c.sliceOffsets
	c.bitstream = c.bitstream[:0]
	c.sliceOffsets = c.sliceOffsets[:0]

	decodeErr := d.api.DecodePicture(c.decoder, &c.picParams)
	if decodeErr != nil {
		c.log.Warn().Err(decodeErr).Int("pictureIdx", s.pictureIdx).Msg("decode picture failed")
	}

	s.context = c
	s.mu.Lock()
	s.decodeFailed = decodeErr != nil
	s.mu.Unlock()

	// snapshot everything the resolver needs; the surface may be rebound or
	// resubmitted before the resolver reaches this request
	req := resolveRequest{
		surface:    s,
		pictureIdx: c.picParams.CurrPicIdx,
		proc: FrameProcParams{
			ProgressiveFrame: true,
			TopFieldFirst:    !c.picParams.BottomFieldFlag,
			SecondField:      c.picParams.SecondField,
		},
	}
	select {
	case c.resolveQueue <- req:
	default:
		// A full queue means the client outran the resolver by the entire
		// queue depth. Fail the submission rather than overwrite pending
		// work, and release the waiter handshake so SyncSurface on this
		// surface cannot hang.
		s.mu.Lock()
		s.decodeFailed = true
		s.mu.Unlock()
		s.finishResolve()
		c.log.Error().Int("depth", resolveQueueDepth).Msg("resolve queue full")
		return ErrOperationFailed
	}

	if decodeErr != nil {
		return ErrDecoding
	}
	return nil
}

// DestroyContext tears the session down: the resolver is signalled and
// joined with a bounded wait, then the hardware decoder is destroyed. A
// resolver that fails to exit in time is logged and abandoned; the context
// object is freed regardless.
func (d *Driver) DestroyContext(ctxID ContextID) error {
	c, err := d.contextByID(ctxID)
	if err != nil {
		return err
	}
	destroyErr := c.shutdown()
	d.objects.delete(GenericID(ctxID))
	return destroyErr
}

func (c *Context) shutdown() error {
	var err error
	c.destroyOnce.Do(func() {
		close(c.quit)
		select {
		case <-c.done:
		case <-time.After(resolverJoinTimeout):
			c.log.Error().Dur("timeout", resolverJoinTimeout).Msg("resolver did not exit")
		}
		if c.decoder != 0 {
			if derr := c.drv.api.DestroyDecoder(c.decoder); derr != nil {
				c.log.Warn().Err(derr).Msg("destroy decoder failed")
				err = opFailed("destroy decoder", derr)
			}
			c.decoder = 0
		}
	})
	return err
}

func (d *Driver) contextByID(id ContextID) (*Context, error) {
	p := d.objects.payload(GenericID(id), objectContext)
	if p == nil {
		return nil, ErrInvalidHandle
	}
	return p.(*Context), nil
}
