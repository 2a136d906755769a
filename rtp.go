package nvd

import (
	"encoding/binary"
	"fmt"

	"github.com/pion/rtp"
	"github.com/pion/rtp/codecs"
)

// H264RTPFeeder bridges an H.264 RTP stream into a decode context. Each
// packet is depacketized to Annex-B NAL units; when an access unit completes
// (marker bit or timestamp change) it is submitted as one picture.
type H264RTPFeeder struct {
	drv   *Driver
	ctx   ContextID
	depkt codecs.H264Packet

	lastTimestamp uint32
	haveTimestamp bool
	accessUnit    []byte
	target        int
	surfaces      []SurfaceID
}

// NewH264RTPFeeder builds a feeder decoding into the given surfaces in
// round-robin order.
func NewH264RTPFeeder(drv *Driver, ctx ContextID, surfaces []SurfaceID) (*H264RTPFeeder, error) {
	if len(surfaces) == 0 {
		return nil, ErrInvalidParameter
	}
	return &H264RTPFeeder{drv: drv, ctx: ctx, surfaces: surfaces}, nil
}

// Push processes one RTP packet. Returns the surface a completed picture was
// submitted to, or 0 if the packet only extended the current access unit.
func (f *H264RTPFeeder) Push(pkt *rtp.Packet) (SurfaceID, error) {
	var submitted SurfaceID
	if f.haveTimestamp && pkt.Timestamp != f.lastTimestamp && len(f.accessUnit) > 0 {
		id, err := f.flush()
		if err != nil {
			return 0, err
		}
		submitted = id
	}
	f.lastTimestamp = pkt.Timestamp
	f.haveTimestamp = true

	nalus, err := f.depkt.Unmarshal(pkt.Payload)
	if err != nil {
		return submitted, fmt.Errorf("depacketize: %w", err)
	}
	f.accessUnit = append(f.accessUnit, nalus...)

	if pkt.Marker && len(f.accessUnit) > 0 {
		id, err := f.flush()
		if err != nil {
			return submitted, err
		}
		submitted = id
	}
	return submitted, nil
}

// flush submits the accumulated access unit as one picture.
func (f *H264RTPFeeder) flush() (SurfaceID, error) {
	surface := f.surfaces[f.target]
	f.target = (f.target + 1) % len(f.surfaces)

	au := f.accessUnit
	f.accessUnit = nil

	if err := f.drv.BeginPicture(f.ctx, surface); err != nil {
		return 0, err
	}

	sliceParam := make([]byte, 8)
	binary.LittleEndian.PutUint32(sliceParam, uint32(len(au)))
	paramBuf, err := f.drv.CreateBuffer(f.ctx, BufferSliceParameter, len(sliceParam), 1, sliceParam)
	if err != nil {
		return 0, err
	}
	dataBuf, err := f.drv.CreateBuffer(f.ctx, BufferSliceData, len(au), 1, au)
	if err != nil {
		_ = f.drv.DestroyBuffer(paramBuf)
		return 0, err
	}

	renderErr := f.drv.RenderPicture(f.ctx, []BufferID{paramBuf, dataBuf})
	_ = f.drv.DestroyBuffer(paramBuf)
	_ = f.drv.DestroyBuffer(dataBuf)
	if renderErr != nil {
		return 0, renderErr
	}
	if err := f.drv.EndPicture(f.ctx); err != nil {
		return 0, err
	}
	return surface, nil
}
