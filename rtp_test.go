package nvd

import (
	"testing"

	"github.com/pion/rtp"
	"github.com/stretchr/testify/require"
)

var annexBPrefix = []byte{0x00, 0x00, 0x00, 0x01}

func h264Packet(seq uint16, ts uint32, marker bool, nalu []byte) *rtp.Packet {
	return &rtp.Packet{
		Header: rtp.Header{
			Version:        2,
			PayloadType:    96,
			SequenceNumber: seq,
			Timestamp:      ts,
			Marker:         marker,
		},
		Payload: nalu,
	}
}

func TestH264RTPFeeder_MarkerFlushes(t *testing.T) {
	api := newFakeDecodeAPI()
	d := openTestDriver(t, api)
	ctxID, surfaces := newDecodeSession(t, d, ProfileH264Main, 2)
	defer func() { require.NoError(t, d.DestroyContext(ctxID)) }()

	feeder, err := NewH264RTPFeeder(d, ctxID, surfaces)
	require.NoError(t, err)

	nalu := []byte{0x65, 0x88, 0x84, 0x00} // IDR slice
	id, err := feeder.Push(h264Packet(1, 1000, true, nalu))
	require.NoError(t, err)
	require.Equal(t, surfaces[0], id)
	require.NoError(t, d.SyncSurface(id))

	require.Equal(t, 1, api.decodedCount())
	pic := api.lastDecoded()
	require.Equal(t, append(append([]byte{}, annexBPrefix...), nalu...), pic.Bitstream)
	require.Equal(t, 1, pic.NumSlices)
	require.Equal(t, []uint32{0}, pic.SliceOffsets)
}

func TestH264RTPFeeder_TimestampChangeFlushes(t *testing.T) {
	api := newFakeDecodeAPI()
	d := openTestDriver(t, api)
	ctxID, surfaces := newDecodeSession(t, d, ProfileH264Main, 2)
	defer func() { require.NoError(t, d.DestroyContext(ctxID)) }()

	feeder, err := NewH264RTPFeeder(d, ctxID, surfaces)
	require.NoError(t, err)

	// a frame whose sender never set the marker bit
	id, err := feeder.Push(h264Packet(1, 1000, false, []byte{0x61, 0x01}))
	require.NoError(t, err)
	require.Zero(t, id, "no flush before the access unit completes")
	require.Equal(t, 0, api.decodedCount())

	// next timestamp forces the previous access unit out
	id, err = feeder.Push(h264Packet(2, 2000, false, []byte{0x61, 0x02}))
	require.NoError(t, err)
	require.Equal(t, surfaces[0], id)
	require.Equal(t, 1, api.decodedCount())
}

func TestH264RTPFeeder_RoundRobinSurfaces(t *testing.T) {
	api := newFakeDecodeAPI()
	d := openTestDriver(t, api)
	ctxID, surfaces := newDecodeSession(t, d, ProfileH264Main, 2)
	defer func() { require.NoError(t, d.DestroyContext(ctxID)) }()

	feeder, err := NewH264RTPFeeder(d, ctxID, surfaces)
	require.NoError(t, err)

	first, err := feeder.Push(h264Packet(1, 1000, true, []byte{0x65, 0x01}))
	require.NoError(t, err)
	second, err := feeder.Push(h264Packet(2, 2000, true, []byte{0x61, 0x02}))
	require.NoError(t, err)
	third, err := feeder.Push(h264Packet(3, 3000, true, []byte{0x61, 0x03}))
	require.NoError(t, err)

	require.Equal(t, surfaces[0], first)
	require.Equal(t, surfaces[1], second)
	require.Equal(t, surfaces[0], third)
	require.Equal(t, 3, api.decodedCount())
}

func TestNewH264RTPFeeder_RequiresSurfaces(t *testing.T) {
	d := openTestDriver(t, newFakeDecodeAPI())
	ctxID, _ := newDecodeSession(t, d, ProfileH264Main, 1)
	defer func() { require.NoError(t, d.DestroyContext(ctxID)) }()

	_, err := NewH264RTPFeeder(d, ctxID, nil)
	require.ErrorIs(t, err, ErrInvalidParameter)
}
