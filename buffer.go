package nvd

// Buffer is the driver-side copy of a client parameter or data buffer. The
// data slice holds the full allocation; offset marks where the client's own
// bytes begin. offset is zero except for VP8 slice data, where the hardware
// wants the frame header bytes that precede the partition start, so the
// client passes them in and MapBuffer hides them again.
type Buffer struct {
	id         BufferID
	bufferType BufferType
	elements   int
	size       int
	data       []byte
	offset     int
}

// CreateBuffer copies data into a new driver buffer bound to the context's
// object table. size and elements describe the client's view; for VP8 slice
// data the data slice may carry extra leading frame-header bytes beyond
// size*elements and those are retained ahead of the client payload.
func (d *Driver) CreateBuffer(ctxID ContextID, typ BufferType, size, elements int, data []byte) (BufferID, error) {
	if typ < 0 || int(typ) >= int(bufferTypeCount) {
		return 0, ErrInvalidParameter
	}
	if size <= 0 || elements <= 0 {
		return 0, ErrInvalidParameter
	}
	c, err := d.contextByID(ctxID)
	if err != nil {
		return 0, err
	}

	total := size * elements
	offset := 0
	if c.profile == ProfileVP8 && typ == BufferSliceData {
		offset = len(data) - total
		if offset < 0 {
			return 0, ErrInvalidParameter
		}
		total += offset
	}

	buf := &Buffer{
		bufferType: typ,
		elements:   elements,
		size:       total,
		offset:     offset,
		data:       make([]byte, total),
	}
	// Clients may create parameter buffers short or empty and fill them
	// through MapBuffer afterwards; the tail stays zeroed.
	copy(buf.data, data)

	obj := d.objects.allocate(objectBuffer, buf)
	buf.id = BufferID(obj.id)
	return buf.id, nil
}

// MapBuffer exposes the client's view of the buffer contents. The returned
// slice aliases driver memory and stays valid until DestroyBuffer.
func (d *Driver) MapBuffer(id BufferID) ([]byte, error) {
	buf, err := d.bufferByID(id)
	if err != nil {
		return nil, err
	}
	return buf.data[buf.offset:], nil
}

// UnmapBuffer releases a mapping obtained from MapBuffer. The driver keeps
// buffers host-resident so there is nothing to flush.
func (d *Driver) UnmapBuffer(id BufferID) error {
	_, err := d.bufferByID(id)
	return err
}

// DestroyBuffer frees a buffer. Buffers already consumed by RenderPicture
// were copied into the context accumulators, so destruction is always safe.
func (d *Driver) DestroyBuffer(id BufferID) error {
	if _, err := d.bufferByID(id); err != nil {
		return err
	}
	d.objects.delete(GenericID(id))
	return nil
}

func (d *Driver) bufferByID(id BufferID) (*Buffer, error) {
	p := d.objects.payload(GenericID(id), objectBuffer)
	if p == nil {
		return nil, ErrInvalidHandle
	}
	return p.(*Buffer), nil
}
