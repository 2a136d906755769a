package nvd

// Entry points present for interface completeness but not backed by the
// decode pipeline. Display, subpicture and multi-frame operations are the
// compositor's job, not the decoder's.

// BufferSetNumElements would resize a buffer in place; clients recreate
// buffers instead.
func (d *Driver) BufferSetNumElements(BufferID, int) error { return ErrUnimplemented }

// BufferInfo reports a buffer's type, size and element count.
func (d *Driver) BufferInfo(id BufferID) (BufferType, int, int, error) {
	buf, err := d.bufferByID(id)
	if err != nil {
		return 0, 0, 0, err
	}
	return buf.bufferType, buf.size - buf.offset, buf.elements, nil
}

func (d *Driver) AcquireBufferHandle(BufferID) error { return ErrUnimplemented }
func (d *Driver) ReleaseBufferHandle(BufferID) error { return ErrUnimplemented }

// SurfaceStatus would poll decode progress; SyncSurface is the supported
// completion mechanism.
func (d *Driver) QuerySurfaceStatus(SurfaceID) error { return ErrUnimplemented }
func (d *Driver) QuerySurfaceError(SurfaceID) error  { return ErrUnimplemented }

func (d *Driver) PutSurface(SurfaceID) error    { return ErrUnimplemented }
func (d *Driver) LockSurface(SurfaceID) error   { return ErrUnimplemented }
func (d *Driver) UnlockSurface(SurfaceID) error { return ErrUnimplemented }

// DeriveImage would alias an image over surface memory; decoded surfaces
// live in device memory so readback goes through GetImage.
func (d *Driver) DeriveImage(SurfaceID) (ImageDescriptor, error) {
	return ImageDescriptor{}, ErrOperationFailed
}

func (d *Driver) SetImagePalette(ImageID, []byte) error { return ErrUnimplemented }

// PutImage accepts host pixel uploads and discards them; the decoder is the
// only producer of surface contents, but clients probe this path and treat a
// failure as fatal.
func (d *Driver) PutImage(SurfaceID, ImageID) error { return nil }

// QuerySubpictureFormats reports no subpicture support.
func (d *Driver) QuerySubpictureFormats() ([]ImageFormat, error) { return nil, nil }

func (d *Driver) CreateSubpicture(ImageID) error           { return ErrUnimplemented }
func (d *Driver) DestroySubpicture(GenericID) error        { return ErrUnimplemented }
func (d *Driver) SetSubpictureImage(GenericID) error       { return ErrUnimplemented }
func (d *Driver) SetSubpictureChromakey(GenericID) error   { return ErrUnimplemented }
func (d *Driver) SetSubpictureGlobalAlpha(GenericID) error { return ErrUnimplemented }
func (d *Driver) AssociateSubpicture(GenericID) error      { return ErrUnimplemented }
func (d *Driver) DeassociateSubpicture(GenericID) error    { return ErrUnimplemented }

// DisplayAttribute is a presentation attribute slot. The driver exposes
// none; the type exists so the query entry points keep their shape.
type DisplayAttribute struct {
	Type  int
	Value int
}

// QueryDisplayAttributes reports an empty attribute set; there is no
// presentation path in a decode-only driver.
func (d *Driver) QueryDisplayAttributes() ([]DisplayAttribute, error) { return nil, nil }

func (d *Driver) GetDisplayAttributes([]DisplayAttribute) error { return ErrUnimplemented }
func (d *Driver) SetDisplayAttributes([]DisplayAttribute) error { return ErrUnimplemented }

func (d *Driver) CreateMFContext() error           { return ErrUnimplemented }
func (d *Driver) MFAddContext(ContextID) error     { return ErrUnimplemented }
func (d *Driver) MFReleaseContext(ContextID) error { return ErrUnimplemented }
func (d *Driver) MFSubmit() error                  { return ErrUnimplemented }

func (d *Driver) QueryProcessingRate(ConfigID) (int, error) { return 0, ErrUnimplemented }
