package nvd

// resolveRequest is one unit of resolver work: the target surface plus the
// decode-surface index and frame metadata captured at submission. The
// resolver works only from this snapshot, so a client pipelining the next
// picture onto the same surface cannot race it.
type resolveRequest struct {
	surface    *Surface
	pictureIdx int
	proc       FrameProcParams
}

// resolveLoop is the per-context resolver goroutine. It drains the resolve
// queue until the context signals exit, mapping each finished decode and
// handing it to the backing-store backend. Requests still queued at exit are
// left unresolved; DestroySurfaces or process teardown reclaims them.
func (c *Context) resolveLoop() {
	defer close(c.done)
	c.log.Debug().Msg("resolver started")
	for {
		select {
		case <-c.quit:
			c.log.Debug().Msg("resolver exiting")
			return
		case req := <-c.resolveQueue:
			c.resolveOne(req)
		}
	}
}

// resolveOne finishes one request. The resolving flag is always cleared and
// waiters always woken, whether the frame mapped or not; a failed decode
// must never hang a SyncSurface caller.
func (c *Context) resolveOne(req resolveRequest) {
	s := req.surface
	defer s.finishResolve()

	s.mu.Lock()
	failed := s.decodeFailed
	s.mu.Unlock()
	if failed {
		return
	}

	frame, err := c.drv.api.MapFrame(c.decoder, req.pictureIdx, req.proc)
	if err != nil {
		c.log.Warn().Err(err).Int("pictureIdx", req.pictureIdx).Msg("map frame failed")
		s.mu.Lock()
		s.decodeFailed = true
		s.mu.Unlock()
		return
	}

	if err := c.drv.backend.ExportFrame(c.drv, s, frame); err != nil {
		c.log.Warn().Err(err).Int("pictureIdx", req.pictureIdx).Msg("export frame failed")
	}
	if err := c.drv.api.UnmapFrame(c.decoder, frame); err != nil {
		c.log.Warn().Err(err).Int("pictureIdx", req.pictureIdx).Msg("unmap frame failed")
	}
}
