package learnvk

import "unsafe"

type surfaceRecord struct {
	instance Handle
	native   NativeSurface
	block    unsafe.Pointer
}

// Surface is a presentation target tied to a host window.
type Surface struct {
	reg *registry
	h   Handle
}

func (s Surface) record() *surfaceRecord {
	if s.reg == nil {
		return nil
	}
	return s.reg.surfaces.get(s.h)
}

func (s Surface) Valid() bool {
	rec := s.record()
	return rec != nil && rec.native != 0
}

func (s Surface) Native() NativeSurface {
	if rec := s.record(); rec != nil {
		return rec.native
	}
	return 0
}

func (s Surface) Instance() Instance {
	if rec := s.record(); rec != nil {
		return Instance{reg: s.reg, h: rec.instance}
	}
	return Instance{}
}

func (s *Surface) Release() {
	rec := s.record()
	if rec == nil {
		*s = Surface{}
		return
	}
	if inst := s.reg.instances.get(rec.instance); inst != nil && rec.native != 0 {
		s.reg.driver.DestroySurface(inst.native, rec.native, s.reg.host)
	}
	s.reg.surfaces.remove(s.h)
	s.reg.host.releaseBlock(rec.block)
	*s = Surface{}
}
