package ecs

// Handle encodes a 32-bit index in the lower bits and a 32-bit generation
// in the upper bits. Generation increments on release to invalidate stale
// back-references. The zero Handle means "no owner".
type Handle uint64

func NewHandle(index uint32, generation uint32) Handle {
	return Handle(uint64(generation)<<32 | uint64(index))
}

func (h Handle) Index() uint32      { return uint32(h) }
func (h Handle) Generation() uint32 { return uint32(h >> 32) }
func (h Handle) IsZero() bool       { return h == 0 }

// HandlePool manages handle allocation with generational indices and a free list.
// Index 0 is reserved, so a live handle is never zero.
type HandlePool struct {
	generations []uint32
	freeList    []uint32
	nextIndex   uint32
}

func NewHandlePool() *HandlePool {
	return &HandlePool{
		generations: make([]uint32, 1, 256),
		freeList:    make([]uint32, 0, 64),
		nextIndex:   1,
	}
}

func (p *HandlePool) Create() Handle {
	if len(p.freeList) > 0 {
		idx := p.freeList[len(p.freeList)-1]
		p.freeList = p.freeList[:len(p.freeList)-1]
		return NewHandle(idx, p.generations[idx])
	}
	idx := p.nextIndex
	p.nextIndex++
	if int(idx) >= len(p.generations) {
		p.generations = append(p.generations, 0)
	}
	return NewHandle(idx, p.generations[idx])
}

func (p *HandlePool) Alive(h Handle) bool {
	idx := h.Index()
	if idx == 0 || idx >= p.nextIndex {
		return false
	}
	return p.generations[idx] == h.Generation()
}

func (p *HandlePool) Destroy(h Handle) {
	if !p.Alive(h) {
		return // zero or stale
	}
	idx := h.Index()
	p.generations[idx]++
	p.freeList = append(p.freeList, idx)
}

// Live returns the number of handles currently alive.
func (p *HandlePool) Live() int {
	return int(p.nextIndex) - 1 - len(p.freeList)
}
