// SPDX-License-Identifier: EPL-2.0

package cache

// pool owns every chunk and is only touched by the reader goroutine.
// Chunks handed to the worker stay in the index but leave the free
// stack and the MRU/LRU list until they come back.
type pool struct {
	chunks  []Chunk
	samples []float32 // backing store, one window per chunk
	freeIDs []int32
	index   map[int64]int32
	lru     chunkList

	onEvict func(*Chunk)
}

func newPool(numChunks, framesPerChunk int) *pool {
	p := &pool{
		chunks:  make([]Chunk, numChunks),
		samples: make([]float32, numChunks*framesPerChunk*Channels),
		freeIDs: make([]int32, 0, numChunks),
		index:   make(map[int64]int32, numChunks),
	}

	window := framesPerChunk * Channels
	// push in reverse so allocation starts at id 0
	for i := numChunks - 1; i >= 0; i-- {
		c := &p.chunks[i]
		c.id = int32(i)
		c.index = InvalidIndex
		c.samples = p.samples[i*window : (i+1)*window : (i+1)*window]
		c.prev, c.next = noChunk, noChunk
		p.freeIDs = append(p.freeIDs, int32(i))
	}
	p.lru = newChunkList(p.chunks)

	return p
}

func (p *pool) capacity() int  { return len(p.chunks) }
func (p *pool) freeCount() int { return len(p.freeIDs) }

// resident counts chunks bound to an index, pending ones included.
func (p *pool) resident() int { return len(p.chunks) - len(p.freeIDs) }

func (p *pool) chunk(id int32) *Chunk { return &p.chunks[id] }

// allocate binds a free chunk to chunkIndex. The chunk is READY but not
// yet in the MRU/LRU list; freshen links it once it holds data.
func (p *pool) allocate(chunkIndex int64) *Chunk {
	n := len(p.freeIDs)
	if n == 0 {
		return nil
	}
	id := p.freeIDs[n-1]
	p.freeIDs = p.freeIDs[:n-1]

	c := &p.chunks[id]
	c.init(chunkIndex)
	p.index[chunkIndex] = id
	return c
}

// allocateExpiringLRU falls back to evicting the least recently used
// chunk. It returns nil when nothing can be evicted because every bound
// chunk is pending.
func (p *pool) allocateExpiringLRU(chunkIndex int64) *Chunk {
	if c := p.allocate(chunkIndex); c != nil {
		return c
	}
	if p.lru.tail == noChunk {
		return nil
	}

	victim := &p.chunks[p.lru.tail]
	if p.onEvict != nil {
		p.onEvict(victim)
	}
	p.free(victim)

	return p.allocate(chunkIndex)
}

// lookup does not change recency.
func (p *pool) lookup(chunkIndex int64) *Chunk {
	id, ok := p.index[chunkIndex]
	if !ok {
		return nil
	}
	return &p.chunks[id]
}

// freshen moves c to the MRU end.
func (p *pool) freshen(c *Chunk) {
	if debugging {
		assert(c.State() != StateReadPending, "freshen of a pending chunk")
	}
	if p.lru.head == c.id {
		return
	}
	p.lru.unlink(c.id)
	p.lru.insertBefore(c.id, p.lru.head)
}

// free returns c to the free stack. The index entry is only dropped
// when it still refers to c, since a newer chunk may own that index.
func (p *pool) free(c *Chunk) {
	if debugging {
		assert(c.State() != StateReadPending, "free of a pending chunk")
	}
	if c.State() == StateFree {
		return
	}

	if id, ok := p.index[c.index]; ok && id == c.id {
		delete(p.index, c.index)
	}
	p.lru.unlink(c.id)
	c.free()
	p.freeIDs = append(p.freeIDs, c.id)
}

// freeAll frees every chunk the reader owns and forgets every index.
// Pending chunks come back through the status queue and are freed then.
func (p *pool) freeAll() {
	for i := range p.chunks {
		c := &p.chunks[i]
		if c.State() == StateReady {
			p.free(c)
		}
	}
	clear(p.index)
}

// releaseAll forcibly frees every chunk, pending ones included. Only
// valid once the worker has stopped.
func (p *pool) releaseAll() {
	p.freeIDs = p.freeIDs[:0]
	for i := len(p.chunks) - 1; i >= 0; i-- {
		c := &p.chunks[i]
		c.state.Store(int32(StateFree))
		c.index = InvalidIndex
		c.frameCount = 0
		p.freeIDs = append(p.freeIDs, c.id)
	}
	p.lru.reset()
	clear(p.index)
}
