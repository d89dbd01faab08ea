package directory

import (
	"fmt"
	"sync"
	"sync/atomic"

	"hemolattice/internal/domainerr"
)

// abortSignal is a broadcast-once fatal-error flag shared by every
// blocking primitive in a world: inboxes and the three barrier types.
// It mirrors the sync.Once-guarded shutdown flag in reportstore.Store,
// the first Abort call wins, every later one is a no-op, and every
// waiter still parked in a sync.Cond.Wait loop rechecks it after being
// woken. There is no context.Context here: collectives stay untouched
// by cancellation, and only a fatal error unparks a stuck peer.
type abortSignal struct {
	fired atomic.Bool
	err   atomic.Value
}

func (s *abortSignal) trigger(err error) {
	if s.fired.CompareAndSwap(false, true) {
		s.err.Store(err)
	}
}

func (s *abortSignal) errOrNil() error {
	if !s.fired.Load() {
		return nil
	}
	if v := s.err.Load(); v != nil {
		return v.(error)
	}
	return domainerr.New(domainerr.TransportFailure, -1, [3]uint16{}, -1, -1, "aborted", nil)
}

// LocalCommunicator is an in-process stand-in for a real MPI-style
// transport: it connects N simulated ranks sharing one Go process, each
// run by the caller on its own goroutine, through mutex-guarded inboxes
// for point-to-point messages and barrier-synchronized rendezvous points
// for collectives; all ranks share one SiteDirectory and one
// SharedCountsTable. No example in the retrieved corpus vends a real MPI
// binding for Go, so this is the substrate every test in this module
// runs against; a production deployment would implement Communicator
// against a real transport instead.
type LocalCommunicator struct {
	world *localWorld
	rank  int
}

// NewLocalWorld creates a fresh world of size ranks and returns one
// Communicator per rank, indexed by rank.
func NewLocalWorld(size int) []*LocalCommunicator {
	sig := &abortSignal{}
	w := &localWorld{
		size:      size,
		inboxes:   make([]*inbox, size),
		gather:    newGatherBarrier(size, sig),
		reduceMin: newReduceBarrier(size, minVec3, sig),
		reduceMax: newReduceBarrier(size, maxVec3, sig),
		barrier:   newPlainBarrier(size, sig),
		siteDir:   NewSiteDirectory(),
		counts:    NewSharedCountsTable(),
		sig:       sig,
	}
	for i := range w.inboxes {
		w.inboxes[i] = &inbox{sig: sig}
	}
	out := make([]*LocalCommunicator, size)
	for r := 0; r < size; r++ {
		out[r] = &LocalCommunicator{world: w, rank: r}
	}
	return out
}

type message struct {
	from, tag int
	payload   []int64
}

// inbox buffers messages for one rank; Recv filters by (from, tag),
// stashing anything that doesn't match yet. Messages from the same
// sender arrive and are consumed in send order, satisfying the "totally
// ordered per peer pair" guarantee; there is no ordering guarantee
// across different senders.
type inbox struct {
	mu      sync.Mutex
	cond    *sync.Cond
	pending []message
	sig     *abortSignal
}

func (b *inbox) ensureCond() {
	if b.cond == nil {
		b.cond = sync.NewCond(&b.mu)
	}
}

func (b *inbox) push(m message) {
	b.mu.Lock()
	b.ensureCond()
	b.pending = append(b.pending, m)
	b.cond.Broadcast()
	b.mu.Unlock()
}

func (b *inbox) recv(from, tag int) ([]int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ensureCond()
	for {
		for i, m := range b.pending {
			if m.from == from && m.tag == tag {
				b.pending = append(b.pending[:i], b.pending[i+1:]...)
				return m.payload, nil
			}
		}
		if err := b.sig.errOrNil(); err != nil {
			return nil, err
		}
		b.cond.Wait()
	}
}

func (b *inbox) wake() {
	b.mu.Lock()
	b.ensureCond()
	b.cond.Broadcast()
	b.mu.Unlock()
}

type localWorld struct {
	size      int
	inboxes   []*inbox
	gather    *gatherBarrier
	reduceMin *reduceBarrier
	reduceMax *reduceBarrier
	barrier   *plainBarrier
	siteDir   *SiteDirectory
	counts    *SharedCountsTable
	sig       *abortSignal
}

// abort marks the world dead and wakes every goroutine parked in a
// Recv or collective call so it returns the triggering error instead of
// blocking forever on a peer that will never arrive. The first caller's
// error wins.
func (w *localWorld) abort(err error) {
	w.sig.trigger(err)
	for _, ib := range w.inboxes {
		ib.wake()
	}
	w.gather.wake()
	w.reduceMin.wake()
	w.reduceMax.wake()
	w.barrier.wake()
}

func (c *LocalCommunicator) Rank() int { return c.rank }
func (c *LocalCommunicator) Size() int { return c.world.size }

func (c *LocalCommunicator) AllGather(local int64) ([]int64, error) {
	return c.world.gather.run(c.rank, local)
}

func (c *LocalCommunicator) AllReduceMin(local [3]int64) ([3]int64, error) {
	return c.world.reduceMin.run(c.rank, local)
}

func (c *LocalCommunicator) AllReduceMax(local [3]int64) ([3]int64, error) {
	return c.world.reduceMax.run(c.rank, local)
}

func (c *LocalCommunicator) Send(to int, tag int, payload []int64) error {
	if to < 0 || to >= c.world.size {
		return fmt.Errorf("directory: send to out-of-range rank %d", to)
	}
	if err := c.world.sig.errOrNil(); err != nil {
		return err
	}
	cp := make([]int64, len(payload))
	copy(cp, payload)
	c.world.inboxes[to].push(message{from: c.rank, tag: tag, payload: cp})
	return nil
}

func (c *LocalCommunicator) Recv(from int, tag int) ([]int64, error) {
	if from < 0 || from >= c.world.size {
		return nil, fmt.Errorf("directory: recv from out-of-range rank %d", from)
	}
	return c.world.inboxes[c.rank].recv(from, tag)
}

func (c *LocalCommunicator) Barrier() error {
	return c.world.barrier.wait()
}

func (c *LocalCommunicator) SiteDirectory() *SiteDirectory { return c.world.siteDir }

func (c *LocalCommunicator) SharedCounts() *SharedCountsTable { return c.world.counts }

// Abort marks this rank's world as fatally failed, unparking every other
// rank currently blocked in Recv or a collective call so initialisation
// does not hang forever waiting on a peer that already died. Only the
// first Abort across the whole world takes effect.
func (c *LocalCommunicator) Abort(err error) {
	c.world.abort(err)
}

// --- collective primitives -------------------------------------------------

// gatherBarrier implements AllGather(int64) via rendezvous: the last
// rank to arrive at a generation wakes every waiter, at which point the
// full per-rank value vector is safe to read.
type gatherBarrier struct {
	mu      sync.Mutex
	cond    *sync.Cond
	n       int
	gen     int
	arrived int
	values  []int64
	sig     *abortSignal
}

func newGatherBarrier(n int, sig *abortSignal) *gatherBarrier {
	b := &gatherBarrier{n: n, values: make([]int64, n), sig: sig}
	b.cond = sync.NewCond(&b.mu)
	return b
}

func (b *gatherBarrier) run(rank int, val int64) ([]int64, error) {
	b.mu.Lock()
	myGen := b.gen
	b.values[rank] = val
	b.arrived++
	if b.arrived == b.n {
		b.gen++
		b.arrived = 0
		b.cond.Broadcast()
	} else {
		for b.gen == myGen {
			if err := b.sig.errOrNil(); err != nil {
				b.mu.Unlock()
				return nil, err
			}
			b.cond.Wait()
		}
	}
	out := make([]int64, b.n)
	copy(out, b.values)
	b.mu.Unlock()
	return out, nil
}

func (b *gatherBarrier) wake() {
	b.mu.Lock()
	b.cond.Broadcast()
	b.mu.Unlock()
}

// reduceBarrier implements an elementwise AllReduce over fixed [3]int64
// vectors with a supplied combine function (MPI_MIN or MPI_MAX).
type reduceBarrier struct {
	mu      sync.Mutex
	cond    *sync.Cond
	n       int
	gen     int
	arrived int
	acc     [3]int64
	combine func(a, b [3]int64) [3]int64
	sig     *abortSignal
}

func newReduceBarrier(n int, combine func(a, b [3]int64) [3]int64, sig *abortSignal) *reduceBarrier {
	b := &reduceBarrier{n: n, combine: combine, sig: sig}
	b.cond = sync.NewCond(&b.mu)
	return b
}

func (b *reduceBarrier) run(rank int, val [3]int64) ([3]int64, error) {
	_ = rank
	b.mu.Lock()
	myGen := b.gen
	if b.arrived == 0 {
		b.acc = val
	} else {
		b.acc = b.combine(b.acc, val)
	}
	b.arrived++
	if b.arrived == b.n {
		b.gen++
		b.arrived = 0
		b.cond.Broadcast()
	} else {
		for b.gen == myGen {
			if err := b.sig.errOrNil(); err != nil {
				b.mu.Unlock()
				return [3]int64{}, err
			}
			b.cond.Wait()
		}
	}
	out := b.acc
	b.mu.Unlock()
	return out, nil
}

func (b *reduceBarrier) wake() {
	b.mu.Lock()
	b.cond.Broadcast()
	b.mu.Unlock()
}

func minVec3(a, b [3]int64) [3]int64 {
	var out [3]int64
	for i := range out {
		if a[i] < b[i] {
			out[i] = a[i]
		} else {
			out[i] = b[i]
		}
	}
	return out
}

func maxVec3(a, b [3]int64) [3]int64 {
	var out [3]int64
	for i := range out {
		if a[i] > b[i] {
			out[i] = a[i]
		} else {
			out[i] = b[i]
		}
	}
	return out
}

// plainBarrier is a reusable N-way rendezvous with no payload.
type plainBarrier struct {
	mu      sync.Mutex
	cond    *sync.Cond
	n       int
	gen     int
	arrived int
	sig     *abortSignal
}

func newPlainBarrier(n int, sig *abortSignal) *plainBarrier {
	b := &plainBarrier{n: n, sig: sig}
	b.cond = sync.NewCond(&b.mu)
	return b
}

func (b *plainBarrier) wait() error {
	b.mu.Lock()
	myGen := b.gen
	b.arrived++
	if b.arrived == b.n {
		b.gen++
		b.arrived = 0
		b.cond.Broadcast()
	} else {
		for b.gen == myGen {
			if err := b.sig.errOrNil(); err != nil {
				b.mu.Unlock()
				return err
			}
			b.cond.Wait()
		}
	}
	b.mu.Unlock()
	return nil
}

func (b *plainBarrier) wake() {
	b.mu.Lock()
	b.cond.Broadcast()
	b.mu.Unlock()
}
