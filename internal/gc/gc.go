// Package gc implements Bite's mark-sweep collector: a tri-color walk over
// the heap objects the VM and compiler hand it, triggered by an allocation
// threshold rather than by any fixed schedule. Go's own runtime still owns
// the physical memory behind every object; this package tracks the
// language-level reachability graph the spec describes and drops the
// bookkeeping reference for anything unreachable, so the host runtime's
// collector is free to reclaim it on its own time.
package gc

// Object is implemented by every heap value the collector manages:
// Functions, Closures, Upvalues, Classes, Instances, BoundMethods, and
// foreign objects. Children lists every Object this one directly refers to,
// the edges a mark pass walks.
type Object interface {
	Children() []Object
	// Size estimates this object's footprint in bytes, driving the
	// allocation counter that decides when to collect.
	Size() int
}

const (
	defaultThreshold = 1 << 20 // 1 MiB of estimated live bytes
	defaultGrowth    = 2.0
	minThreshold     = 1 << 10
)

// Stats is a snapshot of one completed collection, surfaced to
// --gc-trace/BITE_GC_TRACE for debugging.
type Stats struct {
	Cycle      int
	Tracked    int
	Freed      int
	LiveBytes  int
	NextThresh int
}

// Collector is Bite's mark-sweep heap. It is not safe for concurrent use;
// the language is single-threaded (spec §5), so nothing ever calls into it
// from more than one goroutine.
type Collector struct {
	objects   map[Object]struct{}
	liveBytes int
	threshold int
	growth    float64
	cycle     int

	// aggressive makes ShouldCollect report true unconditionally, so the
	// VM collects after every instruction rather than waiting for the
	// threshold (a debug mode). Track itself never collects.
	aggressive bool
	// onCollect, if set, receives a Stats for every completed cycle — the
	// hook the CLI's --gc-trace flag and BITE_GC_TRACE env var wire up to.
	onCollect func(Stats)
}

// New creates a Collector with the default initial threshold and growth
// factor.
func New() *Collector {
	return &Collector{
		objects:   map[Object]struct{}{},
		threshold: defaultThreshold,
		growth:    defaultGrowth,
	}
}

// SetAggressive enables or disables collect-on-every-allocation.
func (c *Collector) SetAggressive(v bool) { c.aggressive = v }

// OnCollect registers fn to be called after every completed cycle.
func (c *Collector) OnCollect(fn func(Stats)) { c.onCollect = fn }

// Track registers a freshly allocated object with the collector and adds
// its estimated size to the live-byte counter. Every heap allocation in the
// VM (NewClosure, NewInstance, ...) must call this exactly once.
func (c *Collector) Track(o Object) {
	c.objects[o] = struct{}{}
	c.liveBytes += o.Size()
}

// Tracked reports how many objects the collector currently holds, live or
// not yet swept.
func (c *Collector) Tracked() int { return len(c.objects) }

// LiveBytes reports the estimated size of every tracked object as of the
// last Track/Collect call.
func (c *Collector) LiveBytes() int { return c.liveBytes }

// ShouldCollect reports whether the live-byte counter has crossed the
// current threshold (or aggressive mode is enabled), the condition the VM
// checks after every instruction it executes.
func (c *Collector) ShouldCollect() bool {
	return c.aggressive || c.liveBytes >= c.threshold
}

// Collect runs one full mark-sweep cycle: every object reachable from roots
// is marked black via a gray worklist (Children is consulted exactly once
// per object, so a cycle in the object graph terminates the walk rather
// than looping forever); anything left white is swept out of the tracked
// set. It returns the number of objects freed.
func (c *Collector) Collect(roots []Object) int {
	black := make(map[Object]struct{}, len(c.objects))
	gray := append([]Object(nil), roots...)

	for len(gray) > 0 {
		o := gray[len(gray)-1]
		gray = gray[:len(gray)-1]
		if o == nil {
			continue
		}
		if _, seen := black[o]; seen {
			continue
		}
		black[o] = struct{}{}
		gray = append(gray, o.Children()...)
	}

	freed := 0
	liveBytes := 0
	for o := range c.objects {
		if _, ok := black[o]; ok {
			liveBytes += o.Size()
			continue
		}
		delete(c.objects, o)
		freed++
	}

	c.liveBytes = liveBytes
	c.threshold = int(float64(liveBytes) * c.growth)
	if c.threshold < minThreshold {
		c.threshold = minThreshold
	}
	c.cycle++

	if c.onCollect != nil {
		c.onCollect(Stats{
			Cycle: c.cycle, Tracked: len(c.objects), Freed: freed,
			LiveBytes: liveBytes, NextThresh: c.threshold,
		})
	}
	return freed
}
