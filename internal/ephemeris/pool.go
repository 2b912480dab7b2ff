// Package ephemeris hosts the Compute Worker Pool: a bounded set of
// goroutines, each owning its own github.com/mshafiee/jpleph handles, that
// serialize CPU-bound ephemeris calls behind a FIFO queue (§4.B, §5). The
// primitive is documented as unsafe for concurrent use against one open
// handle, so each worker opens its own against the bundle's verified kernel
// files — the thread-isolation variant the design explicitly allows in
// place of separate OS processes.
package ephemeris

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mshafiee/jpleph"

	"github.com/astrocore/involution/internal/apierr"
	"github.com/astrocore/involution/internal/kernels"
	"github.com/astrocore/involution/internal/models"
)

func init() {
	apierr.RegisterJPLSentinel(jpleph.ErrOutsideRange, apierr.RangeEphemerisOutside)
	apierr.RegisterJPLSentinel(jpleph.ErrQuantityNotInEphemeris, apierr.BodiesUnsupported)
	apierr.RegisterJPLSentinel(jpleph.ErrInvalidIndex, apierr.BodiesUnsupported)
	apierr.RegisterJPLSentinel(jpleph.ErrFileRead, apierr.ComputeWorkerFault)
	apierr.RegisterJPLSentinel(jpleph.ErrFileSeek, apierr.ComputeWorkerFault)
}

// bodyToPlanet maps the closed CelestialBody set onto jpleph's Planet enum.
// TrueNode/MeanNode are not JPL targets; callers must derive them from the
// Moon's state (see nodes.go) rather than submitting them here.
var bodyToPlanet = map[models.CelestialBody]jpleph.Planet{
	models.Sun:     jpleph.Sun,
	models.Moon:    jpleph.Moon,
	models.Mercury: jpleph.Mercury,
	models.Venus:   jpleph.Venus,
	models.Mars:    jpleph.Mars,
	models.Jupiter: jpleph.Jupiter,
	models.Saturn:  jpleph.Saturn,
	models.Uranus:  jpleph.Uranus,
	models.Neptune: jpleph.Neptune,
	models.Pluto:   jpleph.Pluto,
}

// Task is one unit of compute work: the geocentric state of body at the
// Julian Ephemeris Date jde, using the kernel tagged tag.
type Task struct {
	Body models.CelestialBody
	JDE  float64
	Tag  string
}

type job struct {
	task   Task
	result chan Result
}

// Result is what a worker delivers for one Task.
type Result struct {
	State models.RectangularState
	Err   error
}

// Pool is the bounded worker pool described in §4.B.
type Pool struct {
	queue       chan job
	queueDepth  int64
	highWater   int
	mgr         *kernels.Manager
	wg          sync.WaitGroup
	shutdownCh  chan struct{}
	faultsMu    sync.Mutex
	faultTimes  []time.Time
	logger      *slog.Logger
}

// Start spawns n workers, each opening every kernel file in mgr and
// signaling readiness before Start returns. If any worker fails to open its
// kernels, Start returns the fatal error (§4.B: "returns only once all N
// signal ready or one fails fatally").
func Start(n int, mgr *kernels.Manager, highWaterMark int, logger *slog.Logger) (*Pool, error) {
	p := &Pool{
		queue:      make(chan job, highWaterMark),
		highWater:  highWaterMark,
		mgr:        mgr,
		shutdownCh: make(chan struct{}),
		logger:     logger,
	}

	ready := make(chan error, n)
	for i := 0; i < n; i++ {
		w := &worker{pool: p, id: i}
		if err := w.openKernels(); err != nil {
			return nil, err
		}
		p.wg.Add(1)
		go w.run()
		ready <- nil
	}
	for i := 0; i < n; i++ {
		if err := <-ready; err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Submit enqueues task and blocks until the result is ready, ctx is
// canceled, or the queue is at its high-water mark.
//
// On ctx cancellation, Submit returns ServiceTimeout right away, but the
// worker is not interrupted — it keeps computing and will deliver into the
// returned channel. That channel is nil whenever err is anything but
// ServiceTimeout. A caller that wants to honor §5's "wastes no prior work"
// invariant goes on waiting on it, detached from the request deadline that
// just expired, to recover the in-flight compute instead of discarding it.
func (p *Pool) Submit(ctx context.Context, task Task) (models.RectangularState, <-chan Result, error) {
	if atomic.LoadInt64(&p.queueDepth) >= int64(p.highWater) {
		return models.RectangularState{}, nil, apierr.ServiceOverloaded
	}

	j := job{task: task, result: make(chan Result, 1)}
	atomic.AddInt64(&p.queueDepth, 1)

	select {
	case p.queue <- j:
	case <-p.shutdownCh:
		atomic.AddInt64(&p.queueDepth, -1)
		return models.RectangularState{}, nil, apierr.ServiceUnavailable
	}

	select {
	case res := <-j.result:
		if res.Err != nil {
			return models.RectangularState{}, nil, res.Err
		}
		return res.State, nil, nil
	case <-ctx.Done():
		return models.RectangularState{}, j.result, apierr.ServiceTimeout
	}
}

// QueueDepth reports the current number of enqueued-or-executing tasks.
func (p *Pool) QueueDepth() int {
	return int(atomic.LoadInt64(&p.queueDepth))
}

// Degraded reports whether ≥3 worker faults have occurred within the last
// rolling minute (§4.B health-check demotion rule).
func (p *Pool) Degraded() bool {
	p.faultsMu.Lock()
	defer p.faultsMu.Unlock()
	cutoff := time.Now().Add(-time.Minute)
	count := 0
	for _, t := range p.faultTimes {
		if t.After(cutoff) {
			count++
		}
	}
	return count >= 3
}

func (p *Pool) recordFault() {
	p.faultsMu.Lock()
	defer p.faultsMu.Unlock()
	p.faultTimes = append(p.faultTimes, time.Now())
}

// Shutdown stops accepting work, drains the queue up to grace, then returns.
// Workers that are mid-call finish naturally since the primitive cannot be
// interrupted.
func (p *Pool) Shutdown(grace time.Duration) {
	close(p.shutdownCh)
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(grace):
		p.logger.Warn("worker pool shutdown grace period elapsed; workers may still be finishing")
	}
}

type worker struct {
	pool    *Pool
	id      int
	handles map[string]*jpleph.Ephemeris
}

func (w *worker) openKernels() error {
	w.handles = make(map[string]*jpleph.Ephemeris)
	for _, k := range w.pool.mgr.Handles {
		eph, err := jpleph.NewEphemeris(k.Path, false)
		if err != nil {
			return apierr.KernelsNotAvailable.WithDetail(err.Error())
		}
		w.handles[k.Tag] = eph
	}
	return nil
}

func (w *worker) reopenKernels() {
	for tag, eph := range w.handles {
		_ = eph.Close()
		delete(w.handles, tag)
	}
	_ = w.openKernels()
}

func (w *worker) run() {
	defer w.pool.wg.Done()
	for {
		select {
		case j, ok := <-w.pool.queue:
			if !ok {
				return
			}
			w.handle(j)
		case <-w.pool.shutdownCh:
			// Drain whatever is already queued, then exit.
			for {
				select {
				case j, ok := <-w.pool.queue:
					if !ok {
						return
					}
					w.handle(j)
				default:
					return
				}
			}
		}
	}
}

func (w *worker) handle(j job) {
	defer atomic.AddInt64(&w.pool.queueDepth, -1)
	defer func() {
		if r := recover(); r != nil {
			w.pool.recordFault()
			w.reopenKernels()
			j.result <- Result{Err: apierr.ComputeWorkerFault.WithDetail("worker panic recovered")}
		}
	}()

	eph, ok := w.handles[j.task.Tag]
	if !ok {
		j.result <- Result{Err: apierr.KernelsNotAvailable.WithDetail("kernel tag not loaded: " + j.task.Tag)}
		return
	}
	planet, ok := bodyToPlanet[j.task.Body]
	if !ok {
		j.result <- Result{Err: apierr.BodiesUnsupported.WithDetail(string(j.task.Body))}
		return
	}

	pos, vel, err := eph.CalculatePV(j.task.JDE, planet, jpleph.CenterEarth, true)
	if err != nil {
		mapped := apierr.FromJPLError(err)
		if mapped == apierr.ComputeWorkerFault {
			w.pool.recordFault()
			w.reopenKernels()
		}
		j.result <- Result{Err: mapped}
		return
	}
	j.result <- Result{State: models.RectangularState{
		X: pos.X, Y: pos.Y, Z: pos.Z,
		VX: vel.DX, VY: vel.DY, VZ: vel.DZ,
	}}
}
