package handlers

import (
	"net/http"
	"sync"
	"time"
)

// queueDepthThreshold and sustainedInterval implement the "/healthz reports
// degraded when queue depth exceeds a lower threshold for a sustained
// interval" rule, which is deliberately distinct from Pool.Degraded()'s
// rolling-fault-count signal: a pool can be fault-free yet still back up.
const (
	queueDepthThreshold = 0.5 // fraction of the high-water mark
	sustainedInterval   = 10 * time.Second
)

// queueWatch tracks how long queue depth has continuously exceeded the
// threshold, independent of any single health check's timing.
type queueWatch struct {
	mu          sync.Mutex
	exceededAt  time.Time
	isExceeding bool
}

func (q *queueWatch) observe(depth, highWaterMark int) (sustained bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	exceeding := highWaterMark > 0 && float64(depth) >= queueDepthThreshold*float64(highWaterMark)
	now := time.Now()
	if exceeding {
		if !q.isExceeding {
			q.isExceeding = true
			q.exceededAt = now
		}
		return now.Sub(q.exceededAt) >= sustainedInterval
	}
	q.isExceeding = false
	return false
}

var defaultQueueWatch queueWatch

type healthResponse struct {
	Status           string   `json:"status"`
	KernelBundleTag  string   `json:"kernel_bundle_tag"`
	KernelsValid     bool     `json:"kernels_valid"`
	WorkerPoolSize   int      `json:"worker_pool_size"`
	QueueDepth       int      `json:"queue_depth"`
	CacheL1Entries   int      `json:"cache_l1_entries"`
	CacheHitRate     float64  `json:"cache_hit_rate"`
	CacheL2Enabled   bool     `json:"cache_l2_enabled"`
	CacheL2Reachable bool     `json:"cache_l2_reachable"`
	RuleSetVersion   string   `json:"rule_set_version"`
}

// Healthz handles GET /healthz (§6.1).
func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	queueDepth := h.Pool.QueueDepth()
	l2Reachable := h.Cache.L2Reachable(r.Context())

	status := "healthy"
	if h.Pool.Degraded() {
		status = "degraded"
	}
	if defaultQueueWatch.observe(queueDepth, h.queueHighWaterMark()) {
		status = "degraded"
	}
	if h.Cache.L2Enabled() && !l2Reachable {
		status = "degraded"
	}

	resp := healthResponse{
		Status:           status,
		KernelBundleTag:  h.KernelMgr.BundleTag,
		KernelsValid:     true,
		WorkerPoolSize:   h.WorkerPoolSize,
		QueueDepth:       queueDepth,
		CacheL1Entries:   h.Cache.L1Len(),
		CacheHitRate:     h.Cache.HitRate(),
		CacheL2Enabled:   h.Cache.L2Enabled(),
		CacheL2Reachable: l2Reachable,
		RuleSetVersion:   h.RuleSetVersion,
	}

	code := http.StatusOK
	if status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, resp)
}

// queueHighWaterMark is not exposed by Pool directly; Handlers.QueueHighWaterMark
// is populated by the caller at wiring time from config.
func (h *Handlers) queueHighWaterMark() int {
	return h.QueueHighWaterMark
}
