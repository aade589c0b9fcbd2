package metrics

import (
	"sync/atomic"
	"time"
)

type Collector struct {
	totalRequests      uint64
	errorRequests      uint64
	totalDurationMs    uint64
	calculationRuns    uint64
	calculationFailed  uint64
	recordsCalculated  uint64
	employeesSkipped   uint64
	batchesFinalized   uint64
	leaveRejectedQuota uint64
}

func New() *Collector {
	return &Collector{}
}

func (c *Collector) Record(status int, duration time.Duration) {
	if c == nil {
		return
	}
	atomic.AddUint64(&c.totalRequests, 1)
	if status >= 500 {
		atomic.AddUint64(&c.errorRequests, 1)
	}
	atomic.AddUint64(&c.totalDurationMs, uint64(duration.Milliseconds()))
}

// CalculationRun counts a payroll calculation and its outcome.
func (c *Collector) CalculationRun(records, skipped int, err error) {
	if c == nil {
		return
	}
	atomic.AddUint64(&c.calculationRuns, 1)
	if err != nil {
		atomic.AddUint64(&c.calculationFailed, 1)
		return
	}
	atomic.AddUint64(&c.recordsCalculated, uint64(records))
	atomic.AddUint64(&c.employeesSkipped, uint64(skipped))
}

func (c *Collector) BatchFinalized() {
	if c == nil {
		return
	}
	atomic.AddUint64(&c.batchesFinalized, 1)
}

func (c *Collector) LeaveRejected() {
	if c == nil {
		return
	}
	atomic.AddUint64(&c.leaveRejectedQuota, 1)
}

func (c *Collector) Snapshot() map[string]any {
	total := atomic.LoadUint64(&c.totalRequests)
	totalMs := atomic.LoadUint64(&c.totalDurationMs)
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}
	return map[string]any{
		"requestsTotal":            total,
		"errorsTotal":              atomic.LoadUint64(&c.errorRequests),
		"avgDurationMs":            avg,
		"totalDurationMs":          totalMs,
		"payrollCalculationsTotal": atomic.LoadUint64(&c.calculationRuns),
		"payrollCalculationErrors": atomic.LoadUint64(&c.calculationFailed),
		"payrollRecordsCalculated": atomic.LoadUint64(&c.recordsCalculated),
		"payrollEmployeesSkipped":  atomic.LoadUint64(&c.employeesSkipped),
		"payrollBatchesFinalized":  atomic.LoadUint64(&c.batchesFinalized),
		"leaveRejectedForBalance":  atomic.LoadUint64(&c.leaveRejectedQuota),
	}
}
