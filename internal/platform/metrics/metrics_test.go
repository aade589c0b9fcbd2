package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCollectorSnapshot(t *testing.T) {
	c := New()
	c.Record(200, 10*time.Millisecond)
	c.Record(500, 30*time.Millisecond)
	c.CalculationRun(3, 1, nil)
	c.CalculationRun(0, 0, errors.New("db down"))
	c.BatchFinalized()
	c.LeaveRejected()

	snap := c.Snapshot()
	assert.Equal(t, uint64(2), snap["requestsTotal"])
	assert.Equal(t, uint64(1), snap["errorsTotal"])
	assert.Equal(t, float64(20), snap["avgDurationMs"])
	assert.Equal(t, uint64(2), snap["payrollCalculationsTotal"])
	assert.Equal(t, uint64(1), snap["payrollCalculationErrors"])
	assert.Equal(t, uint64(3), snap["payrollRecordsCalculated"])
	assert.Equal(t, uint64(1), snap["payrollEmployeesSkipped"])
	assert.Equal(t, uint64(1), snap["payrollBatchesFinalized"])
	assert.Equal(t, uint64(1), snap["leaveRejectedForBalance"])
}

func TestNilCollectorIsSafe(t *testing.T) {
	var c *Collector
	c.CalculationRun(1, 0, nil)
	c.BatchFinalized()
	c.LeaveRejected()
}
