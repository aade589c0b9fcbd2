// Package payrolltest provides an in-memory payroll.Repository for tests.
package payrolltest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"hrconsole/internal/domain/payroll"
)

type employeeEntry struct {
	tenantID string
	active   bool
	employee payroll.Employee
}

type loanEntry struct {
	tenantID   string
	employeeID string
	amount     decimal.Decimal
	active     bool
}

type batchEntry struct {
	tenantID string
	batch    payroll.Batch
}

type state struct {
	employees map[string]employeeEntry
	loans     []loanEntry
	scores    map[string]int
	batches   map[string]batchEntry
	inputs    map[string]map[string]payroll.Input
	records   map[string]map[string]payroll.Record
}

func (s *state) clone() *state {
	out := &state{
		employees: make(map[string]employeeEntry, len(s.employees)),
		loans:     append([]loanEntry(nil), s.loans...),
		scores:    make(map[string]int, len(s.scores)),
		batches:   make(map[string]batchEntry, len(s.batches)),
		inputs:    make(map[string]map[string]payroll.Input, len(s.inputs)),
		records:   make(map[string]map[string]payroll.Record, len(s.records)),
	}
	for k, v := range s.employees {
		out.employees[k] = v
	}
	for k, v := range s.scores {
		out.scores[k] = v
	}
	for k, v := range s.batches {
		out.batches[k] = v
	}
	for k, m := range s.inputs {
		inner := make(map[string]payroll.Input, len(m))
		for ek, ev := range m {
			inner[ek] = ev
		}
		out.inputs[k] = inner
	}
	for k, m := range s.records {
		inner := make(map[string]payroll.Record, len(m))
		for ek, ev := range m {
			inner[ek] = ev
		}
		out.records[k] = inner
	}
	return out
}

// Repo is safe for concurrent use. InTx works on a copy of the data and
// swaps it in only when fn succeeds, mirroring a rollback on error.
type Repo struct {
	mu    sync.Mutex
	st    *state
	fails map[string]error
	now   func() time.Time
}

func New() *Repo {
	return &Repo{
		st: &state{
			employees: map[string]employeeEntry{},
			scores:    map[string]int{},
			batches:   map[string]batchEntry{},
			inputs:    map[string]map[string]payroll.Input{},
			records:   map[string]map[string]payroll.Record{},
		},
		fails: map[string]error{},
		now:   time.Now,
	}
}

// FailOn makes the named repository method return err.
func (r *Repo) FailOn(method string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fails[method] = err
}

func (r *Repo) fail(method string) error {
	return r.fails[method]
}

// AddEmployee registers an active employee and returns its id.
func (r *Repo) AddEmployee(tenantID string, employee payroll.Employee) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if employee.ID == "" {
		employee.ID = uuid.NewString()
	}
	r.st.employees[employee.ID] = employeeEntry{tenantID: tenantID, active: true, employee: employee}
	return employee.ID
}

func (r *Repo) SetEmployee(employee payroll.Employee) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry := r.st.employees[employee.ID]
	entry.employee = employee
	r.st.employees[employee.ID] = entry
}

func (r *Repo) Deactivate(employeeID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry := r.st.employees[employeeID]
	entry.active = false
	r.st.employees[employeeID] = entry
}

func (r *Repo) AddLoan(tenantID, employeeID string, installment decimal.Decimal) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.st.loans = append(r.st.loans, loanEntry{tenantID: tenantID, employeeID: employeeID, amount: installment, active: true})
}

func (r *Repo) SetScore(employeeID string, score int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.st.scores[employeeID] = score
}

// BumpVersion simulates a concurrent writer touching the batch.
func (r *Repo) BumpVersion(batchID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry := r.st.batches[batchID]
	entry.batch.Version++
	r.st.batches[batchID] = entry
}

// Batches returns every batch of the tenant, newest first.
func (r *Repo) Batches(tenantID string) []payroll.Batch {
	batches, _, _ := r.ListBatches(context.Background(), tenantID, 1000, 0)
	return batches
}

func (r *Repo) InTx(ctx context.Context, fn func(payroll.Repository) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail("InTx"); err != nil {
		return err
	}
	tx := &Repo{st: r.st.clone(), fails: r.fails, now: r.now}
	if err := fn(tx); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	r.st = tx.st
	return nil
}

func (r *Repo) ListActiveEmployees(ctx context.Context, tenantID string) ([]payroll.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail("ListActiveEmployees"); err != nil {
		return nil, err
	}
	var out []payroll.Employee
	for _, entry := range r.st.employees {
		if entry.tenantID == tenantID && entry.active {
			out = append(out, entry.employee)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *Repo) EmployeeExists(ctx context.Context, tenantID, employeeID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.st.employees[employeeID]
	return ok && entry.tenantID == tenantID, nil
}

func (r *Repo) ActiveLoanTotals(ctx context.Context, tenantID string) (map[string]decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail("ActiveLoanTotals"); err != nil {
		return nil, err
	}
	totals := map[string]decimal.Decimal{}
	for _, loan := range r.st.loans {
		if loan.tenantID != tenantID || !loan.active {
			continue
		}
		totals[loan.employeeID] = totals[loan.employeeID].Add(loan.amount)
	}
	return totals, nil
}

func (r *Repo) IntegrityScores(ctx context.Context, tenantID string) (map[string]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail("IntegrityScores"); err != nil {
		return nil, err
	}
	scores := map[string]int{}
	for employeeID, score := range r.st.scores {
		if entry, ok := r.st.employees[employeeID]; ok && entry.tenantID == tenantID {
			scores[employeeID] = score
		}
	}
	return scores, nil
}

func (r *Repo) GetOrCreateOpenBatch(ctx context.Context, tenantID, label string) (payroll.Batch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail("GetOrCreateOpenBatch"); err != nil {
		return payroll.Batch{}, err
	}
	if batch, ok := r.openBatch(tenantID); ok {
		return batch, nil
	}
	batch := payroll.Batch{
		ID:          uuid.NewString(),
		Label:       label,
		Status:      payroll.BatchStatusDraft,
		TotalAmount: decimal.Zero,
		CreatedAt:   r.now(),
	}
	r.st.batches[batch.ID] = batchEntry{tenantID: tenantID, batch: batch}
	return batch, nil
}

func (r *Repo) openBatch(tenantID string) (payroll.Batch, bool) {
	for _, entry := range r.st.batches {
		if entry.tenantID == tenantID && entry.batch.Open() {
			return entry.batch, true
		}
	}
	return payroll.Batch{}, false
}

func (r *Repo) OpenBatch(ctx context.Context, tenantID string) (payroll.Batch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	batch, ok := r.openBatch(tenantID)
	if !ok {
		return payroll.Batch{}, payroll.ErrNoOpenBatch
	}
	return batch, nil
}

func (r *Repo) GetBatch(ctx context.Context, tenantID, batchID string) (payroll.Batch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.st.batches[batchID]
	if !ok || entry.tenantID != tenantID {
		return payroll.Batch{}, payroll.ErrBatchNotFound
	}
	return entry.batch, nil
}

func (r *Repo) ListBatches(ctx context.Context, tenantID string, limit, offset int) ([]payroll.Batch, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []payroll.Batch
	for _, entry := range r.st.batches {
		if entry.tenantID == tenantID {
			all = append(all, entry.batch)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	total := len(all)
	if offset >= total {
		return []payroll.Batch{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (r *Repo) UpdateBatchTotals(ctx context.Context, tenantID, batchID string, version int, totals payroll.Totals, status string) (payroll.Batch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail("UpdateBatchTotals"); err != nil {
		return payroll.Batch{}, err
	}
	entry, ok := r.st.batches[batchID]
	if !ok || entry.tenantID != tenantID || entry.batch.Version != version || !entry.batch.Open() {
		return payroll.Batch{}, payroll.ErrBatchConflict
	}
	entry.batch.TotalAmount = totals.TotalAmount
	entry.batch.EmployeeCount = totals.EmployeeCount
	entry.batch.Status = status
	entry.batch.Version++
	r.st.batches[batchID] = entry
	return entry.batch, nil
}

func (r *Repo) FinalizeBatch(ctx context.Context, tenantID, batchID string, version int) (payroll.Batch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.st.batches[batchID]
	if !ok || entry.tenantID != tenantID || entry.batch.Version != version || entry.batch.Status != payroll.BatchStatusProcessing {
		return payroll.Batch{}, payroll.ErrBatchConflict
	}
	now := r.now()
	entry.batch.Status = payroll.BatchStatusFinalized
	entry.batch.FinalizedAt = &now
	entry.batch.Version++
	r.st.batches[batchID] = entry
	return entry.batch, nil
}

func (r *Repo) ListInputs(ctx context.Context, tenantID, batchID string) (map[string]payroll.Input, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[string]payroll.Input{}
	for k, v := range r.st.inputs[batchID] {
		out[k] = v
	}
	return out, nil
}

func (r *Repo) UpsertInput(ctx context.Context, tenantID, batchID string, input payroll.Input) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail("UpsertInput"); err != nil {
		return err
	}
	if r.st.inputs[batchID] == nil {
		r.st.inputs[batchID] = map[string]payroll.Input{}
	}
	r.st.inputs[batchID][input.EmployeeID] = input
	return nil
}

func (r *Repo) ListRecords(ctx context.Context, tenantID, batchID string) ([]payroll.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail("ListRecords"); err != nil {
		return nil, err
	}
	var out []payroll.Record
	for _, record := range r.st.records[batchID] {
		out = append(out, record)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].EmployeeName != out[j].EmployeeName {
			return out[i].EmployeeName < out[j].EmployeeName
		}
		return out[i].EmployeeID < out[j].EmployeeID
	})
	return out, nil
}

func (r *Repo) UpsertRecords(ctx context.Context, tenantID, batchID string, records []payroll.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail("UpsertRecords"); err != nil {
		return err
	}
	if r.st.records[batchID] == nil {
		r.st.records[batchID] = map[string]payroll.Record{}
	}
	for _, record := range records {
		if existing, ok := r.st.records[batchID][record.EmployeeID]; ok {
			record.ID = existing.ID
		} else {
			record.ID = uuid.NewString()
		}
		record.BatchID = batchID
		record.UpdatedAt = r.now()
		r.st.records[batchID][record.EmployeeID] = record
	}
	return nil
}

func (r *Repo) DeleteRecordsExcept(ctx context.Context, tenantID, batchID string, keepEmployeeIDs []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	keep := make(map[string]bool, len(keepEmployeeIDs))
	for _, id := range keepEmployeeIDs {
		keep[id] = true
	}
	for employeeID := range r.st.records[batchID] {
		if !keep[employeeID] {
			delete(r.st.records[batchID], employeeID)
		}
	}
	return nil
}
