package finance

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinicore/clinic-api/internal/model"
)

type fakeTransactionReader struct {
	txns []*model.FinancialTransaction
	err  error
}

func (f *fakeTransactionReader) ListInRange(_ context.Context, _ uuid.UUID, _, _ time.Time) ([]*model.FinancialTransaction, error) {
	return f.txns, f.err
}

type fakeExpenseReader struct {
	expenses []*model.Expense
	pending  int64
	err      error
}

func (f *fakeExpenseReader) ListDueInRange(_ context.Context, _ uuid.UUID, _, _ time.Time) ([]*model.Expense, error) {
	return f.expenses, f.err
}

func (f *fakeExpenseReader) SumPendingInRange(_ context.Context, _ uuid.UUID, _, _ time.Time) (int64, error) {
	return f.pending, f.err
}

func newTestService(txns *fakeTransactionReader, exps *fakeExpenseReader, now time.Time) *Service {
	if txns == nil {
		txns = &fakeTransactionReader{}
	}
	if exps == nil {
		exps = &fakeExpenseReader{}
	}
	svc := NewService(txns, exps, nil, zerolog.Nop())
	svc.now = func() time.Time { return now }
	return svc
}

func txn(amount int64, date time.Time) *model.FinancialTransaction {
	return &model.FinancialTransaction{ID: uuid.New(), Amount: amount, Date: date}
}

func TestCashFlowByPeriod(t *testing.T) {
	clinicID := uuid.New()
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC)

	t.Run("one point per day inclusive, zero-filled", func(t *testing.T) {
		svc := newTestService(&fakeTransactionReader{}, nil, end)

		chart, err := svc.CashFlowByPeriod(context.Background(), clinicID, start, end)
		require.NoError(t, err)

		assert.Len(t, chart.Labels, 5)
		assert.Equal(t, "2025-03-01", chart.Labels[0])
		assert.Equal(t, "2025-03-05", chart.Labels[4])
		require.Len(t, chart.Datasets, 3)
		for _, ds := range chart.Datasets {
			assert.Equal(t, []int64{0, 0, 0, 0, 0}, ds.Data)
		}
	})

	t.Run("buckets transactions by day", func(t *testing.T) {
		reader := &fakeTransactionReader{txns: []*model.FinancialTransaction{
			txn(10000, start.Add(9*time.Hour)),
			txn(5000, start.Add(20*time.Hour)),
			txn(-3000, start.AddDate(0, 0, 2)),
			txn(2000, end.Add(23*time.Hour)),
		}}
		svc := newTestService(reader, nil, end)

		chart, err := svc.CashFlowByPeriod(context.Background(), clinicID, start, end)
		require.NoError(t, err)

		assert.Equal(t, []int64{15000, 0, 0, 0, 2000}, chart.Datasets[0].Data)
		assert.Equal(t, []int64{0, 0, 3000, 0, 0}, chart.Datasets[1].Data)
		assert.Equal(t, []int64{15000, 0, -3000, 0, 2000}, chart.Datasets[2].Data)
	})

	t.Run("single day range has one point", func(t *testing.T) {
		svc := newTestService(&fakeTransactionReader{}, nil, end)

		chart, err := svc.CashFlowByPeriod(context.Background(), clinicID, start, start)
		require.NoError(t, err)
		assert.Len(t, chart.Labels, 1)
	})

	t.Run("end before start fails", func(t *testing.T) {
		svc := newTestService(nil, nil, end)

		_, err := svc.CashFlowByPeriod(context.Background(), clinicID, end, start)
		assert.Error(t, err)
	})

	t.Run("repository failure hides cause", func(t *testing.T) {
		svc := newTestService(&fakeTransactionReader{err: errors.New("boom")}, nil, end)

		_, err := svc.CashFlowByPeriod(context.Background(), clinicID, start, end)
		assert.ErrorIs(t, err, ErrReportFailed)
	})
}

func TestFinancialSummaryByPeriod(t *testing.T) {
	clinicID := uuid.New()
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)

	t.Run("computes totals and margin", func(t *testing.T) {
		reader := &fakeTransactionReader{txns: []*model.FinancialTransaction{
			txn(100000, start),
			txn(-25000, start.AddDate(0, 0, 3)),
			txn(-25000, start.AddDate(0, 0, 10)),
		}}
		svc := newTestService(reader, &fakeExpenseReader{pending: 4000}, end)

		summary, err := svc.FinancialSummaryByPeriod(context.Background(), clinicID, start, end)
		require.NoError(t, err)

		assert.Equal(t, int64(100000), summary.TotalRevenue)
		assert.Equal(t, int64(50000), summary.TotalExpenses)
		assert.Equal(t, int64(50000), summary.NetProfit)
		assert.Equal(t, float64(50), summary.ProfitMargin)
		assert.Equal(t, int64(4000), summary.PendingExpenses)
		assert.Equal(t, 3, summary.TransactionCount)
	})

	t.Run("zero revenue yields zero margin", func(t *testing.T) {
		reader := &fakeTransactionReader{txns: []*model.FinancialTransaction{
			txn(-8000, start),
		}}
		svc := newTestService(reader, nil, end)

		summary, err := svc.FinancialSummaryByPeriod(context.Background(), clinicID, start, end)
		require.NoError(t, err)

		assert.Equal(t, int64(-8000), summary.NetProfit)
		assert.Zero(t, summary.ProfitMargin)
	})
}

func TestExpenseBreakdownByCategory(t *testing.T) {
	clinicID := uuid.New()
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

	expense := func(category string, amount int64, status model.ExpenseStatus) *model.Expense {
		return &model.Expense{Base: model.Base{ID: uuid.New()}, Category: category, Amount: amount, Status: status}
	}

	t.Run("groups by first occurrence order and skips cancelled", func(t *testing.T) {
		reader := &fakeExpenseReader{expenses: []*model.Expense{
			expense("rent", 50000, model.ExpenseStatusPaid),
			expense("supplies", 3000, model.ExpenseStatusPending),
			expense("rent", 50000, model.ExpenseStatusPending),
			expense("supplies", 9000, model.ExpenseStatusCancelled),
			expense("payroll", 120000, model.ExpenseStatusPaid),
		}}
		svc := newTestService(nil, reader, now)

		chart, err := svc.ExpenseBreakdownByCategory(context.Background(), clinicID, model.ReportPeriodMonth)
		require.NoError(t, err)

		assert.Equal(t, []string{"rent", "supplies", "payroll"}, chart.Labels)
		require.Len(t, chart.Datasets, 1)
		assert.Equal(t, []int64{100000, 3000, 120000}, chart.Datasets[0].Data)
	})

	t.Run("rejects unknown period", func(t *testing.T) {
		svc := newTestService(nil, nil, now)

		_, err := svc.ExpenseBreakdownByCategory(context.Background(), clinicID, model.ReportPeriod("decade"))
		assert.Error(t, err)
	})
}

func TestRevenueVsExpenseByPeriod(t *testing.T) {
	clinicID := uuid.New()
	now := time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)

	intervalCounts := map[model.ReportPeriod]int{
		model.ReportPeriodWeek:    7,
		model.ReportPeriodMonth:   4,
		model.ReportPeriodQuarter: 3,
		model.ReportPeriodYear:    12,
	}

	for period, count := range intervalCounts {
		period, count := period, count
		t.Run(string(period)+" interval count", func(t *testing.T) {
			svc := newTestService(&fakeTransactionReader{}, nil, now)

			chart, err := svc.RevenueVsExpenseByPeriod(context.Background(), clinicID, period)
			require.NoError(t, err)

			assert.Len(t, chart.Labels, count)
			require.Len(t, chart.Datasets, 2)
			assert.Len(t, chart.Datasets[0].Data, count)
			assert.Len(t, chart.Datasets[1].Data, count)
		})
	}

	t.Run("places transactions by linear interpolation", func(t *testing.T) {
		start := now.AddDate(0, 0, -7)
		reader := &fakeTransactionReader{txns: []*model.FinancialTransaction{
			txn(1000, start),
			txn(2000, start.AddDate(0, 0, 3)),
			txn(-500, start.AddDate(0, 0, 3).Add(time.Hour)),
			txn(3000, now),
		}}
		svc := newTestService(reader, nil, now)

		chart, err := svc.RevenueVsExpenseByPeriod(context.Background(), clinicID, model.ReportPeriodWeek)
		require.NoError(t, err)

		assert.Equal(t, []int64{1000, 0, 0, 2000, 0, 0, 3000}, chart.Datasets[0].Data)
		assert.Equal(t, []int64{0, 0, 0, 500, 0, 0, 0}, chart.Datasets[1].Data)
	})
}

func TestIntervalIndex(t *testing.T) {
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 7)

	assert.Equal(t, 0, intervalIndex(start, start, end, 7))
	assert.Equal(t, 3, intervalIndex(start.AddDate(0, 0, 3), start, end, 7))
	assert.Equal(t, 6, intervalIndex(end, start, end, 7))
	assert.Equal(t, -1, intervalIndex(start.Add(-time.Minute), start, end, 7))
	assert.Equal(t, -1, intervalIndex(end.Add(time.Minute), start, end, 7))
}
