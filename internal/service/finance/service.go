package finance

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicore/clinic-api/internal/model"
	"github.com/clinicore/clinic-api/pkg/metrics"
)

// ErrReportFailed hides data-access details from report consumers. The
// underlying cause is logged server-side; no partial results are returned.
var ErrReportFailed = errors.New("failed to generate report")

// TransactionReader is the slice of the transaction repository the reports
// need.
type TransactionReader interface {
	ListInRange(ctx context.Context, clinicID uuid.UUID, start, end time.Time) ([]*model.FinancialTransaction, error)
}

// ExpenseReader is the slice of the expense repository the reports need.
type ExpenseReader interface {
	ListDueInRange(ctx context.Context, clinicID uuid.UUID, start, end time.Time) ([]*model.Expense, error)
	SumPendingInRange(ctx context.Context, clinicID uuid.UUID, start, end time.Time) (int64, error)
}

// Service computes read-only financial views. Every call recomputes from
// raw rows; there is no caching layer.
type Service struct {
	transactions TransactionReader
	expenses     ExpenseReader
	metrics      *metrics.Metrics
	logger       zerolog.Logger
	now          func() time.Time
}

func NewService(transactions TransactionReader, expenses ExpenseReader, m *metrics.Metrics, logger zerolog.Logger) *Service {
	return &Service{
		transactions: transactions,
		expenses:     expenses,
		metrics:      m,
		logger:       logger,
		now:          time.Now,
	}
}

// CashFlowByPeriod buckets transactions by calendar day over the inclusive
// [start, end] range. Every day appears in the output, zero-filled when it
// has no transactions, so each series always has daysBetween(start,end)+1
// points.
func (s *Service) CashFlowByPeriod(ctx context.Context, clinicID uuid.UUID, start, end time.Time) (*model.ChartData, error) {
	defer s.observe("cash_flow")()

	startDay := truncateToDay(start)
	endDay := truncateToDay(end)
	if endDay.Before(startDay) {
		return nil, fmt.Errorf("end date precedes start date")
	}

	txns, err := s.transactions.ListInRange(ctx, clinicID, startDay, endOfDay(endDay))
	if err != nil {
		return nil, s.reportError("cash_flow", err)
	}

	days := daysBetween(startDay, endDay) + 1
	income := make([]int64, days)
	expense := make([]int64, days)
	balance := make([]int64, days)
	labels := make([]string, days)

	for i := 0; i < days; i++ {
		labels[i] = startDay.AddDate(0, 0, i).Format("2006-01-02")
	}

	for _, txn := range txns {
		idx := daysBetween(startDay, truncateToDay(txn.Date))
		if idx < 0 || idx >= days {
			continue
		}
		if txn.Amount > 0 {
			income[idx] += txn.Amount
		} else {
			expense[idx] += -txn.Amount
		}
	}

	for i := 0; i < days; i++ {
		balance[i] = income[i] - expense[i]
	}

	return &model.ChartData{
		Labels: labels,
		Datasets: []model.Dataset{
			{Label: "income", Data: income},
			{Label: "expense", Data: expense},
			{Label: "balance", Data: balance},
		},
	}, nil
}

// FinancialSummaryByPeriod runs a single pass over transactions in range.
// ProfitMargin is 0 when there is no revenue, never NaN.
func (s *Service) FinancialSummaryByPeriod(ctx context.Context, clinicID uuid.UUID, start, end time.Time) (*model.FinancialSummary, error) {
	defer s.observe("summary")()

	startDay := truncateToDay(start)
	endDay := endOfDay(truncateToDay(end))

	txns, err := s.transactions.ListInRange(ctx, clinicID, startDay, endDay)
	if err != nil {
		return nil, s.reportError("summary", err)
	}

	summary := &model.FinancialSummary{TransactionCount: len(txns)}
	for _, txn := range txns {
		if txn.Amount > 0 {
			summary.TotalRevenue += txn.Amount
		} else {
			summary.TotalExpenses += -txn.Amount
		}
	}
	summary.NetProfit = summary.TotalRevenue - summary.TotalExpenses
	if summary.TotalRevenue > 0 {
		summary.ProfitMargin = float64(summary.NetProfit) / float64(summary.TotalRevenue) * 100
	}

	pending, err := s.expenses.SumPendingInRange(ctx, clinicID, startDay, endDay)
	if err != nil {
		return nil, s.reportError("summary", err)
	}
	summary.PendingExpenses = pending

	return summary, nil
}

// ExpenseBreakdownByCategory groups non-cancelled expenses due in the
// period's window by category. Categories appear in insertion order of
// first occurrence; no further ordering is guaranteed.
func (s *Service) ExpenseBreakdownByCategory(ctx context.Context, clinicID uuid.UUID, period model.ReportPeriod) (*model.ChartData, error) {
	defer s.observe("expense_breakdown")()

	now := s.now()
	start, _, err := periodWindow(period, now)
	if err != nil {
		return nil, err
	}

	expenses, err := s.expenses.ListDueInRange(ctx, clinicID, start, now)
	if err != nil {
		return nil, s.reportError("expense_breakdown", err)
	}

	totals := groupByCategory(expenses)

	labels := make([]string, len(totals))
	data := make([]int64, len(totals))
	for i, t := range totals {
		labels[i] = t.Category
		data[i] = t.Total
	}

	return &model.ChartData{
		Labels:   labels,
		Datasets: []model.Dataset{{Label: "expenses", Data: data}},
	}, nil
}

// RevenueVsExpenseByPeriod splits the period's window into a fixed number
// of equal-width intervals and sums positive and negative transaction
// amounts per interval.
func (s *Service) RevenueVsExpenseByPeriod(ctx context.Context, clinicID uuid.UUID, period model.ReportPeriod) (*model.ChartData, error) {
	defer s.observe("revenue_vs_expense")()

	now := s.now()
	start, intervals, err := periodWindow(period, now)
	if err != nil {
		return nil, err
	}

	txns, err := s.transactions.ListInRange(ctx, clinicID, start, now)
	if err != nil {
		return nil, s.reportError("revenue_vs_expense", err)
	}

	revenue := make([]int64, intervals)
	expense := make([]int64, intervals)
	for _, txn := range txns {
		idx := intervalIndex(txn.Date, start, now, intervals)
		if idx < 0 || idx >= intervals {
			continue
		}
		if txn.Amount > 0 {
			revenue[idx] += txn.Amount
		} else {
			expense[idx] += -txn.Amount
		}
	}

	return &model.ChartData{
		Labels: intervalLabels(period, start, now, intervals),
		Datasets: []model.Dataset{
			{Label: "revenue", Data: revenue},
			{Label: "expense", Data: expense},
		},
	}, nil
}

func (s *Service) reportError(report string, err error) error {
	s.logger.Error().Err(err).Str("report", report).Msg("report generation failed")
	return ErrReportFailed
}

func (s *Service) observe(report string) func() {
	if s.metrics == nil {
		return func() {}
	}
	start := time.Now()
	return func() {
		s.metrics.ReportDuration.WithLabelValues(report).Observe(time.Since(start).Seconds())
	}
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}

func daysBetween(start, end time.Time) int {
	return int(end.Sub(start).Hours() / 24)
}

// periodWindow maps a symbolic period to its window start relative to now
// and the number of chart intervals for that period.
func periodWindow(period model.ReportPeriod, now time.Time) (time.Time, int, error) {
	switch period {
	case model.ReportPeriodWeek:
		return now.AddDate(0, 0, -7), 7, nil
	case model.ReportPeriodMonth:
		return now.AddDate(0, -1, 0), 4, nil
	case model.ReportPeriodQuarter:
		return now.AddDate(0, -3, 0), 3, nil
	case model.ReportPeriodYear:
		return now.AddDate(-1, 0, 0), 12, nil
	default:
		return time.Time{}, 0, fmt.Errorf("invalid period %q", period)
	}
}

// intervalIndex places a timestamp into one of n equal-width intervals of
// [start, end] by linear interpolation. Timestamps exactly at end land in
// the last interval.
func intervalIndex(t, start, end time.Time, n int) int {
	window := end.Sub(start)
	if window <= 0 || n <= 0 {
		return -1
	}
	offset := t.Sub(start)
	if offset < 0 || offset > window {
		return -1
	}
	idx := int(math.Floor(float64(offset) / (float64(window) / float64(n))))
	if idx >= n {
		idx = n - 1
	}
	return idx
}

func intervalLabels(period model.ReportPeriod, start, end time.Time, n int) []string {
	labels := make([]string, n)
	width := end.Sub(start) / time.Duration(n)
	for i := 0; i < n; i++ {
		intervalStart := start.Add(width * time.Duration(i))
		switch period {
		case model.ReportPeriodWeek:
			labels[i] = intervalStart.Format("Mon 02")
		case model.ReportPeriodYear:
			labels[i] = intervalStart.Format("Jan 2006")
		default:
			intervalEnd := start.Add(width * time.Duration(i+1))
			labels[i] = intervalStart.Format("02 Jan") + " - " + intervalEnd.Format("02 Jan")
		}
	}
	return labels
}

// groupByCategory sums non-cancelled expenses per category, preserving the
// order in which each category first appears.
func groupByCategory(expenses []*model.Expense) []model.CategoryTotal {
	index := make(map[string]int)
	totals := make([]model.CategoryTotal, 0)
	for _, e := range expenses {
		if e.Status == model.ExpenseStatusCancelled {
			continue
		}
		i, ok := index[e.Category]
		if !ok {
			i = len(totals)
			index[e.Category] = i
			totals = append(totals, model.CategoryTotal{Category: e.Category})
		}
		totals[i].Total += e.Amount
	}
	return totals
}
