package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"moneta/internal/core"
	"moneta/internal/storage"
)

// Synthetic pseudo-category labels for transfer buckets.
const (
	transferOutName = "Transfer out"
	transferInName  = "Transfer in"
	transferName    = "Transfer"
)

// ReportingService answers the "how much, grouped by what" questions behind
// the home and statistics screens. It reads the same storage the edit
// workflows write; grouping happens in SQL, transfer buckets and the
// zero-filled monthly series are assembled here.
type ReportingService struct {
	repo        *storage.Repository
	groupCache  *reportCache[[]core.GroupedCategory]
	seriesCache *reportCache[[]core.MonthTotals]
	stopWatch   func()
}

func NewReportingService(repo *storage.Repository) *ReportingService {
	s := &ReportingService{
		repo:        repo,
		groupCache:  newReportCache[[]core.GroupedCategory](100, 5*time.Minute),
		seriesCache: newReportCache[[]core.MonthTotals](50, 5*time.Minute),
	}

	changes, cancel := repo.Watch()
	s.stopWatch = cancel
	go func() {
		for range changes {
			s.groupCache.purge()
			s.seriesCache.purge()
		}
	}()

	return s
}

// Close stops the change subscription.
func (s *ReportingService) Close() {
	if s.stopWatch != nil {
		s.stopWatch()
	}
}

// GroupByCategory sums operations per category and transfers per direction
// over [from, to] inclusive. accountID 0 reports over every account, where
// transfers collapse into one undirected bucket counted once.
func (s *ReportingService) GroupByCategory(ctx context.Context, accountID int64, from, to time.Time) ([]core.GroupedCategory, error) {
	key := fmt.Sprintf("g|%d|%d|%d", accountID, from.Unix(), to.Unix())
	if cached, ok := s.groupCache.get(key); ok {
		return cached, nil
	}

	opSums, err := s.repo.SumOperationsByCategory(ctx, accountID, from, to)
	if err != nil {
		return nil, err
	}

	groups := make([]core.GroupedCategory, 0, len(opSums)+2)
	for _, sum := range opSums {
		typ := core.GroupExpense
		if sum.CategoryType == core.Income {
			typ = core.GroupIncome
		}
		id := sum.CategoryID
		groups = append(groups, core.GroupedCategory{
			Type:         typ,
			CategoryName: sum.CategoryName,
			CategoryID:   &id,
			Total:        sum.Total,
		})
	}

	if accountID == core.TotalAccountID {
		total, err := s.repo.SumTransfersAll(ctx, from, to)
		if err != nil {
			return nil, err
		}
		if total.Cents > 0 {
			groups = append(groups, core.GroupedCategory{
				Type:         core.GroupTransfer,
				CategoryName: transferName,
				Total:        total,
			})
		}
	} else {
		out, err := s.repo.SumTransfersOut(ctx, accountID, from, to)
		if err != nil {
			return nil, err
		}
		if out.Cents > 0 {
			groups = append(groups, core.GroupedCategory{
				Type:         core.GroupOutcomeTransfer,
				CategoryName: transferOutName,
				Total:        out,
			})
		}
		in, err := s.repo.SumTransfersIn(ctx, accountID, from, to)
		if err != nil {
			return nil, err
		}
		if in.Cents > 0 {
			groups = append(groups, core.GroupedCategory{
				Type:         core.GroupIncomeTransfer,
				CategoryName: transferInName,
				Total:        in,
			})
		}
	}

	s.groupCache.set(key, groups)
	slog.DebugContext(ctx, "Grouped categories computed",
		"account_id", accountID, "buckets", len(groups))
	return groups, nil
}

// MonthlySeries returns exactly twelve MonthTotals covering the rolling
// twelve-month window that ends at now's calendar month, oldest first.
// Months without activity are zero-filled so charts keep a fixed width.
func (s *ReportingService) MonthlySeries(ctx context.Context, accountID int64, now time.Time) ([]core.MonthTotals, error) {
	end := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0).Add(-time.Second)
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -11, 0)

	key := fmt.Sprintf("m|%d|%d|%d", accountID, start.Unix(), end.Unix())
	if cached, ok := s.seriesCache.get(key); ok {
		return cached, nil
	}

	sums, err := s.repo.SumOperationsByMonth(ctx, accountID, start, end)
	if err != nil {
		return nil, err
	}

	series := make([]core.MonthTotals, 12)
	index := make(map[string]*core.MonthTotals, 12)
	for i := range series {
		month := start.AddDate(0, i, 0)
		series[i] = core.MonthTotals{Year: month.Year(), Month: int(month.Month())}
		index[fmt.Sprintf("%d-%d", series[i].Year, series[i].Month)] = &series[i]
	}
	for _, sum := range sums {
		bucket, ok := index[fmt.Sprintf("%d-%d", sum.Year, sum.Month)]
		if !ok {
			continue
		}
		switch sum.Type {
		case core.Expense:
			bucket.Expense = bucket.Expense.Add(sum.Total)
		case core.Income:
			bucket.Income = bucket.Income.Add(sum.Total)
		}
	}

	s.seriesCache.set(key, series)
	return series, nil
}

// ListEntries returns the unified journal (operations and transfers) for an
// account and period, newest first. accountID 0 selects every entry.
func (s *ReportingService) ListEntries(ctx context.Context, accountID int64, from, to time.Time) ([]core.Entry, error) {
	ops, err := s.repo.ListOperations(ctx, accountID, from, to)
	if err != nil {
		return nil, err
	}
	transfers, err := s.repo.ListTransfers(ctx, accountID, from, to)
	if err != nil {
		return nil, err
	}

	entries := make([]core.Entry, 0, len(ops)+len(transfers))
	for _, op := range ops {
		entries = append(entries, core.NewOperationEntry(op))
	}
	for _, tr := range transfers {
		entries = append(entries, core.NewTransferEntry(tr))
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Date().After(entries[j].Date())
	})
	return entries, nil
}
