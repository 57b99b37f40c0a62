package engine

import (
	"context"

	"reporting-store/internal/query/core/domain"
	storage "reporting-store/internal/storage/core/domain"
)

// Execute runs q against repo and shapes the result by query type. Store
// errors are returned unchanged.
func Execute(ctx context.Context, q domain.Query, repo *Repository) (domain.ResultSet, error) {
	switch q.Type() {
	case domain.TypePeriodGrouped:
		return executePeriodGrouped(ctx, q, repo)
	case domain.TypeGrouped:
		return executeGrouped(ctx, q, repo)
	case domain.TypePeriod:
		return executePeriod(ctx, q, repo)
	}
	return executeStandard(ctx, q, repo)
}

func executePeriodGrouped(ctx context.Context, q domain.Query, repo *Repository) (domain.ResultSet, error) {
	rows, err := repo.MultiGroup(ctx, q.GroupBy, q.Period.StartAtKey, q.Filter(), q.SortBy, q.Limit, q.CollectFields())
	if err != nil {
		return nil, err
	}

	results := domain.NewPeriodGroupedData(rows, q.Period)
	if q.Bounded() {
		results.FillMissingPeriods(*q.StartAt, *q.EndAt)
	}
	return results, nil
}

func executeGrouped(ctx context.Context, q domain.Query, repo *Repository) (domain.ResultSet, error) {
	rows, err := repo.Group(ctx, q.GroupBy, q.Filter(), q.SortBy, q.Limit, q.CollectFields())
	if err != nil {
		return nil, err
	}
	return domain.NewGroupedData(rows), nil
}

func executePeriod(ctx context.Context, q domain.Query, repo *Repository) (domain.ResultSet, error) {
	key := q.Period.StartAtKey
	s := &storage.Sort{Field: key, Direction: storage.Ascending}

	rows, err := repo.Group(ctx, key, q.Filter(), s, q.Limit, q.CollectFields())
	if err != nil {
		return nil, err
	}

	results := domain.NewPeriodData(rows, q.Period)
	if q.Bounded() {
		results.FillMissingPeriods(*q.StartAt, *q.EndAt)
	}
	return results, nil
}

func executeStandard(ctx context.Context, q domain.Query, repo *Repository) (domain.ResultSet, error) {
	docs, err := repo.Find(ctx, q.Filter(), q.SortBy, q.Limit)
	if err != nil {
		return nil, err
	}
	return domain.NewSimpleData(docs), nil
}
