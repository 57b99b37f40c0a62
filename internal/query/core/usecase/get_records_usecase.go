package usecase

import (
	"context"
	"errors"
	"net/url"

	"reporting-store/internal/query/core/domain"
	"reporting-store/internal/query/core/engine"
	"reporting-store/internal/query/core/ports"

	"go.uber.org/zap"
)

var ErrInvalidQuery = errors.New("invalid query")

type GetRecordsInput struct {
	Bucket string
	Args   url.Values
}

type GetRecordsUseCase struct {
	buckets ports.BucketReaderPort
	store   ports.CollectionProviderPort
	logger  *zap.Logger
}

func NewGetRecordsUseCase(buckets ports.BucketReaderPort, store ports.CollectionProviderPort, logger *zap.Logger) *GetRecordsUseCase {
	return &GetRecordsUseCase{buckets: buckets, store: store, logger: logger}
}

// Execute looks up the bucket, validates the arguments against its settings
// and runs the resulting query.
func (uc *GetRecordsUseCase) Execute(ctx context.Context, in GetRecordsInput) (domain.ResultSet, error) {
	bucket, err := uc.buckets.Retrieve(ctx, in.Bucket)
	if err != nil {
		return nil, err
	}

	q, err := ParseQuery(in.Args, bucket.RawQueriesAllowed)
	if err != nil {
		return nil, err
	}

	uc.logger.Debug("executing query",
		zap.String("bucket", bucket.Name),
		zap.String("type", string(q.Type())),
	)

	repo := engine.NewRepository(uc.store.Collection(bucket.Name))
	return engine.Execute(ctx, q, repo)
}
