package usecase

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	buckets "reporting-store/internal/buckets/core/domain"
	"reporting-store/internal/records/core/domain"
	"reporting-store/internal/records/core/ports"
	storage "reporting-store/internal/storage/core/domain"

	"go.uber.org/zap"
)

var ErrForbidden = errors.New("forbidden")

type StoreRecordsUseCase struct {
	buckets ports.BucketReaderPort
	store   ports.CollectionProviderPort
	logger  *zap.Logger
	now     func() time.Time
}

func NewStoreRecordsUseCase(buckets ports.BucketReaderPort, store ports.CollectionProviderPort, logger *zap.Logger) *StoreRecordsUseCase {
	return &StoreRecordsUseCase{buckets: buckets, store: store, logger: logger, now: time.Now}
}

type StoreRecordsInput struct {
	Bucket  string
	Token   string
	Records []storage.Document
}

// Execute authorises the write, validates every record and only then saves
// them. Nothing is written when any record is invalid.
func (uc *StoreRecordsUseCase) Execute(ctx context.Context, in StoreRecordsInput) (int, error) {
	if !buckets.ValidName(in.Bucket) {
		return 0, buckets.ErrBucketNotFound
	}

	bucket, err := uc.buckets.Retrieve(ctx, in.Bucket)
	if err != nil {
		return 0, err
	}

	if !authorized(bucket.BearerToken, in.Token) {
		uc.logger.Warn("rejected write",
			zap.String("bucket", bucket.Name),
		)
		return 0, ErrForbidden
	}

	for _, doc := range in.Records {
		if err := domain.Validate(doc); err != nil {
			return 0, err
		}
	}

	now := uc.now()
	prepared := make([]storage.Document, 0, len(in.Records))
	for _, doc := range in.Records {
		rec, err := domain.Prepare(doc, bucket.AutoIDKeys, now)
		if err != nil {
			return 0, err
		}
		prepared = append(prepared, rec)
	}

	coll := uc.store.Collection(bucket.Name)
	for i, rec := range prepared {
		if err := coll.Save(ctx, rec); err != nil {
			uc.logger.Error("saving record",
				zap.String("bucket", bucket.Name),
				zap.Int("saved", i),
				zap.Error(err),
			)
			return i, err
		}
	}

	uc.logger.Debug("stored records",
		zap.String("bucket", bucket.Name),
		zap.Int("count", len(prepared)),
	)

	return len(prepared), nil
}

// A bucket without a configured token accepts no writes.
func authorized(expected, given string) bool {
	if expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(given)) == 1
}
