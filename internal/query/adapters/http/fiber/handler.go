package fiber

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	buckets "reporting-store/internal/buckets/core/domain"
	"reporting-store/internal/query/core/domain"
	"reporting-store/internal/query/core/engine"
	"reporting-store/internal/query/core/usecase"
	storage "reporting-store/internal/storage/core/domain"

	"github.com/gofiber/fiber/v2"
)

type GetRecordsUseCase interface {
	Execute(ctx context.Context, in usecase.GetRecordsInput) (domain.ResultSet, error)
}

type QueryHandler struct {
	uc GetRecordsUseCase
}

func NewQueryHandler(uc GetRecordsUseCase) *QueryHandler {
	return &QueryHandler{uc: uc}
}

// GetRecords godoc
// @Summary Query a bucket
// @Description Returns raw records, groups or period series depending on the arguments
// @Tags Query
// @Produce json
// @Param bucket path string true "Bucket name"
// @Param start_at query string false "Inclusive lower bound, RFC 3339"
// @Param end_at query string false "Exclusive upper bound, RFC 3339"
// @Param filter_by query []string false "field:value equality filter" collectionFormat(multi)
// @Param period query string false "Period: week | month"
// @Param group_by query string false "Field to group by"
// @Param sort_by query string false "field:ascending | field:descending"
// @Param limit query int false "Maximum number of rows"
// @Param collect query []string false "Field to collect per group" collectionFormat(multi)
// @Success 200 {object} DataResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /{bucket} [get]
func (h *QueryHandler) GetRecords(c *fiber.Ctx) error {
	args := url.Values{}
	c.Context().QueryArgs().VisitAll(func(key, value []byte) {
		args.Add(string(key), string(value))
	})

	in := usecase.GetRecordsInput{
		Bucket: c.Params("bucket"),
		Args:   args,
	}

	res, err := h.uc.Execute(c.UserContext(), in)
	if err != nil {
		switch {
		case errors.Is(err, buckets.ErrBucketNotFound):
			return c.Status(http.StatusNotFound).JSON(ErrorResponse{
				Error:   "bucket_not_found",
				Message: "bucket '" + in.Bucket + "' does not exist",
			})
		case errors.Is(err, usecase.ErrInvalidQuery),
			errors.Is(err, engine.ErrGroupingEqualKeys),
			errors.Is(err, engine.ErrInvalidSort),
			errors.Is(err, storage.ErrIncomparableValues):
			return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
				Error:   "invalid_query",
				Message: err.Error(),
			})
		default:
			return c.Status(http.StatusInternalServerError).JSON(ErrorResponse{
				Error: "internal_server_error",
			})
		}
	}

	return c.Status(http.StatusOK).JSON(DataResponse{Data: res.Data()})
}
