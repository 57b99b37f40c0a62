package fiber

import (
	"context"
	"errors"
	"net/http"
	"strings"

	buckets "reporting-store/internal/buckets/core/domain"
	"reporting-store/internal/records/core/domain"
	"reporting-store/internal/records/core/usecase"
	storage "reporting-store/internal/storage/core/domain"

	"github.com/gofiber/fiber/v2"
)

type StoreRecordsUseCase interface {
	Execute(ctx context.Context, in usecase.StoreRecordsInput) (int, error)
}

type RecordHandler struct {
	storeUC StoreRecordsUseCase
}

func NewRecordHandler(storeUC StoreRecordsUseCase) *RecordHandler {
	return &RecordHandler{storeUC: storeUC}
}

// StoreRecords godoc
// @Summary Write records to a bucket
// @Description Stores one JSON object or an array of them; every record is validated before any is saved
// @Tags Records
// @Accept json
// @Produce json
// @Param bucket path string true "Bucket name"
// @Param Authorization header string true "Bearer token of the bucket"
// @Param request body []object true "Record or list of records"
// @Success 200 {object} StoreRecordsResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /{bucket} [post]
func (h *RecordHandler) StoreRecords(c *fiber.Ctx) error {
	records, err := storage.ParseDocuments(c.Body())
	if err != nil {
		return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
			Error:   "invalid_json",
			Message: err.Error(),
		})
	}

	in := usecase.StoreRecordsInput{
		Bucket:  c.Params("bucket"),
		Token:   bearerToken(c.Get(fiber.HeaderAuthorization)),
		Records: records,
	}

	if _, err := h.storeUC.Execute(c.UserContext(), in); err != nil {
		switch {
		case errors.Is(err, buckets.ErrBucketNotFound):
			return c.Status(http.StatusNotFound).JSON(ErrorResponse{
				Error:   "bucket_not_found",
				Message: "bucket '" + in.Bucket + "' does not exist",
			})
		case errors.Is(err, usecase.ErrForbidden):
			return c.Status(http.StatusForbidden).JSON(ErrorResponse{
				Error:   "forbidden",
				Message: "Forbidden",
			})
		case errors.Is(err, domain.ErrInvalidRecord):
			return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
				Error:   "invalid_record",
				Message: err.Error(),
			})
		default:
			return c.Status(http.StatusInternalServerError).JSON(ErrorResponse{
				Error: "internal_server_error",
			})
		}
	}

	return c.Status(http.StatusOK).JSON(StoreRecordsResponse{Status: "ok"})
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
