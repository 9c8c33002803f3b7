package table

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"workoutsync/internal/app/server/api/http/middleware/auth"
	"workoutsync/internal/domain/table"
)

// OpRecorder учет исходов операций (метрики)
type OpRecorder interface {
	TableOp(table, op, outcome string)
}

type Handler struct {
	service    table.Servicer
	metrics    OpRecorder
	log        *slog.Logger
	middleware huma.Middlewares
}

func NewHandler(service table.Servicer, metrics OpRecorder, log *slog.Logger, mws huma.Middlewares) *Handler {
	return &Handler{
		service:    service,
		metrics:    metrics,
		log:        log.With("component", "table_handler"),
		middleware: mws,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.selectOp(), h.selectRows)
	huma.Register(api, h.insertOp(), h.insert)
	huma.Register(api, h.upsertOp(), h.upsert)
	huma.Register(api, h.updateOp(), h.update)
	huma.Register(api, h.deleteOp(), h.delete)
}

func (h *Handler) selectRows(ctx context.Context, input *selectInput) (*rowsOutput, error) {
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	rows, err := h.service.Select(ctx, userID, input.Table, input.Body.Filter)
	if err != nil {
		return nil, h.fail(input.Table, "select", err)
	}
	h.record(input.Table, "select", "ok")

	if rows == nil {
		rows = []table.Row{}
	}
	return &rowsOutput{Body: RowsResponse{Rows: rows}}, nil
}

func (h *Handler) insert(ctx context.Context, input *insertInput) (*rowOutput, error) {
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	row, err := h.service.Insert(ctx, userID, input.Table, input.Body.Row)
	if err != nil {
		return nil, h.fail(input.Table, "insert", err)
	}
	h.record(input.Table, "insert", "ok")
	return &rowOutput{Body: RowResponse{Row: row}}, nil
}

func (h *Handler) upsert(ctx context.Context, input *upsertInput) (*rowOutput, error) {
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	row, err := h.service.Upsert(ctx, userID, input.Table, input.Body.Row, input.Body.OnConflict)
	if err != nil {
		return nil, h.fail(input.Table, "upsert", err)
	}
	h.record(input.Table, "upsert", "ok")
	return &rowOutput{Body: RowResponse{Row: row}}, nil
}

func (h *Handler) update(ctx context.Context, input *updateInput) (*updateOutput, error) {
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	if err := h.service.Update(ctx, userID, input.Table, input.ID, input.Body.Row); err != nil {
		return nil, h.fail(input.Table, "update", err)
	}
	h.record(input.Table, "update", "ok")
	return &updateOutput{Body: StatusResponse{Status: "Ok"}}, nil
}

func (h *Handler) delete(ctx context.Context, input *deleteInput) (*deleteOutput, error) {
	userID, ok := auth.GetUserID(ctx)
	if !ok {
		return nil, huma.Error401Unauthorized("Unauthorized")
	}

	n, err := h.service.Delete(ctx, userID, input.Table, input.Body.Filter)
	if err != nil {
		return nil, h.fail(input.Table, "delete", err)
	}
	h.record(input.Table, "delete", "ok")
	return &deleteOutput{Body: DeleteResponse{Deleted: n}}, nil
}

// fail переводит ошибки домена в HTTP-ответы. Нарушение внешнего ключа
// отдается как 409 с кодом foreign_key_violation, клиент по нему переходит
// на мягкое удаление.
func (h *Handler) fail(tableName, op string, err error) error {
	switch {
	case errors.Is(err, table.ErrReferenced):
		h.record(tableName, op, "referenced")
		return huma.NewError(http.StatusConflict, table.CodeForeignKeyViolation)
	case errors.Is(err, table.ErrUnknownTable), errors.Is(err, table.ErrNotFound):
		h.record(tableName, op, "not_found")
		return huma.Error404NotFound(err.Error())
	case errors.Is(err, table.ErrUnknownColumn),
		errors.Is(err, table.ErrInvalidValue),
		errors.Is(err, table.ErrEmptyFilter),
		errors.Is(err, table.ErrEmptyRow):
		h.record(tableName, op, "invalid")
		return huma.Error400BadRequest(err.Error())
	}

	h.record(tableName, op, "error")
	h.log.Error("table operation failed", "table", tableName, "op", op, "error", err)
	return huma.Error500InternalServerError("table operation failed")
}

func (h *Handler) record(tableName, op, outcome string) {
	if h.metrics != nil {
		h.metrics.TableOp(tableName, op, outcome)
	}
}
