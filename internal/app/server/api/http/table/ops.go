package table

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (h *Handler) selectOp() huma.Operation {
	return huma.Operation{
		OperationID: "tables-select",
		Method:      http.MethodPost,
		Path:        "/api/v1/tables/{table}/select",
		Summary:     "Выборка строк по условиям равенства",
		Tags:        []string{"tables"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.middleware,
	}
}

func (h *Handler) insertOp() huma.Operation {
	return huma.Operation{
		OperationID:   "tables-insert",
		Method:        http.MethodPost,
		Path:          "/api/v1/tables/{table}",
		Summary:       "Вставить строку",
		Tags:          []string{"tables"},
		DefaultStatus: http.StatusCreated,
		Security:      []map[string][]string{{"bearer": {}}},
		Middlewares:   h.middleware,
	}
}

func (h *Handler) upsertOp() huma.Operation {
	return huma.Operation{
		OperationID: "tables-upsert",
		Method:      http.MethodPut,
		Path:        "/api/v1/tables/{table}",
		Summary:     "Обновить или вставить строку по естественному ключу",
		Description: "Ищет первую строку по колонкам on_conflict (текст без учета регистра). Уникальность ключа не гарантируется.",
		Tags:        []string{"tables"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.middleware,
	}
}

func (h *Handler) updateOp() huma.Operation {
	return huma.Operation{
		OperationID: "tables-update",
		Method:      http.MethodPatch,
		Path:        "/api/v1/tables/{table}/{id}",
		Summary:     "Обновить строку по ключу",
		Tags:        []string{"tables"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.middleware,
	}
}

func (h *Handler) deleteOp() huma.Operation {
	return huma.Operation{
		OperationID: "tables-delete",
		Method:      http.MethodPost,
		Path:        "/api/v1/tables/{table}/delete",
		Summary:     "Удалить строки по условиям",
		Description: "Пустой фильтр отклоняется. При нарушении внешнего ключа возвращает 409 foreign_key_violation.",
		Tags:        []string{"tables"},
		Security:    []map[string][]string{{"bearer": {}}},
		Middlewares: h.middleware,
	}
}
