package table

import "workoutsync/internal/domain/table"

type selectInput struct {
	Table string `path:"table" example:"templates" doc:"Имя таблицы"`
	Body  filterRequest
}

type deleteInput struct {
	Table string `path:"table" example:"templates" doc:"Имя таблицы"`
	Body  filterRequest
}

type filterRequest struct {
	Filter table.Filter `json:"filter" doc:"Условия равенства, объединенные через AND"`
}

type insertInput struct {
	Table string `path:"table" example:"exercises" doc:"Имя таблицы"`
	Body  rowRequest
}

type upsertInput struct {
	Table string `path:"table" example:"templates" doc:"Имя таблицы"`
	Body  upsertRequest
}

type updateInput struct {
	Table string `path:"table" example:"exercises" doc:"Имя таблицы"`
	ID    string `path:"id" example:"1" doc:"Ключ строки"`
	Body  rowRequest
}

type rowRequest struct {
	Row table.Row `json:"row"`
}

type upsertRequest struct {
	Row        table.Row `json:"row"`
	OnConflict []string  `json:"on_conflict" minItems:"1" doc:"Колонки естественного ключа"`
}

type rowsOutput struct {
	Body RowsResponse
}

type RowsResponse struct {
	Rows []table.Row `json:"rows"`
}

type rowOutput struct {
	Body RowResponse
}

type RowResponse struct {
	Row table.Row `json:"row"`
}

type updateOutput struct {
	Body StatusResponse
}

type StatusResponse struct {
	Status string `json:"status"`
}

type deleteOutput struct {
	Body DeleteResponse
}

type DeleteResponse struct {
	Deleted int64 `json:"deleted"`
}
