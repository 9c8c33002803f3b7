package health

type Input struct{}

type Output struct {
	Body Response
}

// Response состояние сервиса и список таблиц, доступных для синхронизации
type Response struct {
	Status   string   `json:"status" example:"OK" doc:"Health status of the service"`
	Database string   `json:"database,omitempty" example:"OK" doc:"Database connectivity"`
	Tables   []string `json:"tables" doc:"Tables exposed by the sync API"`
}
