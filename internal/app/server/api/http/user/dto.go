package user

import "workoutsync/internal/domain/user"

type registerInput struct {
	Body user.Credentials
}

type registerOutput struct {
	Body RegisterResponse
}

type RegisterResponse struct {
	ID     int    `json:"user_id"`
	Status string `json:"status"`
}

type loginInput struct {
	Body user.Credentials
}

type loginOutput struct {
	Body LoginResponse
}

type LoginResponse struct {
	Token  string `json:"token"`
	UserID int    `json:"user_id"`
	Status string `json:"status"`
}

type meOutput struct {
	Body MeResponse
}

// MeResponse идентификатор текущего пользователя, им клиент ограничивает выборки
type MeResponse struct {
	UserID int `json:"user_id"`
}

type logoutOutput struct {
	Body StatusResponse
}

type StatusResponse struct {
	Status string `json:"status"`
}
