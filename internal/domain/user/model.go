package user

import "time"

type User struct {
	ID        int
	Login     string
	Password  string // bcrypt-хэш
	CreatedAt time.Time
}

// Credentials тело запросов регистрации и входа
type Credentials struct {
	Login    string `json:"login" minLength:"3" maxLength:"32" doc:"Логин"`
	Password string `json:"password" minLength:"8" maxLength:"72" doc:"Пароль"`
}
