package user

import "time"

type User struct {
	ID        string
	Name      string
	Email     string
	Password  string
	Role      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type RegisterParams struct {
	Name     string
	Email    string
	Password string
}
