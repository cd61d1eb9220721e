package models

import (
	"strings"
	"time"

	"github.com/baharkarakas/campus-lostfound/internal/api/validate"
)

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

func (u *User) Validate(password string) error {
	u.Username = strings.TrimSpace(u.Username)
	var errs validate.Errs
	errs.Add(validate.MinLen("username", u.Username, 3))
	errs.Add(validate.MinLen("password", password, 6))
	return errs.OrNil()
}
