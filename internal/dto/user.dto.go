package dto

import (
	"time"

	"github.com/BruksfildServices01/jobsite-manager/internal/models"
)

type User struct {
	ID               uint                    `json:"id"`
	FirstName        string                  `json:"first_name"`
	LastName         string                  `json:"last_name"`
	Email            string                  `json:"email"`
	Phone            string                  `json:"phone"`
	Type             models.UserType         `json:"type"`
	NotificationPref models.NotificationPref `json:"notification_pref"`
	CreatedAt        time.Time               `json:"created_at"`
}

func UserFrom(u *models.User) User {
	return User{
		ID:               u.ID,
		FirstName:        u.FirstName,
		LastName:         u.LastName,
		Email:            u.Email,
		Phone:            u.Phone,
		Type:             u.Type,
		NotificationPref: u.NotificationPref,
		CreatedAt:        u.CreatedAt,
	}
}

func UsersFrom(users []models.User) []User {
	out := make([]User, 0, len(users))
	for i := range users {
		out = append(out, UserFrom(&users[i]))
	}
	return out
}
