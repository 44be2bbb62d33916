package auth

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/BruksfildServices01/jobsite-manager/internal/models"
)

// Principal is the authenticated user attached to a request.
type Principal struct {
	ID        uint            `json:"id"`
	Type      models.UserType `json:"type"`
	FirstName string          `json:"first_name"`
	LastName  string          `json:"last_name"`
	Phone     string          `json:"phone"`
	Email     string          `json:"email"`
}

func PrincipalFromUser(u *models.User) *Principal {
	return &Principal{
		ID:        u.ID,
		Type:      u.Type,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Phone:     u.Phone,
		Email:     u.Email,
	}
}

func (p *Principal) HasRole(roles ...models.UserType) bool {
	if p == nil {
		return false
	}
	for _, r := range roles {
		if p.Type == r {
			return true
		}
	}
	return false
}

func (p *Principal) IsClient() bool {
	return p != nil && p.Type == models.UserTypeClient
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Authenticate checks email and password against the stored hash.
// Unknown email and wrong password both yield ErrInvalidCredentials.
func Authenticate(ctx context.Context, tx *gorm.DB, email, password string) (*Principal, error) {
	var user models.User
	err := tx.WithContext(ctx).
		Where("email = ?", NormalizeEmail(email)).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		burnCompare(password)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if !CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	return PrincipalFromUser(&user), nil
}
