package validators

import (
	"net"
	"strings"

	"github.com/asaskevich/govalidator"

	"github.com/BruksfildServices01/jobsite-manager/internal/httperr"
)

func IsEmail(email string) bool {
	return govalidator.IsEmail(email)
}

func IsEmailDomainValid(email string) bool {
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return false
	}

	domain := email[at+1:]

	if mx, err := net.LookupMX(domain); err == nil && len(mx) > 0 {
		return true
	}

	if ips, err := net.LookupIP(domain); err == nil && len(ips) > 0 {
		return true
	}

	return false
}

// ValidateEmail checks syntax and, when checkDomain is set, that the
// domain can receive mail.
func ValidateEmail(email string, checkDomain bool) error {
	if !IsEmail(email) {
		return httperr.Validation("invalid_email", "A valid email is required")
	}
	if checkDomain && !IsEmailDomainValid(email) {
		return httperr.Validation("invalid_email_domain", "The email domain does not look valid")
	}
	return nil
}
