package service

import "regexp"

var (
	emailRe   = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	upperRe   = regexp.MustCompile(`[A-Z]`)
	lowerRe   = regexp.MustCompile(`[a-z]`)
	digitRe   = regexp.MustCompile(`\d`)
	symbolRe  = regexp.MustCompile(`[@$!%*?&#]`)
	minPwdLen = 12
)

func isValidEmail(email string) bool {
	return emailRe.MatchString(email)
}

// isStrongPassword enforces the acceptance policy: minimum length 12 with
// upper, lower, digit and symbol classes all present.
func isStrongPassword(password string) bool {
	return len(password) >= minPwdLen &&
		upperRe.MatchString(password) &&
		lowerRe.MatchString(password) &&
		digitRe.MatchString(password) &&
		symbolRe.MatchString(password)
}

// PasswordStrength scores a password 0 (weak) to 4 (strong) for client-side
// feedback. The score is advisory; only isStrongPassword gates registration.
func PasswordStrength(password string) int {
	if password == "" {
		return 0
	}
	strength := 0
	if len(password) >= 8 {
		strength++
	}
	if len(password) >= minPwdLen {
		strength++
	}
	if lowerRe.MatchString(password) && upperRe.MatchString(password) {
		strength++
	}
	if digitRe.MatchString(password) {
		strength++
	}
	if symbolRe.MatchString(password) {
		strength++
	}
	if strength > 4 {
		strength = 4
	}
	return strength
}
