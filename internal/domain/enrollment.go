package domain

import (
	"regexp"
	"strings"
)

var enrollmentRe = regexp.MustCompile(`^[A-Z0-9]+$`)

// Enrollment — номер зачётки, ключ участника. Всегда в верхнем регистре.
type Enrollment string

func NormalizeEnrollment(s string) Enrollment {
	return Enrollment(strings.ToUpper(strings.TrimSpace(s)))
}

func ParseEnrollment(s string) (Enrollment, error) {
	e := NormalizeEnrollment(s)
	if !enrollmentRe.MatchString(string(e)) {
		return "", ErrInvalidEnrollment
	}
	return e, nil
}

func (e Enrollment) String() string { return string(e) }
