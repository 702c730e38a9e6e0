package service

import (
	"regexp"
)

const (
	PixKeyTypeCPF   = "CPF"
	PixKeyTypeEmail = "EMAIL"
	PixKeyTypePhone = "PHONE"
	PixKeyTypeEVP   = "EVP"
)

var (
	pixKeyNoise   = regexp.MustCompile(`[^\w@+]`)
	pixCPF        = regexp.MustCompile(`^\d{11}$`)
	pixEmail      = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	pixPhone      = regexp.MustCompile(`^\+?55\d{10,11}$`)
	pixRandomUUID = regexp.MustCompile(`(?i)^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
)

// PixKeyType infers the processor key type of a registered PIX key. Anything
// unrecognised is sent as a random (EVP) key.
func PixKeyType(key string) string {
	clean := pixKeyNoise.ReplaceAllString(key, "")
	switch {
	case pixCPF.MatchString(clean):
		return PixKeyTypeCPF
	case pixEmail.MatchString(key):
		return PixKeyTypeEmail
	case pixPhone.MatchString(clean):
		return PixKeyTypePhone
	case pixRandomUUID.MatchString(key):
		return PixKeyTypeEVP
	default:
		return PixKeyTypeEVP
	}
}
