package notifier

import (
	"fmt"
	"strings"

	"github.com/servis30/golang_services/internal/ledger_service/domain"
)

var sensitiveKeyParts = []string{"contraseña", "contrasena", "password", "clave", "secret", "token"}

// Redact returns a copy of meta without credential-like keys and without empty values.
func Redact(meta domain.Metadata) domain.Metadata {
	out := make(domain.Metadata, len(meta))
	for k, v := range meta {
		if v == nil || strings.TrimSpace(fmt.Sprint(v)) == "" || isSensitive(k) {
			continue
		}
		out[k] = v
	}
	return out
}

func isSensitive(key string) bool {
	k := strings.ToLower(key)
	for _, part := range sensitiveKeyParts {
		if strings.Contains(k, part) {
			return true
		}
	}
	return false
}
