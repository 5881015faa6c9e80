package domain

import (
	"fmt"
	"strings"
)

// PrincipalKind differentiates staff vs member principals. Staff usernames and
// member emails live in independent namespaces.
type PrincipalKind string

const (
	PrincipalKindStaff  PrincipalKind = "staff"
	PrincipalKindMember PrincipalKind = "member"
)

// Valid reports whether k is one of the known kinds.
func (k PrincipalKind) Valid() bool {
	switch k {
	case PrincipalKindStaff, PrincipalKindMember:
		return true
	default:
		return false
	}
}

func (k PrincipalKind) String() string {
	return string(k)
}

// ParsePrincipalKind converts raw input into a PrincipalKind.
func ParsePrincipalKind(raw string) (PrincipalKind, error) {
	kind := PrincipalKind(strings.ToLower(strings.TrimSpace(raw)))
	if !kind.Valid() {
		return "", fmt.Errorf("unknown principal kind %q", raw)
	}
	return kind, nil
}

// NormalizePrincipalID canonicalizes an identifier within its kind's namespace.
// Member emails compare case-insensitively; staff usernames are only trimmed.
func NormalizePrincipalID(kind PrincipalKind, id string) string {
	id = strings.TrimSpace(id)
	if kind == PrincipalKindMember {
		return strings.ToLower(id)
	}
	return id
}
