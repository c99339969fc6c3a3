// UUID-backed ID generation
package idgen

import (
	"github.com/google/uuid"
)

// UUIDGenerator generates RFC 4122 version 4 identifiers
type UUIDGenerator struct{}

// NewUUIDGenerator creates a new UUID generator
func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

// Generate creates a new UUID string
func (g *UUIDGenerator) Generate() string {
	return uuid.NewString()
}

// GenerateWithPrefix creates a new UUID string with the given prefix
func (g *UUIDGenerator) GenerateWithPrefix(prefix string) string {
	if prefix == "" {
		return uuid.NewString()
	}
	return prefix + "_" + uuid.NewString()
}

// NewUUIDString generates a new UUID v4 string
func NewUUIDString() string {
	return uuid.NewString()
}

// IsValidUUID checks if a string is a valid UUID
func IsValidUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
