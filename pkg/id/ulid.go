package id

import (
	"crypto/rand"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

// Generator produces message identifiers.
type Generator interface {
	Generate() (string, error)
}

// ULIDGenerator generates ULID (Universally Unique Lexicographically Sortable Identifier) IDs.
// Lexicographic order of the IDs follows their creation time, which the
// history store relies on for its clustering order.
type ULIDGenerator struct{}

// NewULIDGenerator creates a new ULIDGenerator.
func NewULIDGenerator() *ULIDGenerator {
	return &ULIDGenerator{}
}

func (g *ULIDGenerator) Generate() (string, error) {
	return g.GenerateAt(time.Now())
}

// GenerateAt generates a ULID whose timestamp component is t.
func (g *ULIDGenerator) GenerateAt(t time.Time) (string, error) {
	id, err := ulid.New(ulid.Timestamp(t), rand.Reader)
	if err != nil {
		return "", fmt.Errorf("failed to generate ULID: %w", err)
	}
	return id.String(), nil
}

// Time returns the timestamp component of a ULID.
func Time(id string) (time.Time, error) {
	parsed, err := ulid.Parse(id)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid ULID format: %w", err)
	}
	return ulid.Time(parsed.Time()), nil
}
