package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	// Use UUID v7 for time-ordered, sortable IDs
	// Falls back to v4 if v7 is not available (for compatibility)
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types
type (
	// SnapshotID identifies one immutable dataset snapshot. A new one is
	// issued whenever the underlying table changes.
	SnapshotID ID

	// SessionID identifies a dataset session (one active dataset).
	SessionID ID

	// ColumnName is the raw header name of a table column.
	ColumnName string
)

// RecordID identifies a persisted analysis record. Unlike the UUID-backed
// IDs it is a monotonically increasing sequence number assigned by the
// history store and never reused after deletion.
type RecordID int64

func (id SnapshotID) String() string { return ID(id).String() }
func (id SessionID) String() string  { return ID(id).String() }
func (n ColumnName) String() string  { return string(n) }

func (id RecordID) String() string { return fmt.Sprintf("%d", id) }

// ParseColumnName parses a string into a ColumnName
func ParseColumnName(s string) (ColumnName, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("column name cannot be empty")
	}
	return ColumnName(s), nil
}

// ParseSnapshotID parses a string into a SnapshotID
func ParseSnapshotID(s string) (SnapshotID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("snapshot ID cannot be empty")
	}
	return SnapshotID(s), nil
}
