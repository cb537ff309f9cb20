package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// CaseStatus represents the lifecycle state of a case
type CaseStatus string

const (
	CaseStatusNew  CaseStatus = "New"
	CaseStatusPaid CaseStatus = "Paid"
)

// Valid reports whether s is a known status
func (s CaseStatus) Valid() bool {
	switch s {
	case CaseStatusNew, CaseStatusPaid:
		return true
	}
	return false
}

// CaseIDPrefix prefixes every human-readable case identifier
const CaseIDPrefix = "JM-"

// FirstCaseSequence is the sequence number of the first case in an empty store
const FirstCaseSequence = 1001

// FormatCaseID renders a sequence number as a case identifier
func FormatCaseID(seq int64) string {
	return fmt.Sprintf("%s%d", CaseIDPrefix, seq)
}

// ParseCaseID extracts the sequence number from a case identifier
func ParseCaseID(id string) (int64, bool) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(id), CaseIDPrefix)
	if !ok || rest == "" {
		return 0, false
	}
	seq, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || seq <= 0 || strconv.FormatInt(seq, 10) != rest {
		return 0, false
	}
	return seq, true
}

// UserSnapshot is the contact data captured at booking time
type UserSnapshot struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// CaseSnapshot is the legal question and its answer at booking time
type CaseSnapshot struct {
	Topic          string          `json:"topic"`
	Analysis       *AnalysisResult `json:"analysis,omitempty"`
	Risk           string          `json:"risk"`
	Recommendation string          `json:"recommendation,omitempty"`
}

// BookingSnapshot is the consultation the user booked
type BookingSnapshot struct {
	Lawyer string  `json:"lawyer"`
	Type   string  `json:"type"`
	Price  float64 `json:"price"`
	Time   string  `json:"time"`
}

// Value implements driver.Valuer for JSON columns
func (u UserSnapshot) Value() (driver.Value, error) {
	return jsonValue(u)
}

// Scan implements sql.Scanner for JSON columns
func (u *UserSnapshot) Scan(value interface{}) error {
	return scanJSON(value, u)
}

// Value implements driver.Valuer for JSON columns
func (c CaseSnapshot) Value() (driver.Value, error) {
	return jsonValue(c)
}

// Scan implements sql.Scanner for JSON columns
func (c *CaseSnapshot) Scan(value interface{}) error {
	return scanJSON(value, c)
}

// Value implements driver.Valuer for JSON columns
func (b BookingSnapshot) Value() (driver.Value, error) {
	return jsonValue(b)
}

// Scan implements sql.Scanner for JSON columns
func (b *BookingSnapshot) Scan(value interface{}) error {
	return scanJSON(value, b)
}

// Case represents a booked legal consultation
type Case struct {
	ID        string          `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	User      UserSnapshot    `json:"user"`
	Case      CaseSnapshot    `json:"case"`
	Booking   BookingSnapshot `json:"booking"`
	Status    CaseStatus      `json:"status"`
}

// jsonValue encodes v as JSON text, which both SQLite TEXT and Postgres JSONB accept
func jsonValue(v interface{}) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// scanJSON decodes a JSON column; drivers hand it over as []byte or string
func scanJSON(value interface{}, dst interface{}) error {
	var bytes []byte
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("unsupported JSON column type %T", value)
	}

	if len(bytes) == 0 {
		return nil
	}

	return json.Unmarshal(bytes, dst)
}
