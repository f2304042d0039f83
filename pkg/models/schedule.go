package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// DefaultScheduleIntervals is the ladder assigned to a learner who has no
// stored schedule yet. Values are day offsets from the base date.
var DefaultScheduleIntervals = IntervalList{1, 2, 7, 30, 365}

// IntervalList is an ordered list of day offsets stored as a JSON array
// in a TEXT column.
type IntervalList []int

// Value implements driver.Valuer.
func (l IntervalList) Value() (driver.Value, error) {
	data, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal intervals: %v", err)
	}
	return string(data), nil
}

// Scan implements sql.Scanner.
func (l *IntervalList) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("unsupported intervals column type %T", src)
	}
}

// Clone returns an independent copy of the list.
func (l IntervalList) Clone() IntervalList {
	if l == nil {
		return nil
	}
	out := make(IntervalList, len(l))
	copy(out, l)
	return out
}

// ReviewSchedule is a learner's interval ladder used for forecasting
// upcoming reviews
type ReviewSchedule struct {
	ID        int64        `json:"id" db:"id"`
	OwnerID   int64        `json:"owner_id" db:"owner_id"`
	Intervals IntervalList `json:"intervals" db:"intervals"`
	CreatedAt time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt time.Time    `json:"updated_at" db:"updated_at"`
}
