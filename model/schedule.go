package model

import (
	"fmt"
	"strconv"
)

// ScheduleRecord is a client-owned schedule object kept on the server so
// several browser origins see the same list. Only "id" is interpreted.
type ScheduleRecord map[string]interface{}

// ID returns the record id as a string, or "" when absent. Numeric ids are
// rendered without an exponent so Date.now() style ids stay addressable.
func (r ScheduleRecord) ID() string {
	switch id := r["id"].(type) {
	case nil:
		return ""
	case string:
		return id
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	default:
		return fmt.Sprint(id)
	}
}
