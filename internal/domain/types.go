package domain

import (
	"database/sql/driver"

	"github.com/lib/pq"
)

// StringArray maps a Postgres TEXT[] column
type StringArray []string

// Scan implements the sql.Scanner interface
func (a *StringArray) Scan(value interface{}) error {
	var arr pq.StringArray
	if err := arr.Scan(value); err != nil {
		return err
	}
	*a = StringArray(arr)
	return nil
}

// Value implements the driver.Valuer interface
func (a StringArray) Value() (driver.Value, error) {
	return pq.StringArray(a).Value()
}
