package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// JSONFloatArray is a custom type for JSON number arrays
type JSONFloatArray []float64

// Scan implements sql.Scanner interface
func (j *JSONFloatArray) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("failed to unmarshal JSONFloatArray value: %v", value)
	}
	result := make([]float64, 0)
	err := json.Unmarshal(data, &result)
	*j = JSONFloatArray(result)
	return err
}

// Value implements driver.Valuer interface
func (j JSONFloatArray) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal([]float64(j))
}
