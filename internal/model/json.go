package model

import (
	"encoding/json"

	"gorm.io/datatypes"
)

// UintsJSON marshals a slice of ids into a jsonb column value.
func UintsJSON(ids []uint) datatypes.JSON {
	b, err := json.Marshal(ids)
	if err != nil {
		return datatypes.JSON("[]")
	}
	return datatypes.JSON(b)
}

// UintsFromJSON is the inverse of UintsJSON. Malformed data yields nil.
func UintsFromJSON(raw datatypes.JSON) []uint {
	if len(raw) == 0 {
		return nil
	}
	var ids []uint
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil
	}
	return ids
}
