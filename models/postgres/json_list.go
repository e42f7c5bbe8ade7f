package postgres

import (
	"encoding/json"

	"gorm.io/datatypes"
)

// Helpers for the JSON string-list columns (friend lists, team members,
// trip ids, enabled countries). Bad JSON decodes as an empty list.

func DecodeStringList(raw datatypes.JSON) []string {
	if len(raw) == 0 {
		return nil
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

func EncodeStringList(list []string) datatypes.JSON {
	if list == nil {
		list = []string{}
	}
	raw, _ := json.Marshal(list)
	return datatypes.JSON(raw)
}

func ListContains(raw datatypes.JSON, value string) bool {
	for _, v := range DecodeStringList(raw) {
		if v == value {
			return true
		}
	}
	return false
}
