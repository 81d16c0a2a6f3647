package definitionevaluator

import (
	"encoding/json"
	"math"
	"strconv"
)

// toUint64 converts a number of a decoded or hand built definition
func toUint64(value interface{}) (uint64, bool) {
	switch number := value.(type) {
	case json.Number:
		parsed, err := strconv.ParseUint(string(number), 10, 64)
		return parsed, err == nil
	case float64:
		if number < 0 || number != math.Trunc(number) || number > math.MaxUint64 {
			return 0, false
		}
		return uint64(number), true
	case int:
		return uint64(number), number >= 0
	case int64:
		return uint64(number), number >= 0
	case uint64:
		return number, true
	}
	return 0, false
}

func toInt64(value interface{}) (int64, bool) {
	switch number := value.(type) {
	case json.Number:
		parsed, err := strconv.ParseInt(string(number), 10, 64)
		return parsed, err == nil
	case float64:
		if number != math.Trunc(number) || math.Abs(number) > math.MaxInt64 {
			return 0, false
		}
		return int64(number), true
	case int:
		return int64(number), true
	case int64:
		return number, true
	case uint64:
		return int64(number), number <= math.MaxInt64
	}
	return 0, false
}
