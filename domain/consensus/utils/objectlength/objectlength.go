// Package objectlength computes the sizes units pay commissions for.
// A string counts its bytes, a number 8, a boolean 1 and containers the
// sum of their values.
package objectlength

import (
	"encoding/json"

	"github.com/pkg/errors"
	"github.com/unitdag/unitd/domain/consensus/model/externalapi"
	"github.com/unitdag/unitd/domain/consensus/utils/serialization"
)

const (
	numberLength  = 8
	booleanLength = 1
)

// headerExcludedFields are not part of the headers a unit pays for
var headerExcludedFields = []string{"unit", "headers_commission", "payload_commission", "content_hash", "messages"}

// Length returns the length of a generic JSON value
func Length(value interface{}) (uint64, error) {
	switch v := value.(type) {
	case nil:
		return 0, nil
	case string:
		return uint64(len(v)), nil
	case json.Number, float64:
		return numberLength, nil
	case bool:
		return booleanLength, nil
	case []interface{}:
		var total uint64
		for _, element := range v {
			length, err := Length(element)
			if err != nil {
				return 0, err
			}
			total += length
		}
		return total, nil
	case map[string]interface{}:
		var total uint64
		for _, element := range v {
			length, err := Length(element)
			if err != nil {
				return 0, err
			}
			total += length
		}
		return total, nil
	}
	return 0, errors.Errorf("unexpected value of type %T", value)
}

// HeadersSize returns the size the headers commission of unit must equal
func HeadersSize(unit *externalapi.DomainUnit) (uint64, error) {
	generic, err := genericUnit(unit)
	if err != nil {
		return 0, err
	}
	for _, field := range headerExcludedFields {
		delete(generic, field)
	}
	for _, author := range authorsOf(generic, "authors") {
		delete(author, "authentifiers")
	}
	return Length(generic)
}

// PayloadSize returns the size the payload commission of unit must equal:
// the messages and the authentifiers of the authors
func PayloadSize(unit *externalapi.DomainUnit) (uint64, error) {
	generic, err := genericUnit(unit)
	if err != nil {
		return 0, err
	}
	total, err := Length(generic["messages"])
	if err != nil {
		return 0, err
	}
	for _, author := range authorsOf(generic, "authors") {
		length, err := Length(author["authentifiers"])
		if err != nil {
			return 0, err
		}
		total += length
	}
	return total, nil
}

func genericUnit(unit *externalapi.DomainUnit) (map[string]interface{}, error) {
	generic, err := serialization.ToGeneric(unit)
	if err != nil {
		return nil, err
	}
	unitMap, ok := generic.(map[string]interface{})
	if !ok {
		return nil, errors.Errorf("unit encoded as %T", generic)
	}
	return unitMap, nil
}

func authorsOf(generic map[string]interface{}, field string) []map[string]interface{} {
	list, ok := generic[field].([]interface{})
	if !ok {
		return nil
	}
	authors := make([]map[string]interface{}, 0, len(list))
	for _, element := range list {
		if author, ok := element.(map[string]interface{}); ok {
			authors = append(authors, author)
		}
	}
	return authors
}
