// Package utils holds parsing helpers shared by import endpoints: tolerant
// JSON decoding for hand-edited or tool-exported blobs, and markdown cleanup
// for pasted report content.
package utils

import (
	"encoding/json"
	"fmt"
	"reflect"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	hjson "github.com/hjson/hjson-go/v4"
)

// RepairJSON fixes common JSON defects in pasted template or settings blobs:
// single quotes, unquoted keys, trailing commas, comments, markdown fences.
func RepairJSON(malformed string) (string, error) {
	repaired, err := jsonrepair.RepairJSON(malformed)
	if err != nil {
		return "", fmt.Errorf("repair json: %w", err)
	}
	return repaired, nil
}

// ParseHJSON converts Human JSON (comments, unquoted keys, optional commas)
// to standard JSON.
func ParseHJSON(input string) (string, error) {
	var result interface{}
	if err := hjson.Unmarshal([]byte(input), &result); err != nil {
		return "", fmt.Errorf("parse hjson: %w", err)
	}
	out, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("marshal hjson result: %w", err)
	}
	return string(out), nil
}

// SmartParse tries strict JSON, then Hjson, then repair, decoding into dest
// with the first strategy that works. Hjson runs before repair: repair will
// rewrite an Hjson document into valid-but-wrong JSON (quoteless values get
// merged into one string), so it must stay the last resort. Returns the
// normalized JSON that was decoded.
func SmartParse(input string, dest interface{}) (string, error) {
	if err := json.Unmarshal([]byte(input), dest); err == nil {
		return input, nil
	}

	if converted, err := ParseHJSON(input); err == nil {
		if decodeLenient(converted, dest) {
			return converted, nil
		}
	}

	if repaired, err := RepairJSON(input); err == nil {
		if decodeLenient(repaired, dest) {
			return repaired, nil
		}
	}

	return "", fmt.Errorf("smart parse: input is not valid JSON, Hjson, or repairable JSON")
}

// decodeLenient accepts a lenient strategy's output only when it decodes into
// dest and actually populates it. Both Hjson and repair will produce a valid
// document from near-garbage (a quoteless root string, an empty object); an
// empty decode means the strategy guessed, not parsed. dest is reset first so
// a partial decode from an earlier strategy cannot leak through.
func decodeLenient(doc string, dest interface{}) bool {
	v := reflect.ValueOf(dest)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return false
	}
	v.Elem().Set(reflect.Zero(v.Elem().Type()))
	if err := json.Unmarshal([]byte(doc), dest); err != nil {
		return false
	}
	return !v.Elem().IsZero()
}
