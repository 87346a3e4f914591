package feed

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// domainsField is the object key holding the candidate array.
const domainsField = "domains"

// JSONParser yields the elements of a top-level array or of the "domains"
// array of a top-level object. Any other document yields nothing.
//
// Malformed documents go through jsonrepair once; candidates recovered
// that way are yielded and followed by a DecodeError so the feed still
// shows up as broken in the run summary.
type JSONParser struct{}

func (JSONParser) Parse(data []byte) Candidates {
	return func(yield func(string, error) bool) {
		doc, decodeErr := decodeJSON(data)
		if decodeErr != nil {
			repaired, repairErr := jsonrepair.JSONRepair(string(data))
			if repairErr != nil {
				yield("", decodeError(FormatJSON, 0, errors.Join(decodeErr, repairErr)))
				return
			}

			var err error
			if doc, err = decodeJSON([]byte(repaired)); err != nil {
				yield("", decodeError(FormatJSON, 0, errors.Join(decodeErr, err)))
				return
			}
		}

		n := 0
		for _, element := range jsonElements(doc) {
			candidate, ok := renderJSONElement(element)
			if !ok {
				continue
			}
			if !yield(candidate, nil) {
				return
			}
			n++
		}

		if decodeErr != nil {
			yield("", decodeError(FormatJSON, n, decodeErr))
		}
	}
}

func decodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func jsonElements(doc any) []any {
	switch v := doc.(type) {
	case []any:
		return v
	case map[string]any:
		if elements, ok := v[domainsField].([]any); ok {
			return elements
		}
	}
	return nil
}

// renderJSONElement turns one array element into a candidate. Objects
// contribute their "domain" (or "url") field, which lets a previously
// published snapshot be consumed as a feed.
func renderJSONElement(element any) (string, bool) {
	switch v := element.(type) {
	case string:
		v = strings.TrimSpace(v)
		return v, v != ""
	case json.Number:
		return v.String(), true
	case bool:
		if v {
			return "true", true
		}
		return "false", true
	case map[string]any:
		for _, key := range []string{"domain", "url"} {
			if s, ok := v[key].(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s), true
			}
		}
	}
	return "", false
}
