// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package backend

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

const nonFieldErrors = "non_field_errors"

type extractor func(map[string]json.RawMessage) string

// extractors run in order, the first non-empty result wins.
var extractors = []extractor{
	topLevel("error"),
	topLevel("message"),
	topLevel("detail"),
	nestedResponse,
	fieldErrors,
}

// ExtractMessage pulls a human readable reason out of a backend error body.
// It returns an empty string when the body carries nothing usable.
func ExtractMessage(body []byte) string {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(body, &obj); err != nil {
		return ""
	}

	for _, extract := range extractors {
		if msg := extract(obj); msg != "" {
			return msg
		}
	}

	return ""
}

func topLevel(field string) extractor {
	return func(obj map[string]json.RawMessage) string {
		return textOf(obj[field])
	}
}

func nestedResponse(obj map[string]json.RawMessage) string {
	var response struct {
		Data map[string]json.RawMessage `json:"data"`
	}

	raw, ok := obj["response"]
	if !ok || json.Unmarshal(raw, &response) != nil {
		return ""
	}

	for _, field := range []string{"error", "message", "detail"} {
		if msg := textOf(response.Data[field]); msg != "" {
			return msg
		}
	}

	return ""
}

// fieldErrors formats the first usable DRF validation error as "field: msg".
func fieldErrors(obj map[string]json.RawMessage) string {
	if msg := textOf(obj[nonFieldErrors]); msg != "" {
		return msg
	}

	keys := make([]string, 0, len(obj))
	for k := range obj {
		if k != nonFieldErrors {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	for _, k := range keys {
		if msg := textOf(obj[k]); msg != "" {
			return fmt.Sprintf("%s: %s", k, msg)
		}
	}

	return ""
}

// textOf accepts a string or an array whose first element is a string.
func textOf(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if json.Unmarshal(raw, &s) == nil {
		return strings.TrimSpace(s)
	}

	var list []json.RawMessage
	if json.Unmarshal(raw, &list) == nil && len(list) > 0 {
		if json.Unmarshal(list[0], &s) == nil {
			return strings.TrimSpace(s)
		}
	}

	return ""
}
