// Copyright 2026 Canonical Ltd.
// SPDX-License-Identifier: AGPL-3.0

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
)

// Page is a paginated list answer.
type Page[T any] struct {
	Count    int    `json:"count"`
	Next     string `json:"next"`
	Previous string `json:"previous"`
	Results  []T    `json:"results"`
}

// DecodeList accepts either a bare JSON array or a paginated object with a results field.
func DecodeList[T any](data []byte) ([]T, error) {
	data = bytes.TrimSpace(data)

	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return []T{}, nil
	}

	if data[0] == '[' {
		var items []T
		if err := json.Unmarshal(data, &items); err != nil {
			return nil, fmt.Errorf("failed to decode list: %w", err)
		}
		return items, nil
	}

	var page Page[T]
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, fmt.Errorf("failed to decode page: %w", err)
	}

	if page.Results == nil {
		return []T{}, nil
	}

	return page.Results, nil
}

// GetList fetches path and decodes it with DecodeList.
func GetList[T any](ctx context.Context, c ClientInterface, path string) ([]T, error) {
	var raw json.RawMessage
	if err := c.Get(ctx, path, &raw); err != nil {
		return nil, err
	}

	return DecodeList[T](raw)
}
