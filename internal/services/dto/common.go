package dto

import (
	"bytes"
	"encoding/json"
)

// Paginated - страница в формате, который читает фронтенд:
// {current_page, data, per_page, total, last_page}
type Paginated[T any] struct {
	CurrentPage int   `json:"current_page"`
	Data        []T   `json:"data"`
	PerPage     int   `json:"per_page"`
	Total       int64 `json:"total"`
	LastPage    int   `json:"last_page"`
}

func NewPaginated[T any](items []T, page, perPage int, total int64) *Paginated[T] {
	if items == nil {
		items = make([]T, 0)
	}
	lastPage := 1
	if perPage > 0 && total > 0 {
		lastPage = int((total + int64(perPage) - 1) / int64(perPage))
	}
	return &Paginated[T]{
		CurrentPage: page,
		Data:        items,
		PerPage:     perPage,
		Total:       total,
		LastPage:    lastPage,
	}
}

// OptionalString различает три состояния поля JSON:
// отсутствует (Set=false), null (Set=true, Value=nil) и строка.
type OptionalString struct {
	Set   bool
	Value *string
}

func (o *OptionalString) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	o.Value = &s
	return nil
}

// ValidationValue - значение для validator (nil пропускается через omitempty)
func (o OptionalString) ValidationValue() interface{} {
	if !o.Set || o.Value == nil {
		return nil
	}
	return *o.Value
}
