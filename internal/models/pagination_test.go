package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageRequestNormalize(t *testing.T) {
	p := PageRequest{}
	p.Normalize()
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, DefaultPageLimit, p.Limit)

	p = PageRequest{Page: 3, Limit: 25}
	p.Normalize()
	assert.Equal(t, 3, p.Page)
	assert.Equal(t, 25, p.Limit)
}

func TestPageRequestOffset(t *testing.T) {
	assert.Equal(t, 0, PageRequest{Page: 1, Limit: 10}.Offset())
	assert.Equal(t, 40, PageRequest{Page: 5, Limit: 10}.Offset())
}

func TestNewPagination(t *testing.T) {
	p := NewPagination(2, 10, 45)
	assert.Equal(t, 45, p.Total)
	assert.Equal(t, 5, p.TotalPages)
	assert.True(t, p.HasNext)
	assert.True(t, p.HasPrevious)

	first := NewPagination(1, 10, 45)
	assert.False(t, first.HasPrevious)
	assert.True(t, first.HasNext)

	last := NewPagination(5, 10, 45)
	assert.False(t, last.HasNext)
}

func TestNewPaginationPastLastPage(t *testing.T) {
	p := NewPagination(9, 10, 45)
	assert.Equal(t, 5, p.TotalPages)
	assert.False(t, p.HasNext)
	assert.True(t, p.HasPrevious)
}

func TestNewPaginationEmpty(t *testing.T) {
	p := NewPagination(1, 10, 0)
	assert.Zero(t, p.TotalPages)
	assert.False(t, p.HasNext)
	assert.False(t, p.HasPrevious)
}
