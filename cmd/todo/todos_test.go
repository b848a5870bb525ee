package main

import (
	"bytes"
	"testing"

	"github.com/johann/leptos-todo/internal/storage"
	"github.com/stretchr/testify/assert"
)

func TestPrintTodos(t *testing.T) {
	var buf bytes.Buffer
	printTodos(&buf, nil)
	assert.Equal(t, "No data\n", buf.String())

	buf.Reset()
	printTodos(&buf, []storage.TodoItem{
		{ID: 1, Done: true, Task: "Buy milk"},
		{ID: 12, Task: "Walk dog"},
	})
	assert.Equal(t, "[x]    1  Buy milk\n[ ]   12  Walk dog\n", buf.String())
}

func TestParseID(t *testing.T) {
	id, err := parseID("42")
	assert.NoError(t, err)
	assert.Equal(t, uint32(42), id)

	for _, bad := range []string{"", "-1", "abc", "4294967296"} {
		_, err := parseID(bad)
		assert.Error(t, err, bad)
	}
}
