package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTablePadsRaggedRows(t *testing.T) {
	table := NewTable([][]string{
		{"Period", "Value"},
		{"2024Q1"},
		{"2024Q2", "12", "note"},
	})

	require.Equal(t, 3, table.Width())
	assert.Equal(t, []string{"Period", "Value", ""}, table.Columns)
	assert.Equal(t, []string{"2024Q1", "", ""}, table.Rows[0])
	assert.Equal(t, []string{"2024Q2", "12", "note"}, table.Rows[1])
}

func TestNewTableEmpty(t *testing.T) {
	table := NewTable(nil)
	assert.Empty(t, table.Columns)
	assert.Empty(t, table.Rows)
	assert.Equal(t, 0, table.Width())
}

func TestDefaultPlan(t *testing.T) {
	plan := DefaultPlan()
	assert.Len(t, plan.Steps, 4)
	assert.Equal(t, "Browse", plan.Steps[0])
	assert.Equal(t, "csv", plan.FormatKeyword)
	assert.NotEmpty(t, plan.SubmitFallbackXPath)
}
