package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewValidator(t *testing.T) {
	assert.NotPanics(t, func() { newValidator() })

	err := validateInput(TaskInput{Title: "Run", Frequency: "Hourly", TaskType: "recurring", Priority: "urgent"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Contains(t, err.Error(), "frequency: unknown value Hourly")
	assert.Contains(t, err.Error(), "priority: unknown value urgent")

	assert.NoError(t, validateInput(TaskInput{Title: "Run", Frequency: "THREE-TIMES-WEEK", TaskType: "Recurring"}))
}
