package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnalyzeUrgentTag(t *testing.T) {
	result := Analyze("【緊急】fix the server")
	assert.True(t, result.IsTask)
	assert.Equal(t, "fix the server", result.Content)
	assert.Equal(t, "high", result.Priority)
}

func TestAnalyzeRequestTagStopsAtNewline(t *testing.T) {
	result := Analyze("【依頼】make a quote\nbody of the message")
	assert.True(t, result.IsTask)
	assert.Equal(t, "make a quote", result.Content)
	assert.Equal(t, "medium", result.Priority)
}

func TestAnalyzeConfirmTag(t *testing.T) {
	result := Analyze("【確認】check the schedule")
	assert.True(t, result.IsTask)
	assert.Equal(t, "check the schedule", result.Content)
	assert.Equal(t, "low", result.Priority)
}

func TestAnalyzeNoTag(t *testing.T) {
	result := Analyze("hello")
	assert.False(t, result.IsTask)
	assert.Equal(t, "", result.Content)
	assert.Equal(t, "medium", result.Priority)
}

func TestAnalyzeTagAnywhereInMessage(t *testing.T) {
	result := Analyze("good morning\n【緊急】restart the batch job\nthanks")
	assert.True(t, result.IsTask)
	assert.Equal(t, "restart the batch job", result.Content)
	assert.Equal(t, "high", result.Priority)
}

func TestAnalyzeFirstRuleWins(t *testing.T) {
	// 緊急 is evaluated before 確認 regardless of position in the text
	result := Analyze("【確認】look at this\n【緊急】and this first")
	assert.True(t, result.IsTask)
	assert.Equal(t, "and this first", result.Content)
	assert.Equal(t, "high", result.Priority)
}

func TestAnalyzeTrimsContent(t *testing.T) {
	result := Analyze("【依頼】  spaced out  ")
	assert.True(t, result.IsTask)
	assert.Equal(t, "spaced out", result.Content)
}
