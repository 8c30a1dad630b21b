package extract

import (
	"regexp"
	"strings"

	"taskhook-service/internal/model"
)

// Result is the outcome of analyzing a message
type Result struct {
	IsTask   bool   `json:"is_task"`
	Content  string `json:"content"`
	Priority string `json:"priority"`
}

// Tag rules, evaluated in order; the first match wins. The capture is
// non-greedy up to the next newline, so on multi-line messages only the
// tagged line becomes the task content.
var rules = []struct {
	pattern  *regexp.Regexp
	priority string
}{
	{regexp.MustCompile(`【緊急】(.+?)(?:\n|$)`), model.TaskPriorityHigh},
	{regexp.MustCompile(`【依頼】(.+?)(?:\n|$)`), model.TaskPriorityMedium},
	{regexp.MustCompile(`【確認】(.+?)(?:\n|$)`), model.TaskPriorityLow},
}

// Analyze decides whether a message is a task and computes its priority.
// Pure and stateless; tags may appear anywhere in the message.
func Analyze(text string) Result {
	for _, rule := range rules {
		m := rule.pattern.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		return Result{
			IsTask:   true,
			Content:  strings.TrimSpace(m[1]),
			Priority: rule.priority,
		}
	}
	return Result{IsTask: false, Content: "", Priority: model.TaskPriorityMedium}
}
