// Package report relays student information to an OpenAI-compatible chat
// completions API and returns the generated school report.
package report

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrNotConfigured is returned when no upstream API key is set.
var ErrNotConfigured = errors.New("report generation is not configured")

// ErrEmptyCompletion is returned when the upstream answers without content.
var ErrEmptyCompletion = errors.New("no report generated by upstream")

// UpstreamError carries a non-2xx upstream response.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream returned status %d", e.StatusCode)
}

// Report is a generated school report.
type Report struct {
	Content     string
	Model       string
	GeneratedAt time.Time
}

// Generator produces a report from free-text student information.
type Generator interface {
	Generate(ctx context.Context, studentInfo string) (*Report, error)
}

const systemPrompt = `You are an educational professional creating detailed school reports. Format your reports with the following sections:

1. **Academic Performance**: Provide a comprehensive overview of the student's academic achievements, grades, and subject-specific performance.

2. **Behavior and Social Skills**: Describe the student's behavior in class, interactions with peers and teachers, participation, and social development.

3. **Areas for Improvement**: Identify specific areas where the student needs to focus their efforts and develop further.

4. **Recommendations**: Provide actionable recommendations for the student, parents, and teachers to support the student's continued growth and success.

Keep the tone professional yet encouraging. Be specific and provide constructive feedback.`

func userPrompt(studentInfo string) string {
	return "Please generate a comprehensive school report based on the following student information:\n\n" + studentInfo
}
