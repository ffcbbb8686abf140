package triage

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStripCodeFences(t *testing.T) {
	plain := `{"issues": []}`
	assert.Equal(t, plain, stripCodeFences(plain))
	assert.Equal(t, plain, stripCodeFences("```json\n"+plain+"\n```"))
	assert.Equal(t, plain, stripCodeFences("```\n"+plain+"\n```"))
	assert.Equal(t, plain, stripCodeFences("  "+plain+"  "))
}

func TestBuildExtractionPromptTrimsHistory(t *testing.T) {
	var history []ChatMessage
	for i := 0; i < 6; i++ {
		history = append(history, ChatMessage{Role: RoleUser, Content: string(rune('a' + i))})
	}
	prompt := buildExtractionPrompt("current message", history)

	assert.Contains(t, prompt, "CHAT HISTORY:")
	assert.Contains(t, prompt, "CURRENT USER MESSAGE:\ncurrent message")
	// Only the last four turns survive.
	assert.NotContains(t, prompt, "USER: a")
	assert.NotContains(t, prompt, "USER: b")
	assert.Contains(t, prompt, "USER: c")
	assert.Contains(t, prompt, "USER: f")
}

func TestBuildExtractionPromptNoHistory(t *testing.T) {
	assert.Equal(t, "tooth hurts", buildExtractionPrompt("tooth hurts", nil))
}

func TestSanitizeExtractedIssue(t *testing.T) {
	issue := &ClinicalIssue{Urgency: "CATASTROPHIC", Severity: intPtr(14)}
	sanitizeExtractedIssue(issue)
	assert.Equal(t, UrgencyLow, issue.Urgency)
	assert.Nil(t, issue.Severity)

	backed := &ClinicalIssue{Urgency: UrgencyEmergency, Bleeding: true}
	sanitizeExtractedIssue(backed)
	assert.Equal(t, UrgencyEmergency, backed.Urgency)
}

func TestExtractorPromptForbidsClinicalDecisions(t *testing.T) {
	for _, clause := range []string{
		"NEVER diagnose",
		"NEVER decide routing",
		"NEVER set urgency to EMERGENCY",
	} {
		assert.True(t, strings.Contains(extractorSystemPrompt, clause), "prompt missing %q", clause)
	}
}
