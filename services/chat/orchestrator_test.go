package chat

import (
	"testing"

	"tidybook/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func internalAudit(content string) models.Message {
	return models.Message{
		Role:    models.RoleSystem,
		Content: content,
		Meta:    &models.MessageMeta{Internal: true},
	}
}

func TestCountObjectiveRepeats(t *testing.T) {
	transcript := []models.Message{
		{Role: models.RoleVisitor, Content: "hi"},
		internalAudit(objectiveAuditPrefix + ObjectivePhone),
		{Role: models.RoleVisitor, Content: "hm"},
		internalAudit(objectiveAuditPrefix + ObjectivePhone),
	}

	assert.Equal(t, 2, countObjectiveRepeats(transcript, ObjectivePhone))
	assert.Equal(t, 0, countObjectiveRepeats(transcript, ObjectiveAddress))
	assert.Equal(t, 0, countObjectiveRepeats(nil, ObjectivePhone))
}

func TestCountObjectiveRepeatsStopsAtDifferentObjective(t *testing.T) {
	transcript := []models.Message{
		internalAudit(objectiveAuditPrefix + ObjectivePhone),
		internalAudit(objectiveAuditPrefix + ObjectiveAddress),
		internalAudit(objectiveAuditPrefix + ObjectivePhone),
	}

	assert.Equal(t, 1, countObjectiveRepeats(transcript, ObjectivePhone),
		"only the trailing run counts")
}

func TestBuildModelHistoryFiltersInternal(t *testing.T) {
	transcript := []models.Message{
		{Role: models.RoleVisitor, Content: "hello"},
		internalAudit("tool call: list_services"),
		{Role: models.RoleAssistant, Content: "hi there"},
		{Role: models.RoleTool, Content: `{"success":true}`},
		{Role: models.RoleVisitor, Content: "what do you offer?"},
	}

	history := buildModelHistory("system prompt", transcript)
	require.Len(t, history, 4)

	assert.Equal(t, "system", history[0].Role)
	assert.Equal(t, "user", history[1].Role)
	assert.Equal(t, "assistant", history[2].Role)
	assert.Equal(t, "user", history[3].Role)
	assert.Equal(t, "what do you offer?", history[3].Content)
}

func TestBuildModelHistoryCapsLength(t *testing.T) {
	var transcript []models.Message
	for i := 0; i < historyLimit*2; i++ {
		transcript = append(transcript, models.Message{Role: models.RoleVisitor, Content: "m"})
	}

	history := buildModelHistory("sys", transcript)
	assert.Len(t, history, historyLimit+1)
}

func TestLastAssistantContent(t *testing.T) {
	transcript := []models.Message{
		{Role: models.RoleAssistant, Content: "older"},
		{Role: models.RoleAssistant, Content: "internal", Meta: &models.MessageMeta{Internal: true}},
		{Role: models.RoleVisitor, Content: "yes"},
	}

	assert.Equal(t, "older", lastAssistantContent(transcript))
	assert.Equal(t, "", lastAssistantContent(nil))
}

func TestPageExcluded(t *testing.T) {
	patterns := []string{"/careers", "/admin"}

	assert.True(t, pageExcluded(patterns, "https://example.com/careers/open-roles"))
	assert.False(t, pageExcluded(patterns, "https://example.com/pricing"))
	assert.False(t, pageExcluded(patterns, ""))
	assert.False(t, pageExcluded(nil, "https://example.com"))
}

func TestBuildSystemPromptEscalation(t *testing.T) {
	conv, mem := freshState()
	settings := &models.IntegrationSettings{CompanyProfile: "Family-run cleaning company in Miami."}

	relaxed := BuildSystemPrompt(settings, conv, mem, ObjectiveServiceType, 0, "en")
	assert.Contains(t, relaxed, "Family-run cleaning company")
	assert.NotContains(t, relaxed, "CRITICAL")

	nudged := BuildSystemPrompt(settings, conv, mem, ObjectiveServiceType, 1, "en")
	assert.Contains(t, nudged, "You already asked")

	forced := BuildSystemPrompt(settings, conv, mem, ObjectiveServiceType, 3, "en")
	assert.Contains(t, forced, "CRITICAL")
	assert.Contains(t, forced, CanonicalQuestion("en", ObjectiveServiceType))
}
