package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAskCmd_Use(t *testing.T) {
	assert.Equal(t, "ask [question]", askCmd.Use)
}

func TestAskCmd_RequiresExactlyOneArg(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, err := executeCommand("ask")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "accepts 1 arg(s)")
}

func TestAskCmd_PrintsAnswerAndSources(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand("ask", "How do I reset my password?")

	require.NoError(t, err)
	assert.Contains(t, out, "Reset it from the account settings page.")
	assert.Contains(t, out, "Password Reset Guide")
	assert.Contains(t, out, "Confidence: 0.82")
	assert.Contains(t, out, "Conversation: conv-1")
}

func TestAskCmd_JSONOutput(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	out, err := executeCommand("ask", "How do I reset my password?", "--json")
	defer func() { askJSON = false }()

	require.NoError(t, err)
	assert.Contains(t, out, `"answer"`)
	assert.Contains(t, out, `"conversation_id": "conv-1"`)
}

func TestAskCmd_Fallback(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.chat.resp.FallbackTriggered = true
	ts.chat.resp.Sources = nil

	out, err := executeCommand("ask", "What is the weather on Jupiter?")

	require.NoError(t, err)
	assert.Contains(t, out, "no sufficiently relevant sources")
}
