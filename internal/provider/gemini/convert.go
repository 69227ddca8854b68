package gemini

import (
	"strings"

	"github.com/Cyclone1070/aishell/internal/conversation"
	"github.com/Cyclone1070/aishell/internal/provider"
	"google.golang.org/genai"
)

// toGeminiContents converts the transcript to Gemini Content format.
// Gemini only knows "user" and "model" turns, so system directives issued
// mid-conversation are sent as user turns.
func toGeminiContents(messages []conversation.Message) []*genai.Content {
	compacted := provider.Compact(normaliseRoles(messages))
	contents := make([]*genai.Content, 0, len(compacted))
	for _, msg := range compacted {
		role := genai.RoleUser
		if msg.Role == conversation.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(msg.Content, genai.Role(role)))
	}
	return contents
}

func normaliseRoles(messages []conversation.Message) []conversation.Message {
	out := make([]conversation.Message, len(messages))
	for i, msg := range messages {
		out[i] = msg
		if msg.Role == conversation.RoleSystem {
			out[i].Role = conversation.RoleUser
		}
	}
	return out
}

// toGeminiConfig builds the request config with the system prompt.
func toGeminiConfig(systemPrompt string, maxTokens int32) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		SafetySettings: defaultSafetySettings(),
	}
	if systemPrompt != "" {
		cfg.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}
	if maxTokens > 0 {
		cfg.MaxOutputTokens = maxTokens
	}
	return cfg
}

// defaultSafetySettings disables blocking for the harm categories; shell
// transcripts trip them easily and the user confirms what runs.
func defaultSafetySettings() []*genai.SafetySetting {
	return []*genai.SafetySetting{
		{
			Category:  genai.HarmCategoryHateSpeech,
			Threshold: genai.HarmBlockThresholdOff,
		},
		{
			Category:  genai.HarmCategoryDangerousContent,
			Threshold: genai.HarmBlockThresholdOff,
		},
		{
			Category:  genai.HarmCategoryHarassment,
			Threshold: genai.HarmBlockThresholdOff,
		},
		{
			Category:  genai.HarmCategorySexuallyExplicit,
			Threshold: genai.HarmBlockThresholdOff,
		},
	}
}

// fromGeminiResponse extracts the reply text from the first candidate.
func fromGeminiResponse(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", &provider.ProviderError{
			Provider: name,
			Code:     provider.ErrorCodeEmptyResponse,
			Message:  "no candidates in response",
		}
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return "", &provider.ProviderError{
			Provider: name,
			Code:     provider.ErrorCodeContentBlocked,
			Message:  "content blocked by safety filters",
		}
	}
	if candidate.Content == nil {
		return "", &provider.ProviderError{Provider: name, Code: provider.ErrorCodeEmptyResponse, Message: "candidate has no content"}
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if part != nil && part.Text != "" && !part.Thought {
			sb.WriteString(part.Text)
		}
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", &provider.ProviderError{Provider: name, Code: provider.ErrorCodeEmptyResponse, Message: "candidate has no text"}
	}
	return text, nil
}
