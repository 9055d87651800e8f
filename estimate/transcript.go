package estimate

import (
	"context"
	"strings"

	"github.com/carecost/carecost/llm"
)

// CleanTranscript repairs a raw speech-to-text transcription so the
// extraction prompts get usable input. On any failure the original text is
// returned: a messy transcript still beats no request.
func CleanTranscript(ctx context.Context, client llm.Client, transcript string) string {
	transcript = strings.TrimSpace(transcript)
	if transcript == "" || client == nil {
		return transcript
	}
	cleaned, err := llm.Invoke(ctx, client, transcriptCleanupPrompt, transcript)
	if err != nil {
		return transcript
	}
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return transcript
	}
	return cleaned
}
