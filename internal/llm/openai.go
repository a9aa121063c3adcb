package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/lokutor-ai/wellbot-orchestrator/internal/dialog"
)

// OpenAILLM is a streaming chat client over OpenAI's SSE
// chat/completions endpoint, generalized from the conversational
// predecessor's batch-only OpenAI LLM client to satisfy
// StreamingProvider.
type OpenAILLM struct {
	apiKey string
	url    string
	model  string
}

func NewOpenAILLM(apiKey, model string) *OpenAILLM {
	if model == "" {
		model = "gpt-4o"
	}
	return &OpenAILLM{
		apiKey: apiKey,
		url:    "https://api.openai.com/v1/chat/completions",
		model:  model,
	}
}

func (l *OpenAILLM) Name() string { return "openai-llm" }

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (l *OpenAILLM) StreamChat(ctx context.Context, messages []dialog.Message, onToken OnToken) error {
	var oaiMessages []openAIMessage
	for _, m := range messages {
		oaiMessages = append(oaiMessages, openAIMessage{Role: string(m.Role), Content: m.Content})
	}

	payload := map[string]interface{}{
		"model":    l.model,
		"messages": oaiMessages,
		"stream":   true,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+l.apiKey)
	req.Header.Set("Accept", "text/event-stream")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("openai llm error (status %d): %s", resp.StatusCode, string(respBody))
	}

	return scanSSE(resp.Body, func(data string) (bool, error) {
		if data == "[DONE]" {
			return true, nil
		}
		var chunk struct {
			Choices []struct {
				Delta struct {
					Content string `json:"content"`
				} `json:"delta"`
			} `json:"choices"`
		}
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return false, nil
		}
		if len(chunk.Choices) == 0 {
			return false, nil
		}
		token := chunk.Choices[0].Delta.Content
		if token == "" {
			return false, nil
		}
		return false, onToken(token)
	})
}

// scanSSE reads a text/event-stream body line by line, extracting each
// "data: ..." payload and handing it to onData. onData returns (done,
// err); done stops the scan without treating it as an error.
func scanSSE(body io.Reader, onData func(data string) (bool, error)) error {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "" {
			continue
		}
		done, err := onData(data)
		if err != nil {
			return err
		}
		if done {
			return nil
		}
	}
	return scanner.Err()
}

var _ StreamingProvider = (*OpenAILLM)(nil)
