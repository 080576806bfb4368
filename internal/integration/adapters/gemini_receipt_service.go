// Package adapters provides implementations for external service integrations.
package adapters

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/finance-tracker/ledger-api/internal/application/adapter"
	domainerror "github.com/finance-tracker/ledger-api/internal/domain/error"
)

// DefaultGeminiModel is used when no model name is configured.
const DefaultGeminiModel = "gemini-2.0-flash"

const receiptPrompt = `Analyze this receipt image and extract the following information in JSON format:
- Total amount (just the number)
- Date (in ISO format)
- Description or items purchased (brief summary)
- Merchant/store name
- Suggested category (one word)

Only respond with valid JSON in this exact format:
{
  "amount": number,
  "date": "ISO date string",
  "description": "string",
  "merchantName": "string",
  "category": "string"
}

If it's not a receipt, return an empty object.`

// GeminiReceiptService implements adapter.ReceiptExtractor using Google Gemini.
type GeminiReceiptService struct {
	apiKey    string
	modelName string

	mu     sync.Mutex
	client *genai.Client
}

// NewGeminiReceiptService creates a Gemini receipt extractor.
// The API client is created on first use.
func NewGeminiReceiptService(apiKey, modelName string) (*GeminiReceiptService, error) {
	if apiKey == "" {
		return nil, domainerror.ErrAIServiceNotConfigured
	}
	if modelName == "" {
		modelName = DefaultGeminiModel
	}
	return &GeminiReceiptService{
		apiKey:    apiKey,
		modelName: modelName,
	}, nil
}

var _ adapter.ReceiptExtractor = (*GeminiReceiptService)(nil)

// ExtractText sends the image and the extraction prompt and returns the raw reply text.
func (s *GeminiReceiptService) ExtractText(ctx context.Context, image []byte, mimeType string) (string, error) {
	client, err := s.getClient(ctx)
	if err != nil {
		return "", err
	}

	model := client.GenerativeModel(s.modelName)
	model.SetTemperature(0)

	resp, err := model.GenerateContent(ctx, genai.Blob{MIMEType: mimeType, Data: image}, genai.Text(receiptPrompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	return replyText(resp)
}

// Close releases the underlying client, if one was created.
func (s *GeminiReceiptService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client == nil {
		return nil
	}
	err := s.client.Close()
	s.client = nil
	return err
}

func (s *GeminiReceiptService) getClient(ctx context.Context) (*genai.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil {
		return s.client, nil
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(s.apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	s.client = client
	return client, nil
}

// replyText concatenates the text parts of the first candidate.
func replyText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("empty response from gemini")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}

	if sb.Len() == 0 {
		return "", fmt.Errorf("no text content in response")
	}
	return sb.String(), nil
}
