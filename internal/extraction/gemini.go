package extraction

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/jmoreda/billy-audit/internal/document"
)

const defaultGeminiModel = "gemini-2.5-flash"

// billFactsSchema constrains the model output. Provider, amount and category
// are the required subset; everything else is best-effort.
var billFactsSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"provider":          {Type: genai.TypeString},
		"amount":            {Type: genai.TypeNumber},
		"date":              {Type: genai.TypeString},
		"renewalDate":       {Type: genai.TypeString},
		"category":          {Type: genai.TypeString},
		"priceRating":       {Type: genai.TypeString, Description: "AVISO BILLY, PRECIO TOP or PRECIO NORMAL"},
		"billyAdvice":       {Type: genai.TypeString},
		"recommendedAction": {Type: genai.TypeString},
	},
	Required: []string{"provider", "amount", "category"},
}

// Gemini implements the Extractor interface using Google Gemini.
//
// The client is built per request rather than held for the lifetime of the
// process: the credential provider is consulted at request time, so a key
// configured or corrected between retries is picked up immediately.
type Gemini struct {
	credentials CredentialProvider
	modelName   string
}

// NewGemini creates a new Gemini Extractor instance. The credential is not
// required up front; its absence is reported per request as
// ErrMissingCredential.
func NewGemini(credentials CredentialProvider, modelName string) *Gemini {
	if modelName == "" {
		modelName = defaultGeminiModel
	}
	return &Gemini{
		credentials: credentials,
		modelName:   modelName,
	}
}

// Extract analyzes an encoded bill/contract and extracts its facts.
func (g *Gemini) Extract(ctx context.Context, payload *document.Payload) (*BillFacts, error) {
	apiKey := g.credentials()
	if apiKey == "" {
		return nil, ErrMissingCredential
	}

	data, err := base64.StdEncoding.DecodeString(payload.Data)
	if err != nil {
		return nil, fmt.Errorf("decoding payload: %w", err)
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, classifyAPIError(err)
	}
	defer client.Close()

	model := client.GenerativeModel(g.modelName)
	model.GenerationConfig = genai.GenerationConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   billFactsSchema,
	}

	resp, err := model.GenerateContent(ctx,
		genai.Blob{MIMEType: payload.MediaType, Data: data},
		genai.Text(billScanPrompt),
	)
	if err != nil {
		return nil, classifyAPIError(err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, ErrEmptyResponse
	}

	var responseText strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			responseText.WriteString(string(text))
		}
	}

	text := strings.TrimSpace(responseText.String())
	if text == "" {
		return nil, ErrEmptyResponse
	}

	return parseBillFacts(text)
}

// Close closes the Gemini extractor. Clients are per-request, so this is a
// no-op kept for Extractor symmetry.
func (g *Gemini) Close() error {
	return nil
}
