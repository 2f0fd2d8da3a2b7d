package llm

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

const (
	anthropicVersion = "bedrock-2023-05-31"
	defaultMaxTokens = 500
	defaultMediaType = "image/jpeg"
)

// InvokeAPI is the subset of the Bedrock runtime client used here.
type InvokeAPI interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// NewRuntimeClient builds a Bedrock runtime client from the default AWS credential chain.
func NewRuntimeClient(ctx context.Context, region string) (*bedrockruntime.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return bedrockruntime.NewFromConfig(cfg), nil
}

// Bedrock is a Model backed by one Bedrock model id.
type Bedrock struct {
	api     InvokeAPI
	modelID string
}

// NewBedrock returns a Model invoking modelID through api.
func NewBedrock(api InvokeAPI, modelID string) *Bedrock {
	return &Bedrock{api: api, modelID: modelID}
}

// ModelID returns the configured model id.
func (b *Bedrock) ModelID() string {
	return b.modelID
}

type contentBlock struct {
	Type   string       `json:"type"`
	Text   string       `json:"text,omitempty"`
	Source *imageSource `json:"source,omitempty"`
}

type imageSource struct {
	Type      string `json:"type"`
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

type message struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

type invokeRequest struct {
	AnthropicVersion string    `json:"anthropic_version"`
	MaxTokens        int       `json:"max_tokens"`
	System           string    `json:"system,omitempty"`
	Messages         []message `json:"messages"`
}

type invokeResponse struct {
	Content []contentBlock `json:"content"`
}

func buildPayload(req Request) ([]byte, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	var content []contentBlock
	if req.Image != nil {
		mediaType := req.Image.MediaType
		if mediaType == "" {
			mediaType = defaultMediaType
		}
		content = append(content, contentBlock{
			Type: "image",
			Source: &imageSource{
				Type:      "base64",
				MediaType: mediaType,
				Data:      base64.StdEncoding.EncodeToString(req.Image.Data),
			},
		})
	}
	content = append(content, contentBlock{Type: "text", Text: req.Prompt})

	return json.Marshal(invokeRequest{
		AnthropicVersion: anthropicVersion,
		MaxTokens:        maxTokens,
		System:           req.System,
		Messages:         []message{{Role: "user", Content: content}},
	})
}

func parseResponse(body []byte) (string, error) {
	var resp invokeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("decode model response: %w", err)
	}
	for _, block := range resp.Content {
		if block.Type == "text" || block.Type == "" {
			if text := strings.TrimSpace(block.Text); text != "" {
				return text, nil
			}
		}
	}
	return "", ErrEmptyResponse
}

// Complete invokes the model and returns the first text block, trimmed.
func (b *Bedrock) Complete(ctx context.Context, req Request) (string, error) {
	payload, err := buildPayload(req)
	if err != nil {
		return "", fmt.Errorf("encode model request: %w", err)
	}

	out, err := b.api.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(b.modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        payload,
	})
	if err != nil {
		return "", fmt.Errorf("invoke %s: %w", b.modelID, err)
	}
	return parseResponse(out.Body)
}
