package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"tidybook/models"

	genai "github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiProvider adapts the Gemini API to the OpenAI-shaped Provider
// interface: FunctionCall parts become tool calls, tool result messages are
// sent back as FunctionResponse parts.
type GeminiProvider struct {
	model  string
	client *genai.Client
}

func NewGeminiProvider(cfg models.AIProviderSettings) (*GeminiProvider, error) {
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	model := cfg.Model
	if model == "" {
		model = "models/gemini-1.5-pro"
	}
	return &GeminiProvider{model: model, client: client}, nil
}

func (p *GeminiProvider) Name() string { return ProviderGemini }

func (p *GeminiProvider) Chat(ctx context.Context, messages []Message, tools []ToolDef) (*Result, error) {
	model := p.client.GenerativeModel(p.model)

	if len(tools) > 0 {
		var decls []*genai.FunctionDeclaration
		for _, t := range tools {
			decls = append(decls, &genai.FunctionDeclaration{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  toGeminiSchema(t.Parameters),
			})
		}
		model.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}

	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case "system":
			model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(m.Content)}}
		case "assistant":
			content := &genai.Content{Role: "model"}
			if m.Content != "" {
				content.Parts = append(content.Parts, genai.Text(m.Content))
			}
			for _, tc := range m.ToolCalls {
				var args map[string]any
				if err := json.Unmarshal([]byte(tc.Arguments), &args); err != nil {
					args = map[string]any{}
				}
				content.Parts = append(content.Parts, genai.FunctionCall{Name: tc.Name, Args: args})
			}
			contents = append(contents, content)
		case "tool":
			var resp map[string]any
			if err := json.Unmarshal([]byte(m.Content), &resp); err != nil {
				resp = map[string]any{"result": m.Content}
			}
			contents = append(contents, &genai.Content{
				Role:  "function",
				Parts: []genai.Part{genai.FunctionResponse{Name: m.Name, Response: resp}},
			})
		default: // user
			contents = append(contents, &genai.Content{
				Role:  "user",
				Parts: []genai.Part{genai.Text(m.Content)},
			})
		}
	}
	if len(contents) == 0 {
		return nil, fmt.Errorf("gemini: no content to send")
	}

	cs := model.StartChat()
	cs.History = contents[:len(contents)-1]
	last := contents[len(contents)-1]

	resp, err := cs.SendMessage(ctx, last.Parts...)
	if err != nil {
		return nil, fmt.Errorf("gemini generate error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("gemini returned no candidates")
	}

	result := &Result{}
	var sb strings.Builder
	for i, part := range resp.Candidates[0].Content.Parts {
		switch v := part.(type) {
		case genai.Text:
			sb.WriteString(string(v))
		case genai.FunctionCall:
			raw, err := json.Marshal(v.Args)
			if err != nil {
				raw = []byte("{}")
			}
			result.ToolCalls = append(result.ToolCalls, ToolCall{
				ID:        fmt.Sprintf("call_%d", i),
				Name:      v.Name,
				Arguments: string(raw),
			})
		}
	}
	result.Content = sb.String()
	return result, nil
}

// toGeminiSchema converts a JSON-schema argument object into the genai schema
// type. Only the subset the tool registry declares is handled.
func toGeminiSchema(schema map[string]any) *genai.Schema {
	if schema == nil {
		return &genai.Schema{Type: genai.TypeObject}
	}
	out := &genai.Schema{}
	switch schema["type"] {
	case "object":
		out.Type = genai.TypeObject
		if props, ok := schema["properties"].(map[string]any); ok {
			out.Properties = map[string]*genai.Schema{}
			for name, raw := range props {
				if sub, ok := raw.(map[string]any); ok {
					out.Properties[name] = toGeminiSchema(sub)
				}
			}
		}
		if req, ok := schema["required"].([]string); ok {
			out.Required = req
		} else if req, ok := schema["required"].([]any); ok {
			for _, r := range req {
				if s, ok := r.(string); ok {
					out.Required = append(out.Required, s)
				}
			}
		}
	case "array":
		out.Type = genai.TypeArray
		if items, ok := schema["items"].(map[string]any); ok {
			out.Items = toGeminiSchema(items)
		}
	case "integer":
		out.Type = genai.TypeInteger
	case "number":
		out.Type = genai.TypeNumber
	case "boolean":
		out.Type = genai.TypeBoolean
	default:
		out.Type = genai.TypeString
	}
	if desc, ok := schema["description"].(string); ok {
		out.Description = desc
	}
	if enum, ok := schema["enum"].([]string); ok {
		out.Enum = enum
	}
	return out
}
