package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/ollama/ollama/api"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/api/iterator"

	"rag-chat-platform/internal/apperrors"
	"rag-chat-platform/models"
)

// Generator produces a streamed answer for an ordered, role-tagged conversation.
// A non-nil error means nothing was generated; failures after the first delta
// surface from Stream.Recv instead.
type Generator interface {
	GenerateStream(ctx context.Context, messages []models.ChatMessage) (Stream, error)
}

// GeminiGenerator streams chat completions from Gemini
type GeminiGenerator struct {
	client *genai.Client
	model  string
	guard  *Guard
}

func NewGeminiGenerator(client *genai.Client, model string, g *Guard) *GeminiGenerator {
	return &GeminiGenerator{client: client, model: model, guard: g}
}

func (g *GeminiGenerator) configureModel() *genai.GenerativeModel {
	model := g.client.GenerativeModel(g.model)

	model.SafetySettings = []*genai.SafetySetting{
		{
			Category:  genai.HarmCategoryHarassment,
			Threshold: genai.HarmBlockMediumAndAbove,
		},
		{
			Category:  genai.HarmCategoryHateSpeech,
			Threshold: genai.HarmBlockMediumAndAbove,
		},
		{
			Category:  genai.HarmCategoryDangerousContent,
			Threshold: genai.HarmBlockMediumAndAbove,
		},
		{
			Category:  genai.HarmCategorySexuallyExplicit,
			Threshold: genai.HarmBlockMediumAndAbove,
		},
	}

	model.GenerationConfig = genai.GenerationConfig{
		Temperature:     float32Ptr(0.7),
		TopP:            float32Ptr(0.8),
		TopK:            int32Ptr(40),
		MaxOutputTokens: int32Ptr(2048),
	}

	return model
}

func (g *GeminiGenerator) GenerateStream(ctx context.Context, messages []models.ChatMessage) (Stream, error) {
	ctx, span := otel.Tracer("gemini-client").Start(ctx, "gemini.generate_stream")
	defer span.End()
	span.SetAttributes(
		attribute.String("gemini.model", g.model),
		attribute.Int("gemini.messages", len(messages)),
	)

	system, history, last, err := toGeminiContents(messages)
	if err != nil {
		return nil, err
	}

	model := g.configureModel()
	if system != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}
	cs := model.StartChat()
	cs.History = history

	result, err := g.guard.Do(ctx, "gemini.generate", func() (interface{}, error) {
		streamCtx, cancel := context.WithCancel(ctx)
		s, err := prime(&geminiStream{
			iter:   cs.SendMessageStream(streamCtx, last...),
			cancel: cancel,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	})
	if err != nil {
		span.SetAttributes(attribute.Bool("gemini.error", true))
		return nil, err
	}
	return result.(Stream), nil
}

// toGeminiContents splits a conversation into the system instruction, the
// replayed history and the parts of the turn to send. Only a leading system
// message becomes the instruction; later ones count as user text. Adjacent
// turns with the same Gemini role are merged and leading model turns are
// dropped, so the history alternates and starts with the user. The final
// turn is always sent as the user's, even when the last message came from
// the assistant; it then absorbs the user turn before it.
func toGeminiContents(messages []models.ChatMessage) (string, []*genai.Content, []genai.Part, error) {
	var system string
	if len(messages) > 0 && messages[0].Role == models.RoleSystem {
		system = messages[0].Content
		messages = messages[1:]
	}
	if len(messages) == 0 {
		return "", nil, nil, apperrors.New(apperrors.KindInvalidInput, "gemini.generate", fmt.Errorf("no conversation messages"))
	}

	turns := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		role := geminiRole(m.Role)
		if n := len(turns); n > 0 && turns[n-1].Role == role {
			turns[n-1].Parts = append(turns[n-1].Parts, genai.Text(m.Content))
			continue
		}
		turns = append(turns, &genai.Content{Role: role, Parts: []genai.Part{genai.Text(m.Content)}})
	}
	for len(turns) > 1 && turns[0].Role == "model" {
		turns = turns[1:]
	}

	history := turns[:len(turns)-1]
	last := turns[len(turns)-1].Parts
	if n := len(history); n > 0 && history[n-1].Role == "user" {
		last = append(append([]genai.Part{}, history[n-1].Parts...), last...)
		history = history[:n-1]
	}
	return system, history, last, nil
}

func geminiRole(role models.Role) string {
	if role == models.RoleAssistant {
		return "model"
	}
	return "user"
}

type geminiStream struct {
	iter   *genai.GenerateContentResponseIterator
	cancel context.CancelFunc
}

func (s *geminiStream) Recv() (string, error) {
	for {
		resp, err := s.iter.Next()
		if errors.Is(err, iterator.Done) {
			return "", io.EOF
		}
		if err != nil {
			return "", Classify("gemini.stream", err)
		}
		if text := responseText(resp); text != "" {
			return text, nil
		}
	}
}

func (s *geminiStream) Close() error {
	s.cancel()
	return nil
}

// responseText joins the text parts of the first candidate
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0] == nil || resp.Candidates[0].Content == nil {
		return ""
	}

	var reply strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			reply.WriteString(string(txt))
		}
	}
	return reply.String()
}

// OllamaGenerator streams chat completions from a local Ollama server
type OllamaGenerator struct {
	client *api.Client
	model  string
	guard  *Guard
}

func NewOllamaGenerator(client *api.Client, model string, g *Guard) *OllamaGenerator {
	return &OllamaGenerator{client: client, model: model, guard: g}
}

func (g *OllamaGenerator) GenerateStream(ctx context.Context, messages []models.ChatMessage) (Stream, error) {
	ctx, span := otel.Tracer("ollama-client").Start(ctx, "ollama.chat_stream")
	defer span.End()
	span.SetAttributes(
		attribute.String("ollama.model", g.model),
		attribute.Int("ollama.messages", len(messages)),
	)

	if len(messages) == 0 {
		return nil, apperrors.New(apperrors.KindInvalidInput, "ollama.generate", fmt.Errorf("no conversation messages"))
	}

	msgs := make([]api.Message, len(messages))
	for i, m := range messages {
		msgs[i] = api.Message{Role: string(m.Role), Content: m.Content}
	}
	stream := true
	req := &api.ChatRequest{
		Model:    g.model,
		Messages: msgs,
		Stream:   &stream,
		Options: map[string]interface{}{
			"temperature": 0.7,
			"top_k":       40,
			"top_p":       0.8,
		},
	}

	result, err := g.guard.Do(ctx, "ollama.generate", func() (interface{}, error) {
		s, err := prime(startOllamaStream(ctx, g.client, req))
		if err != nil {
			return nil, err
		}
		return s, nil
	})
	if err != nil {
		span.SetAttributes(attribute.Bool("ollama.error", true))
		return nil, err
	}
	return result.(Stream), nil
}

// ollamaStream turns the callback based Chat API into a pull based Stream.
// The producer goroutine exits once the request finishes or Close cancels it.
type ollamaStream struct {
	deltas <-chan string
	errc   <-chan error
	cancel context.CancelFunc
	err    error
}

func startOllamaStream(ctx context.Context, client *api.Client, req *api.ChatRequest) *ollamaStream {
	ctx, cancel := context.WithCancel(ctx)
	deltas := make(chan string)
	errc := make(chan error, 1)

	go func() {
		defer close(deltas)
		errc <- client.Chat(ctx, req, func(resp api.ChatResponse) error {
			if resp.Message.Content == "" {
				return nil
			}
			select {
			case deltas <- resp.Message.Content:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
	}()

	return &ollamaStream{deltas: deltas, errc: errc, cancel: cancel}
}

func (s *ollamaStream) Recv() (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if d, ok := <-s.deltas; ok {
		return d, nil
	}
	if err := <-s.errc; err != nil {
		s.err = Classify("ollama.stream", err)
	} else {
		s.err = io.EOF
	}
	return "", s.err
}

func (s *ollamaStream) Close() error {
	s.cancel()
	return nil
}

func float32Ptr(f float32) *float32 {
	return &f
}

func int32Ptr(i int32) *int32 {
	return &i
}
