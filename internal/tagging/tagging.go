package tagging

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"photo-vault/internal/database"
	"photo-vault/internal/logging"
	"photo-vault/internal/metrics"
)

// DefaultPrompt is the fixed instruction sent alongside the image. The
// deployment can override it to request tags in another language.
const DefaultPrompt = "Analyze this image and produce 3-10 short descriptive tags. " +
	"Return only the tag list, comma separated, with no other text. " +
	"Example: landscape,mountains,blue sky,nature,outdoors"

// maxTagLength is the longest fragment accepted from the model response.
const maxTagLength = 30

// requestTimeout bounds the vision model call. The call is awaited
// in-line during upload handling, so a stuck model must not hold the
// request open indefinitely.
const requestTimeout = 60 * time.Second

// Config carries the vision service settings.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Prompt  string
}

// Synthesizer sends an image to a vision-capable model, parses the
// returned tag list, and attaches the tags to the image with per-owner
// deduplication. All failures are recovered locally: tagging never
// affects the outcome of the ingestion that triggered it.
type Synthesizer struct {
	client *openai.Client
	db     *database.Database
	model  string
	prompt string
}

// New creates a Synthesizer. Without an API key the synthesizer is
// disabled and SynthesizeTags becomes a no-op.
func New(db *database.Database, cfg Config) *Synthesizer {
	s := &Synthesizer{
		db:     db,
		model:  cfg.Model,
		prompt: cfg.Prompt,
	}
	if s.prompt == "" {
		s.prompt = DefaultPrompt
	}
	if cfg.APIKey != "" {
		clientCfg := openai.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			clientCfg.BaseURL = cfg.BaseURL
		}
		s.client = openai.NewClientWithConfig(clientCfg)
	}
	return s
}

// Enabled reports whether the synthesizer has a configured model client.
func (s *Synthesizer) Enabled() bool {
	return s.client != nil
}

// SynthesizeTags runs the full enrichment for one committed image:
// model call, response parsing, per-tag upsert, and set-union attach.
// The returned error is informational; callers log it and move on.
func (s *Synthesizer) SynthesizeTags(ctx context.Context, imageID, ownerID int64, data []byte, mimeType string) error {
	if !s.Enabled() {
		return nil
	}

	names, err := s.requestTags(ctx, data, mimeType)
	if err != nil {
		metrics.EnrichmentTotal.WithLabelValues("tagging", "error").Inc()
		return fmt.Errorf("vision model call failed: %w", err)
	}
	if len(names) == 0 {
		metrics.EnrichmentTotal.WithLabelValues("tagging", "empty").Inc()
		return errors.New("vision model returned no usable tags")
	}

	// Upsert each tag independently; one bad name must not sink the rest.
	var tagIDs []int64
	for _, name := range names {
		tag, err := s.db.UpsertTag(ctx, ownerID, name)
		if err != nil {
			logging.Warn("tagging: upsert failed for %q: %v", name, err)
			continue
		}
		tagIDs = append(tagIDs, tag.ID)
	}
	if len(tagIDs) == 0 {
		metrics.EnrichmentTotal.WithLabelValues("tagging", "error").Inc()
		return errors.New("no tags could be upserted")
	}

	if err := s.db.AttachTags(ctx, imageID, tagIDs); err != nil {
		metrics.EnrichmentTotal.WithLabelValues("tagging", "error").Inc()
		return fmt.Errorf("failed to attach tags: %w", err)
	}

	metrics.EnrichmentTotal.WithLabelValues("tagging", "success").Inc()
	metrics.TagsSynthesizedTotal.Add(float64(len(tagIDs)))
	logging.Info("tagging: attached %d tags to image %d", len(tagIDs), imageID)
	return nil
}

func (s *Synthesizer) requestTags(ctx context.Context, data []byte, mimeType string) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL: DataURL(data, mimeType),
						},
					},
					{
						Type: openai.ChatMessagePartTypeText,
						Text: s.prompt,
					},
				},
			},
		},
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("empty model response")
	}

	content := resp.Choices[0].Message.Content
	logging.Debug("tagging: model response: %s", content)
	return ParseTags(content), nil
}

// ParseTags splits a free-text model response into tag names: split on
// comma, fullwidth comma, ideographic comma, and newline; trim; drop
// empty and over-length fragments.
func ParseTags(content string) []string {
	fields := strings.FieldsFunc(content, func(r rune) bool {
		switch r {
		case ',', '，', '、', '\n':
			return true
		}
		return false
	})

	var tags []string
	for _, f := range fields {
		tag := strings.TrimSpace(f)
		if tag == "" || len([]rune(tag)) > maxTagLength {
			continue
		}
		tags = append(tags, tag)
	}
	return tags
}

// DataURL renders the image bytes as a base64 data URL for the embedded
// payload the vision endpoint expects.
func DataURL(data []byte, mimeType string) string {
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
