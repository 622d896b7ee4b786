package translator

import (
	"context"
	"fmt"
	"time"

	translate "cloud.google.com/go/translate"
	"golang.org/x/text/language"
	"google.golang.org/api/option"

	"github.com/Nabeelshar/n85ylvh9-auto/internal/placeholder"
)

// GoogleService is the Cloud Translation (NMT) backend. It cannot follow
// prompt instructions, so glossary terms are swapped for markers before the
// call and restored to their target renderings afterwards.
type GoogleService struct {
	client *translate.Client
}

// NewGoogleService creates the API client once. An empty credentialsFile
// falls back to Application Default Credentials.
func NewGoogleService(ctx context.Context, credentialsFile string) (*GoogleService, error) {
	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	return newGoogleService(ctx, opts...)
}

func newGoogleService(ctx context.Context, opts ...option.ClientOption) (*GoogleService, error) {
	client, err := translate.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("google: failed to create client: %w", err)
	}
	return &GoogleService{client: client}, nil
}

func (s *GoogleService) Name() string {
	return "google"
}

func (s *GoogleService) Close() error {
	return s.client.Close()
}

func (s *GoogleService) Translate(ctx context.Context, req TranslateRequest) (*ServiceResult, error) {
	result := &ServiceResult{ServiceName: s.Name()}
	start := time.Now()
	defer func() { result.Latency = time.Since(start) }()

	target, err := language.Parse(req.TargetLang)
	if err != nil {
		result.Error = fmt.Sprintf("invalid target language: %v", err)
		return result, fmt.Errorf("invalid target language: %w", err)
	}

	opts := &translate.Options{Format: translate.Text}
	if req.Mode == ModeMarkup {
		opts.Format = translate.HTML
	}
	if req.SourceLang != "" && req.SourceLang != "auto" {
		source, err := language.Parse(req.SourceLang)
		if err != nil {
			result.Error = fmt.Sprintf("invalid source language: %v", err)
			return result, fmt.Errorf("invalid source language: %w", err)
		}
		opts.Source = source
	}

	text, pinned := placeholder.ProtectTerms(req.Text, req.Glossary)

	translations, err := s.client.Translate(ctx, []string{text}, target, opts)
	if err != nil {
		result.Error = fmt.Sprintf("translation failed: %v", err)
		return result, fmt.Errorf("translation failed: %w", err)
	}
	if len(translations) == 0 || translations[0].Text == "" {
		result.Error = "no translation returned"
		return result, fmt.Errorf("no translation returned")
	}

	out := translations[0].Text
	missing := placeholder.ValidateTerms(out, pinned)
	result.TranslatedText = placeholder.RestoreTerms(out, pinned)
	result.Metadata = map[string]string{
		"pinned_terms":  fmt.Sprintf("%d", len(pinned)),
		"lost_markers":  fmt.Sprintf("%d", len(missing)),
		"detected_lang": translations[0].Source.String(),
	}

	return result, nil
}

func (s *GoogleService) IsAvailable(ctx context.Context) error {
	if _, err := s.client.SupportedLanguages(ctx, language.English); err != nil {
		return fmt.Errorf("Google Translate not available: %w", err)
	}
	return nil
}
