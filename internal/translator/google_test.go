package translator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"google.golang.org/api/option"

	"github.com/Nabeelshar/n85ylvh9-auto/internal/placeholder"
)

func newTestGoogleService(t *testing.T, handler http.HandlerFunc) *GoogleService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	svc, err := newGoogleService(context.Background(),
		option.WithEndpoint(server.URL+"/"),
		option.WithoutAuthentication(),
	)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { svc.Close() })
	return svc
}

func googleTranslation(text string) map[string]interface{} {
	return map[string]interface{}{
		"data": map[string]interface{}{
			"translations": []map[string]interface{}{{"translatedText": text}},
		},
	}
}

func TestGoogleService_Translate_MarkupWithGlossary(t *testing.T) {
	var sent string
	svc := newTestGoogleService(t, func(w http.ResponseWriter, r *http.Request) {
		sent = r.FormValue("q")
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(googleTranslation("[PH0]The path of the protagonist [GT0].[PH1]"))
	})

	protected, originals := placeholder.Protect("<p>主人公林宇的修仙之路。</p>")
	result, err := svc.Translate(context.Background(), TranslateRequest{
		Text:       protected,
		SourceLang: "zh",
		TargetLang: "en",
		Mode:       ModeMarkup,
		Glossary:   testGlossary(t),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if strings.Contains(sent, "林宇") {
		t.Errorf("glossary term sent unpinned: %q", sent)
	}
	if missing := placeholder.Validate(result.TranslatedText, originals); len(missing) != 0 {
		t.Fatalf("markup markers lost: %v in %q", missing, result.TranslatedText)
	}
	if got := placeholder.Restore(result.TranslatedText, originals); got != "<p>The path of the protagonist Lin Yu.</p>" {
		t.Errorf("got %q", got)
	}
	if result.Metadata["pinned_terms"] != "1" || result.Metadata["lost_markers"] != "0" {
		t.Errorf("unexpected metadata %v", result.Metadata)
	}
}

func TestGoogleService_Translate_APIError(t *testing.T) {
	svc := newTestGoogleService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	result, err := svc.Translate(context.Background(), TranslateRequest{Text: "林宇", TargetLang: "en"})
	if err == nil {
		t.Error("expected error for non-OK status")
	}
	if result == nil || result.Error == "" {
		t.Error("expected error message in result")
	}
}
