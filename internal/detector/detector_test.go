package detector

import (
	"testing"
)

func TestDetector_DetectISO(t *testing.T) {
	d := New()

	tests := []struct {
		name     string
		text     string
		wantCode string
		wantOK   bool
	}{
		{"empty text", "", "", false},
		{"english text", "Lin Yu stood before the mountain gate of the Azure Cloud Sect.", "en", true},
		{"chinese text", "林羽站在青云宗的山门前，望着远处的云海。", "zh", true},
		{"german text", "Hallo, das ist ein Test auf Deutsch.", "de", true},
		{"french text", "Bonjour, ceci est un test en français.", "fr", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, ok := d.DetectISO(tt.text)
			if ok != tt.wantOK {
				t.Errorf("DetectISO(%q) ok = %v, want %v", tt.text, ok, tt.wantOK)
				return
			}
			if tt.wantOK && code != tt.wantCode {
				t.Errorf("DetectISO(%q) = %q, want %q", tt.text, code, tt.wantCode)
			}
		})
	}
}

func TestDetector_RestrictedPair(t *testing.T) {
	d := New("ZH", "en")

	if code, ok := d.DetectISO("林羽站在青云宗的山门前。"); !ok || code != "zh" {
		t.Errorf("expected zh, got %q (ok=%v)", code, ok)
	}
	if code, ok := d.DetectISO("Lin Yu stood before the gate of the Azure Cloud Sect."); !ok || code != "en" {
		t.Errorf("expected en, got %q (ok=%v)", code, ok)
	}
}

func TestDetector_UnknownCodesFallBackToAll(t *testing.T) {
	d := New("auto", "xx")

	if code, ok := d.DetectISO("Hola, esto es una prueba en español."); !ok || code != "es" {
		t.Errorf("expected es, got %q (ok=%v)", code, ok)
	}
}
