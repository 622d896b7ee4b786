package chunker_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/Nabeelshar/n85ylvh9-auto/internal/chunker"
)

func joinChunks(chunks []chunker.Chunk) string {
	var sb strings.Builder
	for _, c := range chunks {
		sb.WriteString(c.Text)
	}
	return sb.String()
}

// --- Split tests ---

func TestSplit_EmptyText(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\n\r\n"} {
		if chunks := chunker.Split(text, 100, nil); len(chunks) != 0 {
			t.Errorf("expected no chunks for %q, got %d", text, len(chunks))
		}
	}
}

func TestSplit_ShortText(t *testing.T) {
	text := "林羽站在青云宗的山门前。"
	chunks := chunker.Split(text, 100, nil)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0].Text != text {
		t.Errorf("expected %q, got %q", text, chunks[0].Text)
	}
	if chunks[0].Index != 0 || chunks[0].Offset != 0 {
		t.Errorf("unexpected index/offset: %+v", chunks[0])
	}
}

func TestSplit_Unlimited(t *testing.T) {
	text := strings.Repeat("word ", 500)
	chunks := chunker.Split(text, 0, nil)
	if len(chunks) != 1 {
		t.Errorf("expected 1 chunk when budget=0, got %d", len(chunks))
	}
}

func TestSplit_ThreeParagraphs(t *testing.T) {
	para1 := strings.Repeat("甲", 30)
	para2 := strings.Repeat("乙", 30)
	para3 := strings.Repeat("丙", 30)
	text := para1 + "\n\n" + para2 + "\n\n" + para3

	chunks := chunker.Split(text, 50, nil)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d: %v", len(chunks), chunks)
	}
	for i, want := range []string{para1, para2, para3} {
		if strings.TrimSpace(chunks[i].Text) != want {
			t.Errorf("chunk %d: expected paragraph %q, got %q", i, want, chunks[i].Text)
		}
	}
}

func TestSplit_PacksSmallParagraphs(t *testing.T) {
	text := "一。\n二。\n三。\n" + strings.Repeat("四", 40)
	chunks := chunker.Split(text, 20, nil)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d: %v", len(chunks), chunks)
	}
	if strings.TrimSpace(chunks[0].Text) != "一。\n二。\n三。" {
		t.Errorf("expected first three lines packed together, got %q", chunks[0].Text)
	}
}

func TestSplit_SentenceBoundary(t *testing.T) {
	// One paragraph, too long for the budget, with CJK sentence ends.
	text := "林羽站在山门前。他刚刚突破到筑基期！“终于成功了？”他心中激动不已。"
	chunks := chunker.Split(text, 12, nil)
	if len(chunks) < 2 {
		t.Fatalf("expected ≥2 chunks, got %d", len(chunks))
	}
	for i, c := range chunks {
		trimmed := strings.TrimSpace(c.Text)
		last, _ := utf8.DecodeLastRuneInString(trimmed)
		if i < len(chunks)-1 && !strings.ContainsRune("。！？”", last) {
			t.Errorf("chunk %d does not end at a sentence boundary: %q", i, c.Text)
		}
	}
}

func TestSplit_LatinSentenceBoundary(t *testing.T) {
	text := "First sentence ends here. Second sentence follows. Pi is 3.14 exactly."
	chunks := chunker.Split(text, 30, nil)
	if len(chunks) < 2 {
		t.Fatalf("expected ≥2 chunks, got %d", len(chunks))
	}
	for _, c := range chunks {
		if strings.HasPrefix(c.Text, "14") {
			t.Errorf("split inside a number: %q", c.Text)
		}
	}
}

func TestSplit_HardCut(t *testing.T) {
	text := strings.Repeat("字", 95)
	chunks := chunker.Split(text, 20, nil)
	if len(chunks) != 5 {
		t.Fatalf("expected 5 chunks, got %d", len(chunks))
	}
	for i, c := range chunks[:4] {
		if n := utf8.RuneCountInString(c.Text); n != 20 {
			t.Errorf("chunk %d: expected 20 runes, got %d", i, n)
		}
	}
}

func TestSplit_RespectsBudget(t *testing.T) {
	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 40) +
		"\n\n" + strings.Repeat("狐狸跳过了懒狗。", 60) +
		"\n" + strings.Repeat("x", 300)

	for _, budget := range []int{1, 7, 50, 128, 1000} {
		for _, c := range chunker.Split(text, budget, nil) {
			if n := utf8.RuneCountInString(strings.TrimSpace(c.Text)); n > budget {
				t.Errorf("budget %d: chunk %d measures %d", budget, c.Index, n)
			}
		}
	}
}

func TestSplit_CustomSize(t *testing.T) {
	// Count bytes instead of runes: CJK characters take three each.
	bytes := func(s string) int { return len(s) }
	text := strings.Repeat("字", 30)
	chunks := chunker.Split(text, 30, bytes)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks of 10 runes, got %d", len(chunks))
	}
}

func TestSplit_Lossless(t *testing.T) {
	inputs := []string{
		"",
		"short",
		"  padded text with CRLF\r\nsecond line\r\n\r\nthird paragraph  ",
		strings.Repeat("林羽站在青云宗的山门前，看着眼前的一切。\n", 200),
		strings.Repeat("He stood there. ", 300) + "\n\n\n" + strings.Repeat("无标点长句", 400),
		"“终于成功了！”他心中激动不已。\n\n\n   \n他刚刚突破到筑基期。",
	}

	for _, input := range inputs {
		for _, budget := range []int{1, 5, 64, 500, 100000} {
			chunks := chunker.Split(input, budget, nil)
			if got, want := joinChunks(chunks), chunker.Normalize(input); got != want {
				t.Errorf("budget %d: chunks do not reconstruct input\nwant %q\ngot  %q", budget, want, got)
			}

			offset := 0
			for i, c := range chunks {
				if c.Index != i {
					t.Errorf("chunk %d has index %d", i, c.Index)
				}
				if c.Offset != offset {
					t.Errorf("chunk %d: expected offset %d, got %d", i, offset, c.Offset)
				}
				if strings.TrimSpace(c.Text) == "" {
					t.Errorf("chunk %d is blank", i)
				}
				offset += utf8.RuneCountInString(c.Text)
			}
		}
	}
}

func TestNormalize(t *testing.T) {
	got := chunker.Normalize("\r\n  a\r\nb\rc  \n")
	if got != "a\nb\nc" {
		t.Errorf("unexpected normalization: %q", got)
	}
}

// --- ExtractContext tests ---

func TestExtractContext_FewerWordsThanLimit(t *testing.T) {
	text := "short text"
	ctx := chunker.ExtractContext(text, 25)
	if ctx != text {
		t.Errorf("expected %q, got %q", text, ctx)
	}
}

func TestExtractContext_MoreWordsThanLimit(t *testing.T) {
	words := make([]string, 50)
	for i := range words {
		words[i] = "word"
	}
	ctx := chunker.ExtractContext(strings.Join(words, " "), 25)
	if got := len(strings.Fields(ctx)); got != 25 {
		t.Errorf("expected 25 words, got %d", got)
	}
}

func TestExtractContext_DefaultWordCount(t *testing.T) {
	words := make([]string, 50)
	for i := range words {
		words[i] = "w"
	}
	ctx := chunker.ExtractContext(strings.Join(words, " "), 0)
	if got := len(strings.Fields(ctx)); got != chunker.DefaultContextWords {
		t.Errorf("expected %d words, got %d", chunker.DefaultContextWords, got)
	}
}

func TestExtractContext_LastWordsCorrect(t *testing.T) {
	ctx := chunker.ExtractContext("alpha beta gamma delta epsilon", 3)
	if ctx != "gamma delta epsilon" {
		t.Errorf("expected last 3 words, got %q", ctx)
	}
}

func TestExtractContext_UnspacedScript(t *testing.T) {
	text := strings.Repeat("字", 500)
	ctx := chunker.ExtractContext(text, 10)
	if n := utf8.RuneCountInString(ctx); n != 80 {
		t.Errorf("expected 80 runes of context, got %d", n)
	}
}
