package classifier

import (
	"strings"
	"testing"

	"github.com/provenance-lab/origincheck/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const aiLikeContent = "Sonuç olarak teknoloji hayatımızı değiştirdi. Ayrıca eğitim de bu süreçten etkilendi."

func TestParseWellFormed(t *testing.T) {
	raw := `CONFIDENCE: 82
RESULT: ai-generated
EXPLANATION: Metin çok düzenli yapıda
INDICATORS: Mükemmel dilbilgisi, , monoton üslup ,yapay tutarlılık`

	v := NewParser(nil).Parse(raw, "ignored")
	assert.Equal(t, 82, v.Confidence.Value)
	assert.Equal(t, models.ConfidenceParsed, v.Confidence.Origin)
	assert.Equal(t, models.LabelAI, v.Label)
	assert.Equal(t, "Metin çok düzenli yapıda", v.Explanation)
	assert.Equal(t, []string{"Mükemmel dilbilgisi", "monoton üslup", "yapay tutarlılık"}, v.Indicators)
}

func TestParseLenientFormatting(t *testing.T) {
	raw := "**Confidence:** 77\n- **Result:** Human-Generated\nexplanation:   kısa not  "
	v := NewParser(nil).Parse(raw, "")
	assert.Equal(t, 77, v.Confidence.Value)
	assert.Equal(t, models.LabelHuman, v.Label)
	assert.Equal(t, "kısa not", v.Explanation)
	assert.Empty(t, v.Indicators)
}

func TestParseClampsConfidence(t *testing.T) {
	v := NewParser(nil).Parse("CONFIDENCE: 150\nRESULT: uncertain", "")
	assert.Equal(t, 100, v.Confidence.Value)
	assert.Equal(t, models.LabelUncertain, v.Label)
}

func TestParseResultOrder(t *testing.T) {
	v := NewParser(nil).Parse("CONFIDENCE: 50\nRESULT: ai-generated or human-generated", "")
	assert.Equal(t, models.LabelAI, v.Label)

	v = NewParser(nil).Parse("CONFIDENCE: 50\nRESULT: something else", "")
	assert.Equal(t, models.LabelUncertain, v.Label)
}

func TestParseZeroConfidenceIsParsed(t *testing.T) {
	v := NewParser(func() int { return 3 }).Parse("CONFIDENCE: 0\nRESULT: human-generated", aiLikeContent)
	assert.Equal(t, 0, v.Confidence.Value)
	assert.Equal(t, models.ConfidenceParsed, v.Confidence.Origin)
}

func TestParsePhraseFallback(t *testing.T) {
	tests := []struct {
		raw   string
		want  int
		label models.Label
	}{
		{"Bu metin kesinlikle AI tarafından yazılmış.", 94, models.LabelAI},
		{"Metin muhtemelen AI üretimi.", 79, models.LabelAI},
		{"Sonuç belirsiz görünüyor.", 49, models.LabelUncertain},
		{"Bu yazı büyük ihtimalle insan elinden çıkmış.", 29, models.LabelHuman},
		{"Açıkça insan yazımı.", 12, models.LabelHuman},
	}
	for _, tt := range tests {
		v := NewParser(NoJitter).Parse(tt.raw, aiLikeContent)
		assert.Equal(t, tt.want, v.Confidence.Value, tt.raw)
		assert.Equal(t, models.ConfidenceDerived, v.Confidence.Origin, tt.raw)
		assert.Equal(t, tt.label, v.Label, tt.raw)
	}
}

func TestParsePhraseBandKeepsJitterInBand(t *testing.T) {
	v := NewParser(func() int { return 50 }).Parse("muhtemelen insan", "")
	assert.Equal(t, 39, v.Confidence.Value)
}

func TestParseSignalFallbackDeterministic(t *testing.T) {
	raw := "Bu metnin yazarı hakkında kesin bir şey söylemek zor."
	p := NewParser(NoJitter)

	first := p.Parse(raw, aiLikeContent)
	second := p.Parse(raw, aiLikeContent)

	require.Equal(t, models.ConfidenceDerived, first.Confidence.Origin)
	assert.Equal(t, 85, first.Confidence.Value)
	assert.Equal(t, first.Confidence, second.Confidence)
	assert.Equal(t, models.LabelAI, first.Label)
	assert.Contains(t, first.Confidence.Signals, "discourse-openers:+35")
	assert.Equal(t, raw, first.Explanation)
}

func TestParseSignalFallbackWithJitter(t *testing.T) {
	raw := "Format dışı cevap."
	v := NewParser(func() int { return 3 }).Parse(raw, aiLikeContent)
	assert.Equal(t, 88, v.Confidence.Value)

	v = NewParser(func() int { return 20 }).Parse(raw, aiLikeContent)
	assert.Equal(t, 95, v.Confidence.Value)
}

func TestParseKeepsResultWhenConfidenceMissing(t *testing.T) {
	v := NewParser(NoJitter).Parse("RESULT: human-generated\nEXPLANATION: doğal", aiLikeContent)
	assert.Equal(t, models.ConfidenceDerived, v.Confidence.Origin)
	assert.Equal(t, models.LabelHuman, v.Label)
}

func TestParseExplanationFallbackTruncates(t *testing.T) {
	raw := strings.Repeat("ş", 250)
	v := NewParser(NoJitter).Parse(raw, "")
	assert.Equal(t, strings.Repeat("ş", 200)+"...", v.Explanation)
}

func TestParseInvariants(t *testing.T) {
	inputs := []string{"", "CONFIDENCE: 999", "CONFIDENCE: abc", "random", "RESULT: ai-generated"}
	for _, raw := range inputs {
		v := NewParser(RandomJitter()).Parse(raw, "bence güzel ya...")
		assert.True(t, v.Label.Valid(), raw)
		assert.GreaterOrEqual(t, v.Confidence.Value, 0, raw)
		assert.LessOrEqual(t, v.Confidence.Value, 100, raw)
		assert.True(t, v.Confidence.Set(), raw)
	}
}

func TestLabelFor(t *testing.T) {
	assert.Equal(t, models.LabelAI, LabelFor(66))
	assert.Equal(t, models.LabelUncertain, LabelFor(65))
	assert.Equal(t, models.LabelUncertain, LabelFor(35))
	assert.Equal(t, models.LabelHuman, LabelFor(34))
}
