package mask

import (
	"strings"
	"testing"

	"github.com/unkn0wn-root/restdock/internal/reqdoc"
)

func TestMaskValue(t *testing.T) {
	cases := []struct {
		name  string
		value string
		want  string
	}{
		{
			name:  "bearer scheme survives",
			value: "Bearer abcdef1234567890",
			want:  "Bearer abcd************",
		},
		{
			name:  "basic scheme survives",
			value: "Basic dXNlcjpwYXNz",
			want:  "Basic dXNl********",
		},
		{
			name:  "bare token",
			value: "sk-live-abcdef123456",
			want:  "sk-l****************",
		},
		{
			name:  "short value untouched",
			value: "abcd",
			want:  "abcd",
		},
		{
			name:  "padding capped at twenty",
			value: strings.Repeat("x", 64),
			want:  "xxxx" + strings.Repeat("*", 20),
		},
	}

	for _, tc := range cases {
		if got := MaskValue(tc.value); got != tc.want {
			t.Fatalf("%s: MaskValue(%q) = %q, want %q", tc.name, tc.value, got, tc.want)
		}
	}
}

func buildDoc(authName, authValue string) string {
	return reqdoc.Render(&reqdoc.Document{
		Title:         "List users",
		Comments:      []string{"@env env-1"},
		EnvironmentID: "env-1",
		Method:        "GET",
		URL:           "https://api.example.com/users",
		Headers: []reqdoc.Header{
			{Name: "Content-Type", Value: "application/json"},
			{Name: authName, Value: authValue},
		},
	})
}

func TestToggleRoundTripIsByteIdentical(t *testing.T) {
	original := buildDoc("Authorization", "Bearer abcdef1234567890")
	toggler := NewToggler()

	masked, state, err := toggler.Toggle("doc-1", original)
	if err != nil {
		t.Fatalf("conceal: %v", err)
	}
	if state != StateMasked {
		t.Fatalf("state after conceal = %v", state)
	}
	if strings.Contains(masked, "abcdef1234567890") {
		t.Fatalf("masked text leaks the token:\n%s", masked)
	}
	if !reqdoc.HasMaskedAuth(masked) {
		t.Fatalf("masked text lacks the marker:\n%s", masked)
	}

	revealed, state, err := toggler.Toggle("doc-1", masked)
	if err != nil {
		t.Fatalf("reveal: %v", err)
	}
	if state != StateUnmasked {
		t.Fatalf("state after reveal = %v", state)
	}
	if revealed != original {
		t.Fatalf("round trip mismatch:\n--- got ---\n%s--- want ---\n%s", revealed, original)
	}

	// and again: a second full cycle must also reproduce the original.
	masked2, _, err := toggler.Toggle("doc-1", revealed)
	if err != nil {
		t.Fatalf("second conceal: %v", err)
	}
	if masked2 != masked {
		t.Fatalf("second conceal diverged")
	}
}

func TestRevealWithoutCacheFails(t *testing.T) {
	toggler := NewToggler()
	masked, _, err := toggler.Toggle("doc-1", buildDoc("X-API-Key", "sk-live-abcdef123456"))
	if err != nil {
		t.Fatalf("conceal: %v", err)
	}

	fresh := NewToggler()
	got, state, err := fresh.Toggle("doc-1", masked)
	if err == nil {
		t.Fatalf("expected reveal to fail without cached credentials")
	}
	if state != StateMasked {
		t.Fatalf("state = %v, want masked", state)
	}
	if got != masked {
		t.Fatalf("text must be returned untouched on error")
	}
}

func TestToggleWithoutCredentialHeadersFails(t *testing.T) {
	text := reqdoc.Render(&reqdoc.Document{
		Method: "GET",
		URL:    "https://api.example.com/health",
		Headers: []reqdoc.Header{
			{Name: "Accept", Value: "application/json"},
		},
	})

	toggler := NewToggler()
	got, _, err := toggler.Toggle("doc-1", text)
	if err == nil {
		t.Fatalf("expected an error for a document with nothing to mask")
	}
	if got != text {
		t.Fatalf("text must be returned untouched on error")
	}
}

func TestPrimeEnablesRevealInFreshToggler(t *testing.T) {
	original := buildDoc("Authorization", "Bearer abcdef1234567890")
	first := NewToggler()
	masked, _, err := first.Toggle("doc-1", original)
	if err != nil {
		t.Fatalf("conceal: %v", err)
	}

	second := NewToggler()
	second.Prime("doc-1", []CachedHeader{
		{Name: "Authorization", Value: "Bearer abcdef1234567890"},
	})
	revealed, _, err := second.Toggle("doc-1", masked)
	if err != nil {
		t.Fatalf("reveal: %v", err)
	}
	if revealed != original {
		t.Fatalf("primed reveal mismatch:\n%s", revealed)
	}
}

func TestForgetDropsCachedPlaintext(t *testing.T) {
	toggler := NewToggler()
	masked, _, err := toggler.Toggle("doc-1", buildDoc("Authorization", "Bearer abcdef1234567890"))
	if err != nil {
		t.Fatalf("conceal: %v", err)
	}

	toggler.Forget("doc-1")
	if cached := toggler.Cached("doc-1"); len(cached) != 0 {
		t.Fatalf("cache should be empty after Forget, got %v", cached)
	}
	if _, _, err := toggler.Toggle("doc-1", masked); err == nil {
		t.Fatalf("reveal after Forget must fail")
	}
}

func TestConcealSkipsAlreadyMaskedAndBlankHeaders(t *testing.T) {
	text := reqdoc.Render(&reqdoc.Document{
		Method: "GET",
		URL:    "https://api.example.com/users",
		Headers: []reqdoc.Header{
			{Name: "Authorization", Value: "Bearer abcdef1234567890"},
			{Name: "X-API-Key", Value: ""},
		},
	})

	toggler := NewToggler()
	masked, _, err := toggler.Toggle("doc-1", text)
	if err != nil {
		t.Fatalf("conceal: %v", err)
	}

	cached := toggler.Cached("doc-1")
	if len(cached) != 1 || cached[0].Name != "Authorization" {
		t.Fatalf("cached = %v, want only Authorization", cached)
	}
	if strings.Count(masked, reqdoc.MaskedComment) != 1 {
		t.Fatalf("exactly one header should carry the marker:\n%s", masked)
	}
}
