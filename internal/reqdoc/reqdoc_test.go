package reqdoc

import (
	"strings"
	"testing"
)

const sampleDoc = `### List users
# @env env-123
# environment: staging
GET https://api.example.com/v2/users?page=<optional>&limit=<REQUIRED>
Content-Type: application/json
Accept: application/json
X-API-Key: sk-l****************** # [masked - toggle to reveal]

# Parameters:
# page (query, optional)
# limit (query, required)
#
# replace <REQUIRED> placeholders before sending
`

func TestParseSampleDocument(t *testing.T) {
	doc, err := Parse(sampleDoc)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if doc.Title != "List users" {
		t.Fatalf("title = %q", doc.Title)
	}
	if doc.EnvironmentID != "env-123" {
		t.Fatalf("environment id = %q", doc.EnvironmentID)
	}
	if doc.Method != "GET" {
		t.Fatalf("method = %q", doc.Method)
	}
	if len(doc.Headers) != 3 {
		t.Fatalf("expected 3 headers, got %d", len(doc.Headers))
	}

	apiKey, ok := doc.Header("X-API-Key")
	if !ok {
		t.Fatalf("missing X-API-Key header")
	}
	if !apiKey.Masked {
		t.Fatalf("expected X-API-Key to be tagged masked")
	}
	if apiKey.Value != "sk-l******************" {
		t.Fatalf("masked value = %q", apiKey.Value)
	}
	if apiKey.Comment != MaskedComment {
		t.Fatalf("comment = %q", apiKey.Comment)
	}

	if doc.Body != "" {
		t.Fatalf("expected empty body, got %q", doc.Body)
	}
	if len(doc.Trailer) != 5 {
		t.Fatalf("trailer lines = %d, want 5", len(doc.Trailer))
	}
	if doc.Trailer[3] != "" {
		t.Fatalf("expected blank trailer line at index 3, got %q", doc.Trailer[3])
	}
}

func TestRenderRoundTrip(t *testing.T) {
	rendered := Render(mustParse(t, sampleDoc))
	if rendered != sampleDoc {
		t.Fatalf("render round trip mismatch:\n--- got ---\n%s--- want ---\n%s", rendered, sampleDoc)
	}
}

func TestParseBodyAndTrailerSeparation(t *testing.T) {
	text := "POST https://api.example.com/users\nContent-Type: application/json\n\n{\n  \"name\": \"x\"\n}\n\n# note after body\n"
	doc := mustParse(t, text)

	if doc.Body != "{\n  \"name\": \"x\"\n}" {
		t.Fatalf("body = %q", doc.Body)
	}
	if len(doc.Trailer) != 1 || doc.Trailer[0] != "note after body" {
		t.Fatalf("trailer = %v", doc.Trailer)
	}
}

func TestParseRejectsMalformedInput(t *testing.T) {
	cases := map[string]string{
		"no request line":  "# just a comment\n",
		"unknown method":   "FETCH https://api.example.com\n",
		"malformed header": "GET https://api.example.com\nnot-a-header\n",
	}
	for name, text := range cases {
		if _, err := Parse(text); err == nil {
			t.Fatalf("%s: expected parse error", name)
		}
	}
}

func TestIsAuthHeader(t *testing.T) {
	for _, name := range []string{"Authorization", "authorization", "X-API-Key", " x-api-key "} {
		if !IsAuthHeader(name) {
			t.Fatalf("%q should be an auth header", name)
		}
	}
	if IsAuthHeader("Content-Type") {
		t.Fatalf("Content-Type is not an auth header")
	}
}

func TestHasMaskedAuth(t *testing.T) {
	if !HasMaskedAuth(sampleDoc) {
		t.Fatalf("sample carries the mask marker")
	}
	if HasMaskedAuth("GET https://x\nAuthorization: Bearer abc\n") {
		t.Fatalf("no marker present")
	}
}

func TestHasUnmaskedAuthLengthCutoff(t *testing.T) {
	long := "GET https://x\nAuthorization: Bearer abcdef1234567890\n"
	if !HasUnmaskedAuth(long) {
		t.Fatalf("23-char auth value should count as plaintext")
	}

	short := "GET https://x\nAuthorization: Bearer abc\n"
	if HasUnmaskedAuth(short) {
		t.Fatalf("short auth value should not count as plaintext")
	}

	if HasUnmaskedAuth(sampleDoc) {
		t.Fatalf("masked line must never count as plaintext")
	}

	nonAuth := "GET https://x\nX-Trace-Id: abcdefabcdefabcdefabcdef\n"
	if HasUnmaskedAuth(nonAuth) {
		t.Fatalf("non-auth headers are ignored")
	}
}

func TestQueryString(t *testing.T) {
	got := QueryString([]QueryParam{
		{Name: "limit", Required: true},
		{Name: "page"},
		{Name: "q", Value: "cats"},
	})
	want := "limit=<REQUIRED>&page=<optional>&q=cats"
	if got != want {
		t.Fatalf("query = %q, want %q", got, want)
	}
	if QueryString(nil) != "" {
		t.Fatalf("empty input should render empty string")
	}
}

func TestAppendQuery(t *testing.T) {
	got, err := AppendQuery("https://api.example.com/users?page=1", map[string]string{"limit": "10"})
	if err != nil {
		t.Fatalf("append query: %v", err)
	}
	if !strings.Contains(got, "page=1") || !strings.Contains(got, "limit=10") {
		t.Fatalf("got %q", got)
	}
}

func mustParse(t *testing.T, text string) *Document {
	t.Helper()
	doc, err := Parse(text)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}
