package mask

import (
	"strings"
	"sync"

	"github.com/unkn0wn-root/restdock/internal/errdef"
	"github.com/unkn0wn-root/restdock/internal/reqdoc"
)

type State int

const (
	StateMasked State = iota
	StateUnmasked
)

func (s State) String() string {
	if s == StateUnmasked {
		return "unmasked"
	}
	return "masked"
}

// maskPaddingCap caps how many asterisks a masked value shows so header
// lines stay readable for very long tokens.
const (
	maskKeepPrefix = 4
	maskPaddingCap = 20
	schemeBearer   = "Bearer"
	schemeBasic    = "Basic"
)

// MaskValue obfuscates a header value: first four characters survive, the
// rest becomes asterisks capped at twenty. Auth scheme prefixes (Bearer,
// Basic) are kept readable and only the token part is masked.
func MaskValue(value string) string {
	scheme, token := splitScheme(value)
	masked := maskToken(token)
	if scheme == "" {
		return masked
	}
	return scheme + " " + masked
}

func splitScheme(value string) (scheme, token string) {
	trimmed := strings.TrimSpace(value)
	for _, s := range []string{schemeBearer, schemeBasic} {
		if rest, ok := strings.CutPrefix(trimmed, s+" "); ok {
			return s, strings.TrimSpace(rest)
		}
	}
	return "", trimmed
}

func maskToken(token string) string {
	if len(token) <= maskKeepPrefix {
		return token
	}
	padding := len(token) - maskKeepPrefix
	if padding > maskPaddingCap {
		padding = maskPaddingCap
	}
	return token[:maskKeepPrefix] + strings.Repeat("*", padding)
}

// CachedHeader is one plaintext credential header held in memory for a
// document. It never reaches the document text while masked.
type CachedHeader struct {
	Name  string
	Value string
}

// Toggler flips request documents between masked and unmasked credential
// display. The plaintext cache is an instance field scoped to the toggler's
// lifetime - never serialised, never written into the visible text.
type Toggler struct {
	mu    sync.Mutex
	cache map[string][]CachedHeader
}

func NewToggler() *Toggler {
	return &Toggler{cache: make(map[string][]CachedHeader)}
}

// Prime seeds the cache for a freshly generated document so its masked
// headers can be revealed without re-deriving the secrets.
func (t *Toggler) Prime(docID string, headers []CachedHeader) {
	if docID == "" || len(headers) == 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cache[docID] = append([]CachedHeader(nil), headers...)
}

func (t *Toggler) Forget(docID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.cache, docID)
}

func (t *Toggler) Cached(docID string) []CachedHeader {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]CachedHeader(nil), t.cache[docID]...)
}

// Toggle transitions a document between masked and unmasked display. State is
// decided purely by the mask marker's presence in the text, so repeated
// toggles stay idempotent even if extraction misses a value. On any error the
// original text is returned untouched.
func (t *Toggler) Toggle(docID, text string) (string, State, error) {
	if reqdoc.HasMaskedAuth(text) {
		unmasked, err := t.reveal(docID, text)
		if err != nil {
			return text, StateMasked, err
		}
		return unmasked, StateUnmasked, nil
	}

	masked, err := t.conceal(docID, text)
	if err != nil {
		return text, StateUnmasked, err
	}
	return masked, StateMasked, nil
}

func (t *Toggler) reveal(docID, text string) (string, error) {
	t.mu.Lock()
	cached := t.cache[docID]
	t.mu.Unlock()

	if len(cached) == 0 {
		return "", errdef.New(
			errdef.CodeMasking,
			"could not reveal: no cached credentials for this document",
		)
	}

	doc, err := reqdoc.Parse(text)
	if err != nil {
		return "", err
	}

	for i, header := range doc.Headers {
		if !header.Masked {
			continue
		}
		plain, ok := lookupCached(cached, header.Name)
		if !ok {
			// nothing cached for this particular header; leave it masked
			// rather than guessing.
			continue
		}
		doc.Headers[i].Value = plain
		doc.Headers[i].Masked = false
		doc.Headers[i].Comment = ""
	}
	return reqdoc.Render(doc), nil
}

func (t *Toggler) conceal(docID, text string) (string, error) {
	doc, err := reqdoc.Parse(text)
	if err != nil {
		return "", err
	}

	var concealed bool
	var extracted []CachedHeader
	for i, header := range doc.Headers {
		if header.Masked || !reqdoc.IsAuthHeader(header.Name) {
			continue
		}
		if strings.TrimSpace(header.Value) == "" {
			continue
		}
		extracted = append(extracted, CachedHeader{Name: header.Name, Value: header.Value})
		doc.Headers[i].Value = MaskValue(header.Value)
		doc.Headers[i].Masked = true
		doc.Headers[i].Comment = reqdoc.MaskedComment
		concealed = true
	}

	if !concealed {
		return "", errdef.New(errdef.CodeMasking, "document has no credential headers to mask")
	}

	t.remember(docID, extracted)
	return reqdoc.Render(doc), nil
}

// remember adds extracted values without clobbering entries that are already
// cached - the cached copy is the authoritative plaintext.
func (t *Toggler) remember(docID string, headers []CachedHeader) {
	if docID == "" || len(headers) == 0 {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	existing := t.cache[docID]
	for _, header := range headers {
		if _, ok := lookupCached(existing, header.Name); ok {
			continue
		}
		existing = append(existing, header)
	}
	t.cache[docID] = existing
}

func lookupCached(cached []CachedHeader, name string) (string, bool) {
	for _, entry := range cached {
		if strings.EqualFold(entry.Name, name) {
			return entry.Value, true
		}
	}
	return "", false
}
