package reqdoc

import (
	"net/url"
	"strings"

	"github.com/unkn0wn-root/restdock/internal/errdef"
)

// MaskedComment is the trailing comment that tags a header value as hidden.
// Both the masker and the detectors key off this exact string, so it must
// never be edited in one place only. MaskedValueMarker is the form it takes
// inside rendered text.
const (
	MaskedComment     = "[masked - toggle to reveal]"
	MaskedValueMarker = "# " + MaskedComment
)

// EnvDirective names the environment a generated document targets.
const EnvDirective = "@env"

// credential headers the masking machinery watches.
var authHeaderNames = map[string]bool{
	"authorization": true,
	"x-api-key":     true,
}

func IsAuthHeader(name string) bool {
	return authHeaderNames[strings.ToLower(strings.TrimSpace(name))]
}

type Header struct {
	Name    string
	Value   string
	Masked  bool
	Comment string
}

// Document is the tagged form of a request file. The raw text is parsed into
// this once, manipulated as data and serialised back at the edges - no regex
// rewriting of live document text.
type Document struct {
	Title         string
	Comments      []string
	EnvironmentID string
	Method        string
	URL           string
	Headers       []Header
	Body          string
	Trailer       []string
}

func (d *Document) Header(name string) (Header, bool) {
	for _, h := range d.Headers {
		if strings.EqualFold(h.Name, name) {
			return h, true
		}
	}
	return Header{}, false
}

// Parse reads the line-oriented request format: one "### title" line, "#"
// comment lines, a METHOD URL line, "Name: Value" headers (inline "#"
// comments stripped into Header.Comment), a blank line, an optional body and
// an optional trailing comment block.
func Parse(text string) (*Document, error) {
	doc := &Document{}
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")

	const (
		statePreamble = iota
		stateHeaders
		stateBody
	)
	state := statePreamble
	var body []string

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		switch state {
		case statePreamble:
			switch {
			case trimmed == "":
				continue
			case strings.HasPrefix(trimmed, "###"):
				doc.Title = strings.TrimSpace(strings.TrimPrefix(trimmed, "###"))
			case strings.HasPrefix(trimmed, "#"):
				comment := strings.TrimSpace(strings.TrimPrefix(trimmed, "#"))
				if rest, ok := strings.CutPrefix(comment, EnvDirective+" "); ok {
					doc.EnvironmentID = strings.TrimSpace(rest)
				}
				doc.Comments = append(doc.Comments, comment)
			default:
				method, target, ok := parseRequestLine(trimmed)
				if !ok {
					return nil, errdef.New(errdef.CodeParse, "malformed request line: %s", trimmed)
				}
				doc.Method = method
				doc.URL = target
				state = stateHeaders
			}
		case stateHeaders:
			if trimmed == "" {
				state = stateBody
				continue
			}
			header, ok := parseHeaderLine(line)
			if !ok {
				return nil, errdef.New(errdef.CodeParse, "malformed header line: %s", trimmed)
			}
			doc.Headers = append(doc.Headers, header)
		case stateBody:
			body = append(body, line)
		}
	}

	if doc.Method == "" {
		return nil, errdef.New(errdef.CodeParse, "document has no request line")
	}

	doc.Body, doc.Trailer = splitTrailer(body)
	return doc, nil
}

func parseRequestLine(line string) (method, target string, ok bool) {
	fields := strings.Fields(line)
	if len(fields) != 2 {
		return "", "", false
	}
	method = strings.ToUpper(fields[0])
	switch method {
	case "GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS", "TRACE":
		return method, fields[1], true
	default:
		return "", "", false
	}
}

// Header values may carry a trailing inline comment (" # ..."), which is kept
// separately so the value itself stays clean.
func parseHeaderLine(line string) (Header, bool) {
	idx := strings.Index(line, ":")
	if idx <= 0 {
		return Header{}, false
	}

	name := strings.TrimSpace(line[:idx])
	rest := line[idx+1:]

	value := rest
	comment := ""
	if cut := strings.Index(rest, " #"); cut >= 0 {
		value = rest[:cut]
		comment = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(rest[cut+1:]), "#"))
	}
	value = strings.TrimSpace(value)

	return Header{
		Name:    name,
		Value:   value,
		Masked:  comment == MaskedComment,
		Comment: comment,
	}, true
}

// the trailing run of comment/blank lines belongs to the notes block, not the
// body. Everything before it is body text.
func splitTrailer(lines []string) (string, []string) {
	end := len(lines)
	for end > 0 {
		trimmed := strings.TrimSpace(lines[end-1])
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			end--
			continue
		}
		break
	}

	body := strings.TrimSpace(strings.Join(lines[:end], "\n"))

	var trailer []string
	for _, line := range lines[end:] {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		trailer = append(trailer, strings.TrimSpace(strings.TrimPrefix(trimmed, "#")))
	}
	return body, trailer
}

// Render serialises the document back to text. Parse(Render(doc)) yields an
// equal document, which is what makes mask toggling idempotent.
func Render(doc *Document) string {
	var b strings.Builder

	if doc.Title != "" {
		b.WriteString("### ")
		b.WriteString(doc.Title)
		b.WriteString("\n")
	}
	for _, comment := range doc.Comments {
		if comment == "" {
			b.WriteString("#\n")
			continue
		}
		b.WriteString("# ")
		b.WriteString(comment)
		b.WriteString("\n")
	}

	b.WriteString(doc.Method)
	b.WriteString(" ")
	b.WriteString(doc.URL)
	b.WriteString("\n")

	for _, header := range doc.Headers {
		b.WriteString(header.Name)
		b.WriteString(": ")
		b.WriteString(header.Value)
		if header.Comment != "" {
			b.WriteString(" # ")
			b.WriteString(header.Comment)
		}
		b.WriteString("\n")
	}

	if doc.Body != "" {
		b.WriteString("\n")
		b.WriteString(doc.Body)
		b.WriteString("\n")
	}

	if len(doc.Trailer) > 0 {
		b.WriteString("\n")
		for _, line := range doc.Trailer {
			if line == "" {
				b.WriteString("#\n")
				continue
			}
			b.WriteString("# ")
			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	return b.String()
}

// HasMaskedAuth reports whether any header carries the mask marker. State
// decisions rest on the marker alone, never on the secret value.
func HasMaskedAuth(text string) bool {
	return strings.Contains(text, MaskedValueMarker)
}

// HasUnmaskedAuth reports whether a credential header holds what looks like a
// plaintext secret: a value of 20+ characters with no mask marker on the
// line. The length cutoff is a deliberate, imprecise proxy - long non-secret
// values will match it too.
func HasUnmaskedAuth(text string) bool {
	for _, line := range strings.Split(text, "\n") {
		header, ok := parseHeaderLine(line)
		if !ok || !IsAuthHeader(header.Name) {
			continue
		}
		if header.Masked {
			continue
		}
		if len(header.Value) >= 20 {
			return true
		}
	}
	return false
}

// QueryString renders parameter placeholders in declaration order:
// required ones as name=<REQUIRED>, optional ones as name=<optional>.
func QueryString(pairs []QueryParam) string {
	if len(pairs) == 0 {
		return ""
	}
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		value := p.Value
		if value == "" {
			if p.Required {
				value = "<REQUIRED>"
			} else {
				value = "<optional>"
			}
		}
		parts = append(parts, p.Name+"="+value)
	}
	return strings.Join(parts, "&")
}

type QueryParam struct {
	Name     string
	Value    string
	Required bool
}

// AppendQuery attaches extra query parameters to a URL that may already carry
// some. Placeholder values are passed through untouched.
func AppendQuery(rawURL string, params map[string]string) (string, error) {
	if len(params) == 0 {
		return rawURL, nil
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", errdef.Wrap(errdef.CodeParse, err, "parse request url")
	}
	values := parsed.Query()
	for name, value := range params {
		values.Set(name, value)
	}
	parsed.RawQuery = values.Encode()
	return parsed.String(), nil
}
