package skeleton

import (
	"encoding/base64"
	"fmt"
	"sort"
	"strings"

	"github.com/unkn0wn-root/restdock/internal/errdef"
	"github.com/unkn0wn-root/restdock/internal/mask"
	"github.com/unkn0wn-root/restdock/internal/model"
	"github.com/unkn0wn-root/restdock/internal/openapi"
	"github.com/unkn0wn-root/restdock/internal/reqdoc"
)

// placeholders used when no credentials are stored yet; these are written in
// the clear since there is nothing to hide.
const (
	placeholderToken  = "replace-with-token"
	placeholderAPIKey = "replace-with-api-key"
	placeholderBasic  = "replace-with-credentials"
)

type Input struct {
	Endpoint    openapi.Endpoint
	Resolved    model.ResolvedConfig
	Credentials model.Credentials
}

type Result struct {
	Text string

	// Secrets holds the plaintext header values the generated text masks.
	// The caller primes the toggler cache with them, keyed by the new
	// document's identity.
	Secrets []mask.CachedHeader
}

// Generate renders an editable request document for one endpoint against one
// resolved environment. Any credential it embeds is masked in the text and
// returned separately in plaintext for the reveal cache.
func Generate(in Input) (Result, error) {
	env := in.Resolved.Environment
	if strings.TrimSpace(env.BaseURL) == "" {
		return Result{}, errdef.New(
			errdef.CodeParse,
			"environment %s has no base url", env.Name,
		)
	}
	if strings.TrimSpace(in.Endpoint.Method) == "" || strings.TrimSpace(in.Endpoint.Path) == "" {
		return Result{}, errdef.New(errdef.CodeParse, "endpoint method and path are required")
	}

	doc := &reqdoc.Document{
		Title:         titleFor(in.Endpoint),
		EnvironmentID: env.ID,
		Method:        strings.ToUpper(in.Endpoint.Method),
		URL:           buildURL(env.BaseURL, in.Endpoint),
	}

	doc.Comments = append(doc.Comments, fmt.Sprintf("%s %s", reqdoc.EnvDirective, env.ID))
	doc.Comments = append(doc.Comments, "environment: "+env.Name)
	for _, line := range descriptionLines(in.Endpoint) {
		doc.Comments = append(doc.Comments, line)
	}

	doc.Headers = buildHeaders(in)

	authHeader, secret, ok := buildAuthHeader(in.Resolved.ResolvedAuth, in.Credentials)
	if ok {
		doc.Headers = append(doc.Headers, authHeader)
	}

	if hasBodyPlaceholder(doc.Method) {
		doc.Body = "{\n}"
	}

	doc.Trailer = buildTrailer(in.Endpoint)

	result := Result{Text: reqdoc.Render(doc)}
	if secret.Value != "" {
		result.Secrets = append(result.Secrets, secret)
	}
	return result, nil
}

func titleFor(ep openapi.Endpoint) string {
	if strings.TrimSpace(ep.Summary) != "" {
		return strings.TrimSpace(ep.Summary)
	}
	return fmt.Sprintf("%s %s", strings.ToUpper(ep.Method), ep.Path)
}

func descriptionLines(ep openapi.Endpoint) []string {
	desc := strings.TrimSpace(ep.Description)
	if desc == "" {
		return nil
	}
	var lines []string
	for _, line := range strings.Split(desc, "\n") {
		if t := strings.TrimSpace(line); t != "" {
			lines = append(lines, t)
		}
	}
	return lines
}

func buildURL(baseURL string, ep openapi.Endpoint) string {
	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	target := base + ep.Path

	var query []reqdoc.QueryParam
	for _, param := range ep.Parameters {
		if param.Location != openapi.InQuery {
			continue
		}
		query = append(query, reqdoc.QueryParam{Name: param.Name, Required: param.Required})
	}
	if qs := reqdoc.QueryString(query); qs != "" {
		target += "?" + qs
	}
	return target
}

// header block order: Content-Type, Accept, platform required headers in
// declaration order, environment custom headers, then the auth header.
func buildHeaders(in Input) []reqdoc.Header {
	headers := []reqdoc.Header{
		{Name: "Content-Type", Value: headerOrDefault(in.Resolved.ResolvedHeaders, "Content-Type", "application/json")},
		{Name: "Accept", Value: headerOrDefault(in.Resolved.ResolvedHeaders, "Accept", "application/json")},
	}
	seen := map[string]bool{"content-type": true, "accept": true}

	if platform := in.Resolved.PlatformConfig; platform != nil {
		for _, pair := range platform.RequiredHeaders {
			lower := strings.ToLower(pair.Name)
			if seen[lower] || reqdoc.IsAuthHeader(pair.Name) {
				continue
			}
			seen[lower] = true
			value := pair.Value
			if override, ok := in.Resolved.ResolvedHeaders[pair.Name]; ok {
				value = override
			}
			headers = append(headers, reqdoc.Header{Name: pair.Name, Value: value})
		}
	}

	custom := make([]string, 0, len(in.Resolved.Environment.CustomHeaders))
	for name := range in.Resolved.Environment.CustomHeaders {
		custom = append(custom, name)
	}
	sort.Strings(custom)
	for _, name := range custom {
		lower := strings.ToLower(name)
		if seen[lower] || reqdoc.IsAuthHeader(name) {
			continue
		}
		seen[lower] = true
		headers = append(headers, reqdoc.Header{
			Name:  name,
			Value: in.Resolved.Environment.CustomHeaders[name],
		})
	}

	return headers
}

func headerOrDefault(resolved map[string]string, name, fallback string) string {
	for key, value := range resolved {
		if strings.EqualFold(key, name) && strings.TrimSpace(value) != "" {
			return value
		}
	}
	return fallback
}

// buildAuthHeader renders at most one authentication header. With stored
// credentials the embedded value is masked and the plaintext is returned for
// the cache; without them a bare placeholder is written instead. Basic auth
// is base64-encoded first - the encoded string is what gets masked.
func buildAuthHeader(
	auth model.AuthConfig,
	creds model.Credentials,
) (reqdoc.Header, mask.CachedHeader, bool) {
	switch auth.Type {
	case model.AuthBearer:
		if creds.APIKey == "" {
			return plainAuthHeader("Authorization", "Bearer "+placeholderToken), mask.CachedHeader{}, true
		}
		return maskedAuthHeader("Authorization", "Bearer "+creds.APIKey)
	case model.AuthAPIKey:
		if creds.APIKey == "" {
			return plainAuthHeader("X-API-Key", placeholderAPIKey), mask.CachedHeader{}, true
		}
		return maskedAuthHeader("X-API-Key", creds.APIKey)
	case model.AuthBasic:
		if creds.Username == "" && creds.Password == "" {
			return plainAuthHeader("Authorization", "Basic "+placeholderBasic), mask.CachedHeader{}, true
		}
		encoded := base64.StdEncoding.EncodeToString(
			[]byte(creds.Username + ":" + creds.Password),
		)
		return maskedAuthHeader("Authorization", "Basic "+encoded)
	default:
		return reqdoc.Header{}, mask.CachedHeader{}, false
	}
}

func plainAuthHeader(name, value string) reqdoc.Header {
	return reqdoc.Header{Name: name, Value: value}
}

func maskedAuthHeader(name, plaintext string) (reqdoc.Header, mask.CachedHeader, bool) {
	header := reqdoc.Header{
		Name:    name,
		Value:   mask.MaskValue(plaintext),
		Masked:  true,
		Comment: reqdoc.MaskedComment,
	}
	return header, mask.CachedHeader{Name: name, Value: plaintext}, true
}

func hasBodyPlaceholder(method string) bool {
	switch method {
	case "POST", "PUT", "PATCH":
		return true
	default:
		return false
	}
}

func buildTrailer(ep openapi.Endpoint) []string {
	if len(ep.Parameters) == 0 {
		return nil
	}

	trailer := []string{"Parameters:"}
	for _, param := range ep.Parameters {
		requirement := "optional"
		if param.Required {
			requirement = "required"
		}
		line := fmt.Sprintf("%s (%s, %s)", param.Name, param.Location, requirement)
		if desc := strings.TrimSpace(param.Description); desc != "" {
			line += " - " + desc
		}
		trailer = append(trailer, line)
	}
	trailer = append(trailer, "", "replace <REQUIRED> placeholders before sending")
	return trailer
}
