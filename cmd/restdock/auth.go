package main

import (
	"encoding/base64"

	"github.com/unkn0wn-root/restdock/internal/mask"
	"github.com/unkn0wn-root/restdock/internal/model"
)

// authHeadersFor reconstructs the plaintext header a masked document hides so
// the reveal cache can be primed in a fresh process.
func authHeadersFor(authType model.AuthType, creds model.Credentials) []mask.CachedHeader {
	switch authType {
	case model.AuthBearer:
		if creds.APIKey != "" {
			return []mask.CachedHeader{{Name: "Authorization", Value: "Bearer " + creds.APIKey}}
		}
	case model.AuthAPIKey:
		if creds.APIKey != "" {
			return []mask.CachedHeader{{Name: "X-API-Key", Value: creds.APIKey}}
		}
	case model.AuthBasic:
		if creds.Username != "" || creds.Password != "" {
			encoded := base64.StdEncoding.EncodeToString(
				[]byte(creds.Username + ":" + creds.Password),
			)
			return []mask.CachedHeader{{Name: "Authorization", Value: "Basic " + encoded}}
		}
	}
	return nil
}
