package httpclient

import "crypto/tls"

// only reached when the user explicitly opts in via -insecure.
func insecureTLSConfig() *tls.Config {
	return &tls.Config{InsecureSkipVerify: true}
}
