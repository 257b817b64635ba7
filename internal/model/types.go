package model

import (
	"strings"
	"time"
)

type AuthType string

const (
	AuthNone   AuthType = "none"
	AuthAPIKey AuthType = "apikey"
	AuthBearer AuthType = "bearer"
	AuthBasic  AuthType = "basic"
)

func ParseAuthType(raw string) AuthType {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "apikey", "api-key":
		return AuthAPIKey
	case "bearer":
		return AuthBearer
	case "basic":
		return AuthBasic
	default:
		return AuthNone
	}
}

type AuthConfig struct {
	Type AuthType `json:"type"`
}

func (a AuthConfig) Active() bool {
	return a.Type != "" && a.Type != AuthNone
}

type BaseConfig struct {
	DefaultHeaders map[string]string `json:"defaultHeaders,omitempty"`
	DefaultAuth    AuthType          `json:"defaultAuthType,omitempty"`
	DefaultTimeout time.Duration     `json:"defaultTimeout,omitempty"`
}

// PlatformConfig carries vendor quirks a schema demands on every request,
// e.g. a CSRF token header. RequiredHeaders preserves declaration order.
type PlatformConfig struct {
	Platform        string       `json:"platform"`
	RequiredHeaders []HeaderPair `json:"requiredHeaders,omitempty"`
	AuthConfig      AuthConfig   `json:"authConfig,omitempty"`
}

type HeaderPair struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type Schema struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Version        string          `json:"version"`
	BaseConfig     *BaseConfig     `json:"baseConfig,omitempty"`
	PlatformConfig *PlatformConfig `json:"platformConfig,omitempty"`
	GroupID        string          `json:"groupId,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

type EnvironmentGroup struct {
	ID            string      `json:"id"`
	SchemaID      string      `json:"schemaId"`
	Name          string      `json:"name"`
	DefaultAuth   *AuthConfig `json:"defaultAuth,omitempty"`
	AuthSecretKey string      `json:"authSecretKey,omitempty"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}

type Environment struct {
	ID                 string            `json:"id"`
	SchemaID           string            `json:"schemaId"`
	Name               string            `json:"name"`
	BaseURL            string            `json:"baseUrl"`
	Auth               AuthConfig        `json:"auth"`
	CustomHeaders      map[string]string `json:"customHeaders,omitempty"`
	Timeout            time.Duration     `json:"timeout,omitempty"`
	EnvironmentGroupID string            `json:"environmentGroupId,omitempty"`
	AuthSecretKey      string            `json:"authSecretKey,omitempty"`
	CreatedAt          time.Time         `json:"createdAt"`
	UpdatedAt          time.Time         `json:"updatedAt"`
}

// Credentials is the decoded secret blob. Which fields are set depends on the
// auth type: basic uses Username/Password, bearer and apikey use APIKey.
type Credentials struct {
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	APIKey   string `json:"apiKey,omitempty"`
}

func (c Credentials) Empty() bool {
	return c.Username == "" && c.Password == "" && c.APIKey == ""
}

// ResolvedConfig is computed on demand and never persisted.
type ResolvedConfig struct {
	Environment     Environment
	Schema          Schema
	ResolvedHeaders map[string]string
	ResolvedAuth    AuthConfig
	SecretKey       string
	ResolvedTimeout time.Duration
	PlatformConfig  *PlatformConfig
}
