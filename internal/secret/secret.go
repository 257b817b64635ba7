package secret

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/unkn0wn-root/restdock/internal/errdef"
	"github.com/unkn0wn-root/restdock/internal/model"
)

// Store is the vault the rest of the system talks to. Values are opaque JSON
// credential blobs; keys are generated via NewKey.
type Store interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Delete(key string) error
}

// LookupState keeps "no credentials stored" distinct from "vault broken".
// Callers treat Absent as a normal state, Unavailable as a warning.
type LookupState int

const (
	LookupOK LookupState = iota
	LookupAbsent
	LookupUnavailable
)

type Lookup struct {
	State       LookupState
	Credentials model.Credentials
	Err         error
}

func Found(creds model.Credentials) Lookup {
	return Lookup{State: LookupOK, Credentials: creds}
}

func Absent() Lookup {
	return Lookup{State: LookupAbsent}
}

func Unavailable(err error) Lookup {
	return Lookup{State: LookupUnavailable, Err: err}
}

// NewKey builds a vault key owned by exactly one environment or group.
// The timestamp keeps rotated keys from colliding with their predecessors.
func NewKey(prefix, ownerID string) string {
	return fmt.Sprintf("%s_%s_%d", prefix, ownerID, time.Now().Unix())
}

func EncodeCredentials(creds model.Credentials) (string, error) {
	data, err := json.Marshal(creds)
	if err != nil {
		return "", errdef.Wrap(errdef.CodeSecrets, err, "encode credentials")
	}
	return string(data), nil
}

func DecodeCredentials(raw string) (model.Credentials, error) {
	var creds model.Credentials
	if strings.TrimSpace(raw) == "" {
		return creds, errdef.New(errdef.CodeSecrets, "credential blob is empty")
	}
	if err := json.Unmarshal([]byte(raw), &creds); err != nil {
		return creds, errdef.Wrap(errdef.CodeSecrets, err, "decode credentials")
	}
	return creds, nil
}

// Rotate stores creds under a fresh key and then best-effort deletes the old
// one. The two calls are not atomic: a crash in between leaks the old key,
// which the original design accepts. Returns the new key and any delete error
// so the caller can log it without failing the rotation.
func Rotate(store Store, prefix, ownerID, oldKey string, creds model.Credentials) (string, error, error) {
	blob, err := EncodeCredentials(creds)
	if err != nil {
		return "", nil, err
	}

	newKey := NewKey(prefix, ownerID)
	if err := store.Set(newKey, blob); err != nil {
		return "", nil, err
	}

	var deleteErr error
	if oldKey != "" && oldKey != newKey {
		deleteErr = store.Delete(oldKey)
	}
	return newKey, deleteErr, nil
}
