package secret

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/crypto/chacha20poly1305"

	"github.com/unkn0wn-root/restdock/internal/errdef"
)

// FileVault stores credential blobs in a JSON file, each value encrypted
// independently with XChaCha20-Poly1305. The master key lives next to the
// vault with 0600 permissions and is created on first use.
type FileVault struct {
	path    string
	keyPath string
	mu      sync.Mutex
	key     []byte
}

func OpenFileVault(path string) (*FileVault, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errdef.Wrap(errdef.CodeFilesystem, err, "create vault dir")
	}

	v := &FileVault{path: path, keyPath: path + ".key"}
	if err := v.loadOrCreateKey(); err != nil {
		return nil, err
	}
	return v, nil
}

func (v *FileVault) loadOrCreateKey() error {
	data, err := os.ReadFile(v.keyPath)
	if err == nil {
		key, decodeErr := base64.StdEncoding.DecodeString(string(data))
		if decodeErr != nil || len(key) != chacha20poly1305.KeySize {
			return errdef.New(errdef.CodeSecrets, "vault key file %s is corrupt", v.keyPath)
		}
		v.key = key
		return nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return errdef.Wrap(errdef.CodeSecrets, err, "read vault key")
	}

	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := rand.Read(key); err != nil {
		return errdef.Wrap(errdef.CodeSecrets, err, "generate vault key")
	}
	encoded := base64.StdEncoding.EncodeToString(key)
	if err := os.WriteFile(v.keyPath, []byte(encoded), 0o600); err != nil {
		return errdef.Wrap(errdef.CodeSecrets, err, "write vault key")
	}
	v.key = key
	return nil
}

func (v *FileVault) Get(key string) (string, bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	entries, err := v.load()
	if err != nil {
		return "", false, err
	}
	sealed, ok := entries[key]
	if !ok {
		return "", false, nil
	}

	plain, err := v.open(sealed)
	if err != nil {
		return "", false, err
	}
	return plain, true, nil
}

func (v *FileVault) Set(key, value string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	entries, err := v.load()
	if err != nil {
		return err
	}

	sealed, err := v.seal(value)
	if err != nil {
		return err
	}
	entries[key] = sealed
	return v.persist(entries)
}

func (v *FileVault) Delete(key string) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	entries, err := v.load()
	if err != nil {
		return err
	}
	if _, ok := entries[key]; !ok {
		return nil
	}
	delete(entries, key)
	return v.persist(entries)
}

func (v *FileVault) load() (map[string]string, error) {
	data, err := os.ReadFile(v.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, errdef.Wrap(errdef.CodeSecrets, err, "read vault")
	}
	if len(data) == 0 {
		return map[string]string{}, nil
	}

	var entries map[string]string
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, errdef.Wrap(errdef.CodeSecrets, err, "parse vault")
	}
	if entries == nil {
		entries = map[string]string{}
	}
	return entries, nil
}

// temp file + rename so a crash mid-write never corrupts the vault.
func (v *FileVault) persist(entries map[string]string) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return errdef.Wrap(errdef.CodeSecrets, err, "encode vault")
	}

	tmp := v.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return errdef.Wrap(errdef.CodeFilesystem, err, "write vault tmp")
	}
	if err := os.Rename(tmp, v.path); err != nil {
		_ = os.Remove(tmp)
		return errdef.Wrap(errdef.CodeFilesystem, err, "replace vault file")
	}
	return nil
}

func (v *FileVault) seal(plain string) (string, error) {
	aead, err := chacha20poly1305.NewX(v.key)
	if err != nil {
		return "", errdef.Wrap(errdef.CodeSecrets, err, "init cipher")
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", errdef.Wrap(errdef.CodeSecrets, err, "generate nonce")
	}

	sealed := aead.Seal(nonce, nonce, []byte(plain), nil)
	return base64.StdEncoding.EncodeToString(sealed), nil
}

func (v *FileVault) open(encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", errdef.Wrap(errdef.CodeSecrets, err, "decode vault entry")
	}

	aead, err := chacha20poly1305.NewX(v.key)
	if err != nil {
		return "", errdef.Wrap(errdef.CodeSecrets, err, "init cipher")
	}
	if len(raw) < aead.NonceSize() {
		return "", errdef.New(errdef.CodeSecrets, "vault entry too short")
	}

	nonce, ciphertext := raw[:aead.NonceSize()], raw[aead.NonceSize():]
	plain, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", errdef.Wrap(errdef.CodeSecrets, err, "decrypt vault entry")
	}
	return string(plain), nil
}
