package authclient

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/goliatone/go-errors"
)

// MemoryCredentialStore keeps the credential for the life of the process.
// It is the default store; credentials survive a restart only when a
// FileCredentialStore is configured.
type MemoryCredentialStore struct {
	mu         sync.Mutex
	credential string
}

func NewMemoryCredentialStore() *MemoryCredentialStore {
	return &MemoryCredentialStore{}
}

func (s *MemoryCredentialStore) Get() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.credential, nil
}

func (s *MemoryCredentialStore) Set(credential string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credential = credential
	return nil
}

func (s *MemoryCredentialStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credential = ""
	return nil
}

// FileCredentialStore persists the credential as a mode 0600 JSON file, the
// desktop-client analogue of browser local storage. A missing file reads as
// no credential, not as an error.
type FileCredentialStore struct {
	mu   sync.Mutex
	path string
}

type credentialFile struct {
	Credential string `json:"credential"`
}

func NewFileCredentialStore(path string) *FileCredentialStore {
	return &FileCredentialStore{path: path}
}

func (s *FileCredentialStore) Get() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to read credential file")
	}

	var file credentialFile
	if err := json.Unmarshal(data, &file); err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to parse credential file")
	}

	return file.Credential, nil
}

func (s *FileCredentialStore) Set(credential string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(credentialFile{Credential: credential})
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to encode credential")
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return errors.Wrap(err, errors.CategoryInternal, "failed to create credential directory")
		}
	}

	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to write credential file")
	}

	return nil
}

func (s *FileCredentialStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, errors.CategoryInternal, "failed to remove credential file")
	}
	return nil
}
