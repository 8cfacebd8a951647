package devserver

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/ankit76350/whistleblower/internal/models"
)

// FileStore resolves attachment keys to bytes and URLs. The dev
// implementation keeps files on local disk; production uses signed storage
// URLs behind the same contract.
type FileStore interface {
	Save(filename string, data []byte) (models.AttachmentRef, error)
	URL(key models.AttachmentRef) (string, error)
}

// DiskStore stores attachments under a directory, one file per storage key.
type DiskStore struct {
	Dir     string
	BaseURL string
}

// NewDiskStore creates the directory if needed.
func NewDiskStore(dir, baseURL string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskStore{Dir: dir, BaseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (d *DiskStore) Save(filename string, data []byte) (models.AttachmentRef, error) {
	key := models.NewAttachmentKey(filepath.Base(filename))
	if err := os.WriteFile(filepath.Join(d.Dir, string(key)), data, 0o644); err != nil {
		return "", err
	}
	return key, nil
}

func (d *DiskStore) URL(key models.AttachmentRef) (string, error) {
	path := filepath.Join(d.Dir, string(key))
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", err
	}
	return d.BaseURL + "/files/" + string(key), nil
}
