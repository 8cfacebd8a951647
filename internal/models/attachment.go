package models

import (
	"strings"

	"github.com/google/uuid"
)

// AttachmentRef is an opaque storage key of the form <uuid>_<original-filename>.
// The underlying bytes live in external file storage; the key is resolved to a
// downloadable URL on demand.
type AttachmentRef string

// Name recovers the original filename encoded in the key. A key without the
// uuid prefix is returned as-is.
func (a AttachmentRef) Name() string {
	if _, name, ok := strings.Cut(string(a), "_"); ok {
		return name
	}
	return string(a)
}

// NewAttachmentKey builds a storage key for an uploaded file.
func NewAttachmentKey(filename string) AttachmentRef {
	return AttachmentRef(uuid.New().String() + "_" + filename)
}
