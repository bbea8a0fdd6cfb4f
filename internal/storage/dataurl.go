package storage

import (
	"encoding/base64"
	"errors"
	"strings"
)

// ErrBadEncoding is returned for payloads that are not valid base64.
var ErrBadEncoding = errors.New("storage: invalid base64 payload")

// Blob is a decoded upload.
type Blob struct {
	MimeType string
	Data     []byte
}

// Ext returns the file extension for the blob's media type.
func (b Blob) Ext() string {
	switch b.MimeType {
	case "image/png":
		return "png"
	case "image/gif":
		return "gif"
	case "image/webp":
		return "webp"
	default:
		return "jpg"
	}
}

// DecodeDataURL accepts either "data:<mime>;base64,<payload>" or a bare
// base64 payload, in which case defaultMime is assumed.
func DecodeDataURL(s, defaultMime string) (Blob, error) {
	s = strings.TrimSpace(s)
	mime := defaultMime
	if strings.HasPrefix(s, "data:") {
		head, payload, ok := strings.Cut(s, ",")
		if !ok || !strings.HasSuffix(head, ";base64") {
			return Blob{}, ErrBadEncoding
		}
		if m := strings.TrimSuffix(strings.TrimPrefix(head, "data:"), ";base64"); m != "" {
			mime = m
		}
		s = payload
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		if data, err = base64.RawStdEncoding.DecodeString(s); err != nil {
			return Blob{}, ErrBadEncoding
		}
	}
	if len(data) == 0 {
		return Blob{}, ErrBadEncoding
	}
	return Blob{MimeType: mime, Data: data}, nil
}
