package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/khayai/repairbot/internal/domain"
	"github.com/khayai/repairbot/internal/repo"
	"github.com/khayai/repairbot/internal/storage"
)

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// SignatureService stores executive signature images.
type SignatureService struct {
	DB         *gorm.DB
	Objects    storage.ObjectStore // nil keeps the image in the row
	PresignTTL time.Duration
	Now        func() time.Time
}

// SignatureFile is a fetched signature: either a link or inline data.
type SignatureFile struct {
	domain.Signature
	URL     string `json:"url,omitempty"`
	DataURL string `json:"dataUrl,omitempty"`
}

func (s *SignatureService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Upload decodes a data URL and stores it as
// "{prefix}_{username}_{unixms}.png".
func (s *SignatureService) Upload(ctx context.Context, dataURL, prefix, username string) (*domain.Signature, error) {
	blob, err := storage.DecodeDataURL(dataURL, "image/png")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if prefix = unsafeName.ReplaceAllString(strings.TrimSpace(prefix), ""); prefix == "" {
		prefix = "signature"
	}
	now := s.now()
	sig := &domain.Signature{
		FileName:   fmt.Sprintf("%s_%s_%d.png", prefix, unsafeName.ReplaceAllString(username, ""), now.UnixMilli()),
		MimeType:   blob.MimeType,
		UploadedBy: username,
		UploadedAt: now,
		FileSize:   int64(len(blob.Data)),
	}
	if s.Objects != nil {
		key := "signatures/" + sig.FileName
		if err := s.Objects.Put(ctx, key, bytes.NewReader(blob.Data), sig.FileSize, blob.MimeType); err != nil {
			return nil, err
		}
		sig.ObjectKey = key
	} else {
		sig.Base64Data = dataURL
	}
	if err := repo.SaveSignature(ctx, s.DB, sig); err != nil {
		return nil, err
	}
	log.Info().Str("file", sig.FileName).Str("username", username).Msg("signature uploaded")
	return sig, nil
}

// Get returns a signature by file name, with a presigned link when it lives
// in the object store.
func (s *SignatureService) Get(ctx context.Context, fileName string) (*SignatureFile, error) {
	sig, err := repo.GetSignature(ctx, s.DB, strings.TrimSpace(fileName))
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrSignatureNotFound
	}
	if err != nil {
		return nil, err
	}
	out := &SignatureFile{Signature: *sig}
	if sig.ObjectKey != "" && s.Objects != nil {
		ttl := s.PresignTTL
		if ttl <= 0 {
			ttl = time.Hour
		}
		u, err := s.Objects.PresignGet(ctx, sig.ObjectKey, ttl)
		if err != nil {
			return nil, err
		}
		out.URL = u
	} else {
		out.DataURL = sig.Base64Data
	}
	if err := repo.IncrementSignatureUsage(ctx, s.DB, sig.FileName); err != nil {
		log.Warn().Err(err).Str("file", sig.FileName).Msg("bump signature usage failed")
	}
	return out, nil
}
