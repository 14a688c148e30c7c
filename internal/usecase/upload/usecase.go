package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"approv-backend/internal/domain/approval"
	"approv-backend/internal/infrastructure/storage"
	"approv-backend/pkg/id"

	"github.com/gabriel-vasile/mimetype"
	"github.com/sirupsen/logrus"
)

var (
	ErrTooLarge    = fmt.Errorf("%w: file too large", approval.ErrValidation)
	ErrUnsupported = fmt.Errorf("%w: only PDF and image files are accepted", approval.ErrValidation)
	ErrEmpty       = fmt.Errorf("%w: file is empty", approval.ErrValidation)
	ErrNotFound    = errors.New("file not found")
)

// Storage is where deliverable bytes live.
type Storage interface {
	Save(ctx context.Context, key string, data []byte) error
	Open(ctx context.Context, key string) (io.ReadSeekCloser, error)
}

type Usecase struct {
	store    Storage
	maxBytes int64
	log      logrus.FieldLogger
}

func NewUsecase(store Storage, maxBytes int64, log logrus.FieldLogger) *Usecase {
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		log = l
	}
	return &Usecase{store: store, maxBytes: maxBytes, log: log}
}

// File is an opened stored deliverable.
type File struct {
	io.ReadSeekCloser
	ContentType string
}

// Upload sniffs the content, stores it under a fresh key and returns a
// deliverable reference that can be attached to an approval.
func (u *Usecase) Upload(ctx context.Context, name string, r io.Reader) (*approval.Deliverable, error) {
	data, err := io.ReadAll(io.LimitReader(r, u.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > u.maxBytes {
		return nil, ErrTooLarge
	}
	if len(data) == 0 {
		return nil, ErrEmpty
	}

	mt := mimetype.Detect(data)
	kind, ok := kindOf(mt)
	if !ok {
		u.log.WithField("mime", mt.String()).Info("upload rejected")
		return nil, ErrUnsupported
	}

	key := id.NewID32() + mt.Extension()
	if err := u.store.Save(ctx, key, data); err != nil {
		return nil, fmt.Errorf("store upload: %w", err)
	}
	u.log.WithFields(logrus.Fields{"key": key, "mime": mt.String(), "size": len(data)}).Info("deliverable uploaded")

	return &approval.Deliverable{
		Kind:       kind,
		Name:       cleanName(name, mt.Extension()),
		StorageKey: key,
		URL:        "/files/" + key,
	}, nil
}

func (u *Usecase) Open(ctx context.Context, key string) (*File, error) {
	f, err := u.store.Open(ctx, key)
	if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrInvalidKey) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", key, err)
	}
	head := make([]byte, 3072)
	n, _ := io.ReadFull(f, head)
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		f.Close()
		return nil, fmt.Errorf("rewind %s: %w", key, err)
	}
	return &File{ReadSeekCloser: f, ContentType: mimetype.Detect(bytes.Clone(head[:n])).String()}, nil
}

func kindOf(mt *mimetype.MIME) (approval.DeliverableKind, bool) {
	switch {
	case mt.Is("application/pdf"):
		return approval.DeliverablePDF, true
	case mt.Is("image/png"), mt.Is("image/jpeg"), mt.Is("image/gif"), mt.Is("image/webp"):
		return approval.DeliverableImage, true
	default:
		return "", false
	}
}

const maxNameBytes = 255

// cleanName keeps the client-facing file name readable and free of paths.
func cleanName(name, ext string) string {
	name = strings.ToValidUTF8(name, "")
	name = strings.TrimSpace(filepath.Base(strings.ReplaceAll(name, "\\", "/")))
	if name == "" || name == "." || name == "/" {
		return "deliverable" + ext
	}
	if len(name) > maxNameBytes {
		cut := maxNameBytes
		for cut > 0 && !utf8.RuneStart(name[cut]) {
			cut--
		}
		name = name[:cut]
	}
	return name
}
