package media

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var ErrEmptyFile = errors.New("empty file")

// Store сохраняет загруженные документы в каталог на диске.
type Store struct {
	dir string
}

func NewStore(dir string) *Store {
	return &Store{dir: dir}
}

// Save пишет содержимое в <dir>/<folder>/<uuid><ext> и возвращает путь относительно dir
func (s *Store) Save(folder, filename string, r io.Reader) (string, error) {
	const op = "media.Save"

	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	rel := path.Join(folder, uuid.NewString()+ext)
	full := filepath.Join(s.dir, filepath.FromSlash(rel))

	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	n, err := io.Copy(f, r)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err == nil && n == 0 {
		err = ErrEmptyFile
	}
	if err != nil {
		_ = os.Remove(full)
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return rel, nil
}

// Open открывает ранее сохранённый файл
func (s *Store) Open(rel string) (*os.File, error) {
	clean := path.Clean("/" + rel)
	return os.Open(filepath.Join(s.dir, filepath.FromSlash(clean)))
}
