// Package filestore almacenamiento local de artefactos (XML, CDR, PDF).
package filestore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/facturaperu/gestion-api/internal/application/billing"
)

// Local guarda artefactos bajo un directorio base, particionados por
// extensión (xml/, cdr/, pdf/). Implementa billing.FileStore.
type Local struct {
	baseDir string
}

func NewLocal(baseDir string) *Local {
	return &Local{baseDir: baseDir}
}

func (l *Local) Save(_ context.Context, relPath string, data []byte) (string, error) {
	full := filepath.Join(l.baseDir, subdirFor(relPath), filepath.Base(relPath))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", fmt.Errorf("filestore: crear directorio: %w", err)
	}
	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", fmt.Errorf("filestore: escribir %s: %w", full, err)
	}
	return full, nil
}

func (l *Local) Read(_ context.Context, path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("filestore: leer %s: %w", path, err)
	}
	return data, nil
}

func subdirFor(relPath string) string {
	name := strings.ToLower(filepath.Base(relPath))
	switch {
	case strings.HasSuffix(name, ".pdf"):
		return "pdf"
	case strings.HasPrefix(name, "r-") && strings.HasSuffix(name, ".zip"):
		return "cdr"
	default:
		return "xml"
	}
}

var _ billing.FileStore = (*Local)(nil)
