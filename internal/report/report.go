// Package report renders run output: the raw-results Excel workbook and the
// brief/detailed summary documents, including the degraded-mode banner when a
// run did not complete cleanly.
package report

import (
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// Clock supplies timestamps for artifact names.
type Clock interface {
	Now() time.Time
}

// Generator writes report artifacts into one output directory.
type Generator struct {
	dir   string
	clock Clock
	log   *zap.Logger
}

// NewGenerator builds a Generator rooted at dir.
func NewGenerator(dir string, clock Clock, log *zap.Logger) *Generator {
	return &Generator{dir: dir, clock: clock, log: log}
}

func (g *Generator) stamp() string {
	return g.clock.Now().Format("20060102_150405")
}

func (g *Generator) writeFile(name string, data []byte) (string, error) {
	if err := os.MkdirAll(g.dir, 0o750); err != nil {
		return "", err
	}
	path := filepath.Join(g.dir, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", err
	}
	g.log.Info("wrote report artifact", zap.String("path", path))
	return path, nil
}
