// Package archive keeps best-effort copies of the SCORM packages delivered
// through the webhook, for replay and audit. Archival never blocks or fails
// the delivery that produced the package.
package archive

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// Sink stores one named blob somewhere durable.
type Sink interface {
	Store(ctx context.Context, name string, content []byte) error
	Name() string
}

// Archiver fans a package out to every configured sink. Failures are logged
// and swallowed.
type Archiver struct {
	sinks []Sink
	log   zerolog.Logger
}

func New(log zerolog.Logger, sinks ...Sink) *Archiver {
	return &Archiver{sinks: sinks, log: log}
}

// Keep writes content to every sink, best-effort.
func (a *Archiver) Keep(ctx context.Context, name string, content []byte) {
	for _, s := range a.sinks {
		if err := s.Store(ctx, name, content); err != nil {
			a.log.Warn().Err(err).Str("sink", s.Name()).Str("file", name).
				Msg("could not archive SCORM package")
			continue
		}
		a.log.Info().Str("sink", s.Name()).Str("file", name).Int("bytes", len(content)).
			Msg("archived SCORM package")
	}
}

// DirSink writes packages into a local directory.
type DirSink struct {
	Dir string
}

func (d DirSink) Name() string { return "dir:" + d.Dir }

func (d DirSink) Store(_ context.Context, name string, content []byte) error {
	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(d.Dir, name), content, 0o644)
}
