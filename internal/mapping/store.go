// Package mapping persists the correspondence between LearningBox course ids
// and Rise Up step ids. The backing file is the sole durable link between the
// batch sync and the webhook listener.
package mapping

import (
	"encoding/json"
	"errors"
	"io/fs"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/rs/zerolog"
)

// Store is a whole-file JSON key/value store: decimal-string course ids to
// step ids, indent-formatted, rewritten in full on every write.
//
// A single Store handle serializes its own read-modify-write cycles with an
// internal mutex (the webhook server shares one handle across concurrent
// deliveries). Separate processes writing the same file are not coordinated;
// the last writer wins. Acceptable at this system's volume.
type Store struct {
	fs   billy.Filesystem
	path string
	log  zerolog.Logger
	mu   sync.Mutex
}

// New opens a store backed by the OS filesystem at path. The file is created
// lazily on first save; a missing file reads as an empty mapping.
func New(path string, log zerolog.Logger) *Store {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return NewWithFS(osfs.New(filepath.Dir(abs)), filepath.Base(abs), log)
}

// NewWithFS opens a store on an arbitrary filesystem (memfs in tests).
func NewWithFS(fsys billy.Filesystem, path string, log zerolog.Logger) *Store {
	return &Store{fs: fsys, path: path, log: log}
}

// Key normalizes a numeric course id to its store key form.
func Key(id int64) string {
	return strconv.FormatInt(id, 10)
}

// NormalizeKey normalizes a caller-supplied key (e.g. parsed from webhook
// form data) so numeric and string callers address the same entry.
func NormalizeKey(k string) string {
	return strings.TrimSpace(k)
}

// Load returns the full current mapping. An absent, unreadable, or malformed
// backing file degrades to an empty mapping with a logged warning; it never
// fails the caller.
func (s *Store) Load() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Store) load() map[string]string {
	data, err := util.ReadFile(s.fs, s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.log.Warn().Err(err).Str("path", s.path).
				Msg("could not read mapping file, starting with an empty mapping")
		}
		return map[string]string{}
	}

	var m map[string]string
	if err := json.Unmarshal(data, &m); err != nil {
		s.log.Warn().Err(err).Str("path", s.path).
			Msg("mapping file is corrupted, starting with an empty mapping")
		return map[string]string{}
	}
	if m == nil {
		return map[string]string{}
	}
	return m
}

// Save overwrites the backing file with the given mapping. Write failures are
// logged but not surfaced; callers cannot detect them from the return.
func (s *Store) Save(m map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.save(m)
}

func (s *Store) save(m map[string]string) {
	data, err := json.MarshalIndent(m, "", "    ")
	if err != nil {
		s.log.Error().Err(err).Str("path", s.path).Msg("could not serialize mapping")
		return
	}
	if err := util.WriteFile(s.fs, s.path, data, 0o644); err != nil {
		s.log.Error().Err(err).Str("path", s.path).Msg("could not write mapping file")
	}
}

// Upsert sets or overwrites the entry for sourceID. Load-set-save under the
// store's mutex; not atomic against other processes.
func (s *Store) Upsert(sourceID, stepID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.load()
	m[NormalizeKey(sourceID)] = stepID
	s.save(m)
	s.log.Info().Str("course", sourceID).Str("step", stepID).Msg("mapping updated")
}

// Get looks up the step id for sourceID.
func (s *Store) Get(sourceID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	v, ok := s.load()[NormalizeKey(sourceID)]
	return v, ok
}
