// Package sync drives the one-shot catalog synchronization: for every
// unmapped LearningBox course, build the Rise Up hierarchy, persist the
// course→step mapping, and request the asynchronous SCORM export that will
// later arrive on the webhook.
package sync

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"scorm-bridge/internal/domain"
	"scorm-bridge/internal/mapping"
	"scorm-bridge/internal/providers/riseup"
)

// Fixed target-side values for the 1:1:1 hierarchy built per source course.
const (
	courseLanguage = "fr-FR"
	courseType     = "internal"
	courseState    = "validated"
	moduleTitle    = "Module 1"
	moduleType     = "online"
	stepTitle      = "Contenu"
	stepType       = "scorm"
)

// Source lists the catalog and requests exports (LearningBox in production).
type Source interface {
	GetCatalog(ctx context.Context) ([]domain.CourseDescriptor, error)
	RequestExport(ctx context.Context, courseID int64, webhookURL string) error
}

// Target creates the Rise Up hierarchy and receives the auxiliary images.
type Target interface {
	CreateCourse(ctx context.Context, req riseup.CourseCreate) (*riseup.Entity, error)
	CreateModule(ctx context.Context, req riseup.ModuleCreate) (*riseup.Entity, error)
	CreateStep(ctx context.Context, req riseup.StepCreate) (*riseup.Entity, error)
	UploadCourseImage(ctx context.Context, courseID int64, content []byte, filename string) error
	UploadCourseBanner(ctx context.Context, courseID int64, content []byte, filename string) error
}

// Store is the slice of the mapping store the orchestrator needs.
type Store interface {
	Load() map[string]string
	Upsert(sourceID, stepID string)
}

// Tally counts descriptors processed in one run, one increment per descriptor.
type Tally struct {
	Success int
	Skipped int
	Failed  int
}

type Syncer struct {
	Source     Source
	Target     Target
	Store      Store
	WebhookURL string
	Log        zerolog.Logger

	// Downloader fetches course image/banner content. Defaults to a
	// 30-second-timeout HTTP client.
	Downloader *http.Client
}

// Run performs one sequential pass over the catalog and returns the tally.
// The skip check uses the mapping snapshot taken here, before the loop: a
// concurrent writer (another run, or the webhook process) is invisible to a
// batch already underway.
func (s *Syncer) Run(ctx context.Context) (Tally, error) {
	var t Tally

	catalog, err := s.Source.GetCatalog(ctx)
	if err != nil {
		return t, err
	}
	if len(catalog) == 0 {
		s.Log.Info().Msg("catalog is empty, nothing to sync")
		return t, nil
	}

	existing := s.Store.Load()
	s.Log.Info().Int("courses", len(catalog)).Int("mapped", len(existing)).Msg("starting sync run")

	for _, course := range catalog {
		if err := ctx.Err(); err != nil {
			return t, err
		}

		if course.ID == 0 {
			s.Log.Warn().Str("name", course.Name).Msg("skipping course with missing id")
			t.Failed++
			continue
		}

		key := mapping.Key(course.ID)
		if _, ok := existing[key]; ok {
			s.Log.Info().Int64("course", course.ID).Str("name", course.Name).Msg("already mapped, skipping")
			t.Skipped++
			continue
		}

		stepID, err := s.buildHierarchy(ctx, course)
		if err != nil {
			s.Log.Error().Err(err).Int64("course", course.ID).Msg("failed to create Rise Up structure")
			t.Failed++
			continue
		}
		if stepID == "" {
			// A creation call answered without an id; already logged.
			t.Failed++
			continue
		}

		// Persist before requesting the export: the webhook must be able to
		// resolve the mapping whenever the callback lands.
		s.Store.Upsert(key, stepID)

		if err := s.Source.RequestExport(ctx, course.ID, s.WebhookURL); err != nil {
			// Mapping stays: structure created, export uncertain. Needs a
			// manual re-request on the LearningBox side.
			s.Log.Error().Err(err).Int64("course", course.ID).
				Msg("export request failed, mapping kept; check LearningBox")
			t.Failed++
			continue
		}

		s.Log.Info().Int64("course", course.ID).Str("step", stepID).Msg("structure created and export requested")
		t.Success++
	}

	s.Log.Info().
		Int("success", t.Success).
		Int("skipped", t.Skipped).
		Int("failed", t.Failed).
		Msg("sync run complete")
	return t, nil
}

// buildHierarchy creates the course, module and step for one descriptor, in
// that order, and returns the step id in mapping-key form. An empty id with a
// nil error means a creation response carried no id and the remaining steps
// were abandoned for this course.
func (s *Syncer) buildHierarchy(ctx context.Context, course domain.CourseDescriptor) (string, error) {
	ref := course.Reference()

	created, err := s.Target.CreateCourse(ctx, riseup.CourseCreate{
		Title:       course.DisplayTitle(),
		Type:        courseType,
		Language:    courseLanguage,
		Description: course.Description,
		Objective:   course.ShortDescription,
		Reference:   ref,
		EduDuration: course.Duration,
		State:       courseState,
		Visible:     true,
		Keywords:    course.Keywords(),
	})
	if err != nil {
		return "", err
	}
	if created.ID == 0 {
		s.Log.Error().Int64("course", course.ID).Msg("Rise Up course response carried no id")
		return "", nil
	}
	courseID := created.ID
	s.Log.Info().Int64("course", course.ID).Int64("riseup_course", courseID).Msg("created Rise Up course")

	s.decorateCourse(ctx, courseID, course)

	mod, err := s.Target.CreateModule(ctx, riseup.ModuleCreate{
		IDTraining:  courseID,
		Title:       moduleTitle,
		Type:        moduleType,
		Reference:   ref + "_M1",
		Position:    1,
		EduDuration: course.Duration,
	})
	if err != nil {
		return "", err
	}
	if mod.ID == 0 {
		s.Log.Error().Int64("course", course.ID).Msg("Rise Up module response carried no id")
		return "", nil
	}

	step, err := s.Target.CreateStep(ctx, riseup.StepCreate{
		IDModule:  mod.ID,
		Title:     stepTitle,
		Type:      stepType,
		Reference: ref + "_M1_S1",
		Position:  1,
	})
	if err != nil {
		return "", err
	}
	if step.ID == 0 {
		s.Log.Error().Int64("course", course.ID).Msg("Rise Up step response carried no id")
		return "", nil
	}

	return mapping.Key(step.ID), nil
}

// decorateCourse uploads the cover and banner images when the descriptor
// carries URLs for them. Every failure here is logged and swallowed; the
// hierarchy build continues regardless.
func (s *Syncer) decorateCourse(ctx context.Context, riseupCourseID int64, course domain.CourseDescriptor) {
	dl := s.Downloader
	if dl == nil {
		dl = &http.Client{Timeout: 30 * time.Second}
	}

	if course.ImageURL != "" {
		if content, name, err := downloadContent(ctx, dl, course.ImageURL); err != nil {
			s.Log.Warn().Err(err).Str("url", course.ImageURL).Msg("could not download course image")
		} else if err := s.Target.UploadCourseImage(ctx, riseupCourseID, content, name); err != nil {
			s.Log.Warn().Err(err).Int64("riseup_course", riseupCourseID).Msg("could not upload course image")
		}
	}

	if course.BannerURL != "" {
		if content, name, err := downloadContent(ctx, dl, course.BannerURL); err != nil {
			s.Log.Warn().Err(err).Str("url", course.BannerURL).Msg("could not download course banner")
		} else if err := s.Target.UploadCourseBanner(ctx, riseupCourseID, content, name); err != nil {
			s.Log.Warn().Err(err).Int64("riseup_course", riseupCourseID).Msg("could not upload course banner")
		}
	}
}
