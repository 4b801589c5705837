package domain

import (
	"fmt"
	"strings"
)

// CourseDescriptor is the catalog record pulled from the LearningBox API.
// It is transient: nothing of it is persisted beyond what flows into the
// mapping store and into the Rise Up entities built from it.
type CourseDescriptor struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"`
	Description      string `json:"description"`
	ShortDescription string `json:"short_description"`
	// Duration in minutes, passed through to Rise Up as-is.
	Duration  int    `json:"duration"`
	Code      string `json:"code"`
	ImageURL  string `json:"image"`
	BannerURL string `json:"banner"`
	Tags      []Tag  `json:"tags"`
}

// Tag is a catalog label attached to a LearningBox course.
type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// DisplayTitle falls back to a synthetic title when the catalog entry has none.
func (c CourseDescriptor) DisplayTitle() string {
	if strings.TrimSpace(c.Name) != "" {
		return c.Name
	}
	return fmt.Sprintf("LearningBox Course %d", c.ID)
}

// Reference falls back to LB_<id> when the catalog entry carries no code.
func (c CourseDescriptor) Reference() string {
	if strings.TrimSpace(c.Code) != "" {
		return c.Code
	}
	return fmt.Sprintf("LB_%d", c.ID)
}

// Keywords extracts the non-empty tag names, in catalog order.
// Returns an empty (non-nil) slice when there are none.
func (c CourseDescriptor) Keywords() []string {
	out := make([]string, 0, len(c.Tags))
	for _, t := range c.Tags {
		if strings.TrimSpace(t.Name) != "" {
			out = append(out, t.Name)
		}
	}
	return out
}
