package ui

import "tso/internal/domain"

// Viewer displays the failures of a run
type Viewer interface {
	View(j *domain.Journal) error
}
