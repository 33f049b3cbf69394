package batch

import (
	"fmt"
	"path"
	"strings"

	"github.com/seventv/slide-inverter/container"
	"github.com/seventv/slide-inverter/internal/archive"
	"github.com/seventv/slide-inverter/task"
	"go.uber.org/zap"
)

// Source is one user supplied input, either a presentation or a zip of them.
type Source struct {
	Name string
	Data []byte
}

func isDocumentName(name string) bool {
	return strings.EqualFold(path.Ext(name), task.DocumentExtension)
}

// ExpandSources turns sources into jobs. Zip archives contribute one job per
// presentation inside them; anything else is skipped with a warning.
func ExpandSources(sources []Source) ([]task.Job, []string) {
	jobs := []task.Job{}
	warnings := []string{}

	for _, src := range sources {
		ext := strings.ToLower(path.Ext(src.Name))

		switch {
		case ext == task.DocumentExtension:
			jobs = append(jobs, task.NewJob(path.Base(src.Name), src.Data))
		case ext == ".zip", ext == "" && container.IsArchive(src.Data):
			entries, err := archive.Expand(src.Data, isDocumentName)
			if err != nil {
				zap.S().Warnw("invalid zip file",
					"filename", src.Name,
					"error", err,
				)
				warnings = append(warnings, fmt.Sprintf("%s: %v", src.Name, err))
				continue
			}

			for _, e := range entries {
				jobs = append(jobs, task.NewJob(e.Name, e.Data))
			}
		case container.IsPresentation(src.Data):
			name := strings.TrimSuffix(path.Base(src.Name), path.Ext(src.Name)) + task.DocumentExtension
			jobs = append(jobs, task.NewJob(name, src.Data))
		default:
			warnings = append(warnings, fmt.Sprintf("%s: skipped, not a presentation or zip archive", src.Name))
		}
	}

	return jobs, warnings
}
