package nodes

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	contractx "github.com/johnfletcher78/antigravity-agent/agent/contract"
)

// LoadProject resolves the active project by name when one is set; a name
// that matches nothing falls back to the known-projects summary rather than
// failing the turn.
func LoadProject(ctx context.Context, in *GraphState, projects contractx.ProjectStore) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	if projects == nil {
		return in, nil
	}

	if in.ProjectName != "" {
		rec, err := projects.Get(ctx, "", in.ProjectName)
		switch {
		case err == nil:
			in.ActiveProject = rec
			return in, nil
		case errors.Is(err, contractx.ErrNotFound):
			log.Warn().Str("project", in.ProjectName).Msg("active project not found, using project summary")
		default:
			return nil, err
		}
	}

	known, err := projects.List(ctx)
	if err != nil {
		return nil, err
	}
	in.Projects = known
	return in, nil
}
