package capability

import (
	"context"
	"errors"
	"strings"

	contractx "github.com/johnfletcher78/antigravity-agent/agent/contract"
)

// ProjectsProvider exposes project bookkeeping as tools. It needs no
// credentials and is always present. The model addresses projects by name;
// handlers resolve names to record ids.
type ProjectsProvider struct {
	store contractx.ProjectStore
}

var _ contractx.Provider = (*ProjectsProvider)(nil)

func NewProjectsProvider(store contractx.ProjectStore) (*ProjectsProvider, error) {
	if store == nil {
		return nil, errors.New("projects provider: store is required")
	}
	return &ProjectsProvider{store: store}, nil
}

func (p *ProjectsProvider) Name() string { return "projects" }

func (p *ProjectsProvider) Operations() []contractx.Operation {
	return []contractx.Operation{
		{
			Descriptor: contractx.ToolDescriptor{
				Name:        "create_project",
				Description: "Create a new marketing project to track a client or website.",
				Params: []contractx.ToolParam{
					{Name: "name", Type: contractx.ParamString, Description: "Project name", Required: true},
					{Name: "domain", Type: contractx.ParamString, Description: "Primary domain or website"},
					{Name: "description", Type: contractx.ParamString, Description: "What this project is about"},
					{Name: "industry", Type: contractx.ParamString, Description: "Industry or sector"},
					{Name: "primary_objective", Type: contractx.ParamString, Description: "Main goal all recommendations should align with"},
				},
			},
			Handler: p.createProject,
		},
		{
			Descriptor: contractx.ToolDescriptor{
				Name:        "get_project",
				Description: "Look up a project by name and return its details.",
				Params: []contractx.ToolParam{
					{Name: "name", Type: contractx.ParamString, Description: "Project name (case-insensitive partial match)", Required: true},
				},
			},
			Handler: p.getProject,
		},
		{
			Descriptor: contractx.ToolDescriptor{
				Name:        "list_projects",
				Description: "List all known projects with their domains.",
			},
			Handler: p.listProjects,
		},
		{
			Descriptor: contractx.ToolDescriptor{
				Name:        "update_project",
				Description: "Update fields of an existing project. Only the supplied fields change.",
				Params: []contractx.ToolParam{
					{Name: "name", Type: contractx.ParamString, Description: "Name of the project to update", Required: true},
					{Name: "domain", Type: contractx.ParamString, Description: "New domain"},
					{Name: "description", Type: contractx.ParamString, Description: "New description"},
					{Name: "industry", Type: contractx.ParamString, Description: "New industry"},
					{Name: "primary_objective", Type: contractx.ParamString, Description: "New primary objective"},
					{Name: "note", Type: contractx.ParamString, Description: "Free-form note appended to the project metadata"},
				},
			},
			Handler: p.updateProject,
		},
		{
			Descriptor: contractx.ToolDescriptor{
				Name:        "delete_project",
				Description: "Delete a project by name.",
				Params: []contractx.ToolParam{
					{Name: "name", Type: contractx.ParamString, Description: "Name of the project to delete", Required: true},
				},
			},
			Handler: p.deleteProject,
		},
	}
}

func (p *ProjectsProvider) createProject(ctx context.Context, args map[string]any) (contractx.ToolResult, error) {
	name, err := requireString(args, "name")
	if err != nil {
		return failure(err.Error()), nil
	}

	rec, err := p.store.Create(ctx, &contractx.ProjectRecord{
		Name:             name,
		Domain:           stringArg(args, "domain", ""),
		Description:      stringArg(args, "description", ""),
		Industry:         stringArg(args, "industry", ""),
		PrimaryObjective: stringArg(args, "primary_objective", ""),
	})
	if err != nil {
		return failuref("create project: %v", err), nil
	}

	return contractx.ToolResult{
		"success": true,
		"id":      rec.ID,
		"name":    rec.Name,
		"domain":  rec.Domain,
	}, nil
}

func (p *ProjectsProvider) getProject(ctx context.Context, args map[string]any) (contractx.ToolResult, error) {
	name, err := requireString(args, "name")
	if err != nil {
		return failure(err.Error()), nil
	}

	rec, err := p.store.Get(ctx, "", name)
	if err != nil {
		if errors.Is(err, contractx.ErrNotFound) {
			return failuref("no project found matching %q", name), nil
		}
		return failuref("get project: %v", err), nil
	}

	return contractx.ToolResult{
		"success":           true,
		"id":                rec.ID,
		"name":              rec.Name,
		"domain":            rec.Domain,
		"description":       rec.Description,
		"industry":          rec.Industry,
		"primary_objective": rec.PrimaryObjective,
		"metadata":          rec.Metadata,
	}, nil
}

func (p *ProjectsProvider) listProjects(ctx context.Context, args map[string]any) (contractx.ToolResult, error) {
	records, err := p.store.List(ctx)
	if err != nil {
		return failuref("list projects: %v", err), nil
	}

	projects := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		projects = append(projects, map[string]any{
			"name":   rec.Name,
			"domain": rec.Domain,
		})
	}
	return contractx.ToolResult{"success": true, "projects": projects, "count": len(projects)}, nil
}

func (p *ProjectsProvider) updateProject(ctx context.Context, args map[string]any) (contractx.ToolResult, error) {
	name, err := requireString(args, "name")
	if err != nil {
		return failure(err.Error()), nil
	}

	rec, err := p.store.Get(ctx, "", name)
	if err != nil {
		if errors.Is(err, contractx.ErrNotFound) {
			return failuref("no project found matching %q", name), nil
		}
		return failuref("update project: %v", err), nil
	}

	updates := make(map[string]any)
	for _, field := range []string{"domain", "description", "industry", "primary_objective"} {
		if v, ok := args[field].(string); ok && strings.TrimSpace(v) != "" {
			updates[field] = v
		}
	}
	if note, ok := args["note"].(string); ok && strings.TrimSpace(note) != "" {
		notes, _ := rec.Metadata["notes"].([]any)
		updates["metadata"] = map[string]any{"notes": append(notes, note)}
	}
	if len(updates) == 0 {
		return failure("nothing to update"), nil
	}

	updated, err := p.store.Update(ctx, rec.ID, updates)
	if err != nil {
		return failuref("update project: %v", err), nil
	}
	return contractx.ToolResult{"success": true, "id": updated.ID, "name": updated.Name}, nil
}

func (p *ProjectsProvider) deleteProject(ctx context.Context, args map[string]any) (contractx.ToolResult, error) {
	name, err := requireString(args, "name")
	if err != nil {
		return failure(err.Error()), nil
	}

	rec, err := p.store.Get(ctx, "", name)
	if err != nil {
		if errors.Is(err, contractx.ErrNotFound) {
			return failuref("no project found matching %q", name), nil
		}
		return failuref("delete project: %v", err), nil
	}

	if err := p.store.Delete(ctx, rec.ID); err != nil {
		return failuref("delete project: %v", err), nil
	}
	return contractx.ToolResult{"success": true, "name": rec.Name}, nil
}
