package repository

import "context"

// Example holds the ids created by SeedExample.
type Example struct {
	ProjectID   uint
	CategoryIDs []uint
	TaskID      uint
}

// SeedExample creates "Project" with categories "Category 1" and
// "Category 2" and "Task A" assigned to "Category 1". On an empty
// database every id is 1, except the second category which is 2.
func SeedExample(ctx context.Context, g *Graph) (Example, error) {
	project, err := g.CreateProject(ctx, "Project")
	if err != nil {
		return Example{}, err
	}
	ex := Example{ProjectID: project.ID}
	for _, name := range []string{"Category 1", "Category 2"} {
		category, err := g.CreateCategory(ctx, name, project.ID)
		if err != nil {
			return Example{}, err
		}
		ex.CategoryIDs = append(ex.CategoryIDs, category.ID)
	}
	task, err := g.CreateTask(ctx, "Task A", project.ID, ex.CategoryIDs[0])
	if err != nil {
		return Example{}, err
	}
	ex.TaskID = task.ID
	return ex, nil
}
