// Package api is the string-id surface between the client cache and the
// resolver. Ids are decimal strings on this side of the boundary.
package api

type ProjectSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type CategoryRef struct {
	ID string `json:"id"`
}

type Task struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Category CategoryRef `json:"category"`
}

// Project is the full shape: categories and tasks with their category id.
type Project struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Categories []Category `json:"categories"`
	Tasks      []Task     `json:"tasks"`
}

// ReassignTaskResult carries only the category the server committed.
type ReassignTaskResult struct {
	Category CategoryRef `json:"category"`
}

type reassignRequest struct {
	CategoryID string `json:"categoryId"`
}

type createRequest struct {
	Name       string `json:"name"`
	ProjectID  string `json:"projectId,omitempty"`
	CategoryID string `json:"categoryId,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
	ID    string `json:"id,omitempty"`
}
