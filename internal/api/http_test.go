package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"project-planner/internal/api"
	"project-planner/internal/repository"
	"project-planner/internal/service"
	"project-planner/internal/store"
	plannertest "project-planner/internal/testutil"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	svc, db := newService(t)
	plannertest.Seed(t, repository.NewGraph(db))
	srv := httptest.NewServer(api.NewHandler(svc, plannertest.QuietLogger()))
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPClientRoundTrip(t *testing.T) {
	ctx := context.Background()
	srv := newServer(t)
	client := api.NewHTTPClient(srv.URL+"/", srv.Client())

	list, err := client.ListProjects(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].ID != "1" || list[0].Name != "Project" {
		t.Fatalf("list = %+v", list)
	}

	project, err := client.GetProject(ctx, "1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(project.Categories) != 2 || len(project.Tasks) != 1 || project.Tasks[0].Category.ID != "1" {
		t.Fatalf("project = %+v", project)
	}

	res, err := client.ReassignTask(ctx, "1", "2")
	if err != nil {
		t.Fatalf("reassign: %v", err)
	}
	if res.Category.ID != "2" {
		t.Errorf("result = %+v", res)
	}
}

func TestHTTPClientCreateAndStore(t *testing.T) {
	ctx := context.Background()
	srv := newServer(t)
	client := api.NewHTTPClient(srv.URL, srv.Client())

	project, err := client.CreateProject(ctx, "  Remote  ")
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	if project.ID != "2" || project.Name != "Remote" {
		t.Fatalf("project = %+v", project)
	}
	todo, err := client.CreateCategory(ctx, project.ID, "Todo")
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	done, err := client.CreateCategory(ctx, project.ID, "Done")
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	task, err := client.CreateTask(ctx, project.ID, todo.ID, "Write docs")
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	if task.Category.ID != todo.ID {
		t.Fatalf("task = %+v", task)
	}
	if _, err := client.CreateTask(ctx, project.ID, "1", "Elsewhere"); !service.IsValidation(err) {
		t.Errorf("task in foreign category: %v", err)
	}
	if _, err := client.CreateCategory(ctx, "99", "Lost"); !service.IsNotFound(err) {
		t.Errorf("category in missing project: %v", err)
	}

	s := store.New(client, store.WithLogger(plannertest.QuietLogger()))
	if err := s.LoadProject(ctx, project.ID); err != nil {
		t.Fatalf("load project: %v", err)
	}
	if err := s.ReassignTask(ctx, task.ID, done.ID); err != nil {
		t.Fatalf("reassign: %v", err)
	}
	if got := s.State().Current.Tasks[task.ID].CategoryID; got != done.ID {
		t.Errorf("cached category = %q, want %q", got, done.ID)
	}
}

func TestHTTPClientErrors(t *testing.T) {
	ctx := context.Background()
	srv := newServer(t)
	client := api.NewHTTPClient(srv.URL, nil)

	_, err := client.GetProject(ctx, "9")
	if !service.IsNotFound(err) || err.Error() != "no entity for id 9" {
		t.Errorf("missing project: %v", err)
	}

	other, err := http.Post(srv.URL+"/projects", "application/json", strings.NewReader(`{"name":"Other"}`))
	if err != nil {
		t.Fatalf("create project: %v", err)
	}
	other.Body.Close()
	cat, err := http.Post(srv.URL+"/projects/2/categories", "application/json", strings.NewReader(`{"name":"Foreign"}`))
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	var created api.Category
	json.NewDecoder(cat.Body).Decode(&created)
	cat.Body.Close()
	if cat.StatusCode != http.StatusCreated || created.ID != "3" {
		t.Fatalf("create category: status %d body %+v", cat.StatusCode, created)
	}

	if _, err := client.ReassignTask(ctx, "1", created.ID); !service.IsValidation(err) {
		t.Errorf("cross-project move: %v", err)
	}

	srv.Close()
	if _, err := client.ListProjects(ctx); err == nil || service.IsNotFound(err) || service.IsValidation(err) {
		t.Errorf("closed server: %v", err)
	}
}

func TestHandlerInclude(t *testing.T) {
	srv := newServer(t)

	resp, err := http.Get(srv.URL + "/projects/1?include=categories")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	var body map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := body["categories"]; !ok {
		t.Error("categories missing")
	}
	if _, ok := body["tasks"]; ok {
		t.Error("tasks returned without being requested")
	}

	bad, err := http.Get(srv.URL + "/projects/1?include=owner")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	bad.Body.Close()
	if bad.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("unknown relation status = %d", bad.StatusCode)
	}
}

func TestHandlerListInclude(t *testing.T) {
	srv := newServer(t)

	resp, err := http.Get(srv.URL + "/projects?include=categories")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var body []map[string]json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body) != 1 {
		t.Fatalf("projects = %d, want 1", len(body))
	}
	want := `[{"id":"1","name":"Category 1"},{"id":"2","name":"Category 2"}]`
	if got := string(body[0]["categories"]); got != want {
		t.Errorf("categories = %s, want %s", got, want)
	}
	if _, ok := body[0]["tasks"]; ok {
		t.Error("tasks returned without being requested")
	}
}

func TestHandlerBadBody(t *testing.T) {
	srv := newServer(t)

	resp, err := http.Post(srv.URL+"/tasks/1/category", "application/json", strings.NewReader("{"))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}
