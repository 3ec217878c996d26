package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"project-planner/internal/metrics"
	"project-planner/internal/model"
	"project-planner/internal/repository"
)

// ProjectSummary is a project without relations.
type ProjectSummary struct {
	ID   uint
	Name string
}

type CategoryView struct {
	ID        uint
	Name      string
	ProjectID uint
}

// TaskView carries its category only when tasks.category was selected.
type TaskView struct {
	ID         uint
	Name       string
	ProjectID  uint
	CategoryID uint
	Category   *CategoryView
}

// ProjectView is a project shaped by a Selection: Categories and Tasks are
// nil when not selected and non-nil, possibly empty, when selected.
type ProjectView struct {
	ID         uint
	Name       string
	Categories []CategoryView
	Tasks      []TaskView
}

// Reassignment is the minimal result of a task move.
type Reassignment struct {
	TaskID     uint
	CategoryID uint
}

// CreateProjectInput represents data required to create a project.
type CreateProjectInput struct {
	Name string `validate:"notblank,max=200"`
}

type CreateCategoryInput struct {
	Name      string `validate:"notblank,max=200"`
	ProjectID uint   `validate:"required"`
}

type CreateTaskInput struct {
	Name       string `validate:"notblank,max=200"`
	ProjectID  uint   `validate:"required"`
	CategoryID uint   `validate:"required"`
}

// Resolver answers shaped reads and writes against the graph.
type Resolver struct {
	graph    *repository.Graph
	log      logrus.FieldLogger
	metrics  *metrics.Metrics
	validate *validator.Validate
}

type ResolverOption func(*Resolver)

func WithLogger(log logrus.FieldLogger) ResolverOption {
	return func(r *Resolver) { r.log = log }
}

func WithMetrics(m *metrics.Metrics) ResolverOption {
	return func(r *Resolver) { r.metrics = m }
}

func NewResolver(graph *repository.Graph, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		graph:    graph,
		log:      logrus.StandardLogger(),
		validate: newValidator(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Resolver) ResolveProjectList(ctx context.Context) (list []ProjectSummary, err error) {
	defer func() { r.observe("list_projects", err, nil) }()

	projects, err := r.graph.ListProjects(ctx)
	if err != nil {
		return nil, err
	}
	list = make([]ProjectSummary, 0, len(projects))
	for _, p := range projects {
		list = append(list, ProjectSummary{ID: p.ID, Name: p.Name})
	}
	return list, nil
}

// ResolveProjects lists every project shaped by sel. Each selected
// relation costs one query for the whole list.
func (r *Resolver) ResolveProjects(ctx context.Context, sel Selection) (views []ProjectView, err error) {
	defer func() { r.observe("resolve_projects", err, logrus.Fields{"selection": sel.String()}) }()

	projects, err := r.graph.ListProjectsWith(ctx, sel.relations())
	if err != nil {
		return nil, err
	}
	views = make([]ProjectView, 0, len(projects))
	for i := range projects {
		views = append(views, *projectView(&projects[i], sel))
	}
	return views, nil
}

// ResolveProject loads the project and exactly the relations in sel.
func (r *Resolver) ResolveProject(ctx context.Context, id uint, sel Selection) (view *ProjectView, err error) {
	defer func() {
		r.observe("resolve_project", err, logrus.Fields{"project_id": id, "selection": sel.String()})
	}()

	project, err := r.graph.Load(ctx, id, sel.relations())
	if err != nil {
		return nil, translate(err)
	}
	return projectView(project, sel), nil
}

// ResolveTaskReassignment moves a task and reports only the category the
// graph committed.
func (r *Resolver) ResolveTaskReassignment(ctx context.Context, taskID, categoryID uint) (res *Reassignment, err error) {
	defer func() {
		r.observe("reassign_task", err, logrus.Fields{"task_id": taskID, "category_id": categoryID})
	}()

	task, err := r.graph.ReassignTaskCategory(ctx, taskID, categoryID)
	if err != nil {
		return nil, translate(err)
	}
	return &Reassignment{TaskID: task.ID, CategoryID: task.CategoryID}, nil
}

func (r *Resolver) CreateProject(ctx context.Context, input CreateProjectInput) (sum *ProjectSummary, err error) {
	defer func() { r.observe("create_project", err, nil) }()

	input.Name = strings.TrimSpace(input.Name)
	if err := r.check(input); err != nil {
		return nil, err
	}
	project, err := r.graph.CreateProject(ctx, input.Name)
	if err != nil {
		return nil, translate(err)
	}
	return &ProjectSummary{ID: project.ID, Name: project.Name}, nil
}

func (r *Resolver) CreateCategory(ctx context.Context, input CreateCategoryInput) (view *CategoryView, err error) {
	defer func() { r.observe("create_category", err, logrus.Fields{"project_id": input.ProjectID}) }()

	input.Name = strings.TrimSpace(input.Name)
	if err := r.check(input); err != nil {
		return nil, err
	}
	category, err := r.graph.CreateCategory(ctx, input.Name, input.ProjectID)
	if err != nil {
		return nil, translate(err)
	}
	v := categoryView(*category)
	return &v, nil
}

func (r *Resolver) CreateTask(ctx context.Context, input CreateTaskInput) (view *TaskView, err error) {
	defer func() {
		r.observe("create_task", err, logrus.Fields{"project_id": input.ProjectID, "category_id": input.CategoryID})
	}()

	input.Name = strings.TrimSpace(input.Name)
	if err := r.check(input); err != nil {
		return nil, err
	}
	task, err := r.graph.CreateTask(ctx, input.Name, input.ProjectID, input.CategoryID)
	if err != nil {
		return nil, translate(err)
	}
	return &TaskView{ID: task.ID, Name: task.Name, ProjectID: task.ProjectID, CategoryID: task.CategoryID}, nil
}

func (r *Resolver) check(input interface{}) error {
	if err := r.validate.Struct(input); err != nil {
		return validationError(err)
	}
	return nil
}

func (r *Resolver) observe(op string, err error, fields logrus.Fields) {
	outcome := "ok"
	switch {
	case err == nil:
	case IsNotFound(err):
		outcome = "not_found"
	case IsValidation(err):
		outcome = "validation"
	default:
		outcome = "error"
	}
	if r.metrics != nil {
		r.metrics.ResolverOps.WithLabelValues(op, outcome).Inc()
	}

	entry := r.log.WithField("operation", op).WithField("outcome", outcome)
	if fields != nil {
		entry = entry.WithFields(fields)
	}
	if outcome == "error" {
		entry.WithError(err).Error("resolver operation failed")
		return
	}
	entry.Debug("resolver operation")
}

func projectView(p *model.Project, sel Selection) *ProjectView {
	view := &ProjectView{ID: p.ID, Name: p.Name}
	if sel.Has(RelCategories) {
		view.Categories = make([]CategoryView, 0, len(p.Categories))
		for _, c := range p.Categories {
			view.Categories = append(view.Categories, categoryView(c))
		}
	}
	if sel.Has(RelTasks) {
		view.Tasks = make([]TaskView, 0, len(p.Tasks))
		for _, t := range p.Tasks {
			tv := TaskView{ID: t.ID, Name: t.Name, ProjectID: t.ProjectID, CategoryID: t.CategoryID}
			if sel.Has(RelTaskCategory) && t.Category != nil {
				cv := categoryView(*t.Category)
				tv.Category = &cv
			}
			view.Tasks = append(view.Tasks, tv)
		}
	}
	return view
}

func categoryView(c model.Category) CategoryView {
	return CategoryView{ID: c.ID, Name: c.Name, ProjectID: c.ProjectID}
}

// FormatID renders an internal id the way it travels on the wire.
func FormatID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

// ParseID parses a wire id; anything that is not a positive integer cannot
// name an entity and yields a NotFoundError.
func ParseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 0)
	if err != nil || id == 0 {
		return 0, &NotFoundError{ID: raw}
	}
	return uint(id), nil
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

func validationError(err error) error {
	errs, ok := err.(validator.ValidationErrors)
	if !ok || len(errs) == 0 {
		return &ValidationError{Message: err.Error()}
	}
	parts := make([]string, 0, len(errs))
	for _, fe := range errs {
		switch fe.Tag() {
		case "notblank", "required":
			parts = append(parts, fmt.Sprintf("%s is required", strings.ToLower(fe.Field())))
		case "max":
			parts = append(parts, fmt.Sprintf("%s must be at most %s characters", strings.ToLower(fe.Field()), fe.Param()))
		default:
			parts = append(parts, fmt.Sprintf("%s is invalid", strings.ToLower(fe.Field())))
		}
	}
	return &ValidationError{Message: strings.Join(parts, "; ")}
}
