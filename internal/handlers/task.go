package handlers

import (
	"log/slog"
	"net/http"

	"taskhub/internal/auth"
	dom "taskhub/internal/domain"
	"taskhub/internal/dto"
	"taskhub/internal/service"

	"github.com/gin-gonic/gin"
)

type TaskHandler struct {
	svc *service.TaskService
	log *slog.Logger
}

func NewTaskHandler(svc *service.TaskService, log *slog.Logger) *TaskHandler {
	return &TaskHandler{svc: svc, log: log}
}

// Create godoc
// @Summary      Create a task
// @Description  The caller becomes the creator. "todo" is accepted in place of "title".
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      dto.CreateTaskRequest  true  "Task body"
// @Success      201   {object}  dto.TaskResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /tasks [post]
func (h *TaskHandler) Create(c *gin.Context) {
	var req dto.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	t, err := h.svc.Create(c.Request.Context(), auth.PrincipalFromContext(c), service.CreateTaskInput{
		Title:       req.Title,
		LegacyTitle: req.Todo,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		DueDate:     req.DueDate.Ptr(),
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, dto.NewTaskResponse(t))
}

// Mine godoc
// @Summary      List my tasks
// @Description  Tasks the caller created or is assigned to.
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        status    query     string  false  "Status filter"    Enums(To-Do, In-Progress, Completed)
// @Param        priority  query     string  false  "Priority filter"  Enums(Low, Medium, High)
// @Param        sort      query     string  false  "Due date order"   Enums(asc, desc)
// @Success      200  {object}  dto.ListTasksResponse
// @Failure      400  {object}  map[string]string
// @Router       /tasks [get]
func (h *TaskHandler) Mine(c *gin.Context) { h.list(c, dom.ViewMine) }

// Created godoc
// @Summary      List tasks I created
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        status    query     string  false  "Status filter"    Enums(To-Do, In-Progress, Completed)
// @Param        priority  query     string  false  "Priority filter"  Enums(Low, Medium, High)
// @Param        sort      query     string  false  "Due date order"   Enums(asc, desc)
// @Success      200  {object}  dto.ListTasksResponse
// @Failure      400  {object}  map[string]string
// @Router       /tasks/created [get]
func (h *TaskHandler) Created(c *gin.Context) { h.list(c, dom.ViewCreated) }

// Assigned godoc
// @Summary      List tasks assigned to me
// @Description  Excludes tasks the caller created.
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        status    query     string  false  "Status filter"    Enums(To-Do, In-Progress, Completed)
// @Param        priority  query     string  false  "Priority filter"  Enums(Low, Medium, High)
// @Param        sort      query     string  false  "Due date order"   Enums(asc, desc)
// @Success      200  {object}  dto.ListTasksResponse
// @Failure      400  {object}  map[string]string
// @Router       /tasks/assigned [get]
func (h *TaskHandler) Assigned(c *gin.Context) { h.list(c, dom.ViewAssigned) }

// Overdue godoc
// @Summary      List my overdue tasks
// @Description  Past due and not completed.
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        status    query     string  false  "Status filter"    Enums(To-Do, In-Progress, Completed)
// @Param        priority  query     string  false  "Priority filter"  Enums(Low, Medium, High)
// @Param        sort      query     string  false  "Due date order"   Enums(asc, desc)
// @Success      200  {object}  dto.ListTasksResponse
// @Failure      400  {object}  map[string]string
// @Router       /tasks/overdue [get]
func (h *TaskHandler) Overdue(c *gin.Context) { h.list(c, dom.ViewOverdue) }

func (h *TaskHandler) list(c *gin.Context, view dom.View) {
	var q dto.ListTasksQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}
	list, err := h.svc.List(c.Request.Context(), dom.TaskQuery{
		View:        view,
		PrincipalID: auth.PrincipalFromContext(c),
		Status:      dom.Status(q.Status),
		Priority:    dom.Priority(q.Priority),
		Descending:  q.Sort == "desc",
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.ListTasksResponse{Tasks: dto.NewTaskResponses(list)})
}

// Get godoc
// @Summary      Get a task by ID
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Task ID"
// @Success      200  {object}  dto.TaskResponse
// @Failure      404  {object}  map[string]string
// @Router       /tasks/{id} [get]
func (h *TaskHandler) Get(c *gin.Context) {
	t, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewTaskResponse(t))
}

// Update godoc
// @Summary      Update a task
// @Description  The creator may change any field. An assignee may change status only.
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                 true  "Task ID"
// @Param        body  body      dto.UpdateTaskRequest  true  "Partial update"
// @Success      200   {object}  dto.TaskResponse
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /tasks/{id} [patch]
func (h *TaskHandler) Update(c *gin.Context) {
	var req dto.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	t, err := h.svc.Update(c.Request.Context(), c.Param("id"), auth.PrincipalFromContext(c), req.Patch())
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewTaskResponse(t))
}

// Assign godoc
// @Summary      Assign a user to a task
// @Description  Creator only. Assigning an existing assignee succeeds with alreadyAssigned=true.
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                 true  "Task ID"
// @Param        body  body      dto.AssignTaskRequest  true  "Target user"
// @Success      200   {object}  dto.AssignTaskResponse
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /tasks/assign/{id} [patch]
func (h *TaskHandler) Assign(c *gin.Context) {
	var req dto.AssignTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	res, err := h.svc.Assign(c.Request.Context(), c.Param("id"), req.TargetUserID, auth.PrincipalFromContext(c))
	if err != nil {
		respondError(c, h.log, err)
		return
	}
	out := dto.AssignTaskResponse{Message: res.Message, AlreadyAssigned: res.AlreadyAssigned}
	if !res.AlreadyAssigned {
		task := dto.NewTaskResponse(res.Task)
		out.Task = &task
	}
	c.JSON(http.StatusOK, out)
}

// Delete godoc
// @Summary      Delete a task
// @Description  Creator only.
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Task ID"
// @Success      200  {object}  dto.MessageResponse
// @Failure      403  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /tasks/{id} [delete]
func (h *TaskHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id"), auth.PrincipalFromContext(c)); err != nil {
		respondError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "Task deleted successfully"})
}
