// backend/services/works-service/internal/controllers/works_controller.go

package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shiftly/mono-repo/backend/services/works-service/internal/dtos"
	"github.com/shiftly/mono-repo/backend/services/works-service/internal/services"
	internal_utils "github.com/shiftly/mono-repo/backend/services/works-service/internal/utils"
	"github.com/shiftly/mono-repo/backend/shared/go-middleware"
	"github.com/shiftly/mono-repo/backend/shared/go-models"
	"github.com/shiftly/mono-repo/backend/shared/go-utils"
)

type WorksController struct {
	workService *services.WorkService
	validate    *validator.Validate
}

func NewWorksController(ws *services.WorkService) *WorksController {
	return &WorksController{workService: ws, validate: validator.New()}
}

// ----------------------------------------------------------------
// GET /works/{id}
// ----------------------------------------------------------------
func (c *WorksController) GetWorkHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := workIDFromPath(w, r)
	if !ok {
		return
	}
	work, err := c.workService.FindByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, err, "Failed to load work")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, work)
}

// ----------------------------------------------------------------
// GET /works/by-code/{manualCode}
// ----------------------------------------------------------------
func (c *WorksController) GetWorkByCodeHandler(w http.ResponseWriter, r *http.Request) {
	work, err := c.workService.FindByManualCode(r.Context(), mux.Vars(r)["manualCode"])
	if err != nil {
		respondServiceError(w, err, "Failed to load work")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, work)
}

// ----------------------------------------------------------------
// POST /works/resolve {payload}
// ----------------------------------------------------------------
func (c *WorksController) ResolveWorkHandler(w http.ResponseWriter, r *http.Request) {
	var body dtos.ResolveWorkRequest
	if !c.decode(w, r, &body) {
		return
	}
	work, err := c.workService.Resolve(r.Context(), body.Payload)
	if err != nil {
		respondServiceError(w, err, "Failed to resolve work")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, work)
}

// ----------------------------------------------------------------
// GET /works?employerId=...|employeeId=...
// ----------------------------------------------------------------
func (c *WorksController) ListWorksHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	employerID := strings.TrimSpace(q.Get("employerId"))
	employeeID := strings.TrimSpace(q.Get("employeeId"))
	if (employerID == "") == (employeeID == "") {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPayload,
			"Exactly one of employerId or employeeId is required", nil, nil,
		)
		return
	}

	var (
		works []*models.Work
		err   error
	)
	if employerID != "" {
		if !checkSubject(w, r, employerID) {
			return
		}
		works, err = c.workService.ListByEmployer(r.Context(), employerID)
	} else {
		if !checkSubject(w, r, employeeID) {
			return
		}
		works, err = c.workService.ListByEmployee(r.Context(), employeeID)
	}
	if err != nil {
		respondServiceError(w, err, "Failed to list works")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.WorkListResponse{Results: works, Total: len(works)})
}

// ----------------------------------------------------------------
// GET /works/active?employeeId=...
// ----------------------------------------------------------------
func (c *WorksController) ActiveWorkHandler(w http.ResponseWriter, r *http.Request) {
	employeeID := strings.TrimSpace(r.URL.Query().Get("employeeId"))
	if employeeID == "" {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPayload,
			"employeeId is required", nil, nil,
		)
		return
	}
	if !checkSubject(w, r, employeeID) {
		return
	}

	work, err := c.workService.FindActiveForEmployee(r.Context(), employeeID)
	if err != nil {
		respondServiceError(w, err, "Failed to load active work")
		return
	}
	if work == nil {
		utils.RespondNoContent(w)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, work)
}

// ----------------------------------------------------------------
// POST /works
// ----------------------------------------------------------------
func (c *WorksController) CreateWorkHandler(w http.ResponseWriter, r *http.Request) {
	var body dtos.CreateWorkRequest
	if !c.decode(w, r, &body) {
		return
	}
	if !checkSubject(w, r, body.EmployerID) {
		return
	}
	work, err := c.workService.CreateWork(r.Context(), body)
	if err != nil {
		respondServiceError(w, err, "Failed to create work")
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, work)
}

// ----------------------------------------------------------------
// POST /works/{id}/assign|start|pause|resume|release {employeeId}
// ----------------------------------------------------------------
func (c *WorksController) AssignWorkHandler(w http.ResponseWriter, r *http.Request) {
	c.employeeAction(w, r, c.workService.Assign, "Could not assign work")
}

func (c *WorksController) StartWorkHandler(w http.ResponseWriter, r *http.Request) {
	c.employeeAction(w, r, c.workService.Start, "Could not start work")
}

func (c *WorksController) PauseWorkHandler(w http.ResponseWriter, r *http.Request) {
	c.employeeAction(w, r, c.workService.Pause, "Could not pause work")
}

func (c *WorksController) ResumeWorkHandler(w http.ResponseWriter, r *http.Request) {
	c.employeeAction(w, r, c.workService.Resume, "Could not resume work")
}

func (c *WorksController) ReleaseWorkHandler(w http.ResponseWriter, r *http.Request) {
	c.employeeAction(w, r, c.workService.Release, "Could not release work")
}

type workAction func(ctx context.Context, id uuid.UUID, actorID string) (*models.Work, error)

func (c *WorksController) employeeAction(w http.ResponseWriter, r *http.Request, action workAction, failMsg string) {
	id, ok := workIDFromPath(w, r)
	if !ok {
		return
	}
	var body dtos.EmployeeActionRequest
	if !c.decode(w, r, &body) {
		return
	}
	if !checkSubject(w, r, body.EmployeeID) {
		return
	}
	work, err := action(r.Context(), id, body.EmployeeID)
	if err != nil {
		respondServiceError(w, err, failMsg)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, work)
}

// ----------------------------------------------------------------
// POST /works/{id}/publish|reject {employerId}
// ----------------------------------------------------------------
func (c *WorksController) PublishWorkHandler(w http.ResponseWriter, r *http.Request) {
	c.employerAction(w, r, c.workService.Publish, "Could not publish work")
}

func (c *WorksController) RejectWorkHandler(w http.ResponseWriter, r *http.Request) {
	c.employerAction(w, r, c.workService.Reject, "Could not reject work")
}

func (c *WorksController) employerAction(w http.ResponseWriter, r *http.Request, action workAction, failMsg string) {
	id, ok := workIDFromPath(w, r)
	if !ok {
		return
	}
	var body dtos.EmployerActionRequest
	if !c.decode(w, r, &body) {
		return
	}
	if !checkSubject(w, r, body.EmployerID) {
		return
	}
	work, err := action(r.Context(), id, body.EmployerID)
	if err != nil {
		respondServiceError(w, err, failMsg)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, work)
}

// ----------------------------------------------------------------
// POST /works/{id}/completion-code
// ----------------------------------------------------------------
func (c *WorksController) IssueCompletionCodeHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := workIDFromPath(w, r)
	if !ok {
		return
	}
	// With auth on, only the work's employer may see a code.
	requester, _ := middleware.UserIDFromContext(r.Context())

	code, err := c.workService.IssueCompletionCode(r.Context(), id, requester)
	if err != nil {
		respondServiceError(w, err, "Could not issue completion code")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, dtos.CompletionCodeResponse{Code: code})
}

// ----------------------------------------------------------------
// POST /works/{id}/complete {employeeId, code}
// ----------------------------------------------------------------
func (c *WorksController) CompleteWorkHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := workIDFromPath(w, r)
	if !ok {
		return
	}
	var body dtos.CompleteWorkRequest
	if !c.decode(w, r, &body) {
		return
	}
	if !checkSubject(w, r, body.EmployeeID) {
		return
	}
	work, err := c.workService.Complete(r.Context(), id, body.EmployeeID, body.Code)
	if err != nil {
		respondServiceError(w, err, "Could not complete work")
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, work)
}

// ----------------------------------------------------------------
// helpers
// ----------------------------------------------------------------

func workIDFromPath(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	raw := mux.Vars(r)["id"]
	id, err := uuid.Parse(raw)
	if err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPayload,
			fmt.Sprintf("%q is not a valid work id", raw), nil, err,
		)
		return uuid.Nil, false
	}
	return id, true
}

// decode reads a JSON body into dst and runs its validate tags.
func (c *WorksController) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		utils.RespondErrorWithCode(
			w, http.StatusBadRequest, utils.ErrCodeInvalidPayload,
			"Invalid JSON payload", nil, err,
		)
		return false
	}
	if err := c.validate.Struct(dst); err != nil {
		var vErrs validator.ValidationErrors
		if errors.As(err, &vErrs) {
			details := make([]fieldError, 0, len(vErrs))
			for _, fe := range vErrs {
				details = append(details, fieldError{Field: fe.Field(), Rule: fe.Tag()})
			}
			utils.RespondErrorWithCode(
				w, http.StatusBadRequest, utils.ErrCodeValidation,
				"Request failed validation", details, err,
			)
			return false
		}
		utils.RespondErrorWithCode(w, http.StatusBadRequest, utils.ErrCodeValidation, err.Error(), nil, err)
		return false
	}
	return true
}

type fieldError struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// checkSubject enforces that an authenticated caller only acts as
// themselves. Without a token in the context there is nothing to check.
func checkSubject(w http.ResponseWriter, r *http.Request, claimedID string) bool {
	sub, ok := middleware.UserIDFromContext(r.Context())
	if !ok || sub == claimedID {
		return true
	}
	respondServiceError(
		w,
		fmt.Errorf("%w: token is for %s", internal_utils.ErrSubjectMismatch, sub),
		"Token subject does not match the request",
	)
	return false
}
