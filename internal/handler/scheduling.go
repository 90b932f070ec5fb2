package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/campreserve/enrollment-scheduler/internal/model"
	"github.com/campreserve/enrollment-scheduler/internal/repository"
	"github.com/campreserve/enrollment-scheduler/internal/service"
)

// SchedulingHandler exposes the enrollment scheduling operations over
// HTTP.  All business rules live in the service; the handler binds
// requests, resolves the acting user and maps scheduling errors to
// status codes.
type SchedulingHandler struct {
	Svc *service.SchedulingService
}

func NewSchedulingHandler(svc *service.SchedulingService) *SchedulingHandler {
	return &SchedulingHandler{Svc: svc}
}

const dateLayout = "2006-01-02"

// actorID extracts the authenticated user id stored by the JWT
// middleware.  The jwt library decodes numeric claims as float64.
func actorID(c echo.Context) uint64 {
	switch v := c.Get("user_id").(type) {
	case float64:
		return uint64(v)
	case uint64:
		return v
	case string:
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			return n
		}
	}
	return 0
}

func pathID(c echo.Context) (uint64, error) {
	return strconv.ParseUint(c.Param("id"), 10, 64)
}

// parseDate accepts YYYY-MM-DD or RFC 3339; empty means unset.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}

func fmtDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}

// scheduleErrJSON maps scheduling errors onto HTTP responses.  Capacity
// and reservation failures answer 409 so clients can offer a retry or a
// different resource; validation failures answer 422.
func scheduleErrJSON(c echo.Context, err error) error {
	var se *repository.ScheduleError
	msg := err.Error()
	if errors.As(err, &se) {
		msg = se.Message
	}
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	case errors.Is(err, repository.ErrMissingResource),
		errors.Is(err, repository.ErrInvalidCapacity):
		return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": msg})
	case errors.Is(err, repository.ErrCapacityExceeded),
		errors.Is(err, repository.ErrAlreadyReserved),
		errors.Is(err, repository.ErrConflict),
		errors.Is(err, repository.ErrStoreConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": msg})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

// ----- faction enrollments -----

type factionEnrollmentReq struct {
	FactionID            uint64 `json:"faction_id"`
	FactionLabel         string `json:"faction_label"`
	FacilityEnrollmentID uint64 `json:"facility_enrollment_id"`
	WeekID               uint64 `json:"week_id"`
	QuartersID           uint64 `json:"quarters_id"`
	Name                 string `json:"name"`
	Start                string `json:"start"`
	End                  string `json:"end"`
}

type factionEnrollmentResp struct {
	ID                   uint64 `json:"id"`
	FactionID            uint64 `json:"faction_id"`
	FacilityEnrollmentID uint64 `json:"facility_enrollment_id"`
	WeekID               uint64 `json:"week_id"`
	QuartersID           uint64 `json:"quarters_id"`
	Name                 string `json:"name"`
	Start                string `json:"start"`
	End                  string `json:"end"`
}

func factionResp(f *model.FactionEnrollment) factionEnrollmentResp {
	return factionEnrollmentResp{
		ID:                   f.ID,
		FactionID:            f.FactionID,
		FacilityEnrollmentID: f.FacilityEnrollmentID,
		WeekID:               f.WeekID,
		QuartersID:           f.QuartersID,
		Name:                 f.Name,
		Start:                fmtDate(f.Start),
		End:                  fmtDate(f.End),
	}
}

func (h *SchedulingHandler) factionInput(c echo.Context, existing *model.FactionEnrollment) (service.FactionEnrollmentInput, error) {
	var req factionEnrollmentReq
	if err := c.Bind(&req); err != nil {
		return service.FactionEnrollmentInput{}, err
	}
	start, err := parseDate(req.Start)
	if err != nil {
		return service.FactionEnrollmentInput{}, err
	}
	end, err := parseDate(req.End)
	if err != nil {
		return service.FactionEnrollmentInput{}, err
	}
	return service.FactionEnrollmentInput{
		Existing:             existing,
		FactionID:            req.FactionID,
		FactionLabel:         req.FactionLabel,
		FacilityEnrollmentID: req.FacilityEnrollmentID,
		WeekID:               req.WeekID,
		QuartersID:           req.QuartersID,
		Name:                 req.Name,
		Start:                start,
		End:                  end,
		ActorID:              actorID(c),
	}, nil
}

func (h *SchedulingHandler) CreateFactionEnrollment(c echo.Context) error {
	in, err := h.factionInput(c, nil)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	rec, err := h.Svc.ScheduleFactionEnrollment(c.Request().Context(), in)
	if err != nil {
		return scheduleErrJSON(c, err)
	}
	return c.JSON(http.StatusCreated, factionResp(rec))
}

func (h *SchedulingHandler) UpdateFactionEnrollment(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	existing, err := h.Svc.Factions.GetByID(c.Request().Context(), id)
	if err != nil {
		return scheduleErrJSON(c, err)
	}
	in, err := h.factionInput(c, existing)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	rec, err := h.Svc.ScheduleFactionEnrollment(c.Request().Context(), in)
	if err != nil {
		return scheduleErrJSON(c, err)
	}
	return c.JSON(http.StatusOK, factionResp(rec))
}

func (h *SchedulingHandler) DeleteFactionEnrollment(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	rec, err := h.Svc.Factions.GetByID(c.Request().Context(), id)
	if err != nil {
		return scheduleErrJSON(c, err)
	}
	if err := h.Svc.DropFactionEnrollment(c.Request().Context(), rec, actorID(c)); err != nil {
		return scheduleErrJSON(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ----- attendee and leader enrollments -----

type personEnrollmentReq struct {
	PersonID            uint64  `json:"person_id"`
	PersonLabel         string  `json:"person_label"`
	FactionEnrollmentID uint64  `json:"faction_enrollment_id"`
	QuartersID          uint64  `json:"quarters_id"`
	Role                *string `json:"role"`
	Name                string  `json:"name"`
	Start               string  `json:"start"`
	End                 string  `json:"end"`
}

type personEnrollmentResp struct {
	ID                  uint64  `json:"id"`
	PersonID            uint64  `json:"person_id"`
	FactionEnrollmentID uint64  `json:"faction_enrollment_id"`
	QuartersID          uint64  `json:"quarters_id"`
	Role                *string `json:"role,omitempty"`
	Name                string  `json:"name"`
	Start               string  `json:"start"`
	End                 string  `json:"end"`
}

func (h *SchedulingHandler) attendeeInput(c echo.Context, existing *model.AttendeeEnrollment) (service.AttendeeEnrollmentInput, error) {
	var req personEnrollmentReq
	if err := c.Bind(&req); err != nil {
		return service.AttendeeEnrollmentInput{}, err
	}
	start, err := parseDate(req.Start)
	if err != nil {
		return service.AttendeeEnrollmentInput{}, err
	}
	end, err := parseDate(req.End)
	if err != nil {
		return service.AttendeeEnrollmentInput{}, err
	}
	return service.AttendeeEnrollmentInput{
		Existing:            existing,
		AttendeeID:          req.PersonID,
		AttendeeLabel:       req.PersonLabel,
		FactionEnrollmentID: req.FactionEnrollmentID,
		QuartersID:          req.QuartersID,
		Role:                req.Role,
		Name:                req.Name,
		Start:               start,
		End:                 end,
		ActorID:             actorID(c),
	}, nil
}

func (h *SchedulingHandler) CreateAttendeeEnrollment(c echo.Context) error {
	in, err := h.attendeeInput(c, nil)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	rec, err := h.Svc.ScheduleAttendeeEnrollment(c.Request().Context(), in)
	if err != nil {
		return scheduleErrJSON(c, err)
	}
	return c.JSON(http.StatusCreated, personEnrollmentResp{
		ID: rec.ID, PersonID: rec.AttendeeID, FactionEnrollmentID: rec.FactionEnrollmentID,
		QuartersID: rec.QuartersID, Role: rec.Role, Name: rec.Name,
		Start: fmtDate(rec.Start), End: fmtDate(rec.End),
	})
}

func (h *SchedulingHandler) UpdateAttendeeEnrollment(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	existing, err := h.Svc.Attendees.GetByID(c.Request().Context(), id)
	if err != nil {
		return scheduleErrJSON(c, err)
	}
	in, err := h.attendeeInput(c, existing)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	rec, err := h.Svc.ScheduleAttendeeEnrollment(c.Request().Context(), in)
	if err != nil {
		return scheduleErrJSON(c, err)
	}
	return c.JSON(http.StatusOK, personEnrollmentResp{
		ID: rec.ID, PersonID: rec.AttendeeID, FactionEnrollmentID: rec.FactionEnrollmentID,
		QuartersID: rec.QuartersID, Role: rec.Role, Name: rec.Name,
		Start: fmtDate(rec.Start), End: fmtDate(rec.End),
	})
}

func (h *SchedulingHandler) DeleteAttendeeEnrollment(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	rec, err := h.Svc.Attendees.GetByID(c.Request().Context(), id)
	if err != nil {
		return scheduleErrJSON(c, err)
	}
	if err := h.Svc.DropAttendeeEnrollment(c.Request().Context(), rec, actorID(c)); err != nil {
		return scheduleErrJSON(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *SchedulingHandler) leaderInput(c echo.Context, existing *model.LeaderEnrollment) (service.LeaderEnrollmentInput, error) {
	var req personEnrollmentReq
	if err := c.Bind(&req); err != nil {
		return service.LeaderEnrollmentInput{}, err
	}
	start, err := parseDate(req.Start)
	if err != nil {
		return service.LeaderEnrollmentInput{}, err
	}
	end, err := parseDate(req.End)
	if err != nil {
		return service.LeaderEnrollmentInput{}, err
	}
	return service.LeaderEnrollmentInput{
		Existing:            existing,
		LeaderID:            req.PersonID,
		LeaderLabel:         req.PersonLabel,
		FactionEnrollmentID: req.FactionEnrollmentID,
		QuartersID:          req.QuartersID,
		Role:                req.Role,
		Name:                req.Name,
		Start:               start,
		End:                 end,
		ActorID:             actorID(c),
	}, nil
}

func (h *SchedulingHandler) CreateLeaderEnrollment(c echo.Context) error {
	in, err := h.leaderInput(c, nil)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	rec, err := h.Svc.ScheduleLeaderEnrollment(c.Request().Context(), in)
	if err != nil {
		return scheduleErrJSON(c, err)
	}
	return c.JSON(http.StatusCreated, personEnrollmentResp{
		ID: rec.ID, PersonID: rec.LeaderID, FactionEnrollmentID: rec.FactionEnrollmentID,
		QuartersID: rec.QuartersID, Role: rec.Role, Name: rec.Name,
		Start: fmtDate(rec.Start), End: fmtDate(rec.End),
	})
}

func (h *SchedulingHandler) UpdateLeaderEnrollment(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	existing, err := h.Svc.Leaders.GetByID(c.Request().Context(), id)
	if err != nil {
		return scheduleErrJSON(c, err)
	}
	in, err := h.leaderInput(c, existing)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	rec, err := h.Svc.ScheduleLeaderEnrollment(c.Request().Context(), in)
	if err != nil {
		return scheduleErrJSON(c, err)
	}
	return c.JSON(http.StatusOK, personEnrollmentResp{
		ID: rec.ID, PersonID: rec.LeaderID, FactionEnrollmentID: rec.FactionEnrollmentID,
		QuartersID: rec.QuartersID, Role: rec.Role, Name: rec.Name,
		Start: fmtDate(rec.Start), End: fmtDate(rec.End),
	})
}

func (h *SchedulingHandler) DeleteLeaderEnrollment(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	rec, err := h.Svc.Leaders.GetByID(c.Request().Context(), id)
	if err != nil {
		return scheduleErrJSON(c, err)
	}
	if err := h.Svc.DropLeaderEnrollment(c.Request().Context(), rec, actorID(c)); err != nil {
		return scheduleErrJSON(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ----- faculty enrollments -----

type facultyEnrollmentReq struct {
	FacultyID            uint64  `json:"faculty_id"`
	FacultyLabel         string  `json:"faculty_label"`
	FacilityEnrollmentID uint64  `json:"facility_enrollment_id"`
	QuartersID           uint64  `json:"quarters_id"`
	Role                 *string `json:"role"`
	Name                 string  `json:"name"`
}

type facultyEnrollmentResp struct {
	ID                   uint64  `json:"id"`
	FacultyID            uint64  `json:"faculty_id"`
	FacilityEnrollmentID uint64  `json:"facility_enrollment_id"`
	QuartersID           uint64  `json:"quarters_id"`
	Role                 *string `json:"role,omitempty"`
	Name                 string  `json:"name"`
}

func facultyResp(f *model.FacultyEnrollment) facultyEnrollmentResp {
	return facultyEnrollmentResp{
		ID: f.ID, FacultyID: f.FacultyID, FacilityEnrollmentID: f.FacilityEnrollmentID,
		QuartersID: f.QuartersID, Role: f.Role, Name: f.Name,
	}
}

func (h *SchedulingHandler) facultyInput(c echo.Context, existing *model.FacultyEnrollment) (service.FacultyEnrollmentInput, error) {
	var req facultyEnrollmentReq
	if err := c.Bind(&req); err != nil {
		return service.FacultyEnrollmentInput{}, err
	}
	return service.FacultyEnrollmentInput{
		Existing:             existing,
		FacultyID:            req.FacultyID,
		FacultyLabel:         req.FacultyLabel,
		FacilityEnrollmentID: req.FacilityEnrollmentID,
		QuartersID:           req.QuartersID,
		Role:                 req.Role,
		Name:                 req.Name,
		ActorID:              actorID(c),
	}, nil
}

func (h *SchedulingHandler) CreateFacultyEnrollment(c echo.Context) error {
	in, err := h.facultyInput(c, nil)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	rec, err := h.Svc.ScheduleFacultyEnrollment(c.Request().Context(), in)
	if err != nil {
		return scheduleErrJSON(c, err)
	}
	return c.JSON(http.StatusCreated, facultyResp(rec))
}

func (h *SchedulingHandler) UpdateFacultyEnrollment(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	existing, err := h.Svc.Faculty.GetByID(c.Request().Context(), id)
	if err != nil {
		return scheduleErrJSON(c, err)
	}
	in, err := h.facultyInput(c, existing)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	rec, err := h.Svc.ScheduleFacultyEnrollment(c.Request().Context(), in)
	if err != nil {
		return scheduleErrJSON(c, err)
	}
	return c.JSON(http.StatusOK, facultyResp(rec))
}

func (h *SchedulingHandler) DeleteFacultyEnrollment(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	rec, err := h.Svc.Faculty.GetByID(c.Request().Context(), id)
	if err != nil {
		return scheduleErrJSON(c, err)
	}
	if err := h.Svc.DropFacultyEnrollment(c.Request().Context(), rec, actorID(c)); err != nil {
		return scheduleErrJSON(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ----- class assignments -----

type classAssignmentReq struct {
	PersonID        uint64  `json:"person_id"`
	ClassOfferingID uint64  `json:"class_offering_id"`
	EnrollmentID    *uint64 `json:"enrollment_id"`
}

func (h *SchedulingHandler) AssignAttendeeToClass(c echo.Context) error {
	var req classAssignmentReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	rec, err := h.Svc.AssignAttendeeToClass(c.Request().Context(), service.ClassAssignmentInput{
		PersonID:        req.PersonID,
		ClassOfferingID: req.ClassOfferingID,
		EnrollmentID:    req.EnrollmentID,
		ActorID:         actorID(c),
	})
	if err != nil {
		return scheduleErrJSON(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"id":                rec.ID,
		"attendee_id":       rec.AttendeeID,
		"class_offering_id": rec.ClassOfferingID,
	})
}

func (h *SchedulingHandler) DropAttendeeClassEnrollment(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	rec, err := h.Svc.AttendeeClasses.GetByID(c.Request().Context(), id)
	if err != nil {
		return scheduleErrJSON(c, err)
	}
	if err := h.Svc.DropAttendeeClassEnrollment(c.Request().Context(), rec, actorID(c)); err != nil {
		return scheduleErrJSON(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *SchedulingHandler) AssignFacultyToClass(c echo.Context) error {
	var req classAssignmentReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	rec, err := h.Svc.AssignFacultyToClass(c.Request().Context(), service.ClassAssignmentInput{
		PersonID:        req.PersonID,
		ClassOfferingID: req.ClassOfferingID,
		EnrollmentID:    req.EnrollmentID,
		ActorID:         actorID(c),
	})
	if err != nil {
		return scheduleErrJSON(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"id":                rec.ID,
		"faculty_id":        rec.FacultyID,
		"class_offering_id": rec.ClassOfferingID,
	})
}

func (h *SchedulingHandler) DropFacultyClassEnrollment(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	rec, err := h.Svc.FacultyClasses.GetByID(c.Request().Context(), id)
	if err != nil {
		return scheduleErrJSON(c, err)
	}
	if err := h.Svc.DropFacultyClassEnrollment(c.Request().Context(), rec, actorID(c)); err != nil {
		return scheduleErrJSON(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ClassAvailability reports the remaining seats of a class offering from
// the cached ledger view.
func (h *SchedulingHandler) ClassAvailability(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	remaining, err := h.Svc.ClassSeatsRemaining(c.Request().Context(), id)
	if err != nil {
		return scheduleErrJSON(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"class_offering_id": id,
		"seats_remaining":   remaining,
	})
}
