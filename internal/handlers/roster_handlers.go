package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rostering_backend/internal/models"
	"rostering_backend/internal/services"
	"rostering_backend/pkg/utils"
)

// RosterHandler serves shift scheduling and roster views.
type RosterHandler struct {
	rosterService services.RosterService
}

func NewRosterHandler(rs services.RosterService) *RosterHandler {
	return &RosterHandler{rosterService: rs}
}

// ScheduleShift handles the creation of a new shift.
func (h *RosterHandler) ScheduleShift(c *gin.Context) {
	var req services.ScheduleShiftRequest
	if !bindJSON(c, &req, "ScheduleShift") {
		return
	}

	shift, err := h.rosterService.ScheduleShift(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "ScheduleShift", "Failed to schedule shift.")
		return
	}
	c.JSON(http.StatusCreated, shift)
}

// ScheduleWeek creates several shifts for one staff member at once.
func (h *RosterHandler) ScheduleWeek(c *gin.Context) {
	var req services.ScheduleWeekRequest
	if !bindJSON(c, &req, "ScheduleWeek") {
		return
	}

	shifts, err := h.rosterService.ScheduleWeek(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "ScheduleWeek", "Failed to schedule shifts.")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"data": shifts, "total": len(shifts)})
}

// ListShifts handles fetching shifts, optionally filtered by ?staff_id=.
func (h *RosterHandler) ListShifts(c *gin.Context) {
	var staffID *int64
	if raw := c.Query("staff_id"); raw != "" {
		id, err := utils.ParseID(raw)
		if err != nil {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid staff_id format.", err.Error()))
			return
		}
		staffID = &id
	}
	h.respondShifts(c, staffID)
}

// MyShifts lists the authenticated staff member's own shifts.
func (h *RosterHandler) MyShifts(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	h.respondShifts(c, &userID)
}

func (h *RosterHandler) respondShifts(c *gin.Context, staffID *int64) {
	shifts, err := h.rosterService.ListShifts(c.Request.Context(), staffID)
	if err != nil {
		respondServiceError(c, err, "ListShifts", "Failed to fetch shifts.")
		return
	}
	if shifts == nil {
		shifts = []models.Shift{}
	}
	c.JSON(http.StatusOK, gin.H{"data": shifts, "total": len(shifts)})
}

func (h *RosterHandler) AssignStaff(c *gin.Context) {
	shiftID, ok := idParam(c, "id", "shift")
	if !ok {
		return
	}
	var req services.AssignStaffRequest
	if !bindJSON(c, &req, "AssignStaff") {
		return
	}

	shift, err := h.rosterService.AssignStaff(c.Request.Context(), shiftID, req.StaffID)
	if err != nil {
		respondServiceError(c, err, "AssignStaff", "Failed to assign staff.")
		return
	}
	c.JSON(http.StatusOK, shift)
}

func (h *RosterHandler) DeleteShift(c *gin.Context) {
	shiftID, ok := idParam(c, "id", "shift")
	if !ok {
		return
	}
	if err := h.rosterService.DeleteShift(c.Request.Context(), shiftID); err != nil {
		respondServiceError(c, err, "DeleteShift", "Failed to delete shift.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Shift deleted successfully"})
}

func (h *RosterHandler) ListRosters(c *gin.Context) {
	rosters, err := h.rosterService.ListRosters(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "ListRosters", "Failed to fetch rosters.")
		return
	}
	if rosters == nil {
		rosters = []models.Roster{}
	}
	c.JSON(http.StatusOK, gin.H{"data": rosters, "total": len(rosters)})
}

// GetCurrentRoster returns this week's roster.
func (h *RosterHandler) GetCurrentRoster(c *gin.Context) {
	view, err := h.rosterService.GetRoster(c.Request.Context(), nil)
	if err != nil {
		respondServiceError(c, err, "GetCurrentRoster", "Failed to fetch roster.")
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *RosterHandler) GetLatestRoster(c *gin.Context) {
	view, err := h.rosterService.GetLatestRoster(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "GetLatestRoster", "Failed to fetch roster.")
		return
	}
	c.JSON(http.StatusOK, view)
}

// GetRosterByWeek returns the roster of the week containing :week_start.
func (h *RosterHandler) GetRosterByWeek(c *gin.Context) {
	week, ok := dateParam(c, "week_start")
	if !ok {
		return
	}
	view, err := h.rosterService.GetRoster(c.Request.Context(), week)
	if err != nil {
		respondServiceError(c, err, "GetRosterByWeek", "Failed to fetch roster.")
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *RosterHandler) GetRoster(c *gin.Context) {
	rosterID, ok := idParam(c, "id", "roster")
	if !ok {
		return
	}
	view, err := h.rosterService.GetRosterByID(c.Request.Context(), rosterID)
	if err != nil {
		respondServiceError(c, err, "GetRoster", "Failed to fetch roster.")
		return
	}
	c.JSON(http.StatusOK, view)
}
