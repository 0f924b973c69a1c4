package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"rostering_backend/internal/models"
	"rostering_backend/internal/services"
)

// AttendanceHandler lets staff punch in and out of their shifts.
type AttendanceHandler struct {
	attendanceService services.AttendanceService
}

func NewAttendanceHandler(as services.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendanceService: as}
}

func (h *AttendanceHandler) TimeIn(c *gin.Context) {
	h.punch(c, "TimeIn", h.attendanceService.MarkTimeIn)
}

func (h *AttendanceHandler) TimeOut(c *gin.Context) {
	h.punch(c, "TimeOut", h.attendanceService.MarkTimeOut)
}

type punchFunc func(ctx context.Context, staffID int64, req services.PunchRequest) (*models.AttendanceRecord, error)

func (h *AttendanceHandler) punch(c *gin.Context, op string, mark punchFunc) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req services.PunchRequest
	if !bindJSON(c, &req, op) {
		return
	}

	record, err := mark(c.Request.Context(), userID, req)
	if err != nil {
		respondServiceError(c, err, op, "Failed to record attendance.")
		return
	}
	c.JSON(http.StatusOK, record)
}

// MyAttendance lists the authenticated staff member's attendance records.
func (h *AttendanceHandler) MyAttendance(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	records, err := h.attendanceService.ListForStaff(c.Request.Context(), userID)
	if err != nil {
		respondServiceError(c, err, "MyAttendance", "Failed to fetch attendance.")
		return
	}
	if records == nil {
		records = []models.AttendanceRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"data": records, "total": len(records)})
}
