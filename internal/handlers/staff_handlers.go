package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rostering_backend/internal/models"
	"rostering_backend/internal/services"
)

// StaffHandler holds the staff service.
type StaffHandler struct {
	staffService services.StaffService
}

// NewStaffHandler creates a new StaffHandler.
func NewStaffHandler(ss services.StaffService) *StaffHandler {
	return &StaffHandler{staffService: ss}
}

func (h *StaffHandler) CreateStaff(c *gin.Context) {
	var req services.CreateStaffRequest
	if !bindJSON(c, &req, "CreateStaff") {
		return
	}

	staff, err := h.staffService.CreateStaff(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "CreateStaff", "Failed to create staff member.")
		return
	}
	c.JSON(http.StatusCreated, staff)
}

func (h *StaffHandler) ListStaff(c *gin.Context) {
	staff, err := h.staffService.ListStaff(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "ListStaff", "Failed to fetch staff members.")
		return
	}
	if staff == nil {
		staff = []models.User{}
	}
	c.JSON(http.StatusOK, gin.H{"data": staff, "total": len(staff)})
}

func (h *StaffHandler) GetStaff(c *gin.Context) {
	staffID, ok := idParam(c, "id", "staff member")
	if !ok {
		return
	}

	staff, err := h.staffService.GetStaff(c.Request.Context(), staffID)
	if err != nil {
		respondServiceError(c, err, "GetStaff", "Failed to fetch staff member.")
		return
	}
	c.JSON(http.StatusOK, staff)
}

func (h *StaffHandler) UpdateStaff(c *gin.Context) {
	staffID, ok := idParam(c, "id", "staff member")
	if !ok {
		return
	}
	var req services.UpdateStaffRequest
	if !bindJSON(c, &req, "UpdateStaff") {
		return
	}

	staff, err := h.staffService.UpdateStaff(c.Request.Context(), staffID, req)
	if err != nil {
		respondServiceError(c, err, "UpdateStaff", "Failed to update staff member.")
		return
	}
	c.JSON(http.StatusOK, staff)
}

func (h *StaffHandler) DeleteStaff(c *gin.Context) {
	staffID, ok := idParam(c, "id", "staff member")
	if !ok {
		return
	}

	if err := h.staffService.DeleteStaff(c.Request.Context(), staffID); err != nil {
		respondServiceError(c, err, "DeleteStaff", "Failed to delete staff member.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Staff member deleted successfully"})
}
