package handlers

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"rostering_backend/internal/models"
	"rostering_backend/internal/reports"
	"rostering_backend/internal/services"
	"rostering_backend/pkg/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportHandler generates, lists and exports shift reports.
type ReportHandler struct {
	reportService services.ReportService
}

func NewReportHandler(rs services.ReportService) *ReportHandler {
	return &ReportHandler{reportService: rs}
}

// GenerateReport creates a new report for :id.
func (h *ReportHandler) GenerateReport(c *gin.Context) {
	rosterID, ok := idParam(c, "id", "roster")
	if !ok {
		return
	}
	report, err := h.reportService.GenerateReport(c.Request.Context(), rosterID)
	h.respondGenerated(c, report, err)
}

// GenerateReportForWeek creates a new report for the roster of the week containing :week_start.
func (h *ReportHandler) GenerateReportForWeek(c *gin.Context) {
	week, ok := dateParam(c, "week_start")
	if !ok {
		return
	}
	report, err := h.reportService.GenerateReportForWeek(c.Request.Context(), *week)
	h.respondGenerated(c, report, err)
}

func (h *ReportHandler) GenerateLatestReport(c *gin.Context) {
	report, err := h.reportService.GenerateLatestReport(c.Request.Context())
	h.respondGenerated(c, report, err)
}

func (h *ReportHandler) respondGenerated(c *gin.Context, report *models.ShiftReport, err error) {
	if err != nil {
		respondServiceError(c, err, "GenerateReport", "Failed to generate report.")
		return
	}
	c.JSON(http.StatusCreated, report)
}

func (h *ReportHandler) ListReports(c *gin.Context) {
	rosterID, ok := idParam(c, "id", "roster")
	if !ok {
		return
	}
	list, err := h.reportService.ListReports(c.Request.Context(), rosterID)
	if err != nil {
		respondServiceError(c, err, "ListReports", "Failed to fetch reports.")
		return
	}
	if list == nil {
		list = []models.ShiftReport{}
	}
	c.JSON(http.StatusOK, gin.H{"data": list, "total": len(list)})
}

// GetReport returns a stored report as JSON, or its summary text with ?format=text.
func (h *ReportHandler) GetReport(c *gin.Context) {
	reportID, ok := idParam(c, "id", "report")
	if !ok {
		return
	}
	report, err := h.reportService.GetReport(c.Request.Context(), reportID)
	if err != nil {
		respondServiceError(c, err, "GetReport", "Failed to fetch report.")
		return
	}
	if c.Query("format") == "text" {
		c.String(http.StatusOK, report.Summary)
		return
	}
	c.JSON(http.StatusOK, report)
}

// ExportAttendance streams the roster's attendance as an xlsx workbook.
func (h *ReportHandler) ExportAttendance(c *gin.Context) {
	rosterID, ok := idParam(c, "id", "roster")
	if !ok {
		return
	}
	summary, err := h.reportService.BuildSummary(c.Request.Context(), rosterID)
	if err != nil {
		respondServiceError(c, err, "ExportAttendance", "Failed to build attendance export.")
		return
	}

	var buf bytes.Buffer
	if err := reports.WriteWorkbook(&buf, *summary); err != nil {
		respondServiceError(c, err, "ExportAttendance", "Failed to build attendance export.")
		return
	}

	filename := fmt.Sprintf("attendance-%s.xlsx", summary.WeekStart.Format(utils.DateLayout))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
