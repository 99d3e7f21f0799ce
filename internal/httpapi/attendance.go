package httpapi

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"clubsched/internal/attendance"
	"clubsched/internal/auth"
	"clubsched/internal/metrics"
	"clubsched/internal/queue"
)

// getAttendance returns the marking roster for a class: every eligible
// student with their stored status, defaulted when no record exists.
func (a *API) getAttendance(c *gin.Context) {
	classID := c.Query("class_id")
	if classID == "" {
		fail(c, http.StatusBadRequest, "class_id required")
		return
	}
	class, err := a.Classes.Get(c.Request.Context(), classID)
	if err != nil {
		failErr(c, err)
		return
	}
	allStudents, err := a.Students.List(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	roster, err := a.Attendance.Roster(c.Request.Context(), class, allStudents)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{
		"class":  class,
		"date":   class.Date,
		"roster": roster,
	})
}

func (a *API) saveAttendance(c *gin.Context) {
	var req struct {
		ClassID   string              `json:"classId" binding:"required"`
		ClassDate string              `json:"classDate" binding:"required"`
		Updates   []attendance.Update `json:"updates" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	claims := auth.ClaimsFrom(c)

	result, err := a.Attendance.Save(c.Request.Context(), req.ClassID, req.ClassDate, claims.Name, req.Updates)
	if err != nil {
		failErr(c, err)
		return
	}
	metrics.AttendanceSaves.WithLabelValues("ok").Add(float64(result.SuccessCount))
	metrics.AttendanceSaves.WithLabelValues("error").Add(float64(result.ErrorCount))

	if a.Jobs != nil && result.SuccessCount > 0 {
		msg, err := queue.NewRecountMessage(queue.RecountJob{
			ClassID:   req.ClassID,
			ClassDate: req.ClassDate,
		})
		if err == nil {
			err = a.Jobs.Publish(c.Request.Context(), msg)
		}
		if err != nil {
			log.Printf("recount job publish failed: %v", err)
		}
	}

	ok(c, http.StatusOK, gin.H{
		"result":  result,
		"summary": result.Summary(),
	})
}
