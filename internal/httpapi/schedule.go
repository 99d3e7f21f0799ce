package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"clubsched/internal/auth"
	"clubsched/internal/metrics"
	"clubsched/internal/schedule"
)

func (a *API) previewSchedule(c *gin.Context) {
	var req schedule.PreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	claims := auth.ClaimsFrom(c)
	req.Instructor = claims.Name
	req.InstructorID = claims.Subject

	plan, err := a.Planner.Preview(c.Request.Context(), req)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, plan)
}

func (a *API) commitSchedule(c *gin.Context) {
	var req struct {
		Plan          schedule.PreviewRequest `json:"plan" binding:"required"`
		SkipConflicts bool                    `json:"skipConflicts"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	claims := auth.ClaimsFrom(c)
	req.Plan.Instructor = claims.Name
	req.Plan.InstructorID = claims.Subject

	// Re-plan at commit time so the conflict snapshot is as fresh as it
	// can be; interleavings between this and the creates remain accepted
	// last-write-wins behavior.
	plan, err := a.Planner.Preview(c.Request.Context(), req.Plan)
	if err != nil {
		failErr(c, err)
		return
	}
	result, err := a.Committer.Commit(c.Request.Context(), plan, req.SkipConflicts)
	if err != nil {
		var tooLarge *schedule.BatchTooLargeError
		if errors.As(err, &tooLarge) {
			fail(c, http.StatusBadRequest, err.Error())
			return
		}
		failErr(c, err)
		return
	}
	metrics.BulkClassesCreated.Add(float64(len(result.Created)))
	metrics.BulkClassesSkipped.Add(float64(len(result.Skipped)))
	metrics.BulkClassesFailed.Add(float64(len(result.Errors)))

	ok(c, http.StatusOK, gin.H{
		"result":  result,
		"summary": result.Summary(),
	})
}
