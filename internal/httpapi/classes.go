package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"clubsched/internal/auth"
	"clubsched/internal/classes"
)

func (a *API) listClasses(c *gin.Context) {
	var (
		recs []classes.Record
		err  error
	)
	start, end := c.Query("start"), c.Query("end")
	if start != "" && end != "" {
		recs, err = a.Classes.ListRange(c.Request.Context(), start, end)
	} else {
		recs, err = a.Classes.List(c.Request.Context())
	}
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"classes": recs})
}

func (a *API) createClass(c *gin.Context) {
	var req struct {
		Title           string `json:"title" binding:"required"`
		Date            string `json:"date" binding:"required"`
		Time            string `json:"time" binding:"required"`
		Description     string `json:"description"`
		MaxParticipants int    `json:"maxParticipants"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	claims := auth.ClaimsFrom(c)
	rec, err := a.Classes.Create(c.Request.Context(), classes.Record{
		Title:           req.Title,
		Date:            req.Date,
		Time:            req.Time,
		Instructor:      claims.Name,
		InstructorID:    claims.Subject,
		Description:     req.Description,
		MaxParticipants: req.MaxParticipants,
	})
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, rec)
}

func (a *API) getClass(c *gin.Context) {
	rec, err := a.Classes.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, rec)
}

func (a *API) updateClass(c *gin.Context) {
	var fields map[string]any
	if err := c.ShouldBindJSON(&fields); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	rec, err := a.Classes.Update(c.Request.Context(), c.Param("id"), fields)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, rec)
}

func (a *API) deleteClass(c *gin.Context) {
	if err := a.Classes.Delete(c.Request.Context(), c.Param("id")); err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"deleted": c.Param("id")})
}
