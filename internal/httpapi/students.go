package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"clubsched/internal/students"
)

func (a *API) listStudents(c *gin.Context) {
	recs, err := a.Students.List(c.Request.Context())
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"students": recs})
}

func (a *API) createStudent(c *gin.Context) {
	var req struct {
		Name        string `json:"name" binding:"required"`
		Phone       string `json:"phone"`
		Email       string `json:"email" binding:"required,email"`
		DateOfBirth string `json:"dateOfBirth"`
		Age         string `json:"age"`
		BatchTime   string `json:"batchTime" binding:"required"`
		Notes       string `json:"notes"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	rec, err := a.Students.Create(c.Request.Context(), students.Record{
		Name:        req.Name,
		Phone:       req.Phone,
		Email:       req.Email,
		DateOfBirth: req.DateOfBirth,
		Age:         req.Age,
		BatchTime:   req.BatchTime,
		Notes:       req.Notes,
	})
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, rec)
}

func (a *API) getStudent(c *gin.Context) {
	rec, err := a.Students.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, rec)
}

func (a *API) updateStudent(c *gin.Context) {
	var fields map[string]any
	if err := c.ShouldBindJSON(&fields); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	rec, err := a.Students.Update(c.Request.Context(), c.Param("id"), fields)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, rec)
}

func (a *API) deleteStudent(c *gin.Context) {
	if err := a.Students.Delete(c.Request.Context(), c.Param("id")); err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{"deleted": c.Param("id")})
}
