// Package httpapi exposes the club's scheduling, roster and attendance
// operations over gin. Every JSON response uses the uniform
// {success, data|error} envelope so clients check success before data.
package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"clubsched/internal/attendance"
	"clubsched/internal/auth"
	"clubsched/internal/classes"
	"clubsched/internal/config"
	"clubsched/internal/docstore"
	"clubsched/internal/instructors"
	"clubsched/internal/queue"
	"clubsched/internal/realtime"
	"clubsched/internal/schedule"
	"clubsched/internal/students"
)

// API bundles the services the handlers need. Everything is injected so
// tests can run the whole surface against the memory store.
type API struct {
	Cfg         config.App
	Instructors *instructors.Service
	Classes     *classes.Service
	Students    *students.Service
	Attendance  *attendance.Service
	Planner     *schedule.Planner
	Committer   *schedule.Committer
	Jobs        queue.Queue
	Hub         *realtime.Hub
}

// Register mounts all routes on the engine. Auth endpoints are open;
// the rest require an instructor token.
func (a *API) Register(r *gin.Engine) {
	r.POST("/v1/auth/register", a.registerInstructor)
	r.POST("/v1/auth/login", a.login)
	r.POST("/v1/auth/refresh", a.refresh)

	authed := r.Group("/v1", auth.InstructorAuth(a.Cfg.JWTSigningKey, a.Cfg.JWTIssuer))

	authed.GET("/classes", a.listClasses)
	authed.POST("/classes", a.createClass)
	authed.GET("/classes/:id", a.getClass)
	authed.PUT("/classes/:id", a.updateClass)
	authed.DELETE("/classes/:id", a.deleteClass)

	authed.GET("/students", a.listStudents)
	authed.POST("/students", a.createStudent)
	authed.GET("/students/:id", a.getStudent)
	authed.PUT("/students/:id", a.updateStudent)
	authed.DELETE("/students/:id", a.deleteStudent)

	authed.POST("/schedule/preview", a.previewSchedule)
	authed.POST("/schedule/commit", a.commitSchedule)

	authed.GET("/attendance", a.getAttendance)
	authed.POST("/attendance", a.saveAttendance)

	if a.Hub != nil {
		authed.GET("/realtime", a.Hub.Handler())
	}
}

func ok(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"success": true, "data": data})
}

func fail(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"success": false, "error": msg})
}

// failErr maps domain errors onto HTTP statuses per the error taxonomy.
func failErr(c *gin.Context, err error) {
	var ve *docstore.ValidationError
	var ce *docstore.ConflictError
	var te *docstore.TransportError
	switch {
	case errors.Is(err, docstore.ErrNotFound):
		fail(c, http.StatusNotFound, err.Error())
	case errors.Is(err, docstore.ErrUnauthorized):
		fail(c, http.StatusUnauthorized, err.Error())
	case errors.Is(err, docstore.ErrRateLimited):
		fail(c, http.StatusTooManyRequests, err.Error())
	case errors.As(err, &ve):
		fail(c, http.StatusBadRequest, err.Error())
	case errors.As(err, &ce):
		fail(c, http.StatusConflict, err.Error())
	case errors.As(err, &te):
		fail(c, http.StatusBadGateway, err.Error())
	default:
		fail(c, http.StatusInternalServerError, err.Error())
	}
}
