package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"clubsched/internal/auth"
	"clubsched/internal/instructors"
)

func (a *API) registerInstructor(c *gin.Context) {
	var req struct {
		Name     string `json:"name" binding:"required"`
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	rec, err := a.Instructors.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusCreated, rec)
}

func (a *API) login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required,email"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	rec, err := a.Instructors.Authenticate(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		failErr(c, err)
		return
	}
	a.issueTokens(c, rec)
}

func (a *API) refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	claims, err := auth.Parse(req.RefreshToken, a.Cfg.JWTSigningKey, a.Cfg.JWTIssuer)
	if err != nil {
		fail(c, http.StatusUnauthorized, "invalid token")
		return
	}
	rec, err := a.Instructors.CheckRefreshToken(c.Request.Context(), claims.Subject, req.RefreshToken)
	if err != nil {
		failErr(c, err)
		return
	}
	a.issueTokens(c, rec)
}

func (a *API) issueTokens(c *gin.Context, rec instructors.Record) {
	tokens, err := auth.Issue(rec.ID, rec.Name, "instructor",
		a.Cfg.JWTIssuer, a.Cfg.JWTSigningKey, a.Cfg.AccessTTL, a.Cfg.RefreshTTL)
	if err != nil {
		fail(c, http.StatusInternalServerError, "token issue failed")
		return
	}
	if err := a.Instructors.SaveRefreshToken(c.Request.Context(), rec.ID, tokens.RefreshToken, tokens.RefreshExp); err != nil {
		failErr(c, err)
		return
	}
	ok(c, http.StatusOK, gin.H{
		"instructor":    rec,
		"access_token":  tokens.AccessToken,
		"refresh_token": tokens.RefreshToken,
		"expires_at":    tokens.AccessExp.Unix(),
	})
}
