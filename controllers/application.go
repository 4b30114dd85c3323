package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"ip-review-api/services"
)

type createApplicationReq struct {
	Title          string            `json:"title" binding:"required"`
	ApplicantEmail string            `json:"applicant_email"`
	Fields         map[string]string `json:"fields"`
	Inventors      []struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	} `json:"inventors"`
}

// CreateApplication stores a draft for the calling applicant.
func (h *Handler) CreateApplication(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}

	var req createApplicationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	in := services.CreateApplicationInput{
		Title:          req.Title,
		ApplicantEmail: req.ApplicantEmail,
		Fields:         req.Fields,
	}
	for _, inv := range req.Inventors {
		in.Inventors = append(in.Inventors, services.InventorInput{Name: inv.Name, Email: inv.Email})
	}

	app, err := h.Applications.Create(c.Request.Context(), actor, in)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "application": app})
}

// GetApplication returns the application to its owner and to reviewers.
func (h *Handler) GetApplication(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	app, err := h.Applications.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"application": app})
}

// SubmitApplication moves a draft into mentor review.
func (h *Handler) SubmitApplication(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	app, err := h.Reviews.Submit(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "application": app})
}

// ResubmitApplication hands an application with requested changes back to its reviewer.
func (h *Handler) ResubmitApplication(c *gin.Context) {
	actor, ok := actorOrAbort(c)
	if !ok {
		return
	}
	app, err := h.Reviews.Resubmit(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "application": app})
}
