package v1

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/taskmaster-app/taskmaster/internal/models"
	"github.com/taskmaster-app/taskmaster/internal/services"
)

type ownerResponse struct {
	ID        string  `json:"id"`
	FullName  string  `json:"full_name"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

type getProjectResponse struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	OwnerID     string         `json:"owner_id"`
	Owner       *ownerResponse `json:"owner,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

func newGetProjectResponse(project *models.Project) getProjectResponse {
	resp := getProjectResponse{
		ID:          project.ID,
		Name:        project.Name,
		Description: project.Description,
		OwnerID:     project.OwnerID,
		CreatedAt:   project.CreatedAt,
		UpdatedAt:   project.UpdatedAt,
	}
	if project.Owner != nil {
		resp.Owner = &ownerResponse{
			ID:        project.Owner.ID,
			FullName:  project.Owner.FullName,
			AvatarURL: project.Owner.AvatarURL,
		}
	}
	return resp
}

type createProjectRequest struct {
	Name        string  `json:"name" binding:"required,max=255"`
	Description *string `json:"description,omitempty"`
}

func (h *handlerImpl) HandleCreateProject(c *gin.Context) {
	userID, exists := getStringFromContext(c, userIDCtxKey)
	if !exists {
		h.logger.Error().Msg("no user id found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	var req createProjectRequest
	err := c.ShouldBindJSON(&req)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to bind json")
		abort(c, newBadRequestError(errInvalidRequestBody.Error()))
		return
	}

	params := services.CreateProjectParams{
		OwnerID: userID,
		Name:    req.Name,
	}
	if req.Description != nil {
		params.Description = *req.Description
	}

	project, err := h.projects.CreateProject(c, params)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to create project")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	h.logger.Info().
		Str("project_id", project.ID).
		Msg("created project")
	c.JSON(http.StatusCreated, gin.H{
		"project":  newGetProjectResponse(project),
		"location": "/project",
	})
}

func (h *handlerImpl) HandleProjectList(c *gin.Context) {
	userID, exists := getStringFromContext(c, userIDCtxKey)
	if !exists {
		h.logger.Error().Msg("no user id found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	projects, err := h.projects.GetProjectsByOwner(c, userID)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to list projects")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	response := make([]getProjectResponse, len(projects))
	for i, project := range projects {
		response[i] = newGetProjectResponse(project)
	}

	c.JSON(http.StatusOK, response)
}

func (h *handlerImpl) HandleProjectDetail(c *gin.Context) {
	userID, exists := getStringFromContext(c, userIDCtxKey)
	if !exists {
		h.logger.Error().Msg("no user id found in context")
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	projectID := c.Param("projectID")
	if projectID == "" {
		h.logger.Error().Msg("no project id provided")
		abort(c, newBadRequestError("no project id provided"))
		return
	}

	project, err := h.projects.GetProjectByID(c, projectID, userID)
	if err != nil {
		if errors.Is(err, services.ErrProjectNotFound) {
			abort(c, newNotFoundError(services.ErrProjectNotFound.Error()))
			return
		}

		h.logger.Error().
			Err(err).
			Msg("failed to get project")
		abort(c, newStatusTextError(http.StatusInternalServerError))
		return
	}

	c.JSON(http.StatusOK, newGetProjectResponse(project))
}
