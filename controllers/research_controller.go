package controllers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"research-review-api/models"
	"research-review-api/services"
	"research-review-api/utils"
)

// ResearchController exposes the review workflow over HTTP.
type ResearchController struct {
	workflow       *services.ResearchWorkflow
	maxUploadBytes int64
	logger         zerolog.Logger
}

func NewResearchController(workflow *services.ResearchWorkflow, maxUploadBytes int64, logger zerolog.Logger) *ResearchController {
	return &ResearchController{workflow: workflow, maxUploadBytes: maxUploadBytes, logger: logger}
}

const multipartMemory = 8 << 20

type reviewDecisionRequest struct {
	Comments string `json:"comments"`
	Reason   string `json:"reason"`
	Notes    string `json:"notes"`
}

// SubmitResearch creates a paper, or updates the caller's paper when the
// form carries an id.
func (r *ResearchController) SubmitResearch(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	if r.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, r.maxUploadBytes)
	}
	if err := c.Request.ParseMultipartForm(multipartMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"success": false,
				"error":   fmt.Sprintf("upload exceeds %d bytes", r.maxUploadBytes),
			})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	draft := services.PaperDraft{
		Title:     utils.SanitizeInput(c.PostForm("title")),
		Abstract:  utils.SanitizeInput(c.PostForm("abstract")),
		Category:  utils.SanitizeInput(c.PostForm("category")),
		Keywords:  utils.SanitizeInput(c.PostForm("keywords")),
		CoAuthors: utils.SanitizeInput(c.PostForm("co_authors")),
	}

	if raw := strings.TrimSpace(c.PostForm("assigned_faculty_id")); raw != "" {
		facultyID, err := strconv.Atoi(raw)
		if err != nil || facultyID <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error":   "invalid assigned_faculty_id",
				"field":   "assigned_faculty_id",
			})
			return
		}
		draft.AssignedFacultyID = &facultyID
	}

	header, err := c.FormFile("file")
	switch {
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
	case err != nil:
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	default:
		file, closeFile, err := openUpload(header)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error(), "field": "file"})
			return
		}
		defer closeFile()
		draft.File = file
	}

	paper, err := r.workflow.Submit(c.Request.Context(), actor, draft, c.PostForm("id"))
	if err != nil {
		respondError(c, r.logger, err)
		return
	}

	status := http.StatusCreated
	if strings.TrimSpace(c.PostForm("id")) != "" {
		status = http.StatusOK
	}
	c.JSON(status, gin.H{"success": true, "paper": paper})
}

func openUpload(header *multipart.FileHeader) (*services.Upload, func(), error) {
	contentType, ok := utils.DocumentContentType(header.Filename)
	if !ok {
		return nil, nil, fmt.Errorf("unsupported file type: %s", header.Filename)
	}
	if header.Size == 0 {
		return nil, nil, fmt.Errorf("file is empty")
	}
	f, err := header.Open()
	if err != nil {
		return nil, nil, fmt.Errorf("open upload: %w", err)
	}
	upload := &services.Upload{
		Name:        header.Filename,
		Size:        header.Size,
		ContentType: contentType,
		Body:        f,
	}
	return upload, func() { _ = f.Close() }, nil
}

func (r *ResearchController) statusQuery(c *gin.Context) (models.PaperStatus, bool) {
	status, err := utils.ParseStatus(c.Query("status"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error(), "field": "status"})
		return "", false
	}
	return status, true
}

// GetMyResearch lists the caller's own submissions.
func (r *ResearchController) GetMyResearch(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	status, ok := r.statusQuery(c)
	if !ok {
		return
	}

	papers, err := r.workflow.Mine(c.Request.Context(), actor, status)
	if err != nil {
		respondError(c, r.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "papers": papers, "total": len(papers)})
}

// GetAssignedResearch lists papers waiting on the caller's review stage.
// It serves both the faculty-assigned and the generic assigned routes.
func (r *ResearchController) GetAssignedResearch(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}
	status, ok := r.statusQuery(c)
	if !ok {
		return
	}

	papers, err := r.workflow.GetAssigned(c.Request.Context(), actor, status)
	if err != nil {
		respondError(c, r.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "papers": papers, "total": len(papers)})
}

func (r *ResearchController) GetPublishedResearch(c *gin.Context) {
	papers, err := r.workflow.Published(c.Request.Context())
	if err != nil {
		respondError(c, r.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "papers": papers, "total": len(papers)})
}

func (r *ResearchController) GetResearch(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	detail, err := r.workflow.Get(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		respondError(c, r.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "paper": detail.Paper, "reviews": detail.Reviews})
}

func (r *ResearchController) ApproveResearch(c *gin.Context) {
	r.decide(c, func(actor services.Actor, req reviewDecisionRequest) (*models.ResearchPaper, error) {
		return r.workflow.Approve(c.Request.Context(), c.Param("id"), actor, req.Comments)
	})
}

func (r *ResearchController) RejectResearch(c *gin.Context) {
	r.decide(c, func(actor services.Actor, req reviewDecisionRequest) (*models.ResearchPaper, error) {
		return r.workflow.Reject(c.Request.Context(), c.Param("id"), actor, req.Reason)
	})
}

func (r *ResearchController) RequestRevision(c *gin.Context) {
	r.decide(c, func(actor services.Actor, req reviewDecisionRequest) (*models.ResearchPaper, error) {
		return r.workflow.RequestRevision(c.Request.Context(), c.Param("id"), actor, req.Notes)
	})
}

func (r *ResearchController) decide(c *gin.Context, apply func(services.Actor, reviewDecisionRequest) (*models.ResearchPaper, error)) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req reviewDecisionRequest
	// The body is optional for approvals.
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	paper, err := apply(actor, req)
	if err != nil {
		respondError(c, r.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "paper": paper})
}
