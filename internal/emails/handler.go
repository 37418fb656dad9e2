package emails

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"coldemail-backend/internal/llm"
	"coldemail-backend/internal/shared/server/respond"
)

// Handler wires HTTP handlers to the email service.
type Handler struct {
	Svc           *Service
	ExposeDetails bool
}

// NewHandler constructs a Handler. Provider error detail is only returned to callers
// when exposeDetails is set (non-production environments).
func NewHandler(svc *Service, exposeDetails bool) *Handler {
	return &Handler{Svc: svc, ExposeDetails: exposeDetails}
}

// RegisterRoutes attaches email routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/generate-email", h.generateEmail)
	rg.POST("/analyze-email", h.analyzeEmail)
}

type generateBody struct {
	Prompt       string        `json:"prompt"`
	Prospect     *ProspectInfo `json:"prospect"`
	Product      *ProductInfo  `json:"product"`
	Strategy     *Strategy     `json:"strategy"`
	Improvements string        `json:"improvements"`
}

func (b generateBody) legacy() bool {
	return b.Prompt != "" && b.Prospect == nil && b.Product == nil && b.Strategy == nil
}

func (b generateBody) request() GenerationRequest {
	var req GenerationRequest
	if b.Prospect != nil {
		req.Prospect = *b.Prospect
	}
	if b.Product != nil {
		req.Product = *b.Product
	}
	if b.Strategy != nil {
		req.Strategy = *b.Strategy
	}
	req.Improvements = b.Improvements
	return req
}

type analyzeBody struct {
	EmailContent string `json:"emailContent"`
}

func (h *Handler) generateEmail(c *gin.Context) {
	var body generateBody
	if !bindJSON(c, &body) {
		return
	}
	ctx := c.Request.Context()

	if body.legacy() {
		c.Set("endpoint", EndpointLegacy)
		drafts, err := h.Svc.GenerateFromPrompt(ctx, body.Prompt)
		if err != nil {
			h.writeError(c, err, "Failed to generate email")
			return
		}
		content, err := json.Marshal(drafts)
		if err != nil {
			respond.Error(c, http.StatusInternalServerError, ErrorCodeInternal, "Failed to generate email", nil)
			return
		}
		respond.OK(c, LegacyEnvelope{Choices: []LegacyChoice{{Message: LegacyMessage{Content: string(content)}}}})
		return
	}

	req := body.request()
	if req.IsRegenerate() {
		c.Set("endpoint", EndpointRegenerate)
	} else {
		c.Set("endpoint", EndpointGenerate)
	}
	drafts, err := h.Svc.Generate(ctx, req)
	if err != nil {
		h.writeError(c, err, "Failed to generate email")
		return
	}
	respond.OK(c, drafts)
}

func (h *Handler) analyzeEmail(c *gin.Context) {
	c.Set("endpoint", EndpointAnalyze)
	var body analyzeBody
	if !bindJSON(c, &body) {
		return
	}
	ctx := c.Request.Context()

	result, err := h.Svc.Analyze(ctx, body.EmailContent)
	if err != nil {
		h.writeError(c, err, "Failed to analyze email")
		return
	}
	respond.OK(c, gin.H{"metrics": result})
}

func bindJSON(c *gin.Context, dst any) bool {
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		respond.Error(c, http.StatusRequestEntityTooLarge, ErrorCodeTooLarge, "request body too large", nil)
		return false
	}
	respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "request body must be a JSON object", nil)
	return false
}

func (h *Handler) writeError(c *gin.Context, err error, generic string) {
	var (
		validation *ValidationError
		malformed  *MalformedResponseError
		remote     *llm.RemoteServiceError
	)
	switch {
	case errors.As(err, &validation):
		respond.Error(c, http.StatusBadRequest, ErrorCodeValidation, "missing or invalid fields", validation.Issues)
	case errors.As(err, &malformed):
		respond.Error(c, http.StatusInternalServerError, ErrorCodeMalformed, generic, nil)
	case errors.As(err, &remote):
		var details any
		if h.ExposeDetails {
			details = gin.H{"provider": remote.Provider, "detail": remote.Error()}
		}
		respond.Error(c, http.StatusInternalServerError, ErrorCodeRemoteService, generic, details)
	default:
		respond.Error(c, http.StatusInternalServerError, ErrorCodeInternal, generic, nil)
	}
}
