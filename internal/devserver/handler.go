// Package devserver is a local implementation of the portal's external
// collaborators (the REST backend, the WebSocket gateway and the identity
// provider) so the client can be developed and integration-tested offline.
package devserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ankit76350/whistleblower/internal/config"
	"github.com/ankit76350/whistleblower/internal/models"
)

// Handler carries the dev backend's dependencies.
type Handler struct {
	Storage   Storage
	Hub       *Hub
	Files     FileStore
	JWTSecret []byte
}

// NewHandler wires a handler.
func NewHandler(s Storage, hub *Hub, files FileStore, jwtSecret []byte) *Handler {
	return &Handler{Storage: s, Hub: hub, Files: files, JWTSecret: jwtSecret}
}

// RegisterRoutes attaches every route the client consumes.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	wb := r.Group("/whistleblower")
	{
		wb.POST("/anonymous/submitNewReport", h.SubmitReport)
		wb.GET("/report/:secretKey/conversation", h.ConversationBySecret)
		wb.POST("/reports/:reportId/messages", h.PostMessage)
		wb.GET("/file-url/:key", h.FileURL)

		authed := wb.Group("", h.requireAuth())
		{
			authed.GET("/tenant/:tenantId/report/:reportId/conversation", h.ConversationForStaff)
			authed.GET("/tenant/:tenantId/reports", h.ListReports)
			authed.PUT("/reports/:reportId/status", h.UpdateStatus)
			authed.GET("/admin/getAllTenants", h.GetAllTenants)
			authed.POST("/admin/addNewTenant", h.AddTenant)
			authed.PUT("/admin/updateTenant/:tenantId", h.UpdateTenant)
			authed.DELETE("/deleteTenant/:tenantId", h.DeleteTenant)
		}
	}

	admin := r.Group("/admin")
	{
		admin.POST("/login", h.Login)
		admin.GET("/me", h.requireAuth(), h.Me)
		admin.POST("/invite/user", h.requireAuth(), h.InviteUser)
	}

	r.GET("/ws", h.ServeWebSocket)
	r.GET("/files/:key", h.ServeFile)
}

type createReportRequest struct {
	TenantID    string   `json:"tenantId"`
	Subject     string   `json:"subject"`
	Message     string   `json:"message"`
	Attachments []string `json:"attachments"`
}

// SubmitReport handles the anonymous multipart submission. The metadata
// travels in a reportData JSON part, files under attachments.
func (h *Handler) SubmitReport(c *gin.Context) {
	var req createReportRequest
	if err := h.bindMetaPart(c, "reportData", &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, err := h.Storage.GetTenant(req.TenantID); err != nil {
		h.notFoundOr500(c, err, "Tenant not found with id: "+req.TenantID)
		return
	}
	if emptyText(req.Subject) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Subject must not be empty"})
		return
	}
	if emptyText(req.Message) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message must not be empty"})
		return
	}

	keys, err := h.storeUploads(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	keys = append(keys, req.Attachments...)

	now := time.Now().Unix()
	report := models.Report{
		ReportID:    uuid.New().String(),
		SecretKey:   GenerateSecretKey(),
		TenantID:    req.TenantID,
		Subject:     req.Subject,
		Message:     req.Message,
		Attachments: keys,
		Status:      models.StatusNew,
		CreatedAt:   now,
		DeadlineAt:  now + int64(config.ReportDeadline/time.Second),
		UpdatedAt:   now,
	}
	if err := h.Storage.CreateReport(&report); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}

// ConversationBySecret serves the reporter view of a thread. An unknown key
// is a plain 404; the client renders it as a possibly expired session.
func (h *Handler) ConversationBySecret(c *gin.Context) {
	report, err := h.Storage.GetReportBySecret(c.Param("secretKey"))
	if err != nil {
		h.notFoundOr500(c, err, "Invalid secret key")
		return
	}
	msgs, err := h.Storage.ListMessages(report.ReportID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, models.Conversation{Report: *report, Messages: msgs})
}

// ConversationForStaff serves the staff view. A first view of a NEW report
// flips it to RECEIVED, which starts the legal response clock.
func (h *Handler) ConversationForStaff(c *gin.Context) {
	report, err := h.Storage.GetReportForTenant(c.Param("tenantId"), c.Param("reportId"))
	if err != nil {
		h.notFoundOr500(c, err, "Report not found for this tenant")
		return
	}

	if report.Status == models.StatusNew {
		report.Status = models.StatusReceived
		report.ReceivedAt = time.Now().Unix()
		report.ReadOrUnRead = true
		if err := h.Storage.UpdateReport(report); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}

	msgs, err := h.Storage.ListMessages(report.ReportID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	staffView := *report
	staffView.SecretKey = ""
	c.JSON(http.StatusOK, models.Conversation{Report: staffView, Messages: msgs})
}

type sendMessageRequest struct {
	Sender      models.MessageSender `json:"sender"`
	Message     string               `json:"message"`
	Attachments []string             `json:"attachments"`
}

// PostMessage appends a reply to a thread. A compliance reply moves a
// non-terminal report to IN_PROGRESS.
func (h *Handler) PostMessage(c *gin.Context) {
	report, err := h.Storage.GetReportByID(c.Param("reportId"))
	if err != nil {
		h.notFoundOr500(c, err, "Report not found with id: "+c.Param("reportId"))
		return
	}

	var req sendMessageRequest
	if err := h.bindMetaPart(c, "messageData", &req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Sender == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message sender must be provided"})
		return
	}
	if emptyText(req.Message) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message must not be empty"})
		return
	}

	keys, err := h.storeUploads(c)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	keys = append(keys, req.Attachments...)

	msg := models.ConversationMessage{
		ID:          uuid.New().String(),
		ReportID:    report.ReportID,
		Sender:      req.Sender,
		Message:     req.Message,
		Attachments: keys,
		CreatedAt:   time.Now().Unix(),
	}
	if err := h.Storage.CreateMessage(&msg); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if req.Sender == models.SenderComplianceTeam &&
		report.Status != models.StatusClosed && report.Status != models.StatusCanceled {
		report.Status = models.StatusInProgress
		if err := h.Storage.UpdateReport(report); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
	}

	c.JSON(http.StatusOK, msg)
}

// UpdateStatus sets a report's status from the query parameter, matched
// ignoring case. Legality of the transition is not checked beyond the enum.
func (h *Handler) UpdateStatus(c *gin.Context) {
	status, err := models.ParseReportStatus(c.Query("status"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report, err := h.Storage.GetReportByID(c.Param("reportId"))
	if err != nil {
		h.notFoundOr500(c, err, "Report not found")
		return
	}

	report.Status = status
	if status == models.StatusReceived && report.ReceivedAt == 0 {
		report.ReceivedAt = time.Now().Unix()
	}
	if err := h.Storage.UpdateReport(report); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}

// ListReports is the staff inbox; secret keys never leave the backend here.
func (h *Handler) ListReports(c *gin.Context) {
	tenantID := c.Param("tenantId")
	if _, err := h.Storage.GetTenant(tenantID); err != nil {
		h.notFoundOr500(c, err, "Tenant not found with id: "+tenantID)
		return
	}
	reports, err := h.Storage.ListReportsByTenant(tenantID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	for i := range reports {
		reports[i].SecretKey = ""
	}
	c.JSON(http.StatusOK, reports)
}

// FileURL resolves an attachment key to a plain-text download URL.
func (h *Handler) FileURL(c *gin.Context) {
	url, err := h.Files.URL(models.AttachmentRef(c.Param("key")))
	if err != nil {
		h.notFoundOr500(c, err, "File not found")
		return
	}
	c.String(http.StatusOK, url)
}

// ServeFile streams attachment bytes from the disk store.
func (h *Handler) ServeFile(c *gin.Context) {
	disk, ok := h.Files.(*DiskStore)
	if !ok {
		c.Status(http.StatusNotFound)
		return
	}
	c.FileAttachment(disk.Dir+"/"+c.Param("key"), models.AttachmentRef(c.Param("key")).Name())
}

// --- Tenant administration ---

func envelope(message string, data any) models.APIResponse {
	return models.APIResponse{Status: "success", Message: message, Data: data}
}

func (h *Handler) GetAllTenants(c *gin.Context) {
	tenants, err := h.Storage.GetAllTenants()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, envelope("All tenants retrieved successfully", tenants))
}

func (h *Handler) AddTenant(c *gin.Context) {
	var tenant models.Tenant
	if err := c.ShouldBindJSON(&tenant); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if emptyText(tenant.Email) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email must not be empty"})
		return
	}
	if err := h.Storage.CreateTenant(&tenant); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, envelope("Tenant added successfully", tenant))
}

func (h *Handler) UpdateTenant(c *gin.Context) {
	var tenant models.Tenant
	if err := c.ShouldBindJSON(&tenant); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	updated, err := h.Storage.UpdateTenant(c.Param("tenantId"), &tenant)
	if err != nil {
		h.notFoundOr500(c, err, "Tenant not found")
		return
	}
	c.JSON(http.StatusOK, envelope("Tenant updated successfully", updated))
}

func (h *Handler) DeleteTenant(c *gin.Context) {
	deleted, err := h.Storage.DeleteTenant(c.Param("tenantId"))
	if err != nil {
		h.notFoundOr500(c, err, "Tenant not found")
		return
	}
	c.JSON(http.StatusOK, envelope("Tenant deleted successfully", deleted))
}

// --- Dev identity provider ---

// Login mints a bearer token. The dev provider accepts any credentials; it
// stands in for the hosted identity provider, not for real authentication.
func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email is required"})
		return
	}
	if req.Role == "" {
		req.Role = "ADMIN"
	}
	token, err := h.mintToken(req.Email, req.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "email": req.Email, "role": req.Role})
}

func (h *Handler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, envelope("Current user", gin.H{
		"email": c.GetString("email"),
		"role":  c.GetString("role"),
	}))
}

// InviteUser acknowledges the post-creation staff invite. The real identity
// provider would provision the account; the dev one just says yes.
func (h *Handler) InviteUser(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
		Role  string `json:"role"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, envelope("User invited", gin.H{"email": req.Email, "role": req.Role}))
}

// --- helpers ---

// bindMetaPart reads the JSON metadata part of a multipart request, falling
// back to a plain JSON body when the client skipped multipart.
func (h *Handler) bindMetaPart(c *gin.Context, field string, out any) error {
	if raw := c.Request.FormValue(field); raw != "" {
		return json.Unmarshal([]byte(raw), out)
	}
	if form, err := c.MultipartForm(); err == nil {
		if files := form.File[field]; len(files) > 0 {
			f, err := files[0].Open()
			if err != nil {
				return err
			}
			defer f.Close()
			return json.NewDecoder(f).Decode(out)
		}
	}
	return c.ShouldBindJSON(out)
}

// storeUploads persists every attachments file part and returns the keys.
func (h *Handler) storeUploads(c *gin.Context) ([]string, error) {
	form, err := c.MultipartForm()
	if err != nil {
		// Non-multipart request; nothing to store.
		return []string{}, nil
	}

	keys := []string{}
	for _, file := range form.File["attachments"] {
		f, err := file.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, err
		}
		key, err := h.Files.Save(file.Filename, data)
		if err != nil {
			return nil, err
		}
		keys = append(keys, string(key))
	}
	return keys, nil
}

func (h *Handler) notFoundOr500(c *gin.Context, err error, msg string) {
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": msg})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func emptyText(s string) bool {
	return strings.TrimSpace(s) == ""
}
