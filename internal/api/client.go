// Package api is the transport client for the whistleblower backend. It
// performs authenticated request/response exchanges; the live WebSocket
// channel lives in the livefeed package.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"

	"github.com/apex/log"

	"github.com/ankit76350/whistleblower/internal/auth"
	"github.com/ankit76350/whistleblower/internal/models"
)

// Upload is a file handed to a submission or reply.
type Upload struct {
	Name    string
	Content []byte
}

// StaffProfile describes the authenticated staff account (/admin/me).
type StaffProfile struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Client issues HTTP requests against the backend REST API. The token source
// is injected; the client holds no mutable auth state of its own.
type Client struct {
	baseURL string
	httpc   *http.Client
	tokens  auth.TokenSource
}

// NewClient builds a client for the given base URL. A nil token source means
// anonymous (reporter) access.
func NewClient(baseURL string, tokens auth.TokenSource) *Client {
	if tokens == nil {
		tokens = auth.Anonymous
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{},
		tokens:  tokens,
	}
}

// WithHTTPClient swaps the underlying http.Client, mainly for tests.
func (c *Client) WithHTTPClient(h *http.Client) *Client {
	c.httpc = h
	return c
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}

	token, err := c.tokens.Token()
	if err != nil {
		return nil, &AuthError{Op: method + " " + path, Err: err}
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

func isAuthStatus(code int) bool {
	return code == http.StatusUnauthorized || code == http.StatusForbidden
}

// multipartBody packs a JSON metadata part plus any file parts the way the
// backend's multipart endpoints expect.
func multipartBody(jsonField string, payload any, uploads []Upload) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q`, jsonField))
	hdr.Set("Content-Type", "application/json")
	part, err := w.CreatePart(hdr)
	if err != nil {
		return nil, "", err
	}
	if err := json.NewEncoder(part).Encode(payload); err != nil {
		return nil, "", err
	}

	for _, up := range uploads {
		fw, err := w.CreateFormFile("attachments", up.Name)
		if err != nil {
			return nil, "", err
		}
		if _, err := fw.Write(up.Content); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}

// SubmitReport creates a new anonymous report and returns it, secret key
// included. Failures are caller-visible; the user must resubmit.
func (c *Client) SubmitReport(ctx context.Context, tenantID, subject, body string, uploads []Upload) (*models.Report, error) {
	payload := struct {
		TenantID    string   `json:"tenantId"`
		Subject     string   `json:"subject"`
		Message     string   `json:"message"`
		Attachments []string `json:"attachments"`
	}{TenantID: tenantID, Subject: subject, Message: body, Attachments: []string{}}

	reqBody, contentType, err := multipartBody("reportData", payload, uploads)
	if err != nil {
		return nil, &SubmissionError{Op: "submit report", Err: err}
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/whistleblower/anonymous/submitNewReport", reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, &TransportError{Op: "submit report", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &SubmissionError{Op: "submit report", StatusCode: resp.StatusCode}
	}

	var report models.Report
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return nil, &SubmissionError{Op: "submit report", Err: err}
	}
	return &report, nil
}

// FetchThreadBySecret loads the report and its conversation for a reporter.
// Any failure is a LookupError; the view shows "session may have expired".
func (c *Client) FetchThreadBySecret(ctx context.Context, secretKey string) (*models.Conversation, error) {
	path := "/whistleblower/report/" + url.PathEscape(secretKey) + "/conversation"
	return c.fetchThread(ctx, path)
}

// FetchThreadAsStaff is the authenticated staff equivalent.
func (c *Client) FetchThreadAsStaff(ctx context.Context, tenantID, reportID string) (*models.Conversation, error) {
	path := "/whistleblower/tenant/" + url.PathEscape(tenantID) + "/report/" + url.PathEscape(reportID) + "/conversation"
	return c.fetchThread(ctx, path)
}

func (c *Client) fetchThread(ctx context.Context, path string) (*models.Conversation, error) {
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, &TransportError{Op: "fetch thread", Err: err}
	}
	defer resp.Body.Close()

	switch {
	case isAuthStatus(resp.StatusCode):
		return nil, &AuthError{Op: "fetch thread", StatusCode: resp.StatusCode}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, &LookupError{Op: "fetch thread", StatusCode: resp.StatusCode}
	}

	var conv models.Conversation
	if err := json.NewDecoder(resp.Body).Decode(&conv); err != nil {
		return nil, &LookupError{Op: "fetch thread", Err: err}
	}
	return &conv, nil
}

// PostReply appends a message to a report's thread. On success the caller is
// responsible for announcing the message over the live channel.
func (c *Client) PostReply(ctx context.Context, reportID string, sender models.MessageSender, body string, uploads []Upload) (*models.ConversationMessage, error) {
	payload := struct {
		Sender      models.MessageSender `json:"sender"`
		Message     string               `json:"message"`
		Attachments []string             `json:"attachments"`
	}{Sender: sender, Message: body, Attachments: []string{}}

	reqBody, contentType, err := multipartBody("messageData", payload, uploads)
	if err != nil {
		return nil, &SubmissionError{Op: "post reply", Err: err}
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/whistleblower/reports/"+url.PathEscape(reportID)+"/messages", reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, &TransportError{Op: "post reply", Err: err}
	}
	defer resp.Body.Close()

	switch {
	case isAuthStatus(resp.StatusCode):
		return nil, &AuthError{Op: "post reply", StatusCode: resp.StatusCode}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, &SubmissionError{Op: "post reply", StatusCode: resp.StatusCode}
	}

	var msg models.ConversationMessage
	if err := json.NewDecoder(resp.Body).Decode(&msg); err != nil {
		return nil, &SubmissionError{Op: "post reply", Err: err}
	}
	return &msg, nil
}

// SetStatus requests a status change. Any enumerated status may be requested;
// the backend decides legality.
func (c *Client) SetStatus(ctx context.Context, reportID string, status models.ReportStatus) (*models.Report, error) {
	path := "/whistleblower/reports/" + url.PathEscape(reportID) + "/status?status=" + url.QueryEscape(string(status))
	req, err := c.newRequest(ctx, http.MethodPut, path, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, &TransportError{Op: "update status", Err: err}
	}
	defer resp.Body.Close()

	switch {
	case isAuthStatus(resp.StatusCode):
		return nil, &AuthError{Op: "update status", StatusCode: resp.StatusCode}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, &StatusUpdateError{ReportID: reportID, StatusCode: resp.StatusCode}
	}

	var report models.Report
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		return nil, &StatusUpdateError{ReportID: reportID, Err: err}
	}
	return &report, nil
}

// ListReports returns the inbox for a tenant.
func (c *Client) ListReports(ctx context.Context, tenantID string) ([]models.Report, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/whistleblower/tenant/"+url.PathEscape(tenantID)+"/reports", nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, &TransportError{Op: "list reports", Err: err}
	}
	defer resp.Body.Close()

	switch {
	case isAuthStatus(resp.StatusCode):
		return nil, &AuthError{Op: "list reports", StatusCode: resp.StatusCode}
	case resp.StatusCode == http.StatusNotFound:
		return nil, &LookupError{Op: "list reports", StatusCode: resp.StatusCode}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, &TransportError{Op: "list reports", Err: fmt.Errorf("backend returned status %d", resp.StatusCode)}
	}

	var reports []models.Report
	if err := json.NewDecoder(resp.Body).Decode(&reports); err != nil {
		return nil, &TransportError{Op: "list reports", Err: err}
	}
	return reports, nil
}

// FileURL resolves an attachment storage key to a downloadable URL.
func (c *Client) FileURL(ctx context.Context, key models.AttachmentRef) (string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/whistleblower/file-url/"+url.PathEscape(string(key)), nil)
	if err != nil {
		return "", err
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", &TransportError{Op: "resolve file url", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &LookupError{Op: "resolve file url", StatusCode: resp.StatusCode}
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &TransportError{Op: "resolve file url", Err: err}
	}
	return strings.TrimSpace(string(raw)), nil
}

// tenantEnvelope decodes the ApiResponse wrapper the admin endpoints use.
type tenantEnvelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (c *Client) doAdmin(ctx context.Context, method, path string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return &TransportError{Op: method + " " + path, Err: err}
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := c.newRequest(ctx, method, path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return &TransportError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case isAuthStatus(resp.StatusCode):
		return &AuthError{Op: method + " " + path, StatusCode: resp.StatusCode}
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return &TransportError{Op: method + " " + path, Err: fmt.Errorf("backend returned status %d", resp.StatusCode)}
	}

	if out == nil {
		return nil
	}
	var env tenantEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return &TransportError{Op: method + " " + path, Err: err}
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &TransportError{Op: method + " " + path, Err: err}
	}
	return nil
}

// Tenants lists all tenant records.
func (c *Client) Tenants(ctx context.Context) ([]models.Tenant, error) {
	var tenants []models.Tenant
	if err := c.doAdmin(ctx, http.MethodGet, "/whistleblower/admin/getAllTenants", nil, &tenants); err != nil {
		return nil, err
	}
	return tenants, nil
}

// AddTenant creates a tenant and then invites its staff user via the identity
// provider. A failed invite is logged, not returned: the tenant record exists
// either way.
func (c *Client) AddTenant(ctx context.Context, email, companyName, role string) (*models.Tenant, error) {
	payload := models.Tenant{Email: email, CompanyName: companyName, Role: role}

	var created models.Tenant
	if err := c.doAdmin(ctx, http.MethodPost, "/whistleblower/admin/addNewTenant", payload, &created); err != nil {
		return nil, err
	}

	invite := struct {
		Email string `json:"email"`
		Role  string `json:"role"`
	}{Email: email, Role: role}
	if err := c.doAdmin(ctx, http.MethodPost, "/admin/invite/user", invite, nil); err != nil {
		log.WithField("email", email).Warnf("tenant created but user invite failed: %v", err)
	}

	return &created, nil
}

// UpdateTenant overwrites a tenant record.
func (c *Client) UpdateTenant(ctx context.Context, tenantID string, t models.Tenant) (*models.Tenant, error) {
	var updated models.Tenant
	if err := c.doAdmin(ctx, http.MethodPut, "/whistleblower/admin/updateTenant/"+url.PathEscape(tenantID), t, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteTenant removes a tenant record and returns the deleted record.
func (c *Client) DeleteTenant(ctx context.Context, tenantID string) (*models.Tenant, error) {
	var deleted models.Tenant
	if err := c.doAdmin(ctx, http.MethodDelete, "/whistleblower/deleteTenant/"+url.PathEscape(tenantID), nil, &deleted); err != nil {
		return nil, err
	}
	return &deleted, nil
}

// Me returns the authenticated staff profile.
func (c *Client) Me(ctx context.Context) (*StaffProfile, error) {
	var profile StaffProfile
	if err := c.doAdmin(ctx, http.MethodGet, "/admin/me", nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}
