package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ankit76350/whistleblower/internal/api"
	"github.com/ankit76350/whistleblower/internal/auth"
	"github.com/ankit76350/whistleblower/internal/models"
)

func TestSubmitReportMultipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/whistleblower/anonymous/submitNewReport", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))

		require.NoError(t, r.ParseMultipartForm(1<<20))

		var meta struct {
			TenantID string `json:"tenantId"`
			Subject  string `json:"subject"`
			Message  string `json:"message"`
		}
		require.NoError(t, json.Unmarshal([]byte(r.FormValue("reportData")), &meta))
		assert.Equal(t, "tenant-1", meta.TenantID)
		assert.Equal(t, "Safety issue", meta.Subject)
		assert.Equal(t, "details", meta.Message)

		files := r.MultipartForm.File["attachments"]
		require.Len(t, files, 1)
		assert.Equal(t, "evidence.txt", files[0].Filename)
		f, err := files[0].Open()
		require.NoError(t, err)
		defer f.Close()
		content, err := io.ReadAll(f)
		require.NoError(t, err)
		assert.Equal(t, []byte("proof"), content)

		json.NewEncoder(w).Encode(models.Report{
			ReportID:  "r1",
			SecretKey: "deadbeef",
			Status:    models.StatusNew,
		})
	}))
	defer srv.Close()

	client := api.NewClient(srv.URL, auth.Anonymous)
	report, err := client.SubmitReport(context.Background(), "tenant-1", "Safety issue", "details",
		[]api.Upload{{Name: "evidence.txt", Content: []byte("proof")}})

	require.NoError(t, err)
	assert.Equal(t, "r1", report.ReportID)
	assert.Equal(t, "deadbeef", report.SecretKey)
}

func TestSubmitReportBackendRejects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := api.NewClient(srv.URL, nil).SubmitReport(context.Background(), "t", "s", "m", nil)

	var subErr *api.SubmissionError
	require.ErrorAs(t, err, &subErr)
	assert.Equal(t, http.StatusBadRequest, subErr.StatusCode)
}

func TestFetchThreadBySecret(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/whistleblower/report/secret-1/conversation", r.URL.Path)
		json.NewEncoder(w).Encode(models.Conversation{
			Report: models.Report{ReportID: "r1", Message: "initial"},
			Messages: []models.ConversationMessage{
				{ID: "m1", Sender: models.SenderComplianceTeam, Message: "hello"},
			},
		})
	}))
	defer srv.Close()

	conv, err := api.NewClient(srv.URL, nil).FetchThreadBySecret(context.Background(), "secret-1")

	require.NoError(t, err)
	assert.Equal(t, "r1", conv.Report.ReportID)
	require.Len(t, conv.Messages, 1)
	assert.Equal(t, models.SenderComplianceTeam, conv.Messages[0].Sender)
}

func TestFetchThreadNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := api.NewClient(srv.URL, nil).FetchThreadBySecret(context.Background(), "bogus")

	var lookupErr *api.LookupError
	require.ErrorAs(t, err, &lookupErr)
	assert.Equal(t, http.StatusNotFound, lookupErr.StatusCode)
}

func TestFetchThreadUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := api.NewClient(srv.URL, auth.StaticTokenSource("stale"))
	_, err := client.FetchThreadAsStaff(context.Background(), "t1", "r1")

	var authErr *api.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, http.StatusUnauthorized, authErr.StatusCode)
}

func TestBearerHeaderSent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode([]models.Report{})
	}))
	defer srv.Close()

	client := api.NewClient(srv.URL, auth.StaticTokenSource("tok-123"))
	_, err := client.ListReports(context.Background(), "t1")
	assert.NoError(t, err)
}

func TestTokenSourceFailureShortCircuits(t *testing.T) {
	requests := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
	}))
	defer srv.Close()

	client := api.NewClient(srv.URL, auth.NewSessionTokenSource())
	_, err := client.ListReports(context.Background(), "t1")

	var authErr *api.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.ErrorIs(t, err, auth.ErrSessionExpired)
	assert.Zero(t, requests, "no request may leave the client without a token")
}

func TestPostReplyMultipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/whistleblower/reports/r1/messages", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))

		var meta struct {
			Sender  models.MessageSender `json:"sender"`
			Message string               `json:"message"`
		}
		require.NoError(t, json.Unmarshal([]byte(r.FormValue("messageData")), &meta))
		assert.Equal(t, models.SenderReporter, meta.Sender)
		assert.Equal(t, "any news?", meta.Message)

		json.NewEncoder(w).Encode(models.ConversationMessage{ID: "m9", Message: meta.Message})
	}))
	defer srv.Close()

	msg, err := api.NewClient(srv.URL, nil).PostReply(context.Background(), "r1", models.SenderReporter, "any news?", nil)

	require.NoError(t, err)
	assert.Equal(t, "m9", msg.ID)
}

func TestSetStatusQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		require.Equal(t, "/whistleblower/reports/r1/status", r.URL.Path)
		assert.Equal(t, "CLOSED", r.URL.Query().Get("status"))
		json.NewEncoder(w).Encode(models.Report{ReportID: "r1", Status: models.StatusClosed})
	}))
	defer srv.Close()

	client := api.NewClient(srv.URL, auth.StaticTokenSource("tok"))
	report, err := client.SetStatus(context.Background(), "r1", models.StatusClosed)

	require.NoError(t, err)
	assert.Equal(t, models.StatusClosed, report.Status)
}

func TestSetStatusRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	}))
	defer srv.Close()

	client := api.NewClient(srv.URL, auth.StaticTokenSource("tok"))
	_, err := client.SetStatus(context.Background(), "r1", models.StatusClosed)

	var stErr *api.StatusUpdateError
	require.ErrorAs(t, err, &stErr)
	assert.Equal(t, "r1", stErr.ReportID)
}

func TestTenantsEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/whistleblower/admin/getAllTenants", r.URL.Path)
		json.NewEncoder(w).Encode(models.APIResponse{
			Status:  "OK",
			Message: "fetched",
			Data: []models.Tenant{
				{TenantID: "t1", Email: "legal@example.com", CompanyName: "Acme"},
			},
		})
	}))
	defer srv.Close()

	client := api.NewClient(srv.URL, auth.StaticTokenSource("tok"))
	tenants, err := client.Tenants(context.Background())

	require.NoError(t, err)
	require.Len(t, tenants, 1)
	assert.Equal(t, "Acme", tenants[0].CompanyName)
}

func TestAddTenantSurvivesInviteFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/whistleblower/admin/addNewTenant":
			json.NewEncoder(w).Encode(models.APIResponse{
				Status: "OK",
				Data:   models.Tenant{TenantID: "t-new", Email: "new@example.com"},
			})
		case "/admin/invite/user":
			w.WriteHeader(http.StatusBadGateway)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer srv.Close()

	client := api.NewClient(srv.URL, auth.StaticTokenSource("tok"))
	tenant, err := client.AddTenant(context.Background(), "new@example.com", "NewCo", "ADMIN")

	require.NoError(t, err, "invite failure must not surface; the tenant exists")
	assert.Equal(t, "t-new", tenant.TenantID)
}

func TestFileURLTrimsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/whistleblower/file-url/abc_doc.pdf", r.URL.Path)
		io.WriteString(w, "https://files.example.com/abc_doc.pdf\n")
	}))
	defer srv.Close()

	url, err := api.NewClient(srv.URL, nil).FileURL(context.Background(), models.AttachmentRef("abc_doc.pdf"))

	require.NoError(t, err)
	assert.Equal(t, "https://files.example.com/abc_doc.pdf", url)
}

func TestUnreachableBackend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	_, err := api.NewClient(srv.URL, nil).FetchThreadBySecret(context.Background(), "k")

	var transportErr *api.TransportError
	assert.True(t, errors.As(err, &transportErr))
}
