package devserver

import (
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/mock"

	"github.com/ankit76350/whistleblower/internal/models"
)

// MockStorage is a testify double for Storage. SubscribeEvents returns nil so
// tests feed broadcasts straight into Hub.PubSubCh.
type MockStorage struct {
	mock.Mock
}

func (m *MockStorage) CreateTenant(t *models.Tenant) error {
	return m.Called(t).Error(0)
}

func (m *MockStorage) GetTenant(tenantID string) (*models.Tenant, error) {
	args := m.Called(tenantID)
	t, _ := args.Get(0).(*models.Tenant)
	return t, args.Error(1)
}

func (m *MockStorage) GetAllTenants() ([]models.Tenant, error) {
	args := m.Called()
	tenants, _ := args.Get(0).([]models.Tenant)
	return tenants, args.Error(1)
}

func (m *MockStorage) UpdateTenant(tenantID string, t *models.Tenant) (*models.Tenant, error) {
	args := m.Called(tenantID, t)
	updated, _ := args.Get(0).(*models.Tenant)
	return updated, args.Error(1)
}

func (m *MockStorage) DeleteTenant(tenantID string) (*models.Tenant, error) {
	args := m.Called(tenantID)
	deleted, _ := args.Get(0).(*models.Tenant)
	return deleted, args.Error(1)
}

func (m *MockStorage) CreateReport(r *models.Report) error {
	return m.Called(r).Error(0)
}

func (m *MockStorage) GetReportBySecret(secretKey string) (*models.Report, error) {
	args := m.Called(secretKey)
	r, _ := args.Get(0).(*models.Report)
	return r, args.Error(1)
}

func (m *MockStorage) GetReportByID(reportID string) (*models.Report, error) {
	args := m.Called(reportID)
	r, _ := args.Get(0).(*models.Report)
	return r, args.Error(1)
}

func (m *MockStorage) GetReportForTenant(tenantID, reportID string) (*models.Report, error) {
	args := m.Called(tenantID, reportID)
	r, _ := args.Get(0).(*models.Report)
	return r, args.Error(1)
}

func (m *MockStorage) ListReportsByTenant(tenantID string) ([]models.Report, error) {
	args := m.Called(tenantID)
	reports, _ := args.Get(0).([]models.Report)
	return reports, args.Error(1)
}

func (m *MockStorage) UpdateReport(r *models.Report) error {
	return m.Called(r).Error(0)
}

func (m *MockStorage) CreateMessage(msg *models.ConversationMessage) error {
	return m.Called(msg).Error(0)
}

func (m *MockStorage) ListMessages(reportID string) ([]models.ConversationMessage, error) {
	args := m.Called(reportID)
	msgs, _ := args.Get(0).([]models.ConversationMessage)
	return msgs, args.Error(1)
}

func (m *MockStorage) PublishEvent(reportID string, ev models.LiveEvent) error {
	return m.Called(reportID, ev).Error(0)
}

func (m *MockStorage) SubscribeEvents() *redis.PubSub {
	return nil
}
