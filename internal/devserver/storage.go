package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/ankit76350/whistleblower/internal/models"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// Storage is the persistence surface of the dev backend.
type Storage interface {
	CreateTenant(t *models.Tenant) error
	GetTenant(tenantID string) (*models.Tenant, error)
	GetAllTenants() ([]models.Tenant, error)
	UpdateTenant(tenantID string, t *models.Tenant) (*models.Tenant, error)
	DeleteTenant(tenantID string) (*models.Tenant, error)

	CreateReport(r *models.Report) error
	GetReportBySecret(secretKey string) (*models.Report, error)
	GetReportByID(reportID string) (*models.Report, error)
	GetReportForTenant(tenantID, reportID string) (*models.Report, error)
	ListReportsByTenant(tenantID string) ([]models.Report, error)
	UpdateReport(r *models.Report) error

	CreateMessage(m *models.ConversationMessage) error
	ListMessages(reportID string) ([]models.ConversationMessage, error)

	PublishEvent(reportID string, ev models.LiveEvent) error
	SubscribeEvents() *redis.PubSub
}

// Service is the Postgres + Redis backed Storage implementation.
type Service struct {
	DB    *gorm.DB
	Redis *redis.Client
	Ctx   context.Context
}

// NewService wraps open database and Redis handles.
func NewService(db *gorm.DB, rdb *redis.Client) *Service {
	return &Service{DB: db, Redis: rdb, Ctx: context.Background()}
}

// Migrate creates the portal tables.
func (s *Service) Migrate() error {
	return s.DB.AutoMigrate(
		&models.Tenant{},
		&models.Report{},
		&models.ConversationMessage{},
	)
}

func (s *Service) CreateTenant(t *models.Tenant) error {
	now := time.Now().Unix()
	t.CreatedAt = now
	t.UpdatedAt = now
	if t.Role == "" {
		t.Role = "ADMIN"
	}
	t.Active = true
	return s.DB.Create(t).Error
}

func (s *Service) GetTenant(tenantID string) (*models.Tenant, error) {
	var t models.Tenant
	err := s.DB.Where("tenant_id = ?", tenantID).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Service) GetAllTenants() ([]models.Tenant, error) {
	var tenants []models.Tenant
	if err := s.DB.Order("created_at asc").Find(&tenants).Error; err != nil {
		return nil, err
	}
	return tenants, nil
}

func (s *Service) UpdateTenant(tenantID string, t *models.Tenant) (*models.Tenant, error) {
	existing, err := s.GetTenant(tenantID)
	if err != nil {
		return nil, err
	}
	existing.Email = t.Email
	existing.CompanyName = t.CompanyName
	existing.Role = t.Role
	existing.Active = t.Active
	existing.UpdatedAt = time.Now().Unix()
	if err := s.DB.Save(existing).Error; err != nil {
		return nil, err
	}
	return existing, nil
}

func (s *Service) DeleteTenant(tenantID string) (*models.Tenant, error) {
	existing, err := s.GetTenant(tenantID)
	if err != nil {
		return nil, err
	}
	if err := s.DB.Delete(&models.Tenant{}, "tenant_id = ?", tenantID).Error; err != nil {
		return nil, err
	}
	return existing, nil
}

func (s *Service) CreateReport(r *models.Report) error {
	return s.DB.Create(r).Error
}

func (s *Service) GetReportBySecret(secretKey string) (*models.Report, error) {
	var r models.Report
	err := s.DB.Where("secret_key = ?", secretKey).First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Service) GetReportByID(reportID string) (*models.Report, error) {
	var r models.Report
	err := s.DB.Where("report_id = ?", reportID).First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Service) GetReportForTenant(tenantID, reportID string) (*models.Report, error) {
	var r models.Report
	err := s.DB.Where("report_id = ? AND tenant_id = ?", reportID, tenantID).First(&r).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *Service) ListReportsByTenant(tenantID string) ([]models.Report, error) {
	var reports []models.Report
	if err := s.DB.Where("tenant_id = ?", tenantID).Order("created_at desc").Find(&reports).Error; err != nil {
		return nil, err
	}
	return reports, nil
}

func (s *Service) UpdateReport(r *models.Report) error {
	r.UpdatedAt = time.Now().Unix()
	return s.DB.Save(r).Error
}

func (s *Service) CreateMessage(m *models.ConversationMessage) error {
	return s.DB.Create(m).Error
}

func (s *Service) ListMessages(reportID string) ([]models.ConversationMessage, error) {
	var msgs []models.ConversationMessage
	err := s.DB.Where("report_id = ?", reportID).Order("created_at asc").Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

const eventChannelPrefix = "live:"

// PublishEvent fans a live event out through Redis so every gateway instance
// holding connections for the report can deliver it.
func (s *Service) PublishEvent(reportID string, ev models.LiveEvent) error {
	payload, err := json.Marshal(broadcast{ReportID: reportID, Event: ev})
	if err != nil {
		return err
	}
	return s.Redis.Publish(s.Ctx, eventChannelPrefix+reportID, payload).Err()
}

// SubscribeEvents subscribes to live events for all reports.
func (s *Service) SubscribeEvents() *redis.PubSub {
	return s.Redis.PSubscribe(s.Ctx, eventChannelPrefix+"*")
}
