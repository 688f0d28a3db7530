package service

import (
	"context"
	"fmt"

	"github.com/callmaker24/segmentation/internal/domain"
	"github.com/callmaker24/segmentation/pkg/logger"
)

// CustomerService ingests customer records and their activity
type CustomerService struct {
	customerRepo domain.CustomerRepository
	activityRepo domain.ActivityRepository
	logger       logger.Logger
}

var _ domain.CustomerService = (*CustomerService)(nil)

// NewCustomerService creates a new customer service
func NewCustomerService(
	customerRepo domain.CustomerRepository,
	activityRepo domain.ActivityRepository,
	logger logger.Logger,
) *CustomerService {
	return &CustomerService{
		customerRepo: customerRepo,
		activityRepo: activityRepo,
		logger:       logger,
	}
}

// UpsertCustomer stores identity, commerce and loyalty facts; the snapshot is left untouched
func (s *CustomerService) UpsertCustomer(ctx context.Context, customer *domain.Customer) (bool, error) {
	if err := customer.Validate(); err != nil {
		return false, domain.NewValidationError(err.Error())
	}

	created, err := s.customerRepo.UpsertCustomer(ctx, customer)
	if err != nil {
		s.logger.WithFields(map[string]interface{}{
			"organization_id": customer.OrganizationID,
			"customer_id":     customer.ID,
			"error":           err.Error(),
		}).Error("Failed to upsert customer")
		return false, fmt.Errorf("failed to upsert customer: %w", err)
	}

	s.logger.WithFields(map[string]interface{}{
		"organization_id": customer.OrganizationID,
		"customer_id":     customer.ID,
		"created":         created,
	}).Debug("Customer upserted")

	return created, nil
}

// GetCustomer retrieves a customer with its segmentation snapshot
func (s *CustomerService) GetCustomer(ctx context.Context, organizationID, customerID string) (*domain.Customer, error) {
	customer, err := s.customerRepo.GetCustomer(ctx, organizationID, customerID)
	if err != nil {
		return nil, err
	}
	return customer, nil
}

// ListCustomers pages through customers with optional churn, tag and tier filters
func (s *CustomerService) ListCustomers(ctx context.Context, req *domain.ListCustomersRequest) (*domain.ListCustomersResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, domain.NewValidationError(err.Error())
	}

	resp, err := s.customerRepo.ListCustomers(ctx, req)
	if err != nil {
		s.logger.WithFields(map[string]interface{}{
			"organization_id": req.OrganizationID,
			"error":           err.Error(),
		}).Error("Failed to list customers")
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	return resp, nil
}

// RecordActivity stores one customer activity
func (s *CustomerService) RecordActivity(ctx context.Context, activity *domain.Activity) error {
	if err := activity.Validate(); err != nil {
		return domain.NewValidationError(err.Error())
	}

	if err := s.activityRepo.CreateActivity(ctx, activity); err != nil {
		if domain.IsNotFound(err) {
			return err
		}
		s.logger.WithFields(map[string]interface{}{
			"organization_id": activity.OrganizationID,
			"customer_id":     activity.CustomerID,
			"activity_type":   activity.Type,
			"error":           err.Error(),
		}).Error("Failed to record activity")
		return fmt.Errorf("failed to record activity: %w", err)
	}
	return nil
}
