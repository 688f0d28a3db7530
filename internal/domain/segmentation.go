package domain

import (
	"context"
	"fmt"
	"time"
)

//go:generate mockgen -destination mocks/mock_segmentation_service.go -package mocks github.com/callmaker24/segmentation/internal/domain SegmentationService
//go:generate mockgen -destination mocks/mock_webhook_notifier.go -package mocks github.com/callmaker24/segmentation/internal/domain WebhookNotifier

// Webhook event types emitted by the segmentation pipeline
const (
	EventCustomersRecalculated = "customers.recalculated"
	EventSegmentsAssigned      = "segments.assigned"
)

// CustomerFailure records why one customer could not be recalculated
type CustomerFailure struct {
	CustomerID string `json:"customer_id"`
	Error      string `json:"error"`
}

// RecalculationResult summarizes a bulk recalculation. Processed counts
// successes only; Processed + Failed equals the number of customers attempted.
type RecalculationResult struct {
	OrganizationID string            `json:"organization_id"`
	Processed      int               `json:"processed"`
	Failed         int               `json:"failed"`
	Failures       []CustomerFailure `json:"failures,omitempty"`
	StartedAt      time.Time         `json:"started_at"`
	CompletedAt    time.Time         `json:"completed_at"`
}

// EvaluationResult is the outcome of recalculating then assigning segments
type EvaluationResult struct {
	OrganizationID string                     `json:"organization_id"`
	Processed      int                        `json:"processed"`
	Failed         int                        `json:"failed"`
	Segments       []SegmentAssignmentSummary `json:"segments"`
}

type OrganizationRequest struct {
	OrganizationID string `json:"organization_id"`
}

func (r *OrganizationRequest) Validate() error {
	if r.OrganizationID == "" {
		return fmt.Errorf("organization_id is required")
	}
	return nil
}

type RecalculateCustomerRequest struct {
	OrganizationID string `json:"organization_id"`
	CustomerID     string `json:"customer_id"`
}

func (r *RecalculateCustomerRequest) Validate() error {
	if r.OrganizationID == "" {
		return fmt.Errorf("organization_id is required")
	}
	if r.CustomerID == "" {
		return fmt.Errorf("customer_id is required")
	}
	return nil
}

// SegmentationService scores customers and drives the evaluation pipeline
type SegmentationService interface {
	// RecalculateCustomer recomputes and persists the snapshot of one customer
	RecalculateCustomer(ctx context.Context, organizationID, customerID string) (*SegmentationSnapshot, error)

	// RecalculateOrganization recalculates every customer, tolerating per-customer failures
	RecalculateOrganization(ctx context.Context, organizationID string) (*RecalculationResult, error)

	// EvaluateOrganization recalculates every customer then assigns AI segments
	EvaluateOrganization(ctx context.Context, organizationID string) (*EvaluationResult, error)
}

// WebhookNotifier delivers segmentation events to an external endpoint
type WebhookNotifier interface {
	Notify(ctx context.Context, eventType string, payload interface{}) error
}
