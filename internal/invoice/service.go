package invoice

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/invoicely/invoicely/internal/i18n"
	"github.com/invoicely/invoicely/internal/shared"
)

// Auditor records user actions.
type Auditor interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Enqueuer schedules background PDF rendering after an invoice changes.
type Enqueuer interface {
	EnqueuePDFWarmup(ctx context.Context, invoiceID string, locale string) error
}

// Service wraps invoice business rules. It is the layer that computes totals;
// views only format what it hands them.
type Service struct {
	repo      Repository
	audit     Auditor
	enqueuer  Enqueuer
	logger    *slog.Logger
	validator *validator.Validate
	now       func() time.Time
}

// ServiceOption customises a Service.
type ServiceOption func(*Service)

// WithAuditor records create/update/delete actions.
func WithAuditor(a Auditor) ServiceOption {
	return func(s *Service) { s.audit = a }
}

// WithEnqueuer schedules PDF warm-ups after updates.
func WithEnqueuer(e Enqueuer) ServiceOption {
	return func(s *Service) { s.enqueuer = e }
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// NewService constructs a Service.
func NewService(repo Repository, logger *slog.Logger, opts ...ServiceOption) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		repo:      repo,
		logger:    logger,
		validator: validator.New(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create starts an empty invoice with the given display name.
func (s *Service) Create(ctx context.Context, ownerID int64, name string) (*Invoice, error) {
	name = strings.TrimSpace(name)
	if err := s.validator.Var(name, "required,max=120"); err != nil {
		return nil, &ValidationError{Fields: map[string]string{"Name": "required"}}
	}
	now := s.now().UTC()
	inv := Invoice{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Name:      name,
		VATRate:   DefaultVATRate,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, inv); err != nil {
		return nil, err
	}
	s.record(ctx, ownerID, "invoice.create", inv.ID, map[string]any{"name": name})
	return &inv, nil
}

// Get returns an owned invoice together with its totals.
func (s *Service) Get(ctx context.Context, ownerID int64, id string) (*Invoice, Totals, error) {
	if !validID(id) {
		return nil, Totals{}, ErrNotFound
	}
	inv, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, Totals{}, err
	}
	if inv.OwnerID != ownerID {
		return nil, Totals{}, ErrNotFound
	}
	return inv, ComputeTotals(*inv), nil
}

// Load returns any invoice by id, for background jobs that act on behalf of the owner.
func (s *Service) Load(ctx context.Context, id string) (*Invoice, Totals, error) {
	if !validID(id) {
		return nil, Totals{}, ErrNotFound
	}
	inv, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, Totals{}, err
	}
	return inv, ComputeTotals(*inv), nil
}

// List returns the owner's invoices without lines.
func (s *Service) List(ctx context.Context, ownerID int64) ([]Invoice, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

// Update validates and stores the submitted fields, replacing all lines.
func (s *Service) Update(ctx context.Context, ownerID int64, id string, in UpdateInput) (*Invoice, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := s.validate(in); err != nil {
		return nil, err
	}
	if !validID(id) {
		return nil, ErrNotFound
	}
	current, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.OwnerID != ownerID {
		return nil, ErrNotFound
	}

	inv := *current
	inv.Name = in.Name
	inv.IssuerName = strings.TrimSpace(in.IssuerName)
	inv.IssuerAddress = strings.TrimSpace(in.IssuerAddress)
	inv.ClientName = strings.TrimSpace(in.ClientName)
	inv.ClientAddress = strings.TrimSpace(in.ClientAddress)
	inv.InvoiceDate = in.InvoiceDate
	inv.DueDate = in.DueDate
	inv.VATActive = in.VATActive
	inv.VATRate = in.VATRate
	inv.Lines = make([]Line, 0, len(in.Lines))
	for _, l := range in.Lines {
		inv.Lines = append(inv.Lines, Line{Description: strings.TrimSpace(l.Description), Quantity: l.Quantity, UnitPrice: l.UnitPrice})
	}
	inv.UpdatedAt = s.now().UTC()

	if err := s.repo.Update(ctx, inv); err != nil {
		return nil, err
	}
	s.record(ctx, ownerID, "invoice.update", inv.ID, map[string]any{"lines": len(inv.Lines)})
	s.warmup(ctx, inv.ID)
	return &inv, nil
}

// Delete removes an owned invoice.
func (s *Service) Delete(ctx context.Context, ownerID int64, id string) error {
	if !validID(id) {
		return ErrNotFound
	}
	if err := s.repo.Delete(ctx, ownerID, id); err != nil {
		return err
	}
	s.record(ctx, ownerID, "invoice.delete", id, nil)
	return nil
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}

func (s *Service) validate(in UpdateInput) error {
	fields := make(map[string]string)
	if err := s.validator.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			fields[strings.TrimPrefix(fe.Namespace(), "UpdateInput.")] = fe.Tag()
		}
	}
	if !in.InvoiceDate.IsZero() && !in.DueDate.IsZero() && in.DueDate.Before(in.InvoiceDate) {
		fields["DueDate"] = "gtefield"
	}
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func (s *Service) record(ctx context.Context, actor int64, action, id string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, shared.AuditLog{ActorID: actor, Action: action, Entity: "invoice", EntityID: id, Meta: meta}); err != nil {
		s.logger.Warn("audit invoice", slog.String("action", action), slog.Any("error", err))
	}
}

func (s *Service) warmup(ctx context.Context, id string) {
	if s.enqueuer == nil {
		return
	}
	for _, loc := range i18n.Supported {
		if err := s.enqueuer.EnqueuePDFWarmup(ctx, id, string(loc)); err != nil {
			s.logger.Warn("enqueue pdf warmup", slog.String("invoice_id", id), slog.Any("error", err))
		}
	}
}
