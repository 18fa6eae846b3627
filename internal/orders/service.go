package orders

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/andikurnia/fotoprint-backend/pkg/db"
	"github.com/andikurnia/fotoprint-backend/pkg/db/models"
	"github.com/andikurnia/fotoprint-backend/pkg/enums"
	pkgerrors "github.com/andikurnia/fotoprint-backend/pkg/errors"
	"github.com/andikurnia/fotoprint-backend/pkg/logger"
	"github.com/andikurnia/fotoprint-backend/pkg/midtrans"
)

const (
	paymentRefPrefix = "PRINT"
	paymentRefMaxLen = 50

	customerNameMaxLen  = 120
	customerEmailMaxLen = 254

	minQty = 1
	maxQty = 20
)

var (
	tokenPattern     = regexp.MustCompile(`^[a-zA-Z0-9]+$`)
	sharePathPattern = regexp.MustCompile(`^/i/([a-zA-Z0-9]+)$`)
	emailPattern     = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// Service owns the print-order lifecycle: it is the only writer of order rows.
type Service interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*CreateOrderResult, error)
	ApplyNotification(ctx context.Context, input NotificationInput) (*NotificationResult, error)
	MarkPrinted(ctx context.Context, orderID uuid.UUID) (*models.PrintOrder, error)
	ListOrders(ctx context.Context, filter ListFilter) ([]OrderView, error)
}

// ServiceParams collects the service dependencies.
type ServiceParams struct {
	Repo          Repository
	Snap          midtrans.SnapClient
	FotoshareHost string
	Logger        *logger.Logger
	Now           func() time.Time
}

type service struct {
	repo          Repository
	snap          midtrans.SnapClient
	fotoshareHost string
	logg          *logger.Logger
	now           func() time.Time
}

// NewService builds the lifecycle service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Snap == nil {
		return nil, fmt.Errorf("snap client required")
	}
	if params.FotoshareHost == "" {
		return nil, fmt.Errorf("fotoshare host required")
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &service{
		repo:          params.Repo,
		snap:          params.Snap,
		fotoshareHost: params.FotoshareHost,
		logg:          params.Logger,
		now:           params.Now,
	}, nil
}

func (s *service) CreateOrder(ctx context.Context, input CreateOrderInput) (*CreateOrderResult, error) {
	token, err := s.parseFotoshareInput(input.PhotoInput)
	if err != nil {
		return nil, err
	}

	size, sizeErr := enums.ParsePrintSize(input.Size)
	if sizeErr != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid size").
			WithDetails(map[string]any{"size": input.Size})
	}

	if input.Qty < minQty || input.Qty > maxQty {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("qty must be %d..%d", minQty, maxQty)).
			WithDetails(map[string]any{"qty": input.Qty})
	}

	name := strings.TrimSpace(input.CustomerName)
	if len(name) > customerNameMaxLen {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer name too long")
	}

	email := strings.TrimSpace(input.CustomerEmail)
	if email != "" {
		if len(email) > customerEmailMaxLen || !emailPattern.MatchString(email) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid customer email")
		}
	}

	unitPrice := size.UnitPrice()
	amount := unitPrice * int64(input.Qty)
	paymentRef := s.newPaymentRef()

	order := &models.PrintOrder{
		ID:              uuid.New(),
		MidtransOrderID: paymentRef,
		FotoshareToken:  token,
		Size:            size,
		Qty:             input.Qty,
		Amount:          amount,
		Status:          enums.OrderStatusPending,
	}
	if name != "" {
		order.CustomerName = &name
	}
	if email != "" {
		order.CustomerEmail = &email
	}

	// The PENDING row goes in before the gateway is contacted so every
	// session attempt leaves an audit trail even if the call never returns.
	if err := s.repo.Create(ctx, order); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "payment reference collision")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "insert order")
	}

	session, snapErr := s.snap.CreateTransaction(ctx, midtrans.SnapRequest{
		OrderRef:      paymentRef,
		GrossAmount:   amount,
		ItemID:        "print-" + size.String(),
		ItemName:      "Photo Print " + size.String(),
		UnitPrice:     unitPrice,
		Quantity:      input.Qty,
		CustomerName:  name,
		CustomerEmail: email,
	})
	if snapErr != nil {
		s.failSession(ctx, order.ID, snapErr)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, snapErr, "checkout session creation failed").
			WithDetails(map[string]any{"midtrans_order_id": paymentRef})
	}

	if err := s.repo.StoreSnapSession(ctx, order.ID, session.Token, session.RedirectURL); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "store snap session")
	}

	return &CreateOrderResult{
		OrderID:         order.ID,
		MidtransOrderID: paymentRef,
		Amount:          amount,
		SnapToken:       session.Token,
		SnapRedirectURL: session.RedirectURL,
	}, nil
}

// failSession resolves the order to FAILED after a session-creation error.
// A known-failed order must never linger as PENDING without an audit trail.
func (s *service) failSession(ctx context.Context, orderID uuid.UUID, snapErr error) {
	detail := snapErr.Error()
	var gatewayErr *midtrans.GatewayError
	if errors.As(snapErr, &gatewayErr) {
		detail = gatewayErr.Detail
	}

	if _, err := s.repo.MarkSessionFailed(ctx, orderID, midtrans.TruncateDetail(detail)); err != nil && s.logg != nil {
		s.logg.Error(s.logg.WithOrderID(ctx, orderID.String()), "order.session_fail_write", err)
	}
}

func (s *service) ApplyNotification(ctx context.Context, input NotificationInput) (*NotificationResult, error) {
	if !input.Verified {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "unverified notification")
	}

	mapped := midtrans.MapStatus(input.TransactionStatus, input.FraudStatus)

	if _, err := s.repo.FindByPaymentRef(ctx, input.OrderRef); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Soft outcome: the gateway is still acknowledged so its retry
			// policy does not hammer us over an order we never issued.
			return &NotificationResult{Found: false}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load order by payment ref")
	}

	var (
		rows int64
		err  error
	)
	if mapped == enums.OrderStatusPaid {
		rows, err = s.repo.ApplyPaid(ctx, input.OrderRef, s.now().UTC())
	} else {
		rows, err = s.repo.ApplyStatus(ctx, input.OrderRef, mapped)
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "apply notification status")
	}

	return &NotificationResult{
		Found:   true,
		Status:  mapped,
		Applied: rows > 0,
	}, nil
}

func (s *service) MarkPrinted(ctx context.Context, orderID uuid.UUID) (*models.PrintOrder, error) {
	rows, err := s.repo.MarkPrinted(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mark printed")
	}

	order, findErr := s.repo.FindByID(ctx, orderID)
	if findErr != nil {
		if errors.Is(findErr, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, findErr, "load order")
	}

	if rows == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "order is not in PAID status").
			WithDetails(map[string]any{"status": order.Status})
	}

	return order, nil
}

func (s *service) ListOrders(ctx context.Context, filter ListFilter) ([]OrderView, error) {
	normalized, err := normalizeListFilter(filter)
	if err != nil {
		return nil, err
	}

	rows, err := s.repo.List(ctx, normalized)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list orders")
	}

	views := make([]OrderView, 0, len(rows))
	for _, row := range rows {
		views = append(views, OrderView{
			ID:              row.ID,
			MidtransOrderID: row.MidtransOrderID,
			FotoshareToken:  row.FotoshareToken,
			Size:            row.Size,
			Qty:             row.Qty,
			Amount:          row.Amount,
			Status:          row.Status,
			CustomerName:    row.CustomerName,
			CustomerEmail:   row.CustomerEmail,
			CreatedAt:       row.CreatedAt,
			PaidAt:          row.PaidAt,
		})
	}
	return views, nil
}

func normalizeListFilter(filter ListFilter) (ListFilter, error) {
	status := strings.ToUpper(strings.TrimSpace(filter.Status))
	if status == "" {
		status = StatusFilterAll
	}
	if status != StatusFilterAll {
		if _, err := enums.ParseOrderStatus(status); err != nil {
			return ListFilter{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter").
				WithDetails(map[string]any{"status": filter.Status})
		}
	}

	sortField := strings.ToLower(strings.TrimSpace(filter.SortField))
	switch sortField {
	case "":
		sortField = SortFieldPaidAt
	case SortFieldPaidAt, SortFieldCreatedAt:
	default:
		return ListFilter{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid sort field").
			WithDetails(map[string]any{"sortField": filter.SortField})
	}

	sortDir := strings.ToLower(strings.TrimSpace(filter.SortDir))
	switch sortDir {
	case "":
		sortDir = SortDirDesc
	case SortDirAsc, SortDirDesc:
	default:
		return ListFilter{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid sort direction").
			WithDetails(map[string]any{"sortDir": filter.SortDir})
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	return ListFilter{
		Status:    status,
		PaidOnly:  filter.PaidOnly,
		Search:    filter.Search,
		SortField: sortField,
		SortDir:   sortDir,
		Limit:     limit,
	}, nil
}

// parseFotoshareInput accepts either a bare share token or a share URL from
// the approved host and returns the token.
func (s *service) parseFotoshareInput(input string) (string, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "photo input required")
	}

	if !strings.Contains(trimmed, "://") {
		if !tokenPattern.MatchString(trimmed) {
			return "", pkgerrors.New(pkgerrors.CodeValidation, "invalid photo token")
		}
		return trimmed, nil
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "invalid photo URL")
	}
	if parsed.Hostname() != s.fotoshareHost {
		return "", pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("only %s URLs are allowed", s.fotoshareHost))
	}
	match := sharePathPattern.FindStringSubmatch(parsed.Path)
	if match == nil {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "invalid share URL path")
	}
	return match[1], nil
}

// newPaymentRef builds the gateway correlation key: PRINT-<unix ms>-<random>.
func (s *service) newPaymentRef() string {
	suffix := make([]byte, 4)
	_, _ = rand.Read(suffix)
	ref := fmt.Sprintf("%s-%d-%s", paymentRefPrefix, s.now().UnixMilli(), hex.EncodeToString(suffix))
	if len(ref) > paymentRefMaxLen {
		ref = ref[:paymentRefMaxLen]
	}
	return ref
}
