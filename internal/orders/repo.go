package orders

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/andikurnia/fotoprint-backend/internal/repo"
	"github.com/andikurnia/fotoprint-backend/pkg/db/models"
	"github.com/andikurnia/fotoprint-backend/pkg/enums"
)

// Repository persists print orders. Every mutation besides Create is a single
// conditional UPDATE; the WHERE clause is the only synchronization primitive
// the lifecycle relies on, so none of these methods read before writing.
type Repository interface {
	Create(ctx context.Context, order *models.PrintOrder) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.PrintOrder, error)
	FindByPaymentRef(ctx context.Context, paymentRef string) (*models.PrintOrder, error)

	// StoreSnapSession records the checkout session issued by the gateway.
	StoreSnapSession(ctx context.Context, id uuid.UUID, token, redirectURL string) error
	// MarkSessionFailed flips a still-PENDING order to FAILED with the
	// gateway's error detail. Returns the number of rows matched.
	MarkSessionFailed(ctx context.Context, id uuid.UUID, detail string) (int64, error)

	// ApplyPaid confirms payment: re-asserts PAID and sets paid_at only if it
	// is still null, in one atomic statement. PRINTED rows are left alone.
	ApplyPaid(ctx context.Context, paymentRef string, paidAt time.Time) (int64, error)
	// ApplyStatus writes a non-PAID canonical status. Rows that have ever been
	// paid are excluded so a late FAILED/PENDING redelivery cannot revert a
	// confirmed payment.
	ApplyStatus(ctx context.Context, paymentRef string, status enums.OrderStatus) (int64, error)
	// MarkPrinted transitions PAID to PRINTED. Returns the number of rows
	// matched; zero means the order was not in PAID at apply time.
	MarkPrinted(ctx context.Context, id uuid.UUID) (int64, error)

	List(ctx context.Context, filter ListFilter) ([]models.PrintOrder, error)
}

type repository struct {
	repo.Base
}

// NewRepository builds a print-order repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{Base: repo.NewBase(db)}
}

func (r *repository) Create(ctx context.Context, order *models.PrintOrder) error {
	return r.DB(ctx).Create(order).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.PrintOrder, error) {
	var order models.PrintOrder
	err := r.DB(ctx).
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindByPaymentRef(ctx context.Context, paymentRef string) (*models.PrintOrder, error) {
	var order models.PrintOrder
	err := r.DB(ctx).
		Where("midtrans_order_id = ?", paymentRef).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) StoreSnapSession(ctx context.Context, id uuid.UUID, token, redirectURL string) error {
	return r.DB(ctx).
		Model(&models.PrintOrder{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"snap_token":        token,
			"snap_redirect_url": redirectURL,
		}).Error
}

func (r *repository) MarkSessionFailed(ctx context.Context, id uuid.UUID, detail string) (int64, error) {
	result := r.DB(ctx).
		Model(&models.PrintOrder{}).
		Where("id = ? AND status = ?", id, enums.OrderStatusPending).
		Updates(map[string]any{
			"status":     enums.OrderStatusFailed,
			"snap_error": detail,
		})
	return result.RowsAffected, result.Error
}

func (r *repository) ApplyPaid(ctx context.Context, paymentRef string, paidAt time.Time) (int64, error) {
	result := r.DB(ctx).
		Model(&models.PrintOrder{}).
		Where("midtrans_order_id = ? AND status <> ?", paymentRef, enums.OrderStatusPrinted).
		Updates(map[string]any{
			"status":  enums.OrderStatusPaid,
			"paid_at": gorm.Expr("COALESCE(paid_at, ?)", paidAt),
		})
	return result.RowsAffected, result.Error
}

func (r *repository) ApplyStatus(ctx context.Context, paymentRef string, status enums.OrderStatus) (int64, error) {
	result := r.DB(ctx).
		Model(&models.PrintOrder{}).
		Where("midtrans_order_id = ? AND paid_at IS NULL AND status <> ?", paymentRef, enums.OrderStatusPrinted).
		Update("status", status)
	return result.RowsAffected, result.Error
}

func (r *repository) MarkPrinted(ctx context.Context, id uuid.UUID) (int64, error) {
	result := r.DB(ctx).
		Model(&models.PrintOrder{}).
		Where("id = ? AND status = ?", id, enums.OrderStatusPaid).
		Update("status", enums.OrderStatusPrinted)
	return result.RowsAffected, result.Error
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]models.PrintOrder, error) {
	query := r.DB(ctx).Model(&models.PrintOrder{})

	switch {
	case filter.PaidOnly:
		query = query.Where("status = ?", enums.OrderStatusPaid)
	case filter.Status != "" && filter.Status != StatusFilterAll:
		query = query.Where("status = ?", filter.Status)
	}

	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + escapeLike(strings.ToLower(search)) + "%"
		query = query.Where(
			`LOWER(fotoshare_token) LIKE ? ESCAPE '\' OR LOWER(customer_name) LIKE ? ESCAPE '\' OR LOWER(customer_email) LIKE ? ESCAPE '\' OR LOWER(midtrans_order_id) LIKE ? ESCAPE '\'`,
			pattern, pattern, pattern, pattern,
		)
	}

	direction := "DESC"
	if filter.SortDir == SortDirAsc {
		direction = "ASC"
	}
	switch filter.SortField {
	case SortFieldCreatedAt:
		query = query.Order("created_at " + direction)
	default:
		// paid_at sorts with nulls last in either direction so unpaid rows
		// never crowd out the paid ones the operator is scanning for.
		query = query.Order("paid_at IS NULL").Order("paid_at " + direction)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	var rows []models.PrintOrder
	if err := query.Limit(limit).Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// escapeLike neutralizes LIKE metacharacters in operator search text.
func escapeLike(value string) string {
	value = strings.ReplaceAll(value, `\`, `\\`)
	value = strings.ReplaceAll(value, "%", `\%`)
	value = strings.ReplaceAll(value, "_", `\_`)
	return value
}
