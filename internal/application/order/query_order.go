package order

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/xiebiao/bookorder/internal/domain/order"
	"github.com/xiebiao/bookorder/internal/domain/price"
)

// OrderView 订单视图,包含实时计算的价格
type OrderView struct {
	ID        uint          `json:"id"`
	Status    string        `json:"status"`
	Delivery  string        `json:"delivery"`
	Recipient RecipientView `json:"recipient"`
	Items     []ItemView    `json:"items"`
	Price     PriceView     `json:"price"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

// RecipientView 收件人
type RecipientView struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Street  string `json:"street"`
	City    string `json:"city"`
	ZipCode string `json:"zip_code"`
	Email   string `json:"email"`
}

// ItemView 订单明细
type ItemView struct {
	BookID    uint   `json:"book_id"`
	Title     string `json:"title"`
	UnitPrice string `json:"unit_price"`
	Quantity  int    `json:"quantity"`
}

// PriceView 价格明细,金额保留两位小数
type PriceView struct {
	ItemsPrice    string         `json:"items_price"`
	DeliveryPrice string         `json:"delivery_price"`
	Discount      string         `json:"discount"`
	FinalPrice    string         `json:"final_price"`
	Discounts     []DiscountView `json:"discounts,omitempty"`
}

// DiscountView 单个折扣
type DiscountView struct {
	Name   string `json:"name"`
	Amount string `json:"amount"`
}

// QueryOptions 查询配置
type QueryOptions struct {
	CacheTTL time.Duration
}

// QueryOrderUseCase 订单查询与删除
type QueryOrderUseCase struct {
	orderRepo order.Repository
	engine    *price.Engine
	cache     OrderCache
	opts      QueryOptions
	logger    *zap.Logger
}

// NewQueryOrderUseCase 创建订单查询用例
func NewQueryOrderUseCase(
	orderRepo order.Repository,
	engine *price.Engine,
	cache OrderCache,
	opts QueryOptions,
	logger *zap.Logger,
) *QueryOrderUseCase {
	return &QueryOrderUseCase{
		orderRepo: orderRepo,
		engine:    engine,
		cache:     cache,
		opts:      opts,
		logger:    logger.Named("query_order"),
	}
}

// GetOrder 查询单个订单,优先读缓存
func (uc *QueryOrderUseCase) GetOrder(ctx context.Context, id uint) (*OrderView, error) {
	if view, ok := uc.cache.Get(ctx, id); ok {
		return view, nil
	}

	o, err := uc.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	view := uc.toView(o)
	if uc.opts.CacheTTL > 0 {
		uc.cache.Set(ctx, view, uc.opts.CacheTTL)
		uc.recheck(ctx, o)
	}
	return view, nil
}

// recheck 写缓存后重读一次订单
// 读库之后、写缓存之前提交的修改或删除,其缓存删除可能早于本次写入;
// 此时重读结果与写入的视图不一致,删除缓存。之后提交的修改会自行删除缓存
func (uc *QueryOrderUseCase) recheck(ctx context.Context, cached *order.Order) {
	current, err := uc.orderRepo.FindByID(ctx, cached.ID)
	if err == nil && current.Status == cached.Status && current.UpdatedAt.Equal(cached.UpdatedAt) {
		return
	}
	uc.cache.Delete(ctx, cached.ID)
	if err != nil && !errors.Is(err, order.ErrOrderNotFound) {
		uc.logger.Warn("复查订单失败,已删除缓存", zap.Uint("order_id", cached.ID), zap.Error(err))
	}
}

// ListOrders 查询全部订单
func (uc *QueryOrderUseCase) ListOrders(ctx context.Context) ([]*OrderView, error) {
	orders, err := uc.orderRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]*OrderView, len(orders))
	for i, o := range orders {
		views[i] = uc.toView(o)
	}
	return views, nil
}

// DeleteOrder 删除订单,不经过状态机,也不归还库存
func (uc *QueryOrderUseCase) DeleteOrder(ctx context.Context, id uint) error {
	if err := uc.orderRepo.Delete(ctx, id); err != nil {
		return err
	}
	uc.cache.Delete(ctx, id)
	uc.logger.Info("订单已删除", zap.Uint("order_id", id))
	return nil
}

func (uc *QueryOrderUseCase) toView(o *order.Order) *OrderView {
	b := uc.engine.ForOrder(o)

	items := make([]ItemView, len(o.Items))
	for i, item := range o.Items {
		items[i] = ItemView{
			BookID:    item.BookID,
			Title:     item.Title,
			UnitPrice: item.UnitPrice.StringFixed(2),
			Quantity:  item.Quantity,
		}
	}

	discounts := make([]DiscountView, len(b.Discounts))
	for i, d := range b.Discounts {
		discounts[i] = DiscountView{Name: d.Name, Amount: d.Amount.StringFixed(2)}
	}

	return &OrderView{
		ID:       o.ID,
		Status:   o.Status.String(),
		Delivery: string(o.Delivery),
		Recipient: RecipientView{
			Name:    o.Recipient.Name,
			Phone:   o.Recipient.Phone,
			Street:  o.Recipient.Street,
			City:    o.Recipient.City,
			ZipCode: o.Recipient.ZipCode,
			Email:   o.Recipient.Email,
		},
		Items: items,
		Price: PriceView{
			ItemsPrice:    b.ItemsPrice.StringFixed(2),
			DeliveryPrice: b.DeliveryPrice.StringFixed(2),
			Discount:      b.Discount.StringFixed(2),
			FinalPrice:    b.FinalPrice.StringFixed(2),
			Discounts:     discounts,
		},
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
}
