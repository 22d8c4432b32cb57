package book

import (
	"time"

	"github.com/shopspring/decimal"
)

// Book 图书实体
// 下单流程只关心价格和可售数量,其余目录信息用于展示
type Book struct {
	ID        uint
	Title     string
	Author    string
	Price     decimal.Decimal // 单价
	Available int             // 可售数量,不能为负
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewBook 创建图书
func NewBook(title, author string, price decimal.Decimal, available int) (*Book, error) {
	if !price.IsPositive() {
		return nil, ErrInvalidPrice
	}
	if available < 0 {
		return nil, ErrInvalidStock
	}
	return &Book{
		Title:     title,
		Author:    author,
		Price:     price,
		Available: available,
	}, nil
}

// CanFulfil 可售数量是否满足购买数量
func (b *Book) CanFulfil(quantity int) bool {
	return quantity <= b.Available
}
