package book

import (
	"fmt"

	apperrors "github.com/xiebiao/bookorder/pkg/errors"
)

// 图书领域错误定义
var (
	// ErrBookNotFound 图书不存在
	ErrBookNotFound = apperrors.New(apperrors.ErrCodeBookNotFound, "图书不存在")

	// ErrInsufficientStock 库存不足
	ErrInsufficientStock = apperrors.New(apperrors.ErrCodeInsufficientStock, "库存不足")

	// ErrInvalidPrice 无效的价格
	ErrInvalidPrice = apperrors.New(apperrors.ErrCodeInvalidParams, "价格必须大于0")

	// ErrInvalidStock 无效的库存
	ErrInvalidStock = apperrors.New(apperrors.ErrCodeInvalidParams, "库存不能为负数")
)

// NotFoundError 指定ID的图书不存在
type NotFoundError struct {
	BookID uint
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("book %d not found", e.BookID)
}

// Unwrap 支持errors.Is(err, ErrBookNotFound)
func (e *NotFoundError) Unwrap() error {
	return ErrBookNotFound.WithDetails(map[string]any{"book_id": e.BookID})
}

// InsufficientStockError 购买数量超过可售数量
type InsufficientStockError struct {
	BookID    uint
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("too many copies of book %d requested: %d > %d available", e.BookID, e.Requested, e.Available)
}

// Unwrap 支持errors.Is(err, ErrInsufficientStock)
func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock.WithDetails(map[string]any{
		"book_id":   e.BookID,
		"requested": e.Requested,
		"available": e.Available,
	})
}
