package mysql

import (
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/xiebiao/bookorder/internal/infrastructure/config"
)

// NewDB 创建数据库连接
// 1. 按database.driver选择MySQL或SQLite(本地开发、测试)
// 2. 配置连接池参数
// 3. debug模式打印SQL
// 4. 自动迁移表结构
func NewDB(cfg *config.Config, log *zap.Logger) (*gorm.DB, error) {
	// 1. 选择驱动
	var dialector gorm.Dialector
	switch cfg.Database.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.Database.Path)
	default:
		dialector = mysql.Open(cfg.Database.DSN())
	}

	// 2. 配置GORM日志
	logLevel := logger.Silent
	if cfg.Server.Mode == "debug" {
		logLevel = logger.Info
	}

	// 3. 连接数据库,时间统一使用UTC
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	// 4. 配置连接池
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取SQL DB失败: %w", err)
	}
	if cfg.Database.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	}
	if cfg.Database.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	}
	if cfg.Database.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)
	}

	// 5. 测试连接
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("数据库连接测试失败: %w", err)
	}
	log.Info("数据库连接成功", zap.String("driver", cfg.Database.Driver))

	// 6. 自动迁移表结构
	// 生产环境应使用版本化的迁移脚本
	if err := autoMigrate(db); err != nil {
		return nil, fmt.Errorf("数据库迁移失败: %w", err)
	}

	return db, nil
}

func autoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&BookModel{},
		&RecipientModel{},
		&OrderModel{},
		&OrderItemModel{},
	)
}

// BookModel GORM图书模型
// 价格使用decimal(10,2)存储,避免浮点误差
type BookModel struct {
	ID        uint            `gorm:"primaryKey"`
	Title     string          `gorm:"size:200;not null;comment:书名"`
	Author    string          `gorm:"size:100;not null;comment:作者"`
	Price     decimal.Decimal `gorm:"type:decimal(10,2);not null;comment:单价"`
	Available int             `gorm:"not null;default:0;comment:可售数量"`
	CreatedAt time.Time       `gorm:"comment:创建时间"`
	UpdatedAt time.Time       `gorm:"comment:更新时间"`
}

// TableName 指定表名
func (BookModel) TableName() string {
	return "books"
}

// RecipientModel 收件人,按邮箱去重
// EmailKey是小写邮箱,唯一索引保证同一邮箱只有一条记录
type RecipientModel struct {
	ID        uint      `gorm:"primaryKey"`
	Name      string    `gorm:"size:100;not null"`
	Phone     string    `gorm:"size:30"`
	Street    string    `gorm:"size:200"`
	City      string    `gorm:"size:100"`
	ZipCode   string    `gorm:"size:20"`
	Email     string    `gorm:"size:100;not null"`
	EmailKey  string    `gorm:"uniqueIndex;size:100;not null;comment:小写邮箱"`
	CreatedAt time.Time `gorm:"comment:创建时间"`
}

// TableName 指定表名
func (RecipientModel) TableName() string {
	return "recipients"
}

// RecipientSnapshot 订单上的收件人快照
type RecipientSnapshot struct {
	Name    string `gorm:"size:100"`
	Phone   string `gorm:"size:30"`
	Street  string `gorm:"size:200"`
	City    string `gorm:"size:100"`
	ZipCode string `gorm:"size:20"`
	Email   string `gorm:"size:100;index"`
}

// OrderModel GORM订单模型
// 1. 与OrderItemModel是一对多关系
// 2. Status使用int存储(1新建2已支付3已取消4已放弃5已发货)
// 3. 收件人信息以快照形式保存在订单上,RecipientID指向去重后的收件人
type OrderModel struct {
	ID          uint              `gorm:"primaryKey"`
	Status      int               `gorm:"index:idx_status_created;not null;default:1;comment:订单状态"`
	Delivery    string            `gorm:"size:20;not null;comment:配送方式"`
	RecipientID uint              `gorm:"index;not null;comment:收件人ID"`
	Recipient   RecipientSnapshot `gorm:"embedded;embeddedPrefix:recipient_"`
	Items       []OrderItemModel  `gorm:"foreignKey:OrderID"`
	CreatedAt   time.Time         `gorm:"index:idx_status_created;comment:创建时间"`
	UpdatedAt   time.Time         `gorm:"comment:更新时间"`
}

// TableName 指定表名
func (OrderModel) TableName() string {
	return "orders"
}

// OrderItemModel GORM订单明细模型,记录下单时的书名和单价快照
type OrderItemModel struct {
	ID        uint            `gorm:"primaryKey"`
	OrderID   uint            `gorm:"index;not null;comment:订单ID"`
	BookID    uint            `gorm:"index;not null;comment:图书ID"`
	Title     string          `gorm:"size:200;not null;comment:书名"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(10,2);not null;comment:下单时单价"`
	Quantity  int             `gorm:"not null;comment:购买数量"`
}

// TableName 指定表名
func (OrderItemModel) TableName() string {
	return "order_items"
}
