package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/RoyceAzure/lab/pizzabot/internal/domain/model"
	"github.com/RoyceAzure/lab/pizzabot/internal/infra/repository/db"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// CartStore redis_repo.CartRepo 實作
type CartStore interface {
	Increase(ctx context.Context, userID int64, productID uint, size model.Size) (int, error)
	Decrease(ctx context.Context, userID int64, productID uint, size model.Size) (int, error)
	Delete(ctx context.Context, userID int64, productID uint, size model.Size) (int, error)
	RemoveEntries(ctx context.Context, userID int64, entries ...model.CartEntry) error
	Clear(ctx context.Context, userID int64) error
	AddAmount(ctx context.Context, userID int64, cents int64) (int64, error)
	SubAmount(ctx context.Context, userID int64, cents int64) (int64, error)
	Amount(ctx context.Context, userID int64) (int64, error)
	Quantity(ctx context.Context, userID int64, productID uint, size model.Size) (int, error)
	Entries(ctx context.Context, userID int64) ([]model.CartEntry, error)
}

type ICartService interface {
	AddProduct(ctx context.Context, userID int64, productID uint, size model.Size) (int, error)
	Plus(ctx context.Context, userID int64, productID uint, size model.Size) (int, error)
	Minus(ctx context.Context, userID int64, productID uint, size model.Size) (int, error)
	Remove(ctx context.Context, userID int64, productID uint, size model.Size) error
	Clear(ctx context.Context, userID int64) error
	Items(ctx context.Context, userID int64) ([]model.CartItem, error)
	Amount(ctx context.Context, userID int64) (decimal.Decimal, error)
	Quantity(ctx context.Context, userID int64, productID uint, size model.Size) (int, error)
}

// 購物車不加鎖, 連點由 rate limiter 擋掉
type CartService struct {
	cart        CartStore
	productRepo db.IProductRepository
	logger      *zerolog.Logger
}

func NewCartService(cart CartStore, productRepo db.IProductRepository, logger *zerolog.Logger) *CartService {
	return &CartService{cart: cart, productRepo: productRepo, logger: logger}
}

// ToCents 金額轉成分
func ToCents(price decimal.Decimal) int64 {
	return price.Shift(2).Round(0).IntPart()
}

func FromCents(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

func (s *CartService) sizePrice(ctx context.Context, productID uint, size model.Size) (decimal.Decimal, error) {
	product, err := s.productRepo.GetProductByID(ctx, productID)
	if errors.Is(err, db.ErrNotFound) {
		return decimal.Zero, ErrProductNotFound
	}
	if err != nil {
		return decimal.Zero, err
	}
	price, ok := product.SizePrice(size)
	if !ok {
		return decimal.Zero, ErrSizeUnavailable
	}
	return price, nil
}

// AddProduct 數量加一並累加金額, 回傳新數量
func (s *CartService) AddProduct(ctx context.Context, userID int64, productID uint, size model.Size) (int, error) {
	price, err := s.sizePrice(ctx, productID, size)
	if err != nil {
		return 0, err
	}
	qty, err := s.cart.Increase(ctx, userID, productID, size)
	if err != nil {
		return 0, err
	}
	if _, err := s.cart.AddAmount(ctx, userID, ToCents(price)); err != nil {
		return qty, err
	}
	return qty, nil
}

func (s *CartService) Plus(ctx context.Context, userID int64, productID uint, size model.Size) (int, error) {
	return s.AddProduct(ctx, userID, productID, size)
}

// Minus 數量為 0 時不做事
func (s *CartService) Minus(ctx context.Context, userID int64, productID uint, size model.Size) (int, error) {
	current, err := s.cart.Quantity(ctx, userID, productID, size)
	if err != nil {
		return 0, err
	}
	if current == 0 {
		return 0, nil
	}

	qty, err := s.cart.Decrease(ctx, userID, productID, size)
	if err != nil {
		return 0, err
	}
	price, err := s.sizePrice(ctx, productID, size)
	if err != nil {
		// 商品已刪除, 金額下次讀取時重算
		if errors.Is(err, ErrProductNotFound) || errors.Is(err, ErrSizeUnavailable) {
			return qty, nil
		}
		return qty, err
	}
	if _, err := s.cart.SubAmount(ctx, userID, ToCents(price)); err != nil {
		return qty, err
	}
	return qty, nil
}

func (s *CartService) Remove(ctx context.Context, userID int64, productID uint, size model.Size) error {
	removed, err := s.cart.Delete(ctx, userID, productID, size)
	if err != nil {
		return err
	}
	if removed == 0 {
		return nil
	}
	price, err := s.sizePrice(ctx, productID, size)
	if err != nil {
		if errors.Is(err, ErrProductNotFound) || errors.Is(err, ErrSizeUnavailable) {
			return nil
		}
		return err
	}
	_, err = s.cart.SubAmount(ctx, userID, ToCents(price.Mul(decimal.NewFromInt(int64(removed)))))
	return err
}

func (s *CartService) Clear(ctx context.Context, userID int64) error {
	return s.cart.Clear(ctx, userID)
}

// Items 依分類順序再依名稱排序
// 已刪除的商品會從購物車移除
func (s *CartService) Items(ctx context.Context, userID int64) ([]model.CartItem, error) {
	entries, err := s.cart.Entries(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return []model.CartItem{}, nil
	}

	ids := make([]uint, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ProductID)
	}
	products, err := s.productRepo.GetProductsByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load cart products: %w", err)
	}
	byID := make(map[uint]model.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	items := make([]model.CartItem, 0, len(entries))
	var stale []model.CartEntry
	for _, e := range entries {
		p, ok := byID[e.ProductID]
		if !ok {
			stale = append(stale, e)
			continue
		}
		if _, ok := p.SizePrice(e.Size); !ok {
			stale = append(stale, e)
			continue
		}
		items = append(items, model.CartItem{Product: p, Size: e.Size, Quantity: e.Quantity})
	}

	if len(stale) > 0 {
		if err := s.cart.RemoveEntries(ctx, userID, stale...); err != nil {
			s.logger.Warn().Err(err).Int64("user_id", userID).Msg("failed to drop stale cart entries")
		} else {
			s.logger.Info().Int64("user_id", userID).Int("entries", len(stale)).Msg("dropped stale cart entries")
		}
	}

	SortCartItems(items)
	return items, nil
}

func SortCartItems(items []model.CartItem) {
	sort.SliceStable(items, func(i, j int) bool {
		ri, rj := items[i].Product.Category.Rank(), items[j].Product.Category.Rank()
		if ri != rj {
			return ri < rj
		}
		if items[i].Product.Name != items[j].Product.Name {
			return items[i].Product.Name < items[j].Product.Name
		}
		return items[i].Size > items[j].Size
	})
}

// CartTotal 由項目重算
func CartTotal(items []model.CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Total())
	}
	return total
}

// Amount 購物車快取金額
func (s *CartService) Amount(ctx context.Context, userID int64) (decimal.Decimal, error) {
	cents, err := s.cart.Amount(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	return FromCents(cents), nil
}

func (s *CartService) Quantity(ctx context.Context, userID int64, productID uint, size model.Size) (int, error) {
	return s.cart.Quantity(ctx, userID, productID, size)
}
