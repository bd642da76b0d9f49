package redis_repo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/RoyceAzure/lab/pizzabot/internal/domain/model"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// 購物車最後一次異動後保留 12 小時
const CartTTL = 12 * time.Hour

var ErrInvalidCartField = errors.New("invalid cart field")

type CartRepo struct {
	CartCache *redis.Client
	ttl       time.Duration
}

func NewCartRepo(cartCache *redis.Client) *CartRepo {
	return &CartRepo{CartCache: cartCache, ttl: CartTTL}
}

func generateCartItemKey(userID int64) string {
	return fmt.Sprintf("cart:%d", userID)
}

func generateCartAmountKey(userID int64) string {
	return fmt.Sprintf("cart_amount:%d", userID)
}

func generateCartField(productID uint, size model.Size) string {
	return fmt.Sprintf("product:%d:%s", productID, size)
}

func parseCartField(field string) (uint, model.Size, error) {
	parts := strings.Split(field, ":")
	if len(parts) != 3 || parts[0] != "product" {
		return 0, "", fmt.Errorf("%w %q", ErrInvalidCartField, field)
	}
	id, err := strconv.ParseUint(parts[1], 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("%w %q", ErrInvalidCartField, field)
	}
	size, err := model.ParseSize(parts[2])
	if err != nil {
		return 0, "", fmt.Errorf("%w %q", ErrInvalidCartField, field)
	}
	return uint(id), size, nil
}

// 所有異動都刷新兩個 key 的 TTL
var deltaScript = redis.NewScript(`
	local items = KEYS[1]
	local amount = KEYS[2]
	local field = ARGV[1]
	local delta = tonumber(ARGV[2])
	local ttl = tonumber(ARGV[3])
	local result

	if delta < 0 then
		local current = tonumber(redis.call('HGET', items, field) or "0")
		-- 扣到 0 以下直接刪除
		if current + delta <= 0 then
			redis.call('HDEL', items, field)
			result = 0
		else
			result = redis.call('HINCRBY', items, field, delta)
		end
	else
		result = redis.call('HINCRBY', items, field, delta)
	end

	redis.call('EXPIRE', items, ttl)
	redis.call('EXPIRE', amount, ttl)
	return result
`)

var deleteScript = redis.NewScript(`
	local items = KEYS[1]
	local amount = KEYS[2]
	local current = tonumber(redis.call('HGET', items, ARGV[1]) or "0")
	redis.call('HDEL', items, ARGV[1])
	redis.call('EXPIRE', items, ARGV[2])
	redis.call('EXPIRE', amount, ARGV[2])
	return current
`)

// 金額以分為單位, 不會小於 0
var amountScript = redis.NewScript(`
	local items = KEYS[1]
	local amount = KEYS[2]
	local result = redis.call('INCRBY', amount, ARGV[1])
	if result < 0 then
		redis.call('SET', amount, 0)
		result = 0
	end
	redis.call('EXPIRE', items, ARGV[2])
	redis.call('EXPIRE', amount, ARGV[2])
	return result
`)

func (r *CartRepo) keys(userID int64) []string {
	return []string{generateCartItemKey(userID), generateCartAmountKey(userID)}
}

func (r *CartRepo) ttlSeconds() int64 {
	return int64(r.ttl / time.Second)
}

// Increase 數量加一, 回傳新數量
func (r *CartRepo) Increase(ctx context.Context, userID int64, productID uint, size model.Size) (int, error) {
	return r.delta(ctx, userID, productID, size, 1)
}

// Decrease 數量減一, 數量為 1 時刪除欄位, 回傳新數量
func (r *CartRepo) Decrease(ctx context.Context, userID int64, productID uint, size model.Size) (int, error) {
	return r.delta(ctx, userID, productID, size, -1)
}

func (r *CartRepo) delta(ctx context.Context, userID int64, productID uint, size model.Size, delta int) (int, error) {
	field := generateCartField(productID, size)
	result, err := deltaScript.Run(ctx, r.CartCache, r.keys(userID), field, delta, r.ttlSeconds()).Int()
	if err != nil {
		return 0, fmt.Errorf("failed to update cart item %s: %w", field, err)
	}
	return result, nil
}

// Delete 從購物車中刪除指定商品, 回傳原本的數量
func (r *CartRepo) Delete(ctx context.Context, userID int64, productID uint, size model.Size) (int, error) {
	field := generateCartField(productID, size)
	result, err := deleteScript.Run(ctx, r.CartCache, r.keys(userID), field, r.ttlSeconds()).Int()
	if err != nil {
		return 0, fmt.Errorf("failed to delete item from cart: %w", err)
	}
	return result, nil
}

// RemoveEntries 清掉已不存在的商品
func (r *CartRepo) RemoveEntries(ctx context.Context, userID int64, entries ...model.CartEntry) error {
	if len(entries) == 0 {
		return nil
	}
	fields := make([]string, 0, len(entries))
	for _, e := range entries {
		fields = append(fields, generateCartField(e.ProductID, e.Size))
	}
	if err := r.CartCache.HDel(ctx, generateCartItemKey(userID), fields...).Err(); err != nil {
		return fmt.Errorf("failed to remove cart items: %w", err)
	}
	return nil
}

// Clear 清空購物車
func (r *CartRepo) Clear(ctx context.Context, userID int64) error {
	if err := r.CartCache.Del(ctx, r.keys(userID)...).Err(); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}
	return nil
}

func (r *CartRepo) AddAmount(ctx context.Context, userID int64, cents int64) (int64, error) {
	return r.changeAmount(ctx, userID, cents)
}

func (r *CartRepo) SubAmount(ctx context.Context, userID int64, cents int64) (int64, error) {
	return r.changeAmount(ctx, userID, -cents)
}

func (r *CartRepo) changeAmount(ctx context.Context, userID int64, cents int64) (int64, error) {
	result, err := amountScript.Run(ctx, r.CartCache, r.keys(userID), cents, r.ttlSeconds()).Int64()
	if err != nil {
		return 0, fmt.Errorf("failed to update cart amount: %w", err)
	}
	return result, nil
}

// Amount 目前金額(分), 不存在視為 0
func (r *CartRepo) Amount(ctx context.Context, userID int64) (int64, error) {
	cents, err := r.CartCache.Get(ctx, generateCartAmountKey(userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get cart amount: %w", err)
	}
	return cents, nil
}

func (r *CartRepo) Quantity(ctx context.Context, userID int64, productID uint, size model.Size) (int, error) {
	qty, err := r.CartCache.HGet(ctx, generateCartItemKey(userID), generateCartField(productID, size)).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get cart quantity: %w", err)
	}
	return qty, nil
}

// Entries 取出購物車所有項目, 不保證順序
// 無法解析的欄位略過並從 hash 移除
func (r *CartRepo) Entries(ctx context.Context, userID int64) ([]model.CartEntry, error) {
	key := generateCartItemKey(userID)
	items, err := r.CartCache.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get cart items: %w", err)
	}

	entries := make([]model.CartEntry, 0, len(items))
	var broken []string
	for field, quantityStr := range items {
		productID, size, err := parseCartField(field)
		if err != nil {
			broken = append(broken, field)
			continue
		}
		quantity, err := strconv.Atoi(quantityStr)
		if err != nil {
			broken = append(broken, field)
			continue
		}
		if quantity > 0 {
			entries = append(entries, model.CartEntry{ProductID: productID, Size: size, Quantity: quantity})
		}
	}

	if len(broken) > 0 {
		log.Warn().Int64("user_id", userID).Strs("fields", broken).Msg("skipped invalid cart fields")
		if err := r.CartCache.HDel(ctx, key, broken...).Err(); err != nil {
			log.Warn().Err(err).Int64("user_id", userID).Msg("failed to drop invalid cart fields")
		}
	}
	return entries, nil
}
