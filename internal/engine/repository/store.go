package repository

import (
	"context"
	"errors"
	"time"

	"web3-trader/internal/engine/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store 策略数据的类型化查询层：跟踪钱包、黑名单、持仓。
// 热路径不直接用它（mirror 的内存快照才是热路径），这里是快照来源与写侧
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// ListTrackedWallets 全量拉取跟踪钱包
func (s *Store) ListTrackedWallets(ctx context.Context) ([]model.TrackedWallet, error) {
	var wallets []model.TrackedWallet
	err := s.db.WithContext(ctx).Find(&wallets).Error
	return wallets, err
}

// ListBlacklistedTokens 全量拉取代币黑名单
func (s *Store) ListBlacklistedTokens(ctx context.Context) ([]model.BlacklistedToken, error) {
	var tokens []model.BlacklistedToken
	err := s.db.WithContext(ctx).Find(&tokens).Error
	return tokens, err
}

// BlacklistWallet 把跟踪钱包标记为黑名单
func (s *Store) BlacklistWallet(ctx context.Context, chain, address string) error {
	return s.db.WithContext(ctx).
		Model(&model.TrackedWallet{}).
		Where("chain = ? AND lower(address) = lower(?)", chain, address).
		Update("blacklist", true).Error
}

// BlacklistToken 把代币加入黑名单，已存在则忽略
func (s *Store) BlacklistToken(ctx context.Context, chain, address, reason string) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model.BlacklistedToken{Chain: chain, Address: address, Reason: reason}).Error
}

// GetPosition 查单个持仓，不存在返回 nil
func (s *Store) GetPosition(ctx context.Context, chain, tokenAddress string) (*model.Position, error) {
	var pos model.Position
	err := s.db.WithContext(ctx).
		Where("chain = ? AND lower(token_address) = lower(?)", chain, tokenAddress).
		First(&pos).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &pos, nil
}

// ListPositions 某个用户的全部持仓
func (s *Store) ListPositions(ctx context.Context, requester string) ([]model.Position, error) {
	var positions []model.Position
	err := s.db.WithContext(ctx).
		Where("requester = ?", requester).
		Find(&positions).Error
	return positions, err
}

// UpsertPosition 按 requester+chain+token 更新持仓
func (s *Store) UpsertPosition(ctx context.Context, pos *model.Position) error {
	pos.UpdatedAt = time.Now().UnixMilli()
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "requester"}, {Name: "chain"}, {Name: "token_address"}},
			DoUpdates: clause.AssignmentColumns([]string{"amount", "cost_usd", "updated_at"}),
		}).
		Create(pos).Error
}

// ClosePosition 清仓后删除持仓行
func (s *Store) ClosePosition(ctx context.Context, requester, chain, tokenAddress string) error {
	return s.db.WithContext(ctx).
		Where("requester = ? AND chain = ? AND lower(token_address) = lower(?)", requester, chain, tokenAddress).
		Delete(&model.Position{}).Error
}
