package api

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"

	"github.com/zebralog/zebralog/internal/storage"
	"github.com/zebralog/zebralog/internal/storage/entity"
)

// Backend is the read surface the endpoints render from.
type Backend interface {
	Overview(ctx context.Context, now time.Time) (*entity.Overview, error)
	TopChannels(ctx context.Context, since time.Time, limit int) ([]*entity.NamedCount, error)
	TopUsers(ctx context.Context, since time.Time, limit int) ([]*entity.NamedCount, error)
	DailyActivity(ctx context.Context, now time.Time, days int) ([]*entity.DayCount, error)
	Messages(ctx context.Context, f entity.MessageFilter) ([]*entity.MessageRecord, error)
}

// StorageBackend serves the endpoints straight from the relational store.
type StorageBackend struct {
	storage *storage.Storage
}

func NewStorageBackend(s *storage.Storage) *StorageBackend {
	return &StorageBackend{storage: s}
}

var _ Backend = (*StorageBackend)(nil)

func (b *StorageBackend) Overview(ctx context.Context, now time.Time) (*entity.Overview, error) {
	var o *entity.Overview
	err := b.storage.Begin(ctx, func(tx pgx.Tx) error {
		var err error
		o, err = entity.LoadOverview(ctx, tx, now)
		return err
	})
	return o, err
}

func (b *StorageBackend) TopChannels(ctx context.Context, since time.Time, limit int) ([]*entity.NamedCount, error) {
	var cs []*entity.NamedCount
	err := b.storage.Begin(ctx, func(tx pgx.Tx) error {
		var err error
		cs, err = entity.TopChannels(ctx, tx, since, limit)
		return err
	})
	return cs, err
}

func (b *StorageBackend) TopUsers(ctx context.Context, since time.Time, limit int) ([]*entity.NamedCount, error) {
	var us []*entity.NamedCount
	err := b.storage.Begin(ctx, func(tx pgx.Tx) error {
		var err error
		us, err = entity.TopUsers(ctx, tx, since, limit)
		return err
	})
	return us, err
}

func (b *StorageBackend) DailyActivity(ctx context.Context, now time.Time, days int) ([]*entity.DayCount, error) {
	var ds []*entity.DayCount
	err := b.storage.Begin(ctx, func(tx pgx.Tx) error {
		var err error
		ds, err = entity.DailyActivity(ctx, tx, now, days)
		return err
	})
	return ds, err
}

func (b *StorageBackend) Messages(ctx context.Context, f entity.MessageFilter) ([]*entity.MessageRecord, error) {
	var ms []*entity.MessageRecord
	err := b.storage.Begin(ctx, func(tx pgx.Tx) error {
		var err error
		ms, err = entity.ListMessages(ctx, tx, f)
		return err
	})
	return ms, err
}
