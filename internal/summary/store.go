package summary

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4"

	"github.com/zebralog/zebralog/internal/storage"
	"github.com/zebralog/zebralog/internal/storage/entity"
)

// Store adapts the relational store to the generator interfaces.
type Store struct {
	storage *storage.Storage
}

func NewStore(s *storage.Storage) *Store {
	return &Store{storage: s}
}

var _ MessageSource = (*Store)(nil)
var _ SessionSource = (*Store)(nil)

func (s *Store) RecentMessages(ctx context.Context, channelID uint64, cutoff time.Time, limit int) ([]*entity.ChannelMessage, error) {
	var ms []*entity.ChannelMessage
	err := s.storage.Begin(ctx, func(tx pgx.Tx) error {
		var err error
		ms, err = entity.RecentChannelMessages(ctx, tx, channelID, cutoff, limit)
		return err
	})
	return ms, err
}

func (s *Store) Session(ctx context.Context, id string) (*entity.VoiceSession, error) {
	var sess *entity.VoiceSession
	err := s.storage.Begin(ctx, func(tx pgx.Tx) error {
		var err error
		sess, err = entity.FindVoiceSession(ctx, tx, id)
		return err
	})
	return sess, err
}

func (s *Store) LatestCompleted(ctx context.Context, guildID uint64) (*entity.VoiceSession, error) {
	var sess *entity.VoiceSession
	err := s.storage.Begin(ctx, func(tx pgx.Tx) error {
		var err error
		sess, err = entity.LatestCompletedSession(ctx, tx, guildID)
		return err
	})
	return sess, err
}

func (s *Store) Transcript(ctx context.Context, sessionID string) ([]*entity.TranscriptLine, error) {
	var lines []*entity.TranscriptLine
	err := s.storage.Begin(ctx, func(tx pgx.Tx) error {
		var err error
		lines, err = entity.SessionTranscript(ctx, tx, sessionID)
		return err
	})
	return lines, err
}

func (s *Store) SaveNotes(ctx context.Context, sessionID, notes string) (bool, error) {
	var saved bool
	err := s.storage.Begin(ctx, func(tx pgx.Tx) error {
		var err error
		saved, err = entity.SetVoiceSessionNotes(ctx, tx, sessionID, notes)
		return err
	})
	return saved, err
}
