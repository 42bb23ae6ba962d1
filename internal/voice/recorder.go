package voice

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"go.uber.org/zap"

	"github.com/zebralog/zebralog/internal/storage"
	"github.com/zebralog/zebralog/internal/storage/entity"
	"github.com/zebralog/zebralog/internal/stt"
	"github.com/zebralog/zebralog/internal/util"
)

// silenceThreshold is the smallest PCM buffer worth transcribing;
// anything under it is treated as silence and skipped.
const silenceThreshold = 1000

const transcribeTimeout = 60 * time.Second

// defaultInterval backs a zero or negative configured transcription
// interval; the ticker needs a positive duration.
const defaultInterval = 30 * time.Second

var (
	ErrDisabled       = errors.New("voice transcription is disabled")
	ErrAlreadyActive  = errors.New("already recording in this channel")
	ErrNoActiveRecord = errors.New("no active recording")
)

type Config struct {
	Enabled  bool
	Interval time.Duration
}

// Recorder drives the per-channel recording state machine:
// idle → active on Start, active → completed on Stop. At most one
// session per voice channel.
type Recorder struct {
	ctx     context.Context
	logger  *zap.SugaredLogger
	storage *storage.Storage
	stt     stt.Transcriber
	config  Config

	mu       sync.Mutex
	sessions map[uint64]*session // voice channel id → active session
}

type session struct {
	id        string
	guildID   uint64
	channelID uint64
	vc        *discordgo.VoiceConnection
	sink      *Sink
	cancel    context.CancelFunc
	done      chan struct{}
}

func NewRecorder(ctx context.Context, logger *zap.SugaredLogger, store *storage.Storage, t stt.Transcriber, config Config) *Recorder {
	if config.Interval <= 0 {
		config.Interval = defaultInterval
	}
	return &Recorder{
		ctx:      ctx,
		logger:   logger,
		storage:  store,
		stt:      t,
		config:   config,
		sessions: make(map[uint64]*session),
	}
}

// Start joins the voice channel and begins a recording session,
// returning the new session id.
func (r *Recorder) Start(ds *discordgo.Session, guildID, channelID uint64) (string, error) {
	if !r.config.Enabled {
		return "", ErrDisabled
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, active := r.sessions[channelID]; active {
		return "", ErrAlreadyActive
	}

	vc, err := ds.ChannelVoiceJoin(util.FormatSnowflake(guildID), util.FormatSnowflake(channelID), false, false)
	if err != nil {
		return "", err
	}

	sess := &session{
		id:        uuid.NewString(),
		guildID:   guildID,
		channelID: channelID,
		vc:        vc,
		sink:      NewSink(r.logger),
		done:      make(chan struct{}),
	}

	if err := r.storage.Begin(r.ctx, func(tx pgx.Tx) error {
		return entity.CreateVoiceSession(r.ctx, tx, &entity.VoiceSession{
			ID:        sess.id,
			ChannelID: channelID,
			Status:    entity.SessionActive,
			StartedAt: time.Now().UTC(),
		})
	}); err != nil {
		_ = vc.Disconnect()
		return "", err
	}

	vc.AddHandler(func(_ *discordgo.VoiceConnection, vs *discordgo.VoiceSpeakingUpdate) {
		if id, err := util.ParseSnowflake(vs.UserID); err == nil {
			sess.sink.MapSSRC(uint32(vs.SSRC), id)
		}
	})

	ctx, cancel := context.WithCancel(r.ctx)
	sess.cancel = cancel
	go sess.sink.Consume(ctx, vc.OpusRecv)
	go r.cycle(ctx, sess)

	r.sessions[channelID] = sess
	r.logger.Infof("Started recording voice channel %d (session %s).", channelID, sess.id)
	return sess.id, nil
}

// Stop ends the recording in the channel, returning the session id.
func (r *Recorder) Stop(channelID uint64) (string, error) {
	r.mu.Lock()
	sess, active := r.sessions[channelID]
	if !active {
		r.mu.Unlock()
		return "", ErrNoActiveRecord
	}
	delete(r.sessions, channelID)
	r.mu.Unlock()

	return sess.id, r.teardown(sess)
}

// StopAny ends the first active recording, for stop requests from users
// who are not themselves in a voice channel. Returns the session id and
// the channel it was recorded in.
func (r *Recorder) StopAny() (string, uint64, error) {
	r.mu.Lock()
	var sess *session
	for id, s := range r.sessions {
		sess = s
		delete(r.sessions, id)
		break
	}
	r.mu.Unlock()
	if sess == nil {
		return "", 0, ErrNoActiveRecord
	}
	return sess.id, sess.channelID, r.teardown(sess)
}

// Active reports whether the channel has a recording in flight.
func (r *Recorder) Active(channelID uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.sessions[channelID]
	return ok
}

func (r *Recorder) teardown(sess *session) error {
	sess.cancel()
	<-sess.done // wait for the cycle to finish its current pass

	// audio buffered since the last tick still needs transcribing
	r.flush(r.ctx, sess)

	if err := sess.vc.Disconnect(); err != nil {
		r.logger.Errorf("Couldn't disconnect from voice channel %d: %s.", sess.channelID, err)
	}

	if err := r.storage.Begin(r.ctx, func(tx pgx.Tx) error {
		_, err := entity.CompleteVoiceSession(r.ctx, tx, sess.id, time.Now().UTC())
		return err
	}); err != nil {
		return err
	}
	r.logger.Infof("Stopped recording voice channel %d (session %s).", sess.channelID, sess.id)
	return nil
}

// cycle flushes buffered audio to the transcriber on a fixed interval
// until the session is stopped.
func (r *Recorder) cycle(ctx context.Context, sess *session) {
	defer close(sess.done)

	ticker := time.NewTicker(r.config.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.flush(ctx, sess)
		}
	}
}

// flush transcribes every speaker's newly buffered audio. One speaker's
// failure never blocks the others.
func (r *Recorder) flush(ctx context.Context, sess *session) {
	for _, speaker := range sess.sink.Drain() {
		if len(speaker.PCM) < silenceThreshold {
			continue
		}

		tctx, cancel := context.WithTimeout(ctx, transcribeTimeout)
		text, err := r.stt.Transcribe(tctx, WrapPCM(speaker.PCM, sampleRate, channels))
		cancel()
		if err != nil {
			r.logger.Errorf("Couldn't transcribe audio for user %d in session %s: %s.", speaker.UserID, sess.id, err)
			continue
		}
		if text == "" {
			continue
		}

		userID := sql.NullInt64{}
		if speaker.UserID != 0 {
			userID = sql.NullInt64{Int64: int64(speaker.UserID), Valid: true}
		}
		if err := r.storage.Begin(r.ctx, func(tx pgx.Tx) error {
			return entity.CreateTranscription(r.ctx, tx, &entity.VoiceTranscription{
				SessionID: sess.id,
				UserID:    userID,
				Text:      text,
				CreatedAt: time.Now().UTC(),
			})
		}); err != nil {
			r.logger.Errorf("Couldn't store transcription for session %s: %s.", sess.id, err)
		}
	}
}
