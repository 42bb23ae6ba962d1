package entity

import (
	"context"
	"database/sql"
	"time"

	"github.com/jackc/pgx/v4"
)

const (
	SessionActive    = "active"
	SessionCompleted = "completed"
)

type VoiceSession struct {
	ID             string
	ChannelID      Snowflake
	Status         string
	StartedAt      time.Time
	EndedAt        sql.NullTime
	Notes          string
	NotesGenerated bool
}

func CreateVoiceSession(ctx context.Context, tx pgx.Tx, s *VoiceSession) error {
	_, err := tx.Exec(ctx, `insert into voice_session (id, channel_id, status, started_at) values ($1, $2, $3, $4)`, s.ID, s.ChannelID, s.Status, s.StartedAt)
	return err
}

// CompleteVoiceSession transitions active → completed with an end timestamp.
func CompleteVoiceSession(ctx context.Context, tx pgx.Tx, id string, endedAt time.Time) (bool, error) {
	return exec(ctx, tx, `update voice_session set status = $2, ended_at = $3 where id = $1 and status = $4`, id, SessionCompleted, endedAt, SessionActive)
}

func FindVoiceSession(ctx context.Context, tx pgx.Tx, id string) (*VoiceSession, error) {
	s := &VoiceSession{}
	err := tx.QueryRow(ctx, `select id, channel_id, status, started_at, ended_at, notes, notes_generated from voice_session where id = $1`, id).
		Scan(&s.ID, &s.ChannelID, &s.Status, &s.StartedAt, &s.EndedAt, &s.Notes, &s.NotesGenerated)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return s, nil
}

// LatestCompletedSession finds the most recently ended session in the guild.
func LatestCompletedSession(ctx context.Context, tx pgx.Tx, guildID Snowflake) (*VoiceSession, error) {
	s := &VoiceSession{}
	err := tx.QueryRow(
		ctx,
		`select s.id, s.channel_id, s.status, s.started_at, s.ended_at, s.notes, s.notes_generated
		from voice_session s join channel c on s.channel_id = c.id
		where s.status = $1 and c.guild_id = $2 order by s.ended_at desc limit 1`,
		SessionCompleted, guildID,
	).Scan(&s.ID, &s.ChannelID, &s.Status, &s.StartedAt, &s.EndedAt, &s.Notes, &s.NotesGenerated)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return s, nil
}

// SetVoiceSessionNotes persists generated notes exactly once; a second
// call is a no-op reporting false.
func SetVoiceSessionNotes(ctx context.Context, tx pgx.Tx, id, notes string) (bool, error) {
	return exec(ctx, tx, `update voice_session set notes = $2, notes_generated = true where id = $1 and not notes_generated`, id, notes)
}

type VoiceTranscription struct {
	SessionID string
	UserID    sql.NullInt64
	Text      string
	CreatedAt time.Time
}

func CreateTranscription(ctx context.Context, tx pgx.Tx, t *VoiceTranscription) error {
	_, err := tx.Exec(ctx, `insert into voice_transcription (session_id, user_id, text, created_at) values ($1, $2, $3, $4)`, t.SessionID, t.UserID, t.Text, t.CreatedAt)
	return err
}

// TranscriptLine is one transcription joined with its speaker's name.
type TranscriptLine struct {
	Speaker   string
	Text      string
	CreatedAt time.Time
}

// SessionTranscript loads all transcriptions for the session in
// timestamp order.
func SessionTranscript(ctx context.Context, tx pgx.Tx, sessionID string) ([]*TranscriptLine, error) {
	rows, err := tx.Query(
		ctx,
		`select coalesce(nullif(u.display_name, ''), nullif(u.username, ''), 'Unknown'), t.text, t.created_at
		from voice_transcription t left join "user" u on t.user_id = u.id
		where t.session_id = $1 order by t.created_at`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ls []*TranscriptLine
	for rows.Next() {
		l := &TranscriptLine{}
		if err := rows.Scan(&l.Speaker, &l.Text, &l.CreatedAt); err != nil {
			return nil, err
		}
		ls = append(ls, l)
	}
	return ls, rows.Err()
}
