package entity

import (
	"context"
	"database/sql"
	"strconv"
	"time"

	"github.com/jackc/pgx/v4"
)

type Message struct {
	ID              Snowflake
	ChannelID       Snowflake
	AuthorID        Snowflake
	Content         string
	CreatedAt       time.Time
	EditedAt        sql.NullTime
	Pinned          bool
	AttachmentCount int
	EmbedCount      int
}

// CreateMessage stores the message, reporting whether a new row was
// created. An id already present is left untouched.
func CreateMessage(ctx context.Context, tx pgx.Tx, m *Message) (bool, error) {
	return exec(
		ctx,
		tx,
		`insert into message (id, channel_id, author_id, content, created_at, edited_at, pinned, attachment_count, embed_count) values ($1, $2, $3, $4, $5, $6, $7, $8, $9) on conflict (id) do nothing`,
		m.ID, m.ChannelID, m.AuthorID, m.Content, m.CreatedAt, m.EditedAt, m.Pinned, m.AttachmentCount, m.EmbedCount,
	)
}

// UpdateMessage overwrites content and edit timestamp on an edit event.
func UpdateMessage(ctx context.Context, tx pgx.Tx, id Snowflake, content string, editedAt sql.NullTime) (bool, error) {
	return exec(ctx, tx, `update message set content = $2, edited_at = $3 where id = $1`, id, content, editedAt)
}

func DeleteMessage(ctx context.Context, tx pgx.Tx, id Snowflake) (bool, error) {
	return exec(ctx, tx, `delete from message where id = $1`, id)
}

func MessageExists(ctx context.Context, tx pgx.Tx, id Snowflake) (bool, error) {
	var one int
	if err := query(ctx, tx, `select 1 from message where id = $1`, []interface{}{id}, []interface{}{&one}); err != nil {
		return false, err
	}
	return one == 1, nil
}

// ChannelHasMessagesSince reports whether the channel holds at least one
// message inside the lookback window. Drives backfill's skip-existing.
func ChannelHasMessagesSince(ctx context.Context, tx pgx.Tx, channelID Snowflake, since time.Time) (bool, error) {
	var one int
	if err := query(ctx, tx, `select 1 from message where channel_id = $1 and created_at >= $2 limit 1`, []interface{}{channelID, since}, []interface{}{&one}); err != nil {
		return false, err
	}
	return one == 1, nil
}

// ChannelMessageIDs returns the set of stored message ids for a channel.
func ChannelMessageIDs(ctx context.Context, tx pgx.Tx, channelID Snowflake) (map[Snowflake]struct{}, error) {
	rows, err := tx.Query(ctx, `select id from message where channel_id = $1`, channelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make(map[Snowflake]struct{})
	for rows.Next() {
		var id Snowflake
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = struct{}{}
	}
	return ids, rows.Err()
}

// ChannelMessage is a stored message joined with its author, most
// recent first. Input to the summary generator.
type ChannelMessage struct {
	ID         Snowflake
	Content    string
	CreatedAt  time.Time
	AuthorName string
}

// RecentChannelMessages loads up to limit non-bot messages for the
// channel, newest first, optionally bounded by a time cutoff.
func RecentChannelMessages(ctx context.Context, tx pgx.Tx, channelID Snowflake, cutoff time.Time, limit int) ([]*ChannelMessage, error) {
	q := `select m.id, m.content, m.created_at, case when u.display_name <> '' then u.display_name else u.username end
		from message m join "user" u on m.author_id = u.id
		where m.channel_id = $1 and not u.is_bot`
	args := []interface{}{channelID}
	if !cutoff.IsZero() {
		q += ` and m.created_at >= $2`
		args = append(args, cutoff)
	}
	q += ` order by m.created_at desc limit $` + strconv.Itoa(len(args)+1)
	args = append(args, limit)

	rows, err := tx.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ms []*ChannelMessage
	for rows.Next() {
		m := &ChannelMessage{}
		if err := rows.Scan(&m.ID, &m.Content, &m.CreatedAt, &m.AuthorName); err != nil {
			return nil, err
		}
		ms = append(ms, m)
	}
	return ms, rows.Err()
}
