package entity

import (
	"context"
	"database/sql"

	"github.com/jackc/pgx/v4"
)

// Reaction carries the platform's current count for one emoji on one
// message. (message, emoji_name, emoji_id) is unique; counts are
// overwritten in place, never appended.
type Reaction struct {
	MessageID Snowflake
	EmojiName string
	EmojiID   sql.NullInt64
	Count     int
}

// UpsertReaction writes the current count for the emoji, creating the
// row on first sight. Idempotent for repeated identical events.
func UpsertReaction(ctx context.Context, tx pgx.Tx, r *Reaction) error {
	_, err := tx.Exec(
		ctx,
		`insert into reaction (message_id, emoji_name, emoji_id, count) values ($1, $2, $3, $4)
		on conflict (message_id, emoji_name, coalesce(emoji_id, 0)) do update set count = excluded.count`,
		r.MessageID, r.EmojiName, r.EmojiID, r.Count,
	)
	return err
}

func DeleteReaction(ctx context.Context, tx pgx.Tx, messageID Snowflake, emojiName string, emojiID sql.NullInt64) (bool, error) {
	return exec(ctx, tx, `delete from reaction where message_id = $1 and emoji_name = $2 and coalesce(emoji_id, 0) = coalesce($3, 0)`, messageID, emojiName, emojiID)
}

func DeleteAllReactions(ctx context.Context, tx pgx.Tx, messageID Snowflake) (bool, error) {
	return exec(ctx, tx, `delete from reaction where message_id = $1`, messageID)
}

func FindReactions(ctx context.Context, tx pgx.Tx, messageID Snowflake) ([]*Reaction, error) {
	rows, err := tx.Query(ctx, `select message_id, emoji_name, emoji_id, count from reaction where message_id = $1`, messageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rs []*Reaction
	for rows.Next() {
		r := &Reaction{}
		if err := rows.Scan(&r.MessageID, &r.EmojiName, &r.EmojiID, &r.Count); err != nil {
			return nil, err
		}
		rs = append(rs, r)
	}
	return rs, rows.Err()
}
