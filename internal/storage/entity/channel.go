package entity

import (
	"context"

	"github.com/jackc/pgx/v4"
)

type Channel struct {
	ID      Snowflake
	GuildID Snowflake
	Name    string
	Kind    string
}

func NewChannel(id, guildID Snowflake, name, kind string) *Channel {
	return &Channel{ID: id, GuildID: guildID, Name: name, Kind: kind}
}

// UpsertChannel creates the channel or refreshes name/kind drift.
func UpsertChannel(ctx context.Context, tx pgx.Tx, c *Channel) error {
	_, err := tx.Exec(ctx, `insert into channel (id, guild_id, name, kind) values ($1, $2, $3, $4) on conflict (id) do update set name = excluded.name, kind = excluded.kind`, c.ID, c.GuildID, c.Name, c.Kind)
	return err
}

// EnsureChannel creates a bare channel row, keeping existing metadata.
func EnsureChannel(ctx context.Context, tx pgx.Tx, id, guildID Snowflake) error {
	_, err := tx.Exec(ctx, `insert into channel (id, guild_id, name, kind) values ($1, $2, '', 'text') on conflict (id) do nothing`, id, guildID)
	return err
}

func FindChannel(ctx context.Context, tx pgx.Tx, id Snowflake) (*Channel, error) {
	c := &Channel{}
	if err := tx.QueryRow(ctx, `select id, guild_id, name, kind from channel where id = $1`, id).Scan(&c.ID, &c.GuildID, &c.Name, &c.Kind); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return c, nil
}

// TextChannels lists stored text and thread channels, optionally scoped
// to one guild. Used by the backfill job to enumerate its targets.
func TextChannels(ctx context.Context, tx pgx.Tx, guildID Snowflake) ([]*Channel, error) {
	q := `select id, guild_id, name, kind from channel where (kind = 'text' or kind like 'thread%')`
	args := []interface{}{}
	if guildID != 0 {
		q += ` and guild_id = $1`
		args = append(args, guildID)
	}
	rows, err := tx.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cs []*Channel
	for rows.Next() {
		c := &Channel{}
		if err := rows.Scan(&c.ID, &c.GuildID, &c.Name, &c.Kind); err != nil {
			return nil, err
		}
		cs = append(cs, c)
	}
	return cs, rows.Err()
}
