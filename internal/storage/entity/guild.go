package entity

import (
	"context"

	"github.com/jackc/pgx/v4"
)

type Guild struct {
	ID   Snowflake
	Name string
}

func NewGuild(id Snowflake, name string) *Guild {
	return &Guild{ID: id, Name: name}
}

// UpsertGuild creates the guild or refreshes its name if it drifted.
func UpsertGuild(ctx context.Context, tx pgx.Tx, g *Guild) error {
	_, err := tx.Exec(ctx, `insert into guild (id, name) values ($1, $2) on conflict (id) do update set name = excluded.name`, g.ID, g.Name)
	return err
}

// EnsureGuild creates a bare guild row, keeping an existing name.
func EnsureGuild(ctx context.Context, tx pgx.Tx, id Snowflake) error {
	_, err := tx.Exec(ctx, `insert into guild (id, name) values ($1, '') on conflict (id) do nothing`, id)
	return err
}

func FindGuild(ctx context.Context, tx pgx.Tx, id Snowflake) (*Guild, error) {
	g := &Guild{}
	if err := tx.QueryRow(ctx, `select id, name from guild where id = $1`, id).Scan(&g.ID, &g.Name); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return g, nil
}
