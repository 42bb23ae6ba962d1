package entity

import (
	"context"

	"github.com/jackc/pgx/v4"
)

type User struct {
	ID          Snowflake
	Username    string
	DisplayName string
	AvatarURL   string
	Bot         bool
}

func NewUser(id Snowflake, username, displayName, avatarURL string, bot bool) *User {
	return &User{ID: id, Username: username, DisplayName: displayName, AvatarURL: avatarURL, Bot: bot}
}

// Name returns the display name, falling back to the username.
func (u *User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Username
}

// UpsertUser creates the user or refreshes username/display-name/avatar drift.
func UpsertUser(ctx context.Context, tx pgx.Tx, u *User) error {
	_, err := tx.Exec(ctx, `insert into "user" (id, username, display_name, avatar_url, is_bot) values ($1, $2, $3, $4, $5) on conflict (id) do update set username = excluded.username, display_name = excluded.display_name, avatar_url = excluded.avatar_url`, u.ID, u.Username, u.DisplayName, u.AvatarURL, u.Bot)
	return err
}

func FindUser(ctx context.Context, tx pgx.Tx, id Snowflake) (*User, error) {
	u := &User{}
	if err := tx.QueryRow(ctx, `select id, username, display_name, avatar_url, is_bot from "user" where id = $1`, id).Scan(&u.ID, &u.Username, &u.DisplayName, &u.AvatarURL, &u.Bot); err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return u, nil
}

// FindUserByName finds the first non-bot user whose username or display
// name contains the fragment, case-insensitively.
func FindUserByName(ctx context.Context, tx pgx.Tx, fragment string) (*User, error) {
	u := &User{}
	err := tx.QueryRow(ctx, `select id, username, display_name, avatar_url, is_bot from "user" where not is_bot and (username ilike '%' || $1 || '%' or display_name ilike '%' || $1 || '%') order by id limit 1`, fragment).
		Scan(&u.ID, &u.Username, &u.DisplayName, &u.AvatarURL, &u.Bot)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return u, nil
}
