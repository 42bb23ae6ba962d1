package entity

import (
	"context"
	"strconv"
	"time"

	"github.com/jackc/pgx/v4"
)

// Overview carries the dashboard's headline counters. Every field
// degrades to zero over an empty store.
type Overview struct {
	TotalMessages    int64 `json:"total_messages"`
	TotalUsers       int64 `json:"total_users"`
	TotalChannels    int64 `json:"total_channels"`
	TotalGuilds      int64 `json:"total_servers"`
	MessagesToday    int64 `json:"messages_today"`
	MessagesThisWeek int64 `json:"messages_this_week"`
	MessagesLast24h  int64 `json:"messages_last_24h"`
	ActiveUsersToday int64 `json:"active_users_today"`
	ActiveUsersWeek  int64 `json:"active_users_week"`
}

func LoadOverview(ctx context.Context, tx pgx.Tx, now time.Time) (*Overview, error) {
	o := &Overview{}
	today := now.Truncate(24 * time.Hour)
	weekAgo := now.Add(-7 * 24 * time.Hour)
	dayAgo := now.Add(-24 * time.Hour)

	err := tx.QueryRow(
		ctx,
		`select
			(select count(*) from message),
			(select count(*) from "user"),
			(select count(*) from channel),
			(select count(*) from guild),
			(select count(*) from message where created_at >= $1),
			(select count(*) from message where created_at >= $2),
			(select count(*) from message where created_at >= $3),
			(select count(distinct author_id) from message where created_at >= $1),
			(select count(distinct author_id) from message where created_at >= $2)`,
		today, weekAgo, dayAgo,
	).Scan(
		&o.TotalMessages, &o.TotalUsers, &o.TotalChannels, &o.TotalGuilds,
		&o.MessagesToday, &o.MessagesThisWeek, &o.MessagesLast24h,
		&o.ActiveUsersToday, &o.ActiveUsersWeek,
	)
	if err != nil {
		return nil, err
	}
	return o, nil
}

// NamedCount is one row of a top-N ranking.
type NamedCount struct {
	ID    Snowflake `json:"id,string"`
	Name  string    `json:"name"`
	Count int64     `json:"count"`
}

// TopChannels ranks channels by message volume since the cutoff.
func TopChannels(ctx context.Context, tx pgx.Tx, since time.Time, limit int) ([]*NamedCount, error) {
	return scanNamedCounts(tx.Query(
		ctx,
		`select c.id, c.name, count(m.id) from channel c join message m on m.channel_id = c.id
		where m.created_at >= $1 group by c.id, c.name having count(m.id) > 0
		order by count(m.id) desc limit $2`,
		since, limit,
	))
}

// TopUsers ranks non-bot users by message volume since the cutoff.
func TopUsers(ctx context.Context, tx pgx.Tx, since time.Time, limit int) ([]*NamedCount, error) {
	return scanNamedCounts(tx.Query(
		ctx,
		`select u.id, coalesce(nullif(u.display_name, ''), u.username), count(m.id)
		from "user" u join message m on m.author_id = u.id
		where m.created_at >= $1 and not u.is_bot group by u.id having count(m.id) > 0
		order by count(m.id) desc limit $2`,
		since, limit,
	))
}

func scanNamedCounts(rows pgx.Rows, err error) ([]*NamedCount, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cs := []*NamedCount{}
	for rows.Next() {
		c := &NamedCount{}
		if err := rows.Scan(&c.ID, &c.Name, &c.Count); err != nil {
			return nil, err
		}
		cs = append(cs, c)
	}
	return cs, rows.Err()
}

// DayCount is one day of the trailing activity breakdown.
type DayCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// DailyActivity returns per-day message counts for the last `days`
// days, most recent day first. Days without traffic report zero.
func DailyActivity(ctx context.Context, tx pgx.Tx, now time.Time, days int) ([]*DayCount, error) {
	counts := make(map[string]int64, days)
	rows, err := tx.Query(
		ctx,
		`select to_char(created_at at time zone 'UTC', 'YYYY-MM-DD'), count(*) from message
		where created_at >= $1 group by 1`,
		now.Truncate(24*time.Hour).Add(-time.Duration(days-1)*24*time.Hour),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var day string
		var n int64
		if err := rows.Scan(&day, &n); err != nil {
			return nil, err
		}
		counts[day] = n
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	ds := make([]*DayCount, 0, days)
	for i := 0; i < days; i++ {
		day := now.UTC().Add(-time.Duration(i) * 24 * time.Hour).Format("2006-01-02")
		ds = append(ds, &DayCount{Date: day, Count: counts[day]})
	}
	return ds, nil
}

// MessageRecord is one row of the recent-message listing, denormalized
// with author and channel identity for the read API.
type MessageRecord struct {
	ID              Snowflake `json:"id,string"`
	Content         string    `json:"content"`
	CreatedAt       time.Time `json:"timestamp"`
	AuthorID        Snowflake `json:"author_id,string"`
	AuthorName      string    `json:"author_name"`
	ChannelID       Snowflake `json:"channel_id,string"`
	ChannelName     string    `json:"channel_name"`
	GuildName       string    `json:"server_name"`
	AttachmentCount int       `json:"attachment_count"`
	EmbedCount      int       `json:"embed_count"`
}

// MessageFilter bounds the recent-message listing. Zero values mean
// unfiltered; Limit is already validated by the caller.
type MessageFilter struct {
	ChannelID Snowflake
	AuthorID  Snowflake
	Limit     int
}

func ListMessages(ctx context.Context, tx pgx.Tx, f MessageFilter) ([]*MessageRecord, error) {
	q := `select m.id, m.content, m.created_at, u.id, coalesce(nullif(u.display_name, ''), u.username),
		c.id, c.name, g.name, m.attachment_count, m.embed_count
		from message m
		join "user" u on m.author_id = u.id
		join channel c on m.channel_id = c.id
		join guild g on c.guild_id = g.id`
	args := []interface{}{}
	where := ""
	if f.ChannelID != 0 {
		args = append(args, f.ChannelID)
		where = ` where c.id = $1`
	}
	if f.AuthorID != 0 {
		args = append(args, f.AuthorID)
		if where == "" {
			where = ` where u.id = $1`
		} else {
			where += ` and u.id = $2`
		}
	}
	args = append(args, f.Limit)
	q += where + ` order by m.created_at desc limit $` + strconv.Itoa(len(args))

	rows, err := tx.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ms := []*MessageRecord{}
	for rows.Next() {
		m := &MessageRecord{}
		if err := rows.Scan(
			&m.ID, &m.Content, &m.CreatedAt, &m.AuthorID, &m.AuthorName,
			&m.ChannelID, &m.ChannelName, &m.GuildName, &m.AttachmentCount, &m.EmbedCount,
		); err != nil {
			return nil, err
		}
		ms = append(ms, m)
	}
	return ms, rows.Err()
}
