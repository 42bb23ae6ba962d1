package storage

// Schema bootstrap. Entities are keyed by their platform snowflake
// directly; voice sessions use generated UUIDs. Cascades mirror the
// ownership hierarchy: guild → channel → message → reaction, and
// channel → voice_session → voice_transcription.
var schemaDDL = []string{
	`create table if not exists guild (
		id bigint primary key,
		name text not null default ''
	)`,
	`create table if not exists channel (
		id bigint primary key,
		guild_id bigint not null references guild (id) on delete cascade,
		name text not null default '',
		kind text not null default 'text'
	)`,
	`create table if not exists "user" (
		id bigint primary key,
		username text not null default '',
		display_name text not null default '',
		avatar_url text not null default '',
		is_bot boolean not null default false
	)`,
	`create table if not exists message (
		id bigint primary key,
		channel_id bigint not null references channel (id) on delete cascade,
		author_id bigint not null references "user" (id),
		content text not null default '',
		created_at timestamptz not null,
		edited_at timestamptz,
		pinned boolean not null default false,
		attachment_count integer not null default 0,
		embed_count integer not null default 0
	)`,
	`create index if not exists idx_message_channel_created on message (channel_id, created_at)`,
	`create index if not exists idx_message_author_created on message (author_id, created_at)`,
	`create table if not exists reaction (
		id bigserial primary key,
		message_id bigint not null references message (id) on delete cascade,
		emoji_name text not null,
		emoji_id bigint,
		count integer not null default 1
	)`,
	`create unique index if not exists idx_reaction_identity on reaction (message_id, emoji_name, coalesce(emoji_id, 0))`,
	`create table if not exists voice_session (
		id text primary key,
		channel_id bigint not null references channel (id) on delete cascade,
		status text not null default 'active',
		started_at timestamptz not null,
		ended_at timestamptz,
		notes text not null default '',
		notes_generated boolean not null default false
	)`,
	`create table if not exists voice_transcription (
		id bigserial primary key,
		session_id text not null references voice_session (id) on delete cascade,
		user_id bigint,
		text text not null,
		created_at timestamptz not null
	)`,
	`create index if not exists idx_transcription_session_created on voice_transcription (session_id, created_at)`,
}

func (s *Storage) initSchema() error {
	for _, ddl := range schemaDDL {
		if _, err := s.pool.Exec(s.ctx, ddl); err != nil {
			return err
		}
	}
	return nil
}
