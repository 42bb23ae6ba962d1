package discord

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChannelKind(t *testing.T) {
	assert.Equal(t, "text", channelKind(discordgo.ChannelTypeGuildText))
	assert.Equal(t, "text", channelKind(discordgo.ChannelTypeGuildNews))
	assert.Equal(t, "voice", channelKind(discordgo.ChannelTypeGuildVoice))
	assert.Equal(t, "voice", channelKind(discordgo.ChannelTypeGuildStageVoice))
	assert.Equal(t, "category", channelKind(discordgo.ChannelTypeGuildCategory))
	assert.Equal(t, "thread", channelKind(discordgo.ChannelTypeGuildPublicThread))
	assert.Equal(t, "other", channelKind(discordgo.ChannelTypeDM))
}

func TestInScope(t *testing.T) {
	all := &Discord{config: NewConfig(0, "!")}
	assert.True(t, all.inScope("123"))
	assert.True(t, all.inScope(""))

	one := &Discord{config: NewConfig(123, "!")}
	assert.True(t, one.inScope("123"))
	assert.False(t, one.inScope("456"))
	assert.False(t, one.inScope(""))
	assert.False(t, one.inScope("garbage"))
}

func TestSplitForEmbedShort(t *testing.T) {
	body, overflow := splitForEmbed("a short recap")
	assert.Equal(t, "a short recap", body)
	assert.Empty(t, overflow)
}

func TestSplitForEmbedOverflow(t *testing.T) {
	text := strings.Repeat("z", 9000)
	body, overflow := splitForEmbed(text)

	assert.Len(t, body, 4096)
	require.Len(t, overflow, 3)
	for _, chunk := range overflow {
		assert.LessOrEqual(t, len(chunk), 1900)
	}
	assert.Equal(t, text, body+strings.Join(overflow, ""))
}

func TestSplitForEmbedRuneBoundary(t *testing.T) {
	// 4-byte runes that cannot divide 4096 evenly
	text := strings.Repeat("🦓", 1500)
	body, overflow := splitForEmbed(text)

	assert.True(t, utf8.ValidString(body))
	rest := body
	for _, chunk := range overflow {
		assert.True(t, utf8.ValidString(chunk))
		rest += chunk
	}
	assert.Equal(t, text, rest)
}

func TestParseCommand(t *testing.T) {
	name, args, ok := parseCommand("!summary 24 100", "!")
	require.True(t, ok)
	assert.Equal(t, "summary", name)
	assert.Equal(t, []string{"24", "100"}, args)

	name, args, ok = parseCommand("!RECAP", "!")
	require.True(t, ok)
	assert.Equal(t, "recap", name)
	assert.Empty(t, args)

	_, _, ok = parseCommand("hello there", "!")
	assert.False(t, ok)

	_, _, ok = parseCommand("!", "!")
	assert.False(t, ok)

	_, _, ok = parseCommand("!   ", "!")
	assert.False(t, ok)
}

func TestUserEntity(t *testing.T) {
	u := &discordgo.User{ID: "42", Username: "ana", GlobalName: "Ana Banana"}

	e := userEntity(u, "")
	assert.Equal(t, uint64(42), e.ID)
	assert.Equal(t, "ana", e.Username)
	assert.Equal(t, "Ana Banana", e.DisplayName)

	e = userEntity(u, "nickname")
	assert.Equal(t, "nickname", e.DisplayName)
}

func TestMessageEntity(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	edited := at.Add(time.Minute)
	m := &discordgo.Message{
		ID:              "3",
		ChannelID:       "2",
		Author:          &discordgo.User{ID: "1"},
		Content:         "hello",
		Timestamp:       at,
		EditedTimestamp: &edited,
		Pinned:          true,
		Attachments:     []*discordgo.MessageAttachment{{}},
		Embeds:          []*discordgo.MessageEmbed{{}, {}},
	}

	e := messageEntity(m)
	assert.Equal(t, uint64(3), e.ID)
	assert.Equal(t, uint64(2), e.ChannelID)
	assert.Equal(t, uint64(1), e.AuthorID)
	assert.Equal(t, "hello", e.Content)
	assert.Equal(t, at, e.CreatedAt)
	require.True(t, e.EditedAt.Valid)
	assert.Equal(t, edited, e.EditedAt.Time)
	assert.True(t, e.Pinned)
	assert.Equal(t, 1, e.AttachmentCount)
	assert.Equal(t, 2, e.EmbedCount)
}

func TestReactionEntity(t *testing.T) {
	custom := reactionEntity(9, &discordgo.MessageReactions{
		Emoji: &discordgo.Emoji{ID: "77", Name: "zebra"},
		Count: 3,
	})
	assert.Equal(t, uint64(9), custom.MessageID)
	assert.Equal(t, "zebra", custom.EmojiName)
	require.True(t, custom.EmojiID.Valid)
	assert.Equal(t, int64(77), custom.EmojiID.Int64)
	assert.Equal(t, 3, custom.Count)

	unicode := reactionEntity(9, &discordgo.MessageReactions{
		Emoji: &discordgo.Emoji{Name: "👍"},
		Count: 1,
	})
	assert.False(t, unicode.EmojiID.Valid)
}

func TestAdminRoleByName(t *testing.T) {
	roles := []*discordgo.Role{
		{ID: "1", Name: "@everyone"},
		{ID: "2", Name: "Moderator", Permissions: discordgo.PermissionAdministrator},
		{ID: "3", Name: "Admin"},
	}
	r := adminRole(roles)
	require.NotNil(t, r)
	assert.Equal(t, "3", r.ID)
}

func TestAdminRoleByPermission(t *testing.T) {
	roles := []*discordgo.Role{
		{ID: "1", Name: "@everyone", Permissions: discordgo.PermissionAdministrator},
		{ID: "2", Name: "Owner", Permissions: discordgo.PermissionAdministrator},
	}
	r := adminRole(roles)
	require.NotNil(t, r)
	assert.Equal(t, "2", r.ID)

	assert.Nil(t, adminRole([]*discordgo.Role{{ID: "1", Name: "plain"}}))
}

func TestCanAssign(t *testing.T) {
	d := &Discord{}
	roles := []*discordgo.Role{
		{ID: "bot", Name: "Bot", Position: 5, Permissions: discordgo.PermissionManageRoles},
		{ID: "admin", Name: "Admin", Position: 3},
		{ID: "high", Name: "High", Position: 9},
		{ID: "managed", Name: "Integration", Position: 1, Managed: true},
	}
	me := &discordgo.Member{Roles: []string{"bot"}}

	assert.Equal(t, assignOK, d.canAssign(roles, me, roles[1]))
	assert.Equal(t, assignRoleTooHigh, d.canAssign(roles, me, roles[2]))
	assert.Equal(t, assignRoleManaged, d.canAssign(roles, me, roles[3]))

	powerless := &discordgo.Member{Roles: []string{"admin"}}
	assert.Equal(t, assignNoManageRoles, d.canAssign(roles, powerless, roles[1]))
}
