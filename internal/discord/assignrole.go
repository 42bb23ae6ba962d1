package discord

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/jackc/pgx/v4"

	"github.com/zebralog/zebralog/internal/storage/entity"
	"github.com/zebralog/zebralog/internal/util"
)

// AssignAdminRole grants the guild's admin role to the first stored
// non-bot member matching the name fragment. Returns a human-readable
// outcome describing what happened or why nothing could be done.
func (d *Discord) AssignAdminRole(fragment string) (string, error) {
	if d.config.guild == 0 {
		return "", errors.New("a guild must be configured (discord.guild) to assign roles")
	}

	var user *entity.User
	if err := d.storage.Begin(d.ctx, func(tx pgx.Tx) error {
		var err error
		user, err = entity.FindUserByName(d.ctx, tx, fragment)
		return err
	}); err != nil {
		return "", err
	}
	if user == nil {
		return "", fmt.Errorf("no stored user matches %q", fragment)
	}

	guildID := util.FormatSnowflake(d.config.guild)
	userID := util.FormatSnowflake(user.ID)

	member, err := d.session.GuildMember(guildID, userID)
	if err != nil {
		return "", fmt.Errorf("%s is stored but not a member of the guild: %w", user.Name(), err)
	}

	roles, err := d.session.GuildRoles(guildID)
	if err != nil {
		return "", fmt.Errorf("couldn't list guild roles: %w", err)
	}
	role := adminRole(roles)
	if role == nil {
		return "", errors.New("the guild has no admin role to assign")
	}

	for _, id := range member.Roles {
		if id == role.ID {
			return fmt.Sprintf("%s already has the %s role.", user.Name(), role.Name), nil
		}
	}

	me, err := d.session.GuildMember(guildID, "@me")
	if err != nil {
		return "", fmt.Errorf("couldn't inspect the bot's own membership: %w", err)
	}
	switch check := d.canAssign(roles, me, role); check {
	case assignOK:
	case assignNoManageRoles:
		return "", errors.New("the bot lacks the Manage Roles permission")
	case assignRoleTooHigh:
		return "", fmt.Errorf("the %s role sits above the bot's highest role; move the bot's role up", role.Name)
	case assignRoleManaged:
		return "", fmt.Errorf("the %s role is managed by an integration and can't be assigned", role.Name)
	}

	if err := d.session.GuildMemberRoleAdd(guildID, userID, role.ID); err != nil {
		return "", fmt.Errorf("couldn't assign the role: %w", err)
	}
	return fmt.Sprintf("Assigned the %s role to %s.", role.Name, user.Name()), nil
}

// adminRole picks the admin role by name first, then by the
// Administrator permission bit.
func adminRole(roles []*discordgo.Role) *discordgo.Role {
	for _, r := range roles {
		name := strings.ToLower(r.Name)
		if name == "admin" || name == "administrator" {
			return r
		}
	}
	for _, r := range roles {
		if r.Name != "@everyone" && r.Permissions&discordgo.PermissionAdministrator != 0 {
			return r
		}
	}
	return nil
}

type assignCheck int

const (
	assignOK assignCheck = iota
	assignNoManageRoles
	assignRoleTooHigh
	assignRoleManaged
)

func (d *Discord) canAssign(roles []*discordgo.Role, me *discordgo.Member, role *discordgo.Role) assignCheck {
	if role.Managed {
		return assignRoleManaged
	}

	byID := make(map[string]*discordgo.Role, len(roles))
	for _, r := range roles {
		byID[r.ID] = r
	}

	var perms int64
	top := -1
	for _, id := range me.Roles {
		r, ok := byID[id]
		if !ok {
			continue
		}
		perms |= r.Permissions
		if r.Position > top {
			top = r.Position
		}
	}
	if perms&discordgo.PermissionAdministrator == 0 && perms&discordgo.PermissionManageRoles == 0 {
		return assignNoManageRoles
	}
	if top <= role.Position {
		return assignRoleTooHigh
	}
	return assignOK
}
