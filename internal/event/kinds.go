package event

// Kind identifies one notification channel. The value is the gateway's wire
// name for dispatch frames; connection lifecycle kinds are synthesized
// locally and never appear on the wire.
type Kind string

// Connection lifecycle kinds (local).
const (
	KindConnect      Kind = "__CONNECT"
	KindDisconnect   Kind = "__DISCONNECT"
	KindError        Kind = "__ERROR"
	KindHeartbeat    Kind = "__HEARTBEAT"
	KindHeartbeatAck Kind = "__HEARTBEAT_ACK"
)

// Gateway dispatch kinds.
const (
	KindReady   Kind = "READY"
	KindResumed Kind = "RESUMED"

	KindChannelCreate     Kind = "CHANNEL_CREATE"
	KindChannelUpdate     Kind = "CHANNEL_UPDATE"
	KindChannelDelete     Kind = "CHANNEL_DELETE"
	KindChannelPinsUpdate Kind = "CHANNEL_PINS_UPDATE"

	KindGuildCreate             Kind = "GUILD_CREATE"
	KindGuildUpdate             Kind = "GUILD_UPDATE"
	KindGuildDelete             Kind = "GUILD_DELETE"
	KindGuildBanAdd             Kind = "GUILD_BAN_ADD"
	KindGuildBanRemove          Kind = "GUILD_BAN_REMOVE"
	KindGuildEmojisUpdate       Kind = "GUILD_EMOJIS_UPDATE"
	KindGuildIntegrationsUpdate Kind = "GUILD_INTEGRATIONS_UPDATE"

	KindMemberAdd    Kind = "GUILD_MEMBER_ADD"
	KindMemberUpdate Kind = "GUILD_MEMBER_UPDATE"
	KindMemberRemove Kind = "GUILD_MEMBER_REMOVE"
	KindMembersChunk Kind = "GUILD_MEMBERS_CHUNK"

	KindRoleCreate Kind = "GUILD_ROLE_CREATE"
	KindRoleUpdate Kind = "GUILD_ROLE_UPDATE"
	KindRoleDelete Kind = "GUILD_ROLE_DELETE"

	KindMessageCreate     Kind = "MESSAGE_CREATE"
	KindMessageUpdate     Kind = "MESSAGE_UPDATE"
	KindMessageDelete     Kind = "MESSAGE_DELETE"
	KindMessageDeleteBulk Kind = "MESSAGE_DELETE_BULK"

	KindReactionAdd       Kind = "MESSAGE_REACTION_ADD"
	KindReactionRemove    Kind = "MESSAGE_REACTION_REMOVE"
	KindReactionRemoveAll Kind = "MESSAGE_REACTION_REMOVE_ALL"

	KindPresenceUpdate Kind = "PRESENCE_UPDATE"
	KindTypingStart    Kind = "TYPING_START"
	KindUserUpdate     Kind = "USER_UPDATE"

	KindVoiceStateUpdate  Kind = "VOICE_STATE_UPDATE"
	KindVoiceServerUpdate Kind = "VOICE_SERVER_UPDATE"

	KindWebhooksUpdate Kind = "WEBHOOKS_UPDATE"

	KindInviteCreate Kind = "INVITE_CREATE"
	KindInviteDelete Kind = "INVITE_DELETE"

	KindInteractionCreate Kind = "INTERACTION_CREATE"
)

// kinds is the fixed enumeration. Hook/unhook iterates this slice so the
// forwarder set is identical on every cycle.
var kinds = []Kind{
	KindConnect, KindDisconnect, KindError, KindHeartbeat, KindHeartbeatAck,
	KindReady, KindResumed,
	KindChannelCreate, KindChannelUpdate, KindChannelDelete, KindChannelPinsUpdate,
	KindGuildCreate, KindGuildUpdate, KindGuildDelete,
	KindGuildBanAdd, KindGuildBanRemove,
	KindGuildEmojisUpdate, KindGuildIntegrationsUpdate,
	KindMemberAdd, KindMemberUpdate, KindMemberRemove, KindMembersChunk,
	KindRoleCreate, KindRoleUpdate, KindRoleDelete,
	KindMessageCreate, KindMessageUpdate, KindMessageDelete, KindMessageDeleteBulk,
	KindReactionAdd, KindReactionRemove, KindReactionRemoveAll,
	KindPresenceUpdate, KindTypingStart, KindUserUpdate,
	KindVoiceStateUpdate, KindVoiceServerUpdate,
	KindWebhooksUpdate,
	KindInviteCreate, KindInviteDelete,
	KindInteractionCreate,
}

var kindSet = func() map[Kind]struct{} {
	s := make(map[Kind]struct{}, len(kinds))
	for _, k := range kinds {
		s[k] = struct{}{}
	}
	return s
}()

// Kinds returns the fixed set of event kinds. The returned slice is a copy.
func Kinds() []Kind {
	out := make([]Kind, len(kinds))
	copy(out, kinds)
	return out
}

// Known reports whether k is part of the fixed enumeration.
func Known(k Kind) bool {
	_, ok := kindSet[k]
	return ok
}
