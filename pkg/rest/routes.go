package rest

import "net/http"

// Route identifies one HTTP endpoint call: the method, the concrete
// path with resource ids filled in, and the bucket key used for rate
// limit accounting. The bucket key is the method plus the path template
// with parameters normalized out, so that calls differing only by a
// resource id share one bucket.
type Route struct {
	Method string
	Path   string

	key string
}

// BucketKey returns the rate-limit bucket key for the route.
func (r Route) BucketKey() string { return r.key }

func (r Route) String() string { return r.Method + " " + r.Path }

// route fills the template's {param} segments with the given values in
// order. The bucket key keeps the template form.
func route(method, template string, params ...string) Route {
	path := make([]byte, 0, len(template)+16)
	p := 0
	for i := 0; i < len(template); {
		if template[i] == '{' {
			for i < len(template) && template[i] != '}' {
				i++
			}
			i++ // consume '}'
			if p < len(params) {
				path = append(path, params[p]...)
				p++
			}
			continue
		}
		path = append(path, template[i])
		i++
	}
	return Route{Method: method, Path: string(path), key: method + " " + template}
}

// Gateway and application routes.

func GetGateway() Route { return route(http.MethodGet, "/gateway/bot") }

func GetApplication() Route { return route(http.MethodGet, "/oauth2/applications/@me") }

// Channel and message routes.

func GetChannel(channelID string) Route {
	return route(http.MethodGet, "/channels/{channel}", channelID)
}

func TriggerTyping(channelID string) Route {
	return route(http.MethodPost, "/channels/{channel}/typing", channelID)
}

func GetMessage(channelID, messageID string) Route {
	return route(http.MethodGet, "/channels/{channel}/messages/{message}", channelID, messageID)
}

func CreateMessage(channelID string) Route {
	return route(http.MethodPost, "/channels/{channel}/messages", channelID)
}

func EditMessage(channelID, messageID string) Route {
	return route(http.MethodPatch, "/channels/{channel}/messages/{message}", channelID, messageID)
}

func DeleteMessage(channelID, messageID string) Route {
	return route(http.MethodDelete, "/channels/{channel}/messages/{message}", channelID, messageID)
}

func GetPinnedMessages(channelID string) Route {
	return route(http.MethodGet, "/channels/{channel}/pins", channelID)
}

func PinMessage(channelID, messageID string) Route {
	return route(http.MethodPut, "/channels/{channel}/pins/{message}", channelID, messageID)
}

func UnpinMessage(channelID, messageID string) Route {
	return route(http.MethodDelete, "/channels/{channel}/pins/{message}", channelID, messageID)
}

// Reaction routes.

func CreateReaction(channelID, messageID, emoji string) Route {
	return route(http.MethodPut,
		"/channels/{channel}/messages/{message}/reactions/{emoji}/@me",
		channelID, messageID, emoji)
}

func DeleteOwnReaction(channelID, messageID, emoji string) Route {
	return route(http.MethodDelete,
		"/channels/{channel}/messages/{message}/reactions/{emoji}/@me",
		channelID, messageID, emoji)
}

func DeleteUserReaction(channelID, messageID, emoji, userID string) Route {
	return route(http.MethodDelete,
		"/channels/{channel}/messages/{message}/reactions/{emoji}/{user}",
		channelID, messageID, emoji, userID)
}

func GetReactions(channelID, messageID, emoji string) Route {
	return route(http.MethodGet,
		"/channels/{channel}/messages/{message}/reactions/{emoji}",
		channelID, messageID, emoji)
}

// User routes.

func GetCurrentUser() Route { return route(http.MethodGet, "/users/@me") }

func GetUser(userID string) Route {
	return route(http.MethodGet, "/users/{user}", userID)
}

func CreateDM() Route { return route(http.MethodPost, "/users/@me/channels") }

// Guild routes.

func GetGuild(guildID string) Route {
	return route(http.MethodGet, "/guilds/{guild}", guildID)
}

func GetGuildMember(guildID, userID string) Route {
	return route(http.MethodGet, "/guilds/{guild}/members/{user}", guildID, userID)
}

func GetGuildRoles(guildID string) Route {
	return route(http.MethodGet, "/guilds/{guild}/roles", guildID)
}

func AddGuildMemberRole(guildID, userID, roleID string) Route {
	return route(http.MethodPut, "/guilds/{guild}/members/{user}/roles/{role}", guildID, userID, roleID)
}

func RemoveGuildMemberRole(guildID, userID, roleID string) Route {
	return route(http.MethodDelete, "/guilds/{guild}/members/{user}/roles/{role}", guildID, userID, roleID)
}

// Interaction routes.

func CreateInteractionResponse(interactionID, token string) Route {
	return route(http.MethodPost, "/interactions/{interaction}/{token}/callback", interactionID, token)
}

func EditInteractionResponse(applicationID, token string) Route {
	return route(http.MethodPatch, "/webhooks/{application}/{token}/messages/@original", applicationID, token)
}

func DeleteInteractionResponse(applicationID, token string) Route {
	return route(http.MethodDelete, "/webhooks/{application}/{token}/messages/@original", applicationID, token)
}

func CreateFollowupMessage(applicationID, token string) Route {
	return route(http.MethodPost, "/webhooks/{application}/{token}", applicationID, token)
}

// Application command routes.

func GetGlobalCommands(applicationID string) Route {
	return route(http.MethodGet, "/applications/{application}/commands", applicationID)
}

func CreateGlobalCommand(applicationID string) Route {
	return route(http.MethodPost, "/applications/{application}/commands", applicationID)
}

func BulkOverwriteGlobalCommands(applicationID string) Route {
	return route(http.MethodPut, "/applications/{application}/commands", applicationID)
}

func GetGuildCommands(applicationID, guildID string) Route {
	return route(http.MethodGet, "/applications/{application}/guilds/{guild}/commands", applicationID, guildID)
}

func CreateGuildCommand(applicationID, guildID string) Route {
	return route(http.MethodPost, "/applications/{application}/guilds/{guild}/commands", applicationID, guildID)
}

func BulkOverwriteGuildCommands(applicationID, guildID string) Route {
	return route(http.MethodPut, "/applications/{application}/guilds/{guild}/commands", applicationID, guildID)
}
