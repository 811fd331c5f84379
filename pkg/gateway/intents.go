package gateway

// Intents is the bitmask sent at identify selecting which event groups
// the stream delivers.
type Intents uint64

const (
	IntentGuilds                Intents = 1 << 0
	IntentGuildMembers          Intents = 1 << 1
	IntentGuildModeration       Intents = 1 << 2
	IntentGuildEmojis           Intents = 1 << 3
	IntentGuildIntegrations     Intents = 1 << 4
	IntentGuildWebhooks         Intents = 1 << 5
	IntentGuildInvites          Intents = 1 << 6
	IntentGuildVoiceStates      Intents = 1 << 7
	IntentGuildPresences        Intents = 1 << 8
	IntentGuildMessages         Intents = 1 << 9
	IntentGuildMessageReactions Intents = 1 << 10
	IntentGuildMessageTyping    Intents = 1 << 11
	IntentDirectMessages        Intents = 1 << 12
	IntentDirectMessageReacts   Intents = 1 << 13
	IntentDirectMessageTyping   Intents = 1 << 14
	IntentMessageContent        Intents = 1 << 15
)

// privilegedIntents require explicit enablement on the application
// before the server will accept them.
const privilegedIntents = IntentGuildMembers | IntentGuildPresences | IntentMessageContent

// DefaultIntents is every non-privileged intent.
func DefaultIntents() Intents {
	var all Intents
	for i := 0; i <= 15; i++ {
		all |= 1 << i
	}
	return all &^ privilegedIntents
}

// Has reports whether every bit of other is set.
func (i Intents) Has(other Intents) bool { return i&other == other }
