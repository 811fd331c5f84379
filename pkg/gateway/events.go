package gateway

import "encoding/json"

// Event is one decoded dispatch from the stream. The concrete types
// below form a closed set; payloads with an unrecognized type name
// decode to Unknown so protocol additions never break the session.
type Event interface {
	EventType() string
}

// User is the platform account attached to messages and interactions.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Bot      bool   `json:"bot,omitempty"`
}

// Channel is a messaging channel, possibly belonging to a guild.
type Channel struct {
	ID      string `json:"id"`
	Type    int    `json:"type"`
	Name    string `json:"name,omitempty"`
	GuildID string `json:"guild_id,omitempty"`
}

// Guild is a server-side community the account belongs to.
type Guild struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	MemberCount int       `json:"member_count,omitempty"`
	Channels    []Channel `json:"channels,omitempty"`
}

// Message is a chat message.
type Message struct {
	ID        string `json:"id"`
	ChannelID string `json:"channel_id"`
	GuildID   string `json:"guild_id,omitempty"`
	Author    User   `json:"author"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp,omitempty"`
}

// Interaction is a user command invocation awaiting a response through
// the interaction-callback routes. Data carries the command payload
// verbatim; resolving it against registered command schemas is the
// command framework's job, not the session's.
type Interaction struct {
	ID            string          `json:"id"`
	ApplicationID string          `json:"application_id"`
	Type          int             `json:"type"`
	Token         string          `json:"token"`
	ChannelID     string          `json:"channel_id,omitempty"`
	GuildID       string          `json:"guild_id,omitempty"`
	User          *User           `json:"user,omitempty"`
	Data          json.RawMessage `json:"data,omitempty"`
}

// Ready opens a fresh session: it carries the session identifier and
// the dedicated URL later resumes must connect to.
type Ready struct {
	Version          int    `json:"v"`
	User             User   `json:"user"`
	SessionID        string `json:"session_id"`
	ResumeGatewayURL string `json:"resume_gateway_url"`
	Shard            [2]int `json:"shard"`
	Application      struct {
		ID string `json:"id"`
	} `json:"application"`
}

func (Ready) EventType() string { return "READY" }

// Resumed confirms a resume: all missed events have been replayed.
type Resumed struct{}

func (Resumed) EventType() string { return "RESUMED" }

type MessageCreate struct {
	Message
}

func (MessageCreate) EventType() string { return "MESSAGE_CREATE" }

type MessageUpdate struct {
	Message
}

func (MessageUpdate) EventType() string { return "MESSAGE_UPDATE" }

type MessageDelete struct {
	ID        string `json:"id"`
	ChannelID string `json:"channel_id"`
	GuildID   string `json:"guild_id,omitempty"`
}

func (MessageDelete) EventType() string { return "MESSAGE_DELETE" }

type InteractionCreate struct {
	Interaction
}

func (InteractionCreate) EventType() string { return "INTERACTION_CREATE" }

type GuildCreate struct {
	Guild
}

func (GuildCreate) EventType() string { return "GUILD_CREATE" }

type ChannelCreate struct {
	Channel
}

func (ChannelCreate) EventType() string { return "CHANNEL_CREATE" }

type TypingStart struct {
	ChannelID string `json:"channel_id"`
	GuildID   string `json:"guild_id,omitempty"`
	UserID    string `json:"user_id"`
	Timestamp int64  `json:"timestamp"`
}

func (TypingStart) EventType() string { return "TYPING_START" }

// Unknown carries a dispatch whose type name has no registered decoder.
type Unknown struct {
	Type string
	Data json.RawMessage
}

func (u Unknown) EventType() string { return u.Type }

func decodeInto[E Event](data json.RawMessage) (Event, error) {
	var e E
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	return e, nil
}

// eventDecoders maps dispatch type names to decoders. Lookup, not
// reflection: adding an event type means adding one entry here.
var eventDecoders = map[string]func(json.RawMessage) (Event, error){
	"READY":              decodeInto[Ready],
	"RESUMED":            decodeInto[Resumed],
	"MESSAGE_CREATE":     decodeInto[MessageCreate],
	"MESSAGE_UPDATE":     decodeInto[MessageUpdate],
	"MESSAGE_DELETE":     decodeInto[MessageDelete],
	"INTERACTION_CREATE": decodeInto[InteractionCreate],
	"GUILD_CREATE":       decodeInto[GuildCreate],
	"CHANNEL_CREATE":     decodeInto[ChannelCreate],
	"TYPING_START":       decodeInto[TypingStart],
}

// decodeEvent turns a dispatch frame's type tag and payload into a
// typed event. Unrecognized types fall through to Unknown with the
// payload intact.
func decodeEvent(eventType string, data json.RawMessage) (Event, error) {
	dec, ok := eventDecoders[eventType]
	if !ok {
		return Unknown{Type: eventType, Data: data}, nil
	}
	return dec(data)
}
