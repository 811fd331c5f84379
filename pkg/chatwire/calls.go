package chatwire

import (
	"context"

	"github.com/user/chatwire/pkg/gateway"
	"github.com/user/chatwire/pkg/rest"
)

// MessageSend is the body for creating or editing a message.
type MessageSend struct {
	Content string `json:"content"`
}

// Interaction response callback types.
const (
	// InteractionResponseMessage replies with a visible message.
	InteractionResponseMessage = 4
	// InteractionResponseDeferred acknowledges now and edits the
	// response later, within the interaction token's lifetime.
	InteractionResponseDeferred = 5
)

type interactionResponse struct {
	Type int          `json:"type"`
	Data *MessageSend `json:"data,omitempty"`
}

// SendMessage posts a message to a channel.
func (c *Client) SendMessage(ctx context.Context, channelID, content string) (*gateway.Message, error) {
	var msg gateway.Message
	err := c.rest.Post(ctx, rest.CreateMessage(channelID), MessageSend{Content: content}, &msg)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// EditMessage replaces a message's content.
func (c *Client) EditMessage(ctx context.Context, channelID, messageID, content string) (*gateway.Message, error) {
	var msg gateway.Message
	err := c.rest.Patch(ctx, rest.EditMessage(channelID, messageID), MessageSend{Content: content}, &msg)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// DeleteMessage removes a message.
func (c *Client) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	return c.rest.Delete(ctx, rest.DeleteMessage(channelID, messageID))
}

// React adds the account's reaction to a message.
func (c *Client) React(ctx context.Context, channelID, messageID, emoji string) error {
	return c.rest.Put(ctx, rest.CreateReaction(channelID, messageID, emoji), nil)
}

// Typing shows the account as typing in a channel.
func (c *Client) Typing(ctx context.Context, channelID string) error {
	return c.rest.Post(ctx, rest.TriggerTyping(channelID), nil, nil)
}

// RespondToInteraction replies to an interaction with a message.
func (c *Client) RespondToInteraction(ctx context.Context, i gateway.Interaction, content string) error {
	body := interactionResponse{
		Type: InteractionResponseMessage,
		Data: &MessageSend{Content: content},
	}
	return c.rest.Post(ctx, rest.CreateInteractionResponse(i.ID, i.Token), body, nil)
}

// DeferInteraction acknowledges an interaction without responding yet;
// follow up with EditInteractionResponse within the token's lifetime.
func (c *Client) DeferInteraction(ctx context.Context, i gateway.Interaction) error {
	body := interactionResponse{Type: InteractionResponseDeferred}
	return c.rest.Post(ctx, rest.CreateInteractionResponse(i.ID, i.Token), body, nil)
}

// EditInteractionResponse replaces the original interaction response.
func (c *Client) EditInteractionResponse(ctx context.Context, i gateway.Interaction, content string) error {
	return c.rest.Patch(ctx, rest.EditInteractionResponse(i.ApplicationID, i.Token),
		MessageSend{Content: content}, nil)
}

// User fetches an account by id.
func (c *Client) User(ctx context.Context, userID string) (*gateway.User, error) {
	var u gateway.User
	if err := c.rest.Get(ctx, rest.GetUser(userID), &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Guild fetches a guild by id.
func (c *Client) Guild(ctx context.Context, guildID string) (*gateway.Guild, error) {
	var g gateway.Guild
	if err := c.rest.Get(ctx, rest.GetGuild(guildID), &g); err != nil {
		return nil, err
	}
	return &g, nil
}
