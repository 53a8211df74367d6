package telegram

import (
	"encoding/json"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Incoming pairs a Telegram message with the forum-topic context extracted
// from the raw update payload. The pinned Bot API library predates forum
// topics, so message_thread_id and the topic service events are recovered by
// decoding the update JSON a second time into rawMessage.
type Incoming struct {
	Message *tgbotapi.Message

	// TopicID is the forum topic thread ID, or 0 for plain chats.
	TopicID        int64
	IsTopicMessage bool

	TopicCreatedName string
	TopicClosed      bool
	TopicReopened    bool
}

type rawUpdate struct {
	UpdateID int         `json:"update_id"`
	Message  *rawMessage `json:"message"`
}

type rawMessage struct {
	MessageThreadID    int64            `json:"message_thread_id"`
	IsTopicMessage     bool             `json:"is_topic_message"`
	ForumTopicCreated  *forumTopicEvent `json:"forum_topic_created"`
	ForumTopicClosed   json.RawMessage  `json:"forum_topic_closed"`
	ForumTopicReopened json.RawMessage  `json:"forum_topic_reopened"`
}

type forumTopicEvent struct {
	Name string `json:"name"`
}

// decodeUpdate parses one raw getUpdates element into the typed update plus
// the topic context the typed structs drop.
func decodeUpdate(data json.RawMessage) (tgbotapi.Update, *Incoming, error) {
	var update tgbotapi.Update
	if err := json.Unmarshal(data, &update); err != nil {
		return update, nil, fmt.Errorf("failed to decode update: %w", err)
	}

	if update.Message == nil {
		return update, nil, nil
	}

	var raw rawUpdate
	if err := json.Unmarshal(data, &raw); err != nil {
		return update, nil, fmt.Errorf("failed to decode update extras: %w", err)
	}

	in := &Incoming{Message: update.Message}
	if raw.Message != nil {
		in.TopicID = raw.Message.MessageThreadID
		in.IsTopicMessage = raw.Message.IsTopicMessage
		if raw.Message.ForumTopicCreated != nil {
			in.TopicCreatedName = raw.Message.ForumTopicCreated.Name
		}
		in.TopicClosed = len(raw.Message.ForumTopicClosed) > 0
		in.TopicReopened = len(raw.Message.ForumTopicReopened) > 0
	}
	if !in.IsTopicMessage && in.TopicCreatedName == "" && !in.TopicClosed && !in.TopicReopened {
		// General chat log
		in.TopicID = 0
	}

	return update, in, nil
}

// fetchUpdates long-polls getUpdates and returns the decoded batch plus the
// next offset to acknowledge with.
func (b *Bot) fetchUpdates(offset int) ([]*Incoming, int, error) {
	params := tgbotapi.Params{}
	params.AddNonZero("offset", offset)
	params.AddNonZero("timeout", updatePollTimeout)
	params["allowed_updates"] = `["message"]`

	resp, err := b.api.MakeRequest("getUpdates", params)
	if err != nil {
		return nil, offset, fmt.Errorf("getUpdates failed: %w", err)
	}

	var items []json.RawMessage
	if err := json.Unmarshal(resp.Result, &items); err != nil {
		return nil, offset, fmt.Errorf("failed to decode updates batch: %w", err)
	}

	var out []*Incoming
	next := offset
	for _, item := range items {
		var id struct {
			UpdateID int `json:"update_id"`
		}
		if err := json.Unmarshal(item, &id); err == nil && id.UpdateID >= next {
			next = id.UpdateID + 1
		}

		_, in, err := decodeUpdate(item)
		if err != nil {
			continue
		}
		if in != nil {
			out = append(out, in)
		}
	}

	return out, next, nil
}
