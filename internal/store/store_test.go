package store

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func mkMessage(chatID, topicID int64, messageID int, text string, ts time.Time) Message {
	return Message{
		ChatID:    chatID,
		TopicID:   topicID,
		MessageID: messageID,
		UserID:    100,
		Username:  "alice",
		Text:      text,
		Timestamp: ts,
	}
}

func TestAppendAndSlice(t *testing.T) {
	s := openTestStore(t)
	base := time.Now().Add(-time.Hour)

	for i := 1; i <= 5; i++ {
		msg := mkMessage(1, 0, i, "hello", base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, s.Append(msg))
	}

	msgs, err := s.Slice(1, 0, 0, time.Time{})
	require.NoError(t, err)
	require.Len(t, msgs, 5)

	// chronological order
	for i := 1; i < len(msgs); i++ {
		assert.False(t, msgs[i].Timestamp.Before(msgs[i-1].Timestamp))
	}
	assert.Equal(t, 1, msgs[0].MessageID)
	assert.Equal(t, 5, msgs[4].MessageID)
}

func TestSliceAnchor(t *testing.T) {
	s := openTestStore(t)
	base := time.Now().Add(-time.Hour)

	for i := 1; i <= 5; i++ {
		require.NoError(t, s.Append(mkMessage(1, 0, i, "m", base.Add(time.Duration(i)*time.Minute))))
	}

	msgs, err := s.Slice(1, 0, 3, time.Time{})
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, 3, msgs[0].MessageID)
	assert.Equal(t, 5, msgs[2].MessageID)
}

func TestSliceAnchorNotFound(t *testing.T) {
	s := openTestStore(t)
	base := time.Now().Add(-time.Hour)

	for i := 1; i <= 3; i++ {
		require.NoError(t, s.Append(mkMessage(1, 0, i, "m", base.Add(time.Duration(i)*time.Minute))))
	}

	msgs, err := s.Slice(1, 0, 999, time.Time{})
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestSliceRespectsCutoff(t *testing.T) {
	s := openTestStore(t)
	now := time.Now()

	require.NoError(t, s.Append(mkMessage(1, 0, 1, "old", now.Add(-48*time.Hour))))
	require.NoError(t, s.Append(mkMessage(1, 0, 2, "fresh", now.Add(-time.Hour))))

	msgs, err := s.Slice(1, 0, 0, now.Add(-24*time.Hour))
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "fresh", msgs[0].Text)
}

func TestSliceIsolatesTopicsAndChats(t *testing.T) {
	s := openTestStore(t)
	now := time.Now()

	require.NoError(t, s.Append(mkMessage(1, 0, 1, "plain", now)))
	require.NoError(t, s.Append(mkMessage(1, 7, 2, "topic", now)))
	require.NoError(t, s.Append(mkMessage(2, 0, 3, "other chat", now)))

	msgs, err := s.Slice(1, 7, 0, time.Time{})
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "topic", msgs[0].Text)

	msgs, err = s.Slice(1, 0, 0, time.Time{})
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "plain", msgs[0].Text)
}

func TestCleanupChat(t *testing.T) {
	s := openTestStore(t)
	now := time.Now()

	require.NoError(t, s.Append(mkMessage(1, 0, 1, "old", now.Add(-72*time.Hour))))
	require.NoError(t, s.Append(mkMessage(1, 0, 2, "older", now.Add(-96*time.Hour))))
	require.NoError(t, s.Append(mkMessage(1, 0, 3, "fresh", now)))

	removed, err := s.CleanupChat(1, 0, now.Add(-24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	msgs, err := s.Slice(1, 0, 0, time.Time{})
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, "fresh", msgs[0].Text)
}

func TestCleanupAll(t *testing.T) {
	s := openTestStore(t)
	now := time.Now()

	require.NoError(t, s.Append(mkMessage(1, 0, 1, "old", now.Add(-72*time.Hour))))
	require.NoError(t, s.Append(mkMessage(2, 5, 2, "old", now.Add(-72*time.Hour))))
	require.NoError(t, s.Append(mkMessage(2, 5, 3, "fresh", now)))

	removed, err := s.CleanupAll(now.Add(-24 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	msgs, err := s.Slice(2, 5, 0, time.Time{})
	require.NoError(t, err)
	require.Len(t, msgs, 1)
}

func TestCleanupAllLeavesTopicMetadata(t *testing.T) {
	s := openTestStore(t)
	now := time.Now()

	require.NoError(t, s.SaveTopic(Topic{ChatID: 1, TopicID: 7, Name: "planning", Status: TopicStatusOpen, CreatedAt: now}))
	require.NoError(t, s.Append(mkMessage(1, 7, 1, "old", now.Add(-72*time.Hour))))

	_, err := s.CleanupAll(now.Add(-24 * time.Hour))
	require.NoError(t, err)

	topic, err := s.GetTopic(1, 7)
	require.NoError(t, err)
	require.NotNil(t, topic)
	assert.Equal(t, "planning", topic.Name)
}

func TestResetTopic(t *testing.T) {
	s := openTestStore(t)
	now := time.Now()

	require.NoError(t, s.SaveTopic(Topic{ChatID: 1, TopicID: 7, Name: "planning", Status: TopicStatusOpen, CreatedAt: now}))
	require.NoError(t, s.Append(mkMessage(1, 7, 1, "a", now)))
	require.NoError(t, s.Append(mkMessage(1, 7, 2, "b", now)))
	require.NoError(t, s.Append(mkMessage(1, 0, 3, "plain", now)))

	removed, err := s.ResetTopic(1, 7)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	topic, err := s.GetTopic(1, 7)
	require.NoError(t, err)
	assert.Nil(t, topic)

	// plain chat log untouched
	msgs, err := s.Slice(1, 0, 0, time.Time{})
	require.NoError(t, err)
	assert.Len(t, msgs, 1)
}

func TestResetChat(t *testing.T) {
	s := openTestStore(t)
	now := time.Now()

	require.NoError(t, s.SaveTopic(Topic{ChatID: 1, TopicID: 7, Name: "planning", Status: TopicStatusOpen, CreatedAt: now}))
	require.NoError(t, s.Append(mkMessage(1, 7, 1, "a", now)))
	require.NoError(t, s.Append(mkMessage(1, 0, 2, "b", now)))
	require.NoError(t, s.Append(mkMessage(2, 0, 3, "other", now)))

	removed, err := s.ResetChat(1)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	stats, err := s.ChatStats(1)
	require.NoError(t, err)
	assert.Zero(t, stats.MessageCount)
	assert.Zero(t, stats.TopicCount)

	// other chats untouched
	msgs, err := s.Slice(2, 0, 0, time.Time{})
	require.NoError(t, err)
	assert.Len(t, msgs, 1)
}

func TestTopicLifecycle(t *testing.T) {
	s := openTestStore(t)
	now := time.Now()

	require.NoError(t, s.SaveTopic(Topic{ChatID: 1, TopicID: 7, Name: "planning", Status: TopicStatusOpen, CreatedAt: now}))

	require.NoError(t, s.CloseTopic(1, 7))
	topic, err := s.GetTopic(1, 7)
	require.NoError(t, err)
	require.NotNil(t, topic)
	assert.Equal(t, TopicStatusClosed, topic.Status)
	assert.NotNil(t, topic.ClosedAt)

	require.NoError(t, s.ReopenTopic(1, 7))
	topic, err = s.GetTopic(1, 7)
	require.NoError(t, err)
	require.NotNil(t, topic)
	assert.Equal(t, TopicStatusOpen, topic.Status)
	assert.Nil(t, topic.ClosedAt)
}

func TestTopicLifecycleUnknownTopic(t *testing.T) {
	s := openTestStore(t)

	assert.NoError(t, s.CloseTopic(1, 99))
	assert.NoError(t, s.ReopenTopic(1, 99))

	topic, err := s.GetTopic(1, 99)
	require.NoError(t, err)
	assert.Nil(t, topic)
}

func TestAppendBumpsTopicMessageCount(t *testing.T) {
	s := openTestStore(t)
	now := time.Now()

	require.NoError(t, s.SaveTopic(Topic{ChatID: 1, TopicID: 7, Name: "planning", Status: TopicStatusOpen, CreatedAt: now}))
	require.NoError(t, s.Append(mkMessage(1, 7, 1, "a", now)))
	require.NoError(t, s.Append(mkMessage(1, 7, 2, "b", now)))

	topic, err := s.GetTopic(1, 7)
	require.NoError(t, err)
	require.NotNil(t, topic)
	assert.Equal(t, int64(2), topic.MessageCount)
}

func TestAppendConcurrentTopicMessageCount(t *testing.T) {
	s := openTestStore(t)
	now := time.Now()

	require.NoError(t, s.SaveTopic(Topic{ChatID: 1, TopicID: 7, Name: "planning", Status: TopicStatusOpen, CreatedAt: now}))

	const writers = 10
	const perWriter = 10

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				_ = s.Append(mkMessage(1, 7, w*perWriter+i+1, "m", now))
			}
		}(w)
	}
	wg.Wait()

	topic, err := s.GetTopic(1, 7)
	require.NoError(t, err)
	require.NotNil(t, topic)
	assert.Equal(t, int64(writers*perWriter), topic.MessageCount)
}

func TestListTopics(t *testing.T) {
	s := openTestStore(t)
	now := time.Now()

	require.NoError(t, s.SaveTopic(Topic{ChatID: 1, TopicID: 7, Name: "planning", Status: TopicStatusOpen, CreatedAt: now}))
	require.NoError(t, s.SaveTopic(Topic{ChatID: 1, TopicID: 9, Name: "random", Status: TopicStatusClosed, CreatedAt: now}))
	require.NoError(t, s.SaveTopic(Topic{ChatID: 2, TopicID: 1, Name: "elsewhere", Status: TopicStatusOpen, CreatedAt: now}))

	topics, err := s.ListTopics(1)
	require.NoError(t, err)
	assert.Len(t, topics, 2)
}

func TestChatStats(t *testing.T) {
	s := openTestStore(t)
	now := time.Now()

	require.NoError(t, s.SaveTopic(Topic{ChatID: 1, TopicID: 7, Name: "planning", Status: TopicStatusOpen, CreatedAt: now}))
	require.NoError(t, s.Append(mkMessage(1, 7, 1, "a", now)))
	require.NoError(t, s.Append(mkMessage(1, 0, 2, "b", now)))

	stats, err := s.ChatStats(1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.MessageCount)
	assert.Equal(t, int64(1), stats.TopicCount)
	assert.Greater(t, stats.StoredBytes, int64(0))

	topicStats, err := s.TopicStats(1, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(1), topicStats.MessageCount)
}

func TestClosedStore(t *testing.T) {
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, s.Close())

	assert.Error(t, s.Append(mkMessage(1, 0, 1, "a", time.Now())))
	_, err = s.Slice(1, 0, 0, time.Time{})
	assert.Error(t, err)
	_, err = s.CleanupAll(time.Now())
	assert.Error(t, err)
}
