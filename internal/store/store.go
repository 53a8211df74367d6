package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Mhsaeedi07/BriefBot/internal/logger"
	"github.com/cockroachdb/pebble"
)

// Store is a Pebble-backed archive of group messages. Each chat (and each
// forum topic inside a chat) has its own key range, with message keys sorted
// by insertion time so slices come back in chronological order.
//
// Key layout:
//
//	chat:<chatID>:topic:<topicID>:msg:<unixnano %020d>-<seq %06d>
//	chat:<chatID>:topic:<topicID>:meta
//
// Topic ID 0 holds the plain (non-forum) chat log.
type Store struct {
	db   *pebble.DB
	path string

	// seq reduces key collisions when multiple messages share the same
	// nanosecond timestamp.
	seq uint64

	// topicMu serializes the read-modify-write of topic message counters.
	topicMu sync.Mutex
}

// Open opens (or creates) a Pebble database at the given path.
func Open(path string) (*Store, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open message store at %s: %w", path, err)
	}
	logger.Info("Message store opened", map[string]interface{}{
		"path": path,
	})
	return &Store{db: db, path: path}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Path returns the on-disk location of the store.
func (s *Store) Path() string {
	return s.path
}

func msgPrefix(chatID, topicID int64) []byte {
	return []byte(fmt.Sprintf("chat:%d:topic:%d:msg:", chatID, topicID))
}

func msgKey(chatID, topicID int64, ts int64, seq uint64) []byte {
	return []byte(fmt.Sprintf("chat:%d:topic:%d:msg:%020d-%06d", chatID, topicID, ts, seq))
}

func topicMetaKey(chatID, topicID int64) []byte {
	return []byte(fmt.Sprintf("chat:%d:topic:%d:meta", chatID, topicID))
}

func chatPrefix(chatID int64) []byte {
	return []byte(fmt.Sprintf("chat:%d:", chatID))
}

// parseMsgKeyTime extracts the nanosecond timestamp from a message key.
func parseMsgKeyTime(key []byte) (int64, bool) {
	k := string(key)
	i := strings.Index(k, ":msg:")
	if i < 0 {
		return 0, false
	}
	rest := k[i+len(":msg:"):]
	dash := strings.IndexByte(rest, '-')
	if dash < 0 {
		return 0, false
	}
	ts, err := strconv.ParseInt(rest[:dash], 10, 64)
	if err != nil {
		return 0, false
	}
	return ts, true
}

// Append stores a message and bumps the topic message counter when topic
// metadata exists.
func (s *Store) Append(msg Message) error {
	if s.db == nil {
		return fmt.Errorf("message store is closed")
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	ts := msg.Timestamp.UTC().UnixNano()
	seq := atomic.AddUint64(&s.seq, 1)
	key := msgKey(msg.ChatID, msg.TopicID, ts, seq)

	if err := s.db.Set(key, data, pebble.Sync); err != nil {
		return fmt.Errorf("failed to store message: %w", err)
	}

	s.topicMu.Lock()
	if topic, err := s.GetTopic(msg.ChatID, msg.TopicID); err == nil && topic != nil {
		topic.MessageCount++
		if err := s.SaveTopic(*topic); err != nil {
			logger.Warn("Failed to bump topic message count", map[string]interface{}{
				"error":    err.Error(),
				"chat_id":  msg.ChatID,
				"topic_id": msg.TopicID,
			})
		}
	}
	s.topicMu.Unlock()

	logger.Debug("Message stored", map[string]interface{}{
		"chat_id":  msg.ChatID,
		"topic_id": msg.TopicID,
		"bytes":    len(data),
	})
	return nil
}

// Slice returns the chronological messages for a chat/topic, excluding
// anything older than cutoff. When fromMessageID is nonzero the slice starts
// at that message; an anchor that is not found yields an empty slice.
func (s *Store) Slice(chatID, topicID int64, fromMessageID int, cutoff time.Time) ([]Message, error) {
	if s.db == nil {
		return nil, fmt.Errorf("message store is closed")
	}

	prefix := msgPrefix(chatID, topicID)
	iter, err := s.db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var out []Message
	foundAnchor := fromMessageID == 0

	for iter.SeekGE(prefix); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), prefix) {
			break
		}

		var msg Message
		if err := json.Unmarshal(iter.Value(), &msg); err != nil {
			logger.Warn("Skipping malformed message record", map[string]interface{}{
				"chat_id":  chatID,
				"topic_id": topicID,
			})
			continue
		}

		if msg.Timestamp.Before(cutoff) {
			continue
		}

		if !foundAnchor {
			if msg.MessageID != 0 && msg.MessageID == fromMessageID {
				foundAnchor = true
			} else {
				continue
			}
		}

		out = append(out, msg)
	}

	if err := iter.Error(); err != nil {
		return nil, err
	}
	return out, nil
}

// CleanupChat deletes messages older than cutoff from a single chat/topic log
// and returns how many were removed.
func (s *Store) CleanupChat(chatID, topicID int64, cutoff time.Time) (int, error) {
	if s.db == nil {
		return 0, fmt.Errorf("message store is closed")
	}
	return s.deleteOlderThan(msgPrefix(chatID, topicID), cutoff)
}

// CleanupChatAll deletes messages older than cutoff across all of a chat's
// topic logs plus its plain chat log.
func (s *Store) CleanupChatAll(chatID int64, cutoff time.Time) (int, error) {
	if s.db == nil {
		return 0, fmt.Errorf("message store is closed")
	}
	return s.deleteOlderThan(chatPrefix(chatID), cutoff)
}

// CleanupAll deletes messages older than cutoff across every stored chat and
// topic. Malformed keys are left alone.
func (s *Store) CleanupAll(cutoff time.Time) (int, error) {
	if s.db == nil {
		return 0, fmt.Errorf("message store is closed")
	}
	return s.deleteOlderThan([]byte("chat:"), cutoff)
}

func (s *Store) deleteOlderThan(prefix []byte, cutoff time.Time) (int, error) {
	iter, err := s.db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return 0, err
	}

	cutoffNanos := cutoff.UTC().UnixNano()
	var expired [][]byte

	for iter.SeekGE(prefix); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), prefix) {
			break
		}
		ts, ok := parseMsgKeyTime(iter.Key())
		if !ok {
			continue
		}
		if ts < cutoffNanos {
			expired = append(expired, append([]byte(nil), iter.Key()...))
		}
	}
	if err := iter.Error(); err != nil {
		iter.Close()
		return 0, err
	}
	if err := iter.Close(); err != nil {
		return 0, err
	}

	if len(expired) == 0 {
		return 0, nil
	}

	batch := s.db.NewBatch()
	for _, key := range expired {
		if err := batch.Delete(key, nil); err != nil {
			batch.Close()
			return 0, err
		}
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return 0, err
	}

	return len(expired), nil
}

// ResetTopic permanently deletes a topic's messages and metadata. Returns the
// number of deleted message records.
func (s *Store) ResetTopic(chatID, topicID int64) (int, error) {
	if s.db == nil {
		return 0, fmt.Errorf("message store is closed")
	}

	removed, err := s.deletePrefix(msgPrefix(chatID, topicID))
	if err != nil {
		return 0, err
	}
	if err := s.db.Delete(topicMetaKey(chatID, topicID), pebble.Sync); err != nil {
		return removed, err
	}
	logger.Info("Topic reset", map[string]interface{}{
		"chat_id":  chatID,
		"topic_id": topicID,
		"removed":  removed,
	})
	return removed, nil
}

// ResetChat permanently deletes everything stored for a chat: every topic
// log, the plain chat log, and all topic metadata.
func (s *Store) ResetChat(chatID int64) (int, error) {
	if s.db == nil {
		return 0, fmt.Errorf("message store is closed")
	}

	removed, err := s.deletePrefix(chatPrefix(chatID))
	if err != nil {
		return 0, err
	}
	logger.Info("Chat reset", map[string]interface{}{
		"chat_id": chatID,
		"removed": removed,
	})
	return removed, nil
}

func (s *Store) deletePrefix(prefix []byte) (int, error) {
	iter, err := s.db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return 0, err
	}

	var keys [][]byte
	count := 0
	for iter.SeekGE(prefix); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), prefix) {
			break
		}
		keys = append(keys, append([]byte(nil), iter.Key()...))
		if bytes.Contains(iter.Key(), []byte(":msg:")) {
			count++
		}
	}
	if err := iter.Error(); err != nil {
		iter.Close()
		return 0, err
	}
	if err := iter.Close(); err != nil {
		return 0, err
	}

	batch := s.db.NewBatch()
	for _, key := range keys {
		if err := batch.Delete(key, nil); err != nil {
			batch.Close()
			return 0, err
		}
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return 0, err
	}
	return count, nil
}

// SaveTopic stores topic metadata under its reserved key.
func (s *Store) SaveTopic(topic Topic) error {
	if s.db == nil {
		return fmt.Errorf("message store is closed")
	}
	data, err := json.Marshal(topic)
	if err != nil {
		return fmt.Errorf("failed to marshal topic: %w", err)
	}
	return s.db.Set(topicMetaKey(topic.ChatID, topic.TopicID), data, pebble.Sync)
}

// GetTopic returns topic metadata, or nil when the topic is unknown.
func (s *Store) GetTopic(chatID, topicID int64) (*Topic, error) {
	if s.db == nil {
		return nil, fmt.Errorf("message store is closed")
	}
	value, closer, err := s.db.Get(topicMetaKey(chatID, topicID))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	defer closer.Close()

	var topic Topic
	if err := json.Unmarshal(value, &topic); err != nil {
		return nil, fmt.Errorf("invalid topic metadata: %w", err)
	}
	return &topic, nil
}

// CloseTopic marks a topic as closed. Unknown topics are ignored.
func (s *Store) CloseTopic(chatID, topicID int64) error {
	topic, err := s.GetTopic(chatID, topicID)
	if err != nil || topic == nil {
		return err
	}
	now := time.Now()
	topic.Status = TopicStatusClosed
	topic.ClosedAt = &now
	return s.SaveTopic(*topic)
}

// ReopenTopic marks a closed topic as open again. Unknown topics are ignored.
func (s *Store) ReopenTopic(chatID, topicID int64) error {
	topic, err := s.GetTopic(chatID, topicID)
	if err != nil || topic == nil {
		return err
	}
	topic.Status = TopicStatusOpen
	topic.ClosedAt = nil
	return s.SaveTopic(*topic)
}

// ListTopics returns all topic metadata stored for a chat.
func (s *Store) ListTopics(chatID int64) ([]Topic, error) {
	if s.db == nil {
		return nil, fmt.Errorf("message store is closed")
	}

	prefix := chatPrefix(chatID)
	iter, err := s.db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var out []Topic
	for iter.SeekGE(prefix); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), prefix) {
			break
		}
		if !bytes.HasSuffix(iter.Key(), []byte(":meta")) {
			continue
		}
		var topic Topic
		if err := json.Unmarshal(iter.Value(), &topic); err != nil {
			continue
		}
		out = append(out, topic)
	}
	return out, iter.Error()
}

// ChatStats aggregates message counts and stored bytes across a whole chat.
func (s *Store) ChatStats(chatID int64) (ChatStats, error) {
	var stats ChatStats
	if s.db == nil {
		return stats, fmt.Errorf("message store is closed")
	}

	prefix := chatPrefix(chatID)
	iter, err := s.db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return stats, err
	}
	defer iter.Close()

	for iter.SeekGE(prefix); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), prefix) {
			break
		}
		if bytes.HasSuffix(iter.Key(), []byte(":meta")) {
			stats.TopicCount++
			continue
		}
		if bytes.Contains(iter.Key(), []byte(":msg:")) {
			stats.MessageCount++
			stats.StoredBytes += int64(len(iter.Value()))
		}
	}
	return stats, iter.Error()
}

// TopicStats aggregates message counts and stored bytes for one topic log.
func (s *Store) TopicStats(chatID, topicID int64) (ChatStats, error) {
	var stats ChatStats
	if s.db == nil {
		return stats, fmt.Errorf("message store is closed")
	}

	prefix := msgPrefix(chatID, topicID)
	iter, err := s.db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return stats, err
	}
	defer iter.Close()

	for iter.SeekGE(prefix); iter.Valid(); iter.Next() {
		if !bytes.HasPrefix(iter.Key(), prefix) {
			break
		}
		stats.MessageCount++
		stats.StoredBytes += int64(len(iter.Value()))
	}
	return stats, iter.Error()
}
