package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/Mhsaeedi07/BriefBot/internal/logger"
	_ "github.com/lib/pq"
)

// DB holds the optional Postgres connection used for per-chat usage insights.
// A nil *DB is valid and means no database was configured; every method is
// safe to call on it.
type DB struct {
	conn *sql.DB
}

// NewDB creates a new database connection. An empty DSN returns (nil, nil):
// usage insights are simply disabled.
func NewDB(dsn string) (*DB, error) {
	if dsn == "" {
		return nil, nil // No database configured
	}

	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.initTables(); err != nil {
		return nil, fmt.Errorf("failed to initialize tables: %w", err)
	}

	logger.InfoMsg("Database connection established successfully")
	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	if db == nil || db.conn == nil {
		return nil
	}
	return db.conn.Close()
}

// initTables creates the chat_insights table if it doesn't exist
func (db *DB) initTables() error {
	query := `
	CREATE TABLE IF NOT EXISTS chat_insights (
		id SERIAL PRIMARY KEY,
		chat_id BIGINT UNIQUE NOT NULL,
		summary_cnt BIGINT NOT NULL DEFAULT 0,
		missed_cnt BIGINT NOT NULL DEFAULT 0,
		ask_cnt BIGINT NOT NULL DEFAULT 0,
		transcribe_cnt BIGINT NOT NULL DEFAULT 0,
		token_input BIGINT NOT NULL DEFAULT 0,
		token_output BIGINT NOT NULL DEFAULT 0,
		update_time TIMESTAMP WITH TIME ZONE DEFAULT NOW()
	);

	CREATE INDEX IF NOT EXISTS idx_chat_insights_chat_id ON chat_insights(chat_id);
	`

	_, err := db.conn.Exec(query)
	return err
}

// GetInsight returns the usage insight row for a chat, or nil when the chat
// has no recorded usage yet.
func (db *DB) GetInsight(chatID int64) (*ChatInsight, error) {
	if db == nil {
		return nil, nil
	}

	query := `
	SELECT id, chat_id, summary_cnt, missed_cnt, ask_cnt, transcribe_cnt, token_input, token_output, update_time
	FROM chat_insights
	WHERE chat_id = $1
	`

	insight := &ChatInsight{}
	err := db.conn.QueryRow(query, chatID).Scan(
		&insight.ID, &insight.ChatID, &insight.SummaryCnt, &insight.MissedCnt,
		&insight.AskCnt, &insight.TranscribeCnt, &insight.TokenInput, &insight.TokenOutput,
		&insight.UpdateTime,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get chat insights: %w", err)
	}

	return insight, nil
}

// IncrementCommand bumps the per-chat counter for one analysis command.
// Unknown command names are ignored.
func (db *DB) IncrementCommand(chatID int64, command string) error {
	if db == nil {
		return nil
	}

	var column string
	switch command {
	case "summary":
		column = "summary_cnt"
	case "missed":
		column = "missed_cnt"
	case "ask":
		column = "ask_cnt"
	case "transcribe":
		column = "transcribe_cnt"
	default:
		return nil
	}

	query := fmt.Sprintf(`
	INSERT INTO chat_insights (chat_id, %[1]s, update_time)
	VALUES ($1, 1, $2)
	ON CONFLICT (chat_id) DO UPDATE SET
		%[1]s = chat_insights.%[1]s + 1,
		update_time = $2
	`, column)

	_, err := db.conn.Exec(query, chatID, time.Now())
	if err != nil {
		return fmt.Errorf("failed to increment %s count: %w", command, err)
	}

	return nil
}

// AddTokenUsage accumulates LLM token consumption for a chat.
func (db *DB) AddTokenUsage(chatID int64, promptTokens, completionTokens int) error {
	if db == nil {
		return nil
	}

	query := `
	INSERT INTO chat_insights (chat_id, token_input, token_output, update_time)
	VALUES ($1, $2, $3, $4)
	ON CONFLICT (chat_id) DO UPDATE SET
		token_input = chat_insights.token_input + $2,
		token_output = chat_insights.token_output + $3,
		update_time = $4
	`

	_, err := db.conn.Exec(query, chatID, promptTokens, completionTokens, time.Now())
	if err != nil {
		return fmt.Errorf("failed to record token usage: %w", err)
	}

	return nil
}

// DeleteInsight removes a chat's usage row. Used by the full reset flow.
func (db *DB) DeleteInsight(chatID int64) error {
	if db == nil {
		return nil
	}

	_, err := db.conn.Exec(`DELETE FROM chat_insights WHERE chat_id = $1`, chatID)
	if err != nil {
		return fmt.Errorf("failed to delete chat insights: %w", err)
	}
	return nil
}
