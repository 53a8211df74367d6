package database

import "time"

// ChatInsight is one chat's accumulated command and token usage.
type ChatInsight struct {
	ID            int       `db:"id"`
	ChatID        int64     `db:"chat_id"`
	SummaryCnt    int64     `db:"summary_cnt"`
	MissedCnt     int64     `db:"missed_cnt"`
	AskCnt        int64     `db:"ask_cnt"`
	TranscribeCnt int64     `db:"transcribe_cnt"`
	TokenInput    int64     `db:"token_input"`
	TokenOutput   int64     `db:"token_output"`
	UpdateTime    time.Time `db:"update_time"`
}
