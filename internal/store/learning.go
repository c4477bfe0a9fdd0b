package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/klytics/sheetkit/internal/learning"
)

var _ learning.Store = (*Store)(nil)

// Record implements learning.Recorder.
func (s *Store) Record(ctx context.Context, in learning.Interaction) error {
	at := in.At.UnixNano()
	if in.At.IsZero() {
		at = s.stamp()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO commands (command, intent, success, created_at) VALUES (?, ?, ?, ?)`,
		in.Command, in.Intent, boolInt(in.Success), at)
	if err != nil {
		return fmt.Errorf("recording command: %w", err)
	}
	return nil
}

// Commands returns the most recent interactions, newest first.
func (s *Store) Commands(ctx context.Context, limit int) ([]learning.Interaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT command, intent, success, created_at FROM commands ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing commands: %w", err)
	}
	defer rows.Close()

	var out []learning.Interaction
	for rows.Next() {
		var (
			in      learning.Interaction
			success int
			at      int64
		)
		if err := rows.Scan(&in.Command, &in.Intent, &success, &at); err != nil {
			return nil, fmt.Errorf("scanning command: %w", err)
		}
		in.Success = success == 1
		in.At = fromStamp(at)
		out = append(out, in)
	}
	return out, rows.Err()
}

// SavePattern implements learning.Store.
func (s *Store) SavePattern(ctx context.Context, p learning.Pattern) error {
	if p.Confidence == 0 {
		p.Confidence = learning.InitialConfidence
	}
	keywords, err := json.Marshal(nonNil(p.Keywords))
	if err != nil {
		return fmt.Errorf("encoding keywords: %w", err)
	}

	return s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO learning_patterns (id, input_text, intent, response, keywords, confidence, success_count, fail_count, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			uuid.NewString(), p.Input, p.Topic, p.Response, string(keywords), p.Confidence,
			p.SuccessCount, p.FailCount, s.stamp())
		if err != nil {
			return fmt.Errorf("saving pattern: %w", err)
		}
		for _, k := range p.Keywords {
			if err := countWord(ctx, tx, k, p.Topic); err != nil {
				return err
			}
		}
		return nil
	})
}

func countWord(ctx context.Context, tx *sql.Tx, word, topic string) error {
	var raw string
	err := tx.QueryRowContext(ctx,
		`SELECT related_intents FROM learning_vocabulary WHERE word = ?`, word).Scan(&raw)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		topics := []string{}
		if topic != "" {
			topics = append(topics, topic)
		}
		enc, _ := json.Marshal(topics)
		_, err = tx.ExecContext(ctx,
			`INSERT INTO learning_vocabulary (word, frequency, related_intents) VALUES (?, 1, ?)`, word, string(enc))
	case err == nil:
		var topics []string
		if err := json.Unmarshal([]byte(raw), &topics); err != nil {
			return fmt.Errorf("decoding topics of %q: %w", word, err)
		}
		if topic != "" && !contains(topics, topic) {
			topics = append(topics, topic)
		}
		enc, _ := json.Marshal(nonNil(topics))
		_, err = tx.ExecContext(ctx,
			`UPDATE learning_vocabulary SET frequency = frequency + 1, related_intents = ? WHERE word = ?`, string(enc), word)
	}
	if err != nil {
		return fmt.Errorf("counting word %q: %w", word, err)
	}
	return nil
}

// Patterns implements learning.Store.
func (s *Store) Patterns(ctx context.Context, limit int) ([]learning.Pattern, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT input_text, intent, response, keywords, confidence, success_count, fail_count
		 FROM learning_patterns ORDER BY confidence DESC, rowid ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing patterns: %w", err)
	}
	defer rows.Close()

	var out []learning.Pattern
	for rows.Next() {
		var (
			p        learning.Pattern
			keywords string
		)
		if err := rows.Scan(&p.Input, &p.Topic, &p.Response, &keywords, &p.Confidence, &p.SuccessCount, &p.FailCount); err != nil {
			return nil, fmt.Errorf("scanning pattern: %w", err)
		}
		if err := json.Unmarshal([]byte(keywords), &p.Keywords); err != nil {
			return nil, fmt.Errorf("decoding keywords: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// latestPattern selects the most recent pattern learned for an input.
const latestPattern = `SELECT id, confidence FROM learning_patterns WHERE input_text = ? ORDER BY created_at DESC, rowid DESC LIMIT 1`

// MarkUsed implements learning.Store.
func (s *Store) MarkUsed(ctx context.Context, input string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE learning_patterns SET success_count = success_count + 1
		 WHERE id = (SELECT id FROM learning_patterns WHERE input_text = ? ORDER BY created_at DESC, rowid DESC LIMIT 1)`, input)
	if err != nil {
		return fmt.Errorf("marking pattern used: %w", err)
	}
	return nil
}

// AddFeedback implements learning.Store.
func (s *Store) AddFeedback(ctx context.Context, f learning.Feedback) error {
	at := f.At.UnixNano()
	if f.At.IsZero() {
		at = s.stamp()
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO learning_feedback (id, conversation_id, user_input, ai_response, feedback, correction, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			uuid.NewString(), f.ConversationID, f.Input, f.Response, string(f.Rating), f.Correction, at)
		if err != nil {
			return fmt.Errorf("saving feedback: %w", err)
		}

		var (
			id         string
			confidence float64
		)
		err = tx.QueryRowContext(ctx, latestPattern, f.Input).Scan(&id, &confidence)
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("finding pattern: %w", err)
		}

		counter := ""
		switch f.Rating {
		case learning.Positive:
			counter = ", success_count = success_count + 1"
		case learning.Negative:
			counter = ", fail_count = fail_count + 1"
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE learning_patterns SET confidence = ?`+counter+` WHERE id = ?`,
			learning.Adjust(confidence, f.Rating), id)
		if err != nil {
			return fmt.Errorf("adjusting pattern: %w", err)
		}
		return nil
	})
}

// Stats implements learning.Store.
func (s *Store) Stats(ctx context.Context) (learning.Stats, error) {
	var (
		st learning.Stats
		ok sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM commands),
			(SELECT SUM(success) FROM commands),
			(SELECT COUNT(*) FROM learning_patterns),
			(SELECT COUNT(*) FROM learning_vocabulary),
			(SELECT COUNT(*) FROM learning_feedback)`).
		Scan(&st.Interactions, &ok, &st.Patterns, &st.VocabularySize, &st.Feedback)
	if err != nil {
		return st, fmt.Errorf("counting learning data: %w", err)
	}
	if st.Interactions > 0 {
		st.SuccessRate = float64(ok.Int64) / float64(st.Interactions)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT word, frequency, related_intents FROM learning_vocabulary
		 ORDER BY frequency DESC, word ASC LIMIT ?`, learning.TopWordsLimit)
	if err != nil {
		return st, fmt.Errorf("listing vocabulary: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			w      learning.WordCount
			topics string
		)
		if err := rows.Scan(&w.Word, &w.Frequency, &topics); err != nil {
			return st, fmt.Errorf("scanning word: %w", err)
		}
		if err := json.Unmarshal([]byte(topics), &w.Topics); err != nil {
			return st, fmt.Errorf("decoding topics: %w", err)
		}
		st.TopWords = append(st.TopWords, w)
	}
	return st, rows.Err()
}

func nonNil(xs []string) []string {
	if xs == nil {
		return []string{}
	}
	return xs
}

func contains(xs []string, x string) bool {
	for _, s := range xs {
		if s == x {
			return true
		}
	}
	return false
}
