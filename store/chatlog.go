package store

import (
	"context"
	"fmt"
	"time"

	"github.com/kumabot/kumabot/bot/model"
)

// BotUsername is the name chat log rows are attributed to when the bot
// itself is the speaker.
const BotUsername = "kumabot"

// ChatLine is one persisted chat log row.
type ChatLine struct {
	Timestamp time.Time
	Username  string
	Message   string
}

// LogRequest appends the inbound message to the chat log. Empty messages
// are not recorded.
func (s *Store) LogRequest(ctx context.Context, req *model.Request) error {
	if req.Message == "" {
		return nil
	}
	return s.insertChatLog(ctx,
		req.Timestamp, req.SourceSystem, req.Message, req.MessageID,
		req.Username, req.ChannelID, req.ChannelIsPrivate)
}

// LogResponse appends the outbound reply to the chat log. Image payloads
// are flattened to text the same way a user would read them.
func (s *Store) LogResponse(ctx context.Context, req *model.Request, resp *model.Response) error {
	message := resp.Message
	if message == "" && resp.Image != nil {
		message = fmt.Sprintf("%s\n%s\n%s\n%s",
			resp.Image.Referrer, resp.Image.Description, resp.Image.URL, resp.Image.Source)
	}
	if message == "" {
		return nil
	}

	return s.insertChatLog(ctx,
		resp.Timestamp, resp.SourceSystem, message, "",
		BotUsername, resp.ChannelID, req.ChannelIsPrivate)
}

func (s *Store) insertChatLog(
	ctx context.Context,
	ts time.Time,
	source model.SourceSystem,
	message, messageID, username, channelID string,
	private bool,
) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO chat_logs (timestamp, source_system, message, message_id, username, channel_id, private)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ts.UTC().Format(time.RFC3339Nano), source.String(), message,
		nullable(messageID), username, nullable(channelID), private,
	)
	if err != nil {
		return fmt.Errorf("insert chat log: %w", err)
	}
	return nil
}

// Recent returns the last limit chat lines for a channel, oldest first.
func (s *Store) Recent(ctx context.Context, source model.SourceSystem, channelID string, limit int) ([]ChatLine, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT timestamp, username, message FROM (
			SELECT id, timestamp, username, message
			FROM chat_logs
			WHERE source_system = ? AND channel_id = ?
			ORDER BY id DESC
			LIMIT ?
		) ORDER BY id ASC`,
		source.String(), channelID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query chat logs: %w", err)
	}
	defer rows.Close()

	var lines []ChatLine
	for rows.Next() {
		var (
			line ChatLine
			ts   string
		)
		if err := rows.Scan(&ts, &line.Username, &line.Message); err != nil {
			return nil, fmt.Errorf("scan chat log: %w", err)
		}
		line.Timestamp, _ = time.Parse(time.RFC3339Nano, ts)
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

// LogError records a fault with the context it occurred in.
func (s *Store) LogError(ctx context.Context, cause error, where string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO error_logs (timestamp, context, message) VALUES (?, ?, ?)`,
		time.Now().UTC().Format(time.RFC3339Nano), where, cause.Error(),
	)
	if err != nil {
		return fmt.Errorf("insert error log: %w", err)
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
