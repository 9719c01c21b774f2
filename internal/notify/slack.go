package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mbarrette/sentrypi/internal/debug"
	"github.com/slack-go/slack"
)

// api is the slice of the Slack client the notifier needs; *slack.Client
// satisfies it, tests substitute a fake.
type api interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
	UploadFileV2Context(ctx context.Context, params slack.UploadFileV2Parameters) (*slack.FileSummary, error)
}

// Notifier posts alerts and capture artifacts to the configured Slack
// channel. It does not retry on its own; callers wrap deliveries in a
// transfer policy.
type Notifier struct {
	client  api
	channel string
}

// NewNotifier creates a notifier for the given bot token and channel.
func NewNotifier(token, channel string) *Notifier {
	return &Notifier{
		client:  slack.New(token),
		channel: channel,
	}
}

// PostText posts a plain text message.
func (n *Notifier) PostText(ctx context.Context, msg string) error {
	debug.Verbose("Posting to slack: %s", msg)
	_, _, err := n.client.PostMessageContext(ctx, n.channel, slack.MsgOptionText(msg, false))
	if err != nil {
		return fmt.Errorf("post message: %w", err)
	}
	return nil
}

// UploadImage uploads a local file to the channel and returns the Slack
// file id, needed afterwards for the tag prompt.
func (n *Notifier) UploadImage(ctx context.Context, path, title string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat upload %s: %w", path, err)
	}
	if title == "" {
		title = filepath.Base(path)
	}

	summary, err := n.client.UploadFileV2Context(ctx, slack.UploadFileV2Parameters{
		Channel:  n.channel,
		File:     path,
		FileSize: int(info.Size()),
		Filename: filepath.Base(path),
		Title:    title,
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", path, err)
	}

	debug.Info("Uploaded %s to slack (file id %s)", title, summary.ID)
	return summary.ID, nil
}

// TagPayload is the string-encoded value carried by each tag button.
// The two buttons are mutually exclusive: exactly one carries
// Occupied=true.
type TagPayload struct {
	Occupied bool   `json:"occupied"`
	FileID   string `json:"file_id"`
	Filename string `json:"filename"`
}

// TagBlocks builds the interactive follow-up message asking the
// operator to classify an uploaded image as Occupied or Unoccupied.
func TagBlocks(fileID, filename string) ([]slack.Block, error) {
	occupied, err := json.Marshal(TagPayload{Occupied: true, FileID: fileID, Filename: filename})
	if err != nil {
		return nil, fmt.Errorf("encode occupied payload: %w", err)
	}
	unoccupied, err := json.Marshal(TagPayload{Occupied: false, FileID: fileID, Filename: filename})
	if err != nil {
		return nil, fmt.Errorf("encode unoccupied payload: %w", err)
	}

	occupiedBtn := slack.NewButtonBlockElement(
		"tag_occupied", string(occupied),
		slack.NewTextBlockObject(slack.PlainTextType, "Occupied", true, false),
	).WithStyle(slack.StylePrimary)
	unoccupiedBtn := slack.NewButtonBlockElement(
		"tag_unoccupied", string(unoccupied),
		slack.NewTextBlockObject(slack.PlainTextType, "Unoccupied", true, false),
	).WithStyle(slack.StyleDanger)

	return []slack.Block{
		slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType, fmt.Sprintf("*Tag Image %s*", filename), false, false),
			nil, nil,
		),
		slack.NewSectionBlock(
			slack.NewTextBlockObject(slack.MarkdownType, "How should this image be tagged?", false, false),
			nil, nil,
		),
		slack.NewActionBlock("tag_image", occupiedBtn, unoccupiedBtn),
	}, nil
}

// PostTagPrompt posts the interactive tag message for an uploaded file.
// Handling the button replies is someone else's job; this only emits
// the prompt.
func (n *Notifier) PostTagPrompt(ctx context.Context, fileID, filename string) error {
	blocks, err := TagBlocks(fileID, filename)
	if err != nil {
		return err
	}

	_, _, err = n.client.PostMessageContext(ctx, n.channel,
		slack.MsgOptionText(fmt.Sprintf("Tag Image %s", filename), false),
		slack.MsgOptionBlocks(blocks...),
	)
	if err != nil {
		return fmt.Errorf("post tag prompt: %w", err)
	}
	return nil
}
