package bot

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/PaulSonOfLars/gotgbot/v2"

	"github.com/neura-neura/sp0t-dl-tg/batch"
	"github.com/neura-neura/sp0t-dl-tg/catalog"
	"github.com/neura-neura/sp0t-dl-tg/unit"
)

const (
	uploadTimeout = 10 * time.Minute
	// maxCloudUpload is the Bot API upload limit of the cloud server. A local
	// Bot API server accepts larger files.
	maxCloudUpload = 50 * unit.Megabyte
	cloudAPIURL    = "https://api.telegram.org"
)

var ErrFileTooLarge = errors.New("file exceeds the bot upload limit")

// audioDeliverer sends finished files to a chat as audio messages.
type audioDeliverer struct {
	bot    *gotgbot.Bot
	chatID int64
	apiURL string
}

func (d *audioDeliverer) Deliver(ctx context.Context, path string, tags *catalog.TagSet) (err error) {
	f, err := os.Open(path)
	if nil != err {
		return fmt.Errorf("failed to open audio file: %v", err)
	}
	defer func() {
		if closeErr := f.Close(); nil != closeErr {
			err = errors.Join(err, fmt.Errorf("failed to close audio file: %v", closeErr))
		}
	}()

	info, err := f.Stat()
	if nil != err {
		return fmt.Errorf("failed to stat audio file: %v", err)
	}

	if size := info.Size(); d.apiURL == cloudAPIURL && size > maxCloudUpload {
		return fmt.Errorf("%w: %s", ErrFileTooLarge, unit.Decimal(size))
	}

	opts := &gotgbot.SendAudioOpts{ //nolint:exhaustruct
		Title:     tags.Title,
		Performer: tags.Artist,
		RequestOpts: &gotgbot.RequestOpts{ //nolint:exhaustruct
			Timeout: uploadTimeout,
		},
	}
	if _, err := d.bot.SendAudioWithContext(ctx, d.chatID, gotgbot.InputFileByReader(filepath.Base(path), f), opts); nil != err {
		if isTimeout(err) && nil == ctx.Err() {
			return fmt.Errorf("%w: %v", batch.ErrDeliveryTimeout, err)
		}

		return fmt.Errorf("failed to send audio: %w", err)
	}

	return nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error

	return errors.As(err, &netErr) && netErr.Timeout()
}
