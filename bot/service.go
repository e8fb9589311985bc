package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/neura-neura/sp0t-dl-tg/batch"
	"github.com/neura-neura/sp0t-dl-tg/catalog"
)

var ErrIneligibleAccount = errors.New("account product tier is not eligible")

type Catalog interface {
	AccountAttributes(ctx context.Context) (*catalog.Account, error)
	Album(ctx context.Context, id string) (*catalog.Album, error)
	Playlist(ctx context.Context, id string) (*catalog.Playlist, error)
	Search(ctx context.Context, query string, limit int) (*catalog.SearchResults, error)
}

type Runner interface {
	Run(ctx context.Context, logger zerolog.Logger, sink batch.StatusSink, deliverer batch.Deliverer, ids []string) (*batch.Result, error)
}

// Service turns a link into a delivered batch.
type Service struct {
	catalog         Catalog
	runner          Runner
	eligibleProduct string
}

func NewService(cat Catalog, runner Runner, eligibleProduct string) *Service {
	return &Service{
		catalog:         cat,
		runner:          runner,
		eligibleProduct: eligibleProduct,
	}
}

// CheckEligible refuses accounts whose product tier cannot stream protected
// assets.
func (s *Service) CheckEligible(ctx context.Context) error {
	account, err := s.catalog.AccountAttributes(ctx)
	if nil != err {
		return fmt.Errorf("failed to get account attributes: %w", err)
	}

	if !strings.EqualFold(account.Product, s.eligibleProduct) {
		return ErrIneligibleAccount
	}

	return nil
}

// TrackIDs expands link into the ordered track ids of its batch.
func (s *Service) TrackIDs(ctx context.Context, link catalog.Link) ([]string, error) {
	switch link.Kind {
	case catalog.LinkKindTrack:
		return []string{link.ID}, nil
	case catalog.LinkKindAlbum:
		album, err := s.catalog.Album(ctx, link.ID)
		if nil != err {
			return nil, err
		}

		return album.TrackIDs, nil
	case catalog.LinkKindPlaylist:
		playlist, err := s.catalog.Playlist(ctx, link.ID)
		if nil != err {
			return nil, err
		}

		return playlist.TrackIDs, nil
	default:
		return nil, fmt.Errorf("unsupported link kind %s", link.Kind)
	}
}

type statusSink interface {
	batch.StatusSink
	Delete(ctx context.Context) error
}

// Process runs the batch of link, reporting through status. On full success
// the status message is removed.
func (s *Service) Process(
	ctx context.Context,
	logger zerolog.Logger,
	status statusSink,
	deliverer batch.Deliverer,
	link catalog.Link,
) (*batch.Result, error) {
	logger = logger.With().Str("link_kind", link.Kind.String()).Str("link_id", link.ID).Logger()

	ids, err := s.TrackIDs(ctx, link)
	if nil != err {
		if setErr := status.SetStatus(ctx, "Error: "+err.Error()); nil != setErr {
			logger.Error().Err(setErr).Msg("Failed to report error")
		}

		return nil, fmt.Errorf("failed to resolve %s tracks: %w", link.Kind, err)
	}
	logger.Info().Int("tracks", len(ids)).Msg("Starting batch")

	result, err := s.runner.Run(ctx, logger, status, deliverer, ids)
	if nil != err {
		return result, err
	}

	logger.Info().
		Int("delivered", result.Count(batch.OutcomeDelivered)).
		Int("skipped", result.Count(batch.OutcomeSkipped)).
		Int("failed", result.Count(batch.OutcomeFailed)).
		Msg("Batch finished")

	if result.OK() {
		if err := status.SetStatus(ctx, "Sending..."); nil != err {
			return result, err
		}

		if err := status.Delete(ctx); nil != err {
			return result, err
		}
	}

	return result, nil
}
