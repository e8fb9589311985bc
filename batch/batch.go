package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"

	"github.com/neura-neura/sp0t-dl-tg/catalog"
	"github.com/neura-neura/sp0t-dl-tg/config"
	"github.com/neura-neura/sp0t-dl-tg/media"
	"github.com/neura-neura/sp0t-dl-tg/ratelimit"
)

// StatusSink shows the latest progress text of a batch to its requester.
// Setting the text it already shows must not fail.
type StatusSink interface {
	SetStatus(ctx context.Context, text string) error
}

// Deliverer hands a finished file to the requester. Transport timeouts are
// reported as ErrDeliveryTimeout.
type Deliverer interface {
	Deliver(ctx context.Context, path string, tags *catalog.TagSet) error
}

type TagResolver interface {
	TrackTags(ctx context.Context, id string) (*catalog.TagSet, error)
}

type StreamResolver interface {
	StreamFileID(ctx context.Context, trackID string) (string, error)
}

type KeyResolver interface {
	ResolveContentKey(ctx context.Context, logger zerolog.Logger, fileID string) (string, error)
}

type Processor interface {
	Process(
		ctx context.Context,
		logger zerolog.Logger,
		files media.AssetFiles,
		fileID string,
		key string,
		tags *catalog.TagSet,
		progress func(media.Stage),
	) (string, error)
}

type Orchestrator struct {
	tags       TagResolver
	streams    StreamResolver
	keys       KeyResolver
	processor  Processor
	scratchDir string
	backoff    func() retry.Backoff
	pause      time.Duration
}

func NewOrchestrator(
	tags TagResolver,
	streams StreamResolver,
	keys KeyResolver,
	processor Processor,
	scratchDir string,
	conf config.Delivery,
) *Orchestrator {
	initial := time.Duration(conf.InitialBackoff) * time.Second

	return &Orchestrator{
		tags:       tags,
		streams:    streams,
		keys:       keys,
		processor:  processor,
		scratchDir: scratchDir,
		backoff:    func() retry.Backoff { return DeliveryBackoff(initial, conf.Attempts) },
		pause:      time.Duration(conf.AssetPause) * time.Second,
	}
}

// Run processes ids one at a time in order. A failed item is reported to the
// sink and the batch moves on; only cancellation of ctx stops it early.
func (o *Orchestrator) Run(ctx context.Context, logger zerolog.Logger, sink StatusSink, deliverer Deliverer, ids []string) (*Result, error) {
	scratch, err := media.NewScratch(o.scratchDir)
	if nil != err {
		return nil, err
	}
	logger = logger.With().Str("scratch_dir", scratch.Dir).Logger()
	defer func() {
		if closeErr := scratch.Close(); nil != closeErr {
			logger.Error().Err(closeErr).Msg("Failed to remove scratch directory")
		}
	}()

	result := &Result{Items: make([]ItemResult, 0, len(ids))}
	for i, id := range ids {
		if err := ctx.Err(); nil != err {
			break
		}

		item := o.runOne(ctx, logger.With().Str("track_id", id).Logger(), scratch, sink, deliverer, id, i+1, len(ids))
		result.Items = append(result.Items, item)

		if item.Outcome == OutcomeFailed && nil != ctx.Err() {
			break
		}

		if item.Outcome == OutcomeDelivered && i < len(ids)-1 {
			if err := ratelimit.Sleep(ctx, o.pause); nil != err {
				break
			}
		}
	}

	if err := ctx.Err(); nil != err {
		return result, err
	}

	return result, nil
}

func (o *Orchestrator) runOne(
	ctx context.Context,
	logger zerolog.Logger,
	scratch *media.Scratch,
	sink StatusSink,
	deliverer Deliverer,
	id string,
	current, total int,
) ItemResult {
	item := ItemResult{ID: id, Outcome: OutcomeFailed, State: StatePending, Err: nil}
	files := scratch.Asset(id)

	fail := func(err error) ItemResult {
		item.Outcome = OutcomeFailed
		item.Err = err
		logger.Error().Err(err).Str("state", item.State.String()).Msg("Asset failed")

		if removeErr := files.RemoveAll(); nil != removeErr {
			logger.Error().Err(removeErr).Msg("Failed to clean asset files")
		}

		o.setStatus(context.WithoutCancel(ctx), logger, sink, "Error: "+err.Error())

		return item
	}

	fileID, err := o.streams.StreamFileID(ctx, id)
	if nil != err {
		if errors.Is(err, catalog.ErrNoAudioAvailable) {
			logger.Info().Msg("Skipping track without audio files")
			o.setStatus(ctx, logger, sink, fmt.Sprintf("Skipping track %s: No audio files available", id))
			item.Outcome = OutcomeSkipped
			item.State = StateSkipped

			return item
		}

		return fail(err)
	}

	tags, err := o.tags.TrackTags(ctx, id)
	if nil != err {
		return fail(err)
	}
	item.State = StateTagsResolved
	o.setStatus(ctx, logger, sink, fmt.Sprintf("Processing %s - %s (%d/%d)...", tags.Artist, tags.Title, current, total))

	key, err := o.keys.ResolveContentKey(ctx, logger, fileID)
	if nil != err {
		return fail(err)
	}
	item.State = StateKeyResolved

	finalPath, err := o.processor.Process(ctx, logger, files, fileID, key, tags, func(s media.Stage) {
		item.State = stageState(s)
	})
	if nil != err {
		return fail(err)
	}
	files.Final = finalPath

	o.setStatus(ctx, logger, sink, fmt.Sprintf("Delivering %s - %s (%d/%d)...", tags.Artist, tags.Title, current, total))
	err = deliverWithRetry(ctx, logger, o.backoff(), func(ctx context.Context) error {
		return deliverer.Deliver(ctx, finalPath, tags)
	})
	if nil != err {
		return fail(fmt.Errorf("failed to deliver %s: %w", id, err))
	}

	if err := os.Remove(finalPath); nil != err && !errors.Is(err, os.ErrNotExist) {
		logger.Error().Err(err).Msg("Failed to remove delivered file")
	}

	item.Outcome = OutcomeDelivered
	item.State = StateDelivered
	logger.Info().Int("current", current).Int("total", total).Msg("Asset delivered")

	return item
}

func stageState(s media.Stage) State {
	switch s {
	case media.StageDownloaded:
		return StateDownloaded
	case media.StageUnprotected:
		return StateUnprotected
	case media.StageTranscoded:
		return StateTranscoded
	case media.StageTagged:
		return StateTagged
	default:
		return StateKeyResolved
	}
}

func (o *Orchestrator) setStatus(ctx context.Context, logger zerolog.Logger, sink StatusSink, text string) {
	if err := sink.SetStatus(ctx, text); nil != err {
		logger.Warn().Err(err).Str("status", text).Msg("Failed to update status")
	}
}
