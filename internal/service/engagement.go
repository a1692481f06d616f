package service

import (
	"context"
	"errors"

	"github.com/iliyamo/streamhub/internal/logging"
	"github.com/iliyamo/streamhub/internal/metrics"
	"github.com/iliyamo/streamhub/internal/queue"
	"github.com/iliyamo/streamhub/internal/repository"
)

// EngagementRecorder writes the side effects of a successful video read.
type EngagementRecorder struct {
	videos  VideoStore
	history HistoryStore
	events  EventPublisher
}

func NewEngagementRecorder(videos VideoStore, history HistoryStore, events EventPublisher) *EngagementRecorder {
	if events == nil {
		events = queue.Discard{}
	}
	return &EngagementRecorder{videos: videos, history: history, events: events}
}

// RecordView adds exactly one view to the video and appends it to the
// viewer's watch history unless it is already there.  Anonymous viewers
// (id 0) only count as a view.
func (r *EngagementRecorder) RecordView(ctx context.Context, viewerID, videoID uint64) error {
	err := r.videos.IncrementViews(ctx, videoID)
	if errors.Is(err, repository.ErrNotFound) {
		return notFound("video not found")
	}
	if err != nil {
		return internal("increment views", err)
	}
	metrics.VideoViews.Inc()

	if viewerID != 0 {
		added, err := r.history.Add(ctx, viewerID, videoID)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			// video deleted between the increment and the insert
			return notFound("video not found")
		case err != nil:
			return internal("append watch history", err)
		case added:
			logging.FromContext(ctx).Debug("watch history appended", "user_id", viewerID, "video_id", videoID)
		}
	}

	r.events.Publish(queue.EngagementEvent{
		Type: queue.VideoViewed, ActorID: viewerID, TargetID: videoID, TargetKind: "video",
	})
	return nil
}
