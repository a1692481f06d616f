package service

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/streamhub/internal/model"
	"github.com/iliyamo/streamhub/internal/repository"
)

// ComposerConfig bounds the read projections.
type ComposerConfig struct {
	MaxPageSize  int
	HistoryLimit int
}

// FeedQuery is the public video feed request as sent by the client.
type FeedQuery struct {
	PageRequest
	Query    string
	SortBy   string // createdAt | views | duration | title
	SortType string // asc | desc
	OwnerID  uint64
}

// Composer builds the read projections.  Every count and viewer flag is
// recomputed from the edge tables on each call.
type Composer struct {
	cfg      ComposerConfig
	users    UserStore
	videos   VideoStore
	comments CommentStore
	subs     SubscriptionStore
	likes    LikeStore
	history  HistoryStore
	recorder *EngagementRecorder
	search   SearchProvider
}

// ComposerDeps groups the stores the composer reads from.  Search may be nil.
type ComposerDeps struct {
	Users    UserStore
	Videos   VideoStore
	Comments CommentStore
	Subs     SubscriptionStore
	Likes    LikeStore
	History  HistoryStore
	Recorder *EngagementRecorder
	Search   SearchProvider
}

func NewComposer(cfg ComposerConfig, d ComposerDeps) *Composer {
	if cfg.MaxPageSize < 1 {
		cfg.MaxPageSize = 100
	}
	if cfg.HistoryLimit < 1 {
		cfg.HistoryLimit = 100
	}
	return &Composer{
		cfg: cfg, users: d.Users, videos: d.Videos, comments: d.Comments,
		subs: d.Subs, likes: d.Likes, history: d.History, recorder: d.Recorder, search: d.Search,
	}
}

// ChannelProfile looks a channel up by username and attaches its
// subscription counts and whether the viewer follows it.
func (c *Composer) ChannelProfile(ctx context.Context, viewerID uint64, username string) (model.ChannelProfile, error) {
	if strings.TrimSpace(username) == "" {
		return model.ChannelProfile{}, validation("username is missing")
	}
	u, err := c.users.GetByUsername(ctx, username)
	if errors.Is(err, repository.ErrNotFound) {
		return model.ChannelProfile{}, notFound("channel does not exist")
	}
	if err != nil {
		return model.ChannelProfile{}, internal("load channel", err)
	}

	p := model.ChannelProfile{
		ID: u.ID, Username: u.Username, FullName: u.FullName, Email: u.Email,
		AvatarURL: u.AvatarURL, CoverImageURL: u.CoverImageURL, CreatedAt: u.CreatedAt,
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		p.SubscribersCount, err = c.subs.CountSubscribers(gctx, u.ID)
		return err
	})
	g.Go(func() (err error) {
		p.SubscribedToCount, err = c.subs.CountSubscribedTo(gctx, u.ID)
		return err
	})
	g.Go(func() (err error) {
		p.IsSubscribed, err = c.subs.Exists(gctx, viewerID, u.ID)
		return err
	})
	if err := g.Wait(); err != nil {
		return model.ChannelProfile{}, internal("compose channel", err)
	}
	return p, nil
}

// VideoDetail returns a video with like and comment counts and its owner's
// channel block, then records the view.  The returned view count includes
// this view.
func (c *Composer) VideoDetail(ctx context.Context, viewerID, videoID uint64) (model.VideoDetail, error) {
	v, err := c.visibleVideo(ctx, viewerID, videoID)
	if err != nil {
		return model.VideoDetail{}, err
	}
	owner, err := c.users.GetByID(ctx, v.OwnerID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.VideoDetail{}, notFound("video not found")
	}
	if err != nil {
		return model.VideoDetail{}, internal("load owner", err)
	}

	d := model.VideoDetail{
		Video: v,
		Owner: model.VideoOwner{
			ID: owner.ID, Username: owner.Username, FullName: owner.FullName, AvatarURL: owner.AvatarURL,
		},
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		d.LikesCount, err = c.likes.Count(gctx, model.LikeVideo, v.ID)
		return err
	})
	g.Go(func() (err error) {
		d.IsLiked, err = c.likes.Exists(gctx, viewerID, model.LikeVideo, v.ID)
		return err
	})
	g.Go(func() (err error) {
		d.CommentsCount, err = c.comments.CountByVideo(gctx, v.ID)
		return err
	})
	g.Go(func() (err error) {
		d.Owner.SubscribersCount, err = c.subs.CountSubscribers(gctx, owner.ID)
		return err
	})
	g.Go(func() (err error) {
		d.Owner.IsSubscribed, err = c.subs.Exists(gctx, viewerID, owner.ID)
		return err
	})
	if err := g.Wait(); err != nil {
		return model.VideoDetail{}, internal("compose video", err)
	}

	if c.recorder != nil {
		if err := c.recorder.RecordView(ctx, viewerID, v.ID); err != nil {
			return model.VideoDetail{}, err
		}
		d.Views++
	}
	return d, nil
}

// CommentFeed pages through a video's comments, oldest first.
func (c *Composer) CommentFeed(ctx context.Context, viewerID, videoID uint64, pr PageRequest) (model.Page[model.CommentView], error) {
	if _, err := c.visibleVideo(ctx, viewerID, videoID); err != nil {
		return model.Page[model.CommentView]{}, err
	}
	pr = pr.normalize(c.cfg.MaxPageSize)
	docs, total, err := c.comments.ListByVideo(ctx, videoID, viewerID, pr.Page, pr.Limit)
	if err != nil {
		return model.Page[model.CommentView]{}, internal("list comments", err)
	}
	return model.NewPage(docs, total, pr.Page, pr.Limit), nil
}

// VideoFeed pages through published videos.  A text query goes to the
// search provider when one is configured; its ids restrict the SQL query.
func (c *Composer) VideoFeed(ctx context.Context, q FeedQuery) (model.Page[model.VideoSummary], error) {
	pr := q.PageRequest.normalize(c.cfg.MaxPageSize)

	sortBy := q.SortBy
	if sortBy != "" && !repository.SortColumn(sortBy) {
		return model.Page[model.VideoSummary]{}, validation("invalid sortBy", "sortBy must be one of createdAt, views, duration, title")
	}
	var desc bool
	switch strings.ToLower(q.SortType) {
	case "", "desc":
		desc = true
	case "asc":
	default:
		return model.Page[model.VideoSummary]{}, validation("invalid sortType", "sortType must be asc or desc")
	}

	fq := repository.VideoFeedQuery{
		OwnerID: q.OwnerID, SortBy: sortBy, SortDesc: desc, Page: pr.Page, Limit: pr.Limit,
	}
	if text := strings.TrimSpace(q.Query); text != "" {
		if c.search != nil {
			ids, err := c.search.Search(ctx, text, c.cfg.MaxPageSize*10)
			if err != nil {
				return model.Page[model.VideoSummary]{}, internal("search videos", err)
			}
			if ids == nil {
				ids = []uint64{}
			}
			fq.IDs = ids
		} else {
			fq.Text = text
		}
	}

	docs, total, err := c.videos.Feed(ctx, fq)
	if err != nil {
		return model.Page[model.VideoSummary]{}, internal("list videos", err)
	}
	return model.NewPage(docs, total, pr.Page, pr.Limit), nil
}

// WatchHistory returns the viewer's watched videos in the order they were
// first watched.
func (c *Composer) WatchHistory(ctx context.Context, viewerID uint64) ([]model.VideoSummary, error) {
	if viewerID == 0 {
		return nil, unauthorized("unauthorized request")
	}
	out, err := c.history.List(ctx, viewerID, c.cfg.HistoryLimit)
	if err != nil {
		return nil, internal("load watch history", err)
	}
	return out, nil
}

// LikedVideos pages through the published videos the viewer liked, most
// recent like first.
func (c *Composer) LikedVideos(ctx context.Context, viewerID uint64, pr PageRequest) (model.Page[model.VideoSummary], error) {
	if viewerID == 0 {
		return model.Page[model.VideoSummary]{}, unauthorized("unauthorized request")
	}
	pr = pr.normalize(c.cfg.MaxPageSize)
	docs, total, err := c.likes.ListLikedVideos(ctx, viewerID, pr.Page, pr.Limit)
	if err != nil {
		return model.Page[model.VideoSummary]{}, internal("list liked videos", err)
	}
	return model.NewPage(docs, total, pr.Page, pr.Limit), nil
}

// ChannelSubscribers pages through the users subscribed to channelID.
func (c *Composer) ChannelSubscribers(ctx context.Context, channelID uint64, pr PageRequest) (model.Page[model.ChannelSummary], error) {
	if err := c.userExists(ctx, channelID, "channel not found"); err != nil {
		return model.Page[model.ChannelSummary]{}, err
	}
	pr = pr.normalize(c.cfg.MaxPageSize)
	docs, total, err := c.subs.ListSubscribers(ctx, channelID, pr.Page, pr.Limit)
	if err != nil {
		return model.Page[model.ChannelSummary]{}, internal("list subscribers", err)
	}
	return model.NewPage(docs, total, pr.Page, pr.Limit), nil
}

// SubscribedChannels pages through the channels subscriberID follows.
func (c *Composer) SubscribedChannels(ctx context.Context, subscriberID uint64, pr PageRequest) (model.Page[model.ChannelSummary], error) {
	if err := c.userExists(ctx, subscriberID, "subscriber not found"); err != nil {
		return model.Page[model.ChannelSummary]{}, err
	}
	pr = pr.normalize(c.cfg.MaxPageSize)
	docs, total, err := c.subs.ListSubscribedChannels(ctx, subscriberID, pr.Page, pr.Limit)
	if err != nil {
		return model.Page[model.ChannelSummary]{}, internal("list subscriptions", err)
	}
	return model.NewPage(docs, total, pr.Page, pr.Limit), nil
}

// visibleVideo loads a video the viewer may see.  Unpublished videos are
// reported missing to everyone but their owner.
func (c *Composer) visibleVideo(ctx context.Context, viewerID, videoID uint64) (model.Video, error) {
	if videoID == 0 {
		return model.Video{}, validation("invalid video id")
	}
	v, err := c.videos.GetByID(ctx, videoID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Video{}, notFound("video not found")
	}
	if err != nil {
		return model.Video{}, internal("load video", err)
	}
	if !v.IsPublished && v.OwnerID != viewerID {
		return model.Video{}, notFound("video not found")
	}
	return v, nil
}

func (c *Composer) userExists(ctx context.Context, id uint64, msg string) error {
	if id == 0 {
		return validation("invalid user id")
	}
	ok, err := c.users.Exists(ctx, id)
	if err != nil {
		return internal("load user", err)
	}
	if !ok {
		return notFound(msg)
	}
	return nil
}
