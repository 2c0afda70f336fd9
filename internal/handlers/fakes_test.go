package handlers

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
	"github.com/vidtube/backend/internal/views"
)

type fakeUserStore struct {
	mu    sync.Mutex
	users map[primitive.ObjectID]models.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[primitive.ObjectID]models.User)}
}

func (s *fakeUserStore) Create(_ context.Context, user models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return models.User{}, repositories.ErrConflict
		}
	}
	user.ID = primitive.NewObjectID()
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt
	s.users[user.ID] = user
	return user, nil
}

func (s *fakeUserStore) FindByID(_ context.Context, id primitive.ObjectID) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return user, nil
}

func (s *fakeUserStore) FindPublicByID(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	user, err := s.FindByID(ctx, id)
	if err != nil {
		return models.User{}, err
	}
	user.Password = ""
	user.RefreshToken = ""
	return user, nil
}

func (s *fakeUserStore) FindByUsernameOrEmail(_ context.Context, username, email string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, user := range s.users {
		if (username != "" && user.Username == username) || (email != "" && user.Email == email) {
			return user, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}

func (s *fakeUserStore) UpdateAccount(_ context.Context, id primitive.ObjectID, fullName, email string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	for otherID, other := range s.users {
		if otherID != id && other.Email == email {
			return models.User{}, repositories.ErrConflict
		}
	}
	user.FullName = fullName
	user.Email = email
	s.users[id] = user
	user.Password = ""
	user.RefreshToken = ""
	return user, nil
}

func (s *fakeUserStore) SetAvatar(_ context.Context, id primitive.ObjectID, ref models.MediaRef) (models.User, error) {
	return s.mutate(id, func(u *models.User) { u.Avatar = ref })
}

func (s *fakeUserStore) SetCoverImage(_ context.Context, id primitive.ObjectID, ref models.MediaRef) (models.User, error) {
	return s.mutate(id, func(u *models.User) { u.CoverImage = ref })
}

func (s *fakeUserStore) SetPassword(_ context.Context, id primitive.ObjectID, hash string) error {
	_, err := s.mutate(id, func(u *models.User) { u.Password = hash })
	return err
}

func (s *fakeUserStore) SetRefreshToken(_ context.Context, id primitive.ObjectID, token string) error {
	_, err := s.mutate(id, func(u *models.User) { u.RefreshToken = token })
	return err
}

func (s *fakeUserStore) AddWatchHistory(_ context.Context, userID, videoID primitive.ObjectID) error {
	_, err := s.mutate(userID, func(u *models.User) {
		for _, existing := range u.WatchHistory {
			if existing == videoID {
				return
			}
		}
		u.WatchHistory = append(u.WatchHistory, videoID)
	})
	return err
}

func (s *fakeUserStore) PullWatchHistory(_ context.Context, videoID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, user := range s.users {
		kept := user.WatchHistory[:0]
		for _, existing := range user.WatchHistory {
			if existing != videoID {
				kept = append(kept, existing)
			}
		}
		user.WatchHistory = kept
		s.users[id] = user
	}
	return nil
}

func (s *fakeUserStore) mutate(id primitive.ObjectID, apply func(*models.User)) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	apply(&user)
	user.UpdatedAt = time.Now().UTC()
	s.users[id] = user
	user.Password = ""
	user.RefreshToken = ""
	return user, nil
}

type fakeVideoStore struct {
	mu     sync.Mutex
	videos map[primitive.ObjectID]models.Video
	seq    int
}

func newFakeVideoStore() *fakeVideoStore {
	return &fakeVideoStore{videos: make(map[primitive.ObjectID]models.Video)}
}

func (s *fakeVideoStore) Create(_ context.Context, video models.Video) (models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	video.ID = primitive.NewObjectID()
	s.seq++
	video.CreatedAt = time.Unix(int64(s.seq), 0).UTC()
	video.UpdatedAt = video.CreatedAt
	s.videos[video.ID] = video
	return video, nil
}

func (s *fakeVideoStore) FindByID(_ context.Context, id primitive.ObjectID) (models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	video, ok := s.videos[id]
	if !ok {
		return models.Video{}, repositories.ErrNotFound
	}
	return video, nil
}

func (s *fakeVideoStore) Update(_ context.Context, id primitive.ObjectID, update repositories.VideoUpdate) (models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	video, ok := s.videos[id]
	if !ok {
		return models.Video{}, repositories.ErrNotFound
	}
	if update.Title != nil {
		video.Title = *update.Title
	}
	if update.Description != nil {
		video.Description = *update.Description
	}
	if update.Thumbnail != nil {
		video.Thumbnail = *update.Thumbnail
	}
	s.videos[id] = video
	return video, nil
}

func (s *fakeVideoStore) TogglePublished(_ context.Context, id primitive.ObjectID) (models.Video, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	video, ok := s.videos[id]
	if !ok {
		return models.Video{}, repositories.ErrNotFound
	}
	video.IsPublished = !video.IsPublished
	s.videos[id] = video
	return video, nil
}

func (s *fakeVideoStore) IncrementViews(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	video, ok := s.videos[id]
	if !ok {
		return repositories.ErrNotFound
	}
	video.Views++
	s.videos[id] = video
	return nil
}

func (s *fakeVideoStore) Delete(_ context.Context, id primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.videos[id]; !ok {
		return repositories.ErrNotFound
	}
	delete(s.videos, id)
	return nil
}

func (s *fakeVideoStore) List(_ context.Context, opts repositories.VideoListOptions) (views.Page[models.Video], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []models.Video
	for _, video := range s.videos {
		if !video.IsPublished {
			continue
		}
		if !opts.ExcludeOwner.IsZero() && video.Owner == opts.ExcludeOwner {
			continue
		}
		if opts.Query != "" {
			q := strings.ToLower(opts.Query)
			if !strings.Contains(strings.ToLower(video.Title), q) &&
				!strings.Contains(strings.ToLower(video.Description), q) {
				continue
			}
		}
		matched = append(matched, video)
	}

	sort.Slice(matched, func(i, j int) bool {
		if opts.SortAsc {
			return matched[i].CreatedAt.Before(matched[j].CreatedAt)
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	req := opts.Page.Normalized()
	return pageOf(matched, req), nil
}

type fakeCommentStore struct {
	mu       sync.Mutex
	comments map[primitive.ObjectID]models.Comment
	seq      int
}

func newFakeCommentStore() *fakeCommentStore {
	return &fakeCommentStore{comments: make(map[primitive.ObjectID]models.Comment)}
}

func (s *fakeCommentStore) Create(_ context.Context, comment models.Comment) (models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	comment.ID = primitive.NewObjectID()
	s.seq++
	comment.CreatedAt = time.Unix(int64(s.seq), 0).UTC()
	comment.UpdatedAt = comment.CreatedAt
	s.comments[comment.ID] = comment
	return comment, nil
}

func (s *fakeCommentStore) FindByID(_ context.Context, id primitive.ObjectID) (models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	comment, ok := s.comments[id]
	if !ok {
		return models.Comment{}, repositories.ErrNotFound
	}
	return comment, nil
}

func (s *fakeCommentStore) UpdateContent(_ context.Context, id primitive.ObjectID, content string) (models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	comment, ok := s.comments[id]
	if !ok {
		return models.Comment{}, repositories.ErrNotFound
	}
	comment.Content = content
	s.comments[id] = comment
	return comment, nil
}

func (s *fakeCommentStore) Delete(_ context.Context, id primitive.ObjectID) (models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	comment, ok := s.comments[id]
	if !ok {
		return models.Comment{}, repositories.ErrNotFound
	}
	delete(s.comments, id)
	return comment, nil
}

func (s *fakeCommentStore) DeleteByVideo(_ context.Context, videoID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, comment := range s.comments {
		if comment.Video == videoID {
			delete(s.comments, id)
		}
	}
	return nil
}

type likeKey struct {
	likedBy primitive.ObjectID
	target  primitive.ObjectID
	kind    models.LikeTarget
}

type fakeLikeStore struct {
	mu    sync.Mutex
	likes map[likeKey]models.Like
}

func newFakeLikeStore() *fakeLikeStore {
	return &fakeLikeStore{likes: make(map[likeKey]models.Like)}
}

func keyOf(like models.Like) likeKey {
	if !like.Comment.IsZero() {
		return likeKey{likedBy: like.LikedBy, target: like.Comment, kind: models.LikeTargetComment}
	}
	return likeKey{likedBy: like.LikedBy, target: like.Video, kind: models.LikeTargetVideo}
}

func (s *fakeLikeStore) Create(_ context.Context, like models.Like) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := keyOf(like)
	if _, exists := s.likes[key]; exists {
		return repositories.ErrConflict
	}
	like.ID = primitive.NewObjectID()
	s.likes[key] = like
	return nil
}

func (s *fakeLikeStore) Remove(_ context.Context, likedBy, target primitive.ObjectID, kind models.LikeTarget) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := likeKey{likedBy: likedBy, target: target, kind: kind}
	if _, exists := s.likes[key]; !exists {
		return false, nil
	}
	delete(s.likes, key)
	return true, nil
}

func (s *fakeLikeStore) CountByTarget(_ context.Context, target primitive.ObjectID, kind models.LikeTarget) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for key := range s.likes {
		if key.target == target && key.kind == kind {
			count++
		}
	}
	return count, nil
}

func (s *fakeLikeStore) DeleteByVideo(_ context.Context, videoID primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.likes {
		if key.kind == models.LikeTargetVideo && key.target == videoID {
			delete(s.likes, key)
		}
	}
	return nil
}

type fakePlaylistStore struct {
	mu        sync.Mutex
	playlists map[primitive.ObjectID]models.Playlist
}

func newFakePlaylistStore() *fakePlaylistStore {
	return &fakePlaylistStore{playlists: make(map[primitive.ObjectID]models.Playlist)}
}

func (s *fakePlaylistStore) Create(_ context.Context, playlist models.Playlist) (models.Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.playlists {
		if existing.Owner == playlist.Owner && existing.Name == playlist.Name {
			return models.Playlist{}, repositories.ErrConflict
		}
	}
	playlist.ID = primitive.NewObjectID()
	playlist.CreatedAt = time.Now().UTC()
	playlist.UpdatedAt = playlist.CreatedAt
	s.playlists[playlist.ID] = playlist
	return playlist, nil
}

func (s *fakePlaylistStore) FindByID(_ context.Context, id primitive.ObjectID) (models.Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	playlist, ok := s.playlists[id]
	if !ok {
		return models.Playlist{}, repositories.ErrNotFound
	}
	return playlist, nil
}

func (s *fakePlaylistStore) FindByOwnerAndName(_ context.Context, owner primitive.ObjectID, name string) (models.Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, playlist := range s.playlists {
		if playlist.Owner == owner && playlist.Name == name {
			return playlist, nil
		}
	}
	return models.Playlist{}, repositories.ErrNotFound
}

func (s *fakePlaylistStore) Delete(_ context.Context, id primitive.ObjectID) (models.Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	playlist, ok := s.playlists[id]
	if !ok {
		return models.Playlist{}, repositories.ErrNotFound
	}
	delete(s.playlists, id)
	return playlist, nil
}

func (s *fakePlaylistStore) AddVideo(_ context.Context, playlistID, videoID primitive.ObjectID) (models.Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	playlist, ok := s.playlists[playlistID]
	if !ok {
		return models.Playlist{}, repositories.ErrNotFound
	}
	for _, existing := range playlist.Videos {
		if existing == videoID {
			return playlist, nil
		}
	}
	playlist.Videos = append(playlist.Videos, videoID)
	s.playlists[playlistID] = playlist
	return playlist, nil
}

func (s *fakePlaylistStore) RemoveVideo(_ context.Context, playlistID, videoID primitive.ObjectID) (models.Playlist, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	playlist, ok := s.playlists[playlistID]
	if !ok {
		return models.Playlist{}, repositories.ErrNotFound
	}
	kept := playlist.Videos[:0]
	for _, existing := range playlist.Videos {
		if existing != videoID {
			kept = append(kept, existing)
		}
	}
	playlist.Videos = kept
	s.playlists[playlistID] = playlist
	return playlist, nil
}

type subKey struct {
	channel    primitive.ObjectID
	subscriber primitive.ObjectID
}

type fakeSubscriptionStore struct {
	mu   sync.Mutex
	subs map[subKey]struct{}
}

func newFakeSubscriptionStore() *fakeSubscriptionStore {
	return &fakeSubscriptionStore{subs: make(map[subKey]struct{})}
}

func (s *fakeSubscriptionStore) Toggle(_ context.Context, channel, subscriber primitive.ObjectID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := subKey{channel: channel, subscriber: subscriber}
	if _, exists := s.subs[key]; exists {
		delete(s.subs, key)
		return false, nil
	}
	s.subs[key] = struct{}{}
	return true, nil
}

func (s *fakeSubscriptionStore) CountByChannel(_ context.Context, channel primitive.ObjectID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for key := range s.subs {
		if key.channel == channel {
			count++
		}
	}
	return count, nil
}

func (s *fakeSubscriptionStore) DeleteByChannel(_ context.Context, channel primitive.ObjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.subs {
		if key.channel == channel {
			delete(s.subs, key)
		}
	}
	return nil
}

// fakeViewBuilder derives the read views from the fake stores, so handler
// tests exercise the same store contents the write paths produced.
type fakeViewBuilder struct {
	users     *fakeUserStore
	videos    *fakeVideoStore
	comments  *fakeCommentStore
	likes     *fakeLikeStore
	playlists *fakePlaylistStore
	subs      *fakeSubscriptionStore
}

func (b *fakeViewBuilder) VideoComments(ctx context.Context, videoID primitive.ObjectID, req views.PageRequest) (views.Page[views.CommentView], error) {
	b.comments.mu.Lock()
	var matched []models.Comment
	for _, comment := range b.comments.comments {
		if comment.Video == videoID {
			matched = append(matched, comment)
		}
	}
	b.comments.mu.Unlock()

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	items := make([]views.CommentView, 0, len(matched))
	for _, comment := range matched {
		likes, _ := b.likes.CountByTarget(ctx, comment.ID, models.LikeTargetComment)
		view := views.CommentView{
			ID:         comment.ID,
			Content:    comment.Content,
			CreatedAt:  comment.CreatedAt,
			LikesCount: likes,
		}
		if user, err := b.users.FindPublicByID(ctx, comment.Owner); err == nil {
			view.Commenter = views.UserSummary{
				ID:       user.ID,
				Username: user.Username,
				FullName: user.FullName,
				Avatar:   user.Avatar,
			}
		}
		items = append(items, view)
	}

	return pageOf(items, req.Normalized()), nil
}

func (b *fakeViewBuilder) LikedVideos(ctx context.Context, userID primitive.ObjectID) ([]views.LikedVideoEntry, error) {
	b.likes.mu.Lock()
	var liked []models.Like
	for key, like := range b.likes.likes {
		if key.likedBy == userID && key.kind == models.LikeTargetVideo {
			liked = append(liked, like)
		}
	}
	b.likes.mu.Unlock()

	entries := make([]views.LikedVideoEntry, 0, len(liked))
	for _, like := range liked {
		video, err := b.videos.FindByID(ctx, like.Video)
		if err != nil {
			continue
		}
		entries = append(entries, views.LikedVideoEntry{
			ID:    like.ID,
			Video: views.LikedVideo{VideoSummary: videoSummaryOf(video)},
		})
	}
	return entries, nil
}

func (b *fakeViewBuilder) PlaylistByID(ctx context.Context, id primitive.ObjectID) (views.PlaylistView, error) {
	playlist, err := b.playlists.FindByID(ctx, id)
	if err != nil {
		return views.PlaylistView{}, err
	}
	return b.playlistViewOf(ctx, playlist), nil
}

func (b *fakeViewBuilder) PlaylistsByUser(ctx context.Context, userID primitive.ObjectID) ([]views.PlaylistView, error) {
	b.playlists.mu.Lock()
	var owned []models.Playlist
	for _, playlist := range b.playlists.playlists {
		if playlist.Owner == userID {
			owned = append(owned, playlist)
		}
	}
	b.playlists.mu.Unlock()

	result := make([]views.PlaylistView, 0, len(owned))
	for _, playlist := range owned {
		result = append(result, b.playlistViewOf(ctx, playlist))
	}
	return result, nil
}

func (b *fakeViewBuilder) VideoDetail(ctx context.Context, videoID primitive.ObjectID) (views.VideoDetail, error) {
	video, err := b.videos.FindByID(ctx, videoID)
	if err != nil {
		return views.VideoDetail{}, err
	}
	likes, _ := b.likes.CountByTarget(ctx, videoID, models.LikeTargetVideo)
	subs, _ := b.subs.CountByChannel(ctx, video.Owner)

	b.comments.mu.Lock()
	var commentCount int64
	for _, comment := range b.comments.comments {
		if comment.Video == videoID {
			commentCount++
		}
	}
	b.comments.mu.Unlock()

	return views.VideoDetail{
		ID:               video.ID,
		Owner:            video.Owner,
		Title:            video.Title,
		Description:      video.Description,
		VideoFile:        video.VideoFile,
		Thumbnail:        video.Thumbnail,
		Duration:         video.Duration,
		Views:            video.Views,
		IsPublished:      video.IsPublished,
		LikesCount:       likes,
		CommentsCount:    commentCount,
		SubscribersCount: subs,
	}, nil
}

func (b *fakeViewBuilder) ChannelProfile(ctx context.Context, username string, viewerID primitive.ObjectID) (views.ChannelProfile, error) {
	user, err := b.users.FindByUsernameOrEmail(ctx, username, "")
	if err != nil {
		return views.ChannelProfile{}, err
	}
	subscribers, _ := b.subs.CountByChannel(ctx, user.ID)

	b.subs.mu.Lock()
	isSubscribed := false
	var subscribedTo int64
	for key := range b.subs.subs {
		if key.channel == user.ID && key.subscriber == viewerID {
			isSubscribed = true
		}
		if key.subscriber == user.ID {
			subscribedTo++
		}
	}
	b.subs.mu.Unlock()

	return views.ChannelProfile{
		ID:                user.ID,
		Username:          user.Username,
		FullName:          user.FullName,
		Email:             user.Email,
		Avatar:            user.Avatar,
		CoverImage:        user.CoverImage,
		SubscriberCount:   subscribers,
		SubscribedToCount: subscribedTo,
		IsSubscribed:      isSubscribed,
		CreatedAt:         user.CreatedAt,
	}, nil
}

func (b *fakeViewBuilder) WatchHistory(ctx context.Context, userID primitive.ObjectID) ([]views.HistoryEntry, error) {
	user, err := b.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	entries := make([]views.HistoryEntry, 0, len(user.WatchHistory))
	for _, videoID := range user.WatchHistory {
		video, err := b.videos.FindByID(ctx, videoID)
		if err != nil {
			continue
		}
		entries = append(entries, views.HistoryEntry{VideoSummary: videoSummaryOf(video)})
	}
	return entries, nil
}

func (b *fakeViewBuilder) playlistViewOf(ctx context.Context, playlist models.Playlist) views.PlaylistView {
	members := make([]views.VideoSummary, 0, len(playlist.Videos))
	for _, videoID := range playlist.Videos {
		if video, err := b.videos.FindByID(ctx, videoID); err == nil {
			members = append(members, videoSummaryOf(video))
		}
	}
	return views.PlaylistView{
		ID:          playlist.ID,
		Owner:       playlist.Owner,
		Name:        playlist.Name,
		Description: playlist.Description,
		Videos:      members,
		CreatedAt:   playlist.CreatedAt,
	}
}

func videoSummaryOf(video models.Video) views.VideoSummary {
	return views.VideoSummary{
		ID:          video.ID,
		Title:       video.Title,
		Description: video.Description,
		VideoFile:   video.VideoFile,
		Thumbnail:   video.Thumbnail,
		Duration:    video.Duration,
		Views:       video.Views,
		IsPublished: video.IsPublished,
		Owner:       video.Owner,
	}
}

type fakeMediaStore struct {
	mu      sync.Mutex
	seq     int
	deleted []string
}

func (s *fakeMediaStore) Save(_ context.Context, name string, r io.Reader) (models.MediaRef, error) {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return models.MediaRef{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	key := fmt.Sprintf("%d-%s", s.seq, name)
	return models.MediaRef{URL: "https://cdn.test/" + key, Key: key}, nil
}

func (s *fakeMediaStore) Delete(_ context.Context, ref models.MediaRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, ref.Key)
	return nil
}

func pageOf[T any](items []T, req views.PageRequest) views.Page[T] {
	total := int64(len(items))
	start := req.Skip()
	if start > len(items) {
		start = len(items)
	}
	end := start + req.Limit
	if end > len(items) {
		end = len(items)
	}
	return views.NewPage(items[start:end], total, req)
}
