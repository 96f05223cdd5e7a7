package services

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"sosmed_backend/internal/auth"
	"sosmed_backend/internal/cache"
	"sosmed_backend/internal/events"
	"sosmed_backend/internal/logger"
	"sosmed_backend/internal/metrics"
	"sosmed_backend/internal/models"
	"sosmed_backend/internal/repositories"
	"sosmed_backend/internal/services/dto"
	"sosmed_backend/pkg/apperrors"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	defaultPostsPerPage = 10
	maxPostsPerPage     = 100
)

type PostService interface {
	// List - лента, viewer может быть nil
	List(ctx context.Context, db *gorm.DB, viewer *models.User, query *dto.PostListQuery) (*dto.Paginated[dto.PostResponse], error)
	Create(ctx context.Context, db *gorm.DB, user *models.User, req *dto.CreatePostRequest) (*dto.PostResponse, error)
	Get(ctx context.Context, db *gorm.DB, viewer *models.User, postID string) (*dto.PostDetailResponse, error)
	Update(ctx context.Context, db *gorm.DB, user *models.User, postID string, req *dto.UpdatePostRequest) (*dto.PostResponse, error)
	Delete(ctx context.Context, db *gorm.DB, user *models.User, postID string) error
}

type PostServiceImpl struct {
	postRepo    repositories.PostRepository
	mediaRepo   repositories.MediaRepository
	likeRepo    repositories.LikeRepository
	uploads     UploadService
	feed        cache.FeedCache
	events      events.Publisher
	metrics     *metrics.Metrics
	postMaxSize int64
}

func NewPostService(
	postRepo repositories.PostRepository,
	mediaRepo repositories.MediaRepository,
	likeRepo repositories.LikeRepository,
	uploads UploadService,
	feed cache.FeedCache,
	publisher events.Publisher,
	m *metrics.Metrics,
	postMaxSize int64,
) PostService {
	return &PostServiceImpl{
		postRepo:    postRepo,
		mediaRepo:   mediaRepo,
		likeRepo:    likeRepo,
		uploads:     uploads,
		feed:        feed,
		events:      publisher,
		metrics:     m,
		postMaxSize: postMaxSize,
	}
}

// List - новые сверху. Анонимные страницы без поиска берутся из кэша.
func (s *PostServiceImpl) List(ctx context.Context, db *gorm.DB, viewer *models.User, query *dto.PostListQuery) (*dto.Paginated[dto.PostResponse], error) {
	db = db.WithContext(ctx)

	page, limit := normalizePostPage(query.Page, query.Limit)
	search := strings.TrimSpace(query.Search)
	cacheable := viewer == nil && search == ""

	if cacheable {
		var cached dto.Paginated[dto.PostResponse]
		hit, err := s.feed.GetPage(ctx, page, limit, &cached)
		if err != nil {
			logger.CtxWarn(ctx, "feed cache read failed", "error", err)
		} else if hit {
			return &cached, nil
		}
	}

	posts, total, err := s.postRepo.List(db, repositories.PostFilter{Search: search, Page: page, Limit: limit})
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	liked := map[uint]bool{}
	if viewer != nil && len(posts) > 0 {
		ids := make([]uint, 0, len(posts))
		for _, p := range posts {
			ids = append(ids, p.ID)
		}
		liked, err = s.likeRepo.LikedPostIDs(db, viewer.ID, ids)
		if err != nil {
			return nil, apperrors.InternalError(err)
		}
	}

	items := make([]dto.PostResponse, 0, len(posts))
	for i := range posts {
		items = append(items, toPostResponse(ctx, s.uploads, &posts[i], liked[posts[i].ID]))
	}
	result := dto.NewPaginated(items, page, limit, total)

	if cacheable {
		if err := s.feed.SetPage(ctx, page, limit, result); err != nil {
			logger.CtxWarn(ctx, "feed cache write failed", "error", err)
		}
	}
	return result, nil
}

// Create - файлы проверяются до записи; пост и медиа пишутся в одной транзакции,
// при ее неудаче сохраненные файлы удаляются.
func (s *PostServiceImpl) Create(ctx context.Context, db *gorm.DB, user *models.User, req *dto.CreatePostRequest) (*dto.PostResponse, error) {
	db = db.WithContext(ctx)

	images, err := s.uploads.PrepareImages("files", req.Files, s.postMaxSize)
	if err != nil {
		return nil, err
	}

	dir := "posts/" + user.UniqueID
	stored := make([]*StoredImage, 0, len(images))
	var storedPaths []string
	for _, img := range images {
		file, err := s.uploads.StoreImage(ctx, dir, img, true)
		if err != nil {
			s.uploads.Remove(ctx, storedPaths...)
			return nil, err
		}
		stored = append(stored, file)
		storedPaths = append(storedPaths, file.Paths()...)
	}

	post := &models.Post{
		UserID:  user.ID,
		Caption: normalizeCaption(req.Caption),
	}

	if err := s.createWithMedia(db, post, stored); err != nil {
		s.uploads.Remove(ctx, storedPaths...)
		return nil, apperrors.InternalError(err)
	}

	created, err := s.postRepo.FindByUniqueID(db, post.UniqueID)
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	invalidateFeed(ctx, s.feed)
	s.metrics.PostCreated()
	publishEvent(ctx, s.events, events.SubjectPostCreated, events.PostEvent{
		PostID:     created.UniqueID,
		UserID:     user.UniqueID,
		MediaCount: len(stored),
		Timestamp:  time.Now().UTC(),
	})
	logger.CtxInfo(ctx, "post created", "post_id", created.UniqueID, "media", len(stored))

	resp := toPostResponse(ctx, s.uploads, created, false)
	return &resp, nil
}

func (s *PostServiceImpl) createWithMedia(db *gorm.DB, post *models.Post, stored []*StoredImage) error {
	tx := db.Begin()
	if tx.Error != nil {
		return tx.Error
	}
	defer tx.Rollback()

	if err := s.postRepo.Create(tx, post); err != nil {
		return err
	}

	media := make([]models.Media, 0, len(stored))
	for i, file := range stored {
		media = append(media, models.Media{
			PostID:        post.ID,
			FilePath:      file.Path,
			ThumbnailPath: file.ThumbnailPath,
			MediaType:     models.MediaTypeImage,
			MimeType:      file.MimeType,
			Size:          file.Size,
			OrderIndex:    i,
			Metadata: datatypes.JSONMap{
				"original_name": file.OriginalName,
				"width":         file.Width,
				"height":        file.Height,
			},
		})
	}
	if err := s.mediaRepo.CreateBatch(tx, media); err != nil {
		return err
	}

	return tx.Commit().Error
}

func (s *PostServiceImpl) Get(ctx context.Context, db *gorm.DB, viewer *models.User, postID string) (*dto.PostDetailResponse, error) {
	post, err := s.postRepo.FindDetail(db.WithContext(ctx), postID)
	if err != nil {
		return nil, mapPostError(err)
	}

	isLiked := false
	if viewer != nil {
		for _, like := range post.Likes {
			if like.UserID == viewer.ID {
				isLiked = true
				break
			}
		}
	}

	// parent_id отдается публичным идентификатором
	uids := make(map[uint]string, len(post.Comments))
	for _, c := range post.Comments {
		uids[c.ID] = c.UniqueID
	}
	comments := make([]dto.CommentResponse, 0, len(post.Comments))
	for i := range post.Comments {
		c := &post.Comments[i]
		var parentUID *string
		if c.ParentID != nil {
			if uid, ok := uids[*c.ParentID]; ok {
				parentUID = &uid
			}
		}
		comments = append(comments, toCommentResponse(c, post.UniqueID, parentUID))
	}

	return &dto.PostDetailResponse{
		PostResponse: toPostResponse(ctx, s.uploads, post, isLiked),
		Likes:        toLikeResponses(post.Likes),
		Comments:     comments,
	}, nil
}

// Update - подпись меняет только автор; пустая подпись сохраняется как NULL
func (s *PostServiceImpl) Update(ctx context.Context, db *gorm.DB, user *models.User, postID string, req *dto.UpdatePostRequest) (*dto.PostResponse, error) {
	db = db.WithContext(ctx)

	post, err := s.postRepo.FindByUniqueID(db, postID)
	if err != nil {
		return nil, mapPostError(err)
	}

	if !auth.CanUpdatePost(user, post) {
		return nil, apperrors.ErrPostUpdateForbidden
	}

	if err := s.postRepo.UpdateCaption(db, post, normalizeCaption(req.Caption)); err != nil {
		return nil, apperrors.InternalError(err)
	}

	liked, err := s.likeRepo.LikedPostIDs(db, user.ID, []uint{post.ID})
	if err != nil {
		return nil, apperrors.InternalError(err)
	}

	invalidateFeed(ctx, s.feed)
	logger.CtxInfo(ctx, "post updated", "post_id", post.UniqueID)

	resp := toPostResponse(ctx, s.uploads, post, liked[post.ID])
	return &resp, nil
}

// Delete - автор или администратор. Файлы удаляются из storage до удаления записей.
func (s *PostServiceImpl) Delete(ctx context.Context, db *gorm.DB, user *models.User, postID string) error {
	db = db.WithContext(ctx)

	post, err := s.postRepo.FindByUniqueID(db, postID)
	if err != nil {
		return mapPostError(err)
	}

	if !auth.CanDeletePost(user, post) {
		return apperrors.ErrPostDeleteForbidden
	}

	paths := make([]string, 0, len(post.Media)*2)
	for _, m := range post.Media {
		paths = append(paths, m.FilePath, m.ThumbnailPath)
	}
	s.uploads.Remove(ctx, paths...)

	tx := db.Begin()
	if tx.Error != nil {
		return apperrors.InternalError(tx.Error)
	}
	defer tx.Rollback()

	if err := s.mediaRepo.DeleteByPost(tx, post.ID); err != nil {
		return apperrors.InternalError(err)
	}
	if err := s.postRepo.Delete(tx, post); err != nil {
		return mapPostError(err)
	}
	if err := tx.Commit().Error; err != nil {
		return apperrors.InternalError(err)
	}

	invalidateFeed(ctx, s.feed)
	s.metrics.PostDeleted()
	publishEvent(ctx, s.events, events.SubjectPostDeleted, events.PostEvent{
		PostID:    post.UniqueID,
		UserID:    user.UniqueID,
		Timestamp: time.Now().UTC(),
	})
	logger.CtxInfo(ctx, "post deleted", "post_id", post.UniqueID, "by_admin", post.UserID != user.ID)
	return nil
}

func mapPostError(err error) error {
	if errors.Is(err, repositories.ErrPostNotFound) {
		return apperrors.ErrPostNotFound
	}
	return apperrors.InternalError(err)
}

// clampPage держит (page-1)*pageSize в пределах int32
func clampPage(page, pageSize int) int {
	if maxPage := math.MaxInt32 / pageSize; page > maxPage {
		return maxPage
	}
	return page
}

func normalizePostPage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPostsPerPage
	}
	if limit > maxPostsPerPage {
		limit = maxPostsPerPage
	}
	return clampPage(page, limit), limit
}

func normalizeCaption(caption *string) *string {
	if caption == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*caption)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
