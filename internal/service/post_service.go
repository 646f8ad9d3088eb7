package service

import (
	"context"
	"math"
	"mime/multipart"

	"flea/internal/apperror"
	"flea/internal/dto"
	"flea/internal/model"
	"flea/internal/repository"
	"flea/internal/storage"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	MsgPostCreated        = "Publicación creada exitosamente"
	MsgPostUpdated        = "Publicación actualizada exitosamente"
	MsgPostDeleted        = "Publicación eliminada exitosamente"
	MsgPostNotFound       = "Publicación no encontrada"
	MsgNoEditPermission   = "No tienes permiso para editar esta publicación"
	MsgNoDeletePermission = "No tienes permiso para eliminar esta publicación"
	MsgCategoryRequired   = "Debe seleccionar al menos una categoría"
	msgInvalidCategory    = "Categoría inválida"
	msgInvalidStatus      = "Estado inválido"
	msgCreatePostFailed   = "Error al crear la publicación"
	msgUpdatePostFailed   = "Error al actualizar la publicación"
	msgDeletePostFailed   = "Error al eliminar la publicación"
	msgLoadPostsFailed    = "Error al cargar las publicaciones"
)

type PostService interface {
	GetPostDetail(ctx context.Context, postID uuid.UUID, viewerID *uuid.UUID) (*dto.PostDetail, error)
	CreatePost(ctx context.Context, req dto.CreatePostRequest, authorID uuid.UUID) (uuid.UUID, error)
	GetEditPostData(ctx context.Context, postID, userID uuid.UUID) (*dto.EditPostData, error)
	UpdatePost(ctx context.Context, req dto.UpdatePostRequest, userID uuid.UUID) error
	DeletePost(ctx context.Context, postID, userID uuid.UUID) error
	AdminDeletePost(ctx context.Context, postID uuid.UUID) error
	GetUserPosts(ctx context.Context, userID uuid.UUID, limit int) ([]dto.PostCard, error)
	GetRecentPosts(ctx context.Context, limit int) ([]dto.PostCard, error)
	GetCategoryPosts(ctx context.Context, categoryID uuid.UUID, limit int) ([]dto.PostCard, error)
	SearchPosts(ctx context.Context, filter dto.SearchFilter) (*dto.SearchResult, error)
}

type postService struct {
	store    repository.Store
	uploads  storage.FileUploadService
	pageSize int
}

func NewPostService(store repository.Store, uploads storage.FileUploadService, pageSize int) PostService {
	if pageSize < 1 {
		pageSize = dto.DefaultPageSize
	}
	return &postService{store: store, uploads: uploads, pageSize: pageSize}
}

func (s *postService) GetPostDetail(ctx context.Context, postID uuid.UUID, viewerID *uuid.UUID) (*dto.PostDetail, error) {
	post, err := s.store.Posts().FindByID(ctx, postID)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, internal(err, msgLoadPostsFailed)
	}
	product, err := s.store.Products().FindByID(ctx, post.ProductID)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, internal(err, msgLoadPostsFailed)
	}
	author, err := s.store.Users().FindByID(ctx, post.AuthorID)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, internal(err, msgLoadPostsFailed)
	}

	images, err := s.store.Images().ForProduct(ctx, product.ID)
	if err != nil {
		return nil, internal(err, msgLoadPostsFailed)
	}
	cats, err := s.store.Categories().ForProduct(ctx, product.ID)
	if err != nil {
		return nil, internal(err, msgLoadPostsFailed)
	}

	d := &dto.PostDetail{
		ID:               post.ID,
		ProductID:        product.ID,
		Title:            post.Title,
		Description:      post.Description,
		Price:            product.Price,
		Status:           product.Status,
		StatusText:       product.Status.Text(),
		CreatedAt:        post.CreatedAt,
		UpdatedAt:        post.UpdatedAt,
		Images:           toImageViews(images),
		Categories:       toCategoryViews(cats),
		AuthorID:         author.ID,
		AuthorUsername:   author.Username,
		AuthorName:       author.Name,
		AuthorProfilePic: author.ProfilePic,
		IsOwner:          viewerID != nil && *viewerID == post.AuthorID,
	}
	contact, err := s.store.Contacts().FindByUserID(ctx, author.ID)
	switch {
	case err == nil:
		d.AuthorEmail = contact.Email
		d.AuthorPhone = contact.PhoneNumber
		d.AuthorTelegram = contact.TelegramUser
	case !isNotFound(err):
		return nil, internal(err, msgLoadPostsFailed)
	}
	return d, nil
}

func (s *postService) CreatePost(ctx context.Context, req dto.CreatePostRequest, authorID uuid.UUID) (uuid.UUID, error) {
	categoryIDs, ok := parseIDs(req.CategoryIDs)
	if !ok {
		return uuid.Nil, apperror.NewValidation(map[string]string{"CategoryIDs": msgInvalidCategory})
	}
	if len(categoryIDs) == 0 {
		return uuid.Nil, apperror.Business(MsgCategoryRequired)
	}
	price, ok := ParsePrice(req.Price)
	if !ok {
		return uuid.Nil, apperror.NewValidation(map[string]string{"Price": msgInvalidPrice})
	}

	uploaded := s.uploadAll(req.Images)

	var postID uuid.UUID
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		if err := requireCategories(ctx, tx, categoryIDs); err != nil {
			return err
		}

		product := &model.Product{Price: price, Status: model.StatusAvailable}
		if err := tx.Products().Create(ctx, product); err != nil {
			return err
		}
		post := &model.Post{
			Title:       req.Title,
			Description: req.Description,
			ProductID:   product.ID,
			AuthorID:    authorID,
		}
		if err := tx.Posts().Create(ctx, post); err != nil {
			return err
		}
		if err := addImages(ctx, tx, product.ID, uploaded, 0); err != nil {
			return err
		}
		for _, cid := range categoryIDs {
			if err := tx.Categories().AssignToProduct(ctx, product.ID, cid); err != nil {
				return err
			}
		}
		postID = post.ID
		return nil
	})
	if err != nil {
		removeFiles(s.uploads, uploaded)
		return uuid.Nil, internal(err, msgCreatePostFailed)
	}
	return postID, nil
}

func (s *postService) GetEditPostData(ctx context.Context, postID, userID uuid.UUID) (*dto.EditPostData, error) {
	post, err := s.store.Posts().FindByID(ctx, postID)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, internal(err, msgLoadPostsFailed)
	}
	if post.AuthorID != userID {
		return nil, nil
	}
	product, err := s.store.Products().FindByID(ctx, post.ProductID)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, internal(err, msgLoadPostsFailed)
	}
	images, err := s.store.Images().ForProduct(ctx, product.ID)
	if err != nil {
		return nil, internal(err, msgLoadPostsFailed)
	}
	selected, err := s.store.Categories().ForProduct(ctx, product.ID)
	if err != nil {
		return nil, internal(err, msgLoadPostsFailed)
	}
	all, err := s.store.Categories().List(ctx)
	if err != nil {
		return nil, internal(err, msgLoadPostsFailed)
	}

	selectedIDs := make([]uuid.UUID, 0, len(selected))
	for _, c := range selected {
		selectedIDs = append(selectedIDs, c.ID)
	}
	return &dto.EditPostData{
		PostID:              post.ID,
		ProductID:           product.ID,
		Title:               post.Title,
		Description:         post.Description,
		Price:               product.Price,
		Status:              product.Status,
		Images:              toImageViews(images),
		SelectedCategoryIDs: selectedIDs,
		Categories:          toCategoryViews(all),
	}, nil
}

func (s *postService) UpdatePost(ctx context.Context, req dto.UpdatePostRequest, userID uuid.UUID) error {
	post, err := s.store.Posts().FindByID(ctx, req.PostID)
	if err != nil {
		if isNotFound(err) {
			return apperror.NotFound(MsgPostNotFound)
		}
		return internal(err, msgUpdatePostFailed)
	}
	if post.AuthorID != userID {
		return apperror.Forbidden(MsgNoEditPermission)
	}

	categoryIDs, ok := parseIDs(req.CategoryIDs)
	if !ok {
		return apperror.NewValidation(map[string]string{"CategoryIDs": msgInvalidCategory})
	}
	if len(categoryIDs) == 0 {
		return apperror.Business(MsgCategoryRequired)
	}
	price, ok := ParsePrice(req.Price)
	if !ok {
		return apperror.NewValidation(map[string]string{"Price": msgInvalidPrice})
	}
	status, ok := model.ParseProductStatus(req.Status)
	if !ok {
		return apperror.NewValidation(map[string]string{"Status": msgInvalidStatus})
	}
	deleteIDs, ok := parseIDs(req.DeleteImageIDs)
	if !ok {
		return apperror.NewValidation(map[string]string{"DeleteImageIDs": "Imagen inválida"})
	}

	uploaded := s.uploadAll(req.NewImages)

	var removed []string
	err = s.store.Transaction(ctx, func(tx repository.Store) error {
		product, err := tx.Products().FindByID(ctx, post.ProductID)
		if err != nil {
			if isNotFound(err) {
				return apperror.NotFound(MsgPostNotFound)
			}
			return err
		}
		if err := requireCategories(ctx, tx, categoryIDs); err != nil {
			return err
		}

		post.Title = req.Title
		post.Description = req.Description
		if err := tx.Posts().Update(ctx, post); err != nil {
			return err
		}
		product.Price = price
		product.Status = status
		if err := tx.Products().Update(ctx, product); err != nil {
			return err
		}

		for _, imgID := range deleteIDs {
			img, err := tx.Images().FindByID(ctx, imgID)
			if err != nil {
				if isNotFound(err) {
					continue
				}
				return err
			}
			// only images of this product
			if img.ProductID != product.ID {
				continue
			}
			if err := tx.Images().Delete(ctx, img.ID); err != nil {
				return err
			}
			removed = append(removed, img.Path)
		}

		existing, err := tx.Images().ForProduct(ctx, product.ID)
		if err != nil {
			return err
		}
		next := 0
		for _, img := range existing {
			if img.Position >= next {
				next = img.Position + 1
			}
		}
		if err := addImages(ctx, tx, product.ID, uploaded, next); err != nil {
			return err
		}

		if err := tx.Categories().RemoveAllFromProduct(ctx, product.ID); err != nil {
			return err
		}
		for _, cid := range categoryIDs {
			if err := tx.Categories().AssignToProduct(ctx, product.ID, cid); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		removeFiles(s.uploads, uploaded)
		return internal(err, msgUpdatePostFailed)
	}
	removeFiles(s.uploads, removed)
	return nil
}

func (s *postService) DeletePost(ctx context.Context, postID, userID uuid.UUID) error {
	post, err := s.store.Posts().FindByID(ctx, postID)
	if err != nil {
		if isNotFound(err) {
			return apperror.NotFound(MsgPostNotFound)
		}
		return internal(err, msgDeletePostFailed)
	}
	if post.AuthorID != userID {
		return apperror.Forbidden(MsgNoDeletePermission)
	}
	return s.deletePost(ctx, post)
}

func (s *postService) AdminDeletePost(ctx context.Context, postID uuid.UUID) error {
	post, err := s.store.Posts().FindByID(ctx, postID)
	if err != nil {
		if isNotFound(err) {
			return apperror.NotFound(MsgPostNotFound)
		}
		return internal(err, msgDeletePostFailed)
	}
	return s.deletePost(ctx, post)
}

func (s *postService) deletePost(ctx context.Context, post *model.Post) error {
	var files []string
	err := s.store.Transaction(ctx, func(tx repository.Store) error {
		var err error
		files, err = purgePost(ctx, tx, post)
		return err
	})
	if err != nil {
		return internal(err, msgDeletePostFailed)
	}
	removeFiles(s.uploads, files)
	return nil
}

// purgePost removes a post with its product, images and category links
// inside tx and returns the image paths to delete once tx commits.
func purgePost(ctx context.Context, tx repository.Store, post *model.Post) ([]string, error) {
	images, err := tx.Images().ForProduct(ctx, post.ProductID)
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(images))
	for _, img := range images {
		paths = append(paths, img.Path)
	}
	if err := tx.Images().DeleteForProduct(ctx, post.ProductID); err != nil {
		return nil, err
	}
	if err := tx.Categories().RemoveAllFromProduct(ctx, post.ProductID); err != nil {
		return nil, err
	}
	if err := tx.Posts().Delete(ctx, post.ID); err != nil {
		return nil, err
	}
	if err := tx.Products().Delete(ctx, post.ProductID); err != nil {
		return nil, err
	}
	return paths, nil
}

func (s *postService) GetUserPosts(ctx context.Context, userID uuid.UUID, limit int) ([]dto.PostCard, error) {
	if limit < 1 {
		limit = dto.UserPostsLimit
	}
	rows, err := s.store.Posts().ByAuthor(ctx, userID, limit)
	if err != nil {
		return nil, internal(err, msgLoadPostsFailed)
	}
	return s.cards(ctx, rows)
}

func (s *postService) GetRecentPosts(ctx context.Context, limit int) ([]dto.PostCard, error) {
	if limit < 1 {
		limit = dto.RecentPostsLimit
	}
	rows, err := s.store.Posts().Recent(ctx, limit)
	if err != nil {
		return nil, internal(err, msgLoadPostsFailed)
	}
	return s.cards(ctx, rows)
}

func (s *postService) GetCategoryPosts(ctx context.Context, categoryID uuid.UUID, limit int) ([]dto.PostCard, error) {
	if limit < 1 {
		limit = s.pageSize
	}
	rows, err := s.store.Posts().ByCategory(ctx, categoryID, limit)
	if err != nil {
		return nil, internal(err, msgLoadPostsFailed)
	}
	return s.cards(ctx, rows)
}

func (s *postService) SearchPosts(ctx context.Context, filter dto.SearchFilter) (*dto.SearchResult, error) {
	filter.Normalize(s.pageSize)

	rows, total, err := s.store.Posts().Search(ctx, filter)
	if err != nil {
		return nil, internal(err, msgLoadPostsFailed)
	}
	cards, err := s.cards(ctx, rows)
	if err != nil {
		return nil, err
	}
	return &dto.SearchResult{
		Posts:      cards,
		Total:      total,
		Page:       filter.Page,
		PageSize:   filter.PageSize,
		TotalPages: int(math.Ceil(float64(total) / float64(filter.PageSize))),
		Filter:     filter,
	}, nil
}

func (s *postService) cards(ctx context.Context, rows []model.PostListing) ([]dto.PostCard, error) {
	cards, err := toCards(ctx, s.store, rows)
	if err != nil {
		return nil, internal(err, msgLoadPostsFailed)
	}
	return cards, nil
}

// uploadAll stores every valid image and skips the rest.
func (s *postService) uploadAll(files []*multipart.FileHeader) []string {
	var paths []string
	for _, r := range s.uploads.UploadImages(files, storage.FolderProducts) {
		if r.Err != nil {
			log.Warn().Err(r.Err).Msg("image skipped")
			continue
		}
		paths = append(paths, r.Path)
	}
	return paths
}

func addImages(ctx context.Context, tx repository.Store, productID uuid.UUID, paths []string, startAt int) error {
	for i, p := range paths {
		if err := tx.Images().Create(ctx, &model.Image{Path: p, Position: startAt + i, ProductID: productID}); err != nil {
			return err
		}
	}
	return nil
}

func requireCategories(ctx context.Context, tx repository.Store, ids []uuid.UUID) error {
	for _, id := range ids {
		if _, err := tx.Categories().FindByID(ctx, id); err != nil {
			if isNotFound(err) {
				return apperror.Business(msgInvalidCategory)
			}
			return err
		}
	}
	return nil
}

func toImageViews(images []model.Image) []dto.ImageView {
	out := make([]dto.ImageView, 0, len(images))
	for _, img := range images {
		out = append(out, dto.ImageView{ID: img.ID, Path: img.Path})
	}
	return out
}
