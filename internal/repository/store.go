package repository

import (
	"context"

	"gorm.io/gorm"
)

// Store groups the repositories over one connection so services can run
// several of them inside a single transaction.
type Store interface {
	Users() UserRepository
	Roles() RoleRepository
	Contacts() ContactRepository
	Addresses() AddressRepository
	Categories() CategoryRepository
	Products() ProductRepository
	Images() ImageRepository
	Posts() PostRepository

	// Transaction runs fn with a Store bound to one transaction. The
	// transaction commits when fn returns nil and rolls back otherwise.
	Transaction(ctx context.Context, fn func(tx Store) error) error
	// Ping checks database connectivity.
	Ping(ctx context.Context) error
}

type gormStore struct {
	db         *gorm.DB
	users      UserRepository
	roles      RoleRepository
	contacts   ContactRepository
	addresses  AddressRepository
	categories CategoryRepository
	products   ProductRepository
	images     ImageRepository
	posts      PostRepository
}

func NewStore(db *gorm.DB) Store {
	return &gormStore{
		db:         db,
		users:      NewUserRepository(db),
		roles:      NewRoleRepository(db),
		contacts:   NewContactRepository(db),
		addresses:  NewAddressRepository(db),
		categories: NewCategoryRepository(db),
		products:   NewProductRepository(db),
		images:     NewImageRepository(db),
		posts:      NewPostRepository(db),
	}
}

func (s *gormStore) Users() UserRepository { return s.users }
func (s *gormStore) Roles() RoleRepository { return s.roles }
func (s *gormStore) Contacts() ContactRepository { return s.contacts }
func (s *gormStore) Addresses() AddressRepository { return s.addresses }
func (s *gormStore) Categories() CategoryRepository { return s.categories }
func (s *gormStore) Products() ProductRepository { return s.products }
func (s *gormStore) Images() ImageRepository { return s.images }
func (s *gormStore) Posts() PostRepository { return s.posts }

func (s *gormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

func (s *gormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
