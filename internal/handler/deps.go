package handler

import (
	"context"

	"bilanchat/internal/app/chat"
	"bilanchat/internal/app/store"
	"bilanchat/internal/app/user"
	"bilanchat/internal/configs"
)

// UserDirectory is the user-store surface the handlers consume.
// *store.Store satisfies it; tests substitute fakes.
type UserDirectory interface {
	CreateUser(ctx context.Context, params store.CreateUserParams) (user.User, error)
	GetUserByEmail(ctx context.Context, email string) (store.UserRecord, error)
	GetUserByID(ctx context.Context, id int64) (user.User, error)
	ListUsersByRole(ctx context.Context, role string) ([]user.User, error)
}

// BilanDirectory is the bilan-store surface the handlers consume.
type BilanDirectory interface {
	GetBilan(ctx context.Context, id int64) (store.Bilan, error)
	ListBilansForUser(ctx context.Context, userID int64, role string) ([]store.Bilan, error)
}

// AppDeps bundles the shared dependencies injected into every handler.
type AppDeps struct {
	Config     *configs.AppConfig
	Registry   *chat.Registry
	Dispatcher *chat.Dispatcher
	Messages   chat.MessageStore
	Users      UserDirectory
	Bilans     BilanDirectory
}
