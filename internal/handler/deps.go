package handler

import (
	"workchat/internal/app/chat"
	"workchat/internal/app/store"
	"workchat/internal/auth"
	"workchat/internal/configs"
)

type AppDeps struct {
	Config *configs.AppConfig
	Chat   *chat.Service
	Store  store.Store
	OAuth  auth.Provider
}
