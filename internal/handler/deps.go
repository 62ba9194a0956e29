package handler

import (
	"golang.org/x/crypto/bcrypt"

	"monetchat/internal/app/chat"
	"monetchat/internal/configs"
)

type AppDeps struct {
	Manager *chat.Manager
	Config  *configs.AppConfig

	// HashCost is the bcrypt cost for new passwords; 0 means bcrypt.DefaultCost.
	HashCost int
}

func (d *AppDeps) hashCost() int {
	if d.HashCost == 0 {
		return bcrypt.DefaultCost
	}
	return d.HashCost
}
