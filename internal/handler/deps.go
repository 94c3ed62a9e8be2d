package handler

import (
	"shogid/internal/app/conn"
	"shogid/internal/app/modules/room"
	"shogid/internal/configs"
)

type AppDeps struct {
	Config      *configs.AppConfig
	Connections *conn.Manager
	Rooms       *room.Manager
	QueueDepths func() (input, output int)
}
