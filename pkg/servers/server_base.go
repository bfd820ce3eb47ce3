package servers

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
)

// baseServer does no work; it keeps the application alive until shutdown.
type baseServer struct {
	name         string
	closeChannel chan struct{}
	closeOnce    sync.Once
}

func BuildBaseServer() (string, Server) {
	return "base-server", NewBaseServer()
}

func NewBaseServer() Server {
	return &baseServer{
		name:         "base-server",
		closeChannel: make(chan struct{}),
	}
}

func (server *baseServer) Run(ctx context.Context) error {
	log.Ctx(ctx).Info().Str("stage", "startup").Str("component", server.name).Msg("starting up")

	select {
	case <-server.closeChannel:
	case <-ctx.Done():
	}

	return nil
}

func (server *baseServer) Stop(ctx context.Context) error {
	log.Ctx(ctx).Info().Str("stage", "shut down").Str("component", server.name).Msg("stopping")
	defer log.Ctx(ctx).Info().Str("stage", "shut down").Str("component", server.name).Msg("stopped")

	server.closeOnce.Do(func() {
		close(server.closeChannel)
	})

	return nil
}
