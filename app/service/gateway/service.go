package gateway

import (
	"errors"
	"log/slog"

	"neuroseven/app/client/profile"
	"neuroseven/app/config"
	"neuroseven/app/service/orchestrator"

	"github.com/gofiber/fiber/v2"
	"github.com/samber/do"
)

var _ do.Shutdownable = (*Service)(nil)

// Service is the HTTP edge: one endpoint accepts an inbound envelope and
// returns the assistant's reply for it.
type Service struct {
	cfg  *config.Config
	orch *orchestrator.Service
	app  *fiber.App
}

func New(di *do.Injector) (*Service, error) {
	s := &Service{
		cfg:  do.MustInvoke[*config.Config](di),
		orch: do.MustInvoke[*orchestrator.Service](di),
	}

	s.app = fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s.app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	s.app.Post("/api/v1/messages", s.handleMessage)

	return s, nil
}

func (s *Service) handleMessage(c *fiber.Ctx) error {
	var in orchestrator.Inbound
	if err := c.BodyParser(&in); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "malformed envelope")
	}

	reply, err := s.orch.ProcessTurn(c.Context(), in)
	if err != nil {
		if errors.Is(err, profile.ErrNoKey) || in.ThreadID == "" {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		slog.Error("Turn failed", "thread_id", in.ThreadID, "error", err)

		return fiber.NewError(fiber.StatusInternalServerError, "turn failed")
	}

	return c.JSON(fiber.Map{
		"reply": reply,
	})
}

func (s *Service) Run() error {
	slog.Info("Gateway listening", "address", s.cfg.Server.Addr)

	return s.app.Listen(s.cfg.Server.Addr)
}

func (s *Service) Shutdown() error {
	return s.app.Shutdown()
}
