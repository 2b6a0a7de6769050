package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/folio-space/core/internal/config"
	"github.com/folio-space/core/internal/database"
	"github.com/folio-space/core/internal/models"
	"github.com/folio-space/core/internal/modules/content/offering"
	"github.com/folio-space/core/internal/modules/content/project"
	"github.com/folio-space/core/internal/pkg/events"
	pkgredis "github.com/folio-space/core/internal/pkg/redis"
)

type projectSeeder interface {
	Counts(ctx context.Context) (total, active int64, err error)
	Create(ctx context.Context, dto *project.CreateProjectDTO) (*models.ProjectModel, error)
}

type serviceSeeder interface {
	Counts(ctx context.Context) (total, active int64, err error)
	Create(ctx context.Context, dto *offering.CreateServiceDTO) (*models.ServiceModel, error)
}

func intPtr(v int) *int { return &v }

var demoServices = []offering.CreateServiceDTO{
	{
		Title:        "Suporte Técnico",
		Description:  "Manutenção de computadores, formatação, instalação de programas e resolução de problemas de rede.",
		IconName:     "Wrench",
		DisplayOrder: intPtr(1),
	},
	{
		Title:        "Desenvolvimento Web",
		Description:  "Criação de sites institucionais e landing pages responsivas, rápidas e fáceis de manter.",
		IconName:     "Code",
		DisplayOrder: intPtr(2),
	},
}

var demoProjects = []project.CreateProjectDTO{
	{
		Title:        "Portfólio Profissional",
		Description:  "Site pessoal com páginas públicas, painel administrativo e galeria de projetos.",
		Problem:      "Apresentar trabalhos e serviços de forma organizada e fácil de atualizar.",
		Solution:     "Páginas renderizadas no servidor com conteúdo editável pelo painel.",
		Result:       "Conteúdo atualizado em tempo real sem novo deploy.",
		Learnings:    "Modelagem de conteúdo por seções e cache com invalidação por eventos.",
		Technologies: "Go, MySQL, Redis",
		DisplayOrder: intPtr(1),
	},
}

// seedDemo inserts demo services and projects into empty tables.
func seedDemo(ctx context.Context, projects projectSeeder, services serviceSeeder, log *zap.Logger) error {
	total, _, err := services.Counts(ctx)
	if err != nil {
		return fmt.Errorf("count services: %w", err)
	}
	if total == 0 {
		for i := range demoServices {
			dto := demoServices[i]
			if _, err := services.Create(ctx, &dto); err != nil {
				return fmt.Errorf("seed service %q: %w", dto.Title, err)
			}
		}
		log.Info("seeded services", zap.Int("count", len(demoServices)))
	} else {
		log.Info("services already present, skipping", zap.Int64("count", total))
	}

	total, _, err = projects.Counts(ctx)
	if err != nil {
		return fmt.Errorf("count projects: %w", err)
	}
	if total == 0 {
		for i := range demoProjects {
			dto := demoProjects[i]
			if _, err := projects.Create(ctx, &dto); err != nil {
				return fmt.Errorf("seed project %q: %w", dto.Title, err)
			}
		}
		log.Info("seeded projects", zap.Int("count", len(demoProjects)))
	} else {
		log.Info("projects already present, skipping", zap.Int64("count", total))
	}
	return nil
}

// Seed connects to the database and fills empty tables with demo content.
// With Redis fan-out enabled, running servers refresh from the seed events.
func Seed(ctx context.Context, cfg *config.AppConfig, log *zap.Logger) error {
	db, err := database.Connect(cfg, true)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer database.Close(db)

	bus := events.NewBus(events.WithLogger(log.Named("events")))
	defer bus.Close()
	if cfg.Events.RedisFanout {
		rc, err := pkgredis.Connect(cfg.Redis.URLValue())
		if err != nil {
			log.Warn("redis unavailable, seed events stay local", zap.Error(err))
		} else {
			defer rc.Close()
			bus.Attach(events.NewRedisPublisher(rc.Raw(), cfg.Events.Channel))
		}
	}

	return seedDemo(ctx,
		project.NewService(project.NewRepository(db), bus),
		offering.NewService(offering.NewRepository(db), bus),
		log,
	)
}
