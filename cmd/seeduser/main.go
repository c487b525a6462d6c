// seeduser crea el primer usuario administrador en PostgreSQL.
//
// Uso: go run ./cmd/seeduser <email> <password> [nombre]
// Lee la conexión de las mismas variables que la API (DATABASE_URL, DB_HOST...).
// Si el email ya existe no modifica nada.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jhoicas/stock-api/internal/application/auth"
	"github.com/jhoicas/stock-api/internal/application/dto"
	"github.com/jhoicas/stock-api/internal/domain"
	"github.com/jhoicas/stock-api/internal/domain/entity"
	"github.com/jhoicas/stock-api/internal/infrastructure/postgres"
	"github.com/jhoicas/stock-api/pkg/config"
	"github.com/jhoicas/stock-api/pkg/logger"
)

func main() {
	if len(os.Args) < 3 {
		fmt.Fprintln(os.Stderr, "uso: seeduser <email> <password> [nombre]")
		os.Exit(2)
	}
	name := "Administrador"
	if len(os.Args) > 3 {
		name = os.Args[3]
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cargar configuración: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, App: "seeduser"})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	if err := postgres.Migrate(ctx, pool, log.Component("migrate")); err != nil {
		log.Fatal().Err(err).Msg("migraciones")
	}

	uc := auth.NewAuthUseCase(postgres.NewUserRepository(pool), auth.JWTConfig{Secret: cfg.JWT.Secret})
	user, err := uc.CreateUser(ctx, dto.CreateUserRequest{
		Email:    os.Args[1],
		Password: os.Args[2],
		Name:     name,
		Role:     entity.RoleAdmin,
	})
	switch {
	case errors.Is(err, domain.ErrEmailAlreadyExists):
		log.Info().Str("email", os.Args[1]).Msg("el administrador ya existe, sin cambios")
		return
	case errors.Is(err, domain.ErrInvalidInput):
		log.Fatal().Msg("email inválido o password de menos de 8 caracteres")
	case err != nil:
		log.Fatal().Err(err).Msg("crear administrador")
	}
	log.Info().Str("id", user.ID).Str("email", user.Email).Msg("administrador creado")
}
