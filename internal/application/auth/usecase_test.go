package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/stock-api/internal/application/dto"
	"github.com/jhoicas/stock-api/internal/domain"
	"github.com/jhoicas/stock-api/internal/domain/entity"
	"github.com/jhoicas/stock-api/internal/infrastructure/memory"
	"github.com/jhoicas/stock-api/pkg/jwt"
)

const secret = "auth-test-secret"

func newAuth() (*AuthUseCase, *memory.Store) {
	store := memory.New()
	return NewAuthUseCase(store.Users(), JWTConfig{Secret: secret, ExpMinutes: 10, Issuer: "test"}), store
}

func TestCreateUserYLogin(t *testing.T) {
	uc, _ := newAuth()
	ctx := context.Background()

	u, err := uc.CreateUser(ctx, dto.CreateUserRequest{Email: " Ana@Tienda.co ", Password: "secreto123", Name: "Ana", Role: entity.RoleBodeguero})
	require.NoError(t, err)
	assert.Equal(t, "ana@tienda.co", u.Email)
	assert.Equal(t, entity.UserStatusActive, u.Status)

	out, err := uc.Login(ctx, dto.LoginRequest{Email: "ANA@tienda.co", Password: "secreto123"})
	require.NoError(t, err)
	id, err := jwt.Parse(secret, out.Token)
	require.NoError(t, err)
	assert.Equal(t, u.ID, id.UserID)
	assert.Equal(t, entity.RoleBodeguero, id.Role)
}

func TestCreateUser_EmailDuplicadoYRolInvalido(t *testing.T) {
	uc, _ := newAuth()
	ctx := context.Background()
	_, err := uc.CreateUser(ctx, dto.CreateUserRequest{Email: "a@b.co", Password: "12345678", Role: entity.RoleVendedor})
	require.NoError(t, err)

	_, err = uc.CreateUser(ctx, dto.CreateUserRequest{Email: "A@b.co", Password: "12345678", Role: entity.RoleVendedor})
	assert.ErrorIs(t, err, domain.ErrEmailAlreadyExists)

	_, err = uc.CreateUser(ctx, dto.CreateUserRequest{Email: "c@b.co", Password: "12345678", Role: "root"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestLogin_CredencialesInvalidas(t *testing.T) {
	uc, store := newAuth()
	ctx := context.Background()
	_, err := uc.CreateUser(ctx, dto.CreateUserRequest{Email: "a@b.co", Password: "12345678", Role: entity.RoleAdmin})
	require.NoError(t, err)

	_, err = uc.Login(ctx, dto.LoginRequest{Email: "a@b.co", Password: "otra-clave"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = uc.Login(ctx, dto.LoginRequest{Email: "nadie@b.co", Password: "12345678"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	// Usuario inactivo
	require.NoError(t, store.Users().Create(ctx, &entity.User{ID: "u-x", Email: "x@b.co", PasswordHash: mustHash(t, "12345678"), Status: entity.UserStatusInactive, Role: entity.RoleVendedor}))
	_, err = uc.Login(ctx, dto.LoginRequest{Email: "x@b.co", Password: "12345678"})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func mustHash(t *testing.T, pw string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}
