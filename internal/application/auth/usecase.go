package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/portal-movimiento/internal/application/dto"
	"github.com/jhoicas/portal-movimiento/internal/domain"
	"github.com/jhoicas/portal-movimiento/internal/domain/entity"
	"github.com/jhoicas/portal-movimiento/internal/domain/repository"
	"github.com/jhoicas/portal-movimiento/internal/domain/sector"
	"github.com/jhoicas/portal-movimiento/pkg/jwt"
)

// JWTConfig configuración para generación de tokens.
type JWTConfig struct {
	Secret            string
	ExpMinutes        int
	RefreshExpMinutes int
	Issuer            string
}

// SessionConfig sector reservado de jefes y TTL de la sesión del servidor.
type SessionConfig struct {
	ManagersSector string
	ServerTTL      time.Duration
}

// AuthUseCase casos de uso de autenticación: login, refresh, heartbeat y alta de usuarios.
type AuthUseCase struct {
	userRepo repository.UserRepository
	sessions repository.ServerSessionRepository
	jwtCfg   JWTConfig
	sessCfg  SessionConfig
	tx       TxRunner
}

// TxRunner ejecuta el alta de usuario y sus grupos en una sola transacción.
type TxRunner interface {
	RunUsers(ctx context.Context, fn func(users repository.UserRepository) error) error
}

// NewAuthUseCase construye el caso de uso de auth.
func NewAuthUseCase(userRepo repository.UserRepository, sessions repository.ServerSessionRepository, jwtCfg JWTConfig, sessCfg SessionConfig) *AuthUseCase {
	return &AuthUseCase{userRepo: userRepo, sessions: sessions, jwtCfg: jwtCfg, sessCfg: sessCfg}
}

// WithTxRunner hace transaccional el alta de usuarios.
func (uc *AuthUseCase) WithTxRunner(tx TxRunner) *AuthUseCase {
	uc.tx = tx
	return uc
}

// Login verifica email/password, abre una sesión de servidor y emite el par de tokens
// junto con rol, nombre y sectores. Un usuario sin sectores recibe accesos vacío: el
// cliente decide que no hay destino.
func (uc *AuthUseCase) Login(ctx context.Context, in dto.LoginRequest) (*dto.TokenPairResponse, error) {
	user, err := uc.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(in.Email)))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, domain.ErrUnauthorized
	}
	if user.Status != "active" {
		return nil, domain.ErrForbidden
	}

	srv := &entity.ServerSession{ID: uuid.New().String(), UserID: user.ID, CreatedAt: time.Now()}
	if _, err := uc.sessions.Save(ctx, srv, uc.sessCfg.ServerTTL); err != nil {
		return nil, err
	}

	accesos := user.Sectors(uc.sessCfg.ManagersSector)
	claims := uc.claimsFor(user, accesos, srv.ID)
	access, err := jwt.Generate(uc.jwtCfg.Secret, uc.jwtCfg.Issuer, claims, uc.jwtCfg.ExpMinutes)
	if err != nil {
		return nil, err
	}
	claims.TokenType = jwt.TypeRefresh
	refresh, err := jwt.Generate(uc.jwtCfg.Secret, uc.jwtCfg.Issuer, claims, uc.jwtCfg.RefreshExpMinutes)
	if err != nil {
		return nil, err
	}
	return &dto.TokenPairResponse{
		Access:  access,
		Refresh: refresh,
		Role:    user.Role,
		Name:    user.Name,
		Email:   user.Email,
		Accesos: accesos,
	}, nil
}

// Authenticate adapta Login al puerto que usa el flujo de login del portal.
func (uc *AuthUseCase) Authenticate(ctx context.Context, email, password string) (*dto.TokenPairResponse, error) {
	return uc.Login(ctx, dto.LoginRequest{Email: email, Password: password})
}

// Refresh emite un access nuevo a partir de un refresh válido. Los sectores se recalculan
// con los grupos actuales del usuario.
func (uc *AuthUseCase) Refresh(ctx context.Context, in dto.RefreshRequest) (*dto.RefreshResponse, error) {
	rc, err := jwt.ParseType(uc.jwtCfg.Secret, in.Refresh, jwt.TypeRefresh)
	if err != nil {
		return nil, domain.ErrUnauthorized
	}
	user, err := uc.userRepo.GetByID(ctx, rc.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil || user.Status != "active" {
		return nil, domain.ErrUnauthorized
	}
	claims := uc.claimsFor(user, user.Sectors(uc.sessCfg.ManagersSector), rc.SessionID)
	access, err := jwt.Generate(uc.jwtCfg.Secret, uc.jwtCfg.Issuer, claims, uc.jwtCfg.ExpMinutes)
	if err != nil {
		return nil, err
	}
	return &dto.RefreshResponse{Access: access}, nil
}

// ExtendSession renueva (o recrea) la sesión de servidor del token y devuelve la
// expiración restante en segundos. Un token sin sid no tiene sesión que extender.
func (uc *AuthUseCase) ExtendSession(ctx context.Context, claims *jwt.Claims) (*dto.ExtendSessionResponse, error) {
	if claims == nil || claims.UserID == "" || claims.SessionID == "" {
		return nil, domain.ErrUnauthorized
	}
	sid := claims.SessionID
	existing, err := uc.sessions.Get(ctx, sid)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		existing = &entity.ServerSession{ID: sid, UserID: claims.UserID, CreatedAt: time.Now()}
	}
	if existing.UserID != claims.UserID {
		return nil, domain.ErrForbidden
	}
	left, err := uc.sessions.Save(ctx, existing, uc.sessCfg.ServerTTL)
	if err != nil {
		return nil, err
	}
	return &dto.ExtendSessionResponse{Message: "Session extended", Expiry: int64(left / time.Second)}, nil
}

// Logout elimina la sesión de servidor; no falla si ya no existía.
func (uc *AuthUseCase) Logout(ctx context.Context, claims *jwt.Claims) error {
	if claims == nil || claims.SessionID == "" {
		return nil
	}
	return uc.sessions.Delete(ctx, claims.SessionID)
}

// RegisterUser crea un usuario con rol y grupos de sector. Devuelve ErrEmailAlreadyExists si el email existe.
func (uc *AuthUseCase) RegisterUser(ctx context.Context, in dto.RegisterRequest) (*dto.UserResponse, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	existing, err := uc.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrEmailAlreadyExists
	}
	role := in.Role
	if role == "" {
		role = entity.RoleEmpleado
	}
	if !entity.ValidRole(role) {
		return nil, domain.ErrInvalidInput
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	name := in.Name
	if name == "" {
		name = email
	}
	user := &entity.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: string(hash),
		Name:         name,
		Role:         role,
		Status:       "active",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	for _, sec := range in.Sectors {
		sec = strings.ToLower(strings.TrimSpace(sec))
		if sec == "" || sec == uc.sessCfg.ManagersSector {
			continue
		}
		if group := entity.SectorGroupPrefix + sec; !user.InGroup(group) {
			user.Groups = append(user.Groups, group)
		}
	}
	create := func(users repository.UserRepository) error { return users.Create(ctx, user) }
	if uc.tx != nil {
		err = uc.tx.RunUsers(ctx, create)
	} else {
		err = create(uc.userRepo)
	}
	if err != nil {
		return nil, err
	}
	return uc.userResponse(user), nil
}

// GrantSector concede un sector a un usuario existente agregándolo al grupo sector_<x>.
// El sector de jefes no se concede por grupo: sale del rol.
func (uc *AuthUseCase) GrantSector(ctx context.Context, userID, sectorName string) (*dto.UserResponse, error) {
	sectorName = strings.ToLower(strings.TrimSpace(sectorName))
	if !sector.ValidLabel(sectorName) || sectorName == uc.sessCfg.ManagersSector {
		return nil, domain.ErrInvalidSector
	}
	if err := uc.userRepo.AddGroup(ctx, userID, entity.SectorGroupPrefix+sectorName); err != nil {
		return nil, err
	}
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	return uc.userResponse(user), nil
}

func (uc *AuthUseCase) userResponse(user *entity.User) *dto.UserResponse {
	return &dto.UserResponse{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		Role:      user.Role,
		Accesos:   user.Sectors(uc.sessCfg.ManagersSector),
		CreatedAt: user.CreatedAt,
	}
}

// IsCredentialError agrupa los errores que el handler responde como 401.
func IsCredentialError(err error) bool {
	return errors.Is(err, domain.ErrUserNotFound) || errors.Is(err, domain.ErrUnauthorized)
}

func (uc *AuthUseCase) claimsFor(user *entity.User, accesos []string, sid string) jwt.Claims {
	return jwt.Claims{
		UserID:    user.ID,
		Role:      user.Role,
		Name:      user.Name,
		Sectors:   accesos,
		SessionID: sid,
		Superuser: user.IsSuperuser,
		TokenType: jwt.TypeAccess,
	}
}
