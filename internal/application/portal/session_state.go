package portal

import (
	"encoding/json"
	"fmt"

	"github.com/jhoicas/portal-movimiento/internal/domain/entity"
	"github.com/jhoicas/portal-movimiento/internal/domain/repository"
)

// SaveSession reemplaza la sesión guardada campo por campo.
func SaveSession(store repository.SessionStore, s *entity.Session) error {
	accesos, err := json.Marshal(s.Sectors)
	if err != nil {
		return fmt.Errorf("serializar accesos: %w", err)
	}
	values := [][2]string{
		{repository.KeyAccessToken, s.AccessToken},
		{repository.KeyRefreshToken, s.RefreshToken},
		{repository.KeyRole, s.Role},
		{repository.KeyUserName, s.UserName},
		{repository.KeyAccesos, string(accesos)},
	}
	for _, kv := range values {
		if err := store.Set(kv[0], kv[1]); err != nil {
			return fmt.Errorf("guardar %s: %w", kv[0], err)
		}
	}
	return nil
}

// LoadSession lee la sesión guardada. Un valor de accesos ilegible se trata como lista vacía.
func LoadSession(store repository.SessionStore) (*entity.Session, error) {
	get := func(key string) (string, error) {
		v, err := store.Get(key)
		if err != nil {
			return "", fmt.Errorf("leer %s: %w", key, err)
		}
		return v, nil
	}
	s := &entity.Session{}
	var err error
	if s.AccessToken, err = get(repository.KeyAccessToken); err != nil {
		return nil, err
	}
	if s.RefreshToken, err = get(repository.KeyRefreshToken); err != nil {
		return nil, err
	}
	if s.Role, err = get(repository.KeyRole); err != nil {
		return nil, err
	}
	if s.UserName, err = get(repository.KeyUserName); err != nil {
		return nil, err
	}
	raw, err := get(repository.KeyAccesos)
	if err != nil {
		return nil, err
	}
	if raw != "" {
		_ = json.Unmarshal([]byte(raw), &s.Sectors)
	}
	return s, nil
}
