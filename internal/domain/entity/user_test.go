package entity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/portal-movimiento/internal/domain/entity"
)

func TestUserSectors_JefePrimeroYLuegoGrupos(t *testing.T) {
	u := &entity.User{
		Role:   entity.RoleJefe,
		Groups: []string{"sector_barrios", "staff", "sector_stock", "sector_"},
	}
	assert.Equal(t, []string{"jefe", "barrios", "stock"}, u.Sectors("jefe"))
}

func TestUserSectors_EmpleadoSinGrupos(t *testing.T) {
	u := &entity.User{Role: entity.RoleEmpleado}
	assert.Empty(t, u.Sectors("jefe"))
}

func TestSession_Navigable(t *testing.T) {
	var nilSession *entity.Session
	assert.False(t, nilSession.Navigable())
	assert.False(t, (&entity.Session{AccessToken: "t"}).Navigable(), "sin sectores no hay destino")
	assert.True(t, (&entity.Session{AccessToken: "t", Sectors: []string{"ventas"}}).Navigable())
}
