package entity

import (
	"strings"
	"time"
)

// Roles válidos para User.
const (
	RoleAdmin    = "admin"
	RoleJefe     = "jefe"
	RoleEmpleado = "empleado"
)

// SectorGroupPrefix prefijo de los grupos que conceden un sector ("sector_barrios" -> "barrios").
const SectorGroupPrefix = "sector_"

// User representa un usuario del portal.
type User struct {
	ID           string
	Email        string
	PasswordHash string // bcrypt hash, nunca plano en dominio después de persistir
	Name         string
	Role         string // admin, jefe, empleado
	Status       string // active, inactive
	IsSuperuser  bool
	Groups       []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ValidRole informa si role es uno de los roles conocidos.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleJefe, RoleEmpleado:
		return true
	}
	return false
}

// Sectors deriva la lista ordenada de accesos: el rol jefe primero (es un rol, no un
// sector físico) y luego cada grupo sector_<x> en el orden en que fue asignado.
// managersSector es el identificador reservado del rol jefe.
func (u *User) Sectors(managersSector string) []string {
	accesos := make([]string, 0, len(u.Groups)+1)
	if u.Role == RoleJefe {
		accesos = append(accesos, managersSector)
	}
	for _, g := range u.Groups {
		if name, ok := strings.CutPrefix(g, SectorGroupPrefix); ok && name != "" {
			accesos = append(accesos, name)
		}
	}
	return accesos
}

// InGroup informa si el usuario pertenece al grupo.
func (u *User) InGroup(group string) bool {
	for _, g := range u.Groups {
		if g == group {
			return true
		}
	}
	return false
}
