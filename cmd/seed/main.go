// seed genera el script SQL con los usuarios iniciales del portal y sus grupos de sector
// a partir de un archivo YAML.
//
// Uso: go run ./cmd/seed [ruta/usuarios.yaml]
// Por defecto busca usuarios.yaml en el directorio actual.
// Escribe: internal/infrastructure/postgres/migrations/002_seed_users.sql
//
// Formato:
//
//	users:
//	  - email: jefa@ushuaiamovimiento.com.ar
//	    name: Jefa
//	    password: cambiar-esto
//	    role: jefe
//	    sectores: [barrios, stock]
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"

	"github.com/jhoicas/portal-movimiento/internal/domain/entity"
	"github.com/jhoicas/portal-movimiento/pkg/config"
)

type seedFile struct {
	Users []seedUser `yaml:"users"`
}

type seedUser struct {
	Email     string   `yaml:"email"`
	Name      string   `yaml:"name"`
	Password  string   `yaml:"password"`
	Role      string   `yaml:"role"`
	Superuser bool     `yaml:"superuser"`
	Sectors   []string `yaml:"sectores"`
}

func main() {
	yamlPath := "usuarios.yaml"
	if len(os.Args) > 1 {
		yamlPath = os.Args[1]
	}
	raw, err := os.ReadFile(yamlPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Leer YAML: %v\n", err)
		os.Exit(1)
	}
	users, err := parse(raw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Decodificar YAML: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cargar configuración: %v\n", err)
		os.Exit(1)
	}

	moduleRoot := findModuleRoot()
	outPath := filepath.Join(moduleRoot, "internal", "infrastructure", "postgres", "migrations", "002_seed_users.sql")
	out, err := os.Create(outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Crear archivo: %v\n", err)
		os.Exit(1)
	}
	defer out.Close()

	if err := render(out, users, cfg.Portal.ManagersSector, bcrypt.DefaultCost); err != nil {
		fmt.Fprintf(os.Stderr, "Generar SQL: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Generado %s: %d usuarios\n", outPath, len(users))
}

// parse valida cada usuario: email y password obligatorios, rol conocido.
func parse(raw []byte) ([]seedUser, error) {
	var f seedFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	for i := range f.Users {
		u := &f.Users[i]
		u.Email = strings.ToLower(strings.TrimSpace(u.Email))
		if u.Email == "" || u.Password == "" {
			return nil, fmt.Errorf("usuario %d: email y password son requeridos", i+1)
		}
		if seen[u.Email] {
			return nil, fmt.Errorf("usuario %d: email repetido %s", i+1, u.Email)
		}
		seen[u.Email] = true
		if u.Role == "" {
			u.Role = entity.RoleEmpleado
		}
		if !entity.ValidRole(u.Role) {
			return nil, fmt.Errorf("usuario %s: rol inválido %q", u.Email, u.Role)
		}
		if u.Name == "" {
			u.Name = u.Email
		}
	}
	return f.Users, nil
}

// render escribe el SQL. El id se deriva del email para que el script sea idempotente.
// El sector de jefes sale del rol, nunca de un grupo.
func render(w io.Writer, users []seedUser, managersSector string, cost int) error {
	fmt.Fprintln(w, "-- Usuarios iniciales del portal")
	fmt.Fprintln(w, "-- Generado por cmd/seed; las contraseñas van con bcrypt")
	fmt.Fprintln(w)
	for _, u := range users {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), cost)
		if err != nil {
			return fmt.Errorf("hash de %s: %w", u.Email, err)
		}
		id := uuid.NewSHA1(uuid.NameSpaceURL, []byte("mailto:"+u.Email))
		fmt.Fprintf(w, "INSERT INTO users (id, email, password_hash, name, role, is_superuser)\n")
		fmt.Fprintf(w, "VALUES ('%s', '%s', '%s', '%s', '%s', %t)\n",
			id, escapeSQL(u.Email), escapeSQL(string(hash)), escapeSQL(u.Name), u.Role, u.Superuser)
		fmt.Fprintln(w, "ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name, role = EXCLUDED.role, is_superuser = EXCLUDED.is_superuser;")
		for _, s := range u.Sectors {
			s = strings.ToLower(strings.TrimSpace(s))
			if s == "" || s == managersSector {
				continue
			}
			fmt.Fprintf(w, "INSERT INTO user_groups (user_id, group_name) SELECT id, '%s' FROM users WHERE email = '%s'\n",
				escapeSQL(entity.SectorGroupPrefix+s), escapeSQL(u.Email))
			fmt.Fprintln(w, "ON CONFLICT DO NOTHING;")
		}
		fmt.Fprintln(w)
	}
	return nil
}

func escapeSQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}

func findModuleRoot() string {
	dir, _ := os.Getwd()
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		dir = parent
	}
}
