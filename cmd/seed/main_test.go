package main

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const sample = `
users:
  - email: " Jefa@Example.org "
    password: clave
    role: jefe
    sectores: [barrios, " Stock ", Jefe]
  - email: o'neil@example.org
    password: otra
`

func TestParse(t *testing.T) {
	users, err := parse([]byte(sample))
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "jefa@example.org", users[0].Email)
	assert.Equal(t, "empleado", users[1].Role)
	assert.Equal(t, "o'neil@example.org", users[1].Name)

	_, err = parse([]byte("users:\n  - email: a@b.c\n"))
	assert.Error(t, err, "sin password")
	_, err = parse([]byte("users:\n  - {email: a@b.c, password: x, role: root}\n"))
	assert.Error(t, err)
	_, err = parse([]byte("users:\n  - {email: a@b.c, password: x}\n  - {email: A@b.c, password: y}\n"))
	assert.Error(t, err, "email repetido")
}

func TestRender(t *testing.T) {
	users, err := parse([]byte(sample))
	require.NoError(t, err)

	var b strings.Builder
	require.NoError(t, render(&b, users, "jefe", bcrypt.MinCost))
	sql := b.String()

	assert.Contains(t, sql, "'sector_barrios' FROM users WHERE email = 'jefa@example.org'")
	assert.Contains(t, sql, "'sector_stock'")
	assert.NotContains(t, sql, "sector_jefe", "jefe sale del rol")
	assert.Contains(t, sql, "'o''neil@example.org'")
	assert.NotContains(t, sql, "'clave'")
	assert.Equal(t, 2, strings.Count(sql, "INSERT INTO users"))

	again := strings.Builder{}
	require.NoError(t, render(&again, users[:1], "jefe", bcrypt.MinCost))
	firstID := sql[strings.Index(sql, "VALUES ('")+9:][:36]
	assert.Contains(t, again.String(), firstID, "el id depende solo del email")
}
