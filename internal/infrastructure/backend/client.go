// Package backend cliente REST del backend de autenticación: login, refresh,
// extensión de sesión y datos del token actual.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/jhoicas/portal-movimiento/internal/application/dto"
	"github.com/jhoicas/portal-movimiento/internal/application/portal"
	"github.com/jhoicas/portal-movimiento/internal/application/session"
	"github.com/jhoicas/portal-movimiento/internal/domain"
	"github.com/jhoicas/portal-movimiento/internal/domain/repository"
	"github.com/jhoicas/portal-movimiento/internal/infrastructure/metrics"
)

var (
	_ portal.Authenticator = (*Client)(nil)
	_ session.Heartbeat    = (*Client)(nil)
)

const (
	tokenPath         = "/api/token/"
	refreshPath       = "/api/token/refresh/"
	extendSessionPath = "/api/auth/extend-session/"
	mePath            = "/api/auth/me"

	// ProductionAPIURL y LocalAPIURL destinos por defecto según el entorno.
	ProductionAPIURL = "https://api.ushuaiamovimiento.com.ar"
	LocalAPIURL      = "http://127.0.0.1:8000"
)

// APIError respuesta no exitosa del backend. Unwrap lo traduce a un error de dominio
// según el estado para poder compararlo con errors.Is.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("backend: HTTP %d", e.Status)
	}
	return fmt.Sprintf("backend: HTTP %d: %s", e.Status, e.Detail)
}

func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized:
		return domain.ErrUnauthorized
	case http.StatusForbidden:
		return domain.ErrForbidden
	case http.StatusNotFound:
		return domain.ErrNotFound
	case http.StatusBadRequest:
		return domain.ErrInvalidInput
	}
	return nil
}

// Client habla con el backend usando el token guardado en Store. Cualquier 401 en una
// llamada autenticada pasa por el manejador uniforme: sesión borrada y vuelta al login.
type Client struct {
	baseURL    string
	store      repository.SessionStore
	navigator  portal.Navigator
	loginURL   string
	httpClient *http.Client
}

// Options dependencias del cliente.
type Options struct {
	BaseURL   string
	Store     repository.SessionStore
	Navigator portal.Navigator
	LoginURL  string
	Timeout   time.Duration // 0 = 20 s
}

// New construye el cliente.
func New(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		store:      opts.Store,
		navigator:  opts.Navigator,
		loginURL:   opts.LoginURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Authenticate intercambia credenciales por el par de tokens. Un 401 aquí es un error de
// credenciales y no toca la sesión guardada.
func (c *Client) Authenticate(ctx context.Context, email, password string) (*dto.TokenPairResponse, error) {
	var out dto.TokenPairResponse
	err := c.do(ctx, http.MethodPost, tokenPath, false, dto.LoginRequest{Email: email, Password: password}, &out)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized && apiErr.Detail == "" {
			apiErr.Detail = "Credenciales inválidas"
		}
		return nil, err
	}
	if out.Accesos == nil {
		out.Accesos = []string{}
	}
	return &out, nil
}

// ExtendSession heartbeat: mantiene viva la sesión del servidor.
func (c *Client) ExtendSession(ctx context.Context) error {
	var out dto.ExtendSessionResponse
	return c.do(ctx, http.MethodPost, extendSessionPath, true, nil, &out)
}

// Refresh pide un access nuevo con el refresh guardado y lo deja como credencial activa.
func (c *Client) Refresh(ctx context.Context) error {
	refresh, err := c.store.Get(repository.KeyRefreshToken)
	if err != nil {
		return err
	}
	if refresh == "" {
		return domain.ErrNoSession
	}
	var out dto.RefreshResponse
	if err := c.do(ctx, http.MethodPost, refreshPath, true, dto.RefreshRequest{Refresh: refresh}, &out); err != nil {
		return err
	}
	return c.store.Set(repository.KeyAccessToken, out.Access)
}

// Me datos del token actual.
func (c *Client) Me(ctx context.Context) (*dto.MeResponse, error) {
	var out dto.MeResponse
	if err := c.do(ctx, http.MethodGet, mePath, true, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, authed bool, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("backend: serializar request: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("backend: crear HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if authed {
		token, err := c.store.Get(repository.KeyAccessToken)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("backend: timeout o cancelación: %w", ctx.Err())
		}
		return fmt.Errorf("backend: llamada HTTP fallida: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return fmt.Errorf("backend: leer respuesta: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized && authed {
		metrics.UnauthorizedTotal.Inc()
		return portal.Unauthorized(c.store, c.navigator, c.loginURL)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Detail: detailOf(raw)}
	}
	if resp.StatusCode == http.StatusNoContent || out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("backend: deserializar respuesta: %w", err)
	}
	return nil
}

// detailOf extrae el mensaje legible del cuerpo de error: "detail", "non_field_errors",
// "error" o "message", en ese orden. Si no es JSON devuelve el texto.
func detailOf(raw []byte) string {
	var body struct {
		Detail         string   `json:"detail"`
		NonFieldErrors []string `json:"non_field_errors"`
		Error          string   `json:"error"`
		Message        string   `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err == nil {
		switch {
		case body.Detail != "":
			return body.Detail
		case len(body.NonFieldErrors) > 0:
			return strings.Join(body.NonFieldErrors, "; ")
		case body.Error != "":
			return body.Error
		case body.Message != "":
			return body.Message
		}
	}
	return strings.TrimSpace(string(raw))
}
