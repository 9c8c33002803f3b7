package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"golang.org/x/exp/slog"

	"workoutsync/internal/domain/table"
)

const userAgent = "Workoutsync-Client/1.0"

// HTTPStore Backend поверх REST API сервера с bearer-токеном
type HTTPStore struct {
	client  *http.Client
	log     *slog.Logger
	baseURL string

	mu     sync.RWMutex
	token  string
	userID int64
}

func NewHTTPStore(baseURL string, timeout time.Duration, log *slog.Logger) *HTTPStore {
	client := &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			IdleConnTimeout:     90 * time.Second,
			MaxIdleConnsPerHost: 10,
		},
	}

	return &HTTPStore{
		client:  client,
		log:     log.With("component", "remote_http"),
		baseURL: baseURL,
	}
}

// SetToken устанавливает токен аутентификации
func (h *HTTPStore) SetToken(token string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.token != token {
		h.userID = 0
	}
	h.token = token
}

func (h *HTTPStore) Token() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.token
}

// HealthCheck проверяет доступность сервера
func (h *HTTPStore) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.baseURL+"/api/v1/health", nil)
	if err != nil {
		return fmt.Errorf("ошибка создания запроса: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := h.client.Do(req)
	if err != nil {
		return fmt.Errorf("сервер недоступен: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("сервер вернул статус: %d", resp.StatusCode)
	}
	return nil
}

type credentials struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

func (h *HTTPStore) Register(ctx context.Context, login, password string) error {
	resp, err := h.doRequest(ctx, http.MethodPost, "/api/v1/user/register", credentials{Login: login, Password: password})
	if err != nil {
		return err
	}
	return h.parseResponse(resp, nil)
}

// Login открывает сессию и запоминает токен
func (h *HTTPStore) Login(ctx context.Context, login, password string) (string, error) {
	resp, err := h.doRequest(ctx, http.MethodPost, "/api/v1/user/login", credentials{Login: login, Password: password})
	if err != nil {
		return "", err
	}

	var loginResp struct {
		Token  string `json:"token"`
		UserID int64  `json:"user_id"`
	}
	if err := h.parseResponse(resp, &loginResp); err != nil {
		return "", err
	}

	h.mu.Lock()
	h.token = loginResp.Token
	h.userID = loginResp.UserID
	h.mu.Unlock()
	return loginResp.Token, nil
}

// Logout закрывает сессию на сервере и забывает токен
func (h *HTTPStore) Logout(ctx context.Context) error {
	resp, err := h.doRequest(ctx, http.MethodPost, "/api/v1/user/logout", nil)
	if err != nil {
		return err
	}
	if err := h.parseResponse(resp, nil); err != nil {
		return err
	}
	h.SetToken("")
	return nil
}

// CurrentUserID запрашивает идентификатор пользователя один раз на токен
func (h *HTTPStore) CurrentUserID(ctx context.Context) (int64, error) {
	h.mu.RLock()
	id, token := h.userID, h.token
	h.mu.RUnlock()
	if id != 0 {
		return id, nil
	}
	if token == "" {
		return 0, ErrUnauthorized
	}

	resp, err := h.doRequest(ctx, http.MethodGet, "/api/v1/user/me", nil)
	if err != nil {
		return 0, err
	}
	var me struct {
		UserID int64 `json:"user_id"`
	}
	if err := h.parseResponse(resp, &me); err != nil {
		return 0, err
	}

	h.mu.Lock()
	if h.token == token {
		h.userID = me.UserID
	}
	h.mu.Unlock()
	return me.UserID, nil
}

func (h *HTTPStore) Select(ctx context.Context, name string, f table.Filter) ([]table.Row, error) {
	resp, err := h.doRequest(ctx, http.MethodPost, tablePath(name, "select"), filterBody(f))
	if err != nil {
		return nil, err
	}
	var out struct {
		Rows []table.Row `json:"rows"`
	}
	if err := h.parseResponse(resp, &out); err != nil {
		return nil, err
	}
	return out.Rows, nil
}

func (h *HTTPStore) Insert(ctx context.Context, name string, row table.Row) (table.Row, error) {
	resp, err := h.doRequest(ctx, http.MethodPost, tablePath(name), map[string]any{"row": row})
	if err != nil {
		return nil, err
	}
	var out struct {
		Row table.Row `json:"row"`
	}
	if err := h.parseResponse(resp, &out); err != nil {
		return nil, err
	}
	return out.Row, nil
}

func (h *HTTPStore) Upsert(ctx context.Context, name string, row table.Row, onConflict []string) (table.Row, error) {
	body := map[string]any{"row": row, "on_conflict": onConflict}
	resp, err := h.doRequest(ctx, http.MethodPut, tablePath(name), body)
	if err != nil {
		return nil, err
	}
	var out struct {
		Row table.Row `json:"row"`
	}
	if err := h.parseResponse(resp, &out); err != nil {
		return nil, err
	}
	return out.Row, nil
}

func (h *HTTPStore) Update(ctx context.Context, name string, key any, row table.Row) error {
	resp, err := h.doRequest(ctx, http.MethodPatch, tablePath(name, fmt.Sprint(key)), map[string]any{"row": row})
	if err != nil {
		return err
	}
	return h.parseResponse(resp, nil)
}

func (h *HTTPStore) Delete(ctx context.Context, name string, f table.Filter) (int64, error) {
	resp, err := h.doRequest(ctx, http.MethodPost, tablePath(name, "delete"), filterBody(f))
	if err != nil {
		return 0, err
	}
	var out struct {
		Deleted int64 `json:"deleted"`
	}
	if err := h.parseResponse(resp, &out); err != nil {
		return 0, err
	}
	return out.Deleted, nil
}

func tablePath(name string, parts ...string) string {
	p := "/api/v1/tables/" + url.PathEscape(name)
	for _, part := range parts {
		p += "/" + url.PathEscape(part)
	}
	return p
}

// filterBody сервер требует поле filter и value в каждом условии
func filterBody(f table.Filter) map[string]any {
	if f == nil {
		f = table.Filter{}
	}
	return map[string]any{"filter": f}
}

func (h *HTTPStore) doRequest(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("ошибка маршалинга тела запроса: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, h.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания запроса: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if token := h.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	h.log.Debug("Отправка запроса", "method", method, "url", req.URL.String())

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ошибка выполнения запроса: %w", err)
	}
	return resp, nil
}

// errorBody ответ об ошибке: problem+json от huma или {"error": ...} от
// middleware аутентификации
type errorBody struct {
	Title  string `json:"title"`
	Detail string `json:"detail"`
	Error  string `json:"error"`
}

func (h *HTTPStore) parseResponse(resp *http.Response, result any) error {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("ошибка чтения ответа: %w", err)
	}

	h.log.Debug("Получен ответ", "status", resp.StatusCode, "bytes", len(body))

	if resp.StatusCode >= 400 {
		return statusError(resp.StatusCode, body)
	}

	if result != nil {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("ошибка парсинга ответа: %w", err)
		}
	}
	return nil
}

func statusError(status int, body []byte) error {
	var e errorBody
	_ = json.Unmarshal(body, &e)

	msg := e.Detail
	if msg == "" {
		msg = e.Error
	}
	if msg == "" {
		msg = e.Title
	}
	if msg == "" {
		msg = "статус " + strconv.Itoa(status)
	}

	switch {
	case status == http.StatusConflict && e.Detail == table.CodeForeignKeyViolation:
		return ErrReferenced
	case status == http.StatusUnauthorized:
		return ErrUnauthorized
	case status == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, msg)
	}
	return fmt.Errorf("ошибка сервера: %s", msg)
}
