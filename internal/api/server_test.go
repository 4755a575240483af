// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Quantumix Contributors

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantumix/quantumix/internal/auth"
	"github.com/quantumix/quantumix/internal/tracker"
)

// Function-field fakes keep each test focused on one behavior.

type fakeAuthService struct {
	registerFn func(ctx context.Context, username, email, password, nickname string) (*auth.Account, error)
	loginFn    func(ctx context.Context, identity, password, deviceID string) (string, error)
}

func (f *fakeAuthService) Register(ctx context.Context, username, email, password, nickname string) (*auth.Account, error) {
	return f.registerFn(ctx, username, email, password, nickname)
}

func (f *fakeAuthService) Login(ctx context.Context, identity, password, deviceID string) (string, error) {
	return f.loginFn(ctx, identity, password, deviceID)
}

type fakeSessionReader struct {
	findFn     func(ctx context.Context, token string, cleanup bool) (*auth.Session, error)
	validateFn func(ctx context.Context, token string) (bool, error)
}

func (f *fakeSessionReader) FindActive(ctx context.Context, token string, cleanup bool) (*auth.Session, error) {
	return f.findFn(ctx, token, cleanup)
}

func (f *fakeSessionReader) Validate(ctx context.Context, token string) (bool, error) {
	return f.validateFn(ctx, token)
}

type fakeAccountReader struct {
	getFn func(ctx context.Context, id int) (*auth.Account, error)
}

func (f *fakeAccountReader) GetByID(ctx context.Context, id int) (*auth.Account, error) {
	return f.getFn(ctx, id)
}

type fakeTrackerService struct {
	createProjectFn  func(ctx context.Context, creator *auth.Account, input tracker.NewProjectInput) (*tracker.Project, error)
	takeProjectFn    func(ctx context.Context, leaderID, projectID int) (bool, error)
	finishProjectFn  func(ctx context.Context, actorTier, projectID int) (bool, error)
	filterProjectsFn func(ctx context.Context, actorTier int, filter tracker.ProjectFilter) ([]*tracker.Project, error)
	createTodoFn     func(ctx context.Context, creator *auth.Account, input tracker.NewTodoInput) (*tracker.Todo, error)
	takeTodoFn       func(ctx context.Context, ownerID, todoID int) (bool, error)
	finishTodoFn     func(ctx context.Context, actorTier, todoID int) (bool, error)
	filterTodosFn    func(ctx context.Context, actorTier int, filter tracker.TodoFilter) ([]*tracker.Todo, error)
}

func (f *fakeTrackerService) CreateProject(ctx context.Context, creator *auth.Account, input tracker.NewProjectInput) (*tracker.Project, error) {
	return f.createProjectFn(ctx, creator, input)
}

func (f *fakeTrackerService) TakeProject(ctx context.Context, leaderID, projectID int) (bool, error) {
	return f.takeProjectFn(ctx, leaderID, projectID)
}

func (f *fakeTrackerService) FinishProject(ctx context.Context, actorTier, projectID int) (bool, error) {
	return f.finishProjectFn(ctx, actorTier, projectID)
}

func (f *fakeTrackerService) FilterProjects(ctx context.Context, actorTier int, filter tracker.ProjectFilter) ([]*tracker.Project, error) {
	return f.filterProjectsFn(ctx, actorTier, filter)
}

func (f *fakeTrackerService) CreateTodo(ctx context.Context, creator *auth.Account, input tracker.NewTodoInput) (*tracker.Todo, error) {
	return f.createTodoFn(ctx, creator, input)
}

func (f *fakeTrackerService) TakeTodo(ctx context.Context, ownerID, todoID int) (bool, error) {
	return f.takeTodoFn(ctx, ownerID, todoID)
}

func (f *fakeTrackerService) FinishTodo(ctx context.Context, actorTier, todoID int) (bool, error) {
	return f.finishTodoFn(ctx, actorTier, todoID)
}

func (f *fakeTrackerService) FilterTodos(ctx context.Context, actorTier int, filter tracker.TodoFilter) ([]*tracker.Todo, error) {
	return f.filterTodosFn(ctx, actorTier, filter)
}

// liveSessionReader resolves the fixed token "valid-key" to account 1.
func liveSessionReader() *fakeSessionReader {
	return &fakeSessionReader{
		findFn: func(_ context.Context, token string, _ bool) (*auth.Session, error) {
			if token != "valid-key" {
				return nil, oops.Code("SESSION_NOT_FOUND").Wrap(auth.ErrNotFound)
			}
			return &auth.Session{ID: 1, Token: token, AccountID: 1, DeviceID: "device-1",
				ExpiresAt: time.Now().Add(time.Hour)}, nil
		},
		validateFn: func(_ context.Context, token string) (bool, error) {
			return token == "valid-key", nil
		},
	}
}

func actorAccounts() *fakeAccountReader {
	return &fakeAccountReader{
		getFn: func(_ context.Context, id int) (*auth.Account, error) {
			if id != 1 {
				return nil, auth.ErrNotFound
			}
			return &auth.Account{ID: 1, Sequence: 1234, Username: "alice", Tier: 5}, nil
		},
	}
}

func newTestServer(t *testing.T, authSvc AuthService, sessions SessionReader, accounts AccountReader, trackerSvc TrackerService) *Server {
	t.Helper()

	if authSvc == nil {
		authSvc = &fakeAuthService{}
	}
	if sessions == nil {
		sessions = liveSessionReader()
	}
	if accounts == nil {
		accounts = actorAccounts()
	}
	if trackerSvc == nil {
		trackerSvc = &fakeTrackerService{}
	}

	server, err := NewServer(authSvc, sessions, accounts, trackerSvc, nil, nil)
	require.NoError(t, err)
	return server
}

func postJSON(t *testing.T, handler http.Handler, path string, body any) (*httptest.ResponseRecorder, response) {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	var resp response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return rec, resp
}

func TestHandleRegister(t *testing.T) {
	t.Run("successful registration", func(t *testing.T) {
		authSvc := &fakeAuthService{
			registerFn: func(_ context.Context, username, email, _, nickname string) (*auth.Account, error) {
				return &auth.Account{ID: 1, Sequence: 4242, Username: username, Email: email, Nickname: nickname}, nil
			},
		}
		server := newTestServer(t, authSvc, nil, nil, nil)

		rec, resp := postJSON(t, server.Router(), "/register", map[string]string{
			"username": "alice",
			"email":    "alice@tuta.com",
			"password": "s3cret",
			"nickname": "Alice",
		})

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, resp.Status)
		assert.Contains(t, resp.Msg, `"alice"`)
		assert.Contains(t, resp.Msg, "4242")
	})

	t.Run("missing field", func(t *testing.T) {
		server := newTestServer(t, nil, nil, nil, nil)

		rec, resp := postJSON(t, server.Router(), "/register", map[string]string{
			"username": "alice",
			"password": "s3cret",
			"nickname": "Alice",
		})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.False(t, resp.Status)
		assert.Equal(t, "email is required", resp.Msg)
	})

	t.Run("conflict maps to 409", func(t *testing.T) {
		authSvc := &fakeAuthService{
			registerFn: func(_ context.Context, _, _, _, _ string) (*auth.Account, error) {
				return nil, oops.Code("AUTH_CONFLICT").Wrap(auth.ErrConflict)
			},
		}
		server := newTestServer(t, authSvc, nil, nil, nil)

		rec, resp := postJSON(t, server.Router(), "/register", map[string]string{
			"username": "alice",
			"email":    "alice@tuta.com",
			"password": "s3cret",
			"nickname": "Alice",
		})

		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.False(t, resp.Status)
	})

	t.Run("rejected email maps to 400", func(t *testing.T) {
		authSvc := &fakeAuthService{
			registerFn: func(_ context.Context, _, _, _, _ string) (*auth.Account, error) {
				return nil, oops.Code("AUTH_INVALID_EMAIL").Errorf("not accepted")
			},
		}
		server := newTestServer(t, authSvc, nil, nil, nil)

		rec, _ := postJSON(t, server.Router(), "/register", map[string]string{
			"username": "alice",
			"email":    "alice@gmail.com",
			"password": "s3cret",
			"nickname": "Alice",
		})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandleLogin(t *testing.T) {
	t.Run("successful login returns session key", func(t *testing.T) {
		authSvc := &fakeAuthService{
			loginFn: func(_ context.Context, _, _, _ string) (string, error) {
				return "tok-123", nil
			},
		}
		server := newTestServer(t, authSvc, nil, nil, nil)

		rec, resp := postJSON(t, server.Router(), "/login", map[string]string{
			"identity":  "alice",
			"password":  "s3cret",
			"unique_id": "device-1",
		})

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, resp.Status)
		assert.Equal(t, "tok-123", resp.SessionKey)
	})

	t.Run("invalid credentials map to 403", func(t *testing.T) {
		authSvc := &fakeAuthService{
			loginFn: func(_ context.Context, _, _, _ string) (string, error) {
				return "", oops.Code("AUTH_INVALID_CREDENTIALS").Errorf("invalid credentials")
			},
		}
		server := newTestServer(t, authSvc, nil, nil, nil)

		rec, resp := postJSON(t, server.Router(), "/login", map[string]string{
			"identity":  "alice",
			"password":  "wrong",
			"unique_id": "device-1",
		})

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.False(t, resp.Status)
		assert.Empty(t, resp.SessionKey)
	})

	t.Run("missing unique_id", func(t *testing.T) {
		server := newTestServer(t, nil, nil, nil, nil)

		rec, resp := postJSON(t, server.Router(), "/login", map[string]string{
			"identity": "alice",
			"password": "s3cret",
		})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "unique_id is required", resp.Msg)
	})
}

func TestHandleSessionCheck(t *testing.T) {
	server := newTestServer(t, nil, nil, nil, nil)

	t.Run("live session", func(t *testing.T) {
		rec, resp := postJSON(t, server.Router(), "/session", map[string]string{
			"session_key": "valid-key",
		})

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, resp.Status)
	})

	t.Run("dead session", func(t *testing.T) {
		rec, resp := postJSON(t, server.Router(), "/session", map[string]string{
			"session_key": "stale-key",
		})

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.False(t, resp.Status)
	})
}

func TestHandleNewProject(t *testing.T) {
	t.Run("creates project for the session actor", func(t *testing.T) {
		var gotCreator *auth.Account
		var gotInput tracker.NewProjectInput
		trackerSvc := &fakeTrackerService{
			createProjectFn: func(_ context.Context, creator *auth.Account, input tracker.NewProjectInput) (*tracker.Project, error) {
				gotCreator = creator
				gotInput = input
				return &tracker.Project{ID: 9, Name: input.Name}, nil
			},
		}
		server := newTestServer(t, nil, nil, nil, trackerSvc)

		rec, resp := postJSON(t, server.Router(), "/project/new", map[string]any{
			"session_key": "valid-key",
			"name":        "ship it",
			"priority":    2,
			"permission":  3,
		})

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, resp.Status)
		require.NotNil(t, gotCreator)
		assert.Equal(t, 1, gotCreator.ID)
		require.NotNil(t, gotInput.Tier)
		assert.Equal(t, 3, *gotInput.Tier)
	})

	t.Run("missing session key is unauthenticated", func(t *testing.T) {
		server := newTestServer(t, nil, nil, nil, nil)

		rec, resp := postJSON(t, server.Router(), "/project/new", map[string]any{
			"name": "ship it",
		})

		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.False(t, resp.Status)
		assert.Contains(t, resp.Msg, "log in again")
	})

	t.Run("vanished account is unauthenticated", func(t *testing.T) {
		accounts := &fakeAccountReader{
			getFn: func(_ context.Context, _ int) (*auth.Account, error) {
				return nil, auth.ErrNotFound
			},
		}
		server := newTestServer(t, nil, nil, accounts, nil)

		rec, _ := postJSON(t, server.Router(), "/project/new", map[string]any{
			"session_key": "valid-key",
			"name":        "ship it",
		})

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestHandleTakeProject(t *testing.T) {
	t.Run("claimed", func(t *testing.T) {
		trackerSvc := &fakeTrackerService{
			takeProjectFn: func(_ context.Context, leaderID, projectID int) (bool, error) {
				assert.Equal(t, 1, leaderID)
				assert.Equal(t, 7, projectID)
				return true, nil
			},
		}
		server := newTestServer(t, nil, nil, nil, trackerSvc)

		rec, resp := postJSON(t, server.Router(), "/project/take", map[string]any{
			"session_key": "valid-key",
			"project_id":  7,
		})

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, resp.Status)
	})

	t.Run("already claimed", func(t *testing.T) {
		trackerSvc := &fakeTrackerService{
			takeProjectFn: func(_ context.Context, _, _ int) (bool, error) {
				return false, nil
			},
		}
		server := newTestServer(t, nil, nil, nil, trackerSvc)

		rec, resp := postJSON(t, server.Router(), "/project/take", map[string]any{
			"session_key": "valid-key",
			"project_id":  7,
		})

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.False(t, resp.Status)
		assert.Equal(t, "project is already claimed", resp.Msg)
	})

	t.Run("unknown project maps to 404", func(t *testing.T) {
		trackerSvc := &fakeTrackerService{
			takeProjectFn: func(_ context.Context, _, _ int) (bool, error) {
				return false, oops.Code("PROJECT_NOT_FOUND").Wrap(tracker.ErrNotFound)
			},
		}
		server := newTestServer(t, nil, nil, nil, trackerSvc)

		rec, _ := postJSON(t, server.Router(), "/project/take", map[string]any{
			"session_key": "valid-key",
			"project_id":  99,
		})

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHandleFinishProject(t *testing.T) {
	t.Run("refusal carries the explanatory message", func(t *testing.T) {
		trackerSvc := &fakeTrackerService{
			finishProjectFn: func(_ context.Context, actorTier, _ int) (bool, error) {
				assert.Equal(t, 5, actorTier)
				return false, nil
			},
		}
		server := newTestServer(t, nil, nil, nil, trackerSvc)

		rec, resp := postJSON(t, server.Router(), "/project/finish", map[string]any{
			"session_key": "valid-key",
			"project_id":  7,
		})

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.False(t, resp.Status)
		assert.Equal(t, "project is already finished or not permitted", resp.Msg)
	})
}

func TestHandleFilterProjects(t *testing.T) {
	t.Run("returns data scoped to the actor tier", func(t *testing.T) {
		trackerSvc := &fakeTrackerService{
			filterProjectsFn: func(_ context.Context, actorTier int, filter tracker.ProjectFilter) ([]*tracker.Project, error) {
				assert.Equal(t, 5, actorTier)
				assert.Equal(t, uint64(2), filter.Page)
				return []*tracker.Project{{ID: 1, Name: "visible"}}, nil
			},
		}
		server := newTestServer(t, nil, nil, nil, trackerSvc)

		rec, resp := postJSON(t, server.Router(), "/project/filter", map[string]any{
			"session_key": "valid-key",
			"page":        2,
			"size":        10,
		})

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, resp.Status)
		require.NotNil(t, resp.Data)
	})

	t.Run("storage failure is a generic internal error", func(t *testing.T) {
		trackerSvc := &fakeTrackerService{
			filterProjectsFn: func(_ context.Context, _ int, _ tracker.ProjectFilter) ([]*tracker.Project, error) {
				return nil, oops.Code("PROJECT_FILTER_FAILED").Wrap(errors.New("connection refused"))
			},
		}
		server := newTestServer(t, nil, nil, nil, trackerSvc)

		rec, resp := postJSON(t, server.Router(), "/project/filter", map[string]any{
			"session_key": "valid-key",
		})

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.False(t, resp.Status)
		assert.NotContains(t, resp.Msg, "connection refused")
	})
}

func TestHandleTodoEndpoints(t *testing.T) {
	t.Run("take todo already owned", func(t *testing.T) {
		trackerSvc := &fakeTrackerService{
			takeTodoFn: func(_ context.Context, _, _ int) (bool, error) {
				return false, nil
			},
		}
		server := newTestServer(t, nil, nil, nil, trackerSvc)

		rec, resp := postJSON(t, server.Router(), "/todo/take", map[string]any{
			"session_key": "valid-key",
			"todo_id":     3,
		})

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.False(t, resp.Status)
	})

	t.Run("finish todo succeeds", func(t *testing.T) {
		trackerSvc := &fakeTrackerService{
			finishTodoFn: func(_ context.Context, _, todoID int) (bool, error) {
				assert.Equal(t, 3, todoID)
				return true, nil
			},
		}
		server := newTestServer(t, nil, nil, nil, trackerSvc)

		rec, resp := postJSON(t, server.Router(), "/todo/finish", map[string]any{
			"session_key": "valid-key",
			"todo_id":     3,
		})

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, resp.Status)
	})

	t.Run("filter todos forwards optional fields", func(t *testing.T) {
		trackerSvc := &fakeTrackerService{
			filterTodosFn: func(_ context.Context, _ int, filter tracker.TodoFilter) ([]*tracker.Todo, error) {
				require.NotNil(t, filter.ProjectID)
				assert.Equal(t, 7, *filter.ProjectID)
				return nil, nil
			},
		}
		server := newTestServer(t, nil, nil, nil, trackerSvc)

		rec, resp := postJSON(t, server.Router(), "/todo/filter", map[string]any{
			"session_key": "valid-key",
			"project_id":  7,
		})

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, resp.Status)
	})

	t.Run("filter todos forwards content and schedule fields", func(t *testing.T) {
		startline := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
		endline := startline.Add(48 * time.Hour)
		trackerSvc := &fakeTrackerService{
			filterTodosFn: func(_ context.Context, _ int, filter tracker.TodoFilter) ([]*tracker.Todo, error) {
				require.NotNil(t, filter.Content)
				assert.Equal(t, "weekly report", *filter.Content)
				require.NotNil(t, filter.Description)
				assert.Equal(t, "numbers for Q1", *filter.Description)
				require.NotNil(t, filter.Startline)
				assert.True(t, startline.Equal(*filter.Startline))
				require.NotNil(t, filter.Endline)
				assert.True(t, endline.Equal(*filter.Endline))
				return nil, nil
			},
		}
		server := newTestServer(t, nil, nil, nil, trackerSvc)

		rec, resp := postJSON(t, server.Router(), "/todo/filter", map[string]any{
			"session_key": "valid-key",
			"content":     "weekly report",
			"description": "numbers for Q1",
			"start_line":  startline,
			"end_line":    endline,
		})

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, resp.Status)
	})

	t.Run("new todo requires a name", func(t *testing.T) {
		server := newTestServer(t, nil, nil, nil, nil)

		rec, resp := postJSON(t, server.Router(), "/todo/new", map[string]any{
			"session_key": "valid-key",
		})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "name is required", resp.Msg)
	})
}

func TestRequestIDHeader(t *testing.T) {
	server := newTestServer(t, nil, nil, nil, nil)

	rec, _ := postJSON(t, server.Router(), "/session", map[string]string{
		"session_key": "valid-key",
	})

	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}
