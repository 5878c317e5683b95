package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/okian/depthchart/internal/adapters/http/api"
	"github.com/okian/depthchart/internal/adapters/repository"
	"github.com/okian/depthchart/internal/domain/depthchart"
	"github.com/okian/depthchart/internal/domain/model"
	"github.com/okian/depthchart/internal/domain/roster"
	"github.com/okian/depthchart/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

type mockDependencies struct {
	added     []model.Player
	removed   []model.Identity
	underArgs []model.Identity

	chart    []model.Player
	under    []model.Player
	addErr   error
	chartErr error
	underErr error
	rmErr    error
}

func (m *mockDependencies) AddPlayer(ctx context.Context, p model.Player) (model.Player, error) {
	if m.addErr != nil {
		return model.Player{}, m.addErr
	}
	m.added = append(m.added, p)
	if p.Depth == nil {
		p.Depth = model.DepthOf(model.UnrankedDepth)
	}
	p.Sequence = int64(len(m.added))
	return p, nil
}

func (m *mockDependencies) GetChart(ctx context.Context) ([]model.Player, error) {
	return m.chart, m.chartErr
}

func (m *mockDependencies) GetPlayersUnder(ctx context.Context, id model.Identity) ([]model.Player, error) {
	m.underArgs = append(m.underArgs, id)
	return m.under, m.underErr
}

func (m *mockDependencies) RemovePlayer(ctx context.Context, id model.Identity) error {
	m.removed = append(m.removed, id)
	return m.rmErr
}

type mockStatsProvider struct {
	stats map[string]interface{}
}

func (m *mockStatsProvider) GetStats() map[string]interface{} {
	return m.stats
}

type denyAll struct{}

func (denyAll) Allow(string) bool { return false }

func newMux(deps api.Dependencies, opts ...api.ServerOption) (*api.Server, http.Handler) {
	server := api.NewServer(deps, &mockStatsProvider{stats: map[string]interface{}{"started": true}}, opts...)
	mux := http.NewServeMux()
	server.Register(context.Background(), mux)
	return server, server.Handler(mux)
}

func do(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeError(w *httptest.ResponseRecorder) map[string]interface{} {
	var body map[string]interface{}
	So(json.Unmarshal(w.Body.Bytes(), &body), ShouldBeNil)
	return body
}

func TestServer_Register(t *testing.T) {
	Convey("Given a registered API server", t, func() {
		_, h := newMux(&mockDependencies{})

		Convey("Then the health endpoint serves metrics", func() {
			w := do(h, http.MethodGet, "/healthz", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "depthchart_service_")
		})

		Convey("And the stats endpoint serves JSON", func() {
			w := do(h, http.MethodGet, "/stats", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Content-Type"), ShouldStartWith, "application/json")
			So(w.Body.String(), ShouldContainSubstring, `"started":true`)
		})

		Convey("And the dashboard serves HTML", func() {
			w := do(h, http.MethodGet, "/dashboard", "")
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Header().Get("Content-Type"), ShouldStartWith, "text/html")
			So(w.Body.String(), ShouldContainSubstring, "Depth Chart")
		})

		Convey("And every response carries a request id", func() {
			w := do(h, http.MethodGet, "/depthchart", "")
			So(w.Header().Get(api.RequestIDHeader), ShouldNotBeEmpty)
		})

		Convey("And a client supplied request id is echoed", func() {
			req := httptest.NewRequest(http.MethodGet, "/depthchart", nil)
			req.Header.Set(api.RequestIDHeader, "abc-123")
			w := httptest.NewRecorder()
			h.ServeHTTP(w, req)
			So(w.Header().Get(api.RequestIDHeader), ShouldEqual, "abc-123")
		})

		Convey("And wrong methods are rejected", func() {
			w := do(h, http.MethodPut, "/depthchart", "{}")
			So(w.Code, ShouldEqual, http.StatusMethodNotAllowed)
		})
	})
}

func TestDepthChartHandler_AddPlayer(t *testing.T) {
	Convey("Given the add player route", t, func() {
		deps := &mockDependencies{}
		_, h := newMux(deps)

		Convey("When posting a valid player without depth", func() {
			w := do(h, http.MethodPost, "/depthchart", `{"id":1,"name":"Bob","position":"WR","gameName":"NFL"}`)

			Convey("Then it is created and returned normalized", func() {
				So(w.Code, ShouldEqual, http.StatusCreated)
				So(deps.added, ShouldHaveLength, 1)
				So(deps.added[0].Depth, ShouldBeNil)

				var p model.Player
				So(json.Unmarshal(w.Body.Bytes(), &p), ShouldBeNil)
				So(p.ID, ShouldEqual, 1)
				So(p.Rank(), ShouldEqual, model.UnrankedDepth)
				So(w.Body.String(), ShouldNotContainSubstring, "sequence")
			})
		})

		Convey("When the body is not JSON", func() {
			w := do(h, http.MethodPost, "/depthchart", `{"id":`)

			Convey("Then it is a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(decodeError(w)["code"], ShouldEqual, "bad_request")
				So(deps.added, ShouldBeEmpty)
			})
		})

		Convey("When the body has unknown fields", func() {
			w := do(h, http.MethodPost, "/depthchart", `{"id":1,"sequence":5}`)

			Convey("Then it is a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When validation fails", func() {
			deps.addErr = &roster.ValidationError{Violations: []roster.Violation{
				{Field: "name", Message: "'Name' must not be empty."},
				{Field: "position", Message: "Either the Game or the position QB is not supported for NHL"},
			}}
			w := do(h, http.MethodPost, "/depthchart", `{"id":1,"position":"QB","gameName":"NHL"}`)

			Convey("Then every violation is listed", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				body := decodeError(w)
				So(body["code"], ShouldEqual, "validation_failed")
				So(body["errors"], ShouldResemble, []interface{}{
					"'Name' must not be empty.",
					"Either the Game or the position QB is not supported for NHL",
				})
			})
		})

		Convey("When the player already exists", func() {
			deps.addErr = fmt.Errorf("%w: NFL/WR/1", repository.ErrDuplicatePlayer)
			w := do(h, http.MethodPost, "/depthchart", `{"id":1,"name":"Bob","position":"WR","gameName":"NFL"}`)

			Convey("Then it is a conflict", func() {
				So(w.Code, ShouldEqual, http.StatusConflict)
				So(decodeError(w)["code"], ShouldEqual, "duplicate")
			})
		})

		Convey("When the service fails unexpectedly", func() {
			deps.addErr = errors.New("disk on fire")
			w := do(h, http.MethodPost, "/depthchart", `{"id":1,"name":"Bob","position":"WR","gameName":"NFL"}`)

			Convey("Then a generic message is returned", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
				So(decodeError(w)["message"], ShouldEqual, "Api request failed")
				So(w.Body.String(), ShouldNotContainSubstring, "disk on fire")
			})
		})
	})
}

func TestDepthChartHandler_GetChart(t *testing.T) {
	Convey("Given the chart route", t, func() {
		deps := &mockDependencies{}
		_, h := newMux(deps)

		Convey("When the chart is empty", func() {
			deps.chart = []model.Player{}
			w := do(h, http.MethodGet, "/depthchart", "")

			Convey("Then an empty array is returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(strings.TrimSpace(w.Body.String()), ShouldEqual, "[]")
			})
		})

		Convey("When the chart has players", func() {
			deps.chart = []model.Player{
				{ID: 2, Name: "Alice", Position: "WR", GameName: "NFL", Depth: model.DepthOf(0), Sequence: 2},
				{ID: 1, Name: "Bob", Position: "WR", GameName: "NFL", Depth: model.DepthOf(0), Sequence: 1},
			}
			w := do(h, http.MethodGet, "/depthchart", "")

			Convey("Then they are returned in order", func() {
				var got []model.Player
				So(json.Unmarshal(w.Body.Bytes(), &got), ShouldBeNil)
				So(got, ShouldHaveLength, 2)
				So(got[0].ID, ShouldEqual, 2)
				So(got[1].ID, ShouldEqual, 1)
			})
		})

		Convey("When the store fails", func() {
			deps.chartErr = errors.New("boom")
			w := do(h, http.MethodGet, "/depthchart", "")

			Convey("Then it is an internal error", func() {
				So(w.Code, ShouldEqual, http.StatusInternalServerError)
			})
		})
	})
}

func TestDepthChartHandler_GetPlayersUnder(t *testing.T) {
	Convey("Given the players under route", t, func() {
		deps := &mockDependencies{}
		_, h := newMux(deps)

		Convey("When the player exists", func() {
			deps.under = []model.Player{{ID: 3, Name: "Charlie", Position: "WR", GameName: "NFL", Depth: model.DepthOf(2)}}
			w := do(h, http.MethodGet, "/depthchart/NFL/WR/1", "")

			Convey("Then path values reach the service", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.underArgs, ShouldResemble, []model.Identity{{ID: 1, Position: "WR", GameName: "NFL"}})
				So(w.Body.String(), ShouldContainSubstring, `"name":"Charlie"`)
			})
		})

		Convey("When the root alias is used", func() {
			w := do(h, http.MethodGet, "/NHL/G/4", "")

			Convey("Then it reaches the same handler", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(deps.underArgs, ShouldResemble, []model.Identity{{ID: 4, Position: "G", GameName: "NHL"}})
			})
		})

		Convey("When the player id is not a number", func() {
			w := do(h, http.MethodGet, "/depthchart/NFL/WR/abc", "")

			Convey("Then it is a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(deps.underArgs, ShouldBeEmpty)
			})
		})

		Convey("When the player is unknown", func() {
			deps.underErr = fmt.Errorf("%w: NFL/WR/9", depthchart.ErrPlayerNotFound)
			w := do(h, http.MethodGet, "/depthchart/NFL/WR/9", "")

			Convey("Then it is not found with the fixed message", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
				So(decodeError(w)["message"], ShouldEqual, "Player not found with the specified position in the game")
			})
		})
	})
}

func TestDepthChartHandler_RemovePlayer(t *testing.T) {
	Convey("Given the remove route", t, func() {
		deps := &mockDependencies{}
		_, h := newMux(deps)

		Convey("When removing an existing player", func() {
			w := do(h, http.MethodDelete, "/depthchart/player", `{"id":2,"position":"WR","gameName":"NFL"}`)

			Convey("Then no content is returned", func() {
				So(w.Code, ShouldEqual, http.StatusNoContent)
				So(w.Body.Len(), ShouldEqual, 0)
				So(deps.removed, ShouldResemble, []model.Identity{{ID: 2, Position: "WR", GameName: "NFL"}})
			})
		})

		Convey("When the player is unknown", func() {
			deps.rmErr = fmt.Errorf("%w: NFL/WR/2", depthchart.ErrPlayerNotFound)
			w := do(h, http.MethodDelete, "/depthchart/player", `{"id":2,"position":"WR","gameName":"NFL"}`)

			Convey("Then it is not found", func() {
				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When the root alias is used", func() {
			w := do(h, http.MethodDelete, "/player", `{"id":5,"position":"QB","gameName":"NFL"}`)

			Convey("Then the player is removed", func() {
				So(w.Code, ShouldEqual, http.StatusNoContent)
				So(deps.removed, ShouldResemble, []model.Identity{{ID: 5, Position: "QB", GameName: "NFL"}})
			})
		})

		Convey("When the body is missing", func() {
			w := do(h, http.MethodDelete, "/depthchart/player", "")

			Convey("Then it is a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})
	})
}

func TestServer_RateLimit(t *testing.T) {
	Convey("Given a server whose limiter refuses everything", t, func() {
		deps := &mockDependencies{}
		_, h := newMux(deps, api.WithRateLimiter(denyAll{}, nil))

		Convey("When posting a player", func() {
			w := do(h, http.MethodPost, "/depthchart", `{"id":1,"name":"Bob","position":"WR","gameName":"NFL"}`)

			Convey("Then the request is rejected before the service", func() {
				So(w.Code, ShouldEqual, http.StatusTooManyRequests)
				So(w.Header().Get("Retry-After"), ShouldEqual, "1")
				So(deps.added, ShouldBeEmpty)
			})
		})

		Convey("When reading the chart", func() {
			w := do(h, http.MethodGet, "/depthchart", "")

			Convey("Then reads are not limited", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
			})
		})
	})
}
