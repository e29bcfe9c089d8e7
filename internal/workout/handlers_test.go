package workout

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/pashagolub/pgxmock/v3"
)

func passThrough(c *fiber.Ctx) error { return c.Next() }

func TestWorkoutHandlersHistory(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`SELECT id, user_id, workout_type, duration`).
		WithArgs("user-1", 5).
		WillReturnRows(pgxmock.NewRows(historyColumns).
			AddRow("w1", "user-1", TypeBoxing, int64(60), 0.0, 0.0, 9.0, 60, 10.0, 70.0, []byte{}, []byte{}, "", time.Now()))

	app := fiber.New()
	RegisterRoutes(app.Group("/workouts"), NewStore(mock, nil), passThrough)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/workouts?user_id=user-1&limit=5", nil))
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("history status: %v %v", resp.StatusCode, err)
	}
	var records []Record
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(records) != 1 || records[0].Punches != 60 {
		t.Fatalf("unexpected records: %+v", records)
	}
}

func TestWorkoutHandlersEmptyHistory(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`SELECT id, user_id, workout_type, duration`).
		WithArgs("user-1", defaultHistoryLimit).
		WillReturnRows(pgxmock.NewRows(historyColumns))

	app := fiber.New()
	RegisterRoutes(app.Group("/workouts"), NewStore(mock, nil), passThrough)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/workouts?user_id=user-1", nil))
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("history status: %v", err)
	}
	var records []Record
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil || records == nil {
		t.Fatalf("expected empty list, got %v (%v)", records, err)
	}
}

func TestWorkoutHandlersTotals(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`SELECT COUNT`).
		WithArgs("user-1").
		WillReturnRows(pgxmock.NewRows([]string{"count", "duration", "distance", "punches", "calories"}).
			AddRow(int64(1), int64(60), 0.0, int64(60), 9.0))

	app := fiber.New()
	RegisterRoutes(app.Group("/workouts"), NewStore(mock, nil), passThrough)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/workouts/totals?user_id=user-1", nil))
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("totals status: %v", err)
	}
	var totals Totals
	if err := json.NewDecoder(resp.Body).Decode(&totals); err != nil || totals.Punches != 60 {
		t.Fatalf("unexpected totals %+v (%v)", totals, err)
	}
}

func TestWorkoutHandlersErrors(t *testing.T) {
	mock := newMock(t)
	app := fiber.New()
	RegisterRoutes(app.Group("/workouts"), NewStore(mock, nil), passThrough)

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/workouts", nil))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected bad request without user, got %d", resp.StatusCode)
	}
	resp, _ = app.Test(httptest.NewRequest(http.MethodGet, "/workouts/totals", nil))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected bad request without user, got %d", resp.StatusCode)
	}

	mock.ExpectQuery(`SELECT COUNT`).WithArgs("user-1").WillReturnError(errWorkout)
	resp, _ = app.Test(httptest.NewRequest(http.MethodGet, "/workouts/totals?user_id=user-1", nil))
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected server error, got %d", resp.StatusCode)
	}
}
