package handlers_test

import (
	"net/http"
	"net/url"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func TestEquipmentQueryValidation(t *testing.T) {
	app, _, _ := newApp(t)
	for _, q := range []string{
		"/api/v1/equipment?q=" + url.QueryEscape("<script>"),
		"/api/v1/equipment?type=" + url.QueryEscape("../etc"),
		"/api/v1/equipment?status=lost",
	} {
		if code, _ := call(t, app, http.MethodGet, q, "", nil); code != fiber.StatusBadRequest {
			t.Fatalf("%s: want 400, got %d", q, code)
		}
	}

	code, out := call(t, app, http.MethodGet, "/api/v1/equipment?type=camera&status=ready", "", nil)
	if code != fiber.StatusOK || out["count"] != float64(2) {
		t.Fatalf("want both ready cameras, got %d %v", code, out)
	}
	if code, _ = call(t, app, http.MethodGet, "/api/v1/equipment/eq-nope", "", nil); code != fiber.StatusNotFound {
		t.Fatalf("unknown equipment: want 404, got %d", code)
	}
}

func TestLoanInputValidation(t *testing.T) {
	app, _, _ := newApp(t)
	student := login(t, app, "student@equiploan.test")

	cases := []struct {
		name string
		body map[string]string
		code int
	}{
		{"missing equipment", map[string]string{"end_date": "2030-01-08", "return_time": "15:00"}, fiber.StatusBadRequest},
		{"bad date", map[string]string{"equipment_id": "eq-cam-1", "end_date": "08/01/2030", "return_time": "15:00"}, fiber.StatusBadRequest},
		{"missing return time", map[string]string{"equipment_id": "eq-cam-1", "end_date": "2030-01-08"}, fiber.StatusBadRequest},
		{"end before start", map[string]string{"equipment_id": "eq-cam-1", "start_date": "2030-01-07", "start_time": "10:00", "end_date": "2030-01-06", "return_time": "15:00"}, fiber.StatusBadRequest},
		{"past start", map[string]string{"equipment_id": "eq-cam-1", "start_date": "2019-01-01", "start_time": "03:00", "end_date": "2019-01-01", "return_time": "04:00"}, fiber.StatusBadRequest},
		{"return after closing", map[string]string{"equipment_id": "eq-cam-1", "end_date": "2030-01-08", "return_time": "23:00"}, fiber.StatusBadRequest},
		{"maintenance item", map[string]string{"equipment_id": "eq-mic-1", "end_date": "2030-01-08", "return_time": "15:00"}, fiber.StatusConflict},
	}
	for _, c := range cases {
		code, out := call(t, app, http.MethodPost, "/api/v1/loans", student, c.body)
		if code != c.code {
			t.Fatalf("%s: want %d, got %d %v", c.name, c.code, code, out)
		}
		if out["error"] == nil {
			t.Fatalf("%s: want an error message", c.name)
		}
	}
}

func TestCancelOthersReservationForbidden(t *testing.T) {
	app, _, _ := newApp(t)
	student := login(t, app, "student@equiploan.test")
	other := login(t, app, "student2@equiploan.test")

	code, out := call(t, app, http.MethodPost, "/api/v1/reservations", student, map[string]string{
		"equipment_id": "eq-tripod-1", "start_date": "2030-01-08", "pickup_time": "10:00",
		"end_date": "2030-01-09", "return_time": "15:00",
	})
	if code != fiber.StatusCreated {
		t.Fatalf("reserve: %d %v", code, out)
	}
	id := out["id"].(string)

	if code, _ = call(t, app, http.MethodPost, "/api/v1/reservations/"+id+"/cancel", other, nil); code != fiber.StatusForbidden {
		t.Fatalf("foreign cancel: want 403, got %d", code)
	}
	if code, _ = call(t, app, http.MethodPost, "/api/v1/reservations/"+id+"/cancel", student, nil); code != fiber.StatusOK {
		t.Fatalf("own cancel: want 200, got %d", code)
	}
}

func TestReservationWindowRules(t *testing.T) {
	app, _, _ := newApp(t)
	student := login(t, app, "student@equiploan.test")

	for _, c := range []struct {
		name, field string
		body        map[string]string
	}{
		{"past start", "StartDate", map[string]string{"start_date": "2019-01-01", "pickup_time": "10:00", "end_date": "2019-01-02", "return_time": "10:00"}},
		{"beyond horizon", "StartDate", map[string]string{"start_date": "2031-06-01", "pickup_time": "10:00", "end_date": "2031-06-02", "return_time": "10:00"}},
		{"pickup at night", "PickupTime", map[string]string{"start_date": "2030-01-08", "pickup_time": "23:00", "end_date": "2030-01-09", "return_time": "10:00"}},
		{"return in break", "ReturnTime", map[string]string{"start_date": "2030-01-08", "pickup_time": "10:00", "end_date": "2030-01-09", "return_time": "12:30"}},
	} {
		c.body["equipment_id"] = "eq-tripod-1"
		code, out := call(t, app, http.MethodPost, "/api/v1/reservations", student, c.body)
		if code != fiber.StatusBadRequest || out["field"] != c.field {
			t.Fatalf("%s: want 400 on %s, got %d %v", c.name, c.field, code, out)
		}
	}

	code, out := call(t, app, http.MethodPost, "/api/v1/reservations", student, map[string]string{
		"equipment_id": "eq-tripod-1", "start_date": "2030-01-08", "end_date": "2030-01-09",
	})
	if code != fiber.StatusBadRequest || out["field"] != "start_date" {
		t.Fatalf("times are required: got %d %v", code, out)
	}
}
