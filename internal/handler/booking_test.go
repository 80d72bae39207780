package handler

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/nightclub-reservation/internal/config"
	"github.com/iliyamo/nightclub-reservation/internal/model"
	"github.com/iliyamo/nightclub-reservation/internal/payment"
	"github.com/iliyamo/nightclub-reservation/internal/repository"
	"github.com/iliyamo/nightclub-reservation/internal/service"
)

type bookingEnv struct {
	e            *echo.Echo
	reservations *memReservations
	gateway      *payment.StubGateway
}

func newBookingEnv() *bookingEnv {
	rules := testRules()
	mesas, products := testCatalog()
	reservations := &memReservations{}
	vip := service.NewVipValidator(&memVipCodes{codes: map[string]*model.VipCode{
		"SUMMER2025": {ID: 1, Code: "SUMMER2025", Active: true},
	}}, rules)
	resolver := service.NewAvailabilityResolver(mesas, reservations, rules)
	wizard := service.NewWizard(service.WizardDeps{
		Drafts:       repository.NewMemoryDraftRepo(0),
		Mesas:        mesas,
		Products:     products,
		Reservations: reservations,
		Resolver:     resolver,
		Vip:          vip,
		Rules:        rules,
	})
	gateway := payment.NewStubGateway()
	checkout := service.NewCheckoutCoordinator(reservations, gateway, config.PaymentConfig{
		Currency:   "mxn",
		SuccessURL: "http://club.test/v1/checkout/verify?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  "http://club.test/",
	}, rules, nil)

	e := echo.New()
	w := &WizardHandler{Wizard: wizard}
	e.POST("/v1/drafts", w.Start)
	e.GET("/v1/drafts/:id", w.Get)
	e.PUT("/v1/drafts/:id/date", w.SelectDate)
	e.PUT("/v1/drafts/:id/mesa", w.SelectMesa)
	e.PUT("/v1/drafts/:id/vip-code", w.ApplyVip)
	e.PUT("/v1/drafts/:id/products", w.SetProducts)
	e.PUT("/v1/drafts/:id/details", w.SetDetails)
	e.POST("/v1/drafts/:id/next", w.Next)
	e.POST("/v1/drafts/:id/back", w.Back)
	e.POST("/v1/drafts/:id/submit", w.Submit)
	e.DELETE("/v1/drafts/:id", w.Abandon)
	r := &ReservationHandler{Coordinator: checkout}
	e.GET("/v1/reservations/:id", r.Get)
	e.POST("/v1/reservations/:id/checkout", r.Checkout)
	e.GET("/v1/checkout/verify", r.Verify)
	c := &CatalogHandler{Mesas: mesas, Products: products, Resolver: resolver, Vip: vip, Rules: rules}
	e.GET("/v1/availability", c.Availability)
	e.GET("/v1/products", c.ListProducts)
	e.POST("/v1/vip-codes/validate", c.ValidateVip)
	return &bookingEnv{e: e, reservations: reservations, gateway: gateway}
}

func (env *bookingEnv) expect(t *testing.T, method, path, body string, status int) map[string]any {
	t.Helper()
	rec := do(t, env.e, method, path, body)
	if rec.Code != status {
		t.Fatalf("%s %s: status %d, want %d (%s)", method, path, rec.Code, status, rec.Body.String())
	}
	if rec.Body.Len() == 0 {
		return nil
	}
	return decode(t, rec)
}

// draftAtProducts walks a new draft to the products step with Silver 1 on
// Thursday 2025-07-03.
func (env *bookingEnv) draftAtProducts(t *testing.T) string {
	t.Helper()
	id := env.expect(t, http.MethodPost, "/v1/drafts", "", http.StatusCreated)["id"].(string)
	env.expect(t, http.MethodPut, "/v1/drafts/"+id+"/date", `{"date":"2025-07-03"}`, http.StatusOK)
	env.expect(t, http.MethodPut, "/v1/drafts/"+id+"/mesa", `{"mesa_id":2}`, http.StatusOK)
	env.expect(t, http.MethodPost, "/v1/drafts/"+id+"/next", "", http.StatusOK)
	return id
}

func TestBookingFlowOverHTTP(t *testing.T) {
	env := newBookingEnv()
	id := env.draftAtProducts(t)

	v := env.expect(t, http.MethodPut, "/v1/drafts/"+id+"/products", `{"items":[{"product_id":1,"quantity":2}]}`, http.StatusOK)
	if v["total_cents"] != float64(360000) || v["sufficient"] != true {
		t.Fatalf("products view = %v", v)
	}
	v = env.expect(t, http.MethodPost, "/v1/drafts/"+id+"/next", "", http.StatusOK)
	if v["step"] != float64(model.StepEnteringDetails) {
		t.Fatalf("step = %v", v["step"])
	}
	env.expect(t, http.MethodPut, "/v1/drafts/"+id+"/details",
		`{"contact_name":"Ana","contact_phone":"555-0101","contact_email":"ana@example.com","time_slot":"23:00","party_size":4}`,
		http.StatusOK)

	out := env.expect(t, http.MethodPost, "/v1/drafts/"+id+"/submit", "", http.StatusCreated)
	if out["step"] != float64(model.StepSubmitted) {
		t.Fatalf("submit step = %v", out["step"])
	}
	res := out["reservation"].(map[string]any)
	if res["total_cents"] != float64(360000) || res["date"] != "2025-07-03" || res["time_slot"] != "23:00" {
		t.Fatalf("reservation = %v", res)
	}
	if items := res["items"].([]any); len(items) != 1 {
		t.Fatalf("items = %v", items)
	}

	// the draft is gone once submitted
	env.expect(t, http.MethodGet, "/v1/drafts/"+id, "", http.StatusNotFound)

	resID := uint64(res["id"].(float64))
	path := fmt.Sprintf("/v1/reservations/%d", resID)
	got := env.expect(t, http.MethodGet, path, "", http.StatusOK)
	if got["payment_status"] != string(model.PaymentUnpaid) {
		t.Fatalf("payment_status = %v", got["payment_status"])
	}

	sess := env.expect(t, http.MethodPost, path+"/checkout", "", http.StatusCreated)
	sid := sess["session_id"].(string)
	if !env.gateway.MarkPaid(sid, "payer@example.com") {
		t.Fatal("stub session missing")
	}
	paid := env.expect(t, http.MethodGet, "/v1/checkout/verify?session_id="+sid, "", http.StatusOK)
	if paid["status"] != string(model.StatusConfirmed) || paid["payment_status"] != string(model.PaymentPaid) {
		t.Fatalf("after verify = %v", paid)
	}
}

func TestWizardErrorsOverHTTP(t *testing.T) {
	env := newBookingEnv()

	t.Run("insufficientConsumption", func(t *testing.T) {
		id := env.draftAtProducts(t)
		body := env.expect(t, http.MethodPost, "/v1/drafts/"+id+"/next", "", http.StatusUnprocessableEntity)
		if body["field"] != "products" {
			t.Fatalf("field = %v", body["field"])
		}
	})

	t.Run("closedNight", func(t *testing.T) {
		id := env.expect(t, http.MethodPost, "/v1/drafts", "", http.StatusCreated)["id"].(string)
		body := env.expect(t, http.MethodPut, "/v1/drafts/"+id+"/date", `{"date":"2025-07-07"}`, http.StatusUnprocessableEntity)
		if body["field"] != "date" {
			t.Fatalf("field = %v", body["field"])
		}
	})

	t.Run("goldWithoutVip", func(t *testing.T) {
		id := env.expect(t, http.MethodPost, "/v1/drafts", "", http.StatusCreated)["id"].(string)
		env.expect(t, http.MethodPut, "/v1/drafts/"+id+"/date", `{"date":"2025-07-04"}`, http.StatusOK)
		body := env.expect(t, http.MethodPut, "/v1/drafts/"+id+"/mesa", `{"mesa_id":1}`, http.StatusUnprocessableEntity)
		if body["field"] != "mesa_id" {
			t.Fatalf("field = %v", body["field"])
		}
		out := env.expect(t, http.MethodPut, "/v1/drafts/"+id+"/vip-code", `{"vip_code":"summer2025"}`, http.StatusOK)
		if vip := out["vip"].(map[string]any); vip["valid"] != true {
			t.Fatalf("vip = %v", vip)
		}
		env.expect(t, http.MethodPut, "/v1/drafts/"+id+"/mesa", `{"mesa_id":1}`, http.StatusOK)
	})

	t.Run("unknownDraft", func(t *testing.T) {
		env.expect(t, http.MethodGet, "/v1/drafts/nope", "", http.StatusNotFound)
	})

	t.Run("missingMesaID", func(t *testing.T) {
		id := env.expect(t, http.MethodPost, "/v1/drafts", "", http.StatusCreated)["id"].(string)
		env.expect(t, http.MethodPut, "/v1/drafts/"+id+"/mesa", `{}`, http.StatusUnprocessableEntity)
	})

	t.Run("abandon", func(t *testing.T) {
		id := env.expect(t, http.MethodPost, "/v1/drafts", "", http.StatusCreated)["id"].(string)
		env.expect(t, http.MethodDelete, "/v1/drafts/"+id, "", http.StatusNoContent)
		env.expect(t, http.MethodGet, "/v1/drafts/"+id, "", http.StatusNotFound)
	})
}

func TestSecondBookingOfSameTableConflicts(t *testing.T) {
	env := newBookingEnv()
	first := env.draftAtProducts(t)
	second := env.draftAtProducts(t)
	for _, id := range []string{first, second} {
		env.expect(t, http.MethodPut, "/v1/drafts/"+id+"/products", `{"items":[{"product_id":2,"quantity":1}]}`, http.StatusOK)
		env.expect(t, http.MethodPost, "/v1/drafts/"+id+"/next", "", http.StatusOK)
		env.expect(t, http.MethodPut, "/v1/drafts/"+id+"/details",
			`{"contact_name":"Luis","contact_phone":"555","contact_email":"luis@example.com"}`, http.StatusOK)
	}
	env.expect(t, http.MethodPost, "/v1/drafts/"+first+"/submit", "", http.StatusCreated)
	env.expect(t, http.MethodPost, "/v1/drafts/"+second+"/submit", "", http.StatusConflict)

	v := env.expect(t, http.MethodGet, "/v1/drafts/"+second, "", http.StatusOK)
	if v["step"] != float64(model.StepSelectingTable) || v["mesa_id"] != nil {
		t.Fatalf("conflicting draft = %v", v)
	}
}

func TestCatalogEndpoints(t *testing.T) {
	env := newBookingEnv()

	body := env.expect(t, http.MethodGet, "/v1/products?category=paquetes", "", http.StatusOK)
	if items := body["items"].([]any); len(items) != 1 {
		t.Fatalf("filtered products = %v", items)
	}

	body = env.expect(t, http.MethodGet, "/v1/availability?date=2025-07-03", "", http.StatusOK)
	bookable := map[float64]bool{}
	for _, it := range body["items"].([]any) {
		m := it.(map[string]any)
		bookable[m["mesa_id"].(float64)] = m["bookable"].(bool)
	}
	if bookable[1] || !bookable[2] || bookable[3] {
		t.Fatalf("bookable = %v", bookable)
	}

	body = env.expect(t, http.MethodGet, "/v1/availability?date=2025-07-03&vip_code=SUMMER2025", "", http.StatusOK)
	if body["vip"] != true {
		t.Fatalf("vip = %v", body["vip"])
	}

	env.expect(t, http.MethodGet, "/v1/availability", "", http.StatusBadRequest)
	env.expect(t, http.MethodGet, "/v1/availability?date=03/07/2025", "", http.StatusUnprocessableEntity)

	body = env.expect(t, http.MethodPost, "/v1/vip-codes/validate", `{"code":"nope"}`, http.StatusOK)
	if body["valid"] != false || body["reason"] != service.VipReasonNotFound {
		t.Fatalf("validate = %v", body)
	}
}
