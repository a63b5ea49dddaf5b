package httpserver

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"

	"kitly/internal/billing"
	"kitly/internal/domain"
	"kitly/internal/inventory"
	"kitly/internal/platform"
	"kitly/internal/pricing"
	bundlesvc "kitly/internal/service/bundle"
)

const testSecret = "webhook-and-session-secret"

type stubBundles struct {
	created        *domain.Bundle
	createWarnings []string
	createErr      error
	updateErr      error
	uninstalled    []string
	uninstallErr   error
	listActive     []domain.Bundle
}

func (s *stubBundles) Create(_ context.Context, _ platform.Session, _ bundlesvc.CreateInput) (*domain.Bundle, []string, error) {
	if s.createErr != nil {
		return nil, nil, s.createErr
	}
	return s.created, s.createWarnings, nil
}

func (s *stubBundles) Update(_ context.Context, _ platform.Session, _ string, _ bundlesvc.UpdateInput) (*domain.Bundle, []string, error) {
	return nil, nil, s.updateErr
}

func (s *stubBundles) Delete(_ context.Context, _ platform.Session, _ string) ([]string, error) {
	return nil, nil
}

func (s *stubBundles) SetStatus(_ context.Context, _ platform.Session, _ string, _ domain.BundleStatus) (*domain.Bundle, []inventory.Unavailable, error) {
	return nil, nil, domain.ErrNotFound
}

func (s *stubBundles) Get(_ context.Context, _ platform.Session, _ string) (*domain.Bundle, error) {
	return nil, domain.ErrNotFound
}

func (s *stubBundles) List(_ context.Context, _ platform.Session) ([]domain.Bundle, error) {
	return nil, nil
}

func (s *stubBundles) ListActive(_ context.Context, _ string) ([]domain.Bundle, error) {
	return s.listActive, nil
}

func (s *stubBundles) Price(products []domain.BundleProduct, dt domain.DiscountType, dv decimal.Decimal) (domain.PriceBreakdown, error) {
	return pricing.Compute(products, dt, dv)
}

func (s *stubBundles) Uninstall(_ context.Context, shop string) error {
	s.uninstalled = append(s.uninstalled, shop)
	return s.uninstallErr
}

type stubGate struct {
	state billing.State
	err   error
}

func (s *stubGate) Ensure(_ context.Context, _ platform.Session) (billing.State, error) {
	return s.state, s.err
}

type stubShops struct {
	shop *domain.Shop
}

func (s *stubShops) GetByDomain(_ context.Context, d string) (*domain.Shop, error) {
	if s.shop == nil || s.shop.Domain != d {
		return nil, domain.ErrNotFound
	}
	return s.shop, nil
}

func testRouter(t *testing.T, b *stubBundles, gate *stubGate, shops *stubShops) *gin.Engine {
	t.Helper()
	logger := log.New(io.Discard, "", 0)
	router, err := buildRouter(logger, nil, Deps{
		Bundles:   b,
		Gate:      gate,
		Shops:     shops,
		APISecret: testSecret,
	})
	if err != nil {
		t.Fatalf("buildRouter: %v", err)
	}
	return router
}

func sessionToken(t *testing.T) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"dest": "https://s.example.com",
		"exp":  time.Now().Add(time.Minute).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func installedShops() *stubShops {
	return &stubShops{shop: &domain.Shop{Domain: "s.example.com", AccessToken: "tok"}}
}

func TestBundlePriceEndpoint(t *testing.T) {
	router := testRouter(t, &stubBundles{}, &stubGate{}, installedShops())

	body := `{"products":[{"product_id":"1","price":"10.00","quantity":2}],"discount_type":"percentage","discount_value":20}`
	req := httptest.NewRequest(http.MethodPost, "/bundle-price", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d body %s", rec.Code, rec.Body.String())
	}
	var resp priceResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.OriginalPrice != "20.00" || resp.DiscountAmount != "4.00" || resp.FinalPrice != "16.00" {
		t.Fatalf("unexpected breakdown %+v", resp)
	}
}

func TestBundlePriceEndpoint_InvalidDiscountIs400(t *testing.T) {
	router := testRouter(t, &stubBundles{}, &stubGate{}, installedShops())

	body := `{"products":[{"product_id":"1","price":"10.00","quantity":1}],"discount_type":"mystery","discount_value":5}`
	req := httptest.NewRequest(http.MethodPost, "/bundle-price", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d body %s", rec.Code, rec.Body.String())
	}
}

func TestMutationWithoutSessionIs401(t *testing.T) {
	router := testRouter(t, &stubBundles{}, &stubGate{}, installedShops())

	req := httptest.NewRequest(http.MethodPost, "/api/bundles", bytes.NewBufferString(`{}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status %d", rec.Code)
	}
}

func TestMutationWithoutSubscriptionIs402(t *testing.T) {
	gate := &stubGate{
		state: billing.State{ConfirmationURL: "https://s.example.com/confirm/1"},
		err:   domain.ErrSubscriptionRequired,
	}
	router := testRouter(t, &stubBundles{}, gate, installedShops())

	body := `{"title":"Kit","products":[{"product_id":"1","price":"5.00","quantity":1}],"discount_type":"percentage","discount_value":10}`
	req := httptest.NewRequest(http.MethodPost, "/api/bundles", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+sessionToken(t))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusPaymentRequired {
		t.Fatalf("status %d body %s", rec.Code, rec.Body.String())
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["confirmation_url"] != "https://s.example.com/confirm/1" {
		t.Fatalf("402 body must carry confirmation url, got %v", resp)
	}
}

func TestCreateBundle_PartialSuccessCarriesWarnings(t *testing.T) {
	b := &stubBundles{
		created: &domain.Bundle{
			ID:            "b-1",
			Title:         "Kit",
			DiscountType:  domain.DiscountPercentage,
			DiscountValue: decimal.NewFromInt(10),
			Status:        domain.StatusDraft,
			Version:       1,
		},
		createWarnings: []string{"discount rule was not synced to the platform: boom"},
	}
	router := testRouter(t, b, &stubGate{state: billing.State{Active: true}}, installedShops())

	body := `{"title":"Kit","products":[{"product_id":"1","price":"5.00","quantity":1}],"discount_type":"percentage","discount_value":10}`
	req := httptest.NewRequest(http.MethodPost, "/api/bundles", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+sessionToken(t))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("partial success must still be 201, got %d body %s", rec.Code, rec.Body.String())
	}
	var resp bundleResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Warnings) != 1 {
		t.Fatalf("warnings missing from response: %+v", resp)
	}
}

func TestUpdateBundle_StaleVersionIs409(t *testing.T) {
	b := &stubBundles{updateErr: domain.ErrVersionConflict}
	router := testRouter(t, b, &stubGate{state: billing.State{Active: true}}, installedShops())

	body := `{"title":"Kit","products":[{"product_id":"1","price":"5.00","quantity":1}],"discount_type":"percentage","discount_value":10,"version":1}`
	req := httptest.NewRequest(http.MethodPut, "/api/bundles/b-1", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+sessionToken(t))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status %d body %s", rec.Code, rec.Body.String())
	}
}

func signBody(body []byte) string {
	mac := hmac.New(sha256.New, []byte(testSecret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func TestUninstallWebhook_ReplayedTwiceSucceeds(t *testing.T) {
	b := &stubBundles{}
	router := testRouter(t, b, &stubGate{}, installedShops())

	body := []byte(`{}`)
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/webhooks/app/uninstalled", bytes.NewReader(body))
		req.Header.Set(shopDomainHeader, "s.example.com")
		req.Header.Set(hmacHeader, signBody(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("replay %d: status %d body %s", i, rec.Code, rec.Body.String())
		}
	}
	if len(b.uninstalled) != 2 {
		t.Fatalf("expected both deliveries handled, got %v", b.uninstalled)
	}
}

func TestUninstallWebhook_BadSignatureIs401(t *testing.T) {
	b := &stubBundles{}
	router := testRouter(t, b, &stubGate{}, installedShops())

	req := httptest.NewRequest(http.MethodPost, "/api/webhooks/app/uninstalled", bytes.NewBufferString(`{}`))
	req.Header.Set(shopDomainHeader, "s.example.com")
	req.Header.Set(hmacHeader, "not-a-signature")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status %d", rec.Code)
	}
	if len(b.uninstalled) != 0 {
		t.Fatal("unsigned webhook must not trigger teardown")
	}
}

func TestStorefrontBundleData(t *testing.T) {
	b := &stubBundles{listActive: []domain.Bundle{{
		ID:            "b-1",
		Title:         "Kit",
		DiscountType:  domain.DiscountPercentage,
		DiscountValue: decimal.NewFromInt(15),
		Status:        domain.StatusActive,
		Version:       2,
	}}}
	router := testRouter(t, b, &stubGate{}, installedShops())

	req := httptest.NewRequest(http.MethodGet, "/bundle-data?shop=s.example.com", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var resp struct {
		Bundles []bundleView `json:"bundles"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Bundles) != 1 || resp.Bundles[0].DiscountValue != "15.00" {
		t.Fatalf("unexpected storefront payload %+v", resp)
	}

	req = httptest.NewRequest(http.MethodGet, "/bundle-data", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing shop param must be 400, got %d", rec.Code)
	}
}
