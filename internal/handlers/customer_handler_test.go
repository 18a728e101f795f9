package handlers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/apexmach/erp-api/internal/models"
	"github.com/apexmach/erp-api/internal/repository"
	"github.com/apexmach/erp-api/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type stubCustomerRepository struct {
	repository.CustomerRepository
	created *models.Customer
}

func (r *stubCustomerRepository) MaxCodeForPrefix(ctx context.Context, prefix string) (string, error) {
	return "", nil
}

func (r *stubCustomerRepository) Create(ctx context.Context, customer *models.Customer) error {
	customer.ID = 1
	r.created = customer
	return nil
}

func newCustomerTestRouter(repo *stubCustomerRepository) *gin.Engine {
	gin.SetMode(gin.TestMode)

	salesService := services.NewSalesService(repo, nil, nil, nil, nil, nil, nil)
	handler := NewCustomerHandler(salesService)

	router := gin.New()
	router.POST("/customers", handler.Create)
	return router
}

func TestCreateCustomerBindsNestedBody(t *testing.T) {
	repo := &stubCustomerRepository{}
	router := newCustomerTestRouter(repo)

	body := `{"customer": {"name": "苏州精密电子", "contact_name": "王工", "level": "A"}}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/customers", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	if assert.NotNil(t, repo.created) {
		assert.Equal(t, "苏州精密电子", repo.created.Name)
		assert.Equal(t, "王工", repo.created.ContactName)
		assert.Equal(t, models.CustomerLevelA, repo.created.Level)
	}
	assert.Contains(t, w.Body.String(), "苏州精密电子")
}

func TestCreateCustomerBindsFlatBody(t *testing.T) {
	repo := &stubCustomerRepository{}
	router := newCustomerTestRouter(repo)

	body := `{"name": "东莞智造装备", "industry": "3C"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/customers", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	if assert.NotNil(t, repo.created) {
		assert.Equal(t, "东莞智造装备", repo.created.Name)
		assert.Equal(t, models.CustomerLevelC, repo.created.Level)
	}
}
