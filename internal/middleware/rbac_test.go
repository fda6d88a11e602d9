package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/regworks/enroll-api/internal/models"
)

func performRBAC(t *testing.T, claims *models.JWTClaims, params gin.Params, allowed ...string) int {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	c.Request = req
	c.Params = params
	if claims != nil {
		c.Set(ContextUserKey, claims)
	}

	handled := false
	RBAC(allowed...)(c)
	if !c.IsAborted() {
		handled = true
	}
	if handled {
		return http.StatusOK
	}
	return w.Code
}

func TestRBACAllowsRole(t *testing.T) {
	code := performRBAC(t, &models.JWTClaims{UserID: 1, Role: models.RoleRegistrar}, nil, "REGISTRAR")
	assert.Equal(t, http.StatusOK, code)
}

func TestRBACDeniesWrongRole(t *testing.T) {
	code := performRBAC(t, &models.JWTClaims{UserID: 1, Role: models.RoleStudent}, nil, "REGISTRAR")
	assert.Equal(t, http.StatusForbidden, code)
}

func TestRBACDeniesMissingClaims(t *testing.T) {
	code := performRBAC(t, nil, nil, "REGISTRAR")
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestRBACSelfMatchesRouteParam(t *testing.T) {
	params := gin.Params{{Key: "student_id", Value: "7"}}

	code := performRBAC(t, &models.JWTClaims{UserID: 7, Role: models.RoleStudent}, params, "REGISTRAR", "SELF")
	assert.Equal(t, http.StatusOK, code)

	code = performRBAC(t, &models.JWTClaims{UserID: 8, Role: models.RoleStudent}, params, "REGISTRAR", "SELF")
	assert.Equal(t, http.StatusForbidden, code)
}
