package validation

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestSanitizeString(t *testing.T) {
	tests := []struct {
		input    string
		maxLen   int
		expected string
	}{
		{"hello", 10, "hello"},
		{"  hello  ", 10, "hello"},
		{"hello world", 5, "hello"},
		{"hello\x00world", 20, "helloworld"},
	}

	for _, tc := range tests {
		result := SanitizeString(tc.input, tc.maxLen)
		if result != tc.expected {
			t.Errorf("SanitizeString(%q, %d) = %q, want %q", tc.input, tc.maxLen, result, tc.expected)
		}
	}
}

func TestValidate(t *testing.T) {
	// Test valid input
	errors := Validate(
		MaxLength("case_id", "CASE-2026-0042", MaxCaseIDLength),
		MaxLength("sector", "banking", MaxSectorLength),
	)
	if len(errors) != 0 {
		t.Errorf("Expected no errors, got %v", errors)
	}

	// Test invalid input
	errors = Validate(
		MaxLength("case_id", string(make([]byte, MaxCaseIDLength+1)), MaxCaseIDLength),
		MaxLength("sector", string(make([]byte, MaxSectorLength+1)), MaxSectorLength),
	)
	if len(errors) != 2 {
		t.Errorf("Expected 2 errors, got %d", len(errors))
	}
	if errors.Error() != "case_id: exceeds maximum length" {
		t.Errorf("Error() = %q, want first failure", errors.Error())
	}
}

func TestMaxLength(t *testing.T) {
	// Under limit
	err := MaxLength("field", "hello", 10)()
	if err != nil {
		t.Error("Expected no error for string under limit")
	}

	// At limit
	err = MaxLength("field", "hello", 5)()
	if err != nil {
		t.Error("Expected no error for string at limit")
	}

	// Over limit
	err = MaxLength("field", "hello world", 5)()
	if err == nil {
		t.Error("Expected error for string over limit")
	}
}

func TestKeyParamMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.GET("/fingerprints/:key", KeyParamMiddleware(), func(c *gin.Context) {
		c.String(200, "ok")
	})

	tests := []struct {
		key  string
		want int
	}{
		{"0123456789abcdef0123456789abcdef", http.StatusOK},
		{"0123456789ABCDEF0123456789ABCDEF", http.StatusBadRequest}, // uppercase
		{"0123456789abcdef", http.StatusBadRequest},                 // too short
		{"zzzz567890abcdef0123456789abcdef", http.StatusBadRequest}, // non-hex
	}

	for _, tc := range tests {
		req := httptest.NewRequest("GET", "/fingerprints/"+tc.key, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != tc.want {
			t.Errorf("key %q: status = %d, want %d", tc.key, w.Code, tc.want)
		}
	}
}
