package req

import (
	"net/http/httptest"
	"strings"
	"testing"

	"workchat/internal/pkg/errs"
)

type bindTarget struct {
	Name string `json:"name"`
}

func TestBindJSON(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        string
		wantCode    int
		wantName    string
	}{
		{"valid body", "application/json", `{"name":"Ana"}`, 0, "Ana"},
		{"charset suffix accepted", "application/json; charset=utf-8", `{"name":"Ana"}`, 0, "Ana"},
		{"wrong content type", "text/plain", `{"name":"Ana"}`, errs.ErrUnsupportedMediaType, ""},
		{"malformed json", "application/json", `{"name":`, errs.ErrInvalidJSONFormat, ""},
		{"unknown field", "application/json", `{"name":"Ana","extra":1}`, errs.ErrInvalidJSONFormat, ""},
		{"trailing content", "application/json", `{"name":"Ana"}{"name":"Eva"}`, errs.ErrExtraContentInBody, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/setname", strings.NewReader(tt.body))
			r.Header.Set("Content-Type", tt.contentType)

			var dst bindTarget
			customErr := BindJSON(r, &dst)

			if tt.wantCode == 0 {
				if customErr != nil {
					t.Fatalf("BindJSON = %v, want nil", customErr)
				}
				if dst.Name != tt.wantName {
					t.Errorf("bound name = %q, want %q", dst.Name, tt.wantName)
				}
				return
			}

			if customErr == nil {
				t.Fatal("BindJSON = nil, want error")
			}
			if customErr.Code != tt.wantCode {
				t.Errorf("error code = %d, want %d", customErr.Code, tt.wantCode)
			}
		})
	}
}
