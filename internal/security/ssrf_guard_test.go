package security

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// TestNewSafeClientTimeout はタイムアウト設定が反映されることをテストする。
func TestNewSafeClientTimeout(t *testing.T) {
	guard := NewSSRFGuard()
	timeout := 5 * time.Second
	client := guard.NewSafeClient(timeout)
	if client == nil {
		t.Fatal("NewSafeClient() returned nil")
	}
	if client.Timeout != timeout {
		t.Errorf("expected timeout %v, got %v", timeout, client.Timeout)
	}
	if client.Transport == nil || client.Transport == http.DefaultTransport {
		t.Fatal("expected custom Transport to be set")
	}
}

// TestNewSafeClientBlocksLoopback はSafeClientがループバックへのリクエストをブロックすることをテストする。
// httptestサーバーは127.0.0.1で起動されるため、safeurlがブロックする。
func TestNewSafeClientBlocksLoopback(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	client := NewSSRFGuard().NewSafeClient(5 * time.Second)

	if _, err := client.Get(ts.URL); err == nil {
		t.Fatal("expected error for loopback address request, got nil")
	}
}

// TestValidateURL は取得元エンドポイントURLの静的検証をテストする。
func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"Random User API", "https://randomuser.me/api/", false},
		{"クエリ付き", "https://randomuser.me/api/?seed=abc", false},
		{"http", "http://api.example.org/people", false},
		{"公開IP", "http://8.8.8.8/api", false},
		{"空文字列", "", true},
		{"スキームなし", "randomuser.me/api", true},
		{"ftp", "ftp://example.com/people", true},
		{"file", "file:///etc/passwd", true},
		{"プライベートIP 10系", "http://10.0.0.1/api", true},
		{"プライベートIP 172系", "http://172.31.255.255/api", true},
		{"プライベートIP 192系", "http://192.168.1.100/api", true},
		{"ループバック", "http://127.0.0.1/api", true},
		{"localhost", "http://localhost:8080/api", true},
		{"サブドメインlocalhost", "http://api.localhost/api", true},
		{"メタデータIP", "http://169.254.169.254/latest/meta-data/", true},
		{"IPv6ループバック", "http://[::1]/api", true},
		{"IPv4射影IPv6ループバック", "http://[::ffff:127.0.0.1]/api", true},
		{"IPv6ユニークローカル", "http://[fd00::1]/api", true},
	}

	guard := NewSSRFGuard()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := guard.ValidateURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
		})
	}
}
