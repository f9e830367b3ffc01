package handler

import (
	"net/http"
	"testing"
)

func TestWordPressSettingsRoundTrip(t *testing.T) {
	env := setupTestAPI(t)

	w := perform(env.api.GetWordPressSettings, request{method: http.MethodGet, path: "/api/v1/settings/wordpress", userID: env.user.ID})
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	initial := decode[wordPressSettingsPayload](t, w)
	if initial.SiteURL != "" || initial.PostType != "post" || initial.PostStatus != "publish" {
		t.Fatalf("unexpected defaults %+v", initial)
	}

	w = perform(env.api.UpdateWordPressSettings, request{
		method: http.MethodPut,
		path:   "/api/v1/settings/wordpress",
		body: jsonBody(t, map[string]string{
			"siteUrl":             "https://legal.example.com/",
			"username":            "editor",
			"applicationPassword": "abcd efgh",
			"postStatus":          "draft",
		}),
		contentType: "application/json",
		userID:      env.user.ID,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	w = perform(env.api.GetWordPressSettings, request{method: http.MethodGet, path: "/api/v1/settings/wordpress", userID: env.user.ID})
	saved := decode[wordPressSettingsPayload](t, w)
	if saved.SiteURL != "https://legal.example.com" || saved.Username != "editor" || saved.PostStatus != "draft" {
		t.Fatalf("unexpected saved settings %+v", saved)
	}

	// 配置按用户隔离
	w = perform(env.api.GetWordPressSettings, request{method: http.MethodGet, path: "/api/v1/settings/wordpress", userID: env.other.ID})
	if other := decode[wordPressSettingsPayload](t, w); other.SiteURL != "" {
		t.Fatalf("settings leaked to another user: %+v", other)
	}
}

func TestUpdateWordPressSettingsValidates(t *testing.T) {
	env := setupTestAPI(t)

	w := perform(env.api.UpdateWordPressSettings, request{
		method:      http.MethodPut,
		path:        "/api/v1/settings/wordpress",
		body:        jsonBody(t, map[string]string{"siteUrl": "https://legal.example.com", "postStatus": "trash"}),
		contentType: "application/json",
		userID:      env.user.ID,
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", w.Code)
	}
}

func TestTestWordPressConnection(t *testing.T) {
	env := setupTestAPI(t)

	w := perform(env.api.TestWordPressConnection, request{
		method:      http.MethodPost,
		path:        "/api/v1/settings/wordpress/test",
		body:        jsonBody(t, map[string]string{"siteUrl": "https://legal.example.com", "username": "u", "applicationPassword": "p"}),
		contentType: "application/json",
		userID:      env.user.ID,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	body := decode[map[string]any](t, w)
	if body["success"] != true || body["message"] != "Successfully connected to WordPress" {
		t.Fatalf("unexpected body %v", body)
	}

	w = perform(env.api.TestWordPressConnection, request{
		method:      http.MethodPost,
		path:        "/api/v1/settings/wordpress/test",
		body:        jsonBody(t, map[string]string{}),
		contentType: "application/json",
		userID:      env.user.ID,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("failed tests still answer 200, got %d", w.Code)
	}
	if body := decode[map[string]any](t, w); body["success"] != false {
		t.Fatalf("expected failure, got %v", body)
	}
}
