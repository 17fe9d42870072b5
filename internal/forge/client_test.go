package forge

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestCreatePR(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/repos/acme/widgets/pulls" {
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("expected bearer token, got %q", got)
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(PullRequest{Number: 42, HTMLURL: "https://github.com/acme/widgets/pull/42", State: "open"})
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("tok", srv.URL)
	pr, err := c.CreatePR(context.Background(), CreatePRInput{
		Owner: "acme", Repo: "widgets", Head: "workspace/alpha", Base: "main", Title: "t", Body: "b",
	})
	if err != nil {
		t.Fatalf("CreatePR: %v", err)
	}
	if pr.Number != 42 || pr.State != "open" {
		t.Errorf("unexpected PR: %+v", pr)
	}
}

func TestGetPRError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"Not Found"}`))
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("tok", srv.URL)
	if _, err := c.GetPR(context.Background(), "acme", "widgets", 7); err == nil {
		t.Fatal("expected error on 404")
	}
}

func TestMergePR(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Fatalf("expected PUT, got %s", r.Method)
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"merged":true}`))
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("tok", srv.URL)
	if err := c.MergePR(context.Background(), "acme", "widgets", 7, "squash"); err != nil {
		t.Fatalf("MergePR: %v", err)
	}
}

func TestCreateRepo(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/user/repos" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(Repository{ID: 1, Name: "widgets", FullName: "acme/widgets", DefaultBranch: "main"})
	}))
	defer srv.Close()

	c := NewClientWithBaseURL("tok", srv.URL)
	repo, err := c.CreateRepo(context.Background(), CreateRepoInput{Name: "widgets", Private: true})
	if err != nil {
		t.Fatalf("CreateRepo: %v", err)
	}
	if repo.FullName != "acme/widgets" {
		t.Errorf("unexpected repo: %+v", repo)
	}
}
