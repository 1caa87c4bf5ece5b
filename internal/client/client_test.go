package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"vgp-backend/internal/checklist"
	"vgp-backend/internal/database"
	"vgp-backend/internal/handlers"
	"vgp-backend/internal/metrics"
	"vgp-backend/internal/services"
	"vgp-backend/internal/websocket"
)

var testNow = time.Date(2025, time.March, 14, 9, 0, 0, 0, time.UTC)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	kv, err := database.OpenBadger("")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { kv.Close() })

	auth := services.NewAuthService(kv, services.LogMailer{}, services.AuthConfig{JWTSecret: "secret"})
	srv := httptest.NewServer(handlers.NewRouter(handlers.Deps{
		Store:               database.NewInspectionStore(kv),
		Auth:                auth,
		Notifier:            services.NewChangeNotifier(nil, nil),
		Hub:                 websocket.NewHub(),
		Metrics:             metrics.New(),
		JWTSecret:           "secret",
		SyncPullConcurrency: 2,
	}))
	t.Cleanup(srv.Close)

	token, _, err := auth.IssueSession("inspecteur@example.com", services.UserNamespace("inspecteur@example.com"))
	if err != nil {
		t.Fatal(err)
	}
	return New(srv.URL+"/", token)
}

func draftRecord() *checklist.Record {
	rec := checklist.NewRecord(testNow)
	rec.EquipmentType = checklist.TableFixed
	rec.Client = "Garage Martin"
	rec.Capacity = 800
	rec.Height = 2
	return rec
}

func TestClient_RepositoryRoundTrip(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	ack, err := c.Save(ctx, draftRecord())
	if err != nil {
		t.Fatal(err)
	}
	if ack.ID == "" || ack.UpdatedAt.IsZero() {
		t.Fatalf("incomplete ack: %+v", ack)
	}

	rec, err := c.Load(ctx, ack.ID)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Client != "Garage Martin" || rec.ID != ack.ID {
		t.Fatalf("unexpected record: %+v", rec)
	}
	if rec.Loads == nil || rec.Loads.Static != 1000 {
		t.Fatalf("loads = %+v, want static 1000", rec.Loads)
	}

	list, err := c.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].ID != ack.ID {
		t.Fatalf("list = %+v", list)
	}

	if err := c.Delete(ctx, ack.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Load(ctx, ack.ID); !errors.Is(err, checklist.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := c.Delete(ctx, ack.ID); err != nil {
		t.Fatalf("second delete: %v", err)
	}
}

func TestClient_SaveFinalReportsMissing(t *testing.T) {
	c := newTestClient(t)
	_, err := c.SaveFinal(context.Background(), draftRecord())

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.Status != http.StatusUnprocessableEntity || apiErr.Code != checklist.CodeIncomplete {
		t.Fatalf("unexpected error: %+v", apiErr)
	}
	if len(apiErr.Missing) == 0 {
		t.Fatal("missing list is empty")
	}
}

func TestClient_SaveAsync(t *testing.T) {
	c := newTestClient(t)
	rec := draftRecord()

	res := <-checklist.SaveAsync(context.Background(), c, rec)
	if res.Err != nil {
		t.Fatal(res.Err)
	}
	if rec.ID != "" {
		t.Fatal("caller record must not be modified")
	}
	if _, err := c.Load(context.Background(), res.Ack.ID); err != nil {
		t.Fatal(err)
	}
}

func TestClient_SyncAndPull(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	ack, err := c.Save(ctx, draftRecord())
	if err != nil {
		t.Fatal(err)
	}

	plan, err := c.PlanSync(ctx, nil, []checklist.Summary{{ID: "local", UpdatedAt: testNow}})
	if err != nil {
		t.Fatal(err)
	}
	if len(plan.ToUpload) != 1 || len(plan.ToDownload) != 1 || plan.ToDownload[0] != ack.ID {
		t.Fatalf("plan = %+v", plan)
	}

	pulled, err := c.Pull(ctx, plan.ToDownload)
	if err != nil {
		t.Fatal(err)
	}
	if len(pulled.Inspections) != 1 || len(pulled.Missing) != 0 {
		t.Fatalf("pull = %+v", pulled)
	}
}

func TestClient_Unauthorized(t *testing.T) {
	c := newTestClient(t)
	c.token = ""
	_, err := c.List(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}
}
