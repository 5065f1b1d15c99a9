package tenant

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"tableside/internal/errs"
	"tableside/internal/logger"
	"tableside/internal/models"
)

type fakeDirectory struct {
	tenants map[string]*models.Tenant
	qrCodes map[string]*models.QRCode
}

func (d *fakeDirectory) TenantBySubdomain(_ context.Context, subdomain string) (*models.Tenant, error) {
	if t, ok := d.tenants[subdomain]; ok {
		return t, nil
	}
	return nil, errs.NotFoundError{Resource: "tenant", Key: subdomain}
}

func (d *fakeDirectory) QRByIdentifier(_ context.Context, identifier string) (*models.QRCode, error) {
	if qr, ok := d.qrCodes[identifier]; ok {
		return qr, nil
	}
	return nil, errs.NotFoundError{Resource: "qr_code", Key: identifier}
}

func newTestResolver() (*Resolver, uuid.UUID, uuid.UUID) {
	marioID := uuid.New()
	lunaID := uuid.New()
	tableID := uuid.New()

	directory := &fakeDirectory{
		tenants: map[string]*models.Tenant{
			"marios-pizza": {ID: marioID, Subdomain: "marios-pizza", Timezone: "Europe/Rome"},
			"luna-cafe":    {ID: lunaID, Subdomain: "luna-cafe"},
		},
		qrCodes: map[string]*models.QRCode{
			"qr-mario-table-5": {Identifier: "qr-mario-table-5", TenantID: marioID, TableID: &tableID},
			"qr-luna-counter":  {Identifier: "qr-luna-counter", TenantID: lunaID},
		},
	}

	return NewResolver(directory, "tableside.app", logger.New("test")), marioID, lunaID
}

func TestResolve_TenantSubdomain(t *testing.T) {
	resolver, marioID, _ := newTestResolver()

	tests := []struct {
		name     string
		hostname string
	}{
		{"plain hostname", "marios-pizza.tableside.app"},
		{"hostname with port", "marios-pizza.tableside.app:8080"},
		{"uppercase hostname", "Marios-Pizza.Tableside.App"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tenantCtx, err := resolver.Resolve(context.Background(), tt.hostname, "")
			if err != nil {
				t.Fatalf("Resolve returned error: %v", err)
			}
			if tenantCtx.Platform {
				t.Fatal("expected tenant context, got platform sentinel")
			}
			if tenantCtx.TenantID != marioID {
				t.Errorf("tenant id = %s, want %s", tenantCtx.TenantID, marioID)
			}
			if tenantCtx.Timezone != "Europe/Rome" {
				t.Errorf("timezone = %q, want Europe/Rome", tenantCtx.Timezone)
			}
		})
	}
}

func TestResolve_PlatformHosts(t *testing.T) {
	resolver, _, _ := newTestResolver()

	for _, hostname := range []string{
		"tableside.app",
		"tableside.app:443",
		"www.tableside.app",
		"app.tableside.app",
	} {
		t.Run(hostname, func(t *testing.T) {
			tenantCtx, err := resolver.Resolve(context.Background(), hostname, "")
			if err != nil {
				t.Fatalf("Resolve returned error: %v", err)
			}
			if !tenantCtx.Platform {
				t.Error("expected platform sentinel")
			}
		})
	}
}

func TestResolve_PlatformHostIgnoresQR(t *testing.T) {
	resolver, _, _ := newTestResolver()

	// A QR identifier on the root domain is not consulted; the caller
	// redirects to the marketing surface first.
	tenantCtx, err := resolver.Resolve(context.Background(), "tableside.app", "qr-mario-table-5")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if !tenantCtx.Platform {
		t.Error("expected platform sentinel despite QR identifier")
	}
}

func TestResolve_UnknownSubdomain(t *testing.T) {
	resolver, _, _ := newTestResolver()

	_, err := resolver.Resolve(context.Background(), "ghost-kitchen.tableside.app", "")
	if !errs.IsNotFound(err) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestResolve_QRAttachesTable(t *testing.T) {
	resolver, marioID, _ := newTestResolver()

	tenantCtx, err := resolver.Resolve(context.Background(), "marios-pizza.tableside.app", "qr-mario-table-5")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if tenantCtx.TenantID != marioID {
		t.Errorf("tenant id = %s, want %s", tenantCtx.TenantID, marioID)
	}
	if tenantCtx.TableID == nil {
		t.Error("expected table id from QR code")
	}
}

func TestResolve_QRTenantMismatch(t *testing.T) {
	resolver, _, _ := newTestResolver()

	// Mario's QR code scanned while browsing Luna's subdomain.
	_, err := resolver.Resolve(context.Background(), "luna-cafe.tableside.app", "qr-mario-table-5")
	if !errs.IsTenantMismatch(err) {
		t.Fatalf("expected TenantMismatchError, got %v", err)
	}
}

func TestResolve_UnknownQR(t *testing.T) {
	resolver, _, _ := newTestResolver()

	_, err := resolver.Resolve(context.Background(), "marios-pizza.tableside.app", "qr-stale")
	if !errs.IsNotFound(err) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestCandidateSubdomain(t *testing.T) {
	resolver, _, _ := newTestResolver()

	tests := []struct {
		hostname     string
		want         string
		wantPlatform bool
	}{
		{"marios-pizza.tableside.app", "marios-pizza", false},
		{"marios-pizza.tableside.app:3000", "marios-pizza", false},
		{"tableside.app", "", true},
		{"www.tableside.app", "", true},
		{"app.tableside.app", "", true},
		{"", "", true},
		// A host outside the platform domain is treated as a subdomain
		// candidate verbatim; the directory lookup decides its fate.
		{"localhost", "localhost", false},
	}

	for _, tt := range tests {
		t.Run(tt.hostname, func(t *testing.T) {
			got, platform := resolver.candidateSubdomain(tt.hostname)
			if got != tt.want || platform != tt.wantPlatform {
				t.Errorf("candidateSubdomain(%q) = (%q, %v), want (%q, %v)",
					tt.hostname, got, platform, tt.want, tt.wantPlatform)
			}
		})
	}
}
