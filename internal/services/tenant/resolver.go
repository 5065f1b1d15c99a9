package tenant

import (
	"context"
	"net"
	"strings"

	"tableside/internal/errs"
	"tableside/internal/logger"
	"tableside/internal/models"
)

// Directory is the external tenant/QR lookup port. Both lookups are by
// unique key against the shared store.
type Directory interface {
	TenantBySubdomain(ctx context.Context, subdomain string) (*models.Tenant, error)
	QRByIdentifier(ctx context.Context, identifier string) (*models.QRCode, error)
}

// Aliases of the root domain that resolve to the platform marketing surface
// rather than a tenant.
var platformAliases = map[string]bool{
	"www": true,
	"app": true,
}

// Resolver maps an inbound (hostname, optional QR identifier) pair to the
// tenant context an order must be attached to. Purely a read-through
// mapping; no side effects.
type Resolver struct {
	directory  Directory
	rootDomain string
	logger     *logger.Logger
}

// NewResolver creates a tenant resolver for the given platform root domain.
func NewResolver(directory Directory, rootDomain string, log *logger.Logger) *Resolver {
	return &Resolver{
		directory:  directory,
		rootDomain: strings.ToLower(rootDomain),
		logger:     log,
	}
}

// Resolve determines the tenant context for a request. The root domain and
// its www/app aliases yield the platform sentinel (Platform=true); callers
// redirect those to the marketing surface, so a QR identifier is only
// consulted once a tenant subdomain is established. When both a subdomain
// tenant and a QR tenant are present they must agree; a mismatch is
// reported as TenantMismatchError and shown to callers as not-found.
func (r *Resolver) Resolve(ctx context.Context, hostname, qrIdentifier string) (*models.TenantContext, error) {
	subdomain, platform := r.candidateSubdomain(hostname)
	if platform {
		return &models.TenantContext{Platform: true}, nil
	}

	tenant, err := r.directory.TenantBySubdomain(ctx, subdomain)
	if err != nil {
		return nil, err
	}

	tenantCtx := &models.TenantContext{
		TenantID:  tenant.ID,
		Subdomain: tenant.Subdomain,
		Timezone:  tenant.Timezone,
	}

	if qrIdentifier == "" {
		return tenantCtx, nil
	}

	qr, err := r.directory.QRByIdentifier(ctx, qrIdentifier)
	if err != nil {
		return nil, err
	}

	if qr.TenantID != tenant.ID {
		return nil, errs.TenantMismatchError{Subdomain: subdomain, QRIdentifier: qrIdentifier}
	}

	tenantCtx.TableID = qr.TableID
	tenantCtx.ServicePointID = qr.ServicePointID

	return tenantCtx, nil
}

// candidateSubdomain strips the platform suffix from a hostname. The second
// return value reports the no-tenant sentinel case.
func (r *Resolver) candidateSubdomain(hostname string) (string, bool) {
	host := strings.ToLower(strings.TrimSpace(hostname))
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}

	if host == "" || host == r.rootDomain {
		return "", true
	}

	candidate := host
	if strings.HasSuffix(host, "."+r.rootDomain) {
		candidate = strings.TrimSuffix(host, "."+r.rootDomain)
	}

	if platformAliases[candidate] {
		return "", true
	}

	return candidate, false
}
