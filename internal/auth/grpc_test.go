package auth

import (
	"context"
	"testing"

	"google.golang.org/grpc"

	"skiclub/internal/testutil"
	"skiclub/models"
	"skiclub/repository"
)

func TestRequireRole(t *testing.T) {
	ctx := WithPrincipal(context.Background(), &Principal{UserID: 2, Name: "Luca", Role: models.RoleCoach})
	if _, err := RequireRole(ctx, models.RoleCoach, models.RoleAdmin); err != nil {
		t.Fatalf("RequireRole coach: %v", err)
	}
	if _, err := RequireRole(ctx, models.RoleParent); err == nil {
		t.Fatalf("expected parent-only rejection for coach")
	}
	if _, err := RequireRole(context.Background(), models.RoleCoach); err == nil {
		t.Fatalf("expected rejection without principal")
	}
}

func TestRequireAdmin_WithDBRoleCheck(t *testing.T) {
	d := testutil.OpenInMemoryDB(t, "authadmin")
	users := repository.NewUserRepository(d)
	ctx := context.Background()

	coach, err := users.Create(ctx, "Coach Sara", "", models.RoleCoach)
	if err != nil {
		t.Fatalf("create coach: %v", err)
	}
	// Token claims admin, database says coach.
	spoofed := WithPrincipal(ctx, &Principal{UserID: coach.ID, Name: coach.Name, Role: models.RoleAdmin})
	if _, err := RequireAdmin(spoofed, users); err == nil {
		t.Fatalf("expected PermissionDenied for non-admin role")
	}

	admin, err := users.Create(ctx, "Admin Sci Club", "", models.RoleAdmin)
	if err != nil {
		t.Fatalf("create admin: %v", err)
	}
	genuine := WithPrincipal(ctx, &Principal{UserID: admin.ID, Name: admin.Name, Role: models.RoleAdmin})
	if _, err := RequireAdmin(genuine, users); err != nil {
		t.Fatalf("RequireAdmin real admin: %v", err)
	}
	if err := users.Delete(ctx, admin.ID); err != nil {
		t.Fatalf("delete admin: %v", err)
	}
	if _, err := RequireAdmin(genuine, users); err == nil {
		t.Fatalf("expected rejection for a deleted admin")
	}
}

func TestUnaryAuthInterceptor(t *testing.T) {
	secret := "s3cr3t"
	// allowlisted method should bypass auth
	interceptor := NewUnaryAuthInterceptor(secret, "/health")

	hCalled := false
	_, err := interceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/health"}, func(ctx context.Context, req any) (any, error) {
		hCalled = true
		if p, ok := FromContext(ctx); ok && p != nil {
			t.Fatalf("expected no principal on allowlisted path")
		}
		return 123, nil
	})
	if err != nil || !hCalled {
		t.Fatalf("allowlisted handler err=%v called=%v", err, hCalled)
	}

	tok := testutil.GenerateJWTHS256(t, secret, 7, "Admin", "admin")
	ctx := testutil.CtxWithBearer(context.Background(), tok)
	_, err = interceptor(ctx, nil, &grpc.UnaryServerInfo{FullMethod: "/svc/Op"}, func(ctx context.Context, req any) (any, error) {
		p, ok := FromContext(ctx)
		if !ok || p.UserID != 7 || p.Role != models.RoleAdmin {
			t.Fatalf("principal not injected: %+v ok=%v", p, ok)
		}
		return nil, nil
	})
	if err != nil {
		t.Fatalf("interceptor auth path: %v", err)
	}

	_, err = interceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/svc/Op"}, func(ctx context.Context, req any) (any, error) {
		t.Fatalf("handler must not run without a token")
		return nil, nil
	})
	if err == nil {
		t.Fatalf("expected Unauthenticated without a token")
	}
}
