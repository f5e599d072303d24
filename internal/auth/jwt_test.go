package auth_test

import (
	"testing"
	"time"

	"github.com/dropkickfish/barq-client/internal/auth"
	"github.com/dropkickfish/barq-client/internal/enum"
	"github.com/google/uuid"
)

func TestGenerateAndValidateToken(t *testing.T) {
	secret := "test-secret"
	deviceID := uuid.New()

	token, err := auth.GenerateToken(secret, deviceID, "bar-1", enum.DeviceRoleScreen, time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	claims, err := auth.ValidateToken(secret, token)
	if err != nil {
		t.Fatalf("validate token: %v", err)
	}

	if claims.DeviceID != deviceID {
		t.Errorf("device ID: got %v, want %v", claims.DeviceID, deviceID)
	}
	if claims.Session != "bar-1" {
		t.Errorf("session: got %q, want %q", claims.Session, "bar-1")
	}
	if claims.Role != enum.DeviceRoleScreen {
		t.Errorf("role: got %v, want %v", claims.Role, enum.DeviceRoleScreen)
	}
}

func TestValidateTokenWithWrongSecret(t *testing.T) {
	token, err := auth.GenerateToken("secret-a", uuid.New(), "bar-1", enum.DeviceRoleScreen, time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	_, err = auth.ValidateToken("secret-b", token)
	if err == nil {
		t.Fatal("expected error validating with wrong secret")
	}
}

func TestValidateExpiredToken(t *testing.T) {
	token, err := auth.GenerateToken("secret", uuid.New(), "bar-1", enum.DeviceRoleOperator, -time.Minute)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	_, err = auth.ValidateToken("secret", token)
	if err == nil {
		t.Fatal("expected error validating expired token")
	}
}

func TestValidateTokenWithoutDevice(t *testing.T) {
	token, err := auth.GenerateToken("secret", uuid.Nil, "bar-1", enum.DeviceRoleScreen, time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	_, err = auth.ValidateToken("secret", token)
	if err == nil {
		t.Fatal("expected error for token without device")
	}
}

func TestValidateTokenWithInvalidString(t *testing.T) {
	_, err := auth.ValidateToken("secret", "not-a-jwt")
	if err == nil {
		t.Fatal("expected error validating invalid token string")
	}
}
