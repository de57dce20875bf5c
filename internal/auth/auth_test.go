package auth

import (
	"testing"

	"github.com/google/uuid"
)

func TestIssueAndVerifyToken(t *testing.T) {
	mgr, err := NewManager("test-secret-0123456789")
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	userID := uuid.New()
	orgID := uuid.New()

	token, err := mgr.IssueToken(userID, orgID, "admin")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	claims, err := mgr.VerifyToken(token)
	if err != nil {
		t.Fatalf("verify token: %v", err)
	}

	gotUser, err := claims.UserID()
	if err != nil {
		t.Fatalf("user id: %v", err)
	}
	if gotUser != userID {
		t.Errorf("expected user %s, got %s", userID, gotUser)
	}
	if claims.OrgID != orgID {
		t.Errorf("expected org %s, got %s", orgID, claims.OrgID)
	}
	if claims.Role != "admin" {
		t.Errorf("expected role admin, got %s", claims.Role)
	}
}

func TestVerifyToken_WrongSecret(t *testing.T) {
	mgr1, _ := NewManager("test-secret-0123456789")
	mgr2, _ := NewManager("other-secret-9876543210")

	token, err := mgr1.IssueToken(uuid.New(), uuid.New(), "member")
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	if _, err := mgr2.VerifyToken(token); err == nil {
		t.Fatal("expected error for token signed with different secret")
	}
}

func TestVerifyToken_Garbage(t *testing.T) {
	mgr, _ := NewManager("test-secret-0123456789")

	if _, err := mgr.VerifyToken("not.a.token"); err == nil {
		t.Fatal("expected error for garbage token")
	}
}

func TestNewManager_ShortSecret(t *testing.T) {
	if _, err := NewManager("short"); err == nil {
		t.Fatal("expected error for short secret")
	}
}

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	if !CheckPassword(hash, "correct horse battery") {
		t.Error("correct password rejected")
	}
	if CheckPassword(hash, "wrong password!") {
		t.Error("wrong password accepted")
	}
}

func TestHashPassword_TooShort(t *testing.T) {
	if _, err := HashPassword("short"); err == nil {
		t.Fatal("expected error for short password")
	}
}
