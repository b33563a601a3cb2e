package cli

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"

	"gridlock/internal/models"
)

func TestTokenSaveAndLoad(t *testing.T) {
	cfg := &Config{
		TokenFile: filepath.Join(t.TempDir(), "nested", "token"),
	}

	if err := cfg.SaveToken("tok-123"); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded := &Config{TokenFile: cfg.TokenFile}
	if err := loaded.LoadToken(); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Token != "tok-123" {
		t.Fatalf("loaded token %q, want %q", loaded.Token, "tok-123")
	}
}

func TestLoadTokenMissingFileIsFine(t *testing.T) {
	cfg := &Config{TokenFile: filepath.Join(t.TempDir(), "absent")}
	if err := cfg.LoadToken(); err != nil {
		t.Fatalf("missing token file should not error: %v", err)
	}
	if cfg.Token != "" {
		t.Fatalf("token should stay empty")
	}
}

func TestLoadTokenKeepsExplicitToken(t *testing.T) {
	cfg := &Config{Token: "explicit", TokenFile: filepath.Join(t.TempDir(), "token")}
	if err := cfg.SaveToken("from-file"); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	cfg.Token = "explicit"
	if err := cfg.LoadToken(); err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Token != "explicit" {
		t.Fatalf("explicit token should win, got %q", cfg.Token)
	}
}

func TestRenderBoard(t *testing.T) {
	board := models.Board{
		{models.SymbolX, "", ""},
		{"", models.SymbolO, ""},
		{"", "", models.SymbolX},
	}
	out := RenderBoard(board)

	if !strings.Contains(out, "0   1   2") {
		t.Fatalf("board should show column headers:\n%s", out)
	}
	if !strings.Contains(out, "| X |") || !strings.Contains(out, "| O |") {
		t.Fatalf("board should show the marks:\n%s", out)
	}
	if strings.Count(out, ".") != 6 {
		t.Fatalf("six empty cells expected:\n%s", out)
	}
}

func TestRenderRoomTurnLine(t *testing.T) {
	room := models.NewRoom(uuid.New(), uuid.New())
	out := RenderRoom(room, models.SymbolX)
	if !strings.Contains(out, "Waiting for an opponent") {
		t.Fatalf("solo room should show waiting:\n%s", out)
	}

	if err := room.AddPlayer(uuid.New(), uuid.New()); err != nil {
		t.Fatalf("add failed: %v", err)
	}
	out = RenderRoom(room, models.SymbolX)
	if !strings.Contains(out, "Your turn") {
		t.Fatalf("X to move should read as your turn:\n%s", out)
	}
	out = RenderRoom(room, models.SymbolO)
	if !strings.Contains(out, "X to play") {
		t.Fatalf("opponent's move should name the symbol:\n%s", out)
	}

	room.Winner = models.SymbolO
	out = RenderRoom(room, models.SymbolX)
	if !strings.Contains(out, "O wins") {
		t.Fatalf("terminal room should show the result:\n%s", out)
	}
}
