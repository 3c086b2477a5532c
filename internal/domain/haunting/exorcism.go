package haunting

import (
	"strings"
	"time"
)

const BanishmentPhrase = "begone spirit"

// IsBanishmentPhrase accepts the phrase on its own or inside longer input.
func IsBanishmentPhrase(text string) bool {
	return strings.Contains(strings.ToLower(strings.TrimSpace(text)), BanishmentPhrase)
}

var CursedFileNames = []string{
	"DO_NOT_OPEN.txt", "CURSED.exe", "YOUR_SOUL.dat", "POSSESSED.dll", "DAMNED.sys",
	"HAUNTED.log", "EVIL.tmp", "DARKNESS.bin", "VOID.exe", "REAPER.dat",
	"TORMENT.txt", "SUFFERING.doc", "DESPAIR.txt", "NIGHTMARE.exe", "TERROR.dll",
}

const (
	MinCursedFiles = 3
	MaxCursedFiles = 7
)

type CursedFile struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	Power     int       `json:"power"`
	CreatedAt time.Time `json:"created_at"`
}

var PuzzleSymbols = []string{"⛧", "☠", "👁", "🕯", "⚰", "🗡", "🔮", "💀", "👻", "🕷"}

const (
	PuzzleTimeLimit = 30 * time.Second
	PuzzleEasyLen   = 4
	PuzzleHardLen   = 6
)

type PuzzleDifficulty string

const (
	PuzzleEasy   PuzzleDifficulty = "easy"
	PuzzleNormal PuzzleDifficulty = "normal"
	PuzzleHard   PuzzleDifficulty = "hard"
)

type Puzzle struct {
	ID         string           `json:"id"`
	Sequence   []string         `json:"sequence"`
	Difficulty PuzzleDifficulty `json:"difficulty"`
	CreatedAt  time.Time        `json:"created_at"`
	ExpiresAt  time.Time        `json:"expires_at"`
}

func (p Puzzle) Expired(now time.Time) bool {
	return now.Sub(p.CreatedAt) > PuzzleTimeLimit
}

func (p Puzzle) Matches(solution []string) bool {
	if len(solution) != len(p.Sequence) {
		return false
	}
	for i := range solution {
		if solution[i] != p.Sequence[i] {
			return false
		}
	}
	return true
}

// Failure reasons reported by exorcism attempts.
const (
	ReasonCooldown      = "cooldown"
	ReasonWrongPhrase   = "wrong_phrase"
	ReasonUnknownFile   = "unknown_file"
	ReasonUnknownPuzzle = "unknown_puzzle"
	ReasonPuzzleExpired = "puzzle_expired"
	ReasonIncorrect     = "incorrect"
)
