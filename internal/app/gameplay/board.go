package gameplay

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"

	"necroos/internal/app/ports"
	"necroos/internal/domain/haunting"
)

var (
	ErrUnknownCursedFile = errors.New("unknown cursed file")
	ErrUnknownPuzzle     = errors.New("unknown or replaced puzzle")
	ErrPuzzleExpired     = errors.New("puzzle expired")
	ErrPuzzleIncorrect   = errors.New("puzzle solution incorrect")
)

// Board holds the transient exorcism props: the cursed files on the desktop
// and the current symbol puzzle. Nothing here is persisted.
type Board struct {
	clock   ports.Clock
	rng     *rand.Rand
	files   []haunting.CursedFile
	counter int
	puzzle  *haunting.Puzzle
}

func NewBoard(clock ports.Clock, rng *rand.Rand) *Board {
	if rng == nil {
		rng = rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
	}
	return &Board{clock: clock, rng: rng}
}

// GenerateCursedFiles replaces the current set with 3 to 7 distinct files.
func (b *Board) GenerateCursedFiles() []haunting.CursedFile {
	count := haunting.MinCursedFiles + b.rng.IntN(haunting.MaxCursedFiles-haunting.MinCursedFiles+1)
	names := append([]string(nil), haunting.CursedFileNames...)
	b.rng.Shuffle(len(names), func(i, j int) { names[i], names[j] = names[j], names[i] })

	now := b.clock.Now()
	b.files = b.files[:0]
	for _, name := range names[:count] {
		b.files = append(b.files, haunting.CursedFile{
			ID:        fmt.Sprintf("cursed_%d", b.counter),
			Name:      name,
			Path:      `C:\Cursed\` + name,
			Power:     haunting.ExorcismPower[haunting.ActionFile],
			CreatedAt: now,
		})
		b.counter++
	}
	return b.CursedFiles()
}

func (b *Board) CursedFiles() []haunting.CursedFile {
	return append([]haunting.CursedFile(nil), b.files...)
}

func (b *Board) CursedFile(id string) (haunting.CursedFile, error) {
	for _, f := range b.files {
		if f.ID == id {
			return f, nil
		}
	}
	return haunting.CursedFile{}, fmt.Errorf("%w: %s", ErrUnknownCursedFile, id)
}

func (b *Board) IsCursedName(name string) bool {
	for _, f := range b.files {
		if f.Name == name {
			return true
		}
	}
	return false
}

func (b *Board) RemoveCursedFile(id string) {
	for i, f := range b.files {
		if f.ID == id {
			b.files = append(b.files[:i], b.files[i+1:]...)
			return
		}
	}
}

// GeneratePuzzle replaces any pending puzzle. Easy puzzles have 4 symbols,
// hard ones 6, anything else a random length in between.
func (b *Board) GeneratePuzzle(difficulty haunting.PuzzleDifficulty) haunting.Puzzle {
	length := haunting.PuzzleEasyLen + b.rng.IntN(haunting.PuzzleHardLen-haunting.PuzzleEasyLen+1)
	switch difficulty {
	case haunting.PuzzleEasy:
		length = haunting.PuzzleEasyLen
	case haunting.PuzzleHard:
		length = haunting.PuzzleHardLen
	default:
		difficulty = haunting.PuzzleNormal
	}
	seq := make([]string, length)
	for i := range seq {
		seq[i] = haunting.PuzzleSymbols[b.rng.IntN(len(haunting.PuzzleSymbols))]
	}
	now := b.clock.Now()
	p := haunting.Puzzle{
		ID:         "puzzle_" + uuid.NewString(),
		Sequence:   seq,
		Difficulty: difficulty,
		CreatedAt:  now,
		ExpiresAt:  now.Add(haunting.PuzzleTimeLimit),
	}
	b.puzzle = &p
	return p
}

// CheckPuzzle validates a solution without consuming the puzzle, except that
// an expired puzzle is discarded.
func (b *Board) CheckPuzzle(id string, solution []string) error {
	if b.puzzle == nil || b.puzzle.ID != id {
		return fmt.Errorf("%w: %s", ErrUnknownPuzzle, id)
	}
	if b.puzzle.Expired(b.clock.Now()) {
		b.puzzle = nil
		return ErrPuzzleExpired
	}
	if !b.puzzle.Matches(solution) {
		return ErrPuzzleIncorrect
	}
	return nil
}

// ConsumePuzzle drops the current puzzle once it has been solved.
func (b *Board) ConsumePuzzle() {
	b.puzzle = nil
}

// FailureReason maps board errors to exorcism failure reasons.
func FailureReason(err error) string {
	switch {
	case errors.Is(err, ErrUnknownCursedFile):
		return haunting.ReasonUnknownFile
	case errors.Is(err, ErrUnknownPuzzle):
		return haunting.ReasonUnknownPuzzle
	case errors.Is(err, ErrPuzzleExpired):
		return haunting.ReasonPuzzleExpired
	case errors.Is(err, ErrPuzzleIncorrect):
		return haunting.ReasonIncorrect
	}
	return ""
}

// LooksLikeName accepts 2 to 30 characters of which more than 70% are ASCII
// letters.
func LooksLikeName(input string) (string, bool) {
	trimmed := strings.TrimSpace(input)
	n := len([]rune(trimmed))
	if n < 2 || n > 30 {
		return "", false
	}
	letters := 0
	for _, r := range trimmed {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
			letters++
		}
	}
	if float64(letters)/float64(n) <= 0.7 {
		return "", false
	}
	return trimmed, true
}
