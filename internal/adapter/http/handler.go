package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"necroos/internal/adapter/effects/audio"
	"necroos/internal/adapter/effects/journal"
	"necroos/internal/adapter/ghost"
	"necroos/internal/app/gameplay"
	"necroos/internal/app/haunt"
	"necroos/internal/domain/haunting"
)

type Handler struct {
	Haunt   *haunt.Service
	Ghost   *ghost.Source
	Journal *journal.Journal
	Audio   *audio.Layers
	KPI     kpiSnapshotProvider
	// AllowOrigin is the CORS origin; empty allows any.
	AllowOrigin string
}

func (h Handler) RegisterRoutes(s *server.Hertz) {
	s.Use(corsMiddleware(h.AllowOrigin))

	g := s.Group("/api/haunting")
	g.GET("/level", h.level)
	g.POST("/possession/increase", h.increase)
	g.POST("/possession/decrease", h.decrease)
	g.POST("/possession/set", h.setLevel)
	g.POST("/difficulty", h.difficulty)
	g.GET("/ending", h.ending)
	g.GET("/statistics", h.statistics)
	g.GET("/seasonal", h.seasonal)
	g.GET("/effects", h.effects)
	g.GET("/notifications", h.notifications)
	g.GET("/audio", h.audio)
	g.POST("/customization", h.customization)
	g.DELETE("/progress", h.clearProgress)

	g.POST("/exorcism", h.exorcism)
	g.POST("/exorcism/text", h.textExorcism)
	g.GET("/cursed-files", h.cursedFiles)
	g.POST("/cursed-files/regenerate", h.regenerateCursedFiles)
	g.DELETE("/cursed-files/:id", h.deleteCursedFile)
	g.POST("/puzzles", h.newPuzzle)
	g.POST("/puzzles/:id/solve", h.solvePuzzle)

	g.POST("/input/key", h.key)
	g.POST("/input/click", h.click)
	g.POST("/input/text", h.text)
	g.POST("/easter-eggs", h.easterEgg)
	g.POST("/achievements", h.achievement)
	g.POST("/jumpscares", h.jumpscare)
	g.POST("/ghost", h.ghostLevel)

	s.GET("/ops/kpi", h.kpi)
}

type amountRequest struct {
	Amount int `json:"amount"`
}

type levelRequest struct {
	Level int `json:"level"`
}

type difficultyRequest struct {
	Difficulty string `json:"difficulty"`
}

type exorcismRequest struct {
	Kind  string `json:"kind"`
	Power int    `json:"power,omitempty"`
}

type phraseRequest struct {
	Phrase string `json:"phrase"`
}

type puzzleRequest struct {
	Difficulty string `json:"difficulty"`
}

type solveRequest struct {
	Solution []string `json:"solution"`
}

type keyRequest struct {
	Key string `json:"key"`
}

type clickRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type textRequest struct {
	Text string `json:"text"`
}

type idRequest struct {
	ID string `json:"id"`
}

type customizationRequest struct {
	ScareIntensity     *int                       `json:"scare_intensity,omitempty"`
	EnabledBehaviors   map[haunting.Behavior]bool `json:"enabled_behaviors,omitempty"`
	Theme              *haunting.Theme            `json:"theme,omitempty"`
	ReducedMotion      *bool                      `json:"reduced_motion,omitempty"`
	VisualCuesForAudio *bool                      `json:"visual_cues_for_audio,omitempty"`
}

func (h Handler) level(c context.Context, ctx *app.RequestContext) {
	ctx.JSON(consts.StatusOK, map[string]int{"level": h.Haunt.PossessionLevel(c)})
}

func (h Handler) increase(c context.Context, ctx *app.RequestContext) {
	h.mutate(c, ctx, h.Haunt.IncreasePossession)
}

func (h Handler) decrease(c context.Context, ctx *app.RequestContext) {
	h.mutate(c, ctx, h.Haunt.DecreasePossession)
}

func (h Handler) mutate(c context.Context, ctx *app.RequestContext, fn func(context.Context, int) (haunt.MutationResult, error)) {
	var body amountRequest
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	resp, err := fn(c, body.Amount)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, resp)
}

func (h Handler) setLevel(c context.Context, ctx *app.RequestContext) {
	var body levelRequest
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	ctx.JSON(consts.StatusOK, map[string]int{"level": h.Haunt.SetPossessionLevel(c, body.Level)})
}

func (h Handler) difficulty(c context.Context, ctx *app.RequestContext) {
	var body difficultyRequest
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	if err := h.Haunt.SetDifficulty(c, body.Difficulty); err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, map[string]any{
		"difficulty": body.Difficulty,
		"level":      h.Haunt.PossessionLevel(c),
	})
}

func (h Handler) ending(c context.Context, ctx *app.RequestContext) {
	ctx.JSON(consts.StatusOK, map[string]string{"ending": string(h.Haunt.CheckEndingConditions(c))})
}

func (h Handler) statistics(c context.Context, ctx *app.RequestContext) {
	ctx.JSON(consts.StatusOK, h.Haunt.StatisticsSnapshot(c))
}

func (h Handler) seasonal(c context.Context, ctx *app.RequestContext) {
	ctx.JSON(consts.StatusOK, map[string]any{"event": h.Haunt.CurrentSeasonalEvent(c)})
}

func (h Handler) effects(c context.Context, ctx *app.RequestContext) {
	ctx.JSON(consts.StatusOK, h.Haunt.Effects(c))
}

func (h Handler) notifications(_ context.Context, ctx *app.RequestContext) {
	if h.Journal == nil {
		writeErrorBody(ctx, consts.StatusNotFound, "not_configured", "effect journal not configured")
		return
	}
	after, _ := strconv.ParseUint(string(ctx.Query("after")), 10, 64)
	ctx.JSON(consts.StatusOK, map[string]any{"entries": h.Journal.Since(after)})
}

const maxAudioChunk = 2 * time.Second

// audio serves the next chunk of the mixed audio haunting as raw PCM.
func (h Handler) audio(_ context.Context, ctx *app.RequestContext) {
	if h.Audio == nil {
		writeErrorBody(ctx, consts.StatusNotFound, "not_configured", "audio layers not configured")
		return
	}
	ms, err := strconv.Atoi(string(ctx.Query("ms")))
	if err != nil || ms <= 0 {
		ms = 250
	}
	chunk := min(time.Duration(ms)*time.Millisecond, maxAudioChunk)
	contentType := fmt.Sprintf("audio/L16; rate=%d; channels=2", int(h.Audio.SampleRate()))
	ctx.Data(consts.StatusOK, contentType, h.Audio.Render(chunk))
}

func (h Handler) customization(c context.Context, ctx *app.RequestContext) {
	var body customizationRequest
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	next := h.Haunt.Effects(c).Customization
	if body.ScareIntensity != nil {
		next.ScareIntensity = *body.ScareIntensity
	}
	for b, on := range body.EnabledBehaviors {
		next.EnabledBehaviors[b] = on
	}
	if body.Theme != nil {
		next.Theme = *body.Theme
	}
	if body.ReducedMotion != nil {
		next.ReducedMotion = *body.ReducedMotion
	}
	if body.VisualCuesForAudio != nil {
		next.VisualCuesForAudio = *body.VisualCuesForAudio
	}
	if err := h.Haunt.UpdateCustomization(c, next); err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, h.Haunt.Effects(c).Customization)
}

func (h Handler) clearProgress(c context.Context, ctx *app.RequestContext) {
	if err := h.Haunt.ClearProgress(c); err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, map[string]int{"level": h.Haunt.PossessionLevel(c)})
}

func (h Handler) exorcism(c context.Context, ctx *app.RequestContext) {
	var body exorcismRequest
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	res, err := h.Haunt.PerformExorcism(c, body.Kind, body.Power)
	writeExorcism(ctx, res, err)
}

func (h Handler) textExorcism(c context.Context, ctx *app.RequestContext) {
	var body phraseRequest
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	res, err := h.Haunt.TextExorcism(c, body.Phrase)
	writeExorcism(ctx, res, err)
}

func (h Handler) cursedFiles(c context.Context, ctx *app.RequestContext) {
	ctx.JSON(consts.StatusOK, map[string]any{"files": h.Haunt.CursedFiles(c)})
}

func (h Handler) regenerateCursedFiles(c context.Context, ctx *app.RequestContext) {
	ctx.JSON(consts.StatusOK, map[string]any{"files": h.Haunt.RegenerateCursedFiles(c)})
}

func (h Handler) deleteCursedFile(c context.Context, ctx *app.RequestContext) {
	id := strings.TrimSpace(ctx.Param("id"))
	if id == "" {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_file_id", "invalid file id")
		return
	}
	res, err := h.Haunt.DeleteCursedFile(c, id)
	writeExorcism(ctx, res, err)
}

func (h Handler) newPuzzle(c context.Context, ctx *app.RequestContext) {
	var body puzzleRequest
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	ctx.JSON(consts.StatusCreated, h.Haunt.NewPuzzle(c, body.Difficulty))
}

func (h Handler) solvePuzzle(c context.Context, ctx *app.RequestContext) {
	var body solveRequest
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	res, err := h.Haunt.SolvePuzzle(c, ctx.Param("id"), body.Solution)
	writeExorcism(ctx, res, err)
}

func (h Handler) key(c context.Context, ctx *app.RequestContext) {
	var body keyRequest
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	ctx.JSON(consts.StatusOK, map[string]bool{"konami_code": h.Haunt.PressKey(c, body.Key)})
}

func (h Handler) click(c context.Context, ctx *app.RequestContext) {
	var body clickRequest
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	ctx.JSON(consts.StatusOK, map[string]bool{"secret_coordinate": h.Haunt.Click(c, body.X, body.Y)})
}

func (h Handler) text(c context.Context, ctx *app.RequestContext) {
	var body textRequest
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	res, err := h.Haunt.SubmitText(c, body.Text)
	if err != nil && res.Exorcism != nil {
		writeExorcism(ctx, *res.Exorcism, err)
		return
	}
	ctx.JSON(consts.StatusOK, res)
}

func (h Handler) easterEgg(c context.Context, ctx *app.RequestContext) {
	var body idRequest
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	found, err := h.Haunt.DiscoverEasterEgg(c, body.ID)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, map[string]bool{"discovered": found})
}

func (h Handler) achievement(c context.Context, ctx *app.RequestContext) {
	var body idRequest
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	unlocked, err := h.Haunt.UnlockAchievement(c, body.ID)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, map[string]bool{"unlocked": unlocked})
}

func (h Handler) jumpscare(c context.Context, ctx *app.RequestContext) {
	var body idRequest
	if err := decodeJSON(ctx, &body); err != nil || strings.TrimSpace(body.ID) == "" {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_jumpscare", "jumpscare id is required")
		return
	}
	h.Haunt.RecordJumpscare(c, body.ID)
	ctx.JSON(consts.StatusOK, map[string]string{"recorded": body.ID})
}

// ghostLevel updates the ghost source outside the service loop; the source
// notifies the service itself.
func (h Handler) ghostLevel(_ context.Context, ctx *app.RequestContext) {
	if h.Ghost == nil {
		writeErrorBody(ctx, consts.StatusNotFound, "not_configured", "ghost source not configured")
		return
	}
	var body levelRequest
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	ctx.JSON(consts.StatusOK, map[string]int{"haunting_level": h.Ghost.SetLevel(body.Level)})
}

type kpiSnapshotProvider interface {
	SnapshotAny() any
}

func (h Handler) kpi(_ context.Context, ctx *app.RequestContext) {
	if h.KPI == nil {
		writeErrorBody(ctx, consts.StatusNotFound, "not_configured", "kpi provider not configured")
		return
	}
	ctx.JSON(consts.StatusOK, h.KPI.SnapshotAny())
}

func decodeJSON(ctx *app.RequestContext, out any) error {
	body := ctx.Request.Body()
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}

func writeError(ctx *app.RequestContext, err error) {
	switch {
	case errors.Is(err, haunt.ErrInvalidAmount),
		errors.Is(err, haunting.ErrInvalidDifficulty),
		errors.Is(err, haunting.ErrInvalidSetting):
		writeErrorBody(ctx, consts.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, haunting.ErrUnknownActionKind):
		writeErrorBody(ctx, consts.StatusBadRequest, "unknown_exorcism_kind", err.Error())
	case errors.Is(err, haunting.ErrUnknownAchievement):
		writeErrorBody(ctx, consts.StatusNotFound, "unknown_achievement", err.Error())
	case errors.Is(err, haunting.ErrUnknownEasterEgg):
		writeErrorBody(ctx, consts.StatusNotFound, "unknown_easter_egg", err.Error())
	case errors.Is(err, gameplay.ErrUnknownCursedFile):
		writeErrorBody(ctx, consts.StatusNotFound, "unknown_cursed_file", err.Error())
	case errors.Is(err, gameplay.ErrUnknownPuzzle):
		writeErrorBody(ctx, consts.StatusNotFound, "unknown_puzzle", err.Error())
	case errors.Is(err, gameplay.ErrPuzzleExpired):
		writeErrorBody(ctx, consts.StatusConflict, "puzzle_expired", err.Error())
	case errors.Is(err, gameplay.ErrPuzzleIncorrect):
		writeErrorBody(ctx, consts.StatusConflict, "puzzle_incorrect", err.Error())
	case errors.Is(err, haunt.ErrCooldownActive):
		writeErrorBody(ctx, consts.StatusConflict, "exorcism_cooldown_active", err.Error())
	default:
		writeErrorBody(ctx, consts.StatusInternalServerError, "internal_error", "internal error")
	}
}

func writeErrorBody(ctx *app.RequestContext, status int, code, message string) {
	ctx.JSON(status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}

// writeExorcism answers with the result and, for a rejected exorcism, the
// error block alongside it.
func writeExorcism(ctx *app.RequestContext, res haunt.ExorcismResult, err error) {
	if err == nil {
		ctx.JSON(consts.StatusOK, res)
		return
	}
	if !haunt.IsExorcismFailure(err) {
		writeError(ctx, err)
		return
	}
	status, code := consts.StatusConflict, "exorcism_rejected"
	details := map[string]any{"reason": res.Reason}
	var cooldownErr *haunt.CooldownActiveError
	switch {
	case errors.As(err, &cooldownErr):
		code = "exorcism_cooldown_active"
		details["kind"] = string(cooldownErr.Kind)
		details["remaining_seconds"] = cooldownErr.RemainingSeconds
	case errors.Is(err, gameplay.ErrUnknownCursedFile), errors.Is(err, gameplay.ErrUnknownPuzzle):
		status, code = consts.StatusNotFound, res.Reason
	default:
		code = res.Reason
	}
	ctx.JSON(status, map[string]any{
		"result": res,
		"error": map[string]any{
			"code":    code,
			"message": err.Error(),
			"details": details,
		},
	})
}
