package persistence

import (
	"encoding/json"
	"errors"
	"math"
	"sort"
	"time"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"necroos/internal/domain/haunting"
)

const (
	SnapshotKey = "necro-os-advanced-haunting"
	MarkerKey   = "necro-os-consumed-warning"
)

// ErrCorrupt marks a stored value that is not syntactically valid JSON.
var ErrCorrupt = errors.New("corrupted snapshot")

type snapshot struct {
	PossessionLevel      int               `json:"possessionLevel"`
	Difficulty           string            `json:"difficulty"`
	SessionStartTime     *int64            `json:"sessionStartTime"`
	ExorcismCooldowns    [][2]any          `json:"exorcismCooldowns"`
	DiscoveredEasterEggs []string          `json:"discoveredEasterEggs"`
	Achievements         []string          `json:"achievements"`
	EndingReached        *string           `json:"endingReached"`
	Customization        snapshotCustomize `json:"customization"`
	DetectedUserName     string            `json:"detectedUserName,omitempty"`
	Statistics           snapshotStats     `json:"statistics"`
}

type snapshotCustomize struct {
	ScareIntensity     int      `json:"scareIntensity"`
	EnabledBehaviors   []string `json:"enabledBehaviors"`
	Theme              string   `json:"theme"`
	ReducedMotion      bool     `json:"reducedMotion"`
	VisualCuesForAudio bool     `json:"visualCuesForAudio"`
}

type snapshotStats struct {
	TotalSessions            int             `json:"totalSessions"`
	TotalTimeSurvived        int64           `json:"totalTimeSurvived"`
	ExorcismsPerformed       int             `json:"exorcismsPerformed"`
	JumpscaresSeen           []string        `json:"jumpscaresSeen"`
	EventsHistory            []snapshotEvent `json:"eventsHistory"`
	MaxPossessionReached     int             `json:"maxPossessionReached"`
	MinPossessionReached     *int            `json:"minPossessionReached,omitempty"`
	TotalPossessionIncreases int             `json:"totalPossessionIncreases"`
	TotalPossessionDecreases int             `json:"totalPossessionDecreases"`
	AchievementsUnlocked     int             `json:"achievementsUnlocked"`
	EasterEggsFound          int             `json:"easterEggsFound"`
	EndingsReached           []string        `json:"endingsReached"`
}

type snapshotEvent struct {
	Type      string         `json:"type"`
	Timestamp int64          `json:"timestamp"`
	Data      map[string]any `json:"data,omitempty"`
}

type minimalSnapshot struct {
	PossessionLevel int    `json:"possessionLevel"`
	Difficulty      string `json:"difficulty"`
	Statistics      struct {
		TotalSessions      int   `json:"totalSessions"`
		TotalTimeSurvived  int64 `json:"totalTimeSurvived"`
		ExorcismsPerformed int   `json:"exorcismsPerformed"`
	} `json:"statistics"`
}

// Encode renders the full snapshot.
func Encode(s haunting.State) (string, error) {
	out := snapshot{
		PossessionLevel:      s.Level,
		Difficulty:           string(s.Difficulty),
		ExorcismCooldowns:    [][2]any{},
		DiscoveredEasterEggs: sortedKeys(s.DiscoveredEasterEggs),
		Achievements:         sortedKeys(s.Achievements),
		DetectedUserName:     s.DetectedUserName,
		Customization: snapshotCustomize{
			ScareIntensity:     s.Customization.ScareIntensity,
			EnabledBehaviors:   enabledBehaviors(s.Customization.EnabledBehaviors),
			Theme:              string(s.Customization.Theme),
			ReducedMotion:      s.Customization.ReducedMotion,
			VisualCuesForAudio: s.Customization.VisualCuesForAudio,
		},
		Statistics: snapshotStats{
			TotalSessions:            s.Statistics.TotalSessions,
			TotalTimeSurvived:        s.Statistics.TotalTimeSurvived.Milliseconds(),
			ExorcismsPerformed:       s.Statistics.ExorcismsPerformed,
			JumpscaresSeen:           sortedKeys(s.Statistics.JumpscaresSeen),
			EventsHistory:            make([]snapshotEvent, 0, len(s.Statistics.EventsHistory)),
			MaxPossessionReached:     s.Statistics.MaxPossessionReached,
			MinPossessionReached:     s.Statistics.MinPossessionReached,
			TotalPossessionIncreases: s.Statistics.TotalPossessionIncreases,
			TotalPossessionDecreases: s.Statistics.TotalPossessionDecreases,
			AchievementsUnlocked:     s.Statistics.AchievementsUnlocked,
			EasterEggsFound:          s.Statistics.EasterEggsFound,
			EndingsReached:           sortedKeys(s.Statistics.EndingsReached),
		},
	}
	if s.SessionStartedAt != nil {
		ms := s.SessionStartedAt.UnixMilli()
		out.SessionStartTime = &ms
	}
	if s.EndingReached != haunting.EndingNone {
		ending := string(s.EndingReached)
		out.EndingReached = &ending
	}
	for _, kind := range sortedKeys(s.ExorcismCooldowns) {
		out.ExorcismCooldowns = append(out.ExorcismCooldowns, [2]any{kind, s.ExorcismCooldowns[haunting.ActionKind(kind)].UnixMilli()})
	}
	for _, e := range s.Statistics.EventsHistory {
		out.Statistics.EventsHistory = append(out.Statistics.EventsHistory, snapshotEvent{
			Type:      e.Type,
			Timestamp: e.Timestamp.UnixMilli(),
			Data:      e.Data,
		})
	}
	raw, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// Compress drops the events history from an encoded snapshot.
func Compress(full string) (string, error) {
	return sjson.SetRaw(full, "statistics.eventsHistory", "[]")
}

// EncodeMinimal keeps only level, difficulty and the core counters.
func EncodeMinimal(s haunting.State) (string, error) {
	var out minimalSnapshot
	out.PossessionLevel = s.Level
	out.Difficulty = string(s.Difficulty)
	out.Statistics.TotalSessions = s.Statistics.TotalSessions
	out.Statistics.TotalTimeSurvived = s.Statistics.TotalTimeSurvived.Milliseconds()
	out.Statistics.ExorcismsPerformed = s.Statistics.ExorcismsPerformed
	raw, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// Decode restores a state field by field. Fields that are missing or of the
// wrong type keep their defaults. It returns ErrCorrupt for invalid JSON and
// ok=false when the document is valid but not an object.
func Decode(raw string) (state haunting.State, ok bool, err error) {
	state = haunting.NewState()
	if !gjson.Valid(raw) {
		return state, false, ErrCorrupt
	}
	doc := gjson.Parse(raw)
	if !doc.IsObject() {
		return state, false, nil
	}

	if v := doc.Get("possessionLevel"); isNumber(v) {
		state.Level = haunting.ClampLevel(int(v.Int()))
	}
	if v := doc.Get("difficulty"); v.Type == gjson.String {
		if d, err := haunting.ParseDifficulty(v.Str); err == nil {
			state.Difficulty = d
		}
	}
	if v := doc.Get("sessionStartTime"); isNumber(v) && v.Int() > 0 {
		at := time.UnixMilli(v.Int())
		state.SessionStartedAt = &at
	}
	if v := doc.Get("exorcismCooldowns"); v.IsArray() {
		for _, pair := range v.Array() {
			kind, ts := pair.Get("0"), pair.Get("1")
			if !pair.IsArray() || kind.Type != gjson.String || !isNumber(ts) {
				continue
			}
			state.ExorcismCooldowns[haunting.ActionKind(kind.Str)] = time.UnixMilli(ts.Int())
		}
	}
	for _, id := range stringArray(doc.Get("discoveredEasterEggs")) {
		state.DiscoveredEasterEggs[haunting.EggID(id)] = true
	}
	for _, id := range stringArray(doc.Get("achievements")) {
		state.Achievements[haunting.AchievementID(id)] = true
	}
	if v := doc.Get("endingReached"); v.Type == gjson.String {
		if e, ok := haunting.ParseEnding(v.Str); ok {
			state.EndingReached = e
		}
	}
	if v := doc.Get("detectedUserName"); v.Type == gjson.String {
		state.DetectedUserName = v.Str
	}
	if c := doc.Get("customization"); c.IsObject() {
		decodeCustomization(c, &state.Customization)
	}
	if st := doc.Get("statistics"); st.IsObject() {
		decodeStatistics(st, &state.Statistics)
	}
	return state, true, nil
}

func decodeCustomization(c gjson.Result, out *haunting.Customization) {
	if v := c.Get("scareIntensity"); isNumber(v) {
		out.ScareIntensity = clampInt(int(v.Int()), 0, 100)
	}
	if v := c.Get("enabledBehaviors"); v.IsArray() {
		enabled := map[haunting.Behavior]bool{}
		for _, b := range haunting.AllBehaviors {
			enabled[b] = false
		}
		for _, raw := range stringArray(v) {
			b := haunting.Behavior(raw)
			if _, known := enabled[b]; known {
				enabled[b] = true
			}
		}
		out.EnabledBehaviors = enabled
	}
	if v := c.Get("theme"); v.Type == gjson.String {
		if theme, ok := haunting.ParseTheme(v.Str); ok {
			out.Theme = theme
		}
	}
	if v := c.Get("reducedMotion"); v.IsBool() {
		out.ReducedMotion = v.Bool()
	}
	if v := c.Get("visualCuesForAudio"); v.IsBool() {
		out.VisualCuesForAudio = v.Bool()
	}
}

func decodeStatistics(st gjson.Result, out *haunting.Statistics) {
	counter := func(path string, dst *int) {
		if v := st.Get(path); isNumber(v) {
			*dst = max(0, int(v.Int()))
		}
	}
	counter("totalSessions", &out.TotalSessions)
	counter("exorcismsPerformed", &out.ExorcismsPerformed)
	counter("totalPossessionIncreases", &out.TotalPossessionIncreases)
	counter("totalPossessionDecreases", &out.TotalPossessionDecreases)
	counter("achievementsUnlocked", &out.AchievementsUnlocked)
	counter("easterEggsFound", &out.EasterEggsFound)
	if v := st.Get("totalTimeSurvived"); isNumber(v) {
		out.TotalTimeSurvived = time.Duration(max(0, v.Int())) * time.Millisecond
	}
	if v := st.Get("maxPossessionReached"); isNumber(v) {
		out.MaxPossessionReached = haunting.ClampLevel(int(v.Int()))
	}
	if v := st.Get("minPossessionReached"); isNumber(v) {
		lowest := haunting.ClampLevel(int(v.Int()))
		out.MinPossessionReached = &lowest
	}
	for _, id := range stringArray(st.Get("jumpscaresSeen")) {
		out.JumpscaresSeen[id] = true
	}
	for _, raw := range stringArray(st.Get("endingsReached")) {
		if e, ok := haunting.ParseEnding(raw); ok {
			out.EndingsReached[e] = true
		}
	}
	if v := st.Get("eventsHistory"); v.IsArray() {
		for _, e := range v.Array() {
			typ, ts := e.Get("type"), e.Get("timestamp")
			if !e.IsObject() || typ.Type != gjson.String || typ.Str == "" || !isNumber(ts) || ts.Int() == 0 {
				continue
			}
			event := haunting.Event{Type: typ.Str, Timestamp: time.UnixMilli(ts.Int())}
			if data, ok := e.Get("data").Value().(map[string]any); ok {
				event.Data = data
			}
			out.AppendEvent(event)
		}
	}
}

// EncodeMarker renders the consumed marker.
func EncodeMarker(m haunting.ConsumedMarker) (string, error) {
	raw, err := json.Marshal(struct {
		Timestamp       int64 `json:"timestamp"`
		PossessionLevel int   `json:"possessionLevel"`
	}{Timestamp: m.Timestamp.UnixMilli(), PossessionLevel: m.PossessionLevel})
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// DecodeMarker returns ok=false for anything that is not a usable marker.
func DecodeMarker(raw string) (haunting.ConsumedMarker, bool) {
	if !gjson.Valid(raw) {
		return haunting.ConsumedMarker{}, false
	}
	ts := gjson.Get(raw, "timestamp")
	if !isNumber(ts) || ts.Int() <= 0 {
		return haunting.ConsumedMarker{}, false
	}
	m := haunting.ConsumedMarker{Timestamp: time.UnixMilli(ts.Int())}
	if lvl := gjson.Get(raw, "possessionLevel"); isNumber(lvl) {
		m.PossessionLevel = haunting.ClampLevel(int(lvl.Int()))
	}
	return m, true
}

func isNumber(v gjson.Result) bool {
	return v.Type == gjson.Number && !math.IsNaN(v.Num) && !math.IsInf(v.Num, 0)
}

func stringArray(v gjson.Result) []string {
	if !v.IsArray() {
		return nil
	}
	var out []string
	for _, item := range v.Array() {
		if item.Type == gjson.String {
			out = append(out, item.Str)
		}
	}
	return out
}

func sortedKeys[K ~string, V any](m map[K]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, string(k))
	}
	sort.Strings(out)
	return out
}

func enabledBehaviors(m map[haunting.Behavior]bool) []string {
	out := []string{}
	for _, b := range haunting.AllBehaviors {
		if m[b] {
			out = append(out, string(b))
		}
	}
	return out
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
