package haunting

import (
	"math"
	"strings"
	"time"
)

var KonamiSequence = []string{
	"ArrowUp", "ArrowUp", "ArrowDown", "ArrowDown",
	"ArrowLeft", "ArrowRight", "ArrowLeft", "ArrowRight",
	"b", "a",
}

const (
	SecretPhrase         = "help me"
	SecretCoordinateX    = 666
	SecretCoordinateY    = 666
	SecretCoordinateTol  = 10
	SecretCoordinateHits = 3
	SecretCoordinateSpan = 5 * time.Second
)

// KonamiDetector keeps the last len(KonamiSequence) keys.
type KonamiDetector struct {
	keys []string
}

// Press records a key and reports whether the buffer now ends the sequence.
func (d *KonamiDetector) Press(key string) bool {
	d.keys = append(d.keys, key)
	if over := len(d.keys) - len(KonamiSequence); over > 0 {
		d.keys = d.keys[over:]
	}
	if len(d.keys) < len(KonamiSequence) {
		return false
	}
	for i, want := range KonamiSequence {
		if !strings.EqualFold(d.keys[i], want) {
			return false
		}
	}
	d.keys = d.keys[:0]
	return true
}

type click struct {
	x, y float64
	at   time.Time
}

// CoordinateDetector watches for repeated clicks near the secret coordinate.
type CoordinateDetector struct {
	clicks []click
}

func (d *CoordinateDetector) Click(x, y float64, at time.Time) bool {
	cutoff := at.Add(-SecretCoordinateSpan)
	kept := d.clicks[:0]
	for _, c := range d.clicks {
		if c.at.After(cutoff) {
			kept = append(kept, c)
		}
	}
	d.clicks = append(kept, click{x: x, y: y, at: at})
	if !nearSecretCoordinate(x, y) {
		return false
	}
	hits := 0
	for _, c := range d.clicks {
		if nearSecretCoordinate(c.x, c.y) {
			hits++
		}
	}
	if hits >= SecretCoordinateHits {
		d.clicks = d.clicks[:0]
		return true
	}
	return false
}

func nearSecretCoordinate(x, y float64) bool {
	return math.Abs(x-SecretCoordinateX) <= SecretCoordinateTol &&
		math.Abs(y-SecretCoordinateY) <= SecretCoordinateTol
}

func IsSecretPhrase(text string) bool {
	return strings.ToLower(strings.TrimSpace(text)) == SecretPhrase
}

func IsSecretWallpaperLevel(level int) bool {
	return level == SecretWallpaperLevel
}
